// Package store persists project timelines in a local sqlite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/cutroom/timeline-editor/pkg/timeline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a sqlite-backed timeline store. A single writer connection keeps
// sqlite happy under WAL.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at dbPath and applies pending
// migrations
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{conn: conn, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if s.logger != nil {
			s.logger.Info("applied migration", "name", name)
		}
	}
	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// SaveTimeline transactionally replaces the stored timeline for a project.
// Last write wins; there is no multi-editor merge.
func (s *Store) SaveTimeline(ctx context.Context, projectID string, data *timeline.TimelineData) error {
	var filtersJSON sql.NullString
	if data.Filters != nil && !data.Filters.IsIdentity() {
		raw, err := json.Marshal(data.Filters)
		if err != nil {
			return fmt.Errorf("failed to encode filters: %w", err)
		}
		filtersJSON = sql.NullString{String: string(raw), Valid: true}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projects (id, timeline_scale, filters, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			timeline_scale = excluded.timeline_scale,
			filters = excluded.filters,
			updated_at = excluded.updated_at`,
		projectID, data.TimelineScale, filtersJSON); err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tracks WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	for pos, track := range data.Tracks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tracks (id, project_id, kind, name, muted, locked, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			track.ID, projectID, string(track.Kind), track.Name, track.Muted, track.Locked, pos); err != nil {
			return fmt.Errorf("failed to insert track %s: %w", track.ID, err)
		}

		for _, item := range track.Items {
			// Ephemeral items exist only for display and are never persisted
			if item.IsEphemeral() {
				continue
			}
			var overlayJSON sql.NullString
			if item.Overlay != nil {
				raw, err := json.Marshal(item.Overlay)
				if err != nil {
					return fmt.Errorf("failed to encode overlay for item %s: %w", item.ID, err)
				}
				overlayJSON = sql.NullString{String: string(raw), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO items (id, project_id, track_id, asset_id, kind, name,
					start_time, end_time, asset_start_time, asset_end_time,
					overlay, volume, opacity)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, projectID, track.ID, nullString(item.AssetID), string(item.Kind), nullString(item.Name),
				item.StartTime, item.EndTime, item.AssetStartTime, item.AssetEndTime,
				overlayJSON, nullFloat(item.Volume), nullFloat(item.Opacity)); err != nil {
				return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit timeline: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("saved timeline", "projectID", projectID, "tracks", len(data.Tracks))
	}
	return nil
}

// LoadTimeline reads the stored timeline for a project. A project that was
// never saved yields (nil, nil) so callers can fall back to the default
// skeleton.
func (s *Store) LoadTimeline(ctx context.Context, projectID string) (*timeline.TimelineData, error) {
	var scale float64
	var filtersJSON sql.NullString
	err := s.conn.QueryRowContext(ctx,
		"SELECT timeline_scale, filters FROM projects WHERE id = ?", projectID).
		Scan(&scale, &filtersJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project %s: %w", projectID, err)
	}

	data := &timeline.TimelineData{TimelineScale: scale}
	if filtersJSON.Valid {
		var filters timeline.CompositionFilters
		if err := json.Unmarshal([]byte(filtersJSON.String), &filters); err != nil {
			return nil, fmt.Errorf("failed to decode filters for project %s: %w", projectID, err)
		}
		data.Filters = &filters
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, kind, name, muted, locked
		FROM tracks WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var track timeline.TimelineTrack
		var kind string
		if err := rows.Scan(&track.ID, &kind, &track.Name, &track.Muted, &track.Locked); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		track.Kind = timeline.TrackKind(kind)
		data.Tracks = append(data.Tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}

	itemRows, err := s.conn.QueryContext(ctx, `
		SELECT id, track_id, asset_id, kind, name,
			start_time, end_time, asset_start_time, asset_end_time,
			overlay, volume, opacity
		FROM items WHERE project_id = ? ORDER BY track_id, start_time`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item timeline.TimelineItem
		var kind string
		var assetID, name, overlayJSON sql.NullString
		var volume, opacity sql.NullFloat64
		if err := itemRows.Scan(&item.ID, &item.TrackID, &assetID, &kind, &name,
			&item.StartTime, &item.EndTime, &item.AssetStartTime, &item.AssetEndTime,
			&overlayJSON, &volume, &opacity); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Kind = timeline.ItemKind(kind)
		item.AssetID = assetID.String
		item.Name = name.String
		if overlayJSON.Valid {
			var overlay timeline.Overlay
			if err := json.Unmarshal([]byte(overlayJSON.String), &overlay); err != nil {
				return nil, fmt.Errorf("failed to decode overlay for item %s: %w", item.ID, err)
			}
			item.Overlay = &overlay
		}
		if volume.Valid {
			item.Volume = &volume.Float64
		}
		if opacity.Valid {
			item.Opacity = &opacity.Float64
		}

		track := data.FindTrack(item.TrackID)
		if track == nil {
			return nil, fmt.Errorf("item %s references unknown track %s", item.ID, item.TrackID)
		}
		track.Items = append(track.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	data.RecomputeDuration()
	return data, nil
}

// DeleteItem removes a single item. Duration is derived on load, so no other
// rows change.
func (s *Store) DeleteItem(ctx context.Context, projectID, itemID string) error {
	result, err := s.conn.ExecContext(ctx,
		"DELETE FROM items WHERE project_id = ? AND id = ?", projectID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s not found in project %s", itemID, projectID)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
