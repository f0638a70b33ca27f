// Package hcl parses editor project and content-graph definitions written in
// HCL, the same way request bodies may be posted to the HTTP surface.
package hcl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/cutroom/timeline-editor/pkg/timeline"
)

// HCLProject is the top-level project definition
type HCLProject struct {
	Name          string      `hcl:"name,label"`
	TimelineScale *float64    `hcl:"timeline_scale,optional"`
	Tracks        []HCLTrack  `hcl:"track,block"`
	Filters       *HCLFilters `hcl:"filters,block"`
}

// HCLTrack is one timeline track declaration
type HCLTrack struct {
	ID     string `hcl:"id,label"`
	Kind   string `hcl:"kind"`
	Name   string `hcl:"name"`
	Muted  *bool  `hcl:"muted,optional"`
	Locked *bool  `hcl:"locked,optional"`
}

// HCLFilters mirrors timeline.CompositionFilters
type HCLFilters struct {
	Contrast   *float64 `hcl:"contrast,optional"`
	Saturation *float64 `hcl:"saturation,optional"`
	Brightness *float64 `hcl:"brightness,optional"`
	HueRotate  *float64 `hcl:"hue_rotate,optional"`
	Sepia      *float64 `hcl:"sepia,optional"`
	Grayscale  *float64 `hcl:"grayscale,optional"`
	Invert     *float64 `hcl:"invert,optional"`
	Blur       *float64 `hcl:"blur,optional"`
}

// HCLNode is one content-graph node; the attribute set varies by kind
type HCLNode struct {
	ID                string   `hcl:"id,label"`
	Kind              string   `hcl:"kind"`
	AssetID           *string  `hcl:"asset_id,optional"`
	Name              *string  `hcl:"name,optional"`
	URL               *string  `hcl:"url,optional"`
	Duration          *float64 `hcl:"duration,optional"`
	Width             *int     `hcl:"width,optional"`
	Height            *int     `hcl:"height,optional"`
	Title             *string  `hcl:"title,optional"`
	Description       *string  `hcl:"description,optional"`
	EstimatedDuration *float64 `hcl:"estimated_duration,optional"`
}

// HCLEdge is one directed graph edge
type HCLEdge struct {
	Source string `hcl:"source"`
	Target string `hcl:"target"`
}

type hclProjectFile struct {
	Project *HCLProject `hcl:"project,block"`
	Nodes   []HCLNode   `hcl:"node,block"`
	Edges   []HCLEdge   `hcl:"edge,block"`
}

// evalContext returns the evaluation context shared by all definitions,
// exposing a seconds() helper so durations read naturally
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"seconds": function.New(&function.Spec{
				Params: []function.Parameter{
					{Name: "n", Type: cty.Number},
				},
				Type: function.StaticReturnType(cty.Number),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					return args[0], nil
				},
			}),
			"minutes": function.New(&function.Spec{
				Params: []function.Parameter{
					{Name: "n", Type: cty.Number},
				},
				Type: function.StaticReturnType(cty.Number),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					n, _ := args[0].AsBigFloat().Float64()
					return cty.NumberFloatVal(n * 60), nil
				},
			}),
		},
	}
}

func parseFile(content []byte, filename string) (*hclProjectFile, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}

	var parsed hclProjectFile
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	return &parsed, nil
}

// ParseProject parses an HCL project definition into a timeline skeleton.
// Content without a project block yields the default two-track skeleton.
func ParseProject(content []byte, filename string) (*timeline.TimelineData, error) {
	parsed, err := parseFile(content, filename)
	if err != nil {
		return nil, err
	}
	if parsed.Project == nil {
		return timeline.NewDefaultTimeline(), nil
	}
	return projectToTimeline(parsed.Project)
}

func projectToTimeline(project *HCLProject) (*timeline.TimelineData, error) {
	data := &timeline.TimelineData{TimelineScale: timeline.DefaultTimelineScale}
	if project.TimelineScale != nil {
		if *project.TimelineScale <= 0 {
			return nil, fmt.Errorf("project %s: timeline_scale must be positive", project.Name)
		}
		data.TimelineScale = *project.TimelineScale
	}

	for _, track := range project.Tracks {
		kind := timeline.TrackKind(track.Kind)
		if kind != timeline.TrackKindVideo && kind != timeline.TrackKindAudio {
			return nil, fmt.Errorf("track %s: unknown kind %q", track.ID, track.Kind)
		}
		t := timeline.TimelineTrack{ID: track.ID, Kind: kind, Name: track.Name}
		if track.Muted != nil {
			t.Muted = *track.Muted
		}
		if track.Locked != nil {
			t.Locked = *track.Locked
		}
		data.Tracks = append(data.Tracks, t)
	}
	if len(data.Tracks) == 0 {
		data.Tracks = timeline.NewDefaultTimeline().Tracks
	}

	if project.Filters != nil {
		filters := &timeline.CompositionFilters{
			Contrast:   project.Filters.Contrast,
			Saturation: project.Filters.Saturation,
			Brightness: project.Filters.Brightness,
			HueRotate:  project.Filters.HueRotate,
			Sepia:      project.Filters.Sepia,
			Grayscale:  project.Filters.Grayscale,
			Invert:     project.Filters.Invert,
			Blur:       project.Filters.Blur,
		}
		if err := filters.Validate(); err != nil {
			return nil, fmt.Errorf("project %s: %w", project.Name, err)
		}
		if !filters.IsIdentity() {
			data.Filters = filters
		}
	}
	return data, nil
}

// ParseGraph parses node and edge blocks into a content graph
func ParseGraph(content []byte, filename string) (*timeline.Graph, error) {
	parsed, err := parseFile(content, filename)
	if err != nil {
		return nil, err
	}
	return blocksToGraph(parsed.Nodes, parsed.Edges)
}

func blocksToGraph(nodes []HCLNode, edges []HCLEdge) (*timeline.Graph, error) {
	graph := &timeline.Graph{}
	for _, node := range nodes {
		converted, err := nodeFromHCL(node)
		if err != nil {
			return nil, err
		}
		graph.Nodes = append(graph.Nodes, converted)
	}
	for _, edge := range edges {
		graph.Edges = append(graph.Edges, timeline.Edge{Source: edge.Source, Target: edge.Target})
	}
	return graph, nil
}

func nodeFromHCL(node HCLNode) (timeline.Node, error) {
	kind := timeline.NodeKind(node.Kind)
	result := timeline.Node{ID: node.ID, Kind: kind}

	switch kind {
	case timeline.NodeKindStarting:
		// No payload

	case timeline.NodeKindVideo, timeline.NodeKindImage, timeline.NodeKindAudio:
		data := timeline.AssetNodeData{}
		if node.AssetID != nil {
			data.AssetID = *node.AssetID
		}
		if node.Name != nil {
			data.Name = *node.Name
		}
		if node.URL != nil {
			data.URL = *node.URL
		}
		if node.Duration != nil {
			data.Metadata.Duration = *node.Duration
		}
		if node.Width != nil {
			data.Metadata.Width = *node.Width
		}
		if node.Height != nil {
			data.Metadata.Height = *node.Height
		}
		result.Data = data

	case timeline.NodeKindDraft:
		data := timeline.DraftNodeData{}
		if node.Title != nil {
			data.Title = *node.Title
		}
		if node.Description != nil {
			data.Description = *node.Description
		}
		if node.EstimatedDuration != nil {
			data.EstimatedDuration = *node.EstimatedDuration
		}
		result.Data = data

	default:
		return timeline.Node{}, fmt.Errorf("node %s: unknown kind %q", node.ID, node.Kind)
	}
	return result, nil
}

// MergeHCLFiles combines multiple HCL files into a single body, mimicking how
// Terraform loads every .tf file in a directory
func MergeHCLFiles(filePaths []string) ([]byte, error) {
	var merged bytes.Buffer
	for _, path := range filePaths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		merged.Write(content)
		merged.WriteString("\n")
	}
	return merged.Bytes(), nil
}

// LoadPath reads a single .hcl file, or every .hcl file in a directory
// merged in name order
func LoadPath(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return os.ReadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hcl") {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files in %s", path)
	}
	sort.Strings(files)
	return MergeHCLFiles(files)
}
