package timeline

import (
	"encoding/json"
	"fmt"
)

// NodeKind identifies the content type of a graph node
type NodeKind string

const (
	NodeKindStarting NodeKind = "starting"
	NodeKindVideo    NodeKind = "video"
	NodeKindImage    NodeKind = "image"
	NodeKindAudio    NodeKind = "audio"
	NodeKindDraft    NodeKind = "draft"
)

// AssetMetadata carries the media properties known for a source asset
type AssetMetadata struct {
	Duration float64 `json:"duration,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Size     int64   `json:"size,omitempty"`
	MimeType string  `json:"mimeType,omitempty"`
}

// NodeData is the kind-specific payload of a graph node. Exactly one of the
// concrete types below implements it per node kind, so the sequencer and
// populator can switch exhaustively instead of digging through untyped maps.
type NodeData interface {
	nodeData()
}

// AssetNodeData is the payload of video, image, and audio nodes
type AssetNodeData struct {
	AssetID  string        `json:"assetId"`
	Name     string        `json:"name"`
	URL      string        `json:"url"`
	Metadata AssetMetadata `json:"metadata"`
}

func (AssetNodeData) nodeData() {}

// DraftNodeData is the payload of a draft (idea) node that has no asset yet
type DraftNodeData struct {
	Title             string  `json:"title"`
	Description       string  `json:"description,omitempty"`
	EstimatedDuration float64 `json:"estimatedDuration,omitempty"`
}

func (DraftNodeData) nodeData() {}

// Node is a single node in the content graph
type Node struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`
	Data NodeData `json:"data,omitempty"`
}

// UnmarshalJSON decodes the payload into the variant matching the node kind
func (n *Node) UnmarshalJSON(raw []byte) error {
	var head struct {
		ID   string          `json:"id"`
		Kind NodeKind        `json:"kind"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("failed to parse node: %w", err)
	}
	n.ID = head.ID
	n.Kind = head.Kind
	n.Data = nil
	if len(head.Data) == 0 || string(head.Data) == "null" {
		return nil
	}
	switch head.Kind {
	case NodeKindVideo, NodeKindImage, NodeKindAudio:
		var data AssetNodeData
		if err := json.Unmarshal(head.Data, &data); err != nil {
			return fmt.Errorf("failed to parse %s node %s data: %w", head.Kind, head.ID, err)
		}
		n.Data = data
	case NodeKindDraft:
		var data DraftNodeData
		if err := json.Unmarshal(head.Data, &data); err != nil {
			return fmt.Errorf("failed to parse draft node %s data: %w", head.ID, err)
		}
		n.Data = data
	case NodeKindStarting:
		// Start nodes carry no payload
	default:
		return fmt.Errorf("unknown node kind %q on node %s", head.Kind, head.ID)
	}
	return nil
}

// Edge is a directed connection between two nodes
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the content graph the user composes in the node editor
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// FindNode returns the node with the given id, or nil
func (g Graph) FindNode(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// firstOutgoingEdge returns the first edge in edge-list order leaving the
// given node, or nil
func (g Graph) firstOutgoingEdge(nodeID string) *Edge {
	for i := range g.Edges {
		if g.Edges[i].Source == nodeID {
			return &g.Edges[i]
		}
	}
	return nil
}

// Sequence derives the ordered list of content nodes by walking from the
// starting node, following exactly one outgoing edge per node (the first in
// edge-list order). The walk stops when a node has no outgoing edge or the
// next node was already visited, so branches and cycles are not explored
// further. A graph with no starting node yields an empty sequence.
func (g Graph) Sequence() []Node {
	var start *Node
	for i := range g.Nodes {
		if g.Nodes[i].Kind == NodeKindStarting {
			start = &g.Nodes[i]
			break
		}
	}
	if start == nil {
		return nil
	}

	visited := map[string]bool{start.ID: true}
	var sequence []Node
	current := start
	for {
		edge := g.firstOutgoingEdge(current.ID)
		if edge == nil {
			break
		}
		next := g.FindNode(edge.Target)
		if next == nil || visited[next.ID] {
			break
		}
		visited[next.ID] = true
		sequence = append(sequence, *next)
		current = next
	}
	return sequence
}
