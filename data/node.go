package data

import "time"

// Node is a snapshot of a single node in the coordination tree.
type Node struct {
	Path     string   `json:"path"`
	Payload  []byte   `json:"payload,omitempty"`
	Children []string `json:"children,omitempty"`
	Stat     NodeStat `json:"stat"`
}

// NodeStat holds the bookkeeping a store keeps per node.
type NodeStat struct {
	CreateTime  time.Time `json:"create_time"`
	ModifyTime  time.Time `json:"modify_time"`
	Version     int64     `json:"version"`
	NumChildren int       `json:"num_children"`
	DataLength  int       `json:"data_length"`
	Ephemeral   bool      `json:"ephemeral"`
}

// Name returns the last segment of the node path.
func (n *Node) Name() string {
	return BaseName(n.Path)
}
