package nodemap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edp1096/toy-acdc/internal/consts"
)

var ErrGroundConflict = errors.New("ground node name conflict")

// NodeEdgeIndex allocates dense indices for terminal names and branch labels.
// Node 0 is the ground node. Edge indices start at 0 in their own namespace.
type NodeEdgeIndex struct {
	nodeNames []string // nodeNames[0] holds the ground spelling once seen
	edgeNames []string
	nodeMap   map[string]int
	edgeMap   map[string]int
}

func New() *NodeEdgeIndex {
	return &NodeEdgeIndex{
		nodeNames: []string{""},
		nodeMap:   make(map[string]int),
		edgeMap:   make(map[string]int),
	}
}

func IsGround(name string) bool {
	for _, alias := range consts.GroundAliases {
		if strings.EqualFold(name, alias) {
			return true
		}
	}
	return false
}

// NodeIndex returns the index of a terminal, allocating the next one on first use.
func (m *NodeEdgeIndex) NodeIndex(name string) (int, error) {
	if IsGround(name) {
		if err := m.addGround(name); err != nil {
			return 0, err
		}
		return 0, nil
	}

	if idx, exists := m.nodeMap[name]; exists {
		return idx, nil
	}

	idx := len(m.nodeNames)
	m.nodeNames = append(m.nodeNames, name)
	m.nodeMap[name] = idx

	return idx, nil
}

func (m *NodeEdgeIndex) addGround(name string) error {
	if m.nodeNames[0] == "" {
		m.nodeNames[0] = name
		return nil
	}
	if m.nodeNames[0] != name {
		return fmt.Errorf("%w: expected %q, found %q", ErrGroundConflict, m.nodeNames[0], name)
	}
	return nil
}

// EdgeIndex returns the index of a branch label, allocating the next one on first use.
func (m *NodeEdgeIndex) EdgeIndex(label string) int {
	if idx, exists := m.edgeMap[label]; exists {
		return idx
	}

	idx := len(m.edgeNames)
	m.edgeNames = append(m.edgeNames, label)
	m.edgeMap[label] = idx

	return idx
}

// HasEdge reports whether a branch label was allocated.
func (m *NodeEdgeIndex) HasEdge(label string) (int, bool) {
	idx, ok := m.edgeMap[label]
	return idx, ok
}

func (m *NodeEdgeIndex) NodeName(idx int) string {
	if idx == 0 && m.nodeNames[0] == "" {
		return consts.GROUND_NAME
	}
	return m.nodeNames[idx]
}

func (m *NodeEdgeIndex) EdgeName(idx int) string {
	return m.edgeNames[idx]
}

// NumNodes is the number of non-ground nodes allocated so far.
func (m *NodeEdgeIndex) NumNodes() int {
	return len(m.nodeNames) - 1
}

func (m *NodeEdgeIndex) NumEdges() int {
	return len(m.edgeNames)
}
