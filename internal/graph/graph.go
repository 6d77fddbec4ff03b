// Package graph provides the acyclic projection graph underlying a synapse
// network. Mechanisms are identity-only string handles; projections are
// directed edges from a sender to a receiver. The package supports cycle
// detection, Kahn-style layering (the scheduler's consideration queue),
// transitive afferent/efferent queries, and union-find partitioning into
// independent subnetworks.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when the graph contains a projection cycle.
var ErrCycle = errors.New("graph is not acyclic")

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when adding a node that already exists.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrSelfEdge is returned when a projection would create a self-loop.
var ErrSelfEdge = errors.New("self-referencing projection")

// Graph represents a directed acyclic network of mechanisms.
// Edges run sender → receiver: the receiver depends on the sender.
type Graph struct {
	nodes map[string]bool
	// senders maps receiver → set of sender IDs (its dependencies).
	senders map[string]map[string]bool
	// receivers maps sender → set of receiver IDs (its dependents).
	receivers map[string]map[string]bool
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]bool),
		senders:   make(map[string]map[string]bool),
		receivers: make(map[string]map[string]bool),
	}
}

// AddNode adds a mechanism with the given ID. Returns ErrDuplicateNode if a
// node with that ID already exists.
func (g *Graph) AddNode(id string) error {
	if g.nodes[id] {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	g.nodes[id] = true
	g.senders[id] = make(map[string]bool)
	g.receivers[id] = make(map[string]bool)
	return nil
}

// AddNodeIdempotent adds a mechanism if absent and is a no-op otherwise.
func (g *Graph) AddNodeIdempotent(id string) {
	if !g.nodes[id] {
		_ = g.AddNode(id)
	}
}

// AddProjection adds a directed edge from sender to receiver. Both nodes
// must already exist. Returns an error if either node is missing, the edge
// would create a self-loop, or the edge would introduce a cycle.
func (g *Graph) AddProjection(sender, receiver string) error {
	if sender == receiver {
		return fmt.Errorf("%w: %s", ErrSelfEdge, sender)
	}
	if !g.nodes[sender] {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, sender)
	}
	if !g.nodes[receiver] {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, receiver)
	}
	// Skip if edge already exists.
	if g.receivers[sender][receiver] {
		return nil
	}
	// Adding sender→receiver closes a cycle iff sender is already
	// reachable from receiver.
	if g.hasPath(receiver, sender) {
		return fmt.Errorf("%w: projection %s → %s would create a cycle", ErrCycle, sender, receiver)
	}
	g.receivers[sender][receiver] = true
	g.senders[receiver][sender] = true
	return nil
}

// Remove removes a node and all its projections from the graph.
// Returns ErrNodeNotFound if the node does not exist.
func (g *Graph) Remove(id string) error {
	if !g.nodes[id] {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	for s := range g.senders[id] {
		delete(g.receivers[s], id)
	}
	delete(g.senders, id)

	for r := range g.receivers[id] {
		delete(g.senders[r], id)
	}
	delete(g.receivers, id)

	delete(g.nodes, id)
	return nil
}

// Has reports whether the node exists in the graph.
func (g *Graph) Has(id string) bool {
	return g.nodes[id]
}

// Nodes returns all node IDs in the graph, sorted alphabetically.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Senders returns the direct senders (afferent projections) of the given
// node, sorted alphabetically. Returns nil if the node does not exist or
// has no senders.
func (g *Graph) Senders(id string) []string {
	return sortedKeys(g.senders[id])
}

// Receivers returns the direct receivers (efferent projections) of the
// given node, sorted alphabetically.
func (g *Graph) Receivers(id string) []string {
	return sortedKeys(g.receivers[id])
}

// Layers partitions the graph into consideration-set layers via Kahn-style
// peeling: layer 0 contains exactly the nodes with no incoming projections,
// and every node's layer index exceeds that of all of its senders. Nodes
// within a layer are sorted alphabetically. Returns ErrCycle if any nodes
// cannot be placed.
func (g *Graph) Layers() ([][]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = len(g.senders[id])
	}

	var layers [][]string
	placed := 0
	frontier := zeroDegreeNodes(inDegree)
	for len(frontier) > 0 {
		sort.Strings(frontier)
		layers = append(layers, frontier)
		placed += len(frontier)

		var next []string
		for _, id := range frontier {
			for r := range g.receivers[id] {
				inDegree[r]--
				if inDegree[r] == 0 {
					next = append(next, r)
				}
			}
			// Mark as consumed so a later frontier scan can't re-add it.
			inDegree[id] = -1
		}
		frontier = next
	}

	if placed != len(g.nodes) {
		return nil, fmt.Errorf("%w: only %d of %d nodes could be layered",
			ErrCycle, placed, len(g.nodes))
	}
	return layers, nil
}

// TopologicalSort returns node IDs in a valid topological order (senders
// before receivers), with alphabetical tie-breaking within a layer.
// Returns ErrCycle if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	layers, err := g.Layers()
	if err != nil {
		return nil, err
	}
	sorted := make([]string, 0, len(g.nodes))
	for _, layer := range layers {
		sorted = append(sorted, layer...)
	}
	return sorted, nil
}

// Ancestors returns all transitive senders of the given node (everything
// whose output can influence it), sorted alphabetically. Returns nil if
// the node has none or does not exist.
func (g *Graph) Ancestors(id string) []string {
	if !g.nodes[id] {
		return nil
	}
	visited := make(map[string]bool)
	g.collect(id, g.senders, visited)
	return sortedKeys(visited)
}

// Descendants returns all transitive receivers of the given node
// (everything it can influence), sorted alphabetically.
func (g *Graph) Descendants(id string) []string {
	if !g.nodes[id] {
		return nil
	}
	visited := make(map[string]bool)
	g.collect(id, g.receivers, visited)
	return sortedKeys(visited)
}

// hasPath reports whether there is a directed path from src to dst through
// efferent projections.
func (g *Graph) hasPath(src, dst string) bool {
	if src == dst {
		return false
	}
	visited := make(map[string]bool)
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for r := range g.receivers[cur] {
			if r == dst {
				return true
			}
			if !visited[r] {
				visited[r] = true
				queue = append(queue, r)
			}
		}
	}
	return false
}

// collect walks the given adjacency direction transitively from id,
// recording every reached node in visited.
func (g *Graph) collect(id string, adj map[string]map[string]bool, visited map[string]bool) {
	for next := range adj[id] {
		if !visited[next] {
			visited[next] = true
			g.collect(next, adj, visited)
		}
	}
}

func zeroDegreeNodes(inDegree map[string]int) []string {
	var zero []string
	for id, deg := range inDegree {
		if deg == 0 {
			zero = append(zero, id)
		}
	}
	return zero
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
