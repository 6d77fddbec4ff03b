package graph

import "sort"

// Subnetwork is an independent subset of the graph whose mechanisms share
// no projections with mechanisms in other subnetworks. Independent
// subnetworks evolve without influencing one another during a run.
type Subnetwork struct {
	// ID is the integer identifier assigned to this subnetwork, starting at 0.
	ID int

	// NodeIDs lists the mechanism IDs in this subnetwork, sorted in
	// topological order (senders before receivers).
	NodeIDs []string
}

// Subnetworks partitions the graph into independent subnetworks using
// union-find: each contains mechanisms transitively connected through
// projections in either direction. The ordering within each subnetwork
// respects the global topological sort. Subnetworks are sorted largest
// first, with the alphabetically first member as tiebreaker. Returns an
// error if the graph contains a cycle.
func (g *Graph) Subnetworks() ([]Subnetwork, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	topoOrder, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	topoPos := make(map[string]int, len(topoOrder))
	for i, id := range topoOrder {
		topoPos[id] = i
	}

	uf := NewUnionFind()
	for id := range g.nodes {
		uf.Add(id)
	}
	for sender, recvs := range g.receivers {
		for receiver := range recvs {
			uf.Union(sender, receiver)
		}
	}

	components := uf.Components()
	roots := make([]string, 0, len(components))
	for root := range components {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	subnets := make([]Subnetwork, 0, len(components))
	for _, root := range roots {
		members := components[root]
		sort.Slice(members, func(i, j int) bool {
			return topoPos[members[i]] < topoPos[members[j]]
		})
		subnets = append(subnets, Subnetwork{NodeIDs: members})
	}

	sort.Slice(subnets, func(i, j int) bool {
		if len(subnets[i].NodeIDs) != len(subnets[j].NodeIDs) {
			return len(subnets[i].NodeIDs) > len(subnets[j].NodeIDs)
		}
		return subnets[i].NodeIDs[0] < subnets[j].NodeIDs[0]
	})
	for i := range subnets {
		subnets[i].ID = i
	}
	return subnets, nil
}
