package graph

// UnionFind tracks which mechanisms are transitively connected through
// projections. Subnetworks uses it to partition the graph: two
// mechanisms end up in the same set exactly when a chain of projections
// (in either direction) links them.
type UnionFind struct {
	parent map[string]string
	rank   map[string]int
}

// NewUnionFind creates an empty partition.
func NewUnionFind() *UnionFind {
	return &UnionFind{
		parent: make(map[string]string),
		rank:   make(map[string]int),
	}
}

// Add inserts a mechanism as its own singleton subnetwork. Adding a
// mechanism twice is a no-op.
func (uf *UnionFind) Add(id string) {
	if _, ok := uf.parent[id]; ok {
		return
	}
	uf.parent[id] = id
	uf.rank[id] = 0
}

// Find returns the representative mechanism of the set containing id,
// auto-adding id as a singleton if it was never added. Paths are halved
// on the way up so repeated queries stay near O(1).
func (uf *UnionFind) Find(id string) string {
	if _, ok := uf.parent[id]; !ok {
		uf.Add(id)
		return id
	}
	for uf.parent[id] != id {
		uf.parent[id] = uf.parent[uf.parent[id]]
		id = uf.parent[id]
	}
	return id
}

// Union merges the sets containing a and b, typically the sender and
// receiver of a projection. Union by rank keeps the trees shallow.
func (uf *UnionFind) Union(a, b string) {
	ra, rb := uf.Find(a), uf.Find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// Connected reports whether a and b share a subnetwork.
func (uf *UnionFind) Connected(a, b string) bool {
	return uf.Find(a) == uf.Find(b)
}

// Components returns the partition as a map from each set's
// representative to its member mechanisms, in no particular order.
func (uf *UnionFind) Components() map[string][]string {
	groups := make(map[string][]string)
	for id := range uf.parent {
		root := uf.Find(id)
		groups[root] = append(groups[root], id)
	}
	return groups
}
