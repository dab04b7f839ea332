package graph

// This file implements the undirected adjacency view over matron/sire
// links and BFS shortest paths on it. Lineage is DAG-like but acyclicity
// is never enforced, so traversal treats the graph as a plain graph and
// relies on a visited set to terminate.

// Adjacency is an undirected neighbor relation keyed by kitty id.
// Neighbor order is insertion order, which makes tie-breaking between
// equally short paths a pure function of store state within a run.
type Adjacency map[int64][]int64

// BuildAdjacency builds the undirected adjacency view of the session.
// Every referenced parent id gets an adjacency entry even when no full
// record for it exists yet, so lineage links to not-yet-loaded ancestors
// are never silently dropped.
func BuildAdjacency(s *Session) Adjacency {
	adj := make(Adjacency)
	linked := make(map[[2]int64]struct{})

	add := func(a, b int64) {
		if _, ok := adj[a]; !ok {
			adj[a] = nil
		}
		if _, ok := adj[b]; !ok {
			adj[b] = nil
		}
		key := [2]int64{a, b}
		if a > b {
			key = [2]int64{b, a}
		}
		if _, ok := linked[key]; ok {
			return
		}
		linked[key] = struct{}{}
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}

	for _, k := range s.Kitties() {
		if k.MatronID > 0 {
			add(k.ID, k.MatronID)
		}
		if k.SireID > 0 {
			add(k.ID, k.SireID)
		}
	}
	return adj
}

// ShortestPath returns the fewest-hops route between two kitties along
// undirected matron/sire edges, as an ordered id sequence including both
// endpoints. An empty result means no path exists; that is a value, not
// an error. Hop count for display is len(path)-1.
func ShortestPath(s *Session, fromID, toID int64) []int64 {
	if fromID == toID {
		// Trivial self path, zero hops, no search.
		return []int64{fromID}
	}

	adj := BuildAdjacency(s)
	if _, ok := adj[fromID]; !ok {
		return nil
	}
	if _, ok := adj[toID]; !ok {
		return nil
	}

	// BFS over full paths. The visited set guarantees termination on
	// cyclic graphs and that the first path reaching toID is shortest.
	visited := map[int64]struct{}{fromID: {}}
	queue := [][]int64{{fromID}}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		current := path[len(path)-1]

		for _, neighbor := range adj[current] {
			if neighbor == toID {
				found := make([]int64, len(path), len(path)+1)
				copy(found, path)
				return append(found, neighbor)
			}
			if _, ok := visited[neighbor]; ok {
				continue
			}
			visited[neighbor] = struct{}{}
			next := make([]int64, len(path), len(path)+1)
			copy(next, path)
			queue = append(queue, append(next, neighbor))
		}
	}
	return nil
}
