package services

import (
	"sort"

	"github.com/ersonp/dramanet/internal/domain/entities"
)

// networkView is a read-only, id-sorted projection of a network with the
// per-character counts every engine needs. Building it once per run keeps
// the engines linear in the size of the graph.
type networkView struct {
	characters    []entities.Character
	relationships []entities.Relationship
	conflicts     []entities.Conflict

	names          map[string]string
	relCount       map[string]int // all relationships touching the character
	strongRelCount map[string]int // load-bearing relationships only
	conflictCount  map[string]int
	relByID        map[string]entities.Relationship
}

func newNetworkView(n *entities.Network, cfg AnalysisConfig) *networkView {
	v := &networkView{
		characters:     n.Characters(),
		relationships:  n.Relationships(),
		conflicts:      n.Conflicts(),
		names:          make(map[string]string),
		relCount:       make(map[string]int),
		strongRelCount: make(map[string]int),
		conflictCount:  make(map[string]int),
		relByID:        make(map[string]entities.Relationship),
	}
	for _, c := range v.characters {
		v.names[c.ID] = c.Name
	}
	for _, r := range v.relationships {
		v.relByID[r.ID] = r
		v.relCount[r.Source]++
		v.relCount[r.Target]++
		if !cfg.isWeak(r.Strength) {
			v.strongRelCount[r.Source]++
			v.strongRelCount[r.Target]++
		}
	}
	for _, c := range v.conflicts {
		for _, id := range c.InvolvedCharacters {
			v.conflictCount[id]++
		}
	}
	return v
}

// involvement is the relationship plus conflict count used for balance.
func (v *networkView) involvement(id string) int {
	return v.relCount[id] + v.conflictCount[id]
}

// load is the load-bearing involvement used for overload detection.
func (v *networkView) load(id string) int {
	return v.strongRelCount[id] + v.conflictCount[id]
}

// structuralGraph returns the undirected adjacency of characters linked by a
// load-bearing relationship or by sharing a conflict. Neighbor lists are sorted.
func (v *networkView) structuralGraph(cfg AnalysisConfig) map[string][]string {
	sets := make(map[string]map[string]struct{}, len(v.characters))
	for _, c := range v.characters {
		sets[c.ID] = make(map[string]struct{})
	}
	link := func(a, b string) {
		if a == b {
			return
		}
		sets[a][b] = struct{}{}
		sets[b][a] = struct{}{}
	}
	for _, r := range v.relationships {
		if !cfg.isWeak(r.Strength) {
			link(r.Source, r.Target)
		}
	}
	for _, c := range v.conflicts {
		for i, a := range c.InvolvedCharacters {
			for _, b := range c.InvolvedCharacters[i+1:] {
				link(a, b)
			}
		}
	}
	adj := make(map[string][]string, len(sets))
	for id, set := range sets {
		adj[id] = sortedSet(set)
	}
	return adj
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
