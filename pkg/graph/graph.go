// Package graph builds the worker graph from configuration documents,
// resolving lower-device references into edges, assigning ownership,
// detecting cycles, and computing depths.
package graph

import (
	"github.com/ifworker/ifworker/pkg/config"
	"github.com/ifworker/ifworker/pkg/state"
	"github.com/ifworker/ifworker/pkg/util"
	"github.com/ifworker/ifworker/pkg/worker"
)

// Graph is the arena of workers, addressed by stable integer index
// rather than pointer: edges store child indices, and a worker's
// ParentIndex is a back-reference by index, so there is no pointer
// graph to keep alive or reference-count.
type Graph struct {
	Workers []*worker.Worker
	index   map[string]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// WorkerAt returns the worker at i.
func (g *Graph) WorkerAt(i int) *worker.Worker {
	return g.Workers[i]
}

// Lookup returns the index of the worker named name, if any.
func (g *Graph) Lookup(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// GetOrCreate locates a worker by name, creating a state.None placeholder
// (a forward reference to a not-yet-declared lower device) if none
// exists yet.
func (g *Graph) GetOrCreate(name string, kind worker.Kind) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	idx := len(g.Workers)
	w := worker.New(idx, name, kind, nil)
	w.State = state.None
	g.Workers = append(g.Workers, w)
	g.index[name] = idx
	return idx
}

// Document is one configured interface: its name, device kind, and
// configuration subtree.
type Document struct {
	Name   string
	Kind   worker.Kind
	Config *config.Node
}

type lowerRef struct {
	name         string
	precondition worker.Precondition
	exclusive    bool
}

// lowerRefs derives the lower-device references a kind's configuration
// names, along with the precondition that must hold before the named
// call and whether the reference claims the child exclusively. Bridge
// ports and VLAN lower devices are shared (multiple parents may
// reference the same child); bond slaves are claimed exclusively.
func lowerRefs(kind worker.Kind, cfg *config.Node) []lowerRef {
	deviceUpPrecondition := worker.Precondition{
		CallName: "deviceUp", MinChildState: state.DeviceUp, MaxChildState: state.AddrconfUp,
	}
	linkUpPrecondition := worker.Precondition{
		CallName: "linkUp", MinChildState: state.LinkUp, MaxChildState: state.AddrconfUp,
	}

	switch kind {
	case worker.KindBridge:
		var refs []lowerRef
		for _, p := range cfg.BridgePorts() {
			refs = append(refs, lowerRef{name: p, precondition: deviceUpPrecondition})
		}
		return refs
	case worker.KindBond:
		var refs []lowerRef
		for _, s := range cfg.BondSlaves() {
			refs = append(refs, lowerRef{name: s, precondition: deviceUpPrecondition, exclusive: true})
		}
		return refs
	case worker.KindVLAN:
		if dev, ok := cfg.VLANDevice(); ok {
			return []lowerRef{{name: dev, precondition: linkUpPrecondition}}
		}
	}
	return nil
}

// Build constructs a graph from a set of configuration documents. Graph
// build never issues any RPC; on a cycle or an exclusive-ownership
// conflict it returns a *util.CycleError or *util.OwnershipConflictError
// alongside the partially built graph. On a cycle every worker on it is
// marked failed; an ownership conflict marks no worker failed.
func Build(docs []Document) (*Graph, error) {
	g := New()

	for _, d := range docs {
		idx := g.GetOrCreate(d.Name, d.Kind)
		w := g.Workers[idx]
		w.Kind = d.Kind
		w.Config = d.Config
		w.State = state.DeviceDown
	}

	for _, d := range docs {
		pIdx, _ := g.Lookup(d.Name)
		parent := g.Workers[pIdx]
		for _, ref := range lowerRefs(d.Kind, d.Config) {
			cIdx := g.GetOrCreate(ref.name, worker.KindEthernet)
			child := g.Workers[cIdx]

			if ref.exclusive {
				if child.IsExclusivelyOwned() && child.ExclusiveOwnerIndex != pIdx {
					return g, &util.OwnershipConflictError{
						Child:       child.Name,
						FirstOwner:  g.Workers[child.ExclusiveOwnerIndex].Name,
						SecondOwner: parent.Name,
					}
				}
				child.ExclusiveOwnerIndex = pIdx
			} else {
				child.SharedUsers++
			}

			if child.ParentIndex == worker.NoParent {
				child.ParentIndex = pIdx
			}

			parent.Children = append(parent.Children, worker.Edge{
				ChildIndex:    cIdx,
				Config:        d.Config,
				Preconditions: []worker.Precondition{ref.precondition},
			})
		}
	}

	if cycle := detectCycle(g); cycle != nil {
		names := make([]string, len(cycle))
		for i, idx := range cycle {
			names[i] = g.Workers[idx].Name
			g.Workers[idx].Fail(util.KindConfiguration, "graph-build")
		}
		return g, &util.CycleError{Workers: names}
	}

	computeDepths(g)
	return g, nil
}

const (
	white = iota
	gray
	black
)

// detectCycle runs a Tarjan-style DFS coloring over child edges and
// returns the indices composing the first cycle found, or nil if the
// graph is acyclic.
func detectCycle(g *Graph) []int {
	color := make([]int, len(g.Workers))
	var path []int
	var cycle []int

	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = gray
		path = append(path, i)
		for _, e := range g.Workers[i].Children {
			switch color[e.ChildIndex] {
			case white:
				if visit(e.ChildIndex) {
					return true
				}
			case gray:
				start := 0
				for j, idx := range path {
					if idx == e.ChildIndex {
						start = j
						break
					}
				}
				cycle = append([]int{}, path[start:]...)
				return true
			}
		}
		color[i] = black
		path = path[:len(path)-1]
		return false
	}

	for i := range g.Workers {
		if color[i] == white {
			if visit(i) {
				return cycle
			}
		}
	}
	return nil
}

// computeDepths sets every worker's Depth to 1+max(child.depth), leaves
// at depth 0. The graph must already be acyclic.
func computeDepths(g *Graph) {
	computed := make([]bool, len(g.Workers))
	var compute func(i int) int
	compute = func(i int) int {
		if computed[i] {
			return g.Workers[i].Depth
		}
		maxChild := -1
		for _, e := range g.Workers[i].Children {
			if d := compute(e.ChildIndex); d > maxChild {
				maxChild = d
			}
		}
		g.Workers[i].Depth = maxChild + 1
		computed[i] = true
		return g.Workers[i].Depth
	}
	for i := range g.Workers {
		compute(i)
	}
}

// PreconditionsMet reports whether every edge precondition on w matching
// callName is currently satisfied by its child's state. On the first
// unmet precondition it also returns the blocking child's index.
func (g *Graph) PreconditionsMet(w *worker.Worker, callName string) (bool, int) {
	for _, e := range w.Children {
		for _, p := range e.Preconditions {
			if p.CallName != callName {
				continue
			}
			child := g.Workers[e.ChildIndex]
			if !p.Satisfied(child.State) {
				return false, e.ChildIndex
			}
		}
	}
	return true, -1
}
