package pta

import (
	"context"

	"github.com/sirupsen/logrus"
)

// worklist is a FIFO queue of dirty vertex ids, matching the original's
// std::queue rather than reaching for a generic container library: it is
// nothing more than a slice with an advancing head, periodically compacted
// so a long-running solve doesn't retain every vertex id it ever queued.
type worklist struct {
	items []VertexID
	head  int
}

func (w *worklist) push(v VertexID) {
	w.items = append(w.items, v)
}

func (w *worklist) pop() VertexID {
	v := w.items[w.head]
	w.head++
	if w.head > 1024 && w.head*2 > len(w.items) {
		w.items = append([]VertexID(nil), w.items[w.head:]...)
		w.head = 0
	}
	return v
}

func (w *worklist) empty() bool { return w.head >= len(w.items) }
func (w *worklist) len() int    { return len(w.items) - w.head }

// Solver is the Solver (2.5): a FIFO worklist fixpoint over the PAG (§4.5).
type Solver struct {
	graph *Graph
	wl    worklist

	onTheFly       bool
	progressPeriod int
	log            *logrus.Entry

	iterations int
}

func newSolver(g *Graph, cfg Config, log *logrus.Entry) *Solver {
	return &Solver{
		graph:          g,
		onTheFly:       cfg.OnTheFlyCallGraph,
		progressPeriod: cfg.ProgressPeriod,
		log:            log,
	}
}

// addWork enqueues v if it isn't already dirty.
func (s *Solver) addWork(v VertexID) {
	n := s.graph.nodes[v]
	if !n.dirty {
		n.dirty = true
		s.wl.push(v)
	}
}

// Run drains the worklist to a fixpoint, checking ctx once per iteration
// (§5): on cancellation it stops and returns ctx.Err(), leaving the caller
// an explicitly partial Graph.
func (s *Solver) Run(ctx context.Context) error {
	for !s.wl.empty() {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := s.wl.pop()
		s.graph.nodes[v].dirty = false

		if s.progressPeriod > 0 && s.iterations%s.progressPeriod == 0 {
			s.logProgress()
		}
		s.iterations++

		if !s.updatePointsToSet(v) {
			continue
		}
		s.updateDereferencer(v)
		if s.onTheFly && s.graph.nodes[v].virtualInvokeReceiver {
			// Reserved hook for on-the-fly call-graph refinement (§9 open
			// question 1): conservative no-op, matching the original's
			// disabled branch. Soundness does not depend on it firing.
		}
		s.propagateForward(v)
	}
	return nil
}

// updatePointsToSet recomputes v's representative's points-to set as the
// union of its current contents with every in-neighbor's current set,
// reporting whether it grew. This is the literal, non-incremental formula
// of §4.5: simple, and correct because points-to sets are monotonically
// growing for the lifetime of a solve.
func (s *Solver) updatePointsToSet(v VertexID) bool {
	g := s.graph
	rep := g.find(v)
	n := g.nodes[rep]
	before := len(n.pointsTo)

	merged := append([]VertexID(nil), n.pointsTo...)
	for _, eidx := range g.in[v] {
		src := g.edges[eidx].From
		merged = append(merged, g.PointsTo(src)...)
	}
	n.pointsTo = uniqueSortVertexIDs(merged)
	return len(n.pointsTo) != before
}

// propagateForward enqueues every out-neighbor of v whose kind makes it a
// candidate for further propagation (§4.5 step 4): REG, ALLOC.FIELD,
// STATIC.FIELD and ALLOC.ARRAY vertices. REG.FIELD/REG.ARRAY vertices never
// accumulate a points-to set of their own (they stand for an abstract
// dereference until the Dereferencer splices in a concrete vertex), so
// re-enqueuing them would be pointless.
func (s *Solver) propagateForward(v VertexID) {
	g := s.graph
	for _, eidx := range g.out[v] {
		w := g.edges[eidx].To
		switch g.nodes[w].vertex.(type) {
		case RegVertex, AllocFieldVertex, StaticFieldVertex, AllocArrayVertex:
			s.addWork(w)
		}
	}
}

func (s *Solver) logProgress() {
	if s.log == nil {
		return
	}
	s.log.WithFields(logrus.Fields{
		"iteration": s.iterations,
		"worklist":  s.wl.len(),
		"vertices":  len(s.graph.nodes),
	}).Debug("points-to solver progress")
}
