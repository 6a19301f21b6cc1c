package pta

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config controls how Analyse runs a single points-to solve.
type Config struct {
	// OnTheFlyCallGraph gates the reserved on-the-fly call-graph
	// refinement hook (§9 open question 1). It is accepted and threaded
	// through to the solver but, like the original it is grounded on,
	// performs no extra expansion today.
	OnTheFlyCallGraph bool
	// ProgressPeriod, if > 0, emits a debug-level progress log line every
	// N worklist iterations. Zero disables progress logging.
	ProgressPeriod int
}

// Stats summarizes a finished (or cancelled) solve.
type Stats struct {
	Vertices   int
	Edges      int
	Iterations int
}

// Result is the outcome of Analyse: the built PAG, any recoverable
// diagnostics collected along the way, and solve statistics.
//
// Incomplete is set when ctx was cancelled mid-solve (§5): the PAG and
// points-to sets reflect whatever the worklist had propagated up to that
// point, not a fixpoint. Analyse still returns ctx.Err() alongside an
// Incomplete Result rather than discarding it, so a caller can inspect
// partial progress instead of only learning that it was cancelled.
type Result struct {
	Graph *Graph

	Incomplete bool

	diagnostics []Diagnostic
	stats       Stats
}

// Diagnostics returns every recoverable condition encountered (§7): missing
// classes/fields/methods at new-instance/iget/iput/invoke, each with the
// instruction that triggered it.
func (r *Result) Diagnostics() []Diagnostic { return append([]Diagnostic(nil), r.diagnostics...) }

// Stats returns solve-size and iteration-count statistics.
func (r *Result) Stats() Stats { return r.stats }

// PointsTo resolves the points-to query of §6.2: the allocation sites that
// reg, under ctx, may reference. It returns nil if reg was never
// interned under ctx (unreached code, or a register the analysis never
// produced a vertex for).
func (r *Result) PointsTo(reg RegHdl, ctx InsnHdl) []InsnHdl {
	v, ok := r.Graph.lookupReg(reg, ctx)
	if !ok {
		return nil
	}
	pts := r.Graph.PointsTo(v)
	out := make([]InsnHdl, 0, len(pts))
	for _, allocV := range pts {
		if alloc, ok := r.Graph.nodes[allocV].vertex.(AllocVertex); ok {
			out = append(out, alloc.Insn)
		}
	}
	return out
}

// Analyse builds the PAG for vm starting from entry and solves it to a
// fixpoint (2.8, §6.2). It is the library's single entry point: translation
// (2.3/2.4) runs first to exhaustion of the call/clinit schedule, then the
// Solver (2.5) drains the worklist it seeded.
//
// A nil log disables all logging; Analyse never fails because logging is
// unavailable.
func Analyse(ctx context.Context, vm VMImage, entry MethodHdl, cfg Config, log *logrus.Entry) (*Result, error) {
	g := NewGraph()
	diags := &Diagnostics{}
	solver := newSolver(g, cfg, log)
	translator := newTranslator(vm, g, solver, diags, log)

	if err := translator.Expand(entry); err != nil {
		return nil, err
	}

	stats := func() Stats {
		return Stats{
			Vertices:   len(g.nodes),
			Edges:      len(g.edges),
			Iterations: solver.iterations,
		}
	}

	if err := solver.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &Result{
				Graph:       g,
				Incomplete:  true,
				diagnostics: diags.List(),
				stats:       stats(),
			}, err
		}
		return nil, err
	}

	return &Result{
		Graph:       g,
		diagnostics: diags.List(),
		stats:       stats(),
	}, nil
}
