package pta

// updateDereferencer is the Dereferencer (2.6): when the points-to set of v
// (a base object register) grows, it splices concrete ALLOC.FIELD/
// ALLOC.ARRAY vertices into every abstract REG.FIELD/REG.ARRAY chain
// registered against v, rewiring the abstract vertex's existing in/out
// neighbors onto the concrete one (points_to.cpp's update_dereferencer and
// its static_visitor over pag_reg_field/pag_reg_array).
func (s *Solver) updateDereferencer(v VertexID) {
	g := s.graph
	dependents := g.nodes[v].dereferencedBy
	if len(dependents) == 0 {
		return
	}
	objPts := g.PointsTo(v)

	type pendingEdge struct{ from, to VertexID }
	var toAdd []pendingEdge

	for _, d := range dependents {
		switch carrier := g.nodes[d].vertex.(type) {
		case RegFieldVertex:
			for _, allocV := range objPts {
				alloc, ok := g.nodes[allocV].vertex.(AllocVertex)
				if !ok {
					continue
				}
				adf := g.InternAllocField(alloc.Insn, carrier.Field)
				for _, eidx := range g.in[d] {
					toAdd = append(toAdd, pendingEdge{g.edges[eidx].From, adf})
				}
				for _, eidx := range g.out[d] {
					toAdd = append(toAdd, pendingEdge{adf, g.edges[eidx].To})
				}
			}
		case RegArrayVertex:
			for _, allocV := range objPts {
				alloc, ok := g.nodes[allocV].vertex.(AllocVertex)
				if !ok {
					continue
				}
				ada := g.InternAllocArray(alloc.Insn)
				for _, eidx := range g.in[d] {
					toAdd = append(toAdd, pendingEdge{g.edges[eidx].From, ada})
				}
				for _, eidx := range g.out[d] {
					toAdd = append(toAdd, pendingEdge{ada, g.edges[eidx].To})
				}
			}
		}
	}

	for _, pe := range toAdd {
		if g.EnsureEdge(pe.from, pe.to, EdgeAssign) {
			s.addWork(pe.to)
		}
	}
}
