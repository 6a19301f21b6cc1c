package pta

// CallExpander is the Call-Site Expander (2.4): given an invoke instruction,
// it walks the nominal target's inheritance/override closure and, for every
// method reachable that way, wires parameter and return-value ASSIGN edges
// between the call site and that method's formal registers
// (points_to.cpp's add_invoke_edges, driven by a depth_first_visit over the
// method_super_edge_property-filtered graph).
type CallExpander struct {
	vm    VMImage
	graph *Graph
}

func newCallExpander(vm VMImage, g *Graph) *CallExpander {
	return &CallExpander{vm: vm, graph: g}
}

// expand wires every method in inv's nominal target's override closure and
// reports each one to push so the caller can schedule its body for
// translation.
func (c *CallExpander) expand(cur, ctx InsnHdl, ig InsnGraph, inv Invoke, push func(invocation)) {
	if (inv.Kind == InvokeVirtual || inv.Kind == InvokeInterface) && len(inv.Regs) > 0 {
		c.markVirtualReceiver(cur, ctx, ig, inv.Regs[0])
	}
	for _, target := range c.vm.OverrideClosure(inv.Method) {
		push(invocation{Callsite: cur, Method: target})
		c.wireEdges(cur, ctx, ig, target, inv)
	}
}

// markVirtualReceiver flags the receiver's reaching REG vertices as the
// subject of a virtual dispatch, for the on-the-fly call-graph hook (§9
// open question 1) to consult. The hook itself is a conservative no-op, so
// this flag is currently inert beyond being set.
func (c *CallExpander) markVirtualReceiver(cur, ctx InsnHdl, ig InsnGraph, recvReg uint16) {
	for _, predIdx := range ig.Reaching(int(cur.Index), recvReg) {
		v := c.graph.InternReg(RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(predIdx)}, Reg: recvReg}, ctx)
		c.graph.nodes[v].virtualInvokeReceiver = true
	}
}

func (c *CallExpander) wireEdges(cur, ctx InsnHdl, callerIG InsnGraph, target MethodHdl, inv Invoke) {
	m, ok := c.vm.FindMethod(target)
	if !ok {
		return
	}
	c.wireParams(cur, ctx, callerIG, m, inv)
	c.wireReturn(cur, ctx, m)
}

// wireParams binds each actual argument register (including the receiver,
// for non-static calls) to the callee's formal parameter register, under
// the callee's context = cur (the call site). Only reference-typed formals
// get an edge; the actual register list is already one entry per formal
// slot (§6.1), so ai (the index into inv.Regs) never double-steps. The
// callee's real register numbering does double-step for a wide (J/D)
// formal, since those occupy two consecutive register slots (§4.4 item 2,
// points_to.cpp's reg_offsets loop), so formalOff must track that even
// though no edge is ever wired for the wide formal itself.
func (c *CallExpander) wireParams(cur, ctx InsnHdl, callerIG InsnGraph, target Method, inv Invoke) {
	entryInsn := InsnHdl{Method: target.Hdl(), Index: 0}
	formalBase := uint16(target.RegistersSize() - target.InsSize())

	ai := 0
	formalOff := uint16(0)
	if target.AccessFlags()&AccStatic == 0 {
		if ai < len(inv.Regs) {
			c.wireOneParam(cur, ctx, callerIG, inv.Regs[ai], RegHdl{Insn: entryInsn, Reg: formalBase + formalOff})
		}
		ai++
		formalOff++
	}
	for _, p := range target.Params() {
		if ai >= len(inv.Regs) {
			break
		}
		if p.IsReference() {
			c.wireOneParam(cur, ctx, callerIG, inv.Regs[ai], RegHdl{Insn: entryInsn, Reg: formalBase + formalOff})
		}
		ai++
		formalOff++
		if p.IsWide() {
			formalOff++
		}
	}
}

func (c *CallExpander) wireOneParam(cur, ctx InsnHdl, callerIG InsnGraph, actualReg uint16, formalReg RegHdl) {
	dstV := c.graph.InternReg(formalReg, cur)
	for _, predIdx := range callerIG.Reaching(int(cur.Index), actualReg) {
		srcV := c.graph.InternReg(RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(predIdx)}, Reg: actualReg}, ctx)
		c.graph.AddEdge(srcV, dstV, EdgeAssign)
	}
}

// wireReturn binds the callee's result pseudo-register (at its exit
// instruction, under context = cur) to the call site's own result
// pseudo-register (under the caller's context = ctx).
func (c *CallExpander) wireReturn(cur, ctx InsnHdl, target Method) {
	if target.ReturnDescriptor() == "" {
		return
	}
	if d := target.ReturnDescriptor()[0]; d != 'L' && d != '[' {
		return
	}
	ig := target.Insns()
	if ig == nil {
		return
	}
	exitInsn := InsnHdl{Method: target.Hdl(), Index: uint32(ig.Len() - 1)}
	srcV := c.graph.InternReg(RegHdl{Insn: exitInsn, Reg: RegIdxResult}, cur)
	dstV := c.graph.InternReg(RegHdl{Insn: cur, Reg: RegIdxResult}, ctx)
	c.graph.AddEdge(srcV, dstV, EdgeAssign)
}
