package pta

import (
	"github.com/sirupsen/logrus"
)

// invocation is one (callsite, callee) pair awaiting body translation. The
// <clinit> sentinel callsite NoInsnHdl (§8 scenario 9) means every path
// that reaches a given class's <clinit> collapses onto the same invocation,
// so it is translated exactly once regardless of how many call sites
// trigger it.
type invocation struct {
	Callsite InsnHdl
	Method   MethodHdl
}

// Translator is the Instruction Translator (2.3): it walks every reachable
// method body once per (callsite, method) invocation, turning each pointer-relevant instruction into
// PAG vertices and edges (§4.3), and hands invoke instructions to the
// embedded Call-Site Expander (2.4).
type Translator struct {
	vm       VMImage
	graph    *Graph
	solver   *Solver
	diags    *Diagnostics
	expander *CallExpander
	log      *logrus.Entry

	queue   []invocation
	visited map[invocation]struct{}
}

func newTranslator(vm VMImage, g *Graph, s *Solver, diags *Diagnostics, log *logrus.Entry) *Translator {
	return &Translator{
		vm:       vm,
		graph:    g,
		solver:   s,
		diags:    diags,
		expander: newCallExpander(vm, g),
		log:      log,
		visited:  make(map[invocation]struct{}),
	}
}

func (t *Translator) pushInvocation(inv invocation) {
	t.queue = append(t.queue, inv)
}

func (t *Translator) diag(insn InsnHdl, msg string) {
	t.diags.add(insn, msg)
	if t.log != nil {
		t.log.WithField("insn", insn).Warn(msg)
	}
}

// Expand drives translation to closure from entry: every method reachable
// by invoke/clinit scheduling is translated once per distinct callsite it
// is invoked from, so a method called from two callsites is translated
// twice, once under each context (points_to.cpp's
// make_vertices_from_method loop).
func (t *Translator) Expand(entry MethodHdl) error {
	t.pushInvocation(invocation{Callsite: NoInsnHdl, Method: entry})
	for len(t.queue) > 0 {
		inv := t.queue[0]
		t.queue = t.queue[1:]
		if _, ok := t.visited[inv]; ok {
			continue
		}
		t.visited[inv] = struct{}{}

		m, ok := t.vm.FindMethod(inv.Method)
		if !ok {
			return fatalInvalidArgument("invocation targets unknown method %d", inv.Method)
		}
		ig := m.Insns()
		// Abstract methods contribute only their parameter/return shape
		// (wired by the Call-Site Expander at the call site); there is no
		// body to walk (§4.4 item 4).
		if ig == nil || m.AccessFlags()&AccAbstract != 0 {
			continue
		}
		for idx := 0; idx < ig.Len(); idx++ {
			cur := InsnHdl{Method: inv.Method, Index: uint32(idx)}
			if err := t.translateInsn(cur, inv.Callsite, ig, ig.Insn(idx)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Translator) translateInsn(cur, ctx InsnHdl, ig InsnGraph, insn Insn) error {
	switch x := insn.(type) {
	case MoveObject:
		t.genMove(cur, ctx, ig, x.Dst, x.Src)
	case ReturnObject:
		t.genReturn(cur, ctx, ig, x.Src)
	case CheckCast:
		t.genCheckCast(cur, ctx, ig, x.Reg)
	case ConstString:
		t.genAlloc(cur, ctx, x.Dst)
	case ConstClass:
		t.genAlloc(cur, ctx, x.Dst)
	case NewArray:
		t.genAlloc(cur, ctx, x.Dst)
	case NewInstance:
		t.genNewInstance(cur, ctx, x)
	case AGetObject:
		t.genAGet(cur, ctx, ig, x.Dst, x.Obj)
	case APutObject:
		t.genAPut(cur, ctx, ig, x.Src, x.Obj)
	case IGetObject:
		t.genIGet(cur, ctx, ig, x.Dst, x.Obj, x.Field)
	case IPutObject:
		t.genIPut(cur, ctx, ig, x.Src, x.Obj, x.Field)
	case SGetObject:
		return t.genSGet(cur, ctx, x.Dst, x.Field)
	case SPutObject:
		return t.genSPut(cur, ctx, ig, x.Src, x.Field)
	case Invoke:
		t.genInvoke(cur, ctx, ig, x)
	case FilledNewArray, InvokeQuick, Other:
		// No pointer-relevant semantics (§9 open questions 3).
	}
	return nil
}

// assignFromReaching wires ASSIGN edges from every reaching definition of
// srcReg (at cur, under ctx) to dst. move-object, return-object and
// check-cast all reduce to this (points_to.cpp routes all three through the
// same (register_idx, register_idx) add_assign_edge overload).
func (t *Translator) assignFromReaching(cur InsnHdl, ig InsnGraph, ctx InsnHdl, dst RegHdl, srcReg uint16) {
	dstV := t.graph.InternReg(dst, ctx)
	for _, predIdx := range ig.Reaching(int(cur.Index), srcReg) {
		srcV := t.graph.InternReg(RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(predIdx)}, Reg: srcReg}, ctx)
		t.graph.AddEdge(srcV, dstV, EdgeAssign)
	}
}

func (t *Translator) genMove(cur, ctx InsnHdl, ig InsnGraph, dstReg, srcReg uint16) {
	t.assignFromReaching(cur, ig, ctx, RegHdl{Insn: cur, Reg: dstReg}, srcReg)
}

func (t *Translator) genReturn(cur, ctx InsnHdl, ig InsnGraph, srcReg uint16) {
	exitInsn := InsnHdl{Method: cur.Method, Index: uint32(ig.Len() - 1)}
	t.assignFromReaching(cur, ig, ctx, RegHdl{Insn: exitInsn, Reg: RegIdxResult}, srcReg)
}

func (t *Translator) genCheckCast(cur, ctx InsnHdl, ig InsnGraph, reg uint16) {
	t.assignFromReaching(cur, ig, ctx, RegHdl{Insn: cur, Reg: reg}, reg)
}

// genAlloc wires an ALLOC edge from a fresh allocation site to dst: shared
// by const-string, const-class, new-array and (after the <clinit> hook)
// new-instance.
func (t *Translator) genAlloc(cur, ctx InsnHdl, dstReg uint16) {
	allocV := t.graph.InternAlloc(cur)
	dstV := t.graph.InternReg(RegHdl{Insn: cur, Reg: dstReg}, ctx)
	t.graph.AddEdge(allocV, dstV, EdgeAlloc)
	t.solver.addWork(dstV)
}

func (t *Translator) genNewInstance(cur, ctx InsnHdl, x NewInstance) {
	if _, ok := t.vm.FindClass(x.Class); !ok {
		t.diag(cur, "new-instance: class not found")
		return
	}
	if clinit, ok := t.vm.ClinitOf(x.Class); ok {
		t.pushInvocation(invocation{Callsite: NoInsnHdl, Method: clinit})
	}
	t.genAlloc(cur, ctx, x.Dst)
}

func (t *Translator) genAGet(cur, ctx InsnHdl, ig InsnGraph, dstReg, objReg uint16) {
	dstV := t.graph.InternReg(RegHdl{Insn: cur, Reg: dstReg}, ctx)
	for _, predIdx := range ig.Reaching(int(cur.Index), objReg) {
		objRegHdl := RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(predIdx)}, Reg: objReg}
		objV := t.graph.InternReg(objRegHdl, ctx)
		srcV := t.graph.InternRegArray(objRegHdl, ctx)
		t.graph.recordDereferencedBy(objV, srcV)
		t.graph.AddEdge(srcV, dstV, EdgeALoad)
	}
}

func (t *Translator) genAPut(cur, ctx InsnHdl, ig InsnGraph, srcReg, objReg uint16) {
	for _, sIdx := range ig.Reaching(int(cur.Index), srcReg) {
		srcV := t.graph.InternReg(RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(sIdx)}, Reg: srcReg}, ctx)
		for _, oIdx := range ig.Reaching(int(cur.Index), objReg) {
			objRegHdl := RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(oIdx)}, Reg: objReg}
			objV := t.graph.InternReg(objRegHdl, ctx)
			dstV := t.graph.InternRegArray(objRegHdl, ctx)
			t.graph.recordDereferencedBy(objV, dstV)
			t.graph.AddEdge(srcV, dstV, EdgeAStore)
		}
	}
}

func (t *Translator) genIGet(cur, ctx InsnHdl, ig InsnGraph, dstReg, objReg uint16, fieldHdl FieldHdl) {
	f, ok := t.vm.FindField(fieldHdl)
	if !ok {
		t.diag(cur, "iget: field not found")
		return
	}
	if !fieldIsReference(f) {
		return
	}
	dstV := t.graph.InternReg(RegHdl{Insn: cur, Reg: dstReg}, ctx)
	for _, oIdx := range ig.Reaching(int(cur.Index), objReg) {
		objRegHdl := RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(oIdx)}, Reg: objReg}
		objV := t.graph.InternReg(objRegHdl, ctx)
		srcV := t.graph.InternRegField(objRegHdl, fieldHdl, ctx)
		t.graph.recordDereferencedBy(objV, srcV)
		t.graph.AddEdge(srcV, dstV, EdgeILoad)
	}
}

func (t *Translator) genIPut(cur, ctx InsnHdl, ig InsnGraph, srcReg, objReg uint16, fieldHdl FieldHdl) {
	f, ok := t.vm.FindField(fieldHdl)
	if !ok {
		t.diag(cur, "iput: field not found")
		return
	}
	if !fieldIsReference(f) {
		return
	}
	for _, sIdx := range ig.Reaching(int(cur.Index), srcReg) {
		srcV := t.graph.InternReg(RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(sIdx)}, Reg: srcReg}, ctx)
		for _, oIdx := range ig.Reaching(int(cur.Index), objReg) {
			objRegHdl := RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(oIdx)}, Reg: objReg}
			objV := t.graph.InternReg(objRegHdl, ctx)
			dstV := t.graph.InternRegField(objRegHdl, fieldHdl, ctx)
			t.graph.recordDereferencedBy(objV, dstV)
			t.graph.AddEdge(srcV, dstV, EdgeIStore)
		}
	}
}

// genSGet is fatal on a missing field (§7): unlike instance access, a
// static field miss means the loader's view of the program is internally
// inconsistent, not merely that one allocation site's shape is unknown.
func (t *Translator) genSGet(cur, ctx InsnHdl, dstReg uint16, fieldHdl FieldHdl) error {
	f, ok := t.vm.FindField(fieldHdl)
	if !ok {
		return fatalNotFound("sget: static field %d not found", fieldHdl)
	}
	if clinit, ok := t.vm.ClinitOf(f.DeclaringClass()); ok {
		t.pushInvocation(invocation{Callsite: NoInsnHdl, Method: clinit})
	}
	if !fieldIsReference(f) {
		return nil
	}
	srcV := t.graph.InternStaticField(fieldHdl)
	dstV := t.graph.InternReg(RegHdl{Insn: cur, Reg: dstReg}, ctx)
	t.graph.AddEdge(srcV, dstV, EdgeSLoad)
	return nil
}

func (t *Translator) genSPut(cur, ctx InsnHdl, ig InsnGraph, srcReg uint16, fieldHdl FieldHdl) error {
	f, ok := t.vm.FindField(fieldHdl)
	if !ok {
		return fatalNotFound("sput: static field %d not found", fieldHdl)
	}
	if clinit, ok := t.vm.ClinitOf(f.DeclaringClass()); ok {
		t.pushInvocation(invocation{Callsite: NoInsnHdl, Method: clinit})
	}
	if !fieldIsReference(f) {
		return nil
	}
	dstV := t.graph.InternStaticField(fieldHdl)
	for _, sIdx := range ig.Reaching(int(cur.Index), srcReg) {
		srcV := t.graph.InternReg(RegHdl{Insn: InsnHdl{Method: cur.Method, Index: uint32(sIdx)}, Reg: srcReg}, ctx)
		t.graph.AddEdge(srcV, dstV, EdgeSStore)
	}
	return nil
}

func (t *Translator) genInvoke(cur, ctx InsnHdl, ig InsnGraph, x Invoke) {
	m, ok := t.vm.FindMethod(x.Method)
	if !ok {
		t.diag(cur, "invoke: method not found")
		return
	}
	if x.Kind == InvokeStatic {
		if clinit, ok := t.vm.ClinitOf(m.DeclaringClass()); ok {
			t.pushInvocation(invocation{Callsite: NoInsnHdl, Method: clinit})
		}
	}
	t.expander.expand(cur, ctx, ig, x, t.pushInvocation)
}
