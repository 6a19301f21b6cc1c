// Package vmtest is an in-memory reference VM image: a hand-buildable
// implementation of pta's VMImage/Class/Method/Field/InsnGraph interfaces,
// for exercising the analysis in tests and in the CLI harness's demo mode
// without a real bytecode loader.
package vmtest

import "github.com/jitana-go/pta"

// VM is a minimal, in-memory VMImage. Build one with New and the AddX
// helpers, then pass it to pta.Analyse.
type VM struct {
	classes   map[pta.ClassHdl]*ClassDef
	methods   map[pta.MethodHdl]*MethodDef
	fields    map[pta.FieldHdl]*FieldDef
	overrides map[pta.MethodHdl][]pta.MethodHdl
	clinits   map[pta.ClassHdl]pta.MethodHdl
}

// New returns an empty VM.
func New() *VM {
	return &VM{
		classes:   make(map[pta.ClassHdl]*ClassDef),
		methods:   make(map[pta.MethodHdl]*MethodDef),
		fields:    make(map[pta.FieldHdl]*FieldDef),
		overrides: make(map[pta.MethodHdl][]pta.MethodHdl),
		clinits:   make(map[pta.ClassHdl]pta.MethodHdl),
	}
}

// AddClass registers c.
func (vm *VM) AddClass(c *ClassDef) *VM {
	vm.classes[c.hdl] = c
	return vm
}

// AddMethod registers m.
func (vm *VM) AddMethod(m *MethodDef) *VM {
	vm.methods[m.hdl] = m
	return vm
}

// AddField registers f.
func (vm *VM) AddField(f *FieldDef) *VM {
	vm.fields[f.hdl] = f
	return vm
}

// SetOverrides fixes the override closure (nominal included) for invokes
// whose nominal target is nominal. Without a call to SetOverrides,
// OverrideClosure(nominal) defaults to just {nominal} — i.e. no
// polymorphism, the common case for a static or final/private target.
func (vm *VM) SetOverrides(nominal pta.MethodHdl, closure ...pta.MethodHdl) *VM {
	vm.overrides[nominal] = closure
	return vm
}

// SetClinit records class's <clinit>.
func (vm *VM) SetClinit(class pta.ClassHdl, clinit pta.MethodHdl) *VM {
	vm.clinits[class] = clinit
	return vm
}

func (vm *VM) FindClass(h pta.ClassHdl) (pta.Class, bool) {
	c, ok := vm.classes[h]
	return c, ok
}

func (vm *VM) FindMethod(h pta.MethodHdl) (pta.Method, bool) {
	m, ok := vm.methods[h]
	return m, ok
}

func (vm *VM) FindField(h pta.FieldHdl) (pta.Field, bool) {
	f, ok := vm.fields[h]
	return f, ok
}

func (vm *VM) OverrideClosure(nominal pta.MethodHdl) []pta.MethodHdl {
	if closure, ok := vm.overrides[nominal]; ok {
		return closure
	}
	return []pta.MethodHdl{nominal}
}

func (vm *VM) ClinitOf(c pta.ClassHdl) (pta.MethodHdl, bool) {
	m, ok := vm.clinits[c]
	return m, ok
}

// ClassDef is a buildable pta.Class.
type ClassDef struct{ hdl pta.ClassHdl }

// NewClass returns a class with the given handle.
func NewClass(hdl pta.ClassHdl) *ClassDef { return &ClassDef{hdl: hdl} }

func (c *ClassDef) Hdl() pta.ClassHdl { return c.hdl }

// FieldDef is a buildable pta.Field.
type FieldDef struct {
	hdl   pta.FieldHdl
	class pta.ClassHdl
	desc  byte
}

// NewField returns a field of the given descriptor character ('L', '[', or
// a primitive type char).
func NewField(hdl pta.FieldHdl, class pta.ClassHdl, desc byte) *FieldDef {
	return &FieldDef{hdl: hdl, class: class, desc: desc}
}

func (f *FieldDef) Hdl() pta.FieldHdl            { return f.hdl }
func (f *FieldDef) DeclaringClass() pta.ClassHdl { return f.class }
func (f *FieldDef) DescriptorChar() byte         { return f.desc }

// MethodDef is a buildable pta.Method, assembled with its fluent With*
// setters before being added to a VM.
type MethodDef struct {
	hdl        pta.MethodHdl
	class      pta.ClassHdl
	static     bool
	abstract   bool
	params     []pta.Param
	returnDesc string
	regsSize   int
	insSize    int
	insns      *InsnGraphDef
}

// NewMethod returns a non-static, non-abstract, no-param, void-returning
// method with no instructions. Chain the With* setters to fill it in.
func NewMethod(hdl pta.MethodHdl, class pta.ClassHdl) *MethodDef {
	return &MethodDef{hdl: hdl, class: class}
}

func (m *MethodDef) Static() *MethodDef   { m.static = true; return m }
func (m *MethodDef) Abstract() *MethodDef { m.abstract = true; return m }

func (m *MethodDef) WithParams(params ...pta.Param) *MethodDef {
	m.params = params
	return m
}

func (m *MethodDef) WithReturn(descriptor string) *MethodDef {
	m.returnDesc = descriptor
	return m
}

// WithRegisters sets the method's total register-file size and how many of
// the high registers are parameter (ins) registers.
func (m *MethodDef) WithRegisters(total, ins int) *MethodDef {
	m.regsSize = total
	m.insSize = ins
	return m
}

func (m *MethodDef) WithInsns(g *InsnGraphDef) *MethodDef {
	m.insns = g
	return m
}

func (m *MethodDef) Hdl() pta.MethodHdl { return m.hdl }

func (m *MethodDef) AccessFlags() pta.AccessFlags {
	var f pta.AccessFlags
	if m.static {
		f |= pta.AccStatic
	}
	if m.abstract {
		f |= pta.AccAbstract
	}
	return f
}

func (m *MethodDef) Params() []pta.Param          { return m.params }
func (m *MethodDef) ReturnDescriptor() string     { return m.returnDesc }
func (m *MethodDef) RegistersSize() int           { return m.regsSize }
func (m *MethodDef) InsSize() int                 { return m.insSize }
func (m *MethodDef) DeclaringClass() pta.ClassHdl { return m.class }

// Insns returns the method's instruction graph. An abstract method with no
// WithInsns call still gets a synthesized entry/exit-only graph: vm.go's
// Method.Insns contract promises abstract methods a non-nil 2-vertex graph
// so the Call-Site Expander can wire their parameter/return shape (§4.4
// item 4) even though there is no body to translate. A non-abstract method
// with no WithInsns call is instead an unresolved body (nil, as the loader
// contract allows), left for the translator's own nil check.
func (m *MethodDef) Insns() pta.InsnGraph {
	if m.insns != nil {
		return m.insns
	}
	if m.abstract {
		return NewInsnGraph(pta.Other{}, pta.Other{})
	}
	return nil
}

// InsnGraphDef is a buildable pta.InsnGraph: a flat instruction list plus an
// explicit reaching-definitions table, since this package has no real
// control-flow analysis of its own — tests supply reaching sets directly.
type InsnGraphDef struct {
	insns    []pta.Insn
	reaching map[int]map[uint16][]int
}

// NewInsnGraph returns a graph over insns with no reaching-definition
// entries; use Reaches to add them.
func NewInsnGraph(insns ...pta.Insn) *InsnGraphDef {
	return &InsnGraphDef{insns: insns, reaching: make(map[int]map[uint16][]int)}
}

// Reaches records that, at instruction idx, register reg's reaching
// definitions are the instructions at defs.
func (g *InsnGraphDef) Reaches(idx int, reg uint16, defs ...int) *InsnGraphDef {
	if g.reaching[idx] == nil {
		g.reaching[idx] = make(map[uint16][]int)
	}
	g.reaching[idx][reg] = defs
	return g
}

func (g *InsnGraphDef) Len() int            { return len(g.insns) }
func (g *InsnGraphDef) Insn(idx int) pta.Insn { return g.insns[idx] }

func (g *InsnGraphDef) Reaching(idx int, reg uint16) []int {
	byReg, ok := g.reaching[idx]
	if !ok {
		return nil
	}
	return byReg[reg]
}
