package pta

import "fmt"

// ClassHdl, MethodHdl and FieldHdl are opaque stable identifiers assigned by
// the loader (§3.1). The core never interprets their bits; it only compares
// and hashes them.
type ClassHdl uint32

type MethodHdl uint32

type FieldHdl uint32

// InsnHdl identifies a single instruction: the method it belongs to and its
// index within that method's instruction graph (0 = entry, N-1 = exit).
type InsnHdl struct {
	Method MethodHdl
	Index  uint32
}

func (h InsnHdl) String() string {
	return fmt.Sprintf("m%d@%d", h.Method, h.Index)
}

// noMethodHdl is reserved: no loader-assigned MethodHdl may use it. It backs
// NoInsnHdl, the ⊥ ("no context") sentinel of §3.2.
const noMethodHdl MethodHdl = ^MethodHdl(0)

// NoInsnHdl is ⊥: the context of a top-level invocation, and the fixed
// context of every ALLOC*/STATIC.FIELD vertex (I6).
var NoInsnHdl = InsnHdl{Method: noMethodHdl, Index: 0}

// RegHdl is (insn-hdl, register-index) — a virtual register slot at a
// specific program point (§3.1). Two reserved indices stand in for the
// result and exception pseudo-registers that don't occupy real register
// file slots.
type RegHdl struct {
	Insn InsnHdl
	Reg  uint16
}

func (h RegHdl) String() string {
	return fmt.Sprintf("%s.v%d", h.Insn, h.Reg)
}

const (
	// RegIdxResult addresses the pseudo-register holding a method's return
	// value, bound at the method's exit instruction.
	RegIdxResult uint16 = 0xffff
	// RegIdxException addresses the pseudo-register holding a thrown
	// exception. The core never emits edges through it (exceptions are a
	// non-goal, §1) but the index is reserved so loaders can name it
	// without colliding with real registers.
	RegIdxException uint16 = 0xfffe
)
