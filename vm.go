package pta

// AccessFlags mirrors the subset of Dalvik access flags the analysis cares
// about: whether a method is static, and whether it has no body.
type AccessFlags uint32

const (
	AccStatic AccessFlags = 1 << iota
	AccAbstract
)

// Param is one declared formal parameter, reduced to its descriptor. The
// analysis asks two things of it: is it reference-typed, and is it wide.
type Param struct {
	Descriptor string
}

// IsReference reports whether the parameter's descriptor begins with 'L'
// (object) or '[' (array) — the only kinds that carry pointers.
func (p Param) IsReference() bool {
	return len(p.Descriptor) > 0 && (p.Descriptor[0] == 'L' || p.Descriptor[0] == '[')
}

// IsWide reports whether the parameter's descriptor is 'J' (long) or 'D'
// (double) — the only Dalvik parameter kinds that consume two consecutive
// register slots instead of one.
func (p Param) IsWide() bool {
	return len(p.Descriptor) > 0 && (p.Descriptor[0] == 'J' || p.Descriptor[0] == 'D')
}

// Class is the loader's view of a class, reduced to its handle. Field and
// method lookup go through VMImage, not through Class directly, since the
// analysis only ever needs to resolve by handle.
type Class interface {
	Hdl() ClassHdl
}

// Field is the loader's view of a field.
type Field interface {
	Hdl() FieldHdl
	DeclaringClass() ClassHdl
	// DescriptorChar is the field descriptor's leading character: 'L' or
	// '[' for reference types, a primitive type char otherwise.
	DescriptorChar() byte
}

func fieldIsReference(f Field) bool {
	c := f.DescriptorChar()
	return c == 'L' || c == '['
}

// Method is the loader's view of a method: enough to drive translation and
// call-site expansion without exposing bytecode-loading concerns (parsing,
// range-vs-explicit invoke register lists) to the core.
type Method interface {
	Hdl() MethodHdl
	AccessFlags() AccessFlags
	Params() []Param
	// ReturnDescriptor is "" for void, else the leading-character
	// convention of Param.Descriptor.
	ReturnDescriptor() string
	// Insns is nil for methods the loader could not resolve a body for.
	// Abstract methods still return a non-nil graph containing just an
	// entry and an exit vertex, so their parameter/return shape can be
	// wired (§4.4 item 4) even though no instruction in between is ever
	// translated.
	Insns() InsnGraph
	// RegistersSize is the method's total register-file size; InsSize is
	// how many of the high registers are parameter registers. Their
	// difference is the index of the first formal parameter register.
	RegistersSize() int
	InsSize() int
	DeclaringClass() ClassHdl
}

// InsnGraph is a method's per-instruction control-flow graph, indexed
// 0..Len()-1 with 0 the entry and Len()-1 the exit (§3.1, §6.1).
type InsnGraph interface {
	Len() int
	Insn(idx int) Insn
	// Reaching returns the indices of instructions that may define reg and
	// reach idx — i.e. idx's reaching definitions for that register. The
	// translator never inspects control flow itself; this is the loader's
	// sole data-flow contribution.
	Reaching(idx int, reg uint16) []int
}

// VMImage is the analysis's sole view of the program under study (§6.1).
// Everything about class hierarchy, bytecode parsing, and invoke-register
// list normalization (range vs. explicit forms collapse to a single actual
// register list here, one entry per formal slot including a leading
// receiver) is the loader's responsibility, not the core's.
type VMImage interface {
	FindClass(ClassHdl) (Class, bool)
	FindMethod(MethodHdl) (Method, bool)
	FindField(FieldHdl) (Field, bool)
	// OverrideClosure returns every method reachable from nominal by
	// following the inheritance/override edges of the method dictionary,
	// nominal itself included (§4.4). For a method with no known
	// overrides this is just {nominal}.
	OverrideClosure(nominal MethodHdl) []MethodHdl
	// ClinitOf returns class's <clinit>, if it has one.
	ClinitOf(ClassHdl) (MethodHdl, bool)
}
