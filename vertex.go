package pta

// VertexKind discriminates the seven PAG vertex carriers (§3.2).
type VertexKind uint8

const (
	KindReg VertexKind = iota
	KindAlloc
	KindRegField
	KindAllocField
	KindRegArray
	KindAllocArray
	KindStaticField
)

func (k VertexKind) String() string {
	switch k {
	case KindReg:
		return "REG"
	case KindAlloc:
		return "ALLOC"
	case KindRegField:
		return "REG.FIELD"
	case KindAllocField:
		return "ALLOC.FIELD"
	case KindRegArray:
		return "REG.ARRAY"
	case KindAllocArray:
		return "ALLOC.ARRAY"
	case KindStaticField:
		return "STATIC.FIELD"
	default:
		return "?"
	}
}

// Vertex is the tagged union of PAG vertex carriers. The context each
// vertex is interned under lives alongside it in node, not in the carrier
// itself, since ALLOC*/STATIC.FIELD carriers are always ⊥ regardless of
// how they were reached (I6).
type Vertex interface {
	Kind() VertexKind
	isVertex()
}

// RegVertex is a virtual register at a program point, under a calling
// context.
type RegVertex struct{ Reg RegHdl }

func (RegVertex) Kind() VertexKind { return KindReg }
func (RegVertex) isVertex()        {}

// AllocVertex is an allocation site (new-instance/new-array/const-string/
// const-class), context-insensitive.
type AllocVertex struct{ Insn InsnHdl }

func (AllocVertex) Kind() VertexKind { return KindAlloc }
func (AllocVertex) isVertex()        {}

// RegFieldVertex is the abstract dereference "register's field", before the
// dereferencer has spliced in concrete allocations.
type RegFieldVertex struct {
	Reg   RegHdl
	Field FieldHdl
}

func (RegFieldVertex) Kind() VertexKind { return KindRegField }
func (RegFieldVertex) isVertex()        {}

// AllocFieldVertex is a concrete instance field slot on one allocation site.
type AllocFieldVertex struct {
	Insn  InsnHdl
	Field FieldHdl
}

func (AllocFieldVertex) Kind() VertexKind { return KindAllocField }
func (AllocFieldVertex) isVertex()        {}

// RegArrayVertex is the abstract dereference "register's array element".
type RegArrayVertex struct{ Reg RegHdl }

func (RegArrayVertex) Kind() VertexKind { return KindRegArray }
func (RegArrayVertex) isVertex()        {}

// AllocArrayVertex is the (collapsed, index-insensitive) element slot of one
// array allocation site.
type AllocArrayVertex struct{ Insn InsnHdl }

func (AllocArrayVertex) Kind() VertexKind { return KindAllocArray }
func (AllocArrayVertex) isVertex()        {}

// StaticFieldVertex is a static field slot, context-insensitive.
type StaticFieldVertex struct{ Field FieldHdl }

func (StaticFieldVertex) Kind() VertexKind { return KindStaticField }
func (StaticFieldVertex) isVertex()        {}

// VertexID indexes into Graph.nodes. -1 (invalidVertexID) marks "no vertex".
type VertexID int32

const invalidVertexID VertexID = -1

// node carries everything about a vertex that the solver mutates: its
// carrier, the context it was interned under, union-find linkage, its
// points-to set (meaningful only at a representative), the reg.field/
// reg.array vertices that dereference it, and worklist membership.
type node struct {
	vertex  Vertex
	context InsnHdl

	parent VertexID
	rank   int

	pointsTo       []VertexID
	dereferencedBy []VertexID

	dirty                 bool
	virtualInvokeReceiver bool
}
