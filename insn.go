package pta

// Insn is the tagged union of instruction shapes the translator reacts to
// (§4.3). Every opcode not listed here carries no pointer-relevant
// semantics and is represented as Other.
type Insn interface{ isInsn() }

// MoveObject is move-object, move-object/from16, move-object/16.
type MoveObject struct{ Dst, Src uint16 }

func (MoveObject) isInsn() {}

// ReturnObject is return-object.
type ReturnObject struct{ Src uint16 }

func (ReturnObject) isInsn() {}

// CheckCast is check-cast.
type CheckCast struct{ Reg uint16 }

func (CheckCast) isInsn() {}

// ConstString is const-string, const-string/jumbo.
type ConstString struct{ Dst uint16 }

func (ConstString) isInsn() {}

// ConstClass is const-class.
type ConstClass struct{ Dst uint16 }

func (ConstClass) isInsn() {}

// NewInstance is new-instance.
type NewInstance struct {
	Dst   uint16
	Class ClassHdl
}

func (NewInstance) isInsn() {}

// NewArray is new-array.
type NewArray struct{ Dst uint16 }

func (NewArray) isInsn() {}

// FilledNewArray is filled-new-array / filled-new-array/range: a no-op for
// this analysis (§9 open question 3).
type FilledNewArray struct{}

func (FilledNewArray) isInsn() {}

// AGetObject is aget-object.
type AGetObject struct{ Dst, Obj, Idx uint16 }

func (AGetObject) isInsn() {}

// APutObject is aput-object.
type APutObject struct{ Src, Obj, Idx uint16 }

func (APutObject) isInsn() {}

// IGetObject is iget-object, iget-object/quick variants resolved to a field.
type IGetObject struct {
	Dst, Obj uint16
	Field    FieldHdl
}

func (IGetObject) isInsn() {}

// IPutObject is iput-object, iput-object/quick variants resolved to a field.
type IPutObject struct {
	Src, Obj uint16
	Field    FieldHdl
}

func (IPutObject) isInsn() {}

// SGetObject is sget-object.
type SGetObject struct {
	Dst   uint16
	Field FieldHdl
}

func (SGetObject) isInsn() {}

// SPutObject is sput-object.
type SPutObject struct {
	Src   uint16
	Field FieldHdl
}

func (SPutObject) isInsn() {}

// InvokeKind distinguishes the five Dalvik invoke forms.
type InvokeKind uint8

const (
	InvokeVirtual InvokeKind = iota
	InvokeSuper
	InvokeDirect
	InvokeStatic
	InvokeInterface
)

// Invoke is any invoke-* instruction. Regs is the actual argument register
// list already normalized by the loader: for a non-static call, Regs[0] is
// the receiver, followed by one entry per declared formal parameter; range
// and explicit invoke forms are indistinguishable here by design (§6.1).
type Invoke struct {
	Kind   InvokeKind
	Method MethodHdl
	Regs   []uint16
}

func (Invoke) isInsn() {}

// InvokeQuick is any invoke-*/quick instruction: a no-op for this analysis
// (§9 open question 3) since quickened call sites have already been
// resolved by the runtime in a way the loader does not expose here.
type InvokeQuick struct{}

func (InvokeQuick) isInsn() {}

// Other is every opcode with no pointer-relevant semantics.
type Other struct{}

func (Other) isInsn() {}
