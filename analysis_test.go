package pta_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitana-go/pta"
	"github.com/jitana-go/pta/vmtest"
)

func idOf(h pta.InsnHdl) pta.InsnHdl { return h }

func TestAllocAndReturn(t *testing.T) {
	vm := vmtest.New()
	const classA pta.ClassHdl = 10
	const methMain pta.MethodHdl = 1
	vm.AddClass(vmtest.NewClass(classA))

	ig := vmtest.NewInsnGraph(
		pta.NewInstance{Dst: 0, Class: classA}, // idx0
		pta.ReturnObject{Src: 0},               // idx1 (exit)
	).Reaches(1, 0, 0)

	vm.AddMethod(vmtest.NewMethod(methMain, classA).Static().WithRegisters(1, 0).WithInsns(ig))

	res, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.NoError(t, err)

	exit := pta.InsnHdl{Method: methMain, Index: 1}
	got := res.PointsTo(pta.RegHdl{Insn: exit, Reg: pta.RegIdxResult}, pta.NoInsnHdl)
	require.Len(t, got, 1)
	assert.Equal(t, idOf(pta.InsnHdl{Method: methMain, Index: 0}), got[0])
}

// TestContextSensitivity calls the same instance method from two call
// sites with two different receivers/arguments, and checks that the
// callee's return-value vertex is kept separate per calling context (1-CFA,
// §8 scenario 4) instead of merging the two allocations together.
func TestContextSensitivity(t *testing.T) {
	vm := vmtest.New()
	const classA pta.ClassHdl = 10
	const methMain pta.MethodHdl = 1
	const methIdentity pta.MethodHdl = 2
	vm.AddClass(vmtest.NewClass(classA))

	identityIG := vmtest.NewInsnGraph(
		pta.ReturnObject{Src: 1}, // idx0 (entry and exit): return the param
	).Reaches(0, 1, 0)
	vm.AddMethod(vmtest.NewMethod(methIdentity, classA).
		WithParams(pta.Param{Descriptor: "Ljava/lang/Object;"}).
		WithReturn("Ljava/lang/Object;").
		WithRegisters(2, 2).
		WithInsns(identityIG))

	mainIG := vmtest.NewInsnGraph(
		pta.NewInstance{Dst: 0, Class: classA},                              // idx0: allocX
		pta.NewInstance{Dst: 1, Class: classA},                              // idx1: allocY
		pta.Invoke{Kind: pta.InvokeDirect, Method: methIdentity, Regs: []uint16{0, 0}}, // idx2: call1(allocX)
		pta.MoveObject{Dst: 2, Src: pta.RegIdxResult},                       // idx3: r1 = call1 result
		pta.Invoke{Kind: pta.InvokeDirect, Method: methIdentity, Regs: []uint16{1, 1}}, // idx4: call2(allocY)
		pta.MoveObject{Dst: 3, Src: pta.RegIdxResult},                       // idx5: r2 = call2 result
		pta.ReturnObject{Src: 3},                                            // idx6 (exit)
	).
		Reaches(2, 0, 0).
		Reaches(3, pta.RegIdxResult, 2).
		Reaches(4, 1, 1).
		Reaches(5, pta.RegIdxResult, 4).
		Reaches(6, 3, 5)
	vm.AddMethod(vmtest.NewMethod(methMain, classA).Static().WithRegisters(4, 0).WithInsns(mainIG))

	res, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.NoError(t, err)

	allocX := pta.InsnHdl{Method: methMain, Index: 0}
	allocY := pta.InsnHdl{Method: methMain, Index: 1}
	ctx1 := pta.InsnHdl{Method: methMain, Index: 2}
	ctx2 := pta.InsnHdl{Method: methMain, Index: 4}
	identityExit := pta.InsnHdl{Method: methIdentity, Index: 0}

	pts1 := res.PointsTo(pta.RegHdl{Insn: identityExit, Reg: pta.RegIdxResult}, ctx1)
	pts2 := res.PointsTo(pta.RegHdl{Insn: identityExit, Reg: pta.RegIdxResult}, ctx2)

	require.Len(t, pts1, 1)
	require.Len(t, pts2, 1)
	assert.Equal(t, allocX, pts1[0])
	assert.Equal(t, allocY, pts2[0])
}

// TestFieldSensitivity checks that writing two distinct fields of the same
// object keeps their values apart (I1): reading one field back must not
// observe a value written to the other.
func TestFieldSensitivity(t *testing.T) {
	vm := vmtest.New()
	const classA pta.ClassHdl = 10
	const fieldF1 pta.FieldHdl = 1
	const fieldF2 pta.FieldHdl = 2
	const methMain pta.MethodHdl = 1
	vm.AddClass(vmtest.NewClass(classA))
	vm.AddField(vmtest.NewField(fieldF1, classA, 'L'))
	vm.AddField(vmtest.NewField(fieldF2, classA, 'L'))

	ig := vmtest.NewInsnGraph(
		pta.NewInstance{Dst: 0, Class: classA},      // idx0: obj
		pta.NewInstance{Dst: 1, Class: classA},      // idx1: val1
		pta.NewInstance{Dst: 2, Class: classA},      // idx2: val2
		pta.IPutObject{Src: 1, Obj: 0, Field: fieldF1}, // idx3: obj.F1 = val1
		pta.IPutObject{Src: 2, Obj: 0, Field: fieldF2}, // idx4: obj.F2 = val2
		pta.IGetObject{Dst: 3, Obj: 0, Field: fieldF1}, // idx5: r3 = obj.F1
		pta.ReturnObject{Src: 3},                       // idx6 (exit)
	).
		Reaches(3, 1, 1).
		Reaches(3, 0, 0).
		Reaches(4, 2, 2).
		Reaches(4, 0, 0).
		Reaches(5, 0, 0).
		Reaches(6, 3, 5)
	vm.AddMethod(vmtest.NewMethod(methMain, classA).Static().WithRegisters(4, 0).WithInsns(ig))

	res, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.NoError(t, err)

	exit := pta.InsnHdl{Method: methMain, Index: 6}
	got := res.PointsTo(pta.RegHdl{Insn: exit, Reg: pta.RegIdxResult}, pta.NoInsnHdl)
	require.Len(t, got, 1)
	assert.Equal(t, pta.InsnHdl{Method: methMain, Index: 1}, got[0])
}

// TestRecoverableInvokeTarget checks that an invoke of an unresolvable
// method is a recoverable diagnostic (§7), not a fatal error.
func TestRecoverableInvokeTarget(t *testing.T) {
	vm := vmtest.New()
	const methMain pta.MethodHdl = 1
	ig := vmtest.NewInsnGraph(
		pta.Invoke{Kind: pta.InvokeStatic, Method: 999, Regs: nil},
	)
	vm.AddMethod(vmtest.NewMethod(methMain, 0).Static().WithRegisters(0, 0).WithInsns(ig))

	res, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.NoError(t, err)
	require.Len(t, res.Diagnostics(), 1)
}

// TestFatalMissingStaticField checks that sget/sput against an unresolvable
// field is fatal (§7), unlike the instance-access recoverable cases.
func TestFatalMissingStaticField(t *testing.T) {
	vm := vmtest.New()
	const methMain pta.MethodHdl = 1
	ig := vmtest.NewInsnGraph(
		pta.SGetObject{Dst: 0, Field: 777},
		pta.ReturnObject{Src: 0},
	).Reaches(1, 0, 0)
	vm.AddMethod(vmtest.NewMethod(methMain, 0).Static().WithRegisters(1, 0).WithInsns(ig))

	_, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, pta.ErrFatal)
}

// TestClinitScheduledOncePerClass checks that a class whose <clinit> is
// reached from two different call sites still gets exactly one consistent
// view of its static state (§8 scenario 9): the no_insn_hdl-keyed
// invocation collapses both triggers onto a single translation.
func TestClinitScheduledOncePerClass(t *testing.T) {
	vm := vmtest.New()
	const classC pta.ClassHdl = 5
	const classOther pta.ClassHdl = 7
	const clinit pta.MethodHdl = 6
	const static1 pta.MethodHdl = 8
	const static2 pta.MethodHdl = 9
	const methMain pta.MethodHdl = 1
	const fieldS pta.FieldHdl = 50

	vm.AddClass(vmtest.NewClass(classC)).AddClass(vmtest.NewClass(classOther))
	vm.AddField(vmtest.NewField(fieldS, classC, 'L'))
	vm.SetClinit(classC, clinit)

	clinitIG := vmtest.NewInsnGraph(
		pta.NewInstance{Dst: 0, Class: classOther},
		pta.SPutObject{Src: 0, Field: fieldS},
	).Reaches(1, 0, 0)
	vm.AddMethod(vmtest.NewMethod(clinit, classC).Static().WithRegisters(1, 0).WithInsns(clinitIG))

	trivialIG := vmtest.NewInsnGraph(pta.Other{})
	vm.AddMethod(vmtest.NewMethod(static1, classC).Static().WithRegisters(0, 0).WithInsns(trivialIG))
	vm.AddMethod(vmtest.NewMethod(static2, classC).Static().WithRegisters(0, 0).WithInsns(trivialIG))

	mainIG := vmtest.NewInsnGraph(
		pta.Invoke{Kind: pta.InvokeStatic, Method: static1},
		pta.Invoke{Kind: pta.InvokeStatic, Method: static2},
		pta.SGetObject{Dst: 0, Field: fieldS},
		pta.ReturnObject{Src: 0},
	).Reaches(3, 0, 2)
	vm.AddMethod(vmtest.NewMethod(methMain, classC).Static().WithRegisters(1, 0).WithInsns(mainIG))

	res, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.NoError(t, err)

	exit := pta.InsnHdl{Method: methMain, Index: 3}
	got := res.PointsTo(pta.RegHdl{Insn: exit, Reg: pta.RegIdxResult}, pta.NoInsnHdl)
	require.Len(t, got, 1)
	assert.Equal(t, pta.InsnHdl{Method: clinit, Index: 0}, got[0])
}

// TestArrayAliasing checks that a value stored into an array element is
// observable (over-approximately) through any read of the same array (§8
// scenario 6): the ALLOC.ARRAY slot of an allocation is a single aggregate
// "any element" location, not an index-sensitive one.
func TestArrayAliasing(t *testing.T) {
	vm := vmtest.New()
	const classA pta.ClassHdl = 10
	const methMain pta.MethodHdl = 1
	vm.AddClass(vmtest.NewClass(classA))

	ig := vmtest.NewInsnGraph(
		pta.NewArray{Dst: 0},              // idx0: a = new T[]
		pta.NewInstance{Dst: 1, Class: classA}, // idx1: x
		pta.APutObject{Src: 1, Obj: 0, Idx: 2}, // idx2: a[i] = x
		pta.AGetObject{Dst: 3, Obj: 0, Idx: 2}, // idx3: y = a[j]
		pta.ReturnObject{Src: 3},               // idx4 (exit)
	).
		Reaches(2, 1, 1).
		Reaches(2, 0, 0).
		Reaches(3, 0, 0).
		Reaches(4, 3, 3)
	vm.AddMethod(vmtest.NewMethod(methMain, classA).Static().WithRegisters(4, 0).WithInsns(ig))

	res, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.NoError(t, err)

	exit := pta.InsnHdl{Method: methMain, Index: 4}
	got := res.PointsTo(pta.RegHdl{Insn: exit, Reg: pta.RegIdxResult}, pta.NoInsnHdl)
	require.Len(t, got, 1)
	assert.Equal(t, pta.InsnHdl{Method: methMain, Index: 1}, got[0])
}

// TestVirtualDispatchOverApproximation checks that an invoke whose override
// closure names more than one concrete method wires parameter edges into
// every override's body (§8 scenario 3), the over-approximate default.
func TestVirtualDispatchOverApproximation(t *testing.T) {
	vm := vmtest.New()
	const classI pta.ClassHdl = 1
	const classA pta.ClassHdl = 2
	const classB pta.ClassHdl = 3
	const nominalM pta.MethodHdl = 10
	const implA pta.MethodHdl = 11
	const implB pta.MethodHdl = 12
	const methMain pta.MethodHdl = 1
	vm.AddClass(vmtest.NewClass(classI)).AddClass(vmtest.NewClass(classA)).AddClass(vmtest.NewClass(classB))
	vm.SetOverrides(nominalM, implA, implB)

	aIG := vmtest.NewInsnGraph(pta.Other{})
	bIG := vmtest.NewInsnGraph(pta.Other{})
	vm.AddMethod(vmtest.NewMethod(implA, classA).
		WithParams(pta.Param{Descriptor: "Ljava/lang/Object;"}).WithRegisters(2, 2).WithInsns(aIG))
	vm.AddMethod(vmtest.NewMethod(implB, classB).
		WithParams(pta.Param{Descriptor: "Ljava/lang/Object;"}).WithRegisters(2, 2).WithInsns(bIG))
	vm.AddMethod(vmtest.NewMethod(nominalM, classI).
		WithParams(pta.Param{Descriptor: "Ljava/lang/Object;"}).WithRegisters(2, 2))

	mainIG := vmtest.NewInsnGraph(
		pta.NewInstance{Dst: 0, Class: classI}, // idx0: receiver
		pta.NewInstance{Dst: 1, Class: classA}, // idx1: arg
		pta.Invoke{Kind: pta.InvokeVirtual, Method: nominalM, Regs: []uint16{0, 1}}, // idx2
		pta.Other{}, // idx3 (exit)
	).Reaches(2, 0, 0).Reaches(2, 1, 1)
	vm.AddMethod(vmtest.NewMethod(methMain, classI).Static().WithRegisters(2, 0).WithInsns(mainIG))

	res, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.NoError(t, err)

	callsite := pta.InsnHdl{Method: methMain, Index: 2}
	argAlloc := pta.InsnHdl{Method: methMain, Index: 1}

	entryA := pta.InsnHdl{Method: implA, Index: 0}
	entryB := pta.InsnHdl{Method: implB, Index: 0}

	gotA := res.PointsTo(pta.RegHdl{Insn: entryA, Reg: 1}, callsite)
	gotB := res.PointsTo(pta.RegHdl{Insn: entryB, Reg: 1}, callsite)
	require.Len(t, gotA, 1)
	require.Len(t, gotB, 1)
	assert.Equal(t, argAlloc, gotA[0])
	assert.Equal(t, argAlloc, gotB[0])
}

// TestWideParameterOffset checks that a wide (J/D) formal parameter, which
// occupies two consecutive register slots, pushes every later formal's real
// register number forward by one extra slot (§4.4 item 2,
// points_to.cpp's reg_offsets loop) — a reference parameter declared after
// a wide one must still land on its true register, not one slot early.
func TestWideParameterOffset(t *testing.T) {
	vm := vmtest.New()
	const classRecv pta.ClassHdl = 10
	const classArg pta.ClassHdl = 20
	const wideMethod pta.MethodHdl = 30
	const methMain pta.MethodHdl = 1
	vm.AddClass(vmtest.NewClass(classRecv)).AddClass(vmtest.NewClass(classArg))

	// receiver(reg1) + J(reg2,reg3) + Ljava/lang/Object;(reg4); 1 local(reg0).
	vm.AddMethod(vmtest.NewMethod(wideMethod, classRecv).
		WithParams(pta.Param{Descriptor: "J"}, pta.Param{Descriptor: "Ljava/lang/Object;"}).
		WithRegisters(5, 4))

	mainIG := vmtest.NewInsnGraph(
		pta.NewInstance{Dst: 0, Class: classRecv}, // idx0: receiver
		pta.Other{},                               // idx1: stand-in for a wide constant load
		pta.NewInstance{Dst: 2, Class: classArg},   // idx2: ref arg
		pta.Invoke{Kind: pta.InvokeDirect, Method: wideMethod, Regs: []uint16{0, 1, 2}}, // idx3
		pta.Other{}, // idx4 (exit)
	).Reaches(3, 0, 0).Reaches(3, 2, 2)
	vm.AddMethod(vmtest.NewMethod(methMain, classRecv).Static().WithRegisters(3, 0).WithInsns(mainIG))

	res, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.NoError(t, err)

	callsite := pta.InsnHdl{Method: methMain, Index: 3}
	argAlloc := pta.InsnHdl{Method: methMain, Index: 2}
	entry := pta.InsnHdl{Method: wideMethod, Index: 0}

	got := res.PointsTo(pta.RegHdl{Insn: entry, Reg: 4}, callsite)
	require.Len(t, got, 1)
	assert.Equal(t, argAlloc, got[0])
}

// TestAbstractMethodReturnWiring checks that invoking an abstract method
// with a reference return type still wires the return-value ASSIGN edge
// (§4.4 item 3 and item 4): the call site's own result register must be
// interned even though the callee has no body to populate it from.
func TestAbstractMethodReturnWiring(t *testing.T) {
	vm := vmtest.New()
	const classIface pta.ClassHdl = 1
	const classRecv pta.ClassHdl = 2
	const classArg pta.ClassHdl = 3
	const absMethod pta.MethodHdl = 10
	const methMain pta.MethodHdl = 1
	vm.AddClass(vmtest.NewClass(classIface)).AddClass(vmtest.NewClass(classRecv)).AddClass(vmtest.NewClass(classArg))

	vm.AddMethod(vmtest.NewMethod(absMethod, classIface).Abstract().
		WithParams(pta.Param{Descriptor: "Ljava/lang/Object;"}).
		WithReturn("Ljava/lang/Object;").
		WithRegisters(2, 2))

	mainIG := vmtest.NewInsnGraph(
		pta.NewInstance{Dst: 0, Class: classRecv}, // idx0: receiver
		pta.NewInstance{Dst: 1, Class: classArg},  // idx1: arg
		pta.Invoke{Kind: pta.InvokeInterface, Method: absMethod, Regs: []uint16{0, 1}}, // idx2
		pta.Other{}, // idx3 (exit)
	).Reaches(2, 0, 0).Reaches(2, 1, 1)
	vm.AddMethod(vmtest.NewMethod(methMain, classIface).Static().WithRegisters(2, 0).WithInsns(mainIG))

	res, err := pta.Analyse(context.Background(), vm, methMain, pta.Config{}, nil)
	require.NoError(t, err)

	callsite := pta.InsnHdl{Method: methMain, Index: 2}
	entry := pta.InsnHdl{Method: absMethod, Index: 0}

	// Parameter wiring is observable content: the actual arg allocation
	// reaches the abstract method's own formal register.
	gotParam := res.PointsTo(pta.RegHdl{Insn: entry, Reg: 1}, callsite)
	require.Len(t, gotParam, 1)
	assert.Equal(t, pta.InsnHdl{Method: methMain, Index: 1}, gotParam[0])

	// Return wiring has no content to carry (no body ever populates the
	// callee's exit result register), but the call site's own result
	// register must still have been interned by wireReturn rather than
	// skipped outright.
	gotResult := res.PointsTo(pta.RegHdl{Insn: callsite, Reg: pta.RegIdxResult}, pta.NoInsnHdl)
	require.NotNil(t, gotResult)
	assert.Empty(t, gotResult)
}

func TestCancellation(t *testing.T) {
	vm := vmtest.New()
	const classA pta.ClassHdl = 1
	const methMain pta.MethodHdl = 1
	vm.AddClass(vmtest.NewClass(classA))
	// A NewInstance guarantees the solver's worklist is non-empty, so the
	// cancellation check actually gets a chance to fire.
	ig := vmtest.NewInsnGraph(pta.NewInstance{Dst: 0, Class: classA})
	vm.AddMethod(vmtest.NewMethod(methMain, classA).Static().WithRegisters(1, 0).WithInsns(ig))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := pta.Analyse(ctx, vm, methMain, pta.Config{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Incomplete)
}
