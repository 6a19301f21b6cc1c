package vmtest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitana-go/pta"
	"github.com/jitana-go/pta/vmtest"
)

func TestVMBuildsAndResolves(t *testing.T) {
	const classA pta.ClassHdl = 1
	const methA pta.MethodHdl = 1
	const fieldA pta.FieldHdl = 1

	vm := vmtest.New()
	vm.AddClass(vmtest.NewClass(classA))
	vm.AddField(vmtest.NewField(fieldA, classA, 'L'))

	ig := vmtest.NewInsnGraph(
		pta.NewInstance{Dst: 0, Class: classA},
		pta.ReturnObject{Src: 0},
	).Reaches(1, 0, 0)

	method := vmtest.NewMethod(methA, classA).Static().WithRegisters(1, 0).WithInsns(ig)
	vm.AddMethod(method)
	vm.SetClinit(classA, methA)

	c, ok := vm.FindClass(classA)
	assert.True(t, ok)
	assert.Equal(t, classA, c.Hdl())

	f, ok := vm.FindField(fieldA)
	assert.True(t, ok)
	assert.Equal(t, byte('L'), f.DescriptorChar())

	m, ok := vm.FindMethod(methA)
	assert.True(t, ok)
	assert.Equal(t, 2, m.Insns().Len())
	assert.Equal(t, []int{0}, m.Insns().Reaching(1, 0))

	clinit, ok := vm.ClinitOf(classA)
	assert.True(t, ok)
	assert.Equal(t, methA, clinit)

	assert.Equal(t, []pta.MethodHdl{methA}, vm.OverrideClosure(methA))

	vm.SetOverrides(methA, methA, 99)
	assert.Equal(t, []pta.MethodHdl{methA, 99}, vm.OverrideClosure(methA))
}

func TestAbstractMethodHasNoBody(t *testing.T) {
	vm := vmtest.New()
	const methA pta.MethodHdl = 2
	m := vmtest.NewMethod(methA, 0).Abstract()
	vm.AddMethod(m)

	resolved, _ := vm.FindMethod(methA)
	require.NotNil(t, resolved.Insns())
	assert.Equal(t, 2, resolved.Insns().Len())
	assert.NotZero(t, resolved.AccessFlags()&pta.AccAbstract)
}
