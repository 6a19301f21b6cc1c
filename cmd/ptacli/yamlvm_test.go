package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitana-go/pta"
)

func TestLoadYAMLDocBuildsAndAnalyses(t *testing.T) {
	doc, err := loadYAMLDoc("testdata/sample.yaml")
	require.NoError(t, err)
	assert.EqualValues(t, 1, doc.Entry)

	vm, err := doc.VM.build()
	require.NoError(t, err)

	cfg := pta.Config{
		OnTheFlyCallGraph: doc.Config.OnTheFlyCallGraph,
		ProgressPeriod:    doc.Config.ProgressPeriod,
	}
	res, err := pta.Analyse(context.Background(), vm, pta.MethodHdl(doc.Entry), cfg, nil)
	require.NoError(t, err)

	exit := pta.InsnHdl{Method: pta.MethodHdl(doc.Entry), Index: 2}
	got := res.PointsTo(pta.RegHdl{Insn: exit, Reg: pta.RegIdxResult}, pta.NoInsnHdl)
	require.Len(t, got, 1)
	assert.Equal(t, pta.InsnHdl{Method: pta.MethodHdl(doc.Entry), Index: 0}, got[0])
}

func TestBuildInsnUnknownOpcode(t *testing.T) {
	_, err := buildInsn(yamlInsn{Op: "bogus-opcode"})
	assert.Error(t, err)
}

func TestParseInvokeKind(t *testing.T) {
	k, err := parseInvokeKind("virtual")
	require.NoError(t, err)
	assert.Equal(t, pta.InvokeVirtual, k)

	_, err = parseInvokeKind("bogus")
	assert.Error(t, err)
}
