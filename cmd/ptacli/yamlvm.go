package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jitana-go/pta"
	"github.com/jitana-go/pta/vmtest"
)

// yamlDoc is the thin, hand-rolled VM description this CLI accepts. It
// exists purely to make the demo/harness runnable without a real bytecode
// loader (out of scope for the core, §6.1) — it is not a serialization
// format the core itself knows anything about.
type yamlDoc struct {
	Entry  uint32       `yaml:"entry"`
	Config yamlConfig   `yaml:"config"`
	VM     yamlVMImage  `yaml:"vm"`
}

type yamlConfig struct {
	OnTheFlyCallGraph bool `yaml:"on_the_fly_call_graph"`
	ProgressPeriod    int  `yaml:"progress_period"`
}

type yamlVMImage struct {
	Classes   []yamlClass    `yaml:"classes"`
	Fields    []yamlField    `yaml:"fields"`
	Methods   []yamlMethod   `yaml:"methods"`
	Overrides []yamlOverride `yaml:"overrides"`
	Clinits   []yamlClinit   `yaml:"clinits"`
}

type yamlClass struct {
	Hdl uint32 `yaml:"hdl"`
}

type yamlField struct {
	Hdl   uint32 `yaml:"hdl"`
	Class uint32 `yaml:"class"`
	Desc  string `yaml:"desc"`
}

type yamlMethod struct {
	Hdl       uint32       `yaml:"hdl"`
	Class     uint32       `yaml:"class"`
	Static    bool         `yaml:"static"`
	Abstract  bool         `yaml:"abstract"`
	Params    []string     `yaml:"params"`
	Return    string       `yaml:"return"`
	Registers int          `yaml:"registers"`
	Ins       int          `yaml:"ins"`
	Insns     []yamlInsn   `yaml:"insns"`
	Reaching  []yamlReach  `yaml:"reaching"`
}

type yamlInsn struct {
	Op    string    `yaml:"op"`
	Dst   regToken  `yaml:"dst"`
	Src   regToken  `yaml:"src"`
	Obj   regToken  `yaml:"obj"`
	Idx   regToken  `yaml:"idx"`
	Reg   regToken  `yaml:"reg"`
	Class uint32    `yaml:"class"`
	Field uint32    `yaml:"field"`
	Kind  string    `yaml:"kind"`
	Meth  uint32    `yaml:"method"`
	Regs  []uint16  `yaml:"regs"`
}

// regToken is a register index that also accepts the two reserved pseudo-
// register names, so a YAML description can write "move-result-object" as
// an ordinary move from the pseudo-register "result" instead of needing a
// distinct opcode for it.
type regToken uint16

func (r *regToken) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err == nil {
		switch name {
		case "result":
			*r = regToken(pta.RegIdxResult)
			return nil
		case "exception":
			*r = regToken(pta.RegIdxException)
			return nil
		}
	}
	var n uint16
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("register token: %w", err)
	}
	*r = regToken(n)
	return nil
}

type yamlReach struct {
	Idx  int      `yaml:"idx"`
	Reg  regToken `yaml:"reg"`
	Defs []int    `yaml:"defs"`
}

type yamlOverride struct {
	Nominal uint32   `yaml:"nominal"`
	Closure []uint32 `yaml:"closure"`
}

type yamlClinit struct {
	Class  uint32 `yaml:"class"`
	Method uint32 `yaml:"method"`
}

func loadYAMLDoc(path string) (*yamlDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}

func (doc *yamlVMImage) build() (*vmtest.VM, error) {
	vm := vmtest.New()
	for _, c := range doc.Classes {
		vm.AddClass(vmtest.NewClass(pta.ClassHdl(c.Hdl)))
	}
	for _, f := range doc.Fields {
		if len(f.Desc) == 0 {
			return nil, fmt.Errorf("field %d: empty descriptor", f.Hdl)
		}
		vm.AddField(vmtest.NewField(pta.FieldHdl(f.Hdl), pta.ClassHdl(f.Class), f.Desc[0]))
	}
	for _, m := range doc.Methods {
		md := vmtest.NewMethod(pta.MethodHdl(m.Hdl), pta.ClassHdl(m.Class))
		if m.Static {
			md.Static()
		}
		if m.Abstract {
			md.Abstract()
		}
		params := make([]pta.Param, len(m.Params))
		for i, p := range m.Params {
			params[i] = pta.Param{Descriptor: p}
		}
		md.WithParams(params...).WithReturn(m.Return).WithRegisters(m.Registers, m.Ins)

		if len(m.Insns) > 0 {
			insns := make([]pta.Insn, len(m.Insns))
			for i, yi := range m.Insns {
				insn, err := buildInsn(yi)
				if err != nil {
					return nil, fmt.Errorf("method %d insn %d: %w", m.Hdl, i, err)
				}
				insns[i] = insn
			}
			ig := vmtest.NewInsnGraph(insns...)
			for _, r := range m.Reaching {
				ig.Reaches(r.Idx, uint16(r.Reg), r.Defs...)
			}
			md.WithInsns(ig)
		}
		vm.AddMethod(md)
	}
	for _, o := range doc.Overrides {
		closure := make([]pta.MethodHdl, len(o.Closure))
		for i, h := range o.Closure {
			closure[i] = pta.MethodHdl(h)
		}
		vm.SetOverrides(pta.MethodHdl(o.Nominal), closure...)
	}
	for _, c := range doc.Clinits {
		vm.SetClinit(pta.ClassHdl(c.Class), pta.MethodHdl(c.Method))
	}
	return vm, nil
}

func buildInsn(yi yamlInsn) (pta.Insn, error) {
	switch yi.Op {
	case "move-object":
		return pta.MoveObject{Dst: uint16(yi.Dst), Src: uint16(yi.Src)}, nil
	case "return-object":
		return pta.ReturnObject{Src: uint16(yi.Src)}, nil
	case "check-cast":
		return pta.CheckCast{Reg: uint16(yi.Reg)}, nil
	case "const-string":
		return pta.ConstString{Dst: uint16(yi.Dst)}, nil
	case "const-class":
		return pta.ConstClass{Dst: uint16(yi.Dst)}, nil
	case "new-instance":
		return pta.NewInstance{Dst: uint16(yi.Dst), Class: pta.ClassHdl(yi.Class)}, nil
	case "new-array":
		return pta.NewArray{Dst: uint16(yi.Dst)}, nil
	case "filled-new-array":
		return pta.FilledNewArray{}, nil
	case "aget-object":
		return pta.AGetObject{Dst: uint16(yi.Dst), Obj: uint16(yi.Obj), Idx: uint16(yi.Idx)}, nil
	case "aput-object":
		return pta.APutObject{Src: uint16(yi.Src), Obj: uint16(yi.Obj), Idx: uint16(yi.Idx)}, nil
	case "iget-object":
		return pta.IGetObject{Dst: uint16(yi.Dst), Obj: uint16(yi.Obj), Field: pta.FieldHdl(yi.Field)}, nil
	case "iput-object":
		return pta.IPutObject{Src: uint16(yi.Src), Obj: uint16(yi.Obj), Field: pta.FieldHdl(yi.Field)}, nil
	case "sget-object":
		return pta.SGetObject{Dst: uint16(yi.Dst), Field: pta.FieldHdl(yi.Field)}, nil
	case "sput-object":
		return pta.SPutObject{Src: uint16(yi.Src), Field: pta.FieldHdl(yi.Field)}, nil
	case "invoke":
		kind, err := parseInvokeKind(yi.Kind)
		if err != nil {
			return nil, err
		}
		return pta.Invoke{Kind: kind, Method: pta.MethodHdl(yi.Meth), Regs: yi.Regs}, nil
	case "invoke-quick":
		return pta.InvokeQuick{}, nil
	case "", "nop", "other":
		return pta.Other{}, nil
	default:
		return nil, fmt.Errorf("unknown opcode %q", yi.Op)
	}
}

func parseInvokeKind(s string) (pta.InvokeKind, error) {
	switch s {
	case "virtual":
		return pta.InvokeVirtual, nil
	case "super":
		return pta.InvokeSuper, nil
	case "direct":
		return pta.InvokeDirect, nil
	case "static":
		return pta.InvokeStatic, nil
	case "interface":
		return pta.InvokeInterface, nil
	default:
		return 0, fmt.Errorf("unknown invoke kind %q", s)
	}
}
