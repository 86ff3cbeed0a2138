package bytecode

import (
	"testing"

	"jcallgraph/internal/classfile"
	"jcallgraph/internal/classfile/classfiletest"
)

func codeAttr(code []byte, handlers ...uint16) *classfile.CodeAttribute {
	c := &classfile.CodeAttribute{Code: code}
	for _, h := range handlers {
		c.ExceptionTable = append(c.ExceptionTable, classfile.ExceptionHandler{HandlerPC: h})
	}
	return c
}

func TestBuildCFG_Linear(t *testing.T) {
	// aload_0, invokespecial #1, return: one block.
	code := (&classfiletest.Asm{}).Op(0x2A).U2(byte(InvokeSpecial), 1).Op(0xB1).Bytes()
	cfg, err := BuildCFG("linear", codeAttr(code))
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	if len(cfg.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(cfg.Blocks))
	}
	blk := cfg.Blocks[0]
	if blk.Start != 0 || blk.End != 3 {
		t.Errorf("block range = [%d,%d), want [0,3)", blk.Start, blk.End)
	}
	if !blk.IsEntry || !blk.IsTerm {
		t.Errorf("block entry=%v term=%v, want both", blk.IsEntry, blk.IsTerm)
	}
	if len(blk.Succs) != 0 {
		t.Errorf("succs = %d, want 0", len(blk.Succs))
	}
}

func TestBuildCFG_ConditionalBranch(t *testing.T) {
	//  0: iload_0
	//  1: ifeq +7 -> 8
	//  4: iconst_1
	//  5: goto +4 -> 9
	//  8: iconst_0
	//  9: ireturn
	a := &classfiletest.Asm{}
	a.Op(0x1A).U2(0x99, 7).Op(0x04).U2(0xA7, 4).Op(0x03).Op(0xAC)
	cfg, err := BuildCFG("cond", codeAttr(a.Bytes()))
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	if len(cfg.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(cfg.Blocks))
	}

	b0 := cfg.Blocks[0]
	if len(b0.Succs) != 2 {
		t.Fatalf("B0 succs = %+v", b0.Succs)
	}
	if b0.Succs[0].BlockID != 2 || b0.Succs[0].Cond != "T" {
		t.Errorf("B0 taken = %+v, want B2/T", b0.Succs[0])
	}
	if b0.Succs[1].BlockID != 1 || b0.Succs[1].Cond != "F" {
		t.Errorf("B0 fallthrough = %+v, want B1/F", b0.Succs[1])
	}

	b1 := cfg.Blocks[1]
	if len(b1.Succs) != 1 || b1.Succs[0].BlockID != 3 || b1.Succs[0].Cond != "" {
		t.Errorf("B1 succs = %+v, want unconditional B3", b1.Succs)
	}
	b2 := cfg.Blocks[2]
	if len(b2.Succs) != 1 || b2.Succs[0].BlockID != 3 {
		t.Errorf("B2 succs = %+v, want fallthrough B3", b2.Succs)
	}
	if !cfg.Blocks[3].IsTerm {
		t.Error("B3 should be terminal")
	}
	if got := cfg.Offset(cfg.Blocks[3]); got != 9 {
		t.Errorf("B3 offset = %d, want 9", got)
	}
}

func TestBuildCFG_Switch(t *testing.T) {
	//  0: iload_0
	//  1: tableswitch 0..1 (pad 2) default -> 28, 0 -> 24, 1 -> 26
	// 24: iconst_0, ireturn
	// 26: iconst_1, ireturn
	// 28: iconst_m1, ireturn
	a := &classfiletest.Asm{}
	a.Op(0x1A)
	a.TableSwitch(27, 0, 1, 23, 25)
	if a.Len() != 24 {
		t.Fatalf("switch ends at %d, want 24", a.Len())
	}
	a.Op(0x03).Op(0xAC).Op(0x04).Op(0xAC).Op(0x02).Op(0xAC)

	cfg, err := BuildCFG("switch", codeAttr(a.Bytes()))
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	if len(cfg.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(cfg.Blocks))
	}
	want := []Succ{{3, "default"}, {1, "case 0"}, {2, "case 1"}}
	got := cfg.Blocks[0].Succs
	if len(got) != len(want) {
		t.Fatalf("B0 succs = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("B0 succ %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildCFG_Handler(t *testing.T) {
	//  0: invokestatic #1
	//  3: return
	//  4: astore_1      (handler)
	//  5: return
	a := &classfiletest.Asm{}
	a.U2(byte(InvokeStatic), 1).Op(0xB1).Op(0x4C).Op(0xB1)
	cfg, err := BuildCFG("handler", codeAttr(a.Bytes(), 4))
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	if len(cfg.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(cfg.Blocks))
	}
	if !cfg.Blocks[1].IsHandler || cfg.Blocks[0].IsHandler {
		t.Errorf("handler flags = %v, %v; want false, true", cfg.Blocks[0].IsHandler, cfg.Blocks[1].IsHandler)
	}
}

func TestBuildCFG_Empty(t *testing.T) {
	cfg, err := BuildCFG("abstract", codeAttr(nil))
	if err != nil || len(cfg.Blocks) != 0 {
		t.Errorf("BuildCFG(empty) = %d blocks, %v", len(cfg.Blocks), err)
	}
}

func TestBuildCFG_DecodeError(t *testing.T) {
	if _, err := BuildCFG("bad", codeAttr([]byte{0xB8, 0x00})); err == nil {
		t.Error("expected error for truncated code")
	}
}

func TestDecodeBranch_LookupSwitch(t *testing.T) {
	a := &classfiletest.Asm{}
	a.LookupSwitch(12, [2]int32{-1, 20}, [2]int32{7, 28})
	in, err := Decode(a.Bytes(), 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	bi := DecodeBranch(in)
	if bi == nil || bi.Cond || bi.IsRet {
		t.Fatalf("DecodeBranch = %+v", bi)
	}
	wantTargets := []int{12, 20, 28}
	wantLabels := []string{"default", "case -1", "case 7"}
	for i := range wantTargets {
		if bi.Targets[i] != wantTargets[i] || bi.Labels[i] != wantLabels[i] {
			t.Errorf("target %d = %d %q, want %d %q", i, bi.Targets[i], bi.Labels[i], wantTargets[i], wantLabels[i])
		}
	}
}
