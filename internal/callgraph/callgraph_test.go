package callgraph

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/zboralski/lattice/render"
	"jcallgraph/internal/bytecode"
	"jcallgraph/internal/classfile"
	"jcallgraph/internal/classfile/classfiletest"
)

const accPublicStatic = 0x0009

func parse(t *testing.T, b *classfiletest.Builder) *classfile.ClassFile {
	t.Helper()
	cf, err := classfile.Parse(b.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cf
}

func TestExtract_SingleInvokeStatic(t *testing.T) {
	// class A { static void m() { B.n(); } }
	b := classfiletest.New("A")
	idx := b.MethodRef("B", "n", "()V")
	b.Method(accPublicStatic, "m", "()V", (&classfiletest.Asm{}).U2(0xB8, idx).Op(0xB1).Bytes())

	edges, err := Extract(parse(t, b))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	e := edges[0]
	if e.Caller != "A.m()V" || e.Callee != "B.n()V" {
		t.Errorf("edge = %s -> %s, want A.m()V -> B.n()V", e.Caller, e.Callee)
	}
	if e.Order != 0 || e.Offset != 0 || e.Opcode != bytecode.InvokeStatic || e.Class != "A" {
		t.Errorf("edge = %+v", e)
	}
}

func TestExtract_OrderAcrossMethods(t *testing.T) {
	b := classfiletest.New("p/Main")
	ctor := b.MethodRef("java/lang/Object", "<init>", "()V")
	printLn := b.MethodRef("java/io/PrintStream", "println", "(Ljava/lang/String;)V")
	size := b.InterfaceMethodRef("java/util/List", "size", "()I")
	lambda := b.InvokeDynamic(0, "run", "()Ljava/lang/Runnable;")

	b.Method(0x0001, "<init>", "()V", (&classfiletest.Asm{}).Op(0x2A).U2(0xB7, ctor).Op(0xB1).Bytes())
	b.Method(0x0401, "abstractOne", "()V", nil)
	b.Method(accPublicStatic, "main", "([Ljava/lang/String;)V", (&classfiletest.Asm{}).
		Op(0x01).U2(0xB6, printLn).
		Op(0x01).InvokeInterface(size, 1).Op(0x57).
		InvokeDynamic(lambda).Op(0x57).
		Op(0x01).U2(0xB6, printLn).
		Op(0xB1).Bytes())

	edges, err := Extract(parse(t, b))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := [][2]string{
		{"p/Main.<init>()V", "java/lang/Object.<init>()V"},
		{"p/Main.main([Ljava/lang/String;)V", "java/io/PrintStream.println(Ljava/lang/String;)V"},
		{"p/Main.main([Ljava/lang/String;)V", "java/util/List.size()I"},
		{"p/Main.main([Ljava/lang/String;)V", "<invokedynamic>.run()Ljava/lang/Runnable;"},
		{"p/Main.main([Ljava/lang/String;)V", "java/io/PrintStream.println(Ljava/lang/String;)V"},
	}
	if len(edges) != len(want) {
		t.Fatalf("got %d edges, want %d: %+v", len(edges), len(want), edges)
	}
	for i, e := range edges {
		if e.Caller != want[i][0] || e.Callee != want[i][1] {
			t.Errorf("edge %d = %s -> %s, want %s -> %s", i, e.Caller, e.Callee, want[i][0], want[i][1])
		}
		if e.Order != i {
			t.Errorf("edge %d order = %d", i, e.Order)
		}
	}
}

func TestExtract_FailureDropsAllEdges(t *testing.T) {
	b := classfiletest.New("A")
	ok := b.MethodRef("B", "n", "()V")
	b.Method(accPublicStatic, "good", "()V", (&classfiletest.Asm{}).U2(0xB8, ok).Op(0xB1).Bytes())
	b.Method(accPublicStatic, "bad", "()V", []byte{0xB8, 0x00})

	edges, err := Extract(parse(t, b))
	if !errors.Is(err, bytecode.ErrTruncatedInstruction) {
		t.Fatalf("err = %v, want ErrTruncatedInstruction", err)
	}
	if edges != nil {
		t.Errorf("edges = %+v, want none", edges)
	}
	if !strings.Contains(err.Error(), "A.bad()V") {
		t.Errorf("error %q does not name the method", err)
	}
}

func TestEdges_StopEarly(t *testing.T) {
	b := classfiletest.New("A")
	idx := b.MethodRef("B", "n", "()V")
	b.Method(accPublicStatic, "m", "()V", (&classfiletest.Asm{}).U2(0xB8, idx).U2(0xB8, idx).U2(0xB8, idx).Op(0xB1).Bytes())
	n := 0
	for _, err := range Edges(parse(t, b)) {
		if err != nil {
			t.Fatal(err)
		}
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("n = %d", n)
	}
}

func TestAnalyze(t *testing.T) {
	b := classfiletest.New("A")
	b.Method(0x0001, "<init>", "()V", []byte{0xB1})
	b.Method(0x0101, "nat", "()I", nil)
	c, err := Analyze(parse(t, b))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if c.Name != "A" || c.Super != "java/lang/Object" || c.Version != "52.0" {
		t.Errorf("class = %+v", c)
	}
	var ids []string
	for _, m := range c.Methods {
		ids = append(ids, m.ID())
	}
	if want := []string{"A.<init>()V", "A.nat()I"}; !slices.Equal(ids, want) {
		t.Errorf("methods = %v, want %v", ids, want)
	}
	if c.Methods[0].CodeSize != 1 || c.Methods[1].CodeSize != 0 || !c.Methods[1].Access.IsNative() {
		t.Errorf("methods = %+v", c.Methods)
	}
	if len(c.Edges) != 0 {
		t.Errorf("edges = %+v", c.Edges)
	}
}

func TestBuildCallGraph_DOTOutput(t *testing.T) {
	methods := []Method{
		{Class: "A", Name: "main", Descriptor: "()V"},
		{Class: "A", Name: "helper", Descriptor: "()V"},
	}
	edges := []CallEdge{
		{Caller: "A.main()V", Callee: "A.helper()V"},
		{Caller: "A.main()V", Callee: "A.helper()V"},
		{Caller: "A.helper()V", Callee: "java/io/PrintStream.println(I)V"},
	}

	cg := BuildCallGraph(methods, edges)
	if len(cg.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d: %v", len(cg.Nodes), cg.Nodes)
	}
	if len(cg.Edges) != 2 {
		t.Errorf("expected 2 deduplicated edges, got %d", len(cg.Edges))
	}

	dot := render.DOT(cg, "call graph example")
	if dot == "" {
		t.Error("expected non-empty DOT output")
	}
}

func TestBuildClassCFG(t *testing.T) {
	b := classfiletest.New("A")
	foo := b.MethodRef("B", "foo", "()V")
	bar := b.MethodRef("B", "bar", "()V")
	//  0: iload_0
	//  1: ifeq -> 10
	//  4: invokestatic B.foo
	//  7: goto -> 13
	// 10: invokestatic B.bar
	// 13: return
	code := (&classfiletest.Asm{}).
		Op(0x1A).U2(0x99, 9).
		U2(0xB8, foo).U2(0xA7, 6).
		U2(0xB8, bar).
		Op(0xB1).Bytes()
	b.Method(accPublicStatic, "m", "(Z)V", code)
	b.Method(0x0401, "abs", "()V", nil)

	cg, err := BuildClassCFG(parse(t, b))
	if err != nil {
		t.Fatalf("BuildClassCFG: %v", err)
	}
	if len(cg.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(cg.Funcs))
	}
	f := cg.Funcs[0]
	if f.Name != "A.m(Z)V" {
		t.Errorf("func name = %q", f.Name)
	}
	if len(f.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(f.Blocks))
	}
	if b1 := f.Blocks[1]; len(b1.Calls) != 1 || b1.Calls[0].Callee != "B.foo()V" || b1.Calls[0].Offset != 4 {
		t.Errorf("B1 calls = %+v", b1.Calls)
	}
	if b2 := f.Blocks[2]; len(b2.Calls) != 1 || b2.Calls[0].Callee != "B.bar()V" || b2.Calls[0].Offset != 10 {
		t.Errorf("B2 calls = %+v", b2.Calls)
	}
	if b3 := f.Blocks[3]; !b3.Term || b3.Start != 13 || b3.End != 14 {
		t.Errorf("B3 = %+v", b3)
	}

	dot := render.DOTCFG(cg, "cfg example")
	if dot == "" {
		t.Error("expected non-empty DOT output")
	}
}
