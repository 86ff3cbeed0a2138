package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jcallgraph/internal/bytecode"
	"jcallgraph/internal/classfile"
	"jcallgraph/internal/output"
	"jcallgraph/internal/render"
)

func newDisasmCmd() *cobra.Command {
	var (
		method string
		cfgDir string
	)
	cmd := &cobra.Command{
		Use:   "disasm [flags] <file.class>",
		Short: "Disassemble the methods of one class file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdDisasm(cmd.OutOrStdout(), args[0], method, cfgDir)
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "only methods whose id contains this string")
	cmd.Flags().StringVar(&cfgDir, "cfg-dir", "", "write one basic-block CFG DOT per method to this directory")
	return cmd
}

func cmdDisasm(w io.Writer, path, method, cfgDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	class, err := cf.ClassName()
	if err != nil {
		return err
	}
	super, err := cf.SuperName()
	if err != nil {
		return err
	}

	kind := "class"
	if cf.AccessFlags.IsInterface() {
		kind = "interface"
	}
	fmt.Fprintf(w, "%s %s", kind, class)
	if super != "" {
		fmt.Fprintf(w, " extends %s", super)
	}
	fmt.Fprintf(w, "  // version %s (%s), access 0x%04x\n", cf.Version(), cf.JavaRelease(), uint16(cf.AccessFlags))
	fmt.Fprintf(w, "// constant pool: %d slots, fields: %d, methods: %d\n", cf.Pool.Count(), len(cf.Fields), len(cf.Methods))

	cfgs := 0
	for i := range cf.Methods {
		m := &cf.Methods[i]
		name, desc, err := cf.MemberName(m)
		if err != nil {
			return fmt.Errorf("method %d: %w", i, err)
		}
		id := classfile.MethodID(class, name, desc)
		if method != "" && !strings.Contains(id, method) {
			continue
		}

		fmt.Fprintf(w, "\n%s  // access 0x%04x%s\n", id, uint16(m.AccessFlags), flagWords(m.AccessFlags))
		if m.Code == nil {
			fmt.Fprintln(w, "  (no code)")
			continue
		}
		code := m.Code
		fmt.Fprintf(w, "  // max_stack %d, max_locals %d, code %d bytes\n", code.MaxStack, code.MaxLocals, len(code.Code))
		for in, err := range bytecode.Instructions(code.Code) {
			if err != nil {
				fmt.Fprintf(w, "  !! %v\n", err)
				break
			}
			fmt.Fprintf(w, "  %s%s\n", in, annotate(cf.Pool, in))
		}
		for _, h := range code.ExceptionTable {
			catch := "any"
			if h.CatchType != 0 {
				if catch, err = cf.Pool.ClassName(h.CatchType); err != nil {
					catch = fmt.Sprintf("#%d", h.CatchType)
				}
			}
			fmt.Fprintf(w, "  catch [%d, %d) -> %d %s\n", h.StartPC, h.EndPC, h.HandlerPC, catch)
		}

		if cfgDir == "" {
			continue
		}
		cfg, err := bytecode.BuildCFG(id, code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: CFG for %s: %v\n", id, err)
			continue
		}
		dot := render.CFGDOT(cfg, render.NASA)
		if dot == "" {
			continue
		}
		if err := output.WriteDOT(cfgDir, methodFileName(name, desc, i), dot); err != nil {
			return err
		}
		cfgs++
	}
	if cfgDir != "" {
		fmt.Fprintf(os.Stderr, "wrote %d CFGs in %s\n", cfgs, cfgDir)
	}
	return nil
}

// flagWords names the method flags that change how a body is read.
func flagWords(f classfile.AccessFlags) string {
	var words []string
	if f.IsStatic() {
		words = append(words, "static")
	}
	if f.IsAbstract() {
		words = append(words, "abstract")
	}
	if f.IsNative() {
		words = append(words, "native")
	}
	if f.IsSynthetic() {
		words = append(words, "synthetic")
	}
	if len(words) == 0 {
		return ""
	}
	return " " + strings.Join(words, " ")
}

// annotate returns a trailing comment naming the symbolic target of a
// constant pool operand.
func annotate(pool *classfile.Pool, in bytecode.Instruction) string {
	switch {
	case in.Op.IsInvoke():
		ref, err := pool.MemberRef(in.Index())
		if err != nil {
			return fmt.Sprintf("  // <%v>", err)
		}
		return "  // " + ref.ID()
	case in.Op >= 0xB2 && in.Op <= 0xB5: // getstatic, putstatic, getfield, putfield
		e, err := pool.Entry(in.Index())
		if err != nil || e.Kind != classfile.KindFieldRef {
			return fmt.Sprintf("  // <not a field ref: #%d>", in.Index())
		}
		owner, err := pool.ClassName(e.ClassIndex)
		if err != nil {
			return fmt.Sprintf("  // <%v>", err)
		}
		name, desc, err := pool.NameAndType(e.NameAndTypeIndex)
		if err != nil {
			return fmt.Sprintf("  // <%v>", err)
		}
		return "  // " + owner + "." + name + ":" + desc
	case in.Op == 0xBB, in.Op == 0xBD, in.Op == 0xC0, in.Op == 0xC1, in.Op == 0xC5: // new, anewarray, checkcast, instanceof, multianewarray
		name, err := pool.ClassName(in.Index())
		if err != nil {
			return fmt.Sprintf("  // <%v>", err)
		}
		return "  // " + name
	}
	return ""
}

// methodFileName names a per-method DOT file. Descriptors contain '/', so
// the method index keeps overloads apart instead.
func methodFileName(name, desc string, index int) string {
	clean := strings.NewReplacer("<", "", ">", "", "/", "_", "$", "_").Replace(name)
	return fmt.Sprintf("%03d_%s.dot", index, clean)
}
