package bytecode

import (
	"fmt"
	"iter"

	"jcallgraph/internal/classfile"
)

// Resolver resolves the constant pool operand of an invoke instruction.
// *classfile.Pool implements it.
type Resolver interface {
	MemberRef(index uint16) (classfile.MemberRef, error)
}

// Invocation is one invoke instruction with its resolved target.
type Invocation struct {
	Offset int
	Op     Opcode
	Index  uint16
	Target classfile.MemberRef
}

// Callee returns the symbolic id of the invoked method.
func (inv Invocation) Callee() string { return inv.Target.ID() }

// Walk returns a lazy sequence of the invocations in code, in offset order.
// Every instruction is decoded so offsets stay in sync; only invokevirtual,
// invokespecial, invokestatic, invokeinterface and invokedynamic are
// reported. The first decoding or resolution failure is yielded once and ends
// the sequence. Walk holds no state between runs, so ranging over the same
// sequence again produces the same invocations.
func Walk(code []byte, pool Resolver) iter.Seq2[Invocation, error] {
	return func(yield func(Invocation, error) bool) {
		for in, err := range Instructions(code) {
			if err != nil {
				yield(Invocation{}, err)
				return
			}
			if !in.Op.IsInvoke() {
				continue
			}
			inv, err := resolve(in, pool)
			if !yield(inv, err) || err != nil {
				return
			}
		}
	}
}

func resolve(in Instruction, pool Resolver) (Invocation, error) {
	idx := in.Index()
	ref, err := pool.MemberRef(idx)
	if err != nil {
		return Invocation{}, fmt.Errorf("%s at offset %d: #%d: %w", in.Op, in.Offset, idx, err)
	}
	dynamic := ref.Kind == classfile.KindInvokeDynamic
	if dynamic != (in.Op == InvokeDynamic) {
		return Invocation{}, fmt.Errorf("%w: %s at offset %d references %s #%d",
			classfile.ErrKindMismatch, in.Op, in.Offset, ref.Kind, idx)
	}
	return Invocation{Offset: in.Offset, Op: in.Op, Index: idx, Target: ref}, nil
}
