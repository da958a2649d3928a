// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package script defines the bytes/ops union the ordinals envelope codec is
// built on: a script is a sequence of byte pushes, named opcodes, and the
// OP_0 sentinel, encoded to and decoded from raw Bitcoin script bytes.
package script

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// ErrMalformedScript defines that raw script bytes failed to tokenize.
var ErrMalformedScript = errors.New("malformed script")

// ProtocolID defines the 3 ASCII bytes that mark an envelope as an ordinals
// inscription.
const ProtocolID = "ord"

// MaxScriptElementSize defines the maximum size of a single data push
// (MAX_SCRIPT_BYTE_LENGTH), the standard Bitcoin script element limit.
const MaxScriptElementSize = txscript.MaxScriptElementSize

// Kind distinguishes the three shapes a ScriptOp can take. Collapsing
// "push of empty bytes" and "OP_0" would be a bug: the envelope grammar
// requires OP_0 specifically.
type Kind int

const (
	// KindBytes is a push of one or more data bytes.
	KindBytes Kind = iota
	// KindOpName is a named, non-push opcode (IF, ENDIF, CHECKSIG, ...).
	KindOpName
	// KindZero is the OP_0 sentinel (distinct from a push of empty bytes).
	KindZero
)

// namedOpcodes maps the small set of opcodes the envelope/reveal codecs
// need to name, by Name(). OP_1..OP_16 and OP_1NEGATE round-trip through
// their numeric string form.
var namedOpcodes = map[string]byte{
	"IF":       txscript.OP_IF,
	"ENDIF":    txscript.OP_ENDIF,
	"CHECKSIG": txscript.OP_CHECKSIG,
	"1NEGATE":  txscript.OP_1NEGATE,
}

// opcodeNames is the reverse of namedOpcodes, plus OP_1..OP_16.
var opcodeNames = func() map[byte]string {
	m := make(map[byte]string, len(namedOpcodes)+16)
	for name, op := range namedOpcodes {
		m[op] = name
	}
	for n := byte(1); n <= 16; n++ {
		m[txscript.OP_1+n-1] = fmt.Sprintf("%d", n)
	}

	return m
}()

// Op is a single script operation: exactly one of a byte push, a named
// opcode, or the OP_0 sentinel.
type Op struct {
	Kind Kind
	Data []byte
	Name string
}

// Bytes returns a ScriptOp pushing the given data.
func Bytes(b []byte) Op {
	return Op{Kind: KindBytes, Data: b}
}

// OpName returns a ScriptOp for a named, non-push opcode.
func OpName(name string) Op {
	return Op{Kind: KindOpName, Name: name}
}

// Zero returns the OP_0 sentinel ScriptOp.
func Zero() Op {
	return Op{Kind: KindZero}
}

// IsBytes returns true if op is a data push (possibly empty).
func (op Op) IsBytes() bool {
	return op.Kind == KindBytes
}

// EncodeScript encodes a sequence of ScriptOps into raw Bitcoin script
// bytes, using txscript's canonical push encoding, except that a one-byte
// push is always written as a literal OP_DATA_1 push (never as OP_1..OP_16
// or OP_1NEGATE), so it decodes back to the same KindBytes op.
func EncodeScript(ops []Op) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	for _, op := range ops {
		switch op.Kind {
		case KindZero:
			builder.AddOp(txscript.OP_0)
		case KindBytes:
			if len(op.Data) == 1 {
				builder.AddOps([]byte{txscript.OP_DATA_1, op.Data[0]})
			} else {
				builder.AddData(op.Data)
			}
		case KindOpName:
			opcode, ok := namedOpcodes[op.Name]
			if !ok {
				if n, isNum := numericOpcode(op.Name); isNum {
					opcode = n
				} else {
					return nil, fmt.Errorf("%w: unknown op name %q", ErrMalformedScript, op.Name)
				}
			}
			builder.AddOp(opcode)
		default:
			return nil, fmt.Errorf("%w: unknown op kind %d", ErrMalformedScript, op.Kind)
		}
	}

	return builder.Script()
}

// numericOpcode maps "1".."16" to OP_1..OP_16.
func numericOpcode(name string) (byte, bool) {
	for n := byte(1); n <= 16; n++ {
		if name == fmt.Sprintf("%d", n) {
			return txscript.OP_1 + n - 1, true
		}
	}

	return 0, false
}

// DecodeScript tokenizes raw Bitcoin script bytes into a sequence of
// ScriptOps, preserving the distinction between OP_0, data pushes, and
// every other opcode (named when recognized, by their raw byte otherwise).
func DecodeScript(b []byte) ([]Op, error) {
	var ops []Op

	tokenizer := txscript.MakeScriptTokenizer(0, b)
	for tokenizer.Next() {
		opcode := tokenizer.Opcode()
		switch {
		case opcode == txscript.OP_0:
			ops = append(ops, Zero())
		case tokenizer.Data() != nil || isDataPushOpcode(opcode):
			ops = append(ops, Bytes(tokenizer.Data()))
		default:
			if name, ok := opcodeNames[opcode]; ok {
				ops = append(ops, OpName(name))
			} else {
				ops = append(ops, OpName(fmt.Sprintf("RAW_%d", opcode)))
			}
		}
	}
	if err := tokenizer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedScript, err)
	}

	return ops, nil
}

// isDataPushOpcode reports whether opcode is one of the OP_DATA_1..75,
// OP_PUSHDATA1/2/4 push opcodes (OP_0 is handled separately by the caller).
func isDataPushOpcode(opcode byte) bool {
	return (opcode >= txscript.OP_DATA_1 && opcode <= txscript.OP_DATA_75) ||
		opcode == txscript.OP_PUSHDATA1 ||
		opcode == txscript.OP_PUSHDATA2 ||
		opcode == txscript.OP_PUSHDATA4
}
