// Package disasm turns a raw SCM byte image into a typed, ascending
// sequence of pseudo-instructions by exploring reachable offsets from a
// segment's known entry points.
package disasm

import (
	"scmcc/internal/argtype"
	"scmcc/internal/cmddb"
)

// DecompiledCommand is a 16-bit opcode plus its decoded argument list. Bit
// 15 of Opcode is the "not" flag; the low 15 bits select the command id.
type DecompiledCommand struct {
	Opcode uint16
	Args   []argtype.Value
}

// ID returns the command id, with the not-flag stripped.
func (c DecompiledCommand) ID() cmddb.CommandID { return cmddb.CommandID(c.Opcode &^ 0x8000) }

// Not reports whether bit 15 (the "not" flag) is set.
func (c DecompiledCommand) Not() bool { return c.Opcode&0x8000 != 0 }

// Kind discriminates the three shapes a DecompiledData element can take.
type Kind int

const (
	KindLabel Kind = iota
	KindCommand
	KindHex
)

func (k Kind) String() string {
	switch k {
	case KindLabel:
		return "label"
	case KindCommand:
		return "command"
	case KindHex:
		return "hex"
	default:
		return "?"
	}
}

// DecompiledData is one element of the disassembled stream: a local offset
// paired with a label definition, a decoded command, or an opaque run of
// undecoded bytes. The stream is produced in strictly ascending offset order.
type DecompiledData struct {
	Offset  int
	Kind    Kind
	Command DecompiledCommand // valid when Kind == KindCommand
	Hex     []byte            // valid when Kind == KindHex
	Len     int               // byte span; 0 for a label definition
}

// EndOffset returns the offset one past the last byte this element covers.
func (d DecompiledData) EndOffset() int { return d.Offset + d.Len }
