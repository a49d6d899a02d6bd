// Package argtype defines the tagged-union argument value that every
// decompiled command operand is represented as, plus the wire-format type
// tags used inside the instruction stream.
package argtype

import "fmt"

// Tag identifies the wire representation of an argument as read from the
// byte stream, per the argument-type tags in the external interface.
type Tag byte

const (
	TagEndOfList    Tag = 0x00
	TagInt32        Tag = 0x01
	TagGlobalVar    Tag = 0x02
	TagLocalVar     Tag = 0x03
	TagInt8         Tag = 0x04
	TagInt16        Tag = 0x05
	TagFloat        Tag = 0x06
	TagArrayVar     Tag = 0x07 // base variable + index variable, see Kind.Array
	TagFixedString  Tag = 0x09 // 8-byte fixed storage
	TagVarLenString Tag = 0x0E // u8 length prefix
)

func (t Tag) String() string {
	switch t {
	case TagEndOfList:
		return "EOL"
	case TagInt32:
		return "I32"
	case TagGlobalVar:
		return "GlobalVar"
	case TagLocalVar:
		return "LocalVar"
	case TagInt8:
		return "I8"
	case TagInt16:
		return "I16"
	case TagFloat:
		return "Float"
	case TagArrayVar:
		return "ArrayVar"
	case TagFixedString:
		return "FixedString"
	case TagVarLenString:
		return "VarLenString"
	default:
		return fmt.Sprintf("Tag(0x%02x)", byte(t))
	}
}

// Kind is the in-memory shape of a Value, independent of its wire tag.
type Kind int

const (
	KindEndOfList Kind = iota
	KindImmInt
	KindImmFloat
	KindVar
	KindArrayVar
	KindString
)

// Var addresses a single variable slot: global storage when Global is
// true, otherwise a byte offset from the running thread's local base.
type Var struct {
	Global bool
	Offset uint16
}

// Value is the tagged union every command argument decodes into.
type Value struct {
	Kind Kind

	Tag Tag // wire tag this value was decoded from (or will be encoded as)

	Int   int32   // KindImmInt
	Float float32 // KindImmFloat

	Var Var // KindVar

	ArrayBase  Var // KindArrayVar: the base variable
	ArrayIndex Var // KindArrayVar: the variable holding the index

	Str       []byte // KindString
	StrFixed  bool   // true: 8-byte fixed storage; false: length-prefixed
}

func EndOfList() Value { return Value{Kind: KindEndOfList, Tag: TagEndOfList} }

func Int(v int32, tag Tag) Value {
	return Value{Kind: KindImmInt, Tag: tag, Int: v}
}

func Float(v float32) Value {
	return Value{Kind: KindImmFloat, Tag: TagFloat, Float: v}
}

func GlobalVar(offset uint16) Value {
	return Value{Kind: KindVar, Tag: TagGlobalVar, Var: Var{Global: true, Offset: offset}}
}

func LocalVar(offset uint16) Value {
	return Value{Kind: KindVar, Tag: TagLocalVar, Var: Var{Global: false, Offset: offset}}
}

func ArrayVar(base, index Var) Value {
	return Value{Kind: KindArrayVar, Tag: TagArrayVar, ArrayBase: base, ArrayIndex: index}
}

func FixedString(b []byte) Value {
	return Value{Kind: KindString, Tag: TagFixedString, Str: b, StrFixed: true}
}

func VarString(b []byte) Value {
	return Value{Kind: KindString, Tag: TagVarLenString, Str: b, StrFixed: false}
}

// IsLabelCandidate reports whether the value plausibly encodes a branch
// target: a plain immediate. Callers resolving branch operands treat any
// other kind as non-resolvable.
func (v Value) IsLabelCandidate() bool {
	return v.Kind == KindImmInt
}

func (v Value) String() string {
	switch v.Kind {
	case KindEndOfList:
		return "<eol>"
	case KindImmInt:
		return fmt.Sprintf("%d", v.Int)
	case KindImmFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindVar:
		if v.Var.Global {
			return fmt.Sprintf("global[%d]", v.Var.Offset)
		}
		return fmt.Sprintf("local[%d]", v.Var.Offset)
	case KindArrayVar:
		return fmt.Sprintf("%s[%s]", Value{Kind: KindVar, Var: v.ArrayBase}, Value{Kind: KindVar, Var: v.ArrayIndex})
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	default:
		return "<?>"
	}
}
