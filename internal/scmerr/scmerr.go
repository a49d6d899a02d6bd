// Package scmerr stands in for the program/error-reporting context: the
// external collaborator that distinguishes fatal failures (which abort the
// stage that raised them) from advisories (which the core accumulates and
// keeps running past). The real context is out of scope for this module;
// Context is the seam a production deployment's richer reporter plugs into.
package scmerr

import (
	"fmt"

	"scmcc/log"
)

// Kind classifies a reported condition per the error handling design.
type Kind int

const (
	KindTruncation Kind = iota
	KindUnknownOpcodeOrTag
	KindUnresolvableLabel
	KindGraphInconsistency
	KindEmitterFailure
)

func (k Kind) String() string {
	switch k {
	case KindTruncation:
		return "truncation"
	case KindUnknownOpcodeOrTag:
		return "unknown-opcode-or-tag"
	case KindUnresolvableLabel:
		return "unresolvable-label"
	case KindGraphInconsistency:
		return "graph-inconsistency"
	case KindEmitterFailure:
		return "emitter-failure"
	default:
		return "unknown"
	}
}

// Advisory is a non-fatal condition recorded during disassembly. For a
// truncation or an unknown opcode, the byte run at Offset was preserved as
// hex; for an unresolvable label, the command at Offset is kept and only
// its branch target is dropped.
type Advisory struct {
	Kind   Kind
	Offset int
	Detail string
}

func (a Advisory) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", a.Kind, a.Offset, a.Detail)
}

// Context accumulates advisories and distinguishes them from fatal errors.
// Disassembly only ever reports advisories; code generation raises fatal
// errors instead, via Fatalf. Flow analysis holds no Context.
type Context struct {
	module     string
	advisories []Advisory
}

// New returns a Context that tags its log output with module (e.g. "disasm").
func New(module string) *Context {
	return &Context{module: module}
}

// Advise records a non-fatal condition and logs it.
func (c *Context) Advise(kind Kind, offset int, detail string) {
	a := Advisory{Kind: kind, Offset: offset, Detail: detail}
	c.advisories = append(c.advisories, a)
	log.Warn(c.module, "advisory", "kind", kind, "offset", offset, "detail", detail)
}

// Advisories returns every advisory recorded so far, in report order.
func (c *Context) Advisories() []Advisory {
	return c.advisories
}

// Fatalf formats and logs a fatal error. The caller must still return it;
// Context does not itself abort execution.
func (c *Context) Fatalf(kind Kind, format string, args ...any) error {
	err := fmt.Errorf("%s: %s", kind, fmt.Sprintf(format, args...))
	log.Error(c.module, "fatal", "kind", kind, "error", err)
	return err
}
