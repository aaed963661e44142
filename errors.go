// errors.go: error taxonomy and caret-snippet rendering.
//
// Two families of failure exist:
//
//   - ScriptParseError: produced by the lexer/parser, one per malformed
//     construct, all collected rather than stopping at the first. They carry
//     1-based line and column so the CLI can render caret snippets.
//   - ScriptError: evaluation errors (undefined variable, conversion
//     failure, bad argument, out-of-range index). Inside the evaluator these
//     propagate as panics and are recovered exactly once at the public
//     Context.Eval / Context.Dependencies boundary, after scope unwinding.
//
// PrettyParseError renders a Python-style snippet with a caret under the
// offending column, with one line of context before and after.

package script

import (
	"fmt"
	"strings"
)

// ErrorKind classifies evaluation errors.
type ErrorKind int

const (
	ErrUndefined  ErrorKind = iota // undefined variable or member
	ErrConversion                  // cannot convert between value types
	ErrArgument                    // wrong argument name/count/type
	ErrIndex                       // collection index out of range
	ErrType                        // operation not applicable to this type
	ErrInternal                    // host misuse / engine invariant broken
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUndefined:
		return "undefined"
	case ErrConversion:
		return "conversion"
	case ErrArgument:
		return "argument"
	case ErrIndex:
		return "index"
	case ErrType:
		return "type"
	default:
		return "internal"
	}
}

// ScriptError is an evaluation-time failure.
type ScriptError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ScriptError) Error() string { return e.Msg }

// ScriptParseError is a single malformed construct found while parsing.
// Line and Col are 1-based.
type ScriptParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ScriptParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// ---- raising helpers (panic discipline, recovered in context.go) ----

func raise(kind ErrorKind, format string, args ...any) {
	panic(&ScriptError{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func errConversion(from, to string) *ScriptError {
	return &ScriptError{Kind: ErrConversion, Msg: fmt.Sprintf("can't convert %s to %s", from, to)}
}

func errUndefinedMember(owner, name string) *ScriptError {
	return &ScriptError{Kind: ErrUndefined, Msg: fmt.Sprintf("%s has no member '%s'", owner, name)}
}

func errNotCollection(typeName string) *ScriptError {
	return &ScriptError{Kind: ErrType, Msg: fmt.Sprintf("%s is not a collection", typeName)}
}

// ---- snippet rendering ----

// PrettyParseError renders a caret-annotated snippet for a parse error
// against its source. Coordinates are clamped so short or empty sources
// never break rendering.
func PrettyParseError(e *ScriptParseError, src string) string {
	lines := strings.Split(src, "\n")
	line, col := e.Line, e.Col
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]
	if col > len(lineTxt)+1 {
		col = len(lineTxt) + 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "parse error at %d:%d: %s\n\n", line, col, e.Msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
