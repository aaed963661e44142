// context.go: the evaluation context: variable scopes and entry points.
//
// A Context owns a single growable stack of variable bindings. Lookup is
// O(1): variables live in a map, and every SetVariable pushes a shadow
// record so CloseScope can restore what a scope overwrote. A scope is the
// region of the shadow stack above its OpenScope marker.
//
// Scopes nest in strict LIFO order. Closing any scope other than the most
// recently opened one still open is a programming error in the host, not a
// recoverable runtime condition: CloseScope panics with a plain panic that
// Eval deliberately does not recover.
//
// Evaluation errors, by contrast, propagate internally as *ScriptError
// panics and are recovered exactly once here, at the public Eval /
// Dependencies boundary. Scopes opened during a failing call are closed by
// the evaluator's own defers while the panic unwinds, so scope discipline
// survives any failing script.
//
// A Context must be confined to one goroutine; use one Context per
// goroutine or serialize access externally.

package script

import "fmt"

// ScopeHandle identifies one open scope.
type ScopeHandle struct {
	level int // shadow-stack position at open
	seq   int // distinguishes reopened scopes at the same level
}

type shadowEntry struct {
	name string
	old  Value
	had  bool
}

type ambientEntry struct {
	key string
	val any
}

// Context drives evaluation of parsed scripts against a scope stack.
type Context struct {
	variables map[string]Value
	shadowed  []shadowEntry
	open      []ScopeHandle
	seq       int
	ambient   []ambientEntry
}

func NewContext() *Context {
	return &Context{variables: map[string]Value{}}
}

// OpenScope pushes a scope marker and returns its handle.
func (ctx *Context) OpenScope() ScopeHandle {
	ctx.seq++
	h := ScopeHandle{level: len(ctx.shadowed), seq: ctx.seq}
	ctx.open = append(ctx.open, h)
	return h
}

// CloseScope truncates the binding stack back to h, restoring every
// variable the scope shadowed. h must be the most recently opened scope
// still open.
func (ctx *Context) CloseScope(h ScopeHandle) {
	if len(ctx.open) == 0 || ctx.open[len(ctx.open)-1] != h {
		panic(fmt.Sprintf("script: CloseScope out of LIFO order (handle level %d)", h.level))
	}
	ctx.open = ctx.open[:len(ctx.open)-1]
	for len(ctx.shadowed) > h.level {
		e := ctx.shadowed[len(ctx.shadowed)-1]
		ctx.shadowed = ctx.shadowed[:len(ctx.shadowed)-1]
		if e.had {
			ctx.variables[e.name] = e.old
		} else {
			delete(ctx.variables, e.name)
		}
	}
}

// SetVariable binds name in the innermost open scope.
func (ctx *Context) SetVariable(name string, v Value) {
	old, had := ctx.variables[name]
	ctx.shadowed = append(ctx.shadowed, shadowEntry{name: name, old: old, had: had})
	ctx.variables[name] = v
}

// GetVariable resolves name against the active scopes, innermost first.
func (ctx *Context) GetVariable(name string) (Value, bool) {
	v, ok := ctx.variables[name]
	return v, ok
}

// boundInCurrentScope reports whether name was bound since the innermost
// scope opened; closures use it to tell supplied arguments from defaults.
func (ctx *Context) boundInCurrentScope(name string) bool {
	level := 0
	if len(ctx.open) > 0 {
		level = ctx.open[len(ctx.open)-1].level
	}
	for i := len(ctx.shadowed) - 1; i >= level; i-- {
		if ctx.shadowed[i].name == name {
			return true
		}
	}
	return false
}

// inScope runs f inside a fresh scope, closing it on every exit path.
func (ctx *Context) inScope(f func() Value) Value {
	h := ctx.OpenScope()
	defer ctx.CloseScope(h)
	return f()
}

// PushAmbient pushes a dynamic-extent value visible to builtins through
// Ambient without being an explicit parameter (for example the export
// context during rendering). The returned restore function pops it; callers
// defer it so the pop runs on every exit path including failure.
func (ctx *Context) PushAmbient(key string, v any) (restore func()) {
	ctx.ambient = append(ctx.ambient, ambientEntry{key: key, val: v})
	n := len(ctx.ambient)
	return func() {
		if len(ctx.ambient) != n {
			panic("script: ambient stack popped out of order")
		}
		ctx.ambient = ctx.ambient[:n-1]
	}
}

// Ambient returns the innermost ambient value pushed under key.
func (ctx *Context) Ambient(key string) (any, bool) {
	for i := len(ctx.ambient) - 1; i >= 0; i-- {
		if ctx.ambient[i].key == key {
			return ctx.ambient[i].val, true
		}
	}
	return nil, false
}

// Eval interprets a parsed script against the current top scope and returns
// the resulting value. With openScope, evaluation runs in a fresh scope that
// is closed before returning. Evaluation failures come back as *ScriptError.
func (ctx *Context) Eval(s *Script, openScope bool) (result Value, err error) {
	defer recoverScriptError(&result, &err)
	if openScope {
		h := ctx.OpenScope()
		defer ctx.CloseScope(h)
	}
	return ctx.evalNode(s.Body, modeReal, nil), nil
}

// Dependencies is the abstract mirror of Eval: it walks the same control
// structure, registers every data read into deps instead of performing it,
// and returns a placeholder of the same shape as Eval's result.
func (ctx *Context) Dependencies(s *Script, deps *Dependencies) (result Value, err error) {
	defer recoverScriptError(&result, &err)
	h := ctx.OpenScope()
	defer ctx.CloseScope(h)
	return ctx.evalNode(s.Body, modeAbstract, deps), nil
}

// recoverScriptError converts a *ScriptError panic into an error return.
// Anything else (LIFO violations, engine bugs) keeps propagating.
func recoverScriptError(result *Value, err *error) {
	if r := recover(); r != nil {
		se, ok := r.(*ScriptError)
		if !ok {
			panic(r)
		}
		*result = Nil
		*err = se
	}
}
