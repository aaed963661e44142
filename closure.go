// closure.go: function payloads: script functions, builtins, closures.
//
// A script function is an unevaluated body; its parameters are whatever the
// call site binds by name. A closure packages a function with bound
// default-argument expressions ("f@(b: x + 1)"): calling it binds defaults
// for every parameter the caller did not supply, evaluated in the call
// scope. Builtins are host functions with declared parameter names, which
// also gives positional calls something to map onto.

package script

// ScriptFunction is the body of a "{ expr }" literal.
type ScriptFunction struct {
	Body S
}

func (f *ScriptFunction) Eval(ctx *Context, openScope bool) Value {
	if openScope {
		return ctx.inScope(func() Value {
			return ctx.evalNode(f.Body, modeReal, nil)
		})
	}
	return ctx.evalNode(f.Body, modeReal, nil)
}

func (f *ScriptFunction) DependenciesOf(ctx *Context, deps *Dependencies) Value {
	return ctx.evalNode(f.Body, modeAbstract, deps)
}

// Script functions bind by name only.
func (f *ScriptFunction) ParamNames() []string { return nil }

// Builtin is a host-implemented function value. Fn reads its arguments from
// the context by parameter name and raises *ScriptError panics on failure.
// DepFn, when set, customizes the abstract pass; the default reports no
// reads beyond the wholesale argument reads the call site registers.
type Builtin struct {
	Name   string
	Params []string
	Fn     func(ctx *Context) Value
	DepFn  func(ctx *Context, deps *Dependencies) Value
}

func (b *Builtin) Eval(ctx *Context, openScope bool) Value {
	if openScope {
		return ctx.inScope(func() Value { return b.Fn(ctx) })
	}
	return b.Fn(ctx)
}

func (b *Builtin) DependenciesOf(ctx *Context, deps *Dependencies) Value {
	if b.DepFn != nil {
		return b.DepFn(ctx, deps)
	}
	return Dummy
}

func (b *Builtin) ParamNames() []string { return b.Params }

// ClosureBinding is one bound default argument. Expr is the unevaluated
// default; when the specializer folds a constant, Val caches the result and
// folded is set (an in-place mutation that is never observable).
type ClosureBinding struct {
	Name   string
	Expr   S
	Val    Value
	folded bool
}

// Closure is a function with bound default arguments.
type Closure struct {
	target   Value
	bindings []ClosureBinding
}

// NewClosure builds a closure over target. Constant default expressions are
// folded once here, and the target's own SimplifyClosure hook may replace
// the closure outright. Both are pure optimizations: evaluating the closure
// behaves identically with or without them.
func NewClosure(target Value, bindings []ClosureBinding) Value {
	c := &Closure{target: target, bindings: bindings}
	c.foldConstants()
	if simplified, ok := target.SimplifyClosure(c); ok {
		return simplified
	}
	return FunctionV(c)
}

// Target is the wrapped function value.
func (c *Closure) Target() Value { return c.target }

// Bindings exposes the bound argument names (for introspection).
func (c *Closure) Bindings() []string {
	names := make([]string, len(c.bindings))
	for i, b := range c.bindings {
		names[i] = b.Name
	}
	return names
}

// SimplifyClosure flattens a closure built over this closure into a single
// level: the outer bindings win, and this closure's bindings remain as
// fallbacks for the parameters the outer level leaves unbound. Binding a
// parameter skips it when it is already bound, so evaluation order and
// results are identical to the nested form.
func (c *Closure) SimplifyClosure(outer *Closure) (Value, bool) {
	merged := make([]ClosureBinding, 0, len(outer.bindings)+len(c.bindings))
	merged = append(merged, outer.bindings...)
	for _, b := range c.bindings {
		shadowed := false
		for _, o := range outer.bindings {
			if o.Name == b.Name {
				shadowed = true
				break
			}
		}
		if !shadowed {
			merged = append(merged, b)
		}
	}
	return FunctionV(&Closure{target: c.target, bindings: merged}), true
}

func (c *Closure) foldConstants() {
	for i := range c.bindings {
		if v, ok := constValue(c.bindings[i].Expr); ok {
			c.bindings[i].Val = v
			c.bindings[i].folded = true
		}
	}
}

func (c *Closure) Eval(ctx *Context, openScope bool) Value {
	run := func() Value {
		c.bindDefaults(ctx, modeReal, nil)
		return c.target.Eval(ctx, false)
	}
	if openScope {
		return ctx.inScope(run)
	}
	return run()
}

func (c *Closure) DependenciesOf(ctx *Context, deps *Dependencies) Value {
	c.bindDefaults(ctx, modeAbstract, deps)
	return c.target.DependenciesOf(ctx, deps)
}

// bindDefaults binds every default whose parameter the caller did not
// supply in the current call scope. Defaults evaluate in the call scope, so
// they may reference other parameters ("f@(b: a)").
func (c *Closure) bindDefaults(ctx *Context, mode evalMode, deps *Dependencies) {
	for i := range c.bindings {
		b := &c.bindings[i]
		if ctx.boundInCurrentScope(b.Name) {
			continue
		}
		var v Value
		if b.folded {
			v = b.Val
		} else {
			v = ctx.evalNode(b.Expr, mode, deps)
		}
		ctx.SetVariable(b.Name, v)
	}
}

func (c *Closure) ParamNames() []string {
	if c.target.Type == TypeFunction {
		return c.target.Data.(Callable).ParamNames()
	}
	return nil
}

// constValue evaluates literal expressions without a context; used to fold
// constant closure defaults at construction time.
func constValue(n S) (Value, bool) {
	if len(n) == 0 {
		return Nil, false
	}
	switch n[0].(string) {
	case "nil":
		return Nil, true
	case "bool":
		return BoolV(n[1].(bool)), true
	case "int":
		return IntV(n[1].(int64)), true
	case "double":
		return DoubleV(n[1].(float64)), true
	case "str":
		return StringV(n[1].(string)), true
	case "unop":
		if n[1].(string) == "-" {
			if v, ok := constValue(n[2].(S)); ok {
				switch v.Type {
				case TypeInt:
					return IntV(-v.Data.(int64)), true
				case TypeDouble:
					return DoubleV(-v.Data.(float64)), true
				}
			}
		}
	}
	return Nil, false
}
