// eval.go: the expression evaluator.
//
// One evaluator serves both evaluation modes. modeReal performs the reads
// and computations; modeAbstract walks the exact same control-flow shape
// but, at every point a real read would occur, registers a Dependency and
// substitutes an abstract placeholder. Keeping a single function
// parameterized by mode makes the required eval/dependencies behavioral
// identity structural instead of maintained by hand.
//
// Abstract mode differs from real mode in exactly these points:
//   - variable reads that fail resolve to a dummy instead of raising,
//   - member access registers through DependencyMember,
//   - indexing and iteration resolve through the real collection when one
//     is in hand, so member reads of its elements keep registering; a
//     collection the analysis cannot see is read wholesale,
//   - call arguments are read wholesale (DependencyThis) because the
//     analysis cannot know which members the callee will use,
//   - both branches of a conditional are walked,
//   - loop bodies are walked per element of a known collection, once
//     otherwise,
//   - operators register their operands and produce dummies; no conversion
//     or arithmetic happens, so no data-dependent failure can occur.

package script

import (
	"math"
	"strings"
)

// S is the parsed-script node: a compact S-expression whose first element
// is a string tag (see parser.go for the node inventory).
type S = []any

type evalMode int

const (
	modeReal evalMode = iota
	modeAbstract
)

func (ctx *Context) evalNode(n S, mode evalMode, deps *Dependencies) Value {
	if len(n) == 0 {
		return Nil
	}
	switch n[0].(string) {
	case "nil":
		return Nil
	case "bool":
		return BoolV(n[1].(bool))
	case "int":
		return IntV(n[1].(int64))
	case "double":
		return DoubleV(n[1].(float64))
	case "str":
		return StringV(n[1].(string))

	case "id":
		name := n[1].(string)
		v, ok := ctx.GetVariable(name)
		if !ok {
			if mode == modeAbstract {
				return Dummy
			}
			raise(ErrUndefined, "undefined variable '%s'", name)
		}
		return v

	case "block":
		result := Nil
		for i := 1; i < len(n); i++ {
			result = ctx.evalNode(n[i].(S), mode, deps)
		}
		return result

	case "assign":
		name := n[1].(S)[1].(string)
		v := ctx.evalNode(n[2].(S), mode, deps)
		ctx.SetVariable(name, v)
		return v

	case "array":
		elems := make([]Value, 0, len(n)-1)
		for i := 1; i < len(n); i++ {
			elems = append(elems, ctx.evalNode(n[i].(S), mode, deps))
		}
		return ListV(elems)

	case "map":
		m := NewMapValue()
		for i := 1; i < len(n); i++ {
			pair := n[i].(S)
			key := pair[1].(S)[1].(string)
			m.Set(key, ctx.evalNode(pair[2].(S), mode, deps))
		}
		return CollectionV(m)

	case "get":
		obj := ctx.evalNode(n[1].(S), mode, deps)
		name := n[2].(S)[1].(string)
		if mode == modeAbstract {
			return obj.DependencyMember(name, deps)
		}
		return obj.GetMember(name)

	case "idx":
		obj := ctx.evalNode(n[1].(S), mode, deps)
		idx := ctx.evalNode(n[2].(S), mode, deps)
		if mode == modeAbstract {
			if idx.Type == TypeString {
				return obj.DependencyMember(idx.Data.(string), deps)
			}
			if obj.Type == TypeCollection && idx.Type == TypeInt {
				// the analysis has the real collection and a known index, so
				// resolve through the real element and keep registering
				if item, err := obj.GetIndex(int(idx.Data.(int64))); err == nil {
					return abstractOf(item)
				}
				return Dummy
			}
			// index unknown during analysis: any element may be read
			obj.DependencyThis(deps)
			return Dummy
		}
		if idx.Type == TypeString {
			return obj.GetMember(idx.Data.(string))
		}
		i := mustInt(idx)
		item, err := obj.GetIndex(int(i))
		if err != nil {
			panic(toScriptError(err))
		}
		return item

	case "unop":
		op := n[1].(string)
		v := ctx.evalNode(n[2].(S), mode, deps)
		if mode == modeAbstract {
			return Dummy
		}
		return evalUnop(op, v)

	case "binop":
		op := n[1].(string)
		if mode == modeReal && (op == "and" || op == "or") {
			// short-circuit
			l := mustBool(ctx.evalNode(n[2].(S), modeReal, deps))
			if (op == "and" && !l) || (op == "or" && l) {
				return BoolV(l)
			}
			return BoolV(mustBool(ctx.evalNode(n[3].(S), modeReal, deps)))
		}
		l := ctx.evalNode(n[2].(S), mode, deps)
		r := ctx.evalNode(n[3].(S), mode, deps)
		if mode == modeAbstract {
			return Dummy
		}
		return evalBinop(op, l, r)

	case "if":
		cond := ctx.evalNode(n[1].(S), mode, deps)
		if mode == modeAbstract {
			// analysis covers both paths
			ctx.evalNode(n[2].(S), modeAbstract, deps)
			ctx.evalNode(n[3].(S), modeAbstract, deps)
			return Dummy
		}
		if mustBool(cond) {
			return ctx.evalNode(n[2].(S), modeReal, deps)
		}
		return ctx.evalNode(n[3].(S), modeReal, deps)

	case "fun":
		return FunctionV(&ScriptFunction{Body: n[1].(S)})

	case "call":
		return ctx.evalCall(n, mode, deps)

	case "closure":
		return ctx.evalClosureNode(n, mode, deps)

	case "foreach":
		return ctx.evalForEach(n, mode, deps)

	case "forrange":
		return ctx.evalForRange(n, mode, deps)

	default:
		raise(ErrInternal, "unknown script node '%v'", n[0])
		return Nil
	}
}

// evalCall evaluates the callee and arguments in the caller's scope, binds
// the arguments in a fresh scope, and invokes the function. Positional
// arguments map onto the callee's declared parameter names; script
// functions take named arguments only.
func (ctx *Context) evalCall(n S, mode evalMode, deps *Dependencies) Value {
	fn := ctx.evalNode(n[1].(S), mode, deps)
	if mode == modeReal && fn.Type == TypeError {
		panic(fn.Data.(*ScriptError))
	}

	names := make([]string, 0, len(n)-2)
	vals := make([]Value, 0, len(n)-2)
	positional := 0
	var params []string
	if fn.Type == TypeFunction {
		params = fn.Data.(Callable).ParamNames()
	}
	for i := 2; i < len(n); i++ {
		arg := n[i].(S)
		name := arg[1].(string)
		if name == "" {
			if positional < len(params) {
				name = params[positional]
				positional++
			} else if mode == modeReal && fn.Type == TypeFunction {
				raise(ErrArgument, "too many positional arguments for %s", describeCallee(fn))
			}
			// non-functions ignore their arguments (they act as constant
			// functions), and the abstract pass tolerates unresolved callees
		}
		names = append(names, name)
		vals = append(vals, ctx.evalNode(arg[2].(S), mode, deps))
	}

	if mode == modeAbstract {
		// arguments are read wholesale: the analysis cannot know which
		// members the callee will use
		for _, v := range vals {
			v.DependencyThis(deps)
		}
	}

	return ctx.inScope(func() Value {
		for i, name := range names {
			if name == "" {
				continue
			}
			ctx.SetVariable(name, vals[i])
		}
		if mode == modeAbstract {
			return fn.DependenciesOf(ctx, deps)
		}
		return fn.Eval(ctx, false)
	})
}

// evalClosureNode builds a closure value: the callee with the given
// arguments bound as defaults. Bound expressions stay unevaluated until the
// closure is called, except for constants folded at construction.
func (ctx *Context) evalClosureNode(n S, mode evalMode, deps *Dependencies) Value {
	fn := ctx.evalNode(n[1].(S), mode, deps)
	if mode == modeReal && fn.Type == TypeError {
		panic(fn.Data.(*ScriptError))
	}
	bindings := make([]ClosureBinding, 0, len(n)-2)
	for i := 2; i < len(n); i++ {
		arg := n[i].(S)
		name := arg[1].(string)
		if name == "" {
			raise(ErrArgument, "closure arguments must be named")
		}
		bindings = append(bindings, ClosureBinding{Name: name, Expr: arg[2].(S)})
	}
	return NewClosure(fn, bindings)
}

func (ctx *Context) evalForEach(n S, mode evalMode, deps *Dependencies) Value {
	varName := n[1].(S)[1].(string)
	keyName := n[2].(S)[1].(string)
	coll := ctx.evalNode(n[3].(S), mode, deps)
	body := n[4].(S)

	if mode == modeAbstract {
		walk := func(item, key Value) {
			ctx.inScope(func() Value {
				ctx.SetVariable(varName, abstractOf(item))
				if keyName != "" {
					ctx.SetVariable(keyName, abstractOf(key))
				}
				return ctx.evalNode(body, modeAbstract, deps)
			})
		}
		if coll.Type == TypeCollection {
			// the analysis has the real collection: bind the loop variable
			// to each real element so member reads in the body register
			// against the element's owner
			it := coll.Data.(CollectionLike).MakeIterator()
			walked := false
			for {
				var key Value
				item, ok := it.Next(&key, nil)
				if !ok {
					break
				}
				walked = true
				walk(item, key)
			}
			if !walked {
				walk(Dummy, Dummy)
			}
			return Dummy
		}
		coll.DependencyThis(deps)
		walk(Dummy, Dummy)
		return Dummy
	}

	it := coll.MakeIterator()
	if it.Type == TypeError {
		panic(it.Data.(*ScriptError))
	}
	var out []Value
	for {
		var key Value
		item, ok := it.Next(&key, nil)
		if !ok {
			break
		}
		out = append(out, ctx.inScope(func() Value {
			ctx.SetVariable(varName, item)
			if keyName != "" {
				ctx.SetVariable(keyName, key)
			}
			return ctx.evalNode(body, modeReal, deps)
		}))
	}
	return ListV(out)
}

func (ctx *Context) evalForRange(n S, mode evalMode, deps *Dependencies) Value {
	varName := n[1].(S)[1].(string)
	from := ctx.evalNode(n[2].(S), mode, deps)
	to := ctx.evalNode(n[3].(S), mode, deps)
	body := n[4].(S)

	if mode == modeAbstract {
		ctx.inScope(func() Value {
			ctx.SetVariable(varName, Dummy)
			return ctx.evalNode(body, modeAbstract, deps)
		})
		return Dummy
	}

	lo, hi := mustInt(from), mustInt(to)
	var out []Value
	for i := lo; i <= hi; i++ {
		i := i
		out = append(out, ctx.inScope(func() Value {
			ctx.SetVariable(varName, IntV(i))
			return ctx.evalNode(body, modeReal, deps)
		}))
	}
	return ListV(out)
}

// ---- operator semantics (real mode only) ----

func evalUnop(op string, v Value) Value {
	switch op {
	case "-":
		switch v.Type {
		case TypeInt:
			return IntV(-v.Data.(int64))
		case TypeDouble:
			return DoubleV(-v.Data.(float64))
		case TypeError:
			panic(v.Data.(*ScriptError))
		}
		raise(ErrType, "can't negate %s", v.TypeName())
	case "not":
		return BoolV(!mustBool(v))
	}
	raise(ErrInternal, "unknown unary operator '%s'", op)
	return Nil
}

func evalBinop(op string, l, r Value) Value {
	switch op {
	case "+":
		return evalPlus(l, r)
	case "-", "*", "/", "mod":
		return evalArith(op, l, r)
	case "==":
		return BoolV(Equal(l, r))
	case "!=":
		return BoolV(!Equal(l, r))
	case "<", "<=", ">", ">=":
		return evalCompare(op, l, r)
	case "xor":
		return BoolV(mustBool(l) != mustBool(r))
	case "and", "or":
		// non-short-circuit fallback (operands already evaluated)
		a, b := mustBool(l), mustBool(r)
		if op == "and" {
			return BoolV(a && b)
		}
		return BoolV(a || b)
	}
	raise(ErrInternal, "unknown operator '%s'", op)
	return Nil
}

// evalPlus: numeric addition, string concatenation when either side is a
// string, list concatenation, map union (right side wins on key clashes).
func evalPlus(l, r Value) Value {
	if l.Type == TypeString || r.Type == TypeString {
		ls, err := l.ToString()
		if err != nil {
			panic(toScriptError(err))
		}
		rs, err := r.ToString()
		if err != nil {
			panic(toScriptError(err))
		}
		return StringV(ls + rs)
	}
	if l.Type == TypeInt && r.Type == TypeInt {
		return IntV(l.Data.(int64) + r.Data.(int64))
	}
	if isNumeric(l) && isNumeric(r) {
		return DoubleV(mustDouble(l) + mustDouble(r))
	}
	if l.Type == TypeCollection && r.Type == TypeCollection {
		if ll, ok := l.Data.(*ListValue); ok {
			if rl, ok := r.Data.(*ListValue); ok {
				elems := make([]Value, 0, len(ll.Elems)+len(rl.Elems))
				elems = append(elems, ll.Elems...)
				elems = append(elems, rl.Elems...)
				return ListV(elems)
			}
		}
		if lm, ok := l.Data.(*MapValue); ok {
			if rm, ok := r.Data.(*MapValue); ok {
				out := NewMapValue()
				for _, k := range lm.keys {
					out.Set(k, lm.entries[k])
				}
				for _, k := range rm.keys {
					out.Set(k, rm.entries[k])
				}
				return CollectionV(out)
			}
		}
	}
	if l.Type == TypeError {
		panic(l.Data.(*ScriptError))
	}
	if r.Type == TypeError {
		panic(r.Data.(*ScriptError))
	}
	raise(ErrType, "can't add %s and %s", l.TypeName(), r.TypeName())
	return Nil
}

func evalArith(op string, l, r Value) Value {
	if l.Type == TypeInt && r.Type == TypeInt && op != "/" {
		a, b := l.Data.(int64), r.Data.(int64)
		switch op {
		case "-":
			return IntV(a - b)
		case "*":
			return IntV(a * b)
		case "mod":
			if b == 0 {
				raise(ErrType, "modulo by zero")
			}
			return IntV(a % b)
		}
	}
	a, b := mustDouble(l), mustDouble(r)
	switch op {
	case "-":
		return DoubleV(a - b)
	case "*":
		return DoubleV(a * b)
	case "/":
		if b == 0 {
			raise(ErrType, "division by zero")
		}
		return DoubleV(a / b)
	case "mod":
		if b == 0 {
			raise(ErrType, "modulo by zero")
		}
		return DoubleV(math.Mod(a, b))
	}
	raise(ErrInternal, "unknown operator '%s'", op)
	return Nil
}

func evalCompare(op string, l, r Value) Value {
	var cmp int
	if isNumeric(l) && isNumeric(r) {
		a, b := mustDouble(l), mustDouble(r)
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	} else if l.Type == TypeString && r.Type == TypeString {
		cmp = strings.Compare(l.Data.(string), r.Data.(string))
	} else if l.Type == TypeDateTime && r.Type == TypeDateTime {
		a, _ := l.ToDateTime()
		b, _ := r.ToDateTime()
		switch {
		case a.Before(b):
			cmp = -1
		case a.After(b):
			cmp = 1
		}
	} else {
		if l.Type == TypeError {
			panic(l.Data.(*ScriptError))
		}
		if r.Type == TypeError {
			panic(r.Data.(*ScriptError))
		}
		raise(ErrType, "can't order %s and %s", l.TypeName(), r.TypeName())
	}
	switch op {
	case "<":
		return BoolV(cmp < 0)
	case "<=":
		return BoolV(cmp <= 0)
	case ">":
		return BoolV(cmp > 0)
	default:
		return BoolV(cmp >= 0)
	}
}

// ---- conversion helpers with panic discipline ----

func mustInt(v Value) int64 {
	n, err := v.ToInt()
	if err != nil {
		panic(toScriptError(err))
	}
	return n
}

func mustDouble(v Value) float64 {
	f, err := v.ToDouble()
	if err != nil {
		panic(toScriptError(err))
	}
	return f
}

func mustBool(v Value) bool {
	b, err := v.ToBool()
	if err != nil {
		panic(toScriptError(err))
	}
	return b
}

func mustString(v Value) string {
	s, err := v.ToString()
	if err != nil {
		panic(toScriptError(err))
	}
	return s
}

func toScriptError(err error) *ScriptError {
	if se, ok := err.(*ScriptError); ok {
		return se
	}
	return &ScriptError{Kind: ErrInternal, Msg: err.Error()}
}

func describeCallee(fn Value) string {
	if fn.Type == TypeFunction {
		if b, ok := fn.Data.(*Builtin); ok {
			return "'" + b.Name + "'"
		}
		return "function"
	}
	return fn.TypeName()
}
