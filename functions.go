// functions.go: the builtin function library.
//
// Builtins read their arguments from the call scope by parameter name, the
// same way script functions do, and raise *ScriptError panics on bad input.
// InitScriptFunctions installs the library into a context's global scope.

package script

import (
	"image/color"
	"regexp"
	"sort"
	"strings"
	"time"
)

// InitScriptFunctions installs the builtin library into ctx.
func InitScriptFunctions(ctx *Context) {
	for _, b := range builtinLibrary {
		b := b
		ctx.SetVariable(b.Name, FunctionV(b))
	}
}

func arg(ctx *Context, name string) Value {
	v, ok := ctx.GetVariable(name)
	if !ok {
		raise(ErrArgument, "missing argument '%s'", name)
	}
	return v
}

func optArg(ctx *Context, name string) (Value, bool) {
	return ctx.GetVariable(name)
}

var builtinLibrary = []*Builtin{
	// conversions
	{Name: "to_string", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		return StringV(mustString(arg(ctx, "input")))
	}},
	{Name: "to_int", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		return IntV(mustInt(arg(ctx, "input")))
	}},
	{Name: "to_number", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		v := arg(ctx, "input")
		if v.Type == TypeInt {
			return v
		}
		return DoubleV(mustDouble(v))
	}},
	{Name: "to_boolean", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		return BoolV(mustBool(arg(ctx, "input")))
	}},
	{Name: "to_date", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		t, err := arg(ctx, "input").ToDateTime()
		if err != nil {
			panic(toScriptError(err))
		}
		return DateTimeV(t)
	}},
	{Name: "to_color", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		c, err := arg(ctx, "input").ToColor()
		if err != nil {
			panic(toScriptError(err))
		}
		return ColorV(c)
	}},
	{Name: "type_name", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		return StringV(arg(ctx, "input").TypeName())
	}},

	// colors
	{Name: "rgb", Params: []string{"r", "g", "b"}, Fn: func(ctx *Context) Value {
		return ColorV(color.NRGBA{
			R: colorChannel(ctx, "r"),
			G: colorChannel(ctx, "g"),
			B: colorChannel(ctx, "b"),
			A: 255,
		})
	}},
	{Name: "rgba", Params: []string{"r", "g", "b", "a"}, Fn: func(ctx *Context) Value {
		return ColorV(color.NRGBA{
			R: colorChannel(ctx, "r"),
			G: colorChannel(ctx, "g"),
			B: colorChannel(ctx, "b"),
			A: colorChannel(ctx, "a"),
		})
	}},

	// regular expressions
	{Name: "regex", Params: []string{"match"}, Fn: func(ctx *Context) Value {
		pat := mustString(arg(ctx, "match"))
		re, err := regexp.Compile(pat)
		if err != nil {
			raise(ErrArgument, "invalid regular expression %q: %v", pat, err)
		}
		return RegexV(re)
	}},
	{Name: "match", Params: []string{"input", "match"}, Fn: func(ctx *Context) Value {
		re := regexArg(ctx, "match")
		return BoolV(re.MatchString(mustString(arg(ctx, "input"))))
	}},
	{Name: "replace", Params: []string{"input", "match", "replace"}, Fn: func(ctx *Context) Value {
		re := regexArg(ctx, "match")
		in := mustString(arg(ctx, "input"))
		repl := mustString(arg(ctx, "replace"))
		return StringV(re.ReplaceAllString(in, repl))
	}},
	{Name: "filter_text", Params: []string{"input", "match"}, Fn: func(ctx *Context) Value {
		re := regexArg(ctx, "match")
		in := mustString(arg(ctx, "input"))
		return StringV(strings.Join(re.FindAllString(in, -1), ""))
	}},

	// strings
	{Name: "trim", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		return StringV(strings.TrimSpace(mustString(arg(ctx, "input"))))
	}},
	{Name: "to_upper", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		return StringV(strings.ToUpper(mustString(arg(ctx, "input"))))
	}},
	{Name: "to_lower", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		return StringV(strings.ToLower(mustString(arg(ctx, "input"))))
	}},
	{Name: "to_title", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		s := mustString(arg(ctx, "input"))
		if s == "" {
			return StringV(s)
		}
		r := []rune(s)
		return StringV(strings.ToUpper(string(r[0])) + string(r[1:]))
	}},
	{Name: "contains", Params: []string{"input", "match"}, Fn: func(ctx *Context) Value {
		return BoolV(strings.Contains(mustString(arg(ctx, "input")), mustString(arg(ctx, "match"))))
	}},
	{Name: "substring", Params: []string{"input", "begin", "end"}, Fn: func(ctx *Context) Value {
		r := []rune(mustString(arg(ctx, "input")))
		begin, end := 0, len(r)
		if v, ok := optArg(ctx, "begin"); ok {
			begin = int(mustInt(v))
		}
		if v, ok := optArg(ctx, "end"); ok {
			end = int(mustInt(v))
		}
		begin = clamp(begin, 0, len(r))
		end = clamp(end, begin, len(r))
		return StringV(string(r[begin:end]))
	}},
	{Name: "split_text", Params: []string{"input", "match"}, Fn: func(ctx *Context) Value {
		re := regexArg(ctx, "match")
		parts := re.Split(mustString(arg(ctx, "input")), -1)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = StringV(p)
		}
		return ListV(out)
	}},

	// collections and strings
	{Name: "length", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		v := arg(ctx, "input")
		if v.Type == TypeString {
			return IntV(int64(len([]rune(v.Data.(string)))))
		}
		n, err := v.ItemCount()
		if err != nil {
			panic(toScriptError(err))
		}
		return IntV(int64(n))
	}},
	{Name: "reverse", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		v := arg(ctx, "input")
		if v.Type == TypeString {
			r := []rune(v.Data.(string))
			for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
				r[i], r[j] = r[j], r[i]
			}
			return StringV(string(r))
		}
		items := collectItems(v)
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return ListV(items)
	}},
	{Name: "sort", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		v := arg(ctx, "input")
		if v.Type == TypeString {
			r := []rune(v.Data.(string))
			sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })
			return StringV(string(r))
		}
		items := collectItems(v)
		sort.SliceStable(items, func(i, j int) bool {
			return mustBool(evalCompare("<", items[i], items[j]))
		})
		return ListV(items)
	}},
	{Name: "position", Params: []string{"of", "in"}, Fn: func(ctx *Context) Value {
		needle := arg(ctx, "of")
		items := collectItems(arg(ctx, "in"))
		for i, it := range items {
			if Equal(it, needle) {
				return IntV(int64(i))
			}
		}
		return IntV(-1)
	}},
	{Name: "number_of_items", Params: []string{"in"}, Fn: func(ctx *Context) Value {
		n, err := arg(ctx, "in").ItemCount()
		if err != nil {
			panic(toScriptError(err))
		}
		return IntV(int64(n))
	}},

	// numbers
	{Name: "min", Params: []string{"a", "b"}, Fn: func(ctx *Context) Value {
		return extremum(ctx, "<")
	}},
	{Name: "max", Params: []string{"a", "b"}, Fn: func(ctx *Context) Value {
		return extremum(ctx, ">")
	}},
	{Name: "abs", Params: []string{"input"}, Fn: func(ctx *Context) Value {
		v := arg(ctx, "input")
		if v.Type == TypeInt {
			n := v.Data.(int64)
			if n < 0 {
				n = -n
			}
			return IntV(n)
		}
		f := mustDouble(v)
		if f < 0 {
			f = -f
		}
		return DoubleV(f)
	}},

	// dates
	{Name: "format_date", Params: []string{"input", "format"}, Fn: func(ctx *Context) Value {
		t, err := arg(ctx, "input").ToDateTime()
		if err != nil {
			panic(toScriptError(err))
		}
		format := "%Y-%m-%d %H:%M:%S"
		if v, ok := optArg(ctx, "format"); ok {
			format = mustString(v)
		}
		return StringV(formatDate(t, format))
	}},
}

func colorChannel(ctx *Context, name string) uint8 {
	n := mustInt(arg(ctx, name))
	if n < 0 || n > 255 {
		raise(ErrArgument, "color channel '%s' out of range: %d", name, n)
	}
	return uint8(n)
}

// regexArg accepts either a regex value or a pattern string.
func regexArg(ctx *Context, name string) *regexp.Regexp {
	v := arg(ctx, name)
	if v.Type == TypeRegex {
		return v.Data.(*regexp.Regexp)
	}
	pat := mustString(v)
	re, err := regexp.Compile(pat)
	if err != nil {
		raise(ErrArgument, "invalid regular expression %q: %v", pat, err)
	}
	return re
}

// collectItems drains a collection (or iterator) into a fresh slice.
func collectItems(v Value) []Value {
	it := v.MakeIterator()
	if it.Type == TypeError {
		panic(it.Data.(*ScriptError))
	}
	var out []Value
	for {
		item, ok := it.Next(nil, nil)
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

// extremum compares either the two scalar arguments or, when 'a' is a
// collection, all of its items.
func extremum(ctx *Context, op string) Value {
	a := arg(ctx, "a")
	if a.Type == TypeCollection {
		items := collectItems(a)
		if len(items) == 0 {
			raise(ErrArgument, "empty collection")
		}
		best := items[0]
		for _, it := range items[1:] {
			if mustBool(evalCompare(op, it, best)) {
				best = it
			}
		}
		return best
	}
	b := arg(ctx, "b")
	if mustBool(evalCompare(op, b, a)) {
		return b
	}
	return a
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// formatDate renders t using strftime-style placeholders.
func formatDate(t time.Time, format string) string {
	var out strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			out.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			out.WriteString(t.Format("2006"))
		case 'y':
			out.WriteString(t.Format("06"))
		case 'm':
			out.WriteString(t.Format("01"))
		case 'd':
			out.WriteString(t.Format("02"))
		case 'H':
			out.WriteString(t.Format("15"))
		case 'M':
			out.WriteString(t.Format("04"))
		case 'S':
			out.WriteString(t.Format("05"))
		case '%':
			out.WriteByte('%')
		default:
			out.WriteByte('%')
			out.WriteByte(format[i])
		}
	}
	return out.String()
}
