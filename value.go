// value.go: the runtime value model.
//
// Every result of script evaluation is a Value: a small tagged struct whose
// Type selects the payload stored in Data. The set of types is closed; code
// that needs per-variant behavior switches on the tag. Payloads that require
// polymorphism (functions, collections, iterators, host objects) are small
// interfaces implemented by the concrete payload types.
//
// Values behave as immutable: operations return new values. The one
// sanctioned exception is the iterator cursor, which is intrinsic mutable
// state of that particular iterator value.

package script

import (
	"fmt"
	"image"
	"image/color"
	"regexp"
	"time"
)

// ScriptType enumerates the runtime value variants.
type ScriptType int

const (
	TypeNil ScriptType = iota
	TypeInt
	TypeBool
	TypeDouble
	TypeString
	TypeColor
	TypeImage
	TypeFunction
	TypeObject
	TypeCollection
	TypeRegex
	TypeDateTime
	TypeIterator
	TypeDummy
	TypeError
)

func (t ScriptType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeInt:
		return "integer"
	case TypeBool:
		return "boolean"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeColor:
		return "color"
	case TypeImage:
		return "image"
	case TypeFunction:
		return "function"
	case TypeObject:
		return "object"
	case TypeCollection:
		return "collection"
	case TypeRegex:
		return "regular expression"
	case TypeDateTime:
		return "date time"
	case TypeIterator:
		return "iterator"
	case TypeDummy:
		return "dummy"
	case TypeError:
		return "error"
	default:
		return fmt.Sprintf("unknown type %d", int(t))
	}
}

// CompareWhat selects how Equal decides equality for a value.
type CompareWhat int

const (
	CompareNone CompareWhat = iota
	CompareAsString
	CompareAsPointer
)

// Value is the universal runtime carrier.
//
// The payload in Data depends on Type:
//
//	TypeNil, TypeDummy  nil
//	TypeInt             int64
//	TypeBool            bool
//	TypeDouble          float64
//	TypeString          string
//	TypeColor           color.NRGBA
//	TypeImage           *GeneratedImage
//	TypeFunction        Callable
//	TypeObject          ObjectLike
//	TypeCollection      CollectionLike
//	TypeRegex           *regexp.Regexp
//	TypeDateTime        time.Time
//	TypeIterator        Iterator
//	TypeError           *ScriptError (a delayed error, see GetMember)
type Value struct {
	Type ScriptType
	Data any
}

// TypeName is the user-facing name of the value's type.
func (v Value) TypeName() string { return v.Type.String() }

// Nil is the nil value.
var Nil = Value{Type: TypeNil}

// Dummy is the abstract placeholder produced by dependency analysis.
var Dummy = Value{Type: TypeDummy}

func IntV(n int64) Value          { return Value{Type: TypeInt, Data: n} }
func BoolV(b bool) Value          { return Value{Type: TypeBool, Data: b} }
func DoubleV(f float64) Value     { return Value{Type: TypeDouble, Data: f} }
func StringV(s string) Value      { return Value{Type: TypeString, Data: s} }
func ColorV(c color.NRGBA) Value  { return Value{Type: TypeColor, Data: c} }
func DateTimeV(t time.Time) Value { return Value{Type: TypeDateTime, Data: t} }

func RegexV(re *regexp.Regexp) Value   { return Value{Type: TypeRegex, Data: re} }
func ImageV(g *GeneratedImage) Value   { return Value{Type: TypeImage, Data: g} }
func FunctionV(c Callable) Value       { return Value{Type: TypeFunction, Data: c} }
func ObjectV(o ObjectLike) Value       { return Value{Type: TypeObject, Data: o} }
func CollectionV(c CollectionLike) Value { return Value{Type: TypeCollection, Data: c} }
func IteratorV(it Iterator) Value      { return Value{Type: TypeIterator, Data: it} }

// ErrorV wraps a ScriptError as a delayed-error value. Operations that merely
// pass the value around succeed; using it (conversion, call, arithmetic)
// raises the wrapped error.
func ErrorV(err *ScriptError) Value { return Value{Type: TypeError, Data: err} }

// Callable is the payload contract for function values.
type Callable interface {
	// Eval invokes the function against the context's current scope. When
	// openScope is true the function opens (and closes) its own scope for
	// evaluation; callers that have already bound arguments pass false.
	Eval(ctx *Context, openScope bool) Value
	// DependenciesOf mirrors Eval for the abstract pass: same control-flow
	// shape, but data reads register into deps and results are placeholders.
	DependenciesOf(ctx *Context, deps *Dependencies) Value
	// ParamNames lists declared parameter names for positional calls;
	// nil means the function only accepts named arguments.
	ParamNames() []string
}

// closureSimplifier is implemented by callables that can specialize a
// closure over their own default arguments. Returning (zero, false) keeps
// the closure unchanged; the callable may also mutate the closure in place.
type closureSimplifier interface {
	SimplifyClosure(c *Closure) (Value, bool)
}

// CollectionLike is the payload contract for collection values.
type CollectionLike interface {
	ItemCount() int
	// GetIndex returns the item at a position in [0, ItemCount()).
	GetIndex(i int) (Value, error)
	// GetKey looks up an item by member name (associative collections
	// report ok=false when the key is absent; positional collections
	// always report false).
	GetKey(name string) (Value, bool)
	MakeIterator() Iterator
}

// Iterator is a stateful single-pass cursor over a collection.
//
// Next reports the next element; ok=false signals exhaustion, which is
// permanent: every later call reports ok=false again. If keyOut is non-nil
// it receives the element's key for associative collections; if indexOut is
// non-nil it receives the position for indexable collections.
type Iterator interface {
	Next(keyOut *Value, indexOut *int) (Value, bool)
}

// ObjectLike is the payload contract for host objects exposed to scripts.
type ObjectLike interface {
	// ObjectTypeName names the host type ("card", "set", ...).
	ObjectTypeName() string
	// GetMember resolves a field; ok=false when the field does not exist.
	GetMember(name string) (Value, bool)
	// Identity is the owner token recorded in Dependency records. Two
	// ObjectLikes with the same Identity are the same owner.
	Identity() any
}

// namedMember is implemented by values that know their own field name
// within a container; DependencyName dispatches through it.
type namedMember interface {
	MemberName() string
}

// GeneratedImage is a deferred image: scripts combine and pass these around,
// the rendering pipeline generates pixels at the end. Generation itself is a
// consumer concern; the core only carries the recipe.
type GeneratedImage struct {
	// Generate produces the pixels. May be invoked any number of times.
	Generate func() image.Image
}

// SolidImage is a single-color generated image, used by the color→image
// coercion.
func SolidImage(c color.NRGBA) *GeneratedImage {
	return &GeneratedImage{Generate: func() image.Image {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, c)
		return img
	}}
}

// CompareAs declares how this value takes part in equality: by string
// content (primitives), by payload identity (reference objects), or not at
// all.
func (v Value) CompareAs() (compareStr string, comparePtr any, what CompareWhat) {
	switch v.Type {
	case TypeNil, TypeDummy:
		return "", nil, CompareAsString
	case TypeInt, TypeBool, TypeDouble, TypeString, TypeColor, TypeDateTime:
		s, _ := v.ToString()
		return s, nil, CompareAsString
	case TypeImage, TypeFunction, TypeObject, TypeCollection, TypeRegex, TypeIterator:
		return "", v.Data, CompareAsPointer
	default:
		return "", nil, CompareNone
	}
}

// Equal compares two values: numbers numerically, primitives by string
// content, reference objects by identity. Two structurally identical objects
// held by reference are therefore never equal by content.
func Equal(a, b Value) bool {
	if a.Type == TypeNil && b.Type == TypeNil {
		return true
	}
	if isNumeric(a) && isNumeric(b) {
		af, _ := a.ToDouble()
		bf, _ := b.ToDouble()
		return af == bf
	}
	as, ap, aw := a.CompareAs()
	bs, bp, bw := b.CompareAs()
	if aw != bw {
		return false
	}
	switch aw {
	case CompareAsString:
		return a.Type == b.Type && as == bs
	case CompareAsPointer:
		return ap == bp
	default:
		return false
	}
}

func isNumeric(v Value) bool { return v.Type == TypeInt || v.Type == TypeDouble }

// GetMember resolves a member of this value. Missing members yield a delayed
// error value rather than failing outright; the error surfaces only if the
// result is actually used.
func (v Value) GetMember(name string) Value {
	switch v.Type {
	case TypeObject:
		if m, ok := v.Data.(ObjectLike).GetMember(name); ok {
			return m
		}
		return ErrorV(errUndefinedMember(v.Data.(ObjectLike).ObjectTypeName(), name))
	case TypeCollection:
		if m, ok := v.Data.(CollectionLike).GetKey(name); ok {
			return m
		}
		return ErrorV(errUndefinedMember(v.TypeName(), name))
	case TypeError:
		return v
	default:
		return ErrorV(errUndefinedMember(v.TypeName(), name))
	}
}

// ItemCount is the number of items in a collection value; non-collections
// fail with a conversion error.
func (v Value) ItemCount() (int, error) {
	if v.Type == TypeCollection {
		return v.Data.(CollectionLike).ItemCount(), nil
	}
	if v.Type == TypeError {
		return 0, v.Data.(*ScriptError)
	}
	return 0, errNotCollection(v.TypeName())
}

// GetIndex is positional access into a collection value. Indices outside
// [0, ItemCount()) fail with an out-of-range error.
func (v Value) GetIndex(i int) (Value, error) {
	if v.Type == TypeCollection {
		return v.Data.(CollectionLike).GetIndex(i)
	}
	if v.Type == TypeError {
		return Nil, v.Data.(*ScriptError)
	}
	return Nil, errNotCollection(v.TypeName())
}

// MakeIterator returns a fresh iterator value for collections. Iterator
// values return themselves (an iterator is not restartable; restarting
// requires a new iterator from the collection). Anything else yields a
// delayed error.
func (v Value) MakeIterator() Value {
	switch v.Type {
	case TypeCollection:
		return IteratorV(v.Data.(CollectionLike).MakeIterator())
	case TypeIterator:
		return v
	case TypeError:
		return v
	default:
		return ErrorV(errNotCollection(v.TypeName()))
	}
}

// Next advances an iterator value. For non-iterators it reports exhaustion
// immediately.
func (v Value) Next(keyOut *Value, indexOut *int) (Value, bool) {
	if v.Type != TypeIterator {
		return Nil, false
	}
	return v.Data.(Iterator).Next(keyOut, indexOut)
}

// Eval invokes function values against ctx; every other value evaluates to
// itself. Delayed errors raise when evaluated in call position is handled by
// the evaluator, not here.
func (v Value) Eval(ctx *Context, openScope bool) Value {
	if v.Type == TypeFunction {
		return v.Data.(Callable).Eval(ctx, openScope)
	}
	return v
}

// DependenciesOf is the abstract counterpart of Eval: function values walk
// the same control structure but register dependencies instead of reading
// data; everything else is its own abstract result.
func (v Value) DependenciesOf(ctx *Context, deps *Dependencies) Value {
	if v.Type == TypeFunction {
		return v.Data.(Callable).DependenciesOf(ctx, deps)
	}
	return v
}

// SimplifyClosure offers a closure to this value's specializer. It may
// return a simplified replacement, mutate the closure in place, or report
// no change (ok=false). Purely an optimization; never observable.
func (v Value) SimplifyClosure(c *Closure) (Value, bool) {
	if v.Type == TypeFunction {
		if s, ok := v.Data.(closureSimplifier); ok {
			return s.SimplifyClosure(c)
		}
	}
	return Nil, false
}
