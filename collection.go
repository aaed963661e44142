// collection.go: concrete collection payloads and their iterators.
//
// Three collection shapes cover the engine's needs: positional lists,
// insertion-ordered maps (the data files rely on field order), and integer
// ranges produced by "for x from a to b". Host objects expose their field
// tables through the same CollectionLike contract when they want iteration.
//
// Iterators are single-pass, forward-only. Exhaustion is permanent for an
// iterator instance; iterating again means asking the collection for a
// fresh one.

package script

import "fmt"

// ListValue is a positional collection.
type ListValue struct {
	Elems []Value
}

func ListV(elems []Value) Value { return CollectionV(&ListValue{Elems: elems}) }

func (l *ListValue) ItemCount() int { return len(l.Elems) }

func (l *ListValue) GetIndex(i int) (Value, error) {
	if i < 0 || i >= len(l.Elems) {
		return Nil, &ScriptError{Kind: ErrIndex,
			Msg: fmt.Sprintf("index %d out of range, list has %d items", i, len(l.Elems))}
	}
	return l.Elems[i], nil
}

func (l *ListValue) GetKey(name string) (Value, bool) { return Nil, false }

func (l *ListValue) MakeIterator() Iterator { return &listIterator{list: l} }

type listIterator struct {
	list *ListValue
	pos  int
}

func (it *listIterator) Next(keyOut *Value, indexOut *int) (Value, bool) {
	if it.pos >= len(it.list.Elems) {
		return Nil, false
	}
	if indexOut != nil {
		*indexOut = it.pos
	}
	v := it.list.Elems[it.pos]
	it.pos++
	return v, true
}

// MapValue is an associative collection that preserves insertion order.
type MapValue struct {
	keys    []string
	entries map[string]Value
}

func NewMapValue() *MapValue {
	return &MapValue{entries: map[string]Value{}}
}

// MapV builds an ordered map value from alternating key/value pairs.
func MapV(pairs ...any) Value {
	m := NewMapValue()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return CollectionV(m)
}

// Set inserts or replaces an entry; new keys append to the order.
func (m *MapValue) Set(key string, v Value) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = v
}

func (m *MapValue) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *MapValue) ItemCount() int { return len(m.keys) }

func (m *MapValue) GetIndex(i int) (Value, error) {
	if i < 0 || i >= len(m.keys) {
		return Nil, &ScriptError{Kind: ErrIndex,
			Msg: fmt.Sprintf("index %d out of range, map has %d items", i, len(m.keys))}
	}
	return m.entries[m.keys[i]], nil
}

func (m *MapValue) GetKey(name string) (Value, bool) {
	v, ok := m.entries[name]
	return v, ok
}

func (m *MapValue) MakeIterator() Iterator { return &mapIterator{m: m} }

type mapIterator struct {
	m   *MapValue
	pos int
}

func (it *mapIterator) Next(keyOut *Value, indexOut *int) (Value, bool) {
	if it.pos >= len(it.m.keys) {
		return Nil, false
	}
	k := it.m.keys[it.pos]
	if keyOut != nil {
		*keyOut = StringV(k)
	}
	if indexOut != nil {
		*indexOut = it.pos
	}
	it.pos++
	return it.m.entries[k], true
}

// RangeValue is the collection produced by "for x from a to b": the
// integers a..b inclusive (empty when b < a).
type RangeValue struct {
	From, To int64
}

func RangeV(from, to int64) Value { return CollectionV(&RangeValue{From: from, To: to}) }

func (r *RangeValue) ItemCount() int {
	if r.To < r.From {
		return 0
	}
	return int(r.To - r.From + 1)
}

func (r *RangeValue) GetIndex(i int) (Value, error) {
	if i < 0 || i >= r.ItemCount() {
		return Nil, &ScriptError{Kind: ErrIndex,
			Msg: fmt.Sprintf("index %d out of range, range has %d items", i, r.ItemCount())}
	}
	return IntV(r.From + int64(i)), nil
}

func (r *RangeValue) GetKey(name string) (Value, bool) { return Nil, false }

func (r *RangeValue) MakeIterator() Iterator { return &rangeIterator{cur: r.From, to: r.To} }

type rangeIterator struct {
	cur, to int64
	idx     int
}

func (it *rangeIterator) Next(keyOut *Value, indexOut *int) (Value, bool) {
	if it.cur > it.to {
		return Nil, false
	}
	if indexOut != nil {
		*indexOut = it.idx
	}
	v := IntV(it.cur)
	it.cur++
	it.idx++
	return v, true
}
