package script

import "testing"

func Test_Iterator_ListYieldsItemsAndIndexes(t *testing.T) {
	it := (&ListValue{Elems: []Value{IntV(10), IntV(20)}}).MakeIterator()

	var idx int
	v, ok := it.Next(nil, &idx)
	if !ok || idx != 0 {
		t.Fatalf("first item: ok=%v idx=%d", ok, idx)
	}
	wantInt(t, v, 10)

	v, ok = it.Next(nil, &idx)
	if !ok || idx != 1 {
		t.Fatalf("second item: ok=%v idx=%d", ok, idx)
	}
	wantInt(t, v, 20)

	if _, ok := it.Next(nil, nil); ok {
		t.Fatalf("exhausted iterator must not yield")
	}
}

func Test_Iterator_MapYieldsKeys(t *testing.T) {
	m := NewMapValue()
	m.Set("a", IntV(1))
	m.Set("b", IntV(2))
	it := m.MakeIterator()

	var key Value
	v, ok := it.Next(&key, nil)
	if !ok {
		t.Fatalf("expected a first item")
	}
	wantStr(t, key, "a")
	wantInt(t, v, 1)

	v, _ = it.Next(&key, nil)
	wantStr(t, key, "b")
	wantInt(t, v, 2)
}

func Test_Iterator_RangeInclusive(t *testing.T) {
	it := (&RangeValue{From: 3, To: 5}).MakeIterator()
	var got []int64
	for {
		v, ok := it.Next(nil, nil)
		if !ok {
			break
		}
		got = append(got, v.Data.(int64))
	}
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Fatalf("want [3 4 5], got %v", got)
	}
}

func Test_Iterator_SinglePassPermanentExhaustion(t *testing.T) {
	it := IteratorV((&ListValue{Elems: []Value{IntV(1), IntV(2)}}).MakeIterator())

	// drain it once
	n := 0
	iter := it.Data.(Iterator)
	for {
		if _, ok := iter.Next(nil, nil); !ok {
			break
		}
		n++
	}
	if n != 2 {
		t.Fatalf("first pass should yield 2 items, got %d", n)
	}

	// an iterator value's MakeIterator is itself: a second pass finds it
	// permanently exhausted, it never rewinds
	again := it.MakeIterator()
	if again.Type != TypeIterator {
		t.Fatalf("MakeIterator on an iterator should return an iterator")
	}
	if _, ok := again.Data.(Iterator).Next(nil, nil); ok {
		t.Fatalf("exhausted iterator must stay exhausted")
	}
}

func Test_Iterator_FreshIteratorsAreIndependent(t *testing.T) {
	list := &ListValue{Elems: []Value{IntV(1)}}
	a := list.MakeIterator()
	b := list.MakeIterator()
	if _, ok := a.Next(nil, nil); !ok {
		t.Fatalf("a should yield")
	}
	if _, ok := b.Next(nil, nil); !ok {
		t.Fatalf("draining a must not affect b")
	}
}

func Test_Iterator_NonCollectionIsDelayedError(t *testing.T) {
	it := IntV(5).MakeIterator()
	if it.Type != TypeError {
		t.Fatalf("want a delayed error value, got %s", it.TypeName())
	}
}
