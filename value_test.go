package script

import (
	"image/color"
	"strings"
	"testing"
	"time"
)

func Test_Value_ToString(t *testing.T) {
	for _, tc := range []struct {
		v    Value
		want string
	}{
		{Nil, ""},
		{IntV(42), "42"},
		{DoubleV(2.5), "2.5"},
		{BoolV(true), "true"},
		{StringV("x"), "x"},
		{ColorV(color.NRGBA{R: 255, A: 255}), "rgb(255,0,0)"},
	} {
		got, err := tc.v.ToString()
		if err != nil {
			t.Fatalf("ToString(%s): %v", tc.v.TypeName(), err)
		}
		if got != tc.want {
			t.Fatalf("ToString(%s) = %q, want %q", tc.v.TypeName(), got, tc.want)
		}
	}
}

func Test_Value_ToInt(t *testing.T) {
	if n, err := DoubleV(3.0).ToInt(); err != nil || n != 3 {
		t.Fatalf("integral double should convert: %v %v", n, err)
	}
	if _, err := DoubleV(3.5).ToInt(); err == nil {
		t.Fatalf("non-integral double must not convert")
	}
	if n, err := StringV(" 17 ").ToInt(); err != nil || n != 17 {
		t.Fatalf("string parse: %v %v", n, err)
	}
	if n, err := BoolV(true).ToInt(); err != nil || n != 1 {
		t.Fatalf("bool to int: %v %v", n, err)
	}
	if _, err := StringV("abc").ToInt(); err == nil {
		t.Fatalf("garbage string must not convert")
	}
}

func Test_Value_ToBool(t *testing.T) {
	if b, _ := Nil.ToBool(); b {
		t.Fatalf("nil is false")
	}
	for s, want := range map[string]bool{"true": true, "yes": true, "false": false, "no": false} {
		b, err := StringV(s).ToBool()
		if err != nil || b != want {
			t.Fatalf("ToBool(%q) = %v, %v", s, b, err)
		}
	}
	if _, err := StringV("maybe").ToBool(); err == nil {
		t.Fatalf("unknown string must not convert")
	}
}

func Test_Value_ToColor(t *testing.T) {
	c, err := StringV("rgb(1,2,3)").ToColor()
	if err != nil || c != (color.NRGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Fatalf("rgb() parse: %v %v", c, err)
	}
	c, err = StringV("#ff0080").ToColor()
	if err != nil || c != (color.NRGBA{R: 255, G: 0, B: 128, A: 255}) {
		t.Fatalf("hex parse: %v %v", c, err)
	}
	if _, err := StringV("mauve-ish").ToColor(); err == nil {
		t.Fatalf("garbage must not parse")
	}
}

func Test_Value_ToDateTime(t *testing.T) {
	want := time.Date(2008, 3, 14, 0, 0, 0, 0, time.UTC)
	got, err := StringV("2008-03-14").ToDateTime()
	if err != nil || !got.Equal(want) {
		t.Fatalf("date parse: %v %v", got, err)
	}
	if _, err := StringV("last tuesday").ToDateTime(); err == nil {
		t.Fatalf("garbage must not parse")
	}
}

func Test_Value_ColorToImage(t *testing.T) {
	img, err := ColorV(color.NRGBA{B: 255, A: 255}).ToImage()
	if err != nil {
		t.Fatal(err)
	}
	px := img.Generate()
	if px.Bounds().Empty() {
		t.Fatalf("solid image should have pixels")
	}
}

func Test_Value_Equal(t *testing.T) {
	if !Equal(IntV(1), DoubleV(1.0)) {
		t.Fatalf("cross-numeric equality")
	}
	if !Equal(StringV("a"), StringV("a")) || Equal(StringV("a"), StringV("b")) {
		t.Fatalf("string equality")
	}
	if Equal(IntV(1), StringV("1")) {
		t.Fatalf("int and string are not equal")
	}
	if !Equal(Nil, Nil) {
		t.Fatalf("nil equals nil")
	}

	// reference values compare by identity, not content
	a := NewObject("card")
	b := NewObject("card")
	if Equal(ObjectV(a), ObjectV(b)) {
		t.Fatalf("distinct objects must not be equal")
	}
	if !Equal(ObjectV(a), ObjectV(a)) {
		t.Fatalf("an object equals itself")
	}
}

func Test_Value_DelayedErrorSurfacesOnUse(t *testing.T) {
	card := NewObject("card")
	missing := ObjectV(card).GetMember("no_such_field")
	if missing.Type != TypeError {
		t.Fatalf("missing member should be a delayed error, got %s", missing.TypeName())
	}

	// passing it around is fine; converting it surfaces the error
	if _, err := missing.ToString(); err == nil {
		t.Fatalf("using a delayed error must fail")
	}

	// using it in an expression fails the whole evaluation
	ctx := newTestContext()
	ctx.SetVariable("card", ObjectV(card))
	if _, err := ctx.Eval(parseScript(t, `card.no_such_field + 1`), true); err == nil {
		t.Fatalf("expected an error")
	}

	// merely binding it does not
	if _, err := ctx.Eval(parseScript(t, `x := card.no_such_field` + "\n" + `"ok"`), true); err != nil {
		t.Fatalf("binding a delayed error should succeed: %v", err)
	}
}

func Test_Value_ToCodeRoundTrips(t *testing.T) {
	ctx := newTestContext()
	for _, src := range []string{
		`nil`, `42`, `-3`, `2.5`, `true`, `"he said \"hi\""`,
		`[1, 2, 3]`, `[a: 1, b: "two"]`, `[[1], [2, [3]]]`,
	} {
		orig := evalSrc(t, ctx, src)
		back := evalSrc(t, ctx, orig.ToCode())
		if orig.Type == TypeCollection {
			a, b := itemsOf(t, orig), itemsOf(t, back)
			if len(a) != len(b) {
				t.Fatalf("%s: round trip changed length", src)
			}
			continue
		}
		if !Equal(orig, back) {
			t.Fatalf("%s: round trip gave %s", src, back.ToCode())
		}
	}
}

func Test_Value_ToCode_Double_KeepsPoint(t *testing.T) {
	// a double that happens to be integral must still re-parse as a double
	v := DoubleV(3)
	if v.ToCode() != "3.0" {
		t.Fatalf("got %q", v.ToCode())
	}
}

func Test_Value_ToCode_Double_NoExponent(t *testing.T) {
	// extreme magnitudes must format in plain decimal, since number
	// literals have no exponent form
	ctx := newTestContext()
	for _, f := range []float64{1e21, -2.5e22, 0.00001, 1e-7} {
		code := DoubleV(f).ToCode()
		if strings.ContainsAny(code, "eE") {
			t.Fatalf("%v formatted with an exponent: %q", f, code)
		}
		wantDouble(t, evalSrc(t, ctx, code), f)
	}
}

func Test_Value_ToCode_DateAndRegex(t *testing.T) {
	ctx := newTestContext()
	d := evalSrc(t, ctx, `to_date("2008-03-14")`)
	if d.Type != TypeDateTime {
		t.Fatalf("to_date should produce a date, got %s", d.TypeName())
	}
	back := evalSrc(t, ctx, d.ToCode())
	if !Equal(d, back) {
		t.Fatalf("date round trip gave %s", back.ToCode())
	}

	re := evalSrc(t, ctx, `regex("a+b")`)
	if re.Type != TypeRegex {
		t.Fatalf("regex should produce a regex, got %s", re.TypeName())
	}
	if re.ToCode() != `regex("a+b")` {
		t.Fatalf("got %q", re.ToCode())
	}
}
