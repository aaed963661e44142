package script

import (
	"strings"
	"testing"
)

func Test_Functions_Conversions(t *testing.T) {
	ctx := newTestContext()
	wantStr(t, evalSrc(t, ctx, `to_string(42)`), "42")
	wantInt(t, evalSrc(t, ctx, `to_int("17")`), 17)
	wantInt(t, evalSrc(t, ctx, `to_int(true)`), 1)
	wantDouble(t, evalSrc(t, ctx, `to_number("2.5")`), 2.5)
	wantBool(t, evalSrc(t, ctx, `to_boolean("yes")`), true)

	v := evalSrc(t, ctx, `to_date("2008-03-14")`)
	if v.Type != TypeDateTime {
		t.Fatalf("to_date: got %s", v.TypeName())
	}
	v = evalSrc(t, ctx, `to_color("#ff0000")`)
	if v.Type != TypeColor {
		t.Fatalf("to_color: got %s", v.TypeName())
	}
	wantStr(t, evalSrc(t, ctx, `type_name(3.5)`), "double")
}

func Test_Functions_ConversionFailure(t *testing.T) {
	ctx := newTestContext()
	err := evalErr(t, ctx, `to_int("twelve")`)
	if !strings.Contains(err.Error(), "can't convert") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func Test_Functions_Rgb(t *testing.T) {
	ctx := newTestContext()
	wantStr(t, evalSrc(t, ctx, `to_string(rgb(255, 128, 0))`), "rgb(255,128,0)")
	// channels are range-checked
	if err := evalErr(t, ctx, `rgb(300, 0, 0)`); !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func Test_Functions_Strings(t *testing.T) {
	ctx := newTestContext()
	wantStr(t, evalSrc(t, ctx, `trim("  x  ")`), "x")
	wantStr(t, evalSrc(t, ctx, `to_upper("abc")`), "ABC")
	wantStr(t, evalSrc(t, ctx, `to_lower("AbC")`), "abc")
	wantStr(t, evalSrc(t, ctx, `to_title("magic")`), "Magic")
	wantBool(t, evalSrc(t, ctx, `contains(input: "flying", match: "fly")`), true)
	wantBool(t, evalSrc(t, ctx, `contains(input: "fly", match: "walk")`), false)
}

func Test_Functions_Substring(t *testing.T) {
	ctx := newTestContext()
	wantStr(t, evalSrc(t, ctx, `substring(input: "hello", begin: 1, end: 3)`), "el")
	wantStr(t, evalSrc(t, ctx, `substring(input: "hello", begin: 3)`), "lo")
	wantStr(t, evalSrc(t, ctx, `substring(input: "hello", end: 2)`), "he")
	// out-of-range indices clamp
	wantStr(t, evalSrc(t, ctx, `substring(input: "hi", begin: 0, end: 99)`), "hi")
	wantStr(t, evalSrc(t, ctx, `substring(input: "hi", begin: 5)`), "")
	// rune positions, not bytes
	wantStr(t, evalSrc(t, ctx, `substring(input: "héllo", begin: 1, end: 2)`), "é")
}

func Test_Functions_Regex(t *testing.T) {
	ctx := newTestContext()
	wantBool(t, evalSrc(t, ctx, `match(input: "G7", match: "^[A-Z][0-9]$")`), true)
	wantStr(t, evalSrc(t, ctx, `replace(input: "a1b2", match: "[0-9]", replace: "_")`), "a_b_")
	// a precompiled regex value works too
	wantStr(t, evalSrc(t, ctx, "re := regex(\"l+\")\nreplace(input: \"hello\", match: re, replace: \"L\")"), "heLo")
	wantStr(t, evalSrc(t, ctx, `filter_text(input: "a1b22c", match: "[0-9]+")`), "122")

	items := itemsOf(t, evalSrc(t, ctx, `split_text(input: "a, b,c", match: ", *")`))
	if len(items) != 3 {
		t.Fatalf("want 3 parts, got %d", len(items))
	}
	wantStr(t, items[2], "c")

	if err := evalErr(t, ctx, `regex("(")`); !strings.Contains(err.Error(), "invalid regular expression") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func Test_Functions_Collections(t *testing.T) {
	ctx := newTestContext()
	wantInt(t, evalSrc(t, ctx, `length(input: [1, 2, 3])`), 3)
	wantInt(t, evalSrc(t, ctx, `length(input: "héllo")`), 5)
	wantInt(t, evalSrc(t, ctx, `number_of_items(in: [a: 1, b: 2])`), 2)
	wantInt(t, evalSrc(t, ctx, `position(of: 20, in: [10, 20, 30])`), 1)
	wantInt(t, evalSrc(t, ctx, `position(of: 99, in: [10])`), -1)

	items := itemsOf(t, evalSrc(t, ctx, `sort(input: [3, 1, 2])`))
	wantInt(t, items[0], 1)
	wantInt(t, items[2], 3)

	items = itemsOf(t, evalSrc(t, ctx, `reverse(input: [1, 2, 3])`))
	wantInt(t, items[0], 3)

	wantStr(t, evalSrc(t, ctx, `sort(input: "cab")`), "abc")
	wantStr(t, evalSrc(t, ctx, `reverse(input: "abc")`), "cba")
}

func Test_Functions_MinMaxAbs(t *testing.T) {
	ctx := newTestContext()
	wantInt(t, evalSrc(t, ctx, `min(3, 7)`), 3)
	wantInt(t, evalSrc(t, ctx, `max(3, 7)`), 7)
	wantInt(t, evalSrc(t, ctx, `min([5, 2, 9])`), 2)
	wantInt(t, evalSrc(t, ctx, `max([5, 2, 9])`), 9)
	wantInt(t, evalSrc(t, ctx, `abs(-4)`), 4)
	wantDouble(t, evalSrc(t, ctx, `abs(-1.5)`), 1.5)
}

func Test_Functions_FormatDate(t *testing.T) {
	ctx := newTestContext()
	wantStr(t, evalSrc(t, ctx,
		`format_date(input: to_date("2008-03-14 15:09:26"), format: "%d/%m/%Y")`),
		"14/03/2008")
	wantStr(t, evalSrc(t, ctx,
		`format_date(input: to_date("2008-03-14 15:09:26"))`),
		"2008-03-14 15:09:26")
	wantStr(t, evalSrc(t, ctx,
		`format_date(input: to_date("2008-03-14"), format: "%Y, week day unknown, 100%%")`),
		"2008, week day unknown, 100%")
}

func Test_Functions_PositionalArgs(t *testing.T) {
	ctx := newTestContext()
	// positional arguments map onto declared parameter names
	wantStr(t, evalSrc(t, ctx, `to_upper("x")`), "X")
	wantStr(t, evalSrc(t, ctx, `substring("hello", 1, 3)`), "el")
	if err := evalErr(t, ctx, `to_upper("a", "b")`); !strings.Contains(err.Error(), "too many positional") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func Test_Functions_MissingArgument(t *testing.T) {
	ctx := newTestContext()
	if err := evalErr(t, ctx, `to_upper()`); !strings.Contains(err.Error(), "missing argument") {
		t.Fatalf("unexpected message: %v", err)
	}
}
