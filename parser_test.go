package script

import (
	"strings"
	"testing"
)

func Test_Parser_AllErrorsCollected(t *testing.T) {
	// three malformed statements, each reported
	src := "x := )\ny := (1 + \nz := 1 =\n"
	_, errs := Parse("<test>", src)
	if len(errs) < 3 {
		t.Fatalf("want at least 3 errors, got %d: %v", len(errs), errs)
	}
}

func Test_Parser_RecoversBetweenStatements(t *testing.T) {
	// the error on line 1 must not hide line 3's error
	src := "a := *\nb := 2\nc := )\n"
	_, errs := Parse("<test>", src)
	if len(errs) != 2 {
		t.Fatalf("want 2 errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Line != 1 || errs[1].Line != 3 {
		t.Fatalf("wrong positions: %v", errs)
	}
}

func Test_Parser_ErrorPositions(t *testing.T) {
	_, errs := Parse("<test>", "x := 1 + )")
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %v", errs)
	}
	if errs[0].Line != 1 || errs[0].Col != 10 {
		t.Fatalf("want 1:10, got %d:%d", errs[0].Line, errs[0].Col)
	}
}

func Test_Parser_LexErrors(t *testing.T) {
	for _, src := range []string{
		`"unterminated`,
		`x = 1`, // assignment is :=
		`a ! b`,
		"x := $",
	} {
		if _, errs := Parse("<test>", src); len(errs) == 0 {
			t.Fatalf("%q should not parse", src)
		}
	}
}

func Test_Parser_Precedence(t *testing.T) {
	ctx := newTestContext()
	wantInt(t, evalSrc(t, ctx, `2 + 3 * 4`), 14)
	wantBool(t, evalSrc(t, ctx, `1 + 1 == 2`), true)
	wantBool(t, evalSrc(t, ctx, `1 < 2 and 2 < 3`), true)
	wantBool(t, evalSrc(t, ctx, `not 1 == 2`), true)
	// unary minus binds tighter than multiplication
	wantInt(t, evalSrc(t, ctx, `-2 * 3`), -6)
}

func Test_Parser_PostfixChains(t *testing.T) {
	ctx := newTestContext()
	wantInt(t, evalSrc(t, ctx, `[m: [10, 20]].m[1]`), 20)
	wantStr(t, evalSrc(t, ctx, `to_upper(input: trim(input: " hi "))`), "HI")
}

func Test_Parser_CommentsAndNewlines(t *testing.T) {
	ctx := newTestContext()
	src := `# leading comment
x := 1   # trailing comment

y := 2
x + y`
	wantInt(t, evalSrc(t, ctx, src), 3)
}

func Test_Parser_NewlinesInsideBrackets(t *testing.T) {
	ctx := newTestContext()
	src := "xs := [\n  1,\n  2,\n  3\n]\nlength(input: xs)"
	wantInt(t, evalSrc(t, ctx, src), 3)
}

func Test_Parser_StringEscapes(t *testing.T) {
	ctx := newTestContext()
	wantStr(t, evalSrc(t, ctx, `"a\tb\n\"c\""`), "a\tb\n\"c\"")
}

func Test_Parser_AssignRightAssociative(t *testing.T) {
	ctx := newTestContext()
	wantInt(t, evalSrc(t, ctx, "a := b := 5\na + b"), 10)
}

func Test_Parser_PrettyError(t *testing.T) {
	src := "x := 1\ny := )\nz := 3"
	_, errs := Parse("<test>", src)
	if len(errs) == 0 {
		t.Fatalf("expected errors")
	}
	out := PrettyParseError(errs[0], src)
	if !strings.Contains(out, "y := )") {
		t.Fatalf("snippet should show the offending line:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatalf("snippet should carry a caret:\n%s", out)
	}
}

func Test_Parser_EmptySource(t *testing.T) {
	s, errs := Parse("<test>", "")
	if len(errs) != 0 {
		t.Fatalf("empty source should parse: %v", errs)
	}
	ctx := newTestContext()
	v, err := ctx.Eval(s, true)
	if err != nil || v.Type != TypeNil {
		t.Fatalf("empty script evaluates to nil: %v %v", v, err)
	}
}
