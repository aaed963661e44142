package script

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// corpusCase is one entry of testdata/dependency_corpus.yaml: a script run
// against a "card" object and/or a "cards" list, checked both ways: the real
// result, and the dependency records the abstract pass must produce. Deps
// entries are "card.field" or "cards[i].field"; an entry without a field
// ("card", "cards[0]") is a wholesale read.
type corpusCase struct {
	Name   string              `yaml:"name"`
	Script string              `yaml:"script"`
	Card   map[string]string   `yaml:"card"`
	Cards  []map[string]string `yaml:"cards"`
	Result string              `yaml:"result"`
	Deps   []string            `yaml:"deps"`
}

func Test_Corpus_EvalAndDependenciesAgree(t *testing.T) {
	raw, err := os.ReadFile("testdata/dependency_corpus.yaml")
	if err != nil {
		t.Fatal(err)
	}
	var cases []corpusCase
	if err := yaml.Unmarshal(raw, &cases); err != nil {
		t.Fatal(err)
	}
	if len(cases) == 0 {
		t.Fatal("empty corpus")
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			ctx := newTestContext()
			owners := map[string]any{}

			if tc.Card != nil {
				card := NewObject("card")
				for field, val := range tc.Card {
					card.Set(field, StringV(val))
				}
				ctx.SetVariable("card", ObjectV(card))
				owners["card"] = card
			}
			if tc.Cards != nil {
				elems := make([]Value, len(tc.Cards))
				for i, fields := range tc.Cards {
					c := NewObject("card")
					for field, val := range fields {
						c.Set(field, StringV(val))
					}
					elems[i] = ObjectV(c)
					owners[fmt.Sprintf("cards[%d]", i)] = c
				}
				ctx.SetVariable("cards", ListV(elems))
			}

			s := parseScript(t, tc.Script)

			got, err := ctx.Eval(s, true)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}
			gotStr, err := got.ToString()
			if err != nil {
				t.Fatalf("result to string: %v", err)
			}
			if gotStr != tc.Result {
				t.Errorf("result: got %q, want %q", gotStr, tc.Result)
			}

			deps := NewDependencies()
			if _, err := ctx.Dependencies(s, deps); err != nil {
				t.Fatalf("dependency pass: %v", err)
			}
			for _, spec := range tc.Deps {
				ownerName, field, _ := strings.Cut(spec, ".")
				owner, ok := owners[ownerName]
				if !ok {
					t.Fatalf("dependency %q names unknown owner %q", spec, ownerName)
				}
				if !deps.Contains(Dependency{Owner: owner, Field: field}) {
					t.Errorf("missing dependency %q, have %v", spec, deps.List())
				}
			}
			if deps.Len() != len(tc.Deps) {
				t.Errorf("want %d dependencies, got %d: %v", len(tc.Deps), deps.Len(), deps.List())
			}
		})
	}
}
