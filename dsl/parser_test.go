package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/galley/dsl"
)

const sampleDSL = `
doc Galley v1 {
  meta {
    title: "Specimen"
    keywords: [
      "typesetting"
      "knuth-plass"
    ]
  }

  resources {
    font Body {
      src: "lm:roman10"; size: 10pt
    }
  }

  settings {
    line-width: 300pt
    baselineskip: 12pt plus 1pt
    # comments are elided
  }

  par [indent 0pt] [tolerance 1000] {
    "Hello, ${user.name}!"
    glue 3pt plus 1fil minus 1pt
    kern -2pt
    penalty -10000
    disc { pre "-" post "" nobreak "" }
    math text { ord "x" bin "+" ord "y" }
    rule 10pt * 0pt
  }

  vskip 6pt plus 2pt
  pagebreak

  par {
    "Second paragraph."
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Galley" {
		t.Fatalf("expected document name Galley, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}

	var kinds []string
	for _, s := range doc.Sections {
		kinds = append(kinds, s.Kind())
	}
	if got := strings.Join(kinds, ","); got != "meta,resources,settings,par,vskip,pagebreak,par" {
		t.Fatalf("unexpected sections: %s", got)
	}

	meta := doc.Sections[0].Meta
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	if got := string(*title.Value.String); got != "Specimen" {
		t.Fatalf("expected title Specimen, got %s", got)
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil || len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected 2 keywords, got %+v", keywords)
	}

	font := doc.Sections[1].Resources.Block.Statements[0].Command
	if font == nil || font.Name != "font" || font.Args[0].Value != "Body" {
		t.Fatalf("expected font resource, got %+v", font)
	}
	if len(font.Block.Statements) != 2 || *font.Block.Statements[1].Assignment.Value.Number != "10pt" {
		t.Fatalf("font body not parsed: %+v", font.Block.Statements)
	}

	settings := doc.Sections[2].Settings
	if len(settings.Entries) != 2 {
		t.Fatalf("expected 2 settings, got %d", len(settings.Entries))
	}
	if got := dsl.JoinValues(settings.Entries[1].Value); got != "12pt plus 1pt" {
		t.Fatalf("unexpected glue setting: %q", got)
	}
}

func TestParseParagraph(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	par := doc.Sections[3].Par
	if par == nil {
		t.Fatalf("par section missing")
	}
	if len(par.Options) != 2 || par.Options[1].Key != "tolerance" || par.Options[1].Args[0].Value != "1000" {
		t.Fatalf("unexpected options: %+v", par.Options)
	}

	stmts := par.Block.Statements
	if len(stmts) != 7 {
		t.Fatalf("expected 7 statements, got %d", len(stmts))
	}
	if stmts[0].Text == nil || !strings.Contains(string(stmts[0].Text.Value), "${user.name}") {
		t.Fatalf("expected text literal with placeholder, got %+v", stmts[0])
	}

	glue := stmts[1].Command
	if glue.Name != "glue" || dsl.JoinValues(glue.Args) != "3pt plus 1fil minus 1pt" {
		t.Fatalf("unexpected glue command: %+v", glue)
	}
	if kern := stmts[2].Command; kern.Args[0].Value != "-2pt" {
		t.Fatalf("negative length should be one token, got %+v", kern.Args)
	}
	if pen := stmts[3].Command; pen.Args[0].Value != "-10000" {
		t.Fatalf("unexpected penalty args: %+v", pen.Args)
	}

	disc := stmts[4].Command
	if disc.Block == nil || len(disc.Block.Statements) != 1 {
		t.Fatalf("disc body missing")
	}
	branches := disc.Block.Statements[0].Command
	if branches.Name != "pre" || len(branches.Args) != 5 || !branches.Args[0].IsString() || branches.Args[0].Value != "-" {
		t.Fatalf("unexpected disc branches: %+v", branches)
	}

	math := stmts[5].Command
	if math.Args[0].Value != "text" {
		t.Fatalf("expected math style, got %+v", math.Args)
	}
	atoms := math.Block.Statements[0].Command
	if atoms.Name != "ord" || dsl.JoinValues(atoms.Args) != "x bin + ord y" {
		t.Fatalf("unexpected atoms: %s %s", atoms.Name, dsl.JoinValues(atoms.Args))
	}

	rule := stmts[6].Command
	if len(rule.Args) != 3 || rule.Args[1].Value != "*" {
		t.Fatalf("unexpected rule args: %+v", rule.Args)
	}

	vskip := doc.Sections[4].Vertical
	if dsl.JoinValues(vskip.Args) != "6pt plus 2pt" {
		t.Fatalf("unexpected vskip: %+v", vskip.Args)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing version": `doc X { }`,
		"unclosed par":    "doc X v1 {\n par {\n \"text\"\n}",
		"bad option":      "doc X v1 {\n par [ ] { }\n}",
	}
	for name, src := range cases {
		if _, err := dsl.ParseString(src); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}
