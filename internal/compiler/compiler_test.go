package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lanreath/strata/pkg/domain"
)

const lightswitchYAML = `
name: lightswitch
initial: "off"

events:
  flip: 10
  set_level: 11

states:
  - id: 1
    name: top
  - id: 2
    name: "off"
    parent: top
    on:
      flip: "on"
  - id: 3
    name: "on"
    parent: top
    doc: |
      Lamp emitting light.
    on:
      flip: "off"
      set_level: "on"
    meta:
      color: warm
      priority: 3
`

func TestCompileLightswitch(t *testing.T) {
	def, err := Compile([]byte(lightswitchYAML))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if def.Name != "lightswitch" {
		t.Errorf("name = %q, want lightswitch", def.Name)
	}
	if def.Initial != 2 {
		t.Errorf("initial = %d, want 2", def.Initial)
	}
	if len(def.States) != 3 {
		t.Fatalf("got %d states, want 3", len(def.States))
	}
	if def.Events[10] != "flip" || def.Events[11] != "set_level" {
		t.Errorf("event table = %v", def.Events)
	}

	off := def.State(2)
	if off == nil || off.Parent == nil || *off.Parent != 1 {
		t.Fatalf("state 'off' not resolved under top: %+v", off)
	}
	if off.On[10] != 3 {
		t.Errorf("off.On[flip] = %d, want 3", off.On[10])
	}

	on := def.State(3)
	if on.Doc != "Lamp emitting light." {
		t.Errorf("doc = %q", on.Doc)
	}
	if on.On[10] != 2 || on.On[11] != 3 {
		t.Errorf("on.On = %v", on.On)
	}
	if on.Meta["color"] != "warm" || on.Meta["priority"] != "3" {
		t.Errorf("meta = %v", on.Meta)
	}
}

func TestCompileRejectsUnresolvedNames(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown transition target",
			doc: `
name: bad
initial: a
events: {go: 1}
states:
  - {id: 1, name: a, on: {go: ghost}}
`,
			want: "targets unknown state 'ghost'",
		},
		{
			name: "undeclared event",
			doc: `
name: bad
initial: a
states:
  - {id: 1, name: a, on: {bogus: a}}
`,
			want: "undeclared event 'bogus'",
		},
		{
			name: "unknown parent",
			doc: `
name: bad
initial: a
states:
  - {id: 1, name: a, parent: nowhere}
`,
			want: "unknown parent 'nowhere'",
		},
		{
			name: "unknown initial",
			doc: `
name: bad
initial: ghost
states:
  - {id: 1, name: a}
`,
			want: "unknown initial state 'ghost'",
		},
		{
			name: "missing initial",
			doc: `
name: bad
states:
  - {id: 1, name: a}
`,
			want: "no initial state",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile([]byte(tc.doc))
			if !errors.Is(err, domain.ErrChartInvalid) {
				t.Fatalf("want ErrChartInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCompileRejectsDuplicates(t *testing.T) {
	doc := `
name: dupes
initial: a
events:
  go: 7
  halt: 7
states:
  - {id: 1, name: a}
  - {id: 1, name: b}
  - {id: 2, name: a}
`
	_, err := Compile([]byte(doc))
	if !errors.Is(err, domain.ErrChartInvalid) {
		t.Fatalf("want ErrChartInvalid, got %v", err)
	}
	for _, want := range []string{
		"events 'go' and 'halt' share id 7",
		"states 'a' and 'b' share id 1",
		"duplicate state name 'a'",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestCompileRejectsOutOfRangeIDs(t *testing.T) {
	doc := `
name: ranges
initial: a
events:
  big: 70000
states:
  - {id: 0, name: a}
`
	_, err := Compile([]byte(doc))
	if !errors.Is(err, domain.ErrChartInvalid) {
		t.Fatalf("want ErrChartInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "event 'big': id 70000 out of range") {
		t.Errorf("missing event range problem: %v", err)
	}
	if !strings.Contains(err.Error(), "state 'a': id 0 out of range") {
		t.Errorf("missing state range problem: %v", err)
	}
}

func TestCompileRejectsMalformedYAML(t *testing.T) {
	_, err := Compile([]byte("states: [\n"))
	if !errors.Is(err, domain.ErrChartInvalid) {
		t.Fatalf("want ErrChartInvalid, got %v", err)
	}
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.yaml")
	if err := os.WriteFile(path, []byte(lightswitchYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := CompileFile(path)
	if err != nil {
		t.Fatalf("CompileFile failed: %v", err)
	}
	if def.Name != "lightswitch" {
		t.Errorf("name = %q", def.Name)
	}

	if _, err := CompileFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
