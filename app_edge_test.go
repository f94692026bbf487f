package main

import (
	"fmt"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Inputs without geometry: empty, whitespace and comments.
// ---------------------------------------------------------------------------

func TestE2ENoGeometry(t *testing.T) {
	sources := map[string]string{
		"whitespace":     "   \n\t  \n  ",
		"comments only":  ";; a comment\n; another one\n",
		"plain lisp":     "(def x 10)\n(+ x 1)",
		"all inactive":   "(grid :nx 1 :ny 1 :nz 2)\n(inactive 0 0 0)\n(inactive 0 0 1)",
		"comments mixed": "  ; leading comment\n\n   ;; indented\n",
	}
	app := newTestApp()
	for name, source := range sources {
		t.Run(name, func(t *testing.T) {
			result := app.Evaluate(source)
			if len(result.Errors) > 0 {
				t.Fatalf("unexpected errors: %v", result.Errors)
			}
			if result.Mesh == nil {
				t.Fatal("expected an empty mesh")
			}
			if n := len(result.Mesh.Triangles); n != 0 {
				t.Errorf("expected no triangles, got %d", n)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 2. Errors: line info and builtin failures.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	source := "(grid :nx 2 :ny 2 :nz 1)\n(fault :i 1 :throw 2)\n(pinch 0 0"
	result := newTestApp().Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected errors for unclosed paren")
	}
	e := result.Errors[0]
	if e.Message == "" {
		t.Error("error message should not be empty")
	}
	if e.Line > 0 {
		t.Logf("extracted line info: line=%d, message=%q", e.Line, e.Message)
	}
}

func TestE2EBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"cell outside grid", "(grid :nx 2)\n(inactive 2 0 0)", "outside"},
		{"missing throw", "(grid :nx 2)\n(fault :i 1)", "throw"},
		{"edit before grid", "(tilt 0.1)", "no grid"},
		{"undefined function", "(undefined-func 1 2 3)", ""},
	}
	app := newTestApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := app.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected an error")
			}
			if result.OK() {
				t.Error("OK() = true on error")
			}
			if !strings.Contains(result.Errors[0].Message, tt.want) {
				t.Errorf("message = %q, want containing %q", result.Errors[0].Message, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 3. Warnings from the geometric validation tier.
// ---------------------------------------------------------------------------

func TestE2EFlatPillarsWarn(t *testing.T) {
	// A single zero-thickness layer leaves every pillar flat.
	result := newTestApp().Evaluate(`(grid :nx 1 :ny 1 :layers (list 0))`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) != 4 {
		t.Fatalf("warnings = %d, want 4: %v", len(result.Warnings), result.Warnings)
	}
	for _, w := range result.Warnings {
		if !strings.HasPrefix(w.Where, "pillar") {
			t.Errorf("warning at %q, want a pillar", w.Where)
		}
	}
}

// ---------------------------------------------------------------------------
// 4. Crossing wall lines.
// ---------------------------------------------------------------------------

func TestE2EScissorFault(t *testing.T) {
	result := newTestApp().Evaluate("(grid :nx 2 :ny 1 :nz 1 :dz 10)\n(scissor :i 1 :throw 5)")
	if !result.OK() {
		t.Fatalf("errors: %v", result.Errors)
	}
	if result.Intersections != 2 {
		t.Errorf("intersections = %d, want 2", result.Intersections)
	}
	if len(result.Problems) != 0 {
		t.Errorf("problems = %v", result.Problems)
	}
	if result.Mesh.Stats.FaultTriangles == 0 {
		t.Error("expected fault triangles")
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid evaluation: no panics, the engine recovers between runs.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Calls are sequential: zygomys has global state that is not safe
	// for concurrent sandbox creation.
	app := newTestApp()

	sources := []string{
		`(grid :nx 2 :ny 2 :nz 2)`,
		`(grid :nx 2`,
		``,
		`(fault :i 1 :throw 3)`,
		"(grid :nx 3 :ny 1 :nz 2)\n(fault :i 1 :throw 3)",
		`(+ 1 2)`,
		`;; just a comment`,
		"(grid :nx 2 :ny 2 :nz 1)\n(scissor :i 1 :throw 0.25)",
		`(undefined-func 1 2 3)`,
		`(grid :nx 1 :ny 1 :nz 3)`,
	}
	ok := 0
	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			if app.Evaluate(source).OK() {
				ok++
			}
		}()
	}
	if ok != 7 {
		t.Errorf("%d successful runs, want 7", ok)
	}
}

// ---------------------------------------------------------------------------
// 6. Larger grids.
// ---------------------------------------------------------------------------

func TestE2ELargerGrid(t *testing.T) {
	nx, ny, nz := 12, 9, 4
	source := fmt.Sprintf(`
(grid :nx %d :ny %d :nz %d :dx 25 :dy 25 :dz 3 :top 3000)
(tilt 0.01)
(fault :i 5 :throw 4.5)
(fault :j 6 :throw -2)
(inactive 0 0 0)
`, nx, ny, nz)
	result := newTestApp().Evaluate(source)
	if !result.OK() {
		t.Fatalf("errors: %v", result.Errors)
	}
	s := result.Mesh.Stats
	if want := nx*ny*nz - 1; s.Cells != want {
		t.Errorf("cells = %d, want %d", s.Cells, want)
	}
	if s.FaultTriangles == 0 || s.FaultEdges == 0 {
		t.Errorf("expected fault geometry: %+v", s)
	}
	if len(result.Problems) != 0 {
		t.Errorf("problems = %v", result.Problems)
	}
	if s.AreaMin <= 0 {
		t.Errorf("smallest triangle area = %g", s.AreaMin)
	}
}
