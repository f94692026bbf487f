package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/cornerpoint/pkg/grid"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites grid script source before zygomys sees it:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal), so
//     keywords need not be registered as globals.
//
//  2. Kebab-case to underscore: cell-count -> cell_count. zygomys reads a
//     hyphen inside an identifier as subtraction.
//
//  3. ; line comments become // comments.
//
// String literals are copied unchanged.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// A hyphen between identifier characters; a minus operator has
		// whitespace or a digit after it.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpGrid is what `grid` and `layers` return to the script.
type sexpGrid struct {
	g *grid.Grid
}

func (s *sexpGrid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(grid %dx%dx%d)", s.g.NX, s.g.NY, s.g.NZ)
}
func (s *sexpGrid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Trailing keyword with no value.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// float returns the keyword value name as a float, or def when absent.
func (a kwArgs) float(name string, def float64) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// int returns the keyword value name as an int, or def when absent.
func (a kwArgs) int(name string, def int) (int, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a SexpInt or SexpFloat.
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a SexpInt or an integral SexpFloat.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toThicknesses flattens numbers and lists of numbers into layer
// thicknesses.
func toThicknesses(args []zygo.Sexp) ([]float64, error) {
	var out []float64
	for _, a := range args {
		switch a.(type) {
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(a)
			if err != nil {
				return nil, err
			}
			inner, err := toThicknesses(items)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
			continue
		}
		f, err := toFloat64(a)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, fmt.Errorf("negative thickness %g", f)
		}
		out = append(out, f)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Script state
// ---------------------------------------------------------------------------

// script is the grid under construction. The builtins close over it.
type script struct {
	g      *grid.Grid
	dx, dy float64
	top    float64
	// edited is set once a builtin has changed depths or activity; the
	// layering can no longer be replaced after that.
	edited bool
	// order of the explicit cell map, empty for none. It is applied by
	// finish so later activity changes are taken into account.
	order string
}

// finish applies the deferred cell map and returns the grid. A script that
// never called grid yields an empty grid.
func (s *script) finish() *grid.Grid {
	if s.g == nil {
		return grid.New(0, 0, 0)
	}
	if s.order == "" {
		return s.g
	}
	m, n := s.g.CompactMap()
	if s.order == "reverse" {
		for idx, slot := range m {
			if slot != grid.Inactive {
				m[idx] = int32(n-1) - slot
			}
		}
	}
	s.g.CellMap = m
	return s.g
}

func (s *script) current(name string) (*grid.Grid, error) {
	if s.g == nil {
		return nil, fmt.Errorf("%s: no grid defined, call (grid ...) first", name)
	}
	return s.g, nil
}

// cell reads three positional or :i :j :k keyword indices and checks them
// against the grid.
func (s *script) cell(name string, args []zygo.Sexp) (int, int, int, error) {
	g, err := s.current(name)
	if err != nil {
		return 0, 0, 0, err
	}
	pa := parseArgs(args)
	idx := [3]int{}
	for n, key := range []string{"i", "j", "k"} {
		if n < len(pa.positional) {
			if idx[n], err = toInt(pa.positional[n]); err != nil {
				return 0, 0, 0, fmt.Errorf("%s: %s: %w", name, key, err)
			}
			continue
		}
		if _, ok := pa.kw[key]; !ok {
			return 0, 0, 0, fmt.Errorf("%s requires i, j and k", name)
		}
		if idx[n], err = pa.int(key, 0); err != nil {
			return 0, 0, 0, fmt.Errorf("%s: %w", name, err)
		}
	}
	i, j, k := idx[0], idx[1], idx[2]
	if i < 0 || i >= g.NX || j < 0 || j >= g.NY || k < 0 || k >= g.NZ {
		return 0, 0, 0, fmt.Errorf("%s: cell (%d,%d,%d) outside %dx%dx%d grid", name, i, j, k, g.NX, g.NY, g.NZ)
	}
	return i, j, k, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the grid DSL builtins into a zygomys
// environment. They build up s during evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are recognizable.
func registerBuiltins(env *zygo.Zlisp, s *script) {

	// -----------------------------------------------------------------------
	// (grid :nx 3 :ny 2 :nz 4 :dx 100 :dy 100 :dz 10 :top 1000)
	// (grid :nx 3 :ny 2 :layers (list 10 5 20))
	// -----------------------------------------------------------------------
	env.AddFunction("grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var dims [3]int
		for n, key := range []string{"nx", "ny", "nz"} {
			v, err := pa.int(key, 1)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: %w", err)
			}
			if v < 0 {
				return zygo.SexpNull, fmt.Errorf("grid: %s must not be negative, got %d", key, v)
			}
			dims[n] = v
		}
		var size [4]float64
		for n, key := range []string{"dx", "dy", "dz", "top"} {
			def := 1.0
			if key == "top" {
				def = 0
			}
			v, err := pa.float(key, def)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: %w", err)
			}
			size[n] = v
		}
		if size[0] <= 0 || size[1] <= 0 {
			return zygo.SexpNull, fmt.Errorf("grid: dx and dy must be positive")
		}
		if size[2] < 0 {
			return zygo.SexpNull, fmt.Errorf("grid: dz must not be negative")
		}

		thickness := make([]float64, dims[2])
		for k := range thickness {
			thickness[k] = size[2]
		}
		if v, ok := pa.kw["layers"]; ok {
			t, err := toThicknesses([]zygo.Sexp{v})
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: layers: %w", err)
			}
			thickness = t
		}

		s.dx, s.dy, s.top = size[0], size[1], size[3]
		s.g = grid.NewLayered(dims[0], dims[1], s.dx, s.dy, s.top, thickness)
		s.edited = false
		s.order = ""
		return &sexpGrid{g: s.g}, nil
	})

	// -----------------------------------------------------------------------
	// (layers 10 5 20) - replace the layering of the current grid
	// -----------------------------------------------------------------------
	env.AddFunction("layers", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		g, err := s.current(name)
		if err != nil {
			return zygo.SexpNull, err
		}
		if s.edited {
			return zygo.SexpNull, fmt.Errorf("layers: must come before any edit of the grid")
		}
		t, err := toThicknesses(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("layers: %w", err)
		}
		s.g = grid.NewLayered(g.NX, g.NY, s.dx, s.dy, s.top, t)
		return &sexpGrid{g: s.g}, nil
	})

	// -----------------------------------------------------------------------
	// (fault :i 2 :throw 15) - shift the columns with i >= 2 down by 15
	// (fault :j 1 :throw -3)
	// -----------------------------------------------------------------------
	env.AddFunction("fault", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		g, err := s.current(name)
		if err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		i, err := pa.int("i", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fault: %w", err)
		}
		j, err := pa.int("j", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fault: %w", err)
		}
		if _, ok := pa.kw["throw"]; !ok {
			return zygo.SexpNull, fmt.Errorf("fault requires :throw")
		}
		throw, err := pa.float("throw", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fault: %w", err)
		}
		if i < 0 || i >= g.NX || j < 0 || j >= g.NY {
			return zygo.SexpNull, fmt.Errorf("fault: column (%d,%d) outside %dx%d grid", i, j, g.NX, g.NY)
		}
		g.ShiftColumns(i, j, throw)
		s.edited = true
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (scissor :i 1 :throw 5) - rotate the columns with i >= 1
	// -----------------------------------------------------------------------
	env.AddFunction("scissor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		g, err := s.current(name)
		if err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		i, err := pa.int("i", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scissor: %w", err)
		}
		if _, ok := pa.kw["throw"]; !ok {
			return zygo.SexpNull, fmt.Errorf("scissor requires :throw")
		}
		throw, err := pa.float("throw", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scissor: %w", err)
		}
		if i < 0 || i >= g.NX {
			return zygo.SexpNull, fmt.Errorf("scissor: column %d outside %dx%d grid", i, g.NX, g.NY)
		}
		g.Scissor(i, throw)
		s.edited = true
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (tilt 0.05) or (tilt :slope 0.05)
	// -----------------------------------------------------------------------
	env.AddFunction("tilt", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		g, err := s.current(name)
		if err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		var slope float64
		switch {
		case len(pa.positional) > 0:
			slope, err = toFloat64(pa.positional[0])
		default:
			if _, ok := pa.kw["slope"]; !ok {
				return zygo.SexpNull, fmt.Errorf("tilt requires a slope")
			}
			slope, err = pa.float("slope", 0)
		}
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tilt: %w", err)
		}
		g.Tilt(slope)
		s.edited = true
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (pinch 0 0 2) - collapse cell (0,0,2) to zero thickness
	// -----------------------------------------------------------------------
	env.AddFunction("pinch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		i, j, k, err := s.cell(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		s.g.Pinch(i, j, k)
		s.edited = true
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (inactive 1 1 0) / (active 1 1 0)
	// -----------------------------------------------------------------------
	setActive := func(active bool) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			i, j, k, err := s.cell(name, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			s.g.SetActive(i, j, k, active)
			s.edited = true
			return zygo.SexpNull, nil
		}
	}
	env.AddFunction("inactive", setActive(false))
	env.AddFunction("active", setActive(true))

	// -----------------------------------------------------------------------
	// (cell-map :order :reverse) - give the active cells explicit slots
	// -----------------------------------------------------------------------
	env.AddFunction("cell_map", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if _, err := s.current("cell-map"); err != nil {
			return zygo.SexpNull, err
		}
		order := "linear"
		if v, ok := parseArgs(args).kw["order"]; ok {
			var err error
			if order, err = toKeywordString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("cell-map: order: %w", err)
			}
		}
		if order != "linear" && order != "reverse" {
			return zygo.SexpNull, fmt.Errorf("cell-map: unknown order %q, expected linear or reverse", order)
		}
		s.order = order
		return zygo.SexpNull, nil
	})
}
