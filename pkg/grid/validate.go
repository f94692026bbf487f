package grid

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a validation finding blocks
// tessellation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks tessellation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Where    string             // "cell (i,j,k)", "pillar (i,j)" or empty for grid-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Where, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Where   string
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether the result holds no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks on the grid and returns the
// findings. An empty slice means the arrays are consistent with the
// dimensions and with each other. Validate never mutates the grid.
func Validate(g *Grid) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDimensions(g)...)
	if len(errs) > 0 {
		// Array checks below index by the dimensions.
		return errs
	}
	errs = append(errs, validateLengths(g)...)
	if len(errs) > 0 {
		return errs
	}
	errs = append(errs, validateCellMap(g)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and returns a
// ValidationResult with separated errors and warnings.
func ValidateAll(g *Grid) ValidationResult {
	var result ValidationResult
	result.Errors = append(result.Errors, Validate(g)...)
	if len(result.Errors) > 0 {
		return result
	}
	result.Warnings = append(result.Warnings, validatePillars(g)...)
	result.Warnings = append(result.Warnings, validateThickness(g)...)
	return result
}

// ---------------------------------------------------------------------------
// Tier 1: structural
// ---------------------------------------------------------------------------

func validateDimensions(g *Grid) []ValidationError {
	if g.NX < 0 || g.NY < 0 || g.NZ < 0 {
		return []ValidationError{{
			Message:  fmt.Sprintf("negative dimensions %dx%dx%d", g.NX, g.NY, g.NZ),
			Severity: SeverityError,
		}}
	}
	return nil
}

func validateLengths(g *Grid) []ValidationError {
	var errs []ValidationError
	check := func(name string, got, want int) {
		if got != want {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("%s has %d values, want %d", name, got, want),
				Severity: SeverityError,
			})
		}
	}
	check("coord", len(g.Coord), 6*g.PillarCount())
	check("zcorn", len(g.ZCorn), 8*g.CellCount())
	check("actnum", len(g.ActNum), g.CellCount())
	if g.CellMap != nil {
		check("cell_map", len(g.CellMap), g.CellCount())
	}
	return errs
}

// validateCellMap checks that the compaction map sends exactly the active
// cells to distinct slots in [0, active count).
func validateCellMap(g *Grid) []ValidationError {
	if g.CellMap == nil {
		return nil
	}
	var errs []ValidationError
	active := lo.CountBy(g.ActNum, func(a int32) bool { return a != 0 })

	for idx, slot := range g.CellMap {
		i, j, k := g.CellIJK(idx)
		where := fmt.Sprintf("cell (%d,%d,%d)", i, j, k)
		switch {
		case g.ActNum[idx] == 0 && slot != Inactive:
			errs = append(errs, ValidationError{
				Where:    where,
				Message:  fmt.Sprintf("inactive cell mapped to slot %d", slot),
				Severity: SeverityError,
			})
		case g.ActNum[idx] != 0 && (slot < 0 || int(slot) >= active):
			errs = append(errs, ValidationError{
				Where:    where,
				Message:  fmt.Sprintf("active cell mapped to slot %d, want [0,%d)", slot, active),
				Severity: SeverityError,
			})
		}
	}

	slots := lo.Filter(g.CellMap, func(s int32, _ int) bool { return s != Inactive })
	for _, dup := range lo.FindDuplicates(slots) {
		errs = append(errs, ValidationError{
			Message:  fmt.Sprintf("slot %d is used by more than one cell", dup),
			Severity: SeverityError,
		})
	}
	return errs
}

// ---------------------------------------------------------------------------
// Tier 2: geometric warnings
// ---------------------------------------------------------------------------

// validatePillars warns about pillars whose anchors coincide or share the
// same depth. Such pillars are treated as vertical through the top anchor.
func validatePillars(g *Grid) []ValidationWarning {
	var warnings []ValidationWarning
	for j := 0; j <= g.NY; j++ {
		for i := 0; i <= g.NX; i++ {
			top, bottom := g.Pillar(i, j)
			if math.Abs(bottom.Z-top.Z) < 1e-12 {
				warnings = append(warnings, ValidationWarning{
					Where:   fmt.Sprintf("pillar (%d,%d)", i, j),
					Message: "anchors share the same depth; pillar treated as vertical",
				})
			}
		}
	}
	return warnings
}

// validateThickness warns about active cells whose second depth lies above
// the first at some corner, relative to the majority direction of the grid.
func validateThickness(g *Grid) []ValidationWarning {
	var up, down int
	for idx := 0; idx < g.CellCount(); idx++ {
		i, j, k := g.CellIJK(idx)
		for b := 0; b < 2; b++ {
			for a := 0; a < 2; a++ {
				d := g.Depth(i, j, k, a, b, 1) - g.Depth(i, j, k, a, b, 0)
				if d > 0 {
					down++
				} else if d < 0 {
					up++
				}
			}
		}
	}
	increasing := down >= up

	var warnings []ValidationWarning
	for idx, act := range g.ActNum {
		if act == 0 {
			continue
		}
		i, j, k := g.CellIJK(idx)
		inverted := false
		for b := 0; b < 2 && !inverted; b++ {
			for a := 0; a < 2; a++ {
				d := g.Depth(i, j, k, a, b, 1) - g.Depth(i, j, k, a, b, 0)
				if (increasing && d < 0) || (!increasing && d > 0) {
					inverted = true
					break
				}
			}
		}
		if inverted {
			warnings = append(warnings, ValidationWarning{
				Where:   fmt.Sprintf("cell (%d,%d,%d)", i, j, k),
				Message: "corner depths are inverted relative to the rest of the grid",
			})
		}
	}
	return warnings
}
