package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/chazu/cornerpoint/pkg/engine"
	"github.com/chazu/cornerpoint/pkg/export"
	"github.com/chazu/cornerpoint/pkg/grid"
	"github.com/chazu/cornerpoint/pkg/mesh"
	"github.com/chazu/cornerpoint/pkg/tessellate"
)

// App runs the pipeline from a grid script to a tessellated mesh. The CLI
// commands are thin wrappers around it.
type App struct {
	engine *engine.Engine
	opts   tessellate.Options
	log    logrus.FieldLogger
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Where   string `json:"where,omitempty"`
	Message string `json:"message"`
}

func (e EvalErrorData) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ProblemData is a JSON-serializable skipped wall.
type ProblemData struct {
	I    int    `json:"i"`
	J    int    `json:"j"`
	Wall string `json:"wall"`
	Kind string `json:"kind"`

	Message string `json:"message"`
}

// EvalResult is the full result of one pipeline run.
type EvalResult struct {
	Grid     string           `json:"grid,omitempty"`
	Mesh     *export.Document `json:"mesh,omitempty"`
	Errors   []EvalErrorData  `json:"errors"`
	Warnings []EvalErrorData  `json:"warnings"`
	Problems []ProblemData    `json:"problems"`
	Parts    []mesh.Part      `json:"parts"`

	Intersections int `json:"intersections"`
	Walls         int `json:"walls"`

	// mesh is the tessellation behind Mesh, kept for the exporters.
	mesh *mesh.Mesh
}

// OK reports whether the run produced a mesh.
func (r EvalResult) OK() bool {
	return len(r.Errors) == 0 && r.mesh != nil
}

// NewApp creates an App with its own engine. A nil opts.Logger selects
// the logrus standard logger.
func NewApp(opts tessellate.Options) *App {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &App{
		engine: engine.NewEngine(),
		opts:   opts,
		log:    opts.Logger,
	}
}

// Load evaluates a grid script and runs every validation tier on the
// result. Evaluation errors and blocking validation findings come back as
// errors; the grid is nil then.
func (a *App) Load(source string) (*grid.Grid, []EvalErrorData, []EvalErrorData) {
	g, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.WithError(err).Error("evaluate")
		return nil, []EvalErrorData{{Message: err.Error()}}, nil
	}
	if len(evalErrs) > 0 {
		errs := make([]EvalErrorData, 0, len(evalErrs))
		for _, e := range evalErrs {
			errs = append(errs, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return nil, errs, nil
	}

	vr := grid.ValidateAll(g)
	var errs, warnings []EvalErrorData
	for _, e := range vr.Errors {
		errs = append(errs, EvalErrorData{Where: e.Where, Message: e.Message})
	}
	for _, w := range vr.Warnings {
		warnings = append(warnings, EvalErrorData{Where: w.Where, Message: w.Message})
	}
	if len(errs) > 0 {
		return nil, errs, warnings
	}
	return g, nil, warnings
}

// Evaluate takes a grid script and returns the tessellated mesh with any
// errors, warnings and skipped walls.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
		Problems: []ProblemData{},
		Parts:    []mesh.Part{},
	}

	// Step 1: script to validated grid.
	g, errs, warnings := a.Load(source)
	result.Warnings = append(result.Warnings, warnings...)
	if len(errs) > 0 {
		result.Errors = append(result.Errors, errs...)
		return result
	}
	result.Grid = g.String()

	// Step 2: tessellate.
	res, err := tessellate.Tessellate(g, a.opts)
	if err != nil {
		a.log.WithError(err).Error("tessellate")
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 3: skipped walls become warnings as well as problems.
	for _, p := range res.Problems {
		result.Problems = append(result.Problems, ProblemData{
			I:       p.Wall.I,
			J:       p.Wall.J,
			Wall:    p.Wall.Dir.String(),
			Kind:    p.Kind.String(),
			Message: p.Message,
		})
		result.Warnings = append(result.Warnings, EvalErrorData{
			Where:   p.Wall.String(),
			Message: p.Kind.String() + ": " + p.Message,
		})
	}

	doc := export.NewDocument(res.Mesh)
	result.Mesh = &doc
	result.Parts = append(result.Parts, mesh.Parts(res.Mesh)...)
	result.Intersections = res.Intersections
	result.Walls = res.Walls
	result.mesh = res.Mesh
	return result
}

// Export writes the mesh of a successful run to each path, picking the
// format from the file extension.
func (a *App) Export(result EvalResult, paths ...string) error {
	if !result.OK() {
		return fmt.Errorf("no mesh to export")
	}
	for _, path := range paths {
		e, err := export.ForPath(path)
		if err != nil {
			return err
		}
		if err := e.Export(result.mesh, path); err != nil {
			return err
		}
		a.log.WithFields(logrus.Fields{
			"format": e.Name(),
			"path":   path,
		}).Info("wrote mesh")
	}
	return nil
}
