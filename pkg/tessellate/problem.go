package tessellate

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// WallDir tells along which grid direction a wall runs.
type WallDir uint8

const (
	WallAlongJ WallDir = iota // from pillar (i,j) to (i,j+1), between columns i-1 and i
	WallAlongI                // from pillar (i,j) to (i+1,j), between columns j-1 and j
)

func (d WallDir) String() string {
	if d == WallAlongI {
		return "i"
	}
	return "j"
}

// WallID names a wall by its first pillar and direction.
type WallID struct {
	I, J int
	Dir  WallDir
}

func (w WallID) String() string {
	return fmt.Sprintf("wall (%d,%d) along %s", w.I, w.J, w.Dir)
}

// ProblemKind classifies a recoverable wall failure.
type ProblemKind uint8

const (
	// ProblemDegenerateIntersection: a crossing with zero denominator or a
	// parameter outside (0,1).
	ProblemDegenerateIntersection ProblemKind = iota
	// ProblemUnresolvedCrossing: no crossing could be applied to a pair of
	// adjacent wall lines.
	ProblemUnresolvedCrossing
)

func (k ProblemKind) String() string {
	switch k {
	case ProblemDegenerateIntersection:
		return "degenerate intersection"
	case ProblemUnresolvedCrossing:
		return "unresolved crossing"
	default:
		return fmt.Sprintf("ProblemKind(%d)", int(k))
	}
}

// Problem describes a wall that was skipped. The mesh has a hole there.
type Problem struct {
	Kind    ProblemKind
	Wall    WallID
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Wall, p.Kind, p.Message)
}

func (s *sweep) report(p Problem) {
	s.problems = append(s.problems, p)
	s.log.WithFields(logrus.Fields{
		"i":    p.Wall.I,
		"j":    p.Wall.J,
		"wall": p.Wall.Dir.String(),
		"kind": p.Kind.String(),
	}).Warn(p.Message)
}
