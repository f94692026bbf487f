package grid

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestIndexing(t *testing.T) {
	g := New(3, 2, 4)

	t.Run("cell index round trip", func(t *testing.T) {
		for idx := 0; idx < g.CellCount(); idx++ {
			i, j, k := g.CellIJK(idx)
			if got := g.CellIndex(i, j, k); got != idx {
				t.Errorf("CellIndex(CellIJK(%d)) = %d", idx, got)
			}
		}
	})

	t.Run("zcorn covers every slot once", func(t *testing.T) {
		seen := make([]bool, len(g.ZCorn))
		for k := 0; k < g.NZ; k++ {
			for j := 0; j < g.NY; j++ {
				for i := 0; i < g.NX; i++ {
					g.forCorners(i, j, k, func(idx int) {
						if seen[idx] {
							t.Errorf("zcorn %d visited twice", idx)
						}
						seen[idx] = true
					})
				}
			}
		}
		for idx, ok := range seen {
			if !ok {
				t.Errorf("zcorn %d never visited", idx)
			}
		}
	})

	t.Run("zcorn layout", func(t *testing.T) {
		tests := []struct {
			i, j, k, a, b, c int
			want             int
		}{
			{0, 0, 0, 0, 0, 0, 0},
			{0, 0, 0, 1, 0, 0, 1},
			{1, 0, 0, 0, 0, 0, 2},
			{0, 0, 0, 0, 1, 0, 6},
			{0, 1, 0, 0, 0, 0, 12},
			{0, 0, 0, 0, 0, 1, 24},
			{0, 0, 1, 0, 0, 0, 48},
		}
		for _, tt := range tests {
			if got := g.ZCornIndex(tt.i, tt.j, tt.k, tt.a, tt.b, tt.c); got != tt.want {
				t.Errorf("ZCornIndex(%d,%d,%d,%d,%d,%d) = %d, want %d",
					tt.i, tt.j, tt.k, tt.a, tt.b, tt.c, got, tt.want)
			}
		}
	})

	t.Run("active column view", func(t *testing.T) {
		v := g.ActiveColumn(2, 1)
		for k := 0; k < g.NZ; k++ {
			if got, want := v.Index(k), g.CellIndex(2, 1, k); got != want {
				t.Errorf("Index(%d) = %d, want %d", k, got, want)
			}
		}
		if !v.Fits(len(g.ActNum)) {
			t.Error("view does not fit its own grid")
		}
		if v.Fits(len(g.ActNum) - 1) {
			t.Error("view fits a shorter array")
		}
	})
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name string
		a, b v3.Vec
		z    float64
		want v3.Vec
	}{
		{"vertical", v3.Vec{X: 1, Y: 2, Z: 0}, v3.Vec{X: 1, Y: 2, Z: 10}, 4, v3.Vec{X: 1, Y: 2, Z: 4}},
		{"slanted midpoint", v3.Vec{X: 0, Y: 0, Z: 0}, v3.Vec{X: 2, Y: 4, Z: 10}, 5, v3.Vec{X: 1, Y: 2, Z: 5}},
		{"extrapolated", v3.Vec{X: 0, Y: 0, Z: 0}, v3.Vec{X: 1, Y: 0, Z: 1}, -1, v3.Vec{X: -1, Y: 0, Z: -1}},
		{"flat anchors", v3.Vec{X: 3, Y: 3, Z: 1}, v3.Vec{X: 5, Y: 5, Z: 1}, 7, v3.Vec{X: 3, Y: 3, Z: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpolate(tt.a, tt.b, tt.z)
			if got.Sub(tt.want).Length() > 1e-12 {
				t.Errorf("Interpolate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompactMap(t *testing.T) {
	g := New(2, 2, 1)
	g.ActNum = []int32{1, 0, 1, 1}

	m, n := g.CompactMap()
	if n != 3 {
		t.Fatalf("slots = %d, want 3", n)
	}
	want := []int32{0, Inactive, 1, 2}
	for idx := range want {
		if m[idx] != want[idx] {
			t.Errorf("map[%d] = %d, want %d", idx, m[idx], want[idx])
		}
	}

	g.CellMap = []int32{2, Inactive, 0, 1}
	m, n = g.CompactMap()
	if n != 3 || m[0] != 2 {
		t.Errorf("explicit map: slots = %d, map = %v", n, m)
	}
}

func TestNewBox(t *testing.T) {
	g := NewBox(2, 3, 2, 10, 20, 5, 100)
	if errs := Validate(g); len(errs) != 0 {
		t.Fatalf("Validate() = %v", errs)
	}
	top, bottom := g.Pillar(2, 3)
	if top != (v3.Vec{X: 20, Y: 60, Z: 100}) || bottom != (v3.Vec{X: 20, Y: 60, Z: 110}) {
		t.Errorf("Pillar(2,3) = %v, %v", top, bottom)
	}
	if got := g.Depth(1, 2, 1, 1, 1, 0); got != 105 {
		t.Errorf("second layer top = %g, want 105", got)
	}
	if got := g.Depth(1, 2, 1, 0, 0, 1); got != 110 {
		t.Errorf("second layer bottom = %g, want 110", got)
	}
	p := g.PointAt(1, 1, 107)
	if p != (v3.Vec{X: 10, Y: 20, Z: 107}) {
		t.Errorf("PointAt(1,1,107) = %v", p)
	}
}

func TestBuilders(t *testing.T) {
	t.Run("shift columns", func(t *testing.T) {
		g := NewBox(2, 2, 1, 1, 1, 1, 0)
		g.ShiftColumns(1, 1, 3)
		if got := g.Depth(1, 1, 0, 0, 0, 0); got != 3 {
			t.Errorf("shifted depth = %g, want 3", got)
		}
		if got := g.Depth(0, 1, 0, 1, 0, 0); got != 0 {
			t.Errorf("unshifted depth = %g, want 0", got)
		}
	})

	t.Run("scissor", func(t *testing.T) {
		g := NewBox(2, 1, 1, 1, 1, 10, 0)
		g.Scissor(1, 5)
		if got := g.Depth(1, 0, 0, 0, 0, 0); got != 5 {
			t.Errorf("depth at b=0 = %g, want 5", got)
		}
		if got := g.Depth(1, 0, 0, 0, 1, 1); got != 5 {
			t.Errorf("depth at b=1 = %g, want 5", got)
		}
		if got := g.Depth(0, 0, 0, 1, 0, 0); got != 0 {
			t.Errorf("left column moved: %g", got)
		}
	})

	t.Run("pinch", func(t *testing.T) {
		g := NewBox(1, 1, 1, 1, 1, 2, 0)
		g.Pinch(0, 0, 0)
		for b := 0; b < 2; b++ {
			for a := 0; a < 2; a++ {
				if g.Depth(0, 0, 0, a, b, 1) != g.Depth(0, 0, 0, a, b, 0) {
					t.Errorf("corner (%d,%d) not collapsed", a, b)
				}
			}
		}
	})

	t.Run("tilt", func(t *testing.T) {
		g := NewBox(2, 1, 1, 1, 1, 1, 0)
		g.Tilt(0.5)
		if got := g.Depth(1, 0, 0, 1, 0, 1); got != 2 {
			t.Errorf("tilted depth at x=2 = %g, want 2", got)
		}
		top, _ := g.Pillar(2, 0)
		if top.Z != 1 {
			t.Errorf("tilted pillar top = %g, want 1", top.Z)
		}
		// Corners still lie on their pillars at the same point.
		p := g.PointAt(2, 0, g.Depth(1, 0, 0, 1, 0, 0))
		if math.Abs(p.X-2) > 1e-12 {
			t.Errorf("corner moved off pillar: %v", p)
		}
	})

	t.Run("layered", func(t *testing.T) {
		g := NewLayered(1, 1, 1, 1, 100, []float64{2, 0, 3})
		if g.NZ != 3 {
			t.Fatalf("NZ = %d, want 3", g.NZ)
		}
		want := [][2]float64{{100, 102}, {102, 102}, {102, 105}}
		for k, w := range want {
			if got := [2]float64{g.Depth(0, 0, k, 1, 1, 0), g.Depth(0, 0, k, 1, 1, 1)}; got != w {
				t.Errorf("layer %d depths = %v, want %v", k, got, w)
			}
		}
		_, bottom := g.Pillar(1, 1)
		if bottom.Z != 105 {
			t.Errorf("pillar bottom = %g, want 105", bottom.Z)
		}
	})

	t.Run("set active", func(t *testing.T) {
		g := NewBox(1, 1, 2, 1, 1, 1, 0)
		g.SetActive(0, 0, 1, false)
		if g.Active(0, 0, 1) || !g.Active(0, 0, 0) {
			t.Errorf("ActNum = %v", g.ActNum)
		}
	})
}
