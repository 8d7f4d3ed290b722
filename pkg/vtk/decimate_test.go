package vtk

import (
	"math"
	"testing"
)

// gridSurface builds a triangulated nx by ny height-field surface.
func gridSurface(nx, ny int) *PolyData {
	pd := NewPolyData()
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			h := float32(math.Sin(float64(x)*0.3) * math.Cos(float64(y)*0.3))
			pd.Points = append(pd.Points, [3]float32{float32(x), float32(y), h})
		}
	}
	for y := 0; y < ny-1; y++ {
		for x := 0; x < nx-1; x++ {
			a := y*nx + x
			b := a + 1
			c := a + nx
			d := c + 1
			pd.Polys = append(pd.Polys, []int{a, b, c}, []int{b, d, c})
		}
	}
	return pd
}

// TestQuadricDecimationReducesVertices verifies the filter approaches the
// requested reduction.
func TestQuadricDecimationReducesVertices(t *testing.T) {
	defer GC()
	pd := gridSurface(12, 12)
	defer pd.Delete()
	n := pd.NumPoints()

	filter := NewQuadricDecimation()
	defer filter.Delete()
	filter.SetInput(pd)
	filter.SetTargetReduction(0.5)
	filter.Update()

	out := filter.Output()
	target := int(math.Ceil(0.5 * float64(n)))
	if out.NumPoints() > target+5 {
		t.Errorf("decimated to %d vertices, want close to %d", out.NumPoints(), target)
	}
	if out.NumPoints() < 3 {
		t.Errorf("decimated to %d vertices, surface collapsed entirely", out.NumPoints())
	}
	if len(out.Polys) == 0 {
		t.Error("decimation produced no triangles")
	}
	for i, poly := range out.Polys {
		if len(poly) != 3 {
			t.Fatalf("output cell %d has %d vertices", i, len(poly))
		}
		for _, v := range poly {
			if v < 0 || v >= out.NumPoints() {
				t.Fatalf("output cell %d references vertex %d of %d", i, v, out.NumPoints())
			}
		}
	}
}

// TestQuadricDecimationZeroReduction verifies the documented behavior for a
// non-positive target reduction: no collapses, output equals input.
func TestQuadricDecimationZeroReduction(t *testing.T) {
	defer GC()
	pd := gridSurface(6, 6)
	defer pd.Delete()

	for _, reduction := range []float64{0, -0.5} {
		filter := NewQuadricDecimation()
		filter.SetInput(pd)
		filter.SetTargetReduction(reduction)
		filter.Update()
		out := filter.Output()
		if out.NumPoints() != pd.NumPoints() {
			t.Errorf("reduction %v changed vertex count to %d", reduction, out.NumPoints())
		}
		if len(out.Polys) != len(pd.Polys) {
			t.Errorf("reduction %v changed triangle count to %d", reduction, len(out.Polys))
		}
		filter.Delete()
	}
}

// TestQuadricDecimationPreservesShape checks the decimated surface stays
// near the original: every surviving vertex should be close to some input
// vertex.
func TestQuadricDecimationPreservesShape(t *testing.T) {
	defer GC()
	pd := gridSurface(10, 10)
	defer pd.Delete()

	filter := NewQuadricDecimation()
	defer filter.Delete()
	filter.SetInput(pd)
	filter.SetTargetReduction(0.4)
	filter.Update()

	for _, p := range filter.Output().Points {
		best := math.Inf(1)
		for _, q := range pd.Points {
			dx := float64(p[0] - q[0])
			dy := float64(p[1] - q[1])
			dz := float64(p[2] - q[2])
			if d := dx*dx + dy*dy + dz*dz; d < best {
				best = d
			}
		}
		if math.Sqrt(best) > 2.0 {
			t.Errorf("vertex %v drifted %.2f from the input surface", p, math.Sqrt(best))
		}
	}
}
