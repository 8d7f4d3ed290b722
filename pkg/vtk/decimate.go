package vtk

import (
	"container/heap"
	"math"

	"gonum.org/v1/gonum/mat"
)

// QuadricDecimation simplifies a triangulated polydata by iterative edge
// collapse, choosing at each step the collapse with the smallest quadric
// error. The target reduction r is interpreted against the input point
// count: collapsing stops once at most ceil((1-r) * n) vertices remain.
// The result approaches the target but is not guaranteed to reach it
// exactly, since collapses stop early when no usable edge remains.
//
// For a target reduction of zero or below the filter performs no collapses
// and the output is a copy of the input.
type QuadricDecimation struct {
	object

	input           *PolyData
	targetReduction float64
	output          *PolyData
}

// NewQuadricDecimation creates a pool-tracked decimation filter.
func NewQuadricDecimation() *QuadricDecimation {
	q := &QuadricDecimation{}
	q.id = register(0, func() { q.input, q.output = nil, nil })
	return q
}

// SetInput sets the polydata to simplify. Only triangle cells take part in
// the collapse; other cells are dropped from the output.
func (q *QuadricDecimation) SetInput(pd *PolyData) { q.input = pd }

// SetTargetReduction sets the requested reduction ratio.
func (q *QuadricDecimation) SetTargetReduction(r float64) { q.targetReduction = r }

// Output returns the simplified polydata produced by the last Update.
func (q *QuadricDecimation) Output() *PolyData { return q.output }

// edgeCandidate is a proposed collapse of vertex b into vertex a.
type edgeCandidate struct {
	cost       float64
	a, b       int
	pos        [3]float64
	verA, verB int // vertex versions at evaluation time
}

type candidateHeap []edgeCandidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].cost < h[j].cost }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(edgeCandidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Update runs the simplification.
func (q *QuadricDecimation) Update() {
	in := q.input
	out := newPolyDataOutput(q.id)
	q.output = out
	if in == nil {
		return
	}

	n := len(in.Points)
	pos := make([][3]float64, n)
	for i, p := range in.Points {
		pos[i] = [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
	}
	tris := make([][3]int, 0, len(in.Polys))
	for _, poly := range in.Polys {
		if len(poly) == 3 {
			tris = append(tris, [3]int{poly[0], poly[1], poly[2]})
		}
	}

	target := int(math.Ceil((1 - q.targetReduction) * float64(n)))
	if q.targetReduction <= 0 || target >= n || n == 0 {
		copyPolyData(in, out)
		return
	}

	// Per-vertex error quadrics: the sum of the fundamental plane quadrics
	// p p^T of every incident triangle.
	quadrics := make([]*mat.SymDense, n)
	for i := range quadrics {
		quadrics[i] = mat.NewSymDense(4, nil)
	}
	for _, t := range tris {
		p := trianglePlane(pos[t[0]], pos[t[1]], pos[t[2]])
		if p == [4]float64{} {
			continue
		}
		var k mat.SymDense
		k.SymOuterK(1, mat.NewVecDense(4, p[:]))
		for _, v := range t {
			quadrics[v].AddSym(quadrics[v], &k)
		}
	}

	// Triangle incidence and liveness.
	alive := make([]bool, n)
	version := make([]int, n)
	triOf := make([][]int, n)
	triLive := make([]bool, len(tris))
	for i := range triLive {
		triLive[i] = true
	}
	for ti, t := range tris {
		for _, v := range t {
			alive[v] = true
			triOf[v] = append(triOf[v], ti)
		}
	}
	// Vertices outside any triangle still count against the total.
	for i := range alive {
		if len(triOf[i]) == 0 {
			alive[i] = true
		}
	}
	remaining := 0
	for _, a := range alive {
		if a {
			remaining++
		}
	}

	h := &candidateHeap{}
	pushEdge := func(a, b int) {
		if a == b || !alive[a] || !alive[b] {
			return
		}
		cost, p := collapseCost(quadrics[a], quadrics[b], pos[a], pos[b])
		heap.Push(h, edgeCandidate{cost: cost, a: a, b: b, pos: p, verA: version[a], verB: version[b]})
	}
	seen := make(map[[2]int]bool)
	for _, t := range tris {
		for e := 0; e < 3; e++ {
			a, b := t[e], t[(e+1)%3]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			if !seen[key] {
				seen[key] = true
				pushEdge(a, b)
			}
		}
	}

	for remaining > target && h.Len() > 0 {
		c := heap.Pop(h).(edgeCandidate)
		if !alive[c.a] || !alive[c.b] || version[c.a] != c.verA || version[c.b] != c.verB {
			continue
		}

		// Collapse b into a at the optimal position.
		pos[c.a] = c.pos
		quadrics[c.a].AddSym(quadrics[c.a], quadrics[c.b])
		alive[c.b] = false
		version[c.a]++
		version[c.b]++
		remaining--

		// Remap b's triangles onto a, dropping the ones the collapse
		// degenerates.
		for _, ti := range triOf[c.b] {
			if !triLive[ti] {
				continue
			}
			t := &tris[ti]
			for k := 0; k < 3; k++ {
				if t[k] == c.b {
					t[k] = c.a
				}
			}
			if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
				triLive[ti] = false
			} else {
				triOf[c.a] = append(triOf[c.a], ti)
			}
		}
		triOf[c.b] = nil

		// Refresh candidate costs around the merged vertex.
		nbrs := make(map[int]bool)
		for _, ti := range triOf[c.a] {
			if !triLive[ti] {
				continue
			}
			for _, v := range tris[ti] {
				if v != c.a && alive[v] {
					nbrs[v] = true
				}
			}
		}
		for v := range nbrs {
			pushEdge(c.a, v)
		}
	}

	// Compact the surviving vertices and triangles.
	remap := make([]int, n)
	for i := range remap {
		remap[i] = -1
	}
	for i := 0; i < n; i++ {
		if alive[i] {
			remap[i] = len(out.Points)
			out.Points = append(out.Points, [3]float32{
				float32(pos[i][0]), float32(pos[i][1]), float32(pos[i][2]),
			})
		}
	}
	for ti, t := range tris {
		if !triLive[ti] {
			continue
		}
		out.Polys = append(out.Polys, []int{remap[t[0]], remap[t[1]], remap[t[2]]})
	}
}

func copyPolyData(src, dst *PolyData) {
	dst.Points = append([][3]float32(nil), src.Points...)
	dst.Polys = make([][]int, len(src.Polys))
	for i, p := range src.Polys {
		dst.Polys[i] = append([]int(nil), p...)
	}
}

// trianglePlane returns the plane (a, b, c, d) of a triangle with unit
// normal, or the zero plane for degenerate triangles.
func trianglePlane(p0, p1, p2 [3]float64) [4]float64 {
	u := [3]float64{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
	v := [3]float64{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
	nx := u[1]*v[2] - u[2]*v[1]
	ny := u[2]*v[0] - u[0]*v[2]
	nz := u[0]*v[1] - u[1]*v[0]
	l := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if l == 0 {
		return [4]float64{}
	}
	nx, ny, nz = nx/l, ny/l, nz/l
	d := -(nx*p0[0] + ny*p0[1] + nz*p0[2])
	return [4]float64{nx, ny, nz, d}
}

// collapseCost evaluates merging two vertices under the combined quadric.
// The optimal position solves the 3x3 linear system from the quadric's
// gradient; when that system is singular the cheaper of the two endpoints
// and their midpoint is used instead.
func collapseCost(qa, qb *mat.SymDense, pa, pb [3]float64) (float64, [3]float64) {
	var q mat.SymDense
	q.AddSym(qa, qb)

	a := mat.NewDense(3, 3, []float64{
		q.At(0, 0), q.At(0, 1), q.At(0, 2),
		q.At(1, 0), q.At(1, 1), q.At(1, 2),
		q.At(2, 0), q.At(2, 1), q.At(2, 2),
	})
	b := mat.NewVecDense(3, []float64{-q.At(0, 3), -q.At(1, 3), -q.At(2, 3)})

	var x mat.VecDense
	if err := x.SolveVec(a, b); err == nil {
		p := [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}
		return quadricError(&q, p), p
	}

	mid := [3]float64{(pa[0] + pb[0]) / 2, (pa[1] + pb[1]) / 2, (pa[2] + pb[2]) / 2}
	best, bestCost := pa, quadricError(&q, pa)
	if c := quadricError(&q, pb); c < bestCost {
		best, bestCost = pb, c
	}
	if c := quadricError(&q, mid); c < bestCost {
		best, bestCost = mid, c
	}
	return bestCost, best
}

// quadricError evaluates v^T Q v for the homogeneous point (p, 1).
func quadricError(q *mat.SymDense, p [3]float64) float64 {
	v := mat.NewVecDense(4, []float64{p[0], p[1], p[2], 1})
	var qv mat.VecDense
	qv.MulVec(q, v)
	return mat.Dot(v, &qv)
}
