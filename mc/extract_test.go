// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package mc

import (
	"math"
	"math/bits"
	"sort"
	"testing"

	"github.com/kv260/marchingcubes/mesh"
	"github.com/kv260/marchingcubes/volume"
	"golang.org/x/exp/slices"
)

func makeVolume(nx, ny, nz int, f func(x, y, z int) float32) *volume.Volume {
	v := &volume.Volume{NX: nx, NY: ny, NZ: nz, Data: make([]float32, nx*ny*nz)}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v.Data[z*ny*nx+y*nx+x] = f(x, y, z)
			}
		}
	}
	return v
}

// S1 — Empty sphere: all-zero volume, iso above every sample.
func TestExtractS1EmptyVolume(t *testing.T) {
	v := makeVolume(4, 4, 4, func(x, y, z int) float32 { return 0 })
	m := Extract(v, 0.5)
	if len(m.Vertices) != 0 || len(m.Triangles) != 0 {
		t.Fatalf("S1: got %d vertices, %d triangles; want 0, 0", len(m.Vertices), len(m.Triangles))
	}
}

// S2 — Single positive corner: case 254 (the complement of case 1, since
// bits mark corners below iso), edges {0,3,8}, one triangle.
func TestExtractS2SingleCorner(t *testing.T) {
	v := makeVolume(2, 2, 2, func(x, y, z int) float32 {
		if x == 0 && y == 0 && z == 0 {
			return 1
		}
		return 0
	})
	m := Extract(v, 0.5)
	if len(m.Vertices) != 3 {
		t.Fatalf("S2: got %d vertices, want 3", len(m.Vertices))
	}
	if len(m.Triangles) != 1 {
		t.Fatalf("S2: got %d triangles, want 1", len(m.Triangles))
	}
	if !m.Valid() {
		t.Fatal("S2: mesh is not valid")
	}
}

// S3 — Axis-aligned plane.
func TestExtractS3AxisAlignedPlane(t *testing.T) {
	v := makeVolume(3, 3, 3, func(x, y, z int) float32 { return float32(z) - 1 })
	m := Extract(v, 0.5)
	want := 2 * (3 - 1) * (3 - 1)
	if len(m.Triangles) != want {
		t.Fatalf("S3: got %d triangles, want %d", len(m.Triangles), want)
	}
	for _, vert := range m.Vertices {
		if vert.Z < 0.5 || vert.Z > 1.5 {
			t.Fatalf("S3: vertex Z=%v outside [0.5,1.5]", vert.Z)
		}
	}
}

// S4 — Sphere.
func TestExtractS4Sphere(t *testing.T) {
	const cx, cy, cz, r = 16, 16, 16, 10
	sample := func(x, y, z int) float32 {
		dx, dy, dz := float64(x-cx), float64(y-cy), float64(z-cz)
		return float32(r - math.Sqrt(dx*dx+dy*dy+dz*dz))
	}
	v := makeVolume(32, 32, 32, sample)
	m := Extract(v, 0)
	if len(m.Triangles) <= 2000 {
		t.Fatalf("S4: got %d triangles, want > 2000", len(m.Triangles))
	}
	for _, vert := range m.Vertices {
		dx, dy, dz := float64(vert.X-cx), float64(vert.Y-cy), float64(vert.Z-cz)
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if math.Abs(dist-r) > 0.5 {
			t.Fatalf("S4: vertex %+v at distance %v from center, want within 0.5 of %v", vert, dist, r)
		}
	}

	inner := Extract(v, 1e-3)
	if len(inner.Triangles) == 0 {
		t.Fatal("S4: iso=eps>0 mesh is empty, want non-empty")
	}
	for _, vert := range inner.Vertices {
		dx, dy, dz := float64(vert.X-cx), float64(vert.Y-cy), float64(vert.Z-cz)
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if dist > r+0.5 {
			t.Fatalf("S4: inner-iso vertex %+v at distance %v, want <= %v", vert, dist, r+0.5)
		}
	}
}

// Invariant 1: triangle indices in range and pairwise distinct.
func TestExtractInvariant1ValidTriangles(t *testing.T) {
	v := makeVolume(8, 8, 8, func(x, y, z int) float32 {
		return float32(x+y+z) - 10
	})
	m := Extract(v, 0)
	if !m.Valid() {
		t.Fatal("invariant 1 violated: mesh has out-of-range or degenerate triangles")
	}
}

// Invariant 3: per-cell vertex/triangle counts match the tables.
func TestExtractInvariant3PerCellCounts(t *testing.T) {
	v := makeVolume(2, 2, 2, func(x, y, z int) float32 {
		if x == 0 && y == 0 && z == 0 {
			return 1
		}
		return 0
	})
	m := Extract(v, 0.5)
	var corners [8]float32
	corners[0] = 1
	c := classify(&corners, 0.5)
	wantVerts := bits.OnesCount16(edgeMask[c])
	wantTris := 0
	for i := 0; i+2 < 16; i += 3 {
		if triTable[c][i] == -1 {
			break
		}
		wantTris++
	}
	if len(m.Vertices) != wantVerts {
		t.Fatalf("invariant 3: got %d vertices, want %d", len(m.Vertices), wantVerts)
	}
	if len(m.Triangles) != wantTris {
		t.Fatalf("invariant 3: got %d triangles, want %d", len(m.Triangles), wantTris)
	}
}

// Invariant 4: uniformly above or below iso gives an empty mesh.
func TestExtractInvariant4UniformVolume(t *testing.T) {
	above := makeVolume(5, 5, 5, func(x, y, z int) float32 { return 10 })
	below := makeVolume(5, 5, 5, func(x, y, z int) float32 { return -10 })
	for _, v := range []*volume.Volume{above, below} {
		m := Extract(v, 0)
		if len(m.Vertices) != 0 || len(m.Triangles) != 0 {
			t.Fatalf("invariant 4: uniform volume produced %d vertices, %d triangles", len(m.Vertices), len(m.Triangles))
		}
	}
}

// Invariant 5: sign-flip symmetry. Samples and iso are multiples of
// 1/16, so 2*iso-v is exact in float32 and both extractions compute
// bit-identical vertices; iso*16 = 7 is not a sum of three squares, so
// no sample lies exactly on iso.
func TestExtractInvariant5SignFlipSymmetry(t *testing.T) {
	const iso = float32(0.4375)
	v := makeVolume(6, 6, 6, func(x, y, z int) float32 {
		return float32(x*x+y*y+z*z) / 16
	})
	flipped := makeVolume(6, 6, 6, func(x, y, z int) float32 {
		return 2*iso - v.At(x, y, z)
	})

	m1 := Extract(v, iso)
	m2 := Extract(flipped, iso)

	if len(m1.Triangles) != len(m2.Triangles) {
		t.Fatalf("invariant 5: triangle counts differ: %d vs %d", len(m1.Triangles), len(m2.Triangles))
	}
	if !sameVertexMultiset(t, m1.Vertices, m2.Vertices) {
		t.Fatal("invariant 5: vertex multisets differ")
	}
}

// Invariant 7: any dimension below 2 gives an empty mesh.
func TestExtractInvariant7TooSmall(t *testing.T) {
	for _, dims := range [][3]int{{1, 4, 4}, {4, 1, 4}, {4, 4, 1}, {0, 4, 4}} {
		v := makeVolume(dims[0], dims[1], dims[2], func(x, y, z int) float32 { return 1 })
		m := Extract(v, 0.5)
		if len(m.Vertices) != 0 || len(m.Triangles) != 0 {
			t.Fatalf("invariant 7: dims %v produced a non-empty mesh", dims)
		}
	}
}

// Invariant 8: a dimension of exactly 2 still yields a valid mesh.
func TestExtractInvariant8MinimalDimension(t *testing.T) {
	v := makeVolume(2, 5, 5, func(x, y, z int) float32 {
		if x == 0 {
			return 1
		}
		return 0
	})
	m := Extract(v, 0.5)
	if !m.Valid() {
		t.Fatal("invariant 8: mesh with a size-2 axis is not valid")
	}
	if len(m.Triangles) == 0 {
		t.Fatal("invariant 8: expected a non-empty mesh")
	}
}

// Property 9: parallel/serial parity across worker counts.
func TestExtractParallelMatchesSerial(t *testing.T) {
	const cx, cy, cz, r = 16, 16, 16, 10
	v := makeVolume(32, 32, 32, func(x, y, z int) float32 {
		dx, dy, dz := float64(x-cx), float64(y-cy), float64(z-cz)
		return float32(r - math.Sqrt(dx*dx+dy*dy+dz*dz))
	})
	serial := Extract(v, 0)

	for _, workers := range []int{1, 2, 3, 4} {
		par := ExtractParallel(v, 0, workers)
		if len(par.Triangles) != len(serial.Triangles) {
			t.Fatalf("workers=%d: triangle count %d, want %d", workers, len(par.Triangles), len(serial.Triangles))
		}
		if !sameVertexMultiset(t, serial.Vertices, par.Vertices) {
			t.Fatalf("workers=%d: vertex multiset differs from serial extraction", workers)
		}
		if !par.Valid() {
			t.Fatalf("workers=%d: merged mesh is not valid", workers)
		}
	}
}

func sameVertexMultiset(t *testing.T, a, b []mesh.Vertex) bool {
	t.Helper()
	if len(a) != len(b) {
		return false
	}
	ak := make([]mesh.Vertex, len(a))
	bk := make([]mesh.Vertex, len(b))
	copy(ak, a)
	copy(bk, b)
	less := func(s []mesh.Vertex) func(i, j int) bool {
		return func(i, j int) bool {
			if s[i].X != s[j].X {
				return s[i].X < s[j].X
			}
			if s[i].Y != s[j].Y {
				return s[i].Y < s[j].Y
			}
			return s[i].Z < s[j].Z
		}
	}
	sort.Slice(ak, less(ak))
	sort.Slice(bk, less(bk))
	return slices.Equal(ak, bk)
}
