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

	"github.com/kv260/marchingcubes/mesh"
)

// cornerOffset gives each cell corner's (x,y,z) offset from the
// cell's integer origin.
var cornerOffset = [8][3]float32{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// edgeEndpoint gives the pair of corner indices each edge connects.
var edgeEndpoint = [12][2]uint8{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// interpDenomEpsilon guards against dividing by a near-zero corner
// difference; below this magnitude the edge midpoint is used instead.
const interpDenomEpsilon = 1e-6

// interpolateEdge places the vertex for edge e of the cell whose
// integer origin is (ox,oy,oz), given the 8 corner samples v and the
// (unbiased) iso value. t is not clamped to [0,1] — a poorly
// conditioned input can legitimately place the vertex outside the
// cell — but NaN/Inf results are replaced with the edge midpoint.
func interpolateEdge(e int, v *[8]float32, iso float32, ox, oy, oz float32) mesh.Vertex {
	ep := edgeEndpoint[e]
	va, vb := v[ep[0]], v[ep[1]]
	pa, pb := cornerOffset[ep[0]], cornerOffset[ep[1]]

	d := vb - va
	var t float32
	if d == 0 || abs32(d) < interpDenomEpsilon {
		t = 0.5
	} else {
		t = (iso - va) / d
	}
	if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
		t = 0.5
	}

	return mesh.Vertex{
		X: ox + pa[0] + t*(pb[0]-pa[0]),
		Y: oy + pa[1] + t*(pb[1]-pa[1]),
		Z: oz + pa[2] + t*(pb[2]-pa[2]),
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
