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

// Package mesh holds the output geometry produced by an isosurface
// extraction: an append-only set of vertices and indexed triangles,
// and the sinks and serializers that consume them.
package mesh

// Vertex is a point in volume-index space. Corner C0 of cell (i,j,k)
// is the point (i,j,k); an interpolated vertex lies somewhere on one
// of that cell's twelve edges.
type Vertex struct {
	X, Y, Z float32
}

// Triangle is an ordered triple of vertex indices into the Mesh that
// produced it. Orientation follows the topology table's convention;
// no reordering is performed downstream.
type Triangle struct {
	A, B, C uint32
}

// Mesh is the buffered result of an extraction: a vertex array and
// an indexed triangle array. No deduplication is performed across
// cells, so the same geometric point may appear at more than one
// index.
type Mesh struct {
	Vertices  []Vertex
	Triangles []Triangle
}

// Valid reports whether every triangle index refers to a vertex that
// exists and whether its three indices are pairwise distinct. This is
// the mesh-level form of invariant 1 in the specification and is used
// by tests rather than by the hot extraction path.
func (m *Mesh) Valid() bool {
	n := uint32(len(m.Vertices))
	for _, t := range m.Triangles {
		if t.A >= n || t.B >= n || t.C >= n {
			return false
		}
		if t.A == t.B || t.B == t.C || t.A == t.C {
			return false
		}
	}
	return true
}
