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

// Package mc implements the Marching Cubes classification, edge
// interpolation and plane-cache extraction that turn a volume.Volume
// into a mesh.Mesh.
package mc

import (
	"sync"

	"github.com/kv260/marchingcubes/mesh"
	"github.com/kv260/marchingcubes/volume"
)

const sentinel = -1

// Extract walks every cell of vol and appends vertices/triangles for
// the iso surface into a freshly allocated mesh. Cells are visited in
// (z,y,x) row-major order; within a cell, active edges are visited in
// ascending id and triangles are emitted in tri_table order, so the
// result is fully deterministic for a given (vol, iso).
func Extract(vol *volume.Volume, iso float32) mesh.Mesh {
	sink := mesh.NewBufferedSink(0, 0)
	extractInto(vol, iso, 0, vol.NZ-1, sink)
	return sink.Finalize()
}

// ExtractInto drives sink directly instead of allocating a Mesh,
// for callers that already own a Sink (e.g. a streaming pipeline).
func ExtractInto(vol *volume.Volume, iso float32, sink mesh.Sink) {
	extractInto(vol, iso, 0, vol.NZ-1, sink)
}

// ExtractParallel partitions the z-range into workers contiguous
// slabs, extracts each slab independently (each slab only reads its
// own two planes from the read-only volume, so no cross-slab
// synchronization is needed), and merges the results with a serial
// renumbering pass: slab i's local vertex indices are offset by the
// running sum of vertex counts from slabs 0..i-1 before its triangles
// are appended to the combined mesh. The result is the same geometry
// Extract would produce, for any workers >= 1.
func ExtractParallel(vol *volume.Volume, iso float32, workers int) mesh.Mesh {
	if workers < 1 {
		workers = 1
	}
	total := vol.NZ - 1 // number of cell-z positions
	if total < 1 {
		return mesh.Mesh{}
	}
	if workers > total {
		workers = total
	}

	slabs := make([]mesh.Mesh, workers)
	base := total / workers
	rem := total % workers

	var wg sync.WaitGroup
	z := 0
	for i := 0; i < workers; i++ {
		n := base
		if i < rem {
			n++
		}
		z0, z1 := z, z+n
		z += n

		wg.Add(1)
		go func(i, z0, z1 int) {
			defer wg.Done()
			sink := mesh.NewBufferedSink(0, 0)
			extractInto(vol, iso, z0, z1, sink)
			slabs[i] = sink.Finalize()
		}(i, z0, z1)
	}
	wg.Wait()

	var out mesh.Mesh
	var vertexOffset uint32
	for _, s := range slabs {
		out.Vertices = append(out.Vertices, s.Vertices...)
		for _, t := range s.Triangles {
			out.Triangles = append(out.Triangles, mesh.Triangle{
				A: t.A + vertexOffset,
				B: t.B + vertexOffset,
				C: t.C + vertexOffset,
			})
		}
		vertexOffset += uint32(len(s.Vertices))
	}
	return out
}

// extractInto runs the plane-cache extractor over cell-z positions
// [z0, z1) and appends into sink.
func extractInto(vol *volume.Volume, iso float32, z0, z1 int, sink mesh.Sink) {
	nx, ny, nz := vol.NX, vol.NY, vol.NZ
	if nx < 2 || ny < 2 || nz < 2 {
		return
	}
	if z0 < 0 {
		z0 = 0
	}
	if z1 > nz-1 {
		z1 = nz - 1
	}
	if z0 >= z1 {
		return
	}

	var plane [2][]float32
	plane[z0%2] = vol.Plane(z0)

	var localIndex [12]int32
	var corners [8]float32
	caseRow := make([]uint8, nx-1)

	for z := z0; z < z1; z++ {
		plane[(z+1)%2] = vol.Plane(z + 1)
		bottom := plane[z%2]
		top := plane[(z+1)%2]

		for y := 0; y < ny-1; y++ {
			row0 := y * nx
			row1 := (y + 1) * nx

			classifyCorners8(
				bottom[row0:row0+nx-1], bottom[row0+1:row0+nx],
				bottom[row1+1:row1+nx], bottom[row1:row1+nx-1],
				top[row0:row0+nx-1], top[row0+1:row0+nx],
				top[row1+1:row1+nx], top[row1:row1+nx-1],
				iso, caseRow,
			)

			for x := 0; x < nx-1; x++ {
				c := caseRow[x]
				if c == 0 || c == 255 {
					continue
				}
				mask := edgeMask[c]
				if mask == 0 {
					continue
				}

				corners[0] = bottom[row0+x]
				corners[1] = bottom[row0+x+1]
				corners[2] = bottom[row1+x+1]
				corners[3] = bottom[row1+x]
				corners[4] = top[row0+x]
				corners[5] = top[row0+x+1]
				corners[6] = top[row1+x+1]
				corners[7] = top[row1+x]

				ox, oy, oz := float32(x), float32(y), float32(z)
				for e := 0; e < 12; e++ {
					if mask&(1<<uint(e)) == 0 {
						localIndex[e] = sentinel
						continue
					}
					v := interpolateEdge(e, &corners, iso, ox, oy, oz)
					localIndex[e] = int32(sink.AppendVertex(v))
				}

				tri := triTable[c]
				for i := 0; i+2 < 16; i += 3 {
					ea := tri[i]
					if ea == sentinel {
						break
					}
					eb, ec := tri[i+1], tri[i+2]
					ia, ib, ic := localIndex[ea], localIndex[eb], localIndex[ec]
					if ia == sentinel || ib == sentinel || ic == sentinel {
						continue
					}
					sink.AppendTriangle(mesh.Triangle{
						A: uint32(ia), B: uint32(ib), C: uint32(ic),
					})
				}
			}
		}
	}
}
