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

// Package volume loads dense scalar fields from NPY-family containers
// into a uniform f32 C-order buffer ready for isosurface extraction.
package volume

import "context"

// Volume is a dense 3D scalar field in C-order: the sample at (x,y,z)
// lives at Data[z*NY*NX + y*NX + x]. It is read-only after LoadVolume
// returns.
type Volume struct {
	NX, NY, NZ int
	Data       []float32
}

// At returns the sample at (x,y,z).
func (v *Volume) At(x, y, z int) float32 {
	return v.Data[z*v.NY*v.NX+y*v.NX+x]
}

// Plane returns the z-th z-plane as a contiguous NY*NX slice backed
// directly by Data, row-major in y then x. This is the backing store
// for the extractor's double-buffered plane cache: since the whole
// volume already resides in memory after loading, the "cache" is a
// pair of slices into the same buffer rather than a copy, which still
// satisfies the read pattern the extractor depends on (only two
// planes are ever referenced in the per-cell hot loop).
func (v *Volume) Plane(z int) []float32 {
	n := v.NY * v.NX
	off := z * n
	return v.Data[off : off+n]
}

// LoadVolume reads and decodes path (optionally gzip- or s2-framed
// NPY) into a Volume. ctx is checked once, after the file is opened
// and before the (potentially large) read and decode step begins;
// that step itself does not observe cancellation.
func LoadVolume(ctx context.Context, path string) (*Volume, error) {
	return loadNPYFile(ctx, path)
}
