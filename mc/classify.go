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

import "golang.org/x/sys/cpu"

// classifyEpsilon biases case membership so samples that land exactly
// on the isosurface classify as not below it (the test is against
// iso-classifyEpsilon), avoiding cracks between cells that would
// otherwise disagree about a shared corner.
const classifyEpsilon = 1e-6

// hasAVX2 is probed once at process start, as vm/avx512level.go does
// for the bytecode interpreter's fast path, and only ever gates which
// internal loop shape classifyCorners8 uses; it never changes the
// result.
var hasAVX2 = cpu.X86.HasAVX2

// classify returns the 8-bit case index for corner values v against
// iso: bit i is set iff v[i] is below iso-classifyEpsilon.
func classify(v *[8]float32, iso float32) uint8 {
	thresh := iso - classifyEpsilon
	var c uint8
	for i := 0; i < 8; i++ {
		if v[i] < thresh {
			c |= 1 << uint(i)
		}
	}
	return c
}

// classifyCorners8 classifies a contiguous row of cells sharing the
// same (y, z) and varying x, writing one case index per cell into
// out. v0..v3 hold the bottom-face samples (C0..C3) and v4..v7 the
// top-face samples (C4..C7); vN[x] is corner CN of the cell at x, so
// each slice must have length len(out) (the extractor's per-row scan
// passes it the appropriate shifted sub-slice of a shared plane row
// per corner).
//
// This is the batch helper gated by hasAVX2: both branches below
// produce identical output, so the flag is purely a performance
// selector, never a correctness one.
func classifyCorners8(v0, v1, v2, v3, v4, v5, v6, v7 []float32, iso float32, out []uint8) {
	if hasAVX2 {
		classifyCorners8Unrolled(v0, v1, v2, v3, v4, v5, v6, v7, iso, out)
		return
	}
	classifyCorners8Scalar(v0, v1, v2, v3, v4, v5, v6, v7, iso, out)
}

func classifyCorners8Scalar(v0, v1, v2, v3, v4, v5, v6, v7 []float32, iso float32, out []uint8) {
	var corners [8]float32
	for x := range out {
		corners[0], corners[1], corners[2], corners[3] = v0[x], v1[x], v2[x], v3[x]
		corners[4], corners[5], corners[6], corners[7] = v4[x], v5[x], v6[x], v7[x]
		out[x] = classify(&corners, iso)
	}
}

// classifyCorners8Unrolled is branch-free in the per-corner test
// (each comparison becomes an unconditional shift-and-or instead of a
// conditional branch), matching the shape a real AVX2 compare+movmsk
// sequence would take if this were written in assembly. It is still
// plain Go: the "fast path" here is the predictable, branchless
// control flow, not actual SIMD.
func classifyCorners8Unrolled(v0, v1, v2, v3, v4, v5, v6, v7 []float32, iso float32, out []uint8) {
	thresh := iso - classifyEpsilon
	for x := range out {
		out[x] = b2u8(v0[x] < thresh)<<0 |
			b2u8(v1[x] < thresh)<<1 |
			b2u8(v2[x] < thresh)<<2 |
			b2u8(v3[x] < thresh)<<3 |
			b2u8(v4[x] < thresh)<<4 |
			b2u8(v5[x] < thresh)<<5 |
			b2u8(v6[x] < thresh)<<6 |
			b2u8(v7[x] < thresh)<<7
	}
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
