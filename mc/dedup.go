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
	"encoding/binary"

	"github.com/dchest/siphash"
	"github.com/kv260/marchingcubes/mesh"
)

// dedupKey0/dedupKey1 are a fixed process-lifetime siphash key pair,
// analogous to the random per-process keys the interpreter uses for
// hash-partitioning records, except fixed here since the cache's
// correctness never depends on resistance to adversarial input.
const (
	dedupKey0 uint64 = 0x646465645f6d6300
	dedupKey1 uint64 = 0x7369706861736821
)

// edgeIdentity is the canonical identity of one cell's instance of an
// edge: the integer cell origin plus the edge id. Two cells can only
// ever disagree about which vertex an edge id refers to if they share
// a face, which this extractor's per-cell, non-shared-index emission
// model never attempts to detect or merge.
type edgeIdentity struct {
	x, y, z int32
	edge    uint8
}

func (k edgeIdentity) hash() (uint64, uint64) {
	var buf [13]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(k.x))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(k.y))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(k.z))
	buf[12] = k.edge
	return siphash.Hash128(dedupKey0, dedupKey1, buf[:])
}

// dedupBucket is one open-addressed slot: a 128-bit edge-identity
// hash mapped to the vertex index that was first emitted for it.
type dedupBucket struct {
	h0, h1 uint64
	index  uint32
	used   bool
}

// DedupSink wraps another Sink with an opaque edge-keyed cache: an
// AppendVertexKeyed call with the same edge identity as a previous
// call returns the earlier index instead of appending a new vertex.
//
// This is an optional optimization: it exists as a
// documented extension point with its own tests, but the plane-cache
// extractor in extract.go never shares a local_index array across
// cells, so no two AppendVertex calls in the default Extract/
// ExtractParallel path ever carry the same edge identity. Wiring it
// into the default pipeline would change nothing observable; it is
// left as an explicit opt-in for a caller that wants to experiment
// with genuine cross-cell vertex welding without touching the
// extractor itself.
type DedupSink struct {
	inner   mesh.Sink
	buckets []dedupBucket
}

// NewDedupSink wraps inner with a dedup cache sized for at least
// capacityHint distinct edge identities.
func NewDedupSink(inner mesh.Sink, capacityHint int) *DedupSink {
	n := 64
	for n < capacityHint*2 {
		n *= 2
	}
	return &DedupSink{inner: inner, buckets: make([]dedupBucket, n)}
}

// AppendVertexKeyed is the keyed append a caller uses in place of
// AppendVertex when it wants deduplication by edge identity; ordinary
// AppendVertex always appends (it has no identity to key on).
func (d *DedupSink) AppendVertexKeyed(id edgeIdentity, v mesh.Vertex) uint32 {
	h0, h1 := id.hash()
	mask := uint64(len(d.buckets) - 1)
	for i := h0 & mask; ; i = (i + 1) & mask {
		b := &d.buckets[i]
		if !b.used {
			idx := d.inner.AppendVertex(v)
			b.h0, b.h1, b.index, b.used = h0, h1, idx, true
			return idx
		}
		if b.h0 == h0 && b.h1 == h1 {
			return b.index
		}
	}
}

func (d *DedupSink) AppendVertex(v mesh.Vertex) uint32    { return d.inner.AppendVertex(v) }
func (d *DedupSink) AppendTriangle(t mesh.Triangle)       { d.inner.AppendTriangle(t) }
func (d *DedupSink) VertexCount() uint32                  { return d.inner.VertexCount() }
func (d *DedupSink) TriangleCount() uint32                { return d.inner.TriangleCount() }

var _ mesh.Sink = (*DedupSink)(nil)
