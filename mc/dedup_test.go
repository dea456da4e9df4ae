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
	"testing"

	"github.com/kv260/marchingcubes/mesh"
)

func TestDedupSinkReturnsSameIndexForSameIdentity(t *testing.T) {
	inner := mesh.NewBufferedSink(0, 0)
	d := NewDedupSink(inner, 8)

	id := edgeIdentity{x: 1, y: 2, z: 3, edge: 5}
	v := mesh.Vertex{X: 1, Y: 2, Z: 3}

	first := d.AppendVertexKeyed(id, v)
	second := d.AppendVertexKeyed(id, v)
	if first != second {
		t.Fatalf("same edge identity returned different indices: %d vs %d", first, second)
	}
	if inner.VertexCount() != 1 {
		t.Fatalf("inner sink vertex count = %d, want 1 (deduplicated)", inner.VertexCount())
	}
}

func TestDedupSinkDistinctIdentitiesAppendSeparately(t *testing.T) {
	inner := mesh.NewBufferedSink(0, 0)
	d := NewDedupSink(inner, 8)

	a := d.AppendVertexKeyed(edgeIdentity{x: 0, y: 0, z: 0, edge: 0}, mesh.Vertex{X: 0})
	b := d.AppendVertexKeyed(edgeIdentity{x: 0, y: 0, z: 0, edge: 1}, mesh.Vertex{X: 1})
	if a == b {
		t.Fatal("distinct edge identities collapsed to the same index")
	}
	if inner.VertexCount() != 2 {
		t.Fatalf("inner sink vertex count = %d, want 2", inner.VertexCount())
	}
}

func TestDefaultExtractionWithoutDedupIsValid(t *testing.T) {
	// The plane-cache extractor never reuses a local_index array
	// across cells, so the default Extract path runs without a
	// DedupSink; its plain BufferedSink output must still be a valid
	// mesh.
	v := makeVolume(4, 4, 4, func(x, y, z int) float32 { return float32(x + y + z - 3) })
	m := Extract(v, 0)
	if !m.Valid() {
		t.Fatal("extraction without dedup produced an invalid mesh")
	}
}
