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

package mesh

// Sink is the append-only endpoint the extractor drives. It is
// single-owner: concurrent calls to AppendVertex/AppendTriangle from
// more than one goroutine are not supported, matching the extractor's
// own single-threaded cell loop. A caller that wants slab parallelism
// gives each goroutine its own Sink and merges the results serially
// (see mc.ExtractParallel).
type Sink interface {
	// AppendVertex appends v and returns its index, which is always
	// one greater than the index returned by the previous call (or 0
	// for the first call).
	AppendVertex(v Vertex) uint32
	// AppendTriangle appends t. The indices in t must already have
	// been returned by AppendVertex.
	AppendTriangle(t Triangle)
	// VertexCount is the number of vertices appended so far.
	VertexCount() uint32
	// TriangleCount is the number of triangles appended so far.
	TriangleCount() uint32
}

// BufferedSink grows two in-memory slices, suitable for batch output.
// The zero value is ready to use.
type BufferedSink struct {
	m Mesh
}

// NewBufferedSink returns a BufferedSink with its backing slices
// preallocated to the given capacities. A capacity of 0 is fine; it
// just means the first appends will grow the slice from nil.
func NewBufferedSink(vertexCap, triangleCap int) *BufferedSink {
	s := &BufferedSink{}
	if vertexCap > 0 {
		s.m.Vertices = make([]Vertex, 0, vertexCap)
	}
	if triangleCap > 0 {
		s.m.Triangles = make([]Triangle, 0, triangleCap)
	}
	return s
}

func (s *BufferedSink) AppendVertex(v Vertex) uint32 {
	idx := uint32(len(s.m.Vertices))
	s.m.Vertices = append(s.m.Vertices, v)
	return idx
}

func (s *BufferedSink) AppendTriangle(t Triangle) {
	s.m.Triangles = append(s.m.Triangles, t)
}

func (s *BufferedSink) VertexCount() uint32   { return uint32(len(s.m.Vertices)) }
func (s *BufferedSink) TriangleCount() uint32 { return uint32(len(s.m.Triangles)) }

// Finalize returns the accumulated mesh. The sink must not be used
// again afterwards.
func (s *BufferedSink) Finalize() Mesh {
	return s.m
}

// StreamSink forwards each record to its callbacks as it is produced;
// the Sink itself keeps only running counts. This is the realization the hardware
// variant's typed record streams map onto: a caller wanting a
// bounded-memory pipeline supplies a StreamSink whose callbacks write
// straight through to a downstream consumer (a file, a channel, a
// socket) instead of accumulating in RAM.
type StreamSink struct {
	OnVertex   func(Vertex)
	OnTriangle func(Triangle)
	vcount     uint32
	tcount     uint32
}

// NewStreamSink returns a Sink that forwards every record to onVertex
// / onTriangle as it is produced. Either callback may be nil, in which
// case matching records are simply counted and discarded.
func NewStreamSink(onVertex func(Vertex), onTriangle func(Triangle)) *StreamSink {
	return &StreamSink{OnVertex: onVertex, OnTriangle: onTriangle}
}

func (s *StreamSink) AppendVertex(v Vertex) uint32 {
	idx := s.vcount
	s.vcount++
	if s.OnVertex != nil {
		s.OnVertex(v)
	}
	return idx
}

func (s *StreamSink) AppendTriangle(t Triangle) {
	s.tcount++
	if s.OnTriangle != nil {
		s.OnTriangle(t)
	}
}

func (s *StreamSink) VertexCount() uint32   { return s.vcount }
func (s *StreamSink) TriangleCount() uint32 { return s.tcount }

var (
	_ Sink = (*BufferedSink)(nil)
	_ Sink = (*StreamSink)(nil)
)
