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

package volume

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"testing"

	"github.com/klauspost/compress/s2"
)

func TestLoadVolumeTransparentGzip(t *testing.T) {
	v, err := LoadVolume(context.Background(), "testdata/plane_f4.npy.gz")
	if err != nil {
		t.Fatalf("LoadVolume gzip-framed: %v", err)
	}
	if v.NX != 3 || v.NY != 3 || v.NZ != 3 {
		t.Fatalf("dims = %d,%d,%d; want 3,3,3", v.NX, v.NY, v.NZ)
	}
	if got, want := v.At(0, 0, 2), float32(1); got != want {
		t.Fatalf("At(0,0,2) = %v, want %v", got, want)
	}
}

func TestUnwrapContainerGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("hello marching cubes"))
	gz.Close()

	r, err := unwrapContainer(&buf)
	if err != nil {
		t.Fatalf("unwrapContainer: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read unwrapped gzip stream: %v", err)
	}
	if string(got) != "hello marching cubes" {
		t.Fatalf("unwrapped content = %q, want %q", got, "hello marching cubes")
	}
}

func TestUnwrapContainerS2(t *testing.T) {
	var buf bytes.Buffer
	w := s2.NewWriter(&buf)
	w.Write([]byte("hello marching cubes"))
	w.Close()

	r, err := unwrapContainer(&buf)
	if err != nil {
		t.Fatalf("unwrapContainer: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read unwrapped s2 stream: %v", err)
	}
	if string(got) != "hello marching cubes" {
		t.Fatalf("unwrapped content = %q, want %q", got, "hello marching cubes")
	}
}

func TestUnwrapContainerPassthrough(t *testing.T) {
	r, err := unwrapContainer(bytes.NewReader([]byte{0x93, 'N', 'U', 'M', 'P', 'Y'}))
	if err != nil {
		t.Fatalf("unwrapContainer: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read passthrough: %v", err)
	}
	if !bytes.Equal(got, []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}) {
		t.Fatalf("passthrough content = %v, want NPY magic", got)
	}
}
