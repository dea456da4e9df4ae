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
	"bufio"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
)

var (
	gzipMagic = [2]byte{0x1f, 0x8b}
	s2Magic   = [3]byte{0xff, 0x06, 0x00}
)

// unwrapContainer peeks at r's first bytes and transparently wraps it
// in a gzip or s2 decompressor when it recognizes the framing, so a
// caller can hand LoadVolume a path ending in .npy, .npy.gz, or
// .npy.s2 without branching at the call site. With neither magic
// present, the buffered reader is returned as-is with its look-ahead
// still intact.
func unwrapContainer(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peeking container header: %w", err)
	}

	if len(head) >= 2 && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return gz, nil
	}
	if len(head) >= 3 && head[0] == s2Magic[0] && head[1] == s2Magic[1] && head[2] == s2Magic[2] {
		return s2.NewReader(br), nil
	}
	return br, nil
}
