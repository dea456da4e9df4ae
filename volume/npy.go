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
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var npyMagic = [6]byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

type npyHeader struct {
	descr         string
	fortranOrder  bool
	shape         []int
}

func loadNPYFile(ctx context.Context, path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrIO, err)
	}
	defer f.Close()

	r, err := unwrapContainer(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrIO, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return decodeNPY(path, r)
}

func decodeNPY(path string, r io.Reader) (*Volume, error) {
	var magic [6]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%s: %w: reading magic: %v", path, ErrIO, err)
	}
	if magic != npyMagic {
		return nil, fmt.Errorf("%s: %w: bad magic bytes", path, ErrFormat)
	}

	var ver [2]byte
	if _, err := io.ReadFull(r, ver[:]); err != nil {
		return nil, fmt.Errorf("%s: %w: reading version: %v", path, ErrIO, err)
	}

	var headerLen int
	if ver[0] == 1 {
		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%s: %w: reading v1 header length: %v", path, ErrIO, err)
		}
		headerLen = int(binary.LittleEndian.Uint16(lenBuf[:]))
	} else {
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%s: %w: reading v2+ header length: %v", path, ErrIO, err)
		}
		headerLen = int(binary.LittleEndian.Uint32(lenBuf[:]))
	}

	headerBuf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, fmt.Errorf("%s: %w: reading header dict: %v", path, ErrIO, err)
	}
	hdr, err := parseNPYHeader(string(headerBuf))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrFormat, err)
	}
	if hdr.fortranOrder {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedLayout)
	}

	nx, ny, nz, err := normalizeShape(hdr.shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrShape, err)
	}
	count := nx * ny * nz

	endian, tag := splitDescr(hdr.descr)
	elemSize, err := elemSizeForTag(tag)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrUnsupportedDtype, err)
	}

	raw := make([]byte, count*elemSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%s: %w: reading element data: %v", path, ErrIO, err)
	}

	bigEndian := endian == '>' || endian == '!'
	if bigEndian && elemSize > 1 {
		byteSwapInPlace(raw, elemSize)
	}

	data, err := widenToFloat32(raw, tag, count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrUnsupportedDtype, err)
	}

	return &Volume{NX: nx, NY: ny, NZ: nz, Data: data}, nil
}

// parseNPYHeader is a tolerant scanner keyed on the three known dict
// keys (descr, fortran_order, shape); it does not attempt to evaluate
// the header as a general Python literal.
func parseNPYHeader(header string) (npyHeader, error) {
	var hdr npyHeader
	descr, ok := parseQuotedValueAfterColon(header, findKey(header, "descr"))
	if !ok {
		return hdr, fmt.Errorf("missing or malformed 'descr' key")
	}
	hdr.descr = descr
	hdr.fortranOrder = parseBoolAfterColon(header, findKey(header, "fortran_order"))
	shape, err := parseShapeTuple(header, findKey(header, "shape"))
	if err != nil {
		return hdr, err
	}
	if len(shape) == 0 {
		return hdr, fmt.Errorf("empty shape")
	}
	hdr.shape = shape
	return hdr, nil
}

func findKey(header, key string) int {
	if p := strings.Index(header, "'"+key+"'"); p >= 0 {
		return p
	}
	if p := strings.Index(header, `"`+key+`"`); p >= 0 {
		return p
	}
	return -1
}

func parseQuotedValueAfterColon(header string, keyPos int) (string, bool) {
	if keyPos < 0 {
		return "", false
	}
	colon := strings.IndexByte(header[keyPos:], ':')
	if colon < 0 {
		return "", false
	}
	i := keyPos + colon + 1
	for i < len(header) && header[i] == ' ' {
		i++
	}
	if i >= len(header) || (header[i] != '\'' && header[i] != '"') {
		return "", false
	}
	quote := header[i]
	i++
	end := strings.IndexByte(header[i:], quote)
	if end < 0 {
		return "", false
	}
	return header[i : i+end], true
}

func parseBoolAfterColon(header string, keyPos int) bool {
	if keyPos < 0 {
		return false
	}
	colon := strings.IndexByte(header[keyPos:], ':')
	if colon < 0 {
		return false
	}
	i := keyPos + colon + 1
	for i < len(header) && header[i] == ' ' {
		i++
	}
	rest := header[i:]
	return strings.HasPrefix(rest, "True") || strings.HasPrefix(rest, "true")
}

func parseShapeTuple(header string, keyPos int) ([]int, error) {
	if keyPos < 0 {
		return nil, fmt.Errorf("missing 'shape' key")
	}
	colon := strings.IndexByte(header[keyPos:], ':')
	if colon < 0 {
		return nil, fmt.Errorf("malformed 'shape' entry")
	}
	rest := header[keyPos+colon:]
	l := strings.IndexByte(rest, '(')
	if l < 0 {
		return nil, fmt.Errorf("malformed 'shape' tuple: missing '('")
	}
	r := strings.IndexByte(rest[l+1:], ')')
	if r < 0 {
		return nil, fmt.Errorf("malformed 'shape' tuple: missing ')'")
	}
	body := rest[l+1 : l+1+r]

	var shape []int
	i := 0
	for i < len(body) {
		for i < len(body) && (body[i] == ' ' || body[i] == ',') {
			i++
		}
		j := i
		for j < len(body) && body[j] >= '0' && body[j] <= '9' {
			j++
		}
		if j > i {
			n, err := strconv.Atoi(body[i:j])
			if err != nil {
				return nil, fmt.Errorf("malformed shape integer %q: %w", body[i:j], err)
			}
			shape = append(shape, n)
		}
		if j == i {
			break
		}
		i = j
	}
	return shape, nil
}

// normalizeShape reduces a 4-tuple with a leading singleton axis to
// (nz, ny, nx) and accepts a native 3-tuple as-is, returning
// dimensions in (nx, ny, nz) order for Volume.
func normalizeShape(shape []int) (nx, ny, nz int, err error) {
	switch len(shape) {
	case 3:
		nz, ny, nx = shape[0], shape[1], shape[2]
	case 4:
		if shape[0] != 1 {
			return 0, 0, 0, fmt.Errorf("rank-4 shape %v does not have a leading singleton axis", shape)
		}
		nz, ny, nx = shape[1], shape[2], shape[3]
	default:
		return 0, 0, 0, fmt.Errorf("unsupported shape rank %d (want 3, or 4 with a leading singleton axis)", len(shape))
	}
	return nx, ny, nz, nil
}

func splitDescr(descr string) (endian byte, tag string) {
	if descr == "" {
		return 0, ""
	}
	switch descr[0] {
	case '<', '>', '|', '=', '!':
		return descr[0], descr[1:]
	default:
		return 0, descr
	}
}

func elemSizeForTag(tag string) (int, error) {
	switch tag {
	case "f4":
		return 4, nil
	case "i2":
		return 2, nil
	case "i4":
		return 4, nil
	case "u1":
		return 1, nil
	default:
		return 0, fmt.Errorf("dtype %q is not one of f4/i2/i4/u1", tag)
	}
}

func byteSwapInPlace(raw []byte, elemSize int) {
	for off := 0; off < len(raw); off += elemSize {
		a, b := off, off+elemSize-1
		for a < b {
			raw[a], raw[b] = raw[b], raw[a]
			a++
			b--
		}
	}
}

func widenToFloat32(raw []byte, tag string, count int) ([]float32, error) {
	out := make([]float32, count)
	switch tag {
	case "f4":
		for i := 0; i < count; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			out[i] = math.Float32frombits(bits)
		}
	case "i2":
		for i := 0; i < count; i++ {
			out[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:])))
		}
	case "i4":
		for i := 0; i < count; i++ {
			out[i] = float32(int32(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	case "u1":
		for i := 0; i < count; i++ {
			out[i] = float32(raw[i])
		}
	default:
		return nil, fmt.Errorf("dtype %q is not one of f4/i2/i4/u1", tag)
	}
	return out, nil
}
