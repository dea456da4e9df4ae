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

import "errors"

// Sentinel error kinds a caller can compare against with errors.Is.
// LoadVolume always wraps one of these with the offending path and a
// concrete reason via fmt.Errorf("...: %w", ...).
var (
	// ErrIO means the file could not be opened or read.
	ErrIO = errors.New("volume: io error")
	// ErrFormat means the preamble, header length, or dictionary
	// failed to parse.
	ErrFormat = errors.New("volume: format error")
	// ErrUnsupportedDtype means descr was recognized but is not one
	// of f4/i2/i4/u1.
	ErrUnsupportedDtype = errors.New("volume: unsupported dtype")
	// ErrUnsupportedLayout means fortran_order was true.
	ErrUnsupportedLayout = errors.New("volume: unsupported layout (fortran order)")
	// ErrShape means the shape's rank was not 3 (or 4 with a leading
	// singleton axis), or its product didn't match the element count.
	ErrShape = errors.New("volume: shape error")
)
