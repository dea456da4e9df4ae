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

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// WriteMesh serializes m to path as a legacy VTK ASCII PolyData file:
//
//	# vtk DataFile Version 3.0
//	marching cubes output
//	ASCII
//	DATASET POLYDATA
//	POINTS <V> float
//	<x0> <y0> <z0>
//	...
//	POLYGONS <T> <4*T>
//	3 <a0> <b0> <c0>
//	...
//
// The file is written to a temporary name in the same directory and
// renamed into place, so a reader never observes a partially-written
// file.
func WriteMesh(path string, m *Mesh) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mesh-*.vtk.tmp")
	if err != nil {
		return fmt.Errorf("mesh: create temp output: %w", err)
	}
	tmpName := tmp.Name()
	succeeded := false
	defer func() {
		if !succeeded {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := writeVTK(w, m); err != nil {
		return fmt.Errorf("mesh: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("mesh: flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("mesh: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("mesh: rename into place %s: %w", path, err)
	}
	succeeded = true
	return nil
}

func writeVTK(w *bufio.Writer, m *Mesh) error {
	if _, err := fmt.Fprint(w, "# vtk DataFile Version 3.0\n"+
		"marching cubes output\n"+
		"ASCII\n"+
		"DATASET POLYDATA\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "POINTS %d float\n", len(m.Vertices)); err != nil {
		return err
	}
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(w, "%v %v %v\n", v.X, v.Y, v.Z); err != nil {
			return err
		}
	}
	nTri := len(m.Triangles)
	if _, err := fmt.Fprintf(w, "POLYGONS %d %d\n", nTri, nTri*4); err != nil {
		return err
	}
	for _, t := range m.Triangles {
		if _, err := fmt.Fprintf(w, "3 %d %d %d\n", t.A, t.B, t.C); err != nil {
			return err
		}
	}
	return nil
}
