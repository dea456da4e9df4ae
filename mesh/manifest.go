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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Manifest is the provenance sidecar written alongside a .vtk mesh
// file: enough to confirm the file wasn't truncated or altered
// without re-parsing its ASCII body, and to correlate the output of
// one job within a batch run (see the batch package).
type Manifest struct {
	JobID      string  `json:"job_id"`
	VTKPath    string  `json:"vtk_path"`
	Iso        float32 `json:"iso"`
	VertexCount   int  `json:"vertex_count"`
	TriangleCount int  `json:"triangle_count"`
	Blake2b256    string `json:"blake2b_256"`
}

// WriteManifest hashes the file at vtkPath with blake2b-256 and writes
// a JSON manifest describing m to path. vtkPath must already exist
// (WriteMesh must be called first); the manifest records its digest,
// not the in-memory mesh, so a manifest always attests to bytes that
// were actually written to disk.
func WriteManifest(path string, m *Mesh, iso float32, vtkPath string) error {
	contents, err := os.ReadFile(vtkPath)
	if err != nil {
		return fmt.Errorf("mesh: read %s for manifest digest: %w", vtkPath, err)
	}
	sum := blake2b.Sum256(contents)

	man := Manifest{
		JobID:         uuid.NewString(),
		VTKPath:       vtkPath,
		Iso:           iso,
		VertexCount:   len(m.Vertices),
		TriangleCount: len(m.Triangles),
		Blake2b256:    hex.EncodeToString(sum[:]),
	}
	buf, err := json.MarshalIndent(&man, "", "  ")
	if err != nil {
		return fmt.Errorf("mesh: encode manifest: %w", err)
	}
	buf = append(buf, '\n')
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("mesh: write manifest %s: %w", path, err)
	}
	return nil
}
