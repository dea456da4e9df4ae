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

// Package batch decodes a multi-job manifest so a single invocation
// of cmd/marchingcubes can extract several volumes in one pass,
// mirroring the reference project's definition.json/definition.yaml
// duality for declarative job description.
package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
	"sigs.k8s.io/yaml"
)

// Job is one {input, iso, output} extraction request, plus an
// optional manifest sidecar path.
type Job struct {
	Input      string  `json:"input"`
	Iso        float32 `json:"iso"`
	Output     string  `json:"output"`
	ManifestOut string `json:"manifest_out,omitempty"`
}

// Manifest is a named list of jobs, decoded from either JSON or YAML
// (the two are made interchangeable by transcoding YAML through
// sigs.k8s.io/yaml into the same JSON-tagged struct used for the
// JSON form, the way the reference project's own definition.json /
// definition.yaml pair are two serializations of one struct).
type Manifest struct {
	Jobs []Job `json:"jobs"`
}

// Load reads a batch manifest from path. A ".json" extension is
// decoded with encoding/json directly; any other extension (".yaml",
// ".yml", or none) is decoded with sigs.k8s.io/yaml, which accepts
// plain JSON too. Jobs are returned sorted by input path, so batch
// runs log in a stable, reproducible order regardless of how the
// manifest file listed them.
func Load(path string) (*Manifest, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: read manifest %s: %w", path, err)
	}

	var m Manifest
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(buf, &m)
	} else {
		err = yaml.Unmarshal(buf, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("batch: decode manifest %s: %w", path, err)
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("batch: manifest %s lists no jobs", path)
	}
	for i, j := range m.Jobs {
		if j.Input == "" || j.Output == "" {
			return nil, fmt.Errorf("batch: job %d in %s is missing input or output", i, path)
		}
	}

	slices.SortFunc(m.Jobs, func(a, b Job) bool {
		return a.Input < b.Input
	})
	return &m, nil
}
