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

// Command marchingcubes extracts an isosurface mesh from a dense
// scalar volume stored in an NPY-family container.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kv260/marchingcubes/batch"
	"github.com/kv260/marchingcubes/mc"
	"github.com/kv260/marchingcubes/mesh"
	"github.com/kv260/marchingcubes/volume"
)

var (
	dashInput    string
	dashIso      float64
	dashOutput   string
	dashWorkers  int
	dashManifest string
	dashJobsFile string
)

func init() {
	flag.StringVar(&dashInput, "input", "", "input .npy/.npy.gz/.npy.s2 volume path")
	flag.Float64Var(&dashIso, "iso", 0, "isosurface threshold")
	flag.StringVar(&dashOutput, "output", "", "output .vtk mesh path")
	flag.IntVar(&dashWorkers, "workers", 1, "extraction worker count (1 uses the single-threaded extractor)")
	flag.StringVar(&dashManifest, "manifest", "", "write a .manifest.json sidecar alongside -output")
	flag.StringVar(&dashJobsFile, "jobs", "", "batch mode: a JSON or YAML manifest of {input,iso,output} jobs")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Parse()
	logger := log.New(os.Stderr, "", log.Lshortfile)

	if dashJobsFile != "" {
		runBatch(logger, dashJobsFile)
		return
	}

	if dashInput == "" || dashOutput == "" {
		exitf("usage: marchingcubes -input <volume.npy> -iso <value> -output <mesh.vtk> [-workers N] [-manifest out.manifest.json]")
	}
	if err := runOne(logger, dashInput, float32(dashIso), dashOutput, dashManifest, dashWorkers); err != nil {
		exitf("%s", err)
	}
}

func runBatch(logger *log.Logger, jobsPath string) {
	m, err := batch.Load(jobsPath)
	if err != nil {
		exitf("%s", err)
	}
	for i, job := range m.Jobs {
		logger.Printf("job %d/%d: %s -> %s (iso=%v)", i+1, len(m.Jobs), job.Input, job.Output, job.Iso)
		workers := dashWorkers
		if err := runOne(logger, job.Input, job.Iso, job.Output, job.ManifestOut, workers); err != nil {
			exitf("job %d (%s): %s", i+1, job.Input, err)
		}
	}
	logger.Printf("batch complete: %d job(s)", len(m.Jobs))
}

func runOne(logger *log.Logger, input string, iso float32, output, manifestOut string, workers int) error {
	ctx := context.Background()

	vol, err := volume.LoadVolume(ctx, input)
	if err != nil {
		return fmt.Errorf("loading %s: %w", input, err)
	}

	var m mesh.Mesh
	if workers > 1 {
		m = mc.ExtractParallel(vol, iso, workers)
	} else {
		m = mc.Extract(vol, iso)
	}
	logger.Printf("%s: %d vertices, %d triangles", input, len(m.Vertices), len(m.Triangles))

	if err := mesh.WriteMesh(output, &m); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	if manifestOut != "" {
		if err := mesh.WriteManifest(manifestOut, &m, iso, output); err != nil {
			return fmt.Errorf("writing manifest %s: %w", manifestOut, err)
		}
	}
	return nil
}
