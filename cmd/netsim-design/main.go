// Command netsim-design builds a district heating network from a pipe
// catalogue and an existing Network GeoJSON layout, sizes every pipe, and
// writes the sized network back out as GeoJSON.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"netsim/internal/geo"
	"netsim/internal/hydraulics"
	"netsim/internal/ingest"
	"netsim/internal/sizing"
)

func main() {
	inputGeoJSON := flag.String("input", "input/network.geojson", "input Network GeoJSON file")
	pipeCatalog := flag.String("pipe-catalog", "input/pipes.csv", "semicolon-separated pipe catalogue CSV")
	outputGeoJSON := flag.String("output", "output/network.sized.geojson", "output Network GeoJSON file")
	material := flag.String("material", "steel", "pipe material to size from")
	vMax := flag.Float64("v-max", 1.5, "maximum allowed flow velocity, m/s")
	roughnessMM := flag.Float64("roughness-mm", 0.1, "pipe roughness, mm")
	optimise := flag.Bool("optimize", false, "also run diameter downsize optimisation after init sizing")
	flag.Parse()

	raw, err := os.ReadFile(*inputGeoJSON)
	if err != nil {
		log.Fatalf("reading %s: %v", *inputGeoJSON, err)
	}
	net, err := geo.ReadNetwork(raw)
	if err != nil {
		log.Fatalf("parsing network GeoJSON: %v", err)
	}
	log.Printf("loaded network: %d junctions, %d pipes, %d consumers", len(net.Junctions), len(net.Pipes), len(net.Consumers))

	catFile, err := os.Open(*pipeCatalog)
	if err != nil {
		log.Fatalf("opening pipe catalogue %s: %v", *pipeCatalog, err)
	}
	cat, err := ingest.ReadPipeCatalogCSV(catFile)
	catFile.Close()
	if err != nil {
		log.Fatalf("parsing pipe catalogue: %v", err)
	}

	if err := net.Validate(); err != nil {
		log.Fatalf("network failed validation: %v", err)
	}

	solver := hydraulics.NewSolver()

	if err := sizing.InitDiameterTypes(solver, net, cat, *vMax, *material, *roughnessMM); err != nil {
		log.Fatalf("initial sizing: %v", err)
	}
	log.Printf("initial diameter sizing complete against %s catalogue (v_max=%.2f m/s)", *material, *vMax)

	if err := sizing.CorrectFlowDirections(solver, net); err != nil {
		log.Fatalf("correcting flow directions: %v", err)
	}

	if *optimise {
		if err := sizing.OptimizeDiameterTypes(solver, net, cat, *vMax, *material, *roughnessMM); err != nil {
			log.Fatalf("optimising diameters: %v", err)
		}
		log.Printf("diameter downsize optimisation complete")
	}

	doc := geo.WriteNetwork(net)
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Fatalf("marshaling output GeoJSON: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(*outputGeoJSON), 0o755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}
	if err := os.WriteFile(*outputGeoJSON, out, 0o644); err != nil {
		log.Fatalf("writing %s: %v", *outputGeoJSON, err)
	}
	log.Printf("wrote sized network to %s", *outputGeoJSON)
}
