// Command netsim-timeseries drives the annual thermohydraulic simulation
// over a sized network, wiring each building's hourly heat-demand profile
// into the network's consumers, then writes the per-hour results CSV.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"netsim/internal/geo"
	"netsim/internal/hydraulics"
	"netsim/internal/ingest"
	"netsim/internal/resultio"
	"netsim/internal/timeseries"
)

func main() {
	inputGeoJSON := flag.String("input", "input/network.sized.geojson", "input sized Network GeoJSON file")
	heatDemandJSON := flag.String("heat-demand", "input/heat_demand.json", "per-building hourly heat demand JSON")
	outputCSV := flag.String("output", "output/results.csv", "output results CSV file")
	startHour := flag.Int("start-hour", 0, "first hour of the run, inclusive")
	endHour := flag.Int("end-hour", 8760, "last hour of the run, exclusive")
	minSupplyTempC := flag.Float64("min-supply-temp-c", 65, "minimum supply temperature enforced at every consumer")
	flag.Parse()

	raw, err := os.ReadFile(*inputGeoJSON)
	if err != nil {
		log.Fatalf("reading %s: %v", *inputGeoJSON, err)
	}
	net, err := geo.ReadNetwork(raw)
	if err != nil {
		log.Fatalf("parsing network GeoJSON: %v", err)
	}
	if err := net.Validate(); err != nil {
		log.Fatalf("network failed validation: %v", err)
	}

	demandFile, err := os.Open(*heatDemandJSON)
	if err != nil {
		log.Fatalf("opening heat demand file %s: %v", *heatDemandJSON, err)
	}
	profiles, err := ingest.ReadHeatDemandJSON(demandFile)
	demandFile.Close()
	if err != nil {
		log.Fatalf("parsing heat demand JSON: %v", err)
	}
	if len(profiles) != len(net.Consumers) {
		log.Fatalf("heat demand has %d profiles, network has %d consumers", len(profiles), len(net.Consumers))
	}
	log.Printf("loaded %d hourly demand profiles", len(profiles))

	var controllers []hydraulics.Controller
	for i, p := range profiles {
		hourlyW := make([]float64, len(p.HourlyKW))
		for h, kw := range p.HourlyKW {
			hourlyW[h] = kw * 1000
		}
		controllers = append(controllers, &hydraulics.ConstantProfileController{
			ElementIdx: i, Field: hydraulics.FieldConsumerQextW, Source: hydraulics.ArrayProfile(hourlyW),
		})
		controllers = append(controllers,
			hydraulics.NewMinimumSupplyTemperatureController(i, *minSupplyTempC))
	}
	for i := range net.PumpsP {
		controllers = append(controllers, hydraulics.NewBadPointPressureLiftController(i))
	}

	driver := timeseries.NewDriver()
	res := driver.Run(net, controllers, *startHour, *endHour, nil)
	if len(res.Failed) > 0 {
		log.Printf("warning: %d of %d steps failed to converge and were filled from the previous hour", len(res.Failed), *endHour-*startHour)
	}

	if err := os.MkdirAll(filepath.Dir(*outputCSV), 0o755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}
	out, err := os.Create(*outputCSV)
	if err != nil {
		log.Fatalf("creating %s: %v", *outputCSV, err)
	}
	defer out.Close()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(*startHour) * time.Hour)
	if err := resultio.WriteCSV(out, res, start); err != nil {
		log.Fatalf("writing results CSV: %v", err)
	}
	log.Printf("wrote %d hours of results to %s", *endHour-*startHour, *outputCSV)
}
