// Command netsim-server exposes the annual driver over HTTP, pushing
// per-hour progress to connected WebSocket clients as a run executes.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"netsim/internal/geo"
	"netsim/internal/hydraulics"
	"netsim/internal/ingest"
	"netsim/internal/network"
	"netsim/internal/timeseries"
	"netsim/internal/ws"
)

func main() {
	inputGeoJSON := flag.String("input", "input/network.sized.geojson", "input sized Network GeoJSON file")
	heatDemandJSON := flag.String("heat-demand", "input/heat_demand.json", "per-building hourly heat demand JSON")
	minSupplyTempC := flag.Float64("min-supply-temp-c", 65, "minimum supply temperature enforced at every consumer")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	net, err := loadNetwork(*inputGeoJSON)
	if err != nil {
		log.Fatalf("loading network: %v", err)
	}
	profiles, err := loadProfiles(*heatDemandJSON)
	if err != nil {
		log.Fatalf("loading heat demand: %v", err)
	}
	if len(profiles) != len(net.Consumers) {
		log.Fatalf("heat demand has %d profiles, network has %d consumers", len(profiles), len(net.Consumers))
	}
	log.Printf("loaded network (%d consumers) and %d demand profiles", len(net.Consumers), len(profiles))

	hub := ws.NewHub()
	bridge := ws.NewBridge(hub)

	run := func(startHour, endHour int, observer timeseries.Observer) *timeseries.Results {
		controllers := buildControllers(net, profiles, *minSupplyTempC)
		driver := timeseries.NewDriver()
		return driver.Run(net, controllers, startHour, endHour, observer)
	}
	handler := ws.NewHandler(hub, bridge, run)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", handler)

	log.Printf("starting server on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}

func loadNetwork(path string) (*network.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	net, err := geo.ReadNetwork(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing network GeoJSON: %w", err)
	}
	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("network failed validation: %w", err)
	}
	return net, nil
}

func loadProfiles(path string) ([]ingest.HeatDemandProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ingest.ReadHeatDemandJSON(f)
}

func buildControllers(net *network.Network, profiles []ingest.HeatDemandProfile, minSupplyTempC float64) []hydraulics.Controller {
	var controllers []hydraulics.Controller
	for i, p := range profiles {
		hourlyW := make([]float64, len(p.HourlyKW))
		for h, kw := range p.HourlyKW {
			hourlyW[h] = kw * 1000
		}
		controllers = append(controllers, &hydraulics.ConstantProfileController{
			ElementIdx: i, Field: hydraulics.FieldConsumerQextW, Source: hydraulics.ArrayProfile(hourlyW),
		})
		controllers = append(controllers, hydraulics.NewMinimumSupplyTemperatureController(i, minSupplyTempC))
	}
	for i := range net.PumpsP {
		controllers = append(controllers, hydraulics.NewBadPointPressureLiftController(i))
	}
	return controllers
}
