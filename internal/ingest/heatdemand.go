package ingest

import (
	"encoding/json"
	"io"

	"netsim/internal/simerrors"
)

// HeatDemandProfile is one building's hourly heat demand series, as
// produced by the load-profile generation stage upstream of the network
// simulation.
type HeatDemandProfile struct {
	BuildingID   string    `json:"building_id"`
	AnnualMWh    float64   `json:"annual_mwh"`
	HourlyKW     []float64 `json:"hourly_kw"`
	MinSupplyTempC *float64 `json:"min_supply_temp_c,omitempty"`
}

// ReadHeatDemandJSON decodes a list of per-building hourly heat-demand
// profiles. Unknown top-level fields are rejected, per the "no silently
// ignored free-form config" requirement.
func ReadHeatDemandJSON(r io.Reader) ([]HeatDemandProfile, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var profiles []HeatDemandProfile
	if err := dec.Decode(&profiles); err != nil {
		return nil, simerrors.Wrap(simerrors.InvalidInput, "parsing heat demand JSON", err)
	}
	for _, p := range profiles {
		if p.BuildingID == "" {
			return nil, simerrors.New(simerrors.InvalidInput, "heat demand profile missing building_id")
		}
	}
	return profiles, nil
}
