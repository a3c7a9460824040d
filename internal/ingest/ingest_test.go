package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHeatDemandJSON_ParsesProfiles(t *testing.T) {
	input := `[{"building_id":"b1","annual_mwh":12.5,"hourly_kw":[1,2,3]}]`
	profiles, err := ReadHeatDemandJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "b1", profiles[0].BuildingID)
	assert.Len(t, profiles[0].HourlyKW, 3)
}

func TestReadHeatDemandJSON_RejectsUnknownFields(t *testing.T) {
	input := `[{"building_id":"b1","unexpected_field":true}]`
	_, err := ReadHeatDemandJSON(strings.NewReader(input))
	assert.Error(t, err)
}

func TestReadCOPTable_BilinearLookup(t *testing.T) {
	input := "src\\supply;35;55\n0;4.5;3.2\n10;5.0;3.6\n"
	table, err := ReadCOPTable(strings.NewReader(input))
	require.NoError(t, err)
	assert.InDelta(t, 4.5, table.Interpolate(0, 35), 1e-9)
	assert.InDelta(t, 5.0, table.Interpolate(10, 35), 1e-9)
}

func TestReadPipeCatalogCSV_ParsesRows(t *testing.T) {
	input := "name;inner_diameter_m;u_value;material\nDN100;0.1;0.3;steel\nDN125;0.125;0.32;steel\n"
	cat, err := ReadPipeCatalogCSV(strings.NewReader(input))
	require.NoError(t, err)
	pt, err := cat.Lookup("DN100")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, pt.InnerDiameterM, 1e-9)
}

func TestReadTRY_ParsesFixedColumnRecords(t *testing.T) {
	input := "header line 1\nheader line 2\n" +
		"1 1 1 1 0  -5.2 1013 180 3.1 5 0.8 80 120 60 0 0 0\n"
	records, err := ReadTRY(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Month)
	assert.InDelta(t, -5.2, records[0].AirTempC, 1e-9)
}
