package resultio

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsim/internal/timeseries"
)

func buildSampleResults() *timeseries.Results {
	res := timeseries.NewResults()
	res.Append(timeseries.ProducerMain, -1, "building_demand_kW", 50)
	res.Append(timeseries.ProducerMain, -1, "building_demand_kW", 60)

	res.Append(timeseries.ProducerMain, 0, "qext_kW", 50)
	res.Append(timeseries.ProducerMain, 0, "qext_kW", 60)
	res.Append(timeseries.ProducerMain, 0, "mass_flow", 0.4)
	res.Append(timeseries.ProducerMain, 0, "mass_flow", 0.48)
	res.Append(timeseries.ProducerMain, 0, "deltap", 1.0)
	res.Append(timeseries.ProducerMain, 0, "deltap", 1.1)
	res.Append(timeseries.ProducerMain, 0, "flow_temp", 90)
	res.Append(timeseries.ProducerMain, 0, "flow_temp", 90)
	res.Append(timeseries.ProducerMain, 0, "return_temp", 60)
	res.Append(timeseries.ProducerMain, 0, "return_temp", 60)
	res.Append(timeseries.ProducerMain, 0, "flow_pressure", 4.0)
	res.Append(timeseries.ProducerMain, 0, "flow_pressure", 4.1)
	res.Append(timeseries.ProducerMain, 0, "return_pressure", 3.0)
	res.Append(timeseries.ProducerMain, 0, "return_pressure", 3.0)
	return res
}

func TestWriteCSVThenReadCSV_RoundTrips(t *testing.T) {
	res := buildSampleResults()
	var buf bytes.Buffer
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, WriteCSV(&buf, res, start))

	readBack, times, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, start, times[0])

	demand := readBack.Series(timeseries.ProducerMain, -1, "building_demand_kW")
	require.Len(t, demand, 2)
	assert.InDelta(t, 50, demand[0], 1e-9)
	assert.InDelta(t, 60, demand[1], 1e-9)

	qext := readBack.Series(timeseries.ProducerMain, 0, "qext_kW")
	require.Len(t, qext, 2)
	assert.InDelta(t, 50, qext[0], 1e-9)
}
