package ingest

import (
	"encoding/csv"
	"io"
	"strconv"

	"netsim/internal/catalog"
	"netsim/internal/simerrors"
)

// ReadCOPTable parses a semicolon-delimited COP matrix: the header row's
// first cell is ignored, the remaining header cells are supply
// temperatures (degC); each data row starts with a source temperature
// followed by one COP value per supply-temperature column. Grounded in the
// COP_WP matrix layout the heat-pump model reads.
func ReadCOPTable(r io.Reader) (*catalog.COPTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, simerrors.Wrap(simerrors.InvalidInput, "reading COP table CSV", err)
	}
	if len(rows) < 2 {
		return nil, simerrors.New(simerrors.InvalidInput, "COP table has no data rows")
	}

	header := rows[0]
	supplyTemps := make([]float64, 0, len(header)-1)
	for _, cell := range header[1:] {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, simerrors.Wrap(simerrors.InvalidInput, "parsing COP table supply-temp header", err)
		}
		supplyTemps = append(supplyTemps, v)
	}

	sourceTemps := make([]float64, 0, len(rows)-1)
	values := make([][]float64, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, simerrors.New(simerrors.InvalidInput, "COP table row has inconsistent column count")
		}
		sourceT, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, simerrors.Wrap(simerrors.InvalidInput, "parsing COP table source temperature", err)
		}
		rowValues := make([]float64, 0, len(row)-1)
		for _, cell := range row[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, simerrors.Wrap(simerrors.InvalidInput, "parsing COP table value", err)
			}
			rowValues = append(rowValues, v)
		}
		sourceTemps = append(sourceTemps, sourceT)
		values = append(values, rowValues)
	}

	return &catalog.COPTable{SupplyTemps: supplyTemps, SourceTemps: sourceTemps, Values: values}, nil
}
