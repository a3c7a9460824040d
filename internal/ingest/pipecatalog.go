package ingest

import (
	"encoding/csv"
	"io"
	"strconv"

	"netsim/internal/catalog"
	"netsim/internal/simerrors"
)

// ReadPipeCatalogCSV parses a semicolon-delimited pipe catalogue:
// name;inner_diameter_m;u_value_w_per_m2k;material, one header row followed
// by one row per standard type.
func ReadPipeCatalogCSV(r io.Reader) (*catalog.Catalog, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, simerrors.Wrap(simerrors.InvalidInput, "reading pipe catalogue CSV", err)
	}
	if len(rows) < 2 {
		return nil, simerrors.New(simerrors.InvalidInput, "pipe catalogue has no data rows")
	}

	var types []catalog.PipeType
	for _, row := range rows[1:] {
		if len(row) < 4 {
			return nil, simerrors.New(simerrors.InvalidInput, "pipe catalogue row has fewer than 4 columns")
		}
		dia, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, simerrors.Wrap(simerrors.InvalidInput, "parsing pipe catalogue inner diameter", err)
		}
		u, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, simerrors.Wrap(simerrors.InvalidInput, "parsing pipe catalogue U value", err)
		}
		types = append(types, catalog.PipeType{
			Name: row[0], InnerDiameterM: dia, UValueWPerM2K: u, Material: row[3],
		})
	}
	return catalog.New(types), nil
}
