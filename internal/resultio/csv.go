// Package resultio writes and reads the annual time-series result table as
// a semicolon-separated CSV with German column headers, grounded in
// save_results_csv/import_results_csv's pump_results layout.
package resultio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"netsim/internal/simerrors"
	"netsim/internal/timeseries"
)

const (
	labelMain      = "Heizentrale Haupteinspeisung"
	labelSecondary = "weitere Einspeisung"

	utf8BOM = "﻿"
)

func producerLabel(pt timeseries.ProducerType) string {
	if pt == timeseries.ProducerSecondary {
		return labelSecondary
	}
	return labelMain
}

// WriteCSV writes one row per hour starting at startTime, with Zeit plus
// Gesamtwärmebedarf_Gebäude_kW and, for every logged producer, its
// Wärmeerzeugung/Massenstrom/Delta p/temperature/pressure columns, in the
// UTF-8-with-BOM encoding the source format requires for Excel
// compatibility.
func WriteCSV(w io.Writer, res *timeseries.Results, startTime time.Time) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	demand := res.Series(timeseries.ProducerMain, -1, "building_demand_kW")
	hours := len(demand)

	type col struct {
		header string
		values []float64
	}
	var cols []col
	for _, pt := range []timeseries.ProducerType{timeseries.ProducerMain, timeseries.ProducerSecondary} {
		label := producerLabel(pt)
		for _, idx := range res.ProducerIndices(pt) {
			if pt == timeseries.ProducerMain && idx == -1 {
				continue // the -1 slot holds building_demand_kW, not a pump
			}
			n := idx + 1
			cols = append(cols,
				col{fmt.Sprintf("Wärmeerzeugung_%s_%d_kW", label, n), res.Series(pt, idx, "qext_kW")},
				col{fmt.Sprintf("Massenstrom_%s_%d_kg/s", label, n), res.Series(pt, idx, "mass_flow")},
				col{fmt.Sprintf("Delta p_%s_%d_bar", label, n), res.Series(pt, idx, "deltap")},
				col{fmt.Sprintf("Vorlauftemperatur_%s_%d_°C", label, n), res.Series(pt, idx, "flow_temp")},
				col{fmt.Sprintf("Rücklauftemperatur_%s_%d_°C", label, n), res.Series(pt, idx, "return_temp")},
				col{fmt.Sprintf("Vorlaufdruck_%s_%d_bar", label, n), res.Series(pt, idx, "flow_pressure")},
				col{fmt.Sprintf("Rücklaufdruck_%s_%d_bar", label, n), res.Series(pt, idx, "return_pressure")},
			)
		}
	}

	header := []string{"Zeit", "Gesamtwärmebedarf_Gebäude_kW"}
	for _, c := range cols {
		header = append(header, c.header)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for t := 0; t < hours; t++ {
		row := []string{
			startTime.Add(time.Duration(t) * time.Hour).Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(demand[t], 'f', -1, 64),
		}
		for _, c := range cols {
			var v float64
			if t < len(c.values) {
				v = c.values[t]
			}
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV back into a Results table,
// reconstructing the {producer_type, producer_index, parameter} key from
// each column header.
func ReadCSV(r io.Reader) (*timeseries.Results, []time.Time, error) {
	br := bufio.NewReader(r)
	// strip a UTF-8 BOM if present
	bom, err := br.Peek(3)
	if err == nil && string(bom) == utf8BOM {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.Comma = ';'
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, simerrors.Wrap(simerrors.InvalidInput, "reading results CSV", err)
	}
	if len(rows) < 1 {
		return nil, nil, simerrors.New(simerrors.InvalidInput, "results CSV has no header row")
	}

	header := rows[0]
	res := timeseries.NewResults()
	var times []time.Time

	for _, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, nil, simerrors.New(simerrors.InvalidInput, "results CSV row has inconsistent column count")
		}
		ts, err := time.Parse("2006-01-02 15:04:05", row[0])
		if err != nil {
			return nil, nil, simerrors.Wrap(simerrors.InvalidInput, "parsing Zeit column", err)
		}
		times = append(times, ts)

		for col := 1; col < len(header); col++ {
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				return nil, nil, simerrors.Wrap(simerrors.InvalidInput, "parsing value in column "+header[col], err)
			}
			pt, idx, param, ok := parseColumnHeader(header[col])
			if !ok {
				continue
			}
			res.Append(pt, idx, param, v)
		}
	}
	return res, times, nil
}

func parseColumnHeader(h string) (timeseries.ProducerType, int, string, bool) {
	if h == "Gesamtwärmebedarf_Gebäude_kW" {
		return timeseries.ProducerMain, -1, "building_demand_kW", true
	}
	kinds := map[string]string{
		"Wärmeerzeugung":      "qext_kW",
		"Massenstrom":         "mass_flow",
		"Delta p":             "deltap",
		"Vorlauftemperatur":   "flow_temp",
		"Rücklauftemperatur":  "return_temp",
		"Vorlaufdruck":        "flow_pressure",
		"Rücklaufdruck":       "return_pressure",
	}
	for prefix, param := range kinds {
		if !strings.HasPrefix(h, prefix+"_") {
			continue
		}
		rest := strings.TrimPrefix(h, prefix+"_")
		rest = strings.TrimSuffix(rest, "_kW")
		rest = strings.TrimSuffix(rest, "_kg/s")
		rest = strings.TrimSuffix(rest, "_bar")
		rest = strings.TrimSuffix(rest, "_°C")

		lastUnderscore := strings.LastIndex(rest, "_")
		if lastUnderscore < 0 {
			continue
		}
		label := rest[:lastUnderscore]
		n, err := strconv.Atoi(rest[lastUnderscore+1:])
		if err != nil {
			continue
		}
		pt := timeseries.ProducerMain
		if label == labelSecondary {
			pt = timeseries.ProducerSecondary
		}
		return pt, n - 1, param, true
	}
	return "", 0, "", false
}
