// Package geo reads and writes the Network GeoJSON (v2 unified) interchange
// format: a single FeatureCollection with a top-level metadata.version field
// and four feature layers (flow, return, building_connection,
// generator_connection), grounded on the geometry/feature model
// github.com/paulmach/orb provides elsewhere in the retrieved corpus.
package geo

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"netsim/internal/network"
	"netsim/internal/simerrors"
)

const (
	FeatureFlow                = "flow"
	FeatureReturn               = "return"
	FeatureBuildingConnection   = "building_connection"
	FeatureGeneratorConnection  = "generator_connection"

	unifiedVersion = "2.0"
	defaultCRSCode = "EPSG:25833"
)

// Metadata is the unified file's top-level version marker.
type Metadata struct {
	Version string `json:"version"`
}

// CRS follows the GeoJSON (pre-2016) named CRS convention still used by the
// unified format's default EPSG:25833 declaration.
type CRS struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

func defaultCRS() CRS {
	return CRS{Type: "name", Properties: map[string]string{"name": "urn:ogc:def:crs:" + defaultCRSCode}}
}

// Document is the unified Network GeoJSON structure.
type Document struct {
	Type     string             `json:"type"`
	Metadata Metadata           `json:"metadata"`
	CRS      CRS                `json:"crs"`
	Features []*geojson.Feature `json:"features"`
}

// IsUnified reports whether raw JSON carries the v2 unified metadata marker,
// used to decide whether a loader should split it into four layers or treat
// it as a legacy single-purpose file.
func IsUnified(raw []byte) bool {
	var probe struct {
		Metadata Metadata `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Metadata.Version == unifiedVersion
}

// WriteNetwork serialises a Network into the unified GeoJSON document: one
// flow/return LineString feature per pipe (tagged by Pipe.Layer), one
// building_connection LineString per heat consumer.
func WriteNetwork(net *network.Network) *Document {
	doc := &Document{Type: "FeatureCollection", Metadata: Metadata{Version: unifiedVersion}, CRS: defaultCRS()}

	for _, p := range net.Pipes {
		line := orb.LineString{
			junctionPoint(net, p.From),
			junctionPoint(net, p.To),
		}
		layer := p.Layer
		if layer == "" {
			layer = FeatureFlow
		}
		f := geojson.NewFeature(line)
		f.Properties["feature_type"] = layer
		f.Properties["segment_id"] = p.ID
		f.Properties["diameter_mm"] = p.InnerDiameterM * 1000
		f.Properties["std_type"] = p.StdType
		f.Properties["length_m"] = p.LengthKm * 1000
		doc.Features = append(doc.Features, f)
	}

	for _, c := range net.Consumers {
		line := orb.LineString{junctionPoint(net, c.To), junctionPoint(net, c.From)}
		f := geojson.NewFeature(line)
		f.Properties["feature_type"] = FeatureBuildingConnection
		f.Properties["connection_id"] = c.ID
		f.Properties["heat_demand_W"] = c.QextW
		doc.Features = append(doc.Features, f)
	}

	for _, pp := range net.PumpsP {
		line := orb.LineString{junctionPoint(net, pp.ReturnJ), junctionPoint(net, pp.FlowJ)}
		f := geojson.NewFeature(line)
		f.Properties["feature_type"] = FeatureGeneratorConnection
		f.Properties["producer_type"] = "main"
		f.Properties["connection_id"] = pp.ID
		f.Properties["t_flow_k"] = pp.TFlowK
		f.Properties["p_flow_bar"] = pp.PFlowBar
		f.Properties["p_lift_bar"] = pp.PLiftBar
		doc.Features = append(doc.Features, f)
	}

	for _, mp := range net.PumpsM {
		line := orb.LineString{junctionPoint(net, mp.ReturnJ), junctionPoint(net, mp.FlowJ)}
		f := geojson.NewFeature(line)
		f.Properties["feature_type"] = FeatureGeneratorConnection
		f.Properties["producer_type"] = "secondary"
		f.Properties["connection_id"] = mp.ID
		f.Properties["t_flow_k"] = mp.TFlowK
		f.Properties["p_flow_bar"] = mp.PFlowBar
		f.Properties["mdot_kg_per_s"] = mp.MDotKgPerS
		doc.Features = append(doc.Features, f)
	}

	return doc
}

func junctionPoint(net *network.Network, id int) orb.Point {
	j := net.Junctions[id]
	return orb.Point{j.Coord.X, j.Coord.Y}
}

// ReadNetwork parses a unified or legacy GeoJSON document and rebuilds a
// Network. Legacy (non-unified) files are loaded as a single layer inferred
// from the first feature's feature_type, matching "legacy single-purpose
// files are loaded as-is".
func ReadNetwork(raw []byte) (*network.Network, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, simerrors.Wrap(simerrors.InvalidInput, "parsing network geojson", err)
	}

	net := network.New()
	junctionAt := func(pt orb.Point, pNomBar, tRefK float64) int {
		return net.AddJunction(network.Coord{X: pt[0], Y: pt[1]}, pNomBar, tRefK)
	}

	for _, f := range doc.Features {
		featureType, _ := f.Properties["feature_type"].(string)
		line, ok := f.Geometry.(orb.LineString)
		if !ok || len(line) < 2 {
			continue
		}
		from := junctionAt(line[0], 4.0, 363.15)
		to := junctionAt(line[len(line)-1], 4.0, 363.15)

		switch featureType {
		case FeatureFlow, FeatureReturn:
			diaMM, _ := f.Properties["diameter_mm"].(float64)
			stdType, _ := f.Properties["std_type"].(string)
			lengthM, _ := f.Properties["length_m"].(float64)
			net.AddPipe(from, to, stdType, diaMM/1000, lengthM/1000, 0.1, 0.2, 1, 283.15, featureType)
		case FeatureBuildingConnection:
			qextW, _ := f.Properties["heat_demand_W"].(float64)
			net.AddHeatConsumer(to, from, qextW, 333.15, 0)
		case FeatureGeneratorConnection:
			tFlowK, _ := f.Properties["t_flow_k"].(float64)
			pFlowBar, _ := f.Properties["p_flow_bar"].(float64)
			producerType, _ := f.Properties["producer_type"].(string)
			switch producerType {
			case "secondary":
				mdot, _ := f.Properties["mdot_kg_per_s"].(float64)
				net.AddCircPumpMass(from, to, mdot, pFlowBar, tFlowK)
			default:
				pLiftBar, _ := f.Properties["p_lift_bar"].(float64)
				net.AddCircPumpPressure(from, to, pFlowBar, pLiftBar, tFlowK)
			}
		}
	}

	return net, nil
}
