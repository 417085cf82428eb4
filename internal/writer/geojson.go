package writer

import (
	"encoding/json"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/npolar/icelastic-ws/internal/feed"
	"github.com/npolar/icelastic-ws/internal/params"
	"github.com/npolar/icelastic-ws/internal/query"
)

const (
	geometryPoint      = "point"
	geometryLineString = "linestring"
	geometryMultiPoint = "multipoint"

	// statsCoordinate is the statistic read when coordinates are stats
	// objects rather than numbers.
	statsCoordinate = "avg"
)

// GeoJSON writes a FeatureCollection. By default every record becomes a
// point feature; geometry=linestring or geometry=multipoint collapse the
// records into a single feature.
type GeoJSON struct{}

func NewGeoJSON() *GeoJSON {
	return &GeoJSON{}
}

func (g *GeoJSON) Format() string    { return FormatGeoJSON }
func (g *GeoJSON) MediaType() string { return "application/geo+json" }

type coordinateKeys struct {
	lng, lat, alt string
}

func coordinateKeysFor(b *params.Bag) coordinateKeys {
	geo := b.Registry().DefaultGeoFields()
	keys := coordinateKeys{lng: geo.Longitude, lat: geo.Latitude, alt: geo.Altitude}

	parts := params.SplitList(b.Value("coordinates"))
	if len(parts) > 0 {
		keys.lng = parts[0]
	}
	if len(parts) > 1 {
		keys.lat = parts[1]
	}
	if len(parts) > 2 {
		keys.alt = parts[2]
	}
	return keys
}

func (k coordinateKeys) has(key string) bool {
	return key == k.lng || key == k.lat || key == k.alt
}

func (g *GeoJSON) Write(w io.Writer, m *feed.Model, b *params.Bag) error {
	items := m.Items()

	var features []interface{}
	if len(items) > 0 && isFeature(items[0]) {
		for _, item := range items {
			features = append(features, item)
		}
	} else {
		features = buildFeatures(items, b)
	}

	if strings.EqualFold(b.Value("type"), "feature") {
		if len(features) > 0 {
			return json.NewEncoder(w).Encode(features[0])
		}
		return json.NewEncoder(w).Encode(&geojson.Feature{})
	}

	if features == nil {
		features = []interface{}{}
	}

	collection := map[string]interface{}{
		"type":     "FeatureCollection",
		"features": features,
	}

	if bbox := b.Value("bbox"); query.IsBBox(bbox) {
		collection["bbox"] = bboxNumbers(bbox)
	}
	if b.Variant() == VariantAtom {
		collection["feed"] = feedHeader(m, true)
	}
	if b.Has("facets") && m.Facets != nil {
		collection["facets"] = facetsJSON(m.Facets)
	}
	if b.Has("stats") && m.Stats != nil {
		collection["stats"] = m.Stats
	}

	return json.NewEncoder(w).Encode(collection)
}

func buildFeatures(items []map[string]interface{}, b *params.Bag) []interface{} {
	keys := coordinateKeysFor(b)
	mode := strings.ToLower(b.Value("geometry"))
	nullGeometry := mode == "null"
	nullProperties := strings.EqualFold(b.Value("properties"), "null")

	switch mode {
	case geometryLineString, geometryMultiPoint:
		if len(items) == 0 {
			return nil
		}
		f := &geojson.Feature{}
		if !nullGeometry {
			f.Geometry = multiGeometry(mode, items, keys)
		}
		if !nullProperties {
			f.Properties = collectionProperties(items, keys, b)
		}
		return []interface{}{f}
	}

	features := make([]interface{}, 0, len(items))
	for _, item := range items {
		f := &geojson.Feature{}
		if !nullGeometry {
			if coords, layout, ok := position(item, keys); ok {
				f.Geometry = geom.NewPointFlat(layout, coords)
			}
		}
		if !nullProperties {
			f.Properties = pointProperties(item, keys)
		}
		features = append(features, f)
	}
	return features
}

// multiGeometry joins the positions of every record, in order, into one
// geometry. A third dimension is used only when every record has one.
func multiGeometry(mode string, items []map[string]interface{}, keys coordinateKeys) geom.T {
	layout := geom.XYZ
	var positions [][]float64

	for _, item := range items {
		coords, l, ok := position(item, keys)
		if !ok {
			continue
		}
		if l == geom.XY {
			layout = geom.XY
		}
		positions = append(positions, coords)
	}

	if len(positions) == 0 {
		return nil
	}

	stride := layout.Stride()
	flat := make([]float64, 0, len(positions)*stride)
	for _, p := range positions {
		flat = append(flat, p[:stride]...)
	}

	if mode == geometryMultiPoint {
		return geom.NewMultiPointFlat(layout, flat)
	}
	return geom.NewLineStringFlat(layout, flat)
}

func position(item map[string]interface{}, keys coordinateKeys) ([]float64, geom.Layout, bool) {
	lng, ok := coordinate(item[keys.lng])
	if !ok {
		return nil, geom.NoLayout, false
	}
	lat, ok := coordinate(item[keys.lat])
	if !ok {
		return nil, geom.NoLayout, false
	}
	if alt, ok := coordinate(item[keys.alt]); ok {
		return []float64{lng, lat, alt}, geom.XYZ, true
	}
	return []float64{lng, lat}, geom.XY, true
}

func coordinate(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case map[string]interface{}:
		return coordinate(t[statsCoordinate])
	}
	return 0, false
}

// pointProperties is the record minus its coordinates and any filter
// annotations. An empty result is rendered as null.
func pointProperties(item map[string]interface{}, keys coordinateKeys) map[string]interface{} {
	props := make(map[string]interface{}, len(item))
	for k, v := range item {
		if keys.has(k) || strings.HasPrefix(k, "filter") {
			continue
		}
		props[k] = v
	}
	if len(props) == 0 {
		return nil
	}
	return props
}

// collectionProperties holds the values shared by every record, plus one
// column array per key named by the array parameter.
func collectionProperties(items []map[string]interface{}, keys coordinateKeys, b *params.Bag) map[string]interface{} {
	props := make(map[string]interface{})

	for k, v := range items[0] {
		if keys.has(k) {
			continue
		}
		shared := true
		for _, item := range items[1:] {
			if other, ok := item[k]; !ok || !reflect.DeepEqual(v, other) {
				shared = false
				break
			}
		}
		if shared {
			props[k] = v
		}
	}

	if b.Has("array") {
		for _, col := range arrayColumns(b, items, keys) {
			values := make([]interface{}, len(items))
			for i, item := range items {
				values[i] = item[col]
			}
			props[col] = values
		}
	}

	return props
}

// arrayColumns resolves the array parameter. "*" selects every key except
// the coordinates and fields pinned to a single value by a filter.
func arrayColumns(b *params.Bag, items []map[string]interface{}, keys coordinateKeys) []string {
	requested := params.SplitList(b.Value("array"))
	if len(requested) != 1 || requested[0] != "*" {
		return requested
	}

	pinned := make(map[string]bool)
	for _, e := range b.Index().Entries(params.KindFilter) {
		if !strings.ContainsAny(e.Value, ",|") && !strings.Contains(e.Value, "..") {
			pinned[e.Arg] = true
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		for k := range item {
			if seen[k] || keys.has(k) || pinned[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func isFeature(item map[string]interface{}) bool {
	t, _ := item["type"].(string)
	return t == "Feature"
}

func bboxNumbers(bbox string) []float64 {
	var out []float64
	for _, p := range strings.Split(bbox, ",") {
		if f, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err == nil {
			out = append(out, f)
		}
	}
	return out
}
