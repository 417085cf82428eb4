// Package defaults holds the process-wide default registry: paging and
// facet sizes, the default output variant, and the names of the fields that
// carry coordinates. A Registry is built once at startup and only read after.
package defaults

import "strconv"

// Params holds the request parameter defaults merged under explicit values.
type Params struct {
	Start     int    `toml:"start" json:"start"`
	Limit     int    `toml:"limit" json:"limit"`
	SizeFacet int    `toml:"size_facet" json:"size_facet"`
	Variant   string `toml:"variant" json:"variant"`
}

// GeoFields names the document fields used for geometry and spatial filters.
type GeoFields struct {
	Longitude  string `toml:"longitude" json:"longitude"`
	Latitude   string `toml:"latitude" json:"latitude"`
	Altitude   string `toml:"altitude" json:"altitude"`
	Geometry   string `toml:"geometry" json:"geometry"`
	ShapeField string `toml:"shape_field" json:"shape_field"`
}

// Options carries everything needed to build a Registry. Zero values fall
// back to the built-in defaults.
type Options struct {
	Params   Params
	Geo      GeoFields
	CatchAll string
}

// Registry is an immutable snapshot of the defaults. The zero value is not
// useful; use New or Builtin.
type Registry struct {
	params   Params
	geo      GeoFields
	catchAll string
}

var builtinParams = Params{
	Start:     0,
	Limit:     100,
	SizeFacet: 10,
	Variant:   "list",
}

var builtinGeo = GeoFields{
	Longitude:  "longitude",
	Latitude:   "latitude",
	Altitude:   "altitude",
	Geometry:   "point",
	ShapeField: "geometry",
}

// DefaultCatchAll is the field searched when a query names no field.
const DefaultCatchAll = "*"

// Builtin returns a registry holding the built-in defaults only.
func Builtin() *Registry {
	return New(Options{})
}

// New builds a registry, filling unset options from the built-in defaults.
func New(opts Options) *Registry {
	r := &Registry{
		params:   builtinParams,
		geo:      builtinGeo,
		catchAll: DefaultCatchAll,
	}

	p := opts.Params
	if p.Start > 0 {
		r.params.Start = p.Start
	}
	if p.Limit > 0 {
		r.params.Limit = p.Limit
	}
	if p.SizeFacet > 0 {
		r.params.SizeFacet = p.SizeFacet
	}
	if p.Variant != "" {
		r.params.Variant = p.Variant
	}

	g := opts.Geo
	if g.Longitude != "" {
		r.geo.Longitude = g.Longitude
	}
	if g.Latitude != "" {
		r.geo.Latitude = g.Latitude
	}
	if g.Altitude != "" {
		r.geo.Altitude = g.Altitude
	}
	if g.Geometry != "" {
		r.geo.Geometry = g.Geometry
	}
	if g.ShapeField != "" {
		r.geo.ShapeField = g.ShapeField
	}

	if opts.CatchAll != "" {
		r.catchAll = opts.CatchAll
	}

	return r
}

// DefaultParams returns a copy of the parameter defaults.
func (r *Registry) DefaultParams() Params {
	return r.params
}

// DefaultGeoFields returns a copy of the geo field names.
func (r *Registry) DefaultGeoFields() GeoFields {
	return r.geo
}

// CatchAll returns the name of the catch-all field.
func (r *Registry) CatchAll() string {
	return r.catchAll
}

// Values returns the parameter defaults keyed by their query-string names,
// in the order they are merged into a parameter bag.
func (r *Registry) Values() [][2]string {
	return [][2]string{
		{"start", strconv.Itoa(r.params.Start)},
		{"limit", strconv.Itoa(r.params.Limit)},
		{"size-facet", strconv.Itoa(r.params.SizeFacet)},
		{"variant", r.params.Variant},
	}
}

// IsDefault reports whether value equals the registered default for key.
func (r *Registry) IsDefault(key, value string) bool {
	for _, kv := range r.Values() {
		if kv[0] == key {
			return kv[1] == value
		}
	}
	return false
}
