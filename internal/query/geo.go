package query

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/npolar/icelastic-ws/internal/errors"
)

// GeoEnvelope restricts documents to a rectangular shape.
type GeoEnvelope struct {
	Field                    string
	West, South, East, North float64
}

func (GeoEnvelope) filterClause() {}

// FullExtent covers the whole coordinate range.
func FullExtent(field string) GeoEnvelope {
	return GeoEnvelope{Field: field, West: -180, South: -90, East: 180, North: 90}
}

func (g GeoEnvelope) Source() (interface{}, error) {
	return map[string]interface{}{
		"geo_shape": map[string]interface{}{
			g.Field: map[string]interface{}{
				"shape": map[string]interface{}{
					"type": "envelope",
					// upper left, lower right
					"coordinates": [][2]float64{{g.West, g.North}, {g.East, g.South}},
				},
			},
		},
	}, nil
}

// IsBBox reports whether value has the shape of a bbox parameter:
// w,s,e,n optionally followed by one or two altitude components.
func IsBBox(value string) bool {
	n := strings.Count(value, ",")
	return n >= 3 && n <= 5
}

// ParseBBox parses w,s,e,n[,alt...] into an envelope. Invalid input yields
// the full extent together with an ErrMalformedGeo error.
func ParseBBox(field, value string) (GeoEnvelope, error) {
	full := FullExtent(field)

	if !IsBBox(value) {
		return full, apperrors.Newf(apperrors.ErrMalformedGeo, http.StatusBadRequest, "bbox %q needs 4 to 6 components", value)
	}

	parts := strings.Split(value, ",")

	var c [4]float64
	for i := 0; i < 4; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return full, apperrors.Newf(apperrors.ErrMalformedGeo, http.StatusBadRequest, "bbox component %q is not a number", parts[i])
		}
		c[i] = f
	}

	w, s, e, n := c[0], c[1], c[2], c[3]

	if w < -180 || e > 180 || w > 180 || e < -180 || s < -90 || n > 90 || s > 90 || n < -90 {
		return full, apperrors.Newf(apperrors.ErrMalformedGeo, http.StatusBadRequest, "bbox %q is outside the coordinate range", value)
	}

	if s > n {
		s, n = n, s
	}

	return GeoEnvelope{Field: field, West: w, South: s, East: e, North: n}, nil
}
