package geospatial

import (
	"encoding/json"
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ErrInvalidCoordinates is returned for coordinates outside WGS84 range.
var ErrInvalidCoordinates = errors.New("invalid geographic coordinates")

// ValidateCoordinates checks a latitude/longitude pair.
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// ValidateGeoJSON validates a GeoJSON geometry or feature payload.
func ValidateGeoJSON(payload []byte) (orb.Geometry, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	if t, ok := raw["type"].(string); ok && t == "Feature" {
		feature, err := geojson.UnmarshalFeature(payload)
		if err != nil {
			return nil, err
		}
		if feature.Geometry == nil {
			return nil, errors.New("invalid GeoJSON: no geometry")
		}
		return feature.Geometry, nil
	}

	geometry, err := geojson.UnmarshalGeometry(payload)
	if err != nil {
		return nil, err
	}
	return geometry.Geometry(), nil
}

// CalculateArea calculates the planar area of a geometry.
func CalculateArea(geometry orb.Geometry) float64 {
	return planar.Area(geometry)
}

// CalculateCentroid calculates the centroid of a geometry.
func CalculateCentroid(geometry orb.Geometry) orb.Point {
	centroid, _ := planar.CentroidArea(geometry)
	return centroid
}

// ConvertToHectares converts square meters to hectares.
func ConvertToHectares(sqMeters float64) float64 {
	return sqMeters / 10000
}
