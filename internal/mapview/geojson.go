package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/richxcame/maproute/pkg/geo"
)

func toPoint(c geo.Coordinate) orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

func fitBounds(a, b geo.Coordinate) *Bounds {
	bound := orb.MultiPoint{toPoint(a), toPoint(b)}.Bound()
	return &Bounds{
		SouthWest: geo.Coordinate{Latitude: bound.Min.Lat(), Longitude: bound.Min.Lon()},
		NorthEast: geo.Coordinate{Latitude: bound.Max.Lat(), Longitude: bound.Max.Lon()},
		Padding:   fitPadding,
	}
}

// GeoJSON returns the markers and route as a FeatureCollection in
// [lon, lat] order.
func (v View) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, m := range v.Markers {
		f := geojson.NewFeature(toPoint(m.Position))
		f.Properties["role"] = m.Role
		f.Properties["popup"] = m.Popup
		f.Properties["icon"] = m.Icon.URL
		if m.H3Cell != "" {
			f.Properties["h3_cell"] = m.H3Cell
		}
		fc.Append(f)
	}

	if v.Polyline != nil {
		line := make(orb.LineString, 0, len(v.Polyline.Positions))
		for _, p := range v.Polyline.Positions {
			line = append(line, toPoint(p))
		}
		f := geojson.NewFeature(line)
		f.Properties["role"] = "route"
		f.Properties["color"] = v.Polyline.Color
		f.Properties["weight"] = v.Polyline.Weight
		f.Properties["dash_array"] = v.Polyline.DashArray
		f.Properties["opacity"] = v.Polyline.Opacity
		if v.Distance != "" {
			f.Properties["distance"] = v.Distance
			f.Properties["duration"] = v.Duration
		}
		fc.Append(f)
	}

	if v.FitBounds != nil {
		fc.BBox = geojson.NewBBox(orb.Bound{
			Min: toPoint(v.FitBounds.SouthWest),
			Max: toPoint(v.FitBounds.NorthEast),
		})
	}

	return fc
}
