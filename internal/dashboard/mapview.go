package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/facility-match/internal/model"
)

// DefaultZoom is the initial zoom level of the facility map.
const DefaultZoom = 4

// View is the initial map viewport.
type View struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
}

// Map is a point layer of mapped facilities plus the viewport to open it at.
// View is nil when no row has coordinates.
type Map struct {
	View  *View                      `json:"view"`
	Layer *geojson.FeatureCollection `json:"layer"`
}

// MapLayer builds a GeoJSON point per row with both coordinates. Rows without
// coordinates are left off the map only. The view is centred on the mean
// position of the plotted points.
func MapLayer(rows []model.MatchedRow) Map {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	var sumLat, sumLon float64

	for _, r := range rows {
		if !r.Mapped() {
			continue
		}
		lat, lon := *r.Latitude, *r.Longitude
		sumLat += lat
		sumLon += lon

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{lon, lat}),
			Properties: map[string]interface{}{
				"facility_name":    r.FacilityName,
				"county":           r.CountyName,
				"state":            r.StateName,
				"match_confidence": r.Confidence.String(),
				"account_name":     r.AccountName(),
				"account_link":     r.AccountLink,
				"tooltip":          Tooltip(r),
			},
		})
	}

	m := Map{Layer: fc}
	if n := float64(len(fc.Features)); n > 0 {
		m.View = &View{Latitude: sumLat / n, Longitude: sumLon / n, Zoom: DefaultZoom}
	}
	return m
}

// Tooltip is the hover text for a facility marker.
func Tooltip(r model.MatchedRow) string {
	account := r.AccountName()
	if account == "" {
		account = "None"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.FacilityName)
	fmt.Fprintf(&b, "County: %s, %s\n", r.CountyName, r.StateName)
	fmt.Fprintf(&b, "Population: %s\n", population(r.Population))
	fmt.Fprintf(&b, "Match: %s\n", r.Confidence)
	fmt.Fprintf(&b, "SF Account: %s", account)
	return b.String()
}

func population(p *int) string {
	if p == nil {
		return "Unknown"
	}
	return strconv.Itoa(*p)
}
