package model

import (
	"math"
	"slices"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat, Lng float64
}

// Neighbourhoods are the place names posts and accounts are located in.
var Neighbourhoods = []string{"Northside", "Old Town", "Harbor", "Riverside", "Hilltop"}

var neighbourhoodPoints = map[string]Point{
	"Northside": {Lat: 52.3921, Lng: 4.8890},
	"Old Town":  {Lat: 52.3731, Lng: 4.8922},
	"Harbor":    {Lat: 52.3780, Lng: 4.9190},
	"Riverside": {Lat: 52.3490, Lng: 4.9150},
	"Hilltop":   {Lat: 52.3560, Lng: 4.8580},
}

// Locate returns the coordinate of a neighbourhood.
func Locate(place string) (Point, bool) {
	p, ok := neighbourhoodPoints[place]
	return p, ok
}

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// WithDistances returns a copy of posts with Distance measured from the
// neighbourhood home. Posts in an unknown place get no distance. An unknown
// home leaves every distance unset.
func WithDistances(posts []Post, home string) []Post {
	out := slices.Clone(posts)
	from, ok := Locate(home)
	for i := range out {
		out[i].Distance = nil
		if !ok {
			continue
		}
		if to, ok := Locate(out[i].Location); ok {
			d := DistanceKm(from, to)
			out[i].Distance = &d
		}
	}
	return out
}
