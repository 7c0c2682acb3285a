package parser

import (
	"fmt"
	"math"
	"strings"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Geodesy computes distance and bearing between two grid locators.
// Implementations may return an error or panic; the Parser recovers either.
type Geodesy interface {
	// Distance returns the great-circle distance in kilometres.
	Distance(from, to string) (float64, error)
	// Bearing returns the initial bearing from "from" towards "to" in degrees [0, 360).
	Bearing(from, to string) (float64, error)
}

// Maidenhead is the default Geodesy. It works on the centre of each locator
// square, so results are accurate to the locator's resolution.
type Maidenhead struct{}

// Distance implements Geodesy.
func (Maidenhead) Distance(from, to string) (float64, error) {
	lat1, lon1, err := LocatorCenter(from)
	if err != nil {
		return 0, err
	}
	lat2, lon2, err := LocatorCenter(to)
	if err != nil {
		return 0, err
	}
	return haversine(lat1, lon1, lat2, lon2), nil
}

// Bearing implements Geodesy.
func (Maidenhead) Bearing(from, to string) (float64, error) {
	lat1, lon1, err := LocatorCenter(from)
	if err != nil {
		return 0, err
	}
	lat2, lon2, err := LocatorCenter(to)
	if err != nil {
		return 0, err
	}
	return initialBearing(lat1, lon1, lat2, lon2), nil
}

// LocatorCenter decodes a 4 or 6 character Maidenhead locator to the latitude
// and longitude of its centre. Longer locators are truncated to 6 characters.
func LocatorCenter(loc string) (lat, lon float64, err error) {
	loc = strings.ToUpper(strings.TrimSpace(loc))
	switch {
	case len(loc) < 4:
		return 0, 0, fmt.Errorf("locator %q: too short", loc)
	case len(loc) >= 6:
		loc = loc[:6]
	default:
		loc = loc[:4]
	}

	fieldLon, fieldLat := loc[0]-'A', loc[1]-'A'
	if fieldLon > 17 || fieldLat > 17 {
		return 0, 0, fmt.Errorf("locator %q: invalid field", loc)
	}
	sqLon, sqLat := loc[2]-'0', loc[3]-'0'
	if sqLon > 9 || sqLat > 9 {
		return 0, 0, fmt.Errorf("locator %q: invalid square", loc)
	}

	lon = -180 + float64(fieldLon)*20 + float64(sqLon)*2
	lat = -90 + float64(fieldLat)*10 + float64(sqLat)
	lonSize, latSize := 2.0, 1.0

	if len(loc) == 6 {
		subLon, subLat := loc[4]-'A', loc[5]-'A'
		if subLon > 23 || subLat > 23 {
			return 0, 0, fmt.Errorf("locator %q: invalid subsquare", loc)
		}
		lonSize, latSize = 2.0/24, 1.0/24
		lon += float64(subLon) * lonSize
		lat += float64(subLat) * latSize
	}

	return lat + latSize/2, lon + lonSize/2, nil
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	φ1, φ2 := radians(lat1), radians(lat2)
	dφ := radians(lat2 - lat1)
	dλ := radians(lon2 - lon1)

	a := math.Sin(dφ/2)*math.Sin(dφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func initialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	φ1, φ2 := radians(lat1), radians(lat2)
	dλ := radians(lon2 - lon1)

	y := math.Sin(dλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(dλ)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
