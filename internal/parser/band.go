package parser

import "github.com/pskrmon/pskrmon/pkg/types"

// bandRange is one amateur band segment in MHz, bounds inclusive.
type bandRange struct {
	name     string
	low, high float64
}

// bands is ordered by ascending frequency.
var bands = []bandRange{
	{"160m", 1.8, 2.0},
	{"80m", 3.5, 4.0},
	{"60m", 5.3, 5.4},
	{"40m", 7.0, 7.3},
	{"30m", 10.1, 10.15},
	{"20m", 14.0, 14.35},
	{"17m", 18.068, 18.168},
	{"15m", 21.0, 21.45},
	{"12m", 24.89, 24.99},
	{"10m", 28.0, 29.7},
	{"6m", 50.0, 54.0},
	{"4m", 70.0, 70.5},
	{"2m", 144.0, 148.0},
	{"70cm", 420.0, 450.0},
}

// BandFor returns the band label for a frequency in MHz, or types.UnknownBand.
func BandFor(mhz float64) string {
	for _, b := range bands {
		if mhz >= b.low && mhz <= b.high {
			return b.name
		}
	}
	return types.UnknownBand
}
