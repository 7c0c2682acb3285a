package compute

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// Totals is a copy of the global aggregator's running state.
type Totals struct {
	// Processed is the number of sampled messages folded in since WindowStart.
	Processed   uint64
	WindowStart time.Time

	Bands Counts
	Modes Counts

	// Stations and Countries are distinct counts.
	Stations  int
	Countries int

	SNR      Summary
	Distance Summary

	LastSpotAt time.Time
}

// MaxPairs bounds the sender/receiver pair table of a personal snapshot.
const MaxPairs = 25

// group accumulates the spots of one band and mode.
type group struct {
	snr, distance Summary
	stations      map[string]struct{}
}

// Personal computes statistics over spots already limited to the stats window.
// A station is the counterpart of callsign: the sender for receive direction,
// the receiver for transmit direction. In dual direction it is the receiver
// of spots callsign sent and the sender of every other spot.
func Personal(spots []types.Spot, window time.Duration, dir types.Direction, callsign string) types.WindowedSnapshot {
	var (
		bands, modes  Counts
		snr, distance Summary
		last          time.Time
	)
	stations := make(map[string]struct{})
	countries := make(map[string]struct{})
	groups := make(map[string]map[string]*group)
	bandCountries := make(map[string]map[string]struct{})
	modeStations := make(map[string]map[string]struct{})
	pairs := make(map[[2]string]*types.PairStats)

	for _, sp := range spots {
		station, country := counterpart(sp, dir, callsign)
		stations[station] = struct{}{}
		if country != "" {
			countries[country] = struct{}{}
			addMember(bandCountries, sp.Band, country)
		}
		addMember(modeStations, sp.Mode, station)

		bands.Add(sp.Band)
		modes.Add(sp.Mode)
		snr.Add(float64(sp.SNR))
		if sp.DistanceKm > 0 {
			distance.Add(sp.DistanceKm)
		}
		if sp.Timestamp.After(last) {
			last = sp.Timestamp
		}

		g := groupFor(groups, sp.Band, sp.Mode)
		g.snr.Add(float64(sp.SNR))
		if sp.DistanceKm > 0 {
			g.distance.Add(sp.DistanceKm)
		}
		g.stations[station] = struct{}{}

		foldPair(pairs, sp)
	}

	snap := build(&bands, &modes, snr, distance, len(spots), window)
	snap.Mode = types.ModePersonal
	snap.Direction = dir
	snap.UniqueStations = len(stations)
	snap.UniqueCountries = len(countries)
	snap.LastSpotAt = last
	snap.Breakdown = breakdown(groups)
	snap.BandCountries = sizes(bandCountries)
	snap.ModeStations = sizes(modeStations)
	snap.TopPairs = topPairs(pairs, MaxPairs)
	return snap
}

func counterpart(sp types.Spot, dir types.Direction, callsign string) (string, string) {
	switch dir {
	case types.DirectionTX:
		return sp.Receiver, sp.ReceiverCountry
	case types.DirectionDual:
		if strings.EqualFold(sp.Sender, callsign) {
			return sp.Receiver, sp.ReceiverCountry
		}
	}
	return sp.Sender, sp.SenderCountry
}

func groupFor(groups map[string]map[string]*group, band, mode string) *group {
	byMode, ok := groups[band]
	if !ok {
		byMode = make(map[string]*group)
		groups[band] = byMode
	}
	g, ok := byMode[mode]
	if !ok {
		g = &group{stations: make(map[string]struct{})}
		byMode[mode] = g
	}
	return g
}

func addMember(sets map[string]map[string]struct{}, key, member string) {
	set, ok := sets[key]
	if !ok {
		set = make(map[string]struct{})
		sets[key] = set
	}
	set[member] = struct{}{}
}

func sizes(sets map[string]map[string]struct{}) map[string]int {
	out := make(map[string]int, len(sets))
	for k, set := range sets {
		out[k] = len(set)
	}
	return out
}

func breakdown(groups map[string]map[string]*group) map[string]map[string]types.BandModeStats {
	out := make(map[string]map[string]types.BandModeStats, len(groups))
	for band, byMode := range groups {
		row := make(map[string]types.BandModeStats, len(byMode))
		for mode, g := range byMode {
			row[mode] = types.BandModeStats{
				Count:          g.snr.Count,
				AvgSNR:         round(g.snr.Mean(), 1),
				AvgDistanceKm:  round(g.distance.Mean(), 1),
				UniqueStations: len(g.stations),
			}
		}
		out[band] = row
	}
	return out
}

func foldPair(pairs map[[2]string]*types.PairStats, sp types.Spot) {
	key := [2]string{sp.Sender, sp.Receiver}
	p, ok := pairs[key]
	if !ok {
		pairs[key] = &types.PairStats{
			Sender:    sp.Sender,
			Receiver:  sp.Receiver,
			Count:     1,
			AvgSNR:    float64(sp.SNR),
			MinSNR:    sp.SNR,
			MaxSNR:    sp.SNR,
			FirstSeen: sp.Timestamp,
			LastSeen:  sp.Timestamp,
		}
		return
	}
	// AvgSNR holds the running sum until topPairs divides it.
	p.Count++
	p.AvgSNR += float64(sp.SNR)
	p.MinSNR = min(p.MinSNR, sp.SNR)
	p.MaxSNR = max(p.MaxSNR, sp.SNR)
	if sp.Timestamp.Before(p.FirstSeen) {
		p.FirstSeen = sp.Timestamp
	}
	if sp.Timestamp.After(p.LastSeen) {
		p.LastSeen = sp.Timestamp
	}
}

// topPairs returns at most limit pairs, busiest first. Ties go to the most
// recently heard pair, then to sender and receiver order.
func topPairs(pairs map[[2]string]*types.PairStats, limit int) []types.PairStats {
	out := make([]types.PairStats, 0, len(pairs))
	for _, p := range pairs {
		ps := *p
		ps.AvgSNR = round(ps.AvgSNR/float64(ps.Count), 1)
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if !a.LastSeen.Equal(b.LastSeen) {
			return a.LastSeen.After(b.LastSeen)
		}
		if a.Sender != b.Sender {
			return a.Sender < b.Sender
		}
		return a.Receiver < b.Receiver
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Global computes statistics from aggregator totals.
func Global(t Totals, window time.Duration) types.WindowedSnapshot {
	snap := build(&t.Bands, &t.Modes, t.SNR, t.Distance, int(t.Processed), window)
	snap.Mode = types.ModeGlobal
	snap.ProcessedMessages = t.Processed
	snap.UniqueStations = t.Stations
	snap.UniqueCountries = t.Countries
	snap.LastSpotAt = t.LastSpotAt
	return snap
}

// build fills the fields shared by both modes.
func build(bands, modes *Counts, snr, distance Summary, total int, window time.Duration) types.WindowedSnapshot {
	snap := types.WindowedSnapshot{
		WindowSeconds:  window.Seconds(),
		TotalSpots:     total,
		BandCounts:     bands.Map(),
		ModeCounts:     modes.Map(),
		ActiveBands:    bands.Len(),
		AvgSNR:         round(snr.Mean(), 1),
		AvgDistanceKm:  round(distance.Mean(), 1),
		SpotsPerMinute: round(SpotsPerMinute(total, window), 2),
	}
	snap.MostActiveBand, _ = bands.Top()
	snap.MostActiveMode, _ = modes.Top()
	if snr.Count > 0 {
		snap.MinSNR, snap.MaxSNR = int(snr.Min), int(snr.Max)
	}
	if distance.Count > 0 {
		snap.MinDistanceKm, snap.MaxDistanceKm = round(distance.Min, 1), round(distance.Max, 1)
	}
	return snap
}

// SpotsPerMinute returns count / (window in minutes), 0 for a non-positive window.
func SpotsPerMinute(count int, window time.Duration) float64 {
	minutes := window.Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(count) / minutes
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
