package compute

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// baseTime is a fixed reference point so all test timings are deterministic.
var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// tick returns baseTime advanced by n seconds.
func tick(n int) time.Time {
	return baseTime.Add(time.Duration(n) * time.Second)
}

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func spot(sender, receiver, band, mode string, snr int, km float64, ts time.Time) types.Spot {
	return types.Spot{
		Sender:     sender,
		Receiver:   receiver,
		Band:       band,
		Mode:       mode,
		SNR:        snr,
		DistanceKm: km,
		Timestamp:  ts,
	}
}

const window = 15 * time.Minute

func TestPersonal_Empty(t *testing.T) {
	snap := Personal(nil, window, types.DirectionRX, "K2ABC")
	if snap.TotalSpots != 0 {
		t.Errorf("TotalSpots = %d, want 0", snap.TotalSpots)
	}
	if snap.MostActiveBand != "Unknown" {
		t.Errorf("MostActiveBand = %q, want Unknown", snap.MostActiveBand)
	}
	if snap.MostActiveMode != "Unknown" {
		t.Errorf("MostActiveMode = %q, want Unknown", snap.MostActiveMode)
	}
	if snap.AvgSNR != 0 {
		t.Errorf("AvgSNR = %v, want 0", snap.AvgSNR)
	}
	if snap.SpotsPerMinute != 0 {
		t.Errorf("SpotsPerMinute = %v, want 0", snap.SpotsPerMinute)
	}
	if snap.BandCounts == nil || snap.ModeCounts == nil {
		t.Error("count maps should be non-nil even when empty")
	}
	if !snap.LastSpotAt.IsZero() {
		t.Errorf("LastSpotAt = %v, want zero", snap.LastSpotAt)
	}
}

func TestPersonal_ReceiveScenario(t *testing.T) {
	spots := []types.Spot{
		spot("W1AW", "K2ABC", "20m", "FT8", 5, 0, tick(0)),
		spot("N3XYZ", "K2ABC", "20m", "FT8", -3, 0, tick(30)),
	}
	snap := Personal(spots, window, types.DirectionRX, "K2ABC")

	if snap.Mode != types.ModePersonal {
		t.Errorf("Mode = %q, want personal", snap.Mode)
	}
	if snap.TotalSpots != 2 {
		t.Errorf("TotalSpots = %d, want 2", snap.TotalSpots)
	}
	if snap.UniqueStations != 2 {
		t.Errorf("UniqueStations = %d, want 2", snap.UniqueStations)
	}
	if snap.MostActiveBand != "20m" {
		t.Errorf("MostActiveBand = %q, want 20m", snap.MostActiveBand)
	}
	if snap.AvgSNR != 1.0 {
		t.Errorf("AvgSNR = %v, want 1.0", snap.AvgSNR)
	}
	if snap.MinSNR != -3 || snap.MaxSNR != 5 {
		t.Errorf("Min/MaxSNR = %d/%d, want -3/5", snap.MinSNR, snap.MaxSNR)
	}
	if !snap.LastSpotAt.Equal(tick(30)) {
		t.Errorf("LastSpotAt = %v, want %v", snap.LastSpotAt, tick(30))
	}
}

func TestPersonal_TransmitCountsReceivers(t *testing.T) {
	spots := []types.Spot{
		spot("K2ABC", "W1AW", "40m", "CW", 10, 0, tick(0)),
		spot("K2ABC", "W1AW", "40m", "CW", 12, 0, tick(1)),
		spot("K2ABC", "DL1XX", "20m", "FT8", -20, 0, tick(2)),
	}
	if got := Personal(spots, window, types.DirectionTX, "K2ABC").UniqueStations; got != 2 {
		t.Errorf("tx UniqueStations = %d, want 2", got)
	}
	if got := Personal(spots, window, types.DirectionRX, "K2ABC").UniqueStations; got != 1 {
		t.Errorf("rx UniqueStations = %d, want 1 (sender identity)", got)
	}
}

func TestPersonal_DualCountsCounterparts(t *testing.T) {
	spots := []types.Spot{
		spot("W1AW", "K2ABC", "20m", "FT8", 0, 0, tick(0)),
		spot("K2ABC", "DL1XX", "20m", "FT8", 0, 0, tick(1)),
		spot("K2ABC", "JA1YY", "40m", "FT8", 0, 0, tick(2)),
	}
	spots[1].ReceiverCountry = "Germany"
	spots[1].SenderCountry = "United States"

	snap := Personal(spots, window, types.DirectionDual, "K2ABC")
	if snap.UniqueStations != 3 {
		t.Errorf("UniqueStations = %d, want 3", snap.UniqueStations)
	}
	if snap.UniqueCountries != 1 {
		t.Errorf("UniqueCountries = %d, want 1 (receiver country of own transmission)", snap.UniqueCountries)
	}

	// Callsign comparison ignores case.
	if got := Personal(spots, window, types.DirectionDual, "k2abc").UniqueStations; got != 3 {
		t.Errorf("lower-case callsign: UniqueStations = %d, want 3", got)
	}
}

func TestPersonal_BandModeBreakdown(t *testing.T) {
	spots := []types.Spot{
		spot("A1A", "K2ABC", "20m", "FT8", -10, 1000, tick(0)),
		spot("A1A", "K2ABC", "20m", "FT8", 0, 0, tick(1)),
		spot("B1B", "K2ABC", "20m", "FT8", 4, 3000, tick(2)),
		spot("C1C", "K2ABC", "20m", "CW", 12, 0, tick(3)),
		spot("C1C", "K2ABC", "40m", "FT8", 6, 500, tick(4)),
	}
	spots[0].SenderCountry = "Canada"
	spots[2].SenderCountry = "Brazil"
	spots[4].SenderCountry = "Canada"

	snap := Personal(spots, window, types.DirectionRX, "K2ABC")

	ft8 := snap.Breakdown["20m"]["FT8"]
	want := types.BandModeStats{Count: 3, AvgSNR: -2, AvgDistanceKm: 2000, UniqueStations: 2}
	if ft8 != want {
		t.Errorf("20m/FT8 = %+v, want %+v", ft8, want)
	}
	if cw := snap.Breakdown["20m"]["CW"]; cw.Count != 1 || cw.AvgDistanceKm != 0 {
		t.Errorf("20m/CW = %+v, want one spot with unknown distance", cw)
	}
	if _, ok := snap.Breakdown["40m"]["CW"]; ok {
		t.Error("40m/CW present with no spots")
	}

	if snap.BandCountries["20m"] != 2 || snap.BandCountries["40m"] != 1 {
		t.Errorf("BandCountries = %v, want 20m:2 40m:1", snap.BandCountries)
	}
	if snap.ModeStations["FT8"] != 3 || snap.ModeStations["CW"] != 1 {
		t.Errorf("ModeStations = %v, want FT8:3 CW:1", snap.ModeStations)
	}
}

func TestPersonal_TopPairs(t *testing.T) {
	spots := []types.Spot{
		spot("A1A", "K2ABC", "20m", "FT8", -10, 0, tick(5)),
		spot("A1A", "K2ABC", "20m", "FT8", 4, 0, tick(1)),
		spot("A1A", "K2ABC", "20m", "FT8", 0, 0, tick(9)),
		spot("B1B", "K2ABC", "20m", "FT8", 1, 0, tick(2)),
		spot("C1C", "K2ABC", "20m", "FT8", 2, 0, tick(3)),
	}
	pairs := Personal(spots, window, types.DirectionRX, "K2ABC").TopPairs
	if len(pairs) != 3 {
		t.Fatalf("len(TopPairs) = %d, want 3", len(pairs))
	}

	top := pairs[0]
	if top.Sender != "A1A" || top.Receiver != "K2ABC" || top.Count != 3 {
		t.Errorf("top pair = %+v, want A1A>K2ABC x3", top)
	}
	if top.AvgSNR != -2 || top.MinSNR != -10 || top.MaxSNR != 4 {
		t.Errorf("top pair SNR avg/min/max = %v/%d/%d, want -2/-10/4", top.AvgSNR, top.MinSNR, top.MaxSNR)
	}
	if !top.FirstSeen.Equal(tick(1)) || !top.LastSeen.Equal(tick(9)) {
		t.Errorf("top pair seen %v..%v, want %v..%v", top.FirstSeen, top.LastSeen, tick(1), tick(9))
	}
	// Equal counts: the most recently heard pair first.
	if pairs[1].Sender != "C1C" || pairs[2].Sender != "B1B" {
		t.Errorf("tie order = %s, %s; want C1C, B1B", pairs[1].Sender, pairs[2].Sender)
	}
}

func TestPersonal_TopPairsBounded(t *testing.T) {
	spots := make([]types.Spot, MaxPairs+10)
	for i := range spots {
		spots[i] = spot(fmt.Sprintf("A%dA", i), "K2ABC", "20m", "FT8", 0, 0, tick(i))
	}
	if got := len(Personal(spots, window, types.DirectionRX, "K2ABC").TopPairs); got != MaxPairs {
		t.Errorf("len(TopPairs) = %d, want %d", got, MaxPairs)
	}
}

func TestPersonal_DistanceIgnoresUnknown(t *testing.T) {
	spots := []types.Spot{
		spot("A1A", "K2ABC", "20m", "FT8", 0, 0, tick(0)),
		spot("B1B", "K2ABC", "20m", "FT8", 0, 1000, tick(1)),
		spot("C1C", "K2ABC", "20m", "FT8", 0, 3000.04, tick(2)),
	}
	snap := Personal(spots, window, types.DirectionRX, "K2ABC")
	if snap.AvgDistanceKm != 2000 {
		t.Errorf("AvgDistanceKm = %v, want 2000", snap.AvgDistanceKm)
	}
	if snap.MinDistanceKm != 1000 || snap.MaxDistanceKm != 3000 {
		t.Errorf("Min/MaxDistanceKm = %v/%v, want 1000/3000", snap.MinDistanceKm, snap.MaxDistanceKm)
	}
}

func TestPersonal_BandAndModeCounts(t *testing.T) {
	spots := []types.Spot{
		spot("A1A", "K2ABC", "40m", "FT8", 0, 0, tick(0)),
		spot("B1B", "K2ABC", "20m", "FT4", 0, 0, tick(1)),
		spot("C1C", "K2ABC", "20m", "FT8", 0, 0, tick(2)),
	}
	snap := Personal(spots, window, types.DirectionRX, "K2ABC")
	if snap.BandCounts["20m"] != 2 || snap.BandCounts["40m"] != 1 {
		t.Errorf("BandCounts = %v", snap.BandCounts)
	}
	if snap.MostActiveMode != "FT8" {
		t.Errorf("MostActiveMode = %q, want FT8", snap.MostActiveMode)
	}
	if snap.ActiveBands != 2 {
		t.Errorf("ActiveBands = %d, want 2", snap.ActiveBands)
	}
}

func TestSpotsPerMinute(t *testing.T) {
	if got := SpotsPerMinute(30, 15*time.Minute); got != 2 {
		t.Errorf("30 spots over 15m = %v, want 2", got)
	}
	if got := SpotsPerMinute(10, 0); got != 0 {
		t.Errorf("zero window = %v, want 0", got)
	}
	if got := SpotsPerMinute(10, -time.Minute); got != 0 {
		t.Errorf("negative window = %v, want 0", got)
	}
}

func TestPersonal_SpotsPerMinuteRounded(t *testing.T) {
	spots := make([]types.Spot, 10)
	for i := range spots {
		spots[i] = spot("A1A", "K2ABC", "20m", "FT8", 0, 0, tick(i))
	}
	// 10 / 15 = 0.666... → 0.67
	if got := Personal(spots, window, types.DirectionRX, "K2ABC").SpotsPerMinute; got != 0.67 {
		t.Errorf("SpotsPerMinute = %v, want 0.67", got)
	}
}

func TestGlobal_FromTotals(t *testing.T) {
	var tot Totals
	tot.Processed = 30
	tot.Stations = 12
	tot.Countries = 4
	tot.Bands.AddN("40m", 20)
	tot.Bands.AddN("20m", 10)
	tot.Modes.AddN("FT8", 30)
	tot.SNR.Add(-10)
	tot.SNR.Add(0)
	tot.LastSpotAt = tick(99)

	snap := Global(tot, window)
	if snap.Mode != types.ModeGlobal {
		t.Errorf("Mode = %q, want global", snap.Mode)
	}
	if snap.TotalSpots != 30 || snap.ProcessedMessages != 30 {
		t.Errorf("TotalSpots/Processed = %d/%d, want 30/30", snap.TotalSpots, snap.ProcessedMessages)
	}
	if snap.MostActiveBand != "40m" {
		t.Errorf("MostActiveBand = %q, want 40m", snap.MostActiveBand)
	}
	if snap.UniqueStations != 12 {
		t.Errorf("UniqueStations = %d, want 12", snap.UniqueStations)
	}
	if snap.AvgSNR != -5 {
		t.Errorf("AvgSNR = %v, want -5", snap.AvgSNR)
	}
	if snap.SpotsPerMinute != 2 {
		t.Errorf("SpotsPerMinute = %v, want 2", snap.SpotsPerMinute)
	}

	// The snapshot's maps must not alias the totals.
	snap.BandCounts["40m"] = 0
	if tot.Bands.Get("40m") != 20 {
		t.Error("Global snapshot shares its band map with the totals")
	}
}
