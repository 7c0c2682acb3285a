package api

import (
	"log/slog"
	"net/http"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/pskrmon/pskrmon/internal/compute"
	"github.com/pskrmon/pskrmon/pkg/types"
)

// metrics returns GET /metrics in the Prometheus text exposition format.
// Window values come from the latest snapshot; feed counters are live.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := h.opts.Session.Snapshot()
	hm := h.opts.Session.Health()
	q := compute.Score(hm)

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range metricFamilies(snap, hm, q) {
		if len(mf.Metric) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			slog.Debug("api: write metrics", "err", err)
			return
		}
	}
}

func metricFamilies(snap types.WindowedSnapshot, hm types.HealthMetrics, q types.Quality) []*dto.MetricFamily {
	families := []*dto.MetricFamily{
		gauge("pskrmon_connected", "1 when connected to the broker.", boolValue(hm.Connected)),
		gauge("pskrmon_feed_healthy", "1 when a message arrived within the staleness threshold.", boolValue(hm.FeedHealthy)),
		gauge("pskrmon_feed_latency_seconds", "Seconds since the last message arrived.", hm.FeedLatencySeconds),
		gauge("pskrmon_uptime_seconds", "Seconds since the session started.", hm.UptimeSeconds),
		gauge("pskrmon_messages_last_minute", "Messages received in the trailing minute.", float64(hm.MessagesLastMinute)),
		counter("pskrmon_messages_total", "Messages received from the broker.", float64(hm.TotalMessages)),
		counter("pskrmon_sequence_gaps_total", "Detected sequence number gaps.", float64(hm.SequenceGaps)),
		counter("pskrmon_missed_messages_total", "Messages skipped by sequence number gaps.", float64(hm.MissedMessages)),
		counter("pskrmon_parse_errors_total", "Messages that could not be decoded.", float64(hm.ParseErrors)),
		counter("pskrmon_incomplete_spots_total", "Messages missing a required field.", float64(hm.IncompleteSpots)),
		counter("pskrmon_reconnects_total", "Connection losses after a successful connect.", float64(hm.ReconnectCount)),
		gauge("pskrmon_quality_score", "Composite feed quality score from 0 to 100.", q.Score),
		gauge("pskrmon_window_spots", "Spots in the current statistics window.", float64(snap.TotalSpots)),
		gauge("pskrmon_window_spots_per_minute", "Spot rate over the current window.", snap.SpotsPerMinute),
		gauge("pskrmon_window_unique_stations", "Distinct counterpart stations in the window.", float64(snap.UniqueStations)),
		gauge("pskrmon_window_unique_countries", "Distinct counterpart DXCC entities in the window.", float64(snap.UniqueCountries)),
		gauge("pskrmon_window_avg_snr_db", "Average SNR over the window.", snap.AvgSNR),
		gauge("pskrmon_window_avg_distance_km", "Average distance over spots with a known distance.", snap.AvgDistanceKm),
		gauge("pskrmon_sample_rate", "Only every Nth raw message is processed.", float64(snap.SampleRate)),
		labelled("pskrmon_window_band_spots", "Spots per band in the window.", "band", snap.BandCounts),
		labelled("pskrmon_window_mode_spots", "Spots per mode in the window.", "mode", snap.ModeCounts),
		labelled("pskrmon_window_band_countries", "Distinct counterpart DXCC entities per band in the window.", "band", snap.BandCountries),
		labelled("pskrmon_window_mode_stations", "Distinct counterpart stations per mode in the window.", "mode", snap.ModeStations),
	}
	return append(families, breakdownFamilies(snap.Breakdown)...)
}

// breakdownFamilies emits the band and mode table, one sample per pair.
func breakdownFamilies(bd map[string]map[string]types.BandModeStats) []*dto.MetricFamily {
	spots := gaugeFamily("pskrmon_window_band_mode_spots", "Spots per band and mode in the window.")
	snr := gaugeFamily("pskrmon_window_band_mode_avg_snr_db", "Average SNR per band and mode in the window.")
	distance := gaugeFamily("pskrmon_window_band_mode_avg_distance_km", "Average known distance per band and mode in the window.")
	stations := gaugeFamily("pskrmon_window_band_mode_stations", "Distinct counterpart stations per band and mode in the window.")

	for _, band := range sortedKeys(bd) {
		row := bd[band]
		for _, mode := range sortedKeys(row) {
			v := row[mode]
			labels := []*dto.LabelPair{
				{Name: proto.String("band"), Value: proto.String(band)},
				{Name: proto.String("mode"), Value: proto.String(mode)},
			}
			spots.Metric = append(spots.Metric, &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: proto.Float64(float64(v.Count))}})
			snr.Metric = append(snr.Metric, &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: proto.Float64(v.AvgSNR)}})
			distance.Metric = append(distance.Metric, &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: proto.Float64(v.AvgDistanceKm)}})
			stations.Metric = append(stations.Metric, &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: proto.Float64(float64(v.UniqueStations))}})
		}
	}
	return []*dto.MetricFamily{spots, snr, distance, stations}
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}

// labelled emits one gauge sample per key, sorted for stable output.
func labelled(name, help, label string, counts map[string]int) *dto.MetricFamily {
	mf := gaugeFamily(name, help)
	for _, k := range sortedKeys(counts) {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{{Name: proto.String(label), Value: proto.String(k)}},
			Gauge: &dto.Gauge{Value: proto.Float64(float64(counts[k]))},
		})
	}
	return mf
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
