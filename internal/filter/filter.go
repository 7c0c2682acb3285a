package filter

import (
	"strings"

	"github.com/pskrmon/pskrmon/internal/parser"
	"github.com/pskrmon/pskrmon/pkg/types"
)

// ShouldInclude reports whether spot passes every rule in cfg.
func ShouldInclude(spot types.Spot, cfg types.FilterConfig) bool {
	if cfg.MinDistanceKm > 0 && spot.DistanceKm < cfg.MinDistanceKm {
		return false
	}
	if cfg.MaxDistanceKm > 0 && spot.DistanceKm > cfg.MaxDistanceKm {
		return false
	}
	if len(cfg.Modes) > 0 && !contains(cfg.Modes, spot.Mode) {
		return false
	}

	// Block lists win over allow lists.
	if matchesCall(cfg.BlockCallsigns, spot.Sender) || matchesCall(cfg.BlockCallsigns, spot.Receiver) {
		return false
	}
	if contains(cfg.BlockCountries, spot.SenderCountry) || contains(cfg.BlockCountries, spot.ReceiverCountry) {
		return false
	}
	if len(cfg.AllowCallsigns) > 0 &&
		!matchesCall(cfg.AllowCallsigns, spot.Sender) && !matchesCall(cfg.AllowCallsigns, spot.Receiver) {
		return false
	}
	if len(cfg.AllowCountries) > 0 &&
		!contains(cfg.AllowCountries, spot.SenderCountry) && !contains(cfg.AllowCountries, spot.ReceiverCountry) {
		return false
	}
	return true
}

// contains reports whether v is in list, ignoring case. Empty values never match.
func contains(list []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

func matchesCall(list []string, call string) bool {
	if len(list) == 0 {
		return false
	}
	if contains(list, call) {
		return true
	}
	base := parser.BaseCallsign(call)
	return base != strings.ToUpper(strings.TrimSpace(call)) && contains(list, base)
}
