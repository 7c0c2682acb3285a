package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/grandcat/zeroconf"
)

const (
	serviceType = "_pskrmon._tcp"
	domain      = "local."
	maxLabelLen = 63
)

// Info describes the instance being advertised.
type Info struct {
	// Instance overrides the default "pskrmon <callsign> (<host>)" name.
	Instance string
	HTTPPort int
	GRPCPort int
	Callsign string
	Mode     string
}

// Advertiser holds a live mDNS registration.
type Advertiser struct {
	server   *zeroconf.Server
	instance string
}

// Register starts advertising info. Call Shutdown to withdraw it.
func Register(info Info) (*Advertiser, error) {
	if info.HTTPPort <= 0 {
		return nil, fmt.Errorf("discovery: invalid http port %d", info.HTTPPort)
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "pskrmon"
	}

	instance := sanitizeInstance(instanceName(info, hostname))
	server, err := zeroconf.Register(instance, serviceType, domain, info.HTTPPort, txtRecords(info, hostname), nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: register: %w", err)
	}

	slog.Info("discovery: mDNS advertisement started", "instance", instance, "port", info.HTTPPort)
	return &Advertiser{server: server, instance: instance}, nil
}

// Shutdown withdraws the advertisement. Safe on a nil Advertiser.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	slog.Info("discovery: mDNS advertisement stopped", "instance", a.instance)
}

func instanceName(info Info, hostname string) string {
	if info.Instance != "" {
		return info.Instance
	}
	if info.Callsign != "" {
		return fmt.Sprintf("pskrmon %s (%s)", info.Callsign, hostname)
	}
	return fmt.Sprintf("pskrmon %s (%s)", info.Mode, hostname)
}

func txtRecords(info Info, hostname string) []string {
	host := sanitizeHost(hostname)
	if !strings.Contains(host, ".") {
		host += ".local"
	}
	txt := []string{
		fmt.Sprintf("http_port=%d", info.HTTPPort),
		fmt.Sprintf("grpc_port=%d", info.GRPCPort),
		fmt.Sprintf("mode=%s", info.Mode),
		"proto=v1",
		fmt.Sprintf("host=%s", host),
	}
	if info.Callsign != "" {
		txt = append(txt, fmt.Sprintf("callsign=%s", info.Callsign))
	}
	return txt
}

func sanitizeInstance(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = strings.NewReplacer("\n", " ", "\r", " ", ".", " ", "_", " ").Replace(cleaned)
	if cleaned == "" {
		cleaned = "pskrmon"
	}
	return truncate(cleaned)
}

func sanitizeHost(name string) string {
	cleaned := strings.TrimSpace(strings.ToLower(name))
	cleaned = strings.NewReplacer(" ", "-", "_", "-", "\n", "", "\r", "").Replace(cleaned)
	if cleaned == "" {
		cleaned = "pskrmon"
	}
	return truncate(cleaned)
}

// truncate caps s at the DNS label limit.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) > maxLabelLen {
		return string(runes[:maxLabelLen])
	}
	return s
}
