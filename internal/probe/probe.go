package probe

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name tracking feed freshness.
const ServiceName = "pskrmon.Feed"

// Source reports feed freshness. engine.Session satisfies it.
type Source interface {
	FeedHealthy() bool
}

// Probe owns a gRPC server exposing grpc.health.v1.Health.
type Probe struct {
	src      Source
	interval time.Duration
	health   *health.Server
	srv      *grpc.Server

	mu      sync.Mutex
	serving bool
	known   bool
}

// New creates a Probe that polls src every interval. opts are passed to
// grpc.NewServer, typically an auth interceptor.
func New(src Source, interval time.Duration, opts ...grpc.ServerOption) *Probe {
	p := &Probe{
		src:      src,
		interval: interval,
		health:   health.NewServer(),
		srv:      grpc.NewServer(opts...),
	}
	healthpb.RegisterHealthServer(p.srv, p.health)
	p.Update()
	return p
}

// Update sets the feed service status from the source.
func (p *Probe) Update() {
	ok := p.src.FeedHealthy()

	p.mu.Lock()
	changed := !p.known || ok != p.serving
	p.serving, p.known = ok, true
	p.mu.Unlock()

	if !changed {
		return
	}
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	p.health.SetServingStatus(ServiceName, status)
	slog.Info("probe: feed status changed", "service", ServiceName, "status", status.String())
}

// Run polls the source until ctx is cancelled, then marks every service
// NOT_SERVING.
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.health.Shutdown()
			return
		case <-ticker.C:
			p.Update()
		}
	}
}

// Serve accepts connections on lis until Stop is called.
func (p *Probe) Serve(lis net.Listener) error {
	return p.srv.Serve(lis)
}

// Stop drains in-flight calls and stops the server.
func (p *Probe) Stop() {
	p.srv.GracefulStop()
}
