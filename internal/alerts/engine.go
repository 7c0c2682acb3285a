package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pskrmon/pskrmon/internal/config"
	"github.com/pskrmon/pskrmon/pkg/types"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Source     string     `json:"source"`
	Severity   string     `json:"severity"`
	Condition  string     `json:"condition"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// Engine evaluates alert rules against published snapshots and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	active   map[string]*Alert    // key: rule name
	lastFire map[string]time.Time // last fire time per rule (for cooldown)
	history  []*Alert             // recently resolved alerts

	client *http.Client
	now    func() time.Time
	wg     sync.WaitGroup
}

// New creates an Engine from the alert configuration.
// An Engine with no rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// SetRules replaces the rules and webhooks. Active alerts whose rule no longer
// exists are dropped without a resolve notification.
func (e *Engine) SetRules(cfg config.AlertsConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = cfg.Rules
	e.webhooks = cfg.Webhooks
	keep := make(map[string]bool, len(cfg.Rules))
	for _, r := range cfg.Rules {
		keep[r.Name] = true
	}
	for name := range e.active {
		if !keep[name] {
			delete(e.active, name)
			delete(e.lastFire, name)
		}
	}
	slog.Info("alerts: rules updated", "rules", len(cfg.Rules), "webhooks", len(cfg.Webhooks))
}

// Evaluate tests all configured rules against snap.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
func (e *Engine) Evaluate(snap types.WindowedSnapshot) {
	e.mu.Lock()
	if len(e.rules) == 0 {
		e.mu.Unlock()
		return
	}

	now := e.now()
	source := sourceOf(snap)
	var outgoing []Alert
	for _, rule := range e.rules {
		fires, value := evalCondition(rule.Condition, snap)

		if !fires {
			a, ok := e.active[rule.Name]
			if !ok {
				continue
			}
			resolved := now
			a.State = StateResolved
			a.ResolvedAt = &resolved
			delete(e.active, rule.Name)
			e.history = append(e.history, a)
			if len(e.history) > maxHistoryLen {
				e.history = e.history[len(e.history)-maxHistoryLen:]
			}
			outgoing = append(outgoing, *a)
			slog.Info("alerts: resolved", "rule", rule.Name, "source", source)
			continue
		}

		cooldown := rule.Cooldown
		if cooldown <= 0 {
			cooldown = defaultCooldown
		}
		if last, ok := e.lastFire[rule.Name]; ok && now.Sub(last) <= cooldown {
			if a, ok := e.active[rule.Name]; ok {
				a.Value = value
			}
			continue
		}

		sev := rule.Severity
		if sev == "" {
			sev = "warning"
		}
		a := &Alert{
			ID:        uuid.NewString(),
			RuleName:  rule.Name,
			Source:    source,
			Severity:  sev,
			Condition: rule.Condition,
			Value:     value,
			Message: fmt.Sprintf("[%s] %s fired on %s: %s (value %.2f)",
				sev, rule.Name, source, rule.Condition, value),
			FiredAt: now,
			State:   StateFiring,
		}
		e.active[rule.Name] = a
		e.lastFire[rule.Name] = now
		outgoing = append(outgoing, *a)
		slog.Warn("alerts: fired", "rule", rule.Name, "source", source, "value", value, "severity", sev)
	}
	webhooks := e.webhooks
	e.mu.Unlock()

	for i := range outgoing {
		a := outgoing[i]
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.deliver(webhooks, &a)
		}()
	}
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, newest first.
func (e *Engine) Active() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, *a)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Wait blocks until in-flight webhook deliveries finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func sourceOf(snap types.WindowedSnapshot) string {
	if snap.Callsign != "" {
		return snap.Callsign
	}
	return string(snap.Mode)
}
