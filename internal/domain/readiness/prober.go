package readiness

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Status is the outcome of a liveness probe
type Status string

const (
	Ready    Status = "ready"
	NotReady Status = "not_ready"
)

// Pinger checks backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober runs the startup liveness check. It never retries on its own; a
// failed probe leaves the flag down until Probe is called again.
type Prober struct {
	pinger Pinger
	logger *slog.Logger
	ready  atomic.Bool
}

// NewProber creates a new readiness prober.
func NewProber(pinger Pinger, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Prober{pinger: pinger, logger: logger}
}

// Probe performs a single liveness check and updates the readiness flag.
func (p *Prober) Probe(ctx context.Context) Status {
	if err := p.pinger.Ping(ctx); err != nil {
		p.logger.Warn("backend not ready", "error", err)
		p.ready.Store(false)
		return NotReady
	}
	p.logger.Info("backend ready")
	p.ready.Store(true)
	return Ready
}

// Ready reports the result of the last probe.
func (p *Prober) Ready() bool {
	return p.ready.Load()
}
