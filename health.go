package moversapi

import (
	"log/slog"
	"sync"
	"time"
)

// GateState is the health gate's view of the backend.
type GateState int

const (
	// GateUnknown means no probe outcome is in effect; traffic flows.
	GateUnknown GateState = iota

	// GateHealthy means the last probe succeeded.
	GateHealthy

	// GateUnhealthy means the last probe failed; non-health traffic is
	// rejected until the cooldown elapses.
	GateUnhealthy
)

// String returns the string representation of the gate state.
func (s GateState) String() string {
	switch s {
	case GateHealthy:
		return "healthy"
	case GateUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// GateStatus is a snapshot of the health gate and global block.
type GateStatus struct {
	State         string    `json:"state"`
	Since         time.Time `json:"since,omitempty"`
	GlobalBlock   bool      `json:"global_block"`
	GlobalBlockAt time.Time `json:"global_block_at,omitempty"`
}

// healthGate tracks backend availability and owns the global request block.
// The two cooldowns are deliberately independent policies: the gate handles
// "backend known down", the block throttles request storms right after a
// failed probe, and per-endpoint breakers handle partial outages.
type healthGate struct {
	mu sync.Mutex

	state       GateState
	unhealthyAt time.Time
	cooldown    time.Duration

	blockActive   bool
	blockedAt     time.Time
	blockCooldown time.Duration

	logger  *slog.Logger
	metrics *Metrics
}

func newHealthGate(cooldown, blockCooldown time.Duration, logger *slog.Logger, metrics *Metrics) *healthGate {
	return &healthGate{
		state:         GateUnknown,
		cooldown:      cooldown,
		blockCooldown: blockCooldown,
		logger:        logger,
		metrics:       metrics,
	}
}

// Allow decides whether a non-health request may proceed. Recovery is
// optimistic: once a cooldown elapses the corresponding rejection clears
// without waiting for a successful probe.
func (g *healthGate) Allow() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()

	if g.blockActive {
		if now.Sub(g.blockedAt) < g.blockCooldown {
			g.metrics.globalBlock()
			return ErrGloballyBlocked
		}
		g.blockActive = false
	}

	if g.state == GateUnhealthy {
		if now.Sub(g.unhealthyAt) < g.cooldown {
			return ErrBackendUnavailable
		}
		g.state = GateUnknown
	}

	return nil
}

// ProbeAllowed reports whether a health probe should hit the network. While
// unhealthy and within cooldown the probe itself is suppressed, bounding
// probes to one per cooldown window.
func (g *healthGate) ProbeAllowed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != GateUnhealthy {
		return true
	}
	if time.Since(g.unhealthyAt) >= g.cooldown {
		g.state = GateUnknown
		return true
	}
	return false
}

// MarkHealthy records a successful probe and lifts the global block.
func (g *healthGate) MarkHealthy() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != GateHealthy {
		g.logger.Info("backend health restored")
	}
	g.state = GateHealthy
	g.blockActive = false
}

// MarkUnhealthy records a failed probe and arms the global request block.
func (g *healthGate) MarkUnhealthy() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	g.state = GateUnhealthy
	g.unhealthyAt = now
	g.blockActive = true
	g.blockedAt = now
	g.logger.Warn("backend unhealthy, global request block armed",
		"cooldown", g.cooldown,
		"block_cooldown", g.blockCooldown)
}

// Reset clears gate and block state immediately, without waiting for
// cooldowns. Invoked by the UI on user retry or navigation.
func (g *healthGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state = GateUnknown
	g.blockActive = false
}

// Status returns an observable snapshot.
func (g *healthGate) Status() GateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	status := GateStatus{
		State:       g.state.String(),
		GlobalBlock: g.blockActive && time.Since(g.blockedAt) < g.blockCooldown,
	}
	if g.state == GateUnhealthy {
		status.Since = g.unhealthyAt
	}
	if status.GlobalBlock {
		status.GlobalBlockAt = g.blockedAt
	}
	return status
}
