package moversapi

import (
	"log/slog"
	"sync"
	"time"
)

// Notification is the failure-notice state published to the UI layer.
type Notification struct {
	Visible         bool     `json:"visible"`
	FailedEndpoints []string `json:"failed_endpoints,omitempty"`
	Is503           bool     `json:"is_503"`
}

// NotifierListener receives every notification state transition,
// synchronously.
type NotifierListener func(Notification)

// FailureNotifier is the publish/subscribe side channel that tells the UI
// when and how to present an "API unavailable" notice. At most one
// notification is visible at a time, and re-triggering is suppressed for a
// cooldown after the last one shown so a burst of near-simultaneous failures
// produces a single notice.
type FailureNotifier struct {
	mu        sync.Mutex
	visible   bool
	failed    []string
	is503     bool
	onClose   func()
	lastShown time.Time
	cooldown  time.Duration

	listeners map[int]NotifierListener
	nextID    int

	logger  *slog.Logger
	metrics *Metrics
}

// NewFailureNotifier creates a notifier with the given re-trigger cooldown.
func NewFailureNotifier(cooldown time.Duration, logger *slog.Logger, metrics *Metrics) *FailureNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailureNotifier{
		cooldown:  cooldown,
		listeners: make(map[int]NotifierListener),
		logger:    logger,
		metrics:   metrics,
	}
}

// Show publishes a failure notice for the given endpoint identities. It
// reports whether the notice became visible; while one is already visible or
// the cooldown has not elapsed, the call is suppressed.
func (n *FailureNotifier) Show(failedEndpoints []string, isServiceUnavailable bool, onClose func()) bool {
	n.mu.Lock()

	if n.visible || (!n.lastShown.IsZero() && time.Since(n.lastShown) < n.cooldown) {
		n.mu.Unlock()
		return false
	}

	n.visible = true
	n.failed = append([]string(nil), failedEndpoints...)
	n.is503 = isServiceUnavailable
	n.onClose = onClose
	n.lastShown = time.Now()
	n.metrics.notificationShown()

	state := n.stateLocked()
	listeners := n.listenersLocked()
	n.mu.Unlock()

	n.publish(state, listeners)
	return true
}

// Hide closes the current notification, running its close callback if one
// was registered.
func (n *FailureNotifier) Hide() {
	n.mu.Lock()
	if !n.visible {
		n.mu.Unlock()
		return
	}

	onClose := n.onClose
	n.visible = false
	n.failed = nil
	n.is503 = false
	n.onClose = nil

	state := n.stateLocked()
	listeners := n.listenersLocked()
	n.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	n.publish(state, listeners)
}

// State returns the current notification state.
func (n *FailureNotifier) State() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stateLocked()
}

// AddListener subscribes to state transitions and returns a handle for
// RemoveListener.
func (n *FailureNotifier) AddListener(l NotifierListener) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = l
	return id
}

// RemoveListener unsubscribes a previously added listener.
func (n *FailureNotifier) RemoveListener(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.listeners, id)
}

func (n *FailureNotifier) stateLocked() Notification {
	return Notification{
		Visible:         n.visible,
		FailedEndpoints: append([]string(nil), n.failed...),
		Is503:           n.is503,
	}
}

func (n *FailureNotifier) listenersLocked() []NotifierListener {
	out := make([]NotifierListener, 0, len(n.listeners))
	for _, l := range n.listeners {
		out = append(out, l)
	}
	return out
}

// publish delivers the state to every listener synchronously. A panicking
// listener is recovered so it cannot prevent the others from running.
func (n *FailureNotifier) publish(state Notification, listeners []NotifierListener) {
	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					n.logger.Error("notifier listener panicked", "panic", r)
				}
			}()
			l(state)
		}()
	}
}
