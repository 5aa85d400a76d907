/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"code.cloudfoundry.org/bytefmt"

	"github.com/pdffacil/pdfgate/log"
)

// DefaultWindow is the length of the rolling window in which requests are counted.
const DefaultWindow = 24 * time.Hour

// DefaultMaxPayloadSize is the default upload size ceiling (10MB).
const DefaultMaxPayloadSize = 10 * 1024 * 1024

// UnknownClientID is used when no client identity can be derived from a request.
const UnknownClientID = "unknown"

// Opts represents options for the Controller.
type Opts struct {
	// Window is the length of the rolling window. DefaultWindow is used if zero.
	Window time.Duration

	// Now returns the current time. time.Now is used if nil.
	Now func() time.Time

	// Logger is used for logging admission decisions. Nothing is logged if nil.
	Logger log.FieldLogger

	// MetricsCollector receives admission decisions and the number of tracked clients.
	MetricsCollector MetricsCollector
}

// Controller tracks per-client request timestamps and makes admission decisions.
// It's safe for concurrent use.
type Controller struct {
	limits         Limits
	operations     []Operation
	maxPayloadSize int64
	window         time.Duration
	now            func() time.Time
	logger         log.FieldLogger
	metrics        MetricsCollector

	mu      sync.Mutex
	clients map[string]map[Operation][]time.Time
}

// New creates a new Controller with the given per-operation limits and the upload size ceiling.
func New(limits Limits, maxPayloadSize int64, opts Opts) (*Controller, error) {
	if len(limits) == 0 {
		return nil, fmt.Errorf("at least one operation limit must be specified")
	}
	for op, limit := range limits {
		if op == "" {
			return nil, fmt.Errorf("operation name cannot be empty")
		}
		if limit < 0 {
			return nil, fmt.Errorf("limit for operation %q should be >= 0, got %d", op, limit)
		}
	}
	if maxPayloadSize <= 0 {
		return nil, fmt.Errorf("max payload size should be > 0, got %d", maxPayloadSize)
	}
	if opts.Window < 0 {
		return nil, fmt.Errorf("window should be > 0, got %s", opts.Window)
	}
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}
	limits = limits.clone()
	return &Controller{
		limits:         limits,
		operations:     limits.Operations(),
		maxPayloadSize: maxPayloadSize,
		window:         opts.Window,
		now:            opts.Now,
		logger:         opts.Logger,
		metrics:        opts.MetricsCollector,
		clients:        make(map[string]map[Operation][]time.Time),
	}, nil
}

// NewWithConfig creates a new Controller using the limits, the size ceiling and the window from Config.
func NewWithConfig(cfg *Config, opts Opts) (*Controller, error) {
	if opts.Window == 0 {
		opts.Window = time.Duration(cfg.Window)
	}
	return New(cfg.Limits, int64(cfg.MaxPayloadSize), opts)
}

// Window returns the length of the rolling window.
func (c *Controller) Window() time.Duration {
	return c.window
}

// MaxPayloadSize returns the upload size ceiling in bytes.
func (c *Controller) MaxPayloadSize() int64 {
	return c.maxPayloadSize
}

// Limit returns the limit for the operation and whether the operation is known.
func (c *Controller) Limit(op Operation) (int, bool) {
	limit, ok := c.limits[op]
	return limit, ok
}

// Limits returns a copy of the per-operation limits.
func (c *Controller) Limits() Limits {
	return c.limits.clone()
}

// CheckAndAdmit decides whether the client may perform the operation with a payload of the given size.
// If the request is admitted, it's counted against the client's quota atomically with the decision.
//
// Checks are performed in the following order and the first failed one determines the result:
// payload size, operation, quota. Rejected requests never consume quota.
func (c *Controller) CheckAndAdmit(clientID string, op Operation, payloadSize int64) Decision {
	if payloadSize > c.maxPayloadSize {
		return c.reject(clientID, Decision{
			Reason:    RejectReasonPayloadTooLarge,
			Operation: op,
			Limit:     c.maxPayloadSize,
			Message: fmt.Sprintf("File size exceeds the maximum allowed limit of %s.",
				bytefmt.ByteSize(uint64(c.maxPayloadSize))),
		})
	}

	limit, ok := c.limits[op]
	if !ok {
		return c.reject(clientID, Decision{
			Reason:    RejectReasonUnknownOperation,
			Operation: op,
			Message:   fmt.Sprintf("Unknown operation %q.", op),
		})
	}

	c.mu.Lock()
	// The clock is read under the lock so that timestamps of every client stay in non-decreasing order.
	now := c.now()
	c.sweepClient(clientID, now)
	used := len(c.clients[clientID][op])
	if used >= limit {
		c.mu.Unlock()
		return c.reject(clientID, Decision{
			Reason:    RejectReasonQuotaExceeded,
			Operation: op,
			Limit:     int64(limit),
			Used:      used,
			Message: fmt.Sprintf(
				"Daily limit of %d requests for %s has been reached. Try again tomorrow.", limit, op),
		})
	}
	ops, ok := c.clients[clientID]
	if !ok {
		ops = make(map[Operation][]time.Time, len(c.limits))
		c.clients[clientID] = ops
	}
	ops[op] = append(ops[op], now)
	used++
	c.metrics.SetTrackedClients(len(c.clients))
	c.mu.Unlock()

	c.metrics.IncDecisions(op, RejectReasonNone)
	c.logger.Info("request admitted",
		log.String(LogFieldKeyClientID, clientID),
		log.String(LogFieldKeyOperation, string(op)),
		log.Int("used", used),
		log.Int("limit", limit),
	)
	return Decision{Admitted: true, Operation: op, Limit: int64(limit), Used: used}
}

func (c *Controller) reject(clientID string, d Decision) Decision {
	metricsOp := d.Operation
	if d.Reason == RejectReasonUnknownOperation {
		metricsOp = "unknown"
	}
	c.metrics.IncDecisions(metricsOp, d.Reason)
	c.logger.Warn("request rejected",
		log.String(LogFieldKeyClientID, clientID),
		log.String(LogFieldKeyOperation, string(d.Operation)),
		log.String("reason", d.Reason.String()),
		log.Int64("limit", d.Limit),
		log.Int("used", d.Used),
	)
	return d
}

// Status returns the client's usage for every configured operation.
// It never modifies the state, so unknown clients are reported with zero usage and don't get tracked.
func (c *Controller) Status(clientID string) Snapshot {
	snapshot := Snapshot{ClientID: clientID, Operations: make(map[Operation]Usage, len(c.operations))}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	ops := c.clients[clientID]
	for _, op := range c.operations {
		limit := c.limits[op]
		used := c.countInWindow(ops[op], now)
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		snapshot.Operations[op] = Usage{Used: used, Limit: limit, Remaining: remaining}
	}
	return snapshot
}

// SweepAll purges expired timestamps of all tracked clients and returns the number of removed clients.
func (c *Controller) SweepAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	before := len(c.clients)
	for clientID := range c.clients {
		c.sweepClient(clientID, now)
	}
	c.metrics.SetTrackedClients(len(c.clients))
	return before - len(c.clients)
}

// Len returns the number of tracked clients.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// sweepClient must be called with c.mu held.
func (c *Controller) sweepClient(clientID string, now time.Time) {
	ops, ok := c.clients[clientID]
	if !ok {
		return
	}
	for op, timestamps := range ops {
		expired := c.expiredPrefixLen(timestamps, now)
		if expired == len(timestamps) {
			delete(ops, op)
			continue
		}
		if expired > 0 {
			n := copy(timestamps, timestamps[expired:])
			ops[op] = timestamps[:n]
		}
	}
	if len(ops) == 0 {
		delete(c.clients, clientID)
	}
}

// expiredPrefixLen returns the number of leading timestamps that are out of the window.
// Timestamps are appended in non-decreasing order, so the expired ones always form a prefix.
func (c *Controller) expiredPrefixLen(timestamps []time.Time, now time.Time) int {
	return sort.Search(len(timestamps), func(i int) bool {
		return now.Sub(timestamps[i]) < c.window
	})
}

func (c *Controller) countInWindow(timestamps []time.Time, now time.Time) int {
	return len(timestamps) - c.expiredPrefixLen(timestamps, now)
}
