// Package healthcheck aggregates dependency probes into the /health report.
package healthcheck

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// rank orders statuses from best to worst.
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Millis is a duration reported in whole milliseconds.
type Millis time.Duration

func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).Milliseconds())
}

// Check is the outcome of one probe.
type Check struct {
	Name      string      `json:"name"`
	Status    Status      `json:"status"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
	Duration  Millis      `json:"duration_ms"`
	Details   interface{} `json:"details,omitempty"`
}

// Report is the body served on the health endpoint.
type Report struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Duration  Millis    `json:"duration_ms"`
	Checks    []Check   `json:"checks"`
}

// Checker probes one dependency.
type Checker interface {
	Check(ctx context.Context) Check
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) Check

func (f CheckFunc) Check(ctx context.Context) Check { return f(ctx) }

const (
	defaultTTL          = 5 * time.Second
	defaultCheckTimeout = 3 * time.Second
)

// HealthCheck runs registered checkers and caches the last report briefly
// so frequent probes do not hammer the database.
type HealthCheck struct {
	version string
	logger  *zap.Logger

	mu       sync.RWMutex
	checkers map[string]Checker
	ttl      time.Duration
	timeout  time.Duration
	last     *Report
	expires  time.Time

	group singleflight.Group
}

// New creates a health check for the given build version.
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		logger:   logger.Named("healthcheck"),
		checkers: make(map[string]Checker),
		ttl:      defaultTTL,
		timeout:  defaultCheckTimeout,
	}
}

// Register adds or replaces a checker and drops the cached report.
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.last = nil
}

// SetCacheTTL sets how long a report is reused. Zero disables caching.
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ttl = ttl
	h.last = nil
}

// SetCheckTimeout bounds each individual checker.
func (h *HealthCheck) SetCheckTimeout(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeout = d
}

// Check returns the cached report or runs every checker.
func (h *HealthCheck) Check(ctx context.Context) Report {
	h.mu.RLock()
	if h.last != nil && time.Now().Before(h.expires) {
		report := *h.last
		h.mu.RUnlock()
		return report
	}
	h.mu.RUnlock()

	// Concurrent probes share one run.
	v, _, _ := h.group.Do("report", func() (interface{}, error) {
		return h.run(context.WithoutCancel(ctx)), nil
	})
	return v.(Report)
}

func (h *HealthCheck) run(ctx context.Context) Report {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		names = append(names, name)
		checkers[name] = c
	}
	timeout, ttl := h.timeout, h.ttl
	h.mu.RUnlock()
	sort.Strings(names)

	start := time.Now()
	results := make([]Check, len(names))

	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			results[i] = probe(cctx, name, checkers[name])
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:    StatusHealthy,
		Version:   h.version,
		Timestamp: start,
		Checks:    results,
	}
	for _, c := range results {
		if c.Status.rank() > report.Status.rank() {
			report.Status = c.Status
		}
		if c.Status != StatusHealthy {
			h.logger.Warn("Dependency not healthy",
				zap.String("check", c.Name),
				zap.String("status", string(c.Status)),
				zap.String("message", c.Message))
		}
	}
	report.Duration = Millis(time.Since(start))

	if ttl > 0 {
		h.mu.Lock()
		h.last = &report
		h.expires = time.Now().Add(ttl)
		h.mu.Unlock()
	}
	return report
}

// probe runs one checker and fills in what it left blank.
func probe(ctx context.Context, name string, c Checker) Check {
	start := time.Now()
	check := c.Check(ctx)
	check.Name = name
	if check.Status == "" {
		check.Status = StatusUnhealthy
	}
	if check.CheckedAt.IsZero() {
		check.CheckedAt = start
	}
	if check.Duration == 0 {
		check.Duration = Millis(time.Since(start))
	}
	if ctx.Err() != nil && check.Status == StatusHealthy {
		check.Status = StatusDegraded
		check.Message = "check exceeded its timeout"
	}
	return check
}

// Handler serves the report; 503 when any dependency is unhealthy.
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		h.write(w, code, report)
	}
}

// LivenessHandler answers without touching dependencies.
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"version":   h.version,
			"timestamp": time.Now().UTC(),
		})
	}
}

func (h *HealthCheck) write(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("Failed to encode health response", zap.Error(err))
	}
}

// saturation is the pool usage at which the database reports degraded.
const saturation = 0.9

// DatabaseChecker pings the SQL pool backing GORM.
type DatabaseChecker struct {
	db *sql.DB
}

func NewDatabaseChecker(db *sql.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

func (d *DatabaseChecker) Check(ctx context.Context) Check {
	if err := d.db.PingContext(ctx); err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error()}
	}

	stats := d.db.Stats()
	check := Check{
		Status: StatusHealthy,
		Details: map[string]interface{}{
			"open":       stats.OpenConnections,
			"in_use":     stats.InUse,
			"idle":       stats.Idle,
			"max_open":   stats.MaxOpenConnections,
			"wait_count": stats.WaitCount,
		},
	}
	if limit := stats.MaxOpenConnections; limit > 0 && float64(stats.InUse) >= saturation*float64(limit) {
		check.Status = StatusDegraded
		check.Message = "connection pool nearly exhausted"
	}
	return check
}

// RedisChecker pings the cache and reports its pool counters.
type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Check(ctx context.Context) Check {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error()}
	}

	stats := r.client.PoolStats()
	check := Check{
		Status: StatusHealthy,
		Details: map[string]uint32{
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"timeouts":    stats.Timeouts,
		},
	}
	if stats.Timeouts > 0 && stats.IdleConns == 0 {
		check.Status = StatusDegraded
		check.Message = "pool timeouts observed"
	}
	return check
}
