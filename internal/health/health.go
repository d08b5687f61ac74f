// Package health отдаёт liveness/readiness пробы ops-сервера.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const defaultCheckTimeout = 2 * time.Second

// Status представляет статус компонента
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Check — результат одной проверки.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response представляет ответ health check
type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Checker проверяет один компонент.
type Checker interface {
	Check(ctx context.Context) Check
}

// Handler агрегирует проверки. Некритичная проверка, упав, переводит сервис в
// degraded, но не снимает его с балансировки.
type Handler struct {
	mu           sync.RWMutex
	checkers     map[string]registered
	version      string
	startTime    time.Time
	timeout      time.Duration
	shuttingDown atomic.Bool
}

type registered struct {
	checker  Checker
	critical bool
}

// NewHandler создаёт новый health handler
func NewHandler(version string) *Handler {
	return &Handler{
		checkers:  make(map[string]registered),
		version:   version,
		startTime: time.Now(),
		timeout:   defaultCheckTimeout,
	}
}

// RegisterChecker регистрирует критичную проверку.
func (h *Handler) RegisterChecker(name string, checker Checker) {
	h.register(name, checker, true)
}

// RegisterOptional регистрирует проверку, отказ которой даёт только degraded.
func (h *Handler) RegisterOptional(name string, checker Checker) {
	h.register(name, checker, false)
}

func (h *Handler) register(name string, checker Checker, critical bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = registered{checker: checker, critical: critical}
}

// SetShuttingDown переводит readiness в 503, пока сервер дорабатывает запросы.
func (h *Handler) SetShuttingDown() {
	h.shuttingDown.Store(true)
}

// Evaluate выполняет все проверки и возвращает итоговый ответ.
func (h *Handler) Evaluate(ctx context.Context) Response {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	snapshot := make(map[string]registered, len(h.checkers))
	for name, r := range h.checkers {
		names = append(names, name)
		snapshot[name] = r
	}
	h.mu.RUnlock()
	sort.Strings(names)

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	overall := StatusHealthy
	checks := make(map[string]Check, len(names))
	for _, name := range names {
		r := snapshot[name]
		check := r.checker.Check(checkCtx)
		if !r.critical && check.Status == StatusUnhealthy {
			check.Status = StatusDegraded
		}
		checks[name] = check

		switch {
		case check.Status == StatusUnhealthy:
			overall = StatusUnhealthy
		case check.Status == StatusDegraded && overall == StatusHealthy:
			overall = StatusDegraded
		}
	}

	return Response{
		Status:        overall,
		Timestamp:     time.Now().UTC(),
		Checks:        checks,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
}

// ServeHTTP отдаёт полный отчёт (/healthz).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := h.Evaluate(r.Context())

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, response)
}

// ReadinessHandler отвечает 503 при отказе критичной проверки или во время остановки (/readyz).
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if h.shuttingDown.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}

	response := h.Evaluate(r.Context())
	if response.Status == StatusUnhealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "checks": response.Checks})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// LivenessHandler — процесс жив, если отвечает (/livez).
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// CheckFunc адаптирует функцию к Checker.
type CheckFunc struct {
	name    string
	checkFn func(ctx context.Context) error
}

// NewCheckFunc создаёт проверку из функции; ошибка означает unhealthy.
func NewCheckFunc(name string, checkFn func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, checkFn: checkFn}
}

func (c *CheckFunc) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.checkFn(ctx)
	check := Check{
		Name:       c.name,
		Status:     StatusHealthy,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	return check
}
