package relationaldb

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Logger interface for dependency injection
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// DefaultLogger provides a basic logger implementation
type DefaultLogger struct {
	logger *log.Logger
}

func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		logger: log.Default(),
	}
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.logger.Printf("[DEBUG] "+msg, fields...)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.logger.Printf("[INFO] "+msg, fields...)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Printf("[WARN] "+msg, fields...)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logger.Printf("[ERROR] "+msg, fields...)
}

// HealthChecker defines interface for health checking
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Metrics interface for monitoring
type Metrics interface {
	IncrementCounter(name string, tags map[string]string)
	RecordDuration(name string, duration time.Duration, tags map[string]string)
	SetGauge(name string, value float64, tags map[string]string)
}

// NoOpMetrics provides a no-op metrics implementation
type NoOpMetrics struct{}

func (m *NoOpMetrics) IncrementCounter(name string, tags map[string]string)                       {}
func (m *NoOpMetrics) RecordDuration(name string, duration time.Duration, tags map[string]string) {}
func (m *NoOpMetrics) SetGauge(name string, value float64, tags map[string]string)                {}

// Manager provides lifecycle management and utilities for store operations
type Manager struct {
	repoManager RepositoryManager
	config      *Config
	logger      Logger
	metrics     Metrics

	// Health checking
	healthCheckInterval time.Duration
	healthCtx           context.Context
	healthCancel        context.CancelFunc
	healthWg            sync.WaitGroup

	// Connection state
	mu        sync.RWMutex
	connected bool
	lastError error

	// Periodic stats collection
	statsInterval time.Duration
	statsCtx      context.Context
	statsCancel   context.CancelFunc
	statsWg       sync.WaitGroup
}

// ManagerOption defines functional options for Manager
type ManagerOption func(*Manager)

// WithLogger sets the logger for the manager
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the metrics collector for the manager
func WithMetrics(metrics Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithHealthCheckInterval sets the health check interval
func WithHealthCheckInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.healthCheckInterval = interval
	}
}

// WithStatsInterval sets the stats collection interval
func WithStatsInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.statsInterval = interval
	}
}

// NewManager creates a new store manager
func NewManager(repoManager RepositoryManager, config *Config, options ...ManagerOption) *Manager {
	manager := &Manager{
		repoManager:         repoManager,
		config:              config,
		logger:              NewDefaultLogger(),
		metrics:             &NoOpMetrics{},
		healthCheckInterval: time.Minute,
		statsInterval:       time.Minute * 15,
	}

	for _, option := range options {
		option(manager)
	}

	return manager
}

// Open opens the store connection and starts background services
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return nil
	}

	if err := m.repoManager.Open(ctx); err != nil {
		m.lastError = err
		m.logger.Error("Failed to open database connection", "error", err)
		m.metrics.IncrementCounter("store.connection.failed", map[string]string{
			"driver": m.config.Driver,
		})
		return WrapError(err, "open_store")
	}

	if err := m.repoManager.System().Ping(ctx); err != nil {
		m.lastError = err
		m.logger.Error("Store health check failed", "error", err)
		m.metrics.IncrementCounter("store.health_check.failed", map[string]string{
			"driver": m.config.Driver,
		})
		return WrapError(err, "initial_health_check")
	}

	m.connected = true
	m.lastError = nil

	m.startHealthChecker()
	m.startStatsCollector()

	m.logger.Info("Store manager opened successfully",
		"driver", m.config.Driver,
		"database", m.config.Database)

	m.metrics.IncrementCounter("store.connection.opened", map[string]string{
		"driver": m.config.Driver,
	})

	return nil
}

// Close closes the store connection and stops background services
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.stopHealthChecker()
	m.stopStatsCollector()

	if err := m.repoManager.Close(ctx); err != nil {
		m.logger.Error("Failed to close database connection", "error", err)
		return WrapError(err, "close_store")
	}

	m.connected = false
	m.lastError = nil

	m.logger.Info("Store manager closed successfully")
	m.metrics.IncrementCounter("store.connection.closed", map[string]string{
		"driver": m.config.Driver,
	})

	return nil
}

// IsConnected returns whether the store is connected
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// LastError returns the last error encountered
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// HealthCheck performs a manual health check
func (m *Manager) HealthCheck(ctx context.Context) error {
	start := time.Now()
	defer func() {
		m.metrics.RecordDuration("store.health_check.duration", time.Since(start), map[string]string{
			"driver": m.config.Driver,
		})
	}()

	if !m.IsConnected() {
		return ErrDatabaseClosed
	}

	if err := m.repoManager.System().Ping(ctx); err != nil {
		m.mu.Lock()
		m.lastError = err
		m.mu.Unlock()

		m.logger.Error("Health check failed", "error", err)
		m.metrics.IncrementCounter("store.health_check.failed", map[string]string{
			"driver": m.config.Driver,
		})
		return WrapError(err, "health_check")
	}

	return nil
}

// ExecuteWithRetry executes a function with retry logic
func (m *Manager) ExecuteWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= m.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * m.config.RetryDelay
			if delay > m.config.RetryMaxDelay {
				delay = m.config.RetryMaxDelay
			}

			m.logger.Debug("Retrying operation",
				"attempt", attempt,
				"delay", delay,
				"last_error", lastErr)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		start := time.Now()
		err := operation()

		m.metrics.RecordDuration("store.operation.duration", time.Since(start), map[string]string{
			"driver":  m.config.Driver,
			"attempt": fmt.Sprintf("%d", attempt),
		})

		if err == nil {
			if attempt > 0 {
				m.logger.Info("Operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		lastErr = err

		if !IsRetryable(err) {
			m.logger.Debug("Operation failed with non-retryable error", "error", err)
			break
		}

		m.logger.Debug("Operation failed with retryable error",
			"error", err,
			"attempt", attempt)
	}

	m.logger.Error("Operation failed after all retries",
		"attempts", m.config.MaxRetries+1,
		"last_error", lastErr)

	return WrapError(lastErr, "execute_with_retry")
}

// ExecuteInTransaction executes a function within a transaction with retry logic
func (m *Manager) ExecuteInTransaction(ctx context.Context, operation func(TransactionContext) error) error {
	return m.ExecuteWithRetry(ctx, func() error {
		return m.repoManager.WithTransaction(ctx, operation)
	})
}

// GetRepositoryManager returns the underlying repository manager
func (m *Manager) GetRepositoryManager() RepositoryManager {
	return m.repoManager
}

// GetConfig returns the configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// startHealthChecker starts the background health checker
func (m *Manager) startHealthChecker() {
	m.healthCtx, m.healthCancel = context.WithCancel(context.Background())

	m.healthWg.Add(1)
	go func() {
		defer m.healthWg.Done()

		ticker := time.NewTicker(m.healthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.healthCtx.Done():
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(m.healthCtx, time.Second*10)
				if err := m.HealthCheck(ctx); err != nil {
					m.logger.Error("Background health check failed", "error", err)
				}
				cancel()
			}
		}
	}()
}

// stopHealthChecker stops the background health checker
func (m *Manager) stopHealthChecker() {
	if m.healthCancel != nil {
		m.healthCancel()
		m.healthWg.Wait()
	}
}

// startStatsCollector starts the background stats collection
func (m *Manager) startStatsCollector() {
	m.statsCtx, m.statsCancel = context.WithCancel(context.Background())

	m.statsWg.Add(1)
	go func() {
		defer m.statsWg.Done()

		ticker := time.NewTicker(m.statsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.statsCtx.Done():
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(m.statsCtx, time.Second*30)
				m.collectStats(ctx)
				cancel()
			}
		}
	}()
}

// stopStatsCollector stops the background stats collection
func (m *Manager) stopStatsCollector() {
	if m.statsCancel != nil {
		m.statsCancel()
		m.statsWg.Wait()
	}
}

// collectStats gathers row counts and publishes them as gauges
func (m *Manager) collectStats(ctx context.Context) {
	stats, err := m.repoManager.System().Stats(ctx)
	if err != nil {
		m.logger.Error("Failed to collect store stats", "error", err)
		return
	}

	tags := map[string]string{"driver": m.config.Driver}
	m.metrics.SetGauge("store.rows.users", float64(stats.Users), tags)
	m.metrics.SetGauge("store.rows.trips", float64(stats.Trips), tags)
	m.metrics.SetGauge("store.rows.expenses", float64(stats.Expenses), tags)
	m.metrics.SetGauge("store.rows.payments", float64(stats.Payments), tags)
}
