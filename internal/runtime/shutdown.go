// Package runtime provides graceful shutdown handling for domem processes.
package runtime

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joss/domem/internal/logging"
)

// ShutdownFunc is a cleanup function called during shutdown
type ShutdownFunc func(ctx context.Context) error

// ShutdownManager cancels in-flight work on SIGINT/SIGTERM and then runs
// cleanup handlers, newest first.
type ShutdownManager struct {
	mu          sync.Mutex
	handlers    []namedHandler
	timeout     time.Duration
	shutdownCtx context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	once        sync.Once
	listen      sync.Once
	log         *logging.Logger
}

type namedHandler struct {
	name string
	fn   ShutdownFunc
}

// DefaultShutdownTimeout bounds all cleanup handlers together.
const DefaultShutdownTimeout = 10 * time.Second

var (
	globalManager *ShutdownManager
	managerOnce   sync.Once
)

// Global returns the global shutdown manager
func Global() *ShutdownManager {
	managerOnce.Do(func() {
		globalManager = NewShutdownManager(DefaultShutdownTimeout)
	})
	return globalManager
}

// NewShutdownManager creates a new shutdown manager with specified timeout
func NewShutdownManager(timeout time.Duration) *ShutdownManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &ShutdownManager{
		timeout:     timeout,
		shutdownCtx: ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		log:         logging.New("runtime"),
	}
}

// Register adds a cleanup handler to be called during shutdown.
// Handlers run one at a time in reverse registration order.
func (m *ShutdownManager) Register(name string, fn ShutdownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, namedHandler{name: name, fn: fn})
}

// RegisterSimple adds a cleanup function that ignores the deadline.
func (m *ShutdownManager) RegisterSimple(name string, fn func() error) {
	m.Register(name, func(ctx context.Context) error {
		return fn()
	})
}

// Context returns a context that is cancelled when shutdown begins
func (m *ShutdownManager) Context() context.Context {
	return m.shutdownCtx
}

// Done returns a channel that's closed when shutdown is complete
func (m *ShutdownManager) Done() <-chan struct{} {
	return m.done
}

// ListenForSignals starts listening for SIGTERM and SIGINT. It is
// non-blocking; repeated calls are no-ops.
func (m *ShutdownManager) ListenForSignals() {
	m.listen.Do(func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		go func() {
			sig, ok := <-sigChan
			if !ok {
				return
			}
			m.log.Warn("shutdown_signal", map[string]interface{}{"signal": sig.String()}, nil)
			m.Shutdown()
		}()
	})
}

// Shutdown initiates graceful shutdown - can only be called once
func (m *ShutdownManager) Shutdown() {
	m.once.Do(func() {
		m.performShutdown()
	})
}

func (m *ShutdownManager) performShutdown() {
	defer close(m.done)
	start := time.Now()

	// stop in-flight work first
	m.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	handlers := make([]namedHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	failed := 0
	for i := len(handlers) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			m.log.Error("shutdown_timeout", map[string]interface{}{
				"timeout_ms": m.timeout.Milliseconds(),
				"remaining":  i + 1,
			}, ctx.Err())
			return
		}
		h := handlers[i]
		if err := h.fn(ctx); err != nil {
			failed++
			m.log.Warn("shutdown_handler_failed", map[string]interface{}{"handler": h.name}, err)
		}
	}

	m.log.TimedEvent("shutdown_complete", start, map[string]interface{}{
		"handlers": len(handlers),
		"failed":   failed,
	})
}

// WaitForShutdown blocks until shutdown is complete
func (m *ShutdownManager) WaitForShutdown() {
	<-m.done
}

// Convenience functions for global manager

// OnShutdown registers a cleanup handler with the global manager
func OnShutdown(name string, fn ShutdownFunc) {
	Global().Register(name, fn)
}

// ListenForSignals starts signal listening on the global manager
func ListenForSignals() {
	Global().ListenForSignals()
}

// ShutdownContext returns the global shutdown context
func ShutdownContext() context.Context {
	return Global().Context()
}
