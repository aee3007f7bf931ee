// Package startup starts service dependencies in order with fibonacci backoff.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

// Dependency is an external collaborator that must be reachable before serving
type Dependency interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Func adapts start and stop functions to a Dependency. Either may be nil.
type Func struct {
	DependencyName string
	StartFunc      func(ctx context.Context) error
	StopFunc       func(ctx context.Context) error
}

func (f Func) Name() string { return f.DependencyName }

func (f Func) Start(ctx context.Context) error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc(ctx)
}

func (f Func) Stop(ctx context.Context) error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc(ctx)
}

type Status int

const (
	StatusPending Status = iota
	StatusStarted
	StatusStopped
	StatusFailed
)

// Startup starts dependencies in registration order
type Startup struct {
	dependencies []Dependency
	statuses     map[string]Status
	logger       ectologger.Logger
	maxAttempts  int
	unit         time.Duration
}

// New creates a Startup that makes at most maxAttempts passes
func New(logger ectologger.Logger, maxAttempts int) *Startup {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Startup{
		statuses:    make(map[string]Status),
		logger:      logger,
		maxAttempts: maxAttempts,
		unit:        time.Second,
	}
}

// Add registers a dependency
func (s *Startup) Add(dependency Dependency) {
	s.dependencies = append(s.dependencies, dependency)
}

// Status returns the status of the named dependency
func (s *Startup) Status(name string) Status {
	return s.statuses[name]
}

// Start starts every dependency. A failed pass is retried after 1, 1, 2, 3, 5... seconds;
// dependencies that already started are not restarted.
func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = s.startAll(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == s.maxAttempts {
			break
		}

		s.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, s.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * s.unit):
		}

		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Startup) startAll(ctx context.Context, attempt int) error {
	for _, dependency := range s.dependencies {
		name := dependency.Name()
		if s.statuses[name] == StatusStarted {
			continue
		}

		s.logger.WithField("dependency", name).Infof("Starting dependency '%s'", name)
		if err := dependency.Start(ctx); err != nil {
			s.statuses[name] = StatusFailed
			s.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", name, attempt)
			return err
		}
		s.statuses[name] = StatusStarted
	}
	return nil
}

// Stop stops started dependencies in reverse order and returns the first error
func (s *Startup) Stop(ctx context.Context) error {
	var firstErr error
	for i := len(s.dependencies) - 1; i >= 0; i-- {
		dependency := s.dependencies[i]
		name := dependency.Name()
		if s.statuses[name] != StatusStarted {
			continue
		}

		s.logger.WithField("dependency", name).Infof("Stopping dependency '%s'", name)
		if err := dependency.Stop(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Errorf("Failed to stop dependency '%s'", name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.statuses[name] = StatusStopped
	}
	return firstErr
}
