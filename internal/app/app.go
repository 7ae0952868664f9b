// Package app groups stacks into one deployable unit and synthesizes them into
// a cloud assembly: one template per stack plus a manifest listing the stacks in
// deployment order.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pankbase/bucket-infra/internal/logging"
	"github.com/pankbase/bucket-infra/internal/stack"
)

// ErrDuplicateStack is returned when two stacks share a name.
var ErrDuplicateStack = errors.New("duplicate stack name")

// Environment is the account and region stacks are deployed to.
// Empty fields are resolved by the provisioning tool.
type Environment struct {
	Account string
	Region  string
}

// App is an ordered set of stacks.
type App struct {
	env    Environment
	logger *slog.Logger

	stacks []*stack.Stack
	byName map[string]*stack.Stack
	errs   []error
}

// Option configures an App.
type Option func(*App)

// WithEnvironment sets the deployment environment recorded in the manifest.
func WithEnvironment(env Environment) Option {
	return func(a *App) {
		a.env = env
	}
}

// WithLogger sets the logger used during synthesis.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// New creates an empty app.
func New(opts ...Option) *App {
	a := &App{
		logger: logging.Discard(),
		byName: make(map[string]*stack.Stack),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewStack creates a stack and registers it with the app.
func (a *App) NewStack(name string, opts ...stack.Option) *stack.Stack {
	s := stack.New(name, opts...)
	if _, exists := a.byName[name]; exists {
		a.errs = append(a.errs, fmt.Errorf("%w: %s", ErrDuplicateStack, name))
		return s
	}
	a.byName[name] = s
	a.stacks = append(a.stacks, s)
	return s
}

// Stacks returns the registered stacks in declaration order.
func (a *App) Stacks() []*stack.Stack {
	return append([]*stack.Stack(nil), a.stacks...)
}

// Stack returns the stack with the given name.
func (a *App) Stack(name string) (*stack.Stack, bool) {
	s, ok := a.byName[name]
	return s, ok
}

// Environment returns the deployment environment.
func (a *App) Environment() Environment {
	return a.env
}

// Logger returns the app's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Order returns the stacks in deployment order.
func (a *App) Order() ([]*stack.Stack, error) {
	if len(a.errs) > 0 {
		return nil, errors.Join(a.errs...)
	}
	return stack.Sort(a.stacks)
}
