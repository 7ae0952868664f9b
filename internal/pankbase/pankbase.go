// Package pankbase wires the PankBase bucket stacks into an app: for every
// selected variant, a storage stack and an access policies stack that reads the
// storage stack's bucket ARNs.
package pankbase

import (
	"log/slog"

	"github.com/pankbase/bucket-infra/internal/access"
	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/config"
	"github.com/pankbase/bucket-infra/internal/logging"
	"github.com/pankbase/bucket-infra/internal/storage"
)

// Declaration is the pair of stacks declared for one variant.
type Declaration struct {
	Storage  *storage.Storage
	Policies *access.Policies
}

// Infra is the declared infrastructure.
type Infra struct {
	App          *app.App
	Declarations []Declaration
}

// Build declares every variant selected in cfg. A nil logger discards diagnostics.
func Build(cfg *config.Config, logger *slog.Logger) (*Infra, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	variants, err := cfg.SelectedVariants()
	if err != nil {
		return nil, err
	}

	a := app.New(
		app.WithEnvironment(app.Environment{Account: cfg.Env.Account, Region: cfg.Env.Region}),
		app.WithLogger(logger),
	)

	infra := &Infra{App: a}
	for _, v := range variants {
		st := storage.New(a, v.StorageStack, v, storage.Options{AccessLogging: cfg.AccessLogging})
		p := access.New(a, v.AccessStack, st, v)
		infra.Declarations = append(infra.Declarations, Declaration{Storage: st, Policies: p})
	}
	return infra, nil
}

// Synthesize builds cfg and renders the assembly.
func Synthesize(cfg *config.Config, logger *slog.Logger) (*app.Assembly, error) {
	infra, err := Build(cfg, logger)
	if err != nil {
		return nil, err
	}
	return infra.App.Synthesize()
}
