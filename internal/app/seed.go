package app

import (
	"context"
	_ "embed"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"expensehub/internal/api"
	"expensehub/internal/domain"
	"expensehub/internal/entity"
)

//go:embed seed.yaml
var seedYAML []byte

type seedData struct {
	Users    []domain.User    `yaml:"users"`
	Expenses []domain.Expense `yaml:"expenses"`
}

// newSeedFunc parses the embedded demo dataset and returns a SeedFunc that
// loads both entity types in parallel. EnsureSeed makes the whole thing
// idempotent, so the func is safe on every request path.
func newSeedFunc(users *entity.Collection[domain.User], expenses *entity.Collection[domain.Expense]) (api.SeedFunc, error) {
	var data seedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return nil, fmt.Errorf("parse seed.yaml: %w", err)
	}
	if len(data.Users) == 0 {
		return nil, fmt.Errorf("seed.yaml contains no users")
	}

	return func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return users.EnsureSeed(gctx, data.Users) })
		g.Go(func() error { return expenses.EnsureSeed(gctx, data.Expenses) })
		return g.Wait()
	}, nil
}
