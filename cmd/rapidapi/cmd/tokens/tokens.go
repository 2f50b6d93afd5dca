// Package tokens holds the API token management subcommands.
package tokens

import (
	"fmt"

	"github.com/rapidgeo/rapid/internal/access"
	"github.com/rapidgeo/rapid/internal/config"
	"github.com/rapidgeo/rapid/internal/db/bunx"
	"github.com/rapidgeo/rapid/internal/repository"
	"github.com/rapidgeo/rapid/internal/services/geodata"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// TokensCmd is the parent command for token management.
var TokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage API tokens",
}

func init() {
	TokensCmd.AddCommand(createCmd)
	TokensCmd.AddCommand(listCmd)
}

// newService builds a service over a fresh database connection. The caller
// closes the returned db.
func newService() (*geodata.Service, *bun.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	bindingRepo := repository.NewBunRoleBindingRepository(db)
	service := geodata.NewService(
		repository.NewBunTokenRepository(db),
		bindingRepo,
		repository.NewBunLayerRepository(db),
		repository.NewBunViewRepository(db),
		repository.NewBunFeatureRepository(db),
		access.NewResolver(bindingRepo),
	)
	return service, db, nil
}
