package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rapidgeo/rapid/internal/access"
	"github.com/rapidgeo/rapid/internal/db/bunx"
	"github.com/rapidgeo/rapid/internal/repository"
	"github.com/rapidgeo/rapid/internal/server"
	"github.com/rapidgeo/rapid/internal/services/geodata"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RAPID API server",
	Long:  `Starts the HTTP server exposing the layer, view, feature, and access management API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)
		log.Printf("Connected to database")

		bindingRepo := repository.NewBunRoleBindingRepository(db)
		service := geodata.NewService(
			repository.NewBunTokenRepository(db),
			bindingRepo,
			repository.NewBunLayerRepository(db),
			repository.NewBunViewRepository(db),
			repository.NewBunFeatureRepository(db),
			access.NewResolver(bindingRepo),
		)

		authenticator, err := server.NewTokenAuthenticator(service, cfg.TokenCacheSize)
		if err != nil {
			return fmt.Errorf("failed to create token authenticator: %w", err)
		}

		router := server.NewRouter(server.RouterOptions{
			Handlers:      server.NewHandlers(service),
			Authenticator: authenticator,
		})
		srv := server.NewHTTPServer(cfg.ServerAddr, router)

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down gracefully", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			log.Printf("Server stopped")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
