package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/router"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "restaurant",
		Short:         "Restaurant ordering backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Migrate the schema and start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, db, err := bootstrap(cmd.Context())
				if err != nil {
					return err
				}
				return migrate(db)
			},
		},
		newCreateAdminCmd(),
	)
	return root
}

func newCreateAdminCmd() *cobra.Command {
	var username, password, fullName string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			if err := migrate(db); err != nil {
				return err
			}

			in := services.RegisterInput{Username: username, Password: password}
			if fullName != "" {
				in.FullName = &fullName
			}
			identity := services.NewIdentityService(database.NewGateway(db), utils.InfoLogger)
			admin, err := identity.BootstrapAdmin(cmd.Context(), in)
			if err != nil {
				utils.ErrLog().WithError(err).Error("create-admin failed")
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "administrator %q created with id %d\n", admin.Username, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "administrator username")
	cmd.Flags().StringVar(&password, "password", "", "administrator password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// bootstrap loads configuration, sets up logging and opens the database.
func bootstrap(ctx context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	utils.InitLogger(cfg.LogLevel)

	db, err := database.Open(cfg.DB, utils.InfoLogger)
	if err != nil {
		utils.ErrLog().WithError(err).Error("failed to connect to database")
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrate(db *gorm.DB) error {
	if err := database.Migrate(db); err != nil {
		utils.ErrLog().WithError(err).Error("migration failed")
		return err
	}
	utils.InfoLogger.Info("AutoMigrate completed.")
	return nil
}

func runServe(ctx context.Context) error {
	cfg, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	if err := migrate(db); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	r, err := router.SetupRouter(router.Dependencies{
		Config:    cfg,
		Gateway:   database.NewGateway(db),
		Completer: services.NewOpenAICompleter(cfg.LLM, nil),
		Logger:    utils.InfoLogger,
	})
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		utils.InfoLogger.Warn("LLM_API_KEY not set; recipe suggestions will return the fallback message")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		utils.InfoLogger.Infof("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			utils.ErrLog().WithError(err).Error("server stopped")
		}
		return err
	case <-sigCtx.Done():
	}

	utils.InfoLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
