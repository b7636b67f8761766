package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/observability"
	"github.com/spec-kit/user-service/internal/persistence"
	"github.com/spec-kit/user-service/internal/repository"
	"github.com/spec-kit/user-service/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "usersvc",
		Short:         "Operator tooling for the user service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(migrateCmd(), seedAdminCmd(), tokenCmd())
	return cmd
}

// runtime bundles what the database commands need.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func connect(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger, "usersvc")
	if err != nil {
		return nil, err
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.PoolHandle() == nil {
		return nil, persistence.ErrPostgresNotConfigured
	}
	return &runtime{cfg: cfg, logger: logger, pg: pg}, nil
}

func (r *runtime) close() {
	r.pg.Close()
	_ = r.logger.Sync()
}

func migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if dir == "" {
				dir = rt.cfg.Postgres.MigrationsDir
			}
			return persistence.RunMigrations(cmd.Context(), rt.pg.PoolHandle(), dir, rt.logger)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Migrations directory (defaults to POSTGRES_MIGRATIONS_DIR)")
	return cmd
}

func seedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or reset the admin account from ADMIN_SEED_EMAIL and ADMIN_SEED_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			hasher := auth.NewBcryptHasher(rt.cfg.Auth.BcryptCost)
			users := repository.NewUserRepository(rt.pg.PoolHandle())
			admin, err := service.SeedAdmin(cmd.Context(), users, hasher, rt.cfg.Seed.AdminEmail, rt.cfg.Seed.AdminPassword)
			if err != nil {
				return err
			}
			rt.logger.Info("admin seeded", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
			fmt.Fprintln(cmd.OutOrStdout(), admin.ID)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		id   string
		role string
		ttl  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token for debugging",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			var opts []auth.SignOption
			if ttl != "" {
				opts = append(opts, auth.WithExpiresIn(ttl))
			}
			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)
			token, meta, err := tokens.Issue(map[string]any{"id": id, "role": role}, opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "jti=%s expires=%s\n", meta.JTI, meta.ExpiresAtTime().UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Subject user id")
	cmd.Flags().StringVar(&role, "role", "STAFF", "Role claim")
	cmd.Flags().StringVar(&ttl, "ttl", "", "Lifetime such as 15m or 2h (defaults to JWT_EXPIRES_IN)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
