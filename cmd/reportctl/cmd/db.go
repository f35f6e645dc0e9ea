package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/config"
	"github.com/spec-kit/monitor-report/internal/domain"
	"github.com/spec-kit/monitor-report/internal/persistence"
	"github.com/spec-kit/monitor-report/internal/repository"
)

var (
	dsn           string
	migrationsDir string
)

func init() {
	for _, c := range []*cobra.Command{migrateCmd, seedCmd} {
		c.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN (default: $POSTGRES_DSN)")
		rootCmd.AddCommand(c)
	}
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", persistence.DefaultMigrationsDir, "Directory of .sql migrations")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(pg *persistence.Postgres, logger *zap.Logger) error {
			return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), migrationsDir, logger)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create development users and servers",
	Long: `Create the development accounts and sample Discord servers.

Existing accounts and servers with the same email or name are left untouched.

  staff@example.com    / staff123    (STAFF)
  manager@example.com  / manager123  (MANAGER)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(pg *persistence.Postgres, _ *zap.Logger) error {
			pool := pg.PoolHandle()
			return seed(cmd.Context(), cmd.OutOrStdout(),
				repository.NewUserRepository(pool),
				repository.NewServerRepository(pool),
				auth.NewPasswordHasher(0))
		})
	},
}

type seedUser struct {
	name     string
	email    string
	password string
	role     domain.Role
}

var (
	seedUsers = []seedUser{
		{"Staff User", "staff@example.com", "staff123", domain.RoleStaff},
		{"Manager User", "manager@example.com", "manager123", domain.RoleManager},
	}
	seedServers = []domain.DiscordServer{
		{Name: "Community Hub", Description: "Main community server", IsActive: true},
		{Name: "Support Desk", Description: "Customer support server", IsActive: true},
		{Name: "Archive", Description: "Retired server kept for history", IsActive: false},
	}
)

func seed(ctx context.Context, out io.Writer, users repository.UserRepository, servers repository.ServerRepository, hasher *auth.PasswordHasher) error {
	for _, u := range seedUsers {
		digest, err := hasher.Hash(ctx, u.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.email, err)
		}
		err = users.Create(ctx, &domain.User{Name: u.name, Email: u.email, PasswordHash: digest, Role: u.role})
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			fmt.Fprintf(out, "user %s exists, skipped\n", u.email)
		case err != nil:
			return fmt.Errorf("create user %s: %w", u.email, err)
		default:
			fmt.Fprintf(out, "user %s created (%s)\n", u.email, u.role)
		}
	}

	existing, err := servers.List(ctx, false)
	if err != nil {
		return fmt.Errorf("list servers: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, s := range existing {
		names[s.Name] = true
	}
	for _, s := range seedServers {
		if names[s.Name] {
			fmt.Fprintf(out, "server %q exists, skipped\n", s.Name)
			continue
		}
		server := s
		if err := servers.Create(ctx, &server); err != nil {
			return fmt.Errorf("create server %q: %w", s.Name, err)
		}
		fmt.Fprintf(out, "server %q created\n", s.Name)
	}
	return nil
}

func withDatabase(ctx context.Context, fn func(*persistence.Postgres, *zap.Logger) error) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.PostgresConfig{DSN: dsn, MaxConns: 2}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("POSTGRES_DSN")
	}

	pg, err := persistence.NewPostgres(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	return fn(pg, logger)
}
