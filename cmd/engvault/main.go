package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/engvault/engvault/internal/app"
	"github.com/engvault/engvault/internal/authz"
	"github.com/engvault/engvault/internal/document"
	"github.com/engvault/engvault/internal/identity"
	"github.com/engvault/engvault/internal/part"
	"github.com/engvault/engvault/internal/platform/db"
	"github.com/engvault/engvault/internal/project"
	"github.com/engvault/engvault/internal/rbac"
	"github.com/engvault/engvault/internal/shared"
)

type services struct {
	Identity  *identity.Service
	Projects  *project.Service
	Documents *document.Service
	Parts     *part.Service
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	policies, err := loadPolicies(cfg)
	if err != nil {
		logger.Error("load role policies", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	audit := shared.NewAuditLogger(pool)

	projectRepo := project.NewRepository(pool)
	gate := authz.NewGate(policies.Project, projectRepo)

	sessions := identity.NewSessionStore(redisClient, cfg.SessionTTL)

	// no transport is mounted; embedders compose these services directly.
	svcs := services{
		Identity:  identity.NewService(identity.NewRepository(pool), sessions, policies.Account, logger),
		Projects:  project.NewService(projectRepo, gate),
		Documents: document.NewService(document.NewRepository(pool), gate, audit),
		Parts:     part.NewService(part.NewRepository(pool), gate, audit),
	}
	_ = svcs

	logger.Info("engvault started",
		slog.String("env", cfg.AppEnv),
		slog.Int("account_roles", len(policies.Account.Roles())),
		slog.Int("project_roles", len(policies.Project.Roles())),
	)

	<-ctx.Done()
	logger.Info("shutting down")
}

func loadPolicies(cfg *app.Config) (*rbac.PolicySet, error) {
	if cfg.RolePolicyPath == "" {
		return rbac.DefaultPolicySet(), nil
	}
	return rbac.LoadPolicySet(cfg.RolePolicyPath)
}
