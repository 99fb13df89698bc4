package router

import (
	"context"
	"fmt"

	appuser "github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/container"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/messaging"
	pginfra "github.com/oksasatya/go-user-admin/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-user-admin/internal/interface/http"
	"github.com/oksasatya/go-user-admin/internal/router/modules"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

// BuildUserService assembles the user service from whatever the container holds.
// Without a Postgres pool users live in process memory.
func BuildUserService() *appuser.Service {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	var repos repository.Factory
	if pool := container.GetPGPool(); pool != nil {
		repos = pginfra.NewUserRepositoryFactory(pool)
	} else {
		logger.Warn("no postgres pool; users are kept in memory")
		repos = memory.NewStore().Factory()
	}

	opts := []appuser.Option{appuser.WithMinimumAge(cfg.MinimumAge)}
	if pub := container.GetRabbitPub(); pub != nil {
		opts = append(opts, appuser.WithEvents(messaging.NewUserEventPublisher(pub)))
	}
	if es := container.GetES(); es != nil {
		opts = append(opts, appuser.WithIndexer(search.NewUserIndexer(es, cfg.ESUsersIndex)))
	}
	if cfg.PasswordHashing == "bcrypt" {
		opts = append(opts, appuser.WithPasswordHasher(helpers.BcryptHasher{}))
	}
	return appuser.NewService(repos, logger, opts...)
}

func buildUserHandler() *handlers.UserHandler {
	service := BuildUserService()
	return handlers.NewUserHandler(service, appuser.NewValidator(service.Now), container.GetLogger())
}

func healthChecks() map[string]modules.Check {
	checks := map[string]modules.Check{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if es := container.GetES(); es != nil {
		checks["elasticsearch"] = func(ctx context.Context) error {
			res, err := es.Ping(es.Ping.WithContext(ctx))
			if err != nil {
				return err
			}
			defer func() { _ = res.Body.Close() }()
			if res.IsError() {
				return fmt.Errorf("elasticsearch ping: %s", res.Status())
			}
			return nil
		}
	}
	return checks
}

// InitModules builds every feature module from the container and registers it.
// Call once during startup, after the container is populated.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	rdb := container.GetRedis()

	userHandler := buildUserHandler()
	r.Add(modules.NewHealthModule(healthChecks()))
	r.Add(modules.NewUserModule(userHandler, rdb, cfg.RateLimitPerMinute))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}
