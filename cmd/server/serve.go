package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/iliyamo/recipe-box/internal/config"
	"github.com/iliyamo/recipe-box/internal/database"
	"github.com/iliyamo/recipe-box/internal/handler"
	"github.com/iliyamo/recipe-box/internal/httpserver"
	"github.com/iliyamo/recipe-box/internal/logutil"
	"github.com/iliyamo/recipe-box/internal/middleware"
	"github.com/iliyamo/recipe-box/internal/queue"
	"github.com/iliyamo/recipe-box/internal/repository"
	"github.com/iliyamo/recipe-box/internal/router"
	"github.com/iliyamo/recipe-box/internal/service"
	"github.com/iliyamo/recipe-box/internal/utils"
)

func serveCmd() *cli.Command {
	var bind string
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to listen on (defaults to :APP_PORT)",
				EnvVars:     []string{"RECIPEBOX_BIND"},
				Destination: &bind,
			},
		},
		Action: func(appCtx *cli.Context) error {
			cfg := config.Load()
			logger := logutil.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			ctx := logutil.WithLogger(appCtx.Context, logger)

			users, recipes, db, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			hasher, err := utils.NewPasswordHasher(cfg.BcryptCost)
			if err != nil {
				return fmt.Errorf("password hasher: %w", err)
			}
			tokens := utils.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)

			rdb, err := config.LoadRedisConfig().Connect(ctx)
			switch {
			case err != nil:
				logger.Warn().Err(err).Msg("redis unavailable, rate limiting and caching run in-process")
			case rdb == nil:
				logger.Info().Msg("redis disabled, rate limiting and caching run in-process")
			default:
				defer rdb.Close()
			}
			cache, err := middleware.NewOwnerCache(ctx, config.LoadCacheConfig(), rdb)
			if err != nil {
				return err
			}

			var events queue.Publisher = queue.NopPublisher{}
			if bc := config.LoadBrokerConfig(); bc.Enabled {
				events = queue.NewAMQPPublisher(bc.URL, bc.Queue)
			}

			var health handler.Pinger
			if db != nil {
				health = db
			}

			e := router.New(router.Deps{
				Cfg:       cfg,
				Logger:    logger,
				Tokens:    tokens,
				Auth:      handler.NewAuthHandler(service.NewAuthService(users, hasher), tokens),
				Recipes:   handler.NewRecipeHandler(service.NewRecipeService(recipes, events)),
				Health:    handler.Health(health),
				Metrics:   middleware.NewMetrics(),
				RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
				Cache:     cache,
			})

			if bind == "" {
				bind = ":" + cfg.Port
			}
			logger.Info().Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("recipe-box starting")
			return httpserver.Serve(ctx, bind, e)
		},
	}
}

// openStores returns the stores for cfg.StoreDriver.  db is nil for the
// file store.
func openStores(ctx context.Context, cfg config.Config) (repository.UserStore, repository.RecipeStore, *sql.DB, error) {
	if cfg.StoreDriver == config.DriverFile {
		fdb, err := repository.OpenFileDB(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		log := logutil.GetOrDefault(ctx)
		log.Warn().Str("dir", cfg.DataDir).Msg("using the JSON file store; not for production")
		return fdb.Users(), fdb.Recipes(), nil, nil
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return repository.NewUserRepo(db), repository.NewRecipeRepo(db), db, nil
}
