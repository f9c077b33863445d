// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/indexes"
	"github.com/dalemusser/taskboard/internal/app/system/realtime"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// viewTokenMaxAge bounds how long a board page may keep using its stream token.
const viewTokenMaxAge = 24 * time.Hour

// ConnectDB opens MongoDB (and Redis for the redis backend) and builds the
// realtime runtime on top of them.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{MongoClient: client, MongoDatabase: db}

	var notifier docstore.Notifier
	if appCfg.RealtimeBackend == BackendRedis {
		rc := redis.NewClient(&redis.Options{Addr: appCfg.RedisAddr})
		if err := rc.Ping(pingCtx).Err(); err != nil {
			_ = rc.Close()
			_ = client.Disconnect(context.Background())
			return DBDeps{}, fmt.Errorf("ping redis: %w", err)
		}
		deps.Redis = rc
		notifier = docstore.NewRedisNotifier(rc, logger)
		logger.Info("realtime backend: redis", zap.String("addr", appCfg.RedisAddr))
	} else {
		logger.Info("realtime backend: mongo change streams")
	}

	deps.Realtime = newRealtime(docstore.NewMongo(db, notifier, logger), appCfg, logger)
	return deps, nil
}

func newRealtime(docs docstore.Client, appCfg AppConfig, logger *zap.Logger) *Realtime {
	return &Realtime{
		Docs: docs,
		Views: realtime.NewManager(docs, realtime.Config{
			Cooldown:    appCfg.ReconcileCooldown,
			Window:      appCfg.OptimisticWindow,
			ClientWidth: appCfg.ViewClientWidth,
		}, logger),
		Broker: realtime.NewBroker(realtime.DefaultBuffer, logger),
		Tokens: auth.NewViewTokens([]byte(appCfg.ViewTokenKey), viewTokenMaxAge),
	}
}

// EnsureSchema creates the indexes the stores rely on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
