// Package cli implements boardctl, the operator command line for seeding
// and reporting on a task board database.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// App holds the backends the commands work against. Tests set DB and Docs
// directly; otherwise they are opened from the persistent flags.
type App struct {
	DB   *mongo.Database
	Docs docstore.Client
	Log  *zap.Logger

	mongoURI  string
	dbName    string
	redisAddr string
	verbose   bool
	closers   []func()
}

// NewRootCmd creates the top-level "boardctl" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Operate a task board database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}

	root.PersistentFlags().StringVar(&app.mongoURI, "mongo-uri", envOr("TASKBOARD_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	root.PersistentFlags().StringVar(&app.dbName, "db", envOr("TASKBOARD_MONGO_DATABASE", "taskboard"), "MongoDB database name")
	root.PersistentFlags().StringVar(&app.redisAddr, "redis-addr", os.Getenv("TASKBOARD_REDIS_ADDR"), "Redis address; set when the server uses the redis realtime backend")
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Log backend activity to stderr")

	root.AddCommand(
		newSeedCmd(app),
		newReportCmd(app),
	)
	return root
}

func (a *App) open(ctx context.Context) error {
	if a.Log == nil {
		a.Log = zap.NewNop()
		if a.verbose {
			if l, err := zap.NewDevelopment(); err == nil {
				a.Log = l
			}
		}
	}
	if a.DB != nil && a.Docs != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(a.mongoURI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		a.close()
		return fmt.Errorf("ping mongo: %w", err)
	}
	a.DB = client.Database(a.dbName)

	// Writes announce themselves on redis so live views pick them up.
	var notifier docstore.Notifier
	if a.redisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: a.redisAddr})
		a.closers = append(a.closers, func() { _ = rc.Close() })
		notifier = docstore.NewRedisNotifier(rc, a.Log)
	}
	a.Docs = docstore.NewMongo(a.DB, notifier, a.Log)
	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	_ = a.Log.Sync()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
