// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/taskboard/internal/app/system/auth"
	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/app/system/realtime"
	"github.com/dalemusser/taskboard/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil unless the redis realtime backend is configured.
	Redis *redis.Client

	Realtime *Realtime
}

// Realtime bundles the live board view machinery shared by all requests.
type Realtime struct {
	Docs    docstore.Client
	Views   *realtime.Manager
	Broker  *realtime.Broker
	Tokens  *auth.ViewTokens
	Janitor *workers.ViewJanitor
}
