// internal/app/features/workspaces/handler.go
package workspaces

import (
	uierrors "github.com/dalemusser/taskboard/internal/app/features/errors"
	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides the workspace list and board creation pages.
type Handler struct {
	DB     *mongo.Database
	Docs   docstore.Client
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler creates a new workspaces Handler. Board columns are written
// through docs so open board views see them.
func NewHandler(db *mongo.Database, docs docstore.Client, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Docs:   docs,
		Log:    logger,
		ErrLog: errLog,
	}
}
