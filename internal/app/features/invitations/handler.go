// internal/app/features/invitations/handler.go
package invitations

import (
	"strings"
	"time"

	uierrors "github.com/dalemusser/taskboard/internal/app/features/errors"
	"github.com/dalemusser/taskboard/internal/app/system/mailer"
	"github.com/dalemusser/taskboard/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler sends workspace invitations and accepts them.
type Handler struct {
	DB      *mongo.Database
	Mail    mailer.Sender
	BaseURL string

	// SendLimit caps invitations per inviter; nil means unlimited.
	SendLimit *ratelimit.Limiter
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
}

// Per-inviter invitation allowance.
const (
	sendsPerWindow = 20
	sendWindow     = time.Hour
)

// NewHandler creates an invitations Handler. Accept links are built on
// baseURL.
func NewHandler(db *mongo.Database, mail mailer.Sender, baseURL string, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Mail:      mail,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SendLimit: ratelimit.New(sendsPerWindow, sendWindow),
		Log:       logger,
		ErrLog:    errLog,
	}
}

func (h *Handler) acceptLink(token string) string {
	return h.BaseURL + "/invitations/" + token + "/accept"
}
