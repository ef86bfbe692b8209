package app

import (
	"github.com/gorilla/sessions"

	"github.com/ghuser/salesledger/pkg/auth"
	"github.com/ghuser/salesledger/pkg/cache"
	"github.com/ghuser/salesledger/pkg/config"
	"github.com/ghuser/salesledger/pkg/database"
	"github.com/ghuser/salesledger/pkg/events"
	"github.com/ghuser/salesledger/pkg/logger"
	"github.com/ghuser/salesledger/pkg/workflows"
)

// Application holds shared infrastructure dependencies for all bounded
// contexts. Pass it to each context's Routes call during server start-up.
//
// Logging: app.Logger is backed by a trace-aware handler. Use the context
// methods and trace_id, span_id and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "order reserved", "order_id", id)
//	app.Logger.ErrorContext(ctx, "cancel failed", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config         *config.Config
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient        // nil when Redis is unavailable
	TemporalClient *workflows.TemporalClient // nil unless TEMPORAL_ENABLED
	SessionStore   sessions.Store            // Redis-backed session store; nil in worker process
	Credentials    auth.CredentialStore
}
