// pkg/audit/audit.go
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Event is one recorded signup/login/provisioning occurrence.
type Event struct {
	Kind      string // signup, login, provision_complete, provision_failed, logout
	Email     string
	UserID    int
	RequestID string
	Detail    map[string]any
}

// Recorder writes events to postgres, best-effort. A nil pool makes every
// call a no-op so the gateway runs without a database in dev.
type Recorder struct {
	log  *zap.SugaredLogger
	pool *pgxpool.Pool
}

func NewRecorder(pool *pgxpool.Pool, log *zap.SugaredLogger) *Recorder {
	return &Recorder{log: log, pool: pool}
}

func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signup_events (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			user_id BIGINT,
			request_id TEXT NOT NULL DEFAULT '',
			detail JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (r *Recorder) Record(ctx context.Context, e Event) {
	if r.pool == nil {
		return
	}
	detail, _ := json.Marshal(e.Detail)
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO signup_events(kind, email, user_id, request_id, detail, created_at)
		VALUES ($1,$2,NULLIF($3,0),$4,$5,$6)`,
		e.Kind, e.Email, e.UserID, e.RequestID, detail, time.Now().UTC()); err != nil {
		r.log.Warnw("audit insert failed", "kind", e.Kind, "err", err)
	}
}
