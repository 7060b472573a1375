// Package persistence is the gateway between sessions and the job store.
// Store failures never reach callers: they are logged, counted and turned
// into empty results.
package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/db"
	"github.com/jonathan/cojournalist/internal/logging"
	"github.com/jonathan/cojournalist/internal/metrics"
	"github.com/jonathan/cojournalist/internal/schedule"
	"github.com/jonathan/cojournalist/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is the subset of *db.DB the gateway needs.
type Store interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*db.User, error)
	EnsureUser(ctx context.Context, externalID, email string) (*db.User, error)
	CreateScheduledScraper(ctx context.Context, in *types.NewScheduledJob) (*db.ScheduledScraper, error)
	ListScheduledScrapers(ctx context.Context, userID uuid.UUID) ([]db.ScheduledScraper, error)
	DeleteScheduledScraper(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// Operation labels used in logs and metrics.
const (
	OpResolveOwner = "resolve_owner"
	OpEnsureUser   = "ensure_user"
	OpListJobs     = "list_jobs"
	OpCreateJob    = "create_job"
	OpDeleteJob    = "delete_job"
)

// Gateway wraps a Store with the no-fault failure policy.
type Gateway struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	ensure  singleflight.Group

	// now is replaced in tests.
	now func() time.Time
}

// NewGateway creates a gateway. logger and m may be nil.
func NewGateway(store Store, logger *zap.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{
		store:   store,
		logger:  logging.OrNop(logger),
		metrics: m,
		now:     time.Now,
	}
}

func (g *Gateway) fail(op string, err error, fields ...zap.Field) {
	g.logger.Error("persistence operation failed",
		append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
	g.metrics.GatewayError(op)
}

// ResolveUser looks up the internal user behind an identity. A nil identity,
// an unknown identity and a store failure all return (nil, false).
func (g *Gateway) ResolveUser(ctx context.Context, identity *types.Identity) (*types.User, bool) {
	if identity == nil || identity.ExternalID == "" {
		return nil, false
	}
	u, err := g.store.GetUserByExternalID(ctx, identity.ExternalID)
	if err != nil {
		g.fail(OpResolveOwner, err, zap.String("external_id", identity.ExternalID))
		return nil, false
	}
	if u == nil {
		g.logger.Warn("no user record for identity", zap.String("external_id", identity.ExternalID))
		return nil, false
	}
	return u.ToAPI(), true
}

// ResolveOwnerID returns the internal id of the identity's user.
func (g *Gateway) ResolveOwnerID(ctx context.Context, identity *types.Identity) (uuid.UUID, bool) {
	u, ok := g.ResolveUser(ctx, identity)
	if !ok {
		return uuid.Nil, false
	}
	return u.ID, true
}

// EnsureUser returns the internal id for externalID, creating the user on
// first sight. Concurrent calls for the same id share one store round trip.
func (g *Gateway) EnsureUser(ctx context.Context, externalID, email string) (uuid.UUID, bool) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return uuid.Nil, false
	}

	// The flight is shared, so it must outlive the caller that started it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := g.ensure.Do(externalID, func() (any, error) {
		u, err := g.store.EnsureUser(flightCtx, externalID, email)
		if err != nil {
			return uuid.Nil, err
		}
		return u.ID, nil
	})
	if err != nil {
		g.fail(OpEnsureUser, err, zap.String("external_id", externalID))
		return uuid.Nil, false
	}
	return v.(uuid.UUID), true
}

// ListJobs returns the owner's jobs, newest first, each with its next run
// preview. Returns an empty slice for uuid.Nil or on failure.
func (g *Gateway) ListJobs(ctx context.Context, owner uuid.UUID) []types.ScheduledJob {
	jobs := []types.ScheduledJob{}
	if owner == uuid.Nil {
		return jobs
	}

	rows, err := g.store.ListScheduledScrapers(ctx, owner)
	if err != nil {
		g.fail(OpListJobs, err, zap.String("owner", owner.String()))
		return jobs
	}

	now := g.now()
	for i := range rows {
		job := rows[i].ToAPI()
		if next, err := schedule.FromJob(job).NextRun(now); err == nil {
			job.NextRunAt = &next
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// CreateJob inserts a job. Returns (nil, false) on failure.
func (g *Gateway) CreateJob(ctx context.Context, in *types.NewScheduledJob) (*types.ScheduledJob, bool) {
	if in == nil || in.UserID == uuid.Nil {
		return nil, false
	}
	row, err := g.store.CreateScheduledScraper(ctx, in)
	if err != nil {
		g.fail(OpCreateJob, err, zap.String("owner", in.UserID.String()), zap.String("url", in.Name))
		return nil, false
	}
	job := row.ToAPI()
	return &job, true
}

// DeleteJob deletes the job if it belongs to owner. Reports whether a row
// was removed.
func (g *Gateway) DeleteJob(ctx context.Context, id, owner uuid.UUID) bool {
	if owner == uuid.Nil {
		return false
	}
	deleted, err := g.store.DeleteScheduledScraper(ctx, id, owner)
	if err != nil {
		g.fail(OpDeleteJob, err, zap.String("job_id", id.String()), zap.String("owner", owner.String()))
		return false
	}
	if !deleted {
		g.logger.Info("no job deleted", zap.String("job_id", id.String()), zap.String("owner", owner.String()))
	}
	return deleted
}
