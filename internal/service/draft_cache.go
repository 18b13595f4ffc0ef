package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
)

const draftKeyPrefix = "planner:draft:"

// CacheRepository stores JSON payloads under string keys.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DraftCache keeps the latest working copy of each student plan outside the process,
// so edits that have not reached the database survive a restart. A disabled cache
// misses every lookup and drops every write.
type DraftCache struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewDraftCache constructs a draft cache. Drafts expire after ttl.
func NewDraftCache(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *DraftCache {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

func draftKey(planID, studentID string) string {
	return draftKeyPrefix + planID + ":" + studentID
}

// Enabled indicates whether drafts are written anywhere.
func (d *DraftCache) Enabled() bool {
	return d != nil && d.enabled && d.repo != nil
}

// Load returns the draft of a student plan, or nil when there is none. Drafts stored
// under the key of another plan are ignored.
func (d *DraftCache) Load(ctx context.Context, planID, studentID string) (*models.StudentPlan, error) {
	if !d.Enabled() {
		return nil, nil
	}
	var draft models.StudentPlan
	start := time.Now()
	err := d.repo.Get(ctx, draftKey(planID, studentID), &draft)
	d.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case errors.Is(err, appErrors.ErrCacheMiss):
		return nil, nil
	case err != nil:
		d.logger.Warn("draft read failed", zap.String("plan_id", planID), zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	case draft.PlanID != planID || draft.StudentID != studentID:
		return nil, nil
	}
	return &draft, nil
}

// Store replaces the draft of plan.
func (d *DraftCache) Store(ctx context.Context, plan models.StudentPlan) error {
	if !d.Enabled() {
		return nil
	}
	start := time.Now()
	err := d.repo.Set(ctx, draftKey(plan.PlanID, plan.StudentID), plan, d.ttl)
	d.metrics.ObserveCacheWrite(time.Since(start))
	return err
}

// Discard removes the draft once the plan is persisted and no longer held in memory.
func (d *DraftCache) Discard(ctx context.Context, planID, studentID string) error {
	if !d.Enabled() {
		return nil
	}
	return d.repo.Delete(ctx, draftKey(planID, studentID))
}
