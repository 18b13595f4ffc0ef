package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	"github.com/noah-isme/homeschool-planner-api/internal/planner"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
	"github.com/noah-isme/homeschool-planner-api/pkg/jobs"
	"github.com/noah-isme/homeschool-planner-api/pkg/middleware/requestid"
)

const (
	// SaveJobType identifies debounced student plan saves on the autosave queue.
	SaveJobType = "plan.save"

	saveTimeout = 15 * time.Second
)

var errStalePlan = errors.New("stored student plan is newer than the session")

// Save triggers, used as metric labels.
const (
	triggerAutosave = "autosave"
	triggerExplicit = "explicit"
	triggerSweep    = "sweep"
	triggerShutdown = "shutdown"
)

type studentPlanStore interface {
	Get(ctx context.Context, planID, studentID string) (*models.StudentPlanRecord, error)
	Upsert(ctx context.Context, record *models.StudentPlanRecord) (bool, error)
	ListByPlan(ctx context.Context, planID string) ([]models.StudentPlanRecord, error)
}

type termPlanReader interface {
	FindByID(ctx context.Context, id string) (*models.TermPlan, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type saveDebouncer interface {
	Schedule(key string, fn func()) bool
	Cancel(key string) bool
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// PlanRef addresses one student plan on behalf of the account that owns it.
type PlanRef struct {
	OwnerID   string
	PlanID    string
	StudentID string
}

func (r PlanRef) key() string {
	return sessionKey(r.PlanID, r.StudentID)
}

func sessionKey(planID, studentID string) string {
	return planID + ":" + studentID
}

// PlannerConfig tunes how long idle sessions stay in memory.
type PlannerConfig struct {
	SessionTTL time.Duration
}

// PlannerService hosts the editable state of student plans. Every edit runs a planner
// operation against an in-memory session, bumps the plan version, mirrors the result
// to the draft cache and schedules a debounced save.
type PlannerService struct {
	plans     studentPlanStore
	terms     termPlanReader
	students  studentReader
	drafts    *DraftCache
	debouncer saveDebouncer
	queue     jobEnqueuer
	catalog   planner.Catalog
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       PlannerConfig
	sessions  *sessionStore
	now       func() time.Time
}

// NewPlannerService wires the planner dependencies. drafts, debouncer and metrics may be nil.
func NewPlannerService(
	plans studentPlanStore,
	terms termPlanReader,
	students studentReader,
	drafts *DraftCache,
	debouncer saveDebouncer,
	catalog planner.Catalog,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg PlannerConfig,
) *PlannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &PlannerService{
		plans:     plans,
		terms:     terms,
		students:  students,
		drafts:    drafts,
		debouncer: debouncer,
		catalog:   catalog,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		sessions:  newSessionStore(),
		now:       time.Now,
	}
}

// SetSaveQueue routes debounced saves through the worker queue. Without a queue the
// debouncer goroutine saves directly.
func (s *PlannerService) SetSaveQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Catalog returns the catalog new student plans are seeded from.
func (s *PlannerService) Catalog() planner.Catalog {
	return s.catalog
}

// ActiveSessions returns the number of plans held in memory.
func (s *PlannerService) ActiveSessions() int {
	return s.sessions.Len()
}

// GetPlan returns the current working copy of a student plan.
func (s *PlannerService) GetPlan(ctx context.Context, ref PlanRef) (*models.StudentPlan, error) {
	sess, err := s.lockSession(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	plan := planner.ClonePlan(sess.plan)
	return &plan, nil
}

// DaySlots returns the derived time slots of one day.
func (s *PlannerService) DaySlots(ctx context.Context, ref PlanRef, day models.Weekday) ([]models.TimeSlot, error) {
	if day.Index() < 0 {
		return nil, plannerError(planner.ErrInvalidDay)
	}
	plan, err := s.GetPlan(ctx, ref)
	if err != nil {
		return nil, err
	}
	return planner.ComputeTimeSlots(plan.Schedule.Days[day]), nil
}

// ListPlans returns the student plans of a term plan, preferring in-memory working
// copies over stored rows.
func (s *PlannerService) ListPlans(ctx context.Context, ownerID, planID string) ([]models.StudentPlan, error) {
	if _, err := s.authorizeTerm(ctx, ownerID, planID); err != nil {
		return nil, err
	}
	records, err := s.plans.ListByPlan(ctx, planID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student plans")
	}

	out := make([]models.StudentPlan, 0, len(records))
	for i := range records {
		plan, err := records[i].Decode()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode student plan")
		}
		if sess, ok := s.sessions.Get(sessionKey(planID, plan.StudentID)); ok {
			sess.mu.Lock()
			if !sess.evicted && sess.plan.Version > plan.Version {
				plan = planner.ClonePlan(sess.plan)
			}
			sess.mu.Unlock()
		}
		out = append(out, plan)
	}
	return out, nil
}

// ToggleDay flips whether a day is scheduled.
func (s *PlannerService) ToggleDay(ctx context.Context, ref PlanRef, day models.Weekday) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "toggle_day", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.ToggleDay(p, day)
	})
}

// SetDayField edits the start time, end time or block length of a day.
func (s *PlannerService) SetDayField(ctx context.Context, ref PlanRef, day models.Weekday, field planner.DayField, value string) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "set_day_field", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.SetDayField(p, day, field, value)
	})
}

// ToggleUseSameSchedule flips the shared weekly window.
func (s *PlannerService) ToggleUseSameSchedule(ctx context.Context, ref PlanRef) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "toggle_same_schedule", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.ToggleUseSameSchedule(p), nil
	})
}

// SetBlockField edits the subject, course or type of a block.
func (s *PlannerService) SetBlockField(ctx context.Context, ref PlanRef, day models.Weekday, slot string, field planner.BlockField, value string, applyToAllDays bool) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "set_block_field", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.SetBlockField(p, day, slot, field, value, planner.ApplyOptions{AutoApplyToAllDays: applyToAllDays})
	})
}

// SetPlatformURL records the resource link of a block.
func (s *PlannerService) SetPlatformURL(ctx context.Context, ref PlanRef, day models.Weekday, slot, url string) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "set_platform_url", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.SetPlatformURL(p, day, slot, url)
	})
}

// SetPlatformHelp records whether help finding a resource is wanted for a block.
func (s *PlannerService) SetPlatformHelp(ctx context.Context, ref PlanRef, day models.Weekday, slot string, needHelp bool) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "set_platform_help", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.SetPlatformHelp(p, day, slot, needHelp)
	})
}

// AddBlock appends a block to a day.
func (s *PlannerService) AddBlock(ctx context.Context, ref PlanRef, day models.Weekday, applyToAllDays bool) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "add_block", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.AddBlock(p, day, planner.ApplyOptions{AutoApplyToAllDays: applyToAllDays})
	})
}

// RemoveBlock drops the last block of a day.
func (s *PlannerService) RemoveBlock(ctx context.Context, ref PlanRef, day models.Weekday, applyToAllDays bool) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "remove_block", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.RemoveBlock(p, day, planner.ApplyOptions{AutoApplyToAllDays: applyToAllDays})
	})
}

// CopyDay copies one day onto other days of the same plan.
func (s *PlannerService) CopyDay(ctx context.Context, ref PlanRef, from models.Weekday, to []models.Weekday) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "copy_day", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.CopyDay(p, from, to)
	})
}

// SetCurriculum replaces the subject and activity lists of a plan.
func (s *PlannerService) SetCurriculum(ctx context.Context, ref PlanRef, core, extended []string, courses map[string][]string, activities []string) (*models.StudentPlan, error) {
	return s.mutate(ctx, ref, "set_curriculum", func(p models.StudentPlan) (models.StudentPlan, error) {
		return planner.SetCurriculum(p, core, extended, courses, activities), nil
	})
}

// CopySchedule overwrites the scoped part of every target plan with the source plan.
// Targets are updated one at a time; when one fails, the plans already updated are
// returned with the error and stay updated.
func (s *PlannerService) CopySchedule(ctx context.Context, ownerID, planID, sourceID string, targetIDs []string, scope planner.CopyScope) ([]models.StudentPlan, error) {
	if !scope.Valid() {
		return nil, plannerError(planner.ErrInvalidScope)
	}
	source, err := s.GetPlan(ctx, PlanRef{OwnerID: ownerID, PlanID: planID, StudentID: sourceID})
	if err != nil {
		return nil, err
	}
	out := make([]models.StudentPlan, 0, len(targetIDs))
	for _, targetID := range uniqueIDs(targetIDs) {
		plan, err := s.mutate(ctx, PlanRef{OwnerID: ownerID, PlanID: planID, StudentID: targetID}, "copy_schedule", func(p models.StudentPlan) (models.StudentPlan, error) {
			return planner.CopySchedule(*source, p, scope)
		})
		if err != nil {
			return out, partialFanOut(err, out, targetID)
		}
		out = append(out, *plan)
	}
	return out, nil
}

// PropagateBlockEdit applies a block edit made on the source student to the targets at
// the same slot position. A failure part way keeps the earlier targets, as in CopySchedule.
func (s *PlannerService) PropagateBlockEdit(ctx context.Context, ownerID, planID, sourceID string, targetIDs []string, day models.Weekday, slot string, field planner.BlockField, value string) ([]models.StudentPlan, error) {
	source, err := s.GetPlan(ctx, PlanRef{OwnerID: ownerID, PlanID: planID, StudentID: sourceID})
	if err != nil {
		return nil, err
	}
	if _, err := planner.PropagateBlockEdit(*source, nil, day, slot, field, value); err != nil {
		return nil, plannerError(err)
	}
	out := make([]models.StudentPlan, 0, len(targetIDs))
	for _, targetID := range uniqueIDs(targetIDs) {
		plan, err := s.mutate(ctx, PlanRef{OwnerID: ownerID, PlanID: planID, StudentID: targetID}, "propagate_block", func(p models.StudentPlan) (models.StudentPlan, error) {
			updated, err := planner.PropagateBlockEdit(*source, []models.StudentPlan{p}, day, slot, field, value)
			if err != nil {
				return p, err
			}
			return updated[0], nil
		})
		if err != nil {
			return out, partialFanOut(err, out, targetID)
		}
		out = append(out, *plan)
	}
	return out, nil
}

// Save persists a student plan now, replacing any pending debounced save.
func (s *PlannerService) Save(ctx context.Context, ref PlanRef) (*models.StudentPlan, error) {
	plan, err := s.GetPlan(ctx, ref)
	if err != nil {
		return nil, err
	}
	key := ref.key()
	if s.debouncer != nil {
		s.debouncer.Cancel(key)
	}
	if err := s.persist(ctx, key, triggerExplicit); err != nil {
		if errors.Is(err, errStalePlan) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "student plan was saved elsewhere with a newer version")
		}
		s.scheduleSave(key)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student plan")
	}
	return plan, nil
}

// HandleSaveJob is the autosave queue handler.
func (s *PlannerService) HandleSaveJob(ctx context.Context, job jobs.Job) error {
	key, ok := job.Payload.(string)
	if !ok || job.Type != SaveJobType {
		return fmt.Errorf("unexpected job %s of type %s", job.ID, job.Type)
	}
	return s.persist(ctx, key, triggerAutosave)
}

// SweepIdle saves and evicts sessions idle for longer than the session TTL. It returns
// the number of evicted sessions; a session whose save fails stays for the next sweep.
func (s *PlannerService) SweepIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)
	evicted := 0
	for key, sess := range s.sessions.Snapshot() {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle && s.evict(ctx, key, sess, cutoff) {
			evicted++
		}
	}
	s.metrics.SetActiveSessions(s.sessions.Len())
	if evicted > 0 {
		s.logger.Info("planning sessions evicted", zap.Int("evicted", evicted), zap.Int("active", s.sessions.Len()))
	}
	return evicted
}

// FlushAll saves every session with unsaved edits. It is used on shutdown.
func (s *PlannerService) FlushAll(ctx context.Context) error {
	var errs []error
	for key := range s.sessions.Snapshot() {
		if s.debouncer != nil {
			s.debouncer.Cancel(key)
		}
		if err := s.persist(ctx, key, triggerShutdown); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (s *PlannerService) evict(ctx context.Context, key string, sess *planSession, cutoff time.Time) bool {
	if s.debouncer != nil {
		s.debouncer.Cancel(key)
	}
	err := s.persist(ctx, key, triggerSweep)
	stale := errors.Is(err, errStalePlan)
	if err != nil && !stale {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if (!stale && sess.plan.Version > sess.saved) || !sess.lastSeen.Before(cutoff) {
		return false
	}
	sess.evicted = true
	s.sessions.Delete(key)
	if err := s.drafts.Discard(ctx, sess.plan.PlanID, sess.plan.StudentID); err != nil {
		s.logger.Warn("draft cleanup failed", zap.String("session", key), zap.Error(err))
	}
	return true
}

// mutate applies op to the session of ref. Edits that leave the plan unchanged are not
// versioned or saved.
func (s *PlannerService) mutate(ctx context.Context, ref PlanRef, op string, fn func(models.StudentPlan) (models.StudentPlan, error)) (*models.StudentPlan, error) {
	sess, err := s.lockSession(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	next, err := fn(sess.plan)
	s.metrics.RecordPlannerOperation(op, err)
	if err != nil {
		return nil, plannerError(err)
	}
	sess.lastSeen = s.now()
	if reflect.DeepEqual(next, sess.plan) {
		plan := planner.ClonePlan(sess.plan)
		return &plan, nil
	}

	next.Version = sess.plan.Version + 1
	next.UpdatedAt = s.now().UTC()
	sess.plan = next

	if err := s.drafts.Store(ctx, next); err != nil {
		s.logger.Warn("draft write failed", zap.String("plan_id", ref.PlanID), zap.String("student_id", ref.StudentID), zap.String("request_id", requestid.FromContext(ctx)), zap.Error(err))
	}
	s.scheduleSave(ref.key())
	s.logger.Debug("student plan edited",
		zap.String("operation", op),
		zap.String("plan_id", ref.PlanID),
		zap.String("student_id", ref.StudentID),
		zap.Int("version", next.Version),
		zap.String("request_id", requestid.FromContext(ctx)),
	)

	plan := planner.ClonePlan(next)
	return &plan, nil
}

// lockSession returns the live session of ref with its lock held, loading it on first use.
func (s *PlannerService) lockSession(ctx context.Context, ref PlanRef) (*planSession, error) {
	if err := s.authorize(ctx, ref); err != nil {
		return nil, err
	}
	key := ref.key()
	for {
		sess, ok := s.sessions.Get(key)
		if !ok {
			plan, saved, err := s.load(ctx, ref)
			if err != nil {
				return nil, err
			}
			sess = s.sessions.PutIfAbsent(key, &planSession{plan: plan, saved: saved, lastSeen: s.now()})
			s.metrics.SetActiveSessions(s.sessions.Len())
		}
		sess.mu.Lock()
		if !sess.evicted {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

// load picks the newest of the cached draft and the stored row, falling back to a fresh
// plan seeded from the catalog.
func (s *PlannerService) load(ctx context.Context, ref PlanRef) (models.StudentPlan, int, error) {
	var stored *models.StudentPlan
	record, err := s.plans.Get(ctx, ref.PlanID, ref.StudentID)
	switch {
	case err == nil:
		plan, err := record.Decode()
		if err != nil {
			return models.StudentPlan{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode student plan")
		}
		stored = &plan
	case errors.Is(err, sql.ErrNoRows):
	default:
		return models.StudentPlan{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student plan")
	}

	saved := 0
	if stored != nil {
		saved = stored.Version
	}

	draft, err := s.drafts.Load(ctx, ref.PlanID, ref.StudentID)
	if err == nil && draft != nil && (stored == nil || draft.Version > stored.Version) {
		s.logger.Info("student plan restored from draft", zap.String("plan_id", ref.PlanID), zap.String("student_id", ref.StudentID), zap.Int("version", draft.Version))
		return *draft, saved, nil
	}
	if stored != nil {
		return *stored, saved, nil
	}
	return planner.NewStudentPlan(ref.PlanID, ref.StudentID, s.catalog), 0, nil
}

func (s *PlannerService) scheduleSave(key string) {
	if s.debouncer == nil {
		return
	}
	s.debouncer.Schedule(key, func() {
		if s.queue != nil {
			err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: SaveJobType, Payload: key})
			if err == nil {
				return
			}
			s.logger.Warn("autosave enqueue failed, saving inline", zap.String("session", key), zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		_ = s.persist(ctx, key, triggerAutosave)
	})
}

// persist writes the session's plan when it is ahead of the last saved version.
func (s *PlannerService) persist(ctx context.Context, key, trigger string) error {
	sess, ok := s.sessions.Get(key)
	if !ok {
		return nil
	}
	sess.mu.Lock()
	if sess.evicted || sess.plan.Version <= sess.saved {
		sess.mu.Unlock()
		return nil
	}
	snapshot := planner.ClonePlan(sess.plan)
	sess.mu.Unlock()

	start := time.Now()
	written := false
	record, err := models.EncodeStudentPlan(snapshot)
	if err == nil {
		written, err = s.plans.Upsert(ctx, record)
	}
	if err == nil && !written {
		err = errStalePlan
	}
	s.metrics.RecordPlanSave(trigger, time.Since(start), err)
	if errors.Is(err, errStalePlan) {
		s.logger.Warn("student plan save skipped, stored version is newer",
			zap.String("trigger", trigger),
			zap.String("plan_id", snapshot.PlanID),
			zap.String("student_id", snapshot.StudentID),
			zap.Int("version", snapshot.Version),
		)
		return err
	}
	if err != nil {
		s.logger.Error("student plan save failed",
			zap.String("trigger", trigger),
			zap.String("plan_id", snapshot.PlanID),
			zap.String("student_id", snapshot.StudentID),
			zap.Error(err),
		)
		return err
	}

	sess.mu.Lock()
	if snapshot.Version > sess.saved {
		sess.saved = snapshot.Version
	}
	sess.mu.Unlock()
	s.logger.Debug("student plan saved", zap.String("trigger", trigger), zap.String("session", key), zap.Int("version", snapshot.Version))
	return nil
}

func (s *PlannerService) authorize(ctx context.Context, ref PlanRef) error {
	if _, err := s.authorizeTerm(ctx, ref.OwnerID, ref.PlanID); err != nil {
		return err
	}
	student, err := s.students.FindByID(ctx, ref.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.OwnerID != ref.OwnerID {
		return appErrors.Clone(appErrors.ErrForbidden, "student belongs to another account")
	}
	return nil
}

func (s *PlannerService) authorizeTerm(ctx context.Context, ownerID, planID string) (*models.TermPlan, error) {
	term, err := s.terms.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term plan")
	}
	if term.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "term plan belongs to another account")
	}
	return term, nil
}

// plannerError maps planner rejections onto API errors.
func plannerError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	message := strings.TrimPrefix(err.Error(), "planner: ")
	if errors.Is(err, planner.ErrPlatformLinked) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// partialFanOut names the students already updated when a multi-student edit stops early.
func partialFanOut(err error, done []models.StudentPlan, failedID string) error {
	if len(done) == 0 {
		return err
	}
	updated := make([]string, len(done))
	for i, plan := range done {
		updated[i] = plan.StudentID
	}
	return appErrors.WithDetails(appErrors.FromError(err), map[string]string{
		"failed_student_id":   failedID,
		"updated_student_ids": strings.Join(updated, ","),
	})
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
