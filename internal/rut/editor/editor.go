// Package editor implements the representative's route sequence editor:
// load a day's visits, reorder a working copy and submit it as a change
// request.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "bayi-rut/internal/common/errors"
	"bayi-rut/internal/common/logger"
	"bayi-rut/internal/common/metrics"
	"bayi-rut/internal/common/observability"
	"bayi-rut/internal/models"
	"bayi-rut/internal/rut/reorder"
	"bayi-rut/internal/rut/rutapi"
)

var (
	ErrNothingLoaded   = errors.New("no stops loaded")
	ErrNotEditing      = errors.New("not in edit mode")
	ErrSubmitInFlight  = errors.New("a submission is already in progress")
	ErrEmptyWorkingSet = errors.New("working copy is empty")

	// ErrStaleResponse means a newer LoadStops superseded this one; the
	// result was dropped and state is unchanged.
	ErrStaleResponse = errors.New("response superseded by a newer selection")
)

// Backend is the subset of the RUT API the editor needs.
type Backend interface {
	ListDays(ctx context.Context, sess *models.Session) ([]string, error)
	ListStops(ctx context.Context, sess *models.Session, day string) ([]models.VisitStop, error)
	SubmitRequest(ctx context.Context, sess *models.Session, payload models.SubmitPayload) (*rutapi.SubmitReceipt, error)
}

// State is a point-in-time copy of the editor for rendering.
type State struct {
	Representative string
	Days           []string
	SelectedDay    string
	LoadedDay      string
	Loaded         bool
	Stops          []models.VisitStop
	Working        []models.VisitStop
	Editing        bool
	LoadingDays    bool
	LoadingStops   bool
	Submitting     bool
	LastError      error
}

// SubmitResult reports a successful submission. RefreshErr is set when the
// follow-up reload failed; the request itself was created.
type SubmitResult struct {
	Receipt    *rutapi.SubmitReceipt
	Day        string
	Stops      []models.VisitStop
	RefreshErr error
}

type Editor struct {
	backend Backend
	session *models.Session
	obs     *observability.Observability
	logger  logger.Logger

	mu           sync.Mutex
	days         []string
	selectedDay  string
	loadedDay    string
	generation   uint64
	loaded       bool
	stops        []models.VisitStop
	working      []models.VisitStop
	editing      bool
	loadingDays  bool
	loadingStops bool
	submitting   bool
	lastErr      error
}

func New(backend Backend, sess *models.Session, obs *observability.Observability, log logger.Logger) *Editor {
	return &Editor{
		backend: backend,
		session: sess,
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"component": "editor", "dst": sess.User.ID}),
	}
}

// LoadDays fetches the days that have a route, Monday first.
func (e *Editor) LoadDays(ctx context.Context) ([]string, error) {
	start := time.Now()
	e.mu.Lock()
	e.loadingDays = true
	e.mu.Unlock()

	days, err := e.backend.ListDays(ctx, e.session)
	e.obs.RecordOperation(ctx, "LoadDays", start, err)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadingDays = false
	if err != nil {
		e.lastErr = err
		e.logger.WithError(err).Warn("failed to load days", nil)
		return nil, err
	}
	e.days = SortDays(days)
	e.lastErr = nil
	return append([]string(nil), e.days...), nil
}

// LoadStops selects day and fetches its stops. Edit mode and any working
// copy are reset when the load completes.
func (e *Editor) LoadStops(ctx context.Context, day string) ([]models.VisitStop, error) {
	start := time.Now()
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.selectedDay = day
	e.loadingStops = true
	e.mu.Unlock()

	stops, err := e.backend.ListStops(ctx, e.session, day)
	e.obs.RecordOperation(ctx, "LoadStops", start, err)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		metrics.StaleResponses.Inc()
		e.logger.Debug("discarding stale stops response", map[string]interface{}{"day": day})
		return nil, ErrStaleResponse
	}
	e.loadingStops = false
	if err != nil {
		e.lastErr = err
		e.logger.WithError(err).Warn("failed to load stops", map[string]interface{}{"day": day})
		return nil, err
	}

	e.stops = models.CloneStops(stops)
	e.loadedDay = day
	e.loaded = true
	e.working = nil
	e.editing = false
	e.lastErr = nil
	e.logger.Info("stops loaded", map[string]interface{}{"day": day, "count": len(stops)})
	return models.CloneStops(stops), nil
}

// EnterEditMode snapshots the loaded list into a fresh working copy.
func (e *Editor) EnterEditMode() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return apperrors.NewPreconditionError("Önce bir gün seçin", ErrNothingLoaded)
	}
	if e.submitting {
		return apperrors.NewPreconditionError("Gönderim sürüyor", ErrSubmitInFlight)
	}
	e.working = models.CloneStops(e.stops)
	e.editing = true
	return nil
}

// ExitEditMode leaves edit mode. With discard the working copy goes back to
// the loaded list; otherwise it is kept for submission.
func (e *Editor) ExitEditMode(discard bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if discard {
		e.working = models.CloneStops(e.stops)
	}
	e.editing = false
}

// MoveStop reorders the working copy. The loaded list is never touched.
func (e *Editor) MoveStop(index int, dir reorder.Direction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		return apperrors.NewPreconditionError("Düzenleme modu kapalı", ErrNotEditing)
	}
	if e.submitting {
		return apperrors.NewPreconditionError("Gönderim sürüyor", ErrSubmitInFlight)
	}
	if err := reorder.Move(e.working, index, dir); err != nil {
		return apperrors.NewPreconditionError("Geçersiz taşıma", err)
	}
	metrics.EditMoves.WithLabelValues(string(dir)).Inc()
	return nil
}

// Submit sends the working copy as a new change request.
func (e *Editor) Submit(ctx context.Context) (*SubmitResult, error) {
	start := time.Now()
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return nil, apperrors.NewPreconditionError("Gönderim sürüyor", ErrSubmitInFlight)
	}
	if len(e.working) == 0 {
		err := apperrors.NewPreconditionError("Gönderilecek durak yok", ErrEmptyWorkingSet)
		e.lastErr = err
		e.mu.Unlock()
		return nil, err
	}
	stops := models.CloneStops(e.working)
	reorder.Renumber(stops)
	day := e.loadedDay
	payload := models.SubmitPayload{
		RepresentativeID: e.session.User.ID,
		Day:              day,
		Stops:            stops,
	}
	e.submitting = true
	e.mu.Unlock()

	receipt, err := e.backend.SubmitRequest(ctx, e.session, payload)
	e.obs.RecordOperation(ctx, "Submit", start, err)
	metrics.RequestsSubmitted.WithLabelValues(metrics.Outcome(err)).Inc()

	e.mu.Lock()
	e.submitting = false
	if err != nil {
		e.lastErr = err
		e.mu.Unlock()
		e.logger.WithError(err).Warn("submit failed", map[string]interface{}{"day": day})
		return nil, err
	}
	if receipt == nil {
		receipt = &rutapi.SubmitReceipt{}
	}
	e.editing = false
	e.working = nil
	e.lastErr = nil
	reload := e.selectedDay == day
	e.mu.Unlock()

	e.logger.Info("change request submitted", map[string]interface{}{"day": day, "requestId": receipt.ID.String(), "stops": len(stops)})

	result := &SubmitResult{Receipt: receipt, Day: day}
	if !reload {
		return result, nil
	}
	result.Stops, result.RefreshErr = e.LoadStops(ctx, day)
	return result, nil
}

// State returns a snapshot safe to read without holding the editor.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := State{
		Representative: e.session.User.ID,
		Days:           append([]string(nil), e.days...),
		SelectedDay:    e.selectedDay,
		LoadedDay:      e.loadedDay,
		Loaded:         e.loaded,
		Editing:        e.editing,
		LoadingDays:    e.loadingDays,
		LoadingStops:   e.loadingStops,
		Submitting:     e.submitting,
		LastError:      e.lastErr,
	}
	if e.loaded {
		s.Stops = models.CloneStops(e.stops)
	}
	if e.working != nil {
		s.Working = models.CloneStops(e.working)
	}
	return s
}
