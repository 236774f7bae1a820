// Package approval implements the approver's queue of route change requests.
package approval

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
	"bayi-rut/internal/rut/delivery"
	"bayi-rut/internal/rut/rutapi"
)

var (
	ErrNotConfirmed         = errors.New("status change not confirmed")
	ErrStatusChangeInFlight = errors.New("a status change for this request is already in progress")
	ErrInvalidTargetStatus  = errors.New("target status must be approved or rejected")
	ErrNoDeliverer          = errors.New("no file delivery configured")
)

// Backend is the subset of the RUT API the viewer needs.
type Backend interface {
	ListRequests(ctx context.Context, sess *models.Session) ([]models.RouteChangeRequest, error)
	SetStatus(ctx context.Context, sess *models.Session, id models.RequestID, status models.RequestStatus) error
	ExportRequest(ctx context.Context, sess *models.Session, id models.RequestID) (*rutapi.Export, error)
}

// Confirmer asks the user to confirm a status change before it is sent.
type Confirmer interface {
	Confirm(ctx context.Context, req models.RouteChangeRequest, status models.RequestStatus) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, req models.RouteChangeRequest, status models.RequestStatus) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, req models.RouteChangeRequest, status models.RequestStatus) (bool, error) {
	return f(ctx, req, status)
}

// AlwaysConfirm skips the prompt, for non-interactive use.
var AlwaysConfirm = ConfirmFunc(func(context.Context, models.RouteChangeRequest, models.RequestStatus) (bool, error) {
	return true, nil
})

// ExportResult describes a delivered export.
type ExportResult struct {
	Outcome  *delivery.Outcome
	Workbook *delivery.WorkbookInfo
}

type Viewer struct {
	backend   Backend
	session   *models.Session
	confirmer Confirmer
	deliverer delivery.Deliverer
	obs       *observability.Observability
	logger    logger.Logger

	mu       sync.Mutex
	requests []models.RouteChangeRequest
	loaded   bool
	inFlight map[models.RequestID]bool
	lastErr  error
}

func New(backend Backend, sess *models.Session, confirmer Confirmer, deliverer delivery.Deliverer, obs *observability.Observability, log logger.Logger) *Viewer {
	return &Viewer{
		backend:   backend,
		session:   sess,
		confirmer: confirmer,
		deliverer: deliverer,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "approval", "user": sess.User.ID}),
		inFlight:  make(map[models.RequestID]bool),
	}
}

// ListRequests replaces the local cache with the backend's list, keeping
// backend order.
func (v *Viewer) ListRequests(ctx context.Context) ([]models.RouteChangeRequest, error) {
	start := time.Now()
	requests, err := v.backend.ListRequests(ctx, v.session)
	v.obs.RecordOperation(ctx, "ListRequests", start, err)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.lastErr = err
		v.logger.WithError(err).Warn("failed to list requests", nil)
		return nil, err
	}
	v.requests = cloneRequests(requests)
	v.loaded = true
	v.lastErr = nil
	return cloneRequests(requests), nil
}

// SetStatus approves or rejects one pending request after confirmation.
// Only a cached approved or rejected status is refused locally; anything
// else goes to the backend. Only that request's cached status changes on
// success; any backend failure triggers a re-fetch so the cache reflects
// the server again.
func (v *Viewer) SetStatus(ctx context.Context, id models.RequestID, status models.RequestStatus) error {
	if status != models.StatusApproved && status != models.StatusRejected {
		return apperrors.NewPreconditionError("Yalnızca onay veya ret seçilebilir", ErrInvalidTargetStatus)
	}

	v.mu.Lock()
	if v.inFlight[id] {
		v.mu.Unlock()
		return apperrors.NewPreconditionError("Bu talep için işlem sürüyor", ErrStatusChangeInFlight)
	}
	req, found := v.find(id)
	if found && req.Status.IsTerminal() {
		v.mu.Unlock()
		metrics.StatusChanges.WithLabelValues(string(status), "invalid").Inc()
		return apperrors.NewInvalidTransitionError(id.String(), "")
	}
	if !found {
		req = models.RouteChangeRequest{ID: id, Status: models.StatusPending}
	}
	v.inFlight[id] = true
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		delete(v.inFlight, id)
		v.mu.Unlock()
	}()

	if v.confirmer != nil {
		ok, err := v.confirmer.Confirm(ctx, req, status)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if !ok {
			return apperrors.NewPreconditionError("İşlem onaylanmadı", ErrNotConfirmed)
		}
	}

	start := time.Now()
	err := v.backend.SetStatus(ctx, v.session, id, status)
	v.obs.RecordOperation(ctx, "SetStatus", start, err)
	metrics.StatusChanges.WithLabelValues(string(status), metrics.Outcome(err)).Inc()

	if err != nil {
		v.logger.WithError(err).Warn("status change failed", map[string]interface{}{"requestId": id.String(), "status": string(status)})

		if _, refetchErr := v.ListRequests(ctx); refetchErr != nil {
			v.logger.WithError(refetchErr).Warn("re-fetch after failed status change failed", nil)
		}
		v.mu.Lock()
		v.lastErr = err
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	for i := range v.requests {
		if v.requests[i].ID == id {
			v.requests[i].Status = status
		}
	}
	v.lastErr = nil
	v.mu.Unlock()

	v.logger.Info("request status changed", map[string]interface{}{"requestId": id.String(), "status": string(status)})
	return nil
}

// ExportRequest downloads a request's workbook, checks it opens and hands it
// to the configured deliverer.
func (v *Viewer) ExportRequest(ctx context.Context, id models.RequestID) (*ExportResult, error) {
	start := time.Now()
	result, err := v.export(ctx, id)
	v.obs.RecordOperation(ctx, "ExportRequest", start, err)

	method := "unknown"
	if m, ok := v.deliverer.(interface{ Method() delivery.Method }); ok {
		method = string(m.Method())
	}
	metrics.Exports.WithLabelValues(method, metrics.Outcome(err)).Inc()

	if err != nil {
		v.mu.Lock()
		v.lastErr = err
		v.mu.Unlock()
		v.logger.WithError(err).Warn("export failed", map[string]interface{}{"requestId": id.String()})
		return nil, err
	}
	return result, nil
}

func (v *Viewer) export(ctx context.Context, id models.RequestID) (*ExportResult, error) {
	if v.deliverer == nil {
		return nil, apperrors.NewExportDeliveryError("deliver", ErrNoDeliverer)
	}

	exp, err := v.backend.ExportRequest(ctx, v.session, id)
	if err != nil {
		return nil, err
	}

	info, err := delivery.Inspect(exp.Data)
	if err != nil {
		return nil, err
	}

	outcome, err := v.deliverer.Deliver(ctx, exp.Data, delivery.Filename(exp.Filename, id.String()))
	if err != nil {
		return nil, err
	}

	v.logger.Info("request exported", map[string]interface{}{
		"requestId": id.String(),
		"method":    string(outcome.Method),
		"path":      outcome.Path,
		"rows":      info.Rows,
	})
	return &ExportResult{Outcome: outcome, Workbook: info}, nil
}

// Requests returns the cached list.
func (v *Viewer) Requests() []models.RouteChangeRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return cloneRequests(v.requests)
}

// Pending returns the cached requests that can still be decided.
func (v *Viewer) Pending() []models.RouteChangeRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.RouteChangeRequest
	for _, r := range v.requests {
		if r.IsPending() {
			out = append(out, cloneRequest(r))
		}
	}
	return out
}

// Get returns one cached request.
func (v *Viewer) Get(id models.RequestID) (models.RouteChangeRequest, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	req, ok := v.find(id)
	if !ok {
		return models.RouteChangeRequest{}, false
	}
	return cloneRequest(req), true
}

func (v *Viewer) LastError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// find must be called with mu held.
func (v *Viewer) find(id models.RequestID) (models.RouteChangeRequest, bool) {
	for _, r := range v.requests {
		if r.ID == id {
			return r, true
		}
	}
	return models.RouteChangeRequest{}, false
}

func cloneRequest(r models.RouteChangeRequest) models.RouteChangeRequest {
	r.Stops = models.CloneStops(r.Stops)
	return r
}

func cloneRequests(in []models.RouteChangeRequest) []models.RouteChangeRequest {
	out := make([]models.RouteChangeRequest, len(in))
	for i, r := range in {
		out[i] = cloneRequest(r)
	}
	return out
}
