// Package rutapi is the typed client for the RUT endpoints of the sales
// reporting backend.
package rutapi

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	apperrors "bayi-rut/internal/common/errors"
	httpclient "bayi-rut/internal/common/http"
	"bayi-rut/internal/common/logger"
	"bayi-rut/internal/common/validation"
	"bayi-rut/internal/models"
)

const (
	OpListDays      = "ListDays"
	OpListStops     = "ListStops"
	OpSubmitRequest = "SubmitRequest"
	OpListRequests  = "ListRequests"
	OpSetStatus     = "SetStatus"
	OpExportRequest = "ExportRequest"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	submitSchema      = validation.MustCompile("submit-request", validation.SubmitPayloadSchema)
	requestListSchema = validation.MustCompile("request-list", validation.RequestListSchema)
)

// SubmitReceipt is what the backend tells us about a new request.
type SubmitReceipt struct {
	ID      models.RequestID `json:"id"`
	Message string           `json:"-"`
}

// Export is a downloaded request workbook.
type Export struct {
	Data        []byte
	Filename    string // from Content-Disposition, may be empty
	ContentType string
}

type Client struct {
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(transport *httpclient.Client, log logger.Logger) *Client {
	return &Client{http: transport, logger: log}
}

// ListDays returns the day labels that have a route for the representative.
func (c *Client) ListDays(ctx context.Context, sess *models.Session) ([]string, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, sess, httpclient.Request{
		Operation: OpListDays,
		Method:    http.MethodGet,
		Path:      "/rut/gunler",
		Query:     url.Values{"dst": {sess.User.ID}},
	})
	if err != nil {
		return nil, err
	}
	days := []string{}
	if err := resp.into(&days); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return days, nil
}

// ListStops returns the stops of one day, ordered by sequence.
func (c *Client) ListStops(ctx context.Context, sess *models.Session, day string) ([]models.VisitStop, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, sess, httpclient.Request{
		Operation: OpListStops,
		Method:    http.MethodGet,
		Path:      "/rut",
		Query:     url.Values{"dst": {sess.User.ID}, "gun": {day}},
	})
	if err != nil {
		return nil, err
	}
	stops := []models.VisitStop{}
	if err := resp.into(&stops); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return stops, nil
}

// SubmitRequest creates a new change request. It never updates an existing one.
func (c *Client) SubmitRequest(ctx context.Context, sess *models.Session, payload models.SubmitPayload) (*SubmitReceipt, error) {
	res, err := submitSchema.ValidateValue(payload)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !res.Valid {
		return nil, apperrors.NewValidationError("Gönderilecek rota geçersiz", res.Summary())
	}

	resp, err := c.call(ctx, sess, httpclient.Request{
		Operation: OpSubmitRequest,
		Method:    http.MethodPost,
		Path:      "/rut/talep",
		Body:      payload,
	})
	if err != nil {
		return nil, err
	}

	receipt := &SubmitReceipt{Message: resp.message}
	// the id is informational; a payload we cannot read is not a failure
	if err := resp.into(receipt); err != nil {
		c.logger.Warn("submit response carried no readable id", map[string]interface{}{"error": err.Error()})
	}
	return receipt, nil
}

// ListRequests returns every change request visible to the user, in backend order.
func (c *Client) ListRequests(ctx context.Context, sess *models.Session) ([]models.RouteChangeRequest, error) {
	resp, err := c.call(ctx, sess, httpclient.Request{
		Operation: OpListRequests,
		Method:    http.MethodGet,
		Path:      "/rut/talepler",
	})
	if err != nil {
		return nil, err
	}

	if len(resp.data) > 0 && string(resp.data) != "null" {
		res, err := requestListSchema.ValidateJSON(resp.data)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if !res.Valid {
			return nil, apperrors.NewBackendRejection(OpListRequests, "Talep listesi okunamadı").
				WithMetadata("validation", res.GetErrorMessages())
		}
	}

	requests := []models.RouteChangeRequest{}
	if err := resp.into(&requests); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return requests, nil
}

// SetStatus moves a pending request to approved or rejected. A conflict or
// an acknowledged call that changed nothing is an invalid transition.
func (c *Client) SetStatus(ctx context.Context, sess *models.Session, id models.RequestID, status models.RequestStatus) error {
	raw, err := c.send(ctx, sess, httpclient.Request{
		Operation: OpSetStatus,
		Method:    http.MethodPut,
		Path:      "/rut/talep/" + url.PathEscape(id.String()),
		Query:     url.Values{"durum": {string(status)}},
	})
	if err != nil {
		return err
	}

	body, decodeErr := decodeBody(raw.Body)
	message := ""
	if decodeErr == nil {
		message = body.message
	}
	if raw.StatusCode == http.StatusConflict {
		return apperrors.NewInvalidTransitionError(id.String(), message)
	}
	if err := c.interpret(OpSetStatus, raw, body, decodeErr); err != nil {
		return err
	}
	if body.affected != nil && *body.affected == 0 {
		return apperrors.NewInvalidTransitionError(id.String(), message)
	}
	return nil
}

// ExportRequest downloads the request as an xlsx workbook.
func (c *Client) ExportRequest(ctx context.Context, sess *models.Session, id models.RequestID) (*Export, error) {
	raw, err := c.send(ctx, sess, httpclient.Request{
		Operation: OpExportRequest,
		Method:    http.MethodGet,
		Path:      "/rut/talep/" + url.PathEscape(id.String()) + "/excel",
		Accept:    xlsxContentType + ", application/json",
	})
	if err != nil {
		return nil, err
	}

	contentType := raw.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if raw.StatusCode/100 != 2 || mediaType == "application/json" {
		body, decodeErr := decodeBody(raw.Body)
		if err := c.interpret(OpExportRequest, raw, body, decodeErr); err != nil {
			return nil, err
		}
		return nil, apperrors.NewBackendRejection(OpExportRequest, body.message)
	}

	return &Export{
		Data:        raw.Body,
		Filename:    filenameFrom(raw.Header.Get("Content-Disposition")),
		ContentType: contentType,
	}, nil
}

func (c *Client) send(ctx context.Context, sess *models.Session, req httpclient.Request) (*httpclient.Response, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	req.Token = sess.Token
	return c.http.Do(ctx, req)
}

// call sends req and returns the decoded body of a successful response.
func (c *Client) call(ctx context.Context, sess *models.Session, req httpclient.Request) (*decoded, error) {
	raw, err := c.send(ctx, sess, req)
	if err != nil {
		return nil, err
	}
	body, decodeErr := decodeBody(raw.Body)
	if err := c.interpret(req.Operation, raw, body, decodeErr); err != nil {
		return nil, err
	}
	return body, nil
}

// interpret maps status codes and envelope flags onto the error taxonomy.
func (c *Client) interpret(operation string, raw *httpclient.Response, body *decoded, decodeErr error) error {
	message := ""
	if decodeErr == nil {
		message = body.message
	}

	switch {
	case raw.StatusCode == http.StatusUnauthorized || raw.StatusCode == http.StatusForbidden:
		return apperrors.NewSessionError(fmt.Sprintf("%s: status %d", operation, raw.StatusCode), nil)
	case raw.StatusCode/100 != 2:
		return apperrors.NewBackendRejection(operation, message).
			WithMetadata("status", raw.StatusCode).
			WithMetadata("requestId", raw.RequestID)
	case decodeErr != nil:
		return apperrors.NewBackendRejection(operation, "").
			WithMetadata("decodeError", decodeErr.Error()).
			WithMetadata("requestId", raw.RequestID)
	case !body.success:
		return apperrors.NewBackendRejection(operation, message).
			WithMetadata("requestId", raw.RequestID)
	}
	return nil
}

func requireSession(sess *models.Session) error {
	if !sess.Valid() {
		return apperrors.NewSessionError("no active session", nil)
	}
	return nil
}

func filenameFrom(contentDisposition string) string {
	if contentDisposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["filename"])
}
