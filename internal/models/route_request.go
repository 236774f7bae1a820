package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a route change request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "beklemede"
	StatusApproved RequestStatus = "onaylandi"
	StatusRejected RequestStatus = "reddedildi"
)

var statusAliases = map[string]RequestStatus{
	"beklemede":  StatusPending,
	"pending":    StatusPending,
	"onaylandi":  StatusApproved,
	"onaylandı":  StatusApproved,
	"approved":   StatusApproved,
	"reddedildi": StatusRejected,
	"rejected":   StatusRejected,
}

// ParseRequestStatus maps wire and English spellings onto the canonical value.
func ParseRequestStatus(s string) (RequestStatus, error) {
	if st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Label is the display text for the status.
func (s RequestStatus) Label() string {
	switch s {
	case StatusPending:
		return "Beklemede"
	case StatusApproved:
		return "Onaylandı"
	case StatusRejected:
		return "Reddedildi"
	default:
		return string(s)
	}
}

// UnmarshalJSON normalises known spellings and keeps unknown text as-is so a
// newer backend status does not break decoding of the whole list.
func (s *RequestStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("request status must be a string: %w", err)
	}
	if st, err := ParseRequestStatus(raw); err == nil {
		*s = st
		return nil
	}
	*s = RequestStatus(raw)
	return nil
}

// RequestID accepts both string and numeric ids on the wire.
type RequestID string

func (id *RequestID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RequestID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("request id must be a string or number: %w", err)
	}
	*id = RequestID(n.String())
	return nil
}

func (id RequestID) String() string {
	return string(id)
}

// Int returns the numeric form when the id is numeric.
func (id RequestID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// RouteChangeRequest is a submitted proposal to replace a day's visit order.
type RouteChangeRequest struct {
	ID               RequestID     `json:"id"`
	RepresentativeID string        `json:"dstId"`
	Day              string        `json:"gun"`
	CreatedAt        string        `json:"olusturmaTarihi"`
	Status           RequestStatus `json:"durum"`
	Stops            []VisitStop   `json:"duraklar"`
}

// CreatedTime parses CreatedAt; the raw text stays available for display
// when none of the known layouts matches.
func (r *RouteChangeRequest) CreatedTime() (time.Time, bool) {
	raw := strings.TrimSpace(r.CreatedAt)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (r *RouteChangeRequest) IsPending() bool {
	return r.Status == StatusPending
}

// SubmitPayload is the body of a new change request.
type SubmitPayload struct {
	RepresentativeID string      `json:"dstId"`
	Day              string      `json:"gun"`
	Stops            []VisitStop `json:"duraklar"`
}
