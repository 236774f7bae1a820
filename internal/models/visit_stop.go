package models

import "strings"

// CustomerStatus is the raw account status text sent by the backend.
type CustomerStatus string

const (
	CustomerActive  CustomerStatus = "Aktif"
	CustomerPassive CustomerStatus = "Pasif"
)

// CustomerStatusKind is the enumerated reading of a CustomerStatus.
type CustomerStatusKind int

const (
	CustomerStatusOther CustomerStatusKind = iota
	CustomerStatusActive
	CustomerStatusPassive
)

// Kind classifies the raw text; unrecognised values are Other.
func (s CustomerStatus) Kind() CustomerStatusKind {
	v := strings.TrimSpace(string(s))
	switch {
	case strings.EqualFold(v, "aktif"), strings.EqualFold(v, "active"):
		return CustomerStatusActive
	case strings.EqualFold(v, "pasif"), strings.EqualFold(v, "passive"):
		return CustomerStatusPassive
	default:
		return CustomerStatusOther
	}
}

func (s CustomerStatus) IsActive() bool {
	return s.Kind() == CustomerStatusActive
}

// VisitStop is one customer visit inside a day's route. Only Sequence is
// ever rewritten on the client.
type VisitStop struct {
	Sequence       int            `json:"sira"`
	CustomerCode   string         `json:"musteriKodu"`
	CustomerName   string         `json:"musteriAdi"`
	CustomerStatus CustomerStatus `json:"musteriDurum"`
	Group          string         `json:"grup"`
	Address        string         `json:"adres,omitempty"`
}

// CloneStops returns an independent copy of stops. A nil input yields an
// empty, non-nil slice.
func CloneStops(stops []VisitStop) []VisitStop {
	out := make([]VisitStop, len(stops))
	copy(out, stops)
	return out
}
