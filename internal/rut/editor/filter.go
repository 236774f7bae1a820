package editor

import (
	"sort"
	"strings"

	"bayi-rut/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Match is a filtered stop together with its index in the full list, so a
// move issued from a filtered view still addresses the right element.
type Match struct {
	Index int
	Stop  models.VisitStop
}

// Filter searches the working copy, or the loaded list when there is none,
// by customer code or name. Matching folds case the Turkish way (İ/i, I/ı).
func (e *Editor) Filter(query string) []Match {
	e.mu.Lock()
	source := e.working
	if source == nil {
		source = e.stops
	}
	source = models.CloneStops(source)
	e.mu.Unlock()

	fold := cases.Lower(language.Turkish)
	q := fold.String(strings.TrimSpace(query))

	matches := make([]Match, 0, len(source))
	for i, stop := range source {
		if q == "" ||
			strings.Contains(fold.String(stop.CustomerCode), q) ||
			strings.Contains(fold.String(stop.CustomerName), q) {
			matches = append(matches, Match{Index: i, Stop: stop})
		}
	}
	return matches
}

var weekdayOrder = map[string]int{
	"pazartesi": 0,
	"salı":      1,
	"sali":      1,
	"çarşamba":  2,
	"carsamba":  2,
	"perşembe":  3,
	"persembe":  3,
	"cuma":      4,
	"cumartesi": 5,
	"pazar":     6,
}

// SortDays orders Turkish weekday labels Monday first. Labels that are not
// weekdays keep their backend order after the known ones.
func SortDays(days []string) []string {
	fold := cases.Lower(language.Turkish)
	out := append([]string(nil), days...)
	rank := func(d string) int {
		if r, ok := weekdayOrder[fold.String(strings.TrimSpace(d))]; ok {
			return r
		}
		return len(weekdayOrder)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})
	return out
}
