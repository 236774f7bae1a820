// Package reorder holds the pure list operations behind the route editor.
package reorder

import (
	"errors"
	"fmt"
	"strings"

	"bayi-rut/internal/models"
)

var (
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrUnknownDirection = errors.New("unknown direction")
)

type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Top    Direction = "top"
	Bottom Direction = "bottom"
)

var directionAliases = map[string]Direction{
	"up":     Up,
	"yukari": Up,
	"yukarı": Up,
	"down":   Down,
	"asagi":  Down,
	"aşağı":  Down,
	"top":    Top,
	"basa":   Top,
	"başa":   Top,
	"bottom": Bottom,
	"sona":   Bottom,
}

// ParseDirection accepts English and Turkish direction names.
func ParseDirection(s string) (Direction, error) {
	if d, ok := directionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Target returns the index an element at index would move to in a list of
// length n. Equal index and target means the move is a no-op.
func Target(n, index int, dir Direction) (int, error) {
	if index < 0 || index >= n {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, n)
	}
	switch dir {
	case Up:
		if index == 0 {
			return index, nil
		}
		return index - 1, nil
	case Down:
		if index == n-1 {
			return index, nil
		}
		return index + 1, nil
	case Top:
		return 0, nil
	case Bottom:
		return n - 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}
}

// Move applies dir to the element at index and renumbers the list. The list
// is left untouched on error.
func Move(list []models.VisitStop, index int, dir Direction) error {
	to, err := Target(len(list), index, dir)
	if err != nil {
		return err
	}
	return MoveTo(list, index, to)
}

// MoveTo removes the element at from, reinserts it at to and renumbers.
func MoveTo(list []models.VisitStop, from, to int) error {
	n := len(list)
	if from < 0 || from >= n {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, from, n)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, to, n)
	}

	moved := list[from]
	if from < to {
		copy(list[from:to], list[from+1:to+1])
	} else if from > to {
		copy(list[to+1:from+1], list[to:from])
	}
	list[to] = moved

	Renumber(list)
	return nil
}

// Renumber sets every Sequence to its 1-based position.
func Renumber(list []models.VisitStop) {
	for i := range list {
		list[i].Sequence = i + 1
	}
}

// IsContiguous reports whether sequences are exactly 1..N in order.
func IsContiguous(list []models.VisitStop) bool {
	for i := range list {
		if list[i].Sequence != i+1 {
			return false
		}
	}
	return true
}
