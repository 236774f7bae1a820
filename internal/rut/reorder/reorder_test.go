package reorder

import (
	"testing"

	"bayi-rut/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stops(codes ...string) []models.VisitStop {
	list := make([]models.VisitStop, len(codes))
	for i, c := range codes {
		// sequences are deliberately off so every test also checks renumbering
		list[i] = models.VisitStop{Sequence: (i + 1) * 10, CustomerCode: c}
	}
	return list
}

func codes(list []models.VisitStop) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.CustomerCode
	}
	return out
}

func TestMove(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		index int
		dir   Direction
		want  []string
	}{
		{"bottom to top", []string{"A", "B", "C", "D", "E"}, 4, Top, []string{"E", "A", "B", "C", "D"}},
		{"top to bottom", []string{"A", "B", "C"}, 0, Bottom, []string{"B", "C", "A"}},
		{"up", []string{"A", "B", "C"}, 2, Up, []string{"A", "C", "B"}},
		{"down", []string{"A", "B", "C"}, 0, Down, []string{"B", "A", "C"}},
		{"up at first is no-op", []string{"A", "B", "C"}, 0, Up, []string{"A", "B", "C"}},
		{"down at last is no-op", []string{"A", "B", "C"}, 2, Down, []string{"A", "B", "C"}},
		{"top at first is no-op", []string{"A", "B"}, 0, Top, []string{"A", "B"}},
		{"bottom at last is no-op", []string{"A", "B"}, 1, Bottom, []string{"A", "B"}},
		{"single element", []string{"A"}, 0, Down, []string{"A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := stops(tt.in...)
			require.NoError(t, Move(list, tt.index, tt.dir))
			assert.Equal(t, tt.want, codes(list))
			assert.True(t, IsContiguous(list), "sequences must be 1..N")
		})
	}
}

func TestMove_Sequential(t *testing.T) {
	list := stops("A", "B", "C")
	require.NoError(t, Move(list, 0, Down))
	require.NoError(t, Move(list, 1, Down))
	assert.Equal(t, []string{"B", "C", "A"}, codes(list))
	assert.Equal(t, []int{1, 2, 3}, []int{list[0].Sequence, list[1].Sequence, list[2].Sequence})
}

func TestMove_TopTwiceIsIdempotent(t *testing.T) {
	list := stops("A", "B", "C", "D")
	require.NoError(t, Move(list, 2, Top))
	first := codes(list)
	require.NoError(t, Move(list, 0, Top))
	assert.Equal(t, first, codes(list))
}

func TestMove_Errors(t *testing.T) {
	list := stops("A", "B")

	err := Move(list, 2, Up)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	err = Move(list, -1, Up)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	err = Move(list, 0, Direction("sideways"))
	assert.ErrorIs(t, err, ErrUnknownDirection)

	assert.Equal(t, 10, list[0].Sequence, "list untouched on error")
	assert.ErrorIs(t, Move(nil, 0, Up), ErrIndexOutOfRange)
}

func TestMoveTo(t *testing.T) {
	list := stops("A", "B", "C", "D")
	require.NoError(t, MoveTo(list, 1, 3))
	assert.Equal(t, []string{"A", "C", "D", "B"}, codes(list))
	require.NoError(t, MoveTo(list, 3, 0))
	assert.Equal(t, []string{"B", "A", "C", "D"}, codes(list))
	assert.True(t, IsContiguous(list))

	assert.ErrorIs(t, MoveTo(list, 0, 4), ErrIndexOutOfRange)
}

func TestRenumber_PreservesOtherFields(t *testing.T) {
	list := []models.VisitStop{
		{Sequence: 7, CustomerCode: "A", CustomerName: "Alfa", CustomerStatus: models.CustomerPassive, Group: "G"},
	}
	Renumber(list)
	assert.Equal(t, models.VisitStop{Sequence: 1, CustomerCode: "A", CustomerName: "Alfa", CustomerStatus: models.CustomerPassive, Group: "G"}, list[0])
}

func TestParseDirection(t *testing.T) {
	tests := map[string]Direction{
		"up":     Up,
		"UP":     Up,
		"yukari": Up,
		"aşağı":  Down,
		"basa":   Top,
		"sona":   Bottom,
		"bottom": Bottom,
	}
	for in, want := range tests {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("left")
	assert.ErrorIs(t, err, ErrUnknownDirection)
}
