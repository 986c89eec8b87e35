package pecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veltrix-labs/pecs"
)

// S4 query-filter.
func TestQueryFilterWith(t *testing.T) {
	w := pecs.NewWorld(pecs.WorldConfig{})
	for i := 0; i < 10; i++ {
		h := pecs.SpawnBundle1(w, Position{int64(i), int64(i)})
		if i < 5 {
			assert.NoError(t, pecs.Insert(w, h, Velocity{1, 1}))
		}
	}

	q, err := pecs.NewQuery1[Position](w, pecs.With[Velocity]{})
	assert.NoError(t, err)
	count := 0
	for q.Next() {
		count++
	}
	assert.Equal(t, 5, count)
}

func TestQueryFilterWithout(t *testing.T) {
	w := pecs.NewWorld(pecs.WorldConfig{})
	for i := 0; i < 10; i++ {
		h := pecs.SpawnBundle1(w, Position{int64(i), int64(i)})
		if i < 5 {
			assert.NoError(t, pecs.Insert(w, h, Velocity{1, 1}))
		}
	}

	q, err := pecs.NewQuery1[Position](w, pecs.Without[Velocity]{})
	assert.NoError(t, err)
	count := 0
	for q.Next() {
		count++
	}
	assert.Equal(t, 5, count)
}

// S5 aliasing check: requesting the same component type twice among a
// query's read parameters must fail at construction.
func TestQueryConflictingAccess(t *testing.T) {
	w := pecs.NewWorld(pecs.WorldConfig{})
	pecs.SpawnBundle1(w, Position{1, 1})

	_, err := pecs.NewQuery2[Position, Position](w)
	assert.ErrorIs(t, err, pecs.ErrConflictingAccess)
}

func TestQueryWithAndWithoutSameTypeConflicts(t *testing.T) {
	w := pecs.NewWorld(pecs.WorldConfig{})
	_, err := pecs.NewQuery1[Position](w, pecs.With[Velocity]{}, pecs.Without[Velocity]{})
	assert.ErrorIs(t, err, pecs.ErrConflictingAccess)
}

func TestQuery2IteratesMatchingArchetypesOnly(t *testing.T) {
	w := pecs.NewWorld(pecs.WorldConfig{})
	pecs.SpawnBundle1(w, Position{1, 1})
	matching := pecs.SpawnBundle2(w, Position{2, 2}, Velocity{3, 3})

	q, err := pecs.NewQuery2[Position, Velocity](w)
	assert.NoError(t, err)
	assert.True(t, q.Next())
	assert.Equal(t, matching, q.Entity())
	pos, vel := q.Get()
	assert.Equal(t, Position{2, 2}, *pos)
	assert.Equal(t, Velocity{3, 3}, *vel)
	assert.False(t, q.Next())
}
