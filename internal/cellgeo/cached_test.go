package cellgeo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hello-nrfcloud/backend-sub002/internal/cache"
)

type countingStore struct {
	locations map[string]Location
	gets      int
	err       error
}

func (s *countingStore) Get(_ context.Context, cell Cell) (Location, bool, error) {
	s.gets++
	if s.err != nil {
		return Location{}, false, s.err
	}
	loc, ok := s.locations[CellID(cell)]
	return loc, ok, nil
}

func (s *countingStore) Put(_ context.Context, cell Cell, loc Location) error {
	if s.err != nil {
		return s.err
	}
	s.locations[CellID(cell)] = loc
	return nil
}

func (s *countingStore) Delete(_ context.Context, cell Cell) error {
	if s.err != nil {
		return s.err
	}
	delete(s.locations, CellID(cell))
	return nil
}

func TestCached_ServesFromMemory(t *testing.T) {
	ctx := context.Background()
	now := testNow
	backing := &countingStore{locations: map[string]Location{"53005-42-666": testLocation}}
	c := NewCached(backing, time.Minute, cache.WithClock(func() time.Time { return now }))

	for range 3 {
		loc, ok, err := c.Get(ctx, testCell)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, testLocation, loc)
	}
	assert.Equal(t, 1, backing.gets)

	now = now.Add(time.Minute)
	_, _, err := c.Get(ctx, testCell)
	require.NoError(t, err)
	assert.Equal(t, 2, backing.gets)
}

func TestCached_MissIsNotCached(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{locations: map[string]Location{}}
	c := NewCached(backing, time.Minute)

	_, ok, err := c.Get(ctx, testCell)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, testCell, testLocation))
	loc, ok, err := c.Get(ctx, testCell)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testLocation, loc)
	assert.Equal(t, 1, backing.gets)
}

func TestCached_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	c := NewCached(&countingStore{err: boom}, time.Minute)

	_, _, err := c.Get(context.Background(), testCell)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, c.Put(context.Background(), testCell, testLocation), boom)
}

func TestCached_DeleteDropsMemory(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{locations: map[string]Location{"53005-42-666": testLocation}}
	c := NewCached(backing, time.Hour)

	_, ok, err := c.Get(ctx, testCell)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Delete(ctx, testCell))
	assert.Empty(t, backing.locations)

	_, ok, err = c.Get(ctx, testCell)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, backing.gets)
}

func TestCached_DeleteKeepsMemoryOnError(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{locations: map[string]Location{"53005-42-666": testLocation}}
	c := NewCached(backing, time.Hour)

	_, _, err := c.Get(ctx, testCell)
	require.NoError(t, err)

	backing.err = errors.New("unavailable")
	require.ErrorIs(t, c.Delete(ctx, testCell), backing.err)

	loc, ok, err := c.Get(ctx, testCell)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testLocation, loc)
}
