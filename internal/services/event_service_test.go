package services

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentEventsAreScopedToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com")
	b := f.register(t, "b@example.com")
	f.list(t, a, "Bookshelf", "Furniture", "55")

	events, err := f.events.GetRecentEvents(ctx, a.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventListingCreate, events[0].Type)
	assert.Equal(t, models.EventUserRegister, events[1].Type)

	events, err = f.events.GetRecentEvents(ctx, b.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = f.events.GetRecentEvents(ctx, a.ID, 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPruneBefore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com")
	cutoff := f.clock.now()
	f.list(t, a, "Rug", "Furniture", "80")

	n, err := f.events.PruneBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	events, err := f.events.GetRecentEvents(ctx, a.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventListingCreate, events[0].Type)

	n, err = f.events.PruneBefore(ctx, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)
}
