package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/ecofinds/internal/database"
	"github.com/isdelr/ecofinds/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// clock hands out strictly increasing times so newest-first ordering is
// deterministic.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingNotifier struct {
	calls [][]models.Purchase
	buyer models.User
	err   error
}

func (n *recordingNotifier) NotifyPurchases(_ context.Context, buyer models.User, purchases []models.Purchase) error {
	n.buyer = buyer
	n.calls = append(n.calls, purchases)
	return n.err
}

type recordingHub struct {
	events []models.Event
}

func (h *recordingHub) BroadcastEvent(e models.Event) {
	h.events = append(h.events, e)
}

type fixture struct {
	db       *sql.DB
	clock    *clock
	hub      *recordingHub
	notifier *recordingNotifier
	events   *EventService
	users    *UserService
	listings *ListingService
	browse   *BrowseService
	cart     *CartService
	checkout *CheckoutService
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{db: db, clock: newClock(), hub: &recordingHub{}, notifier: &recordingNotifier{}}
	f.events = NewEventService(db, f.hub)
	f.events.now = f.clock.now
	f.users = NewUserService(db, f.events)
	f.users.now = f.clock.now
	f.users.cost = bcrypt.MinCost
	f.listings = NewListingService(db, f.events)
	f.listings.now = f.clock.now
	f.browse = NewBrowseService(db)
	f.cart = NewCartService(db)
	f.checkout = NewCheckoutService(db, f.users, f.events, f.notifier)
	f.checkout.now = f.clock.now
	return f
}

func (f *fixture) register(t *testing.T, email string) models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{Email: email, Password: "secret"})
	require.NoError(t, err)
	return u
}

func (f *fixture) list(t *testing.T, owner models.User, title, category, price string) models.Product {
	t.Helper()
	p, err := f.listings.Create(context.Background(), owner.ID, ListingInput{
		Title:       title,
		Description: title + " for sale",
		Category:    category,
		Price:       price,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}
