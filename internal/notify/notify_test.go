package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/isdelr/ecofinds/internal/models"
	"github.com/keighl/postmark"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	buyer = models.User{ID: "u-1", Email: "b@example.com", Username: "B"}
	at    = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	bike  = models.Purchase{
		ID: "p-1", UserID: "u-1", ProductID: "l-1", ProductTitle: "Road Bike",
		Quantity: 1, PriceAtPurchase: decimal.RequireFromString("150.00"), PurchasedAt: at,
	}
	mugs = models.Purchase{
		ID: "p-2", UserID: "u-1", ProductID: "l-2", ProductTitle: "Mug",
		Quantity: 2, PriceAtPurchase: decimal.RequireFromString("4.50"), PurchasedAt: at,
	}
)

func TestNewReceipt(t *testing.T) {
	r := NewReceipt(buyer, []models.Purchase{bike, mugs})
	assert.Equal(t, "b@example.com", r.BuyerEmail)
	require.Len(t, r.Lines, 2)
	assert.True(t, decimal.RequireFromString("159.00").Equal(r.Total))
	assert.Equal(t, at, r.PurchasedAt)
}

type notifierFunc func() error

func (f notifierFunc) NotifyPurchases(context.Context, models.User, []models.Purchase) error { return f() }

func TestMultiCallsEveryNotifier(t *testing.T) {
	calls := 0
	ok := notifierFunc(func() error { calls++; return nil })
	boom := notifierFunc(func() error { calls++; return errors.New("boom") })

	err := Multi{boom, ok, Nop{}}.NotifyPurchases(context.Background(), buyer, nil)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 2, calls)

	assert.NoError(t, Multi{ok}.NotifyPurchases(context.Background(), buyer, nil))
}

type fakePublisher struct {
	key string
	msg amqp.Publishing
	err error
}

func (p *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	p.key, p.msg = key, msg
	return p.err
}

func TestQueuePublishesReceipt(t *testing.T) {
	pub := &fakePublisher{}
	q := &Queue{queue: "purchases", ch: pub}

	require.NoError(t, q.NotifyPurchases(context.Background(), buyer, []models.Purchase{bike}))
	assert.Equal(t, "purchases", pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.NotEmpty(t, pub.msg.MessageId)

	var r Receipt
	require.NoError(t, json.Unmarshal(pub.msg.Body, &r))
	assert.Equal(t, "u-1", r.BuyerID)
	require.Len(t, r.Lines, 1)
	assert.Equal(t, "Road Bike", r.Lines[0].Title)

	pub.err = errors.New("channel closed")
	assert.Error(t, q.NotifyPurchases(context.Background(), buyer, []models.Purchase{bike}))
	assert.NoError(t, q.Close())
}

type fakeSender struct {
	sent []postmark.Email
}

func (s *fakeSender) SendEmail(e postmark.Email) (postmark.EmailResponse, error) {
	s.sent = append(s.sent, e)
	return postmark.EmailResponse{}, nil
}

func TestMailerSendsReceipt(t *testing.T) {
	sender := &fakeSender{}
	m := &Mailer{client: sender, from: "shop@example.com"}

	require.NoError(t, m.NotifyPurchases(context.Background(), buyer, []models.Purchase{bike, mugs}))
	require.Len(t, sender.sent, 1)
	e := sender.sent[0]
	assert.Equal(t, "b@example.com", e.To)
	assert.Equal(t, "shop@example.com", e.From)
	assert.Contains(t, e.TextBody, "Mug: 2 x $4.50")
	assert.Contains(t, e.TextBody, "Total: $159.00")
	assert.Contains(t, e.HtmlBody, "Road Bike")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.NotifyPurchases(ctx, buyer, []models.Purchase{bike}), context.Canceled)
	assert.Len(t, sender.sent, 1)
}

func TestReceiptEscapesTitles(t *testing.T) {
	odd := bike
	odd.ProductTitle = "<b>Bike</b>"
	html, _, err := receiptBodies(NewReceipt(buyer, []models.Purchase{odd}))
	require.NoError(t, err)
	assert.NotContains(t, html, "<b>Bike</b>")
	assert.Contains(t, html, "&lt;b&gt;Bike&lt;/b&gt;")
}
