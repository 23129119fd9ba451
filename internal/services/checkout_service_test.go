package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutRoadBike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com")
	b := f.register(t, "b@example.com")
	bike := f.list(t, a, "Road Bike", "Sports", "150.00")

	_, err := f.cart.Add(ctx, b.ID, bike.ID)
	require.NoError(t, err)

	purchases, err := f.checkout.Checkout(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, purchases, 1)

	history, err := f.checkout.History(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	got := history[0]
	assert.Equal(t, b.ID, got.UserID)
	assert.Equal(t, bike.ID, got.ProductID)
	assert.Equal(t, "Road Bike", got.ProductTitle)
	assert.Equal(t, 1, got.Quantity)
	assert.True(t, decimal.RequireFromString("150.00").Equal(got.PriceAtPurchase))

	cart, err := f.cart.View(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	listing, err := f.listings.Get(ctx, bike.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("150.00").Equal(listing.Price))

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, b.Email, f.notifier.buyer.Email)
}

func TestCheckoutOnePurchasePerCartRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "seller@example.com")
	buyer := f.register(t, "buyer@example.com")
	mug := f.list(t, seller, "Mug", "Other", "4.50")
	hat := f.list(t, seller, "Hat", "Clothing", "12")

	for _, id := range []string{mug.ID, mug.ID, hat.ID} {
		_, err := f.cart.Add(ctx, buyer.ID, id)
		require.NoError(t, err)
	}

	purchases, err := f.checkout.Checkout(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM purchases WHERE user_id = ?", buyer.ID))
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM cart_items WHERE user_id = ?", buyer.ID))

	assert.Equal(t, mug.ID, purchases[0].ProductID)
	assert.Equal(t, 2, purchases[0].Quantity)
	assert.True(t, decimal.RequireFromString("9.00").Equal(purchases[0].Total()))
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	buyer := f.register(t, "buyer@example.com")

	purchases, err := f.checkout.Checkout(context.Background(), buyer.ID)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, purchases)
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM purchases"))
	assert.Empty(t, f.notifier.calls)
}

func TestPurchasePriceIsSnapshotted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "seller@example.com")
	buyer := f.register(t, "buyer@example.com")
	p := f.list(t, seller, "Guitar", "Other", "300")

	_, err := f.cart.Add(ctx, buyer.ID, p.ID)
	require.NoError(t, err)
	_, err = f.checkout.Checkout(ctx, buyer.ID)
	require.NoError(t, err)

	_, err = f.listings.Update(ctx, p.ID, seller.ID, ListingInput{Title: "Guitar", Category: "Other", Price: "350"})
	require.NoError(t, err)

	history, err := f.checkout.History(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, decimal.NewFromInt(300).Equal(history[0].PriceAtPurchase))
}

func TestCheckoutFailsWholeWhenListingVanished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "seller@example.com")
	buyer := f.register(t, "buyer@example.com")
	keep := f.list(t, seller, "Chair", "Furniture", "40")
	gone := f.list(t, seller, "Table", "Furniture", "90")

	_, err := f.cart.Add(ctx, buyer.ID, keep.ID)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, buyer.ID, gone.ID)
	require.NoError(t, err)

	// Remove the listing behind the cart's back.
	_, err = f.db.Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = f.db.Exec("DELETE FROM products WHERE id = ?", gone.ID)
	require.NoError(t, err)

	_, err = f.checkout.Checkout(ctx, buyer.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM purchases"), "nothing is purchased")
	assert.Equal(t, 2, f.count(t, "SELECT COUNT(*) FROM cart_items"), "cart is untouched")
	assert.Empty(t, f.notifier.calls)
}

func TestCheckoutSucceedsWhenNotifierFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.register(t, "seller@example.com")
	buyer := f.register(t, "buyer@example.com")
	p := f.list(t, seller, "Skates", "Sports", "60")
	f.notifier.err = errors.New("smtp down")

	_, err := f.cart.Add(ctx, buyer.ID, p.ID)
	require.NoError(t, err)

	purchases, err := f.checkout.Checkout(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, purchases, 1)
	assert.Len(t, f.notifier.calls, 1)
}
