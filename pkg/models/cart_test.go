package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepehr-data/mithra-pay/pkg/money"
)

func product(id, title, price string) *Product {
	return &Product{ID: id, Title: title, Price: money.MustParse(price), IsActive: true}
}

func TestAddProductKeepsFirstSnapshot(t *testing.T) {
	cart := NewCart("u1", time.Now())
	p := product("p1", "Steam 10", "10.00")

	cart.AddProduct(p, 2)
	p.Price = money.MustParse("12.00")
	cart.AddProduct(p, 3)

	require.Len(t, cart.Items, 1)
	item := cart.Items[0]
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, "10.00", item.UnitPrice.String())
	assert.Equal(t, "50.00", item.LineTotal.String())
}

func TestSetQuantityRecalculates(t *testing.T) {
	cart := NewCart("u1", time.Now())
	cart.AddProduct(product("p1", "A", "3.33"), 1)
	cart.Items[0].ID = "i1"

	require.NoError(t, cart.SetQuantity("i1", 3))
	assert.Equal(t, "9.99", cart.Items[0].LineTotal.String())
	assert.ErrorIs(t, cart.SetQuantity("missing", 1), ErrItemNotFound)
}

func TestRemoveAndClear(t *testing.T) {
	cart := NewCart("u1", time.Now())
	cart.AddProduct(product("p1", "A", "1"), 1)
	cart.AddProduct(product("p2", "B", "2"), 1)
	cart.Items[0].ID, cart.Items[1].ID = "i1", "i2"

	require.NoError(t, cart.RemoveItem("i1"))
	assert.Len(t, cart.Items, 1)
	assert.ErrorIs(t, cart.RemoveItem("i1"), ErrItemNotFound)

	cart.Clear()
	assert.Empty(t, cart.Items)
	assert.Equal(t, CartStatusActive, cart.Status)
	assert.True(t, cart.Total().IsZero())
}

func TestCartViewJSON(t *testing.T) {
	cart := NewCart("u1", time.Now())
	cart.ID = "c1"
	cart.AddProduct(product("p1", "A", "10.00"), 2)
	cart.AddProduct(product("p2", "B", "5.00"), 1)

	out, err := json.Marshal(cart.View())
	require.NoError(t, err)

	var decoded struct {
		CartID      string       `json:"cart_id"`
		TotalAmount money.Amount `json:"total_amount"`
		Items       []struct {
			LineTotal money.Amount `json:"line_total"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "c1", decoded.CartID)
	assert.True(t, decoded.TotalAmount.Equal(cart.Total()))
	assert.True(t, decoded.Items[0].LineTotal.Add(decoded.Items[1].LineTotal).Equal(decoded.TotalAmount))
}

func TestNilCartView(t *testing.T) {
	var cart *Cart
	out, err := json.Marshal(cart.View())
	require.NoError(t, err)
	assert.JSONEq(t, `{"cart_id":null,"user_id":null,"items":[],"total_amount":0}`, string(out))
}
