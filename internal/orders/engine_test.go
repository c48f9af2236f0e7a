package orders

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmendes/storefront-api/internal/domain"
)

func checkoutLine(productID string, price string, qty, stock int) domain.CheckoutLine {
	return domain.CheckoutLine{
		LineID:    "line-" + productID,
		ProductID: productID,
		Name:      "Product " + productID,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
		Stock:     stock,
	}
}

func TestBuildOrder(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	lines := []domain.CheckoutLine{
		checkoutLine("a", "10.00", 2, 5),
		checkoutLine("b", "5.00", 1, 5),
	}

	order := buildOrder("user-1", lines, "1 Main St", domain.PaymentPayPal, now)

	require.NotEmpty(t, order.ID)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, now, order.OrderDate)
	assert.Equal(t, now.Add(7*24*time.Hour), order.EstimatedDelivery)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "a", order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Items[0].Price.Equal(decimal.RequireFromString("10.00")))

	// 2×10.00 + 1×5.00
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.00")),
		"expected total 25.00, got %s", order.TotalAmount)
}

func TestBuildOrder_TotalIsFrozenPerLinePrice(t *testing.T) {
	lines := []domain.CheckoutLine{checkoutLine("c", "19.99", 3, 10)}

	order := buildOrder("user-1", lines, "addr", domain.PaymentCreditCard, time.Now().UTC())

	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("59.97")))
}

func TestShortLines(t *testing.T) {
	t.Run("all in stock", func(t *testing.T) {
		lines := []domain.CheckoutLine{
			checkoutLine("a", "1.00", 2, 2),
			checkoutLine("b", "1.00", 1, 5),
		}
		assert.Empty(t, shortLines(lines))
	})

	t.Run("reports every failing product", func(t *testing.T) {
		lines := []domain.CheckoutLine{
			checkoutLine("a", "1.00", 3, 1),
			checkoutLine("b", "1.00", 1, 5),
			checkoutLine("c", "1.00", 10, 0),
		}
		assert.Equal(t, []string{"a", "c"}, shortLines(lines))
	})
}

func TestValidatePlacement(t *testing.T) {
	assert.NoError(t, validatePlacement("1 Main St", domain.PaymentCreditCard))

	err := validatePlacement("", domain.PaymentCreditCard)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "shippingAddress is required", validationErr.Reason)

	err = validatePlacement("   ", domain.PaymentCreditCard)
	assert.ErrorAs(t, err, &validationErr)

	err = validatePlacement("1 Main St", domain.PaymentMethod("Gold Bars"))
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "unknown payment method", validationErr.Reason)
}
