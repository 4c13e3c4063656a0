package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/order"
)

func TestService_GenerateHTML(t *testing.T) {
	svc := NewService(&config.Config{Invoice: config.InvoiceConfig{
		CompanyName:  "Storefront Inc.",
		CompanyEmail: "billing@example.com",
	}})
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }

	o := &order.OrderResponse{
		OrderID:         "ORD-1234",
		UserName:        "Ada <Lovelace>",
		UserEmail:       "ada@example.com",
		Status:          order.OrderStatusConfirmed,
		ShippingAddress: "12 Analytical Row",
		TotalAmount:     decimal.RequireFromString("25"),
		Items: []order.OrderItemResponse{
			{ProductName: "Notebook", Quantity: 2, Price: decimal.RequireFromString("12.5"), Subtotal: decimal.RequireFromString("25")},
		},
		CreatedAt: time.Date(2025, 3, 13, 18, 0, 0, 0, time.UTC),
	}

	data := svc.InvoiceData(o)
	assert.Equal(t, "INV-ORD-1234", data.InvoiceNumber)
	assert.Equal(t, "March 14, 2025", data.InvoiceDate)

	html, err := svc.GenerateHTML(data)
	require.NoError(t, err)
	assert.Contains(t, html, "Storefront Inc.")
	assert.Contains(t, html, "Notebook")
	assert.Contains(t, html, "12.50")
	assert.Contains(t, html, "Total: 25.00")
	assert.Contains(t, html, "March 13, 2025")
	assert.Contains(t, html, "Ada &lt;Lovelace&gt;")
}
