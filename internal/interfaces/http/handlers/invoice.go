// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/domain/order"
)

// InvoiceRenderer turns an order into a printable document
type InvoiceRenderer interface {
	GenerateInvoice(o *order.OrderResponse) (*bytes.Buffer, error)
}

// InvoiceHandler serves order invoices
type InvoiceHandler struct {
	orderService *order.Service
	renderer     InvoiceRenderer
	log          logrus.FieldLogger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orderService *order.Service, renderer InvoiceRenderer, log logrus.FieldLogger) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orderService,
		renderer:     renderer,
		log:          log,
	}
}

// DownloadInvoice handles GET /orders/:orderId/invoice
func (h *InvoiceHandler) DownloadInvoice(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	o, err := h.orderService.GetOrderByID(c.Request.Context(), identity, c.Param("orderId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	buf, err := h.renderer.GenerateInvoice(o)
	if err != nil {
		h.log.WithError(err).WithField("order_id", o.OrderID).Error("Failed to generate invoice")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", o.OrderID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
