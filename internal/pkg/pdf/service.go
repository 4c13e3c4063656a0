// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/order"
)

// Service renders order invoices
type Service struct {
	company CompanyInfo
	binPath string
	now     func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		company: CompanyInfo{
			Name:    cfg.Invoice.CompanyName,
			Address: cfg.Invoice.CompanyAddress,
			Phone:   cfg.Invoice.CompanyPhone,
			Email:   cfg.Invoice.CompanyEmail,
		},
		binPath: cfg.Invoice.WkhtmltopdfBin,
		now:     time.Now,
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string               `json:"invoice_number"`
	InvoiceDate   string               `json:"invoice_date"`
	Order         *order.OrderResponse `json:"order"`
	Company       CompanyInfo          `json:"company"`
}

// CompanyInfo represents the seller printed on the invoice
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// InvoiceData assembles the invoice view of an order
func (s *Service) InvoiceData(o *order.OrderResponse) InvoiceData {
	return InvoiceData{
		InvoiceNumber: "INV-" + o.OrderID,
		InvoiceDate:   s.now().Format("January 2, 2006"),
		Order:         o,
		Company:       s.company,
	}
}

// GenerateInvoice renders the invoice of an order to PDF through wkhtmltopdf
func (s *Service) GenerateInvoice(o *order.OrderResponse) (*bytes.Buffer, error) {
	htmlContent, err := s.GenerateHTML(s.InvoiceData(o))
	if err != nil {
		return nil, err
	}

	if s.binPath != "" {
		wkhtmltopdf.SetPath(s.binPath)
	}
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("January 2, 2006") },
}).Parse(invoiceTemplate))

// GenerateHTML renders the invoice markup
func (s *Service) GenerateHTML(data InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #2563eb; }
        table { width: 100%; border-collapse: collapse; }
        .items th { background: #f8fafc; text-align: left; padding: 8px; border-bottom: 1px solid #e2e8f0; }
        .items td { padding: 8px; border-bottom: 1px solid #f1f5f9; }
        .num { text-align: right; }
        .total { font-size: 18px; font-weight: bold; text-align: right; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="invoice-title">INVOICE</div>
        <div>{{.Company.Name}}</div>
        {{if .Company.Address}}<div>{{.Company.Address}}</div>{{end}}
        {{if .Company.Email}}<div>{{.Company.Email}}</div>{{end}}
        {{if .Company.Phone}}<div>{{.Company.Phone}}</div>{{end}}
    </div>

    <table>
        <tr><td><strong>Invoice:</strong> {{.InvoiceNumber}}</td><td class="num"><strong>Date:</strong> {{.InvoiceDate}}</td></tr>
        <tr><td><strong>Order:</strong> {{.Order.OrderID}}</td><td class="num"><strong>Placed:</strong> {{date .Order.CreatedAt}}</td></tr>
        <tr><td><strong>Status:</strong> {{.Order.Status}}</td><td></td></tr>
    </table>

    <h3>Bill to</h3>
    <div>{{.Order.UserName}}</div>
    <div>{{.Order.UserEmail}}</div>
    <div>{{.Order.ShippingAddress}}</div>

    <table class="items">
        <thead>
            <tr><th>Product</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Amount</th></tr>
        </thead>
        <tbody>
        {{range .Order.Items}}
            <tr><td>{{.ProductName}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .Price}}</td><td class="num">{{money .Subtotal}}</td></tr>
        {{end}}
        </tbody>
    </table>

    <div class="total">Total: {{money .Order.TotalAmount}}</div>
</body>
</html>
`
