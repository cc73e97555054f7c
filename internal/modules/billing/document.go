package billing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
)

// Renderer turns an invoice into a printable document.
type Renderer interface {
	Render(ctx context.Context, inv *Invoice) (data []byte, contentType string, err error)
}

// DocumentStore persists rendered documents and returns a retrievable URL.
type DocumentStore interface {
	Store(ctx context.Context, data []byte, contentType, folder, name string) (url string, err error)
	Delete(ctx context.Context, url string) error
}

// ── Text renderer ─────────────────────────────────────────────────────────────

const invoiceTemplate = `TAX INVOICE
Invoice No: {{.InvoiceNumber}}
Invoice Date: {{.CreatedAt.Format "02 Jan 2006"}}
Order No: {{.OrderNumber}}
Place of Supply: {{.ShippingAddress.State}}{{if .IsIntraState}} (intra-state){{else}} (inter-state){{end}}

Bill To:
  {{.BillingAddress.Name}}, {{.BillingAddress.Phone}}
  {{.BillingAddress.AddressLine1}}{{with .BillingAddress.AddressLine2}}, {{.}}{{end}}
  {{.BillingAddress.City}}, {{.BillingAddress.State}} {{.BillingAddress.Pincode}}

Ship To:
  {{.ShippingAddress.Name}}, {{.ShippingAddress.Phone}}
  {{.ShippingAddress.AddressLine1}}{{with .ShippingAddress.AddressLine2}}, {{.}}{{end}}
  {{.ShippingAddress.City}}, {{.ShippingAddress.State}} {{.ShippingAddress.Pincode}}

{{range $i, $it := .Items}}{{inc $i}}. {{$it.Name}}{{with $it.VariantName}} ({{.}}){{end}}
   HSN {{or $it.HSNCode "-"}}  Qty {{$it.Quantity}} x Rs {{rupees $it.UnitPricePaise}}  Taxable Rs {{rupees $it.TaxablePaise}}
   GST {{$it.GSTRate}}%{{if $.IsIntraState}}  CGST Rs {{rupees $it.CGSTPaise}}  SGST Rs {{rupees $it.SGSTPaise}}{{else}}  IGST Rs {{rupees $it.IGSTPaise}}{{end}}  Total Rs {{rupees $it.TotalPaise}}
{{end}}
Subtotal:    Rs {{rupees .SubtotalPaise}}
{{if .IsIntraState}}CGST:        Rs {{rupees .CGSTPaise}}
SGST:        Rs {{rupees .SGSTPaise}}
{{else}}IGST:        Rs {{rupees .IGSTPaise}}
{{end}}Total Tax:   Rs {{rupees .TotalTaxPaise}}
Grand Total: Rs {{rupees .GrandTotalPaise}}
`

// TextRenderer renders invoices as plain text.
type TextRenderer struct{ tmpl *template.Template }

func NewTextRenderer() *TextRenderer {
	funcs := template.FuncMap{
		"rupees": func(paise int64) string { return decimal.New(paise, -2).StringFixed(2) },
		"inc":    func(i int) int { return i + 1 },
	}
	return &TextRenderer{tmpl: template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceTemplate))}
}

func (r *TextRenderer) Render(_ context.Context, inv *Invoice) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, inv); err != nil {
		return nil, "", fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), "text/plain; charset=utf-8", nil
}

// ── Local document store ──────────────────────────────────────────────────────

// LocalDocumentStore writes documents under a directory that is served at
// publicBaseURL.
type LocalDocumentStore struct {
	dir           string
	publicBaseURL string
}

func NewLocalDocumentStore(dir, publicBaseURL string) *LocalDocumentStore {
	return &LocalDocumentStore{dir: dir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *LocalDocumentStore) Store(_ context.Context, data []byte, contentType, folder, name string) (string, error) {
	name += extensionFor(contentType)
	target := filepath.Join(s.dir, filepath.Clean("/"+folder), filepath.Base(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create document folder: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return s.publicBaseURL + path.Join("/", folder, filepath.Base(name)), nil
}

func (s *LocalDocumentStore) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.publicBaseURL+"/") {
		return fmt.Errorf("document %q is not managed by this store", url)
	}
	rel := strings.TrimPrefix(url, s.publicBaseURL)
	err := os.Remove(filepath.Join(s.dir, filepath.Clean("/"+rel)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func extensionFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "text/plain"):
		return ".txt"
	case strings.HasPrefix(contentType, "application/pdf"):
		return ".pdf"
	case strings.HasPrefix(contentType, "text/html"):
		return ".html"
	}
	return ""
}
