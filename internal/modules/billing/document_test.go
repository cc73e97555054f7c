package billing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRenderer(t *testing.T) {
	inv := &Invoice{
		InvoiceNumber:   "INV-20240309-001",
		OrderNumber:     "ORD-20240309-001",
		ShippingAddress: Address{Name: "Asha", City: "Bengaluru", State: "Karnataka"},
		Items: []InvoiceItem{
			{Name: "Kurta", VariantName: "M", Quantity: 1, UnitPricePaise: 99900, TaxablePaise: 99900, GSTRate: 5, IGSTPaise: 4995, TotalPaise: 104895},
		},
		SubtotalPaise: 99900, IGSTPaise: 4995, TotalTaxPaise: 4995, GrandTotalPaise: 104895,
		CreatedAt: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
	}
	data, contentType, err := NewTextRenderer().Render(context.Background(), inv)
	require.NoError(t, err)

	out := string(data)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
	assert.Contains(t, out, "Invoice No: INV-20240309-001")
	assert.Contains(t, out, "09 Mar 2024")
	assert.Contains(t, out, "Kurta (M)")
	assert.Contains(t, out, "IGST Rs 49.95")
	assert.Contains(t, out, "Grand Total: Rs 1048.95")
	assert.NotContains(t, out, "CGST")
}

func TestLocalDocumentStore(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalDocumentStore(dir, "/files/invoices/")
	ctx := context.Background()

	url, err := store.Store(ctx, []byte("hello"), "text/plain; charset=utf-8", "2024/03", "INV-1")
	require.NoError(t, err)
	assert.Equal(t, "/files/invoices/2024/03/INV-1.txt", url)

	path := filepath.Join(dir, "2024", "03", "INV-1.txt")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = store.Store(ctx, []byte("x"), "text/plain", "../../etc", "passwd")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "etc", "passwd.txt"))

	require.NoError(t, store.Delete(ctx, url))
	assert.NoFileExists(t, path)
	assert.NoError(t, store.Delete(ctx, url), "deleting twice is fine")
	assert.Error(t, store.Delete(ctx, "https://elsewhere/x.txt"))
}
