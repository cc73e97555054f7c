package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p := &Product{}
	var gstRate sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT id,name,sku,image_url,price_paise,mrp_paise,is_active,has_variants,
		       stock_quantity,hsn_code,gst_rate,created_at,updated_at
		FROM products WHERE id=$1`, id).Scan(
		&p.ID, &p.Name, &p.SKU, &p.ImageURL, &p.PricePaise, &p.MRPPaise, &p.IsActive,
		&p.HasVariants, &p.StockQuantity, &p.HSNCode, &gstRate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product: %w", err)
	}
	if gstRate.Valid {
		rate := int(gstRate.Int64)
		p.GSTRate = &rate
	}

	p.Variants, err = r.listVariants(ctx, id)
	return p, err
}

func (r *postgresRepo) GetTaxInfo(ctx context.Context, productID uuid.UUID) (*TaxInfo, error) {
	info := &TaxInfo{}
	var gstRate sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT hsn_code, gst_rate FROM products WHERE id=$1`, productID).Scan(&info.HSNCode, &gstRate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if gstRate.Valid {
		rate := int(gstRate.Int64)
		info.Rate = &rate
	}
	return info, nil
}

func (r *postgresRepo) StockQuantity(ctx context.Context, key StockKey) (int, error) {
	var qty int
	var err error
	if key.VariantID == uuid.Nil {
		err = r.db.QueryRowContext(ctx,
			`SELECT stock_quantity FROM products WHERE id=$1`, key.ProductID).Scan(&qty)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT stock_quantity FROM product_variants WHERE id=$1 AND product_id=$2`,
			key.VariantID, key.ProductID).Scan(&qty)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return qty, err
}

// DecrementStock relies on the WHERE guard for atomicity: concurrent
// deductions against the same row serialise on the row lock and the loser
// matches zero rows.
func (r *postgresRepo) DecrementStock(ctx context.Context, key StockKey, qty int) (bool, error) {
	var res sql.Result
	var err error
	if key.VariantID == uuid.Nil {
		res, err = r.db.ExecContext(ctx, `
			UPDATE products SET stock_quantity = stock_quantity - $1, updated_at = NOW()
			WHERE id=$2 AND stock_quantity >= $1`, qty, key.ProductID)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE product_variants SET stock_quantity = stock_quantity - $1, updated_at = NOW()
			WHERE id=$2 AND product_id=$3 AND stock_quantity >= $1`, qty, key.VariantID, key.ProductID)
	}
	if err != nil {
		return false, fmt.Errorf("decrement stock %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *postgresRepo) IncrementStock(ctx context.Context, key StockKey, qty int) error {
	var res sql.Result
	var err error
	if key.VariantID == uuid.Nil {
		res, err = r.db.ExecContext(ctx, `
			UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = NOW()
			WHERE id=$2`, qty, key.ProductID)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE product_variants SET stock_quantity = stock_quantity + $1, updated_at = NOW()
			WHERE id=$2 AND product_id=$3`, qty, key.VariantID, key.ProductID)
	}
	if err != nil {
		return fmt.Errorf("increment stock %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) listVariants(ctx context.Context, productID uuid.UUID) ([]*Variant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id,product_id,name,sku,price_paise,mrp_paise,is_active,stock_quantity
		FROM product_variants WHERE product_id=$1 ORDER BY created_at ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []*Variant
	for rows.Next() {
		v := &Variant{}
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU,
			&v.PricePaise, &v.MRPPaise, &v.IsActive, &v.StockQuantity); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
