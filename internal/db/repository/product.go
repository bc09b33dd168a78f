package repository

import (
	"context"
	"database/sql"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/google/uuid"
)

// ProductRepo persists products over a write/read pool pair: mutations and
// the existence checks that follow them go through the single-connection
// write pool, plain reads through the concurrent read pool.
type ProductRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

func NewProductRepo(writeDB, readDB *sql.DB) *ProductRepo {
	return &ProductRepo{writeDB: writeDB, readDB: readDB}
}

const productColumns = `id, owner_id, name, sku, quantity, version, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*domain.Product, error) {
	var p domain.Product
	var ownerID string
	if err := row.Scan(&p.ID, &ownerID, &p.Name, &p.SKU, &p.Quantity, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, err
	}
	p.OwnerID = owner
	return &p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	row := r.writeDB.QueryRowContext(ctx,
		`INSERT INTO products (id, owner_id, name, sku, quantity)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+productColumns,
		p.ID, p.OwnerID.String(), p.Name, p.SKU, p.Quantity)

	created, err := scanProduct(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return created, nil
}

func (r *ProductRepo) GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Product, error) {
	row := r.readDB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ? AND owner_id = ?`,
		id, ownerID.String())

	p, err := scanProduct(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, ownerID uuid.UUID, page domain.PageRequest) ([]domain.Product, int64, error) {
	var total int64
	if err := r.readDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE owner_id = ?`, ownerID.String()).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.readDB.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		ownerID.String(), page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

// Update performs a compare-and-swap on the version column. expectedVersion < 0
// makes the write unconditional. A zero-row result against an existing row is
// a version mismatch; against an absent row it is not found. The two cases are
// disambiguated with a follow-up owner-scoped existence check.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product, expectedVersion int64) (*domain.Product, error) {
	query := `UPDATE products
	          SET name = ?, sku = ?, quantity = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = ? AND owner_id = ?`
	args := []interface{}{p.Name, p.SKU, p.Quantity, p.ID, p.OwnerID.String()}
	if expectedVersion >= 0 {
		query += ` AND version = ?`
		args = append(args, expectedVersion)
	}
	query += ` RETURNING ` + productColumns

	row := r.writeDB.QueryRowContext(ctx, query, args...)
	updated, err := scanProduct(row)
	if err == nil {
		return updated, nil
	}
	if err != sql.ErrNoRows {
		return nil, mapDBError(err)
	}

	var exists int
	if err := r.writeDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE id = ? AND owner_id = ?`,
		p.ID, p.OwnerID.String()).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, domain.ErrNotFound("product not found")
	}
	return nil, domain.ErrPreconditionFailed("product version mismatch")
}

// Delete removes the row under the same version compare-and-swap contract as
// Update: expectedVersion < 0 deletes unconditionally, a stale version leaves
// the row in place and reports a precondition failure.
func (r *ProductRepo) Delete(ctx context.Context, ownerID uuid.UUID, id string, expectedVersion int64) error {
	query := `DELETE FROM products WHERE id = ? AND owner_id = ?`
	args := []interface{}{id, ownerID.String()}
	if expectedVersion >= 0 {
		query += ` AND version = ?`
		args = append(args, expectedVersion)
	}

	res, err := r.writeDB.ExecContext(ctx, query, args...)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	if err := r.writeDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE id = ? AND owner_id = ?`,
		id, ownerID.String()).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound("product not found")
	}
	return domain.ErrPreconditionFailed("product version mismatch")
}
