package repository

import (
	"context"
	"database/sql"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/google/uuid"
)

// LineRepo persists production lines and their membership relation over a
// write/read pool pair, same split as ProductRepo.
type LineRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

func NewLineRepo(writeDB, readDB *sql.DB) *LineRepo {
	return &LineRepo{writeDB: writeDB, readDB: readDB}
}

const lineColumns = `id, owner_id, name, description, version, created_at, updated_at`

func scanLine(row interface{ Scan(...interface{}) error }) (*domain.ProductionLine, error) {
	var l domain.ProductionLine
	var ownerID string
	if err := row.Scan(&l.ID, &ownerID, &l.Name, &l.Description, &l.Version, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, err
	}
	l.OwnerID = owner
	return &l, nil
}

func (r *LineRepo) Create(ctx context.Context, l *domain.ProductionLine) (*domain.ProductionLine, error) {
	row := r.writeDB.QueryRowContext(ctx,
		`INSERT INTO production_lines (id, owner_id, name, description)
		 VALUES (?, ?, ?, ?)
		 RETURNING `+lineColumns,
		l.ID, l.OwnerID.String(), l.Name, l.Description)

	created, err := scanLine(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return created, nil
}

func (r *LineRepo) GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*domain.ProductionLine, error) {
	row := r.readDB.QueryRowContext(ctx,
		`SELECT `+lineColumns+` FROM production_lines WHERE id = ? AND owner_id = ?`,
		id, ownerID.String())

	l, err := scanLine(row)
	if err != nil {
		return nil, mapDBError(err)
	}

	l.ProductIDs, err = r.memberProductIDs(ctx, r.readDB, l.ID)
	if err != nil {
		return nil, err
	}
	return l, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *LineRepo) memberProductIDs(ctx context.Context, q querier, lineID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT product_id FROM production_line_products WHERE line_id = ? ORDER BY product_id`,
		lineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *LineRepo) List(ctx context.Context, ownerID uuid.UUID, page domain.PageRequest) ([]domain.ProductionLine, int64, error) {
	var total int64
	if err := r.readDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM production_lines WHERE owner_id = ?`, ownerID.String()).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.readDB.QueryContext(ctx,
		`SELECT `+lineColumns+` FROM production_lines
		 WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		ownerID.String(), page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var lines []domain.ProductionLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, 0, err
		}
		lines = append(lines, *l)
	}
	return lines, total, rows.Err()
}

// Update performs a compare-and-swap on the version column, same contract as
// ProductRepo.Update.
func (r *LineRepo) Update(ctx context.Context, l *domain.ProductionLine, expectedVersion int64) (*domain.ProductionLine, error) {
	query := `UPDATE production_lines
	          SET name = ?, description = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = ? AND owner_id = ?`
	args := []interface{}{l.Name, l.Description, l.ID, l.OwnerID.String()}
	if expectedVersion >= 0 {
		query += ` AND version = ?`
		args = append(args, expectedVersion)
	}
	query += ` RETURNING ` + lineColumns

	row := r.writeDB.QueryRowContext(ctx, query, args...)
	updated, err := scanLine(row)
	if err == nil {
		return updated, nil
	}
	if err != sql.ErrNoRows {
		return nil, mapDBError(err)
	}

	var exists int
	if err := r.writeDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM production_lines WHERE id = ? AND owner_id = ?`,
		l.ID, l.OwnerID.String()).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, domain.ErrNotFound("production line not found")
	}
	return nil, domain.ErrPreconditionFailed("production line version mismatch")
}

// Delete removes the line (membership rows cascade) under the same version
// compare-and-swap contract as Update.
func (r *LineRepo) Delete(ctx context.Context, ownerID uuid.UUID, id string, expectedVersion int64) error {
	query := `DELETE FROM production_lines WHERE id = ? AND owner_id = ?`
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
		`SELECT COUNT(*) FROM production_lines WHERE id = ? AND owner_id = ?`,
		id, ownerID.String()).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound("production line not found")
	}
	return domain.ErrPreconditionFailed("production line version mismatch")
}

// AddProduct inserts a membership row and advances the line version in one
// transaction. The product must exist under the same owner as the line;
// anything else reads as not found.
func (r *LineRepo) AddProduct(ctx context.Context, ownerID uuid.UUID, lineID, productID string, expectedVersion int64) (*domain.ProductionLine, error) {
	return r.mutateMembership(ctx, ownerID, lineID, productID, expectedVersion, true)
}

// RemoveProduct deletes a membership row and advances the line version in one
// transaction. Removing a product that is not a member is not found.
func (r *LineRepo) RemoveProduct(ctx context.Context, ownerID uuid.UUID, lineID, productID string, expectedVersion int64) (*domain.ProductionLine, error) {
	return r.mutateMembership(ctx, ownerID, lineID, productID, expectedVersion, false)
}

func (r *LineRepo) mutateMembership(ctx context.Context, ownerID uuid.UUID, lineID, productID string, expectedVersion int64, add bool) (*domain.ProductionLine, error) {
	tx, err := r.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// CAS on the line row first: this both enforces the precondition and
	// serializes concurrent membership writers on the same line.
	query := `UPDATE production_lines
	          SET version = version + 1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = ? AND owner_id = ?`
	args := []interface{}{lineID, ownerID.String()}
	if expectedVersion >= 0 {
		query += ` AND version = ?`
		args = append(args, expectedVersion)
	}
	query += ` RETURNING ` + lineColumns

	updated, err := scanLine(tx.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM production_lines WHERE id = ? AND owner_id = ?`,
			lineID, ownerID.String()).Scan(&exists); err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, domain.ErrNotFound("production line not found")
		}
		return nil, domain.ErrPreconditionFailed("production line version mismatch")
	}
	if err != nil {
		return nil, mapDBError(err)
	}

	if add {
		// Same-owner gate: the INSERT only fires when a product row with this
		// id exists under the caller's owner. A cross-owner product id is
		// indistinguishable from an absent one.
		res, err := tx.ExecContext(ctx,
			`INSERT INTO production_line_products (line_id, product_id)
			 SELECT ?, id FROM products WHERE id = ? AND owner_id = ?`,
			lineID, productID, ownerID.String())
		if err != nil {
			return nil, mapDBError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, domain.ErrNotFound("product not found")
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM production_line_products WHERE line_id = ? AND product_id = ?`,
			lineID, productID)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, domain.ErrNotFound("product is not a member of this line")
		}
	}

	updated.ProductIDs, err = r.memberProductIDs(ctx, tx, lineID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}
