package index

import (
	"context"
	"database/sql"
)

// CreatePublisher records a new publisher for address, created on first
// signup and never deleted (spec.md §3: "Lifecycle").
func (idx *Index) CreatePublisher(ctx context.Context, address [20]byte) (*Publisher, error) {
	res, err := idx.db.ExecContext(ctx,
		`INSERT INTO publishers (address) VALUES (?)`, address[:])
	if isUniqueConstraintErr(err) {
		return nil, ErrPublisherExists
	}
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return idx.FindPublisherByID(ctx, id)
}

// FindPublisherByAddress looks up a publisher by its 20-byte address,
// returning (nil, nil) if none exists.
func (idx *Index) FindPublisherByAddress(ctx context.Context, address [20]byte) (*Publisher, error) {
	row := idx.db.QueryRowContext(ctx,
		`SELECT publisher_id, address, created_at FROM publishers WHERE address = ?`, address[:])
	return scanPublisher(row)
}

// FindPublisherByID looks up a publisher by surrogate id.
func (idx *Index) FindPublisherByID(ctx context.Context, id int64) (*Publisher, error) {
	row := idx.db.QueryRowContext(ctx,
		`SELECT publisher_id, address, created_at FROM publishers WHERE publisher_id = ?`, id)
	return scanPublisher(row)
}

func scanPublisher(row *sql.Row) (*Publisher, error) {
	var p Publisher
	var addr []byte
	if err := row.Scan(&p.ID, &addr, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	copy(p.Address[:], addr)
	return &p, nil
}
