package repositories

import (
	"context"
	"fmt"

	"assetfolio/src/models"
)

type portfolioRepo struct {
	db      DBTX
	locking bool
}

func (r *portfolioRepo) List(ctx context.Context) ([]models.Portfolio, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM portfolios ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

func (r *portfolioRepo) GetByID(ctx context.Context, id int) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM portfolios WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "failed to get portfolio %d", id)
	}
	return &p, nil
}

func (r *portfolioRepo) LockByID(ctx context.Context, id int) (*models.Portfolio, error) {
	query := `SELECT id, name, created_at FROM portfolios WHERE id = $1`
	if r.locking {
		query += ` FOR UPDATE`
	}
	var p models.Portfolio
	if err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
		return nil, notFound(err, "failed to lock portfolio %d", id)
	}
	return &p, nil
}

func (r *portfolioRepo) Create(ctx context.Context, p *models.Portfolio) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO portfolios (name, created_at) VALUES ($1, NOW()) RETURNING id, created_at`,
		p.Name,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

func (r *portfolioRepo) Rename(ctx context.Context, id int, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE portfolios SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename portfolio %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *portfolioRepo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
