package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/boutique-commerce/backoffice/internal/domain"
)

type customerRepository struct {
	ext sqlx.ExtContext
}

type customerRow struct {
	domain.Customer
	AddressJSON []byte `db:"address"`
}

const customerColumns = `id, email, first_name, last_name, phone, address,
	is_active, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	addressJSON, err := json.Marshal(c.Address)
	if err != nil {
		return persistErr("marshal customer address", err)
	}
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.ext.ExecContext(ctx, query,
		c.ID, c.Email, c.FirstName, c.LastName, c.Phone, addressJSON,
		c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return &domain.DuplicateError{Entity: "customer", Field: "email", Value: c.Email}
		}
		return persistErr("insert customer", err)
	}
	return nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	addressJSON, err := json.Marshal(c.Address)
	if err != nil {
		return persistErr("marshal customer address", err)
	}
	query := `
		UPDATE customers
		SET email = $2, first_name = $3, last_name = $4, phone = $5,
			address = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := r.ext.ExecContext(ctx, query,
		c.ID, c.Email, c.FirstName, c.LastName, c.Phone, addressJSON,
		c.IsActive, nowUTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return &domain.DuplicateError{Entity: "customer", Field: "email", Value: c.Email}
		}
		return persistErr("update customer", err)
	}
	return requireAffected(res, "customer", c.ID)
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var row customerRow
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.ext, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("customer", id)
		}
		return nil, persistErr("get customer", err)
	}
	return row.toDomain()
}

func (r *customerRepository) List(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT ` + placeholder(len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += ` OFFSET ` + placeholder(len(args))
	}
	var rows []customerRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, persistErr("list customers", err)
	}
	customers := make([]domain.Customer, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, nil
}

func (row *customerRow) toDomain() (*domain.Customer, error) {
	c := row.Customer
	if len(row.AddressJSON) > 0 {
		if err := json.Unmarshal(row.AddressJSON, &c.Address); err != nil {
			return nil, persistErr("unmarshal customer address", err)
		}
	}
	return &c, nil
}
