package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shutterdesk/shutterdesk/internal/entity"
)

type clientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *entity.Client) error {
	query := `
		INSERT INTO clients (id, email, name, phone, notes, telegram_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.Email,
		client.Name,
		client.Phone,
		client.Notes,
		client.TelegramID,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	client.CreatedAt = now
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	query := `SELECT id, email, name, phone, notes, telegram_id, created_at FROM clients WHERE id = $1`

	var client entity.Client
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.Email,
		&client.Name,
		&client.Phone,
		&client.Notes,
		&client.TelegramID,
		&client.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return &client, nil
}

func (r *clientRepository) GetByEmail(ctx context.Context, email string) (*entity.Client, error) {
	query := `SELECT id, email, name, phone, notes, telegram_id, created_at FROM clients WHERE email = $1`

	var client entity.Client
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&client.ID,
		&client.Email,
		&client.Name,
		&client.Phone,
		&client.Notes,
		&client.TelegramID,
		&client.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by email: %w", err)
	}

	return &client, nil
}

func (r *clientRepository) GetAll(ctx context.Context) ([]*entity.Client, error) {
	query := `SELECT id, email, name, phone, notes, telegram_id, created_at FROM clients ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []*entity.Client
	for rows.Next() {
		var client entity.Client
		err := rows.Scan(
			&client.ID,
			&client.Email,
			&client.Name,
			&client.Phone,
			&client.Notes,
			&client.TelegramID,
			&client.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, &client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}

func (r *clientRepository) Update(ctx context.Context, client *entity.Client) error {
	query := `
		UPDATE clients
		SET email = $1, name = $2, phone = $3, notes = $4, telegram_id = $5
		WHERE id = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		client.Email,
		client.Name,
		client.Phone,
		client.Notes,
		client.TelegramID,
		client.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrClientNotFound
	}

	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM clients WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrClientNotFound
	}

	return nil
}
