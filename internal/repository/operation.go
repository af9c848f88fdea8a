package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-accrual/internal/domain"
)

const operationColumns = `id, record_id, entity_type, entity_id, type, amount, description, created_at`

type OperationRepository struct {
	db *sql.DB
}

func NewOperationRepository(db *sql.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

func (r *OperationRepository) Create(ctx context.Context, tx *sql.Tx, op *domain.Operation) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO operation_history (`+operationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		op.ID, op.RecordID, op.EntityType, op.EntityID, op.Type, op.Amount, op.Description, op.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *OperationRepository) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]domain.Operation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+operationColumns+` FROM operation_history
		WHERE record_id = $1 ORDER BY created_at, id`, recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByRecord: %w", err)
	}
	defer rows.Close()

	var ops []domain.Operation
	for rows.Next() {
		var op domain.Operation
		if err := rows.Scan(
			&op.ID, &op.RecordID, &op.EntityType, &op.EntityID,
			&op.Type, &op.Amount, &op.Description, &op.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListByRecord: scan: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByRecord: rows: %w", err)
	}
	return ops, nil
}
