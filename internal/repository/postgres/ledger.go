package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/pkg/errors"
)

// ledgerDocumentID names the single ledger row; one spreadsheet, one ledger
const ledgerDocumentID = "default"

type ledgerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sql.DB, logger *zap.Logger) *ledgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ledgerRepository) Get(ctx context.Context) (*domain.Ledger, error) {
	query := `
		SELECT version, rows, updated_at
		FROM ledger_documents
		WHERE id = $1
	`

	var l domain.Ledger
	var rowsJSON []byte
	err := r.db.QueryRowContext(ctx, query, ledgerDocumentID).Scan(&l.Version, &rowsJSON, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return &domain.Ledger{Rows: []domain.NormalizedRow{}}, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ledger", zap.Error(err))
		return nil, err
	}

	if len(rowsJSON) > 0 {
		if err := json.Unmarshal(rowsJSON, &l.Rows); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

func (r *ledgerRepository) Save(ctx context.Context, l *domain.Ledger, expectedVersion int64) (*domain.Ledger, error) {
	rowsJSON, err := json.Marshal(l.Rows)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var res sql.Result
	if expectedVersion == 0 {
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO ledger_documents (id, version, rows, updated_at)
			VALUES ($1, 1, $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, ledgerDocumentID, rowsJSON, now)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE ledger_documents
			SET version = version + 1, rows = $2, updated_at = $3
			WHERE id = $1 AND version = $4
		`, ledgerDocumentID, rowsJSON, now, expectedVersion)
	}
	if err != nil {
		r.logger.Error("Failed to save ledger", zap.Error(err))
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		current, err := r.currentVersion(ctx)
		if err != nil {
			return nil, err
		}
		r.logger.Warn("Ledger save rejected, stale version",
			zap.Int64("expected_version", expectedVersion),
			zap.Int64("current_version", current))
		return nil, &errors.ErrConflict{ExpectedVersion: expectedVersion, CurrentVersion: current}
	}

	saved := l.Clone()
	saved.Version = expectedVersion + 1
	saved.UpdatedAt = now
	return saved, nil
}

func (r *ledgerRepository) currentVersion(ctx context.Context) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM ledger_documents WHERE id = $1`, ledgerDocumentID).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return v, err
}
