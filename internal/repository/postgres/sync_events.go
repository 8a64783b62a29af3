package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/domain"
)

type syncEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSyncEventRepository creates a new sync event repository
func NewSyncEventRepository(db *sql.DB, logger *zap.Logger) *syncEventRepository {
	return &syncEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *syncEventRepository) Create(ctx context.Context, event *domain.SyncEvent) error {
	query := `
		INSERT INTO sync_events (id, kind, event_data, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	eventDataJSON, err := event.MarshalData()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.Kind,
		eventDataJSON,
		event.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create sync event", zap.Error(err))
		return err
	}

	return nil
}

func (r *syncEventRepository) List(ctx context.Context, limit int) ([]*domain.SyncEvent, error) {
	query := `
		SELECT id, kind, event_data, created_at
		FROM sync_events
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list sync events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []*domain.SyncEvent
	for rows.Next() {
		var event domain.SyncEvent
		var eventDataJSON []byte

		if err := rows.Scan(&event.ID, &event.Kind, &eventDataJSON, &event.CreatedAt); err != nil {
			return nil, err
		}

		if len(eventDataJSON) > 0 {
			if err := json.Unmarshal(eventDataJSON, &event.Data); err != nil {
				return nil, err
			}
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
