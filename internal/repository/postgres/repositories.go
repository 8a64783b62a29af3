package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Ledger:    NewLedgerRepository(db, logger),
		SyncEvent: NewSyncEventRepository(db, logger),
	}
}
