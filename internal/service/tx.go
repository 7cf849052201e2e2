package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/veilpost/dsa-core/internal/repository"
)

// TxRepos bundles the repositories bound to one open transaction. Writes
// made through them commit or roll back together.
type TxRepos struct {
	Notices   repository.NoticeRepository
	Decisions repository.DecisionRepository
	Appeals   repository.AppealRepository
	Audit     AuditService
}

// TxManager runs fn inside a database transaction, handing it repositories
// scoped to that transaction.
type TxManager interface {
	InTx(ctx context.Context, fn func(r TxRepos) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) InTx(ctx context.Context, fn func(r TxRepos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepos{
			Notices:   repository.NewNoticeRepository(tx),
			Decisions: repository.NewDecisionRepository(tx),
			Appeals:   repository.NewAppealRepository(tx),
			Audit:     NewAuditService(repository.NewAuditRepository(tx)),
		})
	})
}
