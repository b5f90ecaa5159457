package service

import (
	"context"
	"time"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/repository"
)

// ReconciliationService 对账事项服务
type ReconciliationService struct {
	repo           repository.ReconciliationRepository
	withdrawalRepo repository.WithdrawalRepository
	upgradeRepo    repository.UpgradeRepository
	proofSvc       *ProofService
	now            func() time.Time
}

// NewReconciliationService 创建对账事项服务
func NewReconciliationService(
	repo repository.ReconciliationRepository,
	withdrawalRepo repository.WithdrawalRepository,
	upgradeRepo repository.UpgradeRepository,
	proofSvc *ProofService,
) *ReconciliationService {
	return &ReconciliationService{
		repo:           repo,
		withdrawalRepo: withdrawalRepo,
		upgradeRepo:    upgradeRepo,
		proofSvc:       proofSvc,
		now:            time.Now,
	}
}

// List 查询对账事项
func (s *ReconciliationService) List(ctx context.Context, filter repository.ReconciliationListFilter) ([]models.ReconciliationItem, int64, error) {
	rows, total, err := s.repo.WithContext(ctx).List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return rows, total, nil
}

// Resolve 标记对账事项已处理；孤立凭证同时删除文件
func (s *ReconciliationService) Resolve(ctx context.Context, adminID, id uint) (*models.ReconciliationItem, error) {
	repo := s.repo.WithContext(ctx)
	item, err := repo.GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if item == nil {
		return nil, ErrReconciliationNotFound
	}
	if item.Status != constants.ReconciliationStatusOpen {
		return nil, ErrReconciliationResolved
	}

	if item.Kind == constants.ReconciliationKindOrphanProof && item.BlobKey != "" && s.proofSvc != nil {
		if err := s.proofSvc.Cleanup(ctx, item.BlobKey, item.ID); err != nil {
			return nil, err
		}
	} else {
		affected, err := repo.MarkResolved(item.ID, s.now())
		if err != nil {
			return nil, wrapPersistence(err)
		}
		if affected == 0 {
			return nil, ErrReconciliationResolved
		}
	}

	logger.FromContext(ctx).Infow("reconciliation_resolved",
		"reconciliation_id", item.ID,
		"kind", item.Kind,
		"admin_id", adminID,
	)
	return repo.GetByID(item.ID)
}

// SweepOrphanProofs 清理未被提现或升级记录引用的凭证文件
func (s *ReconciliationService) SweepOrphanProofs(ctx context.Context) (int, error) {
	referenced := make(map[string]struct{})
	withdrawalKeys, err := s.withdrawalRepo.WithContext(ctx).ListProofKeys()
	if err != nil {
		return 0, wrapPersistence(err)
	}
	upgradeKeys, err := s.upgradeRepo.WithContext(ctx).ListProofKeys()
	if err != nil {
		return 0, wrapPersistence(err)
	}
	for _, key := range withdrawalKeys {
		referenced[key] = struct{}{}
	}
	for _, key := range upgradeKeys {
		referenced[key] = struct{}{}
	}
	removed, err := s.proofSvc.ScanOrphans(ctx, referenced)
	if removed > 0 {
		logger.FromContext(ctx).Infow("proof_orphan_sweep_done", "removed", removed)
	}
	return removed, err
}
