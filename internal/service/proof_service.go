package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/metrics"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/queue"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/storage"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	defaultProofMaxSize = 5 * 1024 * 1024
	orphanGracePeriod   = time.Hour
)

// TaskQueue 异步任务投递
type TaskQueue interface {
	Enabled() bool
	EnqueueProofCleanup(payload queue.ProofCleanupPayload, opts ...asynq.Option) error
	EnqueueWithdrawalNotify(payload queue.WithdrawalNotifyPayload, opts ...asynq.Option) error
	EnqueueUpgradeNotify(payload queue.UpgradeNotifyPayload, opts ...asynq.Option) error
}

// ProofFile 待存储的付款凭证
type ProofFile struct {
	Content io.ReadSeeker
	Size    int64
}

// StoredProof 已存储的凭证信息
type StoredProof struct {
	Key         string
	ContentType string
	Size        int64
}

// ProofService 付款凭证管道：校验、存储、限时链接、孤立清理
type ProofService struct {
	cfg       config.StorageConfig
	store     storage.BlobStore
	reconRepo repository.ReconciliationRepository
	queue     TaskQueue
	retrier   *Retrier
	now       func() time.Time
}

// NewProofService 创建凭证服务
func NewProofService(
	cfg config.StorageConfig,
	store storage.BlobStore,
	reconRepo repository.ReconciliationRepository,
	taskQueue TaskQueue,
	retrier *Retrier,
) *ProofService {
	return &ProofService{
		cfg:       cfg,
		store:     store,
		reconRepo: reconRepo,
		queue:     taskQueue,
		retrier:   retrier,
		now:       time.Now,
	}
}

// Store 校验并写入凭证，返回存储键
func (s *ProofService) Store(ctx context.Context, userID uint, scene string, file *ProofFile) (*StoredProof, error) {
	if file == nil || file.Content == nil || file.Size <= 0 {
		return nil, newValidationErrorWith("screenshot", "error.proof_required", ErrProofRequired)
	}
	contentType, err := s.inspect(file)
	if err != nil {
		return nil, err
	}
	var key string
	err = s.retrier.Do(ctx, "proof_upload", func(ctx context.Context) error {
		if _, err := file.Content.Seek(0, io.SeekStart); err != nil {
			return err
		}
		key = s.buildKey(scene, userID, contentType)
		return s.store.Upload(ctx, key, file.Content, file.Size)
	})
	if err != nil {
		return nil, &StorageError{Op: "upload", Key: key, Err: err}
	}
	metrics.ProofUploadBytes.WithLabelValues(scene).Observe(float64(file.Size))
	return &StoredProof{Key: key, ContentType: contentType, Size: file.Size}, nil
}

// Link 为存储键生成限时访问链接
func (s *ProofService) Link(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", nil
	}
	var link string
	err := s.retrier.Do(ctx, "proof_link", func(ctx context.Context) error {
		var err error
		link, err = s.store.CreateTimeBoundedLink(ctx, key, s.cfg.LinkTTL())
		return err
	})
	if err != nil {
		return "", &StorageError{Op: "link", Key: key, Err: err}
	}
	return link, nil
}

// Open 通过限时令牌读取凭证
func (s *ProofService) Open(ctx context.Context, token string) (io.ReadCloser, string, error) {
	key, err := s.store.ResolveLink(ctx, token)
	if err != nil {
		return nil, "", err
	}
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return rc, contentTypeForKey(key), nil
}

// MarkOrphaned 记录插入失败后遗留的凭证，并投递清理任务
func (s *ProofService) MarkOrphaned(ctx context.Context, userID uint, key string, cause error) {
	log := logger.FromContext(ctx)
	log.Warnw("proof_orphaned",
		"user_id", userID,
		"blob_key", key,
		"error", cause,
	)
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	item := &models.ReconciliationItem{
		Kind:    constants.ReconciliationKindOrphanProof,
		UserID:  userID,
		BlobKey: key,
		Detail:  detail,
	}
	recordCtx := context.WithoutCancel(ctx)
	if err := s.reconRepo.WithContext(recordCtx).Create(item); err != nil {
		log.Errorw("proof_orphan_record_failed", "blob_key", key, "error", err)
	} else {
		metrics.ReconciliationItems.WithLabelValues(item.Kind).Inc()
	}

	payload := queue.ProofCleanupPayload{BlobKey: key, ReconciliationID: item.ID}
	if s.queue != nil && s.queue.Enabled() {
		err := s.queue.EnqueueProofCleanup(payload)
		if err == nil {
			return
		}
		log.Warnw("proof_cleanup_enqueue_failed", "blob_key", key, "error", err)
	}
	if err := s.Cleanup(recordCtx, payload.BlobKey, payload.ReconciliationID); err != nil {
		log.Warnw("proof_cleanup_inline_failed", "blob_key", key, "error", err)
	}
}

// Cleanup 删除孤立凭证并关闭对应对账事项
func (s *ProofService) Cleanup(ctx context.Context, key string, reconciliationID uint) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	repo := s.reconRepo.WithContext(ctx)
	if reconciliationID == 0 {
		item, err := repo.GetOpenByBlobKey(constants.ReconciliationKindOrphanProof, key)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		reconciliationID = item.ID
	}
	if _, err := repo.MarkResolved(reconciliationID, s.now()); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("proof_cleanup_done", "blob_key", key, "reconciliation_id", reconciliationID)
	return nil
}

// ScanOrphans 扫描未被任何记录引用的凭证（超过宽限期），记录并删除
func (s *ProofService) ScanOrphans(ctx context.Context, referenced map[string]struct{}) (int, error) {
	cutoff := s.now().Add(-orphanGracePeriod)
	removed := 0
	for _, scene := range []string{constants.ProofSceneWithdrawal, constants.ProofSceneUpgrade} {
		items, err := s.store.List(ctx, scene)
		if err != nil {
			return removed, &StorageError{Op: "list", Key: scene, Err: err}
		}
		for _, item := range items {
			if _, ok := referenced[item.Key]; ok {
				continue
			}
			if item.UpdatedAt.After(cutoff) {
				continue
			}
			userID := userIDFromProofKey(item.Key)
			existing, err := s.reconRepo.WithContext(ctx).GetOpenByBlobKey(constants.ReconciliationKindOrphanProof, item.Key)
			if err != nil {
				return removed, err
			}
			var reconciliationID uint
			if existing != nil {
				reconciliationID = existing.ID
			} else {
				record := &models.ReconciliationItem{
					Kind:    constants.ReconciliationKindOrphanProof,
					UserID:  userID,
					BlobKey: item.Key,
					Detail:  "unreferenced proof found by scan",
				}
				if err := s.reconRepo.WithContext(ctx).Create(record); err != nil {
					return removed, err
				}
				metrics.ReconciliationItems.WithLabelValues(record.Kind).Inc()
				reconciliationID = record.ID
			}
			if err := s.Cleanup(ctx, item.Key, reconciliationID); err != nil {
				logger.FromContext(ctx).Warnw("proof_orphan_scan_cleanup_failed", "blob_key", item.Key, "error", err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}

func (s *ProofService) inspect(file *ProofFile) (string, error) {
	maxSize := s.cfg.MaxSize
	if maxSize <= 0 {
		maxSize = defaultProofMaxSize
	}
	if file.Size > maxSize {
		return "", newValidationErrorWith("screenshot", "error.proof_too_large", ErrProofTooLarge)
	}

	src := file.Content
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	buffer := make([]byte, 512)
	n, err := io.ReadFull(src, buffer)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	contentType := http.DetectContentType(buffer[:n])
	if !s.isAllowedType(contentType) {
		return "", newValidationErrorWith("screenshot", "error.proof_invalid", fmt.Errorf("%w: %s", ErrProofInvalid, contentType))
	}

	width, height, err := decodeImageDimensions(src, contentType)
	if err != nil {
		return "", newValidationErrorWith("screenshot", "error.proof_invalid", fmt.Errorf("%w: %v", ErrProofInvalid, err))
	}
	if width <= 0 || height <= 0 ||
		(s.cfg.MaxWidth > 0 && width > s.cfg.MaxWidth) ||
		(s.cfg.MaxHeight > 0 && height > s.cfg.MaxHeight) {
		return "", newValidationErrorWith("screenshot", "error.proof_invalid", ErrProofInvalid)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return contentType, nil
}

func (s *ProofService) isAllowedType(contentType string) bool {
	if _, ok := proofExtensions[contentType]; !ok {
		return false
	}
	if len(s.cfg.AllowedTypes) == 0 {
		return true
	}
	for _, t := range s.cfg.AllowedTypes {
		if strings.EqualFold(contentType, strings.TrimSpace(t)) {
			return true
		}
	}
	return false
}

// buildKey 生成 {scene}/{userID}/{毫秒}-{uuid}{ext}
func (s *ProofService) buildKey(scene string, userID uint, contentType string) string {
	return fmt.Sprintf("%s/%d/%d-%s%s", normalizeProofScene(scene), userID, s.now().UnixMilli(), uuid.NewString(), proofExtensions[contentType])
}

func normalizeProofScene(scene string) string {
	switch strings.TrimSpace(scene) {
	case constants.ProofSceneUpgrade:
		return constants.ProofSceneUpgrade
	default:
		return constants.ProofSceneWithdrawal
	}
}

func userIDFromProofKey(key string) uint {
	parts := strings.Split(key, "/")
	if len(parts) < 3 {
		return 0
	}
	var id uint
	if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil {
		return 0
	}
	return id
}

func contentTypeForKey(key string) string {
	lower := strings.ToLower(key)
	for contentType, ext := range proofExtensions {
		if strings.HasSuffix(lower, ext) {
			return contentType
		}
	}
	return "application/octet-stream"
}
