package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/cfg"
	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/infrastructure"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/jitter"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	cleanupTimeout    = 30 * time.Second
	cleanupMaxBackoff = 8 * time.Second
)

// MinioInfrastructure управляет загрузкой и фоновой очисткой изображений товаров.
type MinioInfrastructure struct {
	minioRepo   usecase.ImageRepository
	cfg         *cfg.MinIOCfg
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	retryBase   time.Duration
}

func NewMinioInfrastructure(minioRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	return &MinioInfrastructure{
		minioRepo:   minioRepo,
		cfg:         cfg,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		retryBase:   time.Second,
	}
}

// UploadImage проверяет тип и размер изображения и кладёт его под ключом products/{id}/{uuid}.{ext}.
func (m *MinioInfrastructure) UploadImage(ctx context.Context, req *usecase.UploadImageReq) (*usecase.UploadImageRes, error) {
	const op = "MinioInfrastructure.UploadImage"

	ext, err := infrastructure.GetExtensionFromMIME(req.Image.MimeType)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("invalid mime type %s for %s: %w", req.Image.MimeType, req.Image.Name, err))
	}

	size := int64(len(req.Image.Data))
	if size == 0 {
		return nil, e.Wrap(op, e.ErrNoImage)
	}
	if m.cfg.MaxImageSize > 0 && size > m.cfg.MaxImageSize {
		return nil, e.Wrap(op, e.ErrFileTooLarge)
	}

	objKey := fmt.Sprintf("products/%d/%s.%s", req.ProductID, uuid.NewString(), ext)
	key, err := m.minioRepo.Upload(ctx, domain.NewImage(objKey, req.Image.Data, size, req.Image.MimeType))
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("upload %s failed: %w", req.Image.Name, err))
	}

	return usecase.NewUploadImageRes(key), nil
}

// CleanupImages запускает фоновое удаление указанных объектов.
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет объекты с экспоненциальной задержкой и jitter между попытками.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done()
	const op = "MinioInfrastructure.cleanupUploadedKeys"

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	attempts := m.cfg.CleanupRetries
	if attempts < 1 {
		attempts = 1
	}

	for _, key := range keys {
		for attempt := 0; attempt < attempts; attempt++ {
			err := m.minioRepo.Delete(ctx, key)
			if err == nil {
				m.logger.Debugf("%s: removed %s", op, key)
				break
			}

			if attempt == attempts-1 {
				m.logger.Errorf(err, "%s: giving up on %s", op, key)
				break
			}

			select {
			case <-time.After(jitter.ExponentialBackoff(m.retryBase, cleanupMaxBackoff, attempt, jitter.DefaultJitter)):
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает фоновые очистки с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
