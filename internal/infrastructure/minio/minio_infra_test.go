package minio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/cfg"
	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageRepo struct {
	mu        sync.Mutex
	uploaded  []*domain.Image
	deletes   map[string]int
	failFirst int
}

func (f *fakeImageRepo) Upload(_ context.Context, image *domain.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, image)
	return image.ObjectKey, nil
}

func (f *fakeImageRepo) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deletes == nil {
		f.deletes = map[string]int{}
	}
	f.deletes[key]++
	if f.deletes[key] <= f.failFirst {
		return errors.New("connection reset")
	}
	return nil
}

func newInfra(repo *fakeImageRepo) *MinioInfrastructure {
	m := NewMinioInfrastructure(repo, &cfg.MinIOCfg{MaxImageSize: 8, CleanupRetries: 3}, logger.NewNop(), context.Background())
	m.retryBase = time.Millisecond
	return m
}

func TestUploadImage_KeyLayout(t *testing.T) {
	repo := &fakeImageRepo{}
	m := newInfra(repo)

	res, err := m.UploadImage(context.Background(), usecase.NewUploadImageReq(42, usecase.ProductImage{
		Data: []byte("png!"), MimeType: "image/png", Name: "a.png",
	}))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Key, "products/42/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	require.Len(t, repo.uploaded, 1)
	assert.Equal(t, int64(4), repo.uploaded[0].Size)
	assert.Equal(t, "image/png", repo.uploaded[0].MimeType)
}

func TestUploadImage_Rejects(t *testing.T) {
	m := newInfra(&fakeImageRepo{})
	ctx := context.Background()

	_, err := m.UploadImage(ctx, usecase.NewUploadImageReq(1, usecase.ProductImage{Data: []byte("x"), MimeType: "text/plain"}))
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)

	_, err = m.UploadImage(ctx, usecase.NewUploadImageReq(1, usecase.ProductImage{MimeType: "image/png"}))
	assert.ErrorIs(t, err, e.ErrNoImage)

	_, err = m.UploadImage(ctx, usecase.NewUploadImageReq(1, usecase.ProductImage{Data: []byte("123456789"), MimeType: "image/png"}))
	assert.ErrorIs(t, err, e.ErrFileTooLarge)
}

func TestCleanupImages_RetriesUntilDeleted(t *testing.T) {
	repo := &fakeImageRepo{failFirst: 2}
	m := newInfra(repo)

	m.CleanupImages([]string{"products/1/a.png", "products/1/b.png"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.WaitForCleanup(ctx))

	assert.Equal(t, 3, repo.deletes["products/1/a.png"])
	assert.Equal(t, 3, repo.deletes["products/1/b.png"])
}

func TestCleanupImages_GivesUp(t *testing.T) {
	repo := &fakeImageRepo{failFirst: 10}
	m := newInfra(repo)

	m.CleanupImages([]string{"products/1/a.png"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.WaitForCleanup(ctx))
	assert.Equal(t, 3, repo.deletes["products/1/a.png"])
}
