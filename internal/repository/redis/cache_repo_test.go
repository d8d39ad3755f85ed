package redis

import (
	"testing"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/cfg"
	"github.com/DRSN-tech/sales-backend/internal/repository/redis/converter/generated"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisValueToBytes(t *testing.T) {
	tests := []struct {
		name    string
		val     interface{}
		want    []byte
		wantErr bool
	}{
		{name: "string", val: `{"id":1}`, want: []byte(`{"id":1}`)},
		{name: "bytes", val: []byte("x"), want: []byte("x")},
		{name: "miss", val: nil, want: nil},
		{name: "unexpected", val: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := redisValueToBytes(tt.val, "sales:product:1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildProductCacheKeys(t *testing.T) {
	assert.Equal(t, []string{"sales:product:3", "sales:product:11"}, buildProductCacheKeys([]int64{3, 11}))
	assert.Empty(t, buildProductCacheKeys(nil))
}

func TestCachedProductKeepsExactPrice(t *testing.T) {
	conv := generated.NewProductInfoConverterImpl()
	key := "products/7/a.png"
	info := usecase.ProductInfo{
		ID:           7,
		Name:         "Coffee",
		CategoryName: "Drinks",
		Price:        decimal.RequireFromString("45.10"),
		Stock:        3,
		IsActive:     true,
		ImageKey:     &key,
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := marshalProductForCache(*conv.ToRedisModel(&info))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":"45.1"`)

	model, err := unmarshalProductFromCache(data)
	require.NoError(t, err)
	got := conv.ToUseCase(model)
	assert.True(t, info.Price.Equal(got.Price))
	assert.Equal(t, "45.10", got.Price.StringFixed(2))
	assert.Equal(t, key, *got.ImageKey)
	assert.Nil(t, got.UpdatedAt)
}

func TestUnmarshalProductFromCache_Garbage(t *testing.T) {
	_, err := unmarshalProductFromCache([]byte("not json"))
	assert.Error(t, err)
}

func TestParseGeneration(t *testing.T) {
	gen, err := parseGeneration(nil)
	require.NoError(t, err)
	assert.Zero(t, gen)

	gen, err = parseGeneration("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), gen)

	_, err = parseGeneration("abc")
	assert.Error(t, err)

	_, err = parseGeneration(7)
	assert.Error(t, err)
}

func TestCacheRepo_FillArgsPairsKeysWithGenerations(t *testing.T) {
	repo := &CacheRepo{
		conv:   generated.NewProductInfoConverterImpl(),
		cfg:    &cfg.RedisCfg{ProductTTL: 3 * time.Minute},
		logger: logger.NewNop(),
	}
	products := []usecase.ProductInfo{
		{ID: 7, Name: "Coffee", Price: decimal.RequireFromString("45.00"), Stock: 48, IsActive: true},
		{ID: 9, Name: "Tea", Price: decimal.RequireFromString("2.50"), Stock: 10, IsActive: true},
	}

	keys, args := repo.fillArgs(repo.conv.ToArrRedisModel(products), map[int64]int64{7: 3})

	assert.Equal(t, []string{
		"sales:product:7", "sales:product-gen:7",
		"sales:product:9", "sales:product-gen:9",
	}, keys)
	require.Len(t, args, 5)
	assert.Equal(t, int64(180000), args[0])
	assert.Equal(t, int64(3), args[1])
	assert.Equal(t, int64(0), args[3], "product without snapshot expects a fresh counter")

	cached, err := unmarshalProductFromCache(args[2].([]byte))
	require.NoError(t, err)
	assert.Equal(t, 48, cached.Stock)
}
