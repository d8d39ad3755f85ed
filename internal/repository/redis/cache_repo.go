package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/cfg"
	"github.com/DRSN-tech/sales-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/clients"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix    = "sales:product:"
	generationKeyPrefix = "sales:product-gen:"
	// generationTTL много больше времени одного заполнения кэша, поэтому сброс счётчика по TTL безопасен
	generationTTL = 24 * time.Hour
)

// setIfGenerationScript пишет карточку, только если поколение товара равно ожидаемому.
var setIfGenerationScript = goredis.NewScript(`
local written = 0
for i = 1, #KEYS, 2 do
	local k = (i + 1) / 2
	local current = tonumber(redis.call('GET', KEYS[i + 1]) or '0')
	if current == tonumber(ARGV[2 * k]) then
		redis.call('SET', KEYS[i], ARGV[2 * k + 1], 'PX', ARGV[1])
		written = written + 1
	end
end
return written
`)

// CacheRepo кэширует карточки товаров. Кэш не участвует в продаже: остатки и цены читаются только из БД.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductInfoConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductInfoConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProducts возвращает закэшированные товары по ID. Промахи и битые записи пропускаются.
func (r *CacheRepo) GetProducts(ctx context.Context, ids []int64) (map[int64]usecase.ProductInfo, error) {
	result := make(map[int64]usecase.ProductInfo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := buildProductCacheKeys(ids)

	values, err := r.client.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var stale []string
	for i, val := range values {
		data, err := redisValueToBytes(val, keys[i])
		if err != nil {
			r.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		}

		if data == nil {
			continue // cache miss
		}

		model, err := unmarshalProductFromCache(data)
		if err != nil {
			r.logger.Warnf("Redis unmarshal failed for %s: %v", keys[i], e.Wrap(whereami.WhereAmI(), err))
			stale = append(stale, keys[i])
			continue
		}

		if model.ID != ids[i] {
			r.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", ids[i], model.ID)
			stale = append(stale, keys[i])
			continue
		}
		result[ids[i]] = *r.conv.ToUseCase(model)
	}

	if len(stale) > 0 {
		if err := r.client.Client.Del(context.WithoutCancel(ctx), stale...).Err(); err != nil {
			r.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
	}

	return result, nil
}

// Generations возвращает поколения записей. Снимать их нужно до чтения товаров из БД:
// SetProducts запишет только те товары, чьё поколение с тех пор не изменилось.
func (r *CacheRepo) Generations(ctx context.Context, ids []int64) (map[int64]int64, error) {
	gens := make(map[int64]int64, len(ids))
	if len(ids) == 0 {
		return gens, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = generationKey(id)
	}

	values, err := r.client.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	for i, val := range values {
		gen, err := parseGeneration(val)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		gens[ids[i]] = gen
	}

	return gens, nil
}

// SetProducts кэширует товары одним скриптом: запись, чьё поколение успел увеличить DeleteProducts,
// пропускается, чтобы прочитанная до продажи карточка не вернулась в кэш.
func (r *CacheRepo) SetProducts(ctx context.Context, products []usecase.ProductInfo, gens map[int64]int64) error {
	if len(products) == 0 {
		return nil
	}

	keys, args := r.fillArgs(r.conv.ToArrRedisModel(products), gens)
	if len(keys) == 0 {
		return nil
	}

	written, err := setIfGenerationScript.Run(ctx, r.client.Client, keys, args...).Int()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if skipped := len(keys)/2 - written; skipped > 0 {
		r.logger.Debugf("Skipped %d product cache entries invalidated during fill", skipped)
	}

	return nil
}

// DeleteProducts инвалидирует карточки товаров после изменения остатков или цены и увеличивает их поколение.
func (r *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.client.Client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, buildProductCacheKeys(ids)...)
		for _, id := range ids {
			pipe.Incr(ctx, generationKey(id))
			pipe.Expire(ctx, generationKey(id), generationTTL)
		}
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// fillArgs раскладывает товары в KEYS/ARGV скрипта: KEYS парами (карточка, поколение),
// ARGV[1] = TTL в миллисекундах, затем парами (ожидаемое поколение, данные).
func (r *CacheRepo) fillArgs(models []converter.ProductInfoRedisModel, gens map[int64]int64) ([]string, []interface{}) {
	keys := make([]string, 0, len(models)*2)
	args := make([]interface{}, 0, len(models)*2+1)
	args = append(args, r.cfg.ProductTTL.Milliseconds())

	for _, model := range models {
		data, err := marshalProductForCache(model)
		if err != nil {
			r.logger.Warnf("Failed to marshal product for caching (Product ID: %d): %v", model.ID, e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		keys = append(keys, productKey(model.ID), generationKey(model.ID))
		args = append(args, gens[model.ID], data)
	}

	return keys, args
}

func marshalProductForCache(model converter.ProductInfoRedisModel) ([]byte, error) {
	return json.Marshal(model)
}

func unmarshalProductFromCache(data []byte) (*converter.ProductInfoRedisModel, error) {
	var model converter.ProductInfoRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}

func buildProductCacheKeys(ids []int64) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	return keys
}

func productKey(id int64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, id)
}

func generationKey(id int64) string {
	return fmt.Sprintf("%s%d", generationKeyPrefix, id)
}

// parseGeneration разбирает значение счётчика из MGET. Отсутствующий счётчик равен нулю.
func parseGeneration(val interface{}) (int64, error) {
	switch v := val.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected Redis value type for generation: %T", val)
	}
}

// redisValueToBytes конвертирует значение из MGET в []byte. nil означает промах.
func redisValueToBytes(val interface{}, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
