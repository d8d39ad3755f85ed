//go:generate goverter gen github.com/DRSN-tech/sales-backend/internal/repository/redis/converter

package converter

import (
	"time"

	"github.com/DRSN-tech/sales-backend/internal/usecase"
)

// ProductInfoConverter переводит карточку товара каталога продаж в запись кэша и обратно.
// Остаток и цена в кэше служат только для витрины: продажа их не читает.
//
// goverter:converter
// goverter:output:package github.com/DRSN-tech/sales-backend/internal/repository/redis/converter/generated
// goverter:extend CacheTime
// goverter:extend CachePointerTime
type ProductInfoConverter interface {
	// ToRedisModel готовит карточку к записи в кэш.
	ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel
	// ToUseCase восстанавливает карточку, прочитанную из кэша.
	ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo
	ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel
	ToArrUseCase(models []ProductInfoRedisModel) []usecase.ProductInfo
}

// CacheTime приводит время к UTC, чтобы запись кэша не зависела от часового пояса пула.
func CacheTime(t time.Time) time.Time {
	return t.UTC()
}

func CachePointerTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
