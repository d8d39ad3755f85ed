package generated

import (
	"github.com/DRSN-tech/sales-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
)

type ProductInfoConverterImpl struct{}

func NewProductInfoConverterImpl() *ProductInfoConverterImpl { return &ProductInfoConverterImpl{} }

func (c *ProductInfoConverterImpl) ToRedisModel(source *usecase.ProductInfo) *converter.ProductInfoRedisModel {
	if source == nil {
		return nil
	}
	return &converter.ProductInfoRedisModel{
		ID:           source.ID,
		Name:         source.Name,
		Description:  source.Description,
		CategoryName: source.CategoryName,
		Price:        source.Price,
		Stock:        source.Stock,
		IsActive:     source.IsActive,
		ImageKey:     source.ImageKey,
		CreatedAt:    converter.CacheTime(source.CreatedAt),
		UpdatedAt:    converter.CachePointerTime(source.UpdatedAt),
	}
}

func (c *ProductInfoConverterImpl) ToUseCase(source *converter.ProductInfoRedisModel) *usecase.ProductInfo {
	if source == nil {
		return nil
	}
	return &usecase.ProductInfo{
		ID:           source.ID,
		Name:         source.Name,
		Description:  source.Description,
		CategoryName: source.CategoryName,
		Price:        source.Price,
		Stock:        source.Stock,
		IsActive:     source.IsActive,
		ImageKey:     source.ImageKey,
		CreatedAt:    converter.CacheTime(source.CreatedAt),
		UpdatedAt:    converter.CachePointerTime(source.UpdatedAt),
	}
}

func (c *ProductInfoConverterImpl) ToArrRedisModel(source []usecase.ProductInfo) []converter.ProductInfoRedisModel {
	if source == nil {
		return nil
	}
	out := make([]converter.ProductInfoRedisModel, len(source))
	for i := range source {
		out[i] = *c.ToRedisModel(&source[i])
	}
	return out
}

func (c *ProductInfoConverterImpl) ToArrUseCase(source []converter.ProductInfoRedisModel) []usecase.ProductInfo {
	if source == nil {
		return nil
	}
	out := make([]usecase.ProductInfo, len(source))
	for i := range source {
		out[i] = *c.ToUseCase(&source[i])
	}
	return out
}
