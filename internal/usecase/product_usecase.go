package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
)

// ProductUseCase реализует бизнес-логику каталога товаров.
type ProductUseCase struct {
	tx           Transactor
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	imagesInfra  ImagesInfra
	logger       logger.Logger
	cacheRepo    CacheRepository
}

func NewProductUC(
	tx Transactor,
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	imagesInfra ImagesInfra,
	logger logger.Logger,
	cacheRepo CacheRepository,
) *ProductUseCase {
	return &ProductUseCase{
		tx:           tx,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		imagesInfra:  imagesInfra,
		logger:       logger,
		cacheRepo:    cacheRepo,
	}
}

// ListProducts возвращает товары каталога. Неактивные товары видит только персонал.
func (p *ProductUseCase) ListProducts(ctx context.Context, actor domain.Actor, filter ProductFilter) ([]ProductInfo, error) {
	const op = "ProductUseCase.ListProducts"

	if !actor.IsStaff() {
		filter.IncludeInactive = false
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.CategoryName = strings.TrimSpace(filter.CategoryName)
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)

	products, err := p.productRepo.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// GetProduct возвращает товар через кэш. Неактивный товар для покупателя считается отсутствующим.
func (p *ProductUseCase) GetProduct(ctx context.Context, actor domain.Actor, productID int64) (*ProductInfo, error) {
	const op = "ProductUseCase.GetProduct"

	res, err := p.GetProductsInfo(ctx, NewGetProductsReq([]int64{productID}))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(res.Products) == 0 {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	product := res.Products[0]
	if !product.IsActive && !actor.IsStaff() {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	return &product, nil
}

// GetProductsInfo возвращает информацию о продуктах по их идентификаторам.
func (p *ProductUseCase) GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error) {
	const op = "ProductUseCase.GetProductsInfo"

	// Валидация
	if len(req.IDs) == 0 {
		return nil, e.Wrap(op, e.ErrInvalidProductID)
	}

	// Поиск продуктов в кэше
	cacheProductsMap, err := p.cacheRepo.GetProducts(ctx, req.IDs)
	var nonCacheable []int64
	if err != nil {
		cacheProductsMap = nil
		nonCacheable = append(nonCacheable, req.IDs...)
	} else {
		for _, productID := range req.IDs {
			if _, ok := cacheProductsMap[productID]; !ok {
				nonCacheable = append(nonCacheable, productID)
			}
		}
	}

	// Получение продуктов из БД
	var productsInfoFromDB []ProductInfo
	if len(nonCacheable) > 0 {
		// Поколения снимаются до чтения из БД: продажа, закоммиченная после чтения, отменит заполнение
		gens, genErr := p.cacheRepo.Generations(ctx, nonCacheable)
		if genErr != nil {
			p.logger.Warnf("Skipping product cache fill: %v", e.Wrap(op, genErr))
		}

		productsInfoFromDB, err = p.productRepo.GetProductsInfo(ctx, nonCacheable)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		// Фоновое добавление продуктов в кэш
		if len(productsInfoFromDB) > 0 && genErr == nil {
			toCache := productsInfoFromDB
			go func() {
				bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
				defer cancel()

				if err := p.cacheRepo.SetProducts(bgCtx, toCache, gens); err != nil {
					p.logger.Warnf("Failed to cache products in background: %v", e.Wrap(op, err))
				}
			}()
		}
	}

	dbProductsMap := make(map[int64]ProductInfo, len(productsInfoFromDB))
	for _, productInfo := range productsInfoFromDB {
		dbProductsMap[productInfo.ID] = productInfo
	}

	// Формирование результата
	result := make([]ProductInfo, 0, len(req.IDs))
	notFoundProducts := make([]int64, 0)
	for _, id := range req.IDs {
		if pr, ok := cacheProductsMap[id]; ok {
			result = append(result, pr)
		} else if pr, ok := dbProductsMap[id]; ok {
			result = append(result, pr)
		} else {
			notFoundProducts = append(notFoundProducts, id)
		}
	}

	return NewGetProductsRes(result, notFoundProducts), nil
}

// CreateProduct создаёт товар; категория создаётся идемпотентно по имени.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.CreateProduct"

	if !req.Actor.IsStaff() {
		return nil, e.Wrap(op, e.ErrStaffOnly)
	}

	if err := p.validateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var product *domain.Product
	err := p.tx.Do(ctx, func(ctx context.Context) error {
		category, err := p.categoryRepo.Create(ctx, domain.NewCategory(req.CategoryName))
		if err != nil {
			return err
		}

		product, err = p.productRepo.Create(ctx, domain.NewProduct(
			strings.TrimSpace(req.Name),
			strings.TrimSpace(req.Description),
			req.Price,
			req.Stock,
			category.ID,
		))
		if err != nil {
			return err
		}
		product.CategoryName = category.Name

		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.logger.Infof("product %d created by identity %d", product.ID, req.Actor.IdentityID)
	info := NewProductInfo(product)
	return &info, nil
}

// UpdateProduct частично обновляет товар и сбрасывает его кэш.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.UpdateProduct"

	if !req.Actor.IsStaff() {
		return nil, e.Wrap(op, e.ErrStaffOnly)
	}

	patch, err := p.validatePatch(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var product *domain.Product
	err = p.tx.Do(ctx, func(ctx context.Context) error {
		if req.CategoryName != nil {
			category, err := p.categoryRepo.Create(ctx, domain.NewCategory(*req.CategoryName))
			if err != nil {
				return err
			}
			patch.CategoryID = &category.ID
		}

		var err error
		product, err = p.productRepo.Update(ctx, req.ProductID, patch)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidate(ctx, product.ID)

	info := NewProductInfo(product)
	return &info, nil
}

// DeactivateProduct выполняет мягкое удаление товара.
func (p *ProductUseCase) DeactivateProduct(ctx context.Context, actor domain.Actor, productID int64) error {
	const op = "ProductUseCase.DeactivateProduct"

	if !actor.IsStaff() {
		return e.Wrap(op, e.ErrStaffOnly)
	}

	if err := p.productRepo.Deactivate(ctx, productID); err != nil {
		return e.Wrap(op, err)
	}

	p.invalidate(ctx, productID)
	p.logger.Infof("product %d deactivated by identity %d", productID, actor.IdentityID)

	return nil
}

// UploadProductImage сохраняет изображение в MinIO и привязывает его к товару.
// Если запись в БД не удалась, загруженный объект удаляется; после успеха удаляется предыдущий объект.
func (p *ProductUseCase) UploadProductImage(ctx context.Context, req *UploadProductImageReq) (*ProductInfo, error) {
	const op = "ProductUseCase.UploadProductImage"

	if !req.Actor.IsStaff() {
		return nil, e.Wrap(op, e.ErrStaffOnly)
	}

	if len(req.Image.Data) == 0 {
		return nil, e.Wrap(op, e.ErrNoImage)
	}

	// Товар должен существовать до загрузки объекта
	existing, err := p.productRepo.GetProductsInfo(ctx, []int64{req.ProductID})
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(existing) == 0 {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	uploaded, err := p.imagesInfra.UploadImage(ctx, NewUploadImageReq(req.ProductID, req.Image))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var previous *string
	err = p.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		previous, err = p.productRepo.SetImageKey(ctx, req.ProductID, uploaded.Key)
		return err
	})
	if err != nil {
		p.logger.Warnf(
			"Cleaning up orphaned image after transaction failure. product_id: %d, error: %v",
			req.ProductID,
			e.Wrap(op, err),
		)
		p.imagesInfra.CleanupImages([]string{uploaded.Key})
		return nil, e.Wrap(op, err)
	}

	if previous != nil && *previous != "" && *previous != uploaded.Key {
		p.imagesInfra.CleanupImages([]string{*previous})
	}

	p.invalidate(ctx, req.ProductID)

	product, err := p.GetProduct(ctx, req.Actor, req.ProductID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

// invalidate удаляет товар из кэша после изменения.
func (p *ProductUseCase) invalidate(ctx context.Context, id int64) {
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to delete products: %v", err)
	}
}

// validateProduct проверяет корректность входных данных запроса на добавление продукта.
func (p *ProductUseCase) validateProduct(req *CreateProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if strings.TrimSpace(req.CategoryName) == "" {
		return e.ErrCategoryRequired
	}

	if err := domain.ValidatePrice(req.Price); err != nil {
		return err
	}

	if err := domain.ValidateStock(req.Stock); err != nil {
		return err
	}

	return nil
}

// validatePatch проверяет частичное обновление и собирает патч для репозитория.
func (p *ProductUseCase) validatePatch(req *UpdateProductReq) (*ProductPatch, error) {
	patch := &ProductPatch{
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, e.ErrProductNameRequired
		}
		patch.Name = &name
	}

	if req.CategoryName != nil && strings.TrimSpace(*req.CategoryName) == "" {
		return nil, e.ErrCategoryRequired
	}

	if req.Price != nil {
		if err := domain.ValidatePrice(*req.Price); err != nil {
			return nil, err
		}
	}

	if req.Stock != nil && domain.ValidateStock(*req.Stock) != nil {
		return nil, e.ErrInvalidStock
	}

	if patch.IsEmpty() && req.CategoryName == nil {
		return nil, e.ErrNothingToUpdate
	}

	return patch, nil
}
