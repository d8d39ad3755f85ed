package http

import (
	"net/http"
	"strconv"

	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
	maxImageSize   int64
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger, maxImageSize int64) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger, maxImageSize: maxImageSize}
}

// listProducts
//
//	@Summary	Каталог товаров
//	@Tags		products
//	@Produce	json
//	@Param		search		query		string	false	"Поиск по названию"
//	@Param		category	query		string	false	"Категория"
//	@Param		inactive	query		bool	false	"Показывать неактивные (только персонал)"
//	@Param		limit		query		int		false	"Размер страницы"
//	@Param		offset		query		int		false	"Смещение"
//	@Success	200			{array}		ProductResponse
//	@Router		/products [get]
func (h *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := usecase.ProductFilter{
		Search:       q.Get("search"),
		CategoryName: q.Get("category"),
	}
	filter.IncludeInactive, _ = strconv.ParseBool(q.Get("inactive"))

	var err error
	if filter.Limit, err = parseIntQuery(r, "limit"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if filter.Offset, err = parseIntQuery(r, "offset"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	products, err := h.productUsecase.ListProducts(r.Context(), mustActor(r), filter)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponses(products))
}

// getProduct
//
//	@Summary	Товар по id
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"Id товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (h *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	product, err := h.productUsecase.GetProduct(r.Context(), mustActor(r), id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(product))
}

// createProduct
//
//	@Summary	Создание товара
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateProductRequest	true	"Товар"
//	@Success	201		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	403		{object}	ErrorResponse
//	@Router		/products [post]
func (h *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	product, err := h.productUsecase.CreateProduct(r.Context(), &usecase.CreateProductReq{
		Actor:        mustActor(r),
		Name:         req.Name,
		Description:  req.Description,
		CategoryName: req.CategoryName,
		Price:        req.Price,
		Stock:        req.Stock,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, newProductResponse(product))
}

// updateProduct
//
//	@Summary	Частичное обновление товара
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int						true	"Id товара"
//	@Param		request	body		UpdateProductRequest	true	"Изменения"
//	@Success	200		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/products/{id} [patch]
func (h *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	var req UpdateProductRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	product, err := h.productUsecase.UpdateProduct(r.Context(), &usecase.UpdateProductReq{
		Actor:        mustActor(r),
		ProductID:    id,
		Name:         req.Name,
		Description:  req.Description,
		CategoryName: req.CategoryName,
		Price:        req.Price,
		Stock:        req.Stock,
		IsActive:     req.IsActive,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(product))
}

// deactivateProduct
//
//	@Summary		Снятие товара с продажи
//	@Description	Товар остаётся в истории продаж, но исчезает из каталога
//	@Tags			products
//	@Param			id	path	int	true	"Id товара"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/products/{id} [delete]
func (h *ProductHandler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	if err := h.productUsecase.DeactivateProduct(r.Context(), mustActor(r), id); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadImage
//
//	@Summary	Загрузка изображения товара
//	@Tags		products
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id		path		int		true	"Id товара"
//	@Param		image	formData	file	true	"Изображение (jpeg, png, webp)"
//	@Success	200		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/products/{id}/image [put]
func (h *ProductHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 8 << 20

	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	// запас на заголовки multipart
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+(1<<20))
	if err := ensureMultipartForm(r, maxMemory); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	image, err := parseImage(r.MultipartForm, h.maxImageSize)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	product, err := h.productUsecase.UploadProductImage(r.Context(), &usecase.UploadProductImageReq{
		Actor:     mustActor(r),
		ProductID: id,
		Image:     *image,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(product))
}
