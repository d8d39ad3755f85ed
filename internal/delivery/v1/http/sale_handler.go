package http

import (
	"net/http"

	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
)

type SaleHandler struct {
	saleUsecase usecase.SaleUC
	logger      logger.Logger
}

func NewSaleHandler(saleUsecase usecase.SaleUC, logger logger.Logger) *SaleHandler {
	return &SaleHandler{saleUsecase: saleUsecase, logger: logger}
}

// createSale
//
//	@Summary		Оформление продажи
//	@Description	Фиксирует продажу: цены, списание остатков и строки в одной транзакции
//	@Tags			sales
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateSaleRequest	true	"Состав продажи"
//	@Success		201		{object}	CreateSaleResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации или нехватка остатка"
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/sales [post]
func (h *SaleHandler) createSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	sale, err := h.saleUsecase.CreateSale(r.Context(), req.toUseCase(mustActor(r)))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, CreateSaleResponse{SaleID: sale.ID, Sale: newSaleResponse(sale)})
}

// listSales
//
//	@Summary		Список продаж
//	@Description	Покупатель видит только свои продажи. Даты включительные, формат YYYY-MM-DD
//	@Tags			sales
//	@Produce		json
//	@Param			date_from	query		string	false	"Начальная дата"
//	@Param			date_to		query		string	false	"Конечная дата"
//	@Param			status		query		string	false	"completed|pending|cancelled"
//	@Param			customer_id	query		int		false	"Покупатель (только для персонала)"
//	@Param			limit		query		int		false	"Размер страницы"
//	@Param			offset		query		int		false	"Смещение"
//	@Success		200			{array}		SaleSummaryResponse
//	@Failure		400			{object}	ErrorResponse
//	@Router			/sales [get]
func (h *SaleHandler) listSales(w http.ResponseWriter, r *http.Request) {
	req := &usecase.ListSalesReq{Actor: mustActor(r), Status: r.URL.Query().Get("status")}

	var err error
	if req.DateFrom, err = parseDateQuery(r, "date_from"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if req.DateTo, err = parseDateQuery(r, "date_to"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if req.CustomerID, err = parseOptionalIDQuery(r, "customer_id"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if req.Limit, err = parseIntQuery(r, "limit"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if req.Offset, err = parseIntQuery(r, "offset"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	sales, err := h.saleUsecase.ListSales(r.Context(), req)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newSaleSummaries(sales))
}

// getSale
//
//	@Summary	Продажа по id
//	@Tags		sales
//	@Produce	json
//	@Param		id	path		int	true	"Id продажи"
//	@Success	200	{object}	SaleResponse
//	@Failure	403	{object}	ErrorResponse	"Чужая продажа"
//	@Failure	404	{object}	ErrorResponse
//	@Router		/sales/{id} [get]
func (h *SaleHandler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	sale, err := h.saleUsecase.GetSale(r.Context(), mustActor(r), id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newSaleResponse(sale))
}

// cancelSale
//
//	@Summary		Отмена продажи
//	@Description	Возвращает товары на склад. Повторная отмена даёт 409
//	@Tags			sales
//	@Produce		json
//	@Param			id	path		int	true	"Id продажи"
//	@Success		200	{object}	SaleResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Продажа уже отменена"
//	@Router			/sales/{id}/cancel [put]
func (h *SaleHandler) cancelSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	sale, err := h.saleUsecase.CancelSale(r.Context(), mustActor(r), id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newSaleResponse(sale))
}
