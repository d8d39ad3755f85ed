package http

import (
	"net/http"

	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
)

type CustomerHandler struct {
	customerUsecase usecase.CustomerUC
	logger          logger.Logger
}

func NewCustomerHandler(customerUsecase usecase.CustomerUC, logger logger.Logger) *CustomerHandler {
	return &CustomerHandler{customerUsecase: customerUsecase, logger: logger}
}

// listCustomers
//
//	@Summary	Список покупателей
//	@Tags		customers
//	@Produce	json
//	@Param		search	query		string	false	"Поиск по имени или email"
//	@Param		limit	query		int		false	"Размер страницы"
//	@Param		offset	query		int		false	"Смещение"
//	@Success	200		{array}		CustomerResponse
//	@Failure	403		{object}	ErrorResponse
//	@Router		/customers [get]
func (h *CustomerHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	req := &usecase.ListCustomersReq{Actor: mustActor(r), Search: r.URL.Query().Get("search")}

	var err error
	if req.Limit, err = parseIntQuery(r, "limit"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if req.Offset, err = parseIntQuery(r, "offset"); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	customers, err := h.customerUsecase.ListCustomers(r.Context(), req)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	out := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, newCustomerResponse(&customers[i]))
	}
	WriteSuccess(w, http.StatusOK, out)
}

// getMe
//
//	@Summary		Профиль текущего покупателя
//	@Description	404, если покупатель ещё ничего не покупал
//	@Tags			customers
//	@Produce		json
//	@Success		200	{object}	CustomerResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/customers/me [get]
func (h *CustomerHandler) getMe(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customerUsecase.CustomerForActor(r.Context(), mustActor(r))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCustomerResponse(customer))
}

// getCustomer
//
//	@Summary	Покупатель по id
//	@Tags		customers
//	@Produce	json
//	@Param		id	path		int	true	"Id покупателя"
//	@Success	200	{object}	CustomerResponse
//	@Failure	403	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/customers/{id} [get]
func (h *CustomerHandler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	customer, err := h.customerUsecase.GetCustomer(r.Context(), mustActor(r), id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCustomerResponse(customer))
}

// updateCustomer
//
//	@Summary	Обновление профиля покупателя
//	@Tags		customers
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"Id покупателя"
//	@Param		request	body		CustomerProfileDTO	true	"Непустые поля перезаписываются"
//	@Success	200		{object}	CustomerResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	403		{object}	ErrorResponse
//	@Router		/customers/{id} [patch]
func (h *CustomerHandler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	var req CustomerProfileDTO
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	customer, err := h.customerUsecase.UpdateCustomer(r.Context(), &usecase.UpdateCustomerReq{
		Actor:      mustActor(r),
		CustomerID: id,
		Profile:    req.toDomain(),
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCustomerResponse(customer))
}
