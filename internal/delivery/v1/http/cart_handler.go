package http

import (
	"net/http"

	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
)

type CartHandler struct {
	cartUsecase usecase.CartUC
	logger      logger.Logger
}

func NewCartHandler(cartUsecase usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUsecase: cartUsecase, logger: logger}
}

// getCart
//
//	@Summary	Корзина текущего покупателя
//	@Tags		cart
//	@Produce	json
//	@Success	200	{object}	CartResponse
//	@Router		/cart [get]
func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartUsecase.GetCart(r.Context(), mustActor(r))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(cart))
}

// addItem
//
//	@Summary	Добавление товара в корзину
//	@Tags		cart
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CartItemRequest	true	"Товар и количество"
//	@Success	200		{object}	CartResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/cart/items [post]
func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req CartItemRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	cart, err := h.cartUsecase.AddToCart(r.Context(), &usecase.CartItemReq{
		Actor: mustActor(r), ProductID: req.ProductID, Quantity: req.Quantity,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(cart))
}

// updateItem
//
//	@Summary	Изменение количества товара в корзине
//	@Tags		cart
//	@Accept		json
//	@Produce	json
//	@Param		productId	path		int				true	"Id товара"
//	@Param		request		body		CartItemRequest	true	"Новое количество"
//	@Success	200			{object}	CartResponse
//	@Failure	404			{object}	ErrorResponse
//	@Router		/cart/items/{productId} [put]
func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := parseIDParam(r, "productId")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	var req CartItemRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	cart, err := h.cartUsecase.UpdateCartItem(r.Context(), &usecase.CartItemReq{
		Actor: mustActor(r), ProductID: productID, Quantity: req.Quantity,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(cart))
}

// removeItem
//
//	@Summary	Удаление товара из корзины
//	@Tags		cart
//	@Produce	json
//	@Param		productId	path		int	true	"Id товара"
//	@Success	200			{object}	CartResponse
//	@Failure	404			{object}	ErrorResponse
//	@Router		/cart/items/{productId} [delete]
func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, err := parseIDParam(r, "productId")
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	cart, err := h.cartUsecase.RemoveCartItem(r.Context(), mustActor(r), productID)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(cart))
}

// clearCart
//
//	@Summary	Очистка корзины
//	@Tags		cart
//	@Success	204
//	@Router		/cart [delete]
func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartUsecase.ClearCart(r.Context(), mustActor(r)); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkout
//
//	@Summary		Оформление корзины
//	@Description	Создаёт продажу из корзины и очищает её в той же транзакции
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CheckoutRequest	false	"Способ оплаты и профиль"
//	@Success		201		{object}	CreateSaleResponse
//	@Failure		400		{object}	ErrorResponse	"Пустая корзина или нехватка остатка"
//	@Router			/cart/checkout [post]
func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	sale, err := h.cartUsecase.Checkout(r.Context(), &usecase.CheckoutReq{
		Actor:         mustActor(r),
		PaymentMethod: req.PaymentMethod,
		Profile:       req.CustomerProfile.toDomain(),
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, CreateSaleResponse{SaleID: sale.ID, Sale: newSaleResponse(sale)})
}
