package usecase

import (
	"context"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
)

// CartUseCase управляет корзиной покупателя и оформлением заказа из неё.
type CartUseCase struct {
	tx           Transactor
	cartRepo     CartRepository
	productRepo  ProductRepository
	customerRepo CustomerRepository
	customers    *CustomerUseCase
	sales        *SaleUseCase
	logger       logger.Logger
}

func NewCartUC(
	tx Transactor,
	cartRepo CartRepository,
	productRepo ProductRepository,
	customerRepo CustomerRepository,
	sales *SaleUseCase,
	logger logger.Logger,
) *CartUseCase {
	return &CartUseCase{
		tx:           tx,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		customers:    NewCustomerUC(customerRepo, logger),
		sales:        sales,
		logger:       logger,
	}
}

// GetCart возвращает корзину. Если у пользователя ещё нет записи покупателя, корзина пуста.
func (c *CartUseCase) GetCart(ctx context.Context, actor domain.Actor) (*domain.Cart, error) {
	const op = "CartUseCase.GetCart"

	if !actor.IsCustomer() {
		return nil, e.Wrap(op, e.ErrCustomersOnly)
	}

	customerID, ok, err := ownCustomerID(ctx, c.customerRepo, actor)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if !ok {
		return &domain.Cart{Lines: []domain.CartLine{}}, nil
	}

	cart, err := c.cartRepo.Get(ctx, customerID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return cart, nil
}

// AddToCart добавляет количество к позиции корзины. Итоговое количество не может превышать остаток.
func (c *CartUseCase) AddToCart(ctx context.Context, req *CartItemReq) (*domain.Cart, error) {
	const op = "CartUseCase.AddToCart"

	if err := c.validateItem(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var cart *domain.Cart
	err := c.tx.Do(ctx, func(ctx context.Context) error {
		customerID, err := c.customers.ResolveOrCreate(ctx, req.Actor, domain.CustomerProfile{})
		if err != nil {
			return err
		}

		current, err := c.cartRepo.GetQuantity(ctx, customerID, req.ProductID)
		if err != nil {
			return err
		}

		if err := c.checkStock(ctx, req.ProductID, current+req.Quantity); err != nil {
			return err
		}

		if err := c.cartRepo.Upsert(ctx, domain.NewCartItem(customerID, req.ProductID, current+req.Quantity)); err != nil {
			return err
		}

		cart, err = c.cartRepo.Get(ctx, customerID)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return cart, nil
}

// UpdateCartItem выставляет количество позиции корзины.
func (c *CartUseCase) UpdateCartItem(ctx context.Context, req *CartItemReq) (*domain.Cart, error) {
	const op = "CartUseCase.UpdateCartItem"

	if err := c.validateItem(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var cart *domain.Cart
	err := c.tx.Do(ctx, func(ctx context.Context) error {
		customerID, ok, err := ownCustomerID(ctx, c.customerRepo, req.Actor)
		if err != nil {
			return err
		}
		if !ok {
			return e.ErrCartItemNotFound
		}

		if err := c.checkStock(ctx, req.ProductID, req.Quantity); err != nil {
			return err
		}

		if err := c.cartRepo.SetQuantity(ctx, customerID, req.ProductID, req.Quantity); err != nil {
			return err
		}

		cart, err = c.cartRepo.Get(ctx, customerID)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return cart, nil
}

// RemoveCartItem удаляет позицию из корзины.
func (c *CartUseCase) RemoveCartItem(ctx context.Context, actor domain.Actor, productID int64) (*domain.Cart, error) {
	const op = "CartUseCase.RemoveCartItem"

	if !actor.IsCustomer() {
		return nil, e.Wrap(op, e.ErrCustomersOnly)
	}

	customerID, ok, err := ownCustomerID(ctx, c.customerRepo, actor)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if !ok {
		return nil, e.Wrap(op, e.ErrCartItemNotFound)
	}

	if err := c.cartRepo.Remove(ctx, customerID, productID); err != nil {
		return nil, e.Wrap(op, err)
	}

	cart, err := c.cartRepo.Get(ctx, customerID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return cart, nil
}

// ClearCart очищает корзину.
func (c *CartUseCase) ClearCart(ctx context.Context, actor domain.Actor) error {
	const op = "CartUseCase.ClearCart"

	if !actor.IsCustomer() {
		return e.Wrap(op, e.ErrCustomersOnly)
	}

	customerID, ok, err := ownCustomerID(ctx, c.customerRepo, actor)
	if err != nil {
		return e.Wrap(op, err)
	}
	if !ok {
		return nil
	}

	if err := c.cartRepo.Clear(ctx, customerID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// Checkout оформляет продажу по содержимому корзины и очищает её в той же транзакции.
func (c *CartUseCase) Checkout(ctx context.Context, req *CheckoutReq) (*SaleDetails, error) {
	const op = "CartUseCase.Checkout"

	if !req.Actor.IsCustomer() {
		return nil, e.Wrap(op, e.ErrCustomersOnly)
	}

	payment, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var sale *domain.Sale
	err = c.tx.Do(ctx, func(ctx context.Context) error {
		customerID, err := c.customers.ResolveOrCreate(ctx, req.Actor, req.Profile)
		if err != nil {
			return err
		}

		cart, err := c.cartRepo.Get(ctx, customerID)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return e.ErrEmptyCart
		}

		items := make([]SaleItemReq, 0, len(cart.Lines))
		for _, line := range cart.Lines {
			items = append(items, SaleItemReq{ProductID: line.ProductID, Quantity: line.Quantity})
		}
		if err := validateItems(items); err != nil {
			return err
		}

		sale, err = c.sales.placeSale(ctx, req.Actor, customerID, payment, items)
		if err != nil {
			return err
		}

		return c.cartRepo.Clear(ctx, customerID)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.sales.invalidateProducts(ctx, productIDs(sale.Lines))
	c.logger.Infof("cart checkout: sale %d for customer %d", sale.ID, sale.CustomerID)

	return c.sales.details(ctx, sale.ID)
}

func (c *CartUseCase) validateItem(req *CartItemReq) error {
	if !req.Actor.IsCustomer() {
		return e.ErrCustomersOnly
	}
	if req.ProductID <= 0 {
		return e.ErrInvalidProductID
	}
	return domain.ValidateQuantity(req.Quantity)
}

// checkStock блокирует товар и проверяет, что его можно положить в корзину в количестве qty.
func (c *CartUseCase) checkStock(ctx context.Context, productID int64, qty int) error {
	products, err := c.productRepo.LockForSale(ctx, []int64{productID})
	if err != nil {
		return err
	}
	if len(products) == 0 || !products[0].IsActive {
		return &e.ProductError{ProductID: productID}
	}
	if products[0].Stock < qty {
		return &e.StockError{ProductID: productID, Available: products[0].Stock, Requested: qty}
	}

	return nil
}
