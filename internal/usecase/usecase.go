package usecase

import (
	"context"

	"github.com/DRSN-tech/sales-backend/internal/domain"
)

type SaleUC interface {
	CreateSale(ctx context.Context, req *CreateSaleReq) (*SaleDetails, error)
	CancelSale(ctx context.Context, actor domain.Actor, saleID int64) (*SaleDetails, error)
	GetSale(ctx context.Context, actor domain.Actor, saleID int64) (*SaleDetails, error)
	ListSales(ctx context.Context, req *ListSalesReq) ([]SaleSummary, error)
}

type CustomerUC interface {
	ResolveOrCreate(ctx context.Context, actor domain.Actor, profile domain.CustomerProfile) (int64, error)
	RequireExisting(ctx context.Context, customerID int64) error
	CustomerForActor(ctx context.Context, actor domain.Actor) (*domain.Customer, error)
	ListCustomers(ctx context.Context, req *ListCustomersReq) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, actor domain.Actor, customerID int64) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, req *UpdateCustomerReq) (*domain.Customer, error)
}

type ProductUC interface {
	ListProducts(ctx context.Context, actor domain.Actor, filter ProductFilter) ([]ProductInfo, error)
	GetProduct(ctx context.Context, actor domain.Actor, productID int64) (*ProductInfo, error)
	GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error)
	CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*ProductInfo, error)
	DeactivateProduct(ctx context.Context, actor domain.Actor, productID int64) error
	UploadProductImage(ctx context.Context, req *UploadProductImageReq) (*ProductInfo, error)
}

type CartUC interface {
	GetCart(ctx context.Context, actor domain.Actor) (*domain.Cart, error)
	AddToCart(ctx context.Context, req *CartItemReq) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, req *CartItemReq) (*domain.Cart, error)
	RemoveCartItem(ctx context.Context, actor domain.Actor, productID int64) (*domain.Cart, error)
	ClearCart(ctx context.Context, actor domain.Actor) error
	Checkout(ctx context.Context, req *CheckoutReq) (*SaleDetails, error)
}

type StatsUC interface {
	GetStats(ctx context.Context, req *StatsReq) (*StatsReport, error)
	GetSummary(ctx context.Context, actor domain.Actor) (*Summary, error)
}
