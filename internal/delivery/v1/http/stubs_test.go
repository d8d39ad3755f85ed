package http

import (
	"context"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
)

type stubSaleUC struct {
	createReq *usecase.CreateSaleReq
	listReq   *usecase.ListSalesReq
	sale      *usecase.SaleDetails
	list      []usecase.SaleSummary
	err       error
}

func (s *stubSaleUC) CreateSale(_ context.Context, req *usecase.CreateSaleReq) (*usecase.SaleDetails, error) {
	s.createReq = req
	return s.sale, s.err
}

func (s *stubSaleUC) CancelSale(context.Context, domain.Actor, int64) (*usecase.SaleDetails, error) {
	return s.sale, s.err
}

func (s *stubSaleUC) GetSale(context.Context, domain.Actor, int64) (*usecase.SaleDetails, error) {
	return s.sale, s.err
}

func (s *stubSaleUC) ListSales(_ context.Context, req *usecase.ListSalesReq) ([]usecase.SaleSummary, error) {
	s.listReq = req
	return s.list, s.err
}

type stubProductUC struct {
	uploadReq *usecase.UploadProductImageReq
	updateReq *usecase.UpdateProductReq
	filter    usecase.ProductFilter
	product   *usecase.ProductInfo
	err       error
}

func (s *stubProductUC) ListProducts(_ context.Context, _ domain.Actor, filter usecase.ProductFilter) ([]usecase.ProductInfo, error) {
	s.filter = filter
	if s.product == nil {
		return nil, s.err
	}
	return []usecase.ProductInfo{*s.product}, s.err
}

func (s *stubProductUC) GetProduct(context.Context, domain.Actor, int64) (*usecase.ProductInfo, error) {
	return s.product, s.err
}

func (s *stubProductUC) GetProductsInfo(context.Context, *usecase.GetProductsReq) (*usecase.GetProductsRes, error) {
	return nil, s.err
}

func (s *stubProductUC) CreateProduct(context.Context, *usecase.CreateProductReq) (*usecase.ProductInfo, error) {
	return s.product, s.err
}

func (s *stubProductUC) UpdateProduct(_ context.Context, req *usecase.UpdateProductReq) (*usecase.ProductInfo, error) {
	s.updateReq = req
	return s.product, s.err
}

func (s *stubProductUC) DeactivateProduct(context.Context, domain.Actor, int64) error {
	return s.err
}

func (s *stubProductUC) UploadProductImage(_ context.Context, req *usecase.UploadProductImageReq) (*usecase.ProductInfo, error) {
	s.uploadReq = req
	return s.product, s.err
}

type stubCustomerUC struct {
	customer *domain.Customer
	err      error
}

func (s *stubCustomerUC) ResolveOrCreate(context.Context, domain.Actor, domain.CustomerProfile) (int64, error) {
	return 0, s.err
}

func (s *stubCustomerUC) RequireExisting(context.Context, int64) error { return s.err }

func (s *stubCustomerUC) CustomerForActor(context.Context, domain.Actor) (*domain.Customer, error) {
	return s.customer, s.err
}

func (s *stubCustomerUC) ListCustomers(context.Context, *usecase.ListCustomersReq) ([]domain.Customer, error) {
	if s.customer == nil {
		return nil, s.err
	}
	return []domain.Customer{*s.customer}, s.err
}

func (s *stubCustomerUC) GetCustomer(context.Context, domain.Actor, int64) (*domain.Customer, error) {
	return s.customer, s.err
}

func (s *stubCustomerUC) UpdateCustomer(context.Context, *usecase.UpdateCustomerReq) (*domain.Customer, error) {
	return s.customer, s.err
}

type stubCartUC struct {
	cart        *domain.Cart
	sale        *usecase.SaleDetails
	checkoutReq *usecase.CheckoutReq
	err         error
}

func (s *stubCartUC) GetCart(context.Context, domain.Actor) (*domain.Cart, error) { return s.cart, s.err }

func (s *stubCartUC) AddToCart(context.Context, *usecase.CartItemReq) (*domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartUC) UpdateCartItem(context.Context, *usecase.CartItemReq) (*domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartUC) RemoveCartItem(context.Context, domain.Actor, int64) (*domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartUC) ClearCart(context.Context, domain.Actor) error { return s.err }

func (s *stubCartUC) Checkout(_ context.Context, req *usecase.CheckoutReq) (*usecase.SaleDetails, error) {
	s.checkoutReq = req
	return s.sale, s.err
}

type stubStatsUC struct {
	req     *usecase.StatsReq
	report  *usecase.StatsReport
	summary *usecase.Summary
	err     error
}

func (s *stubStatsUC) GetStats(_ context.Context, req *usecase.StatsReq) (*usecase.StatsReport, error) {
	s.req = req
	return s.report, s.err
}

func (s *stubStatsUC) GetSummary(context.Context, domain.Actor) (*usecase.Summary, error) {
	return s.summary, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
