package http

import (
	"time"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/shopspring/decimal"
)

// Денежные значения отдаются строками с двумя знаками после точки.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// REQUESTS

type CustomerProfileDTO struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

func (p *CustomerProfileDTO) toDomain() domain.CustomerProfile {
	if p == nil {
		return domain.CustomerProfile{}
	}
	return domain.CustomerProfile{Name: p.Name, Address: p.Address, Phone: p.Phone, Email: p.Email}
}

type SaleItemDTO struct {
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty" swaggertype:"string"`
}

type CreateSaleRequest struct {
	CustomerID      *int64              `json:"customerId,omitempty"`
	PaymentMethod   string              `json:"paymentMethod,omitempty"`
	Items           []SaleItemDTO       `json:"items"`
	CustomerProfile *CustomerProfileDTO `json:"customerProfile,omitempty"`
}

func (req *CreateSaleRequest) toUseCase(actor domain.Actor) *usecase.CreateSaleReq {
	items := make([]usecase.SaleItemReq, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.SaleItemReq{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}

	return &usecase.CreateSaleReq{
		Actor:         actor,
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		Items:         items,
		Profile:       req.CustomerProfile.toDomain(),
	}
}

type CreateProductRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	CategoryName string          `json:"category"`
	Price        decimal.Decimal `json:"price" swaggertype:"string"`
	Stock        int             `json:"stock"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	CategoryName *string          `json:"category,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty" swaggertype:"string"`
	Stock        *int             `json:"stock,omitempty"`
	IsActive     *bool            `json:"isActive,omitempty"`
}

type CartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CheckoutRequest struct {
	PaymentMethod   string              `json:"paymentMethod,omitempty"`
	CustomerProfile *CustomerProfileDTO `json:"customerProfile,omitempty"`
}

// RESPONSES

type SaleLineResponse struct {
	ProductID    int64  `json:"productId"`
	ProductName  string `json:"productName"`
	CategoryName string `json:"categoryName"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unitPrice"`
	Subtotal     string `json:"subtotal"`
}

type SaleResponse struct {
	ID              int64              `json:"id"`
	CustomerID      int64              `json:"customerId"`
	CustomerName    string             `json:"customerName"`
	CustomerEmail   string             `json:"customerEmail,omitempty"`
	CustomerAddress string             `json:"customerAddress,omitempty"`
	CustomerPhone   string             `json:"customerPhone,omitempty"`
	SellerID        *int64             `json:"sellerId,omitempty"`
	SellerName      *string            `json:"sellerName,omitempty"`
	PaymentMethod   string             `json:"paymentMethod"`
	Status          string             `json:"status"`
	Total           string             `json:"total"`
	CreatedAt       time.Time          `json:"createdAt"`
	CancelledAt     *time.Time         `json:"cancelledAt,omitempty"`
	Lines           []SaleLineResponse `json:"lines"`
}

type CreateSaleResponse struct {
	SaleID int64        `json:"saleId"`
	Sale   SaleResponse `json:"sale"`
}

func newSaleResponse(s *usecase.SaleDetails) SaleResponse {
	lines := make([]SaleLineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, SaleLineResponse{
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			CategoryName: l.CategoryName,
			Quantity:     l.Quantity,
			UnitPrice:    money(l.UnitPrice),
			Subtotal:     money(l.Subtotal),
		})
	}

	return SaleResponse{
		ID:              s.ID,
		CustomerID:      s.CustomerID,
		CustomerName:    s.CustomerName,
		CustomerEmail:   s.CustomerEmail,
		CustomerAddress: s.CustomerAddress,
		CustomerPhone:   s.CustomerPhone,
		SellerID:        s.SellerID,
		SellerName:      s.SellerName,
		PaymentMethod:   string(s.PaymentMethod),
		Status:          string(s.Status),
		Total:           money(s.Total),
		CreatedAt:       s.CreatedAt,
		CancelledAt:     s.CancelledAt,
		Lines:           lines,
	}
}

type SaleSummaryResponse struct {
	ID            int64      `json:"id"`
	CustomerID    int64      `json:"customerId"`
	CustomerName  string     `json:"customerName"`
	SellerName    *string    `json:"sellerName,omitempty"`
	PaymentMethod string     `json:"paymentMethod"`
	Status        string     `json:"status"`
	Total         string     `json:"total"`
	ItemsCount    int        `json:"itemsCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
}

func newSaleSummaries(list []usecase.SaleSummary) []SaleSummaryResponse {
	out := make([]SaleSummaryResponse, 0, len(list))
	for _, s := range list {
		out = append(out, SaleSummaryResponse{
			ID:            s.ID,
			CustomerID:    s.CustomerID,
			CustomerName:  s.CustomerName,
			SellerName:    s.SellerName,
			PaymentMethod: string(s.PaymentMethod),
			Status:        string(s.Status),
			Total:         money(s.Total),
			ItemsCount:    s.ItemsCount,
			CreatedAt:     s.CreatedAt,
			CancelledAt:   s.CancelledAt,
		})
	}
	return out
}

type ProductResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	CategoryName string     `json:"category"`
	Price        string     `json:"price"`
	Stock        int        `json:"stock"`
	IsActive     bool       `json:"isActive"`
	ImageKey     *string    `json:"imageKey,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

func newProductResponse(p *usecase.ProductInfo) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		CategoryName: p.CategoryName,
		Price:        money(p.Price),
		Stock:        p.Stock,
		IsActive:     p.IsActive,
		ImageKey:     p.ImageKey,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func newProductResponses(list []usecase.ProductInfo) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for i := range list {
		out = append(out, newProductResponse(&list[i]))
	}
	return out
}

type CustomerResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func newCustomerResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:           c.ID,
		Name:         c.Name,
		Address:      c.Address,
		Phone:        c.Phone,
		Email:        c.Email,
		RegisteredAt: c.RegisteredAt,
	}
}

type CartLineResponse struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
	Available   bool   `json:"available"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total string             `json:"total"`
}

func newCartResponse(c *domain.Cart) CartResponse {
	items := make([]CartLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, CartLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Price:       money(l.Price),
			Quantity:    l.Quantity,
			Subtotal:    money(l.Subtotal()),
			Available:   l.IsActive && l.Stock >= l.Quantity,
		})
	}
	return CartResponse{Items: items, Total: money(c.Total())}
}

type SalesStatsResponse struct {
	Count         int64  `json:"count"`
	Revenue       string `json:"revenue"`
	AverageTicket string `json:"averageTicket"`
}

type TopProductResponse struct {
	ProductID    int64  `json:"productId"`
	Name         string `json:"name"`
	QuantitySold int64  `json:"quantitySold"`
	Revenue      string `json:"revenue"`
}

type TopCustomerResponse struct {
	CustomerID int64  `json:"customerId"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Purchases  int64  `json:"purchases"`
	TotalSpent string `json:"totalSpent"`
}

type StatsResponse struct {
	Sales        SalesStatsResponse    `json:"sales"`
	TopProducts  []TopProductResponse  `json:"topProducts"`
	TopCustomers []TopCustomerResponse `json:"topCustomers"`
}

func newStatsResponse(r *usecase.StatsReport) StatsResponse {
	products := make([]TopProductResponse, 0, len(r.TopProducts))
	for _, p := range r.TopProducts {
		products = append(products, TopProductResponse{
			ProductID: p.ProductID, Name: p.Name, QuantitySold: p.QuantitySold, Revenue: money(p.Revenue),
		})
	}

	customers := make([]TopCustomerResponse, 0, len(r.TopCustomers))
	for _, c := range r.TopCustomers {
		customers = append(customers, TopCustomerResponse{
			CustomerID: c.CustomerID, Name: c.Name, Email: c.Email, Purchases: c.Purchases, TotalSpent: money(c.TotalSpent),
		})
	}

	return StatsResponse{
		Sales: SalesStatsResponse{
			Count:         r.Sales.Count,
			Revenue:       money(r.Sales.Revenue),
			AverageTicket: money(r.Sales.AverageTicket),
		},
		TopProducts:  products,
		TopCustomers: customers,
	}
}

type SummaryResponse struct {
	TodaySales     int64  `json:"todaySales"`
	TodayRevenue   string `json:"todayRevenue"`
	Customers      int64  `json:"customers"`
	ActiveProducts int64  `json:"activeProducts"`
}

func newSummaryResponse(s *usecase.Summary) SummaryResponse {
	return SummaryResponse{
		TodaySales:     s.TodaySales,
		TodayRevenue:   money(s.TodayRevenue),
		Customers:      s.Customers,
		ActiveProducts: s.ActiveProducts,
	}
}
