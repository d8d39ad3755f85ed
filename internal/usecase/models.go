package usecase

import (
	"time"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// normalizePage подставляет значения пагинации по умолчанию и ограничивает limit.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// SALE USECASE

// SaleItemReq — строка запроса на продажу. UnitPrice учитывается только при политике цен client.
type SaleItemReq struct {
	ProductID int64
	Quantity  int
	UnitPrice *decimal.Decimal
}

// CreateSaleReq — запрос на создание продажи.
type CreateSaleReq struct {
	Actor         domain.Actor
	CustomerID    *int64 // обязателен для staff/admin
	PaymentMethod string
	Items         []SaleItemReq
	Profile       domain.CustomerProfile
}

// SaleDetails — продажа с данными покупателя, продавца и товаров.
type SaleDetails struct {
	ID              int64
	CustomerID      int64
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	CustomerPhone   string
	SellerID        *int64
	SellerName      *string
	PaymentMethod   domain.PaymentMethod
	Status          domain.SaleStatus
	Total           decimal.Decimal
	CreatedAt       time.Time
	CancelledAt     *time.Time
	Lines           []SaleLineDetails
}

type SaleLineDetails struct {
	ProductID    int64
	ProductName  string
	CategoryName string
	Quantity     int
	UnitPrice    decimal.Decimal
	Subtotal     decimal.Decimal
}

// ListSalesReq — параметры выборки продаж. Даты включительные.
type ListSalesReq struct {
	Actor      domain.Actor
	DateFrom   *time.Time
	DateTo     *time.Time
	Status     string
	CustomerID *int64
	Limit      int
	Offset     int
}

// SaleFilter — нормализованный фильтр для репозитория.
type SaleFilter struct {
	Period     Period
	Status     *domain.SaleStatus
	CustomerID *int64
	Limit      int
	Offset     int
}

// SaleSummary — строка списка продаж.
type SaleSummary struct {
	ID            int64
	CustomerID    int64
	CustomerName  string
	SellerName    *string
	PaymentMethod domain.PaymentMethod
	Status        domain.SaleStatus
	Total         decimal.Decimal
	ItemsCount    int
	CreatedAt     time.Time
	CancelledAt   *time.Time
}

// Period — полуинтервал [From, To). Пустая граница не ограничивает выборку.
type Period struct {
	From *time.Time
	To   *time.Time
}

// NewInclusivePeriod строит Period по датам включительно: конец сдвигается на начало следующего дня.
func NewInclusivePeriod(from, to *time.Time) Period {
	var p Period
	if from != nil {
		f := truncateDay(*from)
		p.From = &f
	}
	if to != nil {
		t := truncateDay(*to).AddDate(0, 0, 1)
		p.To = &t
	}
	return p
}

// DayPeriod возвращает сутки, содержащие момент t.
func DayPeriod(t time.Time) Period {
	start := truncateDay(t)
	end := start.AddDate(0, 0, 1)
	return Period{From: &start, To: &end}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CUSTOMER USECASE

type ListCustomersReq struct {
	Actor  domain.Actor
	Search string
	Limit  int
	Offset int
}

type UpdateCustomerReq struct {
	Actor      domain.Actor
	CustomerID int64
	Profile    domain.CustomerProfile
}

// PRODUCT USECASE

// ProductInfo — DTO с информацией о продукте для внешнего использования и кэша.
type ProductInfo struct {
	ID           int64
	Name         string
	Description  string
	CategoryName string
	Price        decimal.Decimal
	Stock        int
	IsActive     bool
	ImageKey     *string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// GetProductsReq запрос информации о продуктах по их идентификаторам.
type GetProductsReq struct {
	IDs []int64
}

// GetProductsRes — ответ с данными запрошенных продуктов.
type GetProductsRes struct {
	Products         []ProductInfo
	NotFoundProducts []int64
}

// ProductFilter — параметры выборки каталога.
type ProductFilter struct {
	Search          string
	CategoryName    string
	IncludeInactive bool
	Limit           int
	Offset          int
}

type CreateProductReq struct {
	Actor        domain.Actor
	Name         string
	Description  string
	CategoryName string
	Price        decimal.Decimal
	Stock        int
}

// UpdateProductReq — частичное обновление товара; nil-поля не меняются.
type UpdateProductReq struct {
	Actor        domain.Actor
	ProductID    int64
	Name         *string
	Description  *string
	CategoryName *string
	Price        *decimal.Decimal
	Stock        *int
	IsActive     *bool
}

// ProductPatch — изменения товара для репозитория.
type ProductPatch struct {
	Name        *string
	Description *string
	CategoryID  *int64
	Price       *decimal.Decimal
	Stock       *int
	IsActive    *bool
}

func (p *ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.CategoryID == nil &&
		p.Price == nil && p.Stock == nil && p.IsActive == nil
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

type UploadProductImageReq struct {
	Actor     domain.Actor
	ProductID int64
	Image     ProductImage
}

// CART USECASE

type CartItemReq struct {
	Actor     domain.Actor
	ProductID int64
	Quantity  int
}

type CheckoutReq struct {
	Actor         domain.Actor
	PaymentMethod string
	Profile       domain.CustomerProfile
}

// STATS USECASE

type StatsReq struct {
	Actor    domain.Actor
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

type SalesStats struct {
	Count         int64
	Revenue       decimal.Decimal
	AverageTicket decimal.Decimal
}

type TopProduct struct {
	ProductID    int64
	Name         string
	QuantitySold int64
	Revenue      decimal.Decimal
}

type TopCustomer struct {
	CustomerID int64
	Name       string
	Email      string
	Purchases  int64
	TotalSpent decimal.Decimal
}

type StatsReport struct {
	Sales        SalesStats
	TopProducts  []TopProduct
	TopCustomers []TopCustomer
}

type Summary struct {
	TodaySales     int64
	TodayRevenue   decimal.Decimal
	Customers      int64
	ActiveProducts int64
}

// INFRASTUCTURE

// UploadImageReq — запрос на загрузку изображения товара.
type UploadImageReq struct {
	ProductID int64
	Image     ProductImage
}

// UploadImageRes — результат загрузки (ключ объекта в MinIO).
type UploadImageRes struct {
	Key string
}

type WriteRawMessageReq struct {
	Key     int64
	Payload []byte
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	SaleCreated   OutboxEventType = "sale.created"
	SaleCancelled OutboxEventType = "sale.cancelled"
)

// OutboxEvent — событие, записанное в одной транзакции с изменением продажи.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	AggregateID int64 // id продажи
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// SaleEvent — содержимое события продажи до сериализации.
type SaleEvent struct {
	EventID    string
	EventType  OutboxEventType
	SaleID     int64
	CustomerID int64
	Status     domain.SaleStatus
	Total      decimal.Decimal
	OccurredAt time.Time
	Lines      []SaleEventLine
}

type SaleEventLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// MAPPERS

func NewGetProductsRes(pr []ProductInfo, notFoundProducts []int64) *GetProductsRes {
	return &GetProductsRes{
		Products:         pr,
		NotFoundProducts: notFoundProducts,
	}
}

func NewGetProductsReq(ids []int64) *GetProductsReq {
	return &GetProductsReq{ids}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImageReq(productID int64, image ProductImage) *UploadImageReq {
	return &UploadImageReq{
		ProductID: productID,
		Image:     image,
	}
}

func NewUploadImageRes(key string) *UploadImageRes {
	return &UploadImageRes{Key: key}
}

func NewWriteRawMessageReq(key int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:     key,
		Payload: payload,
	}
}

// NewProductInfo собирает DTO из доменного товара.
func NewProductInfo(p *domain.Product) ProductInfo {
	return ProductInfo{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		CategoryName: p.CategoryName,
		Price:        p.Price,
		Stock:        p.Stock,
		IsActive:     p.IsActive,
		ImageKey:     p.ImageKey,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// NewSaleEvent строит событие по сохранённой продаже.
func NewSaleEvent(eventID string, eventType OutboxEventType, sale *domain.Sale, at time.Time) *SaleEvent {
	lines := make([]SaleEventLine, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		lines = append(lines, SaleEventLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}

	return &SaleEvent{
		EventID:    eventID,
		EventType:  eventType,
		SaleID:     sale.ID,
		CustomerID: sale.CustomerID,
		Status:     sale.Status,
		Total:      sale.Total,
		OccurredAt: at,
		Lines:      lines,
	}
}
