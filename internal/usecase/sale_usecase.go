package usecase

import (
	"context"
	"sort"

	"github.com/DRSN-tech/sales-backend/internal/cfg"
	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/pkg/clock"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleUseCase реализует создание, отмену и чтение продаж.
type SaleUseCase struct {
	tx           Transactor
	saleRepo     SaleRepository
	productRepo  ProductRepository
	customerRepo CustomerRepository
	customers    *CustomerUseCase
	outboxRepo   OutboxRepository
	encoder      EventEncoder
	cacheRepo    CacheRepository
	clock        clock.Clock
	pricePolicy  string
	logger       logger.Logger
}

func NewSaleUC(
	tx Transactor,
	saleRepo SaleRepository,
	productRepo ProductRepository,
	customerRepo CustomerRepository,
	outboxRepo OutboxRepository,
	encoder EventEncoder,
	cacheRepo CacheRepository,
	clock clock.Clock,
	salesCfg *cfg.SalesCfg,
	logger logger.Logger,
) *SaleUseCase {
	return &SaleUseCase{
		tx:           tx,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		customers:    NewCustomerUC(customerRepo, logger),
		outboxRepo:   outboxRepo,
		encoder:      encoder,
		cacheRepo:    cacheRepo,
		clock:        clock,
		pricePolicy:  salesCfg.PricePolicy,
		logger:       logger,
	}
}

// CreateSale проверяет запрос и атомарно записывает продажу, строки, списание остатков и событие.
func (s *SaleUseCase) CreateSale(ctx context.Context, req *CreateSaleReq) (*SaleDetails, error) {
	const op = "SaleUseCase.CreateSale"

	payment, err := s.validateCreateSale(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var sale *domain.Sale
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		customerID, err := s.resolveCustomer(ctx, req)
		if err != nil {
			return err
		}

		sale, err = s.placeSale(ctx, req.Actor, customerID, payment, req.Items)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	s.invalidateProducts(ctx, productIDs(sale.Lines))
	s.logger.Infof("sale %d created: customer=%d total=%s lines=%d", sale.ID, sale.CustomerID, sale.Total.StringFixed(2), len(sale.Lines))

	return s.details(ctx, sale.ID)
}

// CancelSale отменяет завершённую продажу и возвращает товары на склад в одной транзакции.
func (s *SaleUseCase) CancelSale(ctx context.Context, actor domain.Actor, saleID int64) (*SaleDetails, error) {
	const op = "SaleUseCase.CancelSale"

	var restored []int64
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.LockByID(ctx, saleID)
		if err != nil {
			return err
		}

		if err := s.checkOwner(ctx, actor, sale.CustomerID); err != nil {
			return err
		}

		if err := sale.Cancel(s.clock.Now()); err != nil {
			return err
		}

		if err := s.saleRepo.MarkCancelled(ctx, sale.ID, *sale.CancelledAt); err != nil {
			return err
		}

		restored, err = s.productRepo.RestoreStockForSale(ctx, sale.ID)
		if err != nil {
			return err
		}

		return s.writeEvent(ctx, SaleCancelled, sale)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	s.invalidateProducts(ctx, restored)
	s.logger.Infof("sale %d cancelled by identity %d", saleID, actor.IdentityID)

	return s.details(ctx, saleID)
}

// GetSale возвращает продажу. Покупатель видит только свои продажи.
func (s *SaleUseCase) GetSale(ctx context.Context, actor domain.Actor, saleID int64) (*SaleDetails, error) {
	const op = "SaleUseCase.GetSale"

	details, err := s.saleRepo.GetDetails(ctx, saleID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := s.checkOwner(ctx, actor, details.CustomerID); err != nil {
		return nil, e.Wrap(op, err)
	}

	return details, nil
}

// ListSales возвращает продажи по фильтру, новые первыми. Покупателю доступны только его продажи.
func (s *SaleUseCase) ListSales(ctx context.Context, req *ListSalesReq) ([]SaleSummary, error) {
	const op = "SaleUseCase.ListSales"

	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		return nil, e.Wrap(op, e.ErrInvalidDateRange)
	}

	filter := SaleFilter{
		Period:     NewInclusivePeriod(req.DateFrom, req.DateTo),
		CustomerID: req.CustomerID,
	}
	filter.Limit, filter.Offset = normalizePage(req.Limit, req.Offset)

	if req.Status != "" {
		status, err := domain.ParseSaleStatus(req.Status)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		filter.Status = &status
	}

	if req.Actor.IsCustomer() {
		customerID, ok, err := ownCustomerID(ctx, s.customerRepo, req.Actor)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		if !ok {
			return []SaleSummary{}, nil
		}
		filter.CustomerID = &customerID
	}

	sales, err := s.saleRepo.List(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return sales, nil
}

// validateCreateSale выполняет все проверки запроса до открытия транзакции.
func (s *SaleUseCase) validateCreateSale(req *CreateSaleReq) (domain.PaymentMethod, error) {
	if err := validateItems(req.Items); err != nil {
		return "", err
	}
	if err := s.validateClientAmounts(req.Items); err != nil {
		return "", err
	}

	payment, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return "", err
	}

	if !req.Actor.IsCustomer() && (req.CustomerID == nil || *req.CustomerID <= 0) {
		return "", e.ErrCustomerIDRequired
	}

	return payment, nil
}

// validateItems проверяет строки до транзакции. Количество по одному товару суммируется
// и ограничено INTEGER, поэтому сумма дублей не переполняется.
func validateItems(items []SaleItemReq) error {
	if len(items) == 0 {
		return e.ErrNoItems
	}

	perProduct := make(map[int64]int, len(items))
	for _, item := range items {
		if item.ProductID <= 0 {
			return e.ErrInvalidProductID
		}
		if err := domain.ValidateQuantity(item.Quantity); err != nil {
			return err
		}
		perProduct[item.ProductID] += item.Quantity
		if perProduct[item.ProductID] > domain.MaxQuantity {
			return e.ErrQuantityTooLarge
		}
		if item.UnitPrice != nil {
			if err := domain.ValidatePrice(*item.UnitPrice); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateClientAmounts отсекает до транзакции строки с ценой клиента, чей подытог или
// накопленная сумма уже не помещаются в NUMERIC(12,2). Остальные строки проверяются после расчёта цен.
func (s *SaleUseCase) validateClientAmounts(items []SaleItemReq) error {
	if s.pricePolicy != cfg.PricePolicyClient {
		return nil
	}

	total := decimal.Zero
	for _, item := range items {
		if item.UnitPrice == nil {
			continue
		}
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		if subtotal.GreaterThan(domain.MaxAmount) || total.GreaterThan(domain.MaxAmount) {
			return e.ErrAmountTooLarge
		}
	}

	return nil
}

// resolveCustomer определяет покупателя продажи внутри транзакции.
func (s *SaleUseCase) resolveCustomer(ctx context.Context, req *CreateSaleReq) (int64, error) {
	if req.Actor.IsCustomer() {
		return s.customers.ResolveOrCreate(ctx, req.Actor, req.Profile)
	}

	if err := s.customers.RequireExisting(ctx, *req.CustomerID); err != nil {
		return 0, err
	}

	return *req.CustomerID, nil
}

// placeSale блокирует товары, проверяет остатки и записывает продажу.
// Должна вызываться внутри транзакции.
func (s *SaleUseCase) placeSale(
	ctx context.Context,
	actor domain.Actor,
	customerID int64,
	payment domain.PaymentMethod,
	items []SaleItemReq,
) (*domain.Sale, error) {
	requested := make(map[int64]int, len(items))
	for _, item := range items {
		requested[item.ProductID] += item.Quantity
	}

	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products, err := s.productRepo.LockForSale(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.IsActive {
			return nil, &e.ProductError{ProductID: id}
		}
		if !p.CanSell(requested[id]) {
			return nil, &e.StockError{ProductID: id, Available: p.Stock, Requested: requested[id]}
		}
	}

	lines := make([]domain.SaleLine, 0, len(items))
	for _, item := range items {
		price := byID[item.ProductID].Price
		if s.pricePolicy == cfg.PricePolicyClient && item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		lines = append(lines, domain.NewSaleLine(item.ProductID, item.Quantity, price))
	}

	var seller *domain.Actor
	if actor.IsStaff() {
		seller = &actor
	}

	draft := domain.NewSale(customerID, seller, payment, lines)
	if err := draft.ValidateAmounts(); err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if err := s.productRepo.DecrementStock(ctx, id, requested[id]); err != nil {
			return nil, err
		}
	}

	if err := s.writeEvent(ctx, SaleCreated, sale); err != nil {
		return nil, err
	}

	return sale, nil
}

// checkOwner запрещает покупателю доступ к чужим продажам.
func (s *SaleUseCase) checkOwner(ctx context.Context, actor domain.Actor, saleCustomerID int64) error {
	if !actor.IsCustomer() {
		return nil
	}

	customerID, ok, err := ownCustomerID(ctx, s.customerRepo, actor)
	if err != nil {
		return err
	}
	if !ok || customerID != saleCustomerID {
		return e.ErrNotSaleOwner
	}

	return nil
}

// writeEvent записывает событие продажи в outbox в текущей транзакции.
func (s *SaleUseCase) writeEvent(ctx context.Context, eventType OutboxEventType, sale *domain.Sale) error {
	now := s.clock.Now()
	eventID := uuid.NewString()

	payload, err := s.encoder.EncodeSaleEvent(NewSaleEvent(eventID, eventType, sale, now))
	if err != nil {
		return err
	}

	_, err = s.outboxRepo.Create(ctx, &OutboxEvent{
		EventID:     eventID,
		EventType:   eventType,
		AggregateID: sale.ID,
		Payload:     payload,
		Status:      Pending,
		CreatedAt:   now,
	})
	return err
}

func (s *SaleUseCase) details(ctx context.Context, saleID int64) (*SaleDetails, error) {
	const op = "SaleUseCase.details"

	details, err := s.saleRepo.GetDetails(ctx, saleID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return details, nil
}

// invalidateProducts удаляет изменённые товары из кэша. Ошибки кэша не влияют на результат.
func (s *SaleUseCase) invalidateProducts(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}

	if err := s.cacheRepo.DeleteProducts(ctx, ids); err != nil {
		s.logger.Warnf("Failed to invalidate products %v: %v", ids, err)
	}
}

func productIDs(lines []domain.SaleLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
