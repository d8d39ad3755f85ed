package usecase

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/shopspring/decimal"
)

type txCtxKey struct{}

type cartKey struct {
	customerID int64
	productID  int64
}

// memStore — хранилище в памяти. Транзакции выполняются по одной (как при блокировке строк),
// при ошибке состояние откатывается к снимку.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	now        time.Time
	nextID     int64
	txCount    int
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	customers  map[int64]domain.Customer
	sales      map[int64]domain.Sale
	cart       map[cartKey]domain.CartItem
	outbox     []OutboxEvent

	failOutbox error
}

type memSnapshot struct {
	nextID     int64
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	customers  map[int64]domain.Customer
	sales      map[int64]domain.Sale
	cart       map[cartKey]domain.CartItem
	outbox     []OutboxEvent
}

func newMemStore() *memStore {
	return &memStore{
		now:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		nextID:     100,
		products:   map[int64]domain.Product{},
		categories: map[int64]domain.Category{},
		customers:  map[int64]domain.Customer{},
		sales:      map[int64]domain.Sale{},
		cart:       map[cartKey]domain.CartItem{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	sales := make(map[int64]domain.Sale, len(s.sales))
	for id, sale := range s.sales {
		sale.Lines = append([]domain.SaleLine(nil), sale.Lines...)
		sales[id] = sale
	}

	return memSnapshot{
		nextID:     s.nextID,
		products:   copyMap(s.products),
		categories: copyMap(s.categories),
		customers:  copyMap(s.customers),
		sales:      sales,
		cart:       copyMap(s.cart),
		outbox:     append([]OutboxEvent(nil), s.outbox...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.nextID = snap.nextID
	s.products = snap.products
	s.categories = snap.categories
	s.customers = snap.customers
	s.sales = snap.sales
	s.cart = snap.cart
	s.outbox = snap.outbox
}

func (s *memStore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txCtxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCount++
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txCtxKey{}, true)); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}

	return nil
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// seed helpers

func (s *memStore) addProduct(id int64, name, price string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[id] = domain.Product{
		ID:           id,
		Name:         name,
		CategoryID:   1,
		CategoryName: "General",
		Price:        decimal.RequireFromString(price),
		Stock:        stock,
		IsActive:     true,
		CreatedAt:    s.now,
	}
}

func (s *memStore) addCustomer(userID *int64, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	s.customers[id] = domain.Customer{ID: id, UserID: userID, Name: name, RegisteredAt: s.now}
	return id
}

func (s *memStore) product(id int64) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) counts() (sales, customers, outbox int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales), len(s.customers), len(s.outbox)
}

func (s *memStore) transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

// products

type memProducts struct{ *memStore }

func (r memProducts) info(p domain.Product) ProductInfo {
	if c, ok := r.categories[p.CategoryID]; ok {
		p.CategoryName = c.Name
	}
	return NewProductInfo(&p)
}

func (r memProducts) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := *product
	p.ID = r.id()
	p.CreatedAt = r.now
	if c, ok := r.categories[p.CategoryID]; ok {
		p.CategoryName = c.Name
	}
	r.products[p.ID] = p
	return &p, nil
}

func (r memProducts) Update(_ context.Context, id int64, patch *ProductPatch) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
		p.CategoryName = r.categories[p.CategoryID].Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	r.products[id] = p
	return &p, nil
}

func (r memProducts) Deactivate(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return e.ErrProductNotFound
	}
	p.IsActive = false
	r.products[id] = p
	return nil
}

func (r memProducts) SetImageKey(_ context.Context, id int64, key string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	prev := p.ImageKey
	p.ImageKey = &key
	r.products[id] = p
	return prev, nil
}

func (r memProducts) GetProductsInfo(_ context.Context, ids []int64) ([]ProductInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ProductInfo, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, r.info(p))
		}
	}
	return out, nil
}

func (r memProducts) List(_ context.Context, filter ProductFilter) ([]ProductInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ProductInfo, 0)
	for _, p := range r.products {
		if !filter.IncludeInactive && !p.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, r.info(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProducts) LockForSale(_ context.Context, ids []int64) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProducts) DecrementStock(_ context.Context, id int64, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.products[id]
	if p.Stock < qty {
		return &e.StockError{ProductID: id, Available: p.Stock, Requested: qty}
	}
	p.Stock -= qty
	r.products[id] = p
	return nil
}

func (r memProducts) RestoreStockForSale(_ context.Context, saleID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	for _, l := range r.sales[saleID].Lines {
		p := r.products[l.ProductID]
		p.Stock += l.Quantity
		r.products[l.ProductID] = p
		ids = append(ids, l.ProductID)
	}
	return ids, nil
}

// categories

type memCategories struct{ *memStore }

func (r memCategories) Create(_ context.Context, category *domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.Name == category.Name {
			return &c, nil
		}
	}
	c := domain.Category{ID: r.id(), Name: category.Name, CreatedAt: r.now}
	r.categories[c.ID] = c
	return &c, nil
}

// customers

type memCustomers struct{ *memStore }

func (r memCustomers) ResolveOrCreate(_ context.Context, customer *domain.Customer, patch domain.CustomerProfile) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.customers {
		if c.UserID != nil && customer.UserID != nil && *c.UserID == *customer.UserID {
			c.Apply(patch)
			r.customers[id] = c
			return &c, nil
		}
	}

	c := *customer
	c.ID = r.id()
	c.RegisteredAt = r.now
	r.customers[c.ID] = c
	return &c, nil
}

func (r memCustomers) GetByID(_ context.Context, id int64) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, e.ErrCustomerNotFound
	}
	return &c, nil
}

func (r memCustomers) GetByUserID(_ context.Context, userID int64) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.customers {
		if c.UserID != nil && *c.UserID == userID {
			return &c, nil
		}
	}
	return nil, e.ErrCustomerNotFound
}

func (r memCustomers) List(_ context.Context, search string, limit, offset int) ([]domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Customer, 0)
	for _, c := range r.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Email), strings.ToLower(search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []domain.Customer{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memCustomers) Update(_ context.Context, id int64, patch domain.CustomerProfile) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, e.ErrCustomerNotFound
	}
	c.Apply(patch)
	r.customers[id] = c
	return &c, nil
}

// sales

type memSales struct{ *memStore }

func (r memSales) Create(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := *sale
	s.ID = r.id()
	s.CreatedAt = r.now
	s.Lines = make([]domain.SaleLine, len(sale.Lines))
	for i, l := range sale.Lines {
		l.ID = r.id()
		l.SaleID = s.ID
		s.Lines[i] = l
	}
	r.sales[s.ID] = s

	out := s
	out.Lines = append([]domain.SaleLine(nil), s.Lines...)
	return &out, nil
}

func (r memSales) LockByID(_ context.Context, id int64) (*domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sales[id]
	if !ok {
		return nil, e.ErrSaleNotFound
	}
	s.Lines = append([]domain.SaleLine(nil), s.Lines...)
	return &s, nil
}

func (r memSales) MarkCancelled(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sales[id]
	if !ok {
		return e.ErrSaleNotFound
	}
	s.Status = domain.SaleStatusCancelled
	s.CancelledAt = &at
	r.sales[id] = s
	return nil
}

func (r memSales) GetDetails(_ context.Context, id int64) (*SaleDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sales[id]
	if !ok {
		return nil, e.ErrSaleNotFound
	}
	c := r.customers[s.CustomerID]

	d := &SaleDetails{
		ID:              s.ID,
		CustomerID:      s.CustomerID,
		CustomerName:    c.Name,
		CustomerEmail:   c.Email,
		CustomerAddress: c.Address,
		CustomerPhone:   c.Phone,
		SellerID:        s.SellerID,
		SellerName:      s.SellerName,
		PaymentMethod:   s.PaymentMethod,
		Status:          s.Status,
		Total:           s.Total,
		CreatedAt:       s.CreatedAt,
		CancelledAt:     s.CancelledAt,
	}
	for _, l := range s.Lines {
		p := r.products[l.ProductID]
		d.Lines = append(d.Lines, SaleLineDetails{
			ProductID:    l.ProductID,
			ProductName:  p.Name,
			CategoryName: p.CategoryName,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Subtotal:     l.Subtotal,
		})
	}
	return d, nil
}

func (r memSales) List(_ context.Context, filter SaleFilter) ([]SaleSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SaleSummary, 0)
	for _, s := range r.sales {
		if filter.CustomerID != nil && s.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.Period.From != nil && s.CreatedAt.Before(*filter.Period.From) {
			continue
		}
		if filter.Period.To != nil && !s.CreatedAt.Before(*filter.Period.To) {
			continue
		}
		out = append(out, SaleSummary{
			ID:            s.ID,
			CustomerID:    s.CustomerID,
			CustomerName:  r.customers[s.CustomerID].Name,
			SellerName:    s.SellerName,
			PaymentMethod: s.PaymentMethod,
			Status:        s.Status,
			Total:         s.Total,
			ItemsCount:    len(s.Lines),
			CreatedAt:     s.CreatedAt,
			CancelledAt:   s.CancelledAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// cart

type memCart struct{ *memStore }

func (r memCart) Get(_ context.Context, customerID int64) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := &domain.Cart{CustomerID: customerID, Lines: []domain.CartLine{}}
	for k, item := range r.cart {
		if k.customerID != customerID {
			continue
		}
		p := r.products[k.productID]
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID:   k.productID,
			ProductName: p.Name,
			Price:       p.Price,
			Stock:       p.Stock,
			IsActive:    p.IsActive,
			Quantity:    item.Quantity,
			AddedAt:     item.AddedAt,
		})
	}
	sort.Slice(cart.Lines, func(i, j int) bool { return cart.Lines[i].ProductID < cart.Lines[j].ProductID })
	return cart, nil
}

func (r memCart) GetQuantity(_ context.Context, customerID, productID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cart[cartKey{customerID, productID}].Quantity, nil
}

func (r memCart) Upsert(_ context.Context, item *domain.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it := *item
	it.AddedAt = r.now
	r.cart[cartKey{item.CustomerID, item.ProductID}] = it
	return nil
}

func (r memCart) SetQuantity(_ context.Context, customerID, productID int64, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := cartKey{customerID, productID}
	item, ok := r.cart[k]
	if !ok {
		return e.ErrCartItemNotFound
	}
	item.Quantity = qty
	r.cart[k] = item
	return nil
}

func (r memCart) Remove(_ context.Context, customerID, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := cartKey{customerID, productID}
	if _, ok := r.cart[k]; !ok {
		return e.ErrCartItemNotFound
	}
	delete(r.cart, k)
	return nil
}

func (r memCart) Clear(_ context.Context, customerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range r.cart {
		if k.customerID == customerID {
			delete(r.cart, k)
		}
	}
	return nil
}

func (r memCart) items(customerID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k := range r.cart {
		if k.customerID == customerID {
			n++
		}
	}
	return n
}

// outbox

type memOutbox struct{ *memStore }

func (r memOutbox) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failOutbox != nil {
		return nil, r.failOutbox
	}
	ev := *event
	ev.ID = r.id()
	r.outbox = append(r.outbox, ev)
	return &ev, nil
}

func (r memOutbox) GetAndMarkAsProcessing(context.Context, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (r memOutbox) MarkAsProcessed(context.Context, int64) error { return nil }

func (r memOutbox) ReleaseStale(context.Context, time.Duration) (int64, error) { return 0, nil }

func (r memOutbox) events() []OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OutboxEvent(nil), r.outbox...)
}

// fakeCache — потокобезопасный кэш товаров в памяти с поколениями записей.
type fakeCache struct {
	mu       sync.Mutex
	products map[int64]ProductInfo
	gens     map[int64]int64
	deleted  []int64
	getErr   error
	filled   chan struct{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		products: map[int64]ProductInfo{},
		gens:     map[int64]int64{},
		filled:   make(chan struct{}, 16),
	}
}

func (c *fakeCache) Generations(_ context.Context, ids []int64) (map[int64]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[int64]int64, len(ids))
	for _, id := range ids {
		out[id] = c.gens[id]
	}
	return out, nil
}

func (c *fakeCache) cached(id int64) (ProductInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	return p, ok
}

func (c *fakeCache) GetProducts(_ context.Context, ids []int64) (map[int64]ProductInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}
	out := make(map[int64]ProductInfo)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c *fakeCache) SetProducts(_ context.Context, products []ProductInfo, gens map[int64]int64) error {
	c.mu.Lock()
	defer func() {
		c.mu.Unlock()
		select {
		case c.filled <- struct{}{}:
		default:
		}
	}()

	for _, p := range products {
		if c.gens[p.ID] == gens[p.ID] {
			c.products[p.ID] = p
		}
	}
	return nil
}

func (c *fakeCache) DeleteProducts(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.products, id)
		c.gens[id]++
	}
	c.deleted = append(c.deleted, ids...)
	return nil
}

func (c *fakeCache) deletedIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.deleted...)
}

// fakeEncoder кодирует событие как строку "тип:id продажи".
type fakeEncoder struct{}

func (fakeEncoder) EncodeSaleEvent(event *SaleEvent) ([]byte, error) {
	return []byte(string(event.EventType) + ":" + strconv.FormatInt(event.SaleID, 10)), nil
}

// fakeImages записывает загрузки и удаления изображений.
type fakeImages struct {
	mu        sync.Mutex
	uploaded  []string
	cleaned   []string
	uploadErr error
}

func (f *fakeImages) UploadImage(_ context.Context, req *UploadImageReq) (*UploadImageRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	key := "products/" + strconv.FormatInt(req.ProductID, 10) + "/" + req.Image.Name
	f.uploaded = append(f.uploaded, key)
	return NewUploadImageRes(key), nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, keys...)
}
