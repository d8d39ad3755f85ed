package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/domain"
)

// Transactor выполняет fn в одной транзакции БД. Вложенные вызовы переиспользуют внешнюю транзакцию.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id int64, patch *ProductPatch) (*domain.Product, error)
	Deactivate(ctx context.Context, id int64) error
	// SetImageKey сохраняет новый ключ изображения и возвращает предыдущий.
	SetImageKey(ctx context.Context, id int64, key string) (*string, error)
	GetProductsInfo(ctx context.Context, ids []int64) ([]ProductInfo, error)
	List(ctx context.Context, filter ProductFilter) ([]ProductInfo, error)
	// LockForSale блокирует строки товаров (FOR UPDATE) в порядке возрастания id.
	LockForSale(ctx context.Context, ids []int64) ([]domain.Product, error)
	DecrementStock(ctx context.Context, id int64, qty int) error
	// RestoreStockForSale возвращает на склад количество всех строк продажи и отдаёт id затронутых товаров.
	RestoreStockForSale(ctx context.Context, saleID int64) ([]int64, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
}

type CustomerRepository interface {
	// ResolveOrCreate возвращает покупателя учётной записи customer.UserID, создавая его при отсутствии.
	// Непустые поля patch перезаписывают сохранённые значения существующей записи.
	ResolveOrCreate(ctx context.Context, customer *domain.Customer, patch domain.CustomerProfile) (*domain.Customer, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Customer, error)
	List(ctx context.Context, search string, limit, offset int) ([]domain.Customer, error)
	Update(ctx context.Context, id int64, patch domain.CustomerProfile) (*domain.Customer, error)
}

type SaleRepository interface {
	// Create сохраняет заголовок и строки продажи.
	Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	LockByID(ctx context.Context, id int64) (*domain.Sale, error)
	MarkCancelled(ctx context.Context, id int64, at time.Time) error
	GetDetails(ctx context.Context, id int64) (*SaleDetails, error)
	List(ctx context.Context, filter SaleFilter) ([]SaleSummary, error)
}

type CartRepository interface {
	Get(ctx context.Context, customerID int64) (*domain.Cart, error)
	GetQuantity(ctx context.Context, customerID, productID int64) (int, error)
	Upsert(ctx context.Context, item *domain.CartItem) error
	SetQuantity(ctx context.Context, customerID, productID int64, qty int) error
	Remove(ctx context.Context, customerID, productID int64) error
	Clear(ctx context.Context, customerID int64) error
}

type StatsRepository interface {
	SalesStats(ctx context.Context, period Period) (*SalesStats, error)
	TopProducts(ctx context.Context, period Period, limit int) ([]TopProduct, error)
	TopCustomers(ctx context.Context, period Period, limit int) ([]TopCustomer, error)
	Summary(ctx context.Context, today Period) (*Summary, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	// ReleaseStale возвращает в pending события, зависшие в processing дольше olderThan.
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)
	// Generations снимает поколения записей; DeleteProducts их увеличивает.
	Generations(ctx context.Context, ids []int64) (map[int64]int64, error)
	// SetProducts пишет только товары, чьё поколение совпадает с gens.
	SetProducts(ctx context.Context, products []ProductInfo, gens map[int64]int64) error
	DeleteProducts(ctx context.Context, ids []int64) error
}
