package http

import (
	"net/http"

	_ "github.com/DRSN-tech/sales-backend/docs" // регистрация swagger-спецификации
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// UseCases — зависимости HTTP-слоя.
type UseCases struct {
	Sales     usecase.SaleUC
	Products  usecase.ProductUC
	Customers usecase.CustomerUC
	Cart      usecase.CartUC
	Stats     usecase.StatsUC
}

type Router struct {
	router       *chi.Mux
	logger       logger.Logger
	maxImageSize int64
}

func NewRouter(router *chi.Mux, logger logger.Logger, maxImageSize int64) *Router {
	return &Router{router: router, logger: logger, maxImageSize: maxImageSize}
}

func (r *Router) Init(uc UseCases, db Pinger) {
	r.router.Use(middleware.RequestID, middleware.RealIP, requestLogger(r.logger), middleware.Recoverer)

	r.router.Get("/health", health(db, r.logger))
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(identityMiddleware(r.logger))
		v1.NotFound(func(w http.ResponseWriter, req *http.Request) {
			WriteSuccess(w, http.StatusNotFound, ErrorResponse{Error: "route not found", Code: "not_found"})
		})

		registerSaleRoutes(v1, NewSaleHandler(uc.Sales, r.logger))
		registerProductRoutes(v1, NewProductHandler(uc.Products, r.logger, r.maxImageSize))
		registerCustomerRoutes(v1, NewCustomerHandler(uc.Customers, r.logger))
		registerCartRoutes(v1, NewCartHandler(uc.Cart, r.logger))
		registerStatsRoutes(v1, NewStatsHandler(uc.Stats, r.logger))
	})
}

func registerSaleRoutes(router chi.Router, h *SaleHandler) {
	router.Route("/sales", func(s chi.Router) {
		s.Post("/", h.createSale)
		s.Get("/", h.listSales)
		s.Get("/{id}", h.getSale)
		s.Put("/{id}/cancel", h.cancelSale)
	})
}

func registerProductRoutes(router chi.Router, h *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.listProducts)
		pr.Post("/", h.createProduct)
		pr.Get("/{id}", h.getProduct)
		pr.Patch("/{id}", h.updateProduct)
		pr.Delete("/{id}", h.deactivateProduct)
		pr.Put("/{id}/image", h.uploadImage)
	})
}

func registerCustomerRoutes(router chi.Router, h *CustomerHandler) {
	router.Route("/customers", func(c chi.Router) {
		c.Get("/", h.listCustomers)
		c.Get("/me", h.getMe)
		c.Get("/{id}", h.getCustomer)
		c.Patch("/{id}", h.updateCustomer)
	})
}

func registerCartRoutes(router chi.Router, h *CartHandler) {
	router.Route("/cart", func(c chi.Router) {
		c.Get("/", h.getCart)
		c.Delete("/", h.clearCart)
		c.Post("/items", h.addItem)
		c.Put("/items/{productId}", h.updateItem)
		c.Delete("/items/{productId}", h.removeItem)
		c.Post("/checkout", h.checkout)
	})
}

func registerStatsRoutes(router chi.Router, h *StatsHandler) {
	router.Route("/stats", func(s chi.Router) {
		s.Get("/", h.getStats)
		s.Get("/summary", h.getSummary)
	})
}
