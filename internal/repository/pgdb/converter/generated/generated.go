package generated

import (
	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
)

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl { return &ProductConverterImpl{} }

func (c *ProductConverterImpl) ToModel(source *domain.Product) *converter.ProductModel {
	if source == nil {
		return nil
	}
	return &converter.ProductModel{
		ID:           source.ID,
		Name:         source.Name,
		Description:  source.Description,
		CategoryID:   source.CategoryID,
		CategoryName: source.CategoryName,
		Price:        source.Price,
		Stock:        source.Stock,
		ImageKey:     source.ImageKey,
		IsActive:     source.IsActive,
		CreatedAt:    converter.ConvertTime(source.CreatedAt),
		UpdatedAt:    converter.ConvertPointerTime(source.UpdatedAt),
	}
}

func (c *ProductConverterImpl) ToEntity(source *converter.ProductModel) *domain.Product {
	if source == nil {
		return nil
	}
	return &domain.Product{
		ID:           source.ID,
		Name:         source.Name,
		Description:  source.Description,
		CategoryID:   source.CategoryID,
		CategoryName: source.CategoryName,
		Price:        source.Price,
		Stock:        source.Stock,
		ImageKey:     source.ImageKey,
		IsActive:     source.IsActive,
		CreatedAt:    converter.ConvertTime(source.CreatedAt),
		UpdatedAt:    converter.ConvertPointerTime(source.UpdatedAt),
	}
}

type CategoryConverterImpl struct{}

func NewCategoryConverterImpl() *CategoryConverterImpl { return &CategoryConverterImpl{} }

func (c *CategoryConverterImpl) ToModel(source *domain.Category) *converter.CategoryModel {
	if source == nil {
		return nil
	}
	return &converter.CategoryModel{
		ID:         source.ID,
		Name:       source.Name,
		CreatedAt:  converter.ConvertTime(source.CreatedAt),
		UpdatedAt:  converter.ConvertPointerTime(source.UpdatedAt),
		IsArchived: source.IsArchived,
	}
}

func (c *CategoryConverterImpl) ToEntity(source *converter.CategoryModel) *domain.Category {
	if source == nil {
		return nil
	}
	return &domain.Category{
		ID:         source.ID,
		Name:       source.Name,
		CreatedAt:  converter.ConvertTime(source.CreatedAt),
		UpdatedAt:  converter.ConvertPointerTime(source.UpdatedAt),
		IsArchived: source.IsArchived,
	}
}

type CustomerConverterImpl struct{}

func NewCustomerConverterImpl() *CustomerConverterImpl { return &CustomerConverterImpl{} }

func (c *CustomerConverterImpl) ToModel(source *domain.Customer) *converter.CustomerModel {
	if source == nil {
		return nil
	}
	return &converter.CustomerModel{
		ID:           source.ID,
		UserID:       source.UserID,
		Name:         source.Name,
		Address:      source.Address,
		Phone:        source.Phone,
		Email:        source.Email,
		RegisteredAt: converter.ConvertTime(source.RegisteredAt),
	}
}

func (c *CustomerConverterImpl) ToEntity(source *converter.CustomerModel) *domain.Customer {
	if source == nil {
		return nil
	}
	return &domain.Customer{
		ID:           source.ID,
		UserID:       source.UserID,
		Name:         source.Name,
		Address:      source.Address,
		Phone:        source.Phone,
		Email:        source.Email,
		RegisteredAt: converter.ConvertTime(source.RegisteredAt),
	}
}

func (c *CustomerConverterImpl) ToArrEntity(source []converter.CustomerModel) []domain.Customer {
	if source == nil {
		return nil
	}
	out := make([]domain.Customer, len(source))
	for i := range source {
		out[i] = *c.ToEntity(&source[i])
	}
	return out
}

type SaleConverterImpl struct{}

func NewSaleConverterImpl() *SaleConverterImpl { return &SaleConverterImpl{} }

func (c *SaleConverterImpl) ToModel(source *domain.Sale) *converter.SaleModel {
	if source == nil {
		return nil
	}
	model := &converter.SaleModel{
		ID:            source.ID,
		CustomerID:    source.CustomerID,
		SellerID:      source.SellerID,
		SellerName:    source.SellerName,
		PaymentMethod: string(source.PaymentMethod),
		Status:        string(source.Status),
		Total:         source.Total,
		CreatedAt:     converter.ConvertTime(source.CreatedAt),
		CancelledAt:   converter.ConvertPointerTime(source.CancelledAt),
	}
	if source.Lines != nil {
		model.Lines = make([]converter.SaleLineModel, len(source.Lines))
		for i, l := range source.Lines {
			model.Lines[i] = converter.SaleLineModel{
				ID:        l.ID,
				SaleID:    l.SaleID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				Subtotal:  l.Subtotal,
			}
		}
	}
	return model
}

func (c *SaleConverterImpl) ToEntity(source *converter.SaleModel) *domain.Sale {
	if source == nil {
		return nil
	}
	entity := &domain.Sale{
		ID:            source.ID,
		CustomerID:    source.CustomerID,
		SellerID:      source.SellerID,
		SellerName:    source.SellerName,
		PaymentMethod: converter.ConvertPaymentMethod(source.PaymentMethod),
		Status:        converter.ConvertSaleStatus(source.Status),
		Total:         source.Total,
		CreatedAt:     converter.ConvertTime(source.CreatedAt),
		CancelledAt:   converter.ConvertPointerTime(source.CancelledAt),
	}
	if source.Lines != nil {
		entity.Lines = make([]domain.SaleLine, len(source.Lines))
		for i, l := range source.Lines {
			entity.Lines[i] = domain.SaleLine{
				ID:        l.ID,
				SaleID:    l.SaleID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				Subtotal:  l.Subtotal,
			}
		}
	}
	return entity
}

type OutboxEventConverterImpl struct{}

func NewOutboxEventConverterImpl() *OutboxEventConverterImpl { return &OutboxEventConverterImpl{} }

func (c *OutboxEventConverterImpl) ToModel(source *usecase.OutboxEvent) *converter.OutboxEventModel {
	if source == nil {
		return nil
	}
	return &converter.OutboxEventModel{
		ID:          source.ID,
		EventID:     source.EventID,
		EventType:   string(source.EventType),
		AggregateID: source.AggregateID,
		Payload:     source.Payload,
		Status:      string(source.Status),
		CreatedAt:   converter.ConvertTime(source.CreatedAt),
		ProcessedAt: converter.ConvertPointerTime(source.ProcessedAt),
	}
}

func (c *OutboxEventConverterImpl) ToEntity(source *converter.OutboxEventModel) *usecase.OutboxEvent {
	if source == nil {
		return nil
	}
	return &usecase.OutboxEvent{
		ID:          source.ID,
		EventID:     source.EventID,
		EventType:   converter.ConvertOutboxEventType(source.EventType),
		AggregateID: source.AggregateID,
		Payload:     source.Payload,
		Status:      converter.ConvertOutBoxStatus(source.Status),
		CreatedAt:   converter.ConvertTime(source.CreatedAt),
		ProcessedAt: converter.ConvertPointerTime(source.ProcessedAt),
	}
}

func (c *OutboxEventConverterImpl) ToArrEntity(source []*converter.OutboxEventModel) []*usecase.OutboxEvent {
	if source == nil {
		return nil
	}
	out := make([]*usecase.OutboxEvent, len(source))
	for i, m := range source {
		out[i] = c.ToEntity(m)
	}
	return out
}
