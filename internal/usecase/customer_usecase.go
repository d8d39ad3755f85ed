package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
)

// CustomerUseCase управляет покупателями и их привязкой к учётным записям.
type CustomerUseCase struct {
	customerRepo CustomerRepository
	logger       logger.Logger
}

func NewCustomerUC(customerRepo CustomerRepository, logger logger.Logger) *CustomerUseCase {
	return &CustomerUseCase{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// ResolveOrCreate возвращает id покупателя учётной записи, создавая запись при первом обращении.
// Идемпотентна: повторные и конкурентные вызовы для одной учётной записи дают один и тот же id.
func (c *CustomerUseCase) ResolveOrCreate(ctx context.Context, actor domain.Actor, profile domain.CustomerProfile) (int64, error) {
	const op = "CustomerUseCase.ResolveOrCreate"

	customer, err := c.customerRepo.ResolveOrCreate(ctx, domain.NewCustomerForActor(actor, profile), profile.Normalize())
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	return customer.ID, nil
}

// RequireExisting проверяет, что покупатель с указанным id существует.
func (c *CustomerUseCase) RequireExisting(ctx context.Context, customerID int64) error {
	const op = "CustomerUseCase.RequireExisting"

	if customerID <= 0 {
		return e.Wrap(op, e.ErrCustomerNotFound)
	}

	if _, err := c.customerRepo.GetByID(ctx, customerID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// CustomerForActor возвращает запись покупателя текущего пользователя.
func (c *CustomerUseCase) CustomerForActor(ctx context.Context, actor domain.Actor) (*domain.Customer, error) {
	const op = "CustomerUseCase.CustomerForActor"

	if !actor.IsCustomer() {
		return nil, e.Wrap(op, e.ErrCustomersOnly)
	}

	customer, err := c.customerRepo.GetByUserID(ctx, actor.IdentityID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return customer, nil
}

// ListCustomers ищет покупателей по имени и email, новые первыми.
func (c *CustomerUseCase) ListCustomers(ctx context.Context, req *ListCustomersReq) ([]domain.Customer, error) {
	const op = "CustomerUseCase.ListCustomers"

	if !req.Actor.IsStaff() {
		return nil, e.Wrap(op, e.ErrStaffOnly)
	}

	limit, offset := normalizePage(req.Limit, req.Offset)
	customers, err := c.customerRepo.List(ctx, strings.TrimSpace(req.Search), limit, offset)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return customers, nil
}

// GetCustomer возвращает покупателя. Покупатель может читать только свою запись.
func (c *CustomerUseCase) GetCustomer(ctx context.Context, actor domain.Actor, customerID int64) (*domain.Customer, error) {
	const op = "CustomerUseCase.GetCustomer"

	customer, err := c.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if actor.IsCustomer() && !customer.OwnedBy(actor) {
		return nil, e.Wrap(op, e.ErrNotCustomerOwner)
	}

	return customer, nil
}

// UpdateCustomer частично обновляет профиль покупателя.
func (c *CustomerUseCase) UpdateCustomer(ctx context.Context, req *UpdateCustomerReq) (*domain.Customer, error) {
	const op = "CustomerUseCase.UpdateCustomer"

	patch := req.Profile.Normalize()
	if patch.IsEmpty() {
		return nil, e.Wrap(op, e.ErrNothingToUpdate)
	}

	if req.Actor.IsCustomer() {
		if _, err := c.GetCustomer(ctx, req.Actor, req.CustomerID); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	customer, err := c.customerRepo.Update(ctx, req.CustomerID, patch)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.logger.Infof("customer %d updated", customer.ID)
	return customer, nil
}

// ownCustomerID возвращает id покупателя пользователя или false, если запись ещё не создана.
func ownCustomerID(ctx context.Context, repo CustomerRepository, actor domain.Actor) (int64, bool, error) {
	customer, err := repo.GetByUserID(ctx, actor.IdentityID)
	if err != nil {
		if errors.Is(err, e.ErrCustomerNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	return customer.ID, true, nil
}
