package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerUseCase_ResolveOrCreateIsIdempotent(t *testing.T) {
	store := newMemStore()
	uc := NewCustomerUC(memCustomers{store}, logger.NewNop())

	actor := domain.NewActor(5, domain.RoleCustomer, "  ", "")

	first, err := uc.ResolveOrCreate(context.Background(), actor, domain.CustomerProfile{})
	require.NoError(t, err)

	second, err := uc.ResolveOrCreate(context.Background(), actor, domain.CustomerProfile{Phone: " +100 "})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	customer, err := uc.CustomerForActor(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCustomerName, customer.Name)
	assert.Equal(t, "+100", customer.Phone)
}

func TestCustomerUseCase_RequireExisting(t *testing.T) {
	store := newMemStore()
	uc := NewCustomerUC(memCustomers{store}, logger.NewNop())
	id := store.addCustomer(nil, "Walk-in")

	assert.NoError(t, uc.RequireExisting(context.Background(), id))
	assert.ErrorIs(t, uc.RequireExisting(context.Background(), 0), e.ErrCustomerNotFound)
	assert.ErrorIs(t, uc.RequireExisting(context.Background(), id+1000), e.ErrNotFound)
}

func TestCustomerUseCase_Access(t *testing.T) {
	store := newMemStore()
	uc := NewCustomerUC(memCustomers{store}, logger.NewNop())

	ownerID := int64(1)
	own := store.addCustomer(&ownerID, "Maria")
	foreign := store.addCustomer(nil, "Walk-in")

	t.Run("customer reads own record", func(t *testing.T) {
		c, err := uc.GetCustomer(context.Background(), customerActor(1), own)
		require.NoError(t, err)
		assert.Equal(t, "Maria", c.Name)
	})

	t.Run("customer cannot read foreign record", func(t *testing.T) {
		_, err := uc.GetCustomer(context.Background(), customerActor(1), foreign)
		assert.ErrorIs(t, err, e.ErrForbidden)
	})

	t.Run("list is staff only", func(t *testing.T) {
		_, err := uc.ListCustomers(context.Background(), &ListCustomersReq{Actor: customerActor(1)})
		assert.ErrorIs(t, err, e.ErrStaffOnly)

		list, err := uc.ListCustomers(context.Background(), &ListCustomersReq{Actor: staffActor(9), Search: "mar"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, own, list[0].ID)
	})

	t.Run("update requires fields", func(t *testing.T) {
		_, err := uc.UpdateCustomer(context.Background(), &UpdateCustomerReq{Actor: staffActor(9), CustomerID: own})
		assert.ErrorIs(t, err, e.ErrNothingToUpdate)
	})

	t.Run("customer cannot update foreign record", func(t *testing.T) {
		_, err := uc.UpdateCustomer(context.Background(), &UpdateCustomerReq{
			Actor:      customerActor(1),
			CustomerID: foreign,
			Profile:    domain.CustomerProfile{Address: "Elm st. 1"},
		})
		assert.ErrorIs(t, err, e.ErrNotCustomerOwner)
	})

	t.Run("staff updates any record", func(t *testing.T) {
		c, err := uc.UpdateCustomer(context.Background(), &UpdateCustomerReq{
			Actor:      staffActor(9),
			CustomerID: foreign,
			Profile:    domain.CustomerProfile{Address: "Elm st. 1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Elm st. 1", c.Address)
		assert.Equal(t, "Walk-in", c.Name)
	})
}
