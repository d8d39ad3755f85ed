package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomerForActor_NameFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		profile CustomerProfile
		want    string
	}{
		{"profile name wins", NewActor(1, RoleCustomer, "Display", ""), CustomerProfile{Name: " Maria "}, "Maria"},
		{"display name", NewActor(1, RoleCustomer, "Display", ""), CustomerProfile{}, "Display"},
		{"placeholder", NewActor(1, RoleCustomer, "  ", ""), CustomerProfile{}, DefaultCustomerName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCustomerForActor(tt.actor, tt.profile)
			assert.Equal(t, tt.want, c.Name)
			require.NotNil(t, c.UserID)
			assert.Equal(t, tt.actor.IdentityID, *c.UserID)
		})
	}
}

func TestNewCustomerForActor_EmailFromActor(t *testing.T) {
	c := NewCustomerForActor(NewActor(5, RoleCustomer, "", "me@shop.test"), CustomerProfile{})
	assert.Equal(t, "me@shop.test", c.Email)
}

func TestCustomer_ApplyPartial(t *testing.T) {
	c := &Customer{Name: "Old", Address: "Street 1", Phone: "123"}
	c.Apply(CustomerProfile{Address: "Street 2"})

	assert.Equal(t, "Old", c.Name)
	assert.Equal(t, "Street 2", c.Address)
	assert.Equal(t, "123", c.Phone)
}

func TestCustomer_OwnedBy(t *testing.T) {
	uid := int64(10)
	c := &Customer{UserID: &uid}

	assert.True(t, c.OwnedBy(NewActor(10, RoleCustomer, "", "")))
	assert.False(t, c.OwnedBy(NewActor(11, RoleCustomer, "", "")))
	assert.False(t, (&Customer{}).OwnedBy(NewActor(10, RoleCustomer, "", "")))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("Admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)
	assert.True(t, NewActor(1, r, "", "").IsStaff())

	_, ok = ParseRole("guest")
	assert.False(t, ok)
}
