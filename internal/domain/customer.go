package domain

import (
	"strings"
	"time"
)

// DefaultCustomerName используется, если у пользователя нет ни имени в профиле, ни отображаемого имени.
const DefaultCustomerName = "Customer"

// Customer описывает покупателя. UserID связывает запись с внешней учётной записью,
// на одну учётную запись приходится не более одного покупателя.
type Customer struct {
	ID           int64
	UserID       *int64
	Name         string
	Address      string
	Phone        string
	Email        string
	RegisteredAt time.Time
}

// CustomerProfile — частичный профиль покупателя. Пустые поля не изменяют сохранённые значения.
type CustomerProfile struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

func (p CustomerProfile) IsEmpty() bool {
	return p.Name == "" && p.Address == "" && p.Phone == "" && p.Email == ""
}

// Normalize обрезает пробелы во всех полях.
func (p CustomerProfile) Normalize() CustomerProfile {
	return CustomerProfile{
		Name:    strings.TrimSpace(p.Name),
		Address: strings.TrimSpace(p.Address),
		Phone:   strings.TrimSpace(p.Phone),
		Email:   strings.TrimSpace(p.Email),
	}
}

// NewCustomerForActor строит покупателя для новой учётной записи.
// Имя берётся из профиля, затем из отображаемого имени пользователя, затем DefaultCustomerName.
func NewCustomerForActor(actor Actor, profile CustomerProfile) *Customer {
	profile = profile.Normalize()

	name := profile.Name
	if name == "" {
		name = strings.TrimSpace(actor.DisplayName)
	}
	if name == "" {
		name = DefaultCustomerName
	}

	email := profile.Email
	if email == "" {
		email = strings.TrimSpace(actor.Email)
	}

	userID := actor.IdentityID
	return &Customer{
		UserID:  &userID,
		Name:    name,
		Address: profile.Address,
		Phone:   profile.Phone,
		Email:   email,
	}
}

// Apply накладывает непустые поля профиля на покупателя.
func (c *Customer) Apply(profile CustomerProfile) {
	profile = profile.Normalize()
	if profile.Name != "" {
		c.Name = profile.Name
	}
	if profile.Address != "" {
		c.Address = profile.Address
	}
	if profile.Phone != "" {
		c.Phone = profile.Phone
	}
	if profile.Email != "" {
		c.Email = profile.Email
	}
}

// OwnedBy сообщает, принадлежит ли запись указанной учётной записи.
func (c *Customer) OwnedBy(actor Actor) bool {
	return c.UserID != nil && *c.UserID == actor.IdentityID
}
