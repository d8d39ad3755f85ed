package domain

import "strings"

// Role — роль аутентифицированного пользователя.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// ParseRole разбирает роль без учёта регистра. Второе значение false для неизвестной роли.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// Actor — пользователь, от имени которого выполняется операция.
// Аутентификация выполняется снаружи, сервис получает уже проверенную личность.
type Actor struct {
	IdentityID  int64
	Role        Role
	DisplayName string
	Email       string
}

func NewActor(identityID int64, role Role, displayName, email string) Actor {
	return Actor{
		IdentityID:  identityID,
		Role:        role,
		DisplayName: displayName,
		Email:       email,
	}
}

func (a Actor) IsCustomer() bool {
	return a.Role == RoleCustomer
}

// IsStaff сообщает, относится ли пользователь к персоналу магазина (staff или admin).
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}
