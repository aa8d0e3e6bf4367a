package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownRole  = errors.New("domain: unknown role")
	ErrMissingActor = errors.New("domain: actor id is required")
	ErrNotProvider  = errors.New("domain: actor is not a provider")
)

// Role discriminates the three account types.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleSpecialist Role = "specialist"
	RoleBusiness   Role = "business"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleSpecialist, RoleBusiness:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Actor is the signed-in account. Concrete types are Customer, Specialist and
// Business; switch on them rather than inspecting Role where the role changes
// behaviour.
type Actor interface {
	Role() Role
	UserID() string
}

// Provider is an actor that owns services, products and bookings. Mutations
// are scoped server-side by ProviderID.
type Provider interface {
	Actor
	ProviderID() string
}

type Customer struct {
	ID string `json:"id"`
}

func (c Customer) Role() Role     { return RoleCustomer }
func (c Customer) UserID() string { return c.ID }

type Specialist struct {
	ID string `json:"id"`
}

func (s Specialist) Role() Role         { return RoleSpecialist }
func (s Specialist) UserID() string     { return s.ID }
func (s Specialist) ProviderID() string { return s.ID }

// Business is a business account, optionally operated by one of its employees.
type Business struct {
	ID       string    `json:"id"`
	Employee *Employee `json:"employee,omitempty"`
}

// Employee acts on behalf of a business; mutations stay scoped to the business.
type Employee struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (b Business) Role() Role { return RoleBusiness }

func (b Business) UserID() string {
	if b.Employee != nil {
		return b.Employee.ID
	}
	return b.ID
}

func (b Business) ProviderID() string { return b.ID }

// NewActor builds the concrete actor for role. employeeID is only accepted for
// business accounts.
func NewActor(role Role, id, employeeID string) (Actor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingActor
	}
	switch role {
	case RoleCustomer:
		if employeeID != "" {
			return nil, fmt.Errorf("domain: employee context is only valid for business accounts")
		}
		return Customer{ID: id}, nil
	case RoleSpecialist:
		if employeeID != "" {
			return nil, fmt.Errorf("domain: employee context is only valid for business accounts")
		}
		return Specialist{ID: id}, nil
	case RoleBusiness:
		b := Business{ID: id}
		if employeeID = strings.TrimSpace(employeeID); employeeID != "" {
			b.Employee = &Employee{ID: employeeID}
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

// AsProvider narrows an actor to a Provider.
func AsProvider(a Actor) (Provider, error) {
	p, ok := a.(Provider)
	if !ok || a == nil {
		return nil, ErrNotProvider
	}
	return p, nil
}
