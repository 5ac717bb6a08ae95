package service

import (
	"context"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/repository"
	"github.com/iliyamo/flight-reservation/internal/utils"
)

// MinimumAge is the youngest age at which a customer may register.
const MinimumAge = 16

// CustomerService manages customer accounts and manager logins.
type CustomerService struct {
	uow        TxRunner
	customers  CustomerStore
	managers   ManagerStore
	bcryptCost int
	now        Clock
}

func NewCustomerService(uow TxRunner, customers CustomerStore, managers ManagerStore, bcryptCost int) *CustomerService {
	return &CustomerService{uow: uow, customers: customers, managers: managers, bcryptCost: bcryptCost, now: utcNow}
}

// Registration is a sign-up request.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	BirthDate time.Time
	Passport  string
	Phones    []string
}

// Age returns the age in whole years on day now.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// Register creates an account.  When the email was used for guest bookings
// the guest record and its phone numbers are removed and the earlier orders
// are re-tagged as Registered in the same transaction.
func (s *CustomerService) Register(ctx context.Context, r Registration) (model.RegisteredUser, error) {
	email := repository.NormalizeEmail(r.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return model.RegisteredUser{}, invalid("A valid email is required.")
	}
	if len(r.Password) < 6 {
		return model.RegisteredUser{}, invalid("Password must be at least 6 characters.")
	}
	first, last := strings.TrimSpace(r.FirstName), strings.TrimSpace(r.LastName)
	if first == "" || last == "" {
		return model.RegisteredUser{}, invalid("First and last name are required.")
	}
	if strings.TrimSpace(r.Passport) == "" {
		return model.RegisteredUser{}, invalid("Passport number is required.")
	}
	now := s.now()
	if r.BirthDate.IsZero() || Age(r.BirthDate, now) < MinimumAge {
		return model.RegisteredUser{}, invalid("You must be at least %d years old to register.", MinimumAge)
	}

	hash, err := utils.HashPassword(r.Password, s.bcryptCost)
	if err != nil {
		return model.RegisteredUser{}, errors.Wrap(err, "hash password")
	}
	u := model.RegisteredUser{
		Customer: model.Customer{
			Email:     email,
			FirstName: first,
			LastName:  last,
			Type:      model.CustomerRegistered,
			Phones:    cleanPhones(r.Phones),
		},
		PasswordHash:   hash,
		BirthDate:      r.BirthDate.UTC(),
		Passport:       strings.TrimSpace(r.Passport),
		RegisteredDate: now,
	}

	var migrated int64
	err = s.uow.InTx(ctx, func(tx repository.Tx) error {
		exists, err := tx.RegisteredExists(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return invalid("An account with email %s already exists.", email)
		}
		wasGuest, err := tx.GuestExists(ctx, email)
		if err != nil {
			return err
		}
		if err := tx.DeletePhones(ctx, email); err != nil {
			return err
		}
		if wasGuest {
			if migrated, err = tx.RetagOrders(ctx, email, model.CustomerRegistered); err != nil {
				return err
			}
			if err := tx.DeleteGuest(ctx, email); err != nil {
				return err
			}
		}
		if err := tx.InsertRegistered(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return invalid("An account with email %s already exists.", email)
			}
			return err
		}
		return tx.InsertPhones(ctx, email, model.CustomerRegistered, u.Phones)
	})
	if err != nil {
		if KindOf(err) != 0 {
			return model.RegisteredUser{}, err
		}
		return model.RegisteredUser{}, errors.Wrap(err, "register")
	}
	log.WithFields(log.Fields{"email": email, "migrated_orders": migrated}).Info("customer registered")
	return u, nil
}

// Login checks a registered customer's password.
func (s *CustomerService) Login(ctx context.Context, email, password string) (model.RegisteredUser, error) {
	u, err := s.customers.GetRegistered(ctx, repository.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return model.RegisteredUser{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.RegisteredUser{}, errors.Wrap(err, "get customer")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.RegisteredUser{}, ErrInvalidCredentials
	}
	return u, nil
}

// ManagerLogin checks a manager's password by employee id.
func (s *CustomerService) ManagerLogin(ctx context.Context, employeeID int64, password string) (model.Manager, error) {
	m, err := s.managers.Get(ctx, employeeID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Manager{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Manager{}, errors.Wrap(err, "get manager")
	}
	if !utils.VerifyPassword(m.PasswordHash, password) {
		return model.Manager{}, ErrInvalidCredentials
	}
	return m, nil
}

// Profile is what GET /v1/me returns.
type Profile struct {
	Role     string                `json:"role"`
	Customer *model.RegisteredUser `json:"customer,omitempty"`
	Manager  *model.Manager        `json:"manager,omitempty"`
}

// Profile resolves the token subject of role to its account.
func (s *CustomerService) Profile(ctx context.Context, subject, role string) (Profile, error) {
	switch role {
	case utils.RoleRegistered:
		u, err := s.customers.GetRegistered(ctx, subject)
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, notFound("Account was not found.")
		}
		if err != nil {
			return Profile{}, errors.Wrap(err, "get customer")
		}
		return Profile{Role: role, Customer: &u}, nil
	case utils.RoleAdmin:
		id, err := strconv.ParseInt(subject, 10, 64)
		if err != nil {
			return Profile{}, notFound("Account was not found.")
		}
		m, err := s.managers.Get(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, notFound("Account was not found.")
		}
		if err != nil {
			return Profile{}, errors.Wrap(err, "get manager")
		}
		return Profile{Role: role, Manager: &m}, nil
	}
	return Profile{}, notFound("Account was not found.")
}
