package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/expense-tracker/internal/metrics"
	"github.com/redmonkez12/expense-tracker/internal/user"
)

var (
	ErrAmountRequired      = errors.New("amount is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrUserNotFound        = errors.New("user not found")
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, e *Expense) error
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]Expense, error)
	ListAll(ctx context.Context) ([]Expense, error)
	TotalsByOwner(ctx context.Context) ([]OwnerTotal, error)
}

// UserLookup resolves owners for ownership and display names
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error)
}

// AddExpenseInput carries a new expense. Amount is a pointer so that a
// missing amount can be told apart from zero.
type AddExpenseInput struct {
	Amount      *float64
	Description string
	PaidDate    *time.Time
}

type Option func(*Service)

// WithClock replaces time.Now as the default paid date
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRecorder reports created expenses to r
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = r
	}
}

// Service implements expense recording and the owner-scoped and shared views
type Service struct {
	store   Store
	users   UserLookup
	metrics metrics.Recorder
	now     func() time.Time
}

func NewService(store Store, users UserLookup, opts ...Option) *Service {
	s := &Service{
		store:   store,
		users:   users,
		metrics: metrics.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddExpense records an expense owned by ownerID. PaidBy is the owner's
// first name at this moment and does not follow later renames.
func (s *Service) AddExpense(ctx context.Context, ownerID uuid.UUID, in AddExpenseInput) (*Expense, error) {
	if in.Amount == nil {
		return nil, ErrAmountRequired
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}

	paidDate := s.now().UTC()
	if in.PaidDate != nil {
		paidDate = in.PaidDate.UTC()
	}

	e := &Expense{
		ID:          uuid.New(),
		Amount:      *in.Amount,
		Description: description,
		PaidBy:      owner.FirstName,
		UserID:      owner.ID,
		PaidDate:    paidDate,
	}

	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}

	s.metrics.RecordExpenseCreated(e.Amount)

	return e, nil
}

// ListMine returns the caller's own expenses, newest first
func (s *Service) ListMine(ctx context.Context, ownerID uuid.UUID) ([]Expense, error) {
	expenses, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	return expenses, nil
}

// ListAll returns every user's expenses, newest first, each with the
// owner's current full name
func (s *Service) ListAll(ctx context.Context) ([]ExpenseWithOwner, error) {
	expenses, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	owners, err := s.users.GetByIDs(ctx, ownerIDs(expenses))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owners: %w", err)
	}

	return AttachOwners(expenses, owners), nil
}

// Summary returns the total and count of expenses per owner, largest
// total first
func (s *Service) Summary(ctx context.Context) ([]OwnerTotal, error) {
	totals, err := s.store.TotalsByOwner(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(totals))
	for i, t := range totals {
		ids[i] = t.UserID
	}

	owners, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owners: %w", err)
	}

	if totals == nil {
		totals = []OwnerTotal{}
	}
	return NameTotals(totals, owners), nil
}
