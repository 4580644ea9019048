package expense

import (
	"time"

	"github.com/google/uuid"
)

// Expense is a single amount paid by its owner
type Expense struct {
	ID          uuid.UUID `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	PaidBy      string    `json:"paidBy"` // owner's first name when the expense was recorded
	UserID      uuid.UUID `json:"userId"`
	PaidDate    time.Time `json:"paidDate"`
}

// ExpenseWithOwner is an expense in the shared view, carrying the owner's
// current full name
type ExpenseWithOwner struct {
	Expense
	FullName string `json:"fullName"`
}

// OwnerTotal aggregates one owner's expenses
type OwnerTotal struct {
	UserID   uuid.UUID `json:"userId"`
	FullName string    `json:"fullName"`
	Total    float64   `json:"total"`
	Count    int       `json:"count"`
}
