package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted shape of a registered account
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	FirstName    string    `bun:"first_name,notnull"`
	LastName     string    `bun:"last_name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// Expense is the persisted shape of a single expense owned by a user
type Expense struct {
	bun.BaseModel `bun:"table:expenses,alias:e"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Amount      float64   `bun:"amount,notnull"`
	Description string    `bun:"description,notnull"`
	PaidBy      string    `bun:"paid_by,notnull"`
	UserID      uuid.UUID `bun:"user_id,notnull,type:uuid"`
	PaidDate    time.Time `bun:"paid_date,notnull"`
}

// OwnerTotal is one row of the per-owner aggregate over expenses
type OwnerTotal struct {
	UserID uuid.UUID `bun:"user_id"`
	Total  float64   `bun:"total"`
	Count  int       `bun:"count"`
}
