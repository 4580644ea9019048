package expense

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/expense-tracker/internal/database"
)

// Repository handles expense persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts e. The caller assigns the ID and owner.
func (r *Repository) Create(ctx context.Context, e *Expense) error {
	dbExpense := &database.Expense{
		ID:          e.ID,
		Amount:      e.Amount,
		Description: e.Description,
		PaidBy:      e.PaidBy,
		UserID:      e.UserID,
		PaidDate:    e.PaidDate.UTC(),
	}

	if _, err := r.db.NewInsert().Model(dbExpense).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// ListByOwner returns the expenses owned by userID, newest first
func (r *Repository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]Expense, error) {
	var rows []database.Expense
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("paid_date DESC", "id").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by owner: %w", err)
	}

	return mapDBExpenses(rows), nil
}

// ListAll returns every expense, newest first
func (r *Repository) ListAll(ctx context.Context) ([]Expense, error) {
	var rows []database.Expense
	err := r.db.NewSelect().
		Model(&rows).
		Order("paid_date DESC", "id").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	return mapDBExpenses(rows), nil
}

// TotalsByOwner sums amounts per owner, largest total first.
// FullName is left empty.
func (r *Repository) TotalsByOwner(ctx context.Context) ([]OwnerTotal, error) {
	var rows []database.OwnerTotal
	err := r.db.NewSelect().
		Model((*database.Expense)(nil)).
		ColumnExpr("e.user_id AS user_id").
		ColumnExpr("SUM(e.amount) AS total").
		ColumnExpr("COUNT(*) AS count").
		Group("e.user_id").
		OrderExpr("total DESC, e.user_id").
		Scan(ctx, &rows)

	if err != nil {
		return nil, fmt.Errorf("failed to total expenses by owner: %w", err)
	}

	totals := make([]OwnerTotal, len(rows))
	for i, row := range rows {
		totals[i] = OwnerTotal{
			UserID: row.UserID,
			Total:  row.Total,
			Count:  row.Count,
		}
	}

	return totals, nil
}

// mapDBExpenses converts database models to domain models
func mapDBExpenses(rows []database.Expense) []Expense {
	expenses := make([]Expense, len(rows))
	for i, row := range rows {
		expenses[i] = Expense{
			ID:          row.ID,
			Amount:      row.Amount,
			Description: row.Description,
			PaidBy:      row.PaidBy,
			UserID:      row.UserID,
			PaidDate:    row.PaidDate,
		}
	}
	return expenses
}
