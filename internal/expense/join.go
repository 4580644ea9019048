package expense

import (
	"github.com/google/uuid"

	"github.com/redmonkez12/expense-tracker/internal/user"
)

// AttachOwners pairs each expense with its owner's current full name.
// Rows whose owner is missing from owners are kept with an empty name.
func AttachOwners(expenses []Expense, owners map[uuid.UUID]*user.User) []ExpenseWithOwner {
	out := make([]ExpenseWithOwner, len(expenses))
	for i, e := range expenses {
		out[i] = ExpenseWithOwner{Expense: e}
		if owner, ok := owners[e.UserID]; ok {
			out[i].FullName = owner.FullName()
		}
	}
	return out
}

// NameTotals fills in FullName on each total from owners, in place
func NameTotals(totals []OwnerTotal, owners map[uuid.UUID]*user.User) []OwnerTotal {
	for i := range totals {
		if owner, ok := owners[totals[i].UserID]; ok {
			totals[i].FullName = owner.FullName()
		}
	}
	return totals
}

func ownerIDs(expenses []Expense) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(expenses))
	ids := make([]uuid.UUID, 0, len(expenses))
	for _, e := range expenses {
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		ids = append(ids, e.UserID)
	}
	return ids
}
