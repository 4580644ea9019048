package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redmonkez12/expense-tracker/internal/auth"
	"github.com/redmonkez12/expense-tracker/internal/httputil"
	"github.com/redmonkez12/expense-tracker/internal/logging"
)

// Handler contains HTTP handlers for expense endpoints. Every route is
// expected to sit behind auth.Middleware.RequireAuth.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AddExpenseRequest represents the add-expense request body
type AddExpenseRequest struct {
	Amount      *float64   `json:"amount"`
	Description string     `json:"description"`
	PaidDate    *time.Time `json:"paidDate,omitempty"`
}

// AddExpenseResponse represents the add-expense response
type AddExpenseResponse struct {
	Message string   `json:"message"`
	Expense *Expense `json:"expense"`
}

// Add records an expense for the authenticated user
// @Summary      Add an expense
// @Description  Record an expense owned by the authenticated user. paidDate defaults to now.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AddExpenseRequest true "Expense"
// @Success      201 {object} AddExpenseResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      403 {object} httputil.ErrorResponse "No token provided"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/expenses [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Unauthorized", httputil.CodeInvalidToken, http.StatusUnauthorized)
		return
	}

	var req AddExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid expense request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	e, err := h.service.AddExpense(r.Context(), userID, AddExpenseInput{
		Amount:      req.Amount,
		Description: req.Description,
		PaidDate:    req.PaidDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAmountRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeAmountRequired, http.StatusBadRequest)
		case errors.Is(err, ErrDescriptionRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeDescriptionRequired, http.StatusBadRequest)
		case errors.Is(err, ErrUserNotFound):
			logger.Warn("expense rejected: owner no longer exists", "user_id", userID)
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
		default:
			logger.Error("failed to add expense", "user_id", userID, "error", err.Error())
			httputil.RespondServerError(w, err)
		}
		return
	}

	logger.Info("expense added", "user_id", userID, "expense_id", e.ID)

	httputil.RespondJSON(w, AddExpenseResponse{
		Message: "Expense added successfully",
		Expense: e,
	}, http.StatusCreated)
}

// ListMine returns the authenticated user's expenses
// @Summary      List my expenses
// @Description  Expenses owned by the authenticated user, newest first
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Expense
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      403 {object} httputil.ErrorResponse "No token provided"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/expenses [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Unauthorized", httputil.CodeInvalidToken, http.StatusUnauthorized)
		return
	}

	expenses, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to list expenses", "user_id", userID, "error", err.Error())
		httputil.RespondServerError(w, err)
		return
	}

	httputil.RespondJSON(w, expenses, http.StatusOK)
}

// ListAll returns every user's expenses
// @Summary      List all expenses
// @Description  Expenses of every user, newest first, with the owner's full name
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ExpenseWithOwner
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      403 {object} httputil.ErrorResponse "No token provided"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/expenses/all [get]
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.service.ListAll(r.Context())
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to list all expenses", "error", err.Error())
		httputil.RespondServerError(w, err)
		return
	}

	httputil.RespondJSON(w, expenses, http.StatusOK)
}

// Summary returns per-user totals
// @Summary      Expense totals per user
// @Description  Total amount and number of expenses for each user, largest total first
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} OwnerTotal
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      403 {object} httputil.ErrorResponse "No token provided"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/expenses/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.Summary(r.Context())
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to summarize expenses", "error", err.Error())
		httputil.RespondServerError(w, err)
		return
	}

	httputil.RespondJSON(w, totals, http.StatusOK)
}
