package services

import (
	"context"
	"strings"

	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
	"travelbackend/internal/ledger"
	"travelbackend/internal/repositories"
	"travelbackend/internal/utils"
)

// ExpenseService orchestrates the split engine: every mutation re-reads the
// expense under its row lock, recomputes, checks the ledger sum and writes
// in one transaction.
type ExpenseService struct {
	Store     repositories.Store
	RequestID string
}

type CreateExpenseInput struct {
	TripID   int64
	Amount   int64
	Category string
	Note     string
}

type SplitBills struct {
	Expenses []models.Expense `json:"expenses"`
	ToPay    int64            `json:"toPay"`
	ToGet    int64            `json:"toGet"`
}

func (s ExpenseService) CreateExpense(ctx context.Context, ownerID int64, in CreateExpenseInput) (models.Expense, error) {
	if in.TripID <= 0 {
		return models.Expense{}, domain.ValidationError{Field: "trip_id", Msg: "required"}
	}
	if in.Amount <= 0 {
		return models.Expense{}, domain.ValidationError{Field: "amount", Msg: "must be a positive integer"}
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return models.Expense{}, domain.ValidationError{Field: "category", Msg: "required"}
	}

	var e models.Expense
	err := s.Store.WithTxRetry(ctx, func(r repositories.Repos) error {
		if _, err := r.Trips.GetByID(ctx, in.TripID); err != nil {
			return err
		}
		e = models.Expense{
			TripID:       in.TripID,
			OwnerID:      ownerID,
			Amount:       in.Amount,
			Category:     category,
			Note:         strings.TrimSpace(in.Note),
			Participants: []int64{},
			Ledger:       []models.LedgerEntry{},
		}
		return r.Expenses.Create(ctx, &e)
	})
	if err != nil {
		return models.Expense{}, err
	}
	utils.LogEvent(s.RequestID, "expense", "create", "expense created", "expense_id", e.ID, "trip_id", e.TripID)
	return e, nil
}

// ToggleParticipant adds userID to the split when absent and removes it when
// present. On a finalized split the whole ledger is recomputed.
func (s ExpenseService) ToggleParticipant(ctx context.Context, requesterID, expenseID, userID int64) (models.Expense, error) {
	if userID <= 0 {
		return models.Expense{}, domain.ValidationError{Field: "user_id", Msg: "required"}
	}
	return s.mutate(ctx, expenseID, requesterID, "toggle", func(r repositories.Repos, e *models.Expense) error {
		if userID == e.OwnerID {
			return domain.ValidationError{Field: "user_id", Msg: "the expense owner is always part of the split"}
		}
		if e.FullySettled {
			return domain.InvalidStateError{Resource: "expense", State: "settled", Msg: "expense is fully settled"}
		}
		if _, err := r.Users.GetByID(ctx, userID); err != nil {
			return err
		}

		e.Participants = toggle(e.Participants, userID)
		if !e.SplitFinalized {
			return nil
		}
		return s.recompute(ctx, r, e)
	})
}

// Split finalizes the equal split over the owner and current participants.
func (s ExpenseService) Split(ctx context.Context, requesterID, expenseID int64) (models.Expense, error) {
	return s.mutate(ctx, expenseID, requesterID, "split", func(r repositories.Repos, e *models.Expense) error {
		if e.FullySettled {
			return domain.InvalidStateError{Resource: "expense", State: "settled", Msg: "expense is fully settled"}
		}
		if err := s.recompute(ctx, r, e); err != nil {
			return err
		}
		e.SplitFinalized = true
		return nil
	})
}

// SettleAll closes the expense without per-person confirmation.
func (s ExpenseService) SettleAll(ctx context.Context, requesterID, expenseID int64) (models.Expense, error) {
	return s.mutate(ctx, expenseID, requesterID, "settle_all", func(_ repositories.Repos, e *models.Expense) error {
		if e.FullySettled {
			return nil
		}
		if !e.SplitFinalized {
			return domain.InvalidStateError{Resource: "expense", State: "open", Msg: "split the expense before settling"}
		}
		ledger.SettleAllEntries(e.Ledger)
		e.Participants = []int64{}
		e.FullySettled = true
		return nil
	})
}

// SettleWithParticipant marks one participant paid and drops them from the
// split. Other entries keep their amounts and flags.
func (s ExpenseService) SettleWithParticipant(ctx context.Context, requesterID, expenseID, userID int64) (models.Expense, error) {
	return s.mutate(ctx, expenseID, requesterID, "settle_member", func(_ repositories.Repos, e *models.Expense) error {
		if !e.HasParticipant(userID) {
			return domain.InvalidStateError{Resource: "expense", Msg: "user is not part of the split"}
		}
		if !e.SplitFinalized {
			return domain.InvalidStateError{Resource: "expense", State: "open", Msg: "split the expense before settling"}
		}
		if !ledger.SettleEntry(e.Ledger, userID) {
			return domain.InvalidStateError{Resource: "expense", Msg: "user has no ledger entry"}
		}
		e.Participants = remove(e.Participants, userID)
		if len(e.Participants) == 0 && ledger.PaidCount(e.Ledger) == len(e.Ledger) {
			e.FullySettled = true
		}
		return nil
	})
}

// ComputeMyBalance aggregates what the user owes and is owed.
func (s ExpenseService) ComputeMyBalance(ctx context.Context, userID int64) (models.Balance, error) {
	expenses, err := s.Store.Repos().Expenses.ListForUser(ctx, userID)
	if err != nil {
		return models.Balance{}, err
	}
	return ledger.ComputeBalance(userID, expenses), nil
}

func (s ExpenseService) ListSplitBills(ctx context.Context, userID int64) (SplitBills, error) {
	expenses, err := s.Store.Repos().Expenses.ListForUser(ctx, userID)
	if err != nil {
		return SplitBills{}, err
	}
	bal := ledger.ComputeBalance(userID, expenses)
	return SplitBills{Expenses: expenses, ToPay: bal.ToPay, ToGet: bal.ToGet}, nil
}

// mutate loads the expense under lock, checks the requester owns it, applies
// fn and writes the result. Any error rolls back the whole change.
func (s ExpenseService) mutate(ctx context.Context, expenseID, requesterID int64, action string, fn func(r repositories.Repos, e *models.Expense) error) (models.Expense, error) {
	var out models.Expense
	err := s.Store.WithTxRetry(ctx, func(r repositories.Repos) error {
		e, err := r.Expenses.GetForUpdate(ctx, expenseID)
		if err != nil {
			return err
		}
		if e.OwnerID != requesterID {
			return domain.ForbiddenError{Resource: "expense"}
		}
		if err := fn(r, &e); err != nil {
			return err
		}
		if e.SplitFinalized {
			if err := ledger.CheckSum(e.Amount, e.Ledger); err != nil {
				return domain.InternalError{Msg: "ledger invariant violated", Err: err}
			}
		}
		if err := r.Expenses.Update(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		utils.LogEvent(s.RequestID, "expense", action, "rejected", "expense_id", expenseID, "error", err)
		return models.Expense{}, err
	}
	utils.LogEvent(s.RequestID, "expense", action, "expense updated",
		"expense_id", expenseID, "participants", len(out.Participants), "finalized", out.SplitFinalized)
	return out, nil
}

func (s ExpenseService) recompute(ctx context.Context, r repositories.Repos, e *models.Expense) error {
	owner, err := r.Users.GetByID(ctx, e.OwnerID)
	if err != nil {
		return err
	}
	participants, err := r.Users.GetByIDs(ctx, e.Participants)
	if err != nil {
		return err
	}
	entries, err := ledger.Split(e.Amount, owner, participants)
	if err != nil {
		return domain.InternalError{Msg: "split failed", Err: err}
	}
	e.Ledger = entries
	return nil
}

func toggle(ids []int64, id int64) []int64 {
	for _, v := range ids {
		if v == id {
			return remove(ids, id)
		}
	}
	return append(append([]int64{}, ids...), id)
}

func remove(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
