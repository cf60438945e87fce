package ledger

import "travelbackend/internal/domain/models"

// ComputeBalance sums what userID owes (their unpaid owes:true entries) and what
// they are owed (other participants' unpaid entries on expenses they paid for).
// Only finalized expenses count.
func ComputeBalance(userID int64, expenses []models.Expense) models.Balance {
	var bal models.Balance
	for _, e := range expenses {
		if !e.SplitFinalized {
			continue
		}
		for _, entry := range e.Ledger {
			if !entry.Owes || entry.Paid {
				continue
			}
			switch {
			case entry.UserID == userID:
				bal.ToPay += entry.Amount
			case e.OwnerID == userID:
				bal.ToGet += entry.Amount
			}
		}
	}
	return bal
}
