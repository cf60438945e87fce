// Package ledger holds the split-expense arithmetic. It is pure: callers load
// and persist expenses, this package only computes ledgers and balances.
package ledger

import (
	"fmt"
	"sort"

	"travelbackend/internal/domain/models"
)

// EqualShare returns floor(amount / n). The remainder is not collected from anyone.
func EqualShare(amount int64, n int) int64 {
	if n <= 0 {
		return 0
	}
	return amount / int64(n)
}

// Split builds the ledger for an equal split between the owner and participants.
// Participants are ordered by user id so the result does not depend on the
// order they were added in. The owner entry is applied last and is always
// owes:false, paid:true.
func Split(amount int64, owner models.User, participants []models.User) ([]models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	sorted := make([]models.User, len(participants))
	copy(sorted, participants)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	seen := make(map[int64]bool, len(sorted))
	for _, p := range sorted {
		if p.ID == owner.ID {
			return nil, fmt.Errorf("owner %d cannot be a split participant", owner.ID)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate participant %d", p.ID)
		}
		seen[p.ID] = true
	}

	n := len(sorted) + 1
	share := EqualShare(amount, n)

	entries := make([]models.LedgerEntry, 0, n)
	for _, p := range sorted {
		entries = append(entries, models.LedgerEntry{
			UserID:   p.ID,
			Username: p.Username,
			Amount:   share,
			Owes:     true,
			Paid:     false,
		})
	}
	entries = append(entries, models.LedgerEntry{
		UserID:   owner.ID,
		Username: owner.Username,
		Amount:   share,
		Owes:     false,
		Paid:     true,
	})

	if err := CheckSum(amount, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CheckSum verifies sum(entries) <= amount and that the uncollected residual is
// below the entry count, which is all floor division can leave behind.
func CheckSum(amount int64, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("empty ledger")
	}
	var sum int64
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		if seen[e.UserID] {
			return fmt.Errorf("duplicate ledger entry for user %d", e.UserID)
		}
		seen[e.UserID] = true
		sum += e.Amount
	}
	if sum > amount {
		return fmt.Errorf("ledger sum %d exceeds amount %d", sum, amount)
	}
	if amount-sum >= int64(len(entries)) {
		return fmt.Errorf("ledger residual %d too large for %d entries", amount-sum, len(entries))
	}
	return nil
}

// Residual is the amount left uncollected by floor division.
func Residual(amount int64, entries []models.LedgerEntry) int64 {
	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	return amount - sum
}

// SettleEntry marks userID's entry as paid. It reports false when no entry exists.
func SettleEntry(entries []models.LedgerEntry, userID int64) bool {
	for i := range entries {
		if entries[i].UserID == userID {
			entries[i].Owes = false
			entries[i].Paid = true
			return true
		}
	}
	return false
}

// SettleAllEntries marks every entry as paid.
func SettleAllEntries(entries []models.LedgerEntry) {
	for i := range entries {
		entries[i].Owes = false
		entries[i].Paid = true
	}
}

// PaidCount counts entries with paid:true.
func PaidCount(entries []models.LedgerEntry) int {
	n := 0
	for _, e := range entries {
		if e.Paid {
			n++
		}
	}
	return n
}
