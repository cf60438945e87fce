package models

import "time"

// LedgerEntry is one participant's line in a finalized split.
type LedgerEntry struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Amount   int64  `json:"amount"`
	Owes     bool   `json:"owes"`
	Paid     bool   `json:"paid"`
}

// Expense is a shared cost on a trip. Participants never contains the owner.
type Expense struct {
	ID                 int64         `json:"id"`
	TripID             int64         `json:"trip_id"`
	OwnerID            int64         `json:"owner_id"`
	Amount             int64         `json:"amount"`
	Category           string        `json:"category"`
	Note               string        `json:"note,omitempty"`
	Participants       []int64       `json:"participants"`
	ParticipantHistory []int64       `json:"-"`
	SplitFinalized     bool          `json:"split_finalized"`
	FullySettled       bool          `json:"fully_settled"`
	Ledger             []LedgerEntry `json:"ledger"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (e Expense) HasParticipant(userID int64) bool {
	for _, id := range e.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Balance aggregates what a user owes and is owed across finalized expenses.
type Balance struct {
	ToPay int64 `json:"toPay"`
	ToGet int64 `json:"toGet"`
}

// Trip is the expense container; only existence and owner are used here.
type Trip struct {
	ID        int64
	OwnerID   int64
	Title     string
	CreatedAt time.Time
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
