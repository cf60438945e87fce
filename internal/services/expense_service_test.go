package services

import (
	"context"
	"sort"
	"testing"

	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
)

type expenseFixture struct {
	env   *testEnv
	svc   ExpenseService
	owner models.User
	a, b  models.User
	trip  models.Trip
}

func newExpenseFixture(t *testing.T) expenseFixture {
	env := newTestEnv(t)
	owner := env.user(t, "owner")
	return expenseFixture{
		env:   env,
		svc:   env.expenses(),
		owner: owner,
		a:     env.user(t, "asha"),
		b:     env.user(t, "bilal"),
		trip:  env.trip(t, owner.ID),
	}
}

func (f expenseFixture) create(t *testing.T, amount int64) models.Expense {
	t.Helper()
	e, err := f.svc.CreateExpense(context.Background(), f.owner.ID, CreateExpenseInput{TripID: f.trip.ID, Amount: amount, Category: "food"})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return e
}

func (f expenseFixture) add(t *testing.T, e models.Expense, users ...models.User) models.Expense {
	t.Helper()
	var err error
	for _, u := range users {
		e, err = f.svc.ToggleParticipant(context.Background(), f.owner.ID, e.ID, u.ID)
		if err != nil {
			t.Fatalf("toggle %d: %v", u.ID, err)
		}
	}
	return e
}

func entryFor(e models.Expense, userID int64) (models.LedgerEntry, bool) {
	for _, l := range e.Ledger {
		if l.UserID == userID {
			return l, true
		}
	}
	return models.LedgerEntry{}, false
}

func TestSplitEvenAmount(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.add(t, f.create(t, 300), f.a, f.b)

	e, err := f.svc.Split(context.Background(), f.owner.ID, e.ID)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if !e.SplitFinalized || len(e.Ledger) != 3 {
		t.Fatalf("expense = %+v", e)
	}
	for _, l := range e.Ledger {
		if l.Amount != 100 {
			t.Fatalf("entry %+v should owe 100", l)
		}
		isOwner := l.UserID == f.owner.ID
		if l.Paid != isOwner || l.Owes == isOwner {
			t.Fatalf("bad flags on %+v", l)
		}
	}
	if l, _ := entryFor(e, f.a.ID); l.Username != "asha" {
		t.Fatalf("username snapshot missing: %+v", l)
	}
}

func TestSplitResidualIsUncollected(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.add(t, f.create(t, 100), f.a, f.b)
	e, err := f.svc.Split(context.Background(), f.owner.ID, e.ID)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	var sum int64
	paid := 0
	for _, l := range e.Ledger {
		sum += l.Amount
		if l.Paid {
			paid++
		}
	}
	if sum != 99 || e.Amount-sum != 1 {
		t.Fatalf("sum = %d", sum)
	}
	if paid != 1 {
		t.Fatalf("exactly one entry should be paid after split, got %d", paid)
	}
}

func TestToggleOrderDoesNotChangeLedger(t *testing.T) {
	f := newExpenseFixture(t)

	e1 := f.add(t, f.create(t, 1000), f.a, f.b)
	e1, _ = f.svc.Split(context.Background(), f.owner.ID, e1.ID)

	e2 := f.add(t, f.create(t, 1000), f.b, f.a)
	e2, _ = f.svc.Split(context.Background(), f.owner.ID, e2.ID)

	if len(e1.Ledger) != len(e2.Ledger) {
		t.Fatalf("ledger sizes differ")
	}
	for i := range e1.Ledger {
		if e1.Ledger[i] != e2.Ledger[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, e1.Ledger[i], e2.Ledger[i])
		}
	}
}

func TestToggleAfterSplitRecomputes(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.add(t, f.create(t, 300), f.a)
	e, _ = f.svc.Split(context.Background(), f.owner.ID, e.ID)
	if l, _ := entryFor(e, f.a.ID); l.Amount != 150 {
		t.Fatalf("two-way share = %d", l.Amount)
	}

	e = f.add(t, e, f.b)
	if len(e.Ledger) != 3 {
		t.Fatalf("ledger not recomputed: %+v", e.Ledger)
	}
	for _, l := range e.Ledger {
		if l.Amount != 100 {
			t.Fatalf("entry %+v should be 100 after recompute", l)
		}
	}

	// removing a participant shrinks the ledger again
	e = f.add(t, e, f.a)
	if _, ok := entryFor(e, f.a.ID); ok || len(e.Ledger) != 2 {
		t.Fatalf("ledger after removal = %+v", e.Ledger)
	}
}

func TestToggleBeforeSplitOnlyChangesMembership(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.add(t, f.create(t, 300), f.a, f.b, f.a)
	if len(e.Participants) != 1 || e.Participants[0] != f.b.ID {
		t.Fatalf("participants = %v", e.Participants)
	}
	if len(e.Ledger) != 0 || e.SplitFinalized {
		t.Fatalf("ledger should stay empty before split")
	}
}

func TestToggleRules(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.create(t, 300)
	ctx := context.Background()

	if _, err := f.svc.ToggleParticipant(ctx, f.owner.ID, e.ID, f.owner.ID); !domain.IsValidation(err) {
		t.Fatalf("owner toggle: %v", err)
	}
	if _, err := f.svc.ToggleParticipant(ctx, f.owner.ID, e.ID, 9999); !domain.IsNotFound(err) {
		t.Fatalf("unknown user: %v", err)
	}
	if _, err := f.svc.ToggleParticipant(ctx, f.owner.ID, e.ID+100, f.a.ID); !domain.IsNotFound(err) {
		t.Fatalf("unknown expense: %v", err)
	}
	if _, err := f.svc.ToggleParticipant(ctx, f.a.ID, e.ID, f.b.ID); !domain.IsForbidden(err) {
		t.Fatalf("non-owner toggle: %v", err)
	}
}

func TestSettleWithParticipant(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.add(t, f.create(t, 300), f.a, f.b)
	e, _ = f.svc.Split(context.Background(), f.owner.ID, e.ID)
	before, _ := entryFor(e, f.b.ID)

	e, err := f.svc.SettleWithParticipant(context.Background(), f.owner.ID, e.ID, f.a.ID)
	if err != nil {
		t.Fatalf("settle member: %v", err)
	}
	if e.HasParticipant(f.a.ID) {
		t.Fatalf("settled user still in participants")
	}
	if l, _ := entryFor(e, f.a.ID); !l.Paid || l.Owes {
		t.Fatalf("settled entry = %+v", l)
	}
	if after, _ := entryFor(e, f.b.ID); after != before {
		t.Fatalf("other entry changed: %+v -> %+v", before, after)
	}
	if e.FullySettled {
		t.Fatalf("expense should not be fully settled yet")
	}

	if _, err := f.svc.SettleWithParticipant(context.Background(), f.owner.ID, e.ID, f.a.ID); !domain.IsInvalidState(err) {
		t.Fatalf("settling twice: %v", err)
	}

	e, err = f.svc.SettleWithParticipant(context.Background(), f.owner.ID, e.ID, f.b.ID)
	if err != nil {
		t.Fatalf("settle last member: %v", err)
	}
	if !e.FullySettled {
		t.Fatalf("expense should be fully settled once everyone paid")
	}
}

func TestSettleAll(t *testing.T) {
	f := newExpenseFixture(t)
	e := f.add(t, f.create(t, 300), f.a, f.b)

	if _, err := f.svc.SettleAll(context.Background(), f.owner.ID, e.ID); !domain.IsInvalidState(err) {
		t.Fatalf("settle before split: %v", err)
	}
	e, _ = f.svc.Split(context.Background(), f.owner.ID, e.ID)

	e, err := f.svc.SettleAll(context.Background(), f.owner.ID, e.ID)
	if err != nil {
		t.Fatalf("settle all: %v", err)
	}
	if !e.FullySettled || len(e.Participants) != 0 {
		t.Fatalf("expense = %+v", e)
	}
	for _, l := range e.Ledger {
		if !l.Paid || l.Owes {
			t.Fatalf("entry not settled: %+v", l)
		}
	}
	if _, err := f.svc.ToggleParticipant(context.Background(), f.owner.ID, e.ID, f.a.ID); !domain.IsInvalidState(err) {
		t.Fatalf("toggle on settled expense: %v", err)
	}
}

func TestBalances(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	e := f.add(t, f.create(t, 300), f.a, f.b)
	_, _ = f.svc.Split(ctx, f.owner.ID, e.ID)
	_, _ = f.svc.SettleWithParticipant(ctx, f.owner.ID, e.ID, f.b.ID)

	// an unfinalized expense does not count
	f.add(t, f.create(t, 900), f.a)

	owner, err := f.svc.ComputeMyBalance(ctx, f.owner.ID)
	if err != nil {
		t.Fatalf("owner balance: %v", err)
	}
	if owner.ToGet != 100 || owner.ToPay != 0 {
		t.Fatalf("owner balance = %+v", owner)
	}
	asha, _ := f.svc.ComputeMyBalance(ctx, f.a.ID)
	if asha.ToPay != 100 || asha.ToGet != 0 {
		t.Fatalf("asha balance = %+v", asha)
	}
	bilal, _ := f.svc.ComputeMyBalance(ctx, f.b.ID)
	if bilal.ToPay != 0 {
		t.Fatalf("bilal balance = %+v", bilal)
	}

	bills, err := f.svc.ListSplitBills(ctx, f.b.ID)
	if err != nil {
		t.Fatalf("bills: %v", err)
	}
	if len(bills.Expenses) != 1 {
		t.Fatalf("bilal should still see the expense he settled, got %d", len(bills.Expenses))
	}
	ids := []int64{}
	for _, ex := range bills.Expenses {
		ids = append(ids, ex.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if ids[0] != e.ID {
		t.Fatalf("unexpected expenses %v", ids)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()
	if _, err := f.svc.CreateExpense(ctx, f.owner.ID, CreateExpenseInput{TripID: f.trip.ID, Amount: 0, Category: "x"}); !domain.IsValidation(err) {
		t.Fatalf("zero amount: %v", err)
	}
	if _, err := f.svc.CreateExpense(ctx, f.owner.ID, CreateExpenseInput{TripID: f.trip.ID, Amount: 10}); !domain.IsValidation(err) {
		t.Fatalf("missing category: %v", err)
	}
	if _, err := f.svc.CreateExpense(ctx, f.owner.ID, CreateExpenseInput{TripID: 777, Amount: 10, Category: "x"}); !domain.IsNotFound(err) {
		t.Fatalf("unknown trip: %v", err)
	}
}
