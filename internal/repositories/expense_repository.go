package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	intdb "travelbackend/internal/db"
	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
)

type ExpenseRepository struct {
	DB     intdb.DBTX
	Driver string
}

const expenseColumns = `id, trip_id, owner_id, amount, category, COALESCE(note,''), participants, ledger, split_finalized, fully_settled, created_at, updated_at`

func scanExpense(row scanner) (models.Expense, error) {
	var (
		e                    models.Expense
		participants, ledger string
		finalized, settled   int
		created, updated     int64
	)
	if err := row.Scan(&e.ID, &e.TripID, &e.OwnerID, &e.Amount, &e.Category, &e.Note,
		&participants, &ledger, &finalized, &settled, &created, &updated); err != nil {
		return models.Expense{}, err
	}
	e.Participants = []int64{}
	if strings.TrimSpace(participants) != "" {
		if err := json.Unmarshal([]byte(participants), &e.Participants); err != nil {
			return models.Expense{}, fmt.Errorf("decode participants of expense %d: %w", e.ID, err)
		}
	}
	e.Ledger = []models.LedgerEntry{}
	if strings.TrimSpace(ledger) != "" {
		if err := json.Unmarshal([]byte(ledger), &e.Ledger); err != nil {
			return models.Expense{}, fmt.Errorf("decode ledger of expense %d: %w", e.ID, err)
		}
	}
	e.SplitFinalized = finalized != 0
	e.FullySettled = settled != 0
	e.CreatedAt = time.Unix(created, 0).UTC()
	e.UpdatedAt = time.Unix(updated, 0).UTC()
	return e, nil
}

func encodeExpenseSets(e models.Expense) (string, string, error) {
	participants := e.Participants
	if participants == nil {
		participants = []int64{}
	}
	ledger := e.Ledger
	if ledger == nil {
		ledger = []models.LedgerEntry{}
	}
	p, err := json.Marshal(participants)
	if err != nil {
		return "", "", err
	}
	l, err := json.Marshal(ledger)
	if err != nil {
		return "", "", err
	}
	return string(p), string(l), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	participants, ledger, err := encodeExpenseSets(*e)
	if err != nil {
		return fmt.Errorf("failed to encode expense: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO expenses (trip_id, owner_id, amount, category, note, participants, ledger, split_finalized, fully_settled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TripID, e.OwnerID, e.Amount, e.Category, intdb.NullIfEmpty(e.Note), participants, ledger,
		boolInt(e.SplitFinalized), boolInt(e.FullySettled), now.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read expense id: %w", err)
	}
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return r.addMembers(ctx, id, e.Participants)
}

func (r ExpenseRepository) GetByID(ctx context.Context, id int64) (models.Expense, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the expense row for the rest of the transaction.
func (r ExpenseRepository) GetForUpdate(ctx context.Context, id int64) (models.Expense, error) {
	return r.get(ctx, id, lockClause(r.Driver))
}

func (r ExpenseRepository) get(ctx context.Context, id int64, lock string) (models.Expense, error) {
	if id <= 0 {
		return models.Expense{}, domain.ValidationError{Field: "expense_id", Msg: "invalid id"}
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id=? LIMIT 1`+lock, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Expense{}, domain.NotFoundError{Resource: "expense", Err: err}
		}
		return models.Expense{}, fmt.Errorf("failed to get expense: %w", err)
	}
	history, err := r.members(ctx, id)
	if err != nil {
		return models.Expense{}, err
	}
	e.ParticipantHistory = history
	return e, nil
}

// Update rewrites the mutable state of an expense and records every current
// participant in the membership history.
func (r ExpenseRepository) Update(ctx context.Context, e models.Expense) error {
	participants, ledger, err := encodeExpenseSets(e)
	if err != nil {
		return fmt.Errorf("failed to encode expense: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE expenses
		SET participants=?, ledger=?, split_finalized=?, fully_settled=?, updated_at=?
		WHERE id=?`,
		participants, ledger, boolInt(e.SplitFinalized), boolInt(e.FullySettled), time.Now().UTC().Unix(), e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "expense"}
	}
	return r.addMembers(ctx, e.ID, e.Participants)
}

func (r ExpenseRepository) addMembers(ctx context.Context, expenseID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	stmt := `INSERT IGNORE INTO expense_members (expense_id, user_id) VALUES (?, ?)`
	if r.Driver == DriverSQLite {
		stmt = `INSERT OR IGNORE INTO expense_members (expense_id, user_id) VALUES (?, ?)`
	}
	for _, uid := range userIDs {
		if _, err := r.DB.ExecContext(ctx, stmt, expenseID, uid); err != nil {
			return fmt.Errorf("failed to record expense member: %w", err)
		}
	}
	return nil
}

func (r ExpenseRepository) members(ctx context.Context, expenseID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT user_id FROM expense_members WHERE expense_id=? ORDER BY user_id`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense members: %w", err)
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expense member: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListForUser returns expenses the user owns or was ever added to, newest first.
func (r ExpenseRepository) ListForUser(ctx context.Context, userID int64) ([]models.Expense, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE owner_id=? OR id IN (SELECT expense_id FROM expense_members WHERE user_id=?)
		ORDER BY created_at DESC, id DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	out := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return out, nil
}
