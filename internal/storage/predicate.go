package storage

import (
	"strings"
	"time"

	"ledgerbot/internal/core"
)

// Predicate construction for reads, updates and deletes. Every predicate
// carries the owning-user scope first; optional fields append conjunctive
// constraints only when present. Dates are stored as RFC 3339 UTC text, so
// lexicographic comparison matches chronological order.

func filterWhere(userID string, f core.Filters) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}

	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(f.Type)))
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ? COLLATE NOCASE")
		args = append(args, f.Category)
	}
	if t, err := core.ResolveDate(f.StartDate, time.Time{}); f.StartDate != "" && err == nil {
		clauses = append(clauses, "expense_date >= ?")
		args = append(args, t.Format(time.RFC3339))
	}
	if t, err := core.ResolveDate(f.EndDate, time.Time{}); f.EndDate != "" && err == nil {
		clauses = append(clauses, "expense_date <= ?")
		args = append(args, endOfDay(t).Format(time.RFC3339))
	}

	return strings.Join(clauses, " AND "), args
}

func matchWhere(userID string, m core.Match) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}

	if m.ID != nil {
		clauses = append(clauses, "id = ?")
		args = append(args, *m.ID)
	}
	if m.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(m.Type)))
	}
	if m.Category != "" {
		clauses = append(clauses, "category = ? COLLATE NOCASE")
		args = append(args, m.Category)
	}
	if m.Amount != nil {
		clauses = append(clauses, "amount_cents = ?")
		args = append(args, core.MoneyFromFloat(*m.Amount).Cents)
	}
	if t, err := core.ResolveDate(m.Date, time.Time{}); m.Date != "" && err == nil {
		clauses = append(clauses, "substr(expense_date, 1, 10) = ?")
		args = append(args, t.Format("2006-01-02"))
	}
	if t, err := core.ResolveDate(m.StartDate, time.Time{}); m.StartDate != "" && err == nil {
		clauses = append(clauses, "expense_date >= ?")
		args = append(args, t.Format(time.RFC3339))
	}
	if t, err := core.ResolveDate(m.EndDate, time.Time{}); m.EndDate != "" && err == nil {
		clauses = append(clauses, "expense_date <= ?")
		args = append(args, endOfDay(t).Format(time.RFC3339))
	}

	return strings.Join(clauses, " AND "), args
}

// updateSet builds the SET fragment for a partial update. Every mutation
// also resets sync_status so the export worker picks the row up again.
func updateSet(u core.Updates, now time.Time) (string, []any) {
	var assigns []string
	var args []any

	if u.Type != nil {
		if typ, err := core.ParseTxType(*u.Type); err == nil {
			assigns = append(assigns, "type = ?")
			args = append(args, string(typ))
		}
	}
	if u.Amount != nil {
		m := core.MoneyFromFloat(*u.Amount)
		if m.Validate() == nil {
			assigns = append(assigns, "amount_cents = ?")
			args = append(args, m.Cents)
		}
	}
	if u.Category != nil {
		assigns = append(assigns, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Description != nil {
		assigns = append(assigns, "description = ?")
		args = append(args, *u.Description)
	}
	if u.ExpenseDate != nil {
		if t, err := core.ResolveDate(*u.ExpenseDate, now); err == nil {
			assigns = append(assigns, "expense_date = ?")
			args = append(args, t.Format(time.RFC3339))
		}
	}

	if len(assigns) == 0 {
		return "", nil
	}

	assigns = append(assigns, "sync_status = 'pending'")
	return strings.Join(assigns, ", "), args
}

func endOfDay(t time.Time) time.Time {
	return core.Midnight(t).Add(24*time.Hour - time.Second)
}
