package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ledgerbot/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the ledger store: users and transactions, scoped by
// owning identity. The store relies on SQLite's per-statement atomicity;
// no multi-statement transactions are opened here.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetUser returns the user for an identity key, or nil when unknown.
func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, phone, consented, allowed, created_at FROM users WHERE user_id = ?`, id)

	var u core.User
	var consented, allowed int
	var createdAt string
	if err := row.Scan(&u.ID, &u.Phone, &consented, &allowed, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Consented = consented != 0
	u.Allowed = allowed != 0
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// UpsertUser creates or refreshes a user keyed by identity. The allowed flag
// is owned by the admin side and is never touched on conflict.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, u core.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, phone, consented, allowed, created_at)
		 VALUES (?, ?, ?, 0, ?)
		 ON CONFLICT(user_id) DO UPDATE SET phone = excluded.phone, consented = excluded.consented`,
		u.ID, u.Phone, boolToInt(u.Consented), createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	slog.InfoContext(ctx, "User upserted", "user_id", u.ID, "consented", u.Consented)
	return nil
}

// SetAllowed flips the admin-approval flag. Exposed for the admin side; the
// message pipeline only ever reads it.
func (r *SQLiteRepository) SetAllowed(ctx context.Context, id string, allowed bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET allowed = ? WHERE user_id = ?`, boolToInt(allowed), id)
	if err != nil {
		return fmt.Errorf("set allowed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set allowed: unknown user %s", id)
	}
	return nil
}

// CreateTransaction inserts a ledger row and returns its store-assigned ID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("validate transaction: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, type, amount_cents, category, description, expense_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, string(tx.Type), tx.Amount.Cents, tx.Category, tx.Description,
		tx.ExpenseDate.UTC().Format(time.RFC3339), tx.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", id,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category)

	return id, nil
}

// ListTransactions returns the user's rows matching the filters, newest
// economic date first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.Filters) ([]core.Transaction, error) {
	where, args := filterWhere(userID, f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, amount_cents, category, description, expense_date, created_at
		 FROM transactions WHERE `+where+` ORDER BY expense_date DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// SumByType computes per-type sums over the filtered set.
func (r *SQLiteRepository) SumByType(ctx context.Context, userID string, f core.Filters) (map[core.TxType]core.Money, error) {
	where, args := filterWhere(userID, f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, COALESCE(SUM(amount_cents), 0) FROM transactions WHERE `+where+` GROUP BY type`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by type: %w", err)
	}
	defer rows.Close()

	sums := make(map[core.TxType]core.Money)
	for rows.Next() {
		var typ string
		var cents int64
		if err := rows.Scan(&typ, &cents); err != nil {
			return nil, fmt.Errorf("scan sum row: %w", err)
		}
		sums[core.TxType(typ)] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum by type: %w", err)
	}
	return sums, nil
}

// UpdateTransactions applies the partial field set to every row matching the
// predicate and returns the affected count. When every requested field is
// absent or fails validation it returns ErrNoValidUpdates so the caller can
// distinguish a rejected update from an empty match.
func (r *SQLiteRepository) UpdateTransactions(ctx context.Context, userID string, m core.Match, u core.Updates) (int64, error) {
	set, setArgs := updateSet(u, time.Now().UTC())
	if set == "" {
		return 0, core.ErrNoValidUpdates
	}

	where, whereArgs := matchWhere(userID, m)
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET `+set+` WHERE `+where, append(setArgs, whereArgs...)...)
	if err != nil {
		return 0, fmt.Errorf("update transactions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Transactions updated", "user_id", userID, "count", n)
	return n, nil
}

// DeleteTransactions removes every row matching the predicate and returns
// the deleted count.
func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, userID string, m core.Match) (int64, error) {
	where, args := matchWhere(userID, m)
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Transactions deleted", "user_id", userID, "count", n)
	return n, nil
}

// GetTransaction fetches a single row by ID regardless of owner. Used by the
// export worker, which trusts IDs from its own event stream.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, amount_cents, category, description, expense_date, created_at
		 FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// GetPendingExport returns IDs of rows not yet exported, oldest first.
func (r *SQLiteRepository) GetPendingExport(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM transactions WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get pending export: %w", err)
	}
	return ids, nil
}

// MarkExported marks a row as successfully exported.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// MarkExportError marks a row as having failed export.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "transaction_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var typ, expenseDate, createdAt string
	if err := row.Scan(&tx.ID, &tx.UserID, &typ, &tx.Amount.Cents, &tx.Category,
		&tx.Description, &expenseDate, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Type = core.TxType(typ)
	tx.ExpenseDate, _ = time.Parse(time.RFC3339, expenseDate)
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return tx, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
