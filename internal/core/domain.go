package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TxTypeIncome  TxType = "income"
	TxTypeExpense TxType = "expense"
	TxTypeSavings TxType = "savings"
)

type (
	TxType string

	// User is a messaging-platform identity known to the bot. Consented means
	// the user shared their contact; Allowed is flipped by an admin action
	// outside this process.
	User struct {
		ID        string
		Phone     string
		Consented bool
		Allowed   bool
		CreatedAt time.Time
	}

	// Transaction is one ledger row. Amount is always a positive magnitude;
	// the economic effect comes from Type.
	Transaction struct {
		ID          int64
		UserID      string
		Type        TxType
		Amount      Money
		Category    string
		Description string
		ExpenseDate time.Time
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrNoValidUpdates = errors.New("no valid update fields")
)

// ParseTxType validates a free-form type string against the closed set.
func ParseTxType(s string) (TxType, error) {
	switch TxType(strings.ToLower(strings.TrimSpace(s))) {
	case TxTypeIncome:
		return TxTypeIncome, nil
	case TxTypeExpense:
		return TxTypeExpense, nil
	case TxTypeSavings:
		return TxTypeSavings, nil
	default:
		return "", ErrInvalidType
	}
}

func (t Transaction) Validate() error {
	if _, err := ParseTxType(string(t.Type)); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
