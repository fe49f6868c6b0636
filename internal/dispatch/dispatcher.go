// Package dispatch routes classified intents to the ledger store and renders
// the reply for each outcome.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/log"
	"ledgerbot/internal/reply"
)

// Store is the slice of the repository the dispatcher needs.
type Store interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	ListTransactions(ctx context.Context, userID string, f core.Filters) ([]core.Transaction, error)
	SumByType(ctx context.Context, userID string, f core.Filters) (map[core.TxType]core.Money, error)
	UpdateTransactions(ctx context.Context, userID string, m core.Match, u core.Updates) (int64, error)
	DeleteTransactions(ctx context.Context, userID string, m core.Match) (int64, error)
}

// EventPublisher notifies the export pipeline about ledger changes. A nil
// publisher disables events; a publish failure never fails the operation.
type EventPublisher interface {
	PublishChange(ctx context.Context, op string, id int64) error
}

// Dispatcher executes one intent per inbound message on behalf of a user.
type Dispatcher struct {
	store  Store
	events EventPublisher
	logger *log.Logger
	now    func() time.Time
}

func New(store Store, events EventPublisher, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		events: events,
		logger: logger.WithComponent(log.ComponentDispatch),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch runs the intent and returns the reply text. An error is returned
// only for store failures; semantic problems with the intent itself produce
// an explanatory reply instead.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, intent core.Intent) (string, error) {
	switch intent.Action {
	case core.ActionCreate:
		return d.create(ctx, userID, intent.Create)
	case core.ActionRead:
		return d.read(ctx, userID, intent)
	case core.ActionUpdate:
		return d.update(ctx, userID, intent)
	case core.ActionDelete:
		return d.delete(ctx, userID, intent.Match)
	case core.ActionGeneralReply:
		if intent.Reply != "" {
			return intent.Reply, nil
		}
		return reply.Fallback, nil
	default:
		return reply.Fallback, nil
	}
}

func (d *Dispatcher) create(ctx context.Context, userID string, data *core.CreateData) (string, error) {
	if data == nil {
		return reply.Fallback, nil
	}
	txType, err := core.ParseTxType(data.Type)
	if err != nil {
		return reply.Fallback, nil
	}
	amount := core.MoneyFromFloat(data.Amount)
	if err := amount.Validate(); err != nil {
		return reply.InvalidAmount, nil
	}

	now := d.now()
	expenseDate, err := core.ResolveDate(data.ExpenseDate, now)
	if errors.Is(err, core.ErrUnparsableDate) {
		expenseDate = core.Midnight(now)
	} else if err != nil {
		return "", fmt.Errorf("resolving expense date: %w", err)
	}

	tx := core.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Category:    data.Category,
		Description: data.Description,
		ExpenseDate: expenseDate,
		CreatedAt:   now,
	}
	id, err := d.store.CreateTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("creating transaction: %w", err)
	}
	tx.ID = id
	d.publish(ctx, log.OpCreate, id)
	return reply.Created(tx), nil
}

func (d *Dispatcher) read(ctx context.Context, userID string, intent core.Intent) (string, error) {
	filters := core.Filters{}
	if intent.Filters != nil {
		filters = *intent.Filters
	}

	txs, err := d.store.ListTransactions(ctx, userID, filters)
	if err != nil {
		return "", fmt.Errorf("listing transactions: %w", err)
	}
	if len(txs) == 0 {
		return reply.NoMatches, nil
	}

	if intent.Aggregate.Requested() {
		sums, err := d.store.SumByType(ctx, userID, filters)
		if err != nil {
			return "", fmt.Errorf("summing transactions: %w", err)
		}
		balance := sums[core.TxTypeIncome].
			Sub(sums[core.TxTypeExpense]).
			Sub(sums[core.TxTypeSavings])
		return reply.Summary(sums, balance), nil
	}

	return reply.Listing(txs, len(txs)), nil
}

func (d *Dispatcher) update(ctx context.Context, userID string, intent core.Intent) (string, error) {
	if !intent.Match.HasConstraint() {
		return reply.UnconstrainedMatch, nil
	}
	if intent.Updates.IsEmpty() {
		return reply.Fallback, nil
	}

	count, err := d.store.UpdateTransactions(ctx, userID, *intent.Match, *intent.Updates)
	if errors.Is(err, core.ErrNoValidUpdates) {
		return reply.Fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("updating transactions: %w", err)
	}
	if count == 0 {
		return reply.NoMatches, nil
	}
	if intent.Match.ID != nil {
		d.publish(ctx, log.OpUpdate, *intent.Match.ID)
	}
	return reply.Updated(count), nil
}

func (d *Dispatcher) delete(ctx context.Context, userID string, match *core.Match) (string, error) {
	if !match.HasConstraint() {
		return reply.UnconstrainedMatch, nil
	}

	count, err := d.store.DeleteTransactions(ctx, userID, *match)
	if err != nil {
		return "", fmt.Errorf("deleting transactions: %w", err)
	}
	if count == 0 {
		return reply.NoMatches, nil
	}
	if match.ID != nil {
		d.publish(ctx, log.OpDelete, *match.ID)
	}
	return reply.Deleted(count), nil
}

func (d *Dispatcher) publish(ctx context.Context, op string, id int64) {
	if d.events == nil {
		return
	}
	if err := d.events.PublishChange(ctx, op, id); err != nil {
		d.logger.Warn("failed to publish ledger event",
			log.FieldOperation, op,
			log.FieldTxID, id,
			log.FieldError, err.Error())
	}
}
