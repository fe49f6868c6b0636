// Package reply renders the bot's outgoing message texts.
package reply

import (
	"fmt"
	"strings"

	"ledgerbot/internal/core"
)

// Fixed reply texts.
const (
	Welcome = "Hi! I'm your ledger bot. Tell me things like \"spent 20 on groceries\" or \"how much did I spend this month?\" and I'll keep track for you."

	Fallback = "I'm not sure how to handle that."

	TryAgain = "Sorry, I had trouble processing that message. Please try again later."

	ConsentPrompt = "Before we start, please share your contact so I know who I'm talking to. Use the button below."

	PendingApproval = "Your account is pending approval."

	Unauthorized = "Unauthorized."

	NoMatches = "No matching transactions found."

	RateLimited = "You're sending messages too quickly. Please wait a moment and try again."

	UnconstrainedMatch = "I need at least one detail to find those transactions, like an amount, a category, a date or an id."

	InvalidAmount = "The amount has to be greater than zero."
)

// listingLimit caps how many rows a read reply shows in full.
const listingLimit = 10

// Created confirms a recorded transaction. The description is appended in
// parentheses only when one was given.
func Created(tx core.Transaction) string {
	s := fmt.Sprintf("✅ Recorded %s: %s for %s.", tx.Type, tx.Amount, tx.Category)
	if tx.Description != "" {
		s += fmt.Sprintf(" (%s)", tx.Description)
	}
	return s
}

// Listing renders up to listingLimit transactions, one per line, appending
// a "(+N more)" line when total exceeds the rows shown.
func Listing(txs []core.Transaction, total int) string {
	var b strings.Builder
	n := len(txs)
	if n > listingLimit {
		n = listingLimit
	}
	for i := 0; i < n; i++ {
		tx := txs[i]
		fmt.Fprintf(&b, "%s %s %s on %s\n", tx.Type, tx.Amount, tx.Category, tx.ExpenseDate.Format("2006-01-02"))
	}
	if total > n {
		fmt.Fprintf(&b, "(+%d more)\n", total-n)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Summary renders per-type totals and the resulting balance.
func Summary(sums map[core.TxType]core.Money, balance core.Money) string {
	income := sums[core.TxTypeIncome]
	expense := sums[core.TxTypeExpense]
	savings := sums[core.TxTypeSavings]
	return fmt.Sprintf("income: %s, expense: %s, savings: %s, balance: %s", income, expense, savings, balance)
}

// Updated confirms how many transactions an update touched.
func Updated(count int64) string {
	if count == 1 {
		return "Updated 1 transaction."
	}
	return fmt.Sprintf("Updated %d transactions.", count)
}

// Deleted confirms how many transactions a delete removed.
func Deleted(count int64) string {
	if count == 1 {
		return "Deleted 1 transaction."
	}
	return fmt.Sprintf("Deleted %d transactions.", count)
}
