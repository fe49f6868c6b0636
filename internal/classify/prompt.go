package classify

import (
	"fmt"
	"time"
)

// The prompt pins down the action taxonomy, the exact field shapes per
// action, and the current UTC instant so the model resolves relative date
// phrases ("yesterday", "last Friday") to absolute dates itself.
const promptTemplate = `You are a personal finance assistant that converts user messages into ledger operations.

The current UTC date and time is %s (today is %s). Resolve any relative date expressions ("today", "yesterday", "last Friday", "3 days ago") to absolute dates in YYYY-MM-DD format using this reference.

Classify the user message into exactly one action and return a single JSON object:

1. Recording a transaction:
{"action": "create_transaction", "data": {"type": "income"|"expense"|"savings", "amount": number, "category": string, "description": string, "expense_date": "YYYY-MM-DD"}}
Omit "description" or "expense_date" when the message does not state them.

2. Asking about recorded transactions:
{"action": "read_transactions", "filters": {"type": string, "category": string, "start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD"}, "aggregate": {"sum_by_type": boolean, "total_balance": boolean}}
Include only the filter fields the user constrains. Set "sum_by_type" for totals per type, "total_balance" when the user asks for their balance.

3. Changing recorded transactions:
{"action": "update_transactions", "match": {"id": number, "type": string, "category": string, "amount": number, "date": "YYYY-MM-DD", "start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD"}, "updates": {"type": string, "amount": number, "category": string, "description": string, "expense_date": "YYYY-MM-DD"}}
"match" selects which transactions to change, "updates" holds only the new values. Include only stated fields in both.

4. Removing recorded transactions:
{"action": "delete_transactions", "match": { ...same shape as above... }}

5. Anything else (greetings, questions, unclear messages):
{"action": "general_reply", "reply": "a short helpful answer"}

Amounts are always positive numbers; the type carries the direction. If the message is not clearly one of the four ledger operations, use general_reply.

User message: %s`

func buildPrompt(message string, nowUTC time.Time) string {
	now := nowUTC.UTC()
	return fmt.Sprintf(promptTemplate,
		now.Format(time.RFC3339),
		now.Format("Monday, 2006-01-02"),
		message)
}
