package core

// The five actions the classifier can map a message to. Anything else
// degrades to ActionGeneralReply at decode time.
const (
	ActionCreate       Action = "create_transaction"
	ActionRead         Action = "read_transactions"
	ActionUpdate       Action = "update_transactions"
	ActionDelete       Action = "delete_transactions"
	ActionGeneralReply Action = "general_reply"
)

type (
	Action string

	// Intent is the ephemeral result of classifying one inbound message.
	// Exactly one payload is populated per action; a nil required payload
	// means the intent already degraded to a general reply.
	Intent struct {
		Action    Action
		Create    *CreateData
		Filters   *Filters
		Aggregate Aggregate
		Match     *Match
		Updates   *Updates
		Reply     string
	}

	// CreateData carries the fields for a new transaction. ExpenseDate is the
	// raw date expression; the dispatcher resolves it to an absolute instant.
	CreateData struct {
		Type        string
		Amount      float64
		Category    string
		Description string
		ExpenseDate string
	}

	// Filters narrows a read. Zero-valued fields impose no constraint.
	Filters struct {
		Type      string
		Category  string
		StartDate string
		EndDate   string
	}

	Aggregate struct {
		SumByType    bool
		TotalBalance bool
	}

	// Match selects rows for update/delete. Zero-valued fields impose no
	// constraint; the dispatcher refuses a match with no constraint at all.
	Match struct {
		ID        *int64
		Type      string
		Category  string
		Amount    *float64
		Date      string
		StartDate string
		EndDate   string
	}

	// Updates is the partial field set applied by update_transactions.
	Updates struct {
		Type        *string
		Amount      *float64
		Category    *string
		Description *string
		ExpenseDate *string
	}
)

// IsDataAction reports whether the action touches the ledger store and is
// therefore subject to the authorization gate.
func (a Action) IsDataAction() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

func (a Aggregate) Requested() bool {
	return a.SumByType || a.TotalBalance
}

// HasConstraint reports whether the match carries at least one discriminating
// field beyond the implicit user scope.
func (m *Match) HasConstraint() bool {
	if m == nil {
		return false
	}
	return m.ID != nil || m.Type != "" || m.Category != "" || m.Amount != nil ||
		m.Date != "" || m.StartDate != "" || m.EndDate != ""
}

func (u *Updates) IsEmpty() bool {
	if u == nil {
		return true
	}
	return u.Type == nil && u.Amount == nil && u.Category == nil &&
		u.Description == nil && u.ExpenseDate == nil
}

// GeneralReply builds the degraded intent used whenever a payload fails its
// required-field checklist. An empty text makes the formatter fall back to
// the fixed reply.
func GeneralReply(text string) Intent {
	return Intent{Action: ActionGeneralReply, Reply: text}
}
