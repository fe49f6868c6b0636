// Package classify turns one inbound message into a structured Intent via
// the natural-language oracle.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledgerbot/internal/core"
	"ledgerbot/internal/oracle"
)

var errEmptyResponse = errors.New("empty oracle response")

// ClassificationError means the oracle produced unparsable output even after
// the strict-contract retry. The caller surfaces a generic try-again reply.
type ClassificationError struct {
	Raw string
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify message: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

type Classifier struct {
	oracle oracle.Generator
}

func NewClassifier(gen oracle.Generator) *Classifier {
	return &Classifier{oracle: gen}
}

// Classify maps a cleaned message to an Intent. Malformed or unrecognized
// payloads degrade to a general-reply intent; only a failed retry call and
// doubly-unparsable output return an error.
func (c *Classifier) Classify(ctx context.Context, message string, nowUTC time.Time) (core.Intent, error) {
	prompt := buildPrompt(message, nowUTC)

	raw, callErr := c.oracle.Generate(ctx, prompt, true)
	if callErr == nil {
		wi, parseErr := parseWireIntent(raw)
		if parseErr == nil {
			return decodeIntent(wi), nil
		}
		callErr = parseErr
	}

	// One retry under a stricter output contract, without the
	// structured-output hint. Some models reject structured output at the
	// call level rather than emitting bad JSON, so a failed first call
	// takes the same path as unparsable output.
	slog.WarnContext(ctx, "Structured oracle attempt failed, retrying with strict contract",
		"error", callErr)

	strictPrompt := prompt + "\n\nReturn ONLY valid JSON. Do not include explanations or markdown."
	raw, err := c.oracle.Generate(ctx, strictPrompt, false)
	if err != nil {
		return core.Intent{}, fmt.Errorf("oracle retry call: %w", err)
	}
	wi, parseErr := parseWireIntent(raw)
	if parseErr != nil {
		return core.Intent{}, &ClassificationError{Raw: raw, Err: parseErr}
	}
	return decodeIntent(wi), nil
}

// decodeIntent converts the wire shape into the closed tagged union,
// running the required-field checklist per action. Anything that fails the
// checklist becomes a general reply with the fixed fallback.
func decodeIntent(wi *wireIntent) core.Intent {
	switch core.Action(wi.Action) {
	case core.ActionCreate:
		if wi.Data == nil {
			return core.GeneralReply("")
		}
		amount, err := wi.Data.Amount.Float64()
		if err != nil {
			return core.GeneralReply("")
		}
		return core.Intent{
			Action: core.ActionCreate,
			Create: &core.CreateData{
				Type:        wi.Data.Type,
				Amount:      amount,
				Category:    wi.Data.Category,
				Description: wi.Data.Description,
				ExpenseDate: wi.Data.ExpenseDate,
			},
		}

	case core.ActionRead:
		intent := core.Intent{Action: core.ActionRead, Filters: &core.Filters{}}
		if wi.Filters != nil {
			intent.Filters = &core.Filters{
				Type:      wi.Filters.Type,
				Category:  wi.Filters.Category,
				StartDate: wi.Filters.StartDate,
				EndDate:   wi.Filters.EndDate,
			}
		}
		if wi.Aggregate != nil {
			intent.Aggregate = core.Aggregate{
				SumByType:    wi.Aggregate.SumByType,
				TotalBalance: wi.Aggregate.TotalBalance,
			}
		}
		return intent

	case core.ActionUpdate:
		if wi.Match == nil || wi.Updates == nil {
			return core.GeneralReply("")
		}
		return core.Intent{
			Action:  core.ActionUpdate,
			Match:   decodeMatch(wi.Match),
			Updates: decodeUpdates(wi.Updates),
		}

	case core.ActionDelete:
		if wi.Match == nil {
			return core.GeneralReply("")
		}
		return core.Intent{
			Action: core.ActionDelete,
			Match:  decodeMatch(wi.Match),
		}

	case core.ActionGeneralReply:
		return core.GeneralReply(wi.Reply)

	default:
		return core.GeneralReply("")
	}
}

func decodeMatch(wm *wireMatch) *core.Match {
	m := &core.Match{
		ID:        wm.ID,
		Type:      wm.Type,
		Category:  wm.Category,
		Date:      wm.Date,
		StartDate: wm.StartDate,
		EndDate:   wm.EndDate,
	}
	if wm.Amount != nil {
		if f, err := wm.Amount.Float64(); err == nil {
			m.Amount = &f
		}
	}
	return m
}

func decodeUpdates(wu *wireUpdates) *core.Updates {
	u := &core.Updates{
		Type:        wu.Type,
		Category:    wu.Category,
		Description: wu.Description,
		ExpenseDate: wu.ExpenseDate,
	}
	if wu.Amount != nil {
		if f, err := wu.Amount.Float64(); err == nil {
			u.Amount = &f
		}
	}
	return u
}
