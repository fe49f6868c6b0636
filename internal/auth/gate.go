// Package auth decides whether a sender may run a ledger operation.
package auth

import (
	"regexp"
	"strings"

	"ledgerbot/internal/core"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Allow lets the operation proceed.
	Allow Decision = iota
	// RequireConsent means the sender has not shared contact details yet.
	RequireConsent
	// RequirePendingApproval means the sender consented but is not allowed yet.
	RequirePendingApproval
	// RequireSecret means a secret word is configured and was not supplied.
	RequireSecret
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequireConsent:
		return "require_consent"
	case RequirePendingApproval:
		return "require_pending_approval"
	case RequireSecret:
		return "require_secret"
	default:
		return "unknown"
	}
}

// Gate applies the consent, approval and secret-word rules in order.
type Gate struct {
	secretRe *regexp.Regexp
}

// NewGate builds a gate. An empty secret disables the secret-word rule.
func NewGate(secretWord string) *Gate {
	g := &Gate{}
	if secretWord != "" {
		g.secretRe = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(secretWord) + `\b`)
	}
	return g
}

// ExtractSecret removes the first whole-word occurrence of the secret from
// message, case-insensitively, and reports whether it was present. The
// returned text has surrounding and doubled whitespace collapsed. When no
// secret is configured the message is returned unchanged.
func (g *Gate) ExtractSecret(message string) (string, bool) {
	if g.secretRe == nil {
		return message, false
	}
	loc := g.secretRe.FindStringIndex(message)
	if loc == nil {
		return message, false
	}
	cleaned := message[:loc[0]] + message[loc[1]:]
	return strings.Join(strings.Fields(cleaned), " "), true
}

// Authorize evaluates the rules for a classified action. The rules apply
// only to ledger actions; the caller pre-checks consent before any message
// is classified, so conversation needs no gating here.
func (g *Gate) Authorize(user *core.User, action core.Action, secretPresent bool) Decision {
	if !action.IsDataAction() {
		return Allow
	}
	if user == nil || !user.Consented {
		return RequireConsent
	}
	if !user.Allowed {
		return RequirePendingApproval
	}
	if g.secretRe != nil && !secretPresent {
		return RequireSecret
	}
	return Allow
}
