package auth

import (
	"testing"

	"ledgerbot/internal/core"
)

func TestExtractSecret(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		message     string
		wantText    string
		wantPresent bool
	}{
		{
			name:        "secret at start",
			secret:      "unlock",
			message:     "unlock spent 20 on food",
			wantText:    "spent 20 on food",
			wantPresent: true,
		},
		{
			name:        "secret in the middle",
			secret:      "unlock",
			message:     "please unlock show my expenses",
			wantText:    "please show my expenses",
			wantPresent: true,
		},
		{
			name:        "case insensitive",
			secret:      "unlock",
			message:     "UNLOCK spent 5 on coffee",
			wantText:    "spent 5 on coffee",
			wantPresent: true,
		},
		{
			name:        "substring does not count",
			secret:      "unlock",
			message:     "unlocked the door",
			wantText:    "unlocked the door",
			wantPresent: false,
		},
		{
			name:        "absent",
			secret:      "unlock",
			message:     "spent 20 on food",
			wantText:    "spent 20 on food",
			wantPresent: false,
		},
		{
			name:        "no secret configured",
			secret:      "",
			message:     "unlock spent 20 on food",
			wantText:    "unlock spent 20 on food",
			wantPresent: false,
		},
		{
			name:        "only first occurrence removed",
			secret:      "unlock",
			message:     "unlock unlock balance",
			wantText:    "unlock balance",
			wantPresent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.secret)
			got, present := g.ExtractSecret(tt.message)
			if got != tt.wantText {
				t.Errorf("text = %q, want %q", got, tt.wantText)
			}
			if present != tt.wantPresent {
				t.Errorf("present = %v, want %v", present, tt.wantPresent)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	consented := &core.User{ID: "1", Consented: true}
	allowed := &core.User{ID: "1", Consented: true, Allowed: true}

	tests := []struct {
		name          string
		secret        string
		user          *core.User
		action        core.Action
		secretPresent bool
		want          Decision
	}{
		{"unknown user", "", nil, core.ActionCreate, false, RequireConsent},
		{"unknown user general reply", "", nil, core.ActionGeneralReply, false, Allow},
		{"not consented", "", &core.User{ID: "1"}, core.ActionRead, false, RequireConsent},
		{"consented not allowed data action", "", consented, core.ActionCreate, false, RequirePendingApproval},
		{"consented not allowed general reply", "", consented, core.ActionGeneralReply, false, Allow},
		{"allowed no secret configured", "", allowed, core.ActionDelete, false, Allow},
		{"secret configured and missing", "unlock", allowed, core.ActionCreate, false, RequireSecret},
		{"secret configured and present", "unlock", allowed, core.ActionCreate, true, Allow},
		{"secret never gates general reply", "unlock", allowed, core.ActionGeneralReply, false, Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.secret)
			if got := g.Authorize(tt.user, tt.action, tt.secretPresent); got != tt.want {
				t.Errorf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}
