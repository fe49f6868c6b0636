package core

import "testing"

func TestParseTxType(t *testing.T) {
	tests := []struct {
		in      string
		want    TxType
		wantErr bool
	}{
		{"income", TxTypeIncome, false},
		{"expense", TxTypeExpense, false},
		{"savings", TxTypeSavings, false},
		{" Expense ", TxTypeExpense, false},
		{"EXPENSE", TxTypeExpense, false},
		{"loan", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTxType(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTxType(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTxType(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTxType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchHasConstraint(t *testing.T) {
	id := int64(7)
	amount := 12.5

	tests := []struct {
		name string
		m    *Match
		want bool
	}{
		{"nil match", nil, false},
		{"empty match", &Match{}, false},
		{"id only", &Match{ID: &id}, true},
		{"category only", &Match{Category: "food"}, true},
		{"amount only", &Match{Amount: &amount}, true},
		{"date range", &Match{StartDate: "2024-01-01"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.HasConstraint(); got != tt.want {
				t.Errorf("HasConstraint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdatesIsEmpty(t *testing.T) {
	if !(*Updates)(nil).IsEmpty() {
		t.Error("nil updates should be empty")
	}
	if !(&Updates{}).IsEmpty() {
		t.Error("zero updates should be empty")
	}
	cat := "groceries"
	if (&Updates{Category: &cat}).IsEmpty() {
		t.Error("updates with a field should not be empty")
	}
}
