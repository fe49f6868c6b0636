package reply

import (
	"strings"
	"testing"
	"time"

	"ledgerbot/internal/core"
)

func tx(typ core.TxType, cents int64, category, date string) core.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return core.Transaction{
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		ExpenseDate: d,
	}
}

func TestCreated(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"with description", "groceries", "✅ Recorded expense: 20 for food. (groceries)"},
		{"without description", "", "✅ Recorded expense: 20 for food."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Created(core.Transaction{
				Type:        core.TxTypeExpense,
				Amount:      core.Money{Cents: 2000},
				Category:    "food",
				Description: tt.description,
			})
			if got != tt.want {
				t.Errorf("Created() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListing(t *testing.T) {
	t.Run("single row", func(t *testing.T) {
		got := Listing([]core.Transaction{tx(core.TxTypeExpense, 2050, "food", "2024-01-10")}, 1)
		want := "expense 20.50 food on 2024-01-10"
		if got != want {
			t.Errorf("Listing() = %q, want %q", got, want)
		}
	})

	t.Run("truncates past ten rows", func(t *testing.T) {
		var txs []core.Transaction
		for i := 0; i < 12; i++ {
			txs = append(txs, tx(core.TxTypeExpense, 100, "misc", "2024-01-10"))
		}
		got := Listing(txs, 12)
		lines := strings.Split(got, "\n")
		if len(lines) != 11 {
			t.Fatalf("got %d lines, want 11", len(lines))
		}
		if lines[10] != "(+2 more)" {
			t.Errorf("last line = %q, want %q", lines[10], "(+2 more)")
		}
	})

	t.Run("total from a larger result set", func(t *testing.T) {
		got := Listing([]core.Transaction{tx(core.TxTypeIncome, 500000, "salary", "2024-01-01")}, 40)
		if !strings.HasSuffix(got, "(+39 more)") {
			t.Errorf("Listing() = %q, want trailing (+39 more)", got)
		}
	})
}

func TestSummary(t *testing.T) {
	sums := map[core.TxType]core.Money{
		core.TxTypeIncome:  {Cents: 500000},
		core.TxTypeExpense: {Cents: 123450},
	}
	got := Summary(sums, core.Money{Cents: 376550})
	want := "income: 5000, expense: 1234.50, savings: 0, balance: 3765.50"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestCounts(t *testing.T) {
	if got := Updated(1); got != "Updated 1 transaction." {
		t.Errorf("Updated(1) = %q", got)
	}
	if got := Updated(3); got != "Updated 3 transactions." {
		t.Errorf("Updated(3) = %q", got)
	}
	if got := Deleted(0); got != "Deleted 0 transactions." {
		t.Errorf("Deleted(0) = %q", got)
	}
	if got := Deleted(1); got != "Deleted 1 transaction." {
		t.Errorf("Deleted(1) = %q", got)
	}
}
