package services

import (
	"context"
	"math"
	"testing"

	"registro/internal/db"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Connect(context.Background(), db.Config{Backend: db.SQLite, SQLitePath: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func insert(t *testing.T, d *db.DB, query string, args ...any) int64 {
	t.Helper()
	res, err := d.Execute(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return res.LastInsertID
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummaryEmptyDatabase(t *testing.T) {
	d := newTestDB(t)
	svc := NewDashboardService(d)

	sum, err := svc.Summary(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if sum.TotalIncome != 0 || sum.TotalExpense != 0 || sum.Balance != 0 {
		t.Errorf("empty db totals = %v/%v/%v, want 0/0/0", sum.TotalIncome, sum.TotalExpense, sum.Balance)
	}
	if len(sum.ClientStats) != 0 {
		t.Errorf("ClientStats = %v, want empty", sum.ClientStats)
	}
	if len(sum.Recent.Expenses) != 0 || len(sum.Recent.Income) != 0 {
		t.Errorf("Recent = %v, want empty sequences", sum.Recent)
	}
}

func TestSummaryBasicScenario(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	svc := NewDashboardService(d)

	acme := insert(t, d, `INSERT INTO clients (name) VALUES (?)`, "Acme")
	insert(t, d, `INSERT INTO income (client_id, amount, income_date) VALUES (?, ?, ?)`,
		acme, 500.0, "2024-01-10")
	insert(t, d, `INSERT INTO daily_expenses (client_id, amount, expense_date) VALUES (?, ?, ?)`,
		acme, 120.0, "2024-01-12")

	sum, err := svc.Summary(ctx, Filter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if !almostEqual(sum.TotalIncome, 500) {
		t.Errorf("TotalIncome = %v, want 500", sum.TotalIncome)
	}
	if !almostEqual(sum.TotalExpense, 120) {
		t.Errorf("TotalExpense = %v, want 120", sum.TotalExpense)
	}
	if !almostEqual(sum.Balance, 380) {
		t.Errorf("Balance = %v, want 380", sum.Balance)
	}

	if len(sum.ClientStats) != 1 {
		t.Fatalf("ClientStats len = %d, want 1", len(sum.ClientStats))
	}
	stat := sum.ClientStats[0]
	if stat.ID != acme || !almostEqual(stat.TotalIncome, 500) || !almostEqual(stat.TotalExpense, 120) {
		t.Errorf("ClientStats[0] = %+v, want id=%d income=500 expense=120", stat, acme)
	}
}

// A client with several income and expense rows must not have either total
// multiplied by the other table's row count.
func TestSummaryClientStatsNoCrossMultiplication(t *testing.T) {
	d := newTestDB(t)
	svc := NewDashboardService(d)

	acme := insert(t, d, `INSERT INTO clients (name) VALUES (?)`, "Acme")
	for _, amount := range []float64{100, 200, 300} {
		insert(t, d, `INSERT INTO income (client_id, amount, income_date) VALUES (?, ?, ?)`,
			acme, amount, "2024-02-01")
	}
	for _, amount := range []float64{10, 20} {
		insert(t, d, `INSERT INTO daily_expenses (client_id, amount, expense_date) VALUES (?, ?, ?)`,
			acme, amount, "2024-02-02")
	}

	sum, err := svc.Summary(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum.ClientStats) != 1 {
		t.Fatalf("ClientStats len = %d, want 1", len(sum.ClientStats))
	}
	if !almostEqual(sum.ClientStats[0].TotalIncome, 600) {
		t.Errorf("TotalIncome = %v, want 600", sum.ClientStats[0].TotalIncome)
	}
	if !almostEqual(sum.ClientStats[0].TotalExpense, 30) {
		t.Errorf("TotalExpense = %v, want 30", sum.ClientStats[0].TotalExpense)
	}
}

func TestSummaryBalanceInvariant(t *testing.T) {
	d := newTestDB(t)
	svc := NewDashboardService(d)

	insert(t, d, `INSERT INTO income (amount, income_date) VALUES (?, ?)`, 10.1, "2024-03-01")
	insert(t, d, `INSERT INTO daily_expenses (amount, expense_date) VALUES (?, ?)`, 0.3, "2024-03-01")

	sum, err := svc.Summary(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Balance != 9.8 {
		t.Errorf("Balance = %v, want exactly 9.8", sum.Balance)
	}
}

func TestSummaryExpenseBreakdown(t *testing.T) {
	d := newTestDB(t)
	svc := NewDashboardService(d)

	travel := insert(t, d, `INSERT INTO expense_types (name) VALUES (?)`, "Travel")
	office := insert(t, d, `INSERT INTO expense_types (name) VALUES (?)`, "Office")
	insert(t, d, `INSERT INTO expense_types (name) VALUES (?)`, "Unused")

	insert(t, d, `INSERT INTO daily_expenses (expense_type_id, amount, expense_date) VALUES (?, ?, ?)`,
		travel, 50.0, "2024-01-05")
	insert(t, d, `INSERT INTO daily_expenses (expense_type_id, amount, expense_date) VALUES (?, ?, ?)`,
		office, 200.0, "2024-01-06")
	// Untyped expense: contributes to the total but to no breakdown row.
	insert(t, d, `INSERT INTO daily_expenses (amount, expense_date) VALUES (?, ?)`, 5.0, "2024-01-07")

	sum, err := svc.Summary(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if len(sum.ExpenseByType) != 3 {
		t.Fatalf("ExpenseByType len = %d, want 3 (zero types included)", len(sum.ExpenseByType))
	}
	if sum.ExpenseByType[0].ExpenseType != "Office" || !almostEqual(sum.ExpenseByType[0].Total, 200) {
		t.Errorf("first breakdown row = %+v, want Office/200", sum.ExpenseByType[0])
	}
	if sum.ExpenseByType[1].ExpenseType != "Travel" || !almostEqual(sum.ExpenseByType[1].Total, 50) {
		t.Errorf("second breakdown row = %+v, want Travel/50", sum.ExpenseByType[1])
	}
	if sum.ExpenseByType[2].ExpenseType != "Unused" || sum.ExpenseByType[2].Total != 0 {
		t.Errorf("third breakdown row = %+v, want Unused/0", sum.ExpenseByType[2])
	}

	var breakdownTotal float64
	for _, row := range sum.ExpenseByType {
		breakdownTotal += row.Total
	}
	if !almostEqual(breakdownTotal+5, sum.TotalExpense) {
		t.Errorf("breakdown sum %v + untyped 5 != total expense %v", breakdownTotal, sum.TotalExpense)
	}
}

func TestSummaryExcludesIdleClients(t *testing.T) {
	d := newTestDB(t)
	svc := NewDashboardService(d)

	insert(t, d, `INSERT INTO clients (name) VALUES (?)`, "Idle Co")
	active := insert(t, d, `INSERT INTO clients (name) VALUES (?)`, "Active Co")
	insert(t, d, `INSERT INTO income (client_id, amount, income_date) VALUES (?, ?, ?)`,
		active, 75.0, "2024-04-01")

	sum, err := svc.Summary(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum.ClientStats) != 1 {
		t.Fatalf("ClientStats len = %d, want 1", len(sum.ClientStats))
	}
	if sum.ClientStats[0].ID != active {
		t.Errorf("ClientStats[0].ID = %d, want %d", sum.ClientStats[0].ID, active)
	}
}

func TestSummaryDateAndTypeFilters(t *testing.T) {
	d := newTestDB(t)
	svc := NewDashboardService(d)

	acme := insert(t, d, `INSERT INTO clients (name) VALUES (?)`, "Acme")
	travel := insert(t, d, `INSERT INTO expense_types (name) VALUES (?)`, "Travel")
	office := insert(t, d, `INSERT INTO expense_types (name) VALUES (?)`, "Office")

	insert(t, d, `INSERT INTO income (client_id, amount, income_date) VALUES (?, ?, ?)`,
		acme, 100.0, "2024-01-15")
	insert(t, d, `INSERT INTO income (client_id, amount, income_date) VALUES (?, ?, ?)`,
		acme, 900.0, "2024-02-15")
	insert(t, d, `INSERT INTO daily_expenses (client_id, expense_type_id, amount, expense_date) VALUES (?, ?, ?, ?)`,
		acme, travel, 40.0, "2024-01-20")
	insert(t, d, `INSERT INTO daily_expenses (client_id, expense_type_id, amount, expense_date) VALUES (?, ?, ?, ?)`,
		acme, office, 60.0, "2024-01-21")

	january := Filter{StartDate: "2024-01-01", EndDate: "2024-01-31"}
	sum, err := svc.Summary(context.Background(), january)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !almostEqual(sum.TotalIncome, 100) || !almostEqual(sum.TotalExpense, 100) || !almostEqual(sum.Balance, 0) {
		t.Errorf("january totals = %v/%v/%v, want 100/100/0", sum.TotalIncome, sum.TotalExpense, sum.Balance)
	}

	// The expense-type filter must not narrow income.
	travelOnly := Filter{ExpenseTypeID: travel}
	sum, err = svc.Summary(context.Background(), travelOnly)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !almostEqual(sum.TotalIncome, 1000) {
		t.Errorf("TotalIncome = %v, want 1000 (unfiltered by expense type)", sum.TotalIncome)
	}
	if !almostEqual(sum.TotalExpense, 40) {
		t.Errorf("TotalExpense = %v, want 40", sum.TotalExpense)
	}
	if len(sum.Recent.Expenses) != 1 {
		t.Errorf("Recent.Expenses len = %d, want 1", len(sum.Recent.Expenses))
	}
}

func TestSummaryRecentTransactionsCapAndOrder(t *testing.T) {
	d := newTestDB(t)
	svc := NewDashboardService(d)

	dates := []string{"2024-05-01", "2024-05-03", "2024-05-02", "2024-05-07", "2024-05-05", "2024-05-06", "2024-05-04"}
	for i, date := range dates {
		insert(t, d, `INSERT INTO daily_expenses (amount, expense_date, description) VALUES (?, ?, ?)`,
			float64(i+1), date, date)
		insert(t, d, `INSERT INTO income (amount, income_date, description) VALUES (?, ?, ?)`,
			float64(i+1), date, date)
	}

	sum, err := svc.Summary(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if len(sum.Recent.Expenses) != 5 {
		t.Fatalf("Recent.Expenses len = %d, want 5", len(sum.Recent.Expenses))
	}
	if len(sum.Recent.Income) != 5 {
		t.Fatalf("Recent.Income len = %d, want 5", len(sum.Recent.Income))
	}

	wantOrder := []string{"2024-05-07", "2024-05-06", "2024-05-05", "2024-05-04", "2024-05-03"}
	for i, want := range wantOrder {
		if got := sum.Recent.Expenses[i]["expense_date"]; got != want {
			t.Errorf("Recent.Expenses[%d] date = %v, want %v", i, got, want)
		}
		if got := sum.Recent.Income[i]["income_date"]; got != want {
			t.Errorf("Recent.Income[%d] date = %v, want %v", i, got, want)
		}
	}
	if sum.Recent.Expenses[0]["transaction_type"] != "expense" {
		t.Errorf("transaction_type = %v, want expense", sum.Recent.Expenses[0]["transaction_type"])
	}
}

// Orphaned references survive client deletion; joins must still surface the
// rows with a null client name.
func TestSummaryToleratesDanglingClientReferences(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	svc := NewDashboardService(d)

	ghost := insert(t, d, `INSERT INTO clients (name) VALUES (?)`, "Ghost")
	insert(t, d, `INSERT INTO daily_expenses (client_id, amount, expense_date) VALUES (?, ?, ?)`,
		ghost, 42.0, "2024-06-01")
	if _, err := d.Execute(ctx, `DELETE FROM clients WHERE id = ?`, ghost); err != nil {
		t.Fatalf("delete client: %v", err)
	}

	sum, err := svc.Summary(ctx, Filter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !almostEqual(sum.TotalExpense, 42) {
		t.Errorf("TotalExpense = %v, want 42", sum.TotalExpense)
	}
	if len(sum.Recent.Expenses) != 1 {
		t.Fatalf("Recent.Expenses len = %d, want 1", len(sum.Recent.Expenses))
	}
	if sum.Recent.Expenses[0]["client_name"] != nil {
		t.Errorf("client_name = %v, want nil for dangling reference", sum.Recent.Expenses[0]["client_name"])
	}
	// The deleted client no longer appears in per-client rankings.
	if len(sum.ClientStats) != 0 {
		t.Errorf("ClientStats = %v, want empty", sum.ClientStats)
	}
}
