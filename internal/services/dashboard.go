package services

import (
	"context"
	"fmt"
	"strings"

	"registro/internal/db"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Querier is the query-execution contract the aggregation engine consumes.
// It is backend-oblivious: placeholders, id generation, and row shapes are
// normalized below it.
type Querier interface {
	FetchOne(ctx context.Context, query string, args ...any) (db.Row, error)
	FetchMany(ctx context.Context, query string, args ...any) ([]db.Row, error)
}

// Filter narrows dashboard aggregates. Date bounds are inclusive and apply
// to each table's own date column; the expense-type filter applies to
// expenses only. Zero values mean "no filter".
type Filter struct {
	StartDate     string
	EndDate       string
	ClientID      int64
	ExpenseTypeID int64
}

// incomeConditions returns the filter conditions for income rows, with
// column names qualified by prefix.
func (f Filter) incomeConditions(prefix string) ([]string, []any) {
	var conds []string
	var args []any
	if f.StartDate != "" {
		conds = append(conds, prefix+"income_date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, prefix+"income_date <= ?")
		args = append(args, f.EndDate)
	}
	if f.ClientID != 0 {
		conds = append(conds, prefix+"client_id = ?")
		args = append(args, f.ClientID)
	}
	return conds, args
}

// expenseConditions returns the filter conditions for daily expense rows.
func (f Filter) expenseConditions(prefix string) ([]string, []any) {
	var conds []string
	var args []any
	if f.StartDate != "" {
		conds = append(conds, prefix+"expense_date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, prefix+"expense_date <= ?")
		args = append(args, f.EndDate)
	}
	if f.ClientID != 0 {
		conds = append(conds, prefix+"client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.ExpenseTypeID != 0 {
		conds = append(conds, prefix+"expense_type_id = ?")
		args = append(args, f.ExpenseTypeID)
	}
	return conds, args
}

// IncomeWhere renders the income filter as a WHERE clause (empty when no
// filter applies) plus its ordered arguments, for callers composing list
// queries over the same filter shape.
func (f Filter) IncomeWhere(prefix string) (string, []any) {
	conds, args := f.incomeConditions(prefix)
	return whereClause(conds), args
}

// ExpenseWhere is IncomeWhere's counterpart for daily expense rows.
func (f Filter) ExpenseWhere(prefix string) (string, []any) {
	conds, args := f.expenseConditions(prefix)
	return whereClause(conds), args
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func andClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " AND " + strings.Join(conds, " AND ")
}

type (
	// TypeBreakdown is the expense sum for one expense type. Types with no
	// matching expenses appear with a zero total.
	TypeBreakdown struct {
		ExpenseType string  `json:"expense_type"`
		Total       float64 `json:"total"`
	}

	// ClientStat ranks one client by net contribution under the active
	// filters. Clients with neither income nor expenses are excluded.
	ClientStat struct {
		ID           int64   `json:"id"`
		Name         string  `json:"name"`
		TotalIncome  float64 `json:"total_income"`
		TotalExpense float64 `json:"total_expense"`
	}

	// RecentTransactions holds the five most recent rows per category,
	// as two separate sequences.
	RecentTransactions struct {
		Expenses []db.Row `json:"expenses"`
		Income   []db.Row `json:"income"`
	}

	// Summary is the full dashboard payload.
	Summary struct {
		TotalIncome   float64            `json:"totalIncome"`
		TotalExpense  float64            `json:"totalExpense"`
		Balance       float64            `json:"balance"`
		ExpenseByType []TypeBreakdown    `json:"expenseByType"`
		ClientStats   []ClientStat       `json:"clientStats"`
		Recent        RecentTransactions `json:"recentTransactions"`
	}
)

// DashboardService computes read-only aggregates over the base tables.
type DashboardService struct {
	q Querier
}

func NewDashboardService(q Querier) *DashboardService {
	return &DashboardService{q: q}
}

// Summary computes the six dashboard outputs for the given filter. The
// sub-queries run as a group; the first failure cancels the rest and fails
// the whole request, so a partial dashboard is never returned.
func (s *DashboardService) Summary(ctx context.Context, f Filter) (*Summary, error) {
	var sum Summary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.totalIncome(gctx, f)
		sum.TotalIncome = total
		return err
	})
	g.Go(func() error {
		total, err := s.totalExpense(gctx, f)
		sum.TotalExpense = total
		return err
	})
	g.Go(func() error {
		breakdown, err := s.expenseByType(gctx, f)
		sum.ExpenseByType = breakdown
		return err
	})
	g.Go(func() error {
		stats, err := s.clientStats(gctx, f)
		sum.ClientStats = stats
		return err
	})
	g.Go(func() error {
		recent, err := s.recentTransactions(gctx, f)
		sum.Recent = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Exact decimal subtraction; float subtraction of 10.1 - 0.3 style
	// totals would leak representation noise into the payload.
	sum.Balance = decimal.NewFromFloat(sum.TotalIncome).
		Sub(decimal.NewFromFloat(sum.TotalExpense)).
		InexactFloat64()

	return &sum, nil
}

func (s *DashboardService) totalIncome(ctx context.Context, f Filter) (float64, error) {
	conds, args := f.incomeConditions("")
	row, err := s.q.FetchOne(ctx,
		`SELECT COALESCE(SUM(amount), 0) AS total FROM income`+whereClause(conds), args...)
	if err != nil {
		return 0, fmt.Errorf("total income: %w", err)
	}
	return toFloat(row["total"]), nil
}

func (s *DashboardService) totalExpense(ctx context.Context, f Filter) (float64, error) {
	conds, args := f.expenseConditions("")
	row, err := s.q.FetchOne(ctx,
		`SELECT COALESCE(SUM(amount), 0) AS total FROM daily_expenses`+whereClause(conds), args...)
	if err != nil {
		return 0, fmt.Errorf("total expense: %w", err)
	}
	return toFloat(row["total"]), nil
}

// expenseByType lists every expense type with its filtered expense sum,
// largest first, id as the deterministic tie-break.
func (s *DashboardService) expenseByType(ctx context.Context, f Filter) ([]TypeBreakdown, error) {
	conds, args := f.expenseConditions("de.")
	query := `
		SELECT et.name AS expense_type, COALESCE(SUM(de.amount), 0) AS total
		FROM expense_types et
		LEFT JOIN daily_expenses de ON de.expense_type_id = et.id` + andClause(conds) + `
		GROUP BY et.id, et.name
		ORDER BY total DESC, et.id ASC`

	rows, err := s.q.FetchMany(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expense breakdown: %w", err)
	}

	breakdown := make([]TypeBreakdown, 0, len(rows))
	for _, row := range rows {
		breakdown = append(breakdown, TypeBreakdown{
			ExpenseType: toString(row["expense_type"]),
			Total:       toFloat(row["total"]),
		})
	}
	return breakdown, nil
}

// clientStats sums income and expenses per client in separate grouped
// subqueries so the two tables never multiply each other's rows, then ranks
// clients by net (income - expense) descending, id ascending on ties.
func (s *DashboardService) clientStats(ctx context.Context, f Filter) ([]ClientStat, error) {
	incConds, incArgs := f.incomeConditions("")
	expConds, expArgs := f.expenseConditions("")

	query := `
		SELECT c.id, c.name,
		       COALESCE(inc.total, 0) AS total_income,
		       COALESCE(exp.total, 0) AS total_expense
		FROM clients c
		LEFT JOIN (
			SELECT client_id, SUM(amount) AS total FROM income` + whereClause(incConds) + `
			GROUP BY client_id
		) inc ON inc.client_id = c.id
		LEFT JOIN (
			SELECT client_id, SUM(amount) AS total FROM daily_expenses` + whereClause(expConds) + `
			GROUP BY client_id
		) exp ON exp.client_id = c.id
		WHERE inc.client_id IS NOT NULL OR exp.client_id IS NOT NULL
		ORDER BY (COALESCE(inc.total, 0) - COALESCE(exp.total, 0)) DESC, c.id ASC`

	args := append(append([]any{}, incArgs...), expArgs...)
	rows, err := s.q.FetchMany(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("client stats: %w", err)
	}

	stats := make([]ClientStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, ClientStat{
			ID:           toInt(row["id"]),
			Name:         toString(row["name"]),
			TotalIncome:  toFloat(row["total_income"]),
			TotalExpense: toFloat(row["total_expense"]),
		})
	}
	return stats, nil
}

// recentTransactions fetches the five most recent rows per category,
// newest transaction date first, insertion time as the second key.
func (s *DashboardService) recentTransactions(ctx context.Context, f Filter) (RecentTransactions, error) {
	expConds, expArgs := f.expenseConditions("de.")
	expenses, err := s.q.FetchMany(ctx, `
		SELECT de.*, c.name AS client_name, et.name AS expense_type_name,
		       'expense' AS transaction_type
		FROM daily_expenses de
		LEFT JOIN clients c ON de.client_id = c.id
		LEFT JOIN expense_types et ON de.expense_type_id = et.id`+whereClause(expConds)+`
		ORDER BY de.expense_date DESC, de.created_at DESC
		LIMIT 5`, expArgs...)
	if err != nil {
		return RecentTransactions{}, fmt.Errorf("recent expenses: %w", err)
	}

	incConds, incArgs := f.incomeConditions("i.")
	income, err := s.q.FetchMany(ctx, `
		SELECT i.*, c.name AS client_name,
		       'income' AS transaction_type
		FROM income i
		LEFT JOIN clients c ON i.client_id = c.id`+whereClause(incConds)+`
		ORDER BY i.income_date DESC, i.created_at DESC
		LIMIT 5`, incArgs...)
	if err != nil {
		return RecentTransactions{}, fmt.Errorf("recent income: %w", err)
	}

	if expenses == nil {
		expenses = []db.Row{}
	}
	if income == nil {
		income = []db.Row{}
	}
	return RecentTransactions{Expenses: expenses, Income: income}, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case string:
		if d, err := decimal.NewFromString(n); err == nil {
			return d.InexactFloat64()
		}
	}
	return 0
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
