package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date form used on the wire and in the store.
const DateLayout = "2006-01-02"

var (
	ErrMissingName   = errors.New("name is required")
	ErrMissingAmount = errors.New("amount is required")
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrMissingDate   = errors.New("date is required")
	ErrInvalidDate   = errors.New("date must be in YYYY-MM-DD format")
)

type (
	// ClientInput is the payload for creating or updating a client.
	ClientInput struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}

	// ExpenseTypeInput is the payload for creating or updating an expense type.
	ExpenseTypeInput struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	// DailyExpenseInput is the payload for creating or updating a daily expense.
	// The type and client references are advisory and may be absent.
	DailyExpenseInput struct {
		ExpenseTypeID *int64          `json:"expense_type_id"`
		ClientID      *int64          `json:"client_id"`
		Amount        decimal.Decimal `json:"amount"`
		ExpenseDate   string          `json:"expense_date"`
		Description   string          `json:"description"`
	}

	// IncomeInput is the payload for creating or updating an income entry.
	IncomeInput struct {
		ClientID    *int64          `json:"client_id"`
		Amount      decimal.Decimal `json:"amount"`
		IncomeDate  string          `json:"income_date"`
		Description string          `json:"description"`
	}
)

func (c ClientInput) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	return nil
}

func (e ExpenseTypeInput) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrMissingName
	}
	return nil
}

func (e DailyExpenseInput) Validate() error {
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	return validateDate(e.ExpenseDate)
}

func (i IncomeInput) Validate() error {
	if err := validateAmount(i.Amount); err != nil {
		return err
	}
	return validateDate(i.IncomeDate)
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return ErrMissingAmount
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func validateDate(date string) error {
	if strings.TrimSpace(date) == "" {
		return ErrMissingDate
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return ErrInvalidDate
	}
	return nil
}
