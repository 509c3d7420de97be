package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DateLayout = "2006-01-02"

	MaxAccountNameLen  = 10
	MaxCategoryNameLen = 15
	MaxNoteLen         = 20
	MaxDescriptionLen  = 200
)

const (
	AccountCash    AccountType = "cash"
	AccountDigital AccountType = "digital"

	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"

	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"

	DirectionOut Direction = "out"
	DirectionIn  Direction = "in"
)

type (
	AccountType     string
	CategoryType    string
	TransactionType string

	// Direction tells which side of a transfer a row records.
	Direction string

	Date struct {
		time.Time
	}

	// TimeOfDay is a wall-clock time with minute precision.
	TimeOfDay struct {
		Hour   int
		Minute int
	}

	Account struct {
		ID          string
		OwnerID     string
		Name        string
		Type        AccountType
		Description string
		Balance     Money // derived, never stored
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Category struct {
		ID          string
		OwnerID     string
		Name        string
		Type        CategoryType
		Icon        string
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("amount must be a positive number with at most 10 integer digits and 2 decimal places")
	ErrInvalidFee    = errors.New("fee must be a non-negative number with at most 10 integer digits and 2 decimal places")
	ErrInvalidDate   = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidTime   = errors.New("time must be formatted as HH:MM")
)

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

func (t AccountType) IsValid() bool {
	return t == AccountCash || t == AccountDigital
}

func (t CategoryType) IsValid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

func (t TransactionType) IsValid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// ParseTimeOfDay parses a 24h HH:MM time.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeOfDay{}, ErrInvalidTime
	}
	return TimeOfDay{Hour: atoi2(m[1]), Minute: atoi2(m[2])}, nil
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// AccountInput carries the user-editable fields of an account.
type AccountInput struct {
	Name        string
	Type        AccountType
	Description string
}

func (in AccountInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Validation("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxAccountNameLen {
		return Validation("name", fmt.Sprintf("name must be at most %d characters", MaxAccountNameLen))
	}
	if !in.Type.IsValid() {
		return Validation("type", "type must be one of cash, digital")
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLen {
		return Validation("description", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen))
	}
	return nil
}

// AccountPatch is a partial account update; nil fields are left unchanged.
type AccountPatch struct {
	Name        *string
	Type        *AccountType
	Description *string
}

// Apply merges p over the current state of a.
func (p AccountPatch) Apply(a Account) AccountInput {
	in := AccountInput{Name: a.Name, Type: a.Type, Description: a.Description}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Type != nil {
		in.Type = *p.Type
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	return in
}

// CategoryInput carries the user-editable fields of a category.
type CategoryInput struct {
	Name        string
	Type        CategoryType
	Icon        string
	Description string
}

func (in CategoryInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Validation("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLen {
		return Validation("name", fmt.Sprintf("name must be at most %d characters", MaxCategoryNameLen))
	}
	if !in.Type.IsValid() {
		return Validation("type", "type must be one of income, expense")
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLen {
		return Validation("description", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen))
	}
	return nil
}

// CategoryPatch is a partial category update; nil fields are left unchanged.
type CategoryPatch struct {
	Name        *string
	Type        *CategoryType
	Icon        *string
	Description *string
}

// Apply merges p over the current state of c.
func (p CategoryPatch) Apply(c Category) CategoryInput {
	in := CategoryInput{Name: c.Name, Type: c.Type, Icon: c.Icon, Description: c.Description}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Type != nil {
		in.Type = *p.Type
	}
	if p.Icon != nil {
		in.Icon = *p.Icon
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	return in
}
