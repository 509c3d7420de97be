package services

import (
	"context"
	"strings"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

// TransactionQuery selects a page of one account's rows. Dates are optional
// inclusive YYYY-MM-DD bounds; Page is 1-based and PageSize 0 means the
// configured default.
type TransactionQuery struct {
	AccountID  string
	CategoryID string
	DateStart  string
	DateEnd    string
	Page       int
	PageSize   int
}

// CategorySummaryQuery selects the rows folded into a category report. An
// empty Type includes both income and expense categories.
type CategorySummaryQuery struct {
	Type      core.CategoryType
	AccountID string
	DateStart string
	DateEnd   string
}

// AggregationService derives day summaries, counts and per-category totals.
type AggregationService struct {
	*deps
	logger          *log.Logger
	defaultPageSize int
}

// dateRange validates optional inclusive bounds and returns them in the
// canonical YYYY-MM-DD form the store compares against. Blank bounds are
// absent.
func dateRange(start, end string) (string, string, error) {
	var s, e core.Date
	var err error
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start != "" {
		if s, err = core.ParseDate(start); err != nil {
			return "", "", core.Validation("dateStart", err.Error())
		}
		start = s.String()
	}
	if end != "" {
		if e, err = core.ParseDate(end); err != nil {
			return "", "", core.Validation("dateEnd", err.Error())
		}
		end = e.String()
	}
	if start != "" && end != "" && e.Before(s.Time) {
		return "", "", core.Validation("dateEnd", "dateEnd must not be before dateStart")
	}
	return start, end, nil
}

func (s *AggregationService) normalize(q TransactionQuery) (TransactionQuery, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		return q, core.Validation("page", "page must be at least 1")
	}
	if q.PageSize == 0 {
		q.PageSize = s.defaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return q, core.Validation("pageSize", "pageSize must be between 1 and 100")
	}
	if q.AccountID == "" {
		return q, core.Validation("accountID", "accountID is required")
	}
	var err error
	if q.DateStart, q.DateEnd, err = dateRange(q.DateStart, q.DateEnd); err != nil {
		return q, err
	}
	return q, nil
}

// scope checks that the account, and the category when set, belong to owner.
func scope(ctx context.Context, q *storage.Queries, owner, accountID, categoryID string) error {
	if _, err := q.GetAccount(ctx, owner, accountID); err != nil {
		return notFound(err, "account", accountID)
	}
	if categoryID != "" {
		if _, err := q.GetCategory(ctx, owner, categoryID); err != nil {
			return notFound(err, "category", categoryID)
		}
	}
	return nil
}

func (tq TransactionQuery) filter(owner string) storage.TransactionFilter {
	return storage.TransactionFilter{
		Owner:      owner,
		AccountID:  tq.AccountID,
		CategoryID: tq.CategoryID,
		DateStart:  tq.DateStart,
		DateEnd:    tq.DateEnd,
	}
}

// ListTransactions returns one page of rows, newest first, grouped by day.
// The page window is cut on rows, so a day may straddle two pages.
func (s *AggregationService) ListTransactions(ctx context.Context, owner string, tq TransactionQuery) (core.TransactionPage, error) {
	if err := requireOwner(owner); err != nil {
		return core.TransactionPage{}, err
	}
	tq, err := s.normalize(tq)
	if err != nil {
		return core.TransactionPage{}, err
	}

	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.TransactionPage{}, core.Internal(err)
	}
	defer sess.Close()

	q := sess.Queries()
	if err := scope(ctx, q, owner, tq.AccountID, tq.CategoryID); err != nil {
		return core.TransactionPage{}, err
	}

	f := tq.filter(owner)
	total, err := q.CountTransactions(ctx, f)
	if err != nil {
		return core.TransactionPage{}, core.Internal(err)
	}
	f.Limit = tq.PageSize
	f.Offset = (tq.Page - 1) * tq.PageSize
	rows, err := q.ListTransactions(ctx, f)
	if err != nil {
		return core.TransactionPage{}, core.Internal(err)
	}

	s.logger.DebugContext(ctx, "Transactions page listed",
		log.FieldOwner, owner,
		log.FieldAccountID, tq.AccountID,
		"page", tq.Page,
		"rows", len(rows),
		"total", total)

	return core.TransactionPage{
		Items:       core.GroupByDay(rows),
		HasMore:     tq.Page*tq.PageSize < total,
		CurrentPage: tq.Page,
	}, nil
}

// ListTransactionsByCategory is ListTransactions restricted to one category.
func (s *AggregationService) ListTransactionsByCategory(ctx context.Context, owner string, tq TransactionQuery) (core.TransactionPage, error) {
	if tq.CategoryID == "" {
		return core.TransactionPage{}, core.Validation("categoryID", "categoryID is required")
	}
	return s.ListTransactions(ctx, owner, tq)
}

// CountTransactions counts the rows matching tq, ignoring its page window.
func (s *AggregationService) CountTransactions(ctx context.Context, owner string, tq TransactionQuery) (int, error) {
	if err := requireOwner(owner); err != nil {
		return 0, err
	}
	if tq.AccountID == "" {
		return 0, core.Validation("accountID", "accountID is required")
	}
	var err error
	if tq.DateStart, tq.DateEnd, err = dateRange(tq.DateStart, tq.DateEnd); err != nil {
		return 0, err
	}

	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return 0, core.Internal(err)
	}
	defer sess.Close()

	q := sess.Queries()
	if err := scope(ctx, q, owner, tq.AccountID, tq.CategoryID); err != nil {
		return 0, err
	}
	n, err := q.CountTransactions(ctx, tq.filter(owner))
	if err != nil {
		return 0, core.Internal(err)
	}
	return n, nil
}

// SummarizeCategories totals the account's rows per category. Income
// totals are positive and expense totals negative.
func (s *AggregationService) SummarizeCategories(ctx context.Context, owner string, cq CategorySummaryQuery) (core.CategoryReport, error) {
	if err := requireOwner(owner); err != nil {
		return core.CategoryReport{}, err
	}
	if cq.Type != "" && !cq.Type.IsValid() {
		return core.CategoryReport{}, core.Validation("type", "type must be one of income, expense")
	}
	if cq.AccountID == "" {
		return core.CategoryReport{}, core.Validation("accountID", "accountID is required")
	}
	var err error
	if cq.DateStart, cq.DateEnd, err = dateRange(cq.DateStart, cq.DateEnd); err != nil {
		return core.CategoryReport{}, err
	}

	sess, err := s.store.Acquire(ctx)
	if err != nil {
		return core.CategoryReport{}, core.Internal(err)
	}
	defer sess.Close()

	q := sess.Queries()
	if err := scope(ctx, q, owner, cq.AccountID, ""); err != nil {
		return core.CategoryReport{}, err
	}
	totals, err := q.CategoryTotals(ctx, storage.CategoryTotalsFilter{
		Owner:     owner,
		AccountID: cq.AccountID,
		Type:      cq.Type,
		DateStart: cq.DateStart,
		DateEnd:   cq.DateEnd,
	})
	if err != nil {
		return core.CategoryReport{}, core.Internal(err)
	}
	for i := range totals {
		if totals[i].Type == core.CategoryExpense {
			totals[i].Total = totals[i].Total.Neg()
		}
	}
	return core.NewCategoryReport(cq.Type, totals), nil
}
