package finance

import (
	"strconv"

	"moneta/internal/core"
)

// maxCatchUp caps how many missed occurrences a single processing pass will
// materialize per template, so a template with a far-past next date cannot
// stall the batch.
const maxCatchUp = 500

type (
	// SkippedOccurrence records an occurrence that was not materialized
	// because a matching transaction already existed. The template's next
	// date still advances.
	SkippedOccurrence struct {
		RecurringID int64
		Date        core.Date
	}

	// ProcessResult is the outcome of one materialization pass. Created
	// transactions carry no ID yet; Updated templates carry their advanced
	// NextDate and possibly a cleared IsActive flag.
	ProcessResult struct {
		Created []core.Transaction
		Updated []core.RecurringTransaction
		Skipped []SkippedOccurrence
	}
)

// NextOccurrence advances a date by one frequency step. Weekly adds seven
// calendar days. Monthly adds one calendar month, clamping to the last day
// of the target month when needed; the clamped day then carries forward
// (Jan 31 -> Feb 29 -> Mar 29).
func NextOccurrence(d core.Date, f core.Frequency) core.Date {
	switch f {
	case core.Weekly:
		return d.AddDays(7)
	default:
		return d.AddMonthsClamped(1)
	}
}

// IsDue reports whether a recurring template should be processed as of the
// given date.
func IsDue(r core.RecurringTransaction, asOf core.Date) bool {
	if !r.IsActive || r.NextDate.Time.After(asOf.Time) {
		return false
	}
	if r.EndDate != nil && r.EndDate.Time.Before(asOf.Time) {
		return false
	}
	return true
}

// ProcessDue materializes every due occurrence of the given templates up to
// asOf. An occurrence whose (date, amount, type) already matches an existing
// transaction is skipped but the template still advances, which makes the
// pass idempotent: running it twice with the same inputs creates nothing new
// and lands on the same next dates. Templates advanced past their end date
// are deactivated.
//
// The function is pure; persisting Created and Updated is the caller's job,
// and a persistence failure on one entry must not stop the others.
func ProcessDue(recs []core.RecurringTransaction, asOf core.Date, existing []core.Transaction) ProcessResult {
	seen := make(map[string]struct{}, len(existing))
	for _, tx := range existing {
		seen[occurrenceKey(tx.UserID, tx.Date, tx.Amount.String(), tx.Type)] = struct{}{}
	}

	var res ProcessResult
	for _, r := range recs {
		if !IsDue(r, asOf) {
			continue
		}
		changed := false
		for i := 0; r.IsActive && !r.NextDate.Time.After(asOf.Time) && i < maxCatchUp; i++ {
			key := occurrenceKey(r.UserID, r.NextDate, r.Amount.String(), r.Type)
			if _, dup := seen[key]; dup {
				res.Skipped = append(res.Skipped, SkippedOccurrence{RecurringID: r.ID, Date: r.NextDate})
			} else {
				tx := core.Transaction{
					UserID:      r.UserID,
					Type:        r.Type,
					Amount:      r.Amount,
					Currency:    r.Currency,
					CategoryID:  r.CategoryID,
					Date:        r.NextDate,
					Description: r.Description,
				}
				res.Created = append(res.Created, tx)
				seen[key] = struct{}{}
			}

			r.NextDate = NextOccurrence(r.NextDate, r.Frequency)
			if r.EndDate != nil && r.NextDate.Time.After(r.EndDate.Time) {
				r.IsActive = false
			}
			changed = true
		}
		if changed {
			res.Updated = append(res.Updated, r)
		}
	}
	return res
}

// occurrenceKey is the duplicate-detection heuristic: two unrelated series
// coinciding in user, date, amount and type will collide and the second one
// is skipped. An explicit idempotency key would avoid that at the cost of a
// schema change.
func occurrenceKey(userID int64, d core.Date, amount string, t core.TransactionType) string {
	return strconv.FormatInt(userID, 10) + "|" + d.Format("2006-01-02") + "|" + amount + "|" + string(t)
}
