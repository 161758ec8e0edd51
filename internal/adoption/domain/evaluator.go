package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// DefaultMinIncome is the lowest income that can be approved.
const DefaultMinIncome int64 = 1_600_000

// MinNameLength is the shortest requester name that passes validation.
const MinNameLength = 4

// Verdict is the outcome of an evaluation.
type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictRejected Verdict = "REJECTED"
)

// Decision is the evaluated result of a request.
type Decision struct {
	Request   Request
	Verdict   Verdict
	Reason    string
	DecidedAt time.Time
}

// Approved reports whether the request was approved.
func (d Decision) Approved() bool {
	return d.Verdict == VerdictApproved
}

// Evaluator applies the approval rule: income at least MinIncome and a
// requester name of at least MinNameLength characters.
type Evaluator struct {
	MinIncome int64
}

// NewEvaluator creates an evaluator; a non-positive minIncome selects the default.
func NewEvaluator(minIncome int64) Evaluator {
	if minIncome <= 0 {
		minIncome = DefaultMinIncome
	}
	return Evaluator{MinIncome: minIncome}
}

// Evaluate decides req. Income is checked first so its reason wins when both fail.
func (e Evaluator) Evaluate(req Request, at time.Time) Decision {
	d := Decision{Request: req, Verdict: VerdictRejected, DecidedAt: at.UTC()}

	switch {
	case req.Income < e.MinIncome:
		d.Reason = fmt.Sprintf("Insufficient income (%s) to adopt this pet. Minimum required: %s",
			FormatIncome(req.Income), FormatIncome(e.MinIncome))
	case utf8.RuneCountInString(req.RequesterName) < MinNameLength:
		d.Reason = "Name too short for validation"
	default:
		d.Verdict = VerdictApproved
		d.Reason = "You meet all the requirements!"
	}
	return d
}
