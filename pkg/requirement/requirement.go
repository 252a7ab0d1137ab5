// Package requirement implements the lazy, seqno-gated predicate tests an
// action may depend on before it is allowed to dispatch.
package requirement

// Result is the outcome of testing a Requirement.
type Result int

const (
	// Satisfied means the requirement currently holds; the action may proceed.
	Satisfied Result = iota
	// Pending means the requirement does not hold yet but may later; the
	// worker parks and is revisited only after the event sequence advances.
	Pending
	// PermanentFailure means the requirement can never hold; the worker
	// that depends on it fails outright.
	PermanentFailure
)

func (r Result) String() string {
	switch r {
	case Satisfied:
		return "satisfied"
	case Pending:
		return "pending"
	case PermanentFailure:
		return "permanent-failure"
	default:
		return "unknown"
	}
}

// Context is whatever a Test function needs to decide a Result: at minimum
// the current global event sequence number, used to gate re-evaluation.
type Context interface {
	Seqno() uint64
}

// Requirement is a test function plus the data it closed over and the
// event-sequence number at which it was last evaluated. It is re-tested
// only when Context.Seqno() has advanced past LastSeqno (Testable
// Property 5: a requirement is evaluated at most once per seqno value).
type Requirement struct {
	Test      func(Context) Result
	Data      any
	LastSeqno uint64

	hasRun bool
	cached Result
}

// New builds a Requirement around test, carrying an arbitrary data value
// for the test's own bookkeeping (e.g. the child worker index it watches).
func New(test func(Context) Result, data any) *Requirement {
	return &Requirement{Test: test, Data: data}
}

// Evaluate runs Test against ctx, unless ctx.Seqno() has not advanced past
// the seqno of the last run, in which case the cached Result is returned
// without invoking Test again.
func (r *Requirement) Evaluate(ctx Context) Result {
	seqno := ctx.Seqno()
	if r.hasRun && seqno <= r.LastSeqno {
		return r.cached
	}
	r.cached = r.Test(ctx)
	r.LastSeqno = seqno
	r.hasRun = true
	return r.cached
}

// List is the ordered set of requirements gating one action.
type List []*Requirement

// EvaluateAll evaluates every requirement in order and folds the results:
// PermanentFailure wins outright, then Pending, and only if every
// requirement reports Satisfied does the whole list report Satisfied.
// Evaluation does not short-circuit on Pending, since every requirement's
// own seqno gating must still advance independently.
func (l List) EvaluateAll(ctx Context) Result {
	result := Satisfied
	for _, req := range l {
		switch req.Evaluate(ctx) {
		case PermanentFailure:
			return PermanentFailure
		case Pending:
			if result == Satisfied {
				result = Pending
			}
		}
	}
	return result
}
