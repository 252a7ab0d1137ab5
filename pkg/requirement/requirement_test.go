package requirement

import "testing"

type fakeCtx struct{ seqno uint64 }

func (f fakeCtx) Seqno() uint64 { return f.seqno }

func TestEvaluateCachesWithinSeqno(t *testing.T) {
	calls := 0
	req := New(func(Context) Result {
		calls++
		return Pending
	}, nil)

	ctx := fakeCtx{seqno: 5}
	if got := req.Evaluate(ctx); got != Pending {
		t.Fatalf("Evaluate() = %v, want Pending", got)
	}
	if got := req.Evaluate(ctx); got != Pending {
		t.Fatalf("Evaluate() (repeat) = %v, want Pending", got)
	}
	if calls != 1 {
		t.Fatalf("Test invoked %d times at the same seqno, want 1", calls)
	}
}

func TestEvaluateRerunsAfterSeqnoAdvances(t *testing.T) {
	calls := 0
	req := New(func(ctx Context) Result {
		calls++
		if ctx.Seqno() >= 2 {
			return Satisfied
		}
		return Pending
	}, nil)

	if got := req.Evaluate(fakeCtx{seqno: 1}); got != Pending {
		t.Fatalf("Evaluate() = %v, want Pending", got)
	}
	if got := req.Evaluate(fakeCtx{seqno: 2}); got != Satisfied {
		t.Fatalf("Evaluate() after seqno advance = %v, want Satisfied", got)
	}
	if calls != 2 {
		t.Fatalf("Test invoked %d times, want 2", calls)
	}
}

func TestListEvaluateAllPermanentFailureWins(t *testing.T) {
	l := List{
		New(func(Context) Result { return Satisfied }, nil),
		New(func(Context) Result { return PermanentFailure }, nil),
		New(func(Context) Result { return Pending }, nil),
	}
	if got := l.EvaluateAll(fakeCtx{seqno: 1}); got != PermanentFailure {
		t.Fatalf("EvaluateAll() = %v, want PermanentFailure", got)
	}
}

func TestListEvaluateAllPendingWhenNoneFail(t *testing.T) {
	l := List{
		New(func(Context) Result { return Satisfied }, nil),
		New(func(Context) Result { return Pending }, nil),
	}
	if got := l.EvaluateAll(fakeCtx{seqno: 1}); got != Pending {
		t.Fatalf("EvaluateAll() = %v, want Pending", got)
	}
}

func TestListEvaluateAllSatisfied(t *testing.T) {
	l := List{
		New(func(Context) Result { return Satisfied }, nil),
		New(func(Context) Result { return Satisfied }, nil),
	}
	if got := l.EvaluateAll(fakeCtx{seqno: 1}); got != Satisfied {
		t.Fatalf("EvaluateAll() = %v, want Satisfied", got)
	}
}

func TestResultString(t *testing.T) {
	if Satisfied.String() != "satisfied" {
		t.Errorf("Satisfied.String() = %q", Satisfied.String())
	}
	if PermanentFailure.String() != "permanent-failure" {
		t.Errorf("PermanentFailure.String() = %q", PermanentFailure.String())
	}
}
