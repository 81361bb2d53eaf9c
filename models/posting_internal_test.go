package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/backoffice_backend/utils"
)

func TestPostingTransitions(t *testing.T) {
	p := newPosting(context.Background(), PostingOperationCreate, 1)
	for _, to := range []PostingState{PostingStateValidating, PostingStatePosting, PostingStateCommitted} {
		if err := p.transition(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if !p.state.IsTerminal() {
		t.Fatalf("expected terminal state, got %s", p.state)
	}
	want := []PostingState{PostingStateDraft, PostingStateValidating, PostingStatePosting, PostingStateCommitted}
	if len(p.history) != len(want) {
		t.Fatalf("history = %v", p.history)
	}
	for i := range want {
		if p.history[i] != want[i] {
			t.Fatalf("history = %v, want %v", p.history, want)
		}
	}
	if err := p.transition(PostingStateFailed); err == nil {
		t.Fatalf("expected no transition out of Committed")
	}
}

func TestPostingIllegalTransitions(t *testing.T) {
	cases := []struct {
		from []PostingState
		to   PostingState
	}{
		{nil, PostingStatePosting},
		{nil, PostingStateCommitted},
		{nil, PostingStateFailed},
		{[]PostingState{PostingStateValidating}, PostingStateCommitted},
		{[]PostingState{PostingStateValidating, PostingStateFailed}, PostingStateValidating},
	}
	for _, tc := range cases {
		p := newPosting(context.Background(), PostingOperationUpdate, 1)
		for _, s := range tc.from {
			if err := p.transition(s); err != nil {
				t.Fatalf("setup transition to %s: %v", s, err)
			}
		}
		if err := p.transition(tc.to); err == nil {
			t.Fatalf("expected %s -> %s to be rejected", p.state, tc.to)
		}
	}
}

func TestPostingFail(t *testing.T) {
	cause := utils.NewValidationError("quantity", "bad")

	p := newPosting(context.Background(), PostingOperationCreate, 2)
	_ = p.transition(PostingStateValidating)
	if err := p.fail(cause); err != cause {
		t.Fatalf("fail should return its argument, got %v", err)
	}
	if p.state != PostingStateFailed {
		t.Fatalf("state = %s, want Failed", p.state)
	}

	// failing from Draft leaves the state alone
	draft := newPosting(context.Background(), PostingOperationDelete, 1)
	if err := draft.fail(cause); err != cause {
		t.Fatalf("unexpected error %v", err)
	}
	if draft.state != PostingStateDraft {
		t.Fatalf("state = %s, want Draft", draft.state)
	}
}

func TestCreateTransactionRejectsZeroClock(t *testing.T) {
	orig := postingClock
	postingClock = func() time.Time { return time.Time{} }
	t.Cleanup(func() { postingClock = orig })

	_, err := CreateTransaction(context.Background(), &NewTransaction{
		CustomerId:  1,
		InvoiceDate: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		Items:       []NewTransactionItem{{ProductId: 1, Quantity: 1}},
	})
	if !errors.Is(err, utils.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestPostingStateText(t *testing.T) {
	var s PostingState
	if err := s.UnmarshalText([]byte("Posting")); err != nil || s != PostingStatePosting {
		t.Fatalf("UnmarshalText(Posting) = %s, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("posting")); err == nil {
		t.Fatalf("expected unknown state to be rejected")
	}
	b, _ := PostingStateCommitted.MarshalText()
	if string(b) != "Committed" {
		t.Fatalf("MarshalText = %s", b)
	}
}

func TestAggregateStockItems(t *testing.T) {
	got := aggregateStockItems([]StockItem{
		{ProductId: 3, Quantity: 1},
		{ProductId: 1, Quantity: 2},
		{ProductId: 3, Quantity: 4},
	})
	if len(got) != 2 || got[0] != (StockItem{ProductId: 1, Quantity: 2}) || got[1] != (StockItem{ProductId: 3, Quantity: 5}) {
		t.Fatalf("aggregateStockItems = %+v", got)
	}
}
