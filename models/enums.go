package models

import (
	"errors"
	"strconv"
)

type PostingState string

const (
	PostingStateDraft      PostingState = "Draft"
	PostingStateValidating PostingState = "Validating"
	PostingStatePosting    PostingState = "Posting"
	PostingStateCommitted  PostingState = "Committed"
	PostingStateFailed     PostingState = "Failed"
)

func (s PostingState) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

func (s *PostingState) UnmarshalText(b []byte) error {
	postingStates := map[string]PostingState{
		"Draft":      PostingStateDraft,
		"Validating": PostingStateValidating,
		"Posting":    PostingStatePosting,
		"Committed":  PostingStateCommitted,
		"Failed":     PostingStateFailed,
	}

	var ok bool
	*s, ok = postingStates[string(b)]
	if !ok {
		return errors.New("invalid posting state " + strconv.Quote(string(b)))
	}
	return nil
}

// IsTerminal reports whether no further transition is possible.
func (s PostingState) IsTerminal() bool {
	return s == PostingStateCommitted || s == PostingStateFailed
}

type PostingOperation string

const (
	PostingOperationCreate PostingOperation = "create"
	PostingOperationUpdate PostingOperation = "update"
	PostingOperationDelete PostingOperation = "delete"
)
