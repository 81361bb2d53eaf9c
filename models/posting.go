package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/sirupsen/logrus"
)

// postingClock supplies the period used for invoice numbering.
var postingClock = time.Now

var postingTransitions = map[PostingState][]PostingState{
	PostingStateDraft:      {PostingStateValidating},
	PostingStateValidating: {PostingStatePosting, PostingStateFailed},
	PostingStatePosting:    {PostingStateCommitted, PostingStateFailed},
}

// posting tracks one attempt of a create, update or delete through
// Draft -> Validating -> Posting -> Committed, or -> Failed.
type posting struct {
	ctx           context.Context
	operation     PostingOperation
	attempt       int
	state         PostingState
	invoiceNumber string
	history       []PostingState
}

func newPosting(ctx context.Context, operation PostingOperation, attempt int) *posting {
	return &posting{
		ctx:       ctx,
		operation: operation,
		attempt:   attempt,
		state:     PostingStateDraft,
		history:   []PostingState{PostingStateDraft},
	}
}

func (p *posting) logFields() logrus.Fields {
	fields := utils.LogFieldsFromContext(p.ctx)
	fields["operation"] = p.operation
	fields["attempt"] = p.attempt
	if p.invoiceNumber != "" {
		fields["invoice_number"] = p.invoiceNumber
	}
	return fields
}

func (p *posting) transition(to PostingState) error {
	allowed := false
	for _, next := range postingTransitions[p.state] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("illegal posting transition %s -> %s", p.state, to)
	}

	config.GetLogger().WithFields(p.logFields()).
		WithField("from", p.state).
		WithField("to", to).
		Debug("posting transition")
	p.state = to
	p.history = append(p.history, to)
	return nil
}

// fail moves the posting to Failed and returns err for the caller to pass on.
// Called after the unit of work has been abandoned.
func (p *posting) fail(err error) error {
	if p.state == PostingStateValidating || p.state == PostingStatePosting {
		if terr := p.transition(PostingStateFailed); terr != nil {
			return errors.Join(err, terr)
		}
	}
	entry := config.GetLogger().WithFields(p.logFields()).WithError(err)
	if errors.Is(err, utils.ErrPersistence) {
		entry.Error("posting failed")
	} else {
		entry.Info("posting rejected")
	}
	return err
}

// lockInvoicePeriod serializes numbering for one month across instances.
// Without redis, or if the lock is busy, the unique index plus retry still
// keeps numbers distinct.
func lockInvoicePeriod(ctx context.Context, period time.Time) func() {
	release, err := utils.ObtainLock(ctx, "invoiceNumber", InvoicePeriod(period), 10*time.Second, 2*time.Second)
	if err != nil {
		if !errors.Is(err, utils.ErrLockUnavailable) {
			config.GetLogger().WithFields(utils.LogFieldsFromContext(ctx)).WithError(err).
				Warn("invoice period lock not obtained; relying on unique index")
		}
		return func() {}
	}
	return release
}
