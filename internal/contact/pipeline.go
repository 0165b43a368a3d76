// Package contact implements the client side of the contact form: field
// validation on blur and submit, and a single relay request per submission.
package contact

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"confidante-backend/internal/types"
	"confidante-backend/internal/validation"
)

// Status is the submission state shown next to the submit button.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

var ErrSubmitInFlight = errors.New("contact: submission already in progress")

// Submitter delivers a validated form to the mail relay endpoint.
type Submitter interface {
	Submit(ctx context.Context, form validation.FormState) (*types.ContactResponse, error)
}

// State is a snapshot of the pipeline.
type State struct {
	Form   validation.FormState
	Errors validation.FieldErrors
	Status Status
}

// Pipeline tracks one contact form. It is safe for concurrent use.
type Pipeline struct {
	submitter Submitter
	logger    *zap.Logger

	mu     sync.Mutex
	form   validation.FormState
	errs   validation.FieldErrors
	status Status
}

func NewPipeline(submitter Submitter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{submitter: submitter, logger: logger, status: StatusIdle}
}

// SetField records a keystroke. Any error showing for the field is cleared
// until the next blur or submit.
func (p *Pipeline) SetField(field, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.form.Set(field, value) {
		return
	}
	p.errs.Set(field, "")
}

// Blur validates a single field and returns its message.
func (p *Pipeline) Blur(field string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := validation.Validate(field, p.form.Get(field))
	p.errs.Set(field, msg)
	return msg
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{Form: p.form, Errors: p.errs, Status: p.status}
}

// Submit validates every field and, when all pass, sends the form once.
// Invalid forms leave the status untouched and make no request.
func (p *Pipeline) Submit(ctx context.Context) (Status, error) {
	p.mu.Lock()
	if p.status == StatusLoading {
		p.mu.Unlock()
		return StatusLoading, ErrSubmitInFlight
	}
	p.errs = validation.ValidateForm(p.form)
	if p.errs.Any() {
		st := p.status
		p.mu.Unlock()
		return st, nil
	}
	p.status = StatusLoading
	form := p.form
	p.mu.Unlock()

	resp, err := p.submitter.Submit(ctx, form)

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case err != nil:
		p.logger.Warn("contact submission failed", zap.Error(err))
		p.status = StatusError
	case resp == nil || !resp.Success:
		reason := "empty response"
		if resp != nil {
			reason = firstNonEmpty(resp.Error, resp.Message, "rejected")
		}
		p.logger.Warn("contact submission rejected", zap.String("reason", reason))
		p.status = StatusError
	default:
		p.form = validation.FormState{}
		p.status = StatusSuccess
	}
	return p.status, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
