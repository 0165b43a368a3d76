package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"confidante-backend/internal/types"
)

// Submission is a contact form message that was relayed successfully.
type Submission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSubmission(req types.ContactRequest) Submission {
	return Submission{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
}

// Archive records relayed submissions.
type Archive interface {
	SaveSubmission(ctx context.Context, sub Submission) error
}
