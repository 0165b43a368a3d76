package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"confidante-backend/internal/mail"
	"confidante-backend/internal/store"
	"confidante-backend/internal/types"
	"confidante-backend/internal/validation"
)

const (
	maxContactBody = 64 << 10
	archiveTimeout = 5 * time.Second
)

const (
	msgRequired       = "Required"
	msgExpectedString = "Expected string"
	msgInvalidJSON    = "Invalid JSON body"
)

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)

	req, fieldErrs := decodeContact(r)
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, types.ContactResponse{
			Success: false,
			Message: "Invalid form data",
			Errors:  fieldErrs,
		})
		return
	}

	if !s.mailer.Configured() {
		s.logger.Error("contact email not sent", zap.Error(mail.ErrNotConfigured))
		s.sendFailed(w)
		return
	}

	msg := mail.NewContactMessage(s.cfg.EmailUser, []string{s.cfg.EmailTo}, req)
	res, err := s.mailer.Send(r.Context(), msg)
	if err != nil {
		s.logger.Error("contact email not sent", zap.Error(err))
		s.sendFailed(w)
		return
	}
	if res == nil || len(res.Accepted) == 0 {
		s.logger.Error("contact email not sent", zap.Error(mail.ErrNotAccepted))
		s.sendFailed(w)
		return
	}
	s.logger.Info("contact email sent", zap.Int("accepted", len(res.Accepted)), zap.Int("rejected", len(res.Rejected)))

	// The email is already out, so the record is written even if the client
	// has gone away.
	if s.archive != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), archiveTimeout)
		defer cancel()
		sub := store.NewSubmission(req)
		if err := s.archive.SaveSubmission(ctx, sub); err != nil {
			s.logger.Warn("failed to archive contact submission", zap.String("id", sub.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, types.ContactResponse{Success: true, Message: "Email sent successfully"})
}

func (s *Server) sendFailed(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, types.ContactResponse{Success: false, Error: "Failed to send email"})
}

// decodeContact checks field presence and type before applying the form
// rules, reporting every problem at once in name, email, message, subject
// order.
func decodeContact(r *http.Request) (types.ContactRequest, []types.FieldError) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || raw == nil {
		return types.ContactRequest{}, []types.FieldError{{Field: "", Message: msgInvalidJSON}}
	}

	var (
		req  types.ContactRequest
		errs []types.FieldError
	)
	for _, field := range validation.Fields {
		value, problem := stringField(raw, field, true)
		if problem == "" {
			problem = validation.Validate(field, value)
		}
		if problem != "" {
			errs = append(errs, types.FieldError{Field: field, Message: problem})
			continue
		}
		switch field {
		case validation.FieldName:
			req.Name = value
		case validation.FieldEmail:
			req.Email = value
		case validation.FieldMessage:
			req.Message = value
		}
	}

	subject, problem := stringField(raw, "subject", false)
	if problem != "" {
		errs = append(errs, types.FieldError{Field: "subject", Message: problem})
	}
	req.Subject = subject

	return req, errs
}

func stringField(raw map[string]json.RawMessage, field string, required bool) (string, string) {
	v, ok := raw[field]
	if !ok {
		if required {
			return "", msgRequired
		}
		return "", ""
	}
	var s string
	// json null decodes into a string without error, so reject it explicitly
	if string(v) == "null" || json.Unmarshal(v, &s) != nil {
		return "", msgExpectedString
	}
	return s, ""
}
