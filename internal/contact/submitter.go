package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"confidante-backend/internal/types"
	"confidante-backend/internal/validation"
)

// HTTPSubmitter posts the form as JSON to the relay endpoint.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSubmitter targets endpoint, e.g. "https://confidante.com/api/contact".
// A nil client means http.DefaultClient.
func NewHTTPSubmitter(endpoint string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSubmitter{endpoint: endpoint, client: client}
}

// Submit sends one request. The JSON envelope is decoded whatever the status
// code; a body that is not an envelope is an error.
func (s *HTTPSubmitter) Submit(ctx context.Context, form validation.FormState) (*types.ContactResponse, error) {
	body, err := json.Marshal(types.ContactRequest{Name: form.Name, Email: form.Email, Message: form.Message})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build contact request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post contact form: %w", err)
	}
	defer resp.Body.Close()

	var out types.ContactResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode contact response (status %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}
