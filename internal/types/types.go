package types

// ContactRequest is the JSON body accepted by POST /api/contact.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Subject string `json:"subject,omitempty"`
}

// FieldError names one invalid field of a request body. Field is empty when
// the body as a whole could not be parsed.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ContactResponse is returned by POST /api/contact for every outcome.
type ContactResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatOptionRequest struct {
	Option string `json:"option"`
}

// ChatMessage is one transcript entry as rendered by the chat widget.
type ChatMessage struct {
	Text    string   `json:"text"`
	IsUser  bool     `json:"isUser"`
	Options []string `json:"options,omitempty"`
}

type ChatResponse struct {
	SessionID string   `json:"sessionId"`
	Reply     string   `json:"reply"`
	Options   []string `json:"options,omitempty"`
}

type TranscriptResponse struct {
	SessionID   string        `json:"sessionId"`
	Transcript  []ChatMessage `json:"transcript"`
	Suggestions []string      `json:"suggestions"`
}

type PostSummary struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Category string `json:"category"`
	ReadTime string `json:"readTime"`
	Excerpt  string `json:"excerpt"`
	Image    string `json:"image,omitempty"`
}

type PostResponse struct {
	PostSummary
	HTML string `json:"html"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
