package models

// These structs define the JSON payloads for the scrolls HTTP API.

// CreateScrollRequest is the input for capturing a new scroll.
type CreateScrollRequest struct {
	Text string `json:"text"`
}

// UpdateScrollRequest carries the editable content fields.
type UpdateScrollRequest struct {
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
}

// ScrollPageResponse is one page of a tenant's scrolls.
type ScrollPageResponse struct {
	Scrolls     []*Scroll `json:"scrolls"`
	Page        int       `json:"page"`
	HasNext     bool      `json:"hasNext"`
	HasPrevious bool      `json:"hasPrevious"`
	SearchTerm  string    `json:"searchTerm,omitempty"`
	EditingID   string    `json:"editingId,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}
