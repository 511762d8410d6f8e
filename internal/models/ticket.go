package models

import "time"

// Ticket is the subset of the helpdesk ticket the gateway consumes.
// BrandID is a pointer: a ticket without a brand is unverifiable and the
// ownership cross-check rejects it rather than assuming a tenant.
type Ticket struct {
	ID           int64         `json:"id"`
	Subject      string        `json:"subject"`
	Status       string        `json:"status"`
	BrandID      *int64        `json:"brand_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// CustomField is a helpdesk ticket field; values are loosely typed upstream.
type CustomField struct {
	ID    int64       `json:"id"`
	Value interface{} `json:"value"`
}

// Comment is a single ticket conversation entry.
type Comment struct {
	ID          int64        `json:"id"`
	AuthorID    int64        `json:"author_id"`
	Public      bool         `json:"public"`
	HTMLBody    string       `json:"html_body"`
	PlainBody   string       `json:"plain_body"`
	CreatedAt   time.Time    `json:"created_at"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file attached to a comment.
type Attachment struct {
	ID          int64  `json:"id"`
	FileName    string `json:"file_name"`
	ContentURL  string `json:"content_url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// User is a helpdesk user referenced by comments.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
