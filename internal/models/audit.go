package models

import "time"

// AuditRecord captures operational metadata for one forwarded ticket.
// It intentionally carries no names, comment bodies or credentials.
type AuditRecord struct {
	ID              string    `json:"id"`
	TicketID        int64     `json:"ticketId"`
	BrandID         string    `json:"brandId"`
	Endpoint        string    `json:"endpoint"`
	CaseNumber      string    `json:"caseNumber"`
	CommentCount    int       `json:"commentCount"`
	AttachmentCount int       `json:"attachmentCount"`
	DocumentBytes   int64     `json:"documentBytes"`
	DurationMS      int64     `json:"durationMs"`
	CreatedAt       time.Time `json:"createdAt"`
}
