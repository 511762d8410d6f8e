package dto

// ForwardRequest is the shared inbound body of the webhook and on-demand
// flows. CaseNumber is required only on the on-demand path.
type ForwardRequest struct {
	TicketID     int64  `json:"ticketId"`
	BrandID      string `json:"brandId"`
	EndpointName string `json:"endpointName"`
	CaseNumber   string `json:"caseNumber,omitempty"`
}

// AttachmentError names one attachment that could not be forwarded. The
// error string is short and never carries backend response detail.
type AttachmentError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// ForwardResponse reports the outcome of one forwarding run. Success is
// false when any attachment failed even though the document itself went
// through.
type ForwardResponse struct {
	Success       bool              `json:"success"`
	TicketID      int64             `json:"ticketId"`
	CaseNumber    string            `json:"caseNumber"`
	DocumentBytes int64             `json:"documentBytes"`
	Forwarded     int               `json:"forwarded"`
	Errors        []AttachmentError `json:"errors,omitempty"`
}
