package ingest

import "strings"

// ResponseFormatter shapes the HTTP response body for a vendor. Vendors with
// a bespoke acknowledgement contract register their own formatter; everyone
// else gets the generic shape.
type ResponseFormatter interface {
	Success(leadID *string) any
	Failure(message string, leadID *string) any
}

// FormatterRegistry resolves a formatter by vendor key, case-insensitive,
// with a default branch.
type FormatterRegistry struct {
	formatters map[string]ResponseFormatter
	fallback   ResponseFormatter
}

// NewFormatterRegistry builds the closed set of vendor response formats.
func NewFormatterRegistry() *FormatterRegistry {
	return &FormatterRegistry{
		formatters: map[string]ResponseFormatter{
			"lendingtree": lendingTreeFormatter{},
		},
		fallback: genericFormatter{},
	}
}

// For returns the formatter for a vendor, falling back to the generic shape.
func (r *FormatterRegistry) For(vendor string) ResponseFormatter {
	if f, ok := r.formatters[strings.ToLower(vendor)]; ok {
		return f
	}
	return r.fallback
}

type genericResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	LeadID  *string `json:"leadId"`
}

type genericFormatter struct{}

func (genericFormatter) Success(leadID *string) any {
	return genericResponse{
		Status:  "success",
		Message: "Leads processed asynchronously.",
		LeadID:  leadID,
	}
}

func (genericFormatter) Failure(message string, leadID *string) any {
	return genericResponse{
		Status:  "error",
		Message: message,
		LeadID:  leadID,
	}
}

// leadAcknowledgement is LendingTree's partner acknowledgement contract.
type leadAcknowledgement struct {
	LeadExternalID    *string `json:"leadExternalId"`
	PartnerDecision   string  `json:"partnerDecision"`
	AttemptRetransmit bool    `json:"attemptRetransmit"`
}

type lendingTreeResponse struct {
	LeadAcknowledgement leadAcknowledgement `json:"leadAcknowledgement"`
	Error               string              `json:"error,omitempty"`
}

type lendingTreeFormatter struct{}

func (lendingTreeFormatter) Success(leadID *string) any {
	return lendingTreeResponse{
		LeadAcknowledgement: leadAcknowledgement{
			LeadExternalID:    leadID,
			PartnerDecision:   "accepted",
			AttemptRetransmit: false,
		},
	}
}

func (lendingTreeFormatter) Failure(message string, leadID *string) any {
	return lendingTreeResponse{
		LeadAcknowledgement: leadAcknowledgement{
			LeadExternalID:    leadID,
			PartnerDecision:   "rejected",
			AttemptRetransmit: true,
		},
		Error: message,
	}
}
