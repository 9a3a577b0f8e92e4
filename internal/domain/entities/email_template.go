package entities

import "time"

// EmailTemplate is a merchant-customized dunning email for one retry
// attempt. Bodies are sanitized server-side before storage; the only
// substitution tokens honored at render time are {{customer_name}},
// {{amount}} and {{update_url}}.
type EmailTemplate struct {
	ID           int64     `json:"id"`
	MerchantID   string    `json:"merchantId"`
	RetryAttempt int       `json:"retryAttempt"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EmailTemplateInput is the create/update shape for POST /email-templates.
type EmailTemplateInput struct {
	RetryAttempt int    `json:"retryAttempt" binding:"required,min=1,max=3"`
	Subject      string `json:"subject" binding:"required,max=200"`
	Body         string `json:"body" binding:"required"`
}
