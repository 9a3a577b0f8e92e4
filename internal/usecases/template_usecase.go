package usecases

import (
	"context"

	"github.com/microcosm-cc/bluemonday"

	"recovery-kita.backend/internal/domain/entities"
	domainerrors "recovery-kita.backend/internal/domain/errors"
	"recovery-kita.backend/internal/domain/repositories"
)

// TemplateUsecase stores merchant dunning templates. Bodies are sanitized
// against an HTML allowlist before they ever hit the database; the token
// placeholders survive sanitization because they are plain text.
type TemplateUsecase struct {
	templateRepo repositories.EmailTemplateRepository
	policy       *bluemonday.Policy
}

func NewTemplateUsecase(templateRepo repositories.EmailTemplateRepository) *TemplateUsecase {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "br", "strong", "em", "b", "i", "u", "ul", "ol", "li", "h1", "h2", "h3", "span", "div")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowStandardURLs()
	return &TemplateUsecase{templateRepo: templateRepo, policy: policy}
}

// Save sanitizes and upserts a template for one retry attempt.
func (u *TemplateUsecase) Save(ctx context.Context, merchant *entities.Merchant, input *entities.EmailTemplateInput) (*entities.EmailTemplate, error) {
	if input.RetryAttempt < 1 || input.RetryAttempt > 3 {
		return nil, domainerrors.BadRequest("retry attempt must be 1, 2 or 3")
	}
	if len(input.Subject) == 0 || len(input.Subject) > 200 {
		return nil, domainerrors.BadRequest("subject must be 1-200 characters")
	}

	tpl := &entities.EmailTemplate{
		MerchantID:   merchant.ID.String(),
		RetryAttempt: input.RetryAttempt,
		Subject:      input.Subject,
		Body:         u.policy.Sanitize(input.Body),
	}
	if err := u.templateRepo.Upsert(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}
