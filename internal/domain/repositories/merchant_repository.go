package repositories

import (
	"context"

	"github.com/google/uuid"
	"recovery-kita.backend/internal/domain/entities"
)

// MerchantRepository defines merchant data operations. Token fields are
// encrypted transparently by the implementation.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *entities.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Merchant, error)
	GetByAuthUserID(ctx context.Context, authUserID string) (*entities.Merchant, error)
	GetByStripeAccountID(ctx context.Context, accountID string) (*entities.Merchant, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*entities.Merchant, error)
	Update(ctx context.Context, merchant *entities.Merchant) error
	UpdatePlan(ctx context.Context, id uuid.UUID, planID string) error
	List(ctx context.Context) ([]*entities.Merchant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
