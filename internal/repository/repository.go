package repository

import (
	"context"

	"github.com/preacpe/go-frost-alerts/internal/models"
)

// SubscriberRepository owns the alert opt-in lifecycle. Phones are stored
// normalized and unique; implementations must keep concurrent subscribes for
// the same phone from producing two records.
type SubscriberRepository interface {
	// Subscribe registers the phone. When it is already registered the
	// existing record is returned with already=true and nothing is mutated.
	Subscribe(ctx context.Context, phone, name string) (sub *models.Subscriber, already bool, err error)
	// Unsubscribe removes the phone, reporting whether a record existed.
	Unsubscribe(ctx context.Context, phone string) (removed bool, err error)
	// GetByPhone returns the record for phone, or nil when not subscribed.
	GetByPhone(ctx context.Context, phone string) (*models.Subscriber, error)
	List(ctx context.Context) ([]models.Subscriber, error)
}
