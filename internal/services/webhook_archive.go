package services

import (
	"context"
	"fmt"
	"path"
	"time"

	"razorpay-provider/internal/models"
	"razorpay-provider/pkg/storage"

	"github.com/google/uuid"
)

// WebhookArchive keeps the exact bytes of every verified delivery so events
// can be replayed or audited.
type WebhookArchive struct {
	store  storage.ObjectStore
	prefix string
	now    func() time.Time
}

func NewWebhookArchive(store storage.ObjectStore, prefix string) *WebhookArchive {
	return &WebhookArchive{store: store, prefix: prefix, now: time.Now}
}

func (a *WebhookArchive) Store(ctx context.Context, envelope *models.WebhookEnvelope, result *models.WebhookResult) (*storage.ObjectInfo, error) {
	name := envelope.EventID()
	if name == "" {
		name = "noid-" + uuid.NewString()
	}

	now := a.now().UTC()
	key := path.Join(a.prefix, now.Format("2006/01/02"), name+".json")

	metadata := map[string]string{
		"event":  result.Event,
		"action": string(result.Action),
	}
	if result.Payment != nil {
		metadata["payment_id"] = result.Payment.ID
		metadata["order_id"] = result.Payment.OrderID
	}

	info, err := a.store.Put(ctx, &storage.Object{
		Key:         key,
		Body:        envelope.RawBody,
		ContentType: "application/json",
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive webhook %s: %w", name, err)
	}
	return info, nil
}

// Load returns an archived body by key.
func (a *WebhookArchive) Load(ctx context.Context, key string) ([]byte, error) {
	body, _, err := a.store.Get(ctx, key)
	return body, err
}
