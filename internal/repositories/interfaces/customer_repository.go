package interfaces

import (
	"context"
	"errors"

	"razorpay-provider/internal/models"
)

var ErrCustomerNotFound = errors.New("customer not found")

// CustomerRepository is the host customer store the provider reads from and
// writes gateway linkage back to.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*models.Customer, error)

	// UpdateMetadata merges patch into metadata.<namespace>, leaving other
	// keys in the namespace untouched.
	UpdateMetadata(ctx context.Context, id, namespace string, patch map[string]interface{}) error
}
