package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"razorpay-provider/internal/models"
	"razorpay-provider/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const customerCacheTTL = 15 * time.Minute

// CacheService is the slice of pkg/cache the repository uses.
type CacheService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type customerRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewCustomerRepository(db *mongo.Database, collection string, cache CacheService) interfaces.CustomerRepository {
	return &customerRepository{
		collection: db.Collection(collection),
		cache:      cache,
	}
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	if customer := r.getCustomerFromCache(ctx, id); customer != nil {
		return customer, nil
	}

	var customer models.Customer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("customer %s: %w", id, interfaces.ErrCustomerNotFound)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	r.cacheCustomer(ctx, &customer)
	return &customer, nil
}

func (r *customerRepository) UpdateMetadata(ctx context.Context, id, namespace string, patch map[string]interface{}) error {
	set := bson.M{"updated_at": time.Now()}
	for key, value := range patch {
		set[fmt.Sprintf("metadata.%s.%s", namespace, key)] = value
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update customer metadata: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("customer %s: %w", id, interfaces.ErrCustomerNotFound)
	}

	r.invalidateCustomerCache(ctx, id)
	return nil
}

func (r *customerRepository) cacheCustomer(ctx context.Context, customer *models.Customer) {
	if r.cache != nil {
		r.cache.Set(ctx, customerCacheKey(customer.ID), customer, customerCacheTTL)
	}
}

func (r *customerRepository) getCustomerFromCache(ctx context.Context, id string) *models.Customer {
	if r.cache == nil {
		return nil
	}

	var customer models.Customer
	if err := r.cache.Get(ctx, customerCacheKey(id), &customer); err != nil {
		return nil
	}
	return &customer
}

func (r *customerRepository) invalidateCustomerCache(ctx context.Context, id string) {
	if r.cache != nil {
		r.cache.Delete(ctx, customerCacheKey(id))
	}
}

func customerCacheKey(id string) string {
	return fmt.Sprintf("customer:%s", id)
}
