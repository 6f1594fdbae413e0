package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"razorpay-provider/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type fakeCache struct {
	deleted []string
	sets    map[string]interface{}
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if c.sets == nil {
		c.sets = map[string]interface{}{}
	}
	c.sets[key] = value
	return nil
}

func (c *fakeCache) Get(context.Context, string, interface{}) error {
	return errors.New("miss")
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}

func TestCustomerRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get by id decodes metadata", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "cus_1"},
			{Key: "email", Value: "asha@example.com"},
			{Key: "phone", Value: "+919000000000"},
			{Key: "metadata", Value: bson.D{
				{Key: "razorpay", Value: bson.D{{Key: "rp_customer_id", Value: "cust_rzp_1"}}},
			}},
		}))

		cache := &fakeCache{}
		repo := NewCustomerRepository(mt.DB, mt.Coll.Name(), cache)

		customer, err := repo.GetByID(context.Background(), "cus_1")
		require.NoError(mt, err)
		assert.Equal(mt, "asha@example.com", customer.Email)
		assert.Equal(mt, "cust_rzp_1", customer.RazorpayCustomerID())
		assert.Contains(mt, cache.sets, "customer:cus_1")
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		repo := NewCustomerRepository(mt.DB, mt.Coll.Name(), nil)

		_, err := repo.GetByID(context.Background(), "cus_missing")
		assert.ErrorIs(mt, err, interfaces.ErrCustomerNotFound)
	})

	mt.Run("update metadata invalidates cache", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		cache := &fakeCache{}
		repo := NewCustomerRepository(mt.DB, mt.Coll.Name(), cache)

		err := repo.UpdateMetadata(context.Background(), "cus_1", "razorpay", map[string]interface{}{"rp_customer_id": "cust_2"})
		require.NoError(mt, err)
		assert.Equal(mt, []string{"customer:cus_1"}, cache.deleted)
	})

	mt.Run("update metadata unknown customer", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		repo := NewCustomerRepository(mt.DB, mt.Coll.Name(), nil)

		err := repo.UpdateMetadata(context.Background(), "cus_x", "razorpay", map[string]interface{}{"rp_customer_id": "cust_2"})
		assert.ErrorIs(mt, err, interfaces.ErrCustomerNotFound)
	})
}
