package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
	Down        func(ctx context.Context, db *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	log        logrus.FieldLogger
}

func NewMigrator(db *mongo.Database, customers string, log logrus.FieldLogger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(customers),
		log:        log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}
		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func getMigrations(customers string) []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Index customer contact fields",
			Up: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection(customers).Indexes().CreateMany(ctx, []mongo.IndexModel{
					{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("email_1")},
					{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetName("phone_1")},
				})
				return err
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				return dropIndexes(ctx, db.Collection(customers), "email_1", "phone_1")
			},
		},
		{
			Version:     2,
			Description: "Index Razorpay customer link",
			Up: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection(customers).Indexes().CreateOne(ctx, mongo.IndexModel{
					Keys: bson.D{{Key: "metadata.razorpay.rp_customer_id", Value: 1}},
					Options: options.Index().
						SetName("razorpay_customer_1").
						SetSparse(true),
				})
				return err
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				return dropIndexes(ctx, db.Collection(customers), "razorpay_customer_1")
			},
		},
	}
}

func dropIndexes(ctx context.Context, collection *mongo.Collection, names ...string) error {
	for _, name := range names {
		if _, err := collection.Indexes().DropOne(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
