package pulp2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Source gives read access to Pulp 2 content units.
type Source interface {
	// Count returns the number of units of a content type last updated at or after since.
	Count(ctx context.Context, typeID string, since int64) (int64, error)
	// Units streams units of a content type last updated at or after since, ordered by last update,
	// in batches of at most batchSize units.
	Units(ctx context.Context, typeID string, since int64, batchSize int, fn func([]FileContentUnit) error) error
	RPMs(ctx context.Context, ids []string) ([]RPM, error)
	Errata(ctx context.Context, ids []string) ([]Errata, error)
}

var ErrUnknownContentType = errors.New("unknown Pulp 2 content type")

type MongoSource struct {
	client   *mongo.Client
	database *mongo.Database
}

const pingAttempts = 5

// Connect opens a connection to the Pulp 2 database and waits until the server answers.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*MongoSource, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetReadPreference(readpref.PrimaryPreferred()))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return client.Ping(pingCtx, nil)
		},
		retry.Context(ctx),
		retry.Attempts(pingAttempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logrus.Warnf("Pulp 2 database not reachable (attempt %d): %v", attempt+1, err)
		}),
	)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("could not connect to Pulp 2 database: %w", err)
	}

	logrus.Debugf("Connected to Pulp 2 database %q", database)

	return &MongoSource{client: client, database: client.Database(database)}, nil
}

func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoSource) collection(typeID string) (*mongo.Collection, error) {
	name, ok := CollectionName(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, typeID)
	}

	return s.database.Collection(name), nil
}

// updatedSince includes since itself, timestamps have a one second resolution.
func updatedSince(since int64) bson.M {
	return bson.M{"_last_updated": bson.M{"$gte": since}}
}

func (s *MongoSource) Count(ctx context.Context, typeID string, since int64) (int64, error) {
	coll, err := s.collection(typeID)
	if err != nil {
		return 0, err
	}

	count, err := coll.CountDocuments(ctx, updatedSince(since))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s units: %w", typeID, err)
	}

	return count, nil
}

func (s *MongoSource) Units(
	ctx context.Context, typeID string, since int64, batchSize int, fn func([]FileContentUnit) error,
) error {
	coll, err := s.collection(typeID)
	if err != nil {
		return err
	}

	cursor, err := coll.Find(ctx, updatedSince(since), options.Find().
		SetSort(bson.D{{Key: "_last_updated", Value: 1}, {Key: "_id", Value: 1}}).
		SetBatchSize(int32(batchSize)). //nolint:gosec
		SetProjection(bson.M{
			"_id":              1,
			"_content_type_id": 1,
			"_last_updated":    1,
			"_storage_path":    1,
			"downloaded":       1,
		}))
	if err != nil {
		return fmt.Errorf("failed to query %s units: %w", typeID, err)
	}
	defer cursor.Close(ctx)

	batch := make([]FileContentUnit, 0, batchSize)

	for cursor.Next(ctx) {
		var unit FileContentUnit
		if err := cursor.Decode(&unit); err != nil {
			return fmt.Errorf("failed to decode %s unit: %w", typeID, err)
		}

		if unit.ContentTypeID == "" {
			unit.ContentTypeID = typeID
		}

		batch = append(batch, unit)
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]FileContentUnit, 0, batchSize)
		}
	}

	if err := cursor.Err(); err != nil {
		return fmt.Errorf("failed to iterate %s units: %w", typeID, err)
	}

	if len(batch) > 0 {
		return fn(batch)
	}

	return nil
}

func findByIDs[T any](ctx context.Context, coll *mongo.Collection, ids []string) ([]T, error) {
	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}

	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}

	return out, nil
}

func (s *MongoSource) RPMs(ctx context.Context, ids []string) ([]RPM, error) {
	coll, err := s.collection(RPMTypeID)
	if err != nil {
		return nil, err
	}

	return findByIDs[RPM](ctx, coll, ids)
}

func (s *MongoSource) Errata(ctx context.Context, ids []string) ([]Errata, error) {
	coll, err := s.collection(ErratumTypeID)
	if err != nil {
		return nil, err
	}

	return findByIDs[Errata](ctx, coll, ids)
}
