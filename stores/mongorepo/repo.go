package mongorepo

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/possuite/go-pos-server/stores"
)

const collectionName = "stores"

var _ stores.Repo = (*Repo)(nil)

// Repo is the MongoDB-backed store repository.
type Repo struct {
	collection *mongo.Collection
}

func New(db *mongo.Database) *Repo {
	return &Repo{collection: db.Collection(collectionName)}
}

func (r *Repo) Create(ctx context.Context, store *stores.Store) error {
	if _, err := r.collection.InsertOne(ctx, store); err != nil {
		return errors.Wrap(err, "mongorepo.Create store")
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, store *stores.Store) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": store.ID}, store)
	if err != nil {
		return errors.Wrap(err, "mongorepo.Update store")
	}
	if res.MatchedCount == 0 {
		return stores.ErrNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (*stores.Store, error) {
	var store stores.Store
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&store)
	if err == mongo.ErrNoDocuments {
		return nil, stores.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "mongorepo.Get store")
	}
	return &store, nil
}

func (r *Repo) List(ctx context.Context, offset, limit int) ([]*stores.Store, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": 1}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongorepo.List stores")
	}
	defer cursor.Close(ctx)

	var all []*stores.Store
	if err := cursor.All(ctx, &all); err != nil {
		return nil, errors.Wrap(err, "mongorepo.List decode")
	}
	return all, nil
}
