package mongorepo

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/possuite/go-pos-server/users"
)

const collectionName = "users"

var _ users.Repo = (*Repo)(nil)

// Repo is the MongoDB-backed user repository.
type Repo struct {
	collection *mongo.Collection
}

func New(db *mongo.Database) *Repo {
	return &Repo{collection: db.Collection(collectionName)}
}

func (r *Repo) Upsert(ctx context.Context, user *users.User) error {
	filter := bson.M{"_id": user.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, user, opts); err != nil {
		return errors.Wrap(err, "mongorepo.Upsert user")
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "mongorepo.Delete user")
	}
	if res.DeletedCount == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *Repo) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	var user users.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "mongorepo.findOne user")
	}
	return &user, nil
}
