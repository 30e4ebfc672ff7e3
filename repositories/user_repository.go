package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/campus-events-go/models"
)

// UserRepository reads the users collection owned by the auth service.
type UserRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	return &UserRepository{col: db.Collection("users"), timeout: timeout}
}

func (r *UserRepository) AdminIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	users, err := r.find(ctx, bson.M{"isAdmin": true}, bson.M{"_id": 1})
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// FindByIDs returns id + name for the given users. Unknown ids are skipped.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"name": 1})
}

func (r *UserRepository) find(ctx context.Context, filter, projection bson.M) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		return nil, err
	}

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
