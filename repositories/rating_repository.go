package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/phillip/campus-events-go/models"
)

type RatingRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewRatingRepository(db *mongo.Database, timeout time.Duration) *RatingRepository {
	return &RatingRepository{col: db.Collection("ratings"), timeout: timeout}
}

func (r *RatingRepository) Insert(ctx context.Context, rating *models.Rating) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if rating.ID.IsZero() {
		rating.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, rating)
	return err
}
