package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/literexia/assignment-engine/internal/model"
)

type MongoProgressRepository struct {
	db *mongo.Database
}

func NewMongoProgressRepository(db *mongo.Database) *MongoProgressRepository {
	return &MongoProgressRepository{db: db}
}

// StudentProgress returns an empty report for students without a document.
func (r *MongoProgressRepository) StudentProgress(ctx context.Context, studentID string) (*model.StudentProgress, error) {
	var p model.StudentProgress
	err := r.db.Collection(StudentProgressCollection).FindOne(ctx, bson.M{"studentId": studentID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &model.StudentProgress{StudentID: studentID}, nil
		}
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return &p, nil
}
