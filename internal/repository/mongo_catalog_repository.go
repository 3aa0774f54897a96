package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/literexia/assignment-engine/internal/model"
)

// Mongo collection names.
const (
	CategoriesCollection         = "categories"
	AssessmentsCollection        = "assessments"
	StudentProgressCollection    = "student_progress"
	CategoryAssignmentCollection = "category_assignments"
)

// MongoCatalogRepository reads categories and assessments from MongoDB.
type MongoCatalogRepository struct {
	db *mongo.Database
}

func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	return &MongoCatalogRepository{db: db}
}

// ListCategories returns every category. Categories are not tier-scoped in
// storage; the level only drives annotation upstream.
func (r *MongoCatalogRepository) ListCategories(ctx context.Context, _ model.ReadingLevel) ([]model.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "categoryId", Value: 1}})
	cur, err := r.db.Collection(CategoriesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	defer cur.Close(ctx)

	var out []model.Category
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return out, nil
}

func (r *MongoCatalogRepository) ListAssessments(ctx context.Context, categoryID *int, level model.ReadingLevel) ([]model.Assessment, error) {
	filter := bson.M{}
	if categoryID != nil {
		filter["categoryId"] = *categoryID
	}
	if level != "" {
		filter["targetLevel"] = string(level)
	}

	opts := options.Find().SetSort(bson.D{{Key: "categoryId", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.db.Collection(AssessmentsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find assessments: %w", err)
	}
	defer cur.Close(ctx)

	var out []model.Assessment
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode assessments: %w", err)
	}
	return out, nil
}
