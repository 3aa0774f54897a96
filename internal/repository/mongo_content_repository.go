package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/literexia/assignment-engine/internal/model"
)

// ContentCollection maps a content kind to its Mongo collection name.
func ContentCollection(kind model.ContentKind) string {
	return string(kind) + "_collection"
}

// MongoContentRepository reads the five content collections from MongoDB.
type MongoContentRepository struct {
	db *mongo.Database
}

func NewMongoContentRepository(db *mongo.Database) *MongoContentRepository {
	return &MongoContentRepository{db: db}
}

func (r *MongoContentRepository) ListContent(ctx context.Context, kind model.ContentKind) ([]model.ContentItem, error) {
	cur, err := r.db.Collection(ContentCollection(kind)).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	defer cur.Close(ctx)

	var out []model.ContentItem
	for cur.Next(ctx) {
		item, err := model.NewContentItem(kind)
		if err != nil {
			return nil, err
		}
		if err := cur.Decode(item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		out = append(out, item)
	}
	return out, cur.Err()
}

// ResolveContent looks a document up by _id, matching both ObjectID and
// string ids.
func (r *MongoContentRepository) ResolveContent(ctx context.Context, ref model.ContentRef) (model.ContentItem, error) {
	kind, err := ref.Kind()
	if err != nil {
		return nil, err
	}

	ids := bson.A{ref.ContentID}
	if oid, err := primitive.ObjectIDFromHex(ref.ContentID); err == nil {
		ids = append(ids, oid)
	}

	item, err := model.NewContentItem(kind)
	if err != nil {
		return nil, err
	}
	err = r.db.Collection(ContentCollection(kind)).
		FindOne(ctx, bson.M{"_id": bson.M{"$in": ids}}).
		Decode(item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, model.ErrContentNotFound
		}
		return nil, fmt.Errorf("find %s %s: %w", kind, ref.ContentID, err)
	}
	return item, nil
}
