package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/literexia/assignment-engine/internal/model"
)

type categoryAssignmentDoc struct {
	AssignmentID        string                      `bson:"assignmentId"`
	WorkflowID          string                      `bson:"workflowId"`
	StudentID           string                      `bson:"studentId"`
	TeacherID           string                      `bson:"teacherId,omitempty"`
	ReadingLevel        string                      `bson:"readingLevel"`
	CategoryID          int                         `bson:"categoryId"`
	CategoryName        string                      `bson:"categoryName"`
	AssessmentID        string                      `bson:"assessmentId"`
	AssessmentTitle     string                      `bson:"assessmentTitle"`
	Placeholder         bool                        `bson:"placeholder,omitempty"`
	SelectedQuestionIDs []string                    `bson:"selectedQuestionIds"`
	ContentOverrides    map[string]model.ContentRef `bson:"contentOverrides"`
	CustomQuestions     []model.Question            `bson:"customQuestions,omitempty"`
	Status              string                      `bson:"status"`
	AssignedAt          time.Time                   `bson:"assignedAt"`
}

// MongoAssignmentRepository persists committed payloads as one
// category_assignments document per entry and marks the categories as
// assigned in the student's progress document.
//
// Every write is keyed by {workflowId, categoryId, assessmentId}, so
// submitting the same payload again after a partial failure updates the
// documents written the first time instead of adding new ones.
type MongoAssignmentRepository struct {
	db  *mongo.Database
	now func() time.Time
}

func NewMongoAssignmentRepository(db *mongo.Database) *MongoAssignmentRepository {
	return &MongoAssignmentRepository{db: db, now: time.Now}
}

// EnsureIndexes creates the unique key the upserts rely on.
func (r *MongoAssignmentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(CategoryAssignmentCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workflowId", Value: 1}, {Key: "categoryId", Value: 1}, {Key: "assessmentId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("workflow_category_assessment"),
	})
	if err != nil {
		return fmt.Errorf("create assignment index: %w", err)
	}
	return nil
}

func (r *MongoAssignmentRepository) SubmitAssignment(ctx context.Context, p *model.AssignmentPayload) (*model.AssignmentResult, error) {
	now := r.now()
	coll := r.db.Collection(CategoryAssignmentCollection)
	ids := make([]string, 0, len(p.Assignments))

	for _, a := range p.Assignments {
		filter := bson.M{
			"workflowId":   p.WorkflowID,
			"categoryId":   a.CategoryID,
			"assessmentId": a.AssessmentID,
		}
		update := bson.M{
			"$set": bson.M{
				"studentId":           p.StudentID,
				"teacherId":           p.TeacherID,
				"readingLevel":        string(p.ReadingLevel),
				"categoryName":        a.CategoryName,
				"assessmentTitle":     a.AssessmentTitle,
				"placeholder":         a.Placeholder,
				"selectedQuestionIds": a.SelectedQuestionIDs,
				"contentOverrides":    a.ContentOverrides,
				"customQuestions":     a.CustomQuestions,
				"status":              string(model.ProgressAssigned),
				"assignedAt":          now,
			},
			"$setOnInsert": bson.M{"assignmentId": uuid.NewString()},
		}
		opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

		var doc categoryAssignmentDoc
		if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
			return nil, fmt.Errorf("upsert assignment: %w", err)
		}
		ids = append(ids, doc.AssignmentID)
	}

	if err := r.markAssigned(ctx, p, now); err != nil {
		return nil, err
	}

	return &model.AssignmentResult{Success: true, AssignmentIDs: ids}, nil
}

// markAssigned sets each category's row in the progress document, replacing
// an existing row in place or appending a new one.
func (r *MongoAssignmentRepository) markAssigned(ctx context.Context, p *model.AssignmentPayload, now time.Time) error {
	coll := r.db.Collection(StudentProgressCollection)

	if _, err := coll.UpdateOne(ctx,
		bson.M{"studentId": p.StudentID},
		bson.M{"$setOnInsert": bson.M{"studentId": p.StudentID, "categories": bson.A{}}},
		options.Update().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("ensure progress: %w", err)
	}

	for _, a := range p.Assignments {
		row := model.CategoryProgress{
			CategoryID:   a.CategoryID,
			CategoryName: a.CategoryName,
			Status:       model.ProgressAssigned,
			AssessmentID: a.AssessmentID,
			AssignedAt:   &now,
		}
		if err := r.setProgressRow(ctx, coll, p.StudentID, row); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
	}
	return nil
}

func (r *MongoAssignmentRepository) setProgressRow(ctx context.Context, coll *mongo.Collection, studentID string, row model.CategoryProgress) error {
	res, err := coll.UpdateOne(ctx,
		bson.M{"studentId": studentID, "categories.categoryId": row.CategoryID},
		bson.M{"$set": bson.M{"categories.$": row}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	res, err = coll.UpdateOne(ctx,
		bson.M{"studentId": studentID, "categories.categoryId": bson.M{"$ne": row.CategoryID}},
		bson.M{"$push": bson.M{"categories": row}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Another writer appended the row between the two updates.
	_, err = coll.UpdateOne(ctx,
		bson.M{"studentId": studentID, "categories.categoryId": row.CategoryID},
		bson.M{"$set": bson.M{"categories.$": row}},
	)
	return err
}
