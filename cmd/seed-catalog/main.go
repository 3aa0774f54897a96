package main

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/literexia/assignment-engine/internal/config"
	"github.com/literexia/assignment-engine/internal/database"
	"github.com/literexia/assignment-engine/internal/logger"
	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/policy"
	"github.com/literexia/assignment-engine/internal/repository"
)

// Seeds a development MongoDB with the policy's categories, one published
// assessment per recommended category and level, and a small content set.
// Re-running replaces the seeded documents in place.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, db, err := database.NewMongoDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	pol, err := policy.Load(cfg.CatalogPolicyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load catalog policy")
	}

	upsert := options.Replace().SetUpsert(true)

	fmt.Println("=== Seeding categories ===")
	categories := pol.Fallback()
	for _, c := range categories {
		if _, err := db.Collection(repository.CategoriesCollection).ReplaceOne(ctx,
			bson.M{"categoryId": c.CategoryID}, c, upsert); err != nil {
			log.Fatal().Err(err).Int("category_id", c.CategoryID).Msg("Failed to seed category")
		}
	}
	fmt.Printf("Seeded %d categories\n", len(categories))

	fmt.Println("=== Seeding content ===")
	words := []model.Word{
		{ID: "seed-word-1", Text: "bahay", Meaning: "house"},
		{ID: "seed-word-2", Text: "aso", Meaning: "dog"},
		{ID: "seed-word-3", Text: "pusa", Meaning: "cat"},
		{ID: "seed-word-4", Text: "bola", Meaning: "ball"},
	}
	letters := []model.Letter{
		{ID: "seed-letter-a", BigLetter: "A", SmallLetter: "a", SoundText: "ah"},
		{ID: "seed-letter-b", BigLetter: "B", SmallLetter: "b", SoundText: "buh"},
	}
	n := 0
	for _, w := range words {
		n += seedContent(ctx, db, model.ContentWords, w.ID, w, upsert)
	}
	for _, l := range letters {
		n += seedContent(ctx, db, model.ContentLetters, l.ID, l, upsert)
	}
	fmt.Printf("Seeded %d content items\n", n)

	fmt.Println("=== Seeding assessments ===")
	count := 0
	for _, level := range model.ReadingLevels {
		for _, c := range categories {
			if !pol.IsRecommended(level, c.CategoryID) {
				continue
			}
			a := sampleAssessment(level, c, words)
			if _, err := db.Collection(repository.AssessmentsCollection).ReplaceOne(ctx,
				bson.M{"assessmentId": a.AssessmentID}, a, upsert); err != nil {
				log.Fatal().Err(err).Str("assessment_id", a.AssessmentID).Msg("Failed to seed assessment")
			}
			count++
		}
	}

	fmt.Printf("\nSeed completed! %d assessments across %d levels.\n", count, len(model.ReadingLevels))
}

func seedContent(ctx context.Context, db *mongo.Database, kind model.ContentKind, id string, doc any, upsert *options.ReplaceOptions) int {
	if _, err := db.Collection(repository.ContentCollection(kind)).ReplaceOne(ctx, bson.M{"_id": id}, doc, upsert); err != nil {
		fmt.Printf("Error seeding %s %s: %v\n", kind, id, err)
		return 0
	}
	return 1
}

func sampleAssessment(level model.ReadingLevel, c model.Category, words []model.Word) model.Assessment {
	id := fmt.Sprintf("seed-%s-%d", level.Slug(), c.CategoryID)
	questions := make([]model.Question, 0, len(words))
	for i, w := range words {
		questions = append(questions, model.Question{
			QuestionID:       fmt.Sprintf("%s-q%d", id, i+1),
			QuestionNumber:   i + 1,
			Text:             "Read the word aloud",
			TypeID:           "word_reading",
			ContentReference: &model.ContentRef{Collection: string(model.ContentWords), ContentID: w.ID},
			Options: []model.Option{
				{ID: "correct", Text: w.Text, IsCorrect: true},
				{ID: "other", Text: "not sure"},
			},
			PointValue: 1,
		})
	}
	return model.Assessment{
		AssessmentID:     id,
		CategoryID:       c.CategoryID,
		Title:            fmt.Sprintf("%s (%s)", c.Title, level),
		TargetLevel:      level,
		Status:           model.AssessmentStatusPublished,
		Questions:        questions,
		PassingThreshold: 75,
	}
}
