package model

// Category is an assessable skill domain (e.g. Decoding).
type Category struct {
	CategoryID    int      `json:"categoryId" bson:"categoryId" yaml:"id"`
	Title         string   `json:"title" bson:"title" yaml:"title"`
	Description   string   `json:"description" bson:"description" yaml:"description"`
	QuestionTypes []string `json:"questionTypes" bson:"questionTypes" yaml:"question_types"`
}

// CatalogEntry is a Category annotated for one student at one reading level.
// None of the flags are persisted; they are recomputed on every listing.
type CatalogEntry struct {
	Category
	IsRecommended           bool `json:"isRecommended"`
	HasAvailableAssessments bool `json:"hasAvailableAssessments"`
	AssessmentCount         int  `json:"assessmentCount"`
	IsAssigned              bool `json:"isAssigned"`
}

// Selectable reports whether the entry may be added to a workflow selection.
func (e CatalogEntry) Selectable() bool {
	return e.HasAvailableAssessments && !e.IsAssigned
}
