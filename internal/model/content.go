package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ContentKind identifies one of the five content collections.
type ContentKind string

const (
	ContentLetters      ContentKind = "letters"
	ContentSyllables    ContentKind = "syllables"
	ContentWords        ContentKind = "words"
	ContentSentences    ContentKind = "sentences"
	ContentShortStories ContentKind = "short_stories"
)

// ContentKinds lists every kind in display order.
var ContentKinds = []ContentKind{
	ContentLetters,
	ContentSyllables,
	ContentWords,
	ContentSentences,
	ContentShortStories,
}

var ErrUnknownContentKind = errors.New("unknown content kind")

// ErrContentNotFound is returned by content sources when a reference points
// at an item that does not exist.
var ErrContentNotFound = errors.New("content not found")

// ParseContentKind accepts the collection name, its "_collection" suffixed
// form, singular forms and camelCase "shortStories".
func ParseContentKind(raw string) (ContentKind, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "_collection")
	s = strings.ReplaceAll(s, "-", "_")
	switch s {
	case "letters", "letter":
		return ContentLetters, nil
	case "syllables", "syllable":
		return ContentSyllables, nil
	case "words", "word":
		return ContentWords, nil
	case "sentences", "sentence":
		return ContentSentences, nil
	case "short_stories", "short_story", "shortstories", "shortstory", "stories", "story":
		return ContentShortStories, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContentKind, raw)
}

// ContentItem is a reusable instructional artifact. Letter, Syllable, Word,
// Sentence and ShortStory are the only implementations.
type ContentItem interface {
	ContentID() string
	Kind() ContentKind
}

type Letter struct {
	ID          string `json:"_id" bson:"_id"`
	BigLetter   string `json:"bigLetter" bson:"bigLetter"`
	SmallLetter string `json:"smallLetter" bson:"smallLetter"`
	SoundText   string `json:"soundText" bson:"soundText"`
	ImageURL    string `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}

type Syllable struct {
	ID        string `json:"_id" bson:"_id"`
	Text      string `json:"text" bson:"text"`
	SoundText string `json:"soundText" bson:"soundText"`
	ImageURL  string `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}

type Word struct {
	ID       string `json:"_id" bson:"_id"`
	Text     string `json:"text" bson:"text"`
	Meaning  string `json:"meaning" bson:"meaning"`
	ImageURL string `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}

type Sentence struct {
	ID    string `json:"_id" bson:"_id"`
	Title string `json:"title,omitempty" bson:"title,omitempty"`
	Text  string `json:"text" bson:"text"`
}

type ShortStory struct {
	ID      string `json:"_id" bson:"_id"`
	Title   string `json:"title" bson:"title"`
	Content string `json:"content" bson:"content"`
}

func (c *Letter) ContentID() string     { return c.ID }
func (c *Letter) Kind() ContentKind     { return ContentLetters }
func (c *Syllable) ContentID() string   { return c.ID }
func (c *Syllable) Kind() ContentKind   { return ContentSyllables }
func (c *Word) ContentID() string       { return c.ID }
func (c *Word) Kind() ContentKind       { return ContentWords }
func (c *Sentence) ContentID() string   { return c.ID }
func (c *Sentence) Kind() ContentKind   { return ContentSentences }
func (c *ShortStory) ContentID() string { return c.ID }
func (c *ShortStory) Kind() ContentKind { return ContentShortStories }

// NewContentItem returns an empty item of the given kind, ready to be decoded into.
func NewContentItem(kind ContentKind) (ContentItem, error) {
	switch kind {
	case ContentLetters:
		return &Letter{}, nil
	case ContentSyllables:
		return &Syllable{}, nil
	case ContentWords:
		return &Word{}, nil
	case ContentSentences:
		return &Sentence{}, nil
	case ContentShortStories:
		return &ShortStory{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownContentKind, kind)
}

// DecodeContent unmarshals raw JSON into the concrete type for kind.
func DecodeContent(kind ContentKind, raw []byte) (ContentItem, error) {
	item, err := NewContentItem(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, item); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return item, nil
}

// SearchFields returns the text fields a content search matches against.
func SearchFields(item ContentItem) []string {
	switch c := item.(type) {
	case *Letter:
		return []string{c.SmallLetter, c.BigLetter, c.SoundText}
	case *Syllable:
		return []string{c.Text, c.SoundText}
	case *Word:
		return []string{c.Text, c.Meaning}
	case *Sentence:
		return []string{c.Text, c.Title}
	case *ShortStory:
		return []string{c.Content, c.Title}
	}
	return nil
}

// StoredContent wraps a ContentItem with its kind so it survives a JSON round trip.
type StoredContent struct {
	Item ContentItem
}

type storedContentJSON struct {
	Kind ContentKind     `json:"kind"`
	Item json.RawMessage `json:"item"`
}

func (s StoredContent) MarshalJSON() ([]byte, error) {
	if s.Item == nil {
		return []byte("null"), nil
	}
	raw, err := json.Marshal(s.Item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(storedContentJSON{Kind: s.Item.Kind(), Item: raw})
}

func (s *StoredContent) UnmarshalJSON(data []byte) error {
	var env storedContentJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	item, err := DecodeContent(env.Kind, env.Item)
	if err != nil {
		return err
	}
	s.Item = item
	return nil
}
