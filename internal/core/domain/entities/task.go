package entities

import (
	"encoding/json"
	"strings"
	"time"

	"task-wallet/internal/core/domain/exceptions"
)

type TaskCategory string

const (
	CategoryImageClassification TaskCategory = "image_classification"
	CategoryAudioClassification TaskCategory = "audio_classification"
	CategoryTextSentiment       TaskCategory = "text_sentiment"
	CategoryGeospatialLabeling  TaskCategory = "geospatial_labeling"
	CategorySurvey              TaskCategory = "survey"
	CategoryPreferenceCompare   TaskCategory = "preference_comparison"
	CategoryWeb3Quiz            TaskCategory = "web3_quiz"
)

var categories = map[TaskCategory]struct{}{
	CategoryImageClassification: {},
	CategoryAudioClassification: {},
	CategoryTextSentiment:       {},
	CategoryGeospatialLabeling:  {},
	CategorySurvey:              {},
	CategoryPreferenceCompare:   {},
	CategoryWeb3Quiz:            {},
}

func ParseCategory(s string) (TaskCategory, error) {
	category := TaskCategory(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categories[category]; !ok {
		return "", exceptions.ErrUnknownCategory
	}
	return category, nil
}

// Task is one unit of annotation work sourced from the labeling backend.
// Data is category-specific and opaque to the reconciliation flow.
type Task struct {
	ID        int64           `json:"id"`
	Category  TaskCategory    `json:"category"`
	Data      json.RawMessage `json:"data"`
	IsLabeled bool            `json:"is_labeled"`
	CreatedAt time.Time       `json:"created_at"`
}
