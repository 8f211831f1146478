package pipeline

import (
	"fmt"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
)

// DefaultNERModel is the token classification model used for entity extraction.
const DefaultNERModel = "KnightsAnalytics/distilbert-NER"

// DefaultEntityExtractor creates an entity extractor using a NER model.
// Detects PER, ORG, LOC and MISC entities; the result is deduplicated by (text, type).
func DefaultEntityExtractor() (EntityExtractFunc, error) {
	modelPath, err := helper.PrepareModel(DefaultNERModel, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	var mu sync.Mutex

	return func(text string) (model.Entities, error) {
		if strings.TrimSpace(text) == "" {
			return model.Entities{}, nil
		}

		mu.Lock()
		result, err := nerPipeline.RunPipeline([]string{text})
		mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		if len(result.Entities) == 0 {
			return model.Entities{}, nil
		}

		entities := make(model.Entities, 0, len(result.Entities[0]))
		for _, entity := range result.Entities[0] {
			word := strings.TrimSpace(entity.Word)
			if word == "" {
				continue
			}
			entities = append(entities, model.Entity{
				Text: word,
				Type: normalizeEntityType(entity.Entity),
			})
		}

		return entities.Dedupe(), nil
	}, nil
}

// normalizeEntityType removes B- and I- prefixes from NER labels
func normalizeEntityType(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}
