// Package domain contains core business types and interfaces.
//
// This file defines the analogy artifact produced by the generation pipeline.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalogyContent is the generated explanation, stored as JSON.
type AnalogyContent struct {
	Title    string   `json:"title"`
	Analogy  string   `json:"analogy"`
	Mapping  string   `json:"mapping"`  // How analogy parts map to the topic
	Caveats  string   `json:"caveats"`  // Where the analogy breaks down
	Keywords []string `json:"keywords"` // Image prompt seeds
}

// Analogy is a durable generated artifact. The per-user count of these rows
// is what the storage quota guard enforces.
type Analogy struct {
	ID               uuid.UUID
	AccountID        uuid.UUID
	Topic            string
	Audience         string
	Content          AnalogyContent
	ImageURLs        []string
	StreakPopupShown bool
	CreatedAt        time.Time
}

// GenerateParams contains the validated inputs for one generation.
type GenerateParams struct {
	AccountID uuid.UUID
	Topic     string
	Audience  string
}

// GenerateResult is what the pipeline returns to the handler.
type GenerateResult struct {
	Analogy         *Analogy
	Streak          StreakSnapshot
	ShowStreakPopup bool // First generation of a new local day
}
