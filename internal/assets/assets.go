// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time, so prompt edits never require touching classifier code.
package assets

import (
	_ "embed"
)

// TextClassifierSystemPrompt instructs the text model to decide whether
// caption/hashtag/location text describes a qualifying travel activity.
//
//go:embed prompts/text-classifier-system.txt
var TextClassifierSystemPrompt string

// VisionClassifierSystemPrompt instructs the vision model to classify a single
// video frame as activity, landscape, or irrelevant.
//
//go:embed prompts/vision-classifier-system.txt
var VisionClassifierSystemPrompt string

// BoringCheckSystemPrompt instructs the model to screen a detected activity
// against the boring-category denylist, answering BORING or EPIC.
//
//go:embed prompts/boring-check-system.txt
var BoringCheckSystemPrompt string

// DefaultActivities is the built-in activity taxonomy, used when no external
// taxonomy file is configured.
//
//go:embed activities.json
var DefaultActivities []byte
