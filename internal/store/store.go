// Package store persists completed analyses for history lookups and repeat
// URL dedup. Persistence is best-effort: pipeline callers treat store errors
// as non-fatal.
package store

import (
	"context"
	"time"

	"github.com/wanderlens/clipsight/internal/analyzer"
)

// Record is one persisted analysis.
type Record struct {
	RequestID  string            `dynamodbav:"requestId" json:"requestId"`
	PostURL    string            `dynamodbav:"postUrl" json:"postUrl"`
	Analysis   analyzer.Analysis `dynamodbav:"analysis" json:"analysis"`
	AnalyzedAt time.Time         `dynamodbav:"analyzedAt" json:"analyzedAt"`
}

// Store is the analysis-history persistence contract.
type Store interface {
	// PutAnalysis writes one completed analysis.
	PutAnalysis(ctx context.Context, rec Record) error

	// GetAnalysis loads the most recent analysis for a post URL. Returns
	// (nil, nil) when the URL has never been analyzed.
	GetAnalysis(ctx context.Context, postURL string) (*Record, error)
}
