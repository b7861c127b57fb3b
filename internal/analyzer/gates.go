package analyzer

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/wanderlens/clipsight/internal/metrics"
)

// validationRejectConfidence is assigned when a detected activity fails
// taxonomy validation. Low but nonzero: the frames did show something, it just
// is not a known bookable activity.
const validationRejectConfidence = 0.1

// AdmissionFilter applies the two policy gates to a merged classification.
// Each gate can only downgrade a result, never upgrade it; landscape and
// already-downgraded results pass through untouched.
//
// Gate errors fail open: a classifier outage must not block valid content.
// Fail-opens are counted (GateFailOpen metric) so an outage is still visible.
type AdmissionFilter struct {
	taxonomy *Taxonomy
	boring   BoringClassifier
}

// NewAdmissionFilter creates the filter with its dependencies made explicit.
// taxonomy must be non-nil; boring may be nil, which disables Gate A entirely.
func NewAdmissionFilter(taxonomy *Taxonomy, boring BoringClassifier) *AdmissionFilter {
	return &AdmissionFilter{taxonomy: taxonomy, boring: boring}
}

// Admit runs Gate A (boring-category rejection) then Gate B (taxonomy
// validation) on an activity result. A BORING verdict short-circuits Gate B.
func (f *AdmissionFilter) Admit(ctx context.Context, m Merged) Merged {
	if m.Type != TypeActivity || m.Activity == "" {
		return m
	}

	// Gate A: boring-category rejection.
	if f.boring != nil {
		boring, err := f.boring.IsBoring(ctx, m.Activity)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("activity", m.Activity).
				Msg("Boring check failed, failing open")
			metrics.New().Dimension("Gate", "boring").Count("GateFailOpen").Flush()
		case boring:
			log.Info().Str("activity", m.Activity).Msg("Activity rejected as boring")
			return Merged{
				Type:       TypeBoring,
				Activity:   m.Activity, // kept for audit
				Confidence: 1.0,
				Source:     SourceBoringCheck,
			}
		}
	}

	// Gate B: taxonomy validation.
	if f.taxonomy != nil && !f.taxonomy.Matches(m.Activity) {
		log.Info().Str("activity", m.Activity).Msg("Activity not in taxonomy, rejected")
		return Merged{
			Type:       TypeIrrelevant,
			Confidence: validationRejectConfidence,
			Source:     SourceValidation,
		}
	}

	return m
}
