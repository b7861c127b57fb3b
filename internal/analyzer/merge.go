package analyzer

// metadataTrustThreshold is the confidence bar above which an explicit
// caption/hashtag activity is trusted outright, without consulting vision.
// Caption evidence above this bar is usually more precise than pixels.
const metadataTrustThreshold = 0.7

// locationOverrideFloor is the minimum confidence assigned when a recognized
// location upgrades an otherwise-irrelevant vision verdict to landscape.
const locationOverrideFloor = 0.8

// Merge combines the metadata and vision signals into one classification.
// It is a pure function; given the same inputs it always returns the same
// result. The precedence below is load-bearing: later rules are only reached
// when every earlier rule declined.
//
//  1. mergedLocation = metadata location, else vision location.
//  2. Location override: a recognized place name plus an "irrelevant" vision
//     verdict means a destination shot the vision model could not name an
//     activity for: force landscape at max(visionConfidence, 0.8).
//  3. Metadata activity at confidence ≥ 0.7 wins outright.
//  4. Otherwise the more confident of the two signals wins (vision on
//     strictly greater confidence).
//  5. Fallback: trust metadata at whatever confidence it has, re-deriving the
//     type: landscape when vision said landscape or when there is a location
//     but no activity; activity otherwise.
func Merge(meta, vision Signal) Merged {
	location := meta.Location
	if location == "" {
		location = vision.Location
	}

	if location != "" && vision.Kind == KindIrrelevant {
		conf := vision.Confidence
		if conf < locationOverrideFloor {
			conf = locationOverrideFloor
		}
		return normalize(Merged{
			Type:       TypeLandscape,
			Location:   location,
			Confidence: conf,
			Source:     SourceFrames,
		})
	}

	if meta.Activity != "" && meta.Confidence >= metadataTrustThreshold {
		return normalize(Merged{
			Type:       TypeActivity,
			Activity:   meta.Activity,
			Location:   location,
			Confidence: meta.Confidence,
			Source:     SourceMetadata,
		})
	}

	if vision.Kind != "" && vision.Confidence > meta.Confidence {
		return normalize(Merged{
			Type:       vision.Kind,
			Activity:   vision.Activity,
			Location:   location,
			Confidence: vision.Confidence,
			Source:     SourceFrames,
		})
	}

	resultType := TypeActivity
	if vision.Kind == KindLandscape || (meta.Activity == "" && location != "") {
		resultType = TypeLandscape
	}
	return normalize(Merged{
		Type:       resultType,
		Activity:   meta.Activity,
		Location:   location,
		Confidence: meta.Confidence,
		Source:     SourceMetadata,
	})
}

// normalize enforces the result invariants: confidence stays in [0,1] and
// activity is cleared whenever the type cannot carry one.
func normalize(m Merged) Merged {
	m.Confidence = clamp01(m.Confidence)
	if m.Type != TypeActivity && m.Type != TypeBoring {
		m.Activity = ""
	}
	return m
}
