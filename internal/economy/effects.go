package economy

import "time"

// EffectKind scopes what a timed multiplier applies to.
type EffectKind string

const (
	EffectClick      EffectKind = "click"      // click yield only
	EffectProduction EffectKind = "production" // unit output only
	EffectCPS        EffectKind = "cps"        // aggregate passive rate
	EffectAll        EffectKind = "all"        // every cookie source
)

// Effect is a temporary multiplier with an absolute expiry. Effects are
// checked against the clock rather than reverted by a deferred timer, so
// they survive a save/reload and are trivially testable.
type Effect struct {
	Source     string     `json:"source"` // recipe that granted the effect
	Kind       EffectKind `json:"kind"`
	Multiplier float64    `json:"multiplier"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// Active reports whether the effect still applies at the given instant.
func (e *Effect) Active(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// AddEffect registers a timed multiplier starting now.
func (l *Ledger) AddEffect(source string, kind EffectKind, multiplier float64, duration time.Duration, now time.Time) {
	l.Effects = append(l.Effects, &Effect{
		Source:     source,
		Kind:       kind,
		Multiplier: multiplier,
		ExpiresAt:  now.Add(duration),
	})
}

// SweepEffects drops expired effects and returns them so the caller can
// surface "effect ended" notifications.
func (l *Ledger) SweepEffects(now time.Time) []*Effect {
	var expired []*Effect
	kept := l.Effects[:0]
	for _, e := range l.Effects {
		if e.Active(now) {
			kept = append(kept, e)
		} else {
			expired = append(expired, e)
		}
	}
	l.Effects = kept
	return expired
}

// effectFactor multiplies together every active effect matching one of the
// given kinds. EffectAll always matches.
func (l *Ledger) effectFactor(now time.Time, kinds ...EffectKind) float64 {
	factor := 1.0
	for _, e := range l.Effects {
		if !e.Active(now) {
			continue
		}
		if e.Kind == EffectAll {
			factor *= e.Multiplier
			continue
		}
		for _, k := range kinds {
			if e.Kind == k {
				factor *= e.Multiplier
				break
			}
		}
	}
	return factor
}
