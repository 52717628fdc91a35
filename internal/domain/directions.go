package domain

import "context"

// DirectionsStep is one maneuver of a driving leg, instruction text already
// stripped to plain text by the provider adapter.
type DirectionsStep struct {
	Instruction string
	DistanceM   int
}

// DirectionsLeg is the provider's answer for a single origin→destination
// driving leg.
type DirectionsLeg struct {
	Steps     []DirectionsStep
	DistanceM int
	DurationS int
}

// DirectionsProvider produces turn-by-turn driving directions. Any error,
// including a non-OK provider status, means the provider is unavailable for
// this leg; callers fall back to a bearing instruction and never surface the
// error to the requester.
type DirectionsProvider interface {
	Directions(ctx context.Context, origin, dest Point, lang string) (DirectionsLeg, error)
}
