// Package coaching declares the external collaborators the voice session
// calls into. Implementations live in the host app; the orchestrator only
// depends on these interfaces.
package coaching

import (
	"context"
	"time"
)

// WorkoutAdjustment is a structured change to a planned session.
type WorkoutAdjustment struct {
	SessionDate string `json:"date" jsonschema_description:"Date of the session to change, YYYY-MM-DD"`
	Action      string `json:"action" jsonschema_description:"One of move, shorten, extend, swap, skip"`
	NewDate     string `json:"new_date,omitempty" jsonschema_description:"Target date when moving a session"`
	Intensity   string `json:"intensity,omitempty" jsonschema_description:"Desired intensity, e.g. easy, steady, hard"`
	Reason      string `json:"reason,omitempty" jsonschema_description:"Why the user wants the change"`
}

// AdjustmentResult reports whether the plan service applied a change.
type AdjustmentResult struct {
	Applied bool
	Message string
}

// PlanAdjuster applies structured workout changes to the training plan.
type PlanAdjuster interface {
	AdjustWorkout(ctx context.Context, adjustment WorkoutAdjustment) (AdjustmentResult, error)
}

// SessionFeedback merges structured ratings with free-text notes.
type SessionFeedback struct {
	SessionDate string `json:"date" jsonschema_description:"Date of the completed session, YYYY-MM-DD"`
	Effort      int    `json:"effort,omitempty" jsonschema_description:"Perceived effort 1-10"`
	Enjoyment   int    `json:"enjoyment,omitempty" jsonschema_description:"Enjoyment 1-10"`
	Note        string `json:"note,omitempty" jsonschema_description:"Free-text feedback from the user"`
}

// FeedbackRecorder persists session feedback.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, feedback SessionFeedback) error
}

// GearQuery is a pure lookup request for product recommendations.
type GearQuery struct {
	Category string `json:"category" jsonschema_description:"Gear category, e.g. shoes, apparel"`
	Surface  string `json:"surface,omitempty" jsonschema_description:"Intended surface, e.g. road, trail"`
	Budget   int    `json:"budget,omitempty" jsonschema_description:"Upper price bound in whole currency units"`
}

// Product is a single recommended item.
type Product struct {
	Name  string `json:"name"`
	Brand string `json:"brand,omitempty"`
	Price int    `json:"price,omitempty"`
	URL   string `json:"url,omitempty"`
}

// GearRecommender looks up product recommendations.
type GearRecommender interface {
	RecommendGear(ctx context.Context, query GearQuery) ([]Product, error)
}

// ChatStore persists conversation messages with their explicit speech-start
// timestamps. Messages outlive the voice session.
type ChatStore interface {
	SaveMessage(ctx context.Context, sender string, text string, timestamp time.Time) error
}
