package coaching

import (
	"context"
	"fmt"

	"github.com/HuntCodes/yugen-voice/core/tools"
)

// Tools builds the fixed coaching tool set exposed to the remote coach:
// workout adjustment, feedback recording and gear lookup. Results always
// carry a message suitable for the coach to relay verbally.
func Tools(adjuster PlanAdjuster, recorder FeedbackRecorder, recommender GearRecommender) []tools.Tool {
	return []tools.Tool{
		tools.NewTool("adjust_workout",
			"Apply a structured change to the user's training plan, such as moving, shortening or skipping a session",
			func(ctx context.Context, adjustment WorkoutAdjustment) (map[string]any, error) {
				if adjuster == nil {
					return nil, fmt.Errorf("no plan adjustment service configured")
				}

				result, err := adjuster.AdjustWorkout(ctx, adjustment)
				if err != nil {
					return nil, fmt.Errorf("failed to adjust workout: %w", err)
				}
				if !result.Applied {
					return nil, fmt.Errorf("plan service rejected the change: %s", result.Message)
				}
				return map[string]any{"message": result.Message}, nil
			}),

		tools.NewTool("record_feedback",
			"Record the user's feedback about a completed session, combining ratings and free-text notes",
			func(ctx context.Context, feedback SessionFeedback) (map[string]any, error) {
				if recorder == nil {
					return nil, fmt.Errorf("no feedback service configured")
				}

				if err := recorder.RecordFeedback(ctx, feedback); err != nil {
					return nil, fmt.Errorf("failed to record feedback: %w", err)
				}
				return map[string]any{"message": "feedback recorded"}, nil
			}),

		tools.NewTool("recommend_gear",
			"Look up running gear recommendations for the user",
			func(ctx context.Context, query GearQuery) (map[string]any, error) {
				if recommender == nil {
					return nil, fmt.Errorf("no gear recommendation service configured")
				}

				products, err := recommender.RecommendGear(ctx, query)
				if err != nil {
					return nil, fmt.Errorf("failed to look up gear: %w", err)
				}
				return map[string]any{"products": products}, nil
			}),
	}
}
