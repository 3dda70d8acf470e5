package readiness

import (
	"context"
	"fmt"
	"sort"

	"github.com/railyardhq/railyard/internal/types"
)

// MaxStoryPoints is the largest estimate a story can carry before it
// counts as oversized and should be split.
const MaxStoryPoints = 5

// StoryAssessor checks that stories are sized and specified well enough
// to plan against: small estimates, acceptance criteria present.
type StoryAssessor struct{}

// NewStoryAssessor creates a story readiness assessor.
func NewStoryAssessor() *StoryAssessor {
	return &StoryAssessor{}
}

// Name returns the assessor identifier.
func (a *StoryAssessor) Name() string { return "story_readiness" }

// Category returns the readiness lens this assessor scores.
func (a *StoryAssessor) Category() types.ReadinessCategory {
	return types.CategoryStoryReadiness
}

// Assess penalizes oversized stories at half weight and missing
// acceptance criteria at a third. A plan with no stories is trivially
// ready on this lens.
func (a *StoryAssessor) Assess(ctx context.Context, snapshot *Snapshot) Assessment {
	assessment := Assessment{Category: a.Category()}

	var stories, oversized, missing []string
	for _, item := range snapshot.Items {
		if item.Type != types.TypeStory {
			continue
		}
		stories = append(stories, item.ID)
		if item.Points > MaxStoryPoints {
			oversized = append(oversized, item.ID)
		}
		if !item.HasAcceptanceCriteria() {
			missing = append(missing, item.ID)
		}
	}
	if len(stories) == 0 {
		assessment.Score = 1.0
		assessment.Ready = true
		return assessment
	}

	sort.Strings(oversized)
	sort.Strings(missing)
	total := float64(len(stories))
	assessment.Score = clampScore(1.0 - 0.5*float64(len(oversized))/total - 0.3*float64(len(missing))/total)

	if len(oversized) > 0 {
		assessment.Issues = append(assessment.Issues, Issue{
			Code:     "oversized_stories",
			Message:  fmt.Sprintf("%d of %d stories exceed %d points", len(oversized), len(stories), MaxStoryPoints),
			Severity: SeverityWarning,
			ItemIDs:  oversized,
		})
		assessment.Recommendations = append(assessment.Recommendations,
			fmt.Sprintf("split %d oversized stories into slices of %d points or fewer", len(oversized), MaxStoryPoints))
	}
	if len(missing) > 0 {
		assessment.Issues = append(assessment.Issues, Issue{
			Code:     "missing_acceptance_criteria",
			Message:  fmt.Sprintf("%d of %d stories have no acceptance criteria", len(missing), len(stories)),
			Severity: SeverityWarning,
			ItemIDs:  missing,
		})
		assessment.Recommendations = append(assessment.Recommendations,
			"write acceptance criteria before committing the train to these stories")
	}

	assessment.Ready = readyAt(assessment.Score, assessment.Issues)
	return assessment
}
