package readiness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/railyardhq/railyard/internal/classify"
	"github.com/railyardhq/railyard/internal/types"
)

// ValueAssessor checks that each iteration ships something a user would
// notice. A story counts as user-valuable when it carries acceptance
// criteria or the classifier judges it user-facing.
type ValueAssessor struct {
	classifier classify.Classifier
}

// NewValueAssessor creates a value delivery assessor. A nil classifier
// falls back to the keyword heuristic.
func NewValueAssessor(classifier classify.Classifier) *ValueAssessor {
	if classifier == nil {
		classifier = classify.NewKeyword()
	}
	return &ValueAssessor{classifier: classifier}
}

// Name returns the assessor identifier.
func (a *ValueAssessor) Name() string { return "value_delivery" }

// Category returns the readiness lens this assessor scores.
func (a *ValueAssessor) Category() types.ReadinessCategory {
	return types.CategoryValueDelivery
}

// Assess scores the fraction of iterations delivering at least one
// user-valuable story, less 0.2 weighted by the fraction of iterations
// that hold work but deliver none.
func (a *ValueAssessor) Assess(ctx context.Context, snapshot *Snapshot) Assessment {
	assessment := Assessment{Category: a.Category()}
	total := len(snapshot.Iterations)
	if total == 0 {
		assessment.Score = 1.0
		assessment.Ready = true
		return assessment
	}

	valuable := make(map[int]bool)
	loaded := make(map[int]bool)
	for _, alloc := range snapshot.Allocated {
		loaded[alloc.Iteration] = true
		if valuable[alloc.Iteration] {
			continue
		}
		if a.valuableStory(alloc.Item) {
			valuable[alloc.Iteration] = true
		}
	}

	var risky []int
	for n := range loaded {
		if !valuable[n] {
			risky = append(risky, n)
		}
	}
	sort.Ints(risky)

	assessment.Score = clampScore(float64(len(valuable))/float64(total) - 0.2*float64(len(risky))/float64(total))

	if len(risky) > 0 {
		labels := make([]string, len(risky))
		for i, n := range risky {
			labels[i] = fmt.Sprintf("%d", n)
		}
		assessment.Issues = append(assessment.Issues, Issue{
			Code:     "no_user_value",
			Message:  fmt.Sprintf("iteration(s) %s carry work but deliver nothing user-visible", strings.Join(labels, ", ")),
			Severity: SeverityWarning,
		})
		assessment.Recommendations = append(assessment.Recommendations,
			"pull at least one user-facing story into each flagged iteration")
	}
	if empty := total - len(loaded); empty > 0 {
		assessment.Issues = append(assessment.Issues, Issue{
			Code:     "empty_iterations",
			Message:  fmt.Sprintf("%d iteration(s) in the horizon hold no work", empty),
			Severity: SeverityInfo,
		})
	}

	assessment.Ready = readyAt(assessment.Score, assessment.Issues)
	return assessment
}

// valuableStory reports whether the item is a story a user would notice.
func (a *ValueAssessor) valuableStory(item types.WorkItem) bool {
	return UserValuable(item, a.classifier)
}

// UserValuable reports whether the item delivers something a user would
// notice: a story with acceptance criteria, or one the classifier judges
// user-facing. The optimizer applies the same judgment when smoothing
// value across iterations.
func UserValuable(item types.WorkItem, classifier classify.Classifier) bool {
	if item.Type != types.TypeStory {
		return false
	}
	if item.HasAcceptanceCriteria() {
		return true
	}
	return classifier.Classify(item.Title, item.Description).UserFacing
}
