// Package timeline slices a planning horizon into iterations.
package timeline

import (
	"fmt"
	"time"

	"github.com/railyardhq/railyard/internal/types"
)

// DefaultIterationDays is the standard iteration length. Team velocity is
// quoted against this length; shorter iterations scale capacity down.
const DefaultIterationDays = 14

// DefaultHorizonIterations is used when a horizon gives neither an end
// date nor an iteration count.
const DefaultHorizonIterations = 5

// Generate slices [start, end) into consecutive iterations of lengthDays
// calendar days. The last iteration truncates at the horizon end, so its
// Days field may be shorter than lengthDays. Every iteration lists the
// same eligible teams; an empty list admits all teams.
func Generate(start, end time.Time, lengthDays int, teams []string) ([]types.Iteration, error) {
	if lengthDays <= 0 {
		lengthDays = DefaultIterationDays
	}
	if !end.After(start) {
		return nil, fmt.Errorf("horizon end %s must be after start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	var iterations []types.Iteration
	for cursor := start; cursor.Before(end); {
		next := cursor.AddDate(0, 0, lengthDays)
		if next.After(end) {
			next = end
		}
		days := int(next.Sub(cursor).Hours() / 24)
		if days == 0 {
			break
		}
		n := len(iterations) + 1
		iterations = append(iterations, types.Iteration{
			ID:     fmt.Sprintf("it-%d", n),
			Number: n,
			Start:  cursor,
			End:    next,
			Days:   days,
			Teams:  append([]string(nil), teams...),
		})
		cursor = next
	}
	return iterations, nil
}

// GenerateCount produces exactly count iterations of lengthDays starting
// at start.
func GenerateCount(start time.Time, count, lengthDays int, teams []string) ([]types.Iteration, error) {
	if count <= 0 {
		count = DefaultHorizonIterations
	}
	if lengthDays <= 0 {
		lengthDays = DefaultIterationDays
	}
	end := start.AddDate(0, 0, count*lengthDays)
	return Generate(start, end, lengthDays, teams)
}
