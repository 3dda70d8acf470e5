// Package tracker feeds work items and dependencies into the engine.
// A Source wraps whatever system of record holds the backlog; the
// planning core never talks to a tracker directly, so swapping in an
// issue-tracker client later touches nothing downstream.
package tracker

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/railyardhq/railyard/internal/program"
	"github.com/railyardhq/railyard/internal/types"
)

// Source hands the engine its planning inputs.
type Source interface {
	// Name identifies the source in run records and events.
	Name() string

	// FetchItems returns the work items to plan.
	FetchItems(ctx context.Context) ([]types.WorkItem, error)

	// FetchEdges returns the declared dependencies between the items.
	FetchEdges(ctx context.Context) ([]types.DependencyEdge, error)
}

// IncrementSource serves the items and edges already resolved into a
// program increment.
type IncrementSource struct {
	inc *program.Increment
}

// NewIncrementSource wraps a resolved increment.
func NewIncrementSource(inc *program.Increment) *IncrementSource {
	return &IncrementSource{inc: inc}
}

// Name identifies the backing document.
func (s *IncrementSource) Name() string { return "document:" + s.inc.Name }

// FetchItems returns the increment's work items.
func (s *IncrementSource) FetchItems(ctx context.Context) ([]types.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inc.Items, nil
}

// FetchEdges returns the increment's dependency edges.
func (s *IncrementSource) FetchEdges(ctx context.Context) ([]types.DependencyEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inc.Edges, nil
}

// FileSource lazily reads a program document and serves its items and
// edges. The file is read once; later fetches reuse the parse.
type FileSource struct {
	path string

	once sync.Once
	inc  *program.Increment
	err  error
}

// NewFileSource serves the document at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the backing file.
func (s *FileSource) Name() string { return "file:" + filepath.Base(s.path) }

func (s *FileSource) load() (*program.Increment, error) {
	s.once.Do(func() {
		s.inc, s.err = program.Load(s.path)
	})
	return s.inc, s.err
}

// FetchItems returns the document's work items.
func (s *FileSource) FetchItems(ctx context.Context) ([]types.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inc, err := s.load()
	if err != nil {
		return nil, err
	}
	return inc.Items, nil
}

// FetchEdges returns the document's dependency edges.
func (s *FileSource) FetchEdges(ctx context.Context) ([]types.DependencyEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inc, err := s.load()
	if err != nil {
		return nil, err
	}
	return inc.Edges, nil
}

var _ Source = (*IncrementSource)(nil)
var _ Source = (*FileSource)(nil)
