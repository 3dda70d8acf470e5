// Package classify decides what kind of value a work item carries. The
// readiness assessors only need the answer, not the method, so the
// keyword matcher here can be swapped for a model-backed classifier
// without touching them.
package classify

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Classification is the judged nature of one work item.
type Classification struct {
	UserFacing     bool     `json:"user_facing"`
	Integration    bool     `json:"integration"`
	Infrastructure bool     `json:"infrastructure"`
	Confidence     float64  `json:"confidence"`
	Matched        []string `json:"matched,omitempty"`
}

// Classifier judges a work item from its title and description.
type Classifier interface {
	Name() string
	Classify(title, description string) Classification
}

// Default keyword sets. Matching is case-insensitive substring search,
// so keep entries lowercase and specific enough to avoid false hits.
var (
	userFacingTerms = []string{
		"user", "customer", "screen", "page", "display",
		"dashboard", "button", "form", "login", "signup", "checkout",
		"onboarding", "notification", "email", "report", "search",
		"mobile", "accessibility",
	}
	integrationTerms = []string{
		"api", "integration", "webhook", "sync", "gateway", "export",
		"import", "third-party", "partner", "oauth", "sso", "payment provider",
	}
	infrastructureTerms = []string{
		"refactor", "migration", "database", "pipeline", "framework",
		"upgrade", "tooling", "ci/cd", "build", "deploy", "observability",
		"logging", "scaling", "cache", "tech debt", "enabler",
	}
)

const cacheSize = 512

// Keyword classifies by substring matching against curated term sets.
// Identical texts are classified once and served from an LRU cache; the
// assessors and the optimizer re-ask for the same items every pass.
type Keyword struct {
	userFacing     []string
	integration    []string
	infrastructure []string
	cache          *lru.Cache[string, Classification]
}

// NewKeyword builds the default keyword classifier.
func NewKeyword() *Keyword {
	// lru.New only fails on a non-positive size
	cache, _ := lru.New[string, Classification](cacheSize)
	return &Keyword{
		userFacing:     userFacingTerms,
		integration:    integrationTerms,
		infrastructure: infrastructureTerms,
		cache:          cache,
	}
}

// Name identifies the classifier in results and logs.
func (k *Keyword) Name() string { return "keyword" }

// Classify judges the given text. Confidence grows with the number of
// matched terms and never exceeds 0.9: keyword matching cannot be more
// certain than that about intent.
func (k *Keyword) Classify(title, description string) Classification {
	key := title + "\x00" + description
	if hit, ok := k.cache.Get(key); ok {
		return hit
	}

	text := strings.ToLower(title + " " + description)
	c := Classification{}

	c.UserFacing, c.Matched = matchTerms(text, k.userFacing, c.Matched)
	c.Integration, c.Matched = matchTerms(text, k.integration, c.Matched)
	c.Infrastructure, c.Matched = matchTerms(text, k.infrastructure, c.Matched)

	switch n := len(c.Matched); {
	case n == 0:
		c.Confidence = 0.3
	case n == 1:
		c.Confidence = 0.6
	case n == 2:
		c.Confidence = 0.75
	default:
		c.Confidence = 0.9
	}
	sort.Strings(c.Matched)

	k.cache.Add(key, c)
	return c
}

func matchTerms(text string, terms []string, matched []string) (bool, []string) {
	hit := false
	for _, term := range terms {
		if strings.Contains(text, term) {
			hit = true
			matched = append(matched, term)
		}
	}
	return hit, matched
}

// CacheLen reports how many classifications are memoized.
func (k *Keyword) CacheLen() int { return k.cache.Len() }
