package qa

// ModeID identifies one of the QA pipelines.
type ModeID string

const (
	// ModeContentFastPath runs a minimal build plus SEO and a11y smoke tests.
	ModeContentFastPath ModeID = "content_fast_path"
	// ModeFull runs the comprehensive build, test, performance and visual suite.
	ModeFull ModeID = "full"

	// DefaultMode is used when there is nothing to classify.
	DefaultMode = ModeFull
	// FallbackOnErrorMode is used when classification cannot decide.
	FallbackOnErrorMode = ModeFull
)

// Policy versions printed at startup and carried in every selection for audit.
// They never influence the decision.
const (
	QAPolicyVersion   = "1.0.0"
	A11yPolicyVersion = "1.0.0-content-qa"
)

// Step is one external command in a mode's pipeline.
type Step struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	// Command is an opaque shell command line; only the runner interprets it.
	Command  string `json:"command" yaml:"command"`
	Critical bool   `json:"critical" yaml:"critical"`
}

// Mode is a named, ordered pipeline of steps.
type Mode struct {
	ID          ModeID `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Steps       []Step `json:"steps" yaml:"steps"`
}

func (m Mode) clone() Mode {
	steps := make([]Step, len(m.Steps))
	copy(steps, m.Steps)
	m.Steps = steps
	return m
}

// Registry is the read-only set of modes known to the runner.
type Registry struct {
	order []ModeID
	modes map[ModeID]Mode
}

// NewRegistry builds a registry from modes in the given order. A later mode
// with a duplicate id replaces the earlier one but keeps its position.
func NewRegistry(modes ...Mode) *Registry {
	r := &Registry{modes: make(map[ModeID]Mode, len(modes))}
	for _, m := range modes {
		if _, exists := r.modes[m.ID]; !exists {
			r.order = append(r.order, m.ID)
		}
		r.modes[m.ID] = m.clone()
	}
	return r
}

// Lookup returns a copy of the mode with the given id.
func (r *Registry) Lookup(id ModeID) (Mode, bool) {
	m, ok := r.modes[id]
	if !ok {
		return Mode{}, false
	}
	return m.clone(), true
}

// Modes returns copies of all modes in registration order.
func (r *Registry) Modes() []Mode {
	out := make([]Mode, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.modes[id].clone())
	}
	return out
}

// DefaultRegistry returns the two built-in QA modes.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Mode{
			ID:   ModeContentFastPath,
			Name: "Content Fast-Path QA",
			Description: "Fast but safe QA for clearly content-only changes, including build, SEO, " +
				"and a11y checks on representative pages.",
			Steps: []Step{
				{
					ID:          "content_build",
					Description: "Fast content build.",
					Command:     "bun run build:content",
					Critical:    true,
				},
				{
					ID:          "seo_fast",
					Description: "SEO metadata checks on core pages.",
					Command:     "bunx playwright test tests/seo-metadata.spec.ts",
					Critical:    true,
				},
				{
					ID:          "a11y_fast",
					Description: "A11y smoke for home, one article, one listing, and (if any) an interactive page.",
					Command:     "bunx playwright test tests/accessibility-critical.spec.ts",
					Critical:    true,
				},
			},
		},
		Mode{
			ID:   ModeFull,
			Name: "Full QA",
			Description: "Comprehensive QA for infra/template/code/config changes: build, SEO, full a11y " +
				"coverage, E2E, performance, and visual regression.",
			Steps: []Step{
				{
					ID:          "site_build_full",
					Description: "Full/infra build.",
					Command:     "bun run build:infra",
					Critical:    true,
				},
				{
					ID:          "seo_full",
					Description: "Full SEO test suite.",
					Command:     "bunx playwright test tests/seo-metadata.spec.ts",
					Critical:    true,
				},
				{
					ID:          "a11y_full",
					Description: "Full a11y suite.",
					Command:     "bunx playwright test tests/accessibility-critical.spec.ts",
					Critical:    true,
				},
				{
					ID:          "e2e_journeys",
					Description: "End-to-end user journey tests.",
					Command:     "bunx playwright test tests/e2e-journeys.spec.ts",
					Critical:    true,
				},
				{
					ID:          "visual_regression",
					Description: "Visual regression checks.",
					Command:     "bunx playwright test tests/visual-regression.spec.ts",
					Critical:    true,
				},
				{
					ID:          "performance",
					Description: "Performance checks.",
					Command:     "bunx playwright test tests/performance.spec.ts",
					Critical:    false,
				},
				{
					ID:          "go_bdd",
					Description: "Go/BDD tests under test/.",
					Command:     "cd test && go test ./...",
					Critical:    true,
				},
			},
		},
	)
}
