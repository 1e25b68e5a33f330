package planconfig

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"

	"caseflow/internal/timeline"
)

//go:embed schema.json
var planSchema []byte

//go:embed plans.json
var defaultPlans []byte

// Loader loads stage-plan configuration, validating it against the plan
// JSON Schema and the structural plan invariants before anything reaches the
// timeline engine. Validated plans are cached per variant; the cache expires
// so an edited plan file is picked up without a restart.
type Loader struct {
	schema *js.Schema
	dir    string
	cache  *expirable.LRU[string, timeline.Plan]
}

// NewLoader builds a loader. dir points at a directory holding a plans.json
// override; empty means the embedded defaults only.
func NewLoader(dir string) (*Loader, error) {
	c := js.NewCompiler()
	if err := c.AddResource("mem://plans.schema.json", bytes.NewReader(planSchema)); err != nil {
		return nil, fmt.Errorf("failed to add plan schema: %w", err)
	}
	compiled, err := c.Compile("mem://plans.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile plan schema: %w", err)
	}
	return &Loader{
		schema: compiled,
		dir:    dir,
		cache:  expirable.NewLRU[string, timeline.Plan](16, nil, time.Hour),
	}, nil
}

// Plan returns the validated plan for a variant, from cache when fresh.
func (l *Loader) Plan(variant timeline.Variant) (timeline.Plan, error) {
	if p, ok := l.cache.Get(string(variant)); ok {
		return p, nil
	}
	plans, err := l.loadAll()
	if err != nil {
		return timeline.Plan{}, err
	}
	for _, p := range plans {
		l.cache.Add(string(p.Variant), p)
	}
	p, ok := l.cache.Get(string(variant))
	if !ok {
		return timeline.Plan{}, fmt.Errorf("%w: no plan configured for variant %q", timeline.ErrConfiguration, variant)
	}
	return p, nil
}

// All returns every configured plan, validated.
func (l *Loader) All() ([]timeline.Plan, error) {
	return l.loadAll()
}

type planFile struct {
	Plans []timeline.Plan `json:"plans"`
}

func (l *Loader) loadAll() ([]timeline.Plan, error) {
	raw := defaultPlans
	if l.dir != "" {
		path := filepath.Join(l.dir, "plans.json")
		if b, err := os.ReadFile(path); err == nil {
			raw = b
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read plan file %s: %w", path, err)
		}
	}

	// Schema validation first, so decode errors read as configuration
	// problems rather than type mismatches.
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: plan file is not valid JSON: %v", timeline.ErrConfiguration, err)
	}
	if err := l.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", timeline.ErrConfiguration, err)
	}

	var pf planFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("%w: %v", timeline.ErrConfiguration, err)
	}

	seen := make(map[timeline.Variant]bool, len(pf.Plans))
	ids := make(map[string]timeline.Variant)
	for _, p := range pf.Plans {
		if seen[p.Variant] {
			return nil, fmt.Errorf("%w: variant %q configured twice", timeline.ErrConfiguration, p.Variant)
		}
		seen[p.Variant] = true
		if err := p.Validate(); err != nil {
			return nil, err
		}
		// Stage ids key the shared progress map, so they must be unique
		// across the whole configuration, not just within one plan.
		for _, st := range p.Stages {
			if other, dup := ids[st.ID]; dup {
				return nil, fmt.Errorf("%w: stage id %q appears in both %q and %q", timeline.ErrConfiguration, st.ID, other, p.Variant)
			}
			ids[st.ID] = p.Variant
		}
	}
	return pf.Plans, nil
}
