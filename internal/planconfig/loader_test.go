package planconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/timeline"
)

func TestLoader_EmbeddedDefaults(t *testing.T) {
	l, err := NewLoader("")
	require.NoError(t, err)

	for _, variant := range timeline.Variants {
		p, err := l.Plan(variant)
		require.NoError(t, err, "variant %s", variant)
		assert.Equal(t, variant, p.Variant)
		assert.NotEmpty(t, p.Stages)
		require.NoError(t, p.Validate())
	}
}

func TestLoader_StageIDsUniqueAcrossConfiguration(t *testing.T) {
	l, err := NewLoader("")
	require.NoError(t, err)

	plans, err := l.All()
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, p := range plans {
		for _, st := range p.Stages {
			assert.False(t, seen[st.ID], "stage id %q reused", st.ID)
			seen[st.ID] = true
		}
	}
}

func writePlanFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.json"), []byte(content), 0o644))
	return dir
}

func TestLoader_OverrideFile(t *testing.T) {
	dir := writePlanFile(t, `{
		"plans": [{
			"variant": "internal_investigation",
			"stages": [
				{"id": "only", "name": "Only", "duration": 5, "dayType": "continuous", "countFrom": "case_start"}
			]
		}]
	}`)

	l, err := NewLoader(dir)
	require.NoError(t, err)

	p, err := l.Plan(timeline.VariantInternalInvestigation)
	require.NoError(t, err)
	require.Len(t, p.Stages, 1)
	assert.Equal(t, "only", p.Stages[0].ID)

	// A variant absent from the override is a configuration error, not a
	// silent fall-through onto the embedded defaults.
	_, err = l.Plan(timeline.VariantReferredAuthority)
	assert.ErrorIs(t, err, timeline.ErrConfiguration)
}

func TestLoader_SchemaRejectsBadDayType(t *testing.T) {
	dir := writePlanFile(t, `{
		"plans": [{
			"variant": "internal_investigation",
			"stages": [
				{"id": "only", "name": "Only", "duration": 5, "dayType": "lunar", "countFrom": "case_start"}
			]
		}]
	}`)

	l, err := NewLoader(dir)
	require.NoError(t, err)

	_, err = l.Plan(timeline.VariantInternalInvestigation)
	assert.ErrorIs(t, err, timeline.ErrConfiguration)
}

func TestLoader_RejectsDuplicateStageIDs(t *testing.T) {
	dir := writePlanFile(t, `{
		"plans": [
			{
				"variant": "internal_investigation",
				"stages": [{"id": "shared", "name": "A", "duration": 1, "dayType": "continuous", "countFrom": "case_start"}]
			},
			{
				"variant": "referred_authority",
				"stages": [{"id": "shared", "name": "B", "duration": 1, "dayType": "continuous", "countFrom": "case_start"}]
			}
		]
	}`)

	l, err := NewLoader(dir)
	require.NoError(t, err)

	_, err = l.Plan(timeline.VariantInternalInvestigation)
	assert.ErrorIs(t, err, timeline.ErrConfiguration)
}

func TestLoader_RejectsInvalidJSON(t *testing.T) {
	dir := writePlanFile(t, `{"plans": [`)

	l, err := NewLoader(dir)
	require.NoError(t, err)

	_, err = l.Plan(timeline.VariantInternalInvestigation)
	assert.ErrorIs(t, err, timeline.ErrConfiguration)
}
