package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRegistry() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{
				ID:                   "crm.entity.resolve",
				DisplayName:          "Resolve CRM Entity",
				Category:             "crm-intel",
				TaskType:             "crm-resolve-entity",
				ImplementationStatus: "completed",
				Timeout:              "45s",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"query"},
					"properties": map[string]interface{}{
						"query": map[string]interface{}{"type": "string", "minLength": 1},
					},
				},
			},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	reg := sampleRegistry()

	require.NoError(t, Save(reg, path))
	assert.NotEmpty(t, reg.LastUpdated)

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, loaded.Activities, 1)

	a, ok := loaded.Find("crm-resolve-entity")
	require.True(t, ok)
	assert.Equal(t, "crm.entity.resolve", a.ID)

	_, ok = loaded.FindByID("missing")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, sampleRegistry().Validate())

	tests := []struct {
		name   string
		mutate func(r *ActivityRegistry)
		want   string
	}{
		{"empty", func(r *ActivityRegistry) { r.Activities = nil }, "no activities"},
		{"duplicate id", func(r *ActivityRegistry) {
			dup := r.Activities[0]
			dup.TaskType = "other"
			r.Activities = append(r.Activities, dup)
		}, "duplicate activity ID"},
		{"duplicate task type", func(r *ActivityRegistry) {
			dup := r.Activities[0]
			dup.ID = "other"
			r.Activities = append(r.Activities, dup)
		}, "duplicate task type"},
		{"missing task type", func(r *ActivityRegistry) { r.Activities[0].TaskType = "" }, "TaskType"},
		{"bad status", func(r *ActivityRegistry) { r.Activities[0].ImplementationStatus = "done" }, "implementation status"},
		{"bad timeout", func(r *ActivityRegistry) { r.Activities[0].Timeout = "soon" }, "invalid timeout"},
		{"bad schema", func(r *ActivityRegistry) {
			r.Activities[0].InputSchema = map[string]interface{}{"type": 12}
		}, "input schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := sampleRegistry()
			tt.mutate(reg)
			err := reg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRegistry_Missing(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
