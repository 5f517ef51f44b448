package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copper-intel-workers/pkg/registry"
)

const taskType = "crm-handle-message"

func messageSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"userId", "channelId", "text"},
		"properties": map[string]interface{}{
			"userId":    map[string]interface{}{"type": "string", "minLength": 1},
			"channelId": map[string]interface{}{"type": "string", "minLength": 1},
			"text":      map[string]interface{}{"type": "string"},
		},
	}
}

func TestValidator_ValidateInput(t *testing.T) {
	v, err := NewValidator(&registry.ActivityRegistry{
		Activities: []registry.Activity{
			{ID: "crm.message.handle", TaskType: taskType, InputSchema: messageSchema()},
			{ID: "no.schema.here", TaskType: "other"},
		},
	})
	require.NoError(t, err)
	assert.True(t, v.HasSchema(taskType))
	assert.False(t, v.HasSchema("other"))

	tests := []struct {
		name      string
		vars      map[string]interface{}
		valid     bool
		errFields []string
	}{
		{
			name:  "valid",
			vars:  map[string]interface{}{"userId": "U1", "channelId": "C1", "text": "hi"},
			valid: true,
		},
		{
			name:      "missing text",
			vars:      map[string]interface{}{"userId": "U1", "channelId": "C1"},
			errFields: []string{"text"},
		},
		{
			name:      "wrong type and empty id",
			vars:      map[string]interface{}{"userId": "", "channelId": 7, "text": "x"},
			errFields: []string{"channelId", "userId"},
		},
		{
			name:      "nil variables",
			vars:      nil,
			errFields: []string{"channelId", "text", "userId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateInput(taskType, tt.vars)
			assert.Equal(t, tt.valid, res.Valid, res.GetErrorMessages())
			for _, f := range tt.errFields {
				assert.True(t, res.HasErrors(f), "expected error on %s, got %v", f, res.GetErrorMessages())
			}
		})
	}
}

func TestValidator_UnknownTaskTypeAndNil(t *testing.T) {
	v, err := NewValidatorFromSchemas(nil)
	require.NoError(t, err)
	assert.True(t, v.ValidateInput("anything", nil).Valid)

	var nilValidator *Validator
	assert.True(t, nilValidator.ValidateInput(taskType, nil).Valid)
	assert.False(t, nilValidator.HasSchema(taskType))
}

func TestNewValidatorFromSchemas_BadSchema(t *testing.T) {
	_, err := NewValidatorFromSchemas(map[string]map[string]interface{}{
		taskType: {"type": 42},
	})
	assert.Error(t, err)
}

func TestValidateDocument(t *testing.T) {
	res, err := ValidateDocument(messageSchema(), map[string]interface{}{"userId": "U", "channelId": "C", "text": ""})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = ValidateDocument(messageSchema(), map[string]interface{}{"userId": "U"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
}
