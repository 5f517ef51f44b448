package resolveentity

// InputSchema is the JSON schema registered for crm-resolve-entity job variables.
func InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"query"},
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":      "string",
				"minLength": 1,
				"maxLength": 500,
			},
			"entityType": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"company", "person", "opportunity", "lead", "task", "unknown", "general", ""},
			},
			"filters": map[string]interface{}{
				"type": "object",
				"additionalProperties": map[string]interface{}{
					"type": "string",
				},
			},
		},
	}
}
