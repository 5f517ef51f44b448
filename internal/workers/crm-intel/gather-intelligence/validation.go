package gatherintelligence

// InputSchema is the JSON schema registered for crm-gather-intelligence job variables.
func InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"entityId", "collection"},
		"properties": map[string]interface{}{
			"entityId": map[string]interface{}{
				"type":      "string",
				"minLength": 1,
				"pattern":   "^[0-9]+$",
			},
			"collection": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"companies", "people", "opportunities", "leads", "tasks"},
			},
			"include": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
	}
}
