package handlemessage

// InputSchema is the JSON schema registered for crm-handle-message job variables.
func InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"userId", "channelId", "text"},
		"properties": map[string]interface{}{
			"userId": map[string]interface{}{
				"type":      "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"channelId": map[string]interface{}{
				"type":      "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"text": map[string]interface{}{
				"type":      "string",
				"maxLength": 4000,
			},
		},
	}
}
