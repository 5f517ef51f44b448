package handlemessage

// Input is one inbound chat message.
type Input struct {
	UserID    string `json:"userId"`
	ChannelID string `json:"channelId"`
	Text      string `json:"text"`
}

const (
	OutcomeHelp             = "help"
	OutcomeNoMatch          = "no_match"
	OutcomeResolved         = "resolved"
	OutcomeAmbiguous        = "ambiguous"
	OutcomeCancelled        = "cancelled"
	OutcomeInvalidSelection = "invalid_selection"
	OutcomeError            = "error"

	StateIdle              = "idle"
	StateAwaitingSelection = "awaiting_selection"
)

// Output carries the reply to send back and where the conversation now stands.
type Output struct {
	Reply            string `json:"reply"`
	Outcome          string `json:"outcome"`
	State            string `json:"state"`
	EntityID         string `json:"entityId,omitempty"`
	EntityName       string `json:"entityName,omitempty"`
	EntityCollection string `json:"entityCollection,omitempty"`
	CandidateCount   int    `json:"candidateCount"`
}
