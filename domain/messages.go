package domain

// TranscriptionMessage represents the result of transcribing one audio file
type TranscriptionMessage struct {
	RequestID  string                 `json:"request_id"`
	File       string                 `json:"file"`
	Transcript string                 `json:"transcript,omitempty"`
	Result     map[string]interface{} `json:"result,omitempty"`
	Found      bool                   `json:"found"`
	Error      string                 `json:"error,omitempty"`
}
