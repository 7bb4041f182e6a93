package api

import "github.com/satriahrh/gspeech/domain"

// TranscriptionResponse is returned by the upload endpoint
type TranscriptionResponse struct {
	RequestID  string                 `json:"request_id"`
	File       string                 `json:"file"`
	Transcript string                 `json:"transcript"`
	Result     map[string]interface{} `json:"result,omitempty"`
	Found      bool                   `json:"found"`
}

func newTranscriptionResponse(msg *domain.TranscriptionMessage, filename string) TranscriptionResponse {
	return TranscriptionResponse{
		RequestID:  msg.RequestID,
		File:       filename,
		Transcript: msg.Transcript,
		Result:     msg.Result,
		Found:      msg.Found,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
