package entities

import "path/filepath"

// RecognitionConfig describes the audio and recognition settings sent to the
// V1P1Beta1 backends. Zero values are omitted on the wire.
type RecognitionConfig struct {
	Encoding                   AudioEncoding `json:"encoding,omitempty" yaml:"encoding"`
	SampleRateHertz            int32         `json:"sampleRateHertz,omitempty" yaml:"sample_rate_hertz"`
	AudioChannelCount          int32         `json:"audioChannelCount,omitempty" yaml:"audio_channel_count"`
	LanguageCode               string        `json:"languageCode" yaml:"language_code"`
	MaxAlternatives            int32         `json:"maxAlternatives,omitempty" yaml:"max_alternatives"`
	ProfanityFilter            bool          `json:"profanityFilter,omitempty" yaml:"profanity_filter"`
	EnableAutomaticPunctuation bool          `json:"enableAutomaticPunctuation,omitempty" yaml:"enable_automatic_punctuation"`
	Model                      string        `json:"model,omitempty" yaml:"model"`
}

// ForFile returns a copy of the config whose encoding is derived from the file
// name when none was set explicitly.
func (c RecognitionConfig) ForFile(path string) RecognitionConfig {
	if c.Encoding == EncodingUnspecified {
		c.Encoding = EncodingForExtension(filepath.Ext(path))
	}
	return c
}

// Outcome is the result of one transcription call. A nil *Outcome means no
// usable result was produced.
type Outcome struct {
	// Transcript is set when the client runs in transcript mode.
	Transcript string
	// Result holds the parsed backend response in full-result mode.
	Result map[string]interface{}
}

// Found reports whether o carries anything.
func (o *Outcome) Found() bool {
	return o != nil
}
