package stt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/satriahrh/gspeech/domain"
)

// ExtractionKind tells apart the three shapes a backend result can take
type ExtractionKind int

const (
	// ExtractionEmpty is an empty response, the backend heard no speech
	ExtractionEmpty ExtractionKind = iota
	// ExtractionMalformed is a non-empty response without a transcript path
	ExtractionMalformed
	// ExtractionParsed carries a transcript and maybe a confidence
	ExtractionParsed
)

// Extraction is what the normalizer reads out of one backend result
type Extraction struct {
	Kind       ExtractionKind
	Transcript string
	// Confidence is nil when the backend did not report one
	Confidence *float64
	Payload    map[string]interface{}
}

// Accept applies the confidence gate. A missing confidence counts as fully
// confident; otherwise it must be strictly greater than minConfidence.
func (e Extraction) Accept(minConfidence float64) (string, bool) {
	if e.Kind != ExtractionParsed {
		return "", false
	}
	if e.Confidence != nil && !(*e.Confidence > minConfidence) {
		return "", false
	}
	return polishTranscript(e.Transcript), true
}

// ExtractSpeechV2 reads result[0].alternative[0] from a Speech V2 line
func ExtractSpeechV2(result map[string]interface{}) Extraction {
	return extract(result, "result", "alternative")
}

// ExtractCloud reads results[0].alternatives[0] from a V1P1Beta1 response
func ExtractCloud(result map[string]interface{}) Extraction {
	return extract(result, "results", "alternatives")
}

// NormalizeSpeechV2 returns the transcript of a Speech V2 line when it passes
// the confidence gate.
func NormalizeSpeechV2(minConfidence float64, result map[string]interface{}) (string, bool) {
	return ExtractSpeechV2(result).Accept(minConfidence)
}

// NormalizeCloud returns the transcript of a V1P1Beta1 response when it passes
// the confidence gate. An empty response yields no transcript and no error; a
// non-empty response without a transcript yields a MalformedResponseError.
func NormalizeCloud(minConfidence float64, result map[string]interface{}) (string, bool, error) {
	extraction := ExtractCloud(result)
	if extraction.Kind == ExtractionMalformed {
		return "", false, &domain.MalformedResponseError{Payload: prettyPayload(result)}
	}

	transcript, ok := extraction.Accept(minConfidence)
	return transcript, ok, nil
}

func extract(result map[string]interface{}, resultsKey, alternativesKey string) Extraction {
	if len(result) == 0 {
		return Extraction{Kind: ExtractionEmpty, Payload: result}
	}
	malformed := Extraction{Kind: ExtractionMalformed, Payload: result}

	alternative, ok := firstObject(result, resultsKey)
	if !ok {
		return malformed
	}
	alternative, ok = firstObject(alternative, alternativesKey)
	if !ok {
		return malformed
	}

	transcript, ok := alternative["transcript"].(string)
	if !ok {
		return malformed
	}

	extraction := Extraction{Kind: ExtractionParsed, Transcript: transcript, Payload: result}
	if raw, exists := alternative["confidence"]; exists {
		confidence, err := toFloat(raw)
		if err != nil {
			return malformed
		}
		extraction.Confidence = &confidence
	}

	return extraction
}

// firstObject returns parent[key][0] when it is a JSON object
func firstObject(parent map[string]interface{}, key string) (map[string]interface{}, bool) {
	list, ok := parent[key].([]interface{})
	if !ok || len(list) == 0 {
		return nil, false
	}
	obj, ok := list[0].(map[string]interface{})
	return obj, ok
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("unexpected confidence type %T", v)
	}
}

// polishTranscript upper-cases the first character only and swaps the right
// single quotation mark for an ASCII apostrophe.
func polishTranscript(text string) string {
	if text == "" {
		return text
	}
	_, size := utf8.DecodeRuneInString(text)
	text = strings.ToUpper(text[:size]) + text[size:]
	return strings.ReplaceAll(text, "’", "'")
}

func prettyPayload(result map[string]interface{}) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Sprintf("%v", result)
	}
	return strings.TrimRight(buf.String(), "\n")
}
