package stt_test

import (
	speech "cloud.google.com/go/speech/apiv1p1beta1"

	"github.com/satriahrh/gspeech/adapters/stt"
	"github.com/satriahrh/gspeech/domain/repositories"
)

var (
	_ repositories.Transcriber = &stt.SpeechV2{}
	_ repositories.Transcriber = &stt.CloudREST{}
	_ repositories.Transcriber = &stt.CloudClient{}
	_ repositories.Transcriber = &stt.MockTranscriber{}

	_ stt.Recognizer = &speech.Client{}
)
