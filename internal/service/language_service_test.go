package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndtutor/tutor-api/internal/dto"
)

type fakeTranslator struct {
	lastTarget string
	lastSource string
	result     TranslationResult
	err        error
}

func (f *fakeTranslator) Translate(_ context.Context, _, targetCode, sourceCode string) (TranslationResult, error) {
	f.lastTarget = targetCode
	f.lastSource = sourceCode
	return f.result, f.err
}

type fakeSynthesizer struct {
	lastReq SpeechRequest
	audio   []byte
	err     error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, req SpeechRequest) ([]byte, error) {
	f.lastReq = req
	return f.audio, f.err
}

func TestTranslateStripsRegionTag(t *testing.T) {
	translator := &fakeTranslator{result: TranslationResult{TranslatedText: "привіт", DetectedSourceLanguage: "en"}}
	svc := NewLanguageService(translator, &fakeSynthesizer{}, nil)

	resp, err := svc.Translate(context.Background(), dto.TranslateRequest{Text: "hello", TargetLanguage: "uk-UA"})
	require.NoError(t, err)

	assert.Equal(t, "uk", translator.lastTarget)
	assert.Equal(t, "uk", resp.TargetLanguage)
	assert.Equal(t, "привіт", resp.TranslatedText)
	assert.Equal(t, "en", resp.DetectedSourceLanguage)
}

func TestTranslateUpstreamFailure(t *testing.T) {
	translator := &fakeTranslator{err: errors.New("quota")}
	svc := NewLanguageService(translator, &fakeSynthesizer{}, nil)

	_, err := svc.Translate(context.Background(), dto.TranslateRequest{Text: "hi", TargetLanguage: "es"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translation failed")
}

func TestSynthesizeDefaultsAndEncoding(t *testing.T) {
	synth := &fakeSynthesizer{audio: []byte("mp3-bytes")}
	svc := NewLanguageService(&fakeTranslator{}, synth, nil)

	resp, err := svc.Synthesize(context.Background(), dto.TTSRequest{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "en-US", synth.lastReq.LanguageCode)
	assert.Equal(t, "en-US-Studio-O", synth.lastReq.VoiceName)
	assert.InDelta(t, 0.9, synth.lastReq.SpeakingRate, 0.0001)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mp3-bytes")), resp.AudioContent)
	assert.Equal(t, "audio/mpeg", resp.ContentType)
}

func TestSynthesizeExplicitVoiceWins(t *testing.T) {
	synth := &fakeSynthesizer{audio: []byte("x")}
	svc := NewLanguageService(&fakeTranslator{}, synth, nil)

	_, err := svc.Synthesize(context.Background(), dto.TTSRequest{
		Text:         "bonjour",
		LanguageCode: "fr-FR",
		VoiceName:    "fr-FR-Custom",
		SpeakingRate: 1.2,
		Pitch:        -2,
	})
	require.NoError(t, err)

	assert.Equal(t, "fr-FR-Custom", synth.lastReq.VoiceName)
	assert.InDelta(t, 1.2, synth.lastReq.SpeakingRate, 0.0001)
	assert.InDelta(t, -2.0, synth.lastReq.Pitch, 0.0001)
}

func TestSynthesizeUnknownLanguageHasNoVoice(t *testing.T) {
	synth := &fakeSynthesizer{audio: []byte("x")}
	svc := NewLanguageService(&fakeTranslator{}, synth, nil)

	_, err := svc.Synthesize(context.Background(), dto.TTSRequest{Text: "hej", LanguageCode: "sv-SE"})
	require.NoError(t, err)
	assert.Empty(t, synth.lastReq.VoiceName)
}
