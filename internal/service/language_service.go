package service

import (
	"context"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"

	"github.com/ndtutor/tutor-api/internal/dto"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
)

// Preferred voice per language. Studio voices where available, Neural2
// otherwise, Standard as the floor.
var bestVoices = map[string]string{
	"en-US": "en-US-Studio-O",
	"en-GB": "en-GB-Neural2-F",
	"uk-UA": "uk-UA-Standard-A",
	"es-ES": "es-ES-Studio-F",
	"fr-FR": "fr-FR-Neural2-A",
	"de-DE": "de-DE-Studio-B",
	"it-IT": "it-IT-Neural2-A",
	"pt-BR": "pt-BR-Neural2-A",
	"ja-JP": "ja-JP-Neural2-B",
	"ko-KR": "ko-KR-Neural2-A",
	"zh-CN": "cmn-CN-Neural2-A",
}

const (
	defaultTTSLanguage = "en-US"
	defaultTTSRate     = 0.9
)

// TranslationResult is the raw outcome of one translation call.
type TranslationResult struct {
	TranslatedText         string
	DetectedSourceLanguage string
}

// Translator translates text between languages.
type Translator interface {
	Translate(ctx context.Context, text, targetCode, sourceCode string) (TranslationResult, error)
}

// SpeechRequest describes one synthesis call.
type SpeechRequest struct {
	Text         string
	LanguageCode string
	VoiceName    string
	SpeakingRate float64
	Pitch        float64
}

// Synthesizer renders text into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// LanguageService fronts the translation and text-to-speech providers.
type LanguageService struct {
	translator  Translator
	synthesizer Synthesizer
	logger      *zap.Logger
}

// NewLanguageService constructs the language service.
func NewLanguageService(translator Translator, synthesizer Synthesizer, logger *zap.Logger) *LanguageService {
	return &LanguageService{translator: translator, synthesizer: synthesizer, logger: logger}
}

// Translate translates text into the target language. BCP-47 region tags
// are reduced to the bare language code before the call, so "uk-UA" and
// "uk" behave identically.
func (s *LanguageService) Translate(ctx context.Context, req dto.TranslateRequest) (*dto.TranslateResponse, error) {
	targetCode := req.TargetLanguage
	if idx := strings.Index(targetCode, "-"); idx >= 0 {
		targetCode = targetCode[:idx]
	}

	result, err := s.translator.Translate(ctx, req.Text, targetCode, req.SourceLanguage)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("translation failed", zap.String("target", targetCode), zap.Error(err))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "translation failed")
	}

	detected := result.DetectedSourceLanguage
	if detected == "" {
		detected = req.SourceLanguage
	}

	return &dto.TranslateResponse{
		TranslatedText:         result.TranslatedText,
		DetectedSourceLanguage: detected,
		TargetLanguage:         targetCode,
	}, nil
}

// Synthesize renders text to MP3 and returns it base64 encoded. Voice
// selection falls back to the per-language preferred voice when the caller
// does not name one.
func (s *LanguageService) Synthesize(ctx context.Context, req dto.TTSRequest) (*dto.TTSResponse, error) {
	languageCode := req.LanguageCode
	if languageCode == "" {
		languageCode = defaultTTSLanguage
	}
	voiceName := req.VoiceName
	if voiceName == "" {
		voiceName = bestVoices[languageCode]
	}
	rate := req.SpeakingRate
	if rate == 0 {
		rate = defaultTTSRate
	}

	audio, err := s.synthesizer.Synthesize(ctx, SpeechRequest{
		Text:         req.Text,
		LanguageCode: languageCode,
		VoiceName:    voiceName,
		SpeakingRate: rate,
		Pitch:        req.Pitch,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("speech synthesis failed", zap.String("language", languageCode), zap.Error(err))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "speech synthesis failed")
	}

	return &dto.TTSResponse{
		AudioContent: base64.StdEncoding.EncodeToString(audio),
		ContentType:  "audio/mpeg",
	}, nil
}
