package repository

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/ndtutor/tutor-api/internal/service"
	"github.com/ndtutor/tutor-api/pkg/config"
)

// TranslateClient adapts the Cloud Translation API to the service interface.
type TranslateClient struct {
	client *translate.Client
}

// NewTranslateClient dials the Cloud Translation API.
func NewTranslateClient(ctx context.Context, cfg config.FirestoreConfig) (*TranslateClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial translate: %w", err)
	}
	return &TranslateClient{client: client}, nil
}

// Translate translates one text into the target language. Empty sourceCode
// means auto-detect.
func (c *TranslateClient) Translate(ctx context.Context, text, targetCode, sourceCode string) (service.TranslationResult, error) {
	target, err := language.Parse(targetCode)
	if err != nil {
		return service.TranslationResult{}, fmt.Errorf("parse target language %q: %w", targetCode, err)
	}

	opts := &translate.Options{Format: translate.Text}
	if sourceCode != "" {
		source, err := language.Parse(sourceCode)
		if err != nil {
			return service.TranslationResult{}, fmt.Errorf("parse source language %q: %w", sourceCode, err)
		}
		opts.Source = source
	}

	translations, err := c.client.Translate(ctx, []string{text}, target, opts)
	if err != nil {
		return service.TranslationResult{}, fmt.Errorf("translate: %w", err)
	}
	if len(translations) == 0 {
		return service.TranslationResult{}, fmt.Errorf("translate: empty result")
	}

	result := service.TranslationResult{TranslatedText: translations[0].Text}
	if translations[0].Source != (language.Tag{}) {
		result.DetectedSourceLanguage = translations[0].Source.String()
	}
	return result, nil
}

// Close releases the underlying connection.
func (c *TranslateClient) Close() error {
	return c.client.Close()
}

// SpeechClient adapts the Cloud Text-to-Speech API to the service interface.
type SpeechClient struct {
	client *texttospeech.Client
}

// NewSpeechClient dials the Cloud Text-to-Speech API.
func NewSpeechClient(ctx context.Context, cfg config.FirestoreConfig) (*SpeechClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial text-to-speech: %w", err)
	}
	return &SpeechClient{client: client}, nil
}

// Synthesize renders text to MP3 bytes.
func (c *SpeechClient) Synthesize(ctx context.Context, req service.SpeechRequest) ([]byte, error) {
	voice := &texttospeechpb.VoiceSelectionParams{
		LanguageCode: req.LanguageCode,
	}
	if req.VoiceName != "" {
		voice.Name = req.VoiceName
	} else {
		voice.SsmlGender = texttospeechpb.SsmlVoiceGender_FEMALE
	}

	resp, err := c.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: voice,
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  req.SpeakingRate,
			Pitch:         req.Pitch,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return resp.GetAudioContent(), nil
}

// Close releases the underlying connection.
func (c *SpeechClient) Close() error {
	return c.client.Close()
}
