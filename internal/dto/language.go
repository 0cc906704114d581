package dto

// TranslateRequest translates text into a target language. SourceLanguage
// is auto-detected when empty.
type TranslateRequest struct {
	Text           string `json:"text" binding:"required"`
	TargetLanguage string `json:"targetLanguage" binding:"required"`
	SourceLanguage string `json:"sourceLanguage"`
}

// TranslateResponse carries the translation result.
type TranslateResponse struct {
	TranslatedText         string `json:"translatedText"`
	DetectedSourceLanguage string `json:"detectedSourceLanguage"`
	TargetLanguage         string `json:"targetLanguage"`
}

// TTSRequest synthesizes speech for the given text.
type TTSRequest struct {
	Text         string  `json:"text" binding:"required"`
	LanguageCode string  `json:"languageCode"`
	VoiceName    string  `json:"voiceName"`
	SpeakingRate float64 `json:"speakingRate"`
	Pitch        float64 `json:"pitch"`
}

// TTSResponse carries base64-encoded MP3 audio.
type TTSResponse struct {
	AudioContent string `json:"audioContent"`
	ContentType  string `json:"contentType"`
}
