package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AuthTokenRequest describes an ephemeral Live-API token to mint.
type AuthTokenRequest struct {
	Model            string
	Uses             int
	ExpireTime       time.Time
	NewSessionExpire time.Time
	SystemPrompt     string
	LockConfig       bool
}

// AuthToken is the minted ephemeral token.
type AuthToken struct {
	Name             string
	ExpireTime       time.Time
	NewSessionExpire time.Time
}

type authTokenPayload struct {
	Uses                   int                     `json:"uses,omitempty"`
	ExpireTime             string                  `json:"expireTime"`
	NewSessionExpireTime   string                  `json:"newSessionExpireTime"`
	LiveConnectConstraints *liveConnectConstraints `json:"liveConnectConstraints,omitempty"`
}

type liveConnectConstraints struct {
	Model  string     `json:"model"`
	Config liveConfig `json:"config"`
}

type liveConfig struct {
	ResponseModalities       []string           `json:"responseModalities"`
	SessionResumption        struct{}           `json:"sessionResumption"`
	ContextWindowCompression *windowCompression `json:"contextWindowCompression,omitempty"`
	RealtimeInputConfig      *realtimeInput     `json:"realtimeInputConfig,omitempty"`
	SpeechConfig             *speechConfig      `json:"speechConfig,omitempty"`
	EnableAffectiveDialog    bool               `json:"enableAffectiveDialog"`
	SystemInstruction        *content           `json:"systemInstruction,omitempty"`
}

type windowCompression struct {
	SlidingWindow struct{} `json:"slidingWindow"`
}

type realtimeInput struct {
	AutomaticActivityDetection activityDetection `json:"automaticActivityDetection"`
}

type activityDetection struct {
	Disabled                 bool   `json:"disabled"`
	StartOfSpeechSensitivity string `json:"startOfSpeechSensitivity"`
	EndOfSpeechSensitivity   string `json:"endOfSpeechSensitivity"`
	PrefixPaddingMs          int    `json:"prefixPaddingMs"`
	SilenceDurationMs        int    `json:"silenceDurationMs"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type authTokenResponse struct {
	Name string `json:"name"`
}

// CreateAuthToken mints an ephemeral token against the v1alpha auth_tokens
// endpoint. When LockConfig is set the token is pinned to the model plus a
// voice-session config so clients cannot repurpose it.
func (c *Client) CreateAuthToken(ctx context.Context, req AuthTokenRequest) (AuthToken, error) {
	if req.Model == "" {
		return AuthToken{}, errors.New("gemini: auth token model is required")
	}

	payload := authTokenPayload{
		Uses:                 req.Uses,
		ExpireTime:           req.ExpireTime.UTC().Format(time.RFC3339),
		NewSessionExpireTime: req.NewSessionExpire.UTC().Format(time.RFC3339),
	}

	if req.LockConfig {
		cfg := liveConfig{
			ResponseModalities:       []string{"AUDIO"},
			ContextWindowCompression: &windowCompression{},
			RealtimeInputConfig: &realtimeInput{
				AutomaticActivityDetection: activityDetection{
					Disabled:                 false,
					StartOfSpeechSensitivity: "START_SENSITIVITY_HIGH",
					EndOfSpeechSensitivity:   "END_SENSITIVITY_HIGH",
					PrefixPaddingMs:          200,
					SilenceDurationMs:        500,
				},
			},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoice{VoiceName: "Aoede"}},
			},
			EnableAffectiveDialog: true,
		}
		if req.SystemPrompt != "" {
			cfg.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
		}
		payload.LiveConnectConstraints = &liveConnectConstraints{
			Model:  fmt.Sprintf("models/%s", req.Model),
			Config: cfg,
		}
	}

	var result authTokenResponse
	url := fmt.Sprintf("%s/v1alpha/auth_tokens", c.baseURL)
	if err := c.post(ctx, url, payload, &result); err != nil {
		return AuthToken{}, err
	}
	if result.Name == "" {
		return AuthToken{}, ErrEmptyResponse
	}

	return AuthToken{
		Name:             result.Name,
		ExpireTime:       req.ExpireTime,
		NewSessionExpire: req.NewSessionExpire,
	}, nil
}
