// Package providers constructs the backend generator for a selected API.
// Credential checks happen here so a missing key is reported before any
// request is built.
package providers

import (
	"context"
	"os"

	openaiapi "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	imagegen "github.com/wolfmcnally/image-gen"
	"github.com/wolfmcnally/image-gen/providers/gemini"
	"github.com/wolfmcnally/image-gen/providers/openai"
)

// New returns the generator for the selected API, or a configuration error
// when its credential is missing. A non-empty model overrides the backend's
// default model.
func New(ctx context.Context, api imagegen.API, model string) (imagegen.Generator, error) {
	switch api {
	case imagegen.APIGPT:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, imagegen.NewConfigError("OPENAI_API_KEY environment variable not set")
		}
		client := openaiapi.NewClient(option.WithAPIKey(key))
		return openai.New(&client, model), nil

	case imagegen.APIGemini:
		key := geminiAPIKey()
		if key == "" {
			return nil, imagegen.NewConfigError("GEMINI_API_KEY or GOOGLE_API_KEY environment variable not set")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, imagegen.NewConfigError("create gemini client: %v", err)
		}
		return gemini.New(client, model), nil

	default:
		return nil, imagegen.NewValidationError("invalid api '%s', must be one of: gpt, gemini", api)
	}
}

// DefaultModel returns the built-in default model for the API.
func DefaultModel(api imagegen.API) string {
	switch api {
	case imagegen.APIGPT:
		return openai.DefaultModel
	case imagegen.APIGemini:
		return gemini.DefaultModel
	}
	return ""
}

// CredentialPresent reports whether the credential for the API is set in
// the environment.
func CredentialPresent(api imagegen.API) bool {
	switch api {
	case imagegen.APIGPT:
		return os.Getenv("OPENAI_API_KEY") != ""
	case imagegen.APIGemini:
		return geminiAPIKey() != ""
	}
	return false
}

// geminiAPIKey returns the first set Gemini credential. GEMINI_API_KEY wins
// over GOOGLE_API_KEY when both are present.
func geminiAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}
