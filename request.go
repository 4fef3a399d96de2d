package imagegen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidExtensions lists the accepted input image file extensions.
var ValidExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// RequestParams collects the raw option values a Request is built from.
// PromptFileText carries the contents of the prompt file, already read by
// the caller; NewRequest itself performs no I/O.
type RequestParams struct {
	Prompt         string
	PromptFileText string
	Images         []InputImage
	Size           string
	Quality        string
	Count          int
	Transparent    bool
	Moderation     string
}

// NewRequest validates params and builds a Request. When both prompt sources
// are present they are concatenated with a blank line, flag text first. Both
// sides are trimmed of surrounding whitespace.
func NewRequest(params RequestParams) (*Request, error) {
	prompt := joinPrompt(params.Prompt, params.PromptFileText)
	if prompt == "" {
		return nil, NewValidationError("a prompt is required: pass -p/--prompt or -f/--prompt-file")
	}
	quality, err := ParseQuality(params.Quality)
	if err != nil {
		return nil, err
	}
	moderation, err := ParseModeration(params.Moderation)
	if err != nil {
		return nil, err
	}
	if params.Size == "" {
		return nil, NewValidationError("size must not be empty")
	}
	if params.Count < 1 {
		return nil, NewValidationError("count must be at least 1, got %d", params.Count)
	}
	return &Request{
		Prompt:      prompt,
		Images:      params.Images,
		Size:        params.Size,
		Quality:     quality,
		Count:       params.Count,
		Transparent: params.Transparent,
		Moderation:  moderation,
	}, nil
}

func joinPrompt(prompt, fileText string) string {
	prompt = strings.TrimSpace(prompt)
	fileText = strings.TrimSpace(fileText)
	switch {
	case prompt == "":
		return fileText
	case fileText == "":
		return prompt
	default:
		return prompt + "\n\n" + fileText
	}
}

// ParseAPI validates a backend identifier.
func ParseAPI(s string) (API, error) {
	switch API(s) {
	case APIGPT, APIGemini:
		return API(s), nil
	}
	return "", NewValidationError("invalid api '%s', must be one of: gpt, gemini", s)
}

// ParseQuality validates a quality level.
func ParseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case QualityHigh, QualityMedium, QualityLow:
		return Quality(s), nil
	}
	return "", NewValidationError("invalid quality '%s', must be one of: high, medium, low", s)
}

// ParseModeration validates a moderation level.
func ParseModeration(s string) (Moderation, error) {
	switch Moderation(s) {
	case ModerationAuto, ModerationLow:
		return Moderation(s), nil
	}
	return "", NewValidationError("invalid moderation '%s', must be one of: auto, low", s)
}

// LoadInputImages reads each path into an InputImage, preserving order.
// Every path must exist and carry a supported image extension.
func LoadInputImages(paths []string) ([]InputImage, error) {
	images := make([]InputImage, 0, len(paths))
	for _, path := range paths {
		img, err := LoadInputImage(path)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// LoadInputImage reads a single input image from disk.
func LoadInputImage(path string) (InputImage, error) {
	if _, err := os.Stat(path); err != nil {
		return InputImage{}, NewValidationError("file not found: %s", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !ValidExtensions[ext] {
		return InputImage{}, NewValidationError("invalid image format '%s': %s (supported formats: .png, .jpg, .jpeg, .webp)", ext, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return InputImage{}, NewIOError(path, err)
	}
	return InputImage{
		Name: filepath.Base(path),
		MIME: MediaType(path),
		Data: data,
	}, nil
}

// MediaType returns the MIME type for an image path based on its extension.
func MediaType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return fmt.Sprintf("image/%s", strings.TrimPrefix(ext, "."))
	}
}
