// Package imagegen defines the backend-agnostic request, result, and error
// types shared by the image generation backends and the CLI.
package imagegen

import (
	"context"
)

// API identifies one of the supported image-generation backends
type API string

const (
	APIGPT    API = "gpt"
	APIGemini API = "gemini"
)

// Quality controls the output fidelity requested from a backend
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Moderation selects the content moderation level applied by a backend
type Moderation string

const (
	ModerationAuto Moderation = "auto"
	ModerationLow  Moderation = "low"
)

// Defaults used when the flag, environment, and config file are all silent
const (
	DefaultAPI        = APIGPT
	DefaultQuality    = QualityHigh
	DefaultModeration = ModerationLow
	DefaultSize       = "1024x1024"
	DefaultCount      = 1
)

// InputImage is one input image attached to an edit/composition request
type InputImage struct {
	Name string // original filename, preserved for multipart uploads
	MIME string
	Data []byte
}

// Image is one generated image returned by a backend
type Image struct {
	Data   []byte
	Format string // "png", "jpeg", "webp", ...
}

// Request describes a single generation or edit invocation. It is built once
// per invocation and treated as immutable; adapters map its fields onto their
// backend's own parameter names and value sets.
type Request struct {
	Prompt      string
	Images      []InputImage
	Size        string
	Quality     Quality
	Count       int
	Transparent bool
	Moderation  Moderation
}

// EditMode reports whether the request carries input images and therefore
// targets a backend's edit/composition endpoint rather than pure generation.
func (r *Request) EditMode() bool {
	return len(r.Images) > 0
}

// Generator is implemented by each backend adapter.
type Generator interface {
	// Name returns the backend identifier ("gpt" or "gemini")
	Name() string

	// Warnings returns messages for request options this backend cannot
	// express. The options are ignored, not rejected. Input image order is
	// always preserved: prompts may reference "Image 1", "Image 2" by
	// position.
	Warnings(req *Request) []string

	// Generate produces images for the request, dispatching internally to
	// the generation endpoint (no input images) or the edit/composition
	// endpoint (one or more input images). An empty result is reported as
	// a backend error, never as a nil, nil return.
	Generate(ctx context.Context, req *Request) ([]Image, error)
}
