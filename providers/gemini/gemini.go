package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/genai"

	imagegen "github.com/wolfmcnally/image-gen"
	"github.com/wolfmcnally/image-gen/log"
)

// DefaultModel is used when no model override is configured.
const DefaultModel = "gemini-3-pro-image-preview"

// MaxInputImages is the most input images a single request accepts.
const MaxInputImages = 14

// sizeToAspect maps well-known pixel dimensions to aspect ratios.
var sizeToAspect = map[string]string{
	"1024x1024": "1:1",
	"1536x1536": "1:1",
	"2048x2048": "1:1",
	"1920x1080": "16:9",
	"1280x720":  "16:9",
	"3840x2160": "16:9",
	"1344x768":  "16:9",
	"1080x1920": "9:16",
	"720x1280":  "9:16",
	"1024x768":  "4:3",
	"1280x960":  "4:3",
	"768x1024":  "3:4",
	"960x1280":  "3:4",
	"2560x1080": "21:9",
	"3440x1440": "21:9",
	"1536x672":  "21:9",
}

// validAspects are ratio strings accepted directly as a size argument.
var validAspects = map[string]bool{
	"1:1":  true,
	"16:9": true,
	"9:16": true,
	"4:3":  true,
	"3:4":  true,
	"21:9": true,
}

// aspectCandidates orders the ratios used for closest-match fallback.
var aspectCandidates = []struct {
	ratio  float64
	aspect string
}{
	{1, "1:1"},
	{16.0 / 9, "16:9"},
	{9.0 / 16, "9:16"},
	{4.0 / 3, "4:3"},
	{3.0 / 4, "3:4"},
	{21.0 / 9, "21:9"},
}

// qualityToImageSize maps quality levels to Gemini resolution names.
var qualityToImageSize = map[imagegen.Quality]string{
	imagegen.QualityHigh:   "4K",
	imagegen.QualityMedium: "2K",
	imagegen.QualityLow:    "1K",
}

// Generator implements the imagegen.Generator interface for the Gemini API.
type Generator struct {
	client *genai.Client
	model  string
}

// New creates a Gemini generator that sends requests through the given
// client. An empty model selects DefaultModel.
func New(client *genai.Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

// Name returns the backend identifier.
func (g *Generator) Name() string {
	return string(imagegen.APIGemini)
}

// Warnings reports request options this backend cannot express.
func (g *Generator) Warnings(req *imagegen.Request) []string {
	var warnings []string
	if req.Transparent {
		warnings = append(warnings, "--transparent not supported: Gemini cannot generate true alpha transparency")
	}
	if req.Count > 1 {
		warnings = append(warnings, fmt.Sprintf("Gemini generates one image per request; will make %d API calls", req.Count))
	}
	return warnings
}

// Generate produces images for the request. Text-only generation makes one
// API call per requested image; a request with input images is a single
// composition call.
func (g *Generator) Generate(ctx context.Context, req *imagegen.Request) ([]imagegen.Image, error) {
	if len(req.Images) > MaxInputImages {
		return nil, imagegen.NewValidationError("%s accepts at most %d input images, got %d",
			g.Name(), MaxInputImages, len(req.Images))
	}
	logger := log.Ctx(ctx)
	logger.Debug("sending image request",
		"backend", g.Name(),
		"model", g.model,
		"count", req.Count,
		"edit", req.EditMode())

	config := g.requestConfig(req)

	var images []imagegen.Image
	if req.EditMode() {
		batch, err := g.generateOnce(ctx, req, config)
		if err != nil {
			return nil, err
		}
		images = batch
	} else {
		for i := 0; i < req.Count; i++ {
			if req.Count > 1 {
				logger.Info("generating image", "backend", g.Name(), "image", i+1, "count", req.Count)
			}
			batch, err := g.generateOnce(ctx, req, config)
			if err != nil {
				return nil, err
			}
			images = append(images, batch...)
		}
	}
	if len(images) == 0 {
		return nil, imagegen.NewBackendError(g.Name(), 0, errors.New("no images were returned"))
	}
	return images, nil
}

func (g *Generator) generateOnce(ctx context.Context, req *imagegen.Request, config *genai.GenerateContentConfig) ([]imagegen.Image, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents(req), config)
	if err != nil {
		return nil, imagegen.NewBackendError(g.Name(), statusOf(err), err)
	}
	return extractImages(resp), nil
}

func (g *Generator) requestConfig(req *imagegen.Request) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: AspectRatio(req.Size),
			ImageSize:   qualityToImageSize[req.Quality],
		},
		SafetySettings: safetySettings(req.Moderation),
	}
}

// contents builds the request content: the prompt first, then the input
// images in command-line order so the prompt can reference them by position.
func contents(req *imagegen.Request) []*genai.Content {
	parts := []*genai.Part{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIME},
		})
	}
	return []*genai.Content{{Role: "user", Parts: parts}}
}

// AspectRatio converts a size argument to a supported aspect ratio. Direct
// ratios pass through, known pixel dimensions use the lookup table, other
// WxH values snap to the nearest supported ratio, and anything unparseable
// falls back to square.
func AspectRatio(size string) string {
	if validAspects[size] {
		return size
	}
	if aspect, ok := sizeToAspect[size]; ok {
		return aspect
	}
	if w, h, ok := parseDimensions(size); ok && h != 0 {
		ratio := float64(w) / float64(h)
		best := aspectCandidates[0]
		for _, c := range aspectCandidates[1:] {
			if math.Abs(c.ratio-ratio) < math.Abs(best.ratio-ratio) {
				best = c
			}
		}
		return best.aspect
	}
	return "1:1"
}

func parseDimensions(size string) (int, int, bool) {
	parts := strings.Split(strings.ToLower(size), "x")
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

// safetySettings applies the threshold for the moderation level to every
// harm category. "low" disables filtering; anything else blocks only
// high-severity content.
func safetySettings(m imagegen.Moderation) []*genai.SafetySetting {
	threshold := genai.HarmBlockThresholdBlockOnlyHigh
	if m == imagegen.ModerationLow {
		threshold = genai.HarmBlockThresholdOff
	}
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: threshold,
		})
	}
	return settings
}

// extractImages collects the inline image parts of the first candidate.
func extractImages(resp *genai.GenerateContentResponse) []imagegen.Image {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return nil
	}
	var images []imagegen.Image
	for _, part := range content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		images = append(images, imagegen.Image{
			Data:   part.InlineData.Data,
			Format: formatFromMIME(part.InlineData.MIMEType),
		})
	}
	return images
}

// formatFromMIME maps a MIME type like "image/png" to its format name.
func formatFromMIME(mime string) string {
	if _, sub, ok := strings.Cut(mime, "/"); ok && sub != "" {
		return sub
	}
	return "png"
}

func statusOf(err error) int {
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		return apierr.Code
	}
	return 0
}
