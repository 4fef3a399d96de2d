package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	openaiapi "github.com/openai/openai-go"

	imagegen "github.com/wolfmcnally/image-gen"
	"github.com/wolfmcnally/image-gen/log"
)

// DefaultModel is used when no model override is configured.
const DefaultModel = "gpt-image-1.5"

// MaxInputImages is the most input images a single edit request accepts.
const MaxInputImages = 4

// Generator implements the imagegen.Generator interface for the OpenAI
// Images API.
type Generator struct {
	client *openaiapi.Client
	model  string
}

// New creates an OpenAI generator that sends requests through the given
// client. An empty model selects DefaultModel.
func New(client *openaiapi.Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

// Name returns the backend identifier.
func (g *Generator) Name() string {
	return string(imagegen.APIGPT)
}

// Warnings returns nil: this backend expresses every request option.
func (g *Generator) Warnings(req *imagegen.Request) []string {
	return nil
}

// Generate produces images for the request, calling the edit endpoint when
// input images are attached and the generation endpoint otherwise.
func (g *Generator) Generate(ctx context.Context, req *imagegen.Request) ([]imagegen.Image, error) {
	if len(req.Images) > MaxInputImages {
		return nil, imagegen.NewValidationError("%s accepts at most %d input images, got %d",
			g.Name(), MaxInputImages, len(req.Images))
	}
	log.Ctx(ctx).Debug("sending image request",
		"backend", g.Name(),
		"model", g.model,
		"count", req.Count,
		"edit", req.EditMode())

	var (
		resp *openaiapi.ImagesResponse
		err  error
	)
	if req.EditMode() {
		resp, err = g.edit(ctx, req)
	} else {
		resp, err = g.generate(ctx, req)
	}
	if err != nil {
		return nil, imagegen.NewBackendError(g.Name(), statusOf(err), err)
	}
	if len(resp.Data) == 0 {
		return nil, imagegen.NewBackendError(g.Name(), 0, errors.New("no images were returned"))
	}

	images := make([]imagegen.Image, 0, len(resp.Data))
	for _, item := range resp.Data {
		img, err := g.decodeResult(ctx, item)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (g *Generator) generate(ctx context.Context, req *imagegen.Request) (*openaiapi.ImagesResponse, error) {
	background := openaiapi.ImageGenerateParamsBackgroundOpaque
	if req.Transparent {
		background = openaiapi.ImageGenerateParamsBackgroundTransparent
	}
	return g.client.Images.Generate(ctx, openaiapi.ImageGenerateParams{
		Prompt:     req.Prompt,
		Model:      openaiapi.ImageModel(g.model),
		Size:       openaiapi.ImageGenerateParamsSize(req.Size),
		Quality:    generateQuality(req.Quality),
		N:          openaiapi.Int(int64(req.Count)),
		Background: background,
		Moderation: openaiapi.ImageGenerateParamsModeration(req.Moderation),
	})
}

// edit composes input images with the prompt. Background and moderation are
// generation-only parameters and are not sent here.
func (g *Generator) edit(ctx context.Context, req *imagegen.Request) (*openaiapi.ImagesResponse, error) {
	files := make([]io.Reader, 0, len(req.Images))
	for _, img := range req.Images {
		files = append(files, openaiapi.File(bytes.NewReader(img.Data), img.Name, img.MIME))
	}
	return g.client.Images.Edit(ctx, openaiapi.ImageEditParams{
		Image:   openaiapi.ImageEditParamsImageUnion{OfFileArray: files},
		Prompt:  req.Prompt,
		Model:   openaiapi.ImageModel(g.model),
		Size:    openaiapi.ImageEditParamsSize(req.Size),
		Quality: editQuality(req.Quality),
		N:       openaiapi.Int(int64(req.Count)),
	})
}

// decodeResult extracts the bytes of one generated image. Inline base64
// data is preferred; a URL is fetched as a fallback.
func (g *Generator) decodeResult(ctx context.Context, item openaiapi.Image) (imagegen.Image, error) {
	switch {
	case item.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return imagegen.Image{}, imagegen.NewBackendError(g.Name(), 0, fmt.Errorf("decode image data: %w", err))
		}
		return imagegen.Image{Data: data, Format: "png"}, nil
	case item.URL != "":
		data, err := download(ctx, item.URL)
		if err != nil {
			return imagegen.Image{}, imagegen.NewBackendError(g.Name(), 0, err)
		}
		return imagegen.Image{Data: data, Format: "png"}, nil
	default:
		return imagegen.Image{}, imagegen.NewBackendError(g.Name(), 0,
			errors.New("response contains neither image data nor a URL"))
	}
}

func generateQuality(q imagegen.Quality) openaiapi.ImageGenerateParamsQuality {
	switch q {
	case imagegen.QualityHigh:
		return openaiapi.ImageGenerateParamsQualityHigh
	case imagegen.QualityMedium:
		return openaiapi.ImageGenerateParamsQualityMedium
	case imagegen.QualityLow:
		return openaiapi.ImageGenerateParamsQualityLow
	}
	return openaiapi.ImageGenerateParamsQualityAuto
}

func editQuality(q imagegen.Quality) openaiapi.ImageEditParamsQuality {
	switch q {
	case imagegen.QualityHigh:
		return openaiapi.ImageEditParamsQualityHigh
	case imagegen.QualityMedium:
		return openaiapi.ImageEditParamsQualityMedium
	case imagegen.QualityLow:
		return openaiapi.ImageEditParamsQualityLow
	}
	return openaiapi.ImageEditParamsQualityAuto
}

func statusOf(err error) int {
	var apierr *openaiapi.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode
	}
	return 0
}

func download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
