package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openaiapi "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/require"

	imagegen "github.com/wolfmcnally/image-gen"
)

func newTestGenerator(t *testing.T, handler http.Handler) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := openaiapi.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return New(&client, "")
}

func imageJSON(data []byte) string {
	return fmt.Sprintf(`{"created":1,"data":[{"b64_json":%q}]}`,
		base64.StdEncoding.EncodeToString(data))
}

func TestGeneratorName(t *testing.T) {
	g := New(nil, "")
	require.Equal(t, "gpt", g.Name())
	require.Equal(t, DefaultModel, g.model)

	g = New(nil, "gpt-image-1")
	require.Equal(t, "gpt-image-1", g.model)
}

func TestGeneratorWarnings(t *testing.T) {
	g := New(nil, "")
	require.Nil(t, g.Warnings(&imagegen.Request{Transparent: true, Count: 3}))
}

func TestGenerateRequestShape(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	g := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, imageJSON([]byte("image-bytes")))
	}))

	images, err := g.Generate(context.Background(), &imagegen.Request{
		Prompt:      "a red fox",
		Size:        "1024x1024",
		Quality:     imagegen.QualityHigh,
		Count:       2,
		Transparent: true,
		Moderation:  imagegen.ModerationLow,
	})
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.Equal(t, []byte("image-bytes"), images[0].Data)
	require.Equal(t, "png", images[0].Format)

	require.Equal(t, "/images/generations", gotPath)
	require.Equal(t, DefaultModel, gotBody["model"])
	require.Equal(t, "a red fox", gotBody["prompt"])
	require.Equal(t, "1024x1024", gotBody["size"])
	require.Equal(t, "high", gotBody["quality"])
	require.Equal(t, float64(2), gotBody["n"])
	require.Equal(t, "transparent", gotBody["background"])
	require.Equal(t, "low", gotBody["moderation"])
}

func TestGenerateOpaqueBackground(t *testing.T) {
	var gotBody map[string]any
	g := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, imageJSON([]byte("x")))
	}))

	_, err := g.Generate(context.Background(), &imagegen.Request{
		Prompt:     "a fox",
		Size:       "1024x1024",
		Quality:    imagegen.QualityLow,
		Count:      1,
		Moderation: imagegen.ModerationAuto,
	})
	require.NoError(t, err)
	require.Equal(t, "opaque", gotBody["background"])
	require.Equal(t, "auto", gotBody["moderation"])
	require.Equal(t, "low", gotBody["quality"])
}

func TestGenerateDispatchesToEdit(t *testing.T) {
	var gotPath, gotPrompt string
	var fileCount int
	g := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(16<<20))
		gotPrompt = r.FormValue("prompt")
		for _, files := range r.MultipartForm.File {
			fileCount += len(files)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, imageJSON([]byte("edited")))
	}))

	images, err := g.Generate(context.Background(), &imagegen.Request{
		Prompt: "combine these",
		Images: []imagegen.InputImage{
			{Name: "a.png", MIME: "image/png", Data: []byte("aaa")},
			{Name: "b.jpg", MIME: "image/jpeg", Data: []byte("bbb")},
		},
		Size:    "1024x1024",
		Quality: imagegen.QualityHigh,
		Count:   1,
	})
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.Equal(t, []byte("edited"), images[0].Data)

	require.Equal(t, "/images/edits", gotPath)
	require.Equal(t, "combine these", gotPrompt)
	require.Equal(t, 2, fileCount)
}

func TestGenerateURLFallback(t *testing.T) {
	fileSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("downloaded-bytes"))
	}))
	defer fileSrv.Close()

	g := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"created":1,"data":[{"url":%q}]}`, fileSrv.URL+"/img.png")
	}))

	images, err := g.Generate(context.Background(), &imagegen.Request{
		Prompt:     "a fox",
		Size:       "1024x1024",
		Quality:    imagegen.QualityHigh,
		Count:      1,
		Moderation: imagegen.ModerationLow,
	})
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.Equal(t, []byte("downloaded-bytes"), images[0].Data)
}

func TestGenerateEmptyResponse(t *testing.T) {
	g := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"created":1,"data":[]}`)
	}))

	_, err := g.Generate(context.Background(), &imagegen.Request{
		Prompt:     "a fox",
		Size:       "1024x1024",
		Quality:    imagegen.QualityHigh,
		Count:      1,
		Moderation: imagegen.ModerationLow,
	})
	require.Error(t, err)
	require.True(t, imagegen.IsBackend(err))
	require.Contains(t, err.Error(), "no images were returned")
}

func TestGenerateMissingImagePayload(t *testing.T) {
	g := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"created":1,"data":[{"revised_prompt":"a fox"}]}`)
	}))

	_, err := g.Generate(context.Background(), &imagegen.Request{
		Prompt:     "a fox",
		Size:       "1024x1024",
		Quality:    imagegen.QualityHigh,
		Count:      1,
		Moderation: imagegen.ModerationLow,
	})
	require.Error(t, err)
	require.True(t, imagegen.IsBackend(err))
	require.Contains(t, err.Error(), "neither image data nor a URL")
}

func TestGenerateAPIError(t *testing.T) {
	g := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	}))

	_, err := g.Generate(context.Background(), &imagegen.Request{
		Prompt:     "a fox",
		Size:       "1024x1024",
		Quality:    imagegen.QualityHigh,
		Count:      1,
		Moderation: imagegen.ModerationLow,
	})
	require.Error(t, err)
	require.True(t, imagegen.IsBackend(err))

	var backendErr *imagegen.Error
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, "gpt", backendErr.Backend)
	require.Equal(t, http.StatusTooManyRequests, backendErr.Status)
}

func TestGenerateTooManyInputImages(t *testing.T) {
	called := false
	g := newTestGenerator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	images := make([]imagegen.InputImage, MaxInputImages+1)
	for i := range images {
		images[i] = imagegen.InputImage{Name: fmt.Sprintf("%d.png", i), MIME: "image/png", Data: []byte("x")}
	}
	_, err := g.Generate(context.Background(), &imagegen.Request{
		Prompt:     "too many",
		Images:     images,
		Size:       "1024x1024",
		Quality:    imagegen.QualityHigh,
		Count:      1,
		Moderation: imagegen.ModerationLow,
	})
	require.Error(t, err)
	require.True(t, imagegen.IsValidation(err))
	require.False(t, called)
}
