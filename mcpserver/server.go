// Package mcpserver exposes image generation as a Model Context Protocol
// stdio server, so MCP clients can invoke the same pipeline the CLI runs.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	imagegen "github.com/wolfmcnally/image-gen"
	"github.com/wolfmcnally/image-gen/config"
	"github.com/wolfmcnally/image-gen/output"
	"github.com/wolfmcnally/image-gen/providers"
)

// GeneratorFactory returns the generator for an API. Tests substitute a
// factory that avoids real clients.
type GeneratorFactory func(ctx context.Context, api imagegen.API, model string) (imagegen.Generator, error)

// Server wraps an MCP server exposing the generate_image tool.
type Server struct {
	mcp     *server.MCPServer
	factory GeneratorFactory
}

// New creates a server backed by the real provider registry.
func New(version string) *Server {
	return NewWithFactory(version, providers.New)
}

// NewWithFactory creates a server whose tool handler obtains generators
// from the given factory.
func NewWithFactory(version string, factory GeneratorFactory) *Server {
	s := &Server{factory: factory}
	m := server.NewMCPServer(
		"image-gen",
		version,
		server.WithToolCapabilities(true),
	)
	m.AddTool(GenerateImageTool(), s.handleGenerateImage)
	s.mcp = m
	return s
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

var generateImageSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "prompt": {
      "type": "string",
      "description": "Text description of the image to generate, or of the edit to perform on the input images"
    },
    "api": {
      "type": "string",
      "enum": ["gpt", "gemini"],
      "description": "Backend API to use (default: gpt)"
    },
    "model": {
      "type": "string",
      "description": "Override the backend's default model"
    },
    "images": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Paths of input images to edit or compose; reference them as Image 1, Image 2, ... in the prompt"
    },
    "output": {
      "type": "string",
      "description": "Output path; multiple results derive suffixed names from it"
    },
    "size": {
      "type": "string",
      "description": "Output size as WxH pixels or an aspect ratio like 16:9 (default: 1024x1024)"
    },
    "quality": {
      "type": "string",
      "enum": ["high", "medium", "low"],
      "description": "Image quality (default: high)"
    },
    "count": {
      "type": "integer",
      "minimum": 1,
      "description": "Number of variations to generate (default: 1)"
    },
    "transparent": {
      "type": "boolean",
      "description": "Generate with a transparent background (gpt only)"
    },
    "moderation": {
      "type": "string",
      "enum": ["auto", "low"],
      "description": "Content moderation level (default: low)"
    }
  },
  "required": ["prompt"]
}`)

// GenerateImageTool describes the generate_image tool.
func GenerateImageTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"generate_image",
		"Generate images from a text prompt, or edit/compose input images, using the OpenAI or Gemini image APIs. Generated files are written to disk and their paths returned.",
		generateImageSchema,
	)
}

type generateImageArgs struct {
	Prompt      string   `json:"prompt"`
	API         string   `json:"api,omitempty"`
	Model       string   `json:"model,omitempty"`
	Images      []string `json:"images,omitempty"`
	Output      string   `json:"output,omitempty"`
	Size        string   `json:"size,omitempty"`
	Quality     string   `json:"quality,omitempty"`
	Count       int      `json:"count,omitempty"`
	Transparent bool     `json:"transparent,omitempty"`
	Moderation  string   `json:"moderation,omitempty"`
}

func (s *Server) handleGenerateImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The user config file supplies defaults exactly as it does for the
	// CLI; explicit tool arguments win.
	cfg, err := config.Load()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	applyDefaults(args, cfg)

	api, err := imagegen.ParseAPI(args.API)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	model := args.Model
	if model == "" {
		model = cfg.Model(api)
	}

	inputs, err := imagegen.LoadInputImages(args.Images)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	request, err := imagegen.NewRequest(imagegen.RequestParams{
		Prompt:      args.Prompt,
		Images:      inputs,
		Size:        args.Size,
		Quality:     args.Quality,
		Count:       args.Count,
		Transparent: args.Transparent,
		Moderation:  args.Moderation,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen, err := s.factory(ctx, api, model)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	warnings := gen.Warnings(request)

	images, err := gen.Generate(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	paths := output.Resolve(output.ResolveOptions{
		Output:     args.Output,
		InputPaths: args.Images,
		Count:      len(images),
	})
	results := output.WriteAll(paths, images)

	var sb strings.Builder
	for _, w := range warnings {
		fmt.Fprintf(&sb, "Warning: %s\n", w)
	}
	var failed []string
	var written []string
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Err.Error())
			continue
		}
		written = append(written, displayPath(res.Path))
	}
	if len(failed) > 0 {
		fmt.Fprintf(&sb, "Failed to write %d of %d image(s):\n", len(failed), len(results))
		for _, msg := range failed {
			fmt.Fprintf(&sb, "  %s\n", msg)
		}
		return mcp.NewToolResultError(sb.String()), nil
	}

	fmt.Fprintf(&sb, "Generated %d image(s) with %s:\n", len(written), gen.Name())
	for _, path := range written {
		fmt.Fprintf(&sb, "  %s\n", path)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func parseArgs(req mcp.CallToolRequest) (*generateImageArgs, error) {
	data, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments: %v", err)
	}
	var args generateImageArgs
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %v", err)
	}
	return &args, nil
}

func applyDefaults(args *generateImageArgs, cfg *config.Config) {
	if args.API == "" {
		args.API = cfg.API
	}
	if args.API == "" {
		args.API = string(imagegen.DefaultAPI)
	}
	if args.Quality == "" {
		args.Quality = cfg.Quality
	}
	if args.Quality == "" {
		args.Quality = string(imagegen.DefaultQuality)
	}
	if args.Size == "" {
		args.Size = cfg.Size
	}
	if args.Size == "" {
		args.Size = imagegen.DefaultSize
	}
	if args.Moderation == "" {
		args.Moderation = cfg.Moderation
	}
	if args.Moderation == "" {
		args.Moderation = string(imagegen.DefaultModeration)
	}
	if args.Count == 0 {
		args.Count = imagegen.DefaultCount
	}
}

// displayPath reports the absolute path when it can be resolved, so MCP
// clients can locate files regardless of the server's working directory.
func displayPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
