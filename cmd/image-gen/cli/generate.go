package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/deepnoodle-ai/wonton/cli"

	imagegen "github.com/wolfmcnally/image-gen"
	"github.com/wolfmcnally/image-gen/config"
	"github.com/wolfmcnally/image-gen/log"
	"github.com/wolfmcnally/image-gen/output"
	"github.com/wolfmcnally/image-gen/providers"
)

type generateParams struct {
	prompt      string
	promptFile  string
	images      []string
	api         string
	model       string
	output      string
	quality     string
	size        string
	count       int
	transparent bool
	moderation  string
}

func registerMainCommand(app *cli.App) {
	app.Main().
		Flags(
			cli.String("prompt", "p").
				Help("Prompt describing the image or edit"),
			cli.String("prompt-file", "f").
				Help("Path to a file containing the prompt"),
			cli.String("api", "").
				Env("IMAGE_GEN_API").
				Help("API backend to use: gpt or gemini (default: gpt)"),
			cli.String("model", "m").
				Env("IMAGE_GEN_MODEL").
				Help("Override the backend's default model"),
			cli.String("output", "o").
				Help("Output path (default: last input filename with _n suffix, or 'generated')"),
			cli.String("quality", "q").
				Help("Image quality: high, medium, or low (default: high)"),
			cli.String("size", "").
				Help("Output size: WxH pixels or an aspect ratio like 16:9 (default: 1024x1024)"),
			cli.Int("count", "n").
				Default(1).
				Help("Number of variations to generate"),
			cli.Bool("transparent", "").
				Help("Generate with a transparent background (GPT only)"),
			cli.String("moderation", "").
				Help("Content moderation level: auto or low (default: low)"),
			cli.Bool("watch", "w").
				Help("Regenerate whenever the prompt file changes (requires --prompt-file)"),
		).
		Run(func(ctx *cli.Context) error {
			parseGlobalFlags(ctx)
			params := generateParams{
				prompt:      ctx.String("prompt"),
				promptFile:  ctx.String("prompt-file"),
				images:      ctx.Args(),
				api:         ctx.String("api"),
				model:       ctx.String("model"),
				output:      ctx.String("output"),
				quality:     ctx.String("quality"),
				size:        ctx.String("size"),
				count:       ctx.Int("count"),
				transparent: ctx.Bool("transparent"),
				moderation:  ctx.String("moderation"),
			}
			if ctx.Bool("watch") {
				return runWatch(context.Background(), params)
			}
			return runGenerate(context.Background(), params)
		})
}

func runGenerate(ctx context.Context, params generateParams) error {
	ctx = log.WithLogger(ctx, newLogger())

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	api, err := imagegen.ParseAPI(firstNonEmpty(params.api, cfg.API, string(imagegen.DefaultAPI)))
	if err != nil {
		return err
	}
	model := params.model
	if model == "" {
		model = cfg.Model(api)
	}

	promptFileText, err := readPromptFile(params.promptFile)
	if err != nil {
		return err
	}

	inputPaths, err := expandInputs(params.images)
	if err != nil {
		return err
	}
	inputs, err := imagegen.LoadInputImages(inputPaths)
	if err != nil {
		return err
	}

	request, err := imagegen.NewRequest(imagegen.RequestParams{
		Prompt:         params.prompt,
		PromptFileText: promptFileText,
		Images:         inputs,
		Size:           firstNonEmpty(params.size, cfg.Size, imagegen.DefaultSize),
		Quality:        firstNonEmpty(params.quality, cfg.Quality, string(imagegen.DefaultQuality)),
		Count:          params.count,
		Transparent:    params.transparent,
		Moderation:     firstNonEmpty(params.moderation, cfg.Moderation, string(imagegen.DefaultModeration)),
	})
	if err != nil {
		return err
	}

	gen, err := providers.New(ctx, api, model)
	if err != nil {
		return err
	}
	for _, warning := range gen.Warnings(request) {
		printWarning(warning)
	}

	if request.EditMode() {
		fmt.Printf("Processing image edit with %s...\n", gen.Name())
		for i, path := range inputPaths {
			fmt.Printf("  Image %d: %s\n", i+1, path)
		}
	} else {
		fmt.Printf("Generating image with %s...\n", gen.Name())
	}

	start := time.Now()
	images, err := gen.Generate(ctx, request)
	if err != nil {
		return err
	}

	paths := output.Resolve(output.ResolveOptions{
		Output:     params.output,
		InputPaths: inputPaths,
		Count:      len(images),
	})
	var failures []error
	for _, res := range output.WriteAll(paths, images) {
		if res.Err != nil {
			failures = append(failures, res.Err)
			continue
		}
		fmt.Printf("  Output: %s\n", res.Path)
	}
	if len(failures) > 0 {
		return errors.Join(failures...)
	}

	fmt.Println(successStyle.Sprintf("Done in %.1fs.", time.Since(start).Seconds()))
	return nil
}

// readPromptFile returns the content of the prompt file, or "" when no path
// is set. The text is trimmed when the request is built.
func readPromptFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", imagegen.NewValidationError("prompt file not found: %s", path)
	}
	if err != nil {
		return "", imagegen.NewIOError(path, err)
	}
	return string(data), nil
}

// expandInputs resolves glob patterns in the positional arguments. Plain
// paths pass through untouched so a missing file is reported under its
// exact name.
func expandInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, imagegen.NewValidationError("invalid glob pattern '%s': %v", arg, err)
		}
		if len(matches) == 0 {
			return nil, imagegen.NewValidationError("no files match pattern '%s'", arg)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
