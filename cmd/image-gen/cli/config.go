package cli

import (
	"fmt"
	"os"

	"github.com/deepnoodle-ai/wonton/cli"
	"github.com/mattn/go-runewidth"

	imagegen "github.com/wolfmcnally/image-gen"
	"github.com/wolfmcnally/image-gen/config"
	"github.com/wolfmcnally/image-gen/providers"
)

func registerConfigCommand(app *cli.App) {
	app.Command("config").
		Description("Show the effective configuration").
		Long("Show the backend, model, and defaults that a run would use, after applying the config file and environment variables, along with credential presence for each backend.").
		NoArgs().
		Run(func(ctx *cli.Context) error {
			parseGlobalFlags(ctx)
			return runConfig()
		})
}

func runConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Print(labelStyle.Sprint("Config file: "))
	if path, pathErr := config.Path(); pathErr != nil {
		fmt.Println(mutedStyle.Sprint("(unavailable)"))
	} else if _, statErr := os.Stat(path); statErr == nil {
		fmt.Printf("%s %s\n", path, successStyle.Sprint("(found)"))
	} else {
		fmt.Printf("%s %s\n", path, mutedStyle.Sprint("(not found)"))
	}
	fmt.Println()

	api, err := imagegen.ParseAPI(firstNonEmpty(os.Getenv("IMAGE_GEN_API"), cfg.API, string(imagegen.DefaultAPI)))
	if err != nil {
		return err
	}
	model := firstNonEmpty(os.Getenv("IMAGE_GEN_MODEL"), cfg.Model(api), providers.DefaultModel(api))

	settings := []struct{ label, value string }{
		{"api", string(api)},
		{"model", model},
		{"quality", firstNonEmpty(cfg.Quality, string(imagegen.DefaultQuality))},
		{"size", firstNonEmpty(cfg.Size, imagegen.DefaultSize)},
		{"moderation", firstNonEmpty(cfg.Moderation, string(imagegen.DefaultModeration))},
	}
	width := 0
	for _, s := range settings {
		if w := runewidth.StringWidth(s.label); w > width {
			width = w
		}
	}
	for _, s := range settings {
		fmt.Printf("  %s  %s\n", labelStyle.Sprint(padLabel(s.label, width)), s.value)
	}
	fmt.Println()

	fmt.Println(labelStyle.Sprint("Credentials:"))
	credentials := []struct {
		label   string
		present bool
	}{
		{"OPENAI_API_KEY", providers.CredentialPresent(imagegen.APIGPT)},
		{"GEMINI_API_KEY or GOOGLE_API_KEY", providers.CredentialPresent(imagegen.APIGemini)},
	}
	width = 0
	for _, c := range credentials {
		if w := runewidth.StringWidth(c.label); w > width {
			width = w
		}
	}
	for _, c := range credentials {
		state := mutedStyle.Sprint("not set")
		if c.present {
			state = successStyle.Sprint("set")
		}
		fmt.Printf("  %s  %s\n", padLabel(c.label, width), state)
	}
	return nil
}
