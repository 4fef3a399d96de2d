package cli

import (
	"github.com/deepnoodle-ai/wonton/cli"

	"github.com/wolfmcnally/image-gen/mcpserver"
)

func registerMCPCommand(app *cli.App) {
	app.Command("mcp").
		Description("Serve the image generation tool over the Model Context Protocol").
		Long("Run a stdio MCP server exposing a generate_image tool for MCP-capable clients. Credentials are read from the environment when the tool is invoked.").
		NoArgs().
		Run(func(ctx *cli.Context) error {
			parseGlobalFlags(ctx)
			if err := mcpserver.New(Version).ServeStdio(); err != nil {
				return cli.Errorf("mcp server: %v", err)
			}
			return nil
		})
}
