package main

import (
	"log/slog"
	"os"

	"github.com/PinkFox/static-site-builder-webpack-plugin/cmd/sitebuild/commands"
	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/version"
	"github.com/alecthomas/kong"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("sitebuild"),
		kong.Description("Render a static site from page sources and bundler output."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err := ctx.Run(&commands.Global{}); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
