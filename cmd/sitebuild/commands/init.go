package commands

import (
	"fmt"
	"path/filepath"

	"github.com/PinkFox/static-site-builder-webpack-plugin/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to place the generated config file in"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	// With an explicit output directory the config keeps its default
	// file name inside it.
	if i.Output != "" {
		return RunInit(filepath.Join(i.Output, "sitebuild.yaml"), i.Force)
	}
	return RunInit(root.Config, i.Force)
}

// RunInit writes a starter configuration file.
func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	fmt.Println("Initialized successfully")
	return nil
}
