// Command docmodel inspects and rewrites packaged office documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/benjaminschreck/go-docmodel/pkg/docmodel"
)

const version = "0.1.0"

// CLI defines the command-line interface for docmodel.
var CLI struct {
	Config   string `help:"Path to TOML config file" type:"path"`
	LogLevel string `name:"log-level" help:"Override log level (debug, info, warn, error, off)"`

	Inspect   InspectCmd   `cmd:"" help:"List parts, content types, and relationships of a package"`
	Roundtrip RoundtripCmd `cmd:"" help:"Open a package, re-encode its XML parts, and write it back out"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// InspectCmd lists the structure of a package.
type InspectCmd struct {
	Path string `arg:"" help:"Package file to inspect" type:"existingfile"`
}

func (c *InspectCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}

	pkg, err := docmodel.OpenPackage(context.Background(), data, nil)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d parts\n", c.Path, len(pkg.Parts()))
	printRelationships("package", pkg.Relationships())
	for _, part := range pkg.Parts() {
		contentType, err := pkg.ResolveContentType(part)
		if err != nil {
			contentType = "(unresolved)"
		}
		fmt.Printf("  %-40s %s\n", part.Location, contentType)
		printRelationships(part.Location, part.Relationships())
	}
	return nil
}

func printRelationships(owner string, rels *docmodel.Relationships) {
	for _, rel := range rels.List() {
		mode := ""
		if rel.IsExternal() {
			mode = " (external)"
		}
		fmt.Printf("    %s: %s -> %s%s\n", owner, rel.ID, rel.Target, mode)
	}
}

// RoundtripCmd decodes a package's XML parts and writes a re-encoded copy.
type RoundtripCmd struct {
	Input  string `arg:"" help:"Package file to read" type:"existingfile"`
	Output string `arg:"" help:"Destination file" type:"path"`
}

func (c *RoundtripCmd) Run() error {
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pkg, err := docmodel.OpenPackage(ctx, data, nil)
	if err != nil {
		return err
	}

	for _, part := range pkg.Parts() {
		if _, err := docmodel.PartFromArchive(pkg, part.Location); err != nil {
			return fmt.Errorf("decoding %s: %w", part.Location, err)
		}
	}

	output, err := pkg.Write(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Output, output, 0o644)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("docmodel version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("docmodel"),
		kong.Description("Inspect and rewrite packaged office documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if CLI.Config != "" {
		config, err := docmodel.LoadConfigFile(CLI.Config)
		ctx.FatalIfErrorf(err)
		docmodel.SetGlobalConfig(config)
	}
	if CLI.LogLevel != "" {
		config := docmodel.GetGlobalConfig()
		config.LogLevel = CLI.LogLevel
		ctx.FatalIfErrorf(config.Validate())
		docmodel.SetGlobalConfig(config)
	}

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
