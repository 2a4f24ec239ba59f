package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/signal-tracker/internal/config"
	"github.com/rxtech-lab/signal-tracker/internal/version"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	schemaName       = "signal-tracker-config.json"
	sampleConfigName = "signal-tracker.yaml"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Write the config JSON schema and a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output `DIR`",
				Value: "config",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			schemaPath, samplePath, err := writeSchema(cmd.String("out"))
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			fmt.Fprintf(w, "Schema written to %s\n", schemaPath)

			if samplePath != "" {
				fmt.Fprintf(w, "Sample config written to %s\n", samplePath)
			}

			return nil
		},
	}
}

// writeSchema writes the schema into dir and a sample config next to it when
// none exists yet. samplePath is empty when the sample was kept.
func writeSchema(dir string) (schemaPath, samplePath string, err error) {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create directory: %w", err)
	}

	schemaPath = filepath.Join(dir, schemaName)
	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write schema: %w", err)
	}

	samplePath = filepath.Join(dir, sampleConfigName)
	if _, err := os.Stat(samplePath); err == nil {
		return schemaPath, "", nil
	}

	sample := config.Default()
	if v := version.GetVersion(); v != "main" {
		sample.Version = v
	}

	yamlBytes, err := yaml.Marshal(sample)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal sample config: %w", err)
	}

	yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)
	if err := os.WriteFile(samplePath, yamlBytes, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write sample config: %w", err)
	}

	return schemaPath, samplePath, nil
}
