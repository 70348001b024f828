// Command opzgen generates dispatch methods for annotated variant types.
//
// It is meant to run via go:generate in the package declaring the variants:
//
//	//go:generate go run github.com/zoobzio/opz/cmd/opzgen .
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zoobzio/opz/internal/codegen"
)

var (
	version = "0.1.0"

	flagTypes   []string
	flagOutput  string
	flagTags    []string
	flagDryRun  bool
	flagVerbose bool

	rootCmd = &cobra.Command{
		Use:   "opzgen [packages]",
		Short: "Generate dispatch methods for annotated variant types",
		Long: `opzgen scans Go packages for sealed variant declarations and generates
the dispatch code that maps each variant to its named handler.

A dispatch set is an interface carrying an opz:dispatch directive with one
unexported marker method, plus one struct per variant carrying an
opz:handler directive:

	//opz:dispatch mut=Canvas
	type Op interface{ isOp() }

	//opz:handler applyForward
	type Forward struct{ Dist float64 }

For every variant, opzgen emits the marker method and an Execute,
ExecuteWith or ExecuteWithMut method forwarding the variant's payload
fields and the shared context argument to the handler. One file is written
per dispatch type, next to the scanned package.`,
		Version:      version,
		Args:         cobra.ArbitraryArgs,
		RunE:         run,
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringSliceVar(&flagTypes, "type", nil, "restrict generation to the named dispatch types")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file name; requires a run producing a single file")
	rootCmd.Flags().StringSliceVar(&flagTags, "tags", nil, "build tags forwarded to the package loader")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print generated code to stdout instead of writing files")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(flagVerbose)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	logger.Debug("generating dispatch code",
		zap.Strings("patterns", args),
		zap.Strings("types", flagTypes),
		zap.String("dir", wd),
	)

	files, err := codegen.Generate(codegen.Options{
		Patterns: args,
		Dir:      wd,
		Types:    flagTypes,
		Output:   flagOutput,
		Tags:     flagTags,
	})
	if err != nil {
		return err
	}

	if len(files) == 0 {
		logger.Warn("no dispatch declarations found", zap.Strings("patterns", args))
		return nil
	}

	for _, file := range files {
		if flagDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%s", file.Content)
			continue
		}
		if err := os.WriteFile(file.Path, file.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file.Path, err)
		}
		logger.Info("wrote dispatch file",
			zap.String("dispatch", file.Dispatch),
			zap.String("path", file.Path),
		)
	}
	return nil
}

// newLogger builds the CLI logger: human-readable debug output in verbose
// mode, production JSON otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
