// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sbstp/track/internal/config"
	"github.com/sbstp/track/internal/exporter"
	"github.com/sbstp/track/internal/matcher"
	"github.com/sbstp/track/internal/registry"
	"github.com/sbstp/track/internal/services/clipboard"
	"github.com/sbstp/track/internal/tokenizer"
	"github.com/sbstp/track/internal/types"
	"github.com/sbstp/track/internal/utils"
)

const (
	configFlagName       = "config"
	databaseFlagName     = "database"
	copyFlagName         = "copy"
	summaryFlagName      = "summary"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	globalFlagName       = "global"
	forceFlagName        = "force"
	versionFlagName      = "version"
	versionTemplate      = "track version: %s\n"
	rootUse              = "track"
	rootShortDescription = "track command line interface"
	rootLongDescription  = `track maintains a registry of filesystem paths of interest.
It lists the regular files currently reachable under the tracked paths, skipping
.git directories, and exports the matched set as a directory tree or a tar.gz archive.`

	versionFlagDescription  = "display application version"
	configFlagDescription   = "path to a configuration file"
	databaseFlagDescription = "path to the registry database"
	copyFlagDescription     = "copy the printed list to the clipboard"
	summaryFlagDescription  = "print an aggregate summary of matched files"
	tokensFlagDescription   = "include token counts in the summary"
	modelFlagDescription    = "tokenizer model to use for token counting"
	globalFlagDescription   = "write the global configuration file"
	forceFlagDescription    = "overwrite an existing configuration file"

	addUse     = "add <paths...>"
	listUse    = "ls"
	removeUse  = "rm <paths...>"
	pruneUse   = "prune"
	matchedUse = "matched"
	exportUse  = "export <kind> <path>"
	configUse  = "config"
	initUse    = "init"

	addShortDescription     = "add paths to the tracked set"
	listShortDescription    = "list tracked paths"
	removeShortDescription  = "remove paths from the tracked set"
	pruneShortDescription   = "remove tracked paths that no longer exist"
	matchedShortDescription = "list all files matched by the tracked paths"
	exportShortDescription  = "export the matched files"
	configShortDescription  = "manage track configuration"
	initShortDescription    = "write a default configuration file"

	// exportLongDescription provides detailed help for the export command.
	exportLongDescription = `Export every file matched by the tracked paths.
The kind argument selects the representation: dir mirrors the files into a
directory tree, tar writes a gzip-compressed archive. zip is not implemented.`
	// exportUsageExample demonstrates export command usage.
	exportUsageExample = `  # Mirror the matched files under /tmp/out
  track export dir /tmp/out

  # Write a compressed archive
  track export tar backup.tar.gz`

	duplicateNoticeFormat      = "Path already tracked: %s\n"
	warningSkipPathFormat      = "Warning: skipping %s: %v\n"
	warningTokenCountFormat    = "Warning: failed to count tokens for %s: %v\n"
	matchedSummaryFormat       = "matched %d files, %s"
	matchedSummaryTokensFormat = ", %d tokens (%s)"
	initializedConfigFormat    = "Wrote configuration to %s\n"
)

// rootOptions stores values of the persistent flags shared by all subcommands.
type rootOptions struct {
	configFilePath string
	databasePath   string
}

// Execute runs the track application.
func Execute() error {
	rootCommand := createRootCommand()
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var showVersion bool
	var options rootOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&options.configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.PersistentFlags().StringVar(&options.databasePath, databaseFlagName, "", databaseFlagDescription)
	rootCommand.AddCommand(
		createAddCommand(&options),
		createListCommand(&options),
		createRemoveCommand(&options),
		createPruneCommand(&options),
		createMatchedCommand(&options),
		createExportCommand(&options),
		createConfigCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// environment bundles the opened registry with the loaded configuration.
type environment struct {
	registry      *registry.Registry
	configuration config.ApplicationConfiguration
	excluded      matcher.Excluder
}

// openEnvironment loads configuration and opens the registry store. The
// database location is resolved flag first, configuration second, per-user
// default last.
func openEnvironment(ctx context.Context, options *rootOptions) (*environment, error) {
	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		ExplicitFilePath: options.configFilePath,
	})
	if configurationError != nil {
		return nil, configurationError
	}

	databasePath := options.databasePath
	if databasePath == "" {
		databasePath = configuration.Database.Path
	}
	if databasePath != "" {
		normalizedPath, normalizeError := utils.NormalizePath(databasePath)
		if normalizeError != nil {
			return nil, normalizeError
		}
		databasePath = normalizedPath
	}

	openedRegistry, openError := registry.Open(ctx, registry.Options{DatabasePath: databasePath})
	if openError != nil {
		return nil, openError
	}

	return &environment{
		registry:      openedRegistry,
		configuration: configuration,
		excluded:      matcher.NewExcluder(configuration.Match.Exclude),
	}, nil
}

func (env *environment) close() {
	_ = env.registry.Close()
}

// reportDuplicates reports whether duplicate adds should print a notice.
func (env *environment) reportDuplicates() bool {
	if env.configuration.Add.ReportDuplicates == nil {
		return true
	}
	return *env.configuration.Add.ReportDuplicates
}

// createAddCommand returns the add subcommand.
func createAddCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   addUse,
		Short: addShortDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			env, openError := openEnvironment(command.Context(), options)
			if openError != nil {
				return openError
			}
			defer env.close()
			return runAdd(command.Context(), env, arguments)
		},
	}
}

// runAdd normalizes and inserts each argument. A path that cannot be
// normalized or stored is reported and does not stop the rest of the batch;
// the first failure still makes the invocation exit non-zero.
func runAdd(ctx context.Context, env *environment, arguments []string) error {
	var firstError error
	for _, argument := range arguments {
		normalizedPath, normalizeError := utils.NormalizePath(argument)
		if normalizeError != nil {
			fmt.Fprintf(os.Stderr, warningSkipPathFormat, argument, normalizeError)
			if firstError == nil {
				firstError = normalizeError
			}
			continue
		}
		addError := env.registry.Add(ctx, normalizedPath)
		if addError == nil {
			continue
		}
		if errors.Is(addError, registry.ErrDuplicatePath) {
			if env.reportDuplicates() {
				fmt.Fprintf(os.Stderr, duplicateNoticeFormat, normalizedPath)
			}
			continue
		}
		return addError
	}
	return firstError
}

// createListCommand returns the ls subcommand.
func createListCommand(options *rootOptions) *cobra.Command {
	var copyEnabled bool

	listCommand := &cobra.Command{
		Use:   listUse,
		Short: listShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			env, openError := openEnvironment(command.Context(), options)
			if openError != nil {
				return openError
			}
			defer env.close()

			trackedPaths, listError := env.registry.List(command.Context())
			if listError != nil {
				return listError
			}
			return printLines(trackedPaths, copyEnabled)
		},
	}
	listCommand.Flags().BoolVar(&copyEnabled, copyFlagName, false, copyFlagDescription)
	return listCommand
}

// createRemoveCommand returns the rm subcommand.
func createRemoveCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   removeUse,
		Short: removeShortDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			env, openError := openEnvironment(command.Context(), options)
			if openError != nil {
				return openError
			}
			defer env.close()
			return runRemove(command.Context(), env, arguments)
		},
	}
}

// runRemove normalizes each argument with the same strategy add uses, so a
// relative spelling removes the entry its absolute form created. Removing a
// path that is not tracked is a no-op.
func runRemove(ctx context.Context, env *environment, arguments []string) error {
	var firstError error
	for _, argument := range arguments {
		normalizedPath, normalizeError := utils.NormalizePath(argument)
		if normalizeError != nil {
			fmt.Fprintf(os.Stderr, warningSkipPathFormat, argument, normalizeError)
			if firstError == nil {
				firstError = normalizeError
			}
			continue
		}
		if removeError := env.registry.Remove(ctx, normalizedPath); removeError != nil {
			return removeError
		}
	}
	return firstError
}

// createPruneCommand returns the prune subcommand.
func createPruneCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   pruneUse,
		Short: pruneShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			env, openError := openEnvironment(command.Context(), options)
			if openError != nil {
				return openError
			}
			defer env.close()

			prunedPaths, pruneError := env.registry.Prune(command.Context())
			for _, prunedPath := range prunedPaths {
				fmt.Println(prunedPath)
			}
			return pruneError
		},
	}
}

// createMatchedCommand returns the matched subcommand.
func createMatchedCommand(options *rootOptions) *cobra.Command {
	var copyEnabled bool
	var summaryEnabled bool
	var tokensEnabled bool
	var tokenModel string

	matchedCommand := &cobra.Command{
		Use:   matchedUse,
		Short: matchedShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			env, openError := openEnvironment(command.Context(), options)
			if openError != nil {
				return openError
			}
			defer env.close()

			if !command.Flags().Changed(tokensFlagName) && env.configuration.Match.Tokens.Enabled != nil {
				tokensEnabled = *env.configuration.Match.Tokens.Enabled
			}
			if !command.Flags().Changed(modelFlagName) && env.configuration.Match.Tokens.Model != "" {
				tokenModel = env.configuration.Match.Tokens.Model
			}

			matches, matchError := findTrackedMatches(command.Context(), env)
			if matchError != nil {
				return matchError
			}
			if printError := printLines(matches, copyEnabled); printError != nil {
				return printError
			}
			if summaryEnabled || tokensEnabled {
				return printMatchSummary(matches, tokensEnabled, tokenModel)
			}
			return nil
		},
	}
	matchedCommand.Flags().BoolVar(&copyEnabled, copyFlagName, false, copyFlagDescription)
	matchedCommand.Flags().BoolVar(&summaryEnabled, summaryFlagName, false, summaryFlagDescription)
	matchedCommand.Flags().BoolVar(&tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	matchedCommand.Flags().StringVar(&tokenModel, modelFlagName, "", modelFlagDescription)
	return matchedCommand
}

// createExportCommand returns the export subcommand.
func createExportCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     exportUse,
		Short:   exportShortDescription,
		Long:    exportLongDescription,
		Example: exportUsageExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			exportKind, kindError := types.ParseExportKind(arguments[0])
			if kindError != nil {
				return kindError
			}
			destinationPath, normalizeError := utils.NormalizePath(arguments[1])
			if normalizeError != nil {
				return normalizeError
			}

			env, openError := openEnvironment(command.Context(), options)
			if openError != nil {
				return openError
			}
			defer env.close()

			matches, matchError := findTrackedMatches(command.Context(), env)
			if matchError != nil {
				return matchError
			}

			switch exportKind {
			case types.ExportKindDirectory:
				return exporter.ExportDirectory(destinationPath, matches, env.excluded)
			case types.ExportKindTar:
				return exporter.ExportTarGz(destinationPath, matches)
			case types.ExportKindZip:
				return exporter.ExportZip(destinationPath, matches)
			default:
				return fmt.Errorf("unknown export kind %q", exportKind)
			}
		},
	}
}

// createConfigCommand returns the config subcommand with its init child.
func createConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	configCommand.AddCommand(createConfigInitCommand())
	return configCommand
}

func createConfigInitCommand() *cobra.Command {
	var writeGlobal bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if writeGlobal {
				target = config.InitTargetGlobal
			}
			writtenPath, initializeError := config.InitializeConfiguration(config.InitOptions{
				Target: target,
				Force:  force,
			})
			if initializeError != nil {
				return initializeError
			}
			fmt.Printf(initializedConfigFormat, writtenPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&writeGlobal, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// findTrackedMatches lists the registry and walks every tracked root.
func findTrackedMatches(ctx context.Context, env *environment) ([]string, error) {
	trackedPaths, listError := env.registry.List(ctx)
	if listError != nil {
		return nil, listError
	}
	return matcher.FindMatches(ctx, trackedPaths, env.excluded)
}

// printLines prints each value on its own line and optionally places the
// whole list on the system clipboard.
func printLines(values []string, copyEnabled bool) error {
	for _, value := range values {
		fmt.Println(value)
	}
	if copyEnabled && len(values) > 0 {
		copier := clipboard.NewService()
		return copier.Copy(strings.Join(values, "\n") + "\n")
	}
	return nil
}

// printMatchSummary writes an aggregate line for the matched set to stderr so
// the stdout path list stays machine-consumable. Token counting failures for
// individual files are warnings, not fatal errors.
func printMatchSummary(matches []string, tokensEnabled bool, tokenModel string) error {
	summary := types.MatchSummary{Files: len(matches)}
	for _, matchedPath := range matches {
		info, statError := os.Stat(matchedPath)
		if statError != nil {
			fmt.Fprintf(os.Stderr, warningSkipPathFormat, matchedPath, statError)
			continue
		}
		summary.Bytes += info.Size()
	}

	if tokensEnabled {
		counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: tokenModel})
		if counterError != nil {
			return counterError
		}
		summary.Model = resolvedModel
		for _, matchedPath := range matches {
			countResult, countError := tokenizer.CountFile(counter, matchedPath)
			if countError != nil {
				fmt.Fprintf(os.Stderr, warningTokenCountFormat, matchedPath, countError)
				continue
			}
			if countResult.Counted {
				summary.Tokens += countResult.Tokens
			}
		}
	}

	summaryLine := fmt.Sprintf(matchedSummaryFormat, summary.Files, utils.FormatFileSize(summary.Bytes))
	if tokensEnabled {
		summaryLine += fmt.Sprintf(matchedSummaryTokensFormat, summary.Tokens, summary.Model)
	}
	fmt.Fprintln(os.Stderr, summaryLine)
	return nil
}
