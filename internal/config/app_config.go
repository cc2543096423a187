// Package config loads track's application configuration from the global
// per-user configuration directory and an optional local file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/sbstp/track/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Database DatabaseConfiguration `mapstructure:"database"`
	Add      AddConfiguration      `mapstructure:"add"`
	Match    MatchConfiguration    `mapstructure:"match"`
}

// DatabaseConfiguration overrides where the registry database lives.
type DatabaseConfiguration struct {
	Path string `mapstructure:"path"`
}

// AddConfiguration controls duplicate-add reporting.
type AddConfiguration struct {
	ReportDuplicates *bool `mapstructure:"report_duplicates"`
}

// MatchConfiguration configures exclusion rules and summary defaults for matching.
type MatchConfiguration struct {
	Exclude []string           `mapstructure:"exclude"`
	Tokens  TokenConfiguration `mapstructure:"tokens"`
}

// TokenConfiguration controls token counting defaults for the matched summary.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// GlobalConfigFilePath returns the location of the global configuration file.
func GlobalConfigFilePath() (string, error) {
	configDirectory, configError := os.UserConfigDir()
	if configError != nil {
		return "", fmt.Errorf("determine user configuration directory: %w", configError)
	}
	return filepath.Join(configDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName), nil
}

// LoadApplicationConfiguration loads configuration from global and local files.
// The local file overrides the global one field by field.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if globalPath, globalPathError := GlobalConfigFilePath(); globalPathError == nil {
		globalConfig, loadError := loadConfigurationFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveError := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveError != nil {
		return ApplicationConfiguration{}, resolveError
	}
	if localPath != "" {
		localConfig, loadError := loadConfigurationFromPath(localPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(localConfig)
	}

	merged.Match.Exclude = utils.DeduplicateNames(merged.Match.Exclude)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolutePath, absoluteError := filepath.Abs(explicitPath)
			if absoluteError != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, absoluteError)
			}
			return absolutePath, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statError)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readError := reader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readError)
	}
	var configuration ApplicationConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeError)
	}
	return configuration, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	if override.Database.Path != "" {
		result.Database.Path = override.Database.Path
	}
	result.Add = result.Add.merge(override.Add)
	result.Match = result.Match.merge(override.Match)
	return result
}

func (configuration AddConfiguration) merge(override AddConfiguration) AddConfiguration {
	result := configuration
	if override.ReportDuplicates != nil {
		result.ReportDuplicates = cloneBool(override.ReportDuplicates)
	}
	return result
}

func (configuration MatchConfiguration) merge(override MatchConfiguration) MatchConfiguration {
	result := configuration
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicateNames(override.Exclude)...)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (configuration TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := configuration
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
