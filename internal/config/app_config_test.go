package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sbstp/track/internal/utils"
)

const (
	globalDatabasePath  = "/var/lib/track/global.db"
	localDatabasePath   = "/home/user/.local/track.db"
	globalConfigContent = `database:
  path: ` + globalDatabasePath + `
match:
  exclude: [node_modules]
`
	localConfigContent = `database:
  path: ` + localDatabasePath + `
add:
  report_duplicates: false
match:
  exclude: [vendor, vendor]
  tokens:
    enabled: true
    model: gpt-4o
`
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

// TestLoadApplicationConfigurationLocalOverridesGlobal verifies the local file
// overrides the global one field by field.
func TestLoadApplicationConfigurationLocalOverridesGlobal(testingHandle *testing.T) {
	configHome := testingHandle.TempDir()
	testingHandle.Setenv("XDG_CONFIG_HOME", configHome)

	globalDirectory := filepath.Join(configHome, utils.GlobalConfigDirectoryName)
	if makeDirError := os.MkdirAll(globalDirectory, 0o755); makeDirError != nil {
		testingHandle.Fatalf("failed to create global config directory: %v", makeDirError)
	}
	writeTestFile(testingHandle, filepath.Join(globalDirectory, utils.ConfigFileName), globalConfigContent)

	workingDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(workingDirectory, utils.ConfigFileName), localConfigContent)

	configuration, loadError := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory})
	if loadError != nil {
		testingHandle.Fatalf("LoadApplicationConfiguration failed: %v", loadError)
	}

	if configuration.Database.Path != localDatabasePath {
		testingHandle.Fatalf("database path not overridden: got %q want %q", configuration.Database.Path, localDatabasePath)
	}
	if configuration.Add.ReportDuplicates == nil || *configuration.Add.ReportDuplicates {
		testingHandle.Fatalf("report_duplicates not overridden: got %v", configuration.Add.ReportDuplicates)
	}
	if !reflect.DeepEqual(configuration.Match.Exclude, []string{"vendor"}) {
		testingHandle.Fatalf("unexpected exclusion names: got %v", configuration.Match.Exclude)
	}
	if configuration.Match.Tokens.Enabled == nil || !*configuration.Match.Tokens.Enabled {
		testingHandle.Fatalf("tokens.enabled not loaded: got %v", configuration.Match.Tokens.Enabled)
	}
	if configuration.Match.Tokens.Model != "gpt-4o" {
		testingHandle.Fatalf("unexpected token model: got %q", configuration.Match.Tokens.Model)
	}
}

// TestLoadApplicationConfigurationGlobalOnly verifies the global file applies
// when no local file exists.
func TestLoadApplicationConfigurationGlobalOnly(testingHandle *testing.T) {
	configHome := testingHandle.TempDir()
	testingHandle.Setenv("XDG_CONFIG_HOME", configHome)

	globalDirectory := filepath.Join(configHome, utils.GlobalConfigDirectoryName)
	if makeDirError := os.MkdirAll(globalDirectory, 0o755); makeDirError != nil {
		testingHandle.Fatalf("failed to create global config directory: %v", makeDirError)
	}
	writeTestFile(testingHandle, filepath.Join(globalDirectory, utils.ConfigFileName), globalConfigContent)

	configuration, loadError := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: testingHandle.TempDir()})
	if loadError != nil {
		testingHandle.Fatalf("LoadApplicationConfiguration failed: %v", loadError)
	}

	if configuration.Database.Path != globalDatabasePath {
		testingHandle.Fatalf("global database path not loaded: got %q", configuration.Database.Path)
	}
	if !reflect.DeepEqual(configuration.Match.Exclude, []string{"node_modules"}) {
		testingHandle.Fatalf("unexpected exclusion names: got %v", configuration.Match.Exclude)
	}
}

// TestLoadApplicationConfigurationMissingFiles verifies absent files yield the
// zero configuration without error.
func TestLoadApplicationConfigurationMissingFiles(testingHandle *testing.T) {
	testingHandle.Setenv("XDG_CONFIG_HOME", testingHandle.TempDir())

	configuration, loadError := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: testingHandle.TempDir()})
	if loadError != nil {
		testingHandle.Fatalf("LoadApplicationConfiguration failed: %v", loadError)
	}
	if !reflect.DeepEqual(configuration, ApplicationConfiguration{}) {
		testingHandle.Fatalf("expected zero configuration, got %+v", configuration)
	}
}
