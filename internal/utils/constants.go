package utils

// GitDirectoryName is the name of the Git repository directory excluded from
// matching and preserved by the export clean step.
const GitDirectoryName = ".git"

// ConfigFileName is the name of the track configuration file.
const ConfigFileName = ".track.yaml"

// GlobalConfigDirectoryName is the directory under the user configuration
// directory holding global track state.
const GlobalConfigDirectoryName = "track"

// DatabaseFileName is the name of the registry database file.
const DatabaseFileName = "track.db"

// LoggerInitializationFailedMessageFormat reports a logger construction failure.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// ApplicationExecutionFailedMessage prefixes fatal command errors.
const ApplicationExecutionFailedMessage = "application execution failed"
