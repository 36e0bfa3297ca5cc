package messages

// Command lifecycle, source, and workspace messages.
const (
	// CommandAlreadyExecuted indicates a command runtime was reused.
	CommandAlreadyExecuted   = "command runtime has already executed; create a new runtime per invocation"
	CommandSessionRequired   = "command session is required"
	CommandUIRequired        = "command session requires a host UI"
	CommandRequired          = "command is required"
	CommandPanicFmt          = "command panicked: %v"
	CommandStoppedVerbose    = "Command stopped by host."
	CommandScriptsQueuedFmt  = "Running %d post-action script(s)."
	CommandNoRunnerForScript = "a post-action script was queued but no script runner is configured"

	// WorkspaceNotOpen is the fixed message for the NoActiveWorkspace error.
	WorkspaceNotOpen             = "The current environment doesn't have a workspace open (no pmc.workspace.toml found)."
	WorkspaceNoCompatibleProject = "No compatible project(s) found in the active workspace."
	WorkspaceProjectNotFoundFmt  = "Project '%s' is not found."

	// SourcesNoneAvailable indicates nothing could be resolved as a source.
	SourcesNoneAvailable       = "no enabled package sources are configured; pass --source or add one to .pmc/config.toml"
	SourcesAdHocEmpty          = "package source must not be empty"
	SourcesAdHocInvalidFmt     = "invalid package source %q: %w"
	SourcesAdHocMissingHostFmt = "invalid package source %q: missing host"
	SourcesExpandHomeFmt       = "expand home in package source %q: %w"
	SourcesUsingAdHocFmt       = "Using ad-hoc package source '%s'."
)

// Relay messages.
const (
	// RelayDefaultActivity labels progress records when no activity is configured.
	RelayDefaultActivity = "Processing"
	RelayClosed          = "relay is complete; no further requests are accepted"
)
