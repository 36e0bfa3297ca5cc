package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse         = "pmc"
	RootShort       = "Package management console"
	RootVersionFlag = "Print version and exit"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	FlagSource         = "Package source name or URI to use for this command"
	FlagProject        = "Target project name (defaults to the workspace default project)"
	FlagVerbose        = "Show verbose output"
	FlagSync           = "Run in synchronous mode (no progress display)"
	FlagConflictAction = "File conflict action: prompt, overwrite, overwrite-all, ignore, ignore-all"
	FlagPrerelease     = "Include prerelease versions"
	FlagSkip           = "Number of entries to skip"
	FlagTake           = "Maximum number of entries to return (0 = unbounded)"
	FlagUpdates        = "List available updates instead of installed packages"
	FlagSafe           = "Only update within the installed major.minor range"
	FlagVersion        = "Exact version to install or update to"
	FlagDependency     = "Dependency behavior: lowest, highest-patch, highest-minor, highest"
	FlagFramework      = "Target framework to match (repeatable)"

	// ListUse is the list command usage.
	ListUse   = "list [filter]"
	ListShort = "List installed packages or available updates"

	SearchUse   = "search <query>"
	SearchShort = "Search the active package source"

	UpdateUse   = "update [package-id]"
	UpdateShort = "Update installed packages"

	InstallUse   = "install <package-id>"
	InstallShort = "Install a package into the active project"

	SourcesUse   = "sources"
	SourcesShort = "List configured package sources"

	ServeUse          = "serve <dir>"
	ServeShort        = "Serve a local feed directory over HTTP"
	ServeListeningFmt = "Serving feed %s on http://%s\n"
	ServeDirFmt       = "feed directory %s: %w"
	FlagAddr          = "Address to listen on"

	SourcesLineFmt   = "  %s %s [%s]\n"
	SourcesEnabled   = "enabled"
	SourcesDisabled  = "disabled"
	SourcesNoneFound = "No package sources configured."

	ListProjectHeaderFmt = "Project '%s':"
	ListPackageLineFmt   = "  %s %s"
	ListNoPackagesFmt    = "No packages installed in project '%s'."
	ListUpdateLineFmt    = "  %s %s -> %s"
	ListUpdateMissingFmt = "  %s %s (not found on source)"
	SearchResultLineFmt  = "%s %s"
	SearchNoResultsFmt   = "No packages matching '%s' found on '%s'."

	// PromptInvalidChoice indicates a line-mode choice could not be parsed.
	PromptInvalidChoice  = "invalid choice %q"
	PromptRetryChoiceFmt = "Please enter a number between 1 and %d."
	PromptChoiceLineFmt  = "  [%d] %s\n"
	PromptChoiceInputFmt = "%s (default %d): "
	PromptNoChoices      = "prompt requires at least one choice"
	PromptDefaultRange   = "default choice %d is out of range"

	InterruptReceived = "Stopping after the current operation..."
	CLIErrorIDFmt     = "error id %s (%s)"
)
