package messages

// Install and update messages.
const (
	// InstallRootRequired indicates the workspace root is required for install.
	InstallRootRequired            = "workspace root is required"
	InstallProjectRequired         = "target project is required"
	InstallFeedRequired            = "install engine requires a package feed"
	InstallPackageNotFoundFmt      = "package '%s' was not found on the active source"
	InstallVersionNotFoundFmt      = "package '%s' version %s was not found on the active source"
	InstallAlreadyInstalledFmt     = "package '%s %s' is already installed in project '%s'"
	InstallingFmt                  = "Installing '%s %s'."
	InstalledFmt                   = "Successfully installed '%s %s' to %s."
	InstallAddingFileFmt           = "Adding file '%s' to project '%s'."
	InstallSkippedFileFmt          = "Skipped overwriting file '%s' in project '%s'."
	InstallOverwroteFileFmt        = "Overwrote existing file '%s' in project '%s'."
	InstallUnsafePathFmt           = "package file path %q escapes the target directory"
	InstallCreateDirFailedFmt      = "failed to create directory %s: %w"
	InstallFailedReadFmt           = "failed to read %s: %w"
	InstallFailedWriteFmt          = "failed to write %s: %w"
	InstallRemovePreviousFailedFmt = "Could not remove previous package folder %s: %v"
	InstallProgressActivity        = "Installing package"
	InstallProgressFileFmt         = "Copying %s"
	InstallProgressDone            = "Done"

	// ConflictMessageFmt formats a file conflict prompt body.
	ConflictMessageFmt       = "File '%s' already exists in project '%s'. Do you want to overwrite it?"
	ConflictPromptCaption    = "File Conflict"
	ConflictChoiceYes        = "&Yes"
	ConflictChoiceYesAll     = "Yes to &All"
	ConflictChoiceNo         = "&No"
	ConflictChoiceNoAll      = "No to A&ll"
	ConflictHelpYes          = "Overwrite this file."
	ConflictHelpYesAll       = "Overwrite this file and every later conflicting file."
	ConflictHelpNo           = "Keep the existing file."
	ConflictHelpNoAll        = "Keep this file and every later conflicting file."
	ConflictInvalidModeFmt   = "invalid conflict action %q (expected prompt, overwrite, overwrite-all, ignore, ignore-all)"
	ConflictPromptRequired   = "file conflicts require a prompt handler; use --conflict-action to choose a non-interactive action"
	ConflictDiffTruncatedFmt = "... diff truncated (%d more lines)"

	// UpdateInvalidBehaviorFmt formats unknown dependency behavior names.
	UpdateInvalidBehaviorFmt    = "invalid dependency behavior %q (expected lowest, highest-patch, highest-minor, highest)"
	UpdateInvalidVersionFmt     = "invalid version %q: %w"
	UpdateUnknownModeFmt        = "unknown update mode %d"
	UpdateExplicitVersionReq    = "explicit update mode requires a version"
	UpdateNoUpdateFmt           = "No updates available for '%s' in project '%s'."
	UpdateSelectedFmt           = "Updating '%s' from %s to %s in project '%s'."
	UpdatePackageNotFoundFmt    = "package '%s' is not installed in project '%s'"
	UpdateModeConflict          = "--safe, --dependency and --version are mutually exclusive"
	UpdateVersionNeedsID        = "--version requires a package id"
	UpdateAnyProject            = "any project"
	UpdateCheckingFmt           = "Checking '%s' for updates."
	UpdateSafeConstraintFmt     = "safe %s"
	UpdateBehaviorConstraintFmt = "behavior %s"
	UpdateExplicitConstraint    = "explicit"
	QueryNegativePagingFmt      = "skip and take must not be negative (skip=%d, take=%d)"
	QuerySearchingFmt           = "Searching '%s' on '%s'."
	QueryFeedRequired           = "remote queries require an active package source"
	QueryEngineRequired         = "update selection requires an install engine"
	QueryNilVersion             = "installed reference has no version"
	QueryComputeUpdatesErrFmt   = "compute updates: %w"
)
