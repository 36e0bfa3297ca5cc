package messages

// Config messages for configuration loading and validation.
const (
	// ConfigMissingFileFmt formats missing config file errors.
	ConfigMissingFileFmt       = "missing config file %s: %w"
	ConfigInvalidConfigFmt     = "invalid config %s: %w"
	ConfigUnrecognizedKeysFmt  = "%s contains unrecognized keys: %v"
	ConfigValidationGuidance   = "(fix the file or remove it to use defaults)"
	ConfigResolveHomeFmt       = "resolve home dir: %w"
	ConfigConflictActionFmt    = "%s: console.conflict_action must be one of prompt, overwrite, overwrite-all, ignore, ignore-all"
	ConfigSearchTimeoutFmt     = "%s: console.search_timeout %q is not a valid duration: %v"
	ConfigSearchTimeoutNegFmt  = "%s: console.search_timeout must not be negative"
	ConfigRelayBufferFmt       = "%s: console.relay_buffer must not be negative"
	ConfigSourceNameFmt        = "%s: sources[%d].name is required"
	ConfigSourceURIFmt         = "%s: sources[%d].uri is required"
	ConfigSourceDuplicateFmt   = "%s: duplicate source name %q"
	ConfigWorkspaceReadFmt     = "failed to read workspace file %s: %w"
	ConfigWorkspaceInvalidFmt  = "invalid workspace file %s: %w"
	ConfigWorkspaceProjectFmt  = "%s: projects[%d].name is required"
	ConfigWorkspaceDupFmt      = "%s: duplicate project name %q"
	ConfigWorkspaceDefaultFmt  = "%s: default_project %q does not match a project"
	ConfigWorkspaceNotFileFmt  = "%s exists but is not a file"
	ConfigWorkspaceStatFmt     = "failed to stat %s: %w"
	ConfigWorkspaceAbsFmt      = "resolve absolute path %s: %w"
	ConfigWorkspaceMissingPath = "%s: projects[%d].path is required"
)
