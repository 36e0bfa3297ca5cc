package messages

// System messages for stores, locks, scripts, and feeds.
const (
	// StoreOpenLockFmt formats lock file open errors.
	StoreOpenLockFmt     = "open lock %s: %w"
	StoreLockFmt         = "lock %s: %w"
	StoreLockTimeoutFmt  = "timed out waiting for package store lock after %s"
	StoreReadFmt         = "failed to read package store %s: %w"
	StoreInvalidFmt      = "invalid package store %s: %w"
	StoreInvalidEntryFmt = "%s: package[%d] has invalid version %q: %w"
	StoreMissingIDFmt    = "%s: package[%d].id is required"
	StoreEncodeFmt       = "encode package store: %w"
	StoreWriteFmt        = "failed to write package store %s: %w"

	// ScriptPathRequired indicates a script was queued without a path.
	ScriptPathRequired = "script path is required"
	ScriptFailedFmt    = "script %s failed: %w"
	ScriptRunningFmt   = "Executing script file '%s'"

	// FeedCreateRequestErrFmt formats request creation errors.
	FeedCreateRequestErrFmt = "create feed request: %w"
	FeedRequestErrFmt       = "request %s: %w"
	FeedStatusErrFmt        = "request %s: unexpected status %s"
	FeedDecodeErrFmt        = "decode feed response from %s: %w"
	FeedInvalidBaseURLFmt   = "invalid feed URL %q: %w"
	FeedReadIndexFmt        = "failed to read feed index %s: %w"
	FeedInvalidIndexFmt     = "invalid feed index %s: %w"
	FeedWriteIndexFmt       = "failed to write feed index %s: %w"
	FeedRetryExhausted      = "retry budget exhausted"
	FeedSearchTimeoutFmt    = "search for '%s' on '%s' did not complete within %s"
	FeedInvalidVersionFmt   = "package %s has invalid version %q: %w"
)
