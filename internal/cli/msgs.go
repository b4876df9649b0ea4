package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	MsgRootShort       = "Keep game saves in one storage directory, linked back where games expect them"
	MsgSetStorageShort = "Choose the storage directory"
	MsgLinkShort       = "Move save data into storage and leave links behind"
	MsgRestoreShort    = "Recreate links to data already in storage"
	MsgUnlinkShort     = "Move save data back and stop managing it"
	MsgIgnoreShort     = "Exclude entries from bulk operations"
	MsgHeedShort       = "Stop ignoring entries"
	MsgSearchShort     = "Search the catalog"
	MsgStatusShort     = "Show the state of each entry"
	MsgAddShort        = "Add a custom entry to your catalog"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun   = "Preview changes without executing them"
	MsgFlagConfig   = "Config file (default is $XDG_CONFIG_HOME/saveli/config.toml)"
	MsgFlagFormat   = "Output format: auto, term or text"
	MsgFlagAll      = "List every catalog entry"
	MsgFlagTitle    = "Display title of the entry"
	MsgFlagPath     = "Save location template, optionally prefixed with a platform (repeatable)"
	MsgFlagPlatform = "Platform for --path values without a prefix"

	// Output
	MsgVersionFormat = "saveli version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrInitPaths     = "failed to initialize paths: %w"
	MsgErrEntriesFailed = "%d of %d entries failed"
	MsgErrNoPath        = "at least one --path is required"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/link-long.txt
	msgLinkLongRaw string
	MsgLinkLong    = strings.TrimSpace(msgLinkLongRaw)

	//go:embed msgs/link-example.txt
	msgLinkExampleRaw string
	MsgLinkExample    = strings.TrimRight(msgLinkExampleRaw, "\n")

	//go:embed msgs/restore-long.txt
	msgRestoreLongRaw string
	MsgRestoreLong    = strings.TrimSpace(msgRestoreLongRaw)

	//go:embed msgs/unlink-long.txt
	msgUnlinkLongRaw string
	MsgUnlinkLong    = strings.TrimSpace(msgUnlinkLongRaw)

	//go:embed msgs/status-long.txt
	msgStatusLongRaw string
	MsgStatusLong    = strings.TrimSpace(msgStatusLongRaw)

	//go:embed msgs/add-long.txt
	msgAddLongRaw string
	MsgAddLong    = strings.TrimSpace(msgAddLongRaw)

	//go:embed msgs/add-example.txt
	msgAddExampleRaw string
	MsgAddExample    = strings.TrimRight(msgAddExampleRaw, "\n")

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
