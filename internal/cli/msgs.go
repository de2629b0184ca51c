package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Compose config files from drop-in fragment directories"
	MsgApplyShort      = "Merge fragments and write targets"
	MsgApplyLong       = "Apply merges every fragment directory and writes the targets whose content changed."
	MsgListShort       = "List fragment directories and their targets"
	MsgListLong        = "List shows every fragment directory, the target it maps to, its merge format and whether apply would change it."
	MsgDiffShort       = "Show the changes apply would make"
	MsgDiffLong        = "Diff prints a line diff between each target on disk and its merged content. Nothing is written."
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgNoChanges     = "No changes"
	MsgVersionFormat = "dotpatch version %s\n"
	MsgCommitFormat  = "Commit: %s\n"
	MsgBuiltFormat   = "Built:  %s\n"

	// Error messages
	MsgErrInitPaths  = "failed to initialize paths: %w"
	MsgErrLoadConfig = "failed to load configuration: %w"

	MsgErrNegativeContext = "--context must not be negative, got %d"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagLogLevel  = "Set the log level explicitly (trace, debug, info, warn, error); wins over -v"
	MsgFlagDryRun    = "Preview changes without writing"
	MsgFlagFormat    = "Output style: auto, term or text (auto drops styling when output is not a terminal or NO_COLOR is set)"
	MsgFlagDirectory = "Patches tree (default: patches in the repository root)"
	MsgFlagTarget    = "Destination root (default: $HOME)"
	MsgFlagNoLock    = "Do not take the run lock"
	MsgFlagContext   = "Unchanged lines shown around each change"

	// Debug messages
	MsgDebugRepoRoot = "Debug: Using repository root: %s (fallback=%v)\n"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/apply-example.txt
	msgApplyExampleRaw string
	MsgApplyExample    = strings.TrimRight(msgApplyExampleRaw, "\n")

	//go:embed msgs/fallback-warning.txt
	msgFallbackWarningRaw string
	MsgFallbackWarning    = strings.TrimSpace(msgFallbackWarningRaw) + "\n"

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
