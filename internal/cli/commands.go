package cli

import (
	"fmt"
	"os"

	"github.com/arthur-debert/dotpatch/internal/version"
	"github.com/arthur-debert/dotpatch/pkg/config"
	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/arthur-debert/dotpatch/pkg/logging"
	"github.com/arthur-debert/dotpatch/pkg/patcher"
	"github.com/arthur-debert/dotpatch/pkg/paths"
	"github.com/arthur-debert/dotpatch/pkg/style"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	verbosity int
	logLevel  string
	directory string
	target    string
	format    string
	dryRun    bool
	noLock    bool
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "dotpatch",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgApplyExample,
		Version: version.Version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logLevel != "" {
				if err := logging.SetupLoggerWithLevel(opts.logLevel); err != nil {
					return err
				}
			} else {
				logging.SetupLogger(opts.verbosity)
			}
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVar(&opts.logLevel, "log-level", "", MsgFlagLogLevel)
	flags.StringVarP(&opts.directory, "directory", "d", "", MsgFlagDirectory)
	flags.StringVar(&opts.target, "target", "", MsgFlagTarget)
	flags.StringVar(&opts.format, "format", "auto", MsgFlagFormat)
	flags.BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	flags.BoolVar(&opts.noLock, "no-lock", false, MsgFlagNoLock)

	_ = rootCmd.MarkPersistentFlagDirname("directory")
	_ = rootCmd.MarkPersistentFlagDirname("target")

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newApplyCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newDiffCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// session is everything a command needs to plan or apply
type session struct {
	patcher  *patcher.Patcher
	renderer *style.Renderer
}

// newSession resolves paths and configuration and builds the patcher
func newSession(cmd *cobra.Command, opts *globalOptions, dryRun bool) (*session, error) {
	format, err := style.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	p, err := initPaths(cmd, opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(p)
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}

	source, err := p.SourceRoot(opts.directory, cfg.Source)
	if err != nil {
		return nil, err
	}
	home, err := paths.ResolveHome(opts.target)
	if err != nil {
		return nil, err
	}

	exclude, err := cfg.ExcludeSet()
	if err != nil {
		return nil, err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	lockPath := ""
	if cfg.Lock && !opts.noLock {
		lockPath = paths.LockFilePath()
	}

	pt, err := patcher.New(patcher.Options{
		SourceRoot: source,
		TargetRoot: home,
		Exclude:    exclude,
		Formats:    registry,
		FileMode:   cfg.FileMode,
		LockPath:   lockPath,
		DryRun:     dryRun,
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("source", source).
		Str("target", home).
		Strs("exclude", exclude.Patterns()).
		Bool("dry_run", dryRun).
		Msg("Session ready")

	return &session{
		patcher:  pt,
		renderer: style.NewRenderer(format.Resolve(os.Stdout), home),
	}, nil
}

// initPaths resolves the repository root and warns when it fell back to
// the working directory
func initPaths(cmd *cobra.Command, opts *globalOptions) (*paths.Paths, error) {
	p, err := paths.New("")
	if err != nil {
		return nil, fmt.Errorf(MsgErrInitPaths, err)
	}

	if p.UsedFallback() && opts.directory == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), MsgFallbackWarning, p.RepoRoot())
	} else if os.Getenv("DOTPATCH_DEBUG") != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), MsgDebugRepoRoot, p.RepoRoot(), p.UsedFallback())
	}

	return p, nil
}

func runApply(cmd *cobra.Command, opts *globalOptions) error {
	s, err := newSession(cmd, opts, opts.dryRun)
	if err != nil {
		return err
	}

	result, err := s.patcher.Apply(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), s.renderer.RenderResult(result))
	return nil
}

func newApplyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "apply",
		Short:   MsgApplyShort,
		Long:    MsgApplyLong,
		Example: MsgApplyExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts)
		},
	}
}

func newListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   MsgListShort,
		Long:    MsgListLong,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts, true)
			if err != nil {
				return err
			}

			plan, err := s.patcher.Plan(cmd.Context())
			if err != nil {
				return err
			}

			out, err := s.renderer.RenderList(plan)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newDiffCmd(opts *globalOptions) *cobra.Command {
	var contextLines int

	cmd := &cobra.Command{
		Use:   "diff",
		Short: MsgDiffShort,
		Long:  MsgDiffLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if contextLines < 0 {
				return errors.Newf(errors.ErrInvalidInput, MsgErrNegativeContext, contextLines)
			}

			s, err := newSession(cmd, opts, true)
			if err != nil {
				return err
			}

			plan, err := s.patcher.Plan(cmd.Context())
			if err != nil {
				return err
			}

			changes := plan.Changes()
			if len(changes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoChanges)
				return nil
			}

			for _, w := range changes {
				lines := patcher.CompactDiff(patcher.LineDiff(w.Existing, w.Content), contextLines)
				fmt.Fprint(cmd.OutOrStdout(), s.renderer.RenderDiff(w, lines))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&contextLines, "context", "U", 3, MsgFlagContext)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, MsgVersionFormat, version.Version)
			if version.Commit != "" {
				fmt.Fprintf(out, MsgCommitFormat, version.Commit)
			}
			if version.Date != "" {
				fmt.Fprintf(out, MsgBuiltFormat, version.Date)
			}
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
