package cli

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/arthur-debert/saveli/internal/version"
	"github.com/arthur-debert/saveli/pkg/catalog"
	"github.com/arthur-debert/saveli/pkg/cobrax/topics"
	"github.com/arthur-debert/saveli/pkg/commands"
	"github.com/arthur-debert/saveli/pkg/config"
	"github.com/arthur-debert/saveli/pkg/display"
	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/filesystem"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed topics/*.md
var topicFiles embed.FS

// ErrReported marks errors the command already printed; callers only need
// to set the exit status
var ErrReported = errors.New("error already reported")

type globals struct {
	verbosity  int
	dryRun     bool
	configFile string
	format     string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "saveli",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(g.verbosity)
			logging.LogCommand(cmd.Name(), args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&g.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&g.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&g.format, "format", "auto", MsgFlagFormat)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "catalog", Title: "CATALOG:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.AddCommand(newSetStorageCmd(g))
	rootCmd.AddCommand(newTransitionCmd(g, commands.CommandLink, "link [ids...]", MsgLinkShort, MsgLinkLong, MsgLinkExample))
	rootCmd.AddCommand(newTransitionCmd(g, commands.CommandRestore, "restore [ids...]", MsgRestoreShort, MsgRestoreLong, ""))
	rootCmd.AddCommand(newTransitionCmd(g, commands.CommandUnlink, "unlink [ids...]", MsgUnlinkShort, MsgUnlinkLong, ""))
	rootCmd.AddCommand(newTransitionCmd(g, commands.CommandIgnore, "ignore <id>...", MsgIgnoreShort, "", ""))
	rootCmd.AddCommand(newTransitionCmd(g, commands.CommandHeed, "heed <id>...", MsgHeedShort, "", ""))
	rootCmd.AddCommand(newStatusCmd(g))
	rootCmd.AddCommand(newSearchCmd(g))
	rootCmd.AddCommand(newAddCmd(g))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	if err := installTopics(rootCmd, g); err != nil {
		log.Warn().Err(err).Msg("Help topics unavailable")
	}

	return rootCmd
}

// options loads the configuration shared by every command
func (g *globals) options(ids []string) (commands.Options, error) {
	p, err := paths.New()
	if err != nil {
		return commands.Options{}, fmt.Errorf(MsgErrInitPaths, err)
	}
	cfg, err := config.Load(p, g.configFile)
	if err != nil {
		return commands.Options{}, err
	}
	return commands.Options{
		Config:   cfg,
		DryRun:   g.dryRun,
		EntryIDs: ids,
	}, nil
}

func installTopics(root *cobra.Command, g *globals) error {
	sub, err := fs.Sub(topicFiles, "topics")
	if err != nil {
		return err
	}
	m, err := topics.Load(sub, topics.Options{
		Renderer: topics.RendererFunc(func(content, ext string) string {
			format, ferr := g.outputFormat(root.OutOrStdout())
			if ferr != nil || ext != ".md" {
				return content
			}
			return display.RenderMarkdown(content, format, 0)
		}),
	})
	if err != nil {
		return err
	}
	m.Install(root)
	return nil
}

// outputFormat resolves --format for w
func (g *globals) outputFormat(w io.Writer) (display.Format, error) {
	format, err := display.ParseFormat(g.format)
	if err != nil {
		return display.FormatText, serrors.Wrap(err, serrors.ErrInvalidInput, "invalid --format")
	}
	if format == display.FormatAuto {
		format = display.FormatText
		if f, ok := w.(*os.File); ok {
			format = display.DetectFormat(f)
		}
	}
	return format, nil
}

func (g *globals) renderer(w io.Writer) (*display.Renderer, error) {
	format, err := g.outputFormat(w)
	if err != nil {
		return nil, err
	}
	return display.NewRenderer(w, format), nil
}

// fail prints err on stderr and returns it marked as reported
func (g *globals) fail(cmd *cobra.Command, err error) error {
	r, rerr := g.renderer(cmd.ErrOrStderr())
	if rerr != nil {
		r = display.NewRenderer(cmd.ErrOrStderr(), display.FormatText)
	}
	if werr := r.RenderError(err); werr != nil {
		return err
	}
	log.Debug().Err(err).Str("command", cmd.Name()).Msg("Command failed")
	return fmt.Errorf("%w: %w", ErrReported, err)
}

func newTransitionCmd(g *globals, command commands.CommandType, use, short, long, example string) *cobra.Command {
	args := cobra.ArbitraryArgs
	if command == commands.CommandIgnore || command == commands.CommandHeed {
		args = cobra.MinimumNArgs(1)
	}
	if long == "" {
		long = short
	}

	return &cobra.Command{
		Use:               use,
		Short:             short,
		Long:              long,
		Example:           example,
		GroupID:           "core",
		Args:              args,
		ValidArgsFunction: g.entryIDCompletion,
		RunE: func(cmd *cobra.Command, ids []string) error {
			opts, err := g.options(ids)
			if err != nil {
				return g.fail(cmd, err)
			}
			r, err := g.renderer(cmd.OutOrStdout())
			if err != nil {
				return g.fail(cmd, err)
			}

			result, err := commands.Dispatch(cmd.Context(), command, opts)
			if result != nil {
				if werr := r.RenderCommandResult(result); werr != nil {
					return werr
				}
			}
			if err != nil {
				return g.fail(cmd, err)
			}
			if result.HasFailures() {
				return fmt.Errorf("%w: "+MsgErrEntriesFailed, ErrReported, result.FailedCount(), len(result.Results))
			}
			return nil
		},
	}
}

func newSetStorageCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "set-storage-path <path>",
		Short:   MsgSetStorageShort,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options(nil)
			if err != nil {
				return g.fail(cmd, err)
			}
			r, err := g.renderer(cmd.OutOrStdout())
			if err != nil {
				return g.fail(cmd, err)
			}
			result, err := commands.SetStoragePath(opts, args[0])
			if err != nil {
				return g.fail(cmd, err)
			}
			return r.RenderStorage(result)
		},
	}
}

func newStatusCmd(g *globals) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:               "status [ids...]",
		Short:             MsgStatusShort,
		Long:              MsgStatusLong,
		GroupID:           "core",
		ValidArgsFunction: g.entryIDCompletion,
		RunE: func(cmd *cobra.Command, ids []string) error {
			opts, err := g.options(ids)
			if err != nil {
				return g.fail(cmd, err)
			}
			r, err := g.renderer(cmd.OutOrStdout())
			if err != nil {
				return g.fail(cmd, err)
			}
			report, err := commands.Status(cmd.Context(), opts, all)
			if err != nil {
				return g.fail(cmd, err)
			}
			return r.RenderStatus(report)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, MsgFlagAll)
	return cmd
}

func newSearchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "search <keyword>",
		Short:   MsgSearchShort,
		GroupID: "catalog",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.options(nil)
			if err != nil {
				return g.fail(cmd, err)
			}
			r, err := g.renderer(cmd.OutOrStdout())
			if err != nil {
				return g.fail(cmd, err)
			}
			keyword := strings.Join(args, " ")
			hits, err := commands.Search(opts, keyword)
			if err != nil {
				return g.fail(cmd, err)
			}
			return r.RenderSearch(keyword, hits)
		},
	}
}

func newAddCmd(g *globals) *cobra.Command {
	var (
		title     string
		templates []string
		platform  string
	)
	cmd := &cobra.Command{
		Use:     "add <id>",
		Short:   MsgAddShort,
		Long:    MsgAddLong,
		Example: MsgAddExample,
		GroupID: "catalog",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(templates) == 0 {
				return g.fail(cmd, serrors.New(serrors.ErrInvalidInput, MsgErrNoPath))
			}
			entry := types.CatalogEntry{ID: args[0], Title: title}
			if entry.Title == "" {
				entry.Title = entry.ID
			}
			for _, t := range templates {
				entry.Templates = append(entry.Templates, parseTemplate(t, types.Platform(platform)))
			}

			opts, err := g.options(nil)
			if err != nil {
				return g.fail(cmd, err)
			}
			r, err := g.renderer(cmd.OutOrStdout())
			if err != nil {
				return g.fail(cmd, err)
			}
			result, err := commands.AddEntry(opts, entry)
			if err != nil {
				return g.fail(cmd, err)
			}
			return r.RenderAdd(result)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", MsgFlagTitle)
	cmd.Flags().StringArrayVar(&templates, "path", nil, MsgFlagPath)
	cmd.Flags().StringVar(&platform, "platform", string(types.PlatformAny), MsgFlagPlatform)
	return cmd
}

// parseTemplate splits an optional "platform:" prefix off value. Anything
// that is not a known platform, such as a drive letter, stays in the path.
func parseTemplate(value string, fallback types.Platform) types.PathTemplate {
	if prefix, rest, ok := strings.Cut(value, ":"); ok {
		for _, p := range types.KnownPlatforms {
			if strings.EqualFold(prefix, string(p)) {
				return types.PathTemplate{Platform: p, Path: rest}
			}
		}
	}
	return types.PathTemplate{Platform: fallback, Path: value}
}

// entryIDCompletion completes catalog ids not already on the command line
func (g *globals) entryIDCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	opts, err := g.options(nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	cat, err := catalog.Load(filesystem.NewOS(), opts.Config.Catalog.Path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	given := make(map[string]bool, len(args))
	for _, a := range args {
		given[a] = true
	}
	var ids []string
	for _, e := range cat.All() {
		if !given[e.ID] && strings.HasPrefix(e.ID, toComplete) {
			ids = append(ids, e.ID)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return GenerateCompletion(cmd.Root(), args[0], cmd.OutOrStdout())
		},
	}
}

// GenerateCompletion writes the completion script for shell
func GenerateCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	default:
		return serrors.Newf(serrors.ErrInvalidInput, "unknown shell: %s", shell)
	}
}
