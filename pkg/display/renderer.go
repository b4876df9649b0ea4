package display

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/saveli/pkg/commands"
	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/style"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

// Renderer writes command output in one format
type Renderer struct {
	w      io.Writer
	format Format
	width  int
}

// NewRenderer creates a renderer. FormatAuto is treated as FormatText; the
// caller resolves it with DetectFormat first.
func NewRenderer(w io.Writer, format Format) *Renderer {
	if format == FormatAuto {
		format = FormatText
	}
	return &Renderer{w: w, format: format, width: 80}
}

// WithWidth sets the wrap width used for markdown output
func (r *Renderer) WithWidth(width int) *Renderer {
	r.width = width
	return r
}

func (r *Renderer) rich() bool {
	return r.format == FormatTerminal
}

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if !r.rich() {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) printf(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(r.w, format, args...)
	return err
}

// RenderCommandResult writes one line per entry followed by a summary
func (r *Renderer) RenderCommandResult(result *types.CommandResult) error {
	if result == nil {
		return nil
	}

	header := result.Command
	if result.DryRun {
		header += " (dry run)"
	}
	if err := r.printf("%s\n", r.paint(style.TitleStyle, header)); err != nil {
		return err
	}

	if len(result.Results) == 0 {
		return r.printf("  %s\n", r.paint(style.MutedStyle, "nothing to do"))
	}

	for i := range result.Results {
		if err := r.renderTransition(&result.Results[i]); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%d succeeded, %d failed", result.SucceededCount(), result.FailedCount())
	summaryStyle := style.SuccessStyle
	if result.HasFailures() {
		summaryStyle = style.ErrorStyle
	}
	if err := r.printf("\n%s\n", r.paint(summaryStyle, summary)); err != nil {
		return err
	}

	for i := range result.Results {
		if guide := RecoveryGuide(result.Results[i].Err); guide != "" {
			if err := r.printf("\n%s", RenderMarkdown(guide, r.format, r.width)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) renderTransition(res *types.TransitionResult) error {
	var symbol, message string
	var symbolStyle lipgloss.Style

	switch {
	case res.Failed():
		symbol, symbolStyle = style.ErrorSymbol, style.ErrorStyle
		message = errorLine(res.Err)
	case res.NoOp:
		symbol, symbolStyle = style.NoOpSymbol, style.MutedStyle
		message = "already " + string(res.To.Kind)
	case res.DryRun:
		symbol, symbolStyle = style.PlanSymbol, style.InfoStyle
		message = fmt.Sprintf("would become %s", res.To.Kind)
	default:
		symbol, symbolStyle = style.SuccessSymbol, style.SuccessStyle
		message = fmt.Sprintf("%s -> %s",
			r.paint(style.StateStyle(res.From.Kind), string(res.From.Kind)),
			r.paint(style.StateStyle(res.To.Kind), string(res.To.Kind)))
	}

	if err := r.printf("  %s %-20s %s\n", r.paint(symbolStyle, symbol), res.EntryID, message); err != nil {
		return err
	}

	if res.DryRun && !res.Failed() {
		for _, op := range res.Operations {
			if err := r.printf("      %s\n", r.paint(style.MutedStyle, describeOperation(op))); err != nil {
				return err
			}
		}
	}

	for _, w := range res.Warnings {
		if err := r.printf("    %s %s\n", r.paint(style.WarningStyle, style.WarningSymbol), w); err != nil {
			return err
		}
	}
	return nil
}

func describeOperation(op types.Operation) string {
	switch op.Type {
	case types.OperationMove, types.OperationRollback:
		return fmt.Sprintf("%s %s to %s", op.Type, op.Source, op.Target)
	case types.OperationLink:
		return fmt.Sprintf("link %s -> %s", op.Source, op.Target)
	case types.OperationUnlink:
		return fmt.Sprintf("unlink %s", op.Source)
	case types.OperationMkdir:
		return fmt.Sprintf("mkdir %s", op.Source)
	default:
		return fmt.Sprintf("%s %s %s", op.Type, op.Source, op.Target)
	}
}

func errorLine(err error) string {
	var se *serrors.SaveliError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s: %s", se.Code, se.Message)
	}
	return err.Error()
}

// RenderStatus writes the status report as a table
func (r *Renderer) RenderStatus(report *types.StatusReport) error {
	if report == nil {
		return nil
	}

	root := report.StorageRoot
	if root == "" {
		root = "(not set)"
	}
	if err := r.printf("%s %s\n\n", r.paint(style.TitleStyle, "storage:"), r.paint(style.PathStyle, root)); err != nil {
		return err
	}

	if len(report.Entries) == 0 {
		return r.printf("%s\n", r.paint(style.MutedStyle, "no entries to show, use --all to list the whole catalog"))
	}

	data := pterm.TableData{{"ENTRY", "STATE", "HEALTH", "LOCATION"}}
	for _, e := range report.Entries {
		state := string(e.State.Kind)
		if state == "" {
			state = string(types.StateUnmanaged)
		}
		health := string(e.Health)
		location := statusLocation(e)
		if e.Err != nil {
			health = string(serrors.GetErrorCode(e.Err))
		}
		data = append(data, []string{
			e.Entry.ID,
			r.paint(style.StateStyle(e.State.Kind), state),
			r.paint(style.HealthStyle(e.Health), health),
			location,
		})
	}
	return r.table(data)
}

func statusLocation(e types.StatusEntry) string {
	if e.State.IsLinked() && e.State.Origin != "" {
		return e.State.Origin
	}
	if len(e.Location.Candidates) > 0 {
		paths := make([]string, 0, len(e.Location.Candidates))
		for _, c := range e.Location.Candidates {
			paths = append(paths, c.Path)
		}
		return strings.Join(paths, ", ")
	}
	if len(e.Location.Expected) > 0 {
		return e.Location.Expected[0]
	}
	return "-"
}

// RenderSearch writes the matching catalog entries
func (r *Renderer) RenderSearch(keyword string, hits []types.SearchHit) error {
	if len(hits) == 0 {
		return r.printf("no catalog entries match %q\n", keyword)
	}

	data := pterm.TableData{{"ID", "TITLE", "STATE"}}
	for _, h := range hits {
		title := h.Entry.DisplayName()
		if h.Entry.Custom {
			title += " (custom)"
		}
		data = append(data, []string{
			h.Entry.ID,
			title,
			r.paint(style.StateStyle(h.State.Kind), string(h.State.Kind)),
		})
	}
	return r.table(data)
}

func (r *Renderer) table(data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	if !r.rich() {
		out = pterm.RemoveColorFromString(out)
	}
	return r.printf("%s\n", out)
}

// RenderStorage reports the outcome of set-storage-path
func (r *Renderer) RenderStorage(result *commands.StorageResult) error {
	if result == nil {
		return nil
	}
	verb := "storage path set to"
	if result.DryRun {
		verb = "would set storage path to"
	}
	if err := r.printf("%s %s %s\n",
		r.paint(style.SuccessStyle, style.SuccessSymbol), verb, r.paint(style.PathStyle, result.Path)); err != nil {
		return err
	}
	return r.warnings(result.Warnings)
}

// RenderAdd reports the outcome of adding a custom catalog entry
func (r *Renderer) RenderAdd(result *commands.AddResult) error {
	if result == nil {
		return nil
	}
	verb := "added"
	if result.Replaced {
		verb = "replaced"
	}
	if result.DryRun {
		verb = "would have " + verb
	}
	return r.printf("%s %s %s in %s\n",
		r.paint(style.SuccessStyle, style.SuccessSymbol),
		verb,
		result.Entry.ID,
		r.paint(style.PathStyle, result.CatalogPath))
}

func (r *Renderer) warnings(ws []string) error {
	for _, w := range ws {
		if err := r.printf("%s %s\n", r.paint(style.WarningStyle, style.WarningSymbol), w); err != nil {
			return err
		}
	}
	return nil
}

// RenderError writes a command level error and, when the error left data
// half moved, the recovery guide
func (r *Renderer) RenderError(err error) error {
	if err == nil {
		return nil
	}
	if werr := r.printf("%s %s\n", r.paint(style.ErrorStyle, style.ErrorSymbol+" error:"), errorLine(err)); werr != nil {
		return werr
	}
	if guide := RecoveryGuide(err); guide != "" {
		return r.printf("\n%s", RenderMarkdown(guide, r.format, r.width))
	}
	return nil
}
