package display

import (
	"fmt"
	"strings"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/charmbracelet/glamour"
)

// RecoveryGuide returns markdown instructions for an error that left data
// in an intermediate state, or "" for any other error
func RecoveryGuide(err error) string {
	if !serrors.HasErrorCode(err, serrors.ErrPartialFailure) {
		return ""
	}
	details := serrors.GetErrorDetails(err)
	original, _ := details["original"].(string)
	destination, _ := details["destination"].(string)
	entry, _ := details["entry"].(string)

	var b strings.Builder
	b.WriteString("# Manual recovery needed\n\n")
	if entry != "" {
		fmt.Fprintf(&b, "saveli could not finish with **%s** and could not undo its changes.\n\n", entry)
	} else {
		b.WriteString("saveli could not finish and could not undo its changes.\n\n")
	}
	b.WriteString("Your save data is intact but may not be where the game expects it.\n\n")
	if destination != "" {
		fmt.Fprintf(&b, "- The data is now at `%s`\n", destination)
	}
	if original != "" {
		fmt.Fprintf(&b, "- The game expects it at `%s`\n", original)
	}
	b.WriteString("\n## Steps\n\n")
	if original != "" && destination != "" {
		fmt.Fprintf(&b, "1. Make sure nothing is left at `%s`; remove a leftover link if there is one.\n", original)
		fmt.Fprintf(&b, "2. Move `%s` back to `%s`.\n", destination, original)
		b.WriteString("3. Run `saveli status` to check the entry, then retry the command.\n")
	} else {
		b.WriteString("1. Run `saveli status` and inspect the paths it reports.\n")
		b.WriteString("2. Put the data back at the original location by hand, then retry.\n")
	}
	return b.String()
}

// RenderMarkdown renders md with glamour for terminals and returns it
// unchanged for plain output
func RenderMarkdown(md string, format Format, width int) string {
	if format != FormatTerminal {
		return md
	}
	options := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		options = append(options, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return rendered
}
