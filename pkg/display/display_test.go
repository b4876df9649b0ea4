package display

import (
	"bytes"
	stderrors "errors"
	"os"
	"testing"

	"github.com/arthur-debert/saveli/pkg/commands"
	"github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"TERM", FormatTerminal, false},
		{"plain", FormatText, false},
		{"json", FormatAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDetectFormat_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, FormatText, DetectFormat(os.Stdout))
}

func TestDetectFormat_NotATerminal(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, FormatText, DetectFormat(f))
}

func TestRenderCommandResult(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, FormatText)

	result := &types.CommandResult{
		Command: "link",
		Results: []types.TransitionResult{
			{
				EntryID:    "celeste",
				Transition: types.TransitionLink,
				From:       types.Unmanaged(),
				To:         types.Linked("celeste", "/orig/celeste"),
			},
			{
				EntryID:    "hades",
				Transition: types.TransitionLink,
				From:       types.Linked("hades", ""),
				To:         types.Linked("hades", ""),
				NoOp:       true,
			},
			{
				EntryID:    "undertale",
				Transition: types.TransitionLink,
				Err:        errors.New(errors.ErrNoSaveFound, "no save data found"),
			},
		},
	}

	require.NoError(t, r.RenderCommandResult(result))
	out := buf.String()

	assert.Contains(t, out, "link\n")
	assert.Contains(t, out, "✓ celeste")
	assert.Contains(t, out, "unmanaged -> linked")
	assert.Contains(t, out, "= hades")
	assert.Contains(t, out, "already linked")
	assert.Contains(t, out, "✗ undertale")
	assert.Contains(t, out, "NO_SAVE_FOUND: no save data found")
	assert.Contains(t, out, "2 succeeded, 1 failed")
	assert.NotContains(t, out, "\x1b[", "text output must not contain escape codes")
}

func TestRenderCommandResult_DryRunListsOperations(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, FormatText)

	result := &types.CommandResult{
		Command: "link",
		DryRun:  true,
		Results: []types.TransitionResult{{
			EntryID: "celeste",
			DryRun:  true,
			From:    types.Unmanaged(),
			To:      types.Linked("celeste", "/orig/celeste"),
			Operations: []types.Operation{
				{Type: types.OperationMove, Source: "/orig/celeste", Target: "/store/celeste"},
				{Type: types.OperationLink, Source: "/orig/celeste", Target: "/store/celeste"},
			},
			Warnings: []string{"heads up"},
		}},
	}

	require.NoError(t, r.RenderCommandResult(result))
	out := buf.String()
	assert.Contains(t, out, "link (dry run)")
	assert.Contains(t, out, "○ celeste")
	assert.Contains(t, out, "would become linked")
	assert.Contains(t, out, "move /orig/celeste to /store/celeste")
	assert.Contains(t, out, "link /orig/celeste -> /store/celeste")
	assert.Contains(t, out, "! heads up")
}

func TestRenderCommandResult_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatText).RenderCommandResult(&types.CommandResult{Command: "restore"}))
	assert.Contains(t, buf.String(), "nothing to do")
}

func TestRecoveryGuide(t *testing.T) {
	assert.Empty(t, RecoveryGuide(nil))
	assert.Empty(t, RecoveryGuide(stderrors.New("plain")))
	assert.Empty(t, RecoveryGuide(errors.New(errors.ErrIO, "io")))

	err := errors.New(errors.ErrPartialFailure, "rollback failed").
		WithDetail("original", "/orig/z").
		WithDetail("destination", "/store/z").
		WithDetail("entry", "zelda")

	guide := RecoveryGuide(err)
	assert.Contains(t, guide, "# Manual recovery needed")
	assert.Contains(t, guide, "**zelda**")
	assert.Contains(t, guide, "Move `/store/z` back to `/orig/z`")
}

func TestRenderError_IncludesRecoveryGuide(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(errors.ErrPartialFailure, "rollback failed").
		WithDetail("original", "/orig/z").
		WithDetail("destination", "/store/z")

	require.NoError(t, NewRenderer(&buf, FormatText).RenderError(err))
	out := buf.String()
	assert.Contains(t, out, "error: PARTIAL_FAILURE_REQUIRES_MANUAL_RECOVERY: rollback failed")
	assert.Contains(t, out, "The data is now at `/store/z`")
}

func TestRenderMarkdown_TextIsUnchanged(t *testing.T) {
	assert.Equal(t, "# hi\n", RenderMarkdown("# hi\n", FormatText, 80))
}

func TestRenderStatus(t *testing.T) {
	var buf bytes.Buffer
	report := &types.StatusReport{
		StorageRoot: "/store",
		Entries: []types.StatusEntry{
			{
				Entry:  types.CatalogEntry{ID: "celeste"},
				State:  types.Linked("celeste", "/orig/celeste"),
				Health: types.HealthOK,
			},
			{
				Entry:  types.CatalogEntry{ID: "ghost"},
				State:  types.Unmanaged(),
				Health: types.HealthAbsent,
				Err:    errors.New(errors.ErrNotFound, "not in catalog"),
			},
		},
	}

	require.NoError(t, NewRenderer(&buf, FormatText).RenderStatus(report))
	out := buf.String()
	assert.Contains(t, out, "storage: /store")
	assert.Contains(t, out, "celeste")
	assert.Contains(t, out, "/orig/celeste")
	assert.Contains(t, out, "NOT_FOUND")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderStatus_NoStorageNoEntries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, FormatText).RenderStatus(&types.StatusReport{}))
	assert.Contains(t, buf.String(), "(not set)")
	assert.Contains(t, buf.String(), "--all")
}

func TestRenderSearch(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, FormatText)

	require.NoError(t, r.RenderSearch("zzz", nil))
	assert.Contains(t, buf.String(), `no catalog entries match "zzz"`)

	buf.Reset()
	hits := []types.SearchHit{
		{Entry: types.CatalogEntry{ID: "hades", Title: "Hades"}, State: types.Unmanaged()},
		{Entry: types.CatalogEntry{ID: "mine", Title: "Mine", Custom: true}, State: types.Ignored()},
	}
	require.NoError(t, r.RenderSearch("a", hits))
	out := buf.String()
	assert.Contains(t, out, "Hades")
	assert.Contains(t, out, "Mine (custom)")
	assert.Contains(t, out, "ignored")
}

func TestRenderStorageAndAdd(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, FormatText)

	require.NoError(t, r.RenderStorage(&commands.StorageResult{
		Path:     "/new",
		DryRun:   true,
		Warnings: []string{"2 linked entries still keep their data under /old"},
	}))
	assert.Contains(t, buf.String(), "would set storage path to /new")
	assert.Contains(t, buf.String(), "! 2 linked entries")

	buf.Reset()
	require.NoError(t, r.RenderAdd(&commands.AddResult{
		Entry:       types.CatalogEntry{ID: "tunic"},
		Replaced:    true,
		CatalogPath: "/config/catalog.yaml",
	}))
	assert.Contains(t, buf.String(), "replaced tunic in /config/catalog.yaml")
}
