package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/regionsel/internal/config"
)

type savePhase int

const (
	saveHidden  savePhase = iota
	savePreview           // showing diff, awaiting confirm
	saveResult            // showing outcome message
)

type diffKind int

const (
	diffContext diffKind = iota
	diffRemoved
	diffAdded
)

type diffLine struct {
	kind diffKind
	text string
}

var errNoChanges = errors.New("no changes to save")

// reloader asks a running daemon to pick up the saved file.
type reloader interface {
	Reload() error
}

// SaveOverlay manages the config save diff preview and confirmation workflow.
type SaveOverlay struct {
	phase        savePhase
	diffLines    []diffLine
	err          error
	reloaded     bool
	scrollOffset int
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Show computes the diff and opens the preview overlay.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.err = nil
	s.reloaded = false
	s.scrollOffset = 0

	s.diffLines = configDiff(original, current)
	if len(s.diffLines) == 0 {
		s.phase = saveResult
		s.err = errNoChanges
		return
	}
	s.phase = savePreview
}

// SaveSucceeded reports whether the last save completed without error.
func (s SaveOverlay) SaveSucceeded() bool {
	return s.phase == saveResult && s.err == nil
}

// Update handles input while the overlay is active. A nil daemon skips
// the reload.
func (s SaveOverlay) Update(msg tea.Msg, cfg *config.Config, path string, daemon reloader) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}
	switch s.phase {
	case savePreview:
		switch km.String() {
		case "esc":
			s.phase = saveHidden
		case "enter", "y":
			s.err = cfg.Save(path)
			if s.err == nil && daemon != nil {
				s.reloaded = daemon.Reload() == nil
			}
			s.phase = saveResult
		case "up", "k":
			if s.scrollOffset > 0 {
				s.scrollOffset--
			}
		case "down", "j":
			s.scrollOffset++
		}
	case saveResult:
		s.phase = saveHidden
	}
	return s
}

// View renders the overlay for the given content area dimensions.
func (s SaveOverlay) View(width, height int) string {
	switch s.phase {
	case savePreview:
		return s.viewPreview(width, height)
	case saveResult:
		return s.viewResult(width, height)
	}
	return ""
}

func boxed(areaW, areaH, maxW int, content string) string {
	boxW := min(areaW-8, maxW)
	if boxW < 30 {
		boxW = 30
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(boxW).
		Render(content)
	return lipgloss.Place(areaW, areaH, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) viewPreview(areaW, areaH int) string {
	addStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rmStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	ctxStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// Title, blank lines, footer, border and padding take ten rows.
	visible := max(areaH-10, 3)
	off := min(s.scrollOffset, max(len(s.diffLines)-visible, 0))
	end := min(off+visible, len(s.diffLines))

	lines := make([]string, 0, end-off)
	for _, dl := range s.diffLines[off:end] {
		switch dl.kind {
		case diffAdded:
			lines = append(lines, addStyle.Render("+ "+dl.text))
		case diffRemoved:
			lines = append(lines, rmStyle.Render("- "+dl.text))
		default:
			lines = append(lines, ctxStyle.Render("  "+dl.text))
		}
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Save Config: Pending Changes")
	footer := dimStyle.Render("enter: save  esc: cancel  j/k: scroll")
	return boxed(areaW, areaH, 80, title+"\n\n"+strings.Join(lines, "\n")+"\n\n"+footer)
}

func (s SaveOverlay) viewResult(areaW, areaH int) string {
	var msg string
	if s.err != nil {
		msg = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render("Error: " + s.err.Error())
	} else {
		okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
		msg = okStyle.Render("Config saved successfully")
		if s.reloaded {
			msg += "\n" + okStyle.UnsetBold().Render("Daemon reloaded")
		}
	}
	return boxed(areaW, areaH, 60, msg+"\n\n"+dimStyle.Render("press any key to dismiss"))
}

// configDiff compares the YAML renderings of two configs.
func configDiff(original, current *config.Config) []diffLine {
	if original == nil || current == nil {
		return nil
	}
	a, err := original.Marshal()
	if err != nil {
		return nil
	}
	b, err := current.Marshal()
	if err != nil {
		return nil
	}
	return diffText(strings.TrimSpace(string(a)), strings.TrimSpace(string(b)), 2)
}

// diffText returns a line diff of a and b with ctx lines of context around
// each change, or nil when they are equal.
func diffText(a, b string, ctx int) []diffLine {
	if a == b {
		return nil
	}
	x, y := strings.Split(a, "\n"), strings.Split(b, "\n")

	// lcs[i][j] is the common subsequence length of x[i:] and y[j:].
	lcs := make([][]int, len(x)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(y)+1)
	}
	for i := len(x) - 1; i >= 0; i-- {
		for j := len(y) - 1; j >= 0; j-- {
			if x[i] == y[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var all []diffLine
	i, j := 0, 0
	for i < len(x) || j < len(y) {
		switch {
		case i < len(x) && j < len(y) && x[i] == y[j]:
			all = append(all, diffLine{diffContext, x[i]})
			i++
			j++
		case j == len(y) || (i < len(x) && lcs[i+1][j] >= lcs[i][j+1]):
			all = append(all, diffLine{diffRemoved, x[i]})
			i++
		default:
			all = append(all, diffLine{diffAdded, y[j]})
			j++
		}
	}
	return trimContext(all, ctx)
}

// trimContext keeps changed lines and ctx neighbours, marking gaps with "...".
func trimContext(lines []diffLine, ctx int) []diffLine {
	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.kind == diffContext {
			continue
		}
		for k := max(i-ctx, 0); k <= min(i+ctx, len(lines)-1); k++ {
			keep[k] = true
		}
	}

	var out []diffLine
	gap := false
	for i, l := range lines {
		if !keep[i] {
			gap = true
			continue
		}
		if gap && len(out) > 0 {
			out = append(out, diffLine{diffContext, "..."})
		}
		gap = false
		out = append(out, l)
	}
	return out
}
