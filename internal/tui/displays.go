package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/regionsel/internal/ipc"
)

// displayItem is a list item for one attached monitor.
type displayItem struct {
	info ipc.DisplayInfo
}

func (i displayItem) Title() string {
	if i.info.Primary {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render("★") + " " + i.info.Name
	}
	return "  " + i.info.Name
}

func (i displayItem) Description() string {
	d := i.info
	return fmt.Sprintf("%dx%d%+d%+d  scale %g  dpi scale %.2f", d.Width, d.Height, d.X, d.Y, d.Scale, d.DPIScale)
}

func (i displayItem) FilterValue() string { return i.info.Name }

// displayLister is the part of the IPC client the tab needs.
type displayLister interface {
	GetDisplays() (*ipc.DisplaysData, error)
}

// DisplaysTab lists the monitors the daemon sees.
type DisplaysTab struct {
	list   list.Model
	source displayLister
	err    error
	width  int
	height int
}

// NewDisplaysTab creates the tab and loads the first snapshot from source.
func NewDisplaysTab(source displayLister) DisplaysTab {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Displays"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	d := DisplaysTab{list: l, source: source}
	d.refresh()
	return d
}

func (d *DisplaysTab) refresh() {
	if d.source == nil {
		return
	}
	data, err := d.source.GetDisplays()
	if err != nil {
		d.err = err
		d.list.SetItems(nil)
		return
	}
	d.err = nil
	items := make([]list.Item, 0, len(data.Displays))
	for _, info := range data.Displays {
		items = append(items, displayItem{info: info})
	}
	d.list.SetItems(items)
}

// Update implements tea.Model.
func (d DisplaysTab) Update(msg tea.Msg) (DisplaysTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.list.SetSize(msg.Width, msg.Height-1)
		return d, nil
	case tea.KeyMsg:
		if msg.String() == "r" {
			d.refresh()
			return d, nil
		}
	}
	var cmd tea.Cmd
	d.list, cmd = d.list.Update(msg)
	return d, cmd
}

// View implements tea.Model.
func (d DisplaysTab) View() string {
	if d.source == nil || d.err != nil {
		msg := "Start the daemon to list displays (regionsel daemon)"
		if d.err != nil && d.source != nil {
			msg = "Failed to list displays: " + d.err.Error()
		}
		return lipgloss.NewStyle().
			Width(d.width).
			Height(d.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render(msg)
	}
	return d.list.View() + "\n" + dimStyle.Render("  r: refresh")
}
