package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/regionsel/internal/config"
	"github.com/1broseidon/regionsel/internal/ipc"
)

// daemonClient is the subset of the IPC client the editor uses.
type daemonClient interface {
	displayLister
	reloader
	GetStatus() (*ipc.StatusData, error)
}

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	cfg        *config.Config
	loadErr    error

	// daemon is nil when no daemon answered at startup.
	daemon daemonClient
	status *ipc.StatusData

	activeTab     Tab
	generalTab    SettingsTab
	appearanceTab SettingsTab
	journalTab    SettingsTab
	displaysTab   DisplaysTab

	// original is the config as loaded, for the save diff.
	original    *config.Config
	saveOverlay SaveOverlay

	width  int
	height int
}

func newModel(configPath string, cfg *config.Config, loadErr error, client daemonClient) model {
	m := model{
		configPath: configPath,
		cfg:        cfg,
		loadErr:    loadErr,
		activeTab:  TabGeneral,
	}
	if cfg != nil {
		orig := *cfg
		m.original = &orig
	}
	if client != nil {
		if status, err := client.GetStatus(); err == nil {
			m.daemon = client
			m.status = status
		}
	}

	m.generalTab = NewSettingsTab("General", generalFields(), cfg)
	m.appearanceTab = NewSettingsTab("Appearance", appearanceFields(), cfg)
	m.journalTab = NewSettingsTab("Journal", journalFields(), cfg)
	var lister displayLister
	if m.daemon != nil {
		lister = m.daemon
	}
	m.displaysTab = NewDisplaysTab(lister)
	return m
}

// activeSettings returns the settings tab in front, or nil.
func (m *model) activeSettings() *SettingsTab {
	switch m.activeTab {
	case TabGeneral:
		return &m.generalTab
	case TabAppearance:
		return &m.appearanceTab
	case TabJournal:
		return &m.journalTab
	}
	return nil
}

func (m *model) resize(width, height int) {
	m.width = width
	m.height = height
	// Status bar, tab bar with margin and help bar take four rows.
	sub := tea.WindowSizeMsg{Width: width, Height: max(height-4, 1)}
	m.generalTab, _ = m.generalTab.Update(sub)
	m.appearanceTab, _ = m.appearanceTab.Update(sub)
	m.journalTab, _ = m.journalTab.Update(sub)
	m.displaysTab, _ = m.displaysTab.Update(sub)
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if sz, ok := msg.(tea.WindowSizeMsg); ok {
		m.resize(sz.Width, sz.Height)
		return m, nil
	}
	km, isKey := msg.(tea.KeyMsg)
	if isKey && km.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Save overlay captures all input when active.
	if m.saveOverlay.Active() {
		var daemon reloader
		if m.daemon != nil {
			daemon = m.daemon
		}
		prev := m.saveOverlay.phase
		m.saveOverlay = m.saveOverlay.Update(msg, m.cfg, m.configPath, daemon)
		if prev == savePreview && m.saveOverlay.SaveSucceeded() {
			orig := *m.cfg
			m.original = &orig
		}
		return m, nil
	}

	if isKey && km.String() == "ctrl+s" {
		if m.cfg != nil {
			m.saveOverlay.Show(m.original, m.cfg)
		}
		return m, nil
	}

	// An open form consumes every key.
	if tab := m.activeSettings(); tab != nil && tab.editing {
		var cmd tea.Cmd
		*tab, cmd = tab.Update(msg)
		return m, cmd
	}

	if isKey {
		switch km.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1", "2", "3", "4":
			m.activeTab = Tab(km.String()[0] - '1')
			return m, nil
		}
	}

	var cmd tea.Cmd
	if tab := m.activeSettings(); tab != nil {
		*tab, cmd = tab.Update(msg)
	} else {
		m.displaysTab, cmd = m.displaysTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	used := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := max(m.height-used, 1)

	var content string
	switch {
	case m.saveOverlay.Active():
		content = m.saveOverlay.View(m.width, contentHeight)
	case m.loadErr != nil && m.activeTab != TabDisplays:
		content = lipgloss.NewStyle().
			Width(m.width).
			Height(contentHeight).
			Padding(1, 2).
			Foreground(lipgloss.Color("196")).
			Render("Config failed to load:\n\n" + m.loadErr.Error())
	case m.activeTab == TabDisplays:
		content = m.displaysTab.View()
	default:
		content = m.activeSettings().View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, tabBar, content, helpBar)
}
