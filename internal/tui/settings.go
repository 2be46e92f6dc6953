package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/regionsel/internal/config"
)

// field is one editable config key. Values travel as strings so huh can
// bind them; set parses and stores.
type field struct {
	key     string
	title   string
	desc    string
	options []string
	color   bool
	get     func(*config.Config) string
	set     func(*config.Config, string) error
}

func stringField(key, title, desc string, p func(*config.Config) *string) field {
	return field{
		key: key, title: title, desc: desc,
		get: func(c *config.Config) string { return *p(c) },
		set: func(c *config.Config, v string) error { *p(c) = strings.TrimSpace(v); return nil },
	}
}

func intField(key, title, desc string, p func(*config.Config) *int) field {
	return field{
		key: key, title: title, desc: desc,
		get: func(c *config.Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s must be a whole number", key)
			}
			*p(c) = n
			return nil
		},
	}
}

func boolField(key, title, desc string, p func(*config.Config) *bool) field {
	return field{
		key: key, title: title, desc: desc,
		options: []string{"true", "false"},
		get:     func(c *config.Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s must be true or false", key)
			}
			*p(c) = b
			return nil
		},
	}
}

func choiceField(key, title, desc string, options []string, p func(*config.Config) *string) field {
	f := stringField(key, title, desc, p)
	f.options = options
	return f
}

func colorField(key, title string, p func(*config.Config) *string) field {
	f := stringField(key, title, "#rrggbb", p)
	f.color = true
	return f
}

var levels = []string{"debug", "info", "warn", "error"}

func generalFields() []field {
	return []field{
		stringField("hotkey", "Hotkey", "X11 keybinding that starts a selection (daemon restart required)",
			func(c *config.Config) *string { return &c.Hotkey }),
		stringField("on_select", "On Select", "Shell command run with REGIONSEL_* set after each daemon selection",
			func(c *config.Config) *string { return &c.OnSelect }),
		choiceField("log_level", "Log Level", "", levels,
			func(c *config.Config) *string { return &c.LogLevel }),
		choiceField("render.backend", "Render Backend", "gpu draws through X RENDER, cpu rasterizes locally",
			[]string{"auto", "gpu", "cpu"}, func(c *config.Config) *string { return &c.Render.Backend }),
		intField("render.fps", "Frame Rate", "Cap on redraws per second while dragging",
			func(c *config.Config) *int { return &c.Render.FPS }),
		intField("input.grab_retries", "Grab Retries", "Attempts for each keyboard and pointer grab",
			func(c *config.Config) *int { return &c.Input.GrabRetries }),
	}
}

func appearanceFields() []field {
	return []field{
		colorField("overlay.color", "Backdrop Color", func(c *config.Config) *string { return &c.Overlay.Color }),
		intField("overlay.alpha", "Backdrop Alpha", "0 (clear) to 255 (opaque)",
			func(c *config.Config) *int { return &c.Overlay.Alpha }),
		intField("border.width", "Border Width", "Selection outline in pixels",
			func(c *config.Config) *int { return &c.Border.Width }),
		colorField("border.color", "Border Color", func(c *config.Config) *string { return &c.Border.Color }),
		boolField("label.enabled", "Size Label", "Show WxH next to the selection",
			func(c *config.Config) *bool { return &c.Label.Enabled }),
		colorField("label.color", "Label Color", func(c *config.Config) *string { return &c.Label.Color }),
		colorField("label.background", "Label Background", func(c *config.Config) *string { return &c.Label.Background }),
	}
}

func journalFields() []field {
	return []field{
		boolField("journal.enabled", "Enabled", "Record selection sessions to a log file",
			func(c *config.Config) *bool { return &c.Journal.Enabled }),
		choiceField("journal.level", "Level", "debug adds per-frame entries", levels,
			func(c *config.Config) *string { return &c.Journal.Level }),
		stringField("journal.file", "File", "Empty for ~/.local/share/regionsel/sessions.log",
			func(c *config.Config) *string { return &c.Journal.File }),
		intField("journal.max_size_mb", "Max Size (MB)", "Rotate once the file reaches this size",
			func(c *config.Config) *int { return &c.Journal.MaxSizeMB }),
		intField("journal.max_files", "Max Files", "Rotated files to keep",
			func(c *config.Config) *int { return &c.Journal.MaxFiles }),
	}
}

// check applies v to a copy of cfg and validates the result.
func (f field) check(cfg *config.Config, v string) error {
	c := *cfg
	if err := f.set(&c, v); err != nil {
		return err
	}
	return c.Validate()
}

// SettingsTab displays a group of fields and edits them with a huh form.
type SettingsTab struct {
	title  string
	fields []field
	cfg    *config.Config

	width  int
	height int

	editing bool
	form    *huh.Form
	values  []string
}

// NewSettingsTab creates a tab over fields of cfg.
func NewSettingsTab(title string, fields []field, cfg *config.Config) SettingsTab {
	return SettingsTab{title: title, fields: fields, cfg: cfg}
}

// Update implements tea.Model.
func (s SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if sz, ok := msg.(tea.WindowSizeMsg); ok {
		s.width = sz.Width
		s.height = sz.Height
	}
	if !s.editing {
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "e" && s.cfg != nil {
			s.startEditing()
			return s, s.form.Init()
		}
		return s, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		s.editing = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State == huh.StateCompleted {
		s.applyForm()
		s.editing = false
		s.form = nil
		return s, nil
	}
	return s, cmd
}

func (s *SettingsTab) startEditing() {
	cfg := s.cfg
	s.values = make([]string, len(s.fields))
	inputs := make([]huh.Field, 0, len(s.fields))
	for i, f := range s.fields {
		s.values[i] = f.get(cfg)
		validate := func(v string) error { return f.check(cfg, v) }
		if len(f.options) > 0 {
			inputs = append(inputs, huh.NewSelect[string]().
				Key(f.key).
				Title(f.title).
				Description(f.desc).
				Options(huh.NewOptions(f.options...)...).
				Validate(validate).
				Value(&s.values[i]))
			continue
		}
		inputs = append(inputs, huh.NewInput().
			Key(f.key).
			Title(f.title).
			Description(f.desc).
			Validate(validate).
			Value(&s.values[i]))
	}

	w := s.width - 4
	if w < 40 {
		w = 40
	}
	s.form = huh.NewForm(huh.NewGroup(inputs...)).
		WithWidth(w).WithShowHelp(true).WithShowErrors(true)
	s.editing = true
}

func (s *SettingsTab) applyForm() {
	for i, f := range s.fields {
		if err := f.check(s.cfg, s.values[i]); err != nil {
			continue
		}
		f.set(s.cfg, s.values[i])
	}
}

// View implements tea.Model.
func (s SettingsTab) View() string {
	if s.editing && s.form != nil {
		header := lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true).
			Render("Editing "+s.title+" Settings") + dimStyle.Render("  (esc to cancel)")
		return lipgloss.NewStyle().Width(s.width).Height(s.height).Padding(1, 2).
			Render(header + "\n\n" + s.form.View())
	}

	if s.cfg == nil {
		return lipgloss.NewStyle().
			Width(s.width).
			Height(s.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No config loaded")
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(22).
		Align(lipgloss.Right).
		PaddingRight(2)
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)

	lines := []string{""}
	for _, f := range s.fields {
		v := f.get(s.cfg)
		line := labelStyle.Render(f.title) + valueStyle.Render(displayOrDefault(v, "(unset)"))
		if f.color && v != "" {
			line += " " + lipgloss.NewStyle().Background(lipgloss.Color(v)).Render("    ")
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", dimStyle.Render("  Press 'e' to edit settings"))

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
