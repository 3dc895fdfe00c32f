package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kelp-ai/teaserctl/internal/controller"
	"github.com/kelp-ai/teaserctl/internal/project"
)

// ProjectsMsg carries a fresh cache snapshot from the controller.
type ProjectsMsg []project.Project

// AuthExpiredMsg tells the dashboard the credential was rejected; the only
// sensible move is to quit back to the login command.
type AuthExpiredMsg struct{}

// actionResultMsg reports the outcome of a user-triggered action.
type actionResultMsg struct {
	summary string
	err     error
}

const actionTimeout = 30 * time.Second

// Dashboard is the bubbletea model for the live project table.
type Dashboard struct {
	ctrl   *controller.Controller
	styles Styles
	spin   spinner.Model

	width    int
	height   int
	projects []project.Project
	cursor   int

	footer      string
	footerIsErr bool
	armedDelete int64 // project id armed for deletion; 0 means none
	authExpired bool
}

// NewDashboard creates the dashboard model around a running controller.
func NewDashboard(ctrl *controller.Controller) Dashboard {
	styles := DefaultStyles()
	return Dashboard{
		ctrl:     ctrl,
		styles:   styles,
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Spinner)),
		projects: ctrl.Snapshot(),
		width:    100,
		height:   30,
	}
}

func (m Dashboard) Init() tea.Cmd { return m.spin.Tick }

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case ProjectsMsg:
		m.projects = msg
		if m.cursor >= len(m.projects) && m.cursor > 0 {
			m.cursor = len(m.projects) - 1
		}

	case AuthExpiredMsg:
		m.authExpired = true
		return m, tea.Quit

	case actionResultMsg:
		if msg.err != nil {
			m.footer = msg.err.Error()
			m.footerIsErr = true
		} else {
			m.footer = msg.summary
			m.footerIsErr = false
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Any key other than a second "x" disarms a pending delete.
	if m.armedDelete != 0 && key != "x" {
		m.armedDelete = 0
		m.footer = "delete cancelled"
		m.footerIsErr = false
	}

	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.projects)-1 {
			m.cursor++
		}
	case "r":
		return m, m.action("refreshed", func(ctx context.Context) error {
			return m.ctrl.Refresh(ctx)
		})
	case "g":
		if p, ok := m.selected(); ok {
			id := p.ID
			return m, m.action("generation queued", func(ctx context.Context) error {
				return m.ctrl.Generate(ctx, id)
			})
		}
	case "t":
		if p, ok := m.selected(); ok {
			return m, m.downloadCmd(p, project.ArtifactTeaser)
		}
	case "c":
		if p, ok := m.selected(); ok {
			return m, m.downloadCmd(p, project.ArtifactCitations)
		}
	case "x":
		p, ok := m.selected()
		if !ok {
			break
		}
		if m.armedDelete != p.ID {
			m.armedDelete = p.ID
			m.footer = fmt.Sprintf("press x again to delete %q", p.Name)
			m.footerIsErr = false
			break
		}
		m.armedDelete = 0
		id := p.ID
		return m, m.action("project deleted", func(ctx context.Context) error {
			return m.ctrl.DeleteProject(ctx, id)
		})
	}
	return m, nil
}

func (m Dashboard) anyProcessing() bool {
	for _, p := range m.projects {
		if p.Status == project.StatusProcessing {
			return true
		}
	}
	return false
}

func (m Dashboard) selected() (project.Project, bool) {
	if m.cursor < 0 || m.cursor >= len(m.projects) {
		return project.Project{}, false
	}
	return m.projects[m.cursor], true
}

// action runs a controller call off the UI goroutine.
func (m Dashboard) action(summary string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return actionResultMsg{summary: summary, err: fn(ctx)}
	}
}

func (m Dashboard) downloadCmd(p project.Project, kind project.ArtifactKind) tea.Cmd {
	id := p.ID
	return m.action("", func(ctx context.Context) error {
		dl, err := m.ctrl.Download(ctx, id, kind)
		if err != nil {
			return err
		}
		name := dl.Filename
		if name == "" {
			name = fmt.Sprintf("project-%d-%s.bin", id, kind)
		}
		return os.WriteFile(name, dl.Data, 0o644)
	})
}

func (m Dashboard) View() string {
	var sb strings.Builder
	title := "teaserctl: projects"
	if m.anyProcessing() {
		title += "  " + m.spin.View() + "generating"
	}
	sb.WriteString(m.styles.Title.Render(title))
	sb.WriteString("\n\n")

	if len(m.projects) == 0 {
		sb.WriteString(m.styles.Muted.Render("No projects yet. Create one with: teaserctl create"))
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.styles.Header.Render(
			fmt.Sprintf("%-4s %-24s %-20s %-12s %-6s %s", "ID", "NAME", "COMPANY", "STATUS", "FILES", "ACTIONS")))
		sb.WriteString("\n")
		for i, p := range m.projects {
			// Pad outside the styled text so the ANSI escapes don't break alignment.
			status := m.styles.Status(p.Status) + strings.Repeat(" ", max(0, 12-len(p.Status)))
			row := fmt.Sprintf("%-4d %-24s %-20s %s %-6d %s",
				p.ID, truncate(p.Name, 24), truncate(p.CompanyName, 20),
				status, len(p.Files), actionHints(p))
			style := m.styles.Row
			if i == m.cursor {
				style = m.styles.Selected
				row = "> " + row
			} else {
				row = "  " + row
			}
			sb.WriteString(style.Render(row))
			sb.WriteString("\n")
		}
	}

	if m.footer != "" {
		sb.WriteString("\n")
		if m.footerIsErr {
			sb.WriteString(m.styles.Error.Render(m.footer))
		} else {
			sb.WriteString(m.styles.Muted.Render(m.footer))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(m.styles.Help.Render(
		"j/k move · g generate · t teaser · c citations · x delete · r refresh · q quit"))
	sb.WriteString("\n")
	return sb.String()
}

// actionHints renders the legal action set so the row doubles as a legend
// for what the keybindings will accept.
func actionHints(p project.Project) string {
	actions := p.Actions()
	if len(actions) == 0 {
		return "-"
	}
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

// truncate shortens s to n runes; slicing on bytes could split a multibyte
// rune in a project or company name.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
