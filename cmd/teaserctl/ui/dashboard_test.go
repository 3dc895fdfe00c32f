package ui

import (
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/kelp-ai/teaserctl/internal/controller"
	"github.com/kelp-ai/teaserctl/internal/project"
	"github.com/kelp-ai/teaserctl/internal/session"
)

func testModel() Dashboard {
	ctrl := controller.New(nil, session.NewMemoryStore())
	return NewDashboard(ctrl)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDashboard_ProjectsMsgUpdatesRows(t *testing.T) {
	m := testModel()
	updated, _ := m.Update(ProjectsMsg{
		{ID: 1, Name: "Titan", CompanyName: "Titan Corp", Status: project.StatusPending},
	})
	view := updated.(Dashboard).View()
	assert.Contains(t, view, "Titan")
	assert.Contains(t, view, "pending")
	assert.Contains(t, view, "upload")
}

func TestDashboard_CursorClampsWhenListShrinks(t *testing.T) {
	m := testModel()
	next, _ := m.Update(ProjectsMsg{
		{ID: 1, Status: project.StatusPending},
		{ID: 2, Status: project.StatusPending},
	})
	m = next.(Dashboard)
	next, _ = m.Update(keyMsg("j"))
	m = next.(Dashboard)
	assert.Equal(t, 1, m.cursor)

	next, _ = m.Update(ProjectsMsg{{ID: 1, Status: project.StatusPending}})
	m = next.(Dashboard)
	assert.Equal(t, 0, m.cursor)
}

func TestDashboard_DeleteNeedsSecondPress(t *testing.T) {
	m := testModel()
	next, _ := m.Update(ProjectsMsg{{ID: 7, Name: "Doomed", Status: project.StatusPending}})
	m = next.(Dashboard)

	next, cmd := m.Update(keyMsg("x"))
	m = next.(Dashboard)
	assert.Nil(t, cmd, "first press only arms the delete")
	assert.Equal(t, int64(7), m.armedDelete)
	assert.Contains(t, m.View(), "press x again")

	// Any other key disarms.
	next, _ = m.Update(keyMsg("j"))
	m = next.(Dashboard)
	assert.Zero(t, m.armedDelete)
}

func TestDashboard_EmptyState(t *testing.T) {
	m := testModel()
	assert.Contains(t, m.View(), "No projects yet")
}

func TestTruncate_MultibyteSafe(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Übernahme…", truncate("Übernahmekandidat", 10))
	assert.True(t, utf8.ValidString(truncate("Société Générale", 9)))
	assert.Equal(t, "曖", truncate("曖昧", 1))
}

func TestDashboard_ActionHints(t *testing.T) {
	completed := project.Project{ID: 1, Status: project.StatusCompleted}
	assert.Equal(t, "download-teaser,download-citations", actionHints(completed))

	processing := project.Project{ID: 2, Status: project.StatusProcessing}
	assert.Equal(t, "-", actionHints(processing))
}
