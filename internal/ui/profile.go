package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"whatsgram/internal/app/gate"
	"whatsgram/internal/app/user"
	"whatsgram/internal/pkg/auth/jwt"
)

// profileMarkdown describes u as a markdown card.
func profileMarkdown(u user.User, self bool, token string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", u.DisplayName())
	fmt.Fprintf(&b, "- **Username:** @%s\n", u.Username)
	if u.Email != "" {
		fmt.Fprintf(&b, "- **Email:** %s\n", u.Email)
	}
	if u.Gender != "" {
		fmt.Fprintf(&b, "- **Gender:** %s\n", u.Gender)
	}
	if u.ProfilePic != "" {
		fmt.Fprintf(&b, "- **Picture:** <%s>\n", u.ProfilePic)
	}

	if self {
		if exp, ok := jwt.ExpiresAt(token); ok {
			fmt.Fprintf(&b, "\n_Signed in until %s._\n", exp.Local().Format("2 Jan 2006 15:04"))
		}
	}

	return b.String()
}

func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) viewProfile(u user.User, self bool) string {
	token := ""
	if sess := m.chats.Session(); self && sess != nil {
		token = sess.Token
	}

	width := min(72, max(30, m.width-8))
	card := renderMarkdown(profileMarkdown(u, self, token), width)

	title := "Profile"
	if !self {
		title = "Contact"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		card,
		"",
		hintStyle.Render("esc back"),
	)
}

func (m Model) updateProfile(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc, tea.KeyEnter:
			return m, m.navigate(gate.RouteHome)
		case tea.KeyCtrlL:
			return m.logout()
		}
	}
	return m, nil
}
