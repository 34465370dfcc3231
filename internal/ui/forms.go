package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"whatsgram/internal/app/account"
	"whatsgram/internal/app/gate"
	"whatsgram/internal/pkg/errs"
)

func textinputBlink() tea.Cmd {
	return textinput.Blink
}

func newInput(placeholder string, password bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.Width = 36
	ti.Prompt = "› "
	if password {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// accountDoneMsg reports the outcome of a login, registration or logout.
type accountDoneMsg struct {
	result account.Result
	err    error
}

func runAccount(fn func() (account.Result, error)) tea.Cmd {
	return func() tea.Msg {
		result, err := fn()
		return accountDoneMsg{result: result, err: err}
	}
}

func (m *Model) handleAccountDone(msg accountDoneMsg) tea.Cmd {
	m.busy = false

	if msg.err != nil {
		return m.pushToast(toastError, errs.UserMessage(msg.err))
	}

	var cmds []tea.Cmd
	cmds = append(cmds, m.pushToast(toastSuccess, msg.result.Notice))

	switch msg.result.Next {
	case gate.RouteLogin:
		m.login.reset()
		m.register.reset()
	case gate.RouteHome:
		m.login.reset()
	}
	if msg.result.Next != "" {
		cmds = append(cmds, m.navigate(msg.result.Next))
	}

	return tea.Batch(cmds...)
}

// fieldSet is a group of inputs with one focused at a time.
type fieldSet struct {
	inputs  []textinput.Model
	focused int
}

func (f *fieldSet) focus(i int) {
	n := f.size()
	f.focused = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.focused {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// size counts the inputs plus any extra focus stops of the owner.
func (f *fieldSet) size() int {
	return len(f.inputs)
}

func (f *fieldSet) update(msg tea.Msg) tea.Cmd {
	if f.focused >= len(f.inputs) {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return cmd
}

func (f *fieldSet) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.focus(0)
}

func (f *fieldSet) value(i int) string {
	return f.inputs[i].Value()
}

func renderField(label string, in textinput.Model) string {
	return labelStyle.Render(label) + "\n" + in.View()
}

// Login screen.

const (
	loginEmail = iota
	loginPassword
)

type loginForm struct {
	fieldSet
}

func newLoginForm() loginForm {
	f := loginForm{fieldSet{inputs: []textinput.Model{
		newInput("you@example.com", false),
		newInput("password", true),
	}}}
	f.focus(0)
	return f
}

func (f loginForm) form() account.LoginForm {
	return account.LoginForm{
		Email:    strings.TrimSpace(f.value(loginEmail)),
		Password: f.value(loginPassword),
	}
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, m.login.update(msg)
	}

	switch key.Type {
	case tea.KeyTab, tea.KeyDown:
		m.login.focus(m.login.focused + 1)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.login.focus(m.login.focused - 1)
		return m, nil
	case tea.KeyCtrlO:
		return m, m.navigate(gate.RouteRegister)
	case tea.KeyEnter:
		if m.busy {
			return m, nil
		}
		m.busy = true
		form := m.login.form()
		return m, runAccount(func() (account.Result, error) {
			ctx, cancel := withTimeout()
			defer cancel()
			return m.accounts.Login(ctx, form)
		})
	}

	return m, m.login.update(msg)
}

func (m Model) viewLogin() string {
	parts := []string{
		titleStyle.Render("Login · WhatsGram"),
		renderField("Email", m.login.inputs[loginEmail]),
		renderField("Password", m.login.inputs[loginPassword]),
		"",
		m.submitHint("Login"),
		hintStyle.Render("Don't have an account? ctrl+o to sign up"),
	}
	return m.center(formStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
}

// Register screen.

const (
	regFullname = iota
	regUsername
	regEmail
	regPassword
	regConfirm
	regGender
)

type registerForm struct {
	fieldSet
	gender int
}

func newRegisterForm() registerForm {
	f := registerForm{
		fieldSet: fieldSet{inputs: []textinput.Model{
			newInput("Full Name", false),
			newInput("username", false),
			newInput("you@example.com", false),
			newInput("password", true),
			newInput("confirm password", true),
		}},
		gender: -1,
	}
	f.focus(0)
	return f
}

// focus treats the gender picker as the last focus stop.
func (f *registerForm) focus(i int) {
	n := len(f.inputs) + 1
	f.fieldSet.focused = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.fieldSet.focused {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *registerForm) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.gender = -1
	f.focus(0)
}

func (f registerForm) form() account.RegisterForm {
	gender := ""
	if f.gender >= 0 {
		gender = account.Genders[f.gender]
	}
	return account.RegisterForm{
		Fullname:        strings.TrimSpace(f.value(regFullname)),
		Username:        strings.TrimSpace(f.value(regUsername)),
		Email:           strings.TrimSpace(f.value(regEmail)),
		Password:        f.value(regPassword),
		ConfirmPassword: f.value(regConfirm),
		Gender:          gender,
	}
}

func (m Model) updateRegister(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, m.register.update(msg)
	}

	switch key.Type {
	case tea.KeyTab, tea.KeyDown:
		m.register.focus(m.register.focused + 1)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.register.focus(m.register.focused - 1)
		return m, nil
	case tea.KeyCtrlO:
		return m, m.navigate(gate.RouteLogin)
	case tea.KeyLeft, tea.KeyRight, tea.KeySpace:
		if m.register.focused == regGender {
			step := 1
			if key.Type == tea.KeyLeft {
				step = -1
			}
			n := len(account.Genders)
			m.register.gender = (((m.register.gender + step) % n) + n) % n
			return m, nil
		}
	case tea.KeyEnter:
		if m.busy {
			return m, nil
		}
		m.busy = true
		form := m.register.form()
		return m, runAccount(func() (account.Result, error) {
			ctx, cancel := withTimeout()
			defer cancel()
			return m.accounts.Register(ctx, form)
		})
	}

	return m, m.register.update(msg)
}

func (m Model) viewRegister() string {
	genders := make([]string, 0, len(account.Genders))
	for i, g := range account.Genders {
		if i == m.register.gender {
			genders = append(genders, selectedRowStyle.Render("("+g+")"))
		} else {
			genders = append(genders, rowStyle.Render(" "+g+" "))
		}
	}
	genderLabel := "Gender"
	if m.register.focused == regGender {
		genderLabel = "Gender ←/→"
	}

	parts := []string{
		titleStyle.Render("Sign Up · WhatsGram"),
		renderField("Full Name", m.register.inputs[regFullname]),
		renderField("Username", m.register.inputs[regUsername]),
		renderField("Email", m.register.inputs[regEmail]),
		renderField("Password", m.register.inputs[regPassword]),
		renderField("Confirm Password", m.register.inputs[regConfirm]),
		labelStyle.Render(genderLabel) + "\n" + strings.Join(genders, " "),
		"",
		m.submitHint("Sign Up"),
		hintStyle.Render("Already have an account? ctrl+o to log in"),
	}
	return m.center(formStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
}

func (m Model) submitHint(action string) string {
	if m.busy {
		return hintStyle.Render("Working...")
	}
	return hintStyle.Render("enter " + action + " · tab next field · ctrl+c quit")
}

func (m Model) center(s string) string {
	return lipgloss.Place(m.width, m.height-len(m.toasts)-1, lipgloss.Center, lipgloss.Center, s)
}
