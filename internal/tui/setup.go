// ABOUTME: Interactive TUI wizard for choosing the catalog source and cache backend.
// ABOUTME: 3-step bubbletea model collecting catalog URL, backend, and redis address.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/mirrorview/internal/config"
)

// Step represents the current wizard step.
type Step int

const (
	StepCatalogURL Step = iota
	StepBackend
	StepRedisAddr
	StepValidating
	StepDone
	StepFailed
)

// validationResultMsg carries the result of an async validation attempt.
type validationResultMsg struct {
	posts int
	err   error
}

// ValidateFn checks that a catalog URL serves a usable catalog and returns its size.
type ValidateFn func(ctx context.Context, catalogURL string) (int, error)

// cancelHolder shares a cancel function across bubbletea model copies.
// Value-receiver methods store the cancel func through this pointer so
// every copy of the model sees it.
type cancelHolder struct {
	cancel context.CancelFunc
}

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step          Step
	inputs        [3]textinput.Model
	spinner       spinner.Model
	validateFn    ValidateFn
	cancelCtx     *cancelHolder
	validationErr error
	posts         int
	inputErr      string
	quitting      bool
}

var backends = []string{config.BackendFile, config.BackendSQLite, config.BackendRedis, config.BackendNone}

// NewSetupModel creates a new setup wizard model, pre-filling with existing config values.
func NewSetupModel(catalogURL, backend, redisAddr string) SetupModel {
	urlInput := textinput.New()
	urlInput.Placeholder = config.DefaultCatalogURL
	urlInput.Focus()
	urlInput.Width = 60
	if catalogURL != "" {
		urlInput.SetValue(catalogURL)
	}

	backendInput := textinput.New()
	backendInput.Placeholder = config.BackendFile
	backendInput.Width = 20
	if backend != "" {
		backendInput.SetValue(backend)
	}

	redisInput := textinput.New()
	redisInput.Placeholder = "localhost:6379"
	redisInput.Width = 40
	if redisAddr != "" {
		redisInput.SetValue(redisAddr)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	return SetupModel{
		step:       StepCatalogURL,
		inputs:     [3]textinput.Model{urlInput, backendInput, redisInput},
		spinner:    s,
		validateFn: ValidateCatalog,
		cancelCtx:  &cancelHolder{},
	}
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			if m.cancelCtx.cancel != nil {
				m.cancelCtx.cancel()
			}
			return m, tea.Quit
		}

		switch m.step {
		case StepCatalogURL, StepBackend, StepRedisAddr:
			return m.updateInput(msg)
		case StepFailed:
			return m.updateFailed(msg)
		}

	case validationResultMsg:
		m.cancelCtx.cancel = nil
		if msg.err == nil {
			m.posts = msg.posts
			m.step = StepDone
			return m, tea.Quit
		}
		m.validationErr = msg.err
		m.step = StepFailed
		return m, nil

	case spinner.TickMsg:
		if m.step == StepValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		m.inputErr = ""
		switch m.step {
		case StepCatalogURL:
			val := strings.TrimSpace(m.inputs[0].Value())
			if val == "" {
				val = config.DefaultCatalogURL
			}
			m.inputs[0].SetValue(val)
			cfg := config.Default()
			cfg.Catalog.URL = val
			if err := cfg.Validate(); err != nil {
				m.inputErr = err.Error()
				return m, nil
			}
			return m.advance(StepBackend)

		case StepBackend:
			val := strings.ToLower(strings.TrimSpace(m.inputs[1].Value()))
			if val == "" {
				val = config.BackendFile
			}
			m.inputs[1].SetValue(val)
			if !validBackend(val) {
				m.inputErr = fmt.Sprintf("unknown backend %q (valid: %s)", val, strings.Join(backends, ", "))
				return m, nil
			}
			if val == config.BackendRedis {
				return m.advance(StepRedisAddr)
			}
			return m.validate()

		case StepRedisAddr:
			// Don't advance on an empty redis address
			if strings.TrimSpace(m.inputs[2].Value()) == "" {
				return m, nil
			}
			return m.validate()
		}
	}

	// Forward to the active input
	idx := int(m.step)
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

func (m SetupModel) advance(next Step) (tea.Model, tea.Cmd) {
	m.inputs[int(m.step)].Blur()
	m.step = next
	m.inputs[int(next)].Focus()
	return m, textinput.Blink
}

func (m SetupModel) validate() (tea.Model, tea.Cmd) {
	m.inputs[int(m.step)].Blur()
	m.step = StepValidating
	return m, tea.Batch(m.startValidation(), m.spinner.Tick)
}

func validBackend(name string) bool {
	for _, b := range backends {
		if b == name {
			return true
		}
	}
	return false
}

func (m SetupModel) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyRunes {
		switch msg.Runes[0] {
		case 'r':
			m.step = StepValidating
			m.validationErr = nil
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		case 's':
			m.step = StepDone
			return m, tea.Quit
		case 'q':
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m SetupModel) startValidation() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelCtx.cancel = cancel
	catalogURL := m.inputs[0].Value()
	fn := m.validateFn
	return func() tea.Msg {
		n, err := fn(ctx, catalogURL)
		return validationResultMsg{posts: n, err: err}
	}
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   MIRRORVIEW"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Choose where the catalog comes from and how it is cached.\n\n")

	switch m.step {
	case StepCatalogURL:
		b.WriteString(stepStyle.Render("Step 1 of 3: Catalog URL"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(press Enter for default)"))
		b.WriteString("\n")
		b.WriteString(m.inputs[0].View())
		b.WriteString("\n")

	case StepBackend:
		fmt.Fprintf(&b, "  Catalog: %s\n\n", m.inputs[0].Value())
		b.WriteString(stepStyle.Render("Step 2 of 3: Cache backend"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(" + strings.Join(backends, ", ") + "; Enter for file)"))
		b.WriteString("\n")
		b.WriteString(m.inputs[1].View())
		b.WriteString("\n")

	case StepRedisAddr:
		fmt.Fprintf(&b, "  Catalog: %s\n", m.inputs[0].Value())
		fmt.Fprintf(&b, "  Backend: %s\n\n", m.inputs[1].Value())
		b.WriteString(stepStyle.Render("Step 3 of 3: Redis address"))
		b.WriteString("\n")
		b.WriteString(m.inputs[2].View())
		b.WriteString("\n")

	case StepValidating:
		fmt.Fprintf(&b, "  Catalog: %s\n", m.inputs[0].Value())
		fmt.Fprintf(&b, "  Backend: %s\n\n", m.inputs[1].Value())
		b.WriteString(m.spinner.View())
		b.WriteString(" Fetching catalog...")
		b.WriteString("\n")

	case StepDone:
		b.WriteString(successStyle.Render(fmt.Sprintf("✓ Catalog reachable (%d posts)", m.posts)))
		b.WriteString("\n")

	case StepFailed:
		errMsg := "unknown error"
		if m.validationErr != nil {
			errMsg = m.validationErr.Error()
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Validation failed: %s", errMsg)))
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("[r]etry  [s]ave anyway  [q]uit"))
		b.WriteString("\n")
	}

	if m.inputErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.inputErr))
		b.WriteString("\n")
	}

	return b.String()
}

// Result returns the entered values. The redis address is empty unless the
// redis backend was chosen.
func (m SetupModel) Result() (catalogURL, backend, redisAddr string) {
	backend = m.inputs[1].Value()
	if backend == config.BackendRedis {
		redisAddr = strings.TrimSpace(m.inputs[2].Value())
	}
	return m.inputs[0].Value(), backend, redisAddr
}

// ShouldSave returns true if the wizard completed (via validation success or
// "save anyway") and the user did not cancel with Ctrl+C, Escape, or 'q'.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}
