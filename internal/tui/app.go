package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"pagesdeck/internal/forge"
	"pagesdeck/internal/model"
	"pagesdeck/internal/reconcile"
)

// Backend is what the interactive client drives.
type Backend interface {
	HasCredential() bool
	Identity() string
	Authenticate(ctx context.Context) (string, error)
	Login(ctx context.Context, token string, persist bool) (string, error)
	ClearSession()
	Reconcile(ctx context.Context) (*model.Collection, error)
	Enable(ctx context.Context, key string, cfg model.BuildConfig) (*model.Collection, error)
	Update(ctx context.Context, key string, cfg model.BuildConfig) (*model.Collection, error)
	Disable(ctx context.Context, key string) (*model.Collection, error)
	ListBranches(ctx context.Context, key string) ([]string, error)
}

// — state ———————————————————————————————————————————————————————————————————

type appState int

const (
	stateNormal appState = iota
	stateLogin
	stateConfigure
	stateDisableConfirm
)

// — spinner —————————————————————————————————————————————————————————————————

var spinnerFrames = []string{"|", "/", "-", "\\"}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// — messages ————————————————————————————————————————————————————————————————

type passStartedMsg struct{}

type collectionMsg struct {
	c *model.Collection
}

type passFailedMsg struct {
	err error
}

type authResultMsg struct {
	login string
	err   error
}

type branchesLoadedMsg struct {
	key      string
	branches []string
	err      error
}

type mutationDoneMsg struct {
	op  reconcile.Op
	key string
	err error
}

// — list item ———————————————————————————————————————————————————————————————

type repoItem struct {
	it          model.Item
	busy        bool
	spinnerChar string
}

func (i repoItem) Title() string {
	var indicator string
	switch {
	case i.busy:
		indicator = i.spinnerChar
	case i.it.Publication.State == model.PublicationEnabled:
		indicator = "●"
	case i.it.Publication.State == model.PublicationUnknown:
		indicator = "?"
	default:
		indicator = " "
	}
	return indicator + " " + i.it.Repo.Key
}

func (i repoItem) Description() string {
	p := i.it.Publication
	switch p.State {
	case model.PublicationEnabled:
		if src := p.Pages.Source(); src != "" {
			return "pages: " + src
		}
		return "pages: " + p.Pages.BuildMode.Label()
	case model.PublicationAbsent:
		return "pages: off"
	default:
		return "pages: unknown"
	}
}

func (i repoItem) FilterValue() string { return i.it.Repo.Key }

// — configure form ——————————————————————————————————————————————————————————

var buildModes = []model.BuildMode{model.BuildModeWorkflow, model.BuildModeLegacy}

const (
	fieldMode = iota
	fieldBranch
	fieldPath
)

type configForm struct {
	op              reconcile.Op
	key             string
	mode            int
	branches        []string
	branch          int
	path            int
	field           int
	loadingBranches bool
}

func (f configForm) config() model.BuildConfig {
	cfg := model.BuildConfig{Mode: buildModes[f.mode]}
	if cfg.Mode == model.BuildModeLegacy {
		if f.branch < len(f.branches) {
			cfg.Branch = f.branches[f.branch]
		}
		cfg.Path = model.SourcePaths[f.path]
	}
	return cfg
}

// fields returns the fields shown for the selected mode.
func (f configForm) fields() int {
	if buildModes[f.mode] == model.BuildModeLegacy {
		return 3
	}
	return 1
}

func (f *configForm) cycle(delta int) {
	wrap := func(v, n int) int {
		if n == 0 {
			return 0
		}
		return ((v+delta)%n + n) % n
	}
	switch f.field {
	case fieldMode:
		f.mode = wrap(f.mode, len(buildModes))
	case fieldBranch:
		f.branch = wrap(f.branch, len(f.branches))
	case fieldPath:
		f.path = wrap(f.path, len(model.SourcePaths))
	}
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}

// — model ———————————————————————————————————————————————————————————————————

type Model struct {
	ctx     context.Context
	backend Backend

	list   list.Model
	coll   *model.Collection
	width  int
	height int
	// loading is set while a reconciliation pass is running.
	loading bool
	err     error

	status    string
	statusErr bool

	state        appState
	tokenInput   textinput.Model
	inputErr     string
	form         configForm
	confirmKey   string
	inflight     map[string]reconcile.Op
	spinnerFrame int
}

func New(ctx context.Context, b Backend) Model {
	delegate := list.NewDefaultDelegate()

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Repositories"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle

	ti := textinput.New()
	ti.Placeholder = "ghp_…"
	ti.EchoMode = textinput.EchoPassword
	ti.CharLimit = 255

	m := Model{
		ctx:        ctx,
		backend:    b,
		list:       l,
		tokenInput: ti,
		inflight:   map[string]reconcile.Op{},
	}
	if !b.HasCredential() {
		m.state = stateLogin
		m.tokenInput.Focus()
	}
	return m
}

// — commands ————————————————————————————————————————————————————————————————

func (m Model) authCmd() tea.Cmd {
	return func() tea.Msg {
		login, err := m.backend.Authenticate(m.ctx)
		return authResultMsg{login: login, err: err}
	}
}

func (m Model) loginCmd(token string) tea.Cmd {
	return func() tea.Msg {
		login, err := m.backend.Login(m.ctx, token, true)
		return authResultMsg{login: login, err: err}
	}
}

// refreshCmd runs a pass. The outcome reaches the model through the
// Driver's view.
func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		m.backend.Reconcile(m.ctx)
		return nil
	}
}

func (m Model) branchesCmd(key string) tea.Cmd {
	return func() tea.Msg {
		branches, err := m.backend.ListBranches(m.ctx, key)
		return branchesLoadedMsg{key: key, branches: branches, err: err}
	}
}

func (m Model) mutateCmd(op reconcile.Op, key string, cfg model.BuildConfig) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch op {
		case reconcile.OpEnable:
			_, err = m.backend.Enable(m.ctx, key, cfg)
		case reconcile.OpUpdate:
			_, err = m.backend.Update(m.ctx, key, cfg)
		case reconcile.OpDisable:
			_, err = m.backend.Disable(m.ctx, key)
		}
		return mutationDoneMsg{op: op, key: key, err: err}
	}
}

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			cmd = exec.Command("xdg-open", url)
		}
		cmd.Run()
		return nil
	}
}

// buildItems rebuilds the list items with the current spinner frame.
func (m *Model) buildItems() {
	if m.coll == nil {
		return
	}
	char := spinnerFrames[m.spinnerFrame]
	items := make([]list.Item, len(m.coll.Items))
	for i, it := range m.coll.Items {
		_, busy := m.inflight[it.Repo.Key]
		items[i] = repoItem{it: it, busy: busy, spinnerChar: char}
	}
	m.list.SetItems(items)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) enterLogin(reason string) tea.Cmd {
	m.state = stateLogin
	m.inputErr = reason
	m.tokenInput.Reset()
	m.tokenInput.Focus()
	return textinput.Blink
}

// handleAuthFailure returns to the login prompt when err is an
// authentication failure.
func (m *Model) handleAuthFailure(err error) (tea.Cmd, bool) {
	if !forge.IsAuthFailure(err) {
		return nil, false
	}
	m.backend.ClearSession()
	m.loading = false
	return m.enterLogin("Your credential was rejected. Sign in again."), true
}

// — tea.Model ———————————————————————————————————————————————————————————————

func (m Model) Init() tea.Cmd {
	if m.state == stateLogin {
		return tea.Batch(textinput.Blink, tickCmd())
	}
	return tea.Batch(m.authCmd(), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		lw, lh := m.listDimensions()
		m.list.SetSize(lw, lh)
		return m, nil

	case tickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		if len(m.inflight) > 0 {
			m.buildItems()
		}
		return m, tickCmd()

	case authResultMsg:
		if msg.err != nil {
			if forge.IsAuthFailure(msg.err) {
				reason := ""
				if m.state == stateLogin {
					reason = msg.err.Error()
				}
				return m, m.enterLogin(reason)
			}
			if m.state == stateLogin {
				m.inputErr = msg.err.Error()
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		m.state = stateNormal
		m.inputErr = ""
		m.err = nil
		m.tokenInput.Reset()
		m.tokenInput.Blur()
		m.setStatus("Connected as "+msg.login, false)
		m.loading = true
		return m, m.refreshCmd()

	case passStartedMsg:
		m.loading = true
		return m, nil

	case collectionMsg:
		m.loading = false
		m.err = nil
		m.coll = msg.c
		m.buildItems()
		status := fmt.Sprintf("Found %d repositories", msg.c.Len())
		if _, _, unknown := msg.c.Counts(); unknown > 0 {
			status += fmt.Sprintf(" (%d could not be checked)", unknown)
		}
		m.setStatus(status, false)
		return m, nil

	case passFailedMsg:
		m.loading = false
		if cmd, ok := m.handleAuthFailure(msg.err); ok {
			return m, cmd
		}
		if m.coll == nil {
			m.err = msg.err
			return m, nil
		}
		m.setStatus(msg.err.Error(), true)
		return m, nil

	case branchesLoadedMsg:
		if m.state != stateConfigure || m.form.key != msg.key {
			return m, nil
		}
		m.form.loadingBranches = false
		if msg.err != nil {
			if cmd, ok := m.handleAuthFailure(msg.err); ok {
				return m, cmd
			}
			m.inputErr = msg.err.Error()
			return m, nil
		}
		// Keep the preselected branch when it still exists.
		current := ""
		if m.form.branch < len(m.form.branches) {
			current = m.form.branches[m.form.branch]
		}
		m.form.branches = msg.branches
		m.form.branch = 0
		if i := indexOf(msg.branches, current); i >= 0 {
			m.form.branch = i
		} else if current != "" {
			m.form.branches = append([]string{current}, msg.branches...)
		}
		return m, nil

	case mutationDoneMsg:
		delete(m.inflight, msg.key)
		m.buildItems()
		if msg.err != nil {
			if cmd, ok := m.handleAuthFailure(msg.err); ok {
				return m, cmd
			}
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(mutationStatus(msg.op, msg.key), false)
		return m, nil
	}

	switch m.state {
	case stateLogin:
		return m.updateLogin(msg)
	case stateConfigure:
		return m.updateConfigure(msg)
	case stateDisableConfirm:
		return m.updateDisableConfirm(msg)
	default:
		return m.updateNormal(msg)
	}
}

func mutationStatus(op reconcile.Op, key string) string {
	switch op {
	case reconcile.OpEnable:
		return "Pages enabled for " + key
	case reconcile.OpUpdate:
		return "Pages updated for " + key
	default:
		return "Pages disabled for " + key
	}
}

func (m Model) updateNormal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		if ok && key.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		if m.err != nil && m.backend.Identity() == "" {
			m.err = nil
			return m, m.authCmd()
		}
		m.loading = true
		return m, m.refreshCmd()
	case "e", "u":
		it := m.selectedItem()
		if it == nil {
			return m, nil
		}
		op := reconcile.OpEnable
		if key.String() == "u" {
			op = reconcile.OpUpdate
		}
		return m.openConfigure(op, *it)
	case "d":
		it := m.selectedItem()
		if it == nil {
			return m, nil
		}
		if m.busy(it.Repo.Key) {
			return m, nil
		}
		if !it.Publication.Present() {
			m.setStatus("Pages is not enabled for "+it.Repo.Key, true)
			return m, nil
		}
		m.state = stateDisableConfirm
		m.confirmKey = it.Repo.Key
		m.inputErr = ""
		return m, nil
	case "o":
		it := m.selectedItem()
		if it != nil && it.Publication.Present() && it.Publication.Pages.HTMLURL != "" {
			return m, openURLCmd(it.Publication.Pages.HTMLURL)
		}
		return m, nil
	case "b":
		it := m.selectedItem()
		if it != nil && it.Repo.HTMLURL != "" {
			return m, openURLCmd(it.Repo.HTMLURL)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// busy reports whether an operation on key is still running and says so in
// the status line.
func (m *Model) busy(key string) bool {
	if op, ok := m.inflight[key]; ok {
		m.setStatus(fmt.Sprintf("%s is still running for %s", op, key), true)
		return true
	}
	return false
}

func (m Model) openConfigure(op reconcile.Op, it model.Item) (tea.Model, tea.Cmd) {
	if m.busy(it.Repo.Key) {
		return m, nil
	}
	switch {
	case op == reconcile.OpEnable && it.Publication.Present():
		m.setStatus("Pages is already enabled for "+it.Repo.Key+", press u to update", true)
		return m, nil
	case op == reconcile.OpUpdate && !it.Publication.Present():
		m.setStatus("Pages is not enabled for "+it.Repo.Key+", press e to enable", true)
		return m, nil
	}

	f := configForm{op: op, key: it.Repo.Key, loadingBranches: true}
	branch := it.Repo.DefaultBranch
	if p := it.Publication.Pages; p != nil {
		if p.BuildMode == model.BuildModeLegacy {
			f.mode = 1
		}
		if p.Branch != "" {
			branch = p.Branch
		}
		if i := indexOf(model.SourcePaths, p.Path); i >= 0 {
			f.path = i
		}
	}
	if branch != "" {
		f.branches = []string{branch}
	}
	m.form = f
	m.state = stateConfigure
	m.inputErr = ""
	return m, m.branchesCmd(it.Repo.Key)
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			token := strings.TrimSpace(m.tokenInput.Value())
			if token == "" {
				m.inputErr = "token cannot be empty"
				return m, nil
			}
			m.inputErr = ""
			return m, m.loginCmd(token)
		}
	}
	var cmd tea.Cmd
	m.tokenInput, cmd = m.tokenInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfigure(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateNormal
		m.inputErr = ""
		return m, nil
	case "tab", "down", "j":
		m.form.field = (m.form.field + 1) % m.form.fields()
	case "shift+tab", "up", "k":
		m.form.field = (m.form.field + m.form.fields() - 1) % m.form.fields()
	case "right", "l", " ":
		m.form.cycle(1)
	case "left", "h":
		m.form.cycle(-1)
	case "enter":
		cfg := m.form.config()
		if err := cfg.Validate(); err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		m.state = stateNormal
		m.inputErr = ""
		m.inflight[m.form.key] = m.form.op
		m.buildItems()
		return m, m.mutateCmd(m.form.op, m.form.key, cfg)
	}
	if m.form.field >= m.form.fields() {
		m.form.field = fieldMode
	}
	return m, nil
}

func (m Model) updateDisableConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "n", "N":
			m.state = stateNormal
			m.confirmKey = ""
			m.inputErr = ""
			return m, nil
		case "enter", "y", "Y":
			m.state = stateNormal
			target := m.confirmKey
			m.confirmKey = ""
			// The list may have been rebuilt since the prompt opened; act on
			// the repository that was confirmed, as it is now.
			it, found := m.coll.Find(target)
			if !found {
				m.setStatus(target+" is no longer in the repository list", true)
				return m, nil
			}
			if m.busy(target) {
				return m, nil
			}
			if !it.Publication.Present() {
				m.setStatus("Pages is not enabled for "+target, true)
				return m, nil
			}
			m.inflight[target] = reconcile.OpDisable
			m.buildItems()
			return m, m.mutateCmd(reconcile.OpDisable, target, model.BuildConfig{})
		}
	}
	return m, nil
}

// confirmItem returns the repository the disable prompt was opened for.
func (m Model) confirmItem() *model.Item {
	it, ok := m.coll.Find(m.confirmKey)
	if !ok {
		return nil
	}
	return &it
}

func (m Model) selectedItem() *model.Item {
	sel, ok := m.list.SelectedItem().(repoItem)
	if !ok {
		return nil
	}
	return &sel.it
}
