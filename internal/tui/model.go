package tui

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/EndrioAlberton/teste-ia/internal/classify"
	"github.com/EndrioAlberton/teste-ia/internal/intake"
	"github.com/EndrioAlberton/teste-ia/internal/present"
	"github.com/EndrioAlberton/teste-ia/internal/submission"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Client classify.Client
	// Extractor turns uploaded files into text. Defaults to intake.NewExtractor.
	Extractor intake.Resolver
	// Clipboard receives copied replies. Defaults to the system clipboard.
	Clipboard    present.Clipboard
	Timeout      time.Duration
	PreviewLimit int
	// StartDir is where the file picker opens. Defaults to the working directory.
	StartDir string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Extractor == nil {
		config.Extractor = intake.NewExtractor()
	}
	if config.Clipboard == nil {
		config.Clipboard = present.SystemClipboard()
	}
	if config.PreviewLimit == 0 {
		config.PreviewLimit = defaultPreviewLimit
	}

	layout := newPageLayout()

	editor := textarea.New()
	editor.Placeholder = textPlaceholder
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.SetWidth(layout.viewportWidth)
	editor.SetHeight(layout.editorHeight)
	editor.Focus()

	picker := filepicker.New()
	picker.Height = layout.pickerHeight
	picker.CurrentDirectory = config.StartDir
	if picker.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			picker.CurrentDirectory = wd
		}
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(layout.viewportWidth, layout.viewportHeight)
	vp.MouseWheelEnabled = true

	return &model{
		config:     config,
		layout:     layout,
		jobs:       newJobBus(config.Timeout),
		acquirer:   intake.NewAcquirer(),
		controller: submission.NewController(config.Client),
		editor:     editor,
		picker:     picker,
		spinner:    spin,
		viewport:   vp,
	}
}

type model struct {
	config     Config
	layout     pageLayout
	jobs       *jobBus
	acquirer   *intake.Acquirer
	controller *submission.Controller
	presenter  *present.Presenter
	attempt    submission.Attempt

	editor   textarea.Model
	picker   filepicker.Model
	spinner  spinner.Model
	viewport viewport.Model

	health        classify.HealthStatus
	healthChecked bool
	errorMessage  string
	infoMessage   string
	helpVisible   bool
	viewportDirty bool
	lastSubmit    jobRecord
	extracting    bool
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.picker.Init()}
	if cmd := m.healthCmd(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// trackJob keeps the latest submit job for the status bar.
func (m *model) trackJob(job jobRecord) {
	if job.Kind == jobKindSubmit {
		m.lastSubmit = job
	}
}

func (m *model) stage() stage {
	return stageFor(m.controller.State())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.applyLayout()
		return m, nil
	case spinner.TickMsg:
		if m.stage() == stageLoading || m.extracting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobStartedMsg:
		m.trackJob(msg.Job)
		return m, nil
	case jobFinishedMsg:
		m.trackJob(msg.Job)
		return m.Update(msg.Payload)
	case extractDoneMsg:
		return m, m.handleExtractDone(msg)
	case submissionDoneMsg:
		m.handleSubmissionDone(msg)
		return m, nil
	case healthResultMsg:
		m.health = msg.status
		m.healthChecked = true
		return m, nil
	case copyAckExpiredMsg:
		m.markViewportDirty()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.stage() == stageResult {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Directory listings and cursor blinks belong to the form widgets.
	var pickerCmd, editorCmd tea.Cmd
	m.picker, pickerCmd = m.picker.Update(msg)
	m.editor, editorCmd = m.editor.Update(msg)
	return m, tea.Batch(pickerCmd, editorCmd)
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage() {
	case stageLoading:
		return m.handleLoadingKey(key)
	case stageResult:
		return m.handleResultKey(key)
	case stageError:
		return m.handleErrorKey(key)
	default:
		return m.handleFormKey(key)
	}
}

func (m *model) handleFormKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.extracting {
		if key.String() == "ctrl+s" {
			m.infoMessage = "Lendo arquivo, aguarde."
		}
		return m, nil
	}
	switch key.String() {
	case "tab", "shift+tab":
		return m, m.switchMode()
	case "ctrl+s":
		return m, m.submit()
	case "ctrl+r":
		return m, m.healthCmd()
	case "f1":
		m.helpVisible = !m.helpVisible
		return m, nil
	}

	if m.acquirer.Mode() == intake.ModeFile {
		if key.String() == "?" {
			m.helpVisible = !m.helpVisible
			return m, nil
		}
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(key)
		if ok, path := m.picker.DidSelectFile(key); ok {
			m.selectFile(path)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(key)
	m.acquirer.SetText(m.editor.Value())
	m.errorMessage = ""
	return m, cmd
}

func (m *model) handleLoadingKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+s":
		m.infoMessage = "Análise em andamento, aguarde o resultado."
	case "?", "f1":
		m.helpVisible = !m.helpVisible
	}
	return m, nil
}

func (m *model) handleResultKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "c":
		return m, m.copyReply()
	case "p":
		if m.presenter != nil && m.presenter.HasPreview() {
			m.presenter.TogglePreview()
			m.markViewportDirty()
		}
		return m, nil
	case "n":
		return m, m.newAnalysis()
	case "h", "ctrl+r":
		return m, m.healthCmd()
	case "?", "f1":
		m.helpVisible = !m.helpVisible
		return m, nil
	case "q", "esc":
		return m, tea.Quit
	case "g", "home":
		m.viewport.GotoTop()
		return m, nil
	case "G", "end":
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) handleErrorKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "enter", "r", "n":
		return m, m.newAnalysis()
	case "h", "ctrl+r":
		return m, m.healthCmd()
	case "?", "f1":
		m.helpVisible = !m.helpVisible
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

// switchMode flips between pasted text and file upload. The data of the
// mode being left is discarded.
func (m *model) switchMode() tea.Cmd {
	next := intake.ModeFile
	if m.acquirer.Mode() == intake.ModeFile {
		next = intake.ModeText
	}
	m.acquirer.SetMode(next)
	m.editor.Reset()
	m.errorMessage = ""
	m.infoMessage = ""
	if next == intake.ModeText {
		m.editor.Focus()
		return textarea.Blink
	}
	m.editor.Blur()
	return m.picker.Init()
}

func (m *model) selectFile(path string) {
	file, err := intake.Stat(path)
	if err != nil {
		log.Printf("[intake] stat %s: %v", path, err)
		m.errorMessage = submission.MessageFor(&intake.ReadError{Path: path, Err: err})
		return
	}
	if err := m.acquirer.SelectFile(file); err != nil {
		log.Printf("[intake] rejected %s: %v", file.Name, err)
		m.errorMessage = submission.MessageFor(err)
		return
	}
	log.Printf("[intake] selected %s (%s, %d bytes)", file.Name, file.DeclaredType, file.Size)
	m.errorMessage = ""
}

// submit validates the form and starts one attempt. Invalid input never
// leaves the form and never reaches the service.
func (m *model) submit() tea.Cmd {
	if m.acquirer.Mode() == intake.ModeText {
		m.acquirer.SetText(m.editor.Value())
	}
	if err := m.acquirer.Validate(); err != nil {
		m.errorMessage = submission.MessageFor(err)
		return nil
	}
	if m.config.Client == nil {
		m.errorMessage = "Nenhum backend configurado."
		return nil
	}
	m.errorMessage = ""
	m.infoMessage = ""
	if m.acquirer.Mode() == intake.ModeFile {
		m.extracting = true
		job := m.jobs.Start(jobKindExtract, extractJob(*m.acquirer, m.config.Extractor))
		return tea.Batch(m.spinner.Tick, job)
	}
	return m.dispatch(m.acquirer.Text())
}

// handleExtractDone submits the text read from the file, or records the read
// failure without entering loading.
func (m *model) handleExtractDone(msg extractDoneMsg) tea.Cmd {
	if !m.extracting {
		return nil
	}
	m.extracting = false
	m.infoMessage = ""
	if msg.err != nil {
		if _, err := m.controller.Fail(msg.err); err != nil {
			log.Printf("[submit] read failure dropped: %v", err)
		}
		return nil
	}
	return m.dispatch(msg.text)
}

// dispatch enters loading and sends resolved text to the service.
func (m *model) dispatch(text string) tea.Cmd {
	attempt, err := m.controller.Begin()
	if err != nil {
		if errors.Is(err, submission.ErrBusy) {
			m.infoMessage = "Análise em andamento, aguarde o resultado."
		}
		return nil
	}
	m.attempt = attempt
	m.editor.Blur()
	job := m.jobs.Start(jobKindSubmit, submitJob(m.controller, attempt, text))
	return tea.Batch(m.spinner.Tick, job)
}

func (m *model) handleSubmissionDone(msg submissionDoneMsg) {
	if msg.attempt != m.attempt {
		return
	}
	switch state := m.controller.State().(type) {
	case submission.Success:
		m.presenter = present.New(state.Result, present.WithClipboard(m.config.Clipboard))
		m.acquirer.Clear()
		m.editor.Reset()
		m.viewport.GotoTop()
		m.markViewportDirty()
		m.infoMessage = ""
	case submission.Failed:
		m.infoMessage = ""
	}
}

func (m *model) copyReply() tea.Cmd {
	if m.presenter == nil {
		return nil
	}
	if err := m.presenter.CopySuggestedReply(); err != nil {
		log.Printf("[present] copy failed: %v", err)
		m.errorMessage = err.Error()
		return nil
	}
	m.errorMessage = ""
	m.markViewportDirty()
	return copyAckExpiryCmd()
}

// newAnalysis drops the outcome and the input and returns to an empty form.
func (m *model) newAnalysis() tea.Cmd {
	if err := m.controller.Reset(); err != nil {
		return nil
	}
	m.presenter = nil
	m.acquirer.Clear()
	m.editor.Reset()
	m.viewport.SetContent("")
	m.errorMessage = ""
	m.infoMessage = ""
	if m.acquirer.Mode() == intake.ModeText {
		m.editor.Focus()
		return textarea.Blink
	}
	return nil
}

func (m *model) healthCmd() tea.Cmd {
	if m.config.Client == nil {
		return nil
	}
	return m.jobs.Start(jobKindHealth, healthJob(m.config.Client))
}

func (m *model) applyLayout() {
	m.viewport.Width = m.layout.viewportWidth
	m.viewport.Height = m.layout.viewportHeight
	m.editor.SetWidth(m.layout.viewportWidth)
	m.editor.SetHeight(m.layout.editorHeight)
	m.picker.Height = m.layout.pickerHeight
	m.markViewportDirty()
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if m.viewportDirty {
		m.refreshViewport()
	}
}

func (m *model) refreshViewport() {
	m.viewportDirty = false
	if m.presenter == nil {
		m.viewport.SetContent("")
		return
	}
	prevYOffset := m.viewport.YOffset
	m.viewport.SetContent(m.buildResultContent())
	m.viewport.SetYOffset(prevYOffset)
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}
