package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/lmittmann/tint"

	"attendq/cmd"
	"attendq/internal/config"
	"attendq/internal/dataset"
	"attendq/internal/pipeline"
)

const (
	maxResults = 100
)

var logger *slog.Logger

// setupLogger points the application logger at a JSON log file, err.log in
// the data directory unless cfg.LogFile says otherwise.
func setupLogger(cfg config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = filepath.Join(cfg.DataDir, "err.log")
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:     level,
		AddSource: true, // Include file:line information
	})

	logger = slog.New(handler)
	slog.SetDefault(logger)
	logger.Info("Application started", "version", "1.0", "data_dir", cfg.DataDir)

	return nil
}

// setupConsoleLogger switches logging to colored console output for
// long-running server mode.
func setupConsoleLogger(cfg config.Config) {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)
}

// renderMarkdown renders markdown content with glamour for beautiful display
func renderMarkdown(content string, width int) (string, error) {
	// Account for borders, padding, and glamour's internal gutter
	const glamourGutter = 2
	const borderWidth = 4 // 2 for border characters, 2 for padding

	renderWidth := width - borderWidth - glamourGutter
	if renderWidth < 40 {
		renderWidth = 40 // Minimum width for readable content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return "", err
	}

	return rendered, nil
}

type view int

const (
	chatView view = iota
	studentsView
	detailView
	savePromptView
)

// exchange is one question and its answer in the chat transcript.
type exchange struct {
	Question   string
	Expression string
	Answer     string
	OK         bool
}

type model struct {
	app           *App
	currentView   view
	chatInput     textinput.Model
	searchInput   textinput.Model
	saveInput     textinput.Model
	viewport      viewport.Model
	transcript    []exchange
	students      []Student
	list          list.Model
	selectedItem  *Student
	days          []DaySummary
	classes       []string
	width         int
	height        int
	err           error
	asking        bool
	loading       bool
	saveSuccess   string
	viewportReady bool
}

type studentItem struct {
	student Student
}

func (i studentItem) Title() string {
	return i.student.Name
}

func (i studentItem) Description() string {
	return fmt.Sprintf("Roll %s | Present %d/%d | %.1f%%",
		i.student.Roll,
		i.student.Present,
		i.student.ClassDays,
		i.student.Rate,
	)
}

func (i studentItem) FilterValue() string {
	return i.student.Name + " " + i.student.Roll
}

type answerMsg struct {
	state pipeline.State
}

type searchMsg struct {
	students []Student
	err      error
}

type studentMsg struct {
	student *Student
	err     error
}

type saveMsg struct {
	filename string
	err      error
}

func askQuestion(app *App, question string) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{state: app.Ask(context.Background(), question)}
	}
}

func searchStudents(db *DB, query string) tea.Cmd {
	return func() tea.Msg {
		students, err := db.SearchStudents(query, maxResults)
		return searchMsg{students: students, err: err}
	}
}

func loadStudent(db *DB, roll string) tea.Cmd {
	return func() tea.Msg {
		student, err := db.GetStudent(roll)
		return studentMsg{student: student, err: err}
	}
}

// transcriptMarkdown renders the chat as markdown. Answers are fenced so
// their tables keep alignment.
func transcriptMarkdown(transcript []exchange) string {
	if len(transcript) == 0 {
		return "_Ask a question about attendance, e.g. \"Who was absent yesterday?\"_\n"
	}

	var b strings.Builder
	for _, e := range transcript {
		b.WriteString("**You:** " + e.Question + "\n\n")
		if e.Expression != "" {
			b.WriteString("Query: `" + strings.ReplaceAll(e.Expression, "`", "'") + "`\n\n")
		}
		b.WriteString("```\n" + e.Answer + "\n```\n\n")
	}
	return b.String()
}

func saveTranscript(transcript []exchange, filename string) tea.Cmd {
	return func() tea.Msg {
		content := "# attendq transcript\n\n" + transcriptMarkdown(transcript)
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			return saveMsg{err: err}
		}
		return saveMsg{filename: filename}
	}
}

func initialModel(app *App) model {
	ci := textinput.New()
	ci.Placeholder = "Ask about attendance (e.g. How many students were present yesterday?)"
	ci.Focus()
	ci.CharLimit = 300
	ci.Width = 70

	ti := textinput.New()
	ti.Placeholder = "Search students by name or roll number..."
	ti.CharLimit = 100
	ti.Width = 60

	si := textinput.New()
	si.Placeholder = "Enter filename (e.g., transcript.md)"
	si.CharLimit = 200
	si.Width = 60

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Students"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	m := model{
		app:         app,
		currentView: chatView,
		chatInput:   ci,
		searchInput: ti,
		saveInput:   si,
		viewport:    vp,
		list:        l,
		students:    []Student{},
	}

	if app != nil {
		days, err := app.db.DailySummary()
		if err != nil {
			if logger != nil {
				logger.Warn("Daily summary unavailable", "error", err)
			}
		}
		m.days = days

		classes, err := app.Classes()
		if err != nil && logger != nil {
			logger.Warn("Class list unavailable", "error", err)
		}
		m.classes = classes
	}

	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-14)

		// Reserve lines for the input box, status and help text
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 8
		m.viewportReady = true

		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch m.currentView {
		case studentsView:
			return m.handleStudentsViewKeys(msg)
		case detailView:
			return m.handleDetailViewKeys(msg)
		case savePromptView:
			return m.handleSavePromptKeys(msg)
		}
		return m.handleChatViewKeys(msg)

	case tea.MouseMsg:
		if m.currentView == chatView || m.currentView == detailView {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case answerMsg:
		m.asking = false
		m.transcript = append(m.transcript, exchange{
			Question:   msg.state.Original,
			Expression: msg.state.Expression,
			Answer:     msg.state.Answer,
			OK:         msg.state.Result.OK(),
		})
		if logger != nil {
			logger.Info("Question answered in TUI", "request_id", msg.state.ID, "ok", msg.state.Result.OK())
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case searchMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			if logger != nil {
				logger.Error("Student search failed", "error", msg.err, "query", m.searchInput.Value())
			}
			return m, nil
		}

		m.err = nil
		m.students = msg.students
		items := make([]list.Item, len(msg.students))
		for i, student := range msg.students {
			items[i] = studentItem{student: student}
		}
		m.list.SetItems(items)
		if logger != nil {
			logger.Info("Search completed", "results_count", len(msg.students), "query", m.searchInput.Value())
		}
		return m, nil

	case studentMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selectedItem = msg.student
		m.currentView = detailView
		m.viewport.GotoTop()
		m.refreshViewport()
		return m, nil

	case saveMsg:
		m.currentView = chatView
		if msg.err != nil {
			m.err = fmt.Errorf("save failed: %w", msg.err)
			if logger != nil {
				logger.Error("Failed to save transcript", "error", msg.err, "filename", m.saveInput.Value())
			}
			return m, nil
		}
		m.saveSuccess = fmt.Sprintf("Saved to: %s", msg.filename)
		m.saveInput.SetValue("")
		if logger != nil {
			logger.Info("Transcript saved", "filename", msg.filename, "exchanges", len(m.transcript))
		}
		return m, nil
	}

	switch m.currentView {
	case chatView:
		var cmd tea.Cmd
		m.chatInput, cmd = m.chatInput.Update(msg)
		cmds = append(cmds, cmd)
	case studentsView:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)

		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleChatViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		question := strings.TrimSpace(m.chatInput.Value())
		if question == "" || m.asking || m.app == nil {
			return m, nil
		}
		m.asking = true
		m.err = nil
		m.saveSuccess = ""
		m.chatInput.SetValue("")
		return m, askQuestion(m.app, question)

	case tea.KeyTab:
		m.currentView = studentsView
		m.chatInput.Blur()
		m.searchInput.Focus()
		m.err = nil
		if m.app != nil && len(m.students) == 0 {
			m.loading = true
			return m, tea.Batch(textinput.Blink, searchStudents(m.app.db, ""))
		}
		return m, textinput.Blink

	case tea.KeyCtrlY:
		if n := len(m.transcript); n > 0 {
			_ = clipboard.WriteAll(m.transcript[n-1].Answer)
		}
		return m, nil

	case tea.KeyCtrlW:
		if len(m.transcript) > 0 {
			m.currentView = savePromptView
			m.saveInput.Focus()
			m.err = nil
			m.saveSuccess = ""
			m.saveInput.SetValue("attendq_transcript.md")
			return m, textinput.Blink
		}
		return m, nil

	case tea.KeyCtrlS:
		if m.app == nil || m.asking || len(m.classes) == 0 {
			return m, nil
		}
		// Cycle through classes, starting with every student
		classes := append([]string{""}, m.classes...)
		next := classes[0]
		for i, c := range classes {
			if c == m.app.Class() {
				next = classes[(i+1)%len(classes)]
				break
			}
		}
		if err := m.app.SetClass(next); err != nil {
			m.err = err
			return m, nil
		}
		// Answers about the previous class no longer apply.
		m.transcript = nil
		m.err = nil
		m.saveSuccess = ""
		m.students = []Student{}
		m.list.SetItems(nil)
		days, err := m.app.db.DailySummary()
		if err != nil && logger != nil {
			logger.Warn("Daily summary unavailable", "error", err, "class", next)
		}
		m.days = days
		if logger != nil {
			logger.Info("Class filter changed", "class", next)
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m model) handleStudentsViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.currentView = chatView
		m.searchInput.Blur()
		m.chatInput.Focus()
		m.err = nil
		m.refreshViewport()
		return m, textinput.Blink

	case tea.KeyEnter:
		if m.app == nil {
			return m, nil
		}
		if m.searchInput.Focused() {
			m.loading = true
			return m, searchStudents(m.app.db, m.searchInput.Value())
		}
		if item, ok := m.list.SelectedItem().(studentItem); ok {
			m.loading = true
			return m, loadStudent(m.app.db, item.student.Roll)
		}
		return m, nil

	case tea.KeyTab:
		if m.searchInput.Focused() {
			m.searchInput.Blur()
		} else {
			m.searchInput.Focus()
		}
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	if m.searchInput.Focused() {
		m.searchInput, cmd = m.searchInput.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m model) handleDetailViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.currentView = studentsView
		m.selectedItem = nil
		m.err = nil
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyCtrlY:
		if m.selectedItem != nil {
			_ = clipboard.WriteAll(m.selectedItem.Roll)
		}
		return m, nil

	// Scrolling keys
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleSavePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.currentView = chatView
		m.saveInput.SetValue("")
		return m, nil

	case tea.KeyEnter:
		filename := m.saveInput.Value()
		if filename == "" {
			m.err = fmt.Errorf("filename cannot be empty")
			return m, nil
		}
		return m, saveTranscript(m.transcript, filename)
	}

	var cmd tea.Cmd
	m.saveInput, cmd = m.saveInput.Update(msg)
	return m, cmd
}

// refreshViewport loads the content for the current view into the viewport.
func (m *model) refreshViewport() {
	if !m.viewportReady {
		return
	}
	switch m.currentView {
	case chatView:
		content := transcriptMarkdown(m.transcript)
		if rendered, err := renderMarkdown(content, m.width); err == nil {
			content = rendered
		}
		m.viewport.SetContent(content)
	case detailView:
		if m.selectedItem != nil {
			m.viewport.SetContent(m.detailViewContent())
		}
	}
}

func (m model) View() string {
	switch m.currentView {
	case studentsView:
		return m.studentsViewRender()
	case detailView:
		return m.detailViewRender()
	case savePromptView:
		return m.savePromptView()
	}
	return m.chatViewRender()
}

func (m model) chatViewRender() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62"))

	b.WriteString(headerStyle.Render("📋 attendq"))
	if m.app != nil {
		s := m.app.Schema()
		info := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
			Render(fmt.Sprintf("  %d students | %d class days | %s … %s", s.Students, s.ClassDays, s.StartDate, s.EndDate))
		b.WriteString(info)
		if len(m.classes) > 0 {
			class := "All classes"
			if c := m.app.Class(); c != "" {
				class = "Class " + c
			}
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render("  [" + class + "]"))
		}
	}
	b.WriteString("\n")

	if m.viewportReady {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)
	b.WriteString(inputStyle.Render(m.chatInput.View()))
	b.WriteString("\n")

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("226")).
		Bold(true)

	if m.asking {
		b.WriteString(statusStyle.Render("⏳ Thinking..."))
		b.WriteString("\n")
	}

	if m.app != nil && !m.app.LLMAvailable() {
		warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		b.WriteString(warnStyle.Render("⚠ No language model configured (set ANTHROPIC_API_KEY)"))
		b.WriteString("\n")
	}

	if m.saveSuccess != "" {
		successStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
		b.WriteString(successStyle.Render("✓ " + m.saveSuccess))
		b.WriteString("\n")
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	help := "Enter: Ask | ↑/↓/PgUp/PgDn: Scroll | Tab: Students | Ctrl+Y: Copy answer | Ctrl+W: Save | Esc/Ctrl+C: Quit"
	if len(m.classes) > 0 {
		help = "Enter: Ask | Tab: Students | Ctrl+S: Class | Ctrl+Y: Copy answer | Ctrl+W: Save | Esc/Ctrl+C: Quit"
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m model) studentsViewRender() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	b.WriteString(headerStyle.Render("🎓 Students"))
	b.WriteString("\n\n")

	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	b.WriteString(inputStyle.Render(m.searchInput.View()))
	b.WriteString("\n\n")

	if len(m.days) > 0 {
		recent := m.days
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		b.WriteString(DailyChart(recent, 20))
		b.WriteString("\n\n")
	}

	if m.loading {
		b.WriteString("Loading...\n")
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v\n", m.err)))
	}

	if len(m.students) > 0 {
		b.WriteString(m.list.View())
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)

	help := "\nTab: Switch focus | Enter: Search/Select | Esc: Back to chat | Ctrl+C: Quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m model) detailViewContent() string {
	if m.selectedItem == nil || m.app == nil {
		return "No student selected"
	}
	return StudentCard(m.selectedItem, m.app.Dataset().DateColumns())
}

func (m model) detailViewRender() string {
	if !m.viewportReady || m.selectedItem == nil {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.viewport.TotalLineCount() > m.viewport.Height {
		scrollPercent := int(m.viewport.ScrollPercent() * 100)
		scrollInfo := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render(fmt.Sprintf("─── %d%% ───", scrollPercent))
		b.WriteString(scrollInfo)
		b.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	b.WriteString(helpStyle.Render("↑/↓/PgUp/PgDn: Scroll | Ctrl+Y: Copy roll number | Esc: Back"))

	return b.String()
}

func (m model) savePromptView() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("💾 Save Transcript"))
	b.WriteString("\n\n")

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(infoStyle.Render(fmt.Sprintf("Saving %d question(s) and answers", len(m.transcript))))
	b.WriteString("\n\n")

	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	b.WriteString("Filename: ")
	b.WriteString(inputStyle.Render(m.saveInput.View()))
	b.WriteString("\n\n")
	b.WriteString(infoStyle.Render("Format: Markdown"))
	b.WriteString("\n\n")

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v\n", m.err)))
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)

	b.WriteString(helpStyle.Render("Enter: Save | Esc: Cancel | Ctrl+C: Quit"))

	return b.String()
}

// openApp makes sure there is data to load, then opens the store and builds
// the pipeline.
func openApp(cfg config.Config, interactive bool) (*App, error) {
	today := cfg.Clock().Now()
	if err := EnsureDataFiles(cfg.DataDir, cfg.DataURL, today, interactive); err != nil {
		return nil, err
	}

	db, err := NewDB(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app, err := NewApp(context.Background(), cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

// launchTUI starts the interactive TUI application
func launchTUI(cfg config.Config) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directory: %v\n", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
	}

	app, err := openApp(cfg, true)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to start", "error", err, "data_dir", cfg.DataDir)
		}
		fmt.Fprintf(os.Stderr, "\n❌ %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	s := app.Schema()
	fmt.Println("\n📊 attendq Configuration:")
	fmt.Printf("   • Register: %d students, %d class days (%s … %s)\n", s.Students, s.ClassDays, s.StartDate, s.EndDate)
	fmt.Printf("   • Engine: %s | Prompt style: %s\n", cfg.Engine, cfg.PromptStyle)
	if app.LLMAvailable() {
		fmt.Printf("   • Language model: ✓ %s via %s\n", cfg.Model, cfg.Provider)
	} else {
		fmt.Println("   • Language model: ✗ Not configured (set ANTHROPIC_API_KEY)")
	}
	fmt.Println()

	p := tea.NewProgram(
		initialModel(app),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// initApp initializes the app for CLI commands
func initApp(cfg config.Config) (cmd.AppInterface, func(), error) {
	if err := setupLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logger: %v\n", err)
	}

	app, err := openApp(cfg, false)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		app.Close()
	}

	return &appAdapter{app: app}, cleanup, nil
}

// startServer runs the HTTP server for the serve command
func startServer(a cmd.AppInterface, cfg config.Config) error {
	adapter, ok := a.(*appAdapter)
	if !ok {
		return fmt.Errorf("unsupported app type %T", a)
	}
	setupConsoleLogger(cfg)
	return StartServer(ServerConfig{Addr: cfg.Addr, App: adapter.app})
}

// appAdapter adapts *App to cmd.AppInterface
type appAdapter struct {
	app *App
}

func (a *appAdapter) Ask(ctx context.Context, question string) pipeline.State {
	return a.app.Ask(ctx, question)
}

func (a *appAdapter) Eval(ctx context.Context, expression string) (any, error) {
	return a.app.Eval(ctx, expression)
}

func (a *appAdapter) Schema() dataset.Summary {
	return a.app.Schema()
}

func (a *appAdapter) Classes() ([]string, error) {
	return a.app.Classes()
}

func (a *appAdapter) SearchStudents(query string, limit int) ([]cmd.StudentData, error) {
	students, err := a.app.db.SearchStudents(query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]cmd.StudentData, len(students))
	for i, s := range students {
		out[i] = convertStudentToCmd(s)
	}
	return out, nil
}

func (a *appAdapter) GetStudent(roll string) (*cmd.StudentData, error) {
	student, err := a.app.db.GetStudent(roll)
	if err != nil {
		return nil, err
	}
	data := convertStudentToCmd(*student)
	return &data, nil
}

func (a *appAdapter) DailySummary() ([]cmd.DaySummaryData, error) {
	days, err := a.app.db.DailySummary()
	if err != nil {
		return nil, err
	}
	out := make([]cmd.DaySummaryData, len(days))
	for i, d := range days {
		out[i] = cmd.DaySummaryData(d)
	}
	return out, nil
}

func (a *appAdapter) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	return a.app.db.ExecuteQuery(query)
}

func (a *appAdapter) Close() error {
	return a.app.Close()
}

// convertStudentToCmd converts Student to cmd.StudentData
func convertStudentToCmd(s Student) cmd.StudentData {
	return cmd.StudentData{
		Roll:       s.Roll,
		Name:       s.Name,
		Class:      s.Class,
		Present:    s.Present,
		ClassDays:  s.ClassDays,
		Rate:       s.Rate,
		Attendance: s.Attendance,
	}
}

func main() {
	// Set up cmd package callbacks
	cmd.LaunchTUI = launchTUI
	cmd.InitApp = initApp
	cmd.StartServer = startServer

	// Execute the CLI
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
