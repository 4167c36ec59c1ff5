package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"clonewatch/internal/api"
	"clonewatch/internal/model"
	"clonewatch/internal/preview"
	"clonewatch/internal/track"
)

type watchMode int

const (
	watchModeBrowse watchMode = iota
	watchModeSubmit
	watchModeDeleteConfirm
)

var (
	watchTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	watchMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	watchErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	watchOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	watchActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	watchPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	watchSelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

func severityStyle(sev model.Severity) lipgloss.Style {
	switch sev {
	case model.SeverityOK:
		return watchOKStyle
	case model.SeverityError:
		return watchErrorStyle
	case model.SeverityActive:
		return watchActiveStyle
	default:
		return watchMutedStyle
	}
}

type watchModel struct {
	client *api.Client
	store  *track.Store
	ctrl   *track.Controller

	snap    track.Snapshot
	cursor  int
	width   int
	height  int
	mode    watchMode
	input   textinput.Model
	spin    spinner.Model
	confirm string // job id pending delete confirmation

	statusMessage string
}

type historyMsg struct {
	jobs []model.Job
	err  error
}

type submitMsg struct {
	jobID string
	err   error
}

type deleteMsg struct {
	jobID string
	err   error
}

type resultMsg struct {
	res model.JobResult
	err error
}

type exportMsg struct {
	message string
	err     error
}

type storeTickMsg struct{}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	apiFlag := fs.String("api", api.BaseURLFromEnv(), "backend base URL")
	interval := fs.Duration("interval", track.DefaultInterval, "delay between status polls")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("watch requires an interactive terminal (TTY)")
	}

	client := api.NewClient(*apiFlag)
	store := track.NewStore()
	ctrl := track.NewController(client, store, track.Options{Interval: *interval})
	defer ctrl.Stop()

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "example.com"
	input.CharLimit = 1024

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := watchModel{
		client: client,
		store:  store,
		ctrl:   ctrl,
		input:  input,
		spin:   spin,
		mode:   watchModeBrowse,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("watch requires an interactive terminal (TTY)")
		}
		return err
	}
	if fm, ok := finalModel.(watchModel); ok {
		saveHistoryCache(client.BaseURL(), fm.snap.History)
	}
	return nil
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.loadHistoryCmd(), m.spin.Tick, storeTickCmd())
}

func storeTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return storeTickMsg{}
	})
}

func (m watchModel) loadHistoryCmd() tea.Cmd {
	client := m.client
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		jobs, err := client.ListJobs(ctx)
		if err != nil {
			return historyMsg{err: err}
		}
		store.SetHistory(jobs)
		return historyMsg{jobs: jobs}
	}
}

func (m watchModel) submitCmd(rawURL string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		jobID, err := client.CreateJob(ctx, rawURL, api.DefaultCloneOptions())
		return submitMsg{jobID: jobID, err: err}
	}
}

func (m watchModel) deleteCmd(jobID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		err := client.DeleteJob(ctx, jobID)
		return deleteMsg{jobID: jobID, err: err}
	}
}

func (m watchModel) selectResultCmd(jobID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		res, err := client.FetchResult(ctx, jobID)
		return resultMsg{res: res, err: err}
	}
}

func exportCmd(res model.JobResult, action string, remoteURL string) tea.Cmd {
	return func() tea.Msg {
		switch action {
		case "save":
			written, err := preview.Save(res, "")
			if err != nil {
				return exportMsg{err: err}
			}
			return exportMsg{message: "saved " + written}
		case "copy":
			if err := preview.Copy(res); err != nil {
				return exportMsg{err: err}
			}
			return exportMsg{message: fmt.Sprintf("copied %d bytes to clipboard", len(res.GeneratedHTML))}
		case "preview":
			if err := preview.NewRenderer(res).Open(); err != nil {
				return exportMsg{err: err}
			}
			return exportMsg{message: "opened sanitized preview"}
		case "remote":
			if err := preview.OpenInBrowser(remoteURL); err != nil {
				return exportMsg{err: err}
			}
			return exportMsg{message: "opened " + remoteURL}
		}
		return exportMsg{err: fmt.Errorf("unknown export action %q", action)}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = clampInt(m.width-8, 20, 120)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case storeTickMsg:
		m.snap = m.store.Snapshot()
		m.clampCursor()
		return m, storeTickCmd()
	case historyMsg:
		if msg.err != nil {
			m.statusMessage = "error: " + msg.err.Error()
			return m, nil
		}
		m.snap = m.store.Snapshot()
		m.clampCursor()
		return m, nil
	case submitMsg:
		if msg.err != nil {
			m.statusMessage = "error: " + msg.err.Error()
			return m, nil
		}
		m.statusMessage = "job submitted: " + msg.jobID
		m.ctrl.Start(msg.jobID)
		return m, nil
	case deleteMsg:
		m.mode = watchModeBrowse
		m.confirm = ""
		if msg.err != nil {
			m.statusMessage = "error: " + msg.err.Error()
			return m, nil
		}
		m.store.RemoveJob(msg.jobID)
		m.snap = m.store.Snapshot()
		m.clampCursor()
		m.statusMessage = "deleted job: " + msg.jobID
		return m, m.loadHistoryCmd()
	case resultMsg:
		if msg.err != nil {
			m.statusMessage = "error: " + msg.err.Error()
			return m, nil
		}
		m.ctrl.Stop()
		m.store.SetResult(msg.res)
		m.snap = m.store.Snapshot()
		m.statusMessage = "viewing result for " + msg.res.JobID
		return m, nil
	case exportMsg:
		if msg.err != nil {
			m.statusMessage = "error: " + msg.err.Error()
		} else {
			m.statusMessage = msg.message
		}
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case watchModeSubmit:
		return m.updateSubmit(keyMsg)
	case watchModeDeleteConfirm:
		return m.updateDeleteConfirm(keyMsg)
	default:
		return m.updateBrowse(keyMsg)
	}
}

func (m *watchModel) clampCursor() {
	total := m.totalRows()
	if total <= 0 {
		m.cursor = 0
	} else if m.cursor > total-1 {
		m.cursor = total - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// totalRows is the history list plus the trailing "[+] New Clone" row.
func (m watchModel) totalRows() int {
	return len(m.snap.History) + 1
}

func (m watchModel) selectedJob() (model.Job, bool) {
	if m.cursor >= 0 && m.cursor < len(m.snap.History) {
		return m.snap.History[m.cursor], true
	}
	return model.Job{}, false
}

func (m watchModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.ctrl.Stop()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < m.totalRows()-1 {
			m.cursor++
		}
		return m, nil
	case "n":
		m.mode = watchModeSubmit
		m.input.SetValue("")
		m.input.Focus()
		m.statusMessage = ""
		return m, nil
	case "r":
		m.statusMessage = "refreshing history..."
		return m, m.loadHistoryCmd()
	case "esc":
		if m.snap.State == track.StateIdle {
			return m, nil
		}
		m.ctrl.Stop()
		m.store.Clear()
		m.snap = m.store.Snapshot()
		m.statusMessage = "view cleared"
		return m, nil
	case "enter":
		if m.cursor == len(m.snap.History) {
			m.mode = watchModeSubmit
			m.input.SetValue("")
			m.input.Focus()
			m.statusMessage = ""
			return m, nil
		}
		job, ok := m.selectedJob()
		if !ok {
			return m, nil
		}
		if job.Status != model.StatusCompleted {
			p := model.PresentStatus(job.Status)
			m.statusMessage = fmt.Sprintf("job is %s; only completed jobs have results", strings.ToLower(p.Label))
			return m, nil
		}
		m.statusMessage = "fetching result..."
		return m, m.selectResultCmd(job.ID)
	case "d":
		job, ok := m.selectedJob()
		if !ok {
			m.statusMessage = "select a job to delete"
			return m, nil
		}
		m.mode = watchModeDeleteConfirm
		m.confirm = job.ID
		return m, nil
	case "s", "c", "p":
		action := map[string]string{"s": "save", "c": "copy", "p": "preview"}[msg.String()]
		res, ok := m.exportableResult()
		if !ok {
			m.statusMessage = "view a completed result first (enter on a completed job)"
			return m, nil
		}
		return m, exportCmd(res, action, "")
	case "o":
		job, ok := m.selectedJob()
		if !ok {
			if m.snap.Result != nil {
				job = model.Job{ID: m.snap.Result.JobID}
			} else {
				m.statusMessage = "select a job to open"
				return m, nil
			}
		}
		return m, exportCmd(model.JobResult{}, "remote", m.client.PreviewURL(job.ID))
	}
	return m, nil
}

// exportableResult is the currently viewed result, if any. Export always
// uses the raw generated HTML held by the store.
func (m watchModel) exportableResult() (model.JobResult, bool) {
	if m.snap.State == track.StateViewing && m.snap.Result != nil {
		return *m.snap.Result, true
	}
	return model.JobResult{}, false
}

func (m watchModel) updateSubmit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.mode = watchModeBrowse
		m.statusMessage = "submit cancelled"
		return m, nil
	case "enter":
		raw := strings.TrimSpace(m.input.Value())
		if _, err := api.NormalizeURL(raw); err != nil {
			m.statusMessage = "error: " + err.Error()
			return m, nil
		}
		m.mode = watchModeBrowse
		m.statusMessage = "submitting " + raw + "..."
		return m, m.submitCmd(raw)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m watchModel) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "n":
		m.mode = watchModeBrowse
		m.confirm = ""
		m.statusMessage = "delete cancelled"
		return m, nil
	case "y", "enter":
		id := strings.TrimSpace(m.confirm)
		if id == "" {
			m.mode = watchModeBrowse
			m.statusMessage = "delete cancelled"
			return m, nil
		}
		return m, m.deleteCmd(id)
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	switch m.mode {
	case watchModeSubmit:
		return m.viewSubmit()
	case watchModeDeleteConfirm:
		return m.viewDeleteConfirm()
	default:
		return m.viewBrowse()
	}
}

func (m watchModel) viewBrowse() string {
	header := watchTitleStyle.Render("clonewatch") + "\n" +
		watchMutedStyle.Render("up/down: move | enter: view result | n: new clone | d: delete | r: refresh | esc: clear view | s: save | c: copy | p: preview | o: open remote | q: quit")

	if m.width < 90 {
		list := m.renderListPanel(m.width)
		details := m.renderDetailsPanel(m.width)
		body := lipgloss.JoinVertical(lipgloss.Left, list, details)
		return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusLine(m.width))
	}

	leftW := clampInt(m.width/2, 34, 60)
	rightW := m.width - leftW - 1
	list := m.renderListPanel(leftW)
	details := m.renderDetailsPanel(rightW)
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, details)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusLine(m.width))
}

func (m watchModel) renderListPanel(width int) string {
	total := m.totalRows()
	maxRows := clampInt(m.height-12, 4, 18)
	start, end := listWindow(total, m.cursor, maxRows)

	lines := make([]string, 0, maxRows+3)
	if len(m.snap.History) == 0 {
		lines = append(lines, watchMutedStyle.Render("No jobs yet."))
		lines = append(lines, watchMutedStyle.Render("Select '[+] New Clone' and press Enter."))
	}
	if start > 0 {
		lines = append(lines, watchMutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		line := ""
		if i == len(m.snap.History) {
			line = "[+] New Clone"
		} else {
			job := m.snap.History[i]
			p := model.PresentStatus(job.Status)
			line = fmt.Sprintf("%s %s  %s", p.Icon, p.Label, job.URL)
		}
		line = truncateRunes(line, maxInt(width-6, 10))
		if i == m.cursor {
			line = watchSelStyle.Width(maxInt(width-4, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < total {
		lines = append(lines, watchMutedStyle.Render("..."))
	}

	return watchPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m watchModel) renderDetailsPanel(width int) string {
	lines := m.detailLines()
	for i := range lines {
		lines[i] = wrapOrTrim(lines[i], maxInt(width-6, 12))
	}
	return watchPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m watchModel) detailLines() []string {
	switch m.snap.State {
	case track.StateTracking:
		return m.trackingLines()
	case track.StateViewing:
		if m.snap.Result != nil {
			return m.resultLines(*m.snap.Result)
		}
	}

	if job, ok := m.selectedJob(); ok {
		p := model.PresentStatus(job.Status)
		lines := []string{
			"Job Details",
			"",
			kv("job", job.ID),
			kv("url", job.URL),
			kv("status", severityStyle(p.Severity).Render(p.Icon+" "+p.Label)),
		}
		if job.Status == model.StatusFailed {
			lines = append(lines, kv("error", job.ShortError(80)))
		}
		if job.Status == model.StatusCompleted {
			lines = append(lines, "", "Press Enter to fetch and view the result.")
		}
		return lines
	}

	return []string{
		"New Clone",
		"",
		"Press Enter or n to submit a website URL.",
		"The job is tracked live until it completes.",
	}
}

func (m watchModel) trackingLines() []string {
	job := m.snap.Job
	p := model.PresentStatus(job.Status)

	lines := []string{
		"Live Job",
		"",
		kv("job", job.ID),
		kv("url", job.URL),
	}
	status := severityStyle(p.Severity).Render(p.Icon + " " + p.Label)
	if !model.IsTerminal(job.Status) {
		status = m.spin.View() + " " + status
	}
	lines = append(lines, kv("status", status))
	lines = append(lines, kv("progress", fmt.Sprintf("%d%%", job.Progress)))
	lines = append(lines, kv("detail", p.Description))
	if job.Status == model.StatusFailed {
		lines = append(lines, kv("error", job.ShortError(80)))
	}
	if m.snap.TrackErr != nil {
		lines = append(lines, watchErrorStyle.Render("tracking stopped: "+m.snap.TrackErr.Error()))
	}
	return lines
}

func (m watchModel) resultLines(res model.JobResult) []string {
	lines := []string{
		"Result",
		"",
		kv("job", res.JobID),
		kv("url", res.URL),
		kv("duration", formatDuration(res.ProcessingDuration())),
		kv("html_size", fmt.Sprintf("%d bytes", len(res.GeneratedHTML))),
	}
	if sd := res.ScrapedData; sd != nil {
		if sd.Title != "" {
			lines = append(lines, kv("title", sd.Title))
		}
		if len(sd.ColorPalette) > 0 {
			lines = append(lines, kv("colors", strings.Join(firstN(sd.ColorPalette, 5), " ")))
		}
		if len(sd.Fonts) > 0 {
			lines = append(lines, kv("fonts", strings.Join(firstN(sd.Fonts, 3), ", ")))
		}
	}
	lines = append(lines, "", "s: save raw | c: copy raw | p: sanitized preview | o: open remote")
	return lines
}

func (m watchModel) renderStatusLine(width int) string {
	msg := strings.TrimSpace(m.statusMessage)
	if msg == "" {
		msg = "Tip: n submits a new clone; enter on a completed job shows its result."
	}
	style := watchMutedStyle
	switch {
	case strings.HasPrefix(strings.ToLower(msg), "error:"):
		style = watchErrorStyle
	case strings.HasPrefix(strings.ToLower(msg), "saved"),
		strings.HasPrefix(strings.ToLower(msg), "copied"),
		strings.HasPrefix(strings.ToLower(msg), "deleted"):
		style = watchOKStyle
	}
	return style.Width(width).Render(truncateRunes(msg, maxInt(width-2, 10)))
}

func (m watchModel) viewSubmit() string {
	header := watchTitleStyle.Render("New Clone")
	hints := watchMutedStyle.Render("enter: submit | esc: cancel")
	label := "Website URL (scheme optional; https:// is assumed)"
	panel := watchPanelStyle.Width(maxInt(m.width, 40)).Render(label + "\n\n" + m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func (m watchModel) viewDeleteConfirm() string {
	text := fmt.Sprintf(
		"Delete job '%s'?\n\nThis removes it from server history.\nAlready-saved exports are untouched.\n\nPress y or Enter to confirm, n or Esc to cancel.",
		m.confirm,
	)
	boxW := clampInt(m.width-8, 36, 80)
	boxH := clampInt(m.height-6, 9, 14)
	panel := watchPanelStyle.Width(boxW).Height(boxH).Render(text)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
