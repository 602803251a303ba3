package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/clip"
	"github.com/jwulff/jobwatch/internal/config"
	"github.com/jwulff/jobwatch/internal/coordinator"
	"github.com/jwulff/jobwatch/internal/logger"
	"github.com/jwulff/jobwatch/internal/notify"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/registry"
	"github.com/jwulff/jobwatch/internal/tail"
	"github.com/jwulff/jobwatch/internal/timeline"
	"github.com/jwulff/jobwatch/internal/ui"
)

// Screen is the view currently shown.
type Screen int

const (
	ScreenJobs Screen = iota
	ScreenTail
	ScreenTimeline
)

// Service is the job service API the TUI drives.
type Service interface {
	ListJobs(ctx context.Context) (map[string]api.Job, error)
	GetJob(ctx context.Context, id string) (api.Job, error)
	GetTimeline(ctx context.Context, id string) (api.TimelineResponse, error)
	GetLogs(ctx context.Context, id string) ([]api.LogEntry, error)
	RetryJob(ctx context.Context, id string) (api.ActionResult, error)
	DeleteJob(ctx context.Context, id string) (api.ActionResult, error)
	ClearErrorJobs(ctx context.Context) (api.ActionResult, error)
}

// Deps are the collaborators a Model is built from.
type Deps struct {
	Service Service
	Config  config.Config
	Log     *logger.Logger
	Notes   *notify.Queue
	Copier  *clip.Copier
	Loc     *time.Location
	Now     func() time.Time
}

// pendingAction is a retry or delete waiting for y/n.
type pendingAction struct {
	action string
	jobID  string
}

const (
	actionRetry       = "retry"
	actionDelete      = "delete"
	actionClearErrors = "clear-errors"
)

// rowHeight is the number of list lines one job occupies.
const rowHeight = 5

// Model is the root bubbletea model for the job monitor.
type Model struct {
	svc    Service
	cfg    config.Config
	log    *logger.Logger
	notes  *notify.Queue
	copier *clip.Copier
	loc    *time.Location
	now    func() time.Time

	// Shared state; the model value is copied on every Update.
	coord  *coordinator.Coordinator
	reg    *registry.Registry
	poller *registry.Poller
	tails  *tail.Controller
	format timeline.Formatter

	screen Screen
	width  int
	height int

	// Job list
	rows     []registry.Row
	cursor   int
	cursorID string
	list     viewport.Model
	loaded   bool
	confirm  *pendingAction

	// Log tail
	logScroll int
	selecting bool
	selAnchor int
	selCursor int

	// Detailed timeline
	detail     *timeline.Detail
	detailView viewport.Model
}

// New creates a Model from deps.
func New(d Deps) Model {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Notes == nil {
		d.Notes = notify.NewQueue(d.Config.NotificationTTL)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Loc == nil {
		d.Loc = time.Local
	}
	reg := registry.New()
	return Model{
		svc:    d.Service,
		cfg:    d.Config,
		log:    d.Log,
		notes:  d.Notes,
		copier: d.Copier,
		loc:    d.Loc,
		now:    d.Now,
		coord:  coordinator.New(),
		reg:    reg,
		poller: &registry.Poller{
			Source:   d.Service,
			Registry: reg,
			Notify:   d.Notes,
			Log:      d.Log.With("component", "registry"),
			Now:      d.Now,
		},
		tails:      tail.NewController(d.Service, d.Notes, d.Log.With("component", "tail"), d.Config.FontSize),
		format:     timeline.Formatter{Loc: d.Loc, Log: d.Log.With("component", "timeline")},
		list:       viewport.New(80, 20),
		detailView: viewport.New(80, 20),
	}
}

// Init loads the job list and starts the registry timer when auto-refresh
// is configured.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchJobsCmd(false)}
	if m.cfg.AutoRefresh {
		if gen, started := m.coord.EnableAutoRefresh(); started {
			cmds = append(cmds, m.registryTickCmd(gen))
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) fetchJobsCmd(manual bool) tea.Cmd {
	poller := m.poller
	return func() tea.Msg {
		jobs, err := poller.Fetch(context.Background())
		return JobsLoadedMsg{Jobs: jobs, Err: err, Manual: manual}
	}
}

func (m Model) registryTickCmd(gen uint64) tea.Cmd {
	return tea.Tick(m.cfg.RegistryInterval, func(time.Time) tea.Msg {
		return RegistryTickMsg{Gen: gen}
	})
}

func (m Model) tailTickCmd(gen uint64) tea.Cmd {
	return tea.Tick(m.cfg.TailInterval, func(time.Time) tea.Msg {
		return TailTickMsg{Gen: gen}
	})
}

func (m Model) tailFetchCmd() tea.Cmd {
	tk, ok := m.tails.NextTick()
	if !ok {
		return nil
	}
	tails := m.tails
	return func() tea.Msg {
		return TailResultMsg{Result: tails.Fetch(context.Background(), tk)}
	}
}

func (m Model) timelineCmd(id string) tea.Cmd {
	svc, format, now := m.svc, m.format, m.now
	return func() tea.Msg {
		d, err := format.Load(context.Background(), svc, id, now())
		return TimelineLoadedMsg{JobID: id, Detail: d, Err: err}
	}
}

func (m Model) actionCmd(action, id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		var res api.ActionResult
		var err error
		switch action {
		case actionRetry:
			res, err = svc.RetryJob(context.Background(), id)
		case actionClearErrors:
			res, err = svc.ClearErrorJobs(context.Background())
		default:
			res, err = svc.DeleteJob(context.Background(), id)
		}
		return ActionResultMsg{Action: action, JobID: id, Result: res, Err: err}
	}
}

func (m Model) copyCmd(jobID string, entries []api.LogEntry) tea.Cmd {
	copier, now, loc := m.copier, m.now(), m.loc
	return func() tea.Msg {
		if copier == nil {
			return CopyDoneMsg{Err: fmt.Errorf("clipboard not configured")}
		}
		text := tail.ExportText(jobID, entries, now, loc)
		res, err := copier.Copy("job-"+jobID, text)
		return CopyDoneMsg{Result: res, Entries: len(entries), Err: err}
	}
}

// dismissCmds schedules removal of notifications raised during an update.
func (m Model) dismissCmds() []tea.Cmd {
	var cmds []tea.Cmd
	for _, n := range m.notes.Drain() {
		id := n.ID
		cmds = append(cmds, tea.Tick(m.notes.TTL(), func(time.Time) tea.Msg {
			return DismissNotificationMsg{ID: id}
		}))
	}
	return cmds
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	if dismiss := next.dismissCmds(); len(dismiss) > 0 {
		return next, tea.Batch(append(dismiss, cmd)...)
	}
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.Width = m.width
		m.list.Height = m.contentHeight()
		m.detailView.Width = m.width
		m.detailView.Height = m.contentHeight()
		m.refreshList()
		if m.detail != nil {
			m.detailView.SetContent(m.renderDetail(*m.detail))
		}
		return m, nil

	case RegistryTickMsg:
		poll, reschedule := m.coord.RegistryTick(msg.Gen)
		var cmds []tea.Cmd
		if reschedule {
			cmds = append(cmds, m.registryTickCmd(msg.Gen))
		}
		if poll {
			cmds = append(cmds, m.fetchJobsCmd(false))
		}
		if len(cmds) == 0 {
			return m, nil
		}
		return m, tea.Batch(cmds...)

	case JobsLoadedMsg:
		// A background poll that was in flight when a tail opened is stale.
		if !msg.Manual && m.coord.State() == coordinator.TailActive {
			m.log.Debug("registry result dropped while tailing")
			return m, nil
		}
		if err := m.poller.Apply(msg.Jobs, msg.Err); err != nil {
			return m, nil
		}
		m.loaded = true
		if msg.Manual {
			m.notes.Notify(notify.Success, "Data refreshed successfully")
		}
		m.refreshList()
		return m, nil

	case TailTickMsg:
		if !m.coord.TailTick(msg.Gen) {
			return m, nil
		}
		return m, tea.Batch(m.tailFetchCmd(), m.tailTickCmd(msg.Gen))

	case TailResultMsg:
		up := m.tails.Apply(msg.Result, m)
		if up.ScrollToBottom {
			m.logScroll = m.maxLogScroll()
		}
		return m, nil

	case TimelineLoadedMsg:
		if msg.Err != nil {
			m.notes.Notify(notify.Error, "Error loading timeline: "+msg.Err.Error())
			return m, nil
		}
		d := msg.Detail
		m.detail = &d
		m.detailView.SetContent(m.renderDetail(d))
		m.detailView.SetYOffset(0)
		m.screen = ScreenTimeline
		return m, nil

	case ActionResultMsg:
		return m.handleActionResult(msg)

	case DismissNotificationMsg:
		m.notes.Dismiss(msg.ID)
		return m, nil

	case CopyDoneMsg:
		if msg.Err != nil {
			m.notes.Notify(notify.Error, "Failed to copy logs: "+msg.Err.Error())
			return m, nil
		}
		m.notes.Notify(notify.Success, msg.Result.Message(msg.Entries))
		return m, nil
	}

	return m, nil
}

func (m Model) handleActionResult(msg ActionResultMsg) (Model, tea.Cmd) {
	var failed string
	switch msg.Action {
	case actionDelete:
		failed = "Failed to delete job"
	case actionClearErrors:
		failed = "Failed to clear error jobs"
	default:
		failed = "Failed to retry job"
	}
	switch {
	case msg.Err != nil:
		m.log.Warn("job action failed", "action", msg.Action, "job", msg.JobID, "error", msg.Err)
		m.notes.Notify(notify.Error, fmt.Sprintf("%s: %v", failed, msg.Err))
		return m, nil
	case !msg.Result.OK():
		text := msg.Result.Message
		if text == "" {
			text = failed
		}
		m.notes.Notify(notify.Error, text)
		return m, nil
	}
	switch msg.Action {
	case actionDelete:
		m.notes.Notify(notify.Success, fmt.Sprintf("Job %s deleted", msg.JobID))
	case actionClearErrors:
		text := msg.Result.Message
		if text == "" {
			text = "Error jobs cleared"
		}
		m.notes.Notify(notify.Success, text)
	default:
		m.notes.Notify(notify.Success, fmt.Sprintf("Job %s retry initiated", msg.JobID))
	}
	return m, m.fetchJobsCmd(false)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	if key == KeyCtrlC {
		return m, tea.Quit
	}
	if m.confirm != nil {
		return m.handleConfirmKey(key)
	}
	switch m.screen {
	case ScreenTail:
		return m.handleTailKey(key)
	case ScreenTimeline:
		return m.handleTimelineKey(msg)
	default:
		return m.handleJobsKey(key)
	}
}

// handleConfirmKey answers the y/n prompt. Other keys leave it open.
func (m Model) handleConfirmKey(key string) (Model, tea.Cmd) {
	p := m.confirm
	switch key {
	case KeyConfirm:
		m.confirm = nil
		return m, m.actionCmd(p.action, p.jobID)
	case KeyDeny, KeyEsc:
		m.confirm = nil
	}
	return m, nil
}

func (m Model) handleJobsKey(key string) (Model, tea.Cmd) {
	switch key {
	case KeyQuit, KeyQuitUpper:
		return m, tea.Quit

	case KeyDown, KeyJ:
		m.moveCursor(1)
	case KeyUp, KeyK:
		m.moveCursor(-1)
	case KeyHome:
		m.moveCursor(-len(m.rows))
	case KeyEnd:
		m.moveCursor(len(m.rows))

	case KeyEnter:
		if row, ok := m.selectedRow(); ok {
			return m.openTail(row.ID)
		}

	case KeyTimeline:
		if row, ok := m.selectedRow(); ok {
			return m, m.timelineCmd(row.ID)
		}

	case KeyRefresh:
		return m, m.fetchJobsCmd(true)

	case KeyAutoRefresh:
		if m.coord.AutoRefresh() {
			m.coord.DisableAutoRefresh()
			m.notes.Notify(notify.Info, "Auto-refresh disabled")
			return m, nil
		}
		gen, _ := m.coord.EnableAutoRefresh()
		m.notes.Notify(notify.Info, fmt.Sprintf("Auto-refresh enabled (every %s)", m.cfg.RegistryInterval))
		return m, tea.Batch(m.registryTickCmd(gen), m.fetchJobsCmd(false))

	case KeyRetry:
		if row, ok := m.selectedRow(); ok && row.CanRetry {
			m.confirm = &pendingAction{action: actionRetry, jobID: row.ID}
		}
	case KeyDelete:
		if row, ok := m.selectedRow(); ok {
			m.confirm = &pendingAction{action: actionDelete, jobID: row.ID}
		}
	case KeyClearErrors:
		if m.reg.Stats().Error > 0 {
			m.confirm = &pendingAction{action: actionClearErrors}
		} else {
			m.notes.Notify(notify.Info, "No error jobs to clear")
		}
	}
	return m, nil
}

func (m Model) handleTailKey(key string) (Model, tea.Cmd) {
	s := m.tails.Session()
	switch key {
	case KeyQuit, KeyQuitUpper:
		return m, tea.Quit

	case KeyEsc:
		if m.selecting {
			m.selecting = false
			return m, nil
		}
		return m.closeTail(), nil

	case KeyUp, KeyK:
		if m.selecting {
			m.moveSelection(-1)
		} else {
			m.scrollLogs(-1)
		}
	case KeyDown, KeyJ:
		if m.selecting {
			m.moveSelection(1)
		} else {
			m.scrollLogs(1)
		}
	case KeyPgUp:
		m.scrollLogs(-m.visibleEntries())
	case KeyPgDown:
		m.scrollLogs(m.visibleEntries())
	case KeyHome:
		m.logScroll = 0
	case KeyEnd:
		m.logScroll = m.maxLogScroll()

	case KeyFontUp, KeyFontUpAlt:
		m.tails.StepFont(1)
		m.logScroll = min(m.logScroll, m.maxLogScroll())
	case KeyFontDown:
		m.tails.StepFont(-1)
		m.logScroll = min(m.logScroll, m.maxLogScroll())

	case KeyAutoScroll:
		if m.tails.ToggleAutoScroll() {
			m.logScroll = m.maxLogScroll()
		}

	case KeySelect:
		if m.selecting {
			m.selecting = false
		} else if s != nil && len(s.Entries) > 0 {
			m.selecting = true
			last := min(len(s.Entries)-1, m.logScroll+m.visibleEntries()-1)
			m.selAnchor, m.selCursor = last, last
		}

	case KeyCopy:
		if s == nil {
			return m, nil
		}
		entries := s.Entries
		if m.selecting {
			lo, hi := m.selectionRange()
			entries = entries[lo : hi+1]
		}
		if len(entries) == 0 {
			m.notes.Notify(notify.Error, "No logs available to copy")
			return m, nil
		}
		return m, m.copyCmd(s.JobID, entries)
	}
	return m, nil
}

func (m Model) handleTimelineKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper:
		return m, tea.Quit
	case KeyEsc, KeyTimeline:
		m.screen = ScreenJobs
		m.detail = nil
		return m, nil
	case KeyEnter:
		if m.detail != nil {
			return m.openTail(m.detail.JobID)
		}
	}
	var cmd tea.Cmd
	m.detailView, cmd = m.detailView.Update(msg)
	return m, cmd
}

// openTail replaces any running tail with one for id and fetches at once.
func (m Model) openTail(id string) (Model, tea.Cmd) {
	gen, prev := m.coord.OpenTail(id)
	if prev != "" {
		m.log.Debug("tail replaced", "from", prev, "to", id)
	}
	m.tails.Start(id, gen)
	m.logScroll = 0
	m.selecting = false
	m.screen = ScreenTail
	return m, tea.Batch(m.tailFetchCmd(), m.tailTickCmd(gen))
}

func (m Model) closeTail() Model {
	m.coord.CloseTail()
	m.tails.Stop()
	m.selecting = false
	m.logScroll = 0
	m.screen = ScreenJobs
	m.refreshList()
	return m
}

// SelectionIntersects implements tail.SelectionProbe.
func (m Model) SelectionIntersects(region string) bool {
	if region != tail.LogRegion || !m.selecting || m.screen != ScreenTail {
		return false
	}
	s := m.tails.Session()
	return s != nil && len(s.Entries) > 0
}

func (m Model) selectionRange() (lo, hi int) {
	lo, hi = m.selAnchor, m.selCursor
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func (m *Model) moveSelection(delta int) {
	s := m.tails.Session()
	if s == nil || len(s.Entries) == 0 {
		return
	}
	m.selCursor = clamp(m.selCursor+delta, 0, len(s.Entries)-1)
	if m.selCursor < m.logScroll {
		m.logScroll = m.selCursor
	}
	if visible := m.visibleEntries(); m.selCursor >= m.logScroll+visible {
		m.logScroll = m.selCursor - visible + 1
	}
}

func (m *Model) scrollLogs(delta int) {
	m.logScroll = clamp(m.logScroll+delta, 0, m.maxLogScroll())
}

func (m Model) visibleEntries() int {
	per := 1 + ui.Font(string(m.tails.Font())).Spacing
	return max(1, (m.contentHeight()-1)/per)
}

func (m Model) maxLogScroll() int {
	s := m.tails.Session()
	if s == nil {
		return 0
	}
	return max(0, len(s.Entries)-m.visibleEntries())
}

func (m Model) selectedRow() (registry.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return registry.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(m.rows)-1)
	m.cursorID = m.rows[m.cursor].ID
	m.renderList()

	top := m.cursor * rowHeight
	bottom := top + rowHeight
	switch {
	case top < m.list.YOffset:
		m.list.SetYOffset(top)
	case bottom > m.list.YOffset+m.list.Height:
		m.list.SetYOffset(bottom - m.list.Height)
	}
}

// refreshList rebuilds rows from the registry. The viewport offset is kept
// and the cursor stays on the same job when it still exists.
func (m *Model) refreshList() {
	m.rows = registry.BuildRows(m.reg.Sorted(), m.format, m.now())
	m.cursor = 0
	for i, r := range m.rows {
		if r.ID == m.cursorID {
			m.cursor = i
			break
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
	if len(m.rows) > 0 {
		m.cursorID = m.rows[m.cursor].ID
	}
	m.renderList()
}

func (m *Model) renderList() {
	offset := m.list.YOffset
	m.list.SetContent(m.renderRows())
	m.list.SetYOffset(offset)
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// header, stats, two dividers, notifications, footer
	reserved := 4 + maxNotifications + 1
	return max(3, m.height-reserved)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

// cursorJob is the job under the cursor, used by tests and the footer.
func (m Model) cursorJob() (api.Job, bool) {
	if m.cursorID == "" {
		return api.Job{}, false
	}
	return m.reg.Get(m.cursorID)
}

// retryable reports whether the selected job can be retried.
func (m Model) retryable() bool {
	j, ok := m.cursorJob()
	return ok && j.Status == phase.Error
}
