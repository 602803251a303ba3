package app

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/api/apitest"
	"github.com/jwulff/jobwatch/internal/config"
	"github.com/jwulff/jobwatch/internal/notify"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/tail"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (Model, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	m := New(Deps{
		Service: api.New(srv.URL, 0),
		Config:  cfg,
		Notes:   notify.NewQueue(time.Minute),
		Loc:     time.UTC,
		Now:     func() time.Time { return testNow },
	})
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, srv
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// loadJobs runs one registry fetch against the fake service and applies it.
func loadJobs(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.fetchJobsCmd(false)()
	m, _ = applyUpdate(m, msg)
	return m
}

// tailTick runs one tail fetch and applies it.
func tailTick(t *testing.T, m Model) Model {
	t.Helper()
	cmd := m.tailFetchCmd()
	if cmd == nil {
		t.Fatal("no active tail session")
	}
	m, _ = applyUpdate(m, cmd())
	return m
}

func messages(m Model) []string {
	var out []string
	for _, n := range m.notes.Active() {
		out = append(out, n.Message)
	}
	return out
}

func twoJobs() map[string]api.Job {
	return map[string]api.Job{
		"old": {Status: phase.Complete, Progress: 100, CreatedAt: "2024-06-01T09:00:00", Artist: "ABBA", Title: "SOS"},
		"new": {Status: phase.Processing, Progress: 40, CreatedAt: "2024-06-01T11:58:00", URL: "https://youtu.be/x"},
	}
}

func TestNewModel(t *testing.T) {
	m := New(Deps{Config: config.Default()})
	if m.screen != ScreenJobs {
		t.Error("new model should show the job list")
	}
	if m.loaded {
		t.Error("new model should not be loaded")
	}
	if m.View() != "Initializing..." {
		t.Errorf("View before size = %q", m.View())
	}
}

func TestInitStartsAutoRefresh(t *testing.T) {
	m, _ := newTestModel(t)
	if cmd := m.Init(); cmd == nil {
		t.Fatal("Init should return commands")
	}
	if !m.coord.AutoRefresh() {
		t.Error("auto-refresh should be on by default")
	}
}

func TestJobsLoadedBuildsSortedRows(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)

	if !m.loaded {
		t.Fatal("model should be loaded")
	}
	if len(m.rows) != 2 || m.rows[0].ID != "new" {
		t.Fatalf("rows = %+v, want newest first", m.rows)
	}
	if m.rows[0].Track != "URL Processing" || m.rows[1].Track != "ABBA - SOS" {
		t.Errorf("tracks = %q, %q", m.rows[0].Track, m.rows[1].Track)
	}
	if m.rows[0].Duration != "2m 0s" {
		t.Errorf("duration = %q, want %q", m.rows[0].Duration, "2m 0s")
	}
	if got := m.reg.Stats(); got.Total != 2 || got.Complete != 1 {
		t.Errorf("stats = %+v", got)
	}
	if !strings.Contains(m.View(), "Job new") {
		t.Error("view should list job new")
	}
}

func TestPollFailureKeepsListAndNotifiesOnce(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)
	before := m.rows

	srv.FailAll(500)
	m = loadJobs(t, m)
	if len(m.rows) != len(before) || m.rows[0].ID != before[0].ID {
		t.Errorf("rows changed after failed poll: %+v", m.rows)
	}
	msgs := messages(m)
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "Failed to load jobs") {
		t.Fatalf("notifications = %v, want one load error", msgs)
	}

	srv.FailAll(0)
	srv.SetJobs(map[string]api.Job{"fresh": {Status: phase.Queued, CreatedAt: "2024-06-01T11:59:00"}})
	m = loadJobs(t, m)
	if len(m.rows) != 1 || m.rows[0].ID != "fresh" {
		t.Errorf("rows = %+v, want full replacement", m.rows)
	}
}

func TestUpdateSchedulesNotificationDismissal(t *testing.T) {
	m, srv := newTestModel(t)
	srv.FailAll(500)
	msg := m.fetchJobsCmd(false)()
	m, cmd := applyUpdate(m, msg)
	if cmd == nil {
		t.Fatal("a new notification should schedule its dismissal")
	}
	n := m.notes.Active()[0]
	m, _ = applyUpdate(m, DismissNotificationMsg{ID: n.ID})
	if len(m.notes.Active()) != 0 {
		t.Error("notification should be dismissed")
	}
}

func TestManualRefreshNotifies(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m, cmd := applyUpdate(m, key("r"))
	if cmd == nil {
		t.Fatal("r should fetch jobs")
	}
	m, _ = applyUpdate(m, cmd())
	if msgs := messages(m); len(msgs) != 1 || msgs[0] != "Data refreshed successfully" {
		t.Errorf("notifications = %v", msgs)
	}
}

func TestAutoRefreshToggle(t *testing.T) {
	m, _ := newTestModel(t)
	m.Init()
	gen := m.coord.RegistryGeneration()

	m, _ = applyUpdate(m, key("a"))
	if m.coord.AutoRefresh() {
		t.Fatal("a should disable auto-refresh")
	}
	if _, cmd := applyUpdate(m, RegistryTickMsg{Gen: gen}); cmd != nil {
		t.Error("tick from the torn-down timer should do nothing")
	}

	m, cmd := applyUpdate(m, key("a"))
	if !m.coord.AutoRefresh() || cmd == nil {
		t.Error("a should re-enable auto-refresh and schedule a tick")
	}
	if msgs := messages(m); len(msgs) != 2 || msgs[0] != "Auto-refresh disabled" {
		t.Errorf("notifications = %v", msgs)
	}
}

func TestOpenTailPausesRegistry(t *testing.T) {
	m, srv := newTestModel(t)
	m.Init()
	srv.SetJobs(twoJobs())
	srv.SetLogs("new", []api.LogEntry{{Timestamp: "2024-06-01T11:58:01", Level: "INFO", Message: "downloading"}})
	m = loadJobs(t, m)

	m, cmd := applyUpdate(m, key("enter"))
	if m.screen != ScreenTail || cmd == nil {
		t.Fatalf("enter should open the tail, screen = %v", m.screen)
	}
	if got := m.tails.Session().JobID; got != "new" {
		t.Errorf("tail job = %q, want new", got)
	}
	if poll, resched := m.coord.RegistryTick(m.coord.RegistryGeneration()); poll || !resched {
		t.Errorf("registry tick while tailing: poll=%v reschedule=%v", poll, resched)
	}

	m = tailTick(t, m)
	s := m.tails.Session()
	if len(s.Entries) != 1 || s.Title != "Log Tail - Job new - Processing (40%)" {
		t.Errorf("session = %+v", s)
	}
	if !strings.Contains(m.View(), "downloading") {
		t.Error("view should show the log line")
	}

	m, _ = applyUpdate(m, key("esc"))
	if m.screen != ScreenJobs || m.tails.Active() {
		t.Error("esc should close the tail")
	}
	if poll, _ := m.coord.RegistryTick(m.coord.RegistryGeneration()); !poll {
		t.Error("registry should poll again after the tail closes")
	}
}

func TestTailSelectionHoldsContent(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	srv.SetLogs("new", []api.LogEntry{{Level: "INFO", Message: "one"}})
	m = loadJobs(t, m)
	m, _ = applyUpdate(m, key("enter"))
	m = tailTick(t, m)

	m, _ = applyUpdate(m, key("v"))
	if !m.SelectionIntersects(tail.LogRegion) {
		t.Fatal("v should start a selection in the log region")
	}

	job := twoJobs()["new"]
	job.Progress = 75
	srv.SetJobs(map[string]api.Job{"new": job})
	srv.SetLogs("new", []api.LogEntry{{Level: "INFO", Message: "one"}, {Level: "INFO", Message: "two"}})
	m = tailTick(t, m)

	s := m.tails.Session()
	if len(s.Entries) != 1 {
		t.Errorf("entries = %d, want content held", len(s.Entries))
	}
	if !strings.HasSuffix(s.Title, "(75%)"+tail.SelectionSuffix) {
		t.Errorf("title = %q, want live status with selection marker", s.Title)
	}

	m, _ = applyUpdate(m, key("esc"))
	if m.selecting || m.screen != ScreenTail {
		t.Fatal("first esc should only clear the selection")
	}
	m = tailTick(t, m)
	if len(m.tails.Session().Entries) != 2 {
		t.Errorf("entries = %d after selection cleared, want 2", len(m.tails.Session().Entries))
	}
}

func TestReopenTailResetsSession(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	srv.SetLogs("old", []api.LogEntry{{Level: "INFO", Message: "a"}})
	m = loadJobs(t, m)

	m, _ = m.openTail("old")
	m = tailTick(t, m)
	staleCmd := m.tailFetchCmd()

	m, _ = m.openTail("new")
	s := m.tails.Session()
	if s.JobID != "new" || !s.AutoScroll || len(s.Entries) != 0 {
		t.Errorf("session = %+v, want fresh session for new", s)
	}
	m, _ = applyUpdate(m, staleCmd())
	if len(m.tails.Session().Entries) != 0 {
		t.Error("result from the replaced session leaked into the new one")
	}
	if _, cmd := applyUpdate(m, TailTickMsg{Gen: 1}); cmd != nil {
		t.Error("tick from the replaced tail timer should do nothing")
	}
}

func TestAutoScrollFollowsNewLines(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	var logs []api.LogEntry
	for i := 0; i < 60; i++ {
		logs = append(logs, api.LogEntry{Level: "INFO", Message: fmt.Sprintf("line %d", i)})
	}
	srv.SetLogs("new", logs)
	m = loadJobs(t, m)
	m, _ = applyUpdate(m, key("enter"))
	m = tailTick(t, m)

	if m.logScroll != m.maxLogScroll() || m.logScroll == 0 {
		t.Errorf("logScroll = %d, want bottom %d", m.logScroll, m.maxLogScroll())
	}

	m, _ = applyUpdate(m, key("s"))
	m, _ = applyUpdate(m, key("g"))
	m = tailTick(t, m)
	if m.logScroll != 0 {
		t.Errorf("logScroll = %d, want position kept with auto-scroll off", m.logScroll)
	}
}

func TestFontKeysClamp(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)
	m, _ = applyUpdate(m, key("enter"))
	for i := 0; i < 8; i++ {
		m, _ = applyUpdate(m, key("+"))
	}
	if m.tails.Font() != "xxl" {
		t.Errorf("font = %q, want xxl", m.tails.Font())
	}
	for i := 0; i < 8; i++ {
		m, _ = applyUpdate(m, key("-"))
	}
	if m.tails.Font() != "xs" {
		t.Errorf("font = %q, want xs", m.tails.Font())
	}
}

func TestPollKeepsScrollAndCursor(t *testing.T) {
	m, srv := newTestModel(t)
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 100, Height: 20})
	jobs := map[string]api.Job{}
	for i := 0; i < 12; i++ {
		jobs[fmt.Sprintf("job%02d", i)] = api.Job{Status: phase.Queued, CreatedAt: fmt.Sprintf("2024-06-01T10:%02d:00", i)}
	}
	srv.SetJobs(jobs)
	m = loadJobs(t, m)

	for i := 0; i < 6; i++ {
		m, _ = applyUpdate(m, key("j"))
	}
	offset := m.list.YOffset
	selected := m.cursorID
	if offset == 0 {
		t.Fatal("moving down should scroll the list")
	}

	jobs["job99"] = api.Job{Status: phase.Queued, CreatedAt: "2024-06-01T11:30:00"}
	srv.SetJobs(jobs)
	m = loadJobs(t, m)

	if m.list.YOffset != offset {
		t.Errorf("YOffset = %d, want %d", m.list.YOffset, offset)
	}
	if m.cursorID != selected {
		t.Errorf("cursor on %q, want %q", m.cursorID, selected)
	}
	if m.rows[m.cursor].ID != selected {
		t.Errorf("cursor index %d points at %q", m.cursor, m.rows[m.cursor].ID)
	}
}

func TestRetryConfirmFlow(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(map[string]api.Job{"bad": {Status: phase.Error, CreatedAt: "2024-06-01T11:00:00"}})
	m = loadJobs(t, m)

	m, cmd := applyUpdate(m, key("R"))
	if m.confirm == nil || cmd != nil {
		t.Fatal("R should ask for confirmation first")
	}
	if !strings.Contains(m.View(), "Retry job bad? (y/n)") {
		t.Error("footer should show the confirmation prompt")
	}
	m, cmd = applyUpdate(m, key("y"))
	if cmd == nil {
		t.Fatal("y should run the retry")
	}
	m, cmd = applyUpdate(m, cmd())
	if msgs := messages(m); len(msgs) != 1 || msgs[0] != "Job bad retry initiated" {
		t.Errorf("notifications = %v", msgs)
	}
	if cmd == nil {
		t.Fatal("a successful action should reload jobs")
	}
	m = loadJobs(t, m)
	if j, _ := m.reg.Get("bad"); j.Status != phase.Queued {
		t.Errorf("status = %q after retry, want queued", j.Status)
	}
}

func TestRetryOnlyForErrorJobs(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)
	m, _ = applyUpdate(m, key("R"))
	if m.confirm != nil {
		t.Error("retry should not be offered for a processing job")
	}
}

func TestDeleteCancelled(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)
	m, _ = applyUpdate(m, key("d"))
	if m.confirm == nil {
		t.Fatal("d should ask for confirmation")
	}
	m, cmd := applyUpdate(m, key("n"))
	if m.confirm != nil || cmd != nil {
		t.Error("n should cancel without a request")
	}
	if srv.Hits("/jobs/new") != 0 {
		t.Error("cancelled delete reached the service")
	}
}

func TestConfirmIgnoresOtherKeys(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)
	m, _ = applyUpdate(m, key("d"))
	m, _ = applyUpdate(m, key("j"))
	if m.confirm == nil {
		t.Fatal("unrelated key should leave the prompt open")
	}
	m, _ = applyUpdate(m, key("esc"))
	if m.confirm != nil {
		t.Error("esc should cancel the prompt")
	}
}

func TestClearErrorJobsConfirmFlow(t *testing.T) {
	m, srv := newTestModel(t)
	jobs := twoJobs()
	jobs["bad1"] = api.Job{Status: phase.Error, CreatedAt: "2024-06-01T10:00:00"}
	jobs["bad2"] = api.Job{Status: phase.Error, CreatedAt: "2024-06-01T10:30:00"}
	srv.SetJobs(jobs)
	m = loadJobs(t, m)

	m, cmd := applyUpdate(m, key("X"))
	if m.confirm == nil || cmd != nil {
		t.Fatal("X should ask for confirmation first")
	}
	if !strings.Contains(m.View(), "Clear all 2 error jobs? (y/n)") {
		t.Error("footer should show the clear prompt")
	}
	m, cmd = applyUpdate(m, key("y"))
	if cmd == nil {
		t.Fatal("y should run the clear")
	}
	m, cmd = applyUpdate(m, cmd())
	if msgs := messages(m); len(msgs) != 1 || msgs[0] != "Cleared 2 error jobs" {
		t.Errorf("notifications = %v", msgs)
	}
	if cmd == nil {
		t.Fatal("a successful clear should reload jobs")
	}
	m = loadJobs(t, m)
	if got := m.reg.Stats(); got.Error != 0 || got.Total != 2 {
		t.Errorf("stats = %+v, want error jobs gone", got)
	}
}

func TestClearErrorJobsWithNoErrors(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)
	m, _ = applyUpdate(m, key("X"))
	if m.confirm != nil {
		t.Error("clear should not be offered without error jobs")
	}
	if msgs := messages(m); len(msgs) != 1 || msgs[0] != "No error jobs to clear" {
		t.Errorf("notifications = %v", msgs)
	}
}

func TestPollResolvingAfterTailOpensIsDropped(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)
	before := m.reg.Stats()

	srv.SetJobs(map[string]api.Job{"bad": {Status: phase.Error, CreatedAt: "2024-06-01T11:00:00"}})
	inflight := m.fetchJobsCmd(false)
	m, _ = applyUpdate(m, key("enter"))
	m, _ = applyUpdate(m, inflight())

	if got := m.reg.Stats(); got != before {
		t.Errorf("stats = %+v while tailing, want %+v", got, before)
	}

	m, _ = applyUpdate(m, key("esc"))
	m = loadJobs(t, m)
	if got := m.reg.Stats(); got.Total != 1 || got.Error != 1 {
		t.Errorf("stats = %+v after tail closed, want the new snapshot", got)
	}
}

func TestActionFailureReportsMessage(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = applyUpdate(m, ActionResultMsg{Action: actionDelete, JobID: "x", Result: api.ActionResult{Status: "error", Message: "Job is running"}})
	if msgs := messages(m); len(msgs) != 1 || msgs[0] != "Job is running" {
		t.Errorf("notifications = %v", msgs)
	}
}

func TestTimelineFallsBackToDegradedView(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)

	m, cmd := applyUpdate(m, key("t"))
	if cmd == nil {
		t.Fatal("t should load the timeline")
	}
	m, _ = applyUpdate(m, cmd())
	if m.screen != ScreenTimeline || m.detail == nil {
		t.Fatalf("screen = %v, want timeline", m.screen)
	}
	if !m.detail.Degraded {
		t.Error("job without a timeline should get the degraded view")
	}
	if !strings.Contains(m.View(), "before detailed timeline tracking") {
		t.Error("view should explain the degraded timeline")
	}

	m, _ = applyUpdate(m, key("esc"))
	if m.screen != ScreenJobs {
		t.Error("esc should return to the job list")
	}
}

func TestTimelineDetailed(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	d := 90.0
	srv.SetTimeline("new", api.TimelineResponse{
		Artist: "ABBA", Title: "SOS",
		Timeline: []api.PhaseRecord{
			{Status: phase.Queued, StartedAt: "2024-06-01T11:58:00", EndedAt: "2024-06-01T11:59:30", DurationSeconds: &d},
			{Status: phase.Processing, StartedAt: "2024-06-01T11:59:30"},
		},
		CurrentStatus: phase.Processing,
	})
	m = loadJobs(t, m)
	m, cmd := applyUpdate(m, key("t"))
	m, _ = applyUpdate(m, cmd())
	if m.detail == nil || m.detail.Degraded || len(m.detail.Rows) != 2 {
		t.Fatalf("detail = %+v", m.detail)
	}
	view := m.View()
	for _, want := range []string{"Timeline for ABBA - SOS", "Phase Details", "1m 30s"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewAllScreens(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetJobs(twoJobs())
	m = loadJobs(t, m)
	for _, s := range []Screen{ScreenJobs, ScreenTail, ScreenTimeline} {
		m.screen = s
		if v := m.View(); !strings.Contains(v, "JOBWATCH") {
			t.Errorf("screen %v: header missing", s)
		}
	}
}
