package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytplay/internal/engagement"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/player"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/samber/mo"
)

const (
	seekStep   = 10
	volumeStep = 5
	// headerLines is the height taken by everything above the queue list.
	headerLines = 12
)

// Controller is the slice of [player.Engine] the view drives.
type Controller interface {
	Snapshot() player.Snapshot
	Subscribe() *player.Subscription
	Unsubscribe(sub *player.Subscription)
	SetQueue(tracks []models.Track, start int)
	TogglePlayPause()
	Next()
	Previous()
	Seek(seconds float64)
	SetVolume(percent int)
	ShuffleQueue()
	SetVisibility(hidden bool)
}

// Notices is the achievement inbox the view renders and dismisses.
type Notices interface {
	Achievements() []models.Achievement
	LevelUp() (engagement.LevelUp, bool)
	Dismiss(id string) bool
	DismissLevelUp()
	Updates() <-chan struct{}
}

var (
	_ Controller = (*player.Engine)(nil)
	_ Notices    = (*engagement.Inbox)(nil)
)

// Model represents the TUI application state.
type Model struct {
	ctrl         Controller
	notices      Notices
	sub          *player.Subscription
	snap         player.Snapshot
	achievements []models.Achievement
	levelUp      mo.Option[engagement.LevelUp]
	queue        list.Model
	queueIDs     []string
	bar          progress.Model
	help         help.Model
	keys         keyMap
	width        int
	height       int
	closed       bool
	now          func() time.Time
}

// NewModel creates a new TUI model. notices may be nil when engagement is disabled.
func NewModel(ctrl Controller, notices Notices) *Model {
	m := &Model{
		ctrl:    ctrl,
		notices: notices,
		queue:   newQueueList(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:    help.New(),
		keys:    newKeyMap(),
		now:     time.Now,
	}
	m.applySnapshot(ctrl.Snapshot())
	m.refreshNotices()
	return m
}

// Init subscribes to the engine and the inbox.
func (m *Model) Init() tea.Cmd {
	m.sub = m.ctrl.Subscribe()
	cmds := []tea.Cmd{waitForSnapshot(m.sub), tea.SetWindowTitle("ytplay")}
	if m.notices != nil {
		cmds = append(cmds, waitForInbox(m.notices.Updates()))
	}
	return tea.Batch(cmds...)
}

// Close releases the engine subscription.
func (m *Model) Close() {
	if m.sub != nil {
		m.ctrl.Unsubscribe(m.sub)
		m.sub = nil
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, msg.Width-24)
		m.help.Width = msg.Width
		m.queue.SetSize(msg.Width-4, max(3, msg.Height-headerLines))
		return m, nil

	case tea.FocusMsg:
		m.ctrl.SetVisibility(false)
		return m, nil

	case tea.BlurMsg:
		m.ctrl.SetVisibility(true)
		return m, nil

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshot:
		cmd := m.applySnapshot(msg.data.(player.Snapshot))
		return m, tea.Batch(cmd, waitForSnapshot(m.sub))
	case MsgInboxChanged:
		m.refreshNotices()
		return m, waitForInbox(m.notices.Updates())
	case MsgPlayerClosed:
		m.closed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.queue.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		m.ctrl.TogglePlayPause()
	case key.Matches(msg, m.keys.next):
		m.ctrl.Next()
	case key.Matches(msg, m.keys.previous):
		m.ctrl.Previous()
	case key.Matches(msg, m.keys.seekBack):
		m.ctrl.Seek(max(0, m.snap.CurrentTime-seekStep))
	case key.Matches(msg, m.keys.seekAhead):
		m.ctrl.Seek(m.snap.CurrentTime + seekStep)
	case key.Matches(msg, m.keys.volumeUp):
		m.ctrl.SetVolume(min(100, m.snap.Volume+volumeStep))
	case key.Matches(msg, m.keys.volumeDown):
		m.ctrl.SetVolume(max(0, m.snap.Volume-volumeStep))
	case key.Matches(msg, m.keys.shuffle):
		m.ctrl.ShuffleQueue()
	case key.Matches(msg, m.keys.dismiss):
		m.dismiss()
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.jump):
		if item, ok := m.queue.SelectedItem().(queueItem); ok {
			m.ctrl.SetQueue(m.snap.Queue, item.index)
		}
	default:
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applySnapshot stores snap and rebuilds the queue list when its contents or cursor changed.
func (m *Model) applySnapshot(snap player.Snapshot) tea.Cmd {
	prevIndex := m.snap.QueueIndex
	m.snap = snap

	ids := make([]string, len(snap.Queue))
	for i, t := range snap.Queue {
		ids[i] = t.ID
	}
	if slices.Equal(ids, m.queueIDs) && prevIndex == snap.QueueIndex && m.queueIDs != nil {
		return nil
	}
	m.queueIDs = ids
	cmd := m.queue.SetItems(queueItems(snap.Queue, snap.QueueIndex))
	if snap.QueueIndex >= 0 && m.queue.FilterState() == list.Unfiltered {
		m.queue.Select(snap.QueueIndex)
	}
	return cmd
}

func (m *Model) refreshNotices() {
	if m.notices == nil {
		return
	}
	m.achievements = m.notices.Achievements()
	m.levelUp = mo.None[engagement.LevelUp]()
	if lu, ok := m.notices.LevelUp(); ok {
		m.levelUp = mo.Some(lu)
	}
}

// dismiss clears the level-up banner first, then the oldest achievement.
func (m *Model) dismiss() {
	if m.notices == nil {
		return
	}
	switch {
	case m.levelUp.IsPresent():
		m.notices.DismissLevelUp()
	case len(m.achievements) > 0:
		m.notices.Dismiss(m.achievements[0].ID)
	default:
		return
	}
	m.refreshNotices()
}

// View renders the now-playing screen.
func (m *Model) View() string {
	if m.closed {
		return styles.muted.Render("Player closed.") + "\n"
	}

	sections := []string{m.renderNowPlaying()}
	if notices := m.renderNotices(); notices != "" {
		sections = append(sections, notices)
	}
	sections = append(sections, m.queue.View(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) textWidth() uint {
	if m.width <= 8 {
		return 60
	}
	return uint(m.width - 4)
}

func (m *Model) renderNowPlaying() string {
	title := styles.title.Render("ytplay")
	track := m.snap.CurrentTrack
	if track == nil {
		return fmt.Sprintf("%s\n%s", title, styles.muted.Render("Nothing playing"))
	}

	w := m.textWidth()
	name := truncate.StringWithTail(track.Title, w, "…")
	artist := truncate.StringWithTail(track.Artist, w, "…")

	var pct float64
	if m.snap.Duration > 0 {
		pct = min(1, m.snap.CurrentTime/m.snap.Duration)
	}
	clock := fmt.Sprintf("%s / %s",
		models.FormatDuration(int(m.snap.CurrentTime)),
		models.FormatDuration(int(m.snap.Duration)))

	status := fmt.Sprintf("%s  vol %d%%", m.stateLabel(), m.snap.Volume)
	if m.snap.Queue != nil {
		status += fmt.Sprintf("  track %d of %d", m.snap.QueueIndex+1, len(m.snap.Queue))
	}

	return strings.Join([]string{
		title,
		lipgloss.NewStyle().Bold(true).Render(name),
		styles.muted.Render(artist),
		m.bar.ViewAs(pct) + "  " + clock,
		status,
	}, "\n")
}

func (m *Model) stateLabel() string {
	switch m.snap.State {
	case player.StatePlaying:
		return styles.ok.Render("▶ playing")
	case player.StatePaused:
		return styles.warn.Render("⏸ paused")
	case player.StateLoading:
		return styles.muted.Render("… loading")
	default:
		return styles.muted.Render(m.snap.State.String())
	}
}

func (m *Model) renderNotices() string {
	var parts []string
	if lu, ok := m.levelUp.Get(); ok {
		parts = append(parts, styles.banner.Render(
			fmt.Sprintf("Level up! You reached level %d (%s XP)", lu.Level, humanize.Comma(int64(lu.XP)))))
	}
	for _, a := range m.achievements {
		line := fmt.Sprintf("%s %s: %s", a.Icon, a.Title, a.Description)
		if !a.UnlockedAt.IsZero() {
			line += styles.muted.Render(" (" + humanize.RelTime(a.UnlockedAt, m.now(), "ago", "from now") + ")")
		}
		parts = append(parts, styles.toast.Render(strings.TrimSpace(line)))
	}
	if len(parts) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
