package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tubedash/tubedash/internal/api"
	"github.com/tubedash/tubedash/internal/browser"
	"github.com/tubedash/tubedash/internal/config"
	"github.com/tubedash/tubedash/internal/dashboard"
)

type focusPane int

const (
	focusList focusPane = iota
	focusDetail
)

type mode int

const (
	modeLoading mode = iota
	modeLoadError
	modeNormal
	modeSearch
	modeFilter
	modeChat
	modeMindmap
	modeHelp
	modeConfirmReset
)

// Client is the server surface the TUI needs. *api.Client satisfies it.
type Client interface {
	dashboard.SyncClient
	dashboard.ChatClient
	Summary(ctx context.Context, videoID string) (string, error)
	ToggleRead(ctx context.Context, videoID string) (api.Video, error)
	Mindmap(ctx context.Context, videoID string) (string, error)
	Reset(ctx context.Context) error
}

type App struct {
	cfg     *config.Config
	client  Client
	session *dashboard.Session
	syncer  *dashboard.Syncer
	md      MarkdownRenderer

	cursor int
	focus  focusPane
	mode   mode

	width  int
	height int

	// Sub-components
	searchInput textinput.Model
	chatInput   textinput.Model
	spinner     spinner.Model
	filterBar   filterBar

	// State
	detailScroll  int
	mindmapSrc    string
	mindmapScroll int
	currentDate   string
	loadErr       error
	err           error
	chatBusy      bool
	chatCancel    context.CancelFunc
}

func NewApp(cfg *config.Config, client Client) *App {
	si := textinput.New()
	si.Placeholder = "Search videos..."
	si.Prompt = searchPromptStyle.Render("/ ")
	si.CharLimit = 100

	ci := textinput.New()
	ci.Placeholder = "Ask about this video..."
	ci.Prompt = chatPromptStyle.Render("> ")
	ci.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	return &App{
		cfg:         cfg,
		client:      client,
		session:     &dashboard.Session{},
		syncer:      dashboard.NewSyncer(client, cfg.PollDuration()),
		md:          newGlamourRenderer(),
		filterBar:   newFilterBar(),
		searchInput: si,
		chatInput:   ci,
		spinner:     sp,
		currentDate: time.Now().Format("Jan 2"),
		mode:        modeLoading,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadVideosCmd(), a.spinner.Tick)
}

// visible is the dataset after search and channel filters, in server
// order. The cursor indexes into this slice.
func (a *App) visible() []api.Video {
	search := a.searchInput.Value()
	if len(a.filterBar.active) == 0 && !a.filterBar.unreadOnly && search == "" {
		return a.session.Videos
	}
	var out []api.Video
	for _, v := range a.session.Videos {
		if a.filterBar.matches(v, search) {
			out = append(out, v)
		}
	}
	return out
}

func (a *App) clampCursor() {
	if n := len(a.visible()); a.cursor >= n {
		a.cursor = max(0, n-1)
	}
}

func (a *App) unreadCount() int {
	n := 0
	for _, v := range a.session.Videos {
		if !v.IsRead {
			n++
		}
	}
	return n
}

func (a *App) loadVideosCmd() tea.Cmd {
	client := a.client
	timeout := a.cfg.TimeoutDuration()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		videos, err := client.Videos(ctx)
		return videosLoadedMsg{videos: videos, err: err}
	}
}

func (a *App) loadDetailCmd(v api.Video) tea.Cmd {
	client := a.client
	timeout := a.cfg.TimeoutDuration()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		content, err := client.Summary(ctx, v.ID)
		return detailLoadedMsg{videoID: v.ID, content: content, err: err}
	}
}

func (a *App) toggleReadCmd(videoID string) tea.Cmd {
	client := a.client
	timeout := a.cfg.TimeoutDuration()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		v, err := client.ToggleRead(ctx, videoID)
		return toggleReadMsg{video: v, err: err}
	}
}

func (a *App) loadMindmapCmd(videoID string) tea.Cmd {
	client := a.client
	timeout := a.cfg.TimeoutDuration()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		src, err := client.Mindmap(ctx, videoID)
		return mindmapLoadedMsg{videoID: videoID, source: src, err: err}
	}
}

func (a *App) resetCmd() tea.Cmd {
	client := a.client
	timeout := a.cfg.TimeoutDuration()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return resetDoneMsg{err: client.Reset(ctx)}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return appErrMsg{err: err}
		}
		return nil
	}
}

// startSync kicks off one refresh cycle. Refused while a cycle is
// already in flight.
func (a *App) startSync() tea.Cmd {
	ch, ok := a.syncer.Start(context.Background())
	if !ok {
		return nil
	}
	a.session.Busy = true
	return tea.Batch(listenSync(ch), a.spinner.Tick)
}

// cancelChat stops an in-flight answer. Session state is untouched;
// the stale token keeps late events out.
func (a *App) cancelChat() {
	if a.chatCancel != nil {
		a.chatCancel()
		a.chatCancel = nil
	}
	a.chatBusy = false
}

func (a *App) sendChat() tea.Cmd {
	text := strings.TrimSpace(a.chatInput.Value())
	if text == "" || a.chatBusy {
		return nil
	}
	token, history, ok := a.session.BeginTurn(text)
	if !ok {
		return nil
	}
	a.chatInput.SetValue("")
	a.cancelChat()
	ctx, cancel := context.WithCancel(context.Background())
	a.chatCancel = cancel
	a.chatBusy = true
	ch := dashboard.StreamTurn(ctx, a.client, token, a.session.Chat.VideoID, history)
	return tea.Batch(listenChat(ch), a.spinner.Tick)
}

func (a *App) selectVideo(v api.Video) tea.Cmd {
	if a.session.Selected == nil || a.session.Selected.ID != v.ID {
		a.cancelChat()
	}
	a.session.Select(v)
	a.detailScroll = 0
	a.focus = focusDetail
	if !v.HasSummary {
		a.session.ResolveDetail(v.ID, "", nil)
		return a.spinner.Tick
	}
	return tea.Batch(a.loadDetailCmd(v), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case videosLoadedMsg:
		if msg.err != nil {
			if a.mode == modeLoading || len(a.session.Videos) == 0 {
				a.mode = modeLoadError
				a.loadErr = msg.err
			} else {
				a.err = msg.err
			}
			return a, nil
		}
		a.session.ReplaceVideos(msg.videos)
		a.filterBar.setChannels(channelsOf(msg.videos))
		a.clampCursor()
		if a.mode == modeLoading || a.mode == modeLoadError {
			a.mode = modeNormal
			a.loadErr = nil
		}
		return a, nil

	case syncEventMsg:
		switch ev := msg.ev.(type) {
		case dashboard.VideosRefreshed:
			a.session.ReplaceVideos(ev.Videos)
			a.filterBar.setChannels(channelsOf(ev.Videos))
			a.clampCursor()
		case dashboard.SyncFinished:
			a.session.Busy = false
		case dashboard.SyncFailed:
			a.session.Busy = false
			a.err = ev.Err
		}
		return a, listenSync(msg.ch)

	case syncClosedMsg:
		return a, nil

	case detailLoadedMsg:
		a.session.ResolveDetail(msg.videoID, msg.content, msg.err)
		return a, nil

	case chatEventMsg:
		switch ev := msg.ev.(type) {
		case dashboard.ChatChunk:
			a.session.ApplyChunk(ev.Token, ev.Content)
		case dashboard.ChatDone:
			if a.session.FinishTurn(ev.Token, nil) {
				a.chatBusy = false
			}
		case dashboard.ChatFailed:
			if a.session.FinishTurn(ev.Token, ev.Err) {
				a.chatBusy = false
			}
		}
		return a, listenChat(msg.ch)

	case chatClosedMsg:
		return a, nil

	case toggleReadMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.session.ApplyVideo(msg.video)
		return a, nil

	case mindmapLoadedMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		if sel := a.session.Selected; sel != nil && sel.ID == msg.videoID {
			a.mindmapSrc = msg.source
			a.mindmapScroll = 0
			a.mode = modeMindmap
		}
		return a, nil

	case resetDoneMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.cancelChat()
		a.session.Reset()
		a.cursor = 0
		a.detailScroll = 0
		a.focus = focusList
		a.filterBar = newFilterBar()
		a.searchInput.SetValue("")
		a.mode = modeLoading
		return a, tea.Batch(a.loadVideosCmd(), a.spinner.Tick)

	case appErrMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.busySpinning() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) busySpinning() bool {
	if a.session.Busy || a.chatBusy || a.mode == modeLoading {
		return true
	}
	sel := a.session.Selected
	return sel != nil && sel.LoadingDetails
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if msg.String() == "ctrl+c" {
		a.cancelChat()
		return a, tea.Quit
	}

	switch a.mode {
	case modeLoading:
		if msg.String() == "q" {
			return a, tea.Quit
		}
		return a, nil
	case modeLoadError:
		return a.handleLoadErrorKey(msg)
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeChat:
		return a.handleChatKey(msg)
	case modeMindmap:
		return a.handleMindmapKey(msg)
	case modeConfirmReset:
		return a.handleConfirmResetKey(msg)
	case modeHelp:
		if s := msg.String(); s == "?" || s == "esc" || s == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	return a.handleNormalKey(msg)
}

func (a *App) handleLoadErrorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		a.mode = modeLoading
		return a, tea.Batch(a.loadVideosCmd(), a.spinner.Tick)
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	videos := a.visible()

	switch msg.String() {
	case "q":
		a.cancelChat()
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList {
			if a.cursor < len(videos)-1 {
				a.cursor++
			}
		} else {
			a.detailScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList {
			if a.cursor > 0 {
				a.cursor--
			}
		} else if a.detailScroll > 0 {
			a.detailScroll--
		}
		return a, nil
	case "tab":
		if a.session.Selected != nil {
			if a.focus == focusList {
				a.focus = focusDetail
			} else {
				a.focus = focusList
			}
		}
		return a, nil
	case "enter":
		if len(videos) > 0 && a.cursor < len(videos) {
			return a, a.selectVideo(videos[a.cursor])
		}
		return a, nil
	case "esc":
		if a.session.Selected != nil {
			a.cancelChat()
			a.session.ClearSelection()
			a.focus = focusList
			a.detailScroll = 0
		}
		return a, nil
	case "o":
		if len(videos) > 0 && a.cursor < len(videos) {
			return a, openBrowserCmd(videos[a.cursor].Link)
		}
		return a, nil
	case "u":
		return a, a.startSync()
	case "x":
		if len(videos) > 0 && a.cursor < len(videos) {
			return a, a.toggleReadCmd(videos[a.cursor].ID)
		}
		return a, nil
	case "c":
		if a.session.Selected != nil {
			a.mode = modeChat
			a.chatInput.Focus()
			return a, textinput.Blink
		}
		return a, nil
	case "d":
		if sel := a.session.Selected; sel != nil {
			return a, a.loadMindmapCmd(sel.ID)
		}
		return a, nil
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case "f":
		a.mode = modeFilter
		a.filterBar.filterMode = true
		return a, nil
	case "R":
		a.mode = modeConfirmReset
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.cursor = 0
		return a, nil
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		a.cursor = 0
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	a.clampCursor()
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		a.filterBar.filterMode = false
		return a, nil
	case "left", "h":
		if a.filterBar.filterCursor > 0 {
			a.filterBar.filterCursor--
		}
		return a, nil
	case "right", "l":
		if a.filterBar.filterCursor < len(a.filterBar.channels)-1 {
			a.filterBar.filterCursor++
		}
		return a, nil
	case " ", "enter":
		a.filterBar.toggleCurrent()
		a.cursor = 0
		return a, nil
	case "r":
		a.filterBar.unreadOnly = !a.filterBar.unreadOnly
		a.cursor = 0
		return a, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if idx < len(a.filterBar.channels) {
			a.filterBar.toggle(a.filterBar.channels[idx])
			a.cursor = 0
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.chatInput.Blur()
		return a, nil
	case "enter":
		return a, a.sendChat()
	}

	var cmd tea.Cmd
	a.chatInput, cmd = a.chatInput.Update(msg)
	return a, cmd
}

func (a *App) handleMindmapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "d":
		a.mode = modeNormal
		return a, nil
	case "j", "down":
		a.mindmapScroll++
		return a, nil
	case "k", "up":
		if a.mindmapScroll > 0 {
			a.mindmapScroll--
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleConfirmResetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		a.mode = modeNormal
		return a, a.resetCmd()
	case "n", "esc":
		a.mode = modeNormal
		return a, nil
	}
	return a, nil
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  tubedash")
	}

	switch a.mode {
	case modeLoading:
		card := a.spinner.View() + " " + errorBodyStyle.Render("Loading videos...")
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
	case modeLoadError:
		card := helpCardStyle.Render(
			errorTitleStyle.Render("Connection Error") + "\n\n" +
				errorBodyStyle.Render(wrapText(a.loadErr.Error(), 60)) + "\n\n" +
				helpDimStyle.Render("r retry  q quit"),
		)
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
	case modeHelp:
		return a.renderHelp()
	case modeMindmap:
		title := ""
		if sel := a.session.Selected; sel != nil {
			title = sel.Title
		}
		body := renderMindmap(title, a.mindmapSrc, a.width-2, a.height-2, a.mindmapScroll)
		status := renderStatusBar(len(a.session.Videos), a.unreadCount(), a.filterBar.activeLabel(), a.width, a.mode, a.session.Busy)
		return lipgloss.JoinVertical(lipgloss.Left, body, status)
	}

	// Layout calculations
	headerHeight := 1
	filterHeight := 1
	statusHeight := 1
	inputHeight := 0
	if a.mode == modeChat {
		inputHeight = 1
	}
	contentHeight := a.height - headerHeight - filterHeight - statusHeight - inputHeight - 4 // borders
	if contentHeight < 3 {
		contentHeight = 3
	}

	listWidth := int(float64(a.width) * 0.35)
	detailWidth := a.width - listWidth - 1 // gap

	// Header
	headerLeft := headerStyle.Render("tubedash")
	headerRight := headerDateStyle.Render(a.currentDate)
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	// Filter bar, replaced by the search input while searching
	filter := a.filterBar.render(a.width)
	if a.mode == modeSearch {
		filter = a.searchInput.View()
	}

	videos := a.visible()

	// List pane
	innerListW := listWidth - 4 // border + padding
	listContent := renderCardList(videos, a.cursor, contentHeight, innerListW)

	var listPane string
	if a.focus == focusList {
		listPane = listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	} else {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	// Detail pane
	spinnerView := ""
	if a.busySpinning() {
		spinnerView = a.spinner.View()
	}
	innerDetailW := detailWidth - 4
	detailContent := renderDetail(a.session.Selected, a.session.Chat, a.md, innerDetailW, contentHeight, a.detailScroll, spinnerView)

	var detailPane string
	if a.focus == focusDetail {
		detailPane = detailPaneActiveStyle.Width(detailWidth - 2).Height(contentHeight).Render(detailContent)
	} else {
		detailPane = detailPaneStyle.Width(detailWidth - 2).Height(contentHeight).Render(detailContent)
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)

	// Status bar
	status := renderStatusBar(len(videos), a.unreadCount(), a.filterBar.activeLabel(), a.width, a.mode, a.session.Busy)
	if a.session.Busy {
		status = a.spinner.View() + " " + status
	}
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	rows := []string{header, filter, content}
	if a.mode == modeChat {
		rows = append(rows, a.chatInput.View())
	}
	rows = append(rows, status)

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("tubedash")
	dim := helpDimStyle

	help := title + dim.Render(" — Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move in list / scroll detail\n" +
		"  tab           Switch focus between list and detail\n" +
		"  enter         Open the full summary\n" +
		"  esc           Close the summary\n\n" +
		dim.Render("Actions") + "\n" +
		"  c             Chat about the selected video\n" +
		"  d             Show the mindmap\n" +
		"  o             Open the video in your browser\n" +
		"  x             Toggle read / unread\n" +
		"  u             Pull fresh summaries from the server\n" +
		"  R             Wipe all server data\n\n" +
		dim.Render("Filtering") + "\n" +
		"  /             Search title and channel\n" +
		"  f             Channel filter mode\n" +
		"  space/enter   Toggle channel (in filter mode)\n" +
		"  r             Unread only (in filter mode)\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(cfg *config.Config, client Client) error {
	app := NewApp(cfg, client)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
