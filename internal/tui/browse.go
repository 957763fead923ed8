// ABOUTME: Bubbletea browse screen over the catalog view pipeline.
// ABOUTME: Lists posts with search, filter, sort, paging, mirror tests, and best-mirror actions.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/mirrorview/internal/browser"
	"github.com/2389-research/mirrorview/internal/mirror"
	"github.com/2389-research/mirrorview/internal/models"
	"github.com/2389-research/mirrorview/internal/notify"
	"github.com/2389-research/mirrorview/internal/prefs"
	"github.com/2389-research/mirrorview/internal/view"
)

// nearEndRows is how close the cursor gets to the last visible post before
// more are requested.
const nearEndRows = 5

// CatalogSource is the part of catalog.Cache the browse screen needs.
type CatalogSource interface {
	Get(ctx context.Context) (models.Catalog, error)
	Refresh(ctx context.Context) (models.Catalog, error)
}

// BrowseDeps are the collaborators of the browse screen.
type BrowseDeps struct {
	Catalog  CatalogSource
	Pipeline *view.Pipeline
	Prober   *mirror.Prober
	Ranker   *mirror.Ranker
	Prefs    *prefs.Prefs // optional
	Notify   notify.Sink  // optional
	Copy     func(string) error
	Open     func(string) error
}

type catalogMsg struct {
	catalog models.Catalog
	err     error
	refresh bool
}

type probeDoneMsg struct {
	post  models.Post
	batch mirror.Batch
}

type viewUpdatedMsg struct{}

// browseShared holds state every model copy must see.
type browseShared struct {
	updates     chan struct{}
	unsubscribe func()
	favorites   map[string]bool
}

// BrowseModel is the bubbletea model for the browse screen.
type BrowseModel struct {
	deps      BrowseDeps
	shared    *browseShared
	search    textinput.Model
	spinner   spinner.Model
	searching bool
	cursor    int
	height    int
	loaded    bool
	testing   string // link of the post being tested
	status    string
	err       error
	quitting  bool
}

// NewBrowseModel subscribes to the pipeline and prepares the screen.
func NewBrowseModel(deps BrowseDeps) BrowseModel {
	if deps.Notify == nil {
		deps.Notify = notify.Discard
	}
	if deps.Copy == nil {
		deps.Copy = clipboard.WriteAll
	}
	if deps.Open == nil {
		deps.Open = browser.Open
	}

	shared := &browseShared{updates: make(chan struct{}, 1), favorites: make(map[string]bool)}
	shared.unsubscribe = deps.Pipeline.Subscribe(func(view.Snapshot) {
		select {
		case shared.updates <- struct{}{}:
		default:
		}
	})

	if deps.Prefs != nil {
		if links, err := deps.Prefs.Favorites(context.Background()); err == nil {
			for _, l := range links {
				shared.favorites[l] = true
			}
		}
	}

	in := textinput.New()
	in.Placeholder = "search titles and mirrors"
	in.Prompt = "/ "
	in.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot

	return BrowseModel{deps: deps, shared: shared, search: in, spinner: s, height: 20}
}

// Close detaches from the pipeline.
func (m BrowseModel) Close() {
	m.shared.unsubscribe()
}

// Init implements tea.Model.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.load(false), m.spinner.Tick, m.waitForUpdate())
}

func (m BrowseModel) load(refresh bool) tea.Cmd {
	m.deps.Pipeline.SetLoading(true)
	src := m.deps.Catalog
	return func() tea.Msg {
		var cat models.Catalog
		var err error
		if refresh {
			cat, err = src.Refresh(context.Background())
		} else {
			cat, err = src.Get(context.Background())
		}
		return catalogMsg{catalog: cat, err: err, refresh: refresh}
	}
}

func (m BrowseModel) waitForUpdate() tea.Cmd {
	ch := m.shared.updates
	return func() tea.Msg {
		<-ch
		return viewUpdatedMsg{}
	}
}

func (m BrowseModel) snapshot() view.Snapshot {
	return m.deps.Pipeline.Snapshot()
}

func (m BrowseModel) selected() (models.Post, bool) {
	snap := m.snapshot()
	if m.cursor < 0 || m.cursor >= len(snap.Visible) {
		return models.Post{}, false
	}
	return snap.Visible[m.cursor], true
}

// Update implements tea.Model.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)

	case catalogMsg:
		m.deps.Pipeline.SetLoading(false)
		if msg.err != nil {
			// the previous view stays as it was
			m.err = msg.err
			m.deps.Notify.Notify(notify.Event{Kind: notify.KindError, Title: "Catalog unavailable", Detail: msg.err.Error()})
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.deps.Pipeline.SetCatalog(msg.catalog)
		if msg.refresh {
			m.status = fmt.Sprintf("Catalog refreshed: %d posts", len(msg.catalog))
			m.deps.Notify.Notify(notify.Event{Kind: notify.KindRefreshed, Title: "Catalog refreshed", Detail: fmt.Sprintf("%d posts", len(msg.catalog))})
		}
		m.clampCursor()
		return m, nil

	case probeDoneMsg:
		m.testing = ""
		m.status = fmt.Sprintf("%d of %d mirrors online", msg.batch.Online(), len(msg.batch.Results))
		m.deps.Notify.Notify(notify.Event{Kind: notify.KindTestComplete, Title: "Speed test complete", Detail: m.status})
		return m, nil

	case viewUpdatedMsg:
		m.clampCursor()
		return m, m.waitForUpdate()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m BrowseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.deps.Pipeline.FlushSearch()
		m.cursor = 0
		return m, nil
	case tea.KeyEscape:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.deps.Pipeline.SetSearch("")
		m.deps.Pipeline.FlushSearch()
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.deps.Pipeline.SetSearch(m.search.Value())
	return m, cmd
}

func (m BrowseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		return m.move(-1), nil
	case tea.KeyDown:
		return m.move(1), nil
	case tea.KeyPgDown:
		return m.move(m.height), nil
	case tea.KeyPgUp:
		return m.move(-m.height), nil
	case tea.KeyEscape:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyRunes:
	default:
		return m, nil
	}

	switch string(msg.Runes) {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "k":
		return m.move(-1), nil
	case "j":
		return m.move(1), nil
	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case "f":
		m.cycleFilter()
		return m, nil
	case "s":
		m.cycleSort()
		return m, nil
	case "r":
		return m, m.load(true)
	case "t":
		return m.testSelected()
	case "c":
		return m.copyBest(), nil
	case "o":
		return m.openBest(), nil
	case "*":
		return m.toggleFavorite(), nil
	}
	return m, nil
}

func (m BrowseModel) move(delta int) BrowseModel {
	m.cursor += delta
	m.clampCursor()
	snap := m.snapshot()
	if snap.HasMore && m.cursor >= len(snap.Visible)-nearEndRows {
		m.deps.Pipeline.NearEnd()
	}
	return m
}

func (m *BrowseModel) clampCursor() {
	n := len(m.snapshot().Visible)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *BrowseModel) cycleFilter() {
	current := m.snapshot().Query.Filter
	next := models.Categories[0]
	for i, f := range models.Categories {
		if f == current {
			next = models.Categories[(i+1)%len(models.Categories)]
			break
		}
	}
	m.deps.Pipeline.SetFilter(next)
	m.cursor = 0
	if m.deps.Prefs != nil {
		if err := m.deps.Prefs.SetFilter(context.Background(), next); err != nil {
			m.status = "Saving filter failed: " + err.Error()
		}
	}
}

func (m *BrowseModel) cycleSort() {
	current := m.snapshot().Query.Sort
	next := view.SortKeys[0]
	for i, k := range view.SortKeys {
		if k == current {
			next = view.SortKeys[(i+1)%len(view.SortKeys)]
			break
		}
	}
	m.deps.Pipeline.SetSort(next)
	m.cursor = 0
	if m.deps.Prefs != nil {
		if err := m.deps.Prefs.SetSort(context.Background(), next); err != nil {
			m.status = "Saving sort failed: " + err.Error()
		}
	}
}

func (m BrowseModel) testSelected() (tea.Model, tea.Cmd) {
	post, ok := m.selected()
	if !ok || len(post.Links) == 0 || m.deps.Prober.Testing() {
		return m, nil
	}
	m.testing = post.Link
	m.status = fmt.Sprintf("Testing %d mirrors...", len(post.Links))
	prober := m.deps.Prober
	return m, func() tea.Msg {
		return probeDoneMsg{post: post, batch: prober.ProbeAll(context.Background(), post.Links)}
	}
}

func (m BrowseModel) best() (models.Post, string, bool) {
	post, ok := m.selected()
	if !ok {
		return models.Post{}, "", false
	}
	url, ok := m.deps.Ranker.PickBest(post, m.deps.Prober.Results())
	return post, url, ok
}

func (m BrowseModel) copyBest() BrowseModel {
	post, url, ok := m.best()
	if !ok {
		m.status = "No mirrors for this post"
		return m
	}
	if err := m.deps.Copy(url); err != nil {
		m.status = "Copy failed: " + err.Error()
		m.deps.Notify.Notify(notify.Event{Kind: notify.KindError, Title: "Copy failed", Detail: err.Error()})
		return m
	}
	m.status = "Copied " + mirror.Domain(url)
	m.deps.Notify.Notify(notify.Event{Kind: notify.KindCopied, Title: "Link copied", Detail: mirror.Domain(url)})
	m.addRecent(post)
	return m
}

func (m BrowseModel) openBest() BrowseModel {
	post, url, ok := m.best()
	if !ok {
		m.status = "No mirrors for this post"
		return m
	}
	if err := m.deps.Open(url); err != nil {
		m.status = "Open failed: " + err.Error()
		m.deps.Notify.Notify(notify.Event{Kind: notify.KindError, Title: "Open failed", Detail: err.Error()})
		return m
	}
	m.status = "Opened " + mirror.Domain(url)
	m.deps.Notify.Notify(notify.Event{Kind: notify.KindBestMirror, Title: "Opening best mirror", Detail: mirror.Domain(url)})
	m.addRecent(post)
	return m
}

func (m *BrowseModel) addRecent(post models.Post) {
	if m.deps.Prefs == nil {
		return
	}
	if err := m.deps.Prefs.AddRecent(context.Background(), post); err != nil {
		m.status += " (saving recent failed: " + err.Error() + ")"
	}
}

func (m BrowseModel) toggleFavorite() BrowseModel {
	post, ok := m.selected()
	if !ok || m.deps.Prefs == nil {
		return m
	}
	on, err := m.deps.Prefs.ToggleFavorite(context.Background(), post.Link)
	if err != nil {
		m.status = "Favorite failed: " + err.Error()
		return m
	}
	if on {
		m.shared.favorites[post.Link] = true
		m.status = "Added to favorites"
	} else {
		delete(m.shared.favorites, post.Link)
		m.status = "Removed from favorites"
	}
	m.deps.Notify.Notify(notify.Event{Kind: notify.KindFavorite, Title: m.status, Detail: post.Title})
	return m
}

// View implements tea.Model.
func (m BrowseModel) View() string {
	if m.quitting {
		return ""
	}
	snap := m.snapshot()
	var b strings.Builder

	b.WriteString(brandStyle.Render(" MIRRORVIEW"))
	fmt.Fprintf(&b, "  %s", stepStyle.Render(fmt.Sprintf("filter:%s  sort:%s", snap.Query.Filter, snap.Query.Sort)))
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case snap.Query.Search != "":
		b.WriteString(promptStyle.Render("search: " + snap.Query.Search))
	}
	b.WriteString("\n")

	if snap.Loading {
		b.WriteString(m.spinner.View())
		b.WriteString(" Loading catalog...\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("✗ " + m.err.Error()))
		b.WriteString(promptStyle.Render("  [r]etry"))
		b.WriteString("\n")
	}
	if m.loaded && len(snap.Visible) == 0 {
		b.WriteString(promptStyle.Render("No posts match."))
		b.WriteString("\n")
	}

	start := 0
	if m.cursor >= m.height {
		start = m.cursor - m.height + 1
	}
	end := min(start+m.height, len(snap.Visible))
	for i := start; i < end; i++ {
		m.renderPost(&b, snap.Visible[i], i == m.cursor)
	}

	b.WriteString("\n")
	counter := fmt.Sprintf("Showing %d of %d", snap.Shown, snap.Total)
	if snap.Remaining > 0 {
		counter += fmt.Sprintf(" (%d more)", snap.Remaining)
	}
	b.WriteString(stepStyle.Render(counter))
	if m.status != "" {
		b.WriteString("  ")
		b.WriteString(successStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(promptStyle.Render("↑/↓ move  / search  f filter  s sort  t test  c copy  o open  * favorite  r refresh  q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m BrowseModel) renderPost(b *strings.Builder, post models.Post, selected bool) {
	star := " "
	if m.shared.favorites[post.Link] {
		star = favoriteStyle.Render("★")
	}
	line := fmt.Sprintf("%s %s  %s", star, post.Title, stepStyle.Render(fmt.Sprintf("[%s] %d mirrors", models.Category(post.Title), len(post.Links))))
	if selected {
		b.WriteString(selectedStyle.Render("> "))
	} else {
		b.WriteString("  ")
	}
	b.WriteString(line)
	b.WriteString("\n")
	if !selected {
		return
	}

	best, _ := m.deps.Ranker.PickBest(post, m.deps.Prober.Results())
	for _, link := range post.Links {
		marker := "   "
		if link == best {
			marker = " ➜ "
		}
		fmt.Fprintf(b, "    %s%s %s\n", marker, mirror.Domain(link), statusLabel(m.deps.Prober, link, m.testing == post.Link))
	}
}

func statusLabel(p *mirror.Prober, link string, inFlight bool) string {
	r, ok := p.Result(link)
	if !ok {
		if inFlight {
			return promptStyle.Render("testing...")
		}
		return ""
	}
	ms, _ := r.LatencyMs()
	switch r.Status {
	case models.StatusFast:
		return fastStyle.Render(fmt.Sprintf("fast %dms", ms))
	case models.StatusNormal:
		return normalStyle.Render(fmt.Sprintf("normal %dms", ms))
	case models.StatusSlow:
		return slowStyle.Render(fmt.Sprintf("slow %dms", ms))
	}
	return offlineStyle.Render("offline")
}
