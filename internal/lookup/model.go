package lookup

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/dvpick/internal/guid"
	"github.com/runger/dvpick/internal/webapi"
)

// Defaults for the timing knobs. Debounce trades latency for request
// volume; the close delay keeps the dropdown mounted long enough for a
// mouse click that lands right after the query input loses focus.
const (
	DefaultDebounce   = 300 * time.Millisecond
	DefaultCloseDelay = 150 * time.Millisecond
	DefaultPageSize   = 20
)

// minSearchLen is the shortest free-text term that triggers a fetch.
// Shorter terms would scan half the entity; GUID-shaped terms bypass the
// gate because they resolve to a single keyed read.
const minSearchLen = 2

// searchState is the search pipeline's state machine position.
type searchState int

const (
	stateIdle      searchState = iota // nothing in flight, no results to show
	stateDebouncing                   // keystroke received, timer pending
	stateFetching                     // request in flight
	stateLoaded                       // results displayed
	stateEmpty                        // fetch succeeded with zero usable rows
	stateFailed                       // fetch or metadata failure displayed
)

// focusZone tracks which part of the picker owns key input.
type focusZone int

const (
	zoneQuery   focusZone = iota // the text input
	zoneTargets                  // the target-entity selector bar
)

// Status messages for the error taxonomy. Not-found-by-id and
// zero-results are informational; only transport and metadata failures
// render in the error style.
const (
	msgNoRecordByID = "No record found with that ID."
	msgNoRecords    = "No records found."
	msgMetadata     = "Entity metadata unavailable; search is disabled."
	msgSearchFailed = "Search failed."
)

// Messages flowing through the event loop.
type (
	initMsg        struct{}
	targetsDoneMsg struct {
		set TargetSet
		err error
	}
	debounceMsg struct {
		id uint64 // must match debounceID to be accepted
	}
	searchDoneMsg struct {
		requestID uint64 // must match requestID to be accepted
		term      string
		results   []SearchResult
		count     int64
		err       error
	}
	closeDropdownMsg struct {
		id uint64 // must match closeID to be accepted
	}
)

// Options configures a picker Model.
type Options struct {
	Searcher       Searcher
	Loader         TargetLoader // nil for caller-supplied single targets
	Targets        []string     // explicit candidates, used when Loader is nil
	ExistingTarget string       // logical name of the current value's entity
	Current        Selection    // current value of the lookup, may be zero
	InitialQuery   string
	OnChange       func(*SearchResult) // selection sink; nil = no notifications
	Debounce       time.Duration
	CloseDelay     time.Duration
	PageSize       int
}

// Model is the Bubble Tea model for the lookup picker.
type Model struct {
	state     searchState
	zone      focusZone
	input     textinput.Model
	targets   TargetSet
	selection Selection

	results   []SearchResult
	highlight int // index into results; -1 = none
	count     int64
	dropdown  bool

	errMsg    string // failure line (error style)
	statusMsg string // informational line

	searcher   Searcher
	loader     TargetLoader
	candidates []string
	existing   string
	onChange   func(*SearchResult)

	debounce   time.Duration
	closeDelay time.Duration
	pageSize   int

	// Generation counters. Every async completion carries the counter
	// value captured at start; a mismatch at delivery time means the
	// completion is stale and is silently dropped.
	debounceID uint64
	requestID  uint64
	closeID    uint64

	cancelFetch context.CancelFunc

	width  int
	height int

	targetsReady bool
	cancelled    bool
	picked       *SearchResult
	didPick      bool

	// lastNotified guards the exactly-once callback contract in tests.
	notifyCount int
}

// NewModel creates a picker Model from opts, applying defaults.
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Type to search, or paste a record ID"
	ti.Prompt = "> "
	ti.Focus()
	if opts.InitialQuery != "" {
		ti.SetValue(opts.InitialQuery)
	}

	m := Model{
		state:      stateIdle,
		zone:       zoneQuery,
		input:      ti,
		selection:  opts.Current,
		highlight:  -1,
		count:      -1,
		searcher:   opts.Searcher,
		loader:     opts.Loader,
		candidates: opts.Targets,
		existing:   opts.ExistingTarget,
		onChange:   opts.OnChange,
		debounce:   opts.Debounce,
		closeDelay: opts.CloseDelay,
		pageSize:   opts.PageSize,
		targets:    TargetSet{Active: -1},
	}
	if m.debounce <= 0 {
		m.debounce = DefaultDebounce
	}
	if m.closeDelay <= 0 {
		m.closeDelay = DefaultCloseDelay
	}
	if m.pageSize <= 0 {
		m.pageSize = DefaultPageSize
	}
	return m
}

// Picked returns the committed result, if any.
func (m Model) Picked() (SearchResult, bool) {
	if m.picked == nil {
		return SearchResult{}, false
	}
	return *m.picked, true
}

// DidPick reports whether the run ended with a pick or an explicit clear.
func (m Model) DidPick() bool { return m.didPick }

// IsCancelled reports whether the user abandoned the picker.
func (m Model) IsCancelled() bool { return m.cancelled }

// CurrentSelection returns the selection state, which may be the cleared
// zero value after an explicit clear.
func (m Model) CurrentSelection() Selection { return m.selection }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return initMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case initMsg:
		return m, m.loadTargets("")

	case targetsDoneMsg:
		return m.handleTargetsDone(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case debounceMsg:
		return m.handleDebounce(msg)

	case searchDoneMsg:
		return m.handleSearchDone(msg)

	case closeDropdownMsg:
		if msg.id == m.closeID {
			m.dropdown = false
		}
		return m, nil
	}

	// Cursor blink and other component messages.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// loadTargets resolves the target set asynchronously. previousActive is
// carried across reloads so a still-valid active target survives.
func (m *Model) loadTargets(previousActive string) tea.Cmd {
	loader := m.loader
	if loader == nil && len(m.candidates) > 0 {
		fixed := m.candidates
		loader = func(context.Context) ([]string, error) { return fixed, nil }
	}
	existing := m.existing
	return func() tea.Msg {
		set, err := ResolveTargets(context.Background(), loader, existing, previousActive)
		return targetsDoneMsg{set: set, err: err}
	}
}

func (m Model) handleTargetsDone(msg targetsDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.errMsg = msgMetadata
		m.state = stateFailed
		m.targets = TargetSet{Active: -1}
		m.targetsReady = false
		return m, nil
	}
	m.targets = msg.set
	m.targetsReady = msg.set.Active >= 0
	m.errMsg = ""
	if !m.targetsReady {
		m.errMsg = msgMetadata
		m.state = stateFailed
		return m, nil
	}
	// First fetch: browse mode or the initial query.
	return m, m.startSearch()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.cancelled = true
		m.teardown()
		return m, tea.Quit

	case tea.KeyEsc:
		// Esc closes the dropdown only; a second Esc leaves the picker.
		if m.dropdown {
			m.dropdown = false
			m.closeID++
			return m, nil
		}
		m.cancelled = true
		m.teardown()
		return m, tea.Quit

	case tea.KeyTab, tea.KeyShiftTab:
		return m.toggleZone()

	case tea.KeyCtrlX:
		return m.clearSelection()

	case tea.KeyCtrlR:
		if m.loader != nil {
			return m, m.loadTargets(m.targets.ActiveName())
		}
		return m, nil
	}

	if m.zone == zoneTargets {
		return m.handleTargetKey(msg)
	}
	return m.handleQueryKey(msg)
}

// toggleZone moves focus between the query input and the target bar.
// Leaving the input marks it blurred immediately but defers the dropdown
// close so a click on a result row still lands (pending-close token).
func (m Model) toggleZone() (tea.Model, tea.Cmd) {
	if m.zone == zoneQuery {
		if len(m.targets.Names) < 2 {
			return m, nil
		}
		m.zone = zoneTargets
		m.input.Blur()
		if !m.dropdown {
			return m, nil
		}
		m.closeID++
		id := m.closeID
		delay := m.closeDelay
		return m, tea.Tick(delay, func(time.Time) tea.Msg {
			return closeDropdownMsg{id: id}
		})
	}

	m.zone = zoneQuery
	m.input.Focus()
	m.closeID++ // cancel any pending close
	if len(m.results) > 0 {
		m.dropdown = true
	}
	return m, textinput.Blink
}

// handleTargetKey processes keys while the target bar has focus.
func (m Model) handleTargetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyLeft:
		return m.changeTarget(-1)
	case tea.KeyRight:
		return m.changeTarget(+1)
	case tea.KeyEnter:
		return m.toggleZone()
	}
	return m, nil
}

// handleQueryKey processes keys while the query input has focus.
func (m Model) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyDown:
		return m.moveHighlight(+1), nil
	case tea.KeyUp:
		return m.moveHighlight(-1), nil
	case tea.KeyEnter:
		return m.commitHighlight()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.state = stateDebouncing
		return m, tea.Batch(cmd, m.startDebounce())
	}
	return m, cmd
}

// handleMouse picks the clicked dropdown row. This is the path the
// pending-close delay exists for: the click may arrive after the input
// lost focus but before the deferred close fired.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if !m.dropdown {
		return m, nil
	}
	row := msg.Y - dropdownFirstRow
	if row < 0 || row >= len(m.results) {
		return m, nil
	}
	return m.pick(m.results[row])
}

// moveHighlight moves the result cursor circularly. With a closed
// dropdown and results present it re-opens the dropdown and moves in the
// same keystroke.
func (m Model) moveHighlight(delta int) Model {
	n := len(m.results)
	if n == 0 {
		return m
	}
	if !m.dropdown {
		m.dropdown = true
		m.closeID++
	}
	if m.highlight < 0 {
		if delta > 0 {
			m.highlight = 0
		} else {
			m.highlight = n - 1
		}
		return m
	}
	m.highlight = ((m.highlight+delta)%n + n) % n
	return m
}

// commitHighlight applies the Enter rules: a valid highlight wins; with
// no highlight and exactly one result, that result is committed; anything
// else is a no-op.
func (m Model) commitHighlight() (tea.Model, tea.Cmd) {
	if m.highlight >= 0 && m.highlight < len(m.results) {
		return m.pick(m.results[m.highlight])
	}
	if len(m.results) == 1 {
		return m.pick(m.results[0])
	}
	return m, nil
}

// pick replaces the selection wholesale, resets the search state and
// notifies the sink exactly once, then ends the session.
func (m Model) pick(r SearchResult) (tea.Model, tea.Cmd) {
	m.selection = Selection{
		ID:          r.RecordID,
		DisplayName: r.DisplayName,
		LogicalName: r.LogicalName,
	}
	m.resetSearch()
	picked := r
	m.picked = &picked
	m.didPick = true
	m.notify(&picked)
	m.teardown()
	return m, tea.Quit
}

// clearSelection empties the selection and notifies the sink with nil.
// The picker stays open so a new record can be chosen.
func (m Model) clearSelection() (tea.Model, tea.Cmd) {
	m.selection = Selection{}
	m.resetSearch()
	m.didPick = true
	m.picked = nil
	m.notify(nil)
	m.state = stateIdle
	return m, nil
}

// changeTarget cycles the active target entity. A record id is only
// meaningful within one entity type, so any selection is invalidated and
// the sink is notified with nil; the search restarts against the new
// target through the normal debounce path.
func (m Model) changeTarget(delta int) (tea.Model, tea.Cmd) {
	if len(m.targets.Names) < 2 {
		return m, nil
	}
	m.targets.Cycle(delta)
	m.selection = Selection{}
	m.picked = nil
	m.results = nil
	m.highlight = -1
	m.count = -1
	m.dropdown = false
	m.errMsg = ""
	m.statusMsg = ""
	m.cancelInflight()
	m.notify(nil)
	m.state = stateDebouncing
	return m, m.startDebounce()
}

// startDebounce supersedes any pending debounce timer by bumping the
// token; only the newest timer's expiry is honored.
func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	d := m.debounce
	return tea.Tick(d, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// handleDebounce applies the search-eligibility gate once the quiet
// period elapses. Empty terms browse, GUID-shaped terms bypass the length
// gate, anything shorter than minSearchLen closes the dropdown and stays
// idle.
func (m Model) handleDebounce(msg debounceMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.debounceID {
		return m, nil // superseded timer
	}
	if !m.targetsReady {
		return m, nil
	}

	term := strings.TrimSpace(m.input.Value())
	if term != "" && utf8.RuneCountInString(term) < minSearchLen && !guid.LooksLikeID(term) {
		m.dropdown = false
		m.results = nil
		m.highlight = -1
		m.state = stateIdle
		m.statusMsg = ""
		return m, nil
	}
	return m, m.startSearch()
}

// startSearch begins a new search session: the previous session's fetch
// is cancelled and its generation retired, so its eventual completion is
// discarded no matter when it arrives.
func (m *Model) startSearch() tea.Cmd {
	if m.searcher == nil || !m.targetsReady {
		return nil
	}
	m.cancelInflight()
	m.requestID++
	m.state = stateFetching
	m.errMsg = ""
	m.statusMsg = ""

	term := strings.TrimSpace(m.input.Value())
	req := Request{
		RequestID: m.requestID,
		Term:      term,
		ByID:      guid.LooksLikeID(term),
		Target:    m.targets.ActiveName(),
		Top:       m.pageSize,
		WithCount: true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFetch = cancel

	s := m.searcher
	return func() tea.Msg {
		resp, err := s.Search(ctx, req)
		if err != nil {
			return searchDoneMsg{requestID: req.RequestID, term: term, err: err}
		}
		return searchDoneMsg{
			requestID: req.RequestID,
			term:      term,
			results:   resp.Results,
			count:     resp.Count,
		}
	}
}

// handleSearchDone commits a search completion, unless it is stale.
func (m Model) handleSearchDone(msg searchDoneMsg) (tea.Model, tea.Cmd) {
	if msg.requestID != m.requestID {
		return m, nil // stale session, last one wins
	}
	m.cancelFetch = nil

	if msg.err != nil {
		return m.handleSearchError(msg)
	}

	m.results = msg.results
	m.count = msg.count

	if len(m.results) == 0 {
		m.highlight = -1
		m.state = stateEmpty
		if msg.term != "" {
			m.statusMsg = msgNoRecords
		}
	} else {
		m.highlight = 0
		m.state = stateLoaded
	}

	// Open only while the input is focused; never flash an empty browse
	// dropdown at a user who tabbed away.
	m.dropdown = m.zone == zoneQuery && (len(m.results) > 0 || msg.term != "")
	if m.dropdown {
		m.closeID++
	}
	return m, nil
}

// handleSearchError maps the failure taxonomy onto user-visible lines.
func (m Model) handleSearchError(msg searchDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, context.Canceled):
		// Superseded fetch that lost the generation race anyway.
		return m, nil
	case errors.Is(msg.err, webapi.ErrNotFound):
		m.results = nil
		m.highlight = -1
		m.count = -1
		m.state = stateEmpty
		m.statusMsg = msgNoRecordByID
		m.dropdown = m.zone == zoneQuery
	case errors.Is(msg.err, ErrMetadataUnavailable):
		m.results = nil
		m.highlight = -1
		m.count = -1
		m.state = stateFailed
		m.errMsg = msgMetadata
		m.dropdown = false
	default:
		m.results = nil
		m.highlight = -1
		m.count = -1
		m.state = stateFailed
		m.errMsg = msgSearchFailed
		m.dropdown = false
	}
	return m, nil
}

// resetSearch clears term, results and messages and retires every
// outstanding timer and fetch.
func (m *Model) resetSearch() {
	m.input.SetValue("")
	m.results = nil
	m.highlight = -1
	m.count = -1
	m.dropdown = false
	m.errMsg = ""
	m.statusMsg = ""
	m.debounceID++
	m.closeID++
	m.cancelInflight()
}

// teardown retires all generations and cancels the in-flight fetch so no
// pending completion can touch state after the session ends.
func (m *Model) teardown() {
	m.debounceID++
	m.closeID++
	m.requestID++
	m.cancelInflight()
}

func (m *Model) cancelInflight() {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
}

// notify invokes the selection sink exactly once per state-changing
// user action.
func (m *Model) notify(r *SearchResult) {
	m.notifyCount++
	if m.onChange != nil {
		m.onChange(r)
	}
}
