package usersearch

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/metastore-admin/internal/client"
	"github.com/charlesng35/metastore-admin/pkg/logger"
)

// Messages and placeholders shown by the user picker.
const (
	Placeholder     = "username..."
	NoUserFound     = "No user found."
	FallbackDisplay = "No Name"
)

// Finder is the user lookup used by Searcher.
type Finder interface {
	SearchUsers(ctx context.Context, name string) ([]client.User, error)
}

// Option is one selectable user.
type Option struct {
	Value int64  `json:"value"`
	Label string `json:"label"`
}

// DisplayName picks the label of a user row: the trimmed full name, else the
// trimmed username, else a placeholder.
func DisplayName(u client.User) string {
	if name := strings.TrimSpace(u.Fullname); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	return FallbackDisplay
}

// NoOptionsMessage is shown when a search returns nothing; it is empty while
// the input is empty.
func NoOptionsMessage(text string) string {
	if text == "" {
		return ""
	}
	return NoUserFound
}

// Searcher turns input changes into debounced user searches. Results are
// applied in the order they resolve.
type Searcher struct {
	finder    Finder
	debouncer *Debouncer
	log       *zap.Logger

	mu      sync.Mutex
	text    string
	options []Option
}

// NewSearcher builds a searcher. Several searchers may share one debouncer.
func NewSearcher(finder Finder, debouncer *Debouncer) *Searcher {
	if debouncer == nil {
		debouncer = NewDebouncer(nil, DefaultWait)
	}
	return &Searcher{
		finder:    finder,
		debouncer: debouncer,
		log:       logger.WithModule("usersearch"),
		options:   []Option{},
	}
}

// Input records the current search text and runs a search when the debounce
// window allows. fired is false when the keystroke was dropped; the last
// dropped keystroke is searched once the window closes.
func (s *Searcher) Input(ctx context.Context, text string) (options []Option, fired bool, err error) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()

	trailingCtx := context.WithoutCancel(ctx)
	if !s.debouncer.Schedule(func() { _, _ = s.search(trailingCtx, text) }) {
		s.log.Debug("search debounced", zap.String("text", text))
		return s.Options(), false, nil
	}

	options, err = s.search(ctx, text)
	return options, true, err
}

func (s *Searcher) search(ctx context.Context, text string) ([]Option, error) {
	users, err := s.finder.SearchUsers(ctx, text)
	if err != nil {
		s.log.Warn("user search failed", zap.String("text", text), zap.Error(err))
		return s.Options(), err
	}

	options := make([]Option, len(users))
	for i, u := range users {
		options[i] = Option{Value: u.ID, Label: DisplayName(u)}
	}

	s.mu.Lock()
	s.options = options
	s.mu.Unlock()
	return options, nil
}

// Options returns the last applied results.
func (s *Searcher) Options() []Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Option(nil), s.options...)
}

// Text returns the current input.
func (s *Searcher) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// EmptyMessage is NoOptionsMessage for the current input.
func (s *Searcher) EmptyMessage() string {
	return NoOptionsMessage(s.Text())
}

// Select reports the chosen user; a nil option clears the selection. When
// clear is set the input is reset afterwards.
func (s *Searcher) Select(option *Option, clear bool, onSelect func(uid *int64, name string)) {
	if option == nil {
		onSelect(nil, "")
	} else {
		uid := option.Value
		onSelect(&uid, option.Label)
	}
	if clear {
		s.mu.Lock()
		s.text = ""
		s.mu.Unlock()
	}
}
