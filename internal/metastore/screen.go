package metastore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/charlesng35/metastore-admin/internal/crud"
	"github.com/charlesng35/metastore-admin/internal/fetch"
	"github.com/charlesng35/metastore-admin/internal/form"
)

// LandingCardLimit is the number of recently updated metastores on the landing view.
const LandingCardLimit = 5

// Route parameters with a fixed meaning.
const (
	ParamNew     = "new"
	ParamDeleted = "deleted"
)

// DeletedKeys lists the fields shown for each entry of the deleted list.
var DeletedKeys = []string{"created_at", "deleted_at", "loader", "metastore_params"}

// ErrNoLoaders is returned when a new metastore is requested before any
// loader is registered.
var ErrNoLoaders = errors.New("metastore: no loaders available")

// Backend is the persistence surface used by the screen.
type Backend interface {
	ListLoaders(ctx context.Context) ([]Loader, error)
	ListMetastores(ctx context.Context) ([]Metastore, error)
	CreateMetastore(ctx context.Context, m Metastore) (Metastore, error)
	UpdateMetastore(ctx context.Context, id int64, fields map[string]any) (Metastore, error)
	DeleteMetastore(ctx context.Context, id int64) error
	RecoverMetastore(ctx context.Context, id int64) (Metastore, error)
	GetScheduleByName(ctx context.Context, name string) (*Schedule, error)
}

// ViewKind enumerates what the screen shows for a route parameter.
type ViewKind int

const (
	ViewLoading ViewKind = iota
	ViewNew
	ViewEdit
	ViewDeleted
	ViewLanding
)

func (k ViewKind) String() string {
	switch k {
	case ViewLoading:
		return "loading"
	case ViewNew:
		return "new"
	case ViewEdit:
		return "edit"
	case ViewDeleted:
		return "deleted"
	case ViewLanding:
		return "landing"
	default:
		return fmt.Sprintf("view(%d)", int(k))
	}
}

// AuditTarget identifies the audit log shown next to an item.
type AuditTarget struct {
	ItemType string
	ItemID   int64
}

// View is the resolved content of the screen.
type View struct {
	Kind ViewKind

	// Editor is set for ViewNew and ViewEdit.
	Editor *Editor
	// Schedule and Audit are set for ViewEdit.
	Schedule *ScheduleSection
	Audit    *AuditTarget

	// Deleted is set for ViewDeleted.
	Deleted []Metastore
	// Cards is set for ViewLanding.
	Cards []Metastore
}

// ScreenOption customises a Screen.
type ScreenOption func(*Screen)

// WithClock overrides the clock used to stamp new metastores.
func WithClock(c clock.Clock) ScreenOption {
	return func(s *Screen) {
		if c != nil {
			s.clock = c
		}
	}
}

// Screen resolves the metastore admin views and wires their actions to a
// Backend.
type Screen struct {
	backend    Backend
	clock      clock.Clock
	loaders    *fetch.DataFetch[[]Loader]
	metastores *fetch.DataFetch[[]Metastore]

	mu        sync.Mutex
	schedules map[int64]*ScheduleSection
}

// NewScreen constructs a screen. Nothing is fetched until Load.
func NewScreen(backend Backend, opts ...ScreenOption) *Screen {
	s := &Screen{
		backend:    backend,
		clock:      clock.New(),
		loaders:    fetch.New(backend.ListLoaders),
		metastores: fetch.New(backend.ListMetastores),
		schedules:  make(map[int64]*ScheduleSection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches loaders and metastores once.
func (s *Screen) Load(ctx context.Context) error {
	_, loaderErr := s.loaders.Fetch(ctx)
	_, listErr := s.metastores.Fetch(ctx)
	return errors.Join(loaderErr, listErr)
}

// Refresh refetches the metastore list.
func (s *Screen) Refresh(ctx context.Context) error {
	_, err := s.metastores.ForceFetch(ctx)
	return err
}

// Loaders returns the fetched loaders.
func (s *Screen) Loaders() ([]Loader, bool) {
	return s.loaders.Data()
}

// Validator returns a validator over the fetched loaders.
func (s *Screen) Validator() Validator {
	loaders, _ := s.loaders.Data()
	return NewValidator(loaders)
}

// Resolve picks the view for a route parameter: "new", "deleted", a numeric
// id or anything else for the landing list.
func (s *Screen) Resolve(param string) View {
	loaders, haveLoaders := s.loaders.Data()
	metastores, _ := s.metastores.Data()

	if param == ParamNew {
		if !haveLoaders || len(loaders) == 0 {
			return View{Kind: ViewLoading}
		}
		item, _ := s.NewMetastore()
		return View{Kind: ViewNew, Editor: s.newEditor(item, loaders)}
	}

	var item *Metastore
	if id, err := strconv.ParseInt(param, 10, 64); err == nil {
		item = findByID(metastores, id)
	}

	if param == ParamDeleted || (item != nil && item.IsDeleted()) {
		var deleted []Metastore
		if item != nil {
			deleted = []Metastore{item.Clone()}
		} else {
			deleted = DeletedMetastores(metastores)
		}
		return View{Kind: ViewDeleted, Deleted: deleted}
	}

	if item != nil {
		if !haveLoaders {
			return View{Kind: ViewLoading}
		}
		id := item.IDValue()
		return View{
			Kind:     ViewEdit,
			Editor:   s.newEditor(item.Clone(), loaders),
			Schedule: s.scheduleSection(id),
			Audit:    &AuditTarget{ItemType: ItemType, ItemID: id},
		}
	}

	return View{Kind: ViewLanding, Cards: LandingCards(metastores)}
}

// NewMetastore builds the default metastore for the first loader.
func (s *Screen) NewMetastore() (Metastore, error) {
	loaders, _ := s.loaders.Data()
	if len(loaders) == 0 {
		return Metastore{}, ErrNoLoaders
	}
	loader := loaders[0]
	now := s.clock.Now().Unix()
	return Metastore{
		CreatedAt:       now,
		UpdatedAt:       now,
		Loader:          loader.Name,
		MetastoreParams: defaultParams(loader),
		ACLControl:      ACLControl{},
	}, nil
}

// Recover restores a deleted metastore, reloads the list and returns the
// location to navigate to.
func (s *Screen) Recover(ctx context.Context, id int64) (string, error) {
	if _, err := s.backend.RecoverMetastore(ctx, id); err != nil {
		return "", err
	}
	if err := s.Refresh(ctx); err != nil {
		return "", err
	}
	return ItemPath(id), nil
}

func (s *Screen) scheduleSection(id int64) *ScheduleSection {
	s.mu.Lock()
	defer s.mu.Unlock()
	section, ok := s.schedules[id]
	if !ok {
		section = NewScheduleSection(id, s.backend.GetScheduleByName)
		s.schedules[id] = section
	}
	return section
}

func (s *Screen) newEditor(item Metastore, loaders []Loader) *Editor {
	validator := NewValidator(loaders)
	opts := crud.Options[Metastore]{
		IsNew:    Metastore.IsNew,
		Validate: validator.Validate,
	}
	if item.IsNew() {
		opts.CreateItem = func(ctx context.Context, m Metastore) (Metastore, error) {
			return s.backend.CreateMetastore(ctx, m)
		}
		opts.OnItemCUD = s.Refresh
	} else {
		id := item.IDValue()
		opts.UpdateItem = func(ctx context.Context, _ Metastore, changes map[string]any) (Metastore, error) {
			return s.backend.UpdateMetastore(ctx, id, changes)
		}
		opts.DeleteItem = func(ctx context.Context, m Metastore) error {
			return s.backend.DeleteMetastore(ctx, m.IDValue())
		}
		opts.OnItemCUD = s.Refresh
	}
	return newEditor(item, loaders, opts)
}

// LandingCards returns up to LandingCardLimit non-deleted metastores, most
// recently updated first. The input is not modified.
func LandingCards(metastores []Metastore) []Metastore {
	active := make([]Metastore, 0, len(metastores))
	for _, m := range metastores {
		if !m.IsDeleted() {
			active = append(active, m.Clone())
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].UpdatedAt > active[j].UpdatedAt
	})
	if len(active) > LandingCardLimit {
		active = active[:LandingCardLimit]
	}
	return active
}

// DeletedMetastores returns the soft deleted metastores in list order.
func DeletedMetastores(metastores []Metastore) []Metastore {
	var out []Metastore
	for _, m := range metastores {
		if m.IsDeleted() {
			out = append(out, m.Clone())
		}
	}
	return out
}

// ItemPath is the location of one metastore.
func ItemPath(id int64) string {
	return fmt.Sprintf("/admin/metastore/%d/", id)
}

// ListPath is the location of the landing view.
const ListPath = "/admin/metastore/"

func findByID(metastores []Metastore, id int64) *Metastore {
	for i := range metastores {
		if metastores[i].ID != nil && *metastores[i].ID == id {
			return &metastores[i]
		}
	}
	return nil
}

func defaultParams(loader Loader) map[string]any {
	if loader.Template.Field == nil {
		return map[string]any{}
	}
	if params, ok := form.DefaultValue(loader.Template.Field).(map[string]any); ok {
		return params
	}
	return map[string]any{}
}
