package metastore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/metastore-admin/internal/crud"
	"github.com/charlesng35/metastore-admin/internal/form"
)

const hmsTemplate = `{
	"field_type": "struct",
	"fields": {
		"hms_connection": {
			"field_type": "list",
			"of": {"field_type": "string", "required": true},
			"min": 1,
			"max": null
		},
		"load_partitions": {"field_type": "boolean"}
	}
}`

const sqlTemplate = `{
	"field_type": "struct",
	"fields": {
		"connection_string": {"field_type": "string", "required": true}
	}
}`

func testLoaders(t *testing.T) []Loader {
	t.Helper()
	var hms, sql form.Schema
	require.NoError(t, json.Unmarshal([]byte(hmsTemplate), &hms))
	require.NoError(t, json.Unmarshal([]byte(sqlTemplate), &sql))
	return []Loader{
		{Name: "HMSMetastoreLoader", Template: hms},
		{Name: "SqlAlchemyMetastoreLoader", Template: sql},
	}
}

func int64Ptr(v int64) *int64 { return &v }

func validMetastore() Metastore {
	return Metastore{
		ID:     int64Ptr(1),
		Name:   "prod",
		Loader: "SqlAlchemyMetastoreLoader",
		MetastoreParams: map[string]any{
			"connection_string": "mysql://localhost/meta",
		},
	}
}

func TestValidatorAcceptsValidMetastore(t *testing.T) {
	v := NewValidator(testLoaders(t))
	require.Empty(t, v.Validate(validMetastore()))

	m := validMetastore()
	m.ACLControl = ACLControl{Type: ACLAllowlist, Tables: []string{"db.a", "db.b"}}
	require.Empty(t, v.Validate(m))
}

func TestValidatorName(t *testing.T) {
	v := NewValidator(testLoaders(t))

	m := validMetastore()
	m.Name = ""
	require.Equal(t, "Name cannot be empty", v.Validate(m)[FieldName])

	m.Name = strings.Repeat("a", MaxNameLength)
	require.NotContains(t, v.Validate(m), FieldName)

	m.Name = strings.Repeat("a", MaxNameLength+1)
	require.Equal(t, "Name is too long", v.Validate(m)[FieldName])
}

func TestValidatorUnknownLoaderSkipsParams(t *testing.T) {
	v := NewValidator(testLoaders(t))

	m := validMetastore()
	m.Loader = "Missing"
	m.MetastoreParams = nil

	errs := v.Validate(m)
	require.Equal(t, map[string]string{FieldLoader: "Invalid loader"}, errs)
}

func TestValidatorParamsReportPath(t *testing.T) {
	v := NewValidator(testLoaders(t))

	m := validMetastore()
	m.Loader = "HMSMetastoreLoader"
	m.MetastoreParams = map[string]any{"hms_connection": []any{"thrift://a", ""}}

	errs := v.Validate(m)
	require.Equal(t, "Error found in loader params hms_connection[1]: Required", errs[FieldParams])
}

func TestValidatorACLReportsFirstEmptyTable(t *testing.T) {
	v := NewValidator(testLoaders(t))

	m := validMetastore()
	m.ACLControl = ACLControl{Type: ACLDenylist, Tables: []string{"db.a", "", ""}}
	require.Equal(t, "Table at index 1 is empty", v.Validate(m)[FieldACLControl])
}

func TestValidatorReportsAllFailuresTogether(t *testing.T) {
	v := NewValidator(testLoaders(t))

	m := Metastore{
		Loader:          "SqlAlchemyMetastoreLoader",
		MetastoreParams: map[string]any{},
		ACLControl:      ACLControl{Type: ACLDenylist, Tables: []string{""}},
	}
	errs := v.Validate(m)
	require.Len(t, errs, 3)
	require.Contains(t, errs, FieldName)
	require.Contains(t, errs, FieldParams)
	require.Contains(t, errs, FieldACLControl)
}

func TestACLControlJSON(t *testing.T) {
	data, err := json.Marshal(ACLControl{})
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data))

	data, err = json.Marshal(ACLControl{Type: ACLDenylist})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"denylist","tables":[]}`, string(data))

	var acl ACLControl
	require.NoError(t, json.Unmarshal([]byte(`{"type":"allowlist"}`), &acl))
	require.Equal(t, ACLAllowlist, acl.Type)
	require.NotNil(t, acl.Tables)

	require.Error(t, json.Unmarshal([]byte(`{"type":"blocklist"}`), &acl))
}

func TestACLModeSwitchResetsTables(t *testing.T) {
	acl := ACLControl{Type: ACLDenylist, Tables: []string{"db.a", "db.b"}}

	switched := acl.WithMode(ACLAllowlist)
	require.Equal(t, ACLAllowlist, switched.Type)
	require.Equal(t, []string{}, switched.Tables)

	same := acl.WithMode(ACLDenylist)
	require.Equal(t, []string{}, same.Tables)

	require.False(t, acl.WithMode(ACLUnset).IsSet())
	require.Equal(t, []string{"db.a", "db.b"}, acl.Tables)
}

func TestACLTableEditing(t *testing.T) {
	acl := CreateACL()
	require.Equal(t, ACLDenylist, acl.Type)
	require.Empty(t, acl.Tables)

	acl = acl.AppendTable()
	acl = acl.WithTables(form.Path{0}, "db.a")
	acl = acl.AppendTable()
	require.Equal(t, []string{"db.a", ""}, acl.Tables)

	acl = acl.RemoveTable(1)
	require.Equal(t, []string{"db.a"}, acl.Tables)

	// at least one entry stays once present
	acl = acl.RemoveTable(0)
	require.Equal(t, []string{"db.a"}, acl.Tables)

	view := acl.View()
	require.NotNil(t, view)
	require.Equal(t, "All tables will be allowed unless specified.", view.Warning)
	require.Equal(t, "Remove Denylist", view.RemoveText)
	require.False(t, view.Tables.CanRemove)
	require.Len(t, view.Tables.Children, 1)
	require.Equal(t, "Table to Denylist", view.Tables.Children[0].Description)

	allow := acl.WithMode(ACLAllowlist).View()
	require.Equal(t, "All tables will be denied unless specified.", allow.Warning)
	require.Equal(t, "Remove Allowlist", allow.RemoveText)

	require.Nil(t, ACLControl{}.View())
}

func TestLandingCardsOrderAndLimit(t *testing.T) {
	var metastores []Metastore
	for i, at := range []int64{100, 300, 200, 50, 400, 10} {
		metastores = append(metastores, Metastore{ID: int64Ptr(int64(i + 1)), UpdatedAt: at})
	}
	metastores = append(metastores, Metastore{ID: int64Ptr(99), UpdatedAt: 1000, DeletedAt: int64Ptr(1000)})

	cards := LandingCards(metastores)
	var got []int64
	for _, c := range cards {
		got = append(got, c.UpdatedAt)
	}
	require.Equal(t, []int64{400, 300, 200, 100, 50}, got)
	require.Equal(t, int64(100), metastores[0].UpdatedAt)
}

func TestDefaultMetastoreParamsFailMinimum(t *testing.T) {
	loaders := testLoaders(t)
	params := defaultParams(loaders[0])
	require.Equal(t, map[string]any{"hms_connection": []any{}, "load_partitions": ""}, params)

	res := form.Validate(params, loaders[0].Template.Field)
	require.False(t, res.Valid)
	require.Equal(t, "Require at least 1 values", res.Message)
}

func TestScheduleSectionLatch(t *testing.T) {
	var schedule *Schedule
	calls := 0
	section := NewScheduleSection(7, func(_ context.Context, name string) (*Schedule, error) {
		calls++
		require.Equal(t, "update_metastore_7", name)
		return schedule, nil
	})

	require.NoError(t, section.Load(context.Background()))
	require.False(t, section.Revealed())
	require.Equal(t, DefaultSchedule(7), section.Task())
	require.Equal(t, []any{int64(7)}, section.Task().Args)

	schedule = &Schedule{ID: int64Ptr(3), Name: "update_metastore_7", Cron: "*/5 * * * *"}
	require.NoError(t, section.Load(context.Background()))
	require.Equal(t, 1, calls)
	require.False(t, section.Revealed())

	require.NoError(t, section.Reload(context.Background()))
	require.True(t, section.Revealed())
	require.Equal(t, "*/5 * * * *", section.Task().Cron)

	schedule = nil
	require.NoError(t, section.Reload(context.Background()))
	require.True(t, section.Revealed())
}

func TestScheduleSectionManualReveal(t *testing.T) {
	section := NewScheduleSection(1, func(context.Context, string) (*Schedule, error) { return nil, nil })
	section.Reveal()
	require.NoError(t, section.Reload(context.Background()))
	require.True(t, section.Revealed())
}

type fakeBackend struct {
	loaders    []Loader
	metastores []Metastore
	schedules  map[string]*Schedule

	nextID  int64
	updates []map[string]any
	creates int
	failErr error
	now     func() int64
}

func newFakeBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{
		loaders:   testLoaders(t),
		schedules: map[string]*Schedule{},
		nextID:    1,
		now:       func() int64 { return 1000 },
	}
}

func (f *fakeBackend) ListLoaders(context.Context) ([]Loader, error) { return f.loaders, nil }

func (f *fakeBackend) ListMetastores(context.Context) ([]Metastore, error) {
	out := make([]Metastore, len(f.metastores))
	for i, m := range f.metastores {
		out[i] = m.Clone()
	}
	return out, nil
}

func (f *fakeBackend) CreateMetastore(_ context.Context, m Metastore) (Metastore, error) {
	f.creates++
	if f.failErr != nil {
		return Metastore{}, f.failErr
	}
	m = m.Clone()
	m.ID = int64Ptr(f.nextID)
	f.nextID++
	f.metastores = append(f.metastores, m)
	return m.Clone(), nil
}

func (f *fakeBackend) find(id int64) *Metastore {
	return findByID(f.metastores, id)
}

func (f *fakeBackend) UpdateMetastore(_ context.Context, id int64, fields map[string]any) (Metastore, error) {
	f.updates = append(f.updates, fields)
	if f.failErr != nil {
		return Metastore{}, f.failErr
	}
	m := f.find(id)
	if m == nil {
		return Metastore{}, errors.New("not found")
	}
	if name, ok := fields["name"].(string); ok {
		m.Name = name
	}
	m.UpdatedAt = f.now()
	return m.Clone(), nil
}

func (f *fakeBackend) DeleteMetastore(_ context.Context, id int64) error {
	m := f.find(id)
	if m == nil {
		return errors.New("not found")
	}
	m.DeletedAt = int64Ptr(f.now())
	return nil
}

func (f *fakeBackend) RecoverMetastore(_ context.Context, id int64) (Metastore, error) {
	m := f.find(id)
	if m == nil {
		return Metastore{}, errors.New("not found")
	}
	m.DeletedAt = nil
	return m.Clone(), nil
}

func (f *fakeBackend) GetScheduleByName(_ context.Context, name string) (*Schedule, error) {
	return f.schedules[name], nil
}

func TestScreenLoadingUntilFetched(t *testing.T) {
	screen := NewScreen(newFakeBackend(t))
	require.Equal(t, ViewLoading, screen.Resolve(ParamNew).Kind)
	require.Equal(t, ViewLanding, screen.Resolve("").Kind)
}

func TestScreenNewViewCreatesAndNavigates(t *testing.T) {
	backend := newFakeBackend(t)
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	screen := NewScreen(backend, WithClock(mock))
	ctx := context.Background()
	require.NoError(t, screen.Load(ctx))

	view := screen.Resolve(ParamNew)
	require.Equal(t, ViewNew, view.Kind)
	require.Nil(t, view.Schedule)

	editor := view.Editor
	item := editor.Item()
	require.True(t, item.IsNew())
	require.Equal(t, "HMSMetastoreLoader", item.Loader)
	require.Equal(t, int64(1700000000), item.CreatedAt)
	require.False(t, item.ACLControl.IsSet())

	_, _, err := editor.Save(ctx)
	var verr *crud.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 0, backend.creates)

	require.NoError(t, editor.SetName("warehouse"))
	require.NoError(t, editor.ChangeLoader("SqlAlchemyMetastoreLoader"))
	require.Equal(t, map[string]any{"connection_string": ""}, editor.Item().MetastoreParams)
	require.NoError(t, editor.ChangeLoader("Unknown"))
	require.Equal(t, "SqlAlchemyMetastoreLoader", editor.Item().Loader)
	require.NoError(t, editor.SetParam(form.Path{"connection_string"}, "sqlite://"))

	ctrl, ok := editor.ParamsControl()
	require.True(t, ok)
	require.Equal(t, "sqlite://", ctrl.Children[0].Value)

	created, next, err := editor.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, "/admin/metastore/1/", next)
	require.Equal(t, "warehouse", created.Name)

	edit := screen.Resolve("1")
	require.Equal(t, ViewEdit, edit.Kind)
	require.Equal(t, &AuditTarget{ItemType: "query_metastore", ItemID: 1}, edit.Audit)
	require.NotNil(t, edit.Schedule)
}

func TestScreenEditSendsChangedFields(t *testing.T) {
	backend := newFakeBackend(t)
	backend.metastores = []Metastore{validMetastore()}
	screen := NewScreen(backend)
	ctx := context.Background()
	require.NoError(t, screen.Load(ctx))

	editor := screen.Resolve("1").Editor
	require.NoError(t, editor.SetName("renamed"))
	require.Equal(t, crud.StateEditing, editor.Controller().State())

	saved, next, err := editor.Save(ctx)
	require.NoError(t, err)
	require.Empty(t, next)
	require.Equal(t, "renamed", saved.Name)
	require.Equal(t, []map[string]any{{"name": "renamed"}}, backend.updates)
	require.Equal(t, crud.StateViewing, editor.Controller().State())
}

func TestScreenFailedSaveKeepsEdits(t *testing.T) {
	backend := newFakeBackend(t)
	backend.metastores = []Metastore{validMetastore()}
	backend.failErr = errors.New("backend down")
	screen := NewScreen(backend)
	ctx := context.Background()
	require.NoError(t, screen.Load(ctx))

	editor := screen.Resolve("1").Editor
	require.NoError(t, editor.SetName("renamed"))
	_, _, err := editor.Save(ctx)
	require.EqualError(t, err, "backend down")
	require.Equal(t, "renamed", editor.Item().Name)
	require.Equal(t, "prod", editor.Controller().Committed().Name)
}

func TestScreenDeleteAndRecover(t *testing.T) {
	backend := newFakeBackend(t)
	backend.metastores = []Metastore{validMetastore()}
	screen := NewScreen(backend)
	ctx := context.Background()
	require.NoError(t, screen.Load(ctx))

	next, err := screen.Resolve("1").Editor.Delete(ctx)
	require.NoError(t, err)
	require.Equal(t, ListPath, next)

	deleted := screen.Resolve(ParamDeleted)
	require.Equal(t, ViewDeleted, deleted.Kind)
	require.Len(t, deleted.Deleted, 1)
	require.NotNil(t, deleted.Deleted[0].DeletedAt)

	single := screen.Resolve("1")
	require.Equal(t, ViewDeleted, single.Kind)
	require.Len(t, single.Deleted, 1)
	require.Empty(t, screen.Resolve("").Cards)

	next, err = screen.Recover(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "/admin/metastore/1/", next)

	require.Equal(t, ViewEdit, screen.Resolve("1").Kind)
	cards := screen.Resolve("").Cards
	require.Len(t, cards, 1)
	require.Nil(t, cards[0].DeletedAt)
	require.Empty(t, screen.Resolve(ParamDeleted).Deleted)
}

func TestScreenUnknownIDFallsBackToLanding(t *testing.T) {
	backend := newFakeBackend(t)
	backend.metastores = []Metastore{validMetastore()}
	screen := NewScreen(backend)
	require.NoError(t, screen.Load(context.Background()))

	view := screen.Resolve("42")
	require.Equal(t, ViewLanding, view.Kind)
	require.Len(t, view.Cards, 1)
}

func TestScreenEditEditorACL(t *testing.T) {
	backend := newFakeBackend(t)
	backend.metastores = []Metastore{validMetastore()}
	screen := NewScreen(backend)
	require.NoError(t, screen.Load(context.Background()))

	editor := screen.Resolve("1").Editor
	require.Nil(t, editor.ACLView())

	require.NoError(t, editor.CreateACL())
	require.NoError(t, editor.AppendACLTable())
	require.Equal(t, "Table at index 0 is empty", editor.Errors()[FieldACLControl])

	require.NoError(t, editor.SetACLTable(form.Path{0}, "db.t"))
	require.Empty(t, editor.Errors())

	require.NoError(t, editor.SetACLMode(ACLAllowlist))
	require.Equal(t, ACLControl{Type: ACLAllowlist, Tables: []string{}}, editor.Item().ACLControl)

	require.NoError(t, editor.RemoveACL())
	require.False(t, editor.Item().ACLControl.IsSet())

	editor.Cancel()
	require.False(t, editor.Controller().Dirty())
}
