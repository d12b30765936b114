package services

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/metastore-admin/internal/database/testutil"
	"github.com/charlesng35/metastore-admin/internal/loaders"
	"github.com/charlesng35/metastore-admin/internal/metastore"
)

func newMetastoreServiceForTest(t *testing.T) (*MetastoreService, *AuditService, *clock.Mock, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	audit, err := NewAuditService(db, WithClock(mock))
	require.NoError(t, err)
	registry, err := loaders.NewDefaultRegistry()
	require.NoError(t, err)

	svc, err := NewMetastoreService(db, registry, WithClock(mock), WithAudit(audit))
	require.NoError(t, err)
	return svc, audit, mock, db
}

func sqlAlchemyInput(name string) CreateMetastoreInput {
	return CreateMetastoreInput{
		Name:            name,
		Loader:          loaders.SqlAlchemyLoader,
		MetastoreParams: map[string]any{"connection_string": "sqlite://", "connect_args": []any{}},
	}
}

func TestMetastoreServiceCreateAndGet(t *testing.T) {
	svc, audit, mock, _ := newMetastoreServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, sqlAlchemyInput("  warehouse "), "admin")
	require.NoError(t, err)
	require.NotNil(t, created.ID)
	require.Equal(t, "warehouse", created.Name)
	require.Equal(t, mock.Now().Unix(), created.CreatedAt)
	require.Nil(t, created.DeletedAt)
	require.False(t, created.ACLControl.IsSet())

	fetched, err := svc.Get(ctx, *created.ID)
	require.NoError(t, err)
	require.Equal(t, created, fetched)

	logs, err := audit.List(ctx, AuditFilters{ItemType: metastore.ItemType, ItemID: *created.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, AuditActionCreate, logs[0].Action)
	require.Equal(t, "admin", logs[0].Username)

	_, err = svc.Get(ctx, 999)
	require.ErrorIs(t, err, ErrMetastoreNotFound)
}

func TestMetastoreServiceCreateValidates(t *testing.T) {
	svc, _, _, _ := newMetastoreServiceForTest(t)

	_, err := svc.Create(context.Background(), CreateMetastoreInput{
		Loader:          loaders.HMSThriftLoader,
		MetastoreParams: map[string]any{"hms_connection": []any{}},
		ACLControl:      metastore.ACLControl{Type: metastore.ACLDenylist, Tables: []string{""}},
	}, "admin")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Name cannot be empty", verr.Fields[metastore.FieldName])
	require.Contains(t, verr.Fields[metastore.FieldParams], "hms_connection")
	require.Equal(t, "Table at index 0 is empty", verr.Fields[metastore.FieldACLControl])
}

func TestMetastoreServiceCreateDuplicateName(t *testing.T) {
	svc, _, _, _ := newMetastoreServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, sqlAlchemyInput("dup"), "admin")
	require.NoError(t, err)

	_, err = svc.Create(ctx, sqlAlchemyInput("dup"), "admin")
	require.ErrorIs(t, err, ErrMetastoreExists)
}

func TestMetastoreServiceUpdatePartial(t *testing.T) {
	svc, _, mock, _ := newMetastoreServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, sqlAlchemyInput("warehouse"), "admin")
	require.NoError(t, err)

	mock.Add(time.Hour)
	updated, err := svc.Update(ctx, *created.ID, map[string]any{
		"name":        "renamed",
		"acl_control": map[string]any{"type": "allowlist", "tables": []any{"db.t1"}},
		"created_at":  0,
	}, "admin")
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Name)
	require.Equal(t, created.Loader, updated.Loader)
	require.Equal(t, created.MetastoreParams, updated.MetastoreParams)
	require.Equal(t, metastore.ACLControl{Type: metastore.ACLAllowlist, Tables: []string{"db.t1"}}, updated.ACLControl)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, mock.Now().Unix(), updated.UpdatedAt)
}

func TestMetastoreServiceUpdateRejectsInvalidFields(t *testing.T) {
	svc, _, _, _ := newMetastoreServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, sqlAlchemyInput("warehouse"), "admin")
	require.NoError(t, err)

	var verr *ValidationError
	_, err = svc.Update(ctx, *created.ID, map[string]any{"acl_control": map[string]any{"type": "blocklist"}}, "admin")
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Invalid acl control", verr.Fields[metastore.FieldACLControl])

	_, err = svc.Update(ctx, *created.ID, map[string]any{"loader": loaders.HMSThriftLoader}, "admin")
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, metastore.FieldParams)

	_, err = svc.Update(ctx, 404, map[string]any{"name": "x"}, "admin")
	require.ErrorIs(t, err, ErrMetastoreNotFound)
}

func TestMetastoreServiceDeleteAndRecover(t *testing.T) {
	svc, audit, mock, _ := newMetastoreServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, sqlAlchemyInput("warehouse"), "admin")
	require.NoError(t, err)
	id := *created.ID

	mock.Add(time.Minute)
	require.NoError(t, svc.Delete(ctx, id, "admin"))
	require.ErrorIs(t, svc.Delete(ctx, id, "admin"), ErrMetastoreDeleted)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].DeletedAt)
	require.Equal(t, mock.Now().Unix(), *all[0].DeletedAt)

	_, err = svc.Update(ctx, id, map[string]any{"name": "x"}, "admin")
	require.ErrorIs(t, err, ErrMetastoreDeleted)
	require.ErrorIs(t, svc.MarkSynced(ctx, id), ErrMetastoreDeleted)

	recovered, err := svc.Recover(ctx, id, "admin")
	require.NoError(t, err)
	require.Nil(t, recovered.DeletedAt)

	_, err = svc.Recover(ctx, id, "admin")
	require.ErrorIs(t, err, ErrMetastoreNotDeleted)

	logs, err := audit.List(ctx, AuditFilters{ItemType: metastore.ItemType, ItemID: id})
	require.NoError(t, err)

	var actions []string
	for _, log := range logs {
		actions = append(actions, log.Action)
	}
	require.ElementsMatch(t, []string{AuditActionCreate, AuditActionDelete, AuditActionRecover}, actions)
}

func TestMetastoreServiceMarkSynced(t *testing.T) {
	svc, _, mock, _ := newMetastoreServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, sqlAlchemyInput("warehouse"), "admin")
	require.NoError(t, err)

	at, err := svc.LastSyncedAt(ctx, *created.ID)
	require.NoError(t, err)
	require.Nil(t, at)

	mock.Add(2 * time.Hour)
	require.NoError(t, svc.MarkSynced(ctx, *created.ID))

	at, err = svc.LastSyncedAt(ctx, *created.ID)
	require.NoError(t, err)
	require.NotNil(t, at)
	require.Equal(t, mock.Now().Unix(), *at)
}

func TestNewMetastoreServiceRequiresDependencies(t *testing.T) {
	_, err := NewMetastoreService(nil, loaders.NewRegistry())
	require.Error(t, err)

	db := testutil.MustOpenTestDB(t)
	_, err = NewMetastoreService(db, nil)
	require.Error(t, err)
}
