package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charlesng35/metastore-admin/internal/metastore"
)

var _ metastore.Backend = (*Client)(nil)

// ListLoaders returns the registered metastore loaders and their templates.
func (c *Client) ListLoaders(ctx context.Context) ([]metastore.Loader, error) {
	var loaders []metastore.Loader
	if err := c.do(ctx, http.MethodGet, "/admin/query_metastore_loader/", nil, nil, &loaders); err != nil {
		return nil, err
	}
	return loaders, nil
}

// ListMetastores returns every metastore, deleted ones included.
func (c *Client) ListMetastores(ctx context.Context) ([]metastore.Metastore, error) {
	var metastores []metastore.Metastore
	if err := c.do(ctx, http.MethodGet, "/admin/query_metastore/", nil, nil, &metastores); err != nil {
		return nil, err
	}
	return metastores, nil
}

type createMetastoreRequest struct {
	Name            string               `json:"name"`
	MetastoreParams map[string]any       `json:"metastore_params"`
	Loader          string               `json:"loader"`
	ACLControl      metastore.ACLControl `json:"acl_control"`
}

// CreateMetastore posts the user editable fields of m.
func (c *Client) CreateMetastore(ctx context.Context, m metastore.Metastore) (metastore.Metastore, error) {
	req := createMetastoreRequest{
		Name:            m.Name,
		MetastoreParams: m.MetastoreParams,
		Loader:          m.Loader,
		ACLControl:      m.ACLControl,
	}
	var created metastore.Metastore
	if err := c.do(ctx, http.MethodPost, "/admin/query_metastore/", nil, req, &created); err != nil {
		return metastore.Metastore{}, err
	}
	return created, nil
}

// UpdateMetastore sends a partial update of the given fields.
func (c *Client) UpdateMetastore(ctx context.Context, id int64, fields map[string]any) (metastore.Metastore, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	var updated metastore.Metastore
	if err := c.do(ctx, http.MethodPut, metastorePath(id), nil, fields, &updated); err != nil {
		return metastore.Metastore{}, err
	}
	return updated, nil
}

// DeleteMetastore soft deletes a metastore.
func (c *Client) DeleteMetastore(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, metastorePath(id), nil, nil, nil)
}

// RecoverMetastore clears the deletion of a metastore.
func (c *Client) RecoverMetastore(ctx context.Context, id int64) (metastore.Metastore, error) {
	var recovered metastore.Metastore
	if err := c.do(ctx, http.MethodPost, metastorePath(id)+"recover/", nil, nil, &recovered); err != nil {
		return metastore.Metastore{}, err
	}
	return recovered, nil
}

// GetScheduleByName returns the schedule called name, or nil when none exists.
func (c *Client) GetScheduleByName(ctx context.Context, name string) (*metastore.Schedule, error) {
	var schedule *metastore.Schedule
	if err := c.do(ctx, http.MethodGet, "/schedule/name/"+url.PathEscape(name)+"/", nil, nil, &schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// CreateSchedule creates a task schedule.
func (c *Client) CreateSchedule(ctx context.Context, schedule metastore.Schedule) (metastore.Schedule, error) {
	schedule.ID = nil
	var created metastore.Schedule
	if err := c.do(ctx, http.MethodPost, "/schedule/", nil, schedule, &created); err != nil {
		return metastore.Schedule{}, err
	}
	return created, nil
}

// UpdateSchedule sends a partial update of a schedule.
func (c *Client) UpdateSchedule(ctx context.Context, id int64, fields map[string]any) (metastore.Schedule, error) {
	var updated metastore.Schedule
	path := "/schedule/" + strconv.FormatInt(id, 10) + "/"
	if err := c.do(ctx, http.MethodPut, path, nil, fields, &updated); err != nil {
		return metastore.Schedule{}, err
	}
	return updated, nil
}

func metastorePath(id int64) string {
	return fmt.Sprintf("/admin/query_metastore/%d/", id)
}
