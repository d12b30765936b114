package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// User is a row of the user search endpoint.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

// AuditLog is an admin audit log entry.
type AuditLog struct {
	ID        string         `json:"id"`
	ItemType  string         `json:"item_type"`
	ItemID    int64          `json:"item_id"`
	Action    string         `json:"action"`
	Username  string         `json:"username"`
	Result    string         `json:"result"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt int64          `json:"created_at"`
}

// SearchUsers looks up users whose username or full name starts with name.
func (c *Client) SearchUsers(ctx context.Context, name string) ([]User, error) {
	var users []User
	query := url.Values{"name": []string{name}}
	if err := c.do(ctx, http.MethodGet, "/search/user/", query, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListAuditLogs returns the audit entries of one item, newest first. A zero
// itemID lists every entry of itemType.
func (c *Client) ListAuditLogs(ctx context.Context, itemType string, itemID int64) ([]AuditLog, error) {
	query := url.Values{}
	if itemType != "" {
		query.Set("item_type", itemType)
	}
	if itemID != 0 {
		query.Set("item_id", strconv.FormatInt(itemID, 10))
	}
	var logs []AuditLog
	if err := c.do(ctx, http.MethodGet, "/admin/audit_log/", query, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
