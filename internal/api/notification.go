package api

import (
	"context"
	"net/http"
)

func (c *Client) ListNotifications(ctx context.Context, token string, opts ListOptions) (*NotificationPage, error) {
	return send[NotificationPage](ctx, c, http.MethodGet, "/notify/list", opts.values(), token, nil)
}
