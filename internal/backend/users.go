package backend

import (
	"context"
	"net/http"
	"net/url"

	"perfume-admin/internal/models"
)

type usersResponse struct {
	Users []models.User `json:"users"`
	Data  []models.User `json:"data"`
}

type userResponse struct {
	User *models.User `json:"user"`
	Data *models.User `json:"data"`
}

func (r userResponse) get() models.User {
	if r.User != nil {
		return *r.User
	}
	if r.Data != nil {
		return *r.Data
	}
	return models.User{}
}

func userPath(id string) string {
	return "/admin/users/" + url.PathEscape(id)
}

// ListUsers fetches every user account
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var resp usersResponse
	if err := c.request(ctx, http.MethodGet, "/admin/users", "/admin/users", nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Users != nil {
		return resp.Users, nil
	}
	if resp.Data != nil {
		return resp.Data, nil
	}
	return []models.User{}, nil
}

// CreateUser creates a user account
func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (models.User, error) {
	var resp userResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/admin/users", "/admin/users", in, &resp); err != nil {
		return models.User{}, err
	}
	return resp.get(), nil
}

// UpdateUser replaces the editable fields of a user
func (c *Client) UpdateUser(ctx context.Context, id string, in models.UserInput) (models.User, error) {
	var resp userResponse
	if err := c.sendJSON(ctx, http.MethodPut, userPath(id), "/admin/users/:id", in, &resp); err != nil {
		return models.User{}, err
	}
	return resp.get(), nil
}

// DeleteUser removes a user account
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, userPath(id), "/admin/users/:id", nil, "", nil)
}

// SetUserStatus activates, deactivates or suspends a user
func (c *Client) SetUserStatus(ctx context.Context, id string, status models.UserStatus) (models.User, error) {
	var resp userResponse
	payload := map[string]string{"status": string(status)}
	if err := c.sendJSON(ctx, http.MethodPatch, userPath(id)+"/status", "/admin/users/:id/status", payload, &resp); err != nil {
		return models.User{}, err
	}
	return resp.get(), nil
}
