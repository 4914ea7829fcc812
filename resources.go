package session

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Resource is a typed CRUD client for one backend collection
type Resource[T any] struct {
	client *Client
	path   string
}

func NewResource[T any](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: strings.TrimRight(path, "/")}
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	var out []T
	if err := r.client.Do(ctx, http.MethodGet, r.path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodGet, r.item(id), nil, nil, &out)
	return out, err
}

func (r *Resource[T]) Create(ctx context.Context, record T) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodPost, r.path, nil, record, &out)
	return out, err
}

func (r *Resource[T]) Update(ctx context.Context, id string, record T) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodPut, r.item(id), nil, record, &out)
	return out, err
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.Do(ctx, http.MethodDelete, r.item(id), nil, nil, nil)
}

func (r *Resource[T]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// Notifications adds the read marker on top of the CRUD calls
type Notifications struct {
	*Resource[Notification]
}

func (n Notifications) MarkRead(ctx context.Context, id string) error {
	return n.client.Do(ctx, http.MethodPut, n.item(id)+"/read", nil, nil, nil)
}

// API bundles the backend collections
type API struct {
	Users         *Resource[User]
	Posts         *Resource[Post]
	Groups        *Resource[Group]
	Comments      *Resource[Comment]
	Events        *Resource[Event]
	Reactions     *Resource[Reaction]
	Notifications Notifications
	AdminUsers    *Resource[User]
}

func NewAPI(client *Client) *API {
	return &API{
		Users:         NewResource[User](client, "/api/users"),
		Posts:         NewResource[Post](client, "/api/posts"),
		Groups:        NewResource[Group](client, "/api/groups"),
		Comments:      NewResource[Comment](client, "/api/comments"),
		Events:        NewResource[Event](client, "/api/events"),
		Reactions:     NewResource[Reaction](client, "/api/reactions"),
		Notifications: Notifications{NewResource[Notification](client, "/api/notifications")},
		AdminUsers:    NewResource[User](client, "/api/admin/users"),
	}
}
