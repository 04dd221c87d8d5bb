package demo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cmayhew/weft/pkg/auth"
	"github.com/cmayhew/weft/pkg/dispatch"
	"github.com/cmayhew/weft/pkg/storage"
	"github.com/cmayhew/weft/pkg/web"
)

// UserController serves the user routes over the user and group stores.
type UserController struct {
	Users  storage.Store[*User]
	Groups storage.Store[*UserGroup]
}

// CreateUser handles POST /users/CreateUser. The user arrives in the
// request body; its group must exist and its id must be unused.
func (c *UserController) CreateUser() dispatch.Handler {
	return dispatch.Handler{
		Bindings: []dispatch.Binding{dispatch.Body(func() any { return new(User) })},
		Func: func(ctx context.Context, args []any) (any, error) {
			u, _ := args[0].(*User)
			if u == nil {
				return plain(http.StatusBadRequest, "Invalid user payload."), nil
			}

			if _, err := c.Groups.GetByID(ctx, u.UserGroupID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return plain(http.StatusNotFound,
						fmt.Sprintf("User group with ID %d not found.", u.UserGroupID)), nil
				}
				return nil, err
			}

			if _, err := c.Users.GetByID(ctx, u.ID); err == nil {
				return plain(http.StatusConflict,
					fmt.Sprintf("User with ID %d already exists.", u.ID)), nil
			} else if !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}

			c.Users.Add(u)
			if err := c.Users.SaveChanges(ctx); err != nil {
				return nil, err
			}
			return plain(http.StatusCreated, fmt.Sprintf("User %d created.", u.ID)), nil
		},
	}
}

// GetUser handles GET /users/{id}. The user is returned as a raw value
// and serialized through the negotiated format.
func (c *UserController) GetUser() dispatch.Handler {
	return dispatch.Handler{
		Bindings: []dispatch.Binding{dispatch.Request()},
		Func: func(ctx context.Context, args []any) (any, error) {
			req := args[0].(*web.Request)

			id, err := strconv.ParseInt(req.Params["id"], 10, 64)
			if err != nil {
				return plain(http.StatusBadRequest,
					fmt.Sprintf("Invalid user id %q.", req.Params["id"])), nil
			}

			u, err := c.Users.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return plain(http.StatusNotFound,
						fmt.Sprintf("User with ID %d not found.", id)), nil
				}
				return nil, err
			}
			return u, nil
		},
	}
}

// AllUsers handles GET /users/all, returning users with their groups
// resolved.
func (c *UserController) AllUsers() dispatch.Handler {
	return dispatch.Handler{
		Bindings: []dispatch.Binding{dispatch.Request()},
		Func: func(ctx context.Context, _ []any) (any, error) {
			return c.Users.GetAllWithRelated(ctx)
		},
	}
}

// GroupController serves the user-group routes.
type GroupController struct {
	Groups storage.Store[*UserGroup]
}

// CreateGroup handles POST /groups/CreateGroup.
func (c *GroupController) CreateGroup() dispatch.Handler {
	return dispatch.Handler{
		Bindings: []dispatch.Binding{dispatch.Body(func() any { return new(UserGroup) })},
		Func: func(ctx context.Context, args []any) (any, error) {
			g, _ := args[0].(*UserGroup)
			if g == nil {
				return plain(http.StatusBadRequest, "Invalid group payload."), nil
			}

			if _, err := c.Groups.GetByID(ctx, g.ID); err == nil {
				return plain(http.StatusConflict,
					fmt.Sprintf("User group with ID %d already exists.", g.ID)), nil
			} else if !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}

			c.Groups.Add(g)
			if err := c.Groups.SaveChanges(ctx); err != nil {
				return nil, err
			}
			return plain(http.StatusCreated, fmt.Sprintf("User group %d created.", g.ID)), nil
		},
	}
}

// AllGroups handles GET /groups/all.
func (c *GroupController) AllGroups() dispatch.Handler {
	return dispatch.Handler{
		Bindings: []dispatch.Binding{dispatch.Request()},
		Func: func(ctx context.Context, _ []any) (any, error) {
			return c.Groups.GetAll(ctx)
		},
	}
}

// AccountController serves registration and login over the auth service.
type AccountController struct {
	Auth *auth.Service
}

// Register handles POST /account/register.
func (c *AccountController) Register() dispatch.Handler {
	return dispatch.Handler{
		Bindings: []dispatch.Binding{dispatch.Body(func() any { return new(Credentials) })},
		Func: func(ctx context.Context, args []any) (any, error) {
			creds, _ := args[0].(*Credentials)
			if creds == nil || creds.Username == "" || creds.Password == "" {
				return plain(http.StatusBadRequest, "Username and password are required."), nil
			}

			if err := c.Auth.Register(creds.Username, creds.Password); err != nil {
				if errors.Is(err, auth.ErrUserExists) {
					return plain(http.StatusConflict,
						fmt.Sprintf("Username %q is taken.", creds.Username)), nil
				}
				return nil, err
			}
			return plain(http.StatusCreated, "Registered."), nil
		},
	}
}

// Login handles POST /account/login. On success the signed token is
// the plain-text response body.
func (c *AccountController) Login() dispatch.Handler {
	return dispatch.Handler{
		Bindings: []dispatch.Binding{dispatch.Body(func() any { return new(Credentials) })},
		Func: func(ctx context.Context, args []any) (any, error) {
			creds, _ := args[0].(*Credentials)
			if creds == nil {
				return plain(http.StatusBadRequest, "Username and password are required."), nil
			}

			token, err := c.Auth.Login(creds.Username, creds.Password)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidCredentials) {
					return plain(http.StatusUnauthorized, "Invalid username or password."), nil
				}
				return nil, err
			}
			return plain(http.StatusOK, token), nil
		},
	}
}

// Me handles GET /account/me behind RequireAuth, echoing the subject.
func (c *AccountController) Me() dispatch.Handler {
	return dispatch.Handler{
		Bindings: []dispatch.Binding{dispatch.Request()},
		Func: func(_ context.Context, args []any) (any, error) {
			req := args[0].(*web.Request)
			return plain(http.StatusOK, req.Principal.Subject), nil
		},
	}
}

// plain builds a text/plain response with a fixed body, bypassing
// content negotiation.
func plain(status int, body string) *web.Response {
	return &web.Response{
		Status:      status,
		ContentType: "text/plain",
		Body:        body,
	}
}
