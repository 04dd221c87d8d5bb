package demo

import (
	"log/slog"

	"github.com/cmayhew/weft/pkg/auth"
	"github.com/cmayhew/weft/pkg/router"
)

// RegisterRoutes adds all demo routes to the table. Literal routes are
// registered before placeholder routes on the same prefix because the
// table matches in registration order.
func RegisterRoutes(t *router.Table, users *UserController, groups *GroupController, accounts *AccountController, authSvc *auth.Service, logger *slog.Logger) {
	t.Handle("POST", "/users/CreateUser", users.CreateUser())
	t.Handle("GET", "/users/all", users.AllUsers())
	t.Handle("GET", "/users/{id}", users.GetUser())

	t.Handle("POST", "/groups/CreateGroup", groups.CreateGroup())
	t.Handle("GET", "/groups/all", groups.AllGroups())

	t.Handle("POST", "/account/register", accounts.Register())
	t.Handle("POST", "/account/login", accounts.Login())
	t.Handle("GET", "/account/me", accounts.Me(), auth.RequireAuth(authSvc, logger))
}
