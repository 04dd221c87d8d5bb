// Package demo is the example application shipped with the framework:
// user and user-group management over the stores, plus account routes
// backed by the auth service. It exists to exercise the full pipeline
// and to document how handlers, bindings, and stores fit together.
package demo

// UserGroup is a named group users belong to.
type UserGroup struct {
	ID   int64  `json:"Id" xml:"Id"`
	Name string `json:"Name" xml:"Name"`
}

// User is a registered user. Group is populated only by
// GetAllWithRelated, via the UserGroupID foreign key.
type User struct {
	ID          int64      `json:"Id" xml:"Id"`
	Name        string     `json:"Name" xml:"Name"`
	UserGroupID int64      `json:"UserGroupId" xml:"UserGroupId"`
	Group       *UserGroup `json:"Group,omitempty" xml:"Group,omitempty"`
}

// Credentials is the register/login request body.
type Credentials struct {
	Username string `json:"Username" xml:"Username"`
	Password string `json:"Password" xml:"Password"`
}
