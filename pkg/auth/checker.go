package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// User is a login accepted by the transports.
type User struct {
	Name     string `yaml:"name" json:"name"`
	Password string `yaml:"password" json:"password"`
}

// Policy is the access section of the switch definition file.
type Policy struct {
	Users      []User              `yaml:"users,omitempty"`
	SuperUsers []string            `yaml:"super_users,omitempty"`
	UserGroups map[string][]string `yaml:"user_groups,omitempty"`
	// Permissions maps a permission, or "all", to the users and groups
	// holding it on every switch.
	Permissions map[string][]string `yaml:"permissions,omitempty"`
	// Switches narrows Permissions for single switches.
	Switches map[string]map[string][]string `yaml:"switches,omitempty"`
}

// Checker validates logins and user permissions
type Checker struct {
	policy *Policy
}

// NewChecker creates a permission checker. A nil policy accepts everyone.
func NewChecker(policy *Policy) *Checker {
	if policy == nil {
		policy = &Policy{}
	}
	return &Checker{policy: policy}
}

// Anonymous reports whether no users are configured, in which case any
// login is accepted.
func (c *Checker) Anonymous() bool {
	return len(c.policy.Users) == 0
}

// Authenticate checks a username and password.
func (c *Checker) Authenticate(username, password string) error {
	if c.Anonymous() {
		return nil
	}
	for _, u := range c.policy.Users {
		if u.Name != username {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1 {
			return nil
		}
		break
	}
	return &AuthError{User: username}
}

// Login authenticates the user and checks the permission the transport
// needs on the switch.
func (c *Checker) Login(username, password string, ctx *Context) error {
	if err := c.Authenticate(username, password); err != nil {
		return err
	}
	transport := ""
	if ctx != nil {
		transport = ctx.Transport
	}
	return c.CheckUser(username, PermissionForTransport(transport), ctx)
}

// CheckUser verifies if a specific user has a permission. Without any
// permission table every authenticated user may do everything.
func (c *Checker) CheckUser(username string, permission Permission, ctx *Context) error {
	if len(c.policy.Permissions) == 0 && len(c.policy.Switches) == 0 {
		return nil
	}
	if c.IsSuperUser(username) {
		return nil
	}

	// Switch-specific permissions first
	if ctx != nil && ctx.Switch != "" {
		if perms, ok := c.policy.Switches[ctx.Switch]; ok && c.checkPermissionMap(username, permission, perms) {
			return nil
		}
	}
	if c.checkPermissionMap(username, permission, c.policy.Permissions) {
		return nil
	}

	return &PermissionError{
		User:       username,
		Permission: permission,
		Context:    ctx,
	}
}

// IsSuperUser reports whether username holds every permission.
func (c *Checker) IsSuperUser(username string) bool {
	for _, su := range c.policy.SuperUsers {
		if su == username {
			return true
		}
	}
	return false
}

// checkPermissionMap checks whether username has the given permission in permMap.
// It first checks the "all" wildcard key, then the specific permission key.
func (c *Checker) checkPermissionMap(username string, permission Permission, permMap map[string][]string) bool {
	if groups, ok := permMap[string(PermAll)]; ok {
		if c.userInGroups(username, groups) {
			return true
		}
	}

	groups, ok := permMap[string(permission)]
	if !ok {
		return false
	}
	return c.userInGroups(username, groups)
}

func (c *Checker) userInGroups(username string, allowedGroups []string) bool {
	for _, group := range allowedGroups {
		if group == username {
			return true
		}
		if members, ok := c.policy.UserGroups[group]; ok {
			for _, member := range members {
				if member == username {
					return true
				}
			}
		}
	}
	return false
}

// ListPermissionsForUser returns all permissions a user has on every
// switch.
func (c *Checker) ListPermissionsForUser(username string) []Permission {
	if c.IsSuperUser(username) || len(c.policy.Permissions) == 0 {
		return []Permission{PermAll}
	}
	var perms []Permission
	for _, k := range util.SortedKeys(c.policy.Permissions) {
		if c.userInGroups(username, c.policy.Permissions[k]) {
			perms = append(perms, Permission(k))
		}
	}
	return perms
}

// AuthError is a rejected login.
type AuthError struct {
	User string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for user '%s'", e.User)
}

func (e *AuthError) Unwrap() error {
	return util.ErrPermissionDenied
}

// PermissionError represents a permission denial
type PermissionError struct {
	User       string
	Permission Permission
	Context    *Context
}

func (e *PermissionError) Error() string {
	msg := fmt.Sprintf("permission denied: user '%s' does not have '%s' permission", e.User, e.Permission)
	if e.Context != nil && e.Context.Switch != "" {
		msg += fmt.Sprintf(" on switch '%s'", e.Context.Switch)
	}
	return msg
}

func (e *PermissionError) Unwrap() error {
	return util.ErrPermissionDenied
}
