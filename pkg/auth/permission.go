// Package auth checks transport logins and what an authenticated user may
// open on a switch.
package auth

// Permission names a kind of session a user can open.
type Permission string

// Standard permissions
const (
	PermShell   Permission = "cli.shell"
	PermNetconf Permission = "netconf.session"
	PermEAPI    Permission = "eapi.command"
	PermConsole Permission = "cli.console"

	PermAll Permission = "all" // Superuser - allows everything
)

// PermissionCategory groups related permissions
type PermissionCategory struct {
	Name        string
	Description string
	Permissions []Permission
}

// StandardCategories defines standard permission categories
var StandardCategories = []PermissionCategory{
	{
		Name:        "cli",
		Description: "Terminal sessions over ssh, telnet or the local console",
		Permissions: []Permission{PermShell, PermConsole},
	},
	{
		Name:        "netconf",
		Description: "NETCONF subsystem",
		Permissions: []Permission{PermNetconf},
	},
	{
		Name:        "eapi",
		Description: "Arista command API over HTTP",
		Permissions: []Permission{PermEAPI},
	},
}

// PermissionForTransport maps a transport name to the permission it needs.
func PermissionForTransport(transport string) Permission {
	switch transport {
	case "netconf":
		return PermNetconf
	case "eapi", "http":
		return PermEAPI
	case "console":
		return PermConsole
	}
	return PermShell
}

// Context provides context for permission checks
type Context struct {
	Switch    string
	Transport string
}

// NewContext creates a new permission context
func NewContext() *Context {
	return &Context{}
}

// WithSwitch sets the switch context
func (c *Context) WithSwitch(name string) *Context {
	c.Switch = name
	return c
}

// WithTransport sets the transport context
func (c *Context) WithTransport(transport string) *Context {
	c.Transport = transport
	return c
}
