package authz

// SiteRole is the account-level role carried in the JWT. It is distinct
// from the per-channel role a user holds in a channel's member list.
type SiteRole string

const (
	SiteMember SiteRole = "member"
	SiteMod    SiteRole = "mod"
	SiteAdmin  SiteRole = "admin"
)

func IsElevated(r SiteRole) bool {
	return r == SiteMod || r == SiteAdmin
}

// ChannelRole is the closed set of roles a member can hold inside a channel.
type ChannelRole string

const (
	RoleOwner  ChannelRole = "owner"
	RoleAdmin  ChannelRole = "admin"
	RoleMember ChannelRole = "member"
)

// ParseChannelRole rejects any token outside the closed set, so an invalid
// role string never reaches a channel document.
func ParseChannelRole(s string) (ChannelRole, bool) {
	switch ChannelRole(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return ChannelRole(s), true
	}
	return "", false
}
