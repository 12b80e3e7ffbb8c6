package dcapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

type Role struct {
	ID   uint64 `json:"id,string"`
	Name string `json:"name"`
}

type Member struct {
	User  User     `json:"user"`
	Nick  string   `json:"nick,omitempty"`
	Roles []string `json:"roles"`
}

type User struct {
	ID       uint64 `json:"id,string"`
	Username string `json:"username"`
}

func (m *Member) HasRole(id uint64) bool {
	want := strconv.FormatUint(id, 10)
	for _, r := range m.Roles {
		if r == want {
			return true
		}
	}
	return false
}

// Roles lists the guild's roles.
func (c *Client) Roles(ctx context.Context, guildID uint64) ([]Role, error) {
	var roles []Role
	path := fmt.Sprintf("/guilds/%d/roles", guildID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// ResolveRole finds a role by id; a configured id that resolves to nothing
// is ErrUnknownRole.
func (c *Client) ResolveRole(ctx context.Context, guildID, roleID uint64) (*Role, error) {
	roles, err := c.Roles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	for i := range roles {
		if roles[i].ID == roleID {
			return &roles[i], nil
		}
	}
	return nil, fmt.Errorf("role %d: %w", roleID, ErrUnknownRole)
}

// Member fetches a guild member with its current role ids.
func (c *Client) Member(ctx context.Context, guildID, userID uint64) (*Member, error) {
	var m Member
	path := fmt.Sprintf("/guilds/%d/members/%d", guildID, userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GrantRole adds a role to a member. The reason lands in the audit log.
func (c *Client) GrantRole(ctx context.Context, guildID, userID, roleID uint64, reason string) error {
	return c.mutateRole(ctx, http.MethodPut, guildID, userID, roleID, reason)
}

// RevokeRole removes a role from a member.
func (c *Client) RevokeRole(ctx context.Context, guildID, userID, roleID uint64, reason string) error {
	return c.mutateRole(ctx, http.MethodDelete, guildID, userID, roleID, reason)
}

func (c *Client) mutateRole(ctx context.Context, method string, guildID, userID, roleID uint64, reason string) error {
	path := fmt.Sprintf("/guilds/%d/members/%d/roles/%d", guildID, userID, roleID)
	req, err := c.newRequest(ctx, method, path, nil)
	if err != nil {
		return err
	}
	if reason != "" {
		req.Header.Set("X-Audit-Log-Reason", reason)
	}
	return c.do(req, nil)
}
