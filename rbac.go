package pollbase

import (
	"context"
	"net/url"
)

// RBACService administers roles, permissions, and role assignments.
// Permission evaluation happens server-side on every request; this surface
// only manages the configuration.
type RBACService struct {
	c *Client
}

// CreateRoleRequest is the payload for RBACService.CreateRole.
type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions" validate:"required,min=1"`
}

// UpdateRoleRequest is the payload for RBACService.UpdateRole.
type UpdateRoleRequest struct {
	Description *string   `json:"description,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
}

// Roles returns all defined roles.
func (s *RBACService) Roles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := s.c.get(ctx, "/v1/rbac/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// Role returns one role by ID.
func (s *RBACService) Role(ctx context.Context, id string) (*Role, error) {
	var r Role
	if err := s.c.get(ctx, "/v1/rbac/roles/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRole defines a new role.
func (s *RBACService) CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var r Role
	if err := s.c.post(ctx, "/v1/rbac/roles", req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateRole modifies a role. System roles reject changes server-side.
func (s *RBACService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*Role, error) {
	var r Role
	if err := s.c.patch(ctx, "/v1/rbac/roles/"+url.PathEscape(id), req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRole removes a role. Fails server-side while users still hold it.
func (s *RBACService) DeleteRole(ctx context.Context, id string) error {
	return s.c.delete(ctx, "/v1/rbac/roles/"+url.PathEscape(id))
}

// Permissions returns the catalog of grantable permissions.
func (s *RBACService) Permissions(ctx context.Context) ([]Permission, error) {
	var ps []Permission
	if err := s.c.get(ctx, "/v1/rbac/permissions", nil, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// AssignRole grants a role to a user.
func (s *RBACService) AssignRole(ctx context.Context, userID, roleID string) error {
	body := map[string]string{"user_id": userID, "role_id": roleID}
	return s.c.post(ctx, "/v1/rbac/assignments", body, nil)
}

// RevokeRole removes a role from a user.
func (s *RBACService) RevokeRole(ctx context.Context, userID, roleID string) error {
	return s.c.delete(ctx, "/v1/rbac/assignments/"+url.PathEscape(userID)+"/"+url.PathEscape(roleID))
}

// UserRoles returns the roles held by one user.
func (s *RBACService) UserRoles(ctx context.Context, userID string) ([]Role, error) {
	var roles []Role
	if err := s.c.get(ctx, "/v1/rbac/users/"+url.PathEscape(userID)+"/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}
