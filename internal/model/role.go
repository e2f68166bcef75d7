package model

type Role struct {
	Address   string `json:"address"`
	Role      string `json:"role"`
	GrantedBy string `json:"granted_by,omitempty"`
}

type GrantRoleRequest struct {
	Address string `json:"address"`
	Role    string `json:"role"`
}

type GrantRoleResponse struct{}

type RevokeRoleRequest struct {
	Address string `json:"address"`
	Role    string `json:"role"`
}

type RevokeRoleResponse struct{}

type GetRolesRequest struct {
	Address string `form:"address" json:"address"`
}

type GetRolesResponse struct {
	Roles []Role `json:"roles"`
}
