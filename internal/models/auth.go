package models

// RoleRequest claims a role for this browser session. The passphrase is
// only checked for the teacher role.
type RoleRequest struct {
	Role       string `json:"role"`
	Passphrase string `json:"passphrase,omitempty"`
}

type RoleResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}
