package domain

import "time"

// Project is owned by exactly one manager, fixed at creation. MemberIDs has
// set semantics and only ever holds users with RoleMember.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ManagerID   string    `json:"manager_id"`
	MemberIDs   []string  `json:"member_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasMember reports whether userID is in the member set.
func (p *Project) HasMember(userID string) bool {
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OwnedBy reports whether managerID is the project's manager.
func (p *Project) OwnedBy(managerID string) bool {
	return p.ManagerID != "" && p.ManagerID == managerID
}
