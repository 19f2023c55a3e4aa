package domain

import "golang.org/x/exp/slices"

func (r Room) HasMember(identity string) bool {
	return slices.Contains(r.Members, identity)
}

// AddMember appends identity to the member list. It reports false when identity is already a member.
func (r *Room) AddMember(identity string) bool {
	if r.HasMember(identity) {
		return false
	}

	r.Members = append(r.Members, identity)
	return true
}

type RemoveMemberResult struct {
	Removed     bool
	HostChanged bool
	NewHost     string
	Deactivated bool
}

// RemoveMember drops identity from the room. The earliest remaining member inherits the host role;
// a room left without members is deactivated.
func (r *Room) RemoveMember(identity string) RemoveMemberResult {
	index := slices.Index(r.Members, identity)
	if index == -1 {
		return RemoveMemberResult{}
	}

	r.Members = slices.Delete(r.Members, index, index+1)
	result := RemoveMemberResult{Removed: true}

	if len(r.Members) == 0 {
		r.Active = false
		result.Deactivated = true
		return result
	}

	if r.HostId == identity {
		r.HostId = r.Members[0]
		result.HostChanged = true
		result.NewHost = r.HostId
	}

	return result
}
