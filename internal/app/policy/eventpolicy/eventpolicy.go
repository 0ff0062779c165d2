// internal/app/policy/eventpolicy/eventpolicy.go
package eventpolicy

import (
	"github.com/eventrahq/eventra/internal/app/system/auth"
	"github.com/eventrahq/eventra/internal/domain/models"
)

// CanManage reports whether the principal may manage (edit, deactivate,
// view the roster of, check in attendees for) the given event:
//   - Admins always can
//   - Organizers can only for events they own, and only while approved
func CanManage(p *auth.Principal, e *models.Event) bool {
	if p == nil || e == nil {
		return false
	}
	if p.Role == models.RoleAdmin {
		return true
	}
	if p.Role != models.RoleOrganizer || !p.Approved() {
		return false
	}
	return e.OrganizerID.Hex() == p.ID
}
