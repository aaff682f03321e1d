package lifecycle

import "github.com/teamgrid/community-system/models"

// MembershipAction — действие над членством в сообществе или команде.
type MembershipAction string

const (
	MembershipLeave   MembershipAction = "leave"
	MembershipExpel   MembershipAction = "expel"
	MembershipReadmit MembershipAction = "readmit"
)

// membershipTransitions: active →(leave)→ abandoned; active →(expel)→ expelled;
// expelled →(readmit)→ abandoned, после чего пользователь может снова подать заявку.
var membershipTransitions = map[models.MembershipStatus]map[MembershipAction]models.MembershipStatus{
	models.MembershipActive: {
		MembershipLeave: models.MembershipAbandoned,
		MembershipExpel: models.MembershipExpelled,
	},
	models.MembershipExpelled: {
		MembershipReadmit: models.MembershipAbandoned,
	},
}

// TransitionMembership возвращает новый статус членства или отказ,
// если действие недопустимо из текущего статуса.
func TransitionMembership(current models.MembershipStatus, action MembershipAction) (models.MembershipStatus, *Rejection) {
	if next, ok := membershipTransitions[current][action]; ok {
		return next, nil
	}
	return current, reject(KindInvalidTransition, "membership action %q is not allowed from status %q", action, current)
}

// GuardTeamRoleChange отклоняет понижение последнего активного админа команды.
// Повышение member → admin всегда допустимо.
func GuardTeamRoleChange(current, next models.TeamRole, activeAdmins int) *Rejection {
	if current == models.TeamRoleAdmin && next != models.TeamRoleAdmin && activeAdmins <= 1 {
		return reject(KindGuardFailed, "team must retain at least one admin")
	}
	return nil
}

// GuardTeamRemoval отклоняет удаление (или выход) последнего активного админа.
func GuardTeamRemoval(role models.TeamRole, activeAdmins int) *Rejection {
	if role == models.TeamRoleAdmin && activeAdmins <= 1 {
		return reject(KindGuardFailed, "team must retain at least one admin")
	}
	return nil
}

// GuardCommunityFounding требует, чтобы учредительное членство имело роль leader.
// Инвариант проверяется только при создании сообщества.
func GuardCommunityFounding(role models.CommunityRole) *Rejection {
	if role != models.CommunityRoleLeader {
		return reject(KindGuardFailed, "community founding membership must have the leader role, got %q", role)
	}
	return nil
}
