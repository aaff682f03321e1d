package lifecycle

import "github.com/teamgrid/community-system/models"

// ResolveInvitation переводит приглашение из pending в терминальное состояние.
// Любая попытка из не-pending состояния — отказ AlreadyResolved.
func ResolveInvitation(current models.InvitationState, accept bool) (models.InvitationState, *Rejection) {
	if current != models.InvitationPending {
		return current, reject(KindAlreadyResolved, "invitation is already %s", current)
	}
	if accept {
		return models.InvitationAccepted, nil
	}
	return models.InvitationRejected, nil
}
