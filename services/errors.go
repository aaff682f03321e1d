package services

import (
	"errors"
	"fmt"
)

// Корневые виды ошибок. Сервисы оборачивают в них конкретные ошибки, поэтому
// вызывающие могут проверять и конкретную ошибку, и вид через errors.Is.
var (
	ErrNotFound     = errors.New("requested resource not found")
	ErrInvalidState = errors.New("operation not allowed in the current state")
	ErrInvalidInput = errors.New("invalid input")
	ErrStoreFailure = errors.New("entity store failure")

	// ErrAlreadyResolved — частный случай ErrInvalidState для повторного
	// разрешения приглашений и предложений.
	ErrAlreadyResolved = fmt.Errorf("%w: already resolved", ErrInvalidState)
)

// Ошибки "не найдено" по сущностям: дают больше контекста, чем общий ErrNotFound.
var (
	ErrUserNotFound          = fmt.Errorf("%w: user", ErrNotFound)
	ErrProfileNotFound       = fmt.Errorf("%w: profile", ErrNotFound)
	ErrCommunityNotFound     = fmt.Errorf("%w: community", ErrNotFound)
	ErrTeamNotFound          = fmt.Errorf("%w: team", ErrNotFound)
	ErrMembershipNotFound    = fmt.Errorf("%w: membership", ErrNotFound)
	ErrInvitationNotFound    = fmt.Errorf("%w: invitation", ErrNotFound)
	ErrProposalNotFound      = fmt.Errorf("%w: tournament proposal", ErrNotFound)
	ErrTournamentNotFound    = fmt.Errorf("%w: tournament", ErrNotFound)
	ErrSessionNotFound       = fmt.Errorf("%w: session", ErrNotFound)
	ErrNotificationNotFound  = fmt.Errorf("%w: notification", ErrNotFound)
	ErrParticipationNotFound = fmt.Errorf("%w: tournament participation", ErrNotFound)
)

// Ошибки валидации и бизнес-правил.
var (
	ErrNicknameRequired   = fmt.Errorf("%w: nickname is required", ErrInvalidInput)
	ErrEmailRequired      = fmt.Errorf("%w: email is required", ErrInvalidInput)
	ErrPasswordRequired   = fmt.Errorf("%w: password is required", ErrInvalidInput)
	ErrPasswordTooShort   = fmt.Errorf("%w: password is too short", ErrInvalidInput)
	ErrCommunityNameEmpty = fmt.Errorf("%w: community name is required", ErrInvalidInput)
	ErrTeamNameEmpty      = fmt.Errorf("%w: team name is required", ErrInvalidInput)

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
)

// Ошибки конфликтов.
var (
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
	ErrCommunityNameTaken   = errors.New("community name is already in use")
	ErrTeamNameTaken        = errors.New("team name is already in use")
	ErrAlreadyMember        = errors.New("user is already a member")
	ErrProposalDuplicate    = errors.New("team already has a proposal for this tournament")
	ErrAlreadyVoted         = fmt.Errorf("%w: voter has already voted on this proposal", ErrInvalidState)
	ErrAlreadyParticipating = errors.New("team already participates in this tournament")
)
