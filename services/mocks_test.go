package services

// Фейки репозиториев для тестов оркестраторов. Встраивание интерфейса
// позволяет реализовывать только те методы, которые нужны сценарию:
// вызов ненастроенного метода — паника, то есть ошибка теста.

import (
	"context"
	"time"

	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

type fakeUserRepo struct {
	repositories.UserRepository
	createFn     func(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error
	getByIDFn    func(ctx context.Context, id int) (*models.User, error)
	getByEmailFn func(ctx context.Context, email string) (*models.User, error)
	updateFn     func(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error
}

func (f *fakeUserRepo) Create(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	return f.createFn(ctx, exec, user)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserRepo) Update(ctx context.Context, exec repositories.SQLExecutor, user *models.User) error {
	return f.updateFn(ctx, exec, user)
}

type fakeProfileRepo struct {
	repositories.ProfileRepository
	createFn      func(ctx context.Context, exec repositories.SQLExecutor, profile *models.Profile) error
	getByUserIDFn func(ctx context.Context, userID int) (*models.Profile, error)
	updateFn      func(ctx context.Context, exec repositories.SQLExecutor, profile *models.Profile) error
}

func (f *fakeProfileRepo) Create(ctx context.Context, exec repositories.SQLExecutor, profile *models.Profile) error {
	return f.createFn(ctx, exec, profile)
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, userID int) (*models.Profile, error) {
	return f.getByUserIDFn(ctx, userID)
}

func (f *fakeProfileRepo) Update(ctx context.Context, exec repositories.SQLExecutor, profile *models.Profile) error {
	return f.updateFn(ctx, exec, profile)
}

type fakeSessionRepo struct {
	repositories.SessionRepository
	createFn     func(ctx context.Context, exec repositories.SQLExecutor, session *models.Session) error
	getByTokenFn func(ctx context.Context, token string) (*models.Session, error)
	closeFn      func(ctx context.Context, exec repositories.SQLExecutor, id int, endedAt time.Time) error
}

func (f *fakeSessionRepo) Create(ctx context.Context, exec repositories.SQLExecutor, session *models.Session) error {
	return f.createFn(ctx, exec, session)
}

func (f *fakeSessionRepo) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	return f.getByTokenFn(ctx, token)
}

func (f *fakeSessionRepo) Close(ctx context.Context, exec repositories.SQLExecutor, id int, endedAt time.Time) error {
	return f.closeFn(ctx, exec, id, endedAt)
}

type fakeCommunityRepo struct {
	repositories.CommunityRepository
	createFn  func(ctx context.Context, exec repositories.SQLExecutor, community *models.Community) error
	getByIDFn func(ctx context.Context, id int) (*models.Community, error)
}

func (f *fakeCommunityRepo) Create(ctx context.Context, exec repositories.SQLExecutor, community *models.Community) error {
	return f.createFn(ctx, exec, community)
}

func (f *fakeCommunityRepo) GetByID(ctx context.Context, id int) (*models.Community, error) {
	return f.getByIDFn(ctx, id)
}

type fakeCommunityMembershipRepo struct {
	repositories.CommunityMembershipRepository
	createFn                 func(ctx context.Context, exec repositories.SQLExecutor, membership *models.CommunityMembership) error
	findByUserAndCommunityFn func(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error)
	countByRoleFn            func(ctx context.Context, exec repositories.SQLExecutor, communityID int, role models.CommunityRole, status models.MembershipStatus) (int, error)
	updateStatusFn           func(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error
	updateRoleFn             func(ctx context.Context, exec repositories.SQLExecutor, id int, role models.CommunityRole) error
}

func (f *fakeCommunityMembershipRepo) Create(ctx context.Context, exec repositories.SQLExecutor, membership *models.CommunityMembership) error {
	return f.createFn(ctx, exec, membership)
}

func (f *fakeCommunityMembershipRepo) FindByUserAndCommunity(ctx context.Context, userID, communityID int) (*models.CommunityMembership, error) {
	return f.findByUserAndCommunityFn(ctx, userID, communityID)
}

func (f *fakeCommunityMembershipRepo) CountByRole(ctx context.Context, exec repositories.SQLExecutor, communityID int, role models.CommunityRole, status models.MembershipStatus) (int, error) {
	return f.countByRoleFn(ctx, exec, communityID, role, status)
}

func (f *fakeCommunityMembershipRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error {
	return f.updateStatusFn(ctx, exec, id, status, leftAt)
}

func (f *fakeCommunityMembershipRepo) UpdateRole(ctx context.Context, exec repositories.SQLExecutor, id int, role models.CommunityRole) error {
	return f.updateRoleFn(ctx, exec, id, role)
}

type fakeTeamRepo struct {
	repositories.TeamRepository
	createFn  func(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error
	getByIDFn func(ctx context.Context, id int) (*models.Team, error)
}

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	return f.createFn(ctx, exec, team)
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return f.getByIDFn(ctx, id)
}

type fakeTeamMembershipRepo struct {
	repositories.TeamMembershipRepository
	createFn            func(ctx context.Context, exec repositories.SQLExecutor, membership *models.TeamMembership) error
	findByUserAndTeamFn func(ctx context.Context, userID, teamID int) (*models.TeamMembership, error)
	listByTeamFn        func(ctx context.Context, teamID int, statusFilter *models.MembershipStatus) ([]*models.TeamMembership, error)
	countActiveAdminsFn func(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error)
	updateStatusFn      func(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error
	updateRoleFn        func(ctx context.Context, exec repositories.SQLExecutor, id int, role models.TeamRole) error
}

func (f *fakeTeamMembershipRepo) Create(ctx context.Context, exec repositories.SQLExecutor, membership *models.TeamMembership) error {
	return f.createFn(ctx, exec, membership)
}

func (f *fakeTeamMembershipRepo) FindByUserAndTeam(ctx context.Context, userID, teamID int) (*models.TeamMembership, error) {
	return f.findByUserAndTeamFn(ctx, userID, teamID)
}

func (f *fakeTeamMembershipRepo) ListByTeam(ctx context.Context, teamID int, statusFilter *models.MembershipStatus) ([]*models.TeamMembership, error) {
	return f.listByTeamFn(ctx, teamID, statusFilter)
}

func (f *fakeTeamMembershipRepo) CountActiveAdmins(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
	return f.countActiveAdminsFn(ctx, exec, teamID)
}

func (f *fakeTeamMembershipRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MembershipStatus, leftAt *time.Time) error {
	return f.updateStatusFn(ctx, exec, id, status, leftAt)
}

func (f *fakeTeamMembershipRepo) UpdateRole(ctx context.Context, exec repositories.SQLExecutor, id int, role models.TeamRole) error {
	return f.updateRoleFn(ctx, exec, id, role)
}

type fakeInvitationRepo struct {
	repositories.InvitationRepository
	getByIDFn func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Invitation, error)
	resolveFn func(ctx context.Context, exec repositories.SQLExecutor, id int, state models.InvitationState, respondedAt time.Time) error
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Invitation, error) {
	return f.getByIDFn(ctx, exec, id)
}

func (f *fakeInvitationRepo) Resolve(ctx context.Context, exec repositories.SQLExecutor, id int, state models.InvitationState, respondedAt time.Time) error {
	return f.resolveFn(ctx, exec, id, state, respondedAt)
}

type fakeProposalRepo struct {
	repositories.ProposalRepository
	createFn      func(ctx context.Context, exec repositories.SQLExecutor, proposal *models.TournamentProposal) error
	getByIDFn     func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentProposal, error)
	updateStateFn func(ctx context.Context, exec repositories.SQLExecutor, id int, state models.ProposalState) error
	addVoteFn     func(ctx context.Context, exec repositories.SQLExecutor, vote *models.Vote) error
	listVotesFn   func(ctx context.Context, exec repositories.SQLExecutor, proposalID int) ([]models.Vote, error)
}

func (f *fakeProposalRepo) Create(ctx context.Context, exec repositories.SQLExecutor, proposal *models.TournamentProposal) error {
	return f.createFn(ctx, exec, proposal)
}

func (f *fakeProposalRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentProposal, error) {
	return f.getByIDFn(ctx, exec, id)
}

func (f *fakeProposalRepo) UpdateState(ctx context.Context, exec repositories.SQLExecutor, id int, state models.ProposalState) error {
	return f.updateStateFn(ctx, exec, id, state)
}

func (f *fakeProposalRepo) AddVote(ctx context.Context, exec repositories.SQLExecutor, vote *models.Vote) error {
	return f.addVoteFn(ctx, exec, vote)
}

func (f *fakeProposalRepo) ListVotes(ctx context.Context, exec repositories.SQLExecutor, proposalID int) ([]models.Vote, error) {
	return f.listVotesFn(ctx, exec, proposalID)
}

type fakeParticipationRepo struct {
	repositories.ParticipationRepository
	createFn func(ctx context.Context, exec repositories.SQLExecutor, participation *models.TournamentParticipation) error
}

func (f *fakeParticipationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, participation *models.TournamentParticipation) error {
	return f.createFn(ctx, exec, participation)
}

type fakeTournamentRepo struct {
	repositories.TournamentRepository
	getByIDFn func(ctx context.Context, id int) (*models.Tournament, error)
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	return f.getByIDFn(ctx, id)
}

type fakeNotificationRepo struct {
	repositories.NotificationRepository
	createFn   func(ctx context.Context, exec repositories.SQLExecutor, notification *models.Notification) error
	getByIDFn  func(ctx context.Context, id int) (*models.Notification, error)
	markReadFn func(ctx context.Context, exec repositories.SQLExecutor, id int) error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, notification *models.Notification) error {
	return f.createFn(ctx, exec, notification)
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id int) (*models.Notification, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return f.markReadFn(ctx, exec, id)
}
