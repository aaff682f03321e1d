package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamgrid/community-system/models"
	"github.com/teamgrid/community-system/repositories"
)

type TournamentService interface {
	CreateTournament(ctx context.Context, name string, startsAt time.Time) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, statusFilter *models.TournamentStatus) ([]*models.Tournament, error)
	ListParticipants(ctx context.Context, tournamentID int) ([]*models.TournamentParticipation, error)
}

type tournamentService struct {
	tournamentRepo    repositories.TournamentRepository
	participationRepo repositories.ParticipationRepository
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participationRepo repositories.ParticipationRepository,
) TournamentService {
	return &tournamentService{
		tournamentRepo:    tournamentRepo,
		participationRepo: participationRepo,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, name string, startsAt time.Time) (*models.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrInvalidInput)
	}

	tournament := &models.Tournament{
		Name:      name,
		Status:    models.TournamentRegistration,
		StartsAt:  startsAt,
		CreatedAt: time.Now(),
	}

	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		return nil, storeFailure(err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeFailure(err)
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, statusFilter *models.TournamentStatus) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, statusFilter)
	if err != nil {
		return nil, storeFailure(err)
	}
	return tournaments, nil
}

func (s *tournamentService) ListParticipants(ctx context.Context, tournamentID int) ([]*models.TournamentParticipation, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeFailure(err)
	}

	participants, err := s.participationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return participants, nil
}
