package lifecycle

import "github.com/teamgrid/community-system/models"

type VoteTally struct {
	Total    int
	Positive int
}

func TallyVotes(votes []models.Vote) VoteTally {
	t := VoteTally{Total: len(votes)}
	for _, v := range votes {
		if v.Value {
			t.Positive++
		}
	}
	return t
}

// Unanimous: все поданные голоса — «за», и подан хотя бы один голос.
func (t VoteTally) Unanimous() bool {
	return t.Total > 0 && t.Positive == t.Total
}

// GuardCastVote проверяет, что предложение ещё в pending и что голосующий
// не голосовал раньше: не более одного голоса на пару (proposal, voter).
func GuardCastVote(state models.ProposalState, votes []models.Vote, voterID int) *Rejection {
	if state != models.ProposalPending {
		return reject(KindAlreadyResolved, "proposal is already %s", state)
	}
	for _, v := range votes {
		if v.VoterID == voterID {
			return reject(KindGuardFailed, "voter %d has already voted on this proposal", voterID)
		}
	}
	return nil
}

type ProposalEvaluation struct {
	Approved bool
	Next     models.ProposalState
}

// EvaluateUnanimous реализует правило ApproveIfUnanimous.
// Пустое множество голосов — не одобрено, перехода нет. Не единогласно —
// предложение намеренно остаётся в pending (будущие голоса ещё могут
// сделать результат единогласным), это не отказ. Единогласно — accepted.
// Повторная оценка уже разрешённого предложения — отказ AlreadyResolved.
func EvaluateUnanimous(state models.ProposalState, votes []models.Vote) (ProposalEvaluation, *Rejection) {
	if state != models.ProposalPending {
		return ProposalEvaluation{}, reject(KindAlreadyResolved, "proposal is already %s", state)
	}
	if TallyVotes(votes).Unanimous() {
		return ProposalEvaluation{Approved: true, Next: models.ProposalAccepted}, nil
	}
	return ProposalEvaluation{Approved: false, Next: models.ProposalPending}, nil
}
