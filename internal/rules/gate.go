package rules

import "github.com/beckershow/colaborador-portal/internal/domain"

// DecideInitialStatus picks the status of a new feedback or post.
func DecideInitialStatus(team *domain.TeamConfig) domain.FeedbackStatus {
	if team != nil && team.Behavior.RequireApproval {
		return domain.FeedbackStatusPending
	}
	return domain.FeedbackStatusApproved
}

// StatusAfterEdit re-runs the gate for edited content. Approved content goes back
// to review when the team requires approval; an item already waiting in a
// manager's queue stays pending.
func StatusAfterEdit(current domain.FeedbackStatus, team *domain.TeamConfig) domain.FeedbackStatus {
	if current == domain.FeedbackStatusPending {
		return domain.FeedbackStatusPending
	}
	return DecideInitialStatus(team)
}

// CanDecide reports whether a manager may approve or reject an item in status.
func CanDecide(status domain.FeedbackStatus) bool {
	return status == domain.FeedbackStatusPending
}
