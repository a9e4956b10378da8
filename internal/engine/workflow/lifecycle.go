package workflow

import (
	"slices"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

// edges is the application lifecycle. Statuses absent from the map are terminal.
var edges = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusPending: {
		models.StatusApproved,
		models.StatusRejected,
		models.StatusInDiscussion,
		models.StatusWithdrawn,
	},
	models.StatusInDiscussion: {
		models.StatusApproved,
		models.StatusRejected,
	},
}

// CanTransition reports whether from has an edge to to.
func CanTransition(from, to models.ApplicationStatus) bool {
	return slices.Contains(edges[from], to)
}

// AllowedTargets lists the statuses reachable from from in one step.
func AllowedTargets(from models.ApplicationStatus) []models.ApplicationStatus {
	return slices.Clone(edges[from])
}

// invalidTransition tells the caller where from can still go, so a client
// can roll back to a confirmed status and offer only legal moves.
func invalidTransition(from, to models.ApplicationStatus) *apperrors.StandardError {
	targets := AllowedTargets(from)
	allowed := make([]string, len(targets))
	for i, s := range targets {
		allowed[i] = string(s)
	}
	return apperrors.NewInvalidTransitionError(string(from), string(to)).
		WithMetadata("allowedTargets", allowed).
		WithMetadata("terminal", from.IsTerminal())
}

// authorize checks that actor may move app to target. Withdrawal belongs to
// the creator; every other decision belongs to the campaign's brand.
func authorize(app *models.Application, target models.ApplicationStatus, actor models.Actor) bool {
	if target == models.StatusWithdrawn {
		return actor.Role == models.RoleCreator && actor.ID == app.CreatorID
	}
	return isOwningBrand(app, actor)
}

func isOwningBrand(app *models.Application, actor models.Actor) bool {
	return actor.Role == models.RoleBrand && app.BrandID != "" && actor.ID == app.BrandID
}

func isOwningCreator(app *models.Application, actor models.Actor) bool {
	return actor.Role == models.RoleCreator && actor.ID == app.CreatorID
}
