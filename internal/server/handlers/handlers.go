// Package handlers implements the HTTP endpoints of the tripsplitd API.
// Each resource gets its own handler struct holding the store handle it
// needs; the server package wires them onto the gin engine. Handlers
// validate, call the pure computation packages, persist through the
// repository layer, and translate store errors via apierrors.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// pathID parses the :id route parameter. On failure it answers 400 and
// reports false.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("invalid id in path"))
		return uuid.Nil, false
	}
	return id, true
}

// requireMembership loads a trip and verifies the caller belongs to it.
// Outsiders get the same 404 as a missing trip: a trip the caller cannot
// see does not exist for them.
func requireMembership(c *gin.Context, trips relationaldb.TripRepository, tripID, userID uuid.UUID) (*relationaldb.Trip, bool) {
	trip, err := trips.GetTripByID(c.Request.Context(), tripID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, map[error]*apierrors.AppError{
			relationaldb.ErrTripNotFound: apierrors.ErrTripNotFound,
		}))
		return nil, false
	}

	isMember, err := trips.IsMember(c.Request.Context(), tripID, userID)
	if err != nil {
		apierrors.Send(c, apierrors.MapError(err, nil))
		return nil, false
	}
	if !isMember {
		apierrors.Send(c, apierrors.ErrTripNotFound)
		return nil, false
	}
	return trip, true
}

// memberIDSet indexes a member list for assignment validation.
func memberIDSet(members []relationaldb.TripMember) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(members))
	for _, m := range members {
		set[m.UserID] = struct{}{}
	}
	return set
}
