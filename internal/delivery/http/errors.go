package http

import (
	"errors"
	"net/http"

	"github.com/vogiaan1904/spacehost/internal/space"
	pkgErrors "github.com/vogiaan1904/spacehost/pkg/errors"
)

var (
	errInvalidBody     = pkgErrors.NewHTTPError(40001, "Invalid request body")
	errSpaceIDRequired = pkgErrors.NewHTTPError(40002, "space_id is required")
	errInvalidLimit    = pkgErrors.NewHTTPError(40003, "limit must be between 1 and 200")
	errUnauthorized    = pkgErrors.NewHTTPError(40101, "Unauthorized").WithStatus(http.StatusUnauthorized)
	errHostingDisabled = pkgErrors.NewHTTPError(40301, "Session hosting is disabled").WithStatus(http.StatusForbidden)
	errHistoryDisabled = pkgErrors.NewHTTPError(40401, "Space history is not configured").WithStatus(http.StatusNotFound)
	errNotIdle         = pkgErrors.NewHTTPError(40901, "Agent is busy with another space").WithStatus(http.StatusConflict)
	errNotParticipant  = pkgErrors.NewHTTPError(40902, "Agent is not participating in a space").WithStatus(http.StatusConflict)
	errSpaceLaunch     = pkgErrors.NewHTTPError(50201, "Failed to open space").WithStatus(http.StatusBadGateway)
	errSpeakerFinalize = pkgErrors.NewHTTPError(50202, "Failed to become speaker").WithStatus(http.StatusBadGateway)
	errShuttingDown    = pkgErrors.NewHTTPError(50301, "Service is shutting down").WithStatus(http.StatusServiceUnavailable)
	errApprovalTimeout = pkgErrors.NewHTTPError(50401, "Timed out waiting for speaker approval").WithStatus(http.StatusGatewayTimeout)
)

func mapHTTPError(err error) error {
	switch {
	case errors.Is(err, space.ErrEmptySpaceID):
		return errSpaceIDRequired
	case errors.Is(err, space.ErrHostingDisabled):
		return errHostingDisabled
	case errors.Is(err, space.ErrNotIdle):
		return errNotIdle
	case errors.Is(err, space.ErrNotParticipating):
		return errNotParticipant
	case errors.Is(err, space.ErrSpaceLaunch):
		return errSpaceLaunch
	case errors.Is(err, space.ErrSpeakerFinalize):
		return errSpeakerFinalize
	case errors.Is(err, space.ErrShuttingDown):
		return errShuttingDown
	case errors.Is(err, space.ErrApprovalTimeout):
		return errApprovalTimeout
	default:
		return err
	}
}
