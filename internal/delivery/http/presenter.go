package http

import "strings"

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type joinSpaceRequest struct {
	SpaceID string `json:"space_id"`
}

func (r *joinSpaceRequest) validate() error {
	r.SpaceID = strings.TrimSpace(r.SpaceID)
	if r.SpaceID == "" {
		return errSpaceIDRequired
	}
	return nil
}
