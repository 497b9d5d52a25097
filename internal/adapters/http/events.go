package http

import (
	"fmt"
	"strings"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/usecases"
)

// eventRequest is the wire form of a view event, shared by REST, WebSocket
// and GraphQL.
type eventRequest struct {
	Type          string         `json:"type"`
	Keyword       string         `json:"keyword,omitempty"`
	Region        string         `json:"region,omitempty"`
	ID            string         `json:"id,omitempty"`
	VisibleRegion *domain.Region `json:"visible_region,omitempty"`
}

func (r eventRequest) toEvent() (usecases.Event, error) {
	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case "category_tapped", "search":
		if strings.TrimSpace(r.Keyword) == "" {
			return nil, domain.ErrEmptyKeyword
		}
		if len(r.Keyword) > 100 {
			return nil, fmt.Errorf("%w: keyword too long (max 100 characters)", domain.ErrUnknownEvent)
		}
		return usecases.CategoryTapped{Keyword: r.Keyword}, nil
	case "region_tapped":
		name, err := domain.ParseRegionName(r.Region)
		if err != nil {
			return nil, err
		}
		return usecases.RegionTapped{Region: name}, nil
	case "marker_selected", "select":
		return usecases.MarkerSelected{ID: r.ID}, nil
	case "marker_deselected", "deselect":
		return usecases.MarkerSelected{}, nil
	case "camera_settled":
		if r.VisibleRegion == nil {
			return nil, fmt.Errorf("%w: camera_settled needs visible_region", domain.ErrUnknownEvent)
		}
		return usecases.CameraSettled{Region: *r.VisibleRegion}, nil
	case "locate_user_tapped", "locate":
		return usecases.LocateUserTapped{}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEvent, r.Type)
}
