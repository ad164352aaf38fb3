package core

import (
	"context"
	"sort"

	"dormcore/pkg/domain"
)

// RoomSummary aggregates the occupancy of one room for reporting.
type RoomSummary struct {
	Room            Room   `json:"room"`
	Occupied        int    `json:"occupied"`
	AvailablePlaces int    `json:"available_places"`
	OccupantNames   string `json:"occupant_names,omitempty"`
}

// DormitorySummary aggregates the occupancy of one dormitory.
type DormitorySummary struct {
	Dormitory        Dormitory     `json:"dormitory"`
	Rooms            []RoomSummary `json:"rooms"`
	TotalCapacity    int           `json:"total_capacity"`
	TotalOccupied    int           `json:"total_occupied"`
	AvailablePlaces  int           `json:"available_places"`
	OccupancyPercent float64       `json:"occupancy_percent"`
}

// BuildDormitorySummary aggregates room occupancy for one dormitory from a
// consistent snapshot. Occupant ids with no matching registry record are
// still counted as occupying a place.
func (s *Service) BuildDormitorySummary(ctx context.Context, dormitoryID string) (DormitorySummary, error) {
	if err := s.authorize(ctx, PermGenerateReports); err != nil {
		return DormitorySummary{}, err
	}
	var summary DormitorySummary
	err := s.store.View(ctx, func(view TransactionView) error {
		dorm, ok := view.FindDormitory(dormitoryID)
		if !ok {
			return domain.NotFoundError{Entity: EntityDormitory, ID: dormitoryID}
		}
		summary = buildDormitorySummary(view, dorm, view.ListRooms())
		return nil
	})
	if err != nil {
		return DormitorySummary{}, err
	}
	return summary, nil
}

// ListDormitorySummaries builds summaries for every dormitory ordered by
// facility number.
func (s *Service) ListDormitorySummaries(ctx context.Context) ([]DormitorySummary, error) {
	if err := s.authorize(ctx, PermGenerateReports); err != nil {
		return nil, err
	}
	var out []DormitorySummary
	err := s.store.View(ctx, func(view TransactionView) error {
		rooms := view.ListRooms()
		for _, dorm := range view.ListDormitories() {
			out = append(out, buildDormitorySummary(view, dorm, rooms))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Dormitory.Number < out[j].Dormitory.Number })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func buildDormitorySummary(view TransactionView, dorm Dormitory, rooms []Room) DormitorySummary {
	summary := DormitorySummary{Dormitory: dorm}
	for _, room := range rooms {
		if room.DormitoryID != dorm.ID {
			continue
		}
		summary.Rooms = append(summary.Rooms, RoomSummary{
			Room:            room,
			Occupied:        len(room.OccupantIDs),
			AvailablePlaces: room.AvailablePlaces(),
			OccupantNames:   joinOccupantNames(view, room.OccupantIDs),
		})
		summary.TotalCapacity += room.Capacity
		summary.TotalOccupied += len(room.OccupantIDs)
	}
	summary.AvailablePlaces = summary.TotalCapacity - summary.TotalOccupied
	if summary.TotalCapacity > 0 {
		summary.OccupancyPercent = 100 * float64(summary.TotalOccupied) / float64(summary.TotalCapacity)
	}
	sort.Slice(summary.Rooms, func(i, j int) bool { return summary.Rooms[i].Room.Number < summary.Rooms[j].Room.Number })
	return summary
}

func joinOccupantNames(view TransactionView, occupantIDs []string) string {
	names := ""
	for _, id := range occupantIDs {
		name := id
		if r, ok := view.FindResident(id); ok {
			name = r.FullName
		} else if c, ok := view.FindChild(id); ok {
			name = c.FullName
		}
		if names != "" {
			names += ", "
		}
		names += name
	}
	return names
}
