package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/repository"
	"github.com/iliyamo/flight-reservation/internal/seatmap"
)

// FleetService administers airplanes, crew and routes.
type FleetService struct {
	airplanes AirplaneStore
	crew      CrewStore
	routes    RouteStore
}

func NewFleetService(airplanes AirplaneStore, crew CrewStore, routes RouteStore) *FleetService {
	return &FleetService{airplanes: airplanes, crew: crew, routes: routes}
}

// AddAirplane stores an airplane.  Every airplane carries an Economy cabin;
// a Business cabin is stored for large airplanes only and is required for
// them.
func (s *FleetService) AddAirplane(ctx context.Context, a model.Airplane) (model.Airplane, error) {
	a.ID = strings.TrimSpace(a.ID)
	a.Size = strings.ToLower(strings.TrimSpace(a.Size))
	if a.ID == "" {
		return model.Airplane{}, invalid("Airplane id is required.")
	}
	if a.Size != model.SizeSmall && a.Size != model.SizeLarge {
		return model.Airplane{}, invalid("Size must be small or large.")
	}
	if a.PurchaseDate.IsZero() {
		return model.Airplane{}, invalid("Purchase date is required.")
	}

	eco, ok := a.Layout(model.Economy)
	if !ok {
		return model.Airplane{}, invalid("An Economy layout is required.")
	}
	layouts := []model.CabinLayout{eco}
	if bus, ok := a.Layout(model.Business); ok && a.Large() {
		layouts = append([]model.CabinLayout{bus}, layouts...)
	} else if a.Large() {
		return model.Airplane{}, invalid("Large airplanes require a Business layout.")
	}
	for i := range layouts {
		l := &layouts[i]
		l.AirplaneID = a.ID
		if l.Rows < 1 || l.Cols < 1 {
			return model.Airplane{}, invalid("%s layout needs at least one row and one column.", l.Class)
		}
		if l.Cols > seatmap.MaxColumns {
			return model.Airplane{}, invalid("%s layout cannot exceed %d columns.", l.Class, seatmap.MaxColumns)
		}
	}
	a.Layouts = layouts

	if err := s.airplanes.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Airplane{}, invalid("Airplane %s already exists.", a.ID)
		}
		return model.Airplane{}, errors.Wrap(err, "create airplane")
	}
	log.WithFields(log.Fields{"airplane_id": a.ID, "size": a.Size}).Info("airplane added")
	return a, nil
}

// ListAirplanes returns the fleet.
func (s *FleetService) ListAirplanes(ctx context.Context) ([]model.Airplane, error) {
	out, err := s.airplanes.List(ctx)
	return out, errors.Wrap(err, "list airplanes")
}

// AddCrew stores a pilot or attendant.
func (s *FleetService) AddCrew(ctx context.Context, c model.CrewMember) (model.CrewMember, error) {
	c.FirstName, c.LastName = strings.TrimSpace(c.FirstName), strings.TrimSpace(c.LastName)
	if c.ID <= 0 {
		return model.CrewMember{}, invalid("Employee id must be positive.")
	}
	if c.FirstName == "" || c.LastName == "" {
		return model.CrewMember{}, invalid("First and last name are required.")
	}
	if c.Role != model.RolePilot && c.Role != model.RoleAttendant {
		return model.CrewMember{}, invalid("Role must be Pilot or Attendant.")
	}
	if c.StartDate.IsZero() {
		return model.CrewMember{}, invalid("Start date is required.")
	}
	if err := s.crew.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.CrewMember{}, invalid("Employee %d already exists.", c.ID)
		}
		return model.CrewMember{}, errors.Wrap(err, "create crew member")
	}
	log.WithFields(log.Fields{"employee_id": c.ID, "role": c.Role}).Info("crew member added")
	return c, nil
}

// ListCrew returns the crew of role, or everyone for an empty role.
func (s *FleetService) ListCrew(ctx context.Context, role string) ([]model.CrewMember, error) {
	out, err := s.crew.List(ctx, role)
	return out, errors.Wrap(err, "list crew")
}

// AddRoute stores a directional route.
func (s *FleetService) AddRoute(ctx context.Context, origin, destination string, duration int) (model.Route, error) {
	r := model.Route{
		Origin:          strings.ToUpper(strings.TrimSpace(origin)),
		Destination:     strings.ToUpper(strings.TrimSpace(destination)),
		DurationMinutes: duration,
	}
	if r.Origin == "" || r.Destination == "" {
		return model.Route{}, invalid("Origin and destination are required.")
	}
	if r.Origin == r.Destination {
		return model.Route{}, invalid("Origin and destination must be different.")
	}
	if r.DurationMinutes <= 0 {
		return model.Route{}, invalid("Duration must be a positive number of minutes.")
	}
	if err := s.routes.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Route{}, invalid("Route from %s to %s already exists.", r.Origin, r.Destination)
		}
		return model.Route{}, errors.Wrap(err, "create route")
	}
	log.WithFields(log.Fields{"origin": r.Origin, "destination": r.Destination, "minutes": r.DurationMinutes}).Info("route added")
	return r, nil
}

// ListRoutes returns every route.
func (s *FleetService) ListRoutes(ctx context.Context) ([]model.Route, error) {
	out, err := s.routes.List(ctx)
	return out, errors.Wrap(err, "list routes")
}
