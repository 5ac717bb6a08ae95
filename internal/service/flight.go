package service

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/flight-reservation/internal/availability"
	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/repository"
)

// maxCodeAttempts bounds the rejection sampling of flight codes.  With
// 26*26*1000 codes the bound is only reached on a practically exhausted
// code space.
const maxCodeAttempts = 1000

// CodeGenerator draws flight codes of two upper-case letters and three
// digits.  It is safe for concurrent use.
type CodeGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewCodeGenerator returns a generator drawing from src.  A nil src seeds
// from the clock.
func NewCodeGenerator(src rand.Source) *CodeGenerator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>17|1)
	}
	return &CodeGenerator{rnd: rand.New(src)}
}

// Next returns a random code such as "AB123".
func (g *CodeGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := []byte{
		byte('A' + g.rnd.IntN(26)),
		byte('A' + g.rnd.IntN(26)),
		byte('0' + g.rnd.IntN(10)),
		byte('0' + g.rnd.IntN(10)),
		byte('0' + g.rnd.IntN(10)),
	}
	return string(b)
}

// Unique draws codes until exists reports a free one.
func (g *CodeGenerator) Unique(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := g.Next()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", conflict("No free flight code found after %d attempts.", maxCodeAttempts)
}

// FlightService schedules flights.
type FlightService struct {
	uow       TxRunner
	flights   FlightStore
	airplanes AirplaneStore
	crew      CrewStore
	routes    RouteStore
	codes     *CodeGenerator
	now       Clock
}

func NewFlightService(uow TxRunner, flights FlightStore, airplanes AirplaneStore, crew CrewStore, routes RouteStore, codes *CodeGenerator) *FlightService {
	if codes == nil {
		codes = NewCodeGenerator(nil)
	}
	return &FlightService{uow: uow, flights: flights, airplanes: airplanes, crew: crew, routes: routes, codes: codes, now: utcNow}
}

// CrewAvailability lists the eligible crew per role.
type CrewAvailability struct {
	Pilots     []model.CrewMember `json:"pilots"`
	Attendants []model.CrewMember `json:"attendants"`
}

// AvailableAirplanes returns the airplanes that can operate a flight of type
// ft leaving origin at departure.
func (s *FlightService) AvailableAirplanes(ctx context.Context, origin string, ft model.FlightType, departure time.Time) ([]model.Airplane, error) {
	planes, err := s.airplanes.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list airplanes")
	}
	history, err := s.flights.AirplaneHistory(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "airplane history")
	}
	cands := make([]availability.AirplaneCandidate, len(planes))
	for i, a := range planes {
		cands[i] = availability.AirplaneCandidate{Airplane: a, History: history[a.ID]}
	}
	return availability.Airplanes(cands, availability.Request{
		Origin: strings.ToUpper(origin), Departure: departure.UTC(), Type: ft,
	}), nil
}

// AvailableCrew returns the eligible pilots and attendants.  Both roles are
// evaluated concurrently.
func (s *FlightService) AvailableCrew(ctx context.Context, origin string, ft model.FlightType, departure time.Time) (CrewAvailability, error) {
	req := availability.Request{Origin: strings.ToUpper(origin), Departure: departure.UTC(), Type: ft}
	var out CrewAvailability
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Pilots, err = s.eligibleCrew(gctx, model.RolePilot, req)
		return err
	})
	g.Go(func() (err error) {
		out.Attendants, err = s.eligibleCrew(gctx, model.RoleAttendant, req)
		return err
	})
	if err := g.Wait(); err != nil {
		return CrewAvailability{}, err
	}
	return out, nil
}

func (s *FlightService) eligibleCrew(ctx context.Context, role string, req availability.Request) ([]model.CrewMember, error) {
	members, err := s.crew.List(ctx, role)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s crew", role)
	}
	history, err := s.crew.History(ctx, role)
	if err != nil {
		return nil, errors.Wrapf(err, "%s history", role)
	}
	cands := make([]availability.CrewCandidate, len(members))
	for i, m := range members {
		cands[i] = availability.CrewCandidate{Member: m, History: history[m.ID]}
	}
	return availability.Crew(cands, req), nil
}

// FlightRequest is everything needed to schedule a flight.  A zero
// BusinessPrice creates an Economy-only flight.
type FlightRequest struct {
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	Departure     time.Time `json:"departure_time"`
	AirplaneID    string    `json:"airplane_id"`
	PilotIDs      []int64   `json:"pilot_ids"`
	AttendantIDs  []int64   `json:"attendant_ids"`
	EconomyPrice  float64   `json:"economy_price"`
	BusinessPrice float64   `json:"business_price"`
}

// CreateFlight validates the request, re-checks that the airplane and crew
// are still eligible, and stores the flight with its crew assignments under
// a freshly generated code.
func (s *FlightService) CreateFlight(ctx context.Context, req FlightRequest) (string, error) {
	origin, dest := strings.ToUpper(strings.TrimSpace(req.Origin)), strings.ToUpper(strings.TrimSpace(req.Destination))
	route, err := s.routes.Get(ctx, origin, dest)
	if errors.Is(err, repository.ErrNotFound) {
		return "", invalid("No route from %s to %s.", origin, dest)
	}
	if err != nil {
		return "", errors.Wrap(err, "get route")
	}
	departure := req.Departure.UTC().Truncate(time.Minute)
	if !departure.After(s.now()) {
		return "", invalid("Departure time must be in the future.")
	}

	plane, err := s.airplanes.Get(ctx, req.AirplaneID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", notFound("Airplane %s was not found.", req.AirplaneID)
	}
	if err != nil {
		return "", errors.Wrap(err, "get airplane")
	}
	if route.Type() == model.LongFlight && !plane.Large() {
		return "", invalid("Long flights require a large airplane.")
	}
	if err := availability.ValidateCrew(plane.Size, len(req.PilotIDs), len(req.AttendantIDs)); err != nil {
		return "", invalid("%s", err.Error())
	}
	if req.EconomyPrice <= 0 {
		return "", invalid("Economy price must be positive.")
	}
	if req.BusinessPrice < 0 {
		return "", invalid("Business price cannot be negative.")
	}
	if _, ok := plane.Layout(model.Business); req.BusinessPrice > 0 && !ok {
		return "", invalid("Airplane %s has no Business cabin.", plane.ID)
	}

	crewIDs := append(append([]int64{}, req.PilotIDs...), req.AttendantIDs...)
	if err := s.checkCrewRoles(ctx, req.PilotIDs, req.AttendantIDs); err != nil {
		return "", err
	}

	if err := s.checkEligible(ctx, route, departure, plane.ID, req.PilotIDs, req.AttendantIDs); err != nil {
		return "", err
	}

	f := model.Flight{
		AirplaneID:      plane.ID,
		Origin:          origin,
		Destination:     dest,
		Departure:       departure,
		DurationMinutes: route.DurationMinutes,
		Offerings:       []model.FlightClassOffering{{Class: model.Economy, Price: round2(req.EconomyPrice), Status: model.FlightActive}},
	}
	if req.BusinessPrice > 0 {
		f.Offerings = append(f.Offerings, model.FlightClassOffering{Class: model.Business, Price: round2(req.BusinessPrice), Status: model.FlightActive})
	}

	for attempt := 1; ; attempt++ {
		err = s.uow.InTx(ctx, func(tx repository.Tx) error {
			code, err := s.codes.Unique(ctx, tx.FlightExists)
			if err != nil {
				return err
			}
			f.ID = code
			if err := tx.InsertFlight(ctx, f); err != nil {
				return err
			}
			return tx.AssignCrew(ctx, f.ID, crewIDs)
		})
		if errors.Is(err, repository.ErrDuplicate) && attempt < bookingAttempts {
			continue
		}
		break
	}
	if err != nil {
		if KindOf(err) != 0 {
			return "", err
		}
		return "", errors.Wrap(err, "create flight")
	}

	log.WithFields(log.Fields{
		"flight_id":   f.ID,
		"route":       origin + "-" + dest,
		"departure":   departure.Format(time.RFC3339),
		"airplane_id": plane.ID,
		"crew":        len(crewIDs),
	}).Info("flight created")
	return f.ID, nil
}

func (s *FlightService) checkCrewRoles(ctx context.Context, pilots, attendants []int64) error {
	want := map[int64]string{}
	for _, id := range pilots {
		want[id] = model.RolePilot
	}
	for _, id := range attendants {
		if _, dup := want[id]; dup {
			return invalid("Employee %d is selected twice.", id)
		}
		want[id] = model.RoleAttendant
	}
	if len(want) != len(pilots)+len(attendants) {
		return invalid("A crew member is selected twice.")
	}
	ids := make([]int64, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	members, err := s.crew.GetMany(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "get crew")
	}
	for _, id := range append(append([]int64{}, pilots...), attendants...) {
		m, ok := members[id]
		if !ok {
			return notFound("Crew member %d was not found.", id)
		}
		if m.Role != want[id] {
			return invalid("Employee %d is not a %s.", id, strings.ToLower(want[id]))
		}
	}
	return nil
}

// checkEligible repeats the availability query right before the write.  The
// check and the insert are not atomic.
func (s *FlightService) checkEligible(ctx context.Context, route model.Route, departure time.Time, airplaneID string, pilots, attendants []int64) error {
	planes, err := s.AvailableAirplanes(ctx, route.Origin, route.Type(), departure)
	if err != nil {
		return err
	}
	found := false
	for _, p := range planes {
		if p.ID == airplaneID {
			found = true
			break
		}
	}
	if !found {
		return conflict("Airplane %s is not available for this flight.", airplaneID)
	}

	crew, err := s.AvailableCrew(ctx, route.Origin, route.Type(), departure)
	if err != nil {
		return err
	}
	free := map[int64]bool{}
	for _, m := range crew.Pilots {
		free[m.ID] = true
	}
	for _, m := range crew.Attendants {
		free[m.ID] = true
	}
	for _, id := range append(append([]int64{}, pilots...), attendants...) {
		if !free[id] {
			return conflict("Crew member %d is not available for this flight.", id)
		}
	}
	return nil
}
