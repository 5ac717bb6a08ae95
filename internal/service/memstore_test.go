package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/queue"
	"github.com/iliyamo/flight-reservation/internal/repository"
)

// memStore is an in-memory stand-in for MySQL.  InTx holds the lock for the
// whole transaction and restores a snapshot when fn fails.
type memStore struct {
	mu          sync.Mutex
	airplanes   map[string]model.Airplane
	routes      map[[2]string]model.Route
	flights     map[string]model.Flight
	crew        map[int64]model.CrewMember
	assignments map[string][]int64
	orders      map[int64]model.Order
	live        map[int64]bool
	registered  map[string]model.RegisteredUser
	guests      map[string]model.Customer
	phones      map[string]map[string]model.CustomerType
	managers    map[int64]model.Manager

	// failOrderInserts makes the next n order inserts lose the id race.
	failOrderInserts int
}

func newMemStore() *memStore {
	return &memStore{
		airplanes:   map[string]model.Airplane{},
		routes:      map[[2]string]model.Route{},
		flights:     map[string]model.Flight{},
		crew:        map[int64]model.CrewMember{},
		assignments: map[string][]int64{},
		orders:      map[int64]model.Order{},
		live:        map[int64]bool{},
		registered:  map[string]model.RegisteredUser{},
		guests:      map[string]model.Customer{},
		phones:      map[string]map[string]model.CustomerType{},
		managers:    map[int64]model.Manager{},
	}
}

type memSnapshot struct {
	flights     map[string]model.Flight
	assignments map[string][]int64
	orders      map[int64]model.Order
	live        map[int64]bool
	registered  map[string]model.RegisteredUser
	guests      map[string]model.Customer
	phones      map[string]map[string]model.CustomerType
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		flights:     map[string]model.Flight{},
		assignments: map[string][]int64{},
		orders:      map[int64]model.Order{},
		live:        map[int64]bool{},
		registered:  map[string]model.RegisteredUser{},
		guests:      map[string]model.Customer{},
		phones:      map[string]map[string]model.CustomerType{},
	}
	for k, v := range s.flights {
		snap.flights[k] = copyFlight(v)
	}
	for k, v := range s.assignments {
		snap.assignments[k] = append([]int64{}, v...)
	}
	for k, v := range s.orders {
		v.Tickets = append([]model.SeatRef{}, v.Tickets...)
		snap.orders[k] = v
	}
	for k, v := range s.live {
		snap.live[k] = v
	}
	for k, v := range s.registered {
		snap.registered[k] = v
	}
	for k, v := range s.guests {
		snap.guests[k] = v
	}
	for k, v := range s.phones {
		m := map[string]model.CustomerType{}
		for p, t := range v {
			m[p] = t
		}
		snap.phones[k] = m
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.flights = snap.flights
	s.assignments = snap.assignments
	s.orders = snap.orders
	s.live = snap.live
	s.registered = snap.registered
	s.guests = snap.guests
	s.phones = snap.phones
}

func copyFlight(f model.Flight) model.Flight {
	f.Offerings = append([]model.FlightClassOffering{}, f.Offerings...)
	return f
}

func (s *memStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		}
		if err != nil {
			s.restore(snap)
		}
	}()
	return fn(memTx{s})
}

// memTx implements repository.Tx.  The store lock is already held.
type memTx struct{ s *memStore }

func (t memTx) LockFlight(_ context.Context, id string) (model.Flight, error) {
	f, ok := t.s.flights[id]
	if !ok {
		return model.Flight{}, repository.ErrNotFound
	}
	return copyFlight(f), nil
}

func (t memTx) FlightExists(_ context.Context, id string) (bool, error) {
	_, ok := t.s.flights[id]
	return ok, nil
}

func (t memTx) InsertFlight(_ context.Context, f model.Flight) error {
	if _, ok := t.s.flights[f.ID]; ok {
		return repository.ErrDuplicate
	}
	t.s.flights[f.ID] = copyFlight(f)
	return nil
}

func (t memTx) SetClassStatus(_ context.Context, id string, c model.ClassType, st model.FlightStatus) error {
	f := copyFlight(t.s.flights[id])
	for i := range f.Offerings {
		if f.Offerings[i].Class == c {
			f.Offerings[i].Status = st
		}
	}
	t.s.flights[id] = f
	return nil
}

func (t memTx) SetFlightStatus(_ context.Context, id string, st model.FlightStatus) error {
	f := copyFlight(t.s.flights[id])
	for i := range f.Offerings {
		f.Offerings[i].Status = st
	}
	t.s.flights[id] = f
	return nil
}

func (t memTx) AssignCrew(_ context.Context, id string, ids []int64) error {
	t.s.assignments[id] = append(append([]int64{}, t.s.assignments[id]...), ids...)
	return nil
}

func (t memTx) CabinLayouts(_ context.Context, airplaneID string) ([]model.CabinLayout, error) {
	return t.s.airplanes[airplaneID].Layouts, nil
}

func (t memTx) OccupiedSeats(_ context.Context, flightID string) ([]model.SeatRef, error) {
	return t.s.occupied(flightID), nil
}

func (t memTx) NextOrderID(context.Context) (int64, error) {
	var max int64
	for id := range t.s.orders {
		if id > max {
			max = id
		}
	}
	return max + 1, nil
}

func (t memTx) InsertOrder(_ context.Context, o model.Order) error {
	if t.s.failOrderInserts > 0 {
		t.s.failOrderInserts--
		return repository.ErrOrderIDTaken
	}
	if _, ok := t.s.orders[o.ID]; ok {
		return repository.ErrOrderIDTaken
	}
	o.Tickets = nil
	t.s.orders[o.ID] = o
	return nil
}

func (t memTx) InsertTickets(_ context.Context, orderID int64, flightID string, seats []model.SeatRef) error {
	for id, o := range t.s.orders {
		if o.FlightID != flightID || !t.s.live[id] {
			continue
		}
		for _, held := range o.Tickets {
			for _, s := range seats {
				if held == s {
					return repository.ErrSeatTaken
				}
			}
		}
	}
	o := t.s.orders[orderID]
	o.Tickets = append([]model.SeatRef{}, seats...)
	t.s.orders[orderID] = o
	t.s.live[orderID] = true
	return nil
}

func (t memTx) LockOrder(_ context.Context, id int64) (model.Order, error) {
	o, ok := t.s.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	o.Tickets = append([]model.SeatRef{}, o.Tickets...)
	return o, nil
}

func (t memTx) UpdateOrder(_ context.Context, id int64, st model.OrderStatus, price float64) error {
	o, ok := t.s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status, o.TotalPrice = st, price
	t.s.orders[id] = o
	return nil
}

func (t memTx) ReleaseTickets(_ context.Context, id int64) error {
	t.s.live[id] = false
	return nil
}

func (t memTx) CancelFlightOrders(_ context.Context, flightID string) (int64, error) {
	var n int64
	for id, o := range t.s.orders {
		if o.FlightID == flightID {
			o.Status, o.TotalPrice = model.OrderSystemCancellation, 0
			t.s.orders[id] = o
			n++
		}
	}
	return n, nil
}

func (t memTx) ReleaseFlightTickets(_ context.Context, flightID string) error {
	for id, o := range t.s.orders {
		if o.FlightID == flightID {
			t.s.live[id] = false
		}
	}
	return nil
}

func (t memTx) RegisteredExists(_ context.Context, email string) (bool, error) {
	_, ok := t.s.registered[email]
	return ok, nil
}

func (t memTx) GuestExists(_ context.Context, email string) (bool, error) {
	_, ok := t.s.guests[email]
	return ok, nil
}

func (t memTx) DeletePhones(_ context.Context, email string) error {
	delete(t.s.phones, email)
	return nil
}

func (t memTx) RetagOrders(_ context.Context, email string, ct model.CustomerType) (int64, error) {
	var n int64
	for id, o := range t.s.orders {
		if o.CustomerEmail == email {
			o.CustomerType = ct
			t.s.orders[id] = o
			n++
		}
	}
	return n, nil
}

func (t memTx) DeleteGuest(_ context.Context, email string) error {
	delete(t.s.guests, email)
	return nil
}

func (t memTx) InsertRegistered(_ context.Context, u model.RegisteredUser) error {
	if _, ok := t.s.registered[u.Email]; ok {
		return repository.ErrDuplicate
	}
	t.s.registered[u.Email] = u
	return nil
}

func (t memTx) UpsertGuest(_ context.Context, c model.Customer) error {
	t.s.guests[c.Email] = c
	return nil
}

func (t memTx) InsertPhones(_ context.Context, email string, ct model.CustomerType, phones []string) error {
	m := map[string]model.CustomerType{}
	for p, v := range t.s.phones[email] {
		m[p] = v
	}
	for _, p := range phones {
		if _, ok := m[p]; !ok {
			m[p] = ct
		}
	}
	t.s.phones[email] = m
	return nil
}

func (s *memStore) occupied(flightID string) []model.SeatRef {
	out := []model.SeatRef{}
	for id, o := range s.orders {
		if o.FlightID == flightID && o.Status == model.OrderActive && s.live[id] {
			out = append(out, o.Tickets...)
		}
	}
	return out
}

// intervals returns one interval per class row of f.
func intervals(f model.Flight) []model.Interval {
	out := make([]model.Interval, 0, len(f.Offerings))
	for _, o := range f.Offerings {
		out = append(out, model.Interval{
			FlightID: f.ID, Origin: f.Origin, Destination: f.Destination,
			Departure: f.Departure, Arrival: f.Arrival(), Status: o.Status,
		})
	}
	return out
}

// memFlights implements FlightStore.
type memFlights struct{ *memStore }

func (m memFlights) Get(_ context.Context, id string) (model.Flight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flights[id]
	if !ok {
		return model.Flight{}, repository.ErrNotFound
	}
	return copyFlight(f), nil
}

func (m memFlights) Search(_ context.Context, q repository.FlightSearchQuery) ([]model.FlightSummary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.FlightSummary{}
	for _, f := range m.flights {
		if q.Origin != "" && f.Origin != q.Origin || q.Destination != "" && f.Destination != q.Destination {
			continue
		}
		if !q.Manager && (!f.Departure.After(q.Now) || f.Status() == model.FlightCanceled) {
			continue
		}
		s := model.FlightSummary{FlightID: f.ID, Origin: f.Origin, Destination: f.Destination,
			Departure: f.Departure, Arrival: f.Arrival(), Status: f.Status()}
		if o, ok := f.Offering(model.Economy); ok {
			s.EconomyStatus = o.Status
		}
		if o, ok := f.Offering(model.Business); ok {
			s.BusinessStatus = o.Status
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Departure.Before(out[j].Departure) })
	return out, int64(len(out)), nil
}

func (m memFlights) AirplaneHistory(context.Context) (map[string][]model.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]model.Interval{}
	for _, f := range m.flights {
		out[f.AirplaneID] = append(out[f.AirplaneID], intervals(f)...)
	}
	return out, nil
}

func (m memFlights) MinEconomyFares(_ context.Context, dests []string, now time.Time) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, d := range dests {
		want[d] = true
	}
	out := map[string]float64{}
	for _, f := range m.flights {
		o, ok := f.Offering(model.Economy)
		if !ok || !want[f.Destination] || o.Status != model.FlightActive || !f.Departure.After(now) {
			continue
		}
		if cur, seen := out[f.Destination]; !seen || o.Price < cur {
			out[f.Destination] = o.Price
		}
	}
	return out, nil
}

// memOrders implements OrderStore.
type memOrders struct{ *memStore }

func (m memOrders) Get(_ context.Context, id int64) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (m memOrders) OccupiedSeats(_ context.Context, flightID string) ([]model.SeatRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.occupied(flightID), nil
}

func (m memOrders) ListByEmail(_ context.Context, email string, ct model.CustomerType) ([]model.OrderView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.OrderView{}
	for _, o := range m.orders {
		if o.CustomerEmail != email || (ct != "" && o.CustomerType != ct) {
			continue
		}
		f := m.flights[o.FlightID]
		out = append(out, model.OrderView{Order: o, Departure: f.Departure, Arrival: f.Arrival()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memOrders) FindForGuest(_ context.Context, id int64, email string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.CustomerEmail != email || o.CustomerType != model.CustomerGuest {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

// memAirplanes implements AirplaneStore.
type memAirplanes struct{ *memStore }

func (m memAirplanes) Create(_ context.Context, a model.Airplane) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.airplanes[a.ID]; ok {
		return repository.ErrDuplicate
	}
	m.airplanes[a.ID] = a
	return nil
}

func (m memAirplanes) Get(_ context.Context, id string) (model.Airplane, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.airplanes[id]
	if !ok {
		return model.Airplane{}, repository.ErrNotFound
	}
	return a, nil
}

func (m memAirplanes) List(context.Context) ([]model.Airplane, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Airplane, 0, len(m.airplanes))
	for _, a := range m.airplanes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memAirplanes) Layouts(_ context.Context, id string) ([]model.CabinLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.airplanes[id].Layouts, nil
}

// memCrew implements CrewStore.
type memCrew struct{ *memStore }

func (m memCrew) Create(_ context.Context, c model.CrewMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.crew[c.ID]; ok {
		return repository.ErrDuplicate
	}
	m.crew[c.ID] = c
	return nil
}

func (m memCrew) List(_ context.Context, role string) ([]model.CrewMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.CrewMember{}
	for _, c := range m.crew {
		if role == "" || c.Role == role {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memCrew) GetMany(_ context.Context, ids []int64) (map[int64]model.CrewMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]model.CrewMember{}
	for _, id := range ids {
		if c, ok := m.crew[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (m memCrew) History(_ context.Context, role string) (map[int64][]model.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64][]model.Interval{}
	for flightID, ids := range m.assignments {
		f := m.flights[flightID]
		for _, id := range ids {
			if m.crew[id].Role == role {
				out[id] = append(out[id], intervals(f)...)
			}
		}
	}
	return out, nil
}

// memRoutes implements RouteStore.
type memRoutes struct{ *memStore }

func (m memRoutes) Create(_ context.Context, r model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{r.Origin, r.Destination}
	if _, ok := m.routes[key]; ok {
		return repository.ErrDuplicate
	}
	m.routes[key] = r
	return nil
}

func (m memRoutes) Get(_ context.Context, origin, destination string) (model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[[2]string{origin, destination}]
	if !ok {
		return model.Route{}, repository.ErrNotFound
	}
	return r, nil
}

func (m memRoutes) List(context.Context) ([]model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Route{}
	for _, r := range m.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Origin != out[j].Origin {
			return out[i].Origin < out[j].Origin
		}
		return out[i].Destination < out[j].Destination
	})
	return out, nil
}

func (m memRoutes) Origins(ctx context.Context) ([]string, error) {
	routes, _ := m.List(ctx)
	out := []string{}
	for _, r := range routes {
		if len(out) == 0 || out[len(out)-1] != r.Origin {
			out = append(out, r.Origin)
		}
	}
	return out, nil
}

func (m memRoutes) DestinationsFrom(ctx context.Context, origin string) ([]string, error) {
	routes, _ := m.List(ctx)
	out := []string{}
	for _, r := range routes {
		if r.Origin == origin {
			out = append(out, r.Destination)
		}
	}
	return out, nil
}

// memCustomers implements CustomerStore and ManagerStore.
type memCustomers struct{ *memStore }

func (m memCustomers) GetRegistered(_ context.Context, email string) (model.RegisteredUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.registered[email]
	if !ok {
		return model.RegisteredUser{}, repository.ErrNotFound
	}
	return u, nil
}

func (m memCustomers) Get(_ context.Context, id int64) (model.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mg, ok := m.managers[id]
	if !ok {
		return model.Manager{}, repository.ErrNotFound
	}
	return mg, nil
}

// recorder is an EventPublisher that keeps what it was given.
type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
