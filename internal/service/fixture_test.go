package service

import (
	"math/rand/v2"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/flight-reservation/internal/model"
)

var testNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memStore
	events    *recorder
	booking   *BookingService
	cancel    *CancellationService
	flights   *FlightService
	catalog   *CatalogService
	customers *CustomerService
	fleet     *FleetService
}

// newFixture wires every service to one in-memory store and a frozen clock.
// It seeds a small airplane SM-1 (Economy 2x2) and a large airplane LG-1
// (Business 1x2, Economy 2x3).
func newFixture() *fixture {
	st := newMemStore()
	ev := &recorder{}
	clock := func() time.Time { return testNow }

	fx := &fixture{store: st, events: ev}
	fx.booking = NewBookingService(st, ev)
	fx.booking.now = clock
	fx.cancel = NewCancellationService(st, ev)
	fx.cancel.now = clock
	fx.flights = NewFlightService(st, memFlights{st}, memAirplanes{st}, memCrew{st}, memRoutes{st}, NewCodeGenerator(rand.NewPCG(7, 11)))
	fx.flights.now = clock
	fx.catalog = NewCatalogService(memFlights{st}, memOrders{st}, memAirplanes{st}, memRoutes{st}, []PopularCandidate{
		{Code: "ATH", Name: "Athens"},
		{Code: "JFK", Name: "New York"},
		{Code: "LHR", Name: "London"},
		{Code: "CDG", Name: "Paris"},
	})
	fx.catalog.now = clock
	fx.customers = NewCustomerService(st, memCustomers{st}, memCustomers{st}, bcrypt.MinCost)
	fx.customers.now = clock
	fx.fleet = NewFleetService(memAirplanes{st}, memCrew{st}, memRoutes{st})

	st.airplanes["SM-1"] = model.Airplane{ID: "SM-1", Size: model.SizeSmall, Manufacturer: "Embraer",
		PurchaseDate: time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC),
		Layouts:      []model.CabinLayout{{AirplaneID: "SM-1", Class: model.Economy, Rows: 2, Cols: 2}}}
	st.airplanes["LG-1"] = model.Airplane{ID: "LG-1", Size: model.SizeLarge, Manufacturer: "Boeing",
		PurchaseDate: time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC),
		Layouts: []model.CabinLayout{
			{AirplaneID: "LG-1", Class: model.Business, Rows: 1, Cols: 2},
			{AirplaneID: "LG-1", Class: model.Economy, Rows: 2, Cols: 3},
		}}
	return fx
}

// addFlight stores a TLV to ATH flight of two hours.
func (fx *fixture) addFlight(id, airplaneID string, departure time.Time, offerings ...model.FlightClassOffering) model.Flight {
	f := model.Flight{
		ID: id, AirplaneID: airplaneID, Origin: "TLV", Destination: "ATH",
		Departure: departure, DurationMinutes: 120, Offerings: offerings,
	}
	fx.store.flights[id] = f
	return f
}

func eco(price float64) model.FlightClassOffering {
	return model.FlightClassOffering{Class: model.Economy, Price: price, Status: model.FlightActive}
}

func bus(price float64) model.FlightClassOffering {
	return model.FlightClassOffering{Class: model.Business, Price: price, Status: model.FlightActive}
}

func (fx *fixture) classStatus(flightID string, c model.ClassType) model.FlightStatus {
	o, _ := fx.store.flights[flightID].Offering(c)
	return o.Status
}

func (fx *fixture) addCrew(id int64, role string, qualified bool) {
	fx.store.crew[id] = model.CrewMember{
		Employee: model.Employee{ID: id, FirstName: "Crew", LastName: role, StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		Role:     role, Qualified: qualified,
	}
}
