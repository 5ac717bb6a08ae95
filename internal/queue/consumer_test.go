package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-reservation/internal/model"
)

var at = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func TestNewOrderCreatedCarriesOrder(t *testing.T) {
	o := model.Order{ID: 12, FlightID: "AB123", CustomerEmail: "a@b.c", CustomerType: model.CustomerGuest,
		TotalPrice: 500, Status: model.OrderActive}
	ev := NewOrderCreated(o, []string{"1A", "1B"}, at)

	_, err := uuid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderCreated, ev.Type)
	assert.EqualValues(t, 12, ev.OrderID)
	assert.Equal(t, []string{"1A", "1B"}, ev.Seats)
	assert.NotEqual(t, ev.ID, NewOrderCreated(o, nil, at).ID)
}

func TestWriteLine(t *testing.T) {
	var sb strings.Builder
	ev := NewFlightCanceled("AB123", 4, at)
	require.NoError(t, WriteLine(&sb, ev))
	assert.Equal(t, "[2026-10-14T09:30:00Z] flight.canceled | event_id="+ev.ID+" | flight_id=AB123 | orders=4\n", sb.String())

	sb.Reset()
	o := model.Order{ID: 3, FlightID: "AB123", CustomerEmail: "a@b.c", CustomerType: model.CustomerRegistered,
		TotalPrice: 2.5, Status: model.OrderCustomerCancellation}
	require.NoError(t, WriteLine(&sb, NewOrderCanceled(o, []string{"10C"}, at)))
	assert.Contains(t, sb.String(), "order.canceled")
	assert.Contains(t, sb.String(), "total=2.50")
	assert.Contains(t, sb.String(), "seats=[10C]")
}

func TestWriteLineUnknownType(t *testing.T) {
	var sb strings.Builder
	assert.Error(t, WriteLine(&sb, Event{Type: "seat.held"}))
}

func TestHandleAppendsToLog(t *testing.T) {
	c := &Consumer{LogPath: filepath.Join(t.TempDir(), "logs", "events.log")}
	for _, ev := range []Event{NewFlightCanceled("AB123", 1, at), NewFlightCanceled("CD456", 0, at)} {
		body, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, c.handle(body))
	}
	data, err := os.ReadFile(c.LogPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "flight_id=CD456")

	assert.Error(t, c.handle([]byte("{")))
}
