package foreup

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

const TokenHeader = "X-ForeUp-Token"

var (
	ErrInvalidToken   = errors.New("invalid foreup token")
	ErrInvalidPayload = errors.New("invalid foreup payload")
)

const (
	EventBooked    = "teetime.booked"
	EventCancelled = "teetime.cancelled"
)

// Event is an availability change for one ForeUp tee time.
// Delta is positive for bookings and negative for cancellations; zero
// means the event does not touch availability.
type Event struct {
	ID         string
	Type       string
	TeeTimeRef string
	CourseRef  string
	Delta      int
}

type payload struct {
	ID    string `json:"id"`
	Event string `json:"event"`
	Data  struct {
		TeeTimeID string `json:"teetime_id"`
		CourseID  string `json:"course_id"`
		Players   int    `json:"players"`
	} `json:"data"`
}

type Parser struct {
	token []byte
}

func NewParser(token string) *Parser {
	return &Parser{token: []byte(token)}
}

func (p *Parser) Parse(header http.Header, body []byte) (*Event, error) {
	got := []byte(header.Get(TokenHeader))
	if len(p.token) == 0 || subtle.ConstantTimeCompare(got, p.token) != 1 {
		return nil, ErrInvalidToken
	}

	var in payload
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	evt := &Event{ID: in.ID, Type: in.Event, TeeTimeRef: in.Data.TeeTimeID, CourseRef: in.Data.CourseID}

	switch in.Event {
	case EventBooked, EventCancelled:
	default:
		return evt, nil
	}

	if in.Data.TeeTimeID == "" {
		return nil, fmt.Errorf("%w: %s without teetime_id", ErrInvalidPayload, in.Event)
	}
	players := in.Data.Players
	if players <= 0 {
		players = 1
	}
	if in.Event == EventCancelled {
		players = -players
	}
	evt.Delta = players
	return evt, nil
}
