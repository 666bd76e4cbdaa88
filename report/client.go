package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calvinmclean/babyapi"
	"github.com/calvinmclean/twchart"
)

// Client records dose sessions on a TWChart server
type Client struct {
	client    *babyapi.Client[*session]
	sessionID string
}

type session struct {
	// include NilResource so we don't implement Render/Bind which are not needed
	*babyapi.NilResource
	twchart.Session
}

func (s session) GetID() string {
	return s.Session.GetID()
}

var _ sessionClient = &Client{}

func NewClient(addr string) *Client {
	client := babyapi.NewClient[*session](addr, "/sessions")
	return &Client{client: client}
}

// CreateSession starts a new TWChart session and remembers its ID for the other calls
func (c *Client) CreateSession(ctx context.Context, name string) (string, error) {
	resp, err := c.client.Post(ctx, &session{
		Session: twchart.Session{
			Name: name,
			Date: time.Now(),
		},
	})
	if err != nil {
		return "", err
	}

	c.sessionID = resp.Data.GetID()

	return c.sessionID, nil
}

func (c *Client) SetStartTime(ctx context.Context, startTime time.Time) error {
	_, err := c.client.Patch(ctx, c.sessionID, &session{Session: twchart.Session{
		StartTime: startTime,
	}})
	return err
}

func (c *Client) AddEvent(ctx context.Context, note string, now time.Time) error {
	e := twchart.Event{Note: note, Time: now}

	url, err := c.client.URL(c.sessionID)
	if err != nil {
		return fmt.Errorf("error building url: %w", err)
	}

	return c.makeRequest(ctx, url+"/add-event", e)
}

func (c *Client) AddStage(ctx context.Context, name string, now time.Time) error {
	s := twchart.Stage{Name: name, Start: now}

	url, err := c.client.URL(c.sessionID)
	if err != nil {
		return fmt.Errorf("error building url: %w", err)
	}

	return c.makeRequest(ctx, url+"/add-stage", s)
}

func (c *Client) Done(ctx context.Context, now time.Time) error {
	url, err := c.client.URL(c.sessionID)
	if err != nil {
		return fmt.Errorf("error building url: %w", err)
	}

	return c.makeRequest(ctx, url+"/done", map[string]any{"time": now})
}

func (c *Client) makeRequest(ctx context.Context, url string, body any) error {
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding body: %w", err)
		}

		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := c.client.MakeGenericRequest(req, nil)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	if resp.Response.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status code: %d, response: %v", resp.Response.StatusCode, resp.Body)
	}

	return nil
}
