package trkweb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bernerdschaefer/eventsource"

	"github.com/objtrack/trk"
)

// HTTPClient models a concrete http.Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to a remote instance of the server defined in this package.
type Client struct {
	client  HTTPClient
	baseurl string

	// RetryInterval is the reconnect interval for Stream. Default 1s.
	RetryInterval time.Duration
}

// NewClient returns a client calling the provided URL, which is assumed to
// be served by a [Server].
func NewClient(client HTTPClient, baseurl string) *Client {
	if !strings.HasPrefix(baseurl, "http") {
		baseurl = "http://" + baseurl
	}
	return &Client{
		client:        client,
		baseurl:       baseurl,
		RetryInterval: time.Second,
	}
}

// Sweep fetches a fresh sweep from the remote instance.
func (c *Client) Sweep(ctx context.Context) (trk.SweepData, error) {
	var data trk.SweepData
	if err := c.getJSON(ctx, c.baseurl, &data); err != nil {
		return trk.SweepData{}, err
	}
	return data, nil
}

// History fetches up to n recent sweeps, newest first. n <= 0 means all the
// remote instance retains.
func (c *Client) History(ctx context.Context, n int) ([]trk.SweepData, error) {
	uri := c.baseurl + "/history"
	if n > 0 {
		uri += "?n=" + strconv.Itoa(n)
	}
	var data []trk.SweepData
	if err := c.getJSON(ctx, uri, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, uri string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("make HTTP request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute HTTP request: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// Stream delivers every sweep the remote instance publishes to the channel,
// until the context is canceled or a non-recoverable error occurs.
func (c *Client) Stream(ctx context.Context, ch chan<- trk.SweepData) error {
	// The request is deliberately not bound to the context: EventSource
	// re-uses it across reconnect attempts, and treats context cancelation
	// as recoverable. Cancelation is handled by closing the source instead.
	uri, err := url.Parse(c.baseurl + "/stream")
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, uri.String(), nil)
	if err != nil {
		return fmt.Errorf("make HTTP request: %w", err)
	}

	es := eventsource.New(req, c.RetryInterval)
	go func() {
		<-ctx.Done()
		es.Close()
	}()

	for {
		ev, err := es.Read()
		if errors.Is(err, eventsource.ErrClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read server-sent event: %w", err)
		}

		if ev.Type != "sweep" {
			continue
		}

		var sw trk.SweepData
		if err := json.Unmarshal(ev.Data, &sw); err != nil {
			return fmt.Errorf("decode sweep event: %w", err)
		}

		select {
		case ch <- sw:
		case <-ctx.Done():
			return nil
		}
	}
}
