package dcapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Typed outcomes of a mutation, inspected by callers with errors.Is instead
// of unwinding through a generic handler.
var (
	// ErrPermission: the bot lacks Manage Roles or sits below the target role.
	ErrPermission = errors.New("missing permissions")
	// ErrNotFound: the referenced guild, member or role does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownRole: a configured role id resolved to nothing.
	ErrUnknownRole = errors.New("unknown role")
)

// Client is a thin REST client for the platform HTTP API: role mutation,
// member lookup, interaction replies and command registration.
type Client struct {
	http  *http.Client
	base  string
	token string
	appID uint64 // set from the READY payload, needed for followup webhooks

	log *zap.Logger
}

func New(base, token string, log *zap.Logger) *Client {
	return &Client{
		http:  &http.Client{Timeout: 10 * time.Second},
		base:  strings.TrimRight(base, "/"),
		token: token,
		log:   log,
	}
}

// SetApplicationID stores the application id announced by READY. Followups
// and command registration fail until it is set.
func (c *Client) SetApplicationID(id uint64) {
	c.appID = id
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	return req, nil
}

// do runs the request, maps the status code onto the error taxonomy and
// decodes the body into out when asked.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("api",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrPermission)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrNotFound)
	case resp.StatusCode/100 != 2:
		return fmt.Errorf("%s %s: api status %s", req.Method, req.URL.Path, resp.Status)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// doJSON marshals body and runs a request with a JSON payload.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}
