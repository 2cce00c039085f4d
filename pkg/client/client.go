// pkg/client/client.go

// Package client is a thin HTTP client for the registry service, used by the
// integration tests and by sibling tooling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"rejestr/internal/archive"
	"rejestr/internal/circles"
	"rejestr/internal/registry"
)

type Client struct {
	baseURL    string
	email      string
	httpClient *http.Client
}

// New builds a client acting as the given organization email. The role is
// derived server-side from the email's local part.
func New(baseURL, email string) *Client {
	return &Client{baseURL: baseURL, email: email, httpClient: http.DefaultClient}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-Email", c.email)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Message: string(bytes.TrimSpace(msg))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// StatusError carries a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.Code, e.Message)
}

func (c *Client) RegisterMember(ctx context.Context, fields map[string]any) (*registry.Member, error) {
	var member registry.Member
	if err := c.do(ctx, http.MethodPost, "/members", fields, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Client) GetMember(ctx context.Context, id uuid.UUID) (*registry.Member, error) {
	var member registry.Member
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/members/%s", id), nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Client) ListMembers(ctx context.Context) ([]registry.Member, error) {
	var members []registry.Member
	if err := c.do(ctx, http.MethodGet, "/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) UpdateMember(ctx context.Context, id uuid.UUID, patch map[string]any) (*registry.Member, error) {
	var member registry.Member
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/members/%s", id), patch, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Client) BanMember(ctx context.Context, id uuid.UUID, reason string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/members/%s/ban", id),
		map[string]string{"reason": reason}, nil)
}

func (c *Client) DeleteMember(ctx context.Context, id uuid.UUID, reason string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/members/%s", id),
		map[string]string{"reason": reason}, nil)
}

func (c *Client) RestoreMember(ctx context.Context, id uuid.UUID) (*registry.Member, error) {
	var member registry.Member
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/members/%s/restore", id), nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Client) ListArchive(ctx context.Context, kind archive.Kind) ([]archive.Record, error) {
	var records []archive.Record
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/archive/%s", kind), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) PurgeArchived(ctx context.Context, kind archive.Kind, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/archive/%s/%s", kind, id), nil, nil)
}

func (c *Client) CreateCircle(ctx context.Context, name, region string) (*circles.Circle, error) {
	var circle circles.Circle
	err := c.do(ctx, http.MethodPost, "/circles",
		map[string]string{"name": name, "region": region}, &circle)
	if err != nil {
		return nil, err
	}
	return &circle, nil
}

func (c *Client) ListCircles(ctx context.Context) ([]circles.Circle, error) {
	var out []circles.Circle
	if err := c.do(ctx, http.MethodGet, "/circles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Recalculate(ctx context.Context) (int, error) {
	var out map[string]int
	if err := c.do(ctx, http.MethodPost, "/recalculate", nil, &out); err != nil {
		return 0, err
	}
	return out["members_updated"], nil
}

func (c *Client) AuthorizeDocument(ctx context.Context, filename string) error {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/documents/%s", filename), nil, nil)
}
