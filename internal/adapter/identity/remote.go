package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"todoapi/internal/core/domain"
)

// RemoteProvider talks to the admin API of a hosted identity service.
type RemoteProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewRemoteProvider(baseURL, apiKey string, timeout time.Duration) *RemoteProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &RemoteProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type remoteAccount struct {
	UID           string  `json:"uid"`
	Email         string  `json:"email"`
	DisplayName   string  `json:"displayName"`
	PhotoURL      *string `json:"photoURL"`
	EmailVerified bool    `json:"emailVerified"`
	Disabled      bool    `json:"disabled"`
}

type remoteError struct {
	Message string `json:"message"`
}

func (p *RemoteProvider) CreateAccount(ctx context.Context, input domain.NewAccount) (*domain.Account, error) {
	body := map[string]any{
		"email":       input.Email,
		"password":    input.Password,
		"displayName": input.DisplayName,
	}

	var created remoteAccount

	if err := p.do(ctx, http.MethodPost, "/accounts", body, &created); err != nil {
		return nil, err
	}

	return &domain.Account{
		UID:           created.UID,
		Email:         created.Email,
		DisplayName:   created.DisplayName,
		PhotoURL:      created.PhotoURL,
		EmailVerified: created.EmailVerified,
		Disabled:      created.Disabled,
	}, nil
}

func (p *RemoteProvider) UpdateAccount(ctx context.Context, uid string, changes domain.AccountChanges) error {
	body := map[string]any{}

	if changes.DisplayName.Present {
		body["displayName"] = changes.DisplayName
	}

	if changes.PhotoURL.Present {
		body["photoURL"] = changes.PhotoURL
	}

	return p.do(ctx, http.MethodPatch, "/accounts/"+url.PathEscape(uid), body, nil)
}

func (p *RemoteProvider) DeleteAccount(ctx context.Context, uid string) error {
	return p.do(ctx, http.MethodDelete, "/accounts/"+url.PathEscape(uid), nil, nil)
}

func (p *RemoteProvider) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)

		if err != nil {
			return domain.NewInternalError("Failed to encode identity request", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)

	if err != nil {
		return domain.NewInternalError("Failed to build identity request", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)

	if err != nil {
		return domain.NewInternalError("Identity provider request failed", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return p.mapStatus(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewInternalError("Failed to decode identity response", err)
	}

	return nil
}

func (p *RemoteProvider) mapStatus(resp *http.Response) error {
	var remote remoteError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&remote)

	switch resp.StatusCode {
	case http.StatusConflict:
		return domain.NewConflictError("Email already registered", nil)
	case http.StatusNotFound:
		return domain.NewNotFoundError("Account")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		message := remote.Message
		if message == "" {
			message = "Identity provider rejected the request"
		}
		return domain.NewValidationError(message, nil)
	}

	return domain.NewInternalError("Identity provider request failed",
		fmt.Errorf("identity provider responded %d: %s", resp.StatusCode, remote.Message))
}
