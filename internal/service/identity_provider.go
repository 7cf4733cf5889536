package service

import (
	"context"
	"fmt"
	"time"

	"virtuefeed/internal/observability"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// IdentityProfile is the provider's view of an account.
type IdentityProfile struct {
	ExternalID string
	Email      string
	Username   string
	FirstName  string
	LastName   string
	ImageURL   string
}

// ProfileFetcher loads an account from the identity provider's admin API.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, externalID string) (*IdentityProfile, error)
}

type providerEmail struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type providerUser struct {
	ID                    string          `json:"id"`
	Username              string          `json:"username"`
	FirstName             string          `json:"first_name"`
	LastName              string          `json:"last_name"`
	ImageURL              string          `json:"image_url"`
	PrimaryEmailAddressID string          `json:"primary_email_address_id"`
	EmailAddresses        []providerEmail `json:"email_addresses"`
}

// primaryEmail prefers the flagged primary address and falls back to the first one.
func (u providerUser) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

// RestProfileFetcher talks to GET {baseURL}/users/{id} with a bearer secret.
type RestProfileFetcher struct {
	client *resty.Client
}

func NewRestProfileFetcher(baseURL, secretKey string) *RestProfileFetcher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetHeader("Accept", "application/json")
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &RestProfileFetcher{client: client}
}

func (f *RestProfileFetcher) FetchProfile(ctx context.Context, externalID string) (*IdentityProfile, error) {
	ctx, span := observability.GetTraceLayer().TraceOutboundCall(ctx, "identity-provider", "get_user")
	defer span.End()

	var user providerUser
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("id", externalID).
		SetResult(&user).
		Get("/users/{id}")
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, fmt.Errorf("fetch identity profile: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch identity profile: provider responded %s", resp.Status())
	}

	return &IdentityProfile{
		ExternalID: user.ID,
		Email:      user.primaryEmail(),
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		ImageURL:   user.ImageURL,
	}, nil
}

// ProfileFromPayload decodes a provider user object, the `data` field of a webhook event.
func ProfileFromPayload(data []byte) (*IdentityProfile, error) {
	var user providerUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode identity profile: %w", err)
	}
	return &IdentityProfile{
		ExternalID: user.ID,
		Email:      user.primaryEmail(),
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		ImageURL:   user.ImageURL,
	}, nil
}
