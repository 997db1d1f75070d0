package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"furgon/pkg/platform/sentinel"
)

// signInEndpoint is the Identity Toolkit password sign-in REST endpoint. The
// Admin SDK cannot verify passwords, so Authenticate goes through the same
// API the original web client used.
const signInEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// FirebaseProvider implements Provider on Firebase Authentication: account
// management through the Admin SDK, password verification through the
// Identity Toolkit REST API.
type FirebaseProvider struct {
	client *auth.Client
	apiKey string
	http   *http.Client
}

type FirebaseConfig struct {
	ProjectID string
	// APIKey is the web API key used by the password sign-in endpoint.
	APIKey string
	// CredentialsFile is optional; empty means application default
	// credentials.
	CredentialsFile string
}

func NewFirebaseProvider(ctx context.Context, cfg FirebaseConfig) (*FirebaseProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &FirebaseProvider{client: client, apiKey: cfg.APIKey, http: http.DefaultClient}, nil
}

func (p *FirebaseProvider) Authenticate(ctx context.Context, email, secret string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          secret,
		"returnSecureToken": false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal sign-in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signInEndpoint+"?key="+p.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign-in request: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var out struct {
			LocalID string `json:"localId"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode sign-in response: %w", err)
		}
		return out.LocalID, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Wrong password, unknown email and disabled account all land here;
		// callers get one undifferentiated rejection.
		return "", ErrBadCredentials
	default:
		return "", fmt.Errorf("sign-in status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
}

func (p *FirebaseProvider) CreateAccount(ctx context.Context, email, secret string) (string, error) {
	user, err := p.client.CreateUser(ctx, (&auth.UserToCreate{}).Email(email).Password(secret))
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", sentinel.ErrConflict
		}
		return "", fmt.Errorf("create account: %w", err)
	}
	return user.UID, nil
}

func (p *FirebaseProvider) SetSecret(ctx context.Context, accountID, newSecret string) error {
	_, err := p.client.UpdateUser(ctx, accountID, (&auth.UserToUpdate{}).Password(newSecret))
	if err != nil {
		if auth.IsUserNotFound(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("set secret: %w", err)
	}
	return nil
}

func (p *FirebaseProvider) DeleteAccount(ctx context.Context, accountID string) error {
	if err := p.client.DeleteUser(ctx, accountID); err != nil {
		if auth.IsUserNotFound(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
