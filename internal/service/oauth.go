package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/oauth2/facebook"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/internal/store"
)

const (
	googleProfileURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
	facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email"
	oauthTimeout       = 10 * time.Second
)

// OAuthProvider is a social login provider.
type OAuthProvider struct {
	Name       model.AuthProvider
	Config     *oauth2.Config
	ProfileURL string
}

// profile is the subset of the provider's user info response we use.
// Google answers with sub, Facebook with id.
type profile struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p profile) subject() string {
	if p.Sub != "" {
		return p.Sub
	}
	return p.ID
}

func callbackURL(redirectBase string, name model.AuthProvider) string {
	return strings.TrimRight(redirectBase, "/") + "/api/auth/oauth/" + string(name) + "/callback"
}

// GoogleProvider configures Google sign-in.
func GoogleProvider(clientID, clientSecret, redirectBase string) *OAuthProvider {
	return &OAuthProvider{
		Name: model.ProviderGoogle,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoints.Google,
			RedirectURL:  callbackURL(redirectBase, model.ProviderGoogle),
			Scopes:       []string{"openid", "email", "profile"},
		},
		ProfileURL: googleProfileURL,
	}
}

// FacebookProvider configures Facebook sign-in.
func FacebookProvider(clientID, clientSecret, redirectBase string) *OAuthProvider {
	return &OAuthProvider{
		Name: model.ProviderFacebook,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     facebook.Endpoint,
			RedirectURL:  callbackURL(redirectBase, model.ProviderFacebook),
			Scopes:       []string{"email", "public_profile"},
		},
		ProfileURL: facebookProfileURL,
	}
}

// RegisterOAuth enables a social login provider.
func (s *AuthService) RegisterOAuth(p *OAuthProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.Name] = p
}

func (s *AuthService) provider(name string) (*OAuthProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[model.AuthProvider(name)]
	if !ok {
		return nil, apperr.E(apperr.KindNotFoundOrForbidden, "unknown sign-in provider")
	}
	return p, nil
}

// OAuthURL returns the provider consent page URL carrying state.
func (s *AuthService) OAuthURL(provider, state string) (string, error) {
	p, err := s.provider(provider)
	if err != nil {
		return "", err
	}
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// OAuthCallback exchanges code for a provider token, reads the profile and
// signs in the matching user, creating it on first login.
func (s *AuthService) OAuthCallback(ctx context.Context, provider, code string) (*model.TokenPair, error) {
	p, err := s.provider(provider)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, apperr.Validation("authorization code is required")
	}

	ctx, cancel := context.WithTimeout(ctx, oauthTimeout)
	defer cancel()

	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, apperr.Wrap(apperr.KindAuth, "authorization code rejected", err)
		}
		return nil, apperr.Wrap(apperr.KindUpstream, "oauth token exchange failed", err)
	}

	prof, err := fetchProfile(ctx, p.Config.Client(ctx, tok), p.ProfileURL)
	if err != nil {
		return nil, err
	}
	if prof.subject() == "" {
		return nil, apperr.E(apperr.KindAuth, "provider returned no account id")
	}

	user, err := s.socialUser(ctx, p.Name, prof)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func fetchProfile(ctx context.Context, client *http.Client, url string) (*profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "profile request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.Wrap(apperr.KindUpstream, "profile request failed",
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}
	var p profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&p); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "decode profile", err)
	}
	return &p, nil
}

// socialUser finds the user linked to the provider account or creates one.
// An email already used by a different sign-in method is a conflict, since a
// social account never carries a password.
func (s *AuthService) socialUser(ctx context.Context, provider model.AuthProvider, prof *profile) (*model.User, error) {
	linked, err := s.users.FindOne(ctx, store.Where(
		store.Eq("authProvider", provider),
		store.Eq("authProviderId", prof.subject()),
	))
	if err == nil {
		if err := s.touch(ctx, &linked); err != nil {
			return nil, err
		}
		return &linked, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find social user: %w", err)
	}

	email, err := normalizeEmail(prof.Email)
	if err != nil {
		return nil, apperr.Validation("the provider did not share a valid email address")
	}
	if _, err := s.users.FindOne(ctx, store.Where(store.Eq("email", email))); err == nil {
		return nil, apperr.E(apperr.KindConflict, "email already registered with another sign-in method")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	name := strings.TrimSpace(prof.Name)
	if name == "" {
		name = email
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	user := model.User{
		ID:             primitive.NewObjectID().Hex(),
		Email:          email,
		Name:           name,
		AuthProvider:   provider,
		AuthProviderID: prof.subject(),
		Role:           model.UserRoleUser,
		LastLogin:      now,
		CreatedAt:      now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("create social user: %w", err)
	}
	s.logger.Info("user created from social login",
		zap.String("user_id", user.ID),
		zap.String("provider", string(provider)),
	)
	return &user, nil
}
