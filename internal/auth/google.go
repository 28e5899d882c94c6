package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/apperror"
	"github.com/sidrstudio/atlas/internal/database/models"
	"github.com/sidrstudio/atlas/pkg/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo?alt=json"

var googleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GoogleAuthenticator drives the OAuth code flow. OAuth sign-ins skip the
// OTP step (the provider already verified the mailbox) and get a 90-day
// session directly.
type GoogleAuthenticator struct {
	service     *Service
	oauth       *oauth2.Config
	state       *StateSigner
	userInfoURL string
}

func NewGoogleAuthenticator(service *Service, cfg *config.GoogleConfig, state *StateSigner) *GoogleAuthenticator {
	return &GoogleAuthenticator{
		service: service,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       googleScopes,
			Endpoint:     google.Endpoint,
		},
		state:       state,
		userInfoURL: googleUserInfoURL,
	}
}

// AuthURL returns the provider authorization URL with a signed state
// parameter.
func (g *GoogleAuthenticator) AuthURL() (string, error) {
	state, err := g.state.Sign()
	if err != nil {
		return "", apperror.From(err)
	}
	return g.oauth.AuthCodeURL(state), nil
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Callback exchanges the authorization code, matches or provisions the
// user by auth method, and issues a session token.
func (g *GoogleAuthenticator) Callback(ctx context.Context, code, state string) (string, error) {
	if code == "" {
		return "", apperror.BadRequest("Login failed", "Authorization code is missing")
	}
	if err := g.state.Verify(state); err != nil {
		return "", apperror.Unauthorized("Login failed", "OAuth state is invalid")
	}

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", apperror.Unauthorized("Login failed", "Authorization code exchange failed")
	}

	info, err := g.fetchUserInfo(ctx, token)
	if err != nil {
		return "", apperror.From(err)
	}

	userID, err := g.resolveUser(ctx, info)
	if err != nil {
		return "", err
	}

	sessionToken := g.service.codec.NewToken()
	err = g.service.db.WithContext(ctx).Create(&models.Session{
		SessionToken: sessionToken,
		UserID:       userID,
		ExpiresAt:    time.Now().Add(oauthSessionTTL),
	}).Error
	if err != nil {
		return "", apperror.From(err)
	}

	return sessionToken, nil
}

func (g *GoogleAuthenticator) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := g.oauth.Client(ctx, token)

	resp, err := client.Get(g.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	return &info, nil
}

// resolveUser reuses the user attached to the provider id, or provisions a
// new one with the same side effects as sign-up, minus the OTP challenge.
func (g *GoogleAuthenticator) resolveUser(ctx context.Context, info *googleUserInfo) (userID uuid.UUID, err error) {
	db := g.service.db.WithContext(ctx)

	var method models.AuthMethod
	findErr := db.Where("provider = ? AND provider_id = ?", models.ProviderGoogle, info.ID).
		First(&method).Error
	if findErr == nil {
		return method.UserID, nil
	}
	if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return userID, apperror.From(findErr)
	}

	defaultOrg, err := g.service.defaultOrganization(ctx)
	if err != nil {
		return userID, err
	}

	user := models.User{
		Email:           info.Email,
		Name:            info.Name,
		Image:           optional(info.Picture),
		IsEmailVerified: true,
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.AuthMethod{
			UserID:     user.ID,
			Provider:   models.ProviderGoogle,
			ProviderID: info.ID,
		}).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.UserToOrganization{
			UserID:         user.ID,
			OrganizationID: defaultOrg.ID,
		}).Error; err != nil {
			return err
		}

		return grantSignUpRoles(tx, user.ID, defaultOrg.ID)
	})
	if txErr != nil {
		return userID, apperror.From(txErr)
	}

	return user.ID, nil
}
