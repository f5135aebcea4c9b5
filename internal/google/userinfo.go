package google

import (
	"context"
	"fmt"

	oauth2api "google.golang.org/api/oauth2/v2"
)

// UserInfo is the profile shown next to the issued tokens.
type UserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// FetchUserInfo looks up the profile of the account that owns accessToken.
func FetchUserInfo(ctx context.Context, cfg Config, accessToken string) (*UserInfo, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	svc, err := oauth2api.NewService(ctx, cfg.ServiceOptions(ctx, accessToken, "")...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	return &UserInfo{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
