package auth

import (
	"context"
	"fmt"
	"strconv"

	"sociallogin/internal/model"

	"github.com/markbates/goth"
	"golang.org/x/oauth2/endpoints"
)

const defaultKakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

// Kakao signs users in with Kakao Login.
type Kakao struct {
	client *oauthClient
}

func NewKakao(cfg ProviderConfig) *Kakao {
	return &Kakao{client: newOAuthClient(model.ProviderKakao, cfg, endpoints.KaKao, defaultKakaoUserInfoURL)}
}

type kakaoUser struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname string `json:"nickname"`
		} `json:"profile"`
	} `json:"kakao_account"`
	Properties struct {
		Nickname string `json:"nickname"`
	} `json:"properties"`
}

func (k *Kakao) Name() string {
	return model.ProviderKakao
}

func (k *Kakao) AuthURL() string {
	return k.client.authURL()
}

func (k *Kakao) CompleteUserAuth(ctx context.Context, code string) (goth.User, error) {
	token, err := k.client.exchange(ctx, code)
	if err != nil {
		return goth.User{}, err
	}

	var info kakaoUser
	if err := k.client.getJSON(ctx, token, &info); err != nil {
		return goth.User{}, err
	}
	if info.ID == 0 {
		return goth.User{}, fmt.Errorf("kakao user info: %w: missing id", ErrProviderUnavailable)
	}

	socialID := strconv.FormatInt(info.ID, 10)

	name := info.KakaoAccount.Profile.Nickname
	if name == "" {
		name = info.Properties.Nickname
	}
	if name == "" {
		name = "No Name"
	}

	email := info.KakaoAccount.Email
	if email == "" {
		email = KakaoPlaceholderEmail(socialID)
	}

	return goth.User{
		Provider:    model.ProviderKakao,
		UserID:      socialID,
		Name:        name,
		NickName:    name,
		Email:       email,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
	}, nil
}

// KakaoPlaceholderEmail is the address recorded for Kakao accounts that do
// not share an email, so that every user has a non-empty one.
func KakaoPlaceholderEmail(socialID string) string {
	return "kakao_" + socialID + "@kakao.com"
}

var _ Authenticator = (*Kakao)(nil)
