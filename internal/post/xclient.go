package post

import (
	"context"
	"fmt"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/go-resty/resty/v2"

	"github.com/snagasawa/kabupost/internal/config"
	"github.com/snagasawa/kabupost/internal/types"
)

const xAPIBaseURL = "https://api.x.com"

// XClient posts one short text payload at a time to the X v2 API, signed
// with OAuth 1.0a user context.
type XClient struct {
	http *resty.Client
}

func NewXClient(cfg config.XConfig) *XClient {
	return newXClient(cfg, xAPIBaseURL)
}

func newXClient(cfg config.XConfig, baseURL string) *XClient {
	oauthConfig := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)

	httpClient := oauthConfig.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	client := resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetRetryCount(2).
		SetRetryWaitTime(1500 * time.Millisecond).
		SetRetryMaxWaitTime(1500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &XClient{http: client}
}

// Post publishes text and returns the created post id.
func (x *XClient) Post(ctx context.Context, text string) (string, error) {
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	resp, err := x.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		SetResult(&out).
		Post("/2/tweets")
	if err != nil {
		return "", fmt.Errorf("%w: posting to X: %v", types.ErrFetchFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: posting to X: status %d: %s", types.ErrFetchFailed, resp.StatusCode(), resp.String())
	}

	return out.Data.ID, nil
}
