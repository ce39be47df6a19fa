package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"identity/internal/domain"
)

// FacebookVerifier resolves a user access token through the Graph API.
type FacebookVerifier struct {
	graphURL string
	client   *http.Client
}

func NewFacebookVerifier(graphURL string, client *http.Client) *FacebookVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FacebookVerifier{graphURL: graphURL, client: client}
}

type graphMe struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (v *FacebookVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	q := url.Values{}
	q.Set("fields", "id,name,email")
	q.Set("access_token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.graphURL+"/me?"+q.Encode(), nil)
	if err != nil {
		return nil, &Error{Provider: domain.LoginMethodFacebook, Code: "request_build", Err: err}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, &Error{Provider: domain.LoginMethodFacebook, Code: "unreachable", Err: err}
	}
	defer resp.Body.Close()

	var me graphMe
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, &Error{Provider: domain.LoginMethodFacebook, Code: "bad_response", Err: err}
	}
	if me.Error != nil {
		return nil, &Error{
			Provider: domain.LoginMethodFacebook,
			Code:     strconv.Itoa(me.Error.Code),
			Err:      fmt.Errorf("%s: %s", me.Error.Type, me.Error.Message),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Provider: domain.LoginMethodFacebook, Code: "http_" + strconv.Itoa(resp.StatusCode)}
	}

	return &Identity{Email: me.Email, Name: me.Name}, nil
}
