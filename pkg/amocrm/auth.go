package amocrm

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
)

// Credentials identifies the amoCRM integration making API calls.
type Credentials struct {
	AccountDomain string // e.g. https://example.amocrm.ru
	ClientID      string
	ClientSecret  string
	RedirectURI   string
}

// tokenFile is the persisted token state. expires_at is absolute epoch
// seconds, already shifted 60s early so a token is refreshed before the
// server actually rejects it.
type tokenFile struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	TokenType    string `json:"token_type"`
}

// refreshResponse is the OAuth2 token endpoint's answer.
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// FileTokenSource is an oauth2.TokenSource backed by a JSON token file.
// amoCRM rotates the refresh token on every grant, so each refresh is
// persisted immediately; losing the file means redoing the
// authorization-code exchange by hand.
type FileTokenSource struct {
	mu    sync.Mutex
	creds Credentials
	path  string
	httpc *http.Client
	now   func() time.Time

	cached *tokenFile
}

// NewFileTokenSource builds a token source reading and writing the given
// token file.
func NewFileTokenSource(creds Credentials, path string) *FileTokenSource {
	return &FileTokenSource{
		creds: creds,
		path:  path,
		httpc: &http.Client{Timeout: 30 * time.Second},
		now:   time.Now,
	}
}

// Token returns a valid access token, refreshing and persisting it via
// the refresh_token grant when the stored one has expired. Implements
// oauth2.TokenSource.
func (s *FileTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		tok, err := s.load()
		if err != nil {
			return nil, err
		}
		s.cached = tok
	}

	if s.now().Unix() < s.cached.ExpiresAt {
		return s.oauth2Token(), nil
	}

	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s.oauth2Token(), nil
}

func (s *FileTokenSource) oauth2Token() *oauth2.Token {
	tokenType := s.cached.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken:  s.cached.AccessToken,
		RefreshToken: s.cached.RefreshToken,
		TokenType:    tokenType,
		Expiry:       time.Unix(s.cached.ExpiresAt, 0),
	}
}

func (s *FileTokenSource) load() (*tokenFile, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "amocrm: read token file %s (run the oauth exchange first)", s.path)
	}
	var tok tokenFile
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, eris.Wrapf(err, "amocrm: parse token file %s", s.path)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" || tok.ExpiresAt == 0 {
		return nil, eris.Errorf("amocrm: token file %s is incomplete, redo the oauth exchange", s.path)
	}
	return &tok, nil
}

func (s *FileTokenSource) refresh() error {
	payload, err := json.Marshal(map[string]string{
		"client_id":     s.creds.ClientID,
		"client_secret": s.creds.ClientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": s.cached.RefreshToken,
		"redirect_uri":  s.creds.RedirectURI,
	})
	if err != nil {
		return eris.Wrap(err, "amocrm: marshal refresh payload")
	}

	url := s.creds.AccountDomain + "/oauth2/access_token"
	resp, err := s.httpc.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return eris.Wrapf(err, "amocrm: refresh token POST %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "amocrm: read refresh response")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("amocrm: refresh token HTTP %d: %s", resp.StatusCode, truncate(body, 512))
	}

	var rr refreshResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return eris.Wrap(err, "amocrm: parse refresh response")
	}
	if rr.AccessToken == "" || rr.RefreshToken == "" || rr.ExpiresIn == 0 {
		return eris.Errorf("amocrm: refresh response missing tokens: %s", truncate(body, 512))
	}

	tokenType := rr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	s.cached = &tokenFile{
		AccessToken:  rr.AccessToken,
		RefreshToken: rr.RefreshToken,
		ExpiresAt:    s.now().Unix() + rr.ExpiresIn - 60,
		TokenType:    tokenType,
	}
	return s.save()
}

func (s *FileTokenSource) save() error {
	raw, err := json.MarshalIndent(s.cached, "", "  ")
	if err != nil {
		return eris.Wrap(err, "amocrm: marshal token file")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return eris.Wrapf(err, "amocrm: create token dir for %s", s.path)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return eris.Wrapf(err, "amocrm: write token file %s", s.path)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
