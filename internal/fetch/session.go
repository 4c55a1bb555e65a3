// Package fetch is the network boundary. It downloads replay documents and
// table pages for the offline engine to consume; nothing in here is ever
// called from pkg/parser.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	baseURL   = "https://boardgamearena.com"
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

var requestTokenRe = regexp.MustCompile(`requestToken['"]?\s*[:=]\s*['"]([^'"]+)['"]`)

// Session is an authenticated client for the game archive. All requests
// share one cookie jar and are paced by a fixed delay, so a single Session
// never hammers the site no matter how many tables it is asked for.
type Session struct {
	client       *http.Client
	logger       *slog.Logger
	base         string
	requestDelay time.Duration
	requestToken string
	lastRequest  time.Time
}

// NewSession creates an unauthenticated session. Call Login before fetching.
func NewSession(requestDelay time.Duration, logger *slog.Logger) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: 60 * time.Second,
		},
		logger:       logger,
		base:         baseURL,
		requestDelay: requestDelay,
	}, nil
}

// Login authenticates against the archive and captures the request token
// embedded in the account page.
func (s *Session) Login(ctx context.Context, email, password string) error {
	page, err := s.get(ctx, s.base+"/account")
	if err != nil {
		return fmt.Errorf("failed to load login page: %w", err)
	}
	m := requestTokenRe.FindStringSubmatch(string(page))
	if m == nil {
		return fmt.Errorf("request token not found on login page")
	}
	s.requestToken = m[1]

	form := url.Values{
		"email":         {email},
		"password":      {password},
		"rememberme":    {"on"},
		"request_token": {s.requestToken},
	}
	body, err := s.postForm(ctx, s.base+"/account/account/login.html", form)
	if err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}
	if !strings.Contains(string(body), `"status":1`) {
		return fmt.Errorf("login rejected")
	}

	s.logger.Info("Logged in to game archive")
	return nil
}

// FetchReplay downloads the archived replay document for a table as seen
// from one player's perspective.
func (s *Session) FetchReplay(ctx context.Context, version, tableID, perspective string) ([]byte, error) {
	u := fmt.Sprintf("%s/archive/replay/%s/?table=%s&player=%s&comments=%s",
		s.base, version, tableID, perspective, perspective)
	body, err := s.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch replay for table %s: %w", tableID, err)
	}
	if !strings.Contains(string(body), "replaylogs") {
		return nil, fmt.Errorf("replay for table %s has no log section, archive may be unavailable", tableID)
	}
	return body, nil
}

// FetchTable downloads the table result page, which carries the ELO data.
func (s *Session) FetchTable(ctx context.Context, tableID string) ([]byte, error) {
	body, err := s.get(ctx, fmt.Sprintf("%s/table?table=%s", s.base, tableID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch table page %s: %w", tableID, err)
	}
	return body, nil
}

// FetchGameHistory downloads one page of a player's finished-games history.
func (s *Session) FetchGameHistory(ctx context.Context, playerID string, page int) ([]byte, error) {
	u := fmt.Sprintf("%s/gamestats?player=%s&opponent_id=0&finished=1&page=%d", s.base, playerID, page)
	body, err := s.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game history for player %s: %w", playerID, err)
	}
	return body, nil
}

// pace sleeps out the remainder of the request delay since the last request.
func (s *Session) pace(ctx context.Context) error {
	wait := s.requestDelay - time.Since(s.lastRequest)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (s *Session) get(ctx context.Context, u string) ([]byte, error) {
	if err := s.pace(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return s.do(req)
}

func (s *Session) postForm(ctx context.Context, u string, form url.Values) ([]byte, error) {
	if err := s.pace(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *Session) do(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	s.lastRequest = time.Now()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
