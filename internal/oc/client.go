package oc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	"github.com/teemow/ocslots/internal/credentials"
	"github.com/teemow/ocslots/internal/instrumentation"
	"github.com/teemow/ocslots/internal/logging"
)

const (
	// DefaultSiteURL hosts the login endpoints.
	DefaultSiteURL = "https://openclassrooms.com"

	// DefaultAPIURL hosts the REST API.
	DefaultAPIURL = "https://api.openclassrooms.com"

	// TokenLifetime is how long a freshly issued token is cached. The server
	// expires tokens after about an hour.
	TokenLifetime = 3500 * time.Second

	// DefaultLoginDelay is the pause before the credentials are posted.
	DefaultLoginDelay = 200 * time.Millisecond

	// DefaultTimeout bounds every single HTTP request.
	DefaultTimeout = 30 * time.Second

	accessTokenCookie = "access_token"
)

// Config holds the endpoints of the platform.
type Config struct {
	// SiteURL is the base URL of the website serving /login_ajax and /login_check.
	SiteURL string

	// APIURL is the base URL of the REST API.
	APIURL string

	// SaveToken controls whether a freshly obtained token is written to the token store.
	SaveToken bool
}

// DefaultConfig returns the production endpoints with token caching enabled.
func DefaultConfig() Config {
	return Config{
		SiteURL:   DefaultSiteURL,
		APIURL:    DefaultAPIURL,
		SaveToken: true,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithTokenStore sets the cache used for the bearer token.
func WithTokenStore(store credentials.TokenStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithClock replaces time.Now for token expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithLocation sets the zone used for cache expiry dates and parsed timestamps.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		c.loc = loc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithTransport sets the base round tripper of the session.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// WithLoginDelay overrides DefaultLoginDelay.
func WithLoginDelay(d time.Duration) Option {
	return func(c *Client) {
		c.loginDelay = d
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client is an authenticated session against the scheduling API.
type Client struct {
	cfg     Config
	siteURL *url.URL
	apiURL  *url.URL

	jar     http.CookieJar
	base    http.RoundTripper
	session *http.Client

	store      credentials.TokenStore
	now        func() time.Time
	loc        *time.Location
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	loginDelay time.Duration
	timeout    time.Duration

	token   string
	expires time.Time
	userID  string
}

// NewClient creates an unauthenticated Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	siteURL, err := parseBaseURL(cfg.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL: %w", err)
	}
	apiURL, err := parseBaseURL(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		cfg:        cfg,
		siteURL:    siteURL,
		apiURL:     apiURL,
		jar:        jar,
		base:       http.DefaultTransport,
		now:        time.Now,
		loc:        time.Local,
		logger:     slog.Default(),
		loginDelay: DefaultLoginDelay,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = &credentials.MemoryTokenStore{}
	}

	c.session = &http.Client{
		Jar:       c.jar,
		Transport: c.base,
		Timeout:   c.timeout,
	}

	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}

// Authenticated reports whether a bearer token is known and has not passed
// its expiration date.
func (c *Client) Authenticated() bool {
	return c.hasToken() && c.now().Before(c.expires)
}

// Expiration returns when the current token expires, zero before authentication.
func (c *Client) Expiration() time.Time {
	return c.expires
}

func (c *Client) hasToken() bool {
	return c.token != ""
}

// UserID returns the authenticated user id, empty before authentication.
func (c *Client) UserID() string {
	return c.userID
}

// Location returns the zone timestamps are converted to.
func (c *Client) Location() *time.Location {
	return c.loc
}

// Authenticate resolves a bearer token.
//
// Unless force is set, a cached token whose expiration date is still in the
// future is reused without any network call. Otherwise a fresh login is made
// with creds; credentials.ErrNoCredentials is returned when they are
// incomplete. A login the server rejects (no access_token cookie) yields
// false and a nil error.
func (c *Client) Authenticate(ctx context.Context, creds credentials.Credentials, force bool) (bool, error) {
	if !force && c.authenticateFromCache() {
		c.metrics.RecordAuth(ctx, instrumentation.AuthResultCached)
		return true, nil
	}

	if !creds.Complete() {
		return false, credentials.ErrNoCredentials
	}

	ok, err := c.login(ctx, creds)
	if err != nil || !ok {
		c.metrics.RecordAuth(ctx, instrumentation.AuthResultFailure)
		return false, err
	}
	c.metrics.RecordAuth(ctx, instrumentation.AuthResultSuccess)
	return true, nil
}

// ErrLoginRejected is returned by Login when the platform refuses the credentials.
var ErrLoginRejected = errors.New("login rejected")

// Login makes the client authenticated. Unless force is set a valid cached
// token is used first; src is only asked for credentials when a login
// request is actually needed.
func (c *Client) Login(ctx context.Context, src credentials.Source, force bool) error {
	if !force && c.authenticateFromCache() {
		c.metrics.RecordAuth(ctx, instrumentation.AuthResultCached)
		return nil
	}
	if src == nil {
		return credentials.ErrNoCredentials
	}

	creds, err := src.Credentials(ctx)
	if err != nil {
		return err
	}
	ok, err := c.Authenticate(ctx, creds, true)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLoginRejected
	}
	return nil
}

func (c *Client) authenticateFromCache() bool {
	cached, err := c.store.Load()
	if err != nil {
		c.logger.Warn("ignoring unreadable token cache", logging.Err(err))
		return false
	}
	if cached == nil || cached.Token == "" {
		return false
	}
	if cached.UserID == "" {
		c.logger.Debug("cached token has no user id")
		return false
	}
	if !cached.Valid(c.now()) {
		c.logger.Debug("cached token expired", "expiration_date", cached.ExpirationDate)
		return false
	}

	c.setToken(cached.Token, cached.ExpirationDate)
	c.userID = cached.UserID
	c.logger.Info("found token in cache", logging.UserID(c.userID))
	return true
}

func (c *Client) login(ctx context.Context, creds credentials.Credentials) (bool, error) {
	c.logger.Info("fetching CSRF token")
	var csrf csrfResponse
	if err := c.getJSON(ctx, instrumentation.OperationCSRF, c.siteEndpoint("login_ajax"), &csrf); err != nil {
		return false, err
	}

	if err := sleepContext(ctx, c.loginDelay); err != nil {
		return false, err
	}

	c.logger.Info("logging in")
	form := url.Values{
		"_username":   {creds.Username},
		"_password":   {creds.Password},
		"_csrf_token": {csrf.CSRF},
	}
	resp, err := c.send(ctx, instrumentation.OperationLogin, http.MethodPost, c.siteEndpoint("login_check"),
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return false, err
	}
	drain(resp)

	token := c.accessTokenCookie(resp)
	if token == "" {
		c.logger.Warn("login rejected, no access_token cookie", logging.HTTPStatus(resp.StatusCode))
		return false, nil
	}
	c.setToken(token, c.expirationDate(token))

	c.logger.Info("fetching user id")
	var me meResponse
	if err := c.getJSON(ctx, instrumentation.OperationWhoAmI, c.apiEndpoint("me"), &me); err != nil {
		c.clearToken()
		return false, err
	}
	if me.ID == "" {
		c.clearToken()
		return false, &APIError{Op: instrumentation.OperationWhoAmI, StatusCode: http.StatusOK, Err: errors.New("response has no id")}
	}
	c.userID = string(me.ID)
	c.logger.Info("authenticated", logging.UserID(c.userID))

	if c.cfg.SaveToken {
		cached := &credentials.CachedToken{
			Token:          c.token,
			ExpirationDate: c.expires,
			UserID:         c.userID,
		}
		if err := c.store.Save(cached); err != nil {
			c.logger.Warn("failed to save token", logging.Err(err))
		} else {
			c.logger.Info("saved token", "expiration_date", cached.ExpirationDate)
		}
	}

	return true, nil
}

// expirationDate is now+TokenLifetime, clamped to the exp claim when the
// token is a JWT that expires earlier.
func (c *Client) expirationDate(token string) time.Time {
	expires := c.now().Add(TokenLifetime).In(c.loc)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return expires
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return expires
	}
	if exp.Before(expires) {
		return exp.In(c.loc)
	}
	return expires
}

func (c *Client) accessTokenCookie(resp *http.Response) string {
	for _, cookie := range c.jar.Cookies(c.siteURL) {
		if cookie.Name == accessTokenCookie && cookie.Value != "" {
			return cookie.Value
		}
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == accessTokenCookie && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) setToken(token string, expires time.Time) {
	c.token = token
	c.expires = expires
	c.logger.Debug("using bearer token", logging.Token(token), "expiration_date", expires)
	c.session.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   c.base,
	}
}

func (c *Client) clearToken() {
	c.token = ""
	c.expires = time.Time{}
	c.session.Transport = c.base
}

// Events lists the booked meetings. Calendar entries without attendees are
// skipped.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	if !c.hasToken() {
		return nil, ErrNotAuthenticated
	}

	var raw []eventJSON
	if err := c.getJSON(ctx, instrumentation.OperationListEvents, c.apiEndpoint("users", c.userID, "events"), &raw); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(raw))
	for _, e := range raw {
		if len(e.Attendees) == 0 {
			continue
		}
		start, err := ParseTimestamp(e.StartDate, c.loc)
		if err != nil {
			c.logger.Warn("skipping event with invalid start", logging.Err(err))
			continue
		}
		end, err := ParseTimestamp(e.EndDate, c.loc)
		if err != nil {
			c.logger.Warn("skipping event with invalid end", logging.Err(err))
			continue
		}
		events = append(events, Event{
			Attendee: e.Attendees[0].DisplayName,
			Start:    start,
			End:      end,
		})
	}
	return events, nil
}

// Availabilities lists the user's availability entries in server order.
func (c *Client) Availabilities(ctx context.Context) ([]Availability, error) {
	if !c.hasToken() {
		return nil, ErrNotAuthenticated
	}

	var raw []availabilityJSON
	if err := c.getJSON(ctx, instrumentation.OperationListAvailabilities, c.apiEndpoint("users", c.userID, "availabilities"), &raw); err != nil {
		return nil, err
	}

	out := make([]Availability, 0, len(raw))
	for _, a := range raw {
		out = append(out, Availability{
			ID:        string(a.AvailabilityID),
			StartDate: a.StartDate,
			EndDate:   a.EndDate,
		})
	}
	return out, nil
}

// CreateAvailability creates a slot from start to end. Both are sent in UTC.
func (c *Client) CreateAvailability(ctx context.Context, start, end time.Time) error {
	if !c.hasToken() {
		return ErrNotAuthenticated
	}

	body, err := json.Marshal(availabilityRequest{
		StartDate: FormatTimestamp(start),
		EndDate:   FormatTimestamp(end),
	})
	if err != nil {
		return &APIError{Op: instrumentation.OperationCreateAvailability, Err: err}
	}

	resp, err := c.send(ctx, instrumentation.OperationCreateAvailability, http.MethodPost,
		c.apiEndpoint("users", c.userID, "availabilities"), bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	drain(resp)
	return checkStatus(instrumentation.OperationCreateAvailability, resp)
}

// DeleteAvailability deletes the availability with the given id.
func (c *Client) DeleteAvailability(ctx context.Context, id string) error {
	if !c.hasToken() {
		return ErrNotAuthenticated
	}
	if id == "" {
		return &APIError{Op: instrumentation.OperationDeleteAvailability, Err: errors.New("empty availability id")}
	}

	resp, err := c.send(ctx, instrumentation.OperationDeleteAvailability, http.MethodDelete,
		c.apiEndpoint("availabilities", id), nil, "")
	if err != nil {
		return err
	}
	drain(resp)
	return checkStatus(instrumentation.OperationDeleteAvailability, resp)
}

func (c *Client) siteEndpoint(elem ...string) string {
	return c.siteURL.JoinPath(elem...).String()
}

func (c *Client) apiEndpoint(elem ...string) string {
	return c.apiURL.JoinPath(elem...).String()
}

// getJSON issues a GET and decodes a successful JSON response into out.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, out any) error {
	resp, err := c.send(ctx, op, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return err
	}
	defer drain(resp)

	if err := checkStatus(op, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// send performs one request, recording a span and the operation metrics.
// The caller owns the response body.
func (c *Client) send(ctx context.Context, op, method, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	ctx, span := instrumentation.StartAPISpan(ctx, op, attribute.String(instrumentation.SpanAttrUserID, c.userID))
	defer span.End()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, &APIError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.session.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordAPIOperation(ctx, op, instrumentation.StatusError, duration)
		instrumentation.SetSpanError(span, err)
		c.logger.Debug("request failed", logging.Operation(op), logging.Duration(duration), logging.Err(err))
		return nil, &APIError{Op: op, Err: err}
	}

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrHTTPStatus, resp.StatusCode))
	status := instrumentation.StatusSuccess
	if IsSuccess(resp.StatusCode) {
		instrumentation.SetSpanSuccess(span)
	} else {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, fmt.Errorf("status %d", resp.StatusCode))
	}
	c.metrics.RecordAPIOperation(ctx, op, status, duration)
	c.logger.Debug("request done", logging.Operation(op), logging.HTTPStatus(resp.StatusCode), logging.Duration(duration))

	return resp, nil
}

func checkStatus(op string, resp *http.Response) error {
	if IsSuccess(resp.StatusCode) {
		return nil
	}
	return &APIError{Op: op, StatusCode: resp.StatusCode}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
