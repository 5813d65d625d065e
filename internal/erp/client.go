package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	authPath    = "Accounts/authenticate/Account/authenticate"
	productPath = "Product/GetProductData"
	stockPath   = "Product/GetProductStockInfo"
)

var errUnauthorized = errors.New("erp: unauthorized")

type Config struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to the ERP catalog API. Each client owns its Session; the
// token is obtained lazily and refreshed once when a call is rejected
// with 401.
type Client struct {
	baseURL string
	cfg     Config
	http    *http.Client
	session *Session
	limiter *rate.Limiter
	auth    singleflight.Group
	logger  logger.ZapLogger
}

func NewClient(cfg *Config, log logger.ZapLogger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/",
		cfg:     *cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		session: &Session{},
		limiter: rate.NewLimiter(limit, 1),
		logger:  log,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

// Authenticate exchanges the client credentials for a bearer token.
// Concurrent callers share one in-flight exchange.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err, _ := c.auth.Do("auth", func() (any, error) {
		var out envelope[authResponse]
		req := authRequest{ClientID: c.cfg.ClientID, ClientSecret: c.cfg.ClientSecret}
		if err := c.post(ctx, authPath, "", req, &out); err != nil {
			return nil, err
		}
		if out.Data.AccessToken == "" {
			return nil, fmt.Errorf("%w: erp authenticate: empty access token", apperror.ErrTransientIO)
		}
		c.session.set(out.Data.AccessToken)
		c.logger.Debug("erp session authenticated")
		return nil, nil
	})
	return err
}

func (c *Client) FetchProducts(ctx context.Context, filter ProductFilter) ([]RawProduct, error) {
	var out envelope[[]RawProduct]
	if err := c.call(ctx, productPath, filter, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) FetchStock(ctx context.Context, filter StockFilter) ([]RawStockEntry, error) {
	var out envelope[[]RawStockEntry]
	if err := c.call(ctx, stockPath, filter.withDefaults(), &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) call(ctx context.Context, path string, body, out any) error {
	if c.session.Token() == "" {
		if err := c.Authenticate(ctx); err != nil {
			return err
		}
	}

	token := c.session.Token()
	err := c.post(ctx, path, token, body, out)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	c.logger.Info("erp token rejected, re-authenticating", zap.String("path", path))
	c.session.invalidate(token)
	if err := c.Authenticate(ctx); err != nil {
		return err
	}

	err = c.post(ctx, path, c.session.Token(), body, out)
	if errors.Is(err, errUnauthorized) {
		return fmt.Errorf("%w: erp %s: unauthorized after refresh", apperror.ErrTransientIO, path)
	}
	return err
}

func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: erp %s: %v", apperror.ErrTransientIO, path, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Access_token", token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: erp %s: %v", apperror.ErrTransientIO, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, res.Body)
		return errUnauthorized
	}
	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%w: erp %s: status %d: %s", apperror.ErrTransientIO, path, res.StatusCode, msg)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: erp %s: decode response: %v", apperror.ErrTransientIO, path, err)
	}
	return nil
}
