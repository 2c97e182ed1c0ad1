// Package emby клиент API медиасервера Emby: создание и удаление аккаунтов,
// смена пароля и политика доступа, которой витрина включает и отключает просмотр.
package emby

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

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/media-storefront/internal/config"
	"github.com/magabrotheeeer/media-storefront/internal/errs"
)

const serviceName = "emby"

// Client обращается к ${url}/emby с заголовком X-Emby-Token.
// Исходящие запросы ограничены rate.Limiter, каждый запрос ограничен timeout.
type Client struct {
	apiURL     string
	apiKey     string
	timeout    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient создаёт клиент Emby.
func NewClient(cfg config.Emby) *Client {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:     strings.TrimSuffix(cfg.URL, "/") + "/emby",
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		httpClient: &http.Client{},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do выполняет запрос и декодирует ответ в out, если он не nil.
// Ответ не 2xx и сетевые ошибки возвращаются как *errs.ExternalServiceError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return &errs.ExternalServiceError{Service: serviceName, Op: op, Err: err}
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return &errs.ExternalServiceError{Service: serviceName, Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errs.ExternalServiceError{Service: serviceName, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &errs.ExternalServiceError{
			Service:    serviceName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s: %s", resp.Status, strings.TrimSpace(string(text))),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errs.ExternalServiceError{Service: serviceName, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// CreateAccount создаёт аккаунт с отключённым доступом и задаёт пароль.
// Если любой шаг после создания не удался, аккаунт удаляется, а ошибка возвращается.
func (c *Client) CreateAccount(ctx context.Context, name, password string) (string, error) {
	const op = "emby.CreateAccount"

	var user userResponse
	if err := c.do(ctx, op, http.MethodPost, "/Users/New", createUserRequest{Name: name}, &user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", &errs.ExternalServiceError{Service: serviceName, Op: op, Err: errors.New("empty user id in response")}
	}

	if err := c.SetPolicy(ctx, user.ID, Policy{Enabled: false}); err != nil {
		return "", c.compensate(ctx, user.ID, err)
	}
	if err := c.SetPassword(ctx, user.ID, password); err != nil {
		return "", c.compensate(ctx, user.ID, err)
	}
	return user.ID, nil
}

func (c *Client) compensate(ctx context.Context, id string, cause error) error {
	if err := c.DeleteAccount(context.WithoutCancel(ctx), id); err != nil {
		return errors.Join(cause, fmt.Errorf("rollback of account %s: %w", id, err))
	}
	return cause
}

// SetPolicy единственный способ включить или отключить доступ.
func (c *Client) SetPolicy(ctx context.Context, id string, p Policy) error {
	return c.do(ctx, "emby.SetPolicy", http.MethodPost, "/Users/"+id+"/Policy", newPolicyRequest(p), nil)
}

func (c *Client) SetPassword(ctx context.Context, id, password string) error {
	body := passwordRequest{ID: id, NewPw: password, ResetPassword: false}
	return c.do(ctx, "emby.SetPassword", http.MethodPost, "/Users/"+id+"/Password", body, nil)
}

// DeleteAccount удаляет аккаунт. Уже удалённый аккаунт (404) не считается ошибкой.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	err := c.do(ctx, "emby.DeleteAccount", http.MethodDelete, "/Users/"+id, nil, nil)
	if errs.IsExternalNotFound(err) {
		return nil
	}
	return err
}

// GetStatus возвращает true, если доступ включён.
func (c *Client) GetStatus(ctx context.Context, id string) (bool, error) {
	var user userResponse
	if err := c.do(ctx, "emby.GetStatus", http.MethodGet, "/Users/"+id, nil, &user); err != nil {
		return false, err
	}
	return user.Policy == nil || !user.Policy.IsDisabled, nil
}
