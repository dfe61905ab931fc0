package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/mirrorapi"
)

const defaultPageSize = 200

// HTTPMirror talks to the mirror server's document API. Session setup
// (credential exchange, token refresh) happens inside this client; callers
// only see the collection operations.
type HTTPMirror struct {
	baseURL   string
	accessKey string
	secretKey string
	client    *http.Client

	mu    sync.Mutex
	token string
}

func NewHTTPMirror(baseURL, accessKey, secretKey string, timeout time.Duration) *HTTPMirror {
	return &HTTPMirror{
		baseURL:   baseURL,
		accessKey: accessKey,
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (m *HTTPMirror) login(ctx context.Context) error {
	body, err := json.Marshal(mirrorapi.SessionRequest{AccessKey: m.accessKey, SecretKey: m.secretKey})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/v1/session", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: session: %v", common.ErrConnectivityUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: session rejected with %s", common.ErrUnauthorized, resp.Status)
	}

	var sr mirrorapi.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("decoding session response: %w", err)
	}

	m.mu.Lock()
	m.token = sr.Token
	m.mu.Unlock()
	return nil
}

func (m *HTTPMirror) currentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// do performs one authenticated request, logging in first when no token is
// held yet and retrying exactly once after a relogin when the token has
// expired. out may be nil for requests without a response body of interest.
func (m *HTTPMirror) do(ctx context.Context, method, path string, in any, out any) error {
	if m.currentToken() == "" {
		if err := m.login(ctx); err != nil {
			return err
		}
	}

	status, err := m.doOnce(ctx, method, path, in, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		if err := m.login(ctx); err != nil {
			return err
		}
		status, err = m.doOnce(ctx, method, path, in, out)
		if err != nil {
			return err
		}
	}

	return mapStatus(method, status)
}

func (m *HTTPMirror) doOnce(ctx context.Context, method, path string, in any, out any) (int, error) {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.currentToken())

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrConnectivityUnavailable, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func mapStatus(method string, status int) error {
	switch {
	case status >= 200 && status <= 299:
		return nil
	case status == http.StatusNotFound && method == http.MethodDelete:
		// Deleting an absent document is a success; delete is idempotent.
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: mirror returned %d", common.ErrUnauthorized, status)
	default:
		return fmt.Errorf("%w: mirror returned %d", common.ErrRemoteRejected, status)
	}
}

func (m *HTTPMirror) UpsertArticle(ctx context.Context, a *models.Article) error {
	doc := mirrorapi.Article{
		ID:        a.ID,
		Name:      a.Name,
		Mould:     a.Mould,
		Size:      a.Size,
		Gender:    a.Gender,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
		ImageURL:  a.ImagePath,
	}
	return m.do(ctx, http.MethodPut, "/api/v1/articles/"+url.PathEscape(a.ID), doc, nil)
}

func (m *HTTPMirror) DeleteArticle(ctx context.Context, id string) error {
	return m.do(ctx, http.MethodDelete, "/api/v1/articles/"+url.PathEscape(id), nil, nil)
}

func (m *HTTPMirror) ListArticles(ctx context.Context) ([]models.Article, error) {
	var result []models.Article
	after := ""
	for {
		var page mirrorapi.ArticleList
		path := "/api/v1/articles?limit=" + strconv.Itoa(defaultPageSize)
		if after != "" {
			path += "&after=" + url.QueryEscape(after)
		}
		if err := m.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		for _, doc := range page.Items {
			result = append(result, models.Article{
				ID:        doc.ID,
				Name:      doc.Name,
				Mould:     doc.Mould,
				Size:      doc.Size,
				Gender:    doc.Gender,
				CreatedBy: doc.CreatedBy,
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
				ImagePath: doc.ImageURL,
				// Records fetched from the mirror are consistent with it
				// by construction.
				SyncState: models.SyncSynced,
			})
		}
		if page.NextAfter == "" {
			return result, nil
		}
		after = page.NextAfter
	}
}

func (m *HTTPMirror) UpsertUser(ctx context.Context, u *models.User) error {
	doc := mirrorapi.User{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC(),
	}
	return m.do(ctx, http.MethodPut, "/api/v1/users/"+url.PathEscape(u.ID), doc, nil)
}

func (m *HTTPMirror) DeleteUser(ctx context.Context, id string) error {
	return m.do(ctx, http.MethodDelete, "/api/v1/users/"+url.PathEscape(id), nil, nil)
}

func (m *HTTPMirror) ListUsers(ctx context.Context) ([]models.User, error) {
	var result []models.User
	after := ""
	for {
		var page mirrorapi.UserList
		path := "/api/v1/users?limit=" + strconv.Itoa(defaultPageSize)
		if after != "" {
			path += "&after=" + url.QueryEscape(after)
		}
		if err := m.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		for _, doc := range page.Items {
			result = append(result, models.User{
				ID:        doc.ID,
				Username:  doc.Username,
				Role:      doc.Role,
				CreatedAt: doc.CreatedAt,
				// The mirror never stores password hashes; imported users
				// cannot log in until an admin resets their password.
			})
		}
		if page.NextAfter == "" {
			return result, nil
		}
		after = page.NextAfter
	}
}
