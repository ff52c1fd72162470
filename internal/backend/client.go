// Package backend is the HTTP client for the document question-answering
// service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/ganot/pdftalks/internal/domain/chat"
	"github.com/ganot/pdftalks/internal/domain/project"
	"github.com/ganot/pdftalks/internal/domain/upload"
	"github.com/ganot/pdftalks/internal/identity"
	"github.com/ganot/pdftalks/internal/repository"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 512
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	// Tokens supplies the bearer credential for authenticated routes.
	Tokens oauth2.TokenSource
	// Transport overrides the base round tripper, mostly for tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client talks to the backend over HTTP. It never retries.
type Client struct {
	base    *url.URL
	anon    *http.Client
	authed  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ repository.Backend = (*Client)(nil)

// New creates a new backend client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("backend url required: %w", repository.ErrInvalidInput)
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must be http or https: %w", opts.BaseURL, repository.ErrInvalidInput)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rt := opts.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	rt = &fingerprintTransport{base: rt, fingerprint: identity.Fingerprint()}

	authedRT := rt
	if opts.Tokens != nil {
		authedRT = &oauth2.Transport{Source: opts.Tokens, Base: rt}
	}

	limit := rate.Inf
	burst := opts.Burst
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		if burst <= 0 {
			burst = 1
		}
	}

	return &Client{
		base:    base,
		anon:    &http.Client{Timeout: timeout, Transport: rt},
		authed:  &http.Client{Timeout: timeout, Transport: authedRT},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}, nil
}

// Ping performs the liveness check against the backend root.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "", nil)
	if err != nil {
		return err
	}
	resp, err := c.do(c.anon, req, "liveness")
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

type projectDTO struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	FileName   string `json:"fileName"`
	UploadDate string `json:"uploadDate"`
	FileURL    string `json:"fileUrl"`
}

// ListProjects returns the remote projects owned by userID.
func (c *Client) ListProjects(ctx context.Context, userID string) ([]project.Project, error) {
	var dtos []projectDTO
	if err := c.postForm(ctx, "getprojects", map[string]string{"googleAuth": userID}, &dtos); err != nil {
		return nil, err
	}

	out := make([]project.Project, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, project.Project{
			ID:         d.ID,
			Title:      d.Title,
			FileName:   d.FileName,
			UploadDate: parseDate(d.UploadDate),
			FileURL:    c.resolve(d.FileURL),
		})
	}
	return out, nil
}

// Upload streams a document to the backend as multipart form data and
// returns the stored file name.
func (c *Client) Upload(ctx context.Context, in upload.Request) (string, error) {
	if in.Content == nil {
		return "", upload.ErrNoContent
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUpload(mw, in))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "upload", pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(c.authed, req, "upload")
	if err != nil {
		pr.CloseWithError(err)
		return "", err
	}
	defer drain(resp)

	var out struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}
	c.logger.Debug("document uploaded", "project_id", in.ProjectID, "filename", out.Filename, "bytes", in.Size)
	return out.Filename, nil
}

func writeUpload(mw *multipart.Writer, in upload.Request) error {
	fields := [][2]string{
		{"activeProjectId", in.ProjectID},
		{"collection_name", in.Namespace},
		{"googleAuth", in.UserID},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, in.FileName))
	mediaType := in.MediaType
	if mediaType == "" {
		mediaType = upload.MediaTypePDF
	}
	header.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, in.Content); err != nil {
		return fmt.Errorf("copying document: %w", err)
	}
	return mw.Close()
}

// GetChat fetches the stored history of a project. A project with no
// stored history yields an empty list.
func (c *Client) GetChat(ctx context.Context, projectID string) ([]chat.Message, error) {
	var rows []struct {
		Chats []chat.Message `json:"chats"`
	}
	if err := c.postForm(ctx, "getchat", map[string]string{"id": projectID}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].Chats == nil {
		return []chat.Message{}, nil
	}
	return rows[0].Chats, nil
}

// UpdateChat overwrites the stored history of a project.
func (c *Client) UpdateChat(ctx context.Context, projectID string, messages []chat.Message) error {
	encoded, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encoding chat history: %w", err)
	}
	return c.postForm(ctx, "updatechat", map[string]string{
		"id":    projectID,
		"chats": string(encoded),
	}, nil)
}

type askRequest struct {
	Question       string `json:"question"`
	CollectionName string `json:"collection_name"`
	Limit          int    `json:"limit,omitempty"`
}

// Ask sends a question scoped to a project's document collection.
func (c *Client) Ask(ctx context.Context, q chat.Question) (string, error) {
	body, err := json.Marshal(askRequest{
		Question:       q.Text,
		CollectionName: q.ProjectID,
		Limit:          q.Limit,
	})
	if err != nil {
		return "", fmt.Errorf("encoding question: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "getanswer", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(c.authed, req, "getanswer")
	if err != nil {
		return "", err
	}
	defer drain(resp)

	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding answer: %w", err)
	}
	return out.Answer, nil
}

// postForm sends fields as multipart form data and decodes a JSON reply
// into out when out is non-nil.
func (c *Client) postForm(ctx context.Context, route string, fields map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("encoding %s form: %w", route, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("encoding %s form: %w", route, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, route, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(c.authed, req, route)
	if err != nil {
		return err
	}
	defer drain(resp)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", route, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, route string, body io.Reader) (*http.Request, error) {
	target := c.base.ResolveReference(&url.URL{Path: route})
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", route, err)
	}
	return req, nil
}

func (c *Client) do(hc *http.Client, req *http.Request, route string) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "route", route, "error", err)
		if errors.Is(err, identity.ErrNotAuthenticated) {
			return nil, fmt.Errorf("%s: %w", route, identity.ErrNotAuthenticated)
		}
		return nil, fmt.Errorf("%s: %w: %w", route, repository.ErrUnavailable, err)
	}
	c.logger.Debug("backend request", "route", route, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		drain(resp)
		return nil, &StatusError{
			Route:      route,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}
	return resp, nil
}

// resolve turns a relative document reference into an absolute URL.
func (c *Client) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

type fingerprintTransport struct {
	base        http.RoundTripper
	fingerprint string
}

func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set(identity.FingerprintHeader, t.fingerprint)
	return t.base.RoundTrip(clone)
}
