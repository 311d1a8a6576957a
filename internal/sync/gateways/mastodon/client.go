package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fedisync/blocksync/internal/sync/common/log"
	"github.com/fedisync/blocksync/internal/sync/domain"
)

// Error message constants for consistent error handling
const (
	errMissingFields = "block record missing required domain/severity fields"
	errStatus        = "HTTP %d: %s"
)

const (
	publicBlocksPath = "/api/v1/instance/domain_blocks"
	adminBlocksPath  = "/api/v1/admin/domain_blocks"

	scopeAdminRead  = "admin:read:domain_blocks"
	scopeAdminWrite = "admin:write:domain_blocks"

	// adminPageLimit is the page size requested from the paginated admin
	// endpoint; further pages are followed via the Link header.
	adminPageLimit = 200
)

// Options configures a Client.
type Options struct {
	Timeout   time.Duration // per-request timeout
	UserAgent string
	Logger    log.Logger
}

// Client talks to Mastodon-compatible servers: the public domain-block
// endpoint for remote sources and the authenticated admin endpoints for the
// administrator's own server.
type Client struct {
	http      *http.Client
	userAgent string
	logger    log.Logger
}

// New constructs a Client. A zero timeout falls back to 10s.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
}

// publicBlock is the public endpoint's record shape.
type publicBlock struct {
	Domain   string `json:"domain"`
	Digest   string `json:"digest"`
	Severity string `json:"severity"`
	Comment  string `json:"comment"`
}

// adminBlock is the admin endpoint's record shape.
type adminBlock struct {
	ID             string `json:"id"`
	Domain         string `json:"domain"`
	Severity       string `json:"severity"`
	RejectMedia    bool   `json:"reject_media"`
	RejectReports  bool   `json:"reject_reports"`
	PrivateComment string `json:"private_comment"`
	PublicComment  string `json:"public_comment"`
	Obfuscate      bool   `json:"obfuscate"`
}

// FetchPublicBlocks retrieves a remote server's publicly exposed block list.
//
// Behavior:
// - An empty list is a valid result, not an error.
// - Obfuscated entries (wildcard domains) cannot be re-imported verbatim and
//   are skipped with a warning.
// - Any network, status, or parse failure is wrapped in *domain.FetchError so
//   the caller can treat the whole source as skippable.
func (c *Client) FetchPublicBlocks(ctx context.Context, host string) (domain.SourceList, error) {
	list := domain.NewSourceList(host)

	var records []publicBlock
	if _, err := c.getJSON(ctx, endpointURL(host, publicBlocksPath), "", &records); err != nil {
		return domain.SourceList{}, &domain.FetchError{Host: host, Err: err}
	}

	skipped := 0
	for _, rec := range records {
		if rec.Domain == "" || rec.Severity == "" {
			return domain.SourceList{}, &domain.FetchError{Host: host, Err: fmt.Errorf(errMissingFields)}
		}
		if strings.Contains(rec.Domain, "*") {
			skipped++
			c.logger.Warn(map[string]any{"host": host, "domain": rec.Domain}, "skipping obfuscated block entry")
			continue
		}
		sev, err := domain.ParseSeverity(rec.Severity)
		if err != nil {
			return domain.SourceList{}, &domain.FetchError{Host: host, Err: err}
		}
		entry, err := domain.NewBlockEntry(rec.Domain, sev)
		if err != nil {
			return domain.SourceList{}, &domain.FetchError{Host: host, Err: err}
		}
		entry.PublicComment = rec.Comment
		list.Add(entry)
	}

	c.logger.Debug(map[string]any{
		"host":       host,
		"domains":    list.Len(),
		"obfuscated": skipped,
	}, "fetched public block list")
	return list, nil
}

// FetchAdminBlocks retrieves the authenticated block list of the
// administrator's own server, following Link-header pagination until the
// last page. A 401/403 answer yields *domain.AuthError naming the read scope
// the token needs.
func (c *Client) FetchAdminBlocks(ctx context.Context, host, token string) (domain.SourceList, error) {
	list := domain.NewSourceList(domain.LocalOrigin)

	next := endpointURL(host, adminBlocksPath) + "?limit=" + strconv.Itoa(adminPageLimit)
	pages := 0
	for next != "" {
		var records []adminBlock
		hdr, err := c.getJSON(ctx, next, token, &records)
		if err != nil {
			if ae := authErrorFromStatus(host, err, scopeAdminRead); ae != nil {
				return domain.SourceList{}, ae
			}
			return domain.SourceList{}, &domain.FetchError{Host: host, Err: err}
		}
		for _, rec := range records {
			sev, err := domain.ParseSeverity(rec.Severity)
			if err != nil {
				return domain.SourceList{}, &domain.FetchError{Host: host, Err: err}
			}
			entry, err := domain.NewBlockEntry(rec.Domain, sev)
			if err != nil {
				// The server may hold obfuscated or otherwise unimportable
				// entries; they still count as "already blocked" elsewhere,
				// but cannot be represented here.
				c.logger.Warn(map[string]any{"host": host, "domain": rec.Domain, "error": err.Error()},
					"skipping unrepresentable local block entry")
				continue
			}
			entry.PublicComment = rec.PublicComment
			entry.PrivateComment = rec.PrivateComment
			entry.RejectMedia = rec.RejectMedia
			entry.RejectReports = rec.RejectReports
			entry.Obfuscate = rec.Obfuscate
			list.Add(entry)
		}
		pages++
		next = parseNextLink(hdr.Get("Link"))
	}

	c.logger.Debug(map[string]any{"host": host, "domains": list.Len(), "pages": pages},
		"fetched local block list")
	return list, nil
}

// CreateDomainBlock adds one block entry on the target server via the admin
// write endpoint. A 422 answer (the server already blocks the domain) is
// reported as domain.ErrAlreadyBlocked; 401/403 yields *domain.AuthError
// naming the write scope.
func (c *Client) CreateDomainBlock(ctx context.Context, host, token string, entry domain.BlockEntry) error {
	form := url.Values{}
	form.Set("domain", entry.Domain)
	form.Set("severity", entry.Severity.String())
	form.Set("public_comment", entry.PublicComment)
	form.Set("private_comment", entry.PrivateComment)
	form.Set("reject_media", strconv.FormatBool(entry.RejectMedia))
	form.Set("reject_reports", strconv.FormatBool(entry.RejectReports))
	form.Set("obfuscate", strconv.FormatBool(entry.Obfuscate))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpointURL(host, adminBlocksPath), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setCommonHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", entry.Domain, domain.ErrAlreadyBlocked)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.AuthError{Host: host, Status: resp.StatusCode, Scope: scopeAdminWrite}
	default:
		return fmt.Errorf("creating block for %s: "+errStatus, entry.Domain, resp.StatusCode, errBody(resp.Body))
	}
}

// getJSON issues a GET and decodes the JSON array response into out.
// Status errors are returned as *statusError so callers can map them.
func (c *Client) getJSON(ctx context.Context, rawURL, token string, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	c.setCommonHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{Status: resp.StatusCode, Body: errBody(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return resp.Header, nil
}

func (c *Client) setCommonHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// statusError carries a non-200 answer so the caller can distinguish auth
// failures from everything else.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf(errStatus, e.Status, e.Body)
}

// authErrorFromStatus maps 401/403 status errors onto *domain.AuthError.
// Returns nil for any other error.
func authErrorFromStatus(host string, err error, scope string) *domain.AuthError {
	se, ok := err.(*statusError)
	if !ok {
		return nil
	}
	if se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden {
		return &domain.AuthError{Host: host, Status: se.Status, Scope: scope}
	}
	return nil
}

// endpointURL builds the request URL for a host. Hosts are bare domain
// names and default to https; a host that already carries a scheme is
// used as-is.
func endpointURL(host, path string) string {
	if strings.Contains(host, "://") {
		return strings.TrimSuffix(host, "/") + path
	}
	return "https://" + host + path
}

// parseNextLink extracts the rel="next" target from an RFC 5988 Link header.
// Returns "" when there is no next page.
func parseNextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		for _, param := range segments[1:] {
			param = strings.TrimSpace(param)
			if param == `rel="next"` || param == "rel=next" {
				return target
			}
		}
	}
	return ""
}

// errBody reads a bounded snippet of an error response body for messages.
func errBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
