package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tangramvision/datasetxfer/xferr"
)

// requestTimeout is the Client's fixed per-request timeout (§4.D request
// defaults).
const requestTimeout = 30 * time.Second

// notifyCompleteRetryAttempts/Delay/MaxDelay bound the one retry loop this
// client runs: NotifyComplete is the last call in an upload, so a transient
// failure here (unlike a transient failure mid-transfer) has no
// object-store side effect left to reconcile on the next attempt.
const (
	notifyCompleteRetryAttempts = 5
	notifyCompleteInitialDelay  = 1 * time.Second
	notifyCompleteMaxDelay      = 30 * time.Second
)

// Client wraps the PostgREST-style dataset/file metadata service.
type Client struct {
	logger     logr.Logger
	httpClient *http.Client
	baseURL    *url.URL
	token      string
}

// New builds a Client bound to baseURL, sending bearerToken as an
// Authorization: Bearer header and Prefer: return=representation on every
// mutating call (§4.D).
func New(logger logr.Logger, baseURL, bearerToken string) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, xferr.Wrap(xferr.InputInvalid, err)
	}
	return &Client{
		logger: logger.WithName("metadata"),
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: parsed,
		token:   bearerToken,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = "/" + strings.TrimPrefix(path, "/")
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, xferr.Wrap(xferr.InputInvalid, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, xferr.Wrap(xferr.InputInvalid, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Prefer", "return=representation")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes req and, on success, unmarshals the response body into out
// (skipped if out is nil, except that a non-empty, non-JSON 2xx body is
// still rejected as a protocol error per §4.D).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return xferr.Wrap(xferr.MetadataTransient, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return xferr.Wrap(xferr.MetadataTransient, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if len(bodyBytes) == 0 {
			return nil
		}
		if !json.Valid(bodyBytes) {
			return xferr.New(xferr.Protocol, "metadata service returned malformed JSON for %s %s", req.Method, req.URL.Path)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			return xferr.New(xferr.Protocol, "JSON from metadata service was malformed for %s %s: %v", req.Method, req.URL.Path, err)
		}
		return nil
	}

	return responseError(resp.StatusCode, req, bodyBytes)
}

// responseError classifies a non-2xx response: 400/401/403 get their JSON
// body's message/details/hint fields parsed and attached (§4.D, §7
// MetadataRejected); any other 4xx just carries status and body and is also
// MetadataRejected, and everything else (5xx and other statuses) carries
// status and body as MetadataTransient (§7).
func responseError(statusCode int, req *http.Request, bodyBytes []byte) error {
	if statusCode == http.StatusBadRequest || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		msg := fmt.Sprintf("metadata service rejected %s %s: %d %s", req.Method, req.URL.Path, statusCode, http.StatusText(statusCode))
		var enriched struct {
			Message string `json:"message"`
			Details string `json:"details"`
			Hint    string `json:"hint"`
		}
		if json.Unmarshal(bodyBytes, &enriched) == nil {
			if enriched.Message != "" {
				msg += "\n\tMessage: " + enriched.Message
			}
			if enriched.Details != "" {
				msg += "\n\tDetails: " + enriched.Details
			}
			if enriched.Hint != "" {
				msg += "\n\tHint: " + enriched.Hint
			}
		}
		return xferr.New(xferr.MetadataRejected, "%s", msg)
	}
	category := xferr.MetadataTransient
	if statusCode >= 400 && statusCode < 500 {
		category = xferr.MetadataRejected
	}
	return xferr.New(category, "metadata service returned %d %s for %s %s: %s",
		statusCode, http.StatusText(statusCode), req.Method, req.URL.Path, string(bodyBytes))
}

// CreateDataset creates an empty dataset and returns its assigned identifier
// and creation timestamp.
func (c *Client) CreateDataset(ctx context.Context, systemID string, meta json.RawMessage) (*Dataset, error) {
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}
	body := map[string]any{"system_id": systemID, "metadata": meta}

	req, err := c.newRequest(ctx, http.MethodPost, "datasets", nil, body)
	if err != nil {
		return nil, err
	}

	var created []Dataset
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	// PostgREST returns a list even for a singular POST
	// (https://postgrest.org/en/v7.0.0/api.html#singular-or-plural).
	if len(created) == 0 {
		return nil, xferr.New(xferr.Protocol, "metadata service returned no info for newly-created dataset")
	}
	return &created[0], nil
}

// ListDatasetsFilter narrows a ListDatasets call.
type ListDatasetsFilter struct {
	DatasetID  uuid.UUID
	SystemID   string
	BeforeDate time.Time
	AfterDate  time.Time
	Order      string // e.g. "created_date.desc"
	Limit      int    // 1-100
	Offset     int
}

// ListDatasets queries datasets with their embedded files (§4.D, S2).
func (c *Client) ListDatasets(ctx context.Context, filter ListDatasetsFilter) ([]Dataset, error) {
	query := url.Values{"select": {"*,files(*)"}}
	if filter.DatasetID != uuid.Nil {
		query.Set("dataset_id", "eq."+filter.DatasetID.String())
	}
	if filter.SystemID != "" {
		query.Set("system_id", "eq."+filter.SystemID)
	}
	if !filter.BeforeDate.IsZero() {
		query.Add("created_date", "lt."+filter.BeforeDate.Format("2006-01-02"))
	}
	if !filter.AfterDate.IsZero() {
		query.Add("created_date", "gte."+filter.AfterDate.Format("2006-01-02"))
	}
	if filter.Order != "" {
		query.Set("order", filter.Order)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		query.Set("offset", strconv.Itoa(filter.Offset))
	}

	req, err := c.newRequest(ctx, http.MethodGet, "datasets", query, nil)
	if err != nil {
		return nil, err
	}

	var datasets []Dataset
	if err := c.do(req, &datasets); err != nil {
		return nil, err
	}
	return datasets, nil
}

// registerFileRequest is the POST /files wire body; the insert field is
// named "url" even though the service echoes it back as "key" on read
// (§6 lists the POST body's field names verbatim).
type registerFileRequest struct {
	DatasetID uuid.UUID       `json:"dataset_id"`
	URL       string          `json:"url"`
	FileSize  int64           `json:"filesize"`
	Version   string          `json:"version"`
	Metadata  json.RawMessage `json:"metadata"`
}

// RegisterFile records a durably-committed object against its dataset.
func (c *Client) RegisterFile(ctx context.Context, datasetID uuid.UUID, objectURL string, size int64, version string, meta json.RawMessage) (*UploadedFile, error) {
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}
	body := registerFileRequest{DatasetID: datasetID, URL: objectURL, FileSize: size, Version: version, Metadata: meta}

	req, err := c.newRequest(ctx, http.MethodPost, "files", nil, body)
	if err != nil {
		return nil, err
	}

	var created []UploadedFile
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, xferr.New(xferr.Protocol, "metadata service returned no info for registered file")
	}
	return &created[0], nil
}

// ListFiles lists a dataset's files, optionally filtered by a logical OR of
// path prefixes (§4.D).
func (c *Client) ListFiles(ctx context.Context, datasetID uuid.UUID, prefixes []string) ([]UploadedFile, error) {
	query := url.Values{"dataset_id": {"eq." + datasetID.String()}}
	if len(prefixes) > 0 {
		clauses := lo.Map(prefixes, func(prefix string, _ int) string {
			return fmt.Sprintf("filepath.ilike.%s*", prefix)
		})
		query.Set("or", fmt.Sprintf("(%s)", strings.Join(clauses, ",")))
	}

	req, err := c.newRequest(ctx, http.MethodGet, "files", query, nil)
	if err != nil {
		return nil, err
	}

	var files []UploadedFile
	if err := c.do(req, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// NotifyComplete seals a dataset: no further files may be registered to it
// afterward (I2). A transient (network/5xx) failure is retried a bounded
// number of times, since by this point every file is already durably
// registered and there is nothing for a retry to conflict with.
func (c *Client) NotifyComplete(ctx context.Context, datasetID, plexFileID, objectSpaceFileID uuid.UUID) error {
	body := map[string]any{
		"dataset_id":           datasetID,
		"plex_file_id":         plexFileID,
		"object_space_file_id": objectSpaceFileID,
	}

	return retry.Do(
		func() error {
			req, err := c.newRequest(ctx, http.MethodPost, "rpc/dataset_upload_complete", nil, body)
			if err != nil {
				return err
			}
			return c.do(req, nil)
		},
		retry.Context(ctx),
		retry.Delay(notifyCompleteInitialDelay),
		retry.MaxDelay(notifyCompleteMaxDelay),
		retry.Attempts(notifyCompleteRetryAttempts),
		retry.RetryIf(func(err error) bool { return xferr.Is(err, xferr.MetadataTransient) }),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("retrying dataset_upload_complete", "datasetId", datasetID, "attempt", n+1, "error", err.Error())
		}),
	)
}
