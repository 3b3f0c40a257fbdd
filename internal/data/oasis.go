package data

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"caiso-pipeline/internal/model"
)

// OASISClient fetches SingleZip reports from the CAISO OASIS API.
type OASISClient struct {
	BaseURL string
	Client  *http.Client
}

// NewOASISClient creates a new OASIS client.
// If baseURL is empty, defaults to "http://oasis.caiso.com/oasisapi".
func NewOASISClient(baseURL string) *OASISClient {
	if baseURL == "" {
		baseURL = "http://oasis.caiso.com/oasisapi"
	}
	return &OASISClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// OASISError represents a failed OASIS request
type OASISError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *OASISError) Error() string {
	return e.Message
}

// Fetch downloads one report for the window and decodes it to a raw table.
// OASIS returns a ZIP archive with a single CSV member (resultformat=6);
// request errors, non-200 responses, empty archives and XML error payloads
// inside the archive all surface as failures.
//
// WARNING: If caching is enabled (ENABLE_OASIS_CACHE=true), responses may be
// cached. Caching is ONLY for LOCAL DEVELOPMENT; near-real-time windows make
// cached responses stale almost immediately.
func (c *OASISClient) Fetch(q model.Query, w model.Window) (*model.RawTable, error) {
	if q.Name == "" {
		return nil, fmt.Errorf("query name is required")
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	// Check cache first (only if enabled for development)
	cache := GetCache()
	cacheKey := GenerateCacheKey(q, w)
	if cache != nil {
		if cached, found := cache.Get(cacheKey); found {
			log.Printf("[OASIS] Cache hit: %d rows (query=%s, start=%s, end=%s)",
				cached.Len(), q.Name, w.StartWire(), w.EndWire())
			return cached, nil
		}
	}

	u, err := url.Parse(c.BaseURL + "/SingleZip")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	params := u.Query()
	params.Set("queryname", q.Name)
	params.Set("startdatetime", w.StartWire())
	params.Set("enddatetime", w.EndWire())
	version := q.Version
	if version == "" {
		version = "1"
	}
	params.Set("version", version)
	if q.MarketRunID != "" {
		params.Set("market_run_id", q.MarketRunID)
	}
	if len(q.Nodes) > 0 {
		params.Set("node", strings.Join(q.Nodes, ","))
	}
	params.Set("resultformat", "6") // 6 = ZIP with CSV inside
	u.RawQuery = params.Encode()

	log.Printf("[OASIS] Request: GET %s (query=%s, start=%s, end=%s)",
		u.Path, q.Name, w.StartWire(), w.EndWire())

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Printf("[OASIS] Request failed: %v (duration: %v)", err, duration)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[OASIS] Response: %d %s (duration: %v, query=%s)",
		resp.StatusCode, resp.Status, duration, q.Name)

	switch resp.StatusCode {
	case http.StatusOK:
		// Success, continue
	case http.StatusTooManyRequests:
		return nil, &OASISError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("OASIS rate limit exceeded. Retry after: %s", resp.Header.Get("Retry-After")),
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, &OASISError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("OASIS returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	table, err := decodeSingleZip(payload)
	if err != nil {
		log.Printf("[OASIS] Error decoding response: %v (query=%s)", err, q.Name)
		return nil, err
	}
	log.Printf("[OASIS] Success: Received %d rows (query=%s)", table.Len(), q.Name)

	if cache != nil {
		cache.Set(cacheKey, table)
		log.Printf("[OASIS] Cached response (query=%s)", q.Name)
	}
	return table, nil
}

// decodeSingleZip extracts the single CSV member of an OASIS SingleZip
// payload. OASIS signals request-level errors by shipping an XML member
// instead of a CSV.
func decodeSingleZip(payload []byte) (*model.RawTable, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, &OASISError{
			Code:    "BAD_PAYLOAD",
			Message: fmt.Sprintf("response is not a ZIP archive: %v", err),
		}
	}
	if len(zr.File) == 0 {
		return nil, &OASISError{Code: "BAD_PAYLOAD", Message: "ZIP archive is empty"}
	}

	member := zr.File[0]
	if strings.HasSuffix(strings.ToLower(member.Name), ".xml") {
		return nil, &OASISError{
			Code:    "OASIS_ERROR_REPORT",
			Message: fmt.Sprintf("OASIS returned an error report %q instead of data", member.Name),
		}
	}

	f, err := member.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP member %q: %w", member.Name, err)
	}
	defer f.Close()

	table, err := DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", member.Name, err)
	}
	return table, nil
}
