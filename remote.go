package sqlitemulti

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/eggpool/sqlitemulti/connstr"
)

// Remote gives access to a database served by a sqlitemultid daemon,
// the process-per-database flavor of sqlitemulti. It exposes the same
// kind of operations as DB, executed over HTTP.
type Remote struct {
	connStr connstr.ConnStr
	client  *http.Client
}

// RemoteResult is the outcome of one query executed by the server.
type RemoteResult struct {
	Type string  `json:"type"`
	Time float64 `json:"time"`

	// For read queries.
	Columns []string `json:"columns,omitempty"`
	Types   []string `json:"types,omitempty"`
	Values  [][]any  `json:"values,omitempty"`

	// For write queries.
	LastInsertID int64 `json:"lastInsertId,omitempty"`
	RowsAffected int64 `json:"rowsAffected,omitempty"`

	// For begin, commit and rollback.
	TxId string `json:"txId,omitempty"`

	// For errors.
	Error string `json:"error,omitempty"`
}

// remoteResponse is the envelope returned by the /query endpoint.
type remoteResponse struct {
	Results []RemoteResult `json:"results"`
	Time    float64        `json:"time"`
}

// RemoteStatsTotals holds the all-time counters of a server.
type RemoteStatsTotals struct {
	Reads        int64 `json:"reads"`
	Writes       int64 `json:"writes"`
	Begins       int64 `json:"begins"`
	Commits      int64 `json:"commits"`
	Rollbacks    int64 `json:"rollbacks"`
	HTTPRequests int64 `json:"httpRequests"`
}

// RemoteStatsMinute holds the counters of one minute.
type RemoteStatsMinute struct {
	Minute       string `json:"minute"`
	Reads        int64  `json:"reads"`
	Writes       int64  `json:"writes"`
	Begins       int64  `json:"begins"`
	Commits      int64  `json:"commits"`
	Rollbacks    int64  `json:"rollbacks"`
	HTTPRequests int64  `json:"httpRequests"`
}

// RemoteStats is the snapshot served by the /stats endpoint, with
// per-minute entries sorted newest first.
type RemoteStats struct {
	StartedAt          string              `json:"startedAt"`
	Uptime             string              `json:"uptime"`
	QueuedWrites       int64               `json:"queuedWrites"`
	QueuedTransactions int64               `json:"queuedTransactions"`
	QueuedHTTPRequests int64               `json:"queuedHttpRequests"`
	Totals             RemoteStatsTotals   `json:"totals"`
	Stats              []RemoteStatsMinute `json:"stats"`
}

// ConnectRemote connects to a sqlitemultid server using a connection
// string in the format http(s)://host:port?authToken=value.
func ConnectRemote(connectionString string) (*Remote, error) {
	cs, err := connstr.Parse(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	return &Remote{
		connStr: cs,
		client:  &http.Client{},
	}, nil
}

// Ping checks that the remote server is reachable and actually is a
// sqlitemultid instance.
func (r *Remote) Ping(ctx context.Context) error {
	status, headers, body, err := r.get(ctx, "/health")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", status)
	}
	if !strings.EqualFold(strings.TrimSpace(body), "ok") {
		return fmt.Errorf(`health check expected "OK" but got %q`, body)
	}
	if !strings.EqualFold(headers.Get("X-Server"), "sqlitemulti") {
		return fmt.Errorf(
			`expected "sqlitemulti" in X-Server header but got %q`,
			headers.Get("X-Server"),
		)
	}
	return nil
}

// ServerVersion returns the version of the remote server.
func (r *Remote) ServerVersion(ctx context.Context) (string, error) {
	status, _, body, err := r.get(ctx, "/version")
	if err != nil {
		return "", fmt.Errorf("failed to get server version: %w", err)
	}
	if status == http.StatusUnauthorized {
		return "", errors.New("authentication failed, please check your credentials")
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", status)
	}
	return strings.TrimSpace(body), nil
}

// Stats returns the stats snapshot of the remote server.
func (r *Remote) Stats(ctx context.Context) (RemoteStats, error) {
	status, _, body, err := r.get(ctx, "/stats")
	if err != nil {
		return RemoteStats{}, fmt.Errorf("failed to get server stats: %w", err)
	}
	if status == http.StatusUnauthorized {
		return RemoteStats{}, errors.New("authentication failed, please check your credentials")
	}
	if status != http.StatusOK {
		return RemoteStats{}, fmt.Errorf("unexpected status code: %d", status)
	}

	parsed := RemoteStats{}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return RemoteStats{}, fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	return parsed, nil
}

// Query sends a single query outside of any transaction.
func (r *Remote) Query(ctx context.Context, query string, params ...any) (RemoteResult, error) {
	return r.QueryTx(ctx, "", query, params...)
}

// QueryTx sends a single query in the context of the transaction
// identified by txId. An empty txId means no transaction.
func (r *Remote) QueryTx(ctx context.Context, txId string, query string, params ...any) (RemoteResult, error) {
	body := map[string]any{
		"query": query,
	}
	if len(params) > 0 {
		body["params"] = params
	}
	if txId != "" {
		body["txId"] = txId
	}

	status, respBody, err := r.post(ctx, "/query", body)
	if err != nil {
		return RemoteResult{}, fmt.Errorf("failed to send query: %w", err)
	}
	if status == http.StatusUnauthorized {
		return RemoteResult{}, errors.New("authentication failed, please check your credentials")
	}
	if status != http.StatusOK {
		return RemoteResult{}, fmt.Errorf("unexpected status code: %d", status)
	}

	parsed := remoteResponse{}
	if err := json.Unmarshal([]byte(respBody), &parsed); err != nil {
		return RemoteResult{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return RemoteResult{}, errors.New("empty response")
	}

	res := parsed.Results[0]
	if res.Error != "" {
		return res, errors.New(res.Error)
	}
	return res, nil
}

// Execute runs a write statement and returns its result.
func (r *Remote) Execute(ctx context.Context, query string, params ...any) (ExecResult, error) {
	res, err := r.Query(ctx, query, params...)
	if err != nil {
		return ExecResult{}, err
	}
	return ExecResult{
		LastInsertID: res.LastInsertID,
		RowsAffected: res.RowsAffected,
	}, nil
}

// FetchAll runs a read query and returns all of its rows.
func (r *Remote) FetchAll(ctx context.Context, query string, params ...any) ([][]any, error) {
	res, err := r.Query(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	return res.Values, nil
}

// FetchOne runs a read query and returns its first row, or nil when
// the query yields no rows.
func (r *Remote) FetchOne(ctx context.Context, query string, params ...any) ([]any, error) {
	rows, err := r.FetchAll(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Begin starts a server-side transaction and returns its id.
func (r *Remote) Begin(ctx context.Context) (string, error) {
	res, err := r.Query(ctx, "BEGIN")
	if err != nil {
		return "", err
	}
	if res.TxId == "" {
		return "", errors.New("server did not return a transaction id")
	}
	return res.TxId, nil
}

// Commit commits the server-side transaction identified by txId.
func (r *Remote) Commit(ctx context.Context, txId string) error {
	_, err := r.QueryTx(ctx, txId, "COMMIT")
	return err
}

// Rollback rolls back the server-side transaction identified by txId.
func (r *Remote) Rollback(ctx context.Context, txId string) error {
	_, err := r.QueryTx(ctx, txId, "ROLLBACK")
	return err
}

func (r *Remote) get(ctx context.Context, path string) (int, http.Header, string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, r.connStr.URL()+path, nil,
	)
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	r.setAuth(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed sending GET request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, "", fmt.Errorf("failed reading response body: %w", err)
	}
	return resp.StatusCode, resp.Header, string(body), nil
}

func (r *Remote) post(ctx context.Context, path string, body any) (int, string, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, r.connStr.URL()+path, bytes.NewReader(encoded),
	)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	r.setAuth(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed sending POST request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed reading response body: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}

func (r *Remote) setAuth(req *http.Request) {
	if r.connStr.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.connStr.AuthToken)
	}
}
