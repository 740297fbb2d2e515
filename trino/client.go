// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package trino provides a minimal client for Trino's HTTP statement
// protocol and its query statistics REST API. The statement protocol
// is implemented directly (rather than via database/sql) because the
// benchmark needs the server-assigned query identifier of each
// executed statement and the driver abstraction does not expose it.
package trino

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/czcorpus/cnc-gokit/httpclient"
)

const (
	idleConnTimeoutSecs = 60

	clientSourceName = "trinobench"
)

type column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type stmtStats struct {
	State string `json:"state"`
}

// StmtError is an error reported by the engine itself
// (as opposed to a transport-level failure).
type StmtError struct {
	Message   string `json:"message"`
	ErrorName string `json:"errorName"`
	ErrorCode int    `json:"errorCode"`
}

func (err *StmtError) Error() string {
	return fmt.Sprintf("%s: %s", err.ErrorName, err.Message)
}

type stmtResponse struct {
	ID      string     `json:"id"`
	NextURI string     `json:"nextUri"`
	Columns []column   `json:"columns"`
	Data    [][]any    `json:"data"`
	Stats   stmtStats  `json:"stats"`
	Error   *StmtError `json:"error"`
}

// Result contains all rows of a finished statement along with the
// query identifier the coordinator assigned to it. When a statement
// fails mid-flight, the identifier may still be populated so the
// caller can try to fetch server-side statistics for the failed run.
type Result struct {
	QueryID string
	Columns []string
	Rows    [][]any
}

// FirstValue returns the first column of the first row, which is
// the typical shape of metadata probes (SELECT version() etc.).
func (res *Result) FirstValue() (any, error) {
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return nil, fmt.Errorf("result contains no rows")
	}
	return res.Rows[0][0], nil
}

// Conn represents a logical connection to a Trino coordinator.
// Statements are executed strictly sequentially - the benchmark
// never overlaps trials, so a single shared connection is enough.
type Conn struct {
	client  *http.Client
	baseURL string
	user    string
	catalog string
	schema  string
}

func NewConn(baseURL, user, catalog, schema string) *Conn {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = httpclient.TransportMaxIdleConns
	transport.MaxConnsPerHost = httpclient.TransportMaxConnsPerHost
	transport.MaxIdleConnsPerHost = httpclient.TransportMaxIdleConnsPerHost
	transport.IdleConnTimeout = time.Duration(idleConnTimeoutSecs) * time.Second
	return &Conn{
		client: &http.Client{
			Transport: transport,
		},
		baseURL: baseURL,
		user:    user,
		catalog: catalog,
		schema:  schema,
	}
}

// Query submits a statement via POST /v1/statement and follows the
// nextUri chain until the server reports completion, accumulating all
// data rows. Note that a statement has no execution timeout by design;
// cancelling the passed context is the only way to interrupt it.
func (conn *Conn) Query(ctx context.Context, sqlQuery string) (*Result, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, conn.baseURL+"/v1/statement", bytes.NewBufferString(sqlQuery))
	if err != nil {
		return &Result{}, fmt.Errorf("failed to execute query: %w", err)
	}
	req.Header.Set("X-Trino-User", conn.user)
	req.Header.Set("X-Trino-Catalog", conn.catalog)
	req.Header.Set("X-Trino-Schema", conn.schema)
	req.Header.Set("X-Trino-Source", clientSourceName)

	ans := &Result{}
	page, err := conn.fetchPage(req)
	if err != nil {
		return ans, fmt.Errorf("failed to execute query: %w", err)
	}
	ans.QueryID = page.ID

	for {
		if len(ans.Columns) == 0 && len(page.Columns) > 0 {
			ans.Columns = make([]string, len(page.Columns))
			for i, col := range page.Columns {
				ans.Columns[i] = col.Name
			}
		}
		ans.Rows = append(ans.Rows, page.Data...)
		if page.Error != nil {
			return ans, fmt.Errorf("failed to execute query: %w", page.Error)
		}
		if page.NextURI == "" {
			return ans, nil
		}
		nextReq, err := http.NewRequestWithContext(ctx, http.MethodGet, page.NextURI, nil)
		if err != nil {
			return ans, fmt.Errorf("failed to execute query: %w", err)
		}
		nextReq.Header.Set("X-Trino-User", conn.user)
		page, err = conn.fetchPage(nextReq)
		if err != nil {
			return ans, fmt.Errorf("failed to execute query: %w", err)
		}
	}
}

func (conn *Conn) fetchPage(req *http.Request) (*stmtResponse, error) {
	resp, err := conn.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	rawData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}
	var page stmtResponse
	if err := json.Unmarshal(rawData, &page); err != nil {
		return nil, fmt.Errorf("malformed protocol response: %w", err)
	}
	return &page, nil
}
