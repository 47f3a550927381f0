package server

import (
	"net/http"
	"time"

	"github.com/eggpool/sqlitemulti/internal/multid/db"
	"github.com/eggpool/sqlitemulti/internal/util/httputil"
)

// queryResult is one entry of the /query response. The fields are
// populated depending on the Type of the executed query.
type queryResult struct {
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

// queryResponse is the envelope of the /query response.
type queryResponse struct {
	Results []queryResult `json:"results"`
	Time    float64       `json:"time"`
}

// queryHandler executes one or more queries against the database and
// returns one result per query. A failed query does not abort the
// remaining ones, its error travels in its own result instead.
func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	body, err := httputil.ReadReqBodyBytes(r)
	if err != nil {
		return httputil.NewJSONError(
			http.StatusBadRequest, err, "Failed to read request body",
		)
	}

	queries, err := queryParseRequest(r.Header.Get("Content-Type"), body)
	if err != nil {
		return httputil.NewJSONError(
			http.StatusBadRequest, err, "Invalid request format",
		)
	}

	allStart := time.Now()
	results := make([]queryResult, 0, len(queries))

	for _, q := range queries {
		thisStart := time.Now()
		res, err := s.conf.Db.Query(ctx, db.Query{
			TxId:   q.TxId,
			Query:  q.Query,
			Params: q.Params,
		})
		if err != nil {
			results = append(results, queryResult{
				Type:  "error",
				Error: err.Error(),
				Time:  time.Since(thisStart).Seconds(),
			})
			continue
		}

		results = append(results, resultFromQuery(res, time.Since(thisStart)))
	}

	return httputil.WriteJSON(w, http.StatusOK, queryResponse{
		Results: results,
		Time:    time.Since(allStart).Seconds(),
	})
}

func resultFromQuery(res db.QueryResult, elapsed time.Duration) queryResult {
	out := queryResult{
		Type: res.Type.Value,
		Time: elapsed.Seconds(),
	}

	switch res.Type {
	case db.QueryTypeRead:
		out.Columns = res.ReadResult.Columns
		out.Types = res.ReadResult.Types
		out.Values = res.ReadResult.Values
	case db.QueryTypeWrite:
		out.LastInsertID = res.WriteResult.LastInsertID
		out.RowsAffected = res.WriteResult.RowsAffected
	case db.QueryTypeBegin, db.QueryTypeCommit, db.QueryTypeRollback:
		out.TxId = res.TxId
	}

	return out
}
