package server

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/eggpool/sqlitemulti/internal/validate"
)

// parsedQuery is a single query extracted from a /query request.
type parsedQuery struct {
	TxId   string `json:"txId,omitempty"`
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

// queryParseRequest parses the request body into a slice of queries.
// It supports plain text queries, JSON strings, JSON arrays of strings
// or objects, and a JSON object with an optional top level txId.
//
// The behavior adapts to the Content-Type header. Look at the tests
// for examples of the supported input formats.
func queryParseRequest(contentType string, body []byte) ([]parsedQuery, error) {
	isJSON := validate.ContentType(contentType, validate.ContentTypeJSON)
	if !isJSON {
		trimmedQuery := strings.TrimSpace(string(body))
		if trimmedQuery == "" {
			return nil, errors.New("empty query")
		}
		return []parsedQuery{{Query: trimmedQuery}}, nil
	}

	var rawBody any
	if err := json.Unmarshal(body, &rawBody); err != nil {
		return nil, err
	}

	switch content := rawBody.(type) {
	case string:
		trimmedQuery := strings.TrimSpace(content)
		if trimmedQuery == "" {
			return nil, errors.New("empty query")
		}
		return []parsedQuery{{Query: trimmedQuery}}, nil

	case []any:
		resultQueries := make([]parsedQuery, 0, len(content))
		for _, element := range content {
			switch queryElement := element.(type) {
			case string:
				trimmedQuery := strings.TrimSpace(queryElement)
				if trimmedQuery == "" {
					return nil, errors.New("empty query")
				}
				resultQueries = append(resultQueries, parsedQuery{Query: trimmedQuery})
			case map[string]any:
				newQuery := parsedQuery{}
				if queryStr, ok := queryElement["query"].(string); ok {
					newQuery.Query = strings.TrimSpace(queryStr)
				}
				if params, ok := queryElement["params"].([]any); ok {
					newQuery.Params = params
				}
				if txID, ok := queryElement["txId"].(string); ok {
					newQuery.TxId = txID
				}
				if newQuery.Query == "" {
					return nil, errors.New("empty query")
				}
				resultQueries = append(resultQueries, newQuery)
			default:
				return nil, errors.New("invalid array item")
			}
		}
		return resultQueries, nil

	case map[string]any:
		topLevelTxID, _ := content["txId"].(string)
		if queriesData, ok := content["queries"].([]any); ok {
			resultQueries := make([]parsedQuery, 0, len(queriesData))
			for _, item := range queriesData {
				queryMap, isMap := item.(map[string]any)
				if !isMap {
					return nil, errors.New("invalid query object")
				}
				newQuery := parsedQuery{}
				if queryStr, ok := queryMap["query"].(string); ok {
					newQuery.Query = strings.TrimSpace(queryStr)
				}
				if params, ok := queryMap["params"].([]any); ok {
					newQuery.Params = params
				}
				if txID, ok := queryMap["txId"].(string); ok {
					newQuery.TxId = txID
				} else {
					newQuery.TxId = topLevelTxID
				}
				if newQuery.Query == "" {
					return nil, errors.New("empty query")
				}
				resultQueries = append(resultQueries, newQuery)
			}
			return resultQueries, nil
		}

		newQuery := parsedQuery{TxId: topLevelTxID}
		if queryStr, ok := content["query"].(string); ok {
			newQuery.Query = strings.TrimSpace(queryStr)
		}
		if params, ok := content["params"].([]any); ok {
			newQuery.Params = params
		}
		if newQuery.Query == "" {
			return nil, errors.New("no valid query found")
		}
		return []parsedQuery{newQuery}, nil

	default:
		return nil, errors.New("unsupported JSON structure")
	}
}
