package sqlitemulti

import "github.com/orsinium-labs/enum"

// command represents the type of an operation queued for the worker.
type command enum.Member[string]

var (
	commandExecute     = command{Value: "execute"}
	commandExecuteMany = command{Value: "executemany"}
	commandScript      = command{Value: "script"}
	commandInsert      = command{Value: "insert"}
	commandDelete      = command{Value: "delete"}
	commandFetchOne    = command{Value: "fetchone"}
	commandFetchAll    = command{Value: "fetchall"}
	commandCommit      = command{Value: "commit"}
	commandStop        = command{Value: "stop"}
)

// Statement is a single SQL statement with its parameters, used to
// submit several statements as one transaction via ExecScript.
type Statement struct {
	SQL    string
	Params []any
}
