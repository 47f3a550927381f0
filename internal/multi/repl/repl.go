// Package repl implements the interactive shell of the sqlitemulti
// CLI.
package repl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eggpool/sqlitemulti"
	"github.com/eggpool/sqlitemulti/internal/multi/config"
	"github.com/eggpool/sqlitemulti/internal/util/sysutil"
	"github.com/eggpool/sqlitemulti/internal/version"
	"github.com/peterh/liner"
)

type Repl struct {
	conf        config.Config
	client      *sqlitemulti.Remote
	ctx         context.Context
	stop        context.CancelFunc
	txId        string
	historyPath string
}

func NewRepl(
	ctx context.Context,
	stop context.CancelFunc,
	conf config.Config,
	client *sqlitemulti.Remote,
) Repl {
	return Repl{
		conf:        conf,
		client:      client,
		ctx:         ctx,
		stop:        stop,
		historyPath: filepath.Join(os.TempDir(), ".sqlitemulti_history"),
	}
}

func (r *Repl) Start() error {
	remoteURL := r.conf.ParsedConnStr.String()

	if err := r.client.Ping(r.ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", remoteURL, err)
	}

	remoteVersion, err := r.client.ServerVersion(r.ctx)
	if err != nil {
		return fmt.Errorf("failed to get remote server version: %w", err)
	}

	fmt.Println()
	fmt.Printf("Connected to %s running sqlitemultid %s\n", remoteURL, remoteVersion)
	fmt.Println(`Enter ".help" for usage hints and ".quit" or "CTRL+C" to quit`)
	fmt.Println()

	if version.Version != remoteVersion {
		fmt.Printf(
			"Warning: Your client version is %s, but the server is running %s\n",
			version.Version, remoteVersion,
		)
		fmt.Println("To avoid compatibility issues, consider using the same version on both sides")
		fmt.Println()
	}

	for {
		select {
		case <-r.ctx.Done():
			return nil
		default:
			input := r.prompt()

			if input == "" {
				continue
			}

			if r.dispatch(input) {
				return nil
			}
		}
	}
}

// dispatch handles one line of input and reports whether the REPL
// should exit.
func (r *Repl) dispatch(input string) bool {
	if input == "exit" || input == ".exit" || input == ".quit" {
		r.Shutdown()
		return true
	}

	if input == "clear" || input == ".clear" {
		sysutil.ClearTerminal()
		return false
	}

	if input == "help" || input == ".help" {
		cmdHelp()
		return false
	}

	if input == ".tables" {
		cmdQuery(r, `SELECT name FROM sqlite_master WHERE type = "table"`)
		return false
	}

	if input == ".indexes" {
		cmdQuery(r, `SELECT name FROM sqlite_master WHERE type = "index"`)
		return false
	}

	if input == ".schema" {
		cmdQuery(r, `SELECT sql FROM sqlite_master WHERE sql IS NOT NULL`)
		return false
	}

	if arg, ok := strings.CutPrefix(input, ".count"); ok {
		tableName := strings.TrimSpace(arg)
		if tableName == "" {
			fmt.Println("Usage: .count [table_name]")
			return false
		}
		cmdQuery(r, fmt.Sprintf(`SELECT COUNT(*) AS count FROM "%s"`, tableName))
		return false
	}

	if arg, ok := strings.CutPrefix(input, ".columns"); ok {
		tableName := strings.TrimSpace(arg)
		if tableName == "" {
			fmt.Println("Usage: .columns [table_name]")
			return false
		}
		cmdQuery(r, fmt.Sprintf(
			`SELECT name, type FROM pragma_table_info("%s")`, tableName,
		))
		return false
	}

	if arg, ok := strings.CutPrefix(input, ".stats"); ok {
		statsQty := 5
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			parsed, err := strconv.Atoi(trimmed)
			if err != nil || parsed < 1 {
				fmt.Println("Usage: .stats [minutes]")
				return false
			}
			statsQty = parsed
		}
		cmdStats(r, statsQty)
		return false
	}

	if strings.HasPrefix(input, ".") {
		fmt.Println("Unknown command, type .help for usage hints")
		return false
	}

	cmdQuery(r, input)
	return false
}

// Shutdown stops the REPL.
func (r *Repl) Shutdown() {
	r.stop()
}

// setTxId sets the current transaction ID for the REPL. Send empty string to
// reset the transaction ID.
func (r *Repl) setTxId(txId string) {
	r.txId = txId
}

// cleanError removes the unwanted text from the error message. So, the error
// is more readable.
func (r *Repl) cleanError(errStr string) string {
	errStr = strings.ReplaceAll(errStr, "failed to detect query type:", "")
	errStr = strings.ReplaceAll(errStr, "failed to prepare statement:", "")
	return strings.TrimSpace(errStr)
}

// prompt shows the prompt and reads the input from the user.
func (r *Repl) prompt() string {
	label := "sqlitemulti> "
	if r.txId != "" {
		txId := r.txId
		if len(txId) > 7 {
			txId = txId[len(txId)-7:]
		}
		label = fmt.Sprintf("sqlitemulti(%s)> ", txId)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(cmdHelpCompleter)

	if file, err := os.Open(r.historyPath); err == nil {
		_, _ = line.ReadHistory(file)
		file.Close()
	}

	prompt, err := line.Prompt(label)
	if err != nil {
		if err == liner.ErrPromptAborted {
			fmt.Println("CTRL+C pressed, exiting...")
			return ".quit"
		}
		return ""
	}

	line.AppendHistory(prompt)
	if file, err := os.Create(r.historyPath); err == nil {
		_, _ = line.WriteHistory(file)
		file.Close()
	}

	return strings.TrimSpace(prompt)
}
