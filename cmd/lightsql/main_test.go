// Package main provides tests for the LightSQL CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/lightsql/internal/cli"
	"github.com/leapstack-labs/lightsql/internal/cli/config"
)

// execute runs the root command in an empty directory so no project
// config file is picked up.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "LightSQL") {
		t.Errorf("version output should contain 'LightSQL', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"analyze", "statements", "tables", "fields", "subqueries", "scan", "history", "repl", "serve"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestAnalyzeCommandJSON(t *testing.T) {
	output, err := execute(t, "analyze", "--output", "json", "SELECT id FROM users u JOIN orders o ON o.user_id = u.id")
	if err != nil {
		t.Fatalf("analyze command error = %v", err)
	}

	var rep struct {
		Method     string   `json:"method"`
		Tables     []string `json:"tables"`
		JoinTables []string `json:"join_tables"`
	}
	if err := json.Unmarshal([]byte(output), &rep); err != nil {
		t.Fatalf("analyze output is not JSON: %v\n%s", err, output)
	}
	if rep.Method != "SELECT" {
		t.Errorf("method = %q, want SELECT", rep.Method)
	}
	if strings.Join(rep.Tables, ",") != "users,orders" {
		t.Errorf("tables = %v, want [users orders]", rep.Tables)
	}
	if strings.Join(rep.JoinTables, ",") != "orders" {
		t.Errorf("join tables = %v, want [orders]", rep.JoinTables)
	}
}

func TestJoinKeywordsFlag(t *testing.T) {
	output, err := execute(t, "tables", "--joins", "-o", "json",
		"--join-keywords", "STRAIGHT_JOIN",
		"SELECT * FROM a STRAIGHT_JOIN b ON a.id = b.id")
	if err != nil {
		t.Fatalf("tables command error = %v", err)
	}
	if !strings.Contains(output, `"b"`) {
		t.Errorf("tables output should contain the STRAIGHT_JOIN table, got: %s", output)
	}
}

func TestAnalyzeSaveAndHistory(t *testing.T) {
	historyPath := filepath.Join(t.TempDir(), "history.db")

	if _, err := execute(t, "analyze", "-o", "json", "--history-path", historyPath, "--save", "DELETE FROM logs"); err != nil {
		t.Fatalf("analyze --save error = %v", err)
	}
	if _, err := os.Stat(historyPath); err != nil {
		t.Fatalf("history database should exist: %v", err)
	}

	output, err := execute(t, "history", "list", "-o", "json", "--history-path", historyPath)
	if err != nil {
		t.Fatalf("history list error = %v", err)
	}
	if !strings.Contains(output, `"DELETE FROM logs"`) {
		t.Errorf("history should contain the saved query, got: %s", output)
	}
}

func TestInvalidOutputFlag(t *testing.T) {
	_, err := execute(t, "analyze", "--output", "xml", "SELECT 1")
	if err == nil {
		t.Error("invalid output format should return an error")
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			output, err := execute(t, "completion", shell)
			if err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
			if output == "" {
				t.Errorf("completion %s should produce a script", shell)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "unknown-command"); err == nil {
		t.Error("unknown command should return an error")
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
