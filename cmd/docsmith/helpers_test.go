package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const shopAnalysis = `{
  "projectName": "Shop",
  "schemaVersion": "1.0.0",
  "entities": [
    {"name": "Product", "tableName": "products",
     "columns": [{"name": "id", "type": "Long", "primaryKey": true}, {"name": "title", "type": "String"}]}
  ],
  "endpoints": [
    {"protocol": "rest", "httpMethod": "GET", "path": "/products", "handler": "list",
     "handlerClass": "ProductController", "returnType": "List<Product>"}
  ]
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeConfig writes a config file pointing the store into the test's temp
// dir and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "[store]\npath = " + tomlString(filepath.Join(dir, "docsmith.db")) + "\n" + extra
	writeFile(t, path, body)
	return path
}

func tomlString(s string) string {
	return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
