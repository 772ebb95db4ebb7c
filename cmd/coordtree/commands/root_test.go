package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	conf := filepath.Join(dir, "solr", "collection1", "conf")
	if err := os.MkdirAll(conf, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for name, content := range map[string]string{
		"solrconfig.xml": "<config/>",
		"schema.xml":     "<schema/>",
	} {
		if err := os.WriteFile(filepath.Join(conf, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	src := `
grace_period = "0s"

log {
  level = "error"
}

server "embedded" {
  data_dir = "` + filepath.ToSlash(filepath.Join(dir, "data")) + `"
}

source "local" {
  home = "` + filepath.ToSlash(filepath.Join(dir, "solr")) + `"
}
`
	path := filepath.Join(dir, "fixture.hcl")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := GetRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(t.Context()); err != nil {
		t.Fatalf("coordtree %s failed: %v\n%s", strings.Join(args, " "), err, out.String())
	}

	return out.String()
}

func TestCommands_BootstrapLayoutClean(t *testing.T) {
	fixture := writeFixture(t)

	out := run(t, "bootstrap", "--config", fixture, "--print")
	for _, expected := range []string{
		"/solr/collections/collection1/shards (0)",
		"/solr/collections/control_collection (1)",
		"/solr/configs/conf1/schema.xml (0)",
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected bootstrap output to contain %q, got:\n%s", expected, out)
		}
	}
	if strings.Contains(out, "currency.xml") {
		t.Errorf("Expected missing currency.xml to be skipped, got:\n%s", out)
	}

	out = run(t, "collections", "--config", fixture)
	rows := map[string][]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			rows[fields[0]] = fields
		}
	}
	for _, name := range []string{"collection1", "control_collection"} {
		if fields := rows[name]; len(fields) != 3 || fields[1] != "conf1" || fields[2] != "2" {
			t.Errorf("Expected %s on conf1 with 2 files, got %v in:\n%s", name, fields, out)
		}
	}

	out = run(t, "clean", "--config", fixture)
	if !strings.Contains(out, "Deleted 10 nodes below /solr") {
		t.Errorf("Unexpected clean output:\n%s", out)
	}

	out = run(t, "layout", "--config", fixture)
	if strings.Contains(out, "/solr") {
		t.Errorf("Expected /solr to be gone, got:\n%s", out)
	}

	out = run(t, "clean", "--config", fixture, "/solr")
	if !strings.Contains(out, "Deleted 0 nodes") {
		t.Errorf("Expected clean of absent path to be a no-op, got:\n%s", out)
	}
}
