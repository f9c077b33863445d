package cli

import (
	"bytes"
	"encoding/csv"
	"regexp"
	"strings"
	"testing"

	"github.com/dalemusser/taskboard/internal/app/system/docstore"
	"github.com/dalemusser/taskboard/internal/testutil"
	"go.uber.org/zap"
)

// testApp wires an App to a throwaway database and an in-memory docstore.
func testApp(t *testing.T) *App {
	t.Helper()
	return &App{
		DB:   testutil.SetupTestDB(t),
		Docs: docstore.NewMemory(),
		Log:  zap.NewNop(),
	}
}

func execute(t *testing.T, app *App, args ...string) (string, string, error) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := NewRootCmd(app)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

var workspaceLine = regexp.MustCompile(`workspace: ([0-9a-f]{24})`)

func TestSeedThenReport(t *testing.T) {
	app := testApp(t)

	out, _, err := execute(t, app, "seed", "--email", "ada@example.com", "--password", "correct horse", "--board", "Launch")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := workspaceLine.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("seed output has no workspace id: %q", out)
	}

	out, _, err = execute(t, app, "report", "--workspace", m[1], "--format", "csv")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 1 || records[0][0] != "Board" {
		t.Errorf("a fresh board should report only the header, got %v", records)
	}

	out, _, err = execute(t, app, "report", "--workspace", m[1], "--format", "json")
	if err != nil {
		t.Fatalf("report json: %v", err)
	}
	for _, col := range []string{"To Do", "In Progress", "Done"} {
		if !strings.Contains(out, col) {
			t.Errorf("json report missing column %q", col)
		}
	}
}

func TestSeed_ReusesExistingUser(t *testing.T) {
	app := testApp(t)

	if _, _, err := execute(t, app, "seed", "--email", "ada@example.com", "--password", "correct horse"); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	_, errOut, err := execute(t, app, "seed", "--email", "ada@example.com", "--password", "correct horse")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !strings.Contains(errOut, "already exists") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestReport_Rejections(t *testing.T) {
	app := testApp(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing workspace", []string{"report"}, "workspace"},
		{"bad workspace id", []string{"report", "--workspace", "nope"}, "--workspace"},
		{"bad format", []string{"report", "--workspace", "0123456789abcdef01234567", "--format", "xml"}, "format"},
		{"bad date", []string{"report", "--workspace", "0123456789abcdef01234567", "--start", "May 1"}, "YYYY-MM-DD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, app, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want one mentioning %q", err, tt.want)
			}
		})
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("BOARDCTL_TEST_KEY", "set")
	if got := envOr("BOARDCTL_TEST_KEY", "def"); got != "set" {
		t.Errorf("envOr = %q", got)
	}
	if got := envOr("BOARDCTL_TEST_MISSING", "def"); got != "def" {
		t.Errorf("envOr = %q", got)
	}
}
