package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/quizzer/internal/exam"
)

const bank = `question;option1;option2;option3;answer;explanation
Capital of France?;Paris;Rome;Madrid;A;Paris has been the capital since 987
2 + 2?;3;4;;2;
`

// run executes one command line against a fresh command tree.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--db", "test.db", "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_ExamLifecycle(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("bank.csv", []byte(bank), 0o644))

	out, err := run(t, "", "exam", "create", "Geo", "--description", "Capitals and sums")
	require.NoError(t, err)
	assert.Contains(t, out, "Created exam Geo")

	out, err = run(t, "", "exam", "import", "Geo", "bank.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "into draft v1")

	_, err = run(t, "", "exam", "publish", "Geo")
	assert.ErrorIs(t, err, exam.ErrPublishNotesMissing)

	out, err = run(t, "", "exam", "publish", "Geo", "-m", "first cut")
	require.NoError(t, err)
	assert.Contains(t, out, "Published Geo v1 with 2 questions")

	out, err = run(t, "", "exam", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Geo")
	assert.Contains(t, out, "v1")

	out, err = run(t, "", "exam", "show", "Geo")
	require.NoError(t, err)
	assert.Contains(t, out, "first cut")
	assert.Contains(t, out, "No draft.")

	out, err = run(t, "A\nB?\n", "attempt", "take", "Geo")
	require.NoError(t, err)
	assert.Contains(t, out, "Capital of France?")
	assert.Contains(t, out, "Correct")
	assert.Contains(t, out, "(2/2)")

	out, err = run(t, "", "attempt", "history", "Geo")
	require.NoError(t, err)
	assert.Contains(t, out, "100.0%")

	out, err = run(t, "", "report", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Geo")

	out, err = run(t, "", "exam", "export", "Geo", "out.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported Geo")
	exported, err := os.ReadFile("out.csv")
	require.NoError(t, err)
	assert.Contains(t, string(exported), "Capital of France?")

	_, err = run(t, "", "exam", "delete", "Geo")
	require.NoError(t, err)
	_, err = run(t, "", "attempt", "take", "Geo")
	assert.ErrorIs(t, err, exam.ErrExamNotFound)
	_, err = run(t, "", "exam", "restore", "Geo")
	require.NoError(t, err)
}

func TestCLI_TakeQuitEarly(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("bank.csv", []byte(bank), 0o644))

	for _, args := range [][]string{
		{"exam", "create", "Geo"},
		{"exam", "import", "Geo", "bank.csv"},
		{"exam", "publish", "Geo", "-m", "v1"},
	} {
		_, err := run(t, "", args...)
		require.NoError(t, err)
	}

	out, err := run(t, "z\nB\nq\n", "attempt", "take", "Geo")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer with a letter A-C")
	assert.Contains(t, out, "Wrong")
	assert.Contains(t, out, "(0/2)")
}

func TestCLI_Sources(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := filepath.Join(t.TempDir(), "bank")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geo.csv"), []byte(bank), 0o644))

	out, err := run(t, "", "source", "add", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Added local source")

	out, err = run(t, "", "source", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "1 imported")

	out, err = run(t, "", "source", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "1 unchanged")

	out, err = run(t, "", "exam", "show", "geo")
	require.NoError(t, err)
	assert.Contains(t, out, "2 questions")

	_, err = run(t, "", "source", "remove", dir)
	require.NoError(t, err)
	out, err = run(t, "", "source", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No sources")
}

func TestCLI_UnknownExam(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "", "exam", "show", "missing")
	assert.ErrorIs(t, err, exam.ErrExamNotFound)
}

func TestCLI_Version(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "quizzer dev\n", out)
}
