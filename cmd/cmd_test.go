package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valpere/texdiff/internal/flatten"
)

const (
	oldDoc = "\\documentclass{article}\n\\begin{document}\nHello\nworld.\n\nGoodbye.\n\\end{document}\n"
	newDoc = "\\documentclass{article}\n\\begin{document}\nHello there.\n\nGoodbye.\n\\end{document}\n"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestFlattenCommand_Stdout(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "old.tex", oldDoc)

	out, _, err := executeCommand(t, "", "flatten", "old.tex")
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if out != "Hello world.\n\nGoodbye.\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFlattenCommand_OutputFile(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "old.tex", oldDoc)

	out, _, err := executeCommand(t, "", "flatten", "old.tex", "-o", "old.flat")
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if !strings.Contains(out, "Wrote 2 paragraphs") {
		t.Errorf("unexpected message %q", out)
	}

	data, err := os.ReadFile("old.flat")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Hello world.\n\nGoodbye." {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestFlattenCommand_WarnsOnUnclosedBody(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "draft.tex", "\\begin{document}\nDone.\n\nHalf\nwritten")

	out, logs, err := executeCommand(t, "", "flatten", "draft.tex")
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if out != "Done.\n" {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(logs, "dropped-content") {
		t.Errorf("expected dropped-content warning, got %q", logs)
	}
}

func TestFlattenCommand_MissingInput(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := executeCommand(t, "", "flatten", "missing.tex")
	if !errors.Is(err, flatten.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHighlightCommand_Stdin(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := executeCommand(t, "a {+b+}\n[-c-] d\n", "highlight")
	if err != nil {
		t.Fatalf("highlight failed: %v", err)
	}
	expected := "a \\textcolor{green}{b}\n\\textcolor{red}{\\st{c}} d\n"
	if out != expected {
		t.Errorf("got %q, want %q", out, expected)
	}
}

func TestHighlightCommand_FileWithHeader(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "changes.diff", "diff --git a/x b/y\nindex 1..2 100644\n--- a/x\n+++ b/y\n@@ -1 +1 @@\n{+x+}\n")

	out, _, err := executeCommand(t, "", "highlight", "changes.diff", "--addition-colour", "blue")
	if err != nil {
		t.Fatalf("highlight failed: %v", err)
	}
	if out != "\\textcolor{blue}{x}\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestHighlightCommand_ColourFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TEXDIFF_DELETION_COLOUR", "orange")

	out, _, err := executeCommand(t, "[-x-]\n", "highlight")
	if err != nil {
		t.Fatalf("highlight failed: %v", err)
	}
	if out != "\\textcolor{orange}{\\st{x}}\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestDiffCommand_SameOutputAsInput(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "old.tex", oldDoc)
	writeFile(t, "new.tex", newDoc)

	_, _, err := executeCommand(t, "", "diff", "old.tex", "new.tex", "-o", "new.tex", "--no-cache")
	if err == nil {
		t.Error("expected error when output overwrites an input")
	}
}

func TestDiffCommand_MissingInput(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "new.tex", newDoc)

	_, _, err := executeCommand(t, "", "diff", "old.tex", "new.tex", "--no-cache")
	if !errors.Is(err, flatten.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func TestDiffCommand_Stdout(t *testing.T) {
	requireGit(t)
	t.Chdir(t.TempDir())
	writeFile(t, "old.tex", oldDoc)
	writeFile(t, "new.tex", newDoc)

	out, _, err := executeCommand(t, "", "diff", "old.tex", "new.tex", "--stdout", "--no-cache")
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if !strings.Contains(out, `\textcolor{red}{\st{world.}}`) {
		t.Errorf("expected highlighted deletion, got %q", out)
	}
	if !strings.Contains(out, `\textcolor{green}{there.}`) {
		t.Errorf("expected highlighted addition, got %q", out)
	}
	if !strings.Contains(out, "Goodbye.") {
		t.Errorf("expected unchanged paragraph in output, got %q", out)
	}
	if strings.Contains(out, "diff --git") || strings.Contains(out, "@@") {
		t.Errorf("git header should be stripped, got %q", out)
	}
}

func TestDiffCommand_FileAndHistory(t *testing.T) {
	requireGit(t)
	t.Chdir(t.TempDir())
	writeFile(t, "old.tex", oldDoc)
	writeFile(t, "new.tex", newDoc)
	db := filepath.Join("state", "history.db")

	for i := 0; i < 2; i++ {
		out, _, err := executeCommand(t, "", "diff", "old.tex", "new.tex", "-o", "out/diff.tex", "--db", db)
		if err != nil {
			t.Fatalf("diff run %d failed: %v", i, err)
		}
		if !strings.Contains(out, "Wrote out/diff.tex") {
			t.Errorf("run %d: unexpected message %q", i, out)
		}
	}

	data, err := os.ReadFile(filepath.Join("out", "diff.tex"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `\textcolor{green}{there.}`) {
		t.Errorf("unexpected output file %q", data)
	}

	out, _, err := executeCommand(t, "", "history", "stats", "--db", db)
	if err != nil {
		t.Fatalf("history stats failed: %v", err)
	}
	if !strings.Contains(out, "Comparisons:     2") {
		t.Errorf("expected 2 comparisons, got %q", out)
	}
	if !strings.Contains(out, "Served by cache: 1") {
		t.Errorf("expected one cached run, got %q", out)
	}

	out, _, err = executeCommand(t, "", "history", "list", "--db", db)
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(out, "old.tex") {
		t.Errorf("expected comparison in list, got %q", out)
	}

	out, _, err = executeCommand(t, "", "history", "clear", "--db", db)
	if err != nil {
		t.Fatalf("history clear failed: %v", err)
	}
	if !strings.Contains(out, "Cleared 2 comparisons and 1 cached outputs.") {
		t.Errorf("unexpected clear message %q", out)
	}
}

func TestDiffCommand_CacheKeyFollowsFlattenedText(t *testing.T) {
	requireGit(t)
	t.Chdir(t.TempDir())
	writeFile(t, "old.tex", "\\begin{document}\nA\n\\end{document}\n")
	db := filepath.Join("state", "history.db")

	// The trailing blank line closes the last paragraph.
	writeFile(t, "new.tex", "\\begin{document}\nA\n\nC\n\n")
	out, _, err := executeCommand(t, "", "diff", "old.tex", "new.tex", "--stdout", "--db", db)
	if err != nil {
		t.Fatalf("first diff failed: %v", err)
	}
	if !strings.Contains(out, `\textcolor{green}{C}`) {
		t.Fatalf("expected C as an addition, got %q", out)
	}

	// Without it the paragraph is dropped, so the cached output must not be reused.
	writeFile(t, "new.tex", "\\begin{document}\nA\n\nC")
	for i := 0; i < 2; i++ {
		out, logs, err := executeCommand(t, "", "diff", "old.tex", "new.tex", "--stdout", "--db", db)
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		if strings.Contains(out, "C") {
			t.Errorf("run %d: dropped paragraph leaked into output %q", i, out)
		}
		if !strings.Contains(logs, "dropped-content") {
			t.Errorf("run %d: expected dropped-content warning, got %q", i, logs)
		}
	}

	out, _, err = executeCommand(t, "", "history", "stats", "--db", db)
	if err != nil {
		t.Fatalf("history stats failed: %v", err)
	}
	if !strings.Contains(out, "Served by cache: 1") {
		t.Errorf("expected only the repeated run to hit the cache, got %q", out)
	}
}

func TestDiffCommand_CachedCountsIgnoreExistingMarkup(t *testing.T) {
	requireGit(t)
	t.Chdir(t.TempDir())
	body := "\\begin{document}\nSee \\textcolor{green}{this}.\n\n%s\n\\end{document}\n"
	writeFile(t, "old.tex", fmt.Sprintf(body, "Old."))
	writeFile(t, "new.tex", fmt.Sprintf(body, "New."))
	db := filepath.Join("state", "history.db")

	var reports []string
	for i := 0; i < 2; i++ {
		out, _, err := executeCommand(t, "", "diff", "old.tex", "new.tex", "-o", "diff.tex", "--db", db)
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		idx := strings.Index(out, "Changes:")
		if idx < 0 {
			t.Fatalf("run %d: missing change report in %q", i, out)
		}
		reports = append(reports, out[idx:])
	}
	if reports[0] != "Changes: 1 additions, 1 deletions\n" {
		t.Errorf("unexpected first report %q", reports[0])
	}
	if reports[1] != reports[0] {
		t.Errorf("cached report %q differs from %q", reports[1], reports[0])
	}
}

func TestHistoryCommand_Empty(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := executeCommand(t, "", "history", "list")
	if err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(out, "No comparisons recorded.") {
		t.Errorf("unexpected output %q", out)
	}
}
