package cli

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/storyline/db/pkg/sqlitelocal"
	"github.com/the-dev-tools/storyline/pkg/ordering"
)

type harness struct {
	t      *testing.T
	config string
	dbPath string
}

func newHarness(t *testing.T, extra string) *harness {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "storyline.db")
	config := filepath.Join(dir, "storyline.yaml")
	body := "database:\n  path: " + dbPath + "\nlog:\n  level: error\n" + extra
	require.NoError(t, os.WriteFile(config, []byte(body), 0o600))
	return &harness{t: t, config: config, dbPath: dbPath}
}

func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", h.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, stderr, err := h.run(args...)
	require.NoError(h.t, err, "stderr: %s", stderr)
	return out
}

type listed struct {
	Title     string `json:"title"`
	Placement struct {
		Active bool   `json:"active"`
		Index  *int64 `json:"index"`
	} `json:"placement"`
}

func (h *harness) positions(entity string, args ...string) map[string]*int64 {
	h.t.Helper()
	out := h.mustRun(append([]string{entity, "list", "-o", "json"}, args...)...)
	var rows []listed
	require.NoError(h.t, json.Unmarshal([]byte(out), &rows))
	got := make(map[string]*int64, len(rows))
	for _, r := range rows {
		got[r.Title] = r.Placement.Index
	}
	return got
}

func n(i int64) *int64 { return &i }

func TestCLIStoryScenario(t *testing.T) {
	h := newHarness(t, "")

	for _, title := range []string{"Alpha", "Bravo", "Charlie"} {
		h.mustRun("story", "create", title)
	}
	assert.Equal(t, map[string]*int64{"Alpha": n(1), "Bravo": n(2), "Charlie": n(3)}, h.positions("story"))

	out := h.mustRun("story", "move", "charlie", "1")
	assert.Contains(t, out, "#1")
	h.mustRun("story", "exclude", "Bravo")
	h.mustRun("story", "delete", "Alpha")
	h.mustRun("story", "include", "Bravo")
	assert.Equal(t, map[string]*int64{"Bravo": n(2), "Charlie": n(1)}, h.positions("story"))

	text := h.mustRun("story", "list")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1 "), lines[1])
	assert.Contains(t, lines[1], "Charlie")

	_, _, err := h.run("story", "move", "Charlie", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in [1, 2]")
}

func TestCLIHierarchy(t *testing.T) {
	h := newHarness(t, "")

	h.mustRun("story", "create", "Northern Saga")
	h.mustRun("story", "create", "Southern Tale")
	h.mustRun("adventure", "create", "Frozen Pass", "--story", "northern")
	h.mustRun("adventure", "create", "Ice Cave", "--story", "Northern Saga", "--index", "1")
	h.mustRun("quest", "create", "Find the map", "--adventure", "frozen", "--image", "map.png")

	assert.Equal(t, map[string]*int64{"Ice Cave": n(1), "Frozen Pass": n(2)},
		h.positions("adventure", "--story", "Northern Saga"))

	h.mustRun("adventure", "update", "Ice Cave", "--story", "southern")
	assert.Equal(t, map[string]*int64{"Frozen Pass": n(1)}, h.positions("adventure", "--story", "Northern Saga"))
	assert.Equal(t, map[string]*int64{"Ice Cave": n(1)}, h.positions("adventure", "--story", "Southern Tale"))

	h.mustRun("story", "delete", "Northern Saga")
	assert.Empty(t, h.positions("quest"))
	assert.Equal(t, map[string]*int64{"Southern Tale": n(1)}, h.positions("story"))

	_, _, err := h.run("adventure", "create", "Orphan", "--story", "nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestCLIVerify(t *testing.T) {
	h := newHarness(t, "")
	h.mustRun("story", "create", "One")
	h.mustRun("story", "create", "Two")

	out := h.mustRun("verify")
	assert.Contains(t, out, "3 entities verified")

	db, closeDB, err := sqlitelocal.Open(context.Background(), sqlitelocal.Config{Path: h.dbPath})
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE story SET story_num = 7 WHERE title = 'Two'`)
	require.NoError(t, err)
	closeDB()

	out, _, err = h.run("verify")
	assert.ErrorIs(t, err, ErrViolations)
	assert.Contains(t, out, "story group global")
}

func TestCLIEventsAndMetrics(t *testing.T) {
	h := newHarness(t, "events: true\nmetrics:\n  dump: true\n")

	_, stderr, err := h.run("story", "create", "Watched")
	require.NoError(t, err)

	var events []map[string]any
	sc := bufio.NewScanner(strings.NewReader(stderr))
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "{") {
			var evt map[string]any
			require.NoError(t, json.Unmarshal(sc.Bytes(), &evt))
			events = append(events, evt)
		}
	}
	require.Len(t, events, 1)
	assert.Equal(t, "story", events[0]["entity"])
	assert.Equal(t, "insert", events[0]["op"])
	assert.Contains(t, stderr, "storyline_ordering_operations")
}

func TestCLIMigrate(t *testing.T) {
	dir := t.TempDir()
	h := &harness{t: t, config: filepath.Join(dir, "storyline.yaml"), dbPath: filepath.Join(dir, "storyline.db")}
	backupDir := filepath.Join(dir, "backups")
	body := "database:\n  path: " + h.dbPath + "\n  auto_migrate: false\n" +
		"log:\n  level: error\n" +
		"backup:\n  dir: " + backupDir + "\n"
	require.NoError(t, os.WriteFile(h.config, []byte(body), 0o600))

	out := h.mustRun("migrate", "--pending")
	assert.Equal(t, 2, strings.Count(out, "\n"))

	out = h.mustRun("migrate", "--backup")
	assert.Contains(t, out, "schema up to date")
	assert.Empty(t, h.mustRun("migrate", "--pending"))

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	db, closeDB, err := sqlitelocal.Open(context.Background(), sqlitelocal.Config{Path: h.dbPath})
	require.NoError(t, err)
	defer closeDB()
	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE name = 'quest_num_active_idx'`).Scan(&name))
	assert.Equal(t, "quest_num_active_idx", name)
}

func TestCLIVersion(t *testing.T) {
	h := newHarness(t, "")
	assert.Equal(t, "storyline v0.0.0\n", h.mustRun("version"))
}

func TestMatchTitle(t *testing.T) {
	t.Parallel()

	titles := []string{"Frozen Pass", "Ice Cave", "Ice Castle"}
	tests := []struct {
		query string
		want  int
		err   error
	}{
		{"ice cave", 1, nil},
		{"frozen", 0, nil},
		{"castle", 2, nil},
		{"dragon", -1, ErrNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			got, err := matchTitle(titles, tt.query)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := matchTitle([]string{"Red Door", "Red Doom"}, "red do")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	h := newHarness(t, "")
	t.Setenv("STORYLINE_OUTPUT", "json")

	cfg, err := loadConfig(viper.New(), h.config)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, h.dbPath, cfg.Database.Path)
	assert.Equal(t, 3, cfg.Retry.Attempts)

	t.Setenv("STORYLINE_OUTPUT", "yaml")
	_, err = loadConfig(viper.New(), h.config)
	assert.ErrorContains(t, err, "unknown format")
}

func TestLoadDescriptors(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "descriptors.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	ds, err := loadDescriptors(write(t, `descriptors:
  - entity: story
    order_column: story_num
  - entity: chapter
    order_column: chapter_num
    parent_column: story_id
`))
	require.NoError(t, err)
	require.Len(t, ds, 4)
	assert.Equal(t, "chapter_num", ds.MustGet("chapter").OrderColumn)

	_, err = loadDescriptors(write(t, `descriptors:
  - entity: quest
    order_column: position
    parent_column: adventure_id
`))
	assert.ErrorIs(t, err, ordering.ErrBuiltinOverride)
}
