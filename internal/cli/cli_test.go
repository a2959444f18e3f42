package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/meshmap/pkg/cache"
	"github.com/matzehuels/meshmap/pkg/config"
	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/pipeline"
	"github.com/matzehuels/meshmap/pkg/source"
	"github.com/matzehuels/meshmap/pkg/topology"
)

const testTopology = "../../pkg/topology/testdata/networkmap.json"

// writeConfig writes a config file that keeps tests away from the user's
// cache and config directories.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns the CLI it ran on.
func execute(t *testing.T, args ...string) (*CLI, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return c, root.ExecuteContext(context.Background())
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces and case", " SVG , dot,", []string{"svg", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		fallback string
		formats  []string
		want     map[string]string
	}{
		{"derived from input", "", "maps/home.json", []string{"svg"}, map[string]string{"svg": "maps/home.svg"}},
		{"explicit file", "out.png", "home.json", []string{"png"}, map[string]string{"png": "out.png"}},
		{"base path", "out/mesh", "home.json", []string{"svg", "dot"}, map[string]string{"svg": "out/mesh.svg", "dot": "out/mesh.dot"}},
		{"format extension stripped", "mesh.svg", "home.json", []string{"svg", "json"}, map[string]string{"svg": "mesh.svg", "json": "mesh.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, tt.fallback, tt.formats)
			for f, want := range tt.want {
				if got[f] != want {
					t.Errorf("path[%s] = %q, want %q", f, got[f], want)
				}
			}
		})
	}
}

func TestOutputFormats(t *testing.T) {
	tests := []struct {
		output  string
		formats []string
		want    string
		wantErr bool
	}{
		{"", nil, "svg", false},
		{"map.jpeg", nil, "jpg", false},
		{"map.png", []string{"dot"}, "dot", false},
		{"out/base", nil, "svg", false},
		{"map.gif", nil, "", true},
	}

	for _, tt := range tests {
		got, err := outputFormats(tt.output, tt.formats)
		if (err != nil) != tt.wantErr {
			t.Errorf("outputFormats(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
			continue
		}
		if err == nil && strings.Join(got, ",") != tt.want {
			t.Errorf("outputFormats(%q) = %v, want %s", tt.output, got, tt.want)
		}
	}
}

func TestSourceOptions(t *testing.T) {
	cfg := config.SourceConfig{Kind: "mongo", URI: "mongodb://db", Database: "meshmap", Collection: "networkmap"}

	tests := []struct {
		name  string
		flags sourceFlags
		path  string
		want  source.Options
	}{
		{"config only", sourceFlags{}, "", source.Options{Kind: "mongo", URI: "mongodb://db", Database: "meshmap", Collection: "networkmap"}},
		{"file argument", sourceFlags{}, "map.yaml", source.Options{Kind: "file", Path: "map.yaml", URI: "mongodb://db", Database: "meshmap", Collection: "networkmap"}},
		{"sqlite argument", sourceFlags{}, "mesh.DB", source.Options{Kind: "sqlite", Path: "mesh.DB", URI: "mongodb://db", Database: "meshmap", Collection: "networkmap"}},
		{"flags override", sourceFlags{kind: "mongo", uri: "mongodb://other", collection: "maps"}, "", source.Options{Kind: "mongo", URI: "mongodb://other", Database: "meshmap", Collection: "maps"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.options(cfg, tt.path); got != tt.want {
				t.Errorf("options() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	c := New(io.Discard, LogInfo)

	c.Config.Cache.Backend = config.CacheNone
	if cc, _ := c.newCache(ctx, false); !cache.Disabled(cc) {
		t.Errorf("backend none: got %T", cc)
	}

	c.Config.Cache.Backend = config.CacheFile
	c.Config.Cache.Dir = t.TempDir()
	cc, err := c.newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if fc, ok := cc.(*cache.FileCache); !ok || fc.Dir() != c.Config.Cache.Dir {
		t.Errorf("backend file: got %T", cc)
	}
	if cc, _ := c.newCache(ctx, true); !cache.Disabled(cc) {
		t.Errorf("noCache: got %T", cc)
	}

	c.Config.Cache.Backend = config.CacheRedis
	c.Config.Cache.RedisAddr = "127.0.0.1:1"
	if cc, err := c.newCache(ctx, false); err != nil || !cache.Disabled(cc) {
		t.Errorf("unreachable redis: got %T, %v; want null cache", cc, err)
	}
}

func TestRootLoadsConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, "[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	c, err := execute(t, "--config", cfg, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if c.Config.Cache.Dir != filepath.ToSlash(dir) {
		t.Errorf("cache dir = %q, want %q", c.Config.Cache.Dir, dir)
	}
}

func TestRootRejectsBadConfig(t *testing.T) {
	cfg := writeConfig(t, "[cache]\nbackend = \"memcached\"\n")

	_, err := execute(t, "--config", cfg, "cache", "path")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestRenderCommand(t *testing.T) {
	cfg := writeConfig(t, "[cache]\nbackend = \"none\"\n")
	base := filepath.Join(t.TempDir(), "out", "mesh")

	_, err := execute(t, "--config", cfg, "render", testTopology, "-f", "svg,dot,json", "-o", base, "--ticks", "50")
	if err != nil {
		t.Fatal(err)
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil || !strings.HasPrefix(string(svg), "<svg") {
		t.Errorf("svg output: %v %.40q", err, svg)
	}
	dot, err := os.ReadFile(base + ".dot")
	if err != nil || !strings.Contains(string(dot), "graph G {") {
		t.Errorf("dot output: %v %.40q", err, dot)
	}
	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	var layout struct {
		Nodes []struct {
			ID string  `json:"id"`
			X  float64 `json:"x"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(data, &layout); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if len(layout.Nodes) != 3 {
		t.Errorf("json output has %d nodes, want 3", len(layout.Nodes))
	}
}

func TestRenderCommandRejects(t *testing.T) {
	cfg := writeConfig(t, "[cache]\nbackend = \"none\"\n")
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad format", []string{"render", testTopology, "-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"bad output extension", []string{"render", testTopology, "-o", filepath.Join(dir, "x.gif")}, errors.ErrCodeInvalidFormat},
		{"missing file", []string{"render", filepath.Join(dir, "missing.json")}, errors.ErrCodeFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", cfg}, tt.args...)...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestImportThenRender(t *testing.T) {
	cfg := writeConfig(t, "[cache]\nbackend = \"none\"\n")
	dir := t.TempDir()
	db := filepath.Join(dir, "mesh.db")

	if _, err := execute(t, "--config", cfg, "import", testTopology, "--to", "sqlite", "--db", db); err != nil {
		t.Fatal(err)
	}

	src, err := source.OpenSQLite(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	g, err := src.Load(context.Background())
	src.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 3 || len(g.Links) != 2 {
		t.Fatalf("imported %d nodes, %d links; want 3, 2", len(g.Nodes), len(g.Links))
	}

	out := filepath.Join(dir, "from-db.svg")
	if _, err := execute(t, "--config", cfg, "render", db, "-o", out, "--ticks", "20"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("render from sqlite: %v", err)
	}
}

func TestImportRejectsFileTarget(t *testing.T) {
	cfg := writeConfig(t, "[source]\nkind = \"file\"\n")
	_, err := execute(t, "--config", cfg, "import", testTopology)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshmap", "config.toml")

	if _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Server.Addr != config.Default().Server.Addr {
		t.Errorf("server addr = %q, want default", cfg.Server.Addr)
	}

	if _, err := execute(t, "--config", path, "config", "init"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second init error = %v, want INVALID_INPUT", err)
	}
	if _, err := execute(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, "[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	if _, err := execute(t, "--config", cfg, "render", testTopology, "-o", filepath.Join(t.TempDir(), "m.svg"), "--ticks", "20"); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) == 0 {
		t.Fatal("render left the cache empty")
	}

	if _, err := execute(t, "--config", cfg, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	entries, _ = os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache has %d entries after clear", len(entries))
	}
}

func TestInspectTables(t *testing.T) {
	g, err := topology.DecodeFile(testTopology)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()

	devices := deviceTable(g, now)
	for _, want := range []string{"Device", "Coordinator", "hallway plug", "TRADFRI control outlet", "bedroom sensor"} {
		if !strings.Contains(devices, want) {
			t.Errorf("device table missing %q", want)
		}
	}
	if strings.Index(devices, "Coordinator") > strings.Index(devices, "bedroom sensor") {
		t.Error("coordinator is not listed first")
	}

	linkRows := linkTable(g)
	for _, want := range []string{"LQI", "142", "87", "Router2Coordinator"} {
		if !strings.Contains(linkRows, want) {
			t.Errorf("link table missing %q", want)
		}
	}

	if _, err := execute(t, "--config", writeConfig(t, ""), "inspect", testTopology, "--links"); err != nil {
		t.Errorf("inspect: %v", err)
	}
}

func TestCompleteFormats(t *testing.T) {
	got, _ := completeFormats(nil, nil, "svg,p")
	for _, s := range got {
		if !strings.HasPrefix(s, "svg,") {
			t.Errorf("completion %q lost the typed prefix", s)
		}
		if s == "svg,svg" {
			t.Error("already listed format offered again")
		}
	}
	if len(got) != len(pipeline.ValidFormats)-1 {
		t.Errorf("got %d completions, want %d", len(got), len(pipeline.ValidFormats)-1)
	}
}

func TestNewRunnerScopesKeys(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Cache.Prefix = "garage:"

	r, err := c.newRunner(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Keyer.TopologyKey("mesh.json", "last"); got != "garage:topology:mesh.json:last" {
		t.Errorf("TopologyKey = %q", got)
	}
}
