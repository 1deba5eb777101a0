package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/unwindgen/config"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unwindgen %s: %v", strings.Join(args, " "), err)
	}

	return out.String()
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()

	out := execute(t, "generate", "-c", "testdata/unwindgen.yaml", "-o", dir)

	for _, name := range []string{"unwind_ffi.cpp", "unwind_ffi.rs"} {
		path := filepath.Join(dir, name)
		if !strings.Contains(out, "Generated: "+path) {
			t.Errorf("output does not report %s:\n%s", path, out)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if !strings.Contains(string(data), "jpeg_finish_compress_unwind") {
			t.Errorf("%s lacks the jpeg_finish_compress wrapper", name)
		}
		if strings.Contains(string(data), "jpeg_std_error") {
			t.Errorf("%s wraps the skipped jpeg_std_error", name)
		}
	}
}

func TestListCommand(t *testing.T) {
	out := execute(t, "list", "-c", "testdata/unwindgen.yaml")

	for _, want := range []string{
		"skip  pub fn jpeg_std_error<'a>(err: &'a mut jpeg_error_mgr) -> *mut jpeg_error_mgr\n",
		"wrap  pub fn jpeg_quality_scaling(quality: c_int) -> c_int\n",
		"wrap  pub fn jpeg_mem_src(cinfo: &mut jpeg_decompress_struct, inbuffer: *const u8, insize: c_ulong)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("list output lacks %q:\n%s", want, out)
		}
	}
}

func TestMapTypeCommand(t *testing.T) {
	out := execute(t, "map-type", "-c", "testdata/unwindgen.yaml", "*mut *mut u8", "&jpeg_decompress_struct")

	want := "*mut *mut u8 => uint8_t * *\n&jpeg_decompress_struct => jpeg_decompress_struct const *\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

// touchUntil rewrites path until regenerate reports a call and returns
// what it reported. The watcher may not be registered yet, so one write is
// not enough.
func touchUntil(t *testing.T, path string, calls <-chan string) string {
	t.Helper()

	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case got := <-calls:
			return got
		case <-ticker.C:
			if err := os.WriteFile(path, []byte("extern { fn f(); }"), 0644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatalf("regenerate was not called after writing %s", path)
		}
	}
}

func TestWatchFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffi.rs")
	if err := os.WriteFile(path, []byte("extern {}"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, func() []string { return []string{path} }, func() error {
			select {
			case calls <- path:
			default:
			}
			return nil
		})
	}()

	touchUntil(t, path, calls)

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watchFiles: %v", err)
	}
}

func TestWatchFilesFollowsNewInput(t *testing.T) {
	first := filepath.Join(t.TempDir(), "ffi.rs")
	second := filepath.Join(t.TempDir(), "ffi.rs")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte("extern {}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// current is only touched by the watcher goroutine.
	current := first
	calls := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, func() []string { return []string{current} }, func() error {
			select {
			case calls <- current:
			default:
			}
			current = second
			return nil
		})
	}()

	if got := touchUntil(t, first, calls); got != first {
		t.Fatalf("first regeneration reported %s", got)
	}
	if got := touchUntil(t, second, calls); got != second {
		t.Errorf("regeneration after the input moved reported %s, want %s", got, second)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watchFiles: %v", err)
	}
}

func TestWatchPaths(t *testing.T) {
	saved := configPath
	t.Cleanup(func() { configPath = saved })

	cfg := config.Config{Input: "ffi.rs"}

	configPath = ""
	if got, want := watchPaths(cfg), []string{"ffi.rs", config.DefaultFile}; !slices.Equal(got, want) {
		t.Errorf("without --config: got %v, want %v", got, want)
	}

	configPath = "testdata/unwindgen.yaml"
	if got, want := watchPaths(cfg), []string{"ffi.rs", "testdata/unwindgen.yaml"}; !slices.Equal(got, want) {
		t.Errorf("with --config: got %v, want %v", got, want)
	}
}
