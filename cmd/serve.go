package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Jeyveen7/40-avocados/internal/config"
	"github.com/Jeyveen7/40-avocados/internal/site"
)

var serverPort int

var serveCmd = &cobra.Command{
	Use:   "serve CONFIG OUTPUT_DIR",
	Short: "Generate the site, serve it locally and regenerate on changes",
	Long: `The serve command wipes and regenerates OUTPUT_DIR, serves it over HTTP and
watches the configuration file and the template, regenerating the site
whenever either changes. Index links point at the served paths.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), args[0], args[1])
	},
}

// rebuilder regenerates the whole site from scratch. Calls are serialized.
type rebuilder struct {
	mu         sync.Mutex
	settings   config.Settings
	configPath string
	outDir     string
}

func (r *rebuilder) rebuild(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.RemoveAll(r.outDir); err != nil {
		return fmt.Errorf("failed to remove output directory '%s': %w", r.outDir, err)
	}
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory '%s': %w", r.outDir, err)
	}
	_, err := site.New(r.settings, nil).Generate(ctx, r.configPath, r.outDir)
	return err
}

func runServe(ctx context.Context, configPath, outDir string) error {
	if err := checkServeOutputDir(outDir); err != nil {
		return err
	}

	s := settings
	if s.LinkBase == "" {
		s.LinkBase = "/"
	}
	r := &rebuilder{settings: s, configPath: configPath, outDir: outDir}

	slog.Info("performing initial build")
	if err := r.rebuild(ctx); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := watchedFiles(configPath, s.Template)
	for dir := range watchedDirs(watched) {
		if err := watcher.Add(dir); err != nil {
			slog.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}

	go watch(ctx, watcher, watched, func() {
		slog.Info("rebuilding site due to changes")
		if err := r.rebuild(ctx); err != nil {
			slog.Error("rebuild failed", "error", err)
			return
		}
		slog.Info("site rebuilt")
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", serverPort),
		Handler:           siteHandler(outDir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("serving site", "dir", outDir, "url", fmt.Sprintf("http://localhost:%d", serverPort))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// checkServeOutputDir refuses output directories whose removal would take
// the working directory or the filesystem root with it.
func checkServeOutputDir(outDir string) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if abs == filepath.Dir(abs) || abs == wd || strings.HasPrefix(wd, abs+string(filepath.Separator)) {
		return fmt.Errorf("refusing to serve from '%s': it is wiped on every rebuild", outDir)
	}
	return nil
}

// watchedFiles returns the cleaned absolute paths of files.
func watchedFiles(files ...string) map[string]bool {
	out := make(map[string]bool, len(files))
	for _, f := range files {
		if abs, err := filepath.Abs(f); err == nil {
			out[abs] = true
		}
	}
	return out
}

// watchedDirs returns the directories holding files. Editors often replace
// files by renaming, so the parent directory is watched rather than the file.
func watchedDirs(files map[string]bool) map[string]bool {
	dirs := make(map[string]bool, len(files))
	for f := range files {
		dirs[filepath.Dir(f)] = true
	}
	return dirs
}

func isRelevant(event fsnotify.Event, files map[string]bool) bool {
	if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return files[abs]
}

func watch(ctx context.Context, watcher *fsnotify.Watcher, files map[string]bool, rebuild func()) {
	var buildTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if buildTimer != nil {
				buildTimer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isRelevant(event, files) {
				continue
			}
			slog.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if buildTimer != nil {
				buildTimer.Stop()
			}
			buildTimer = time.AfterFunc(config.DefaultDebounceDelay, rebuild)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// siteHandler serves dir without directory listings and with caching
// disabled.
func siteHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") && r.URL.Path != "/" {
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(r.URL.Path), "index.html")); os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
		}
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		fs.ServeHTTP(w, r)
	})
}

func init() {
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", config.DefaultServePort, "Port to serve the site on")
	rootCmd.AddCommand(serveCmd)
}
