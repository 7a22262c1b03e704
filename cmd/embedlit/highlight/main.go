package highlight

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/embedlit/pkg/grammar"
	"github.com/walteh/embedlit/pkg/highlight"
	"gitlab.com/tozd/go/errors"
)

// hostLanguageByExt maps file extensions to host language identifiers.
var hostLanguageByExt = map[string]string{
	".py": "python",
	".js": "javascript",
	".ts": "typescript",
	".go": "go",
}

type Handler struct {
	grammarsDir string
	configPath  string
	hostLang    string
	jsonOutput  bool
	watch       bool
}

func NewHighlightCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "highlight <glob>...",
		Short: "tokenize annotated string literals and print them highlighted",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().StringVar(&me.grammarsDir, "grammars", "grammars", "directory of <id>.json grammar definitions")
	cmd.Flags().StringVar(&me.configPath, "config", "", "optional config file (HCL or YAML)")
	cmd.Flags().StringVar(&me.hostLang, "lang", "", "host language id (default: by file extension)")
	cmd.Flags().BoolVar(&me.jsonOutput, "json", false, "emit the range mapping as JSON instead of ANSI output")
	cmd.Flags().BoolVar(&me.watch, "watch", false, "re-highlight on file changes")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), args)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, globs []string) error {
	logger := zerolog.Ctx(ctx)

	palette, err := me.applyConfig()
	if err != nil {
		return err
	}

	var opts []grammar.StoreOption
	if len(palette) > 0 {
		opts = append(opts, grammar.WithPalette(palette))
	}
	store := grammar.NewStore(afero.NewOsFs(), me.grammarsDir, opts...)
	coordinator := highlight.NewCoordinator(store)

	files, err := expandGlobs(globs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no files matched")
	}
	logger.Debug().Strs("files", files).Msg("highlighting files")

	renderer := me.renderer()

	for _, file := range files {
		if err := me.highlightFile(ctx, coordinator, renderer, file); err != nil {
			return err
		}
	}

	if me.watch {
		return me.watchFiles(ctx, coordinator, renderer, files)
	}
	return nil
}

func (me *Handler) applyConfig() ([]string, error) {
	if me.configPath == "" {
		return nil, nil
	}
	cfg, err := LoadConfig(me.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(); err != nil {
		return nil, err
	}
	return cfg.Palette, nil
}

func (me *Handler) renderer() highlight.Renderer {
	if me.jsonOutput {
		return &JSONRenderer{Out: os.Stdout}
	}
	return &TermRenderer{Out: os.Stdout}
}

func (me *Handler) highlightFile(ctx context.Context, coordinator *highlight.Coordinator, renderer highlight.Renderer, file string) error {
	logger := zerolog.Ctx(ctx)

	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Errorf("reading %s: %w", file, err)
	}

	lang := me.hostLang
	if lang == "" {
		lang = hostLanguageByExt[strings.ToLower(filepath.Ext(file))]
	}
	if lang == "" {
		logger.Warn().Str("file", file).Msg("cannot determine host language, skipping")
		return nil
	}

	doc := highlight.NewDocument("file://"+file, lang, string(data))
	res, err := coordinator.Highlight(ctx, doc)
	if err != nil {
		return errors.Errorf("highlighting %s: %w", file, err)
	}
	if res.Skipped != nil {
		logger.Warn().Err(res.Skipped).Str("file", file).Msg("some regions were skipped")
	}

	if err := renderer.ApplyHighlights(ctx, doc, res); err != nil {
		return errors.Errorf("rendering %s: %w", file, err)
	}
	return nil
}

// watchFiles re-runs a full highlight pass per write event. Passes are
// never cancelled mid-flight; a newer pass simply replaces the output of
// an older one.
func (me *Handler) watchFiles(ctx context.Context, coordinator *highlight.Coordinator, renderer highlight.Renderer, files []string) error {
	logger := zerolog.Ctx(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, file := range files {
		if err := watcher.Add(file); err != nil {
			return errors.Errorf("watching %s: %w", file, err)
		}
	}
	logger.Info().Int("files", len(files)).Msg("watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug().Str("file", event.Name).Msg("change detected")
			if err := me.highlightFile(ctx, coordinator, renderer, event.Name); err != nil {
				logger.Error().Err(err).Str("file", event.Name).Msg("highlight pass failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func expandGlobs(globs []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range globs {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, errors.Errorf("bad glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}
