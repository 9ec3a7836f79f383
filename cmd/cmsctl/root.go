package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/notioncms/internal/config"
	"github.com/dgallion1/notioncms/internal/content"
	"github.com/dgallion1/notioncms/internal/doctree"
	"github.com/dgallion1/notioncms/internal/entity"
	"github.com/dgallion1/notioncms/internal/notion"
	"github.com/dgallion1/notioncms/internal/render"
)

type options struct {
	locale  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cmsctl",
		Short: "Read CMS content and render pages",
		Long: `cmsctl lists localized site content from Notion and renders page
bodies as JSON, HTML or Word documents. The preview command renders local
files and needs no credentials.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.locale, "locale", "", "content locale, e.g. en or es (default $DEFAULT_LOCALE or en)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newListCmd(opts, "faqs", "List FAQs ordered by their Order field", func(e *env) (any, error) {
			return e.svc.FAQs(e.ctx, e.locale)
		}),
		newListCmd(opts, "team", "List team members", func(e *env) (any, error) {
			return e.svc.TeamMembers(e.ctx, e.locale)
		}),
		newListCmd(opts, "events", "List upcoming events", func(e *env) (any, error) {
			return e.svc.UpcomingEvents(e.ctx, e.locale)
		}),
		newPostsCmd(opts),
		newPageCmd(opts),
		newPreviewCmd(),
	)
	return root
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newService wires a content service from the environment.
func (o *options) newService(cmd *cobra.Command) (*entity.Service, *notion.Client, content.Locale, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, "", err
	}

	raw := o.locale
	if raw == "" {
		raw = cfg.DefaultLocale
	}
	locale, err := content.ParseLocale(raw)
	if err != nil {
		return nil, nil, "", err
	}

	log := o.logger(cmd.ErrOrStderr())
	client, err := notion.NewClient(cfg.NotionToken,
		notion.WithBaseURL(cfg.NotionAPIURL),
		notion.WithVersion(cfg.NotionVersion),
		notion.WithRateLimit(cfg.NotionRPS),
		notion.WithHTTPClient(&http.Client{Timeout: cfg.NotionTimeout}),
		notion.WithLogger(log),
	)
	if err != nil {
		return nil, nil, "", fmt.Errorf("create notion client: %w", err)
	}
	return entity.NewService(client, entity.NewCollections(cfg.Collections), log), client, locale, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkFormat(format string) error {
	switch format {
	case "json", "html", "docx":
		return nil
	}
	return fmt.Errorf("unsupported format %q (want json, html or docx)", format)
}

// writeFormat renders doc to w as json, html or docx.
func writeFormat(w io.Writer, doc doctree.Document, format string) error {
	switch format {
	case "json":
		return printJSON(w, doc)
	case "html":
		return render.HTMLPage(w, doc)
	case "docx":
		return render.DOCX(doc, w)
	}
	return checkFormat(format)
}

// output opens path for writing, or returns stdout when path is empty.
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}
