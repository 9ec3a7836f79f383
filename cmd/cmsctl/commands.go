package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/notioncms/internal/content"
	"github.com/dgallion1/notioncms/internal/entity"
	"github.com/dgallion1/notioncms/internal/parser"
)

// env carries what a content command needs.
type env struct {
	ctx    context.Context
	svc    *entity.Service
	locale content.Locale
}

func (o *options) run(cmd *cobra.Command, fn func(*env) error) error {
	svc, client, locale, err := o.newService(cmd)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(&env{ctx: cmd.Context(), svc: svc, locale: locale})
}

func newListCmd(opts *options, use, short string, list func(*env) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(e *env) error {
				items, err := list(e)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}
}

func newPostsCmd(opts *options) *cobra.Command {
	var limit int
	var slug string

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List published blog posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return opts.run(cmd, func(e *env) error {
				if slug != "" {
					post, err := e.svc.PostBySlug(e.ctx, slug, e.locale)
					if err != nil {
						return err
					}
					if post == nil {
						return fmt.Errorf("post %q not found", slug)
					}
					return printJSON(cmd.OutOrStdout(), post)
				}
				posts, err := e.svc.Posts(e.ctx, e.locale, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), posts)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of posts")
	cmd.Flags().StringVar(&slug, "slug", "", "fetch a single post by slug")
	return cmd
}

func newPageCmd(opts *options) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "page <page-id>",
		Short: "Render a page body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return opts.run(cmd, func(e *env) error {
				doc, err := e.svc.PageDocument(e.ctx, args[0])
				if err != nil {
					return err
				}
				w, closeOut, err := output(cmd, out)
				if err != nil {
					return err
				}
				return errors.Join(writeFormat(w, doc, format), closeOut())
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "html", "output format: json, html or docx")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Render a local Markdown, HTML, DOCX, PDF or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			p, err := parser.ForFile(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			defer f.Close()

			src, err := p.Parse(f, args[0])
			if err != nil {
				return err
			}
			w, closeOut, err := output(cmd, out)
			if err != nil {
				return err
			}
			return errors.Join(writeFormat(w, src.Document(), format), closeOut())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "html", "output format: json, html or docx")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
