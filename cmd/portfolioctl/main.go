package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/folio-labs/portfolio-api/internal/admin"
	"github.com/folio-labs/portfolio-api/internal/archive"
	"github.com/folio-labs/portfolio-api/internal/bootstrap"
	"github.com/folio-labs/portfolio-api/internal/config"
	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/folio-labs/portfolio-api/internal/contact/service"
	"github.com/folio-labs/portfolio-api/pkg/logger"
	"github.com/spf13/cobra"
)

// bucket is the archive destination: an uploader that can also hand out
// time-limited download links.
type bucket interface {
	archive.Uploader
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// app holds what the commands need; tests swap the openers.
type app struct {
	cfg         *config.Config
	openStore   func(ctx context.Context, cfg *config.Config) (*bootstrap.Store, error)
	openArchive func(ctx context.Context, cfg *config.Config) (bucket, error)
	now         func() time.Time
}

func newApp(cfg *config.Config) *app {
	return &app{
		cfg:       cfg,
		openStore: bootstrap.OpenStore,
		openArchive: func(ctx context.Context, cfg *config.Config) (bucket, error) {
			return bootstrap.OpenArchive(ctx, cfg)
		},
		now: time.Now,
	}
}

func (a *app) withStore(ctx context.Context, fn func(st *bootstrap.Store) error) error {
	st, err := a.openStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(context.Background()) }()
	return fn(st)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portfolioctl",
		Short: "Operate the portfolio contact inbox",
		Long: `portfolioctl works directly against the configured contact store
(MONGODB_URI, DATABASE_URL). It reads the same environment and .env file as
the API server.`,
		SilenceUsage: true,
	}
	root.AddCommand(a.listCmd(), a.markReadCmd(), a.archiveCmd(), a.tokenCmd())
	return root
}

func (a *app) listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unread, _ := cmd.Flags().GetBool("unread")
			limit, _ := cmd.Flags().GetInt("limit")
			page, _ := cmd.Flags().GetInt("page")
			asJSON, _ := cmd.Flags().GetBool("json")

			var f contact.ListFilter
			if unread {
				no := false
				f.IsRead = &no
			}
			return a.withStore(cmd.Context(), func(st *bootstrap.Store) error {
				res, err := service.New(st, nil).List(cmd.Context(), f, page, limit)
				if err != nil {
					return err
				}
				return printPage(cmd.OutOrStdout(), res, asJSON)
			})
		},
	}
	cmd.Flags().Bool("unread", false, "only show submissions not yet marked read")
	cmd.Flags().Int("limit", service.DefaultPageSize, "submissions per page (max 100)")
	cmd.Flags().Int("page", 1, "page to show")
	cmd.Flags().Bool("json", false, "print the page as JSON")
	return cmd
}

func printPage(w io.Writer, p *contact.Page, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECEIVED\tREAD\tNAME\tEMAIL\tMESSAGE")
	for _, it := range p.Items {
		read := "no"
		if it.IsRead {
			read = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.CreatedAt.UTC().Format(time.RFC3339), read, it.Name, it.Email, excerpt(it.Message, 40))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d of %d, %d total\n", p.Page, p.Pages, p.Total)
	return err
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (a *app) markReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read <id>",
		Short: "Mark a submission as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(st *bootstrap.Store) error {
				s, err := service.New(st, nil).MarkRead(cmd.Context(), args[0])
				if errors.Is(err, contact.ErrNotFound) {
					return fmt.Errorf("contact %s not found", args[0])
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "marked %s (%s) as read\n", s.ID, s.Email)
				return err
			})
		},
	}
}

func (a *app) archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Upload a JSON snapshot of every submission to the archive bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.MinIO.Enabled() {
				return errors.New("archive bucket is not configured (set MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY)")
			}
			presign, _ := cmd.Flags().GetDuration("presign")
			b, err := a.openArchive(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st *bootstrap.Store) error {
				key, n, err := archive.NewArchiver(b).WithClock(a.now).Snapshot(cmd.Context(), st)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "archived %d submissions to %s/%s\n", n, a.cfg.MinIO.Bucket, key)
				if presign > 0 {
					url, err := b.PresignedURL(cmd.Context(), key, presign)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, url)
				}
				return nil
			})
		},
	}
	cmd.Flags().Duration("presign", 0, "also print a download link valid for this long (e.g. 1h)")
	return cmd
}

func (a *app) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token for the listing and mark-read endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				ttl = a.cfg.Admin.TokenTTL
			}
			iss, err := admin.NewIssuer(a.cfg.Admin.JWTSecret)
			if errors.Is(err, admin.ErrEmptySecret) {
				return errors.New("ADMIN_JWT_SECRET is not set")
			}
			if err != nil {
				return err
			}
			tok, err := iss.Mint(subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().String("subject", "admin", "token subject")
	cmd.Flags().Duration("ttl", 0, "token lifetime (default ADMIN_TOKEN_TTL_MINUTES)")
	return cmd
}

func run() int {
	logger.SetOutput(os.Stderr)
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	if err := newApp(cfg).rootCmd().ExecuteContext(context.Background()); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
