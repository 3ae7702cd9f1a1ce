package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/folio-labs/portfolio-api/internal/admin"
	"github.com/folio-labs/portfolio-api/internal/archive"
	"github.com/folio-labs/portfolio-api/internal/bootstrap"
	"github.com/folio-labs/portfolio-api/internal/config"
	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/folio-labs/portfolio-api/internal/contact/repository"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	objects map[string][]byte
}

func (f *fakeBucket) UploadFile(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeBucket) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://minio.local/portfolio-archive/" + key + "?X-Amz-Signature=abc", nil
}

func seededApp(t *testing.T) (*app, *repository.MemoryRepo, *fakeBucket) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, name := range []string{"Ada", "Grace", "Linus"} {
		_, err := repo.Insert(context.Background(), &contact.Submission{
			Name:      name,
			Email:     strings.ToLower(name) + "@example.com",
			Message:   "hello from " + name,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	b := &fakeBucket{objects: map[string][]byte{}}
	cfg := &config.Config{
		Admin: config.AdminConfig{JWTSecret: "0123456789abcdef0123456789abcdef", TokenTTL: time.Hour},
		MinIO: config.MinIOConfig{Endpoint: "minio.local:9000", AccessKey: "k", SecretKey: "s", Bucket: "portfolio-archive"},
	}
	a := &app{
		cfg: cfg,
		openStore: func(context.Context, *config.Config) (*bootstrap.Store, error) {
			return &bootstrap.Store{
				Store: repo,
				Kind:  "memory",
				Close: func(context.Context) error { return nil },
			}, nil
		},
		openArchive: func(context.Context, *config.Config) (bucket, error) { return b, nil },
		now:         func() time.Time { return base.Add(time.Hour) },
	}
	return a, repo, b
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := a.rootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList(t *testing.T) {
	a, _, _ := seededApp(t)
	out, err := execute(t, a, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	require.Contains(t, lines[0], "RECEIVED")
	require.Contains(t, lines[1], "Linus")
	require.Contains(t, lines[3], "Ada")
	require.Equal(t, "page 1 of 1, 3 total", lines[4])
}

func TestList_UnreadJSON(t *testing.T) {
	a, repo, _ := seededApp(t)
	all, err := repo.Query(context.Background(), contact.ListFilter{}, repository.NewestFirst, 0, 0)
	require.NoError(t, err)
	_, err = execute(t, a, "mark-read", all[0].ID)
	require.NoError(t, err)

	out, err := execute(t, a, "list", "--unread", "--limit", "1", "--json")
	require.NoError(t, err)
	var page contact.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.EqualValues(t, 2, page.Total)
	require.Equal(t, 2, page.Pages)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Grace", page.Items[0].Name)
}

func TestMarkRead(t *testing.T) {
	a, repo, _ := seededApp(t)
	all, err := repo.Query(context.Background(), contact.ListFilter{}, repository.NewestFirst, 0, 0)
	require.NoError(t, err)

	out, err := execute(t, a, "mark-read", all[1].ID)
	require.NoError(t, err)
	require.Contains(t, out, "grace@example.com")

	_, err = execute(t, a, "mark-read", "missing")
	require.EqualError(t, err, "contact missing not found")

	_, err = execute(t, a, "mark-read")
	require.Error(t, err)
}

func TestArchive(t *testing.T) {
	a, _, b := seededApp(t)
	out, err := execute(t, a, "archive", "--presign", "1h")
	require.NoError(t, err)

	key := archive.Key(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	require.Contains(t, out, "archived 3 submissions to portfolio-archive/"+key)
	require.Contains(t, out, "X-Amz-Signature")

	var snap archive.Snapshot
	require.NoError(t, json.Unmarshal(b.objects[key], &snap))
	require.Equal(t, 3, snap.Count)

	a.cfg.MinIO = config.MinIOConfig{}
	_, err = execute(t, a, "archive")
	require.ErrorContains(t, err, "archive bucket is not configured")
}

func TestToken(t *testing.T) {
	a, _, _ := seededApp(t)
	out, err := execute(t, a, "token", "--subject", "owner", "--ttl", "5m")
	require.NoError(t, err)

	iss, err := admin.NewIssuer(a.cfg.Admin.JWTSecret)
	require.NoError(t, err)
	tok, err := iss.Verify(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	var claims struct {
		Sub  string `json:"sub"`
		Role string `json:"role"`
	}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "owner", claims.Sub)
	require.Equal(t, admin.RoleAdmin, claims.Role)

	a.cfg.Admin.JWTSecret = ""
	_, err = execute(t, a, "token")
	require.EqualError(t, err, "ADMIN_JWT_SECRET is not set")
}
