package spacetraveling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/post"
	"github.com/eringen/spacetraveling/prismic"
)

// ExportStats summarizes a static export.
type ExportStats struct {
	Posts   int
	Skipped int
	Files   int
}

// Export writes the whole site as static files under outDir: the listing
// with every post on it, one page per post, 404.html, the sitemap, the
// feed, robots.txt, and the user static dir under public/.
func (a *App) Export(ctx context.Context, outDir string) (ExportStats, error) {
	var stats ExportStats
	if err := a.initContent(); err != nil {
		return stats, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return stats, fmt.Errorf("spacetraveling: create %s: %w", outDir, err)
	}

	first, err := a.Content.GetByType(ctx, post.Type, prismic.QueryOptions{PageSize: a.Config.PageSize})
	if err != nil {
		return stats, fmt.Errorf("spacetraveling: list posts: %w", err)
	}
	st, err := listing.New(first)
	if err != nil {
		return stats, fmt.Errorf("spacetraveling: list posts: %w", err)
	}
	// nobody can press "load more" on a static page
	st, err = listing.Drain(ctx, a.Content, st)
	if err != nil {
		return stats, fmt.Errorf("spacetraveling: list posts: %w", err)
	}

	home := a.listingPage(st)
	home.Static = true
	if err := RenderFile(ctx, filepath.Join(outDir, "index.html"), a.Views.Home(home)); err != nil {
		return stats, err
	}
	stats.Files++

	for _, s := range st.Posts {
		if !exportableUID(s.UID) {
			stats.Skipped++
			a.log.Warn("export: post uid cannot be a directory name", "uid", s.UID, "title", s.Data.Title)
			continue
		}
		doc, err := a.Content.GetByUID(ctx, post.Type, s.UID)
		if err != nil {
			if errors.Is(err, prismic.ErrNotFound) {
				// unpublished between the listing and this lookup
				stats.Skipped++
				a.log.Warn("export: post disappeared", "uid", s.UID)
				continue
			}
			return stats, fmt.Errorf("spacetraveling: get post %q: %w", s.UID, err)
		}
		detail, err := post.DetailFromDocument(*doc)
		if err != nil {
			return stats, fmt.Errorf("spacetraveling: map post %q: %w", s.UID, err)
		}
		path := filepath.Join(outDir, "post", s.UID, "index.html")
		if err := RenderFile(ctx, path, a.Views.Post(a.postPage(detail))); err != nil {
			return stats, err
		}
		stats.Posts++
		stats.Files++
		a.log.Debug("export: wrote post", "uid", s.UID)
	}

	if err := RenderFile(ctx, filepath.Join(outDir, "404.html"), a.Views.NotFound(a.errorPage("Página não encontrada"))); err != nil {
		return stats, err
	}
	stats.Files++

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"sitemap.xml", func(w io.Writer) error { return WriteSitemap(w, a.Config, st.Posts) }},
		{"feed.xml", func(w io.Writer) error { return WriteFeed(w, a.Config, st.Posts) }},
		{"robots.txt", func(w io.Writer) error { _, err := io.WriteString(w, robotsTxt(a.Config)); return err }},
	}
	for _, wr := range writers {
		var buf bytes.Buffer
		if err := wr.write(&buf); err != nil {
			return stats, fmt.Errorf("spacetraveling: write %s: %w", wr.name, err)
		}
		if err := os.WriteFile(filepath.Join(outDir, wr.name), buf.Bytes(), 0o644); err != nil {
			return stats, fmt.Errorf("spacetraveling: write %s: %w", wr.name, err)
		}
		stats.Files++
	}

	if _, err := os.Stat(a.staticDir); err == nil {
		n, err := copyDirContents(a.staticDir, filepath.Join(outDir, "public"))
		if err != nil {
			return stats, err
		}
		stats.Files += n
	}

	a.log.Info("export complete", "dir", outDir, "posts", stats.Posts, "skipped", stats.Skipped, "files", stats.Files)
	return stats, nil
}

func exportableUID(uid string) bool {
	return uid != "" && uid != "." && uid != ".." && !strings.ContainsAny(uid, `/\`)
}

// copyDirContents recursively copies the files under src into dst and
// returns how many files it copied.
func copyDirContents(src, dst string) (int, error) {
	n := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("spacetraveling: relative path for %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, os.ModePerm)
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("spacetraveling: open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("spacetraveling: create %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("spacetraveling: create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("spacetraveling: copy %s: %w", src, err)
	}
	return out.Close()
}
