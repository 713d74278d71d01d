package mirror

import (
	"bytes"
	"context"
	"strings"

	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/forkly/model/slot"
	"github.com/viant/forkly/tracing"
	"github.com/viant/toolbox"
)

// tree addresses one side of a copy: a base URL plus the storage options
// needed to access it.
type tree struct {
	baseURL string
	options []storage.Option
}

// Push copies the source tree into every destination before the run. It is
// best effort: a destination that cannot be resolved or written is logged
// and skipped, never fatal.
func (s *Service) Push(ctx context.Context, table *slot.Table) (err error) {
	ctx, span := tracing.StartSpan(ctx, "mirror.push", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	source := tree{baseURL: s.sourceURL()}
	for _, dest := range destinations(table) {
		if err = ctx.Err(); err != nil {
			return err
		}
		destURL, auth, rerr := s.resolve(ctx, dest)
		if rerr != nil {
			s.logger.Printf("forkly: mirror: cannot resolve %v: %v", dest, rerr)
			continue
		}
		copied, failed, cerr := s.copyTree(ctx, source, tree{baseURL: destURL, options: auth})
		if cerr != nil {
			s.logger.Printf("forkly: mirror: push to %v failed: %v", dest, cerr)
			continue
		}
		s.logger.Printf("forkly: mirror: pushed %d files to %v (%d failed)", copied, dest, failed)
	}
	return nil
}

// Pull copies every destination tree back over the source once the run has
// finished. Destinations are merged in order; on overlapping paths the last
// one wins. Best effort, like Push.
func (s *Service) Pull(ctx context.Context, table *slot.Table) (err error) {
	ctx, span := tracing.StartSpan(ctx, "mirror.pull", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	source := tree{baseURL: s.sourceURL()}
	if err = toolbox.CreateDirIfNotExist(url.Path(source.baseURL)); err != nil {
		return err
	}
	for _, dest := range destinations(table) {
		if err = ctx.Err(); err != nil {
			return err
		}
		destURL, auth, rerr := s.resolve(ctx, dest)
		if rerr != nil {
			s.logger.Printf("forkly: mirror: cannot resolve %v: %v", dest, rerr)
			continue
		}
		copied, failed, cerr := s.copyTree(ctx, tree{baseURL: destURL, options: auth}, source)
		if cerr != nil {
			s.logger.Printf("forkly: mirror: pull from %v failed: %v", dest, cerr)
			continue
		}
		s.logger.Printf("forkly: mirror: pulled %d files from %v (%d failed)", copied, dest, failed)
	}
	return nil
}

// copyTree copies every regular file under src into dst, preserving
// relative paths and overwriting what is already there. Individual file
// failures are logged and counted; the returned error covers only the
// initial listing.
func (s *Service) copyTree(ctx context.Context, src, dst tree) (copied, failed int, err error) {
	objects, err := s.fs.List(ctx, src.baseURL, append([]storage.Option{option.NewRecursive(true)}, src.options...)...)
	if err != nil {
		return 0, 0, err
	}
	basePath := url.Path(src.baseURL)
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		rel := relativePath(basePath, url.Path(object.URL()))
		if rel == "" {
			continue
		}
		data, derr := s.fs.DownloadWithURL(ctx, object.URL(), src.options...)
		if derr != nil {
			failed++
			s.logger.Printf("forkly: mirror: read %s: %v", object.URL(), derr)
			continue
		}
		mode := object.Mode().Perm()
		if mode == 0 {
			mode = file.DefaultFileOsMode
		}
		targetURL := url.Join(dst.baseURL, rel)
		if uerr := s.fs.Upload(ctx, targetURL, mode, bytes.NewReader(data), dst.options...); uerr != nil {
			failed++
			s.logger.Printf("forkly: mirror: write %s: %v", targetURL, uerr)
			continue
		}
		copied++
	}
	return copied, failed, nil
}

// sourceURL normalizes the configured source into a file URL.
func (s *Service) sourceURL() string {
	return url.Normalize(s.source, file.Scheme)
}

// relativePath strips the base prefix from an object path.
func relativePath(basePath, objectPath string) string {
	return strings.Trim(strings.TrimPrefix(objectPath, basePath), "/")
}
