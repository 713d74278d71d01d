package mirror

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/forkly/model/slot"
)

// Plan reports, without copying anything, how each destination differs from
// the source tree: a unified diff of the two file listings per destination.
// Unlike Push and Pull it fails loudly, since a dry run exists to be read.
func (s *Service) Plan(ctx context.Context, table *slot.Table) (string, error) {
	local, err := s.listing(ctx, tree{baseURL: s.sourceURL()})
	if err != nil {
		return "", fmt.Errorf("list %s: %w", s.source, err)
	}
	var builder strings.Builder
	for _, dest := range destinations(table) {
		destURL, auth, err := s.resolve(ctx, dest)
		if err != nil {
			return "", fmt.Errorf("resolve %v: %w", dest, err)
		}
		remote, err := s.listing(ctx, tree{baseURL: destURL, options: auth})
		if err != nil {
			return "", fmt.Errorf("list %v: %w", dest, err)
		}
		text, err := renderDiff(local, remote, s.source, dest.String())
		if err != nil {
			return "", err
		}
		if text == "" {
			builder.WriteString(fmt.Sprintf("%v matches %s\n", dest, s.source))
			continue
		}
		builder.WriteString(text)
	}
	return builder.String(), nil
}

// listing renders one line per regular file, relative path and size, sorted
// for a stable comparison.
func (s *Service) listing(ctx context.Context, src tree) (string, error) {
	objects, err := s.fs.List(ctx, src.baseURL, append([]storage.Option{option.NewRecursive(true)}, src.options...)...)
	if err != nil {
		return "", err
	}
	basePath := url.Path(src.baseURL)
	var lines []string
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		rel := relativePath(basePath, url.Path(object.URL()))
		if rel == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %d", rel, object.Size()))
	}
	if len(lines) == 0 {
		return "", nil
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n", nil
}

// renderDiff formats a unified diff between two listings; an empty result
// means they match.
func renderDiff(source, target, fromFile, toFile string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(source),
		B:        difflib.SplitLines(target),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
