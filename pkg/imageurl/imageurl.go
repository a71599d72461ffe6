// Package imageurl turns stored image paths into public URLs.
package imageurl

import "strings"

// Fallback selects what URL returns when a path does not contain the storage root.
type Fallback int

const (
	// KeepPath returns the normalized path unchanged.
	KeepPath Fallback = iota
	// PrefixBaseURL prepends the public base URL to the normalized path.
	PrefixBaseURL
)

type Rewriter struct {
	baseURL     string
	storageRoot string
}

// NewRewriter normalizes the storage root to forward slashes with a trailing slash,
// the same form the image stores prepend to object keys.
func NewRewriter(baseURL, storageRoot string) *Rewriter {
	root := strings.ReplaceAll(storageRoot, `\`, "/")
	if root != "" && !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return &Rewriter{
		baseURL:     baseURL,
		storageRoot: root,
	}
}

// URL normalizes separators, strips everything up to and including the first
// occurrence of the storage root and rebases the tail onto the base URL.
func (r *Rewriter) URL(path string, fallback Fallback) string {
	normalized := strings.ReplaceAll(path, `\`, "/")

	if idx := strings.Index(normalized, r.storageRoot); idx != -1 {
		return r.baseURL + normalized[idx+len(r.storageRoot):]
	}

	if fallback == PrefixBaseURL {
		return r.baseURL + normalized
	}
	return normalized
}

// URLs rewrites every path, preserving order. The result is never nil.
func (r *Rewriter) URLs(paths []string, fallback Fallback) []string {
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, r.URL(p, fallback))
	}
	return urls
}

// Thumbnail is the URL of the first path, or "" when there are none.
func (r *Rewriter) Thumbnail(paths []string, fallback Fallback) string {
	if len(paths) == 0 {
		return ""
	}
	return r.URL(paths[0], fallback)
}
