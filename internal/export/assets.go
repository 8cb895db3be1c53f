package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vincent-petithory/dataurl"

	"inkpress/internal/domain/content"
	domainerr "inkpress/internal/domain/errors"
	"inkpress/internal/domain/site"
	"inkpress/internal/metrics"
)

const hashPrefixLen = 6

// AssetState is the per-export cache of written assets. It is created for one
// export run and dropped afterwards; it is not safe for concurrent use.
type AssetState struct {
	bySource map[string]string // original src -> public URL
	byDigest map[string]string // full sha256 -> public URL
	used     map[string]string // file name -> full sha256

	Written []string // files written, relative to the output dir
	Reused  int
}

func NewAssetState() *AssetState {
	return &AssetState{
		bySource: make(map[string]string),
		byDigest: make(map[string]string),
		used:     make(map[string]string),
	}
}

// AssetOptions locate sources and outputs for one article.
type AssetOptions struct {
	// WorkDir resolves relative local sources.
	WorkDir string
	// OutDir is the export root; files go to OutDir/AssetDir/Slug.
	OutDir   string
	AssetDir string
	Slug     string
}

// IsExternal reports whether src points at another host and must be left
// alone.
func IsExternal(src string) bool {
	lower := strings.ToLower(strings.TrimSpace(src))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "//")
}

// ResolveAsset loads the bytes behind src: an embedded data URL or a local
// file, relative paths taken from workDir. The returned extension includes
// the dot.
func ResolveAsset(src, workDir string) ([]byte, string, error) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		return decodeDataURL("data:" + src[len("data:"):])
	}

	p := src
	if strings.HasPrefix(strings.ToLower(p), "file://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(workDir, filepath.FromSlash(p))
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", domainerr.ErrAssetIO, src, err)
	}
	ext := strings.ToLower(filepath.Ext(p))
	if ext == "" {
		ext = extForType(http.DetectContentType(data))
	}
	return data, ext, nil
}

// decodeDataURL decodes an RFC 2397 URL. Without a declared media type the
// payload is sniffed instead of taking the text/plain default.
func decodeDataURL(src string) ([]byte, string, error) {
	du, err := dataurl.DecodeString(src)
	if err != nil {
		return nil, "", fmt.Errorf("%w: bad data URL: %v", domainerr.ErrAssetIO, err)
	}
	header := src[len("data:"):]
	if header == "" || header[0] == ',' || header[0] == ';' {
		return du.Data, extForType(http.DetectContentType(du.Data)), nil
	}
	return du.Data, extForType(strings.ToLower(du.ContentType())), nil
}

func extForType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	switch strings.TrimSpace(mediaType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "image/avif":
		return ".avif"
	case "image/x-icon", "image/vnd.microsoft.icon":
		return ".ico"
	}
	return ".bin"
}

// Store writes src as a content-addressed file and returns its public URL.
// A source seen before, or bytes already written under another source, reuse
// the earlier file.
func (s *AssetState) Store(src, hint string, opts AssetOptions) (string, error) {
	if u, ok := s.bySource[src]; ok {
		s.Reused++
		metrics.AssetsReused.Inc()
		return u, nil
	}

	data, ext, err := ResolveAsset(src, opts.WorkDir)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	if u, ok := s.byDigest[digest]; ok {
		s.bySource[src] = u
		s.Reused++
		metrics.AssetsReused.Inc()
		return u, nil
	}

	route := site.AssetRoute(opts.AssetDir, opts.Slug, s.claimName(hint, digest, ext))
	if err := writeFile(opts.OutDir, route.OutPath, data); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", domainerr.ErrAssetIO, route.OutPath, err)
	}
	metrics.AssetsWritten.Inc()

	u := route.URLPath
	s.bySource[src] = u
	s.byDigest[digest] = u
	s.Written = append(s.Written, route.OutPath)
	return u, nil
}

// claimName picks {hint}-{hash6}{ext}, adding -2, -3 ... when a different
// digest already holds the name.
func (s *AssetState) claimName(hint, digest, ext string) string {
	base := hint + "-" + digest[:hashPrefixLen]
	name := base + ext
	for n := 2; ; n++ {
		owner, taken := s.used[name]
		if !taken || owner == digest {
			break
		}
		name = base + "-" + strconv.Itoa(n) + ext
	}
	s.used[name] = digest
	return name
}

// assetHint derives the readable part of an asset name from its source.
func assetHint(src, fallback string) string {
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		return fallback
	}
	stem := path.Base(filepath.ToSlash(src))
	stem = strings.TrimSuffix(stem, path.Ext(stem))
	if h := content.Slugify(stem); h != content.DefaultSlug || strings.EqualFold(stem, content.DefaultSlug) {
		return h
	}
	return fallback
}

// RewriteAssets points every local image of d, hero included, at its
// content-addressed copy. Sources that cannot be read are left as they are
// and reported as warnings.
func RewriteAssets(d *content.Draft, st *AssetState, opts AssetOptions) []string {
	var warnings []string

	rewrite := func(src, hint string) string {
		if strings.TrimSpace(src) == "" || IsExternal(src) {
			return src
		}
		u, err := st.Store(src, assetHint(src, hint), opts)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped image %s: %v", shorten(src), err))
			return src
		}
		return u
	}

	d.Meta.HeroImage = rewrite(d.Meta.HeroImage, "hero")
	for i := range d.Blocks {
		if d.Blocks[i].Type == content.BlockImage {
			d.Blocks[i].Src = rewrite(d.Blocks[i].Src, "image")
		}
	}
	return warnings
}

// shorten keeps data URLs out of log lines.
func shorten(src string) string {
	if len(src) > 64 {
		return src[:61] + "..."
	}
	return src
}
