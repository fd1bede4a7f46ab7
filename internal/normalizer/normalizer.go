// Package normalizer turns raw source material, uploaded files or fetched
// web pages, into a uniform plain-text payload for chunking and embedding.
package normalizer

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
)

// MaxFileBytes caps uploaded documents at 10 MiB.
const MaxFileBytes = 10 << 20

var supportedMimeTypes = map[string]bool{
	"text/plain":    true,
	"text/markdown": true,
}

var whitespaceRe = regexp.MustCompile(`\s+`)

type Normalizer struct {
	client *http.Client
}

func New(client *http.Client) *Normalizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Normalizer{client: client}
}

// FromDocument validates and decodes an uploaded file into plain text.
// Markdown is flattened to its text content; anything other than plain text
// or markdown is rejected.
func (n *Normalizer) FromDocument(data []byte, declaredMimeType string) (string, error) {
	mimeType := declaredMimeType
	if parsed, _, err := mime.ParseMediaType(declaredMimeType); err == nil {
		mimeType = parsed
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !supportedMimeTypes[mimeType] {
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnsupportedType, declaredMimeType)
	}
	if len(data) > MaxFileBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", apperrors.ErrFileTooLarge, len(data), MaxFileBytes)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid utf-8", apperrors.ErrValidation)
	}
	if mimeType == "text/markdown" {
		return flattenMarkdown(data), nil
	}
	return string(data), nil
}

// FromURL fetches a page and extracts its readable text. A page with no
// extractable text yields an empty string, not an error.
func (n *Normalizer) FromURL(ctx context.Context, url string) (string, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrScrape, err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		logger.Error("page fetch failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", apperrors.ErrScrape, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logger.Error("page fetch failed", zap.String("status", resp.Status))
		return "", fmt.Errorf("%w: %s", apperrors.ErrScrape, resp.Status)
	}
	extracted, err := ExtractText(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrScrape, err)
	}
	logger.Debug("page scraped", zap.Int("chars", len(extracted)))
	return extracted, nil
}

// ExtractText strips boilerplate from an HTML document and returns its
// readable text, preferring an identifiable main-content region.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, header, footer, noscript, iframe").Remove()

	region := doc.Find("main, article, [role=main]")
	if region.Length() > 0 {
		if parts := blockTexts(region); len(parts) > 0 {
			return strings.Join(parts, " "), nil
		}
		return collapseWhitespace(region.Text()), nil
	}
	return strings.Join(blockTexts(doc.Selection), " "), nil
}

func blockTexts(sel *goquery.Selection) []string {
	var parts []string
	sel.Find("h1, h2, h3, h4, h5, h6, p, li").Each(func(_ int, s *goquery.Selection) {
		if t := collapseWhitespace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return parts
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// flattenMarkdown walks the markdown AST and keeps only text content. Block
// boundaries become blank lines so the splitter still sees paragraphs.
func flattenMarkdown(source []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))
	var parts []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		var sb strings.Builder
		_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			if n.Kind() == ast.KindText {
				sb.Write(n.(*ast.Text).Segment.Value(source))
				sb.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		})
		if t := collapseWhitespace(sb.String()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
