package profile

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/teamit/internal/security"
)

// maxPreviewSize はプレビュー取得時に読み込むHTMLの最大サイズ（1MB）。
const maxPreviewSize = 1 * 1024 * 1024

// previewTimeout はプレビュー取得のタイムアウト。
const previewTimeout = 5 * time.Second

// LinkPreview はポートフォリオURLのプレビュー情報。
type LinkPreview struct {
	URL        string
	Title      string
	FaviconURL string
}

// LinkPreviewService はポートフォリオURLのプレビュー取得インターフェース。
type LinkPreviewService interface {
	// Fetch は指定URLからページタイトルとfavicon URLを取得する。
	// 取得失敗時はURLのみ埋めたプレビューを返す（エラーは返さない）。
	Fetch(ctx context.Context, rawURL string) *LinkPreview
}

// LinkPreviewFetcher はプレビュー取得機能の実装。
// SSRF防止付きクライアントで取得し、HTMLからtitleとlink[rel=icon]を読む。
type LinkPreviewFetcher struct {
	ssrfGuard security.SSRFGuardService
}

// NewLinkPreviewFetcher はLinkPreviewFetcherの新しいインスタンスを生成する。
func NewLinkPreviewFetcher(ssrfGuard security.SSRFGuardService) *LinkPreviewFetcher {
	return &LinkPreviewFetcher{
		ssrfGuard: ssrfGuard,
	}
}

// Fetch は指定URLからページタイトルとfavicon URLを取得する。
// 取得失敗はプロフィール表示を妨げないため、常にURLのみのプレビューへ
// フォールバックする。
func (f *LinkPreviewFetcher) Fetch(ctx context.Context, rawURL string) *LinkPreview {
	preview := &LinkPreview{URL: rawURL}
	if rawURL == "" {
		return preview
	}

	if err := f.ssrfGuard.ValidateURL(rawURL); err != nil {
		slog.Warn("リンクプレビュー: SSRFブロック", "url", rawURL, "error", err)
		return preview
	}

	client := f.ssrfGuard.NewSafeClient(previewTimeout, maxPreviewSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		slog.Warn("リンクプレビュー: リクエスト作成失敗", "url", rawURL, "error", err)
		return preview
	}
	req.Header.Set("User-Agent", "TeamIT/1.0 Link Preview")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("リンクプレビュー: HTTPリクエスト失敗", "url", rawURL, "error", err)
		return preview
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("リンクプレビュー: HTTPステータス異常", "url", rawURL, "status", resp.StatusCode)
		return preview
	}

	title, iconHref := parseTitleAndIcon(io.LimitReader(resp.Body, maxPreviewSize))
	preview.Title = title
	preview.FaviconURL = resolveFaviconURL(rawURL, iconHref)

	return preview
}

// parseTitleAndIcon はHTMLからtitleテキストとlink[rel~=icon]のhrefを抽出する。
// どちらも最初に見つかったものを採用する。
func parseTitleAndIcon(r io.Reader) (title, iconHref string) {
	tokenizer := html.NewTokenizer(r)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return title, iconHref

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "title":
				if title == "" && tokenizer.Next() == html.TextToken {
					title = strings.TrimSpace(tokenizer.Token().Data)
				}
			case "link":
				if iconHref == "" && isIconLink(token) {
					iconHref = attrValue(token, "href")
				}
			case "body":
				// head以降にtitle/iconは現れない
				return title, iconHref
			}
		}

		if title != "" && iconHref != "" {
			return title, iconHref
		}
	}
}

// isIconLink はlinkタグのrel属性がicon系かを判定する。
func isIconLink(token html.Token) bool {
	rel := strings.ToLower(attrValue(token, "rel"))
	for _, part := range strings.Fields(rel) {
		if part == "icon" || part == "shortcut" || part == "apple-touch-icon" {
			return true
		}
	}
	return false
}

// attrValue はトークンから指定属性の値を返す。
func attrValue(token html.Token, name string) string {
	for _, attr := range token.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// resolveFaviconURL はiconのhrefをページURL基準の絶対URLへ解決する。
// hrefが空の場合は /favicon.ico を推測する。
func resolveFaviconURL(pageURL, iconHref string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	if iconHref == "" {
		base.Path = "/favicon.ico"
		base.RawQuery = ""
		base.Fragment = ""
		return base.String()
	}

	ref, err := url.Parse(iconHref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// compile-time interface check
var _ LinkPreviewService = (*LinkPreviewFetcher)(nil)
