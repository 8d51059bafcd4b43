// Package viewer decides how a content item gets rendered and walks the
// fallback chain when a strategy fails. Office formats go through
// external embed providers first; everything degrades toward a local
// conversion, and a download link is always on the table.
package viewer

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Mode is a concrete render strategy for one content URL.
type Mode string

const (
	// ModeInline renders natively: images, PDF, video, audio, text.
	ModeInline Mode = "inline"
	// ModeEmbedPrimary uses the first external document-embedding provider.
	ModeEmbedPrimary Mode = "embed_primary"
	// ModeEmbedSecondary uses the second provider after the first failed.
	ModeEmbedSecondary Mode = "embed_secondary"
	// ModeLocalConvert is the best-effort in-client conversion.
	ModeLocalConvert Mode = "local_convert"
	// ModeDownload offers the file as a plain download only.
	ModeDownload Mode = "download"
)

// Embed provider URL templates. The source URL is query-escaped into them.
const (
	officeEmbedTemplate = "https://view.officeapps.live.com/op/embed.aspx?src=%s"
	docsEmbedTemplate   = "https://docs.google.com/gview?embedded=true&url=%s"
)

// Plan tells the UI how to present one content item right now.
type Plan struct {
	Category Category
	Mode     Mode
	// ViewURL is what the chosen mode displays (an embed URL for the
	// external providers, the source URL otherwise).
	ViewURL string
	// DownloadURL is the unconditional escape hatch, always set.
	DownloadURL string
	// Note is a short human hint about the chosen strategy.
	Note string
}

// fallback chain positions for office documents.
const (
	stepEmbedPrimary = iota
	stepEmbedSecondary
	stepLocalConvert
)

// Resolver tracks per-URL fallback state. Failure on one item never
// bleeds into another: state is keyed by source URL and cleared when the
// player moves to a different item.
type Resolver struct {
	steps map[string]int
}

func NewResolver() *Resolver {
	return &Resolver{steps: make(map[string]int)}
}

// Plan resolves the current render strategy for a content URL.
func (r *Resolver) Plan(rawURL string) Plan {
	cat := Classify(rawURL)
	p := Plan{Category: cat, ViewURL: rawURL, DownloadURL: rawURL}

	switch cat {
	case CategoryImage, CategoryPDF, CategoryVideo, CategoryAudio, CategoryText:
		p.Mode = ModeInline
		return p
	case CategoryOffice:
		return r.officePlan(rawURL, p)
	default:
		p.Mode = ModeDownload
		p.Note = "no inline viewer for this file type"
		return p
	}
}

// officePlan walks the office fallback chain for one URL. Private or
// loopback hosts can never be fetched by an external embed service, so
// they skip straight to local conversion.
func (r *Resolver) officePlan(rawURL string, p Plan) Plan {
	step := r.steps[rawURL]
	if !PubliclyReachable(rawURL) {
		step = stepLocalConvert
	}

	switch step {
	case stepEmbedPrimary:
		p.Mode = ModeEmbedPrimary
		p.ViewURL = fmt.Sprintf(officeEmbedTemplate, url.QueryEscape(rawURL))
		p.Note = "Office online viewer"
	case stepEmbedSecondary:
		p.Mode = ModeEmbedSecondary
		p.ViewURL = fmt.Sprintf(docsEmbedTemplate, url.QueryEscape(rawURL))
		p.Note = "document preview service"
	default:
		p.Mode = ModeLocalConvert
		p.Note = localConvertNote(rawURL)
	}
	return p
}

// MarkFailed records that the current strategy for a URL did not load
// and advances its fallback chain. Local conversion is the floor; past
// it the download link is all that remains, and that is always offered.
func (r *Resolver) MarkFailed(rawURL string) {
	if r.steps[rawURL] < stepLocalConvert {
		r.steps[rawURL]++
	}
}

// Reset clears the fallback state for a URL. Called when the player
// switches items so a revisited item starts from the top of the chain.
func (r *Resolver) Reset(rawURL string) {
	delete(r.steps, rawURL)
}

// localConvertNote names the best-effort conversion per format family.
func localConvertNote(rawURL string) string {
	switch Ext(rawURL) {
	case ".ppt", ".pptx":
		return "showing extracted slide text"
	case ".doc", ".docx":
		return "showing converted document"
	case ".xls", ".xlsx":
		return "spreadsheet preview unavailable, use download"
	default:
		return "local preview"
	}
}

// PubliclyReachable reports whether an external embed service could
// plausibly fetch the URL. Loopback, private, link-local and single-label
// hosts are invisible from the outside.
func PubliclyReachable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified())
	}
	// Bare hostnames like "fileserver" only resolve on a LAN.
	return strings.Contains(host, ".")
}
