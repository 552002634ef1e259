package resolver

import (
	"net/url"
	"strings"
)

// MediaKind classifies a link post's target for rendering.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaImage
	MediaGifv
	MediaVideo
)

var imageSuffixes = []string{".png", ".jpg", ".gif", ".tiff", ".bmp"}

var videoSuffixes = []string{".mp4", ".webm"}

// gifvHosts is the allow-list of hosts whose .gifv links are playable
// as animated video.
var gifvHosts = map[string]bool{
	"imgur.com":   true,
	"i.imgur.com": true,
	"i.sli.mg":    true,
	"sli.mg":      true,
}

// Classify is the pure media-type classification. Caching it is a cost
// optimization only; the function itself is deterministic in the link.
func Classify(link string) MediaKind {
	lower := strings.ToLower(link)
	for _, s := range imageSuffixes {
		if strings.HasSuffix(lower, s) {
			return MediaImage
		}
	}
	if strings.HasSuffix(lower, ".gifv") {
		u, err := url.Parse(lower)
		if err == nil && gifvHosts[u.Hostname()] {
			return MediaGifv
		}
		return MediaNone
	}
	for _, s := range videoSuffixes {
		if strings.HasSuffix(lower, s) {
			return MediaVideo
		}
	}
	return MediaNone
}

// LinkDomain extracts the host of a link, or "" when the link does not
// parse as a URL.
func LinkDomain(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}
