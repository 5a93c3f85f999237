package catalog

import (
	"net/url"
	"strings"

	"github.com/ztrue/tracerr"
)

// ParseDocID accepts either a raw document id or a catalog/reader URL and
// returns the opaque id. The id is only truly validated by round-tripping
// it through a catalog probe.
func ParseDocID(idOrURL string) (string, error) {
	s := strings.TrimSpace(idOrURL)
	if s == "" {
		return "", tracerr.New("empty document id")
	}

	if u, err := url.Parse(s); err == nil && u.Host != "" {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, seg := range segments {
			if seg == "docid" && i+1 < len(segments) {
				return segments[i+1], nil
			}
		}
		return "", tracerr.Errorf("no document id in URL: %s", idOrURL)
	}

	if strings.ContainsAny(s, "/ ") {
		return "", tracerr.Errorf("invalid document id: %s", idOrURL)
	}
	return s, nil
}
