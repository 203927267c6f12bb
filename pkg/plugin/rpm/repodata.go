package rpm

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// maxSnippetSize bounds the decompressed size of a snippet.
const maxSnippetSize = 8 << 20

var ErrSnippetTooLarge = errors.New("snippet is too large")

var placeholder = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// decodeSnippet returns the XML of a repodata snippet. Pulp 2 stores snippets either as plain
// XML or base64 encoded gzip or zlib streams.
func decodeSnippet(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.HasPrefix(trimmed, "<") {
		return trimmed, nil
	}

	raw, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return "", fmt.Errorf("snippet is neither XML nor base64: %w", err)
	}

	var reader io.ReadCloser

	switch {
	case len(raw) > 1 && raw[0] == 0x1f && raw[1] == 0x8b:
		reader, err = gzip.NewReader(bytes.NewReader(raw))
	case len(raw) > 1 && raw[0] == 0x78:
		reader, err = zlib.NewReader(bytes.NewReader(raw))
	default:
		return string(raw), nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to open compressed snippet: %w", err)
	}
	defer reader.Close()

	decoded, err := io.ReadAll(io.LimitReader(reader, maxSnippetSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to decompress snippet: %w", err)
	}

	if len(decoded) > maxSnippetSize {
		return "", fmt.Errorf("%w: more than %d bytes once decompressed", ErrSnippetTooLarge, maxSnippetSize)
	}

	return string(decoded), nil
}

// renderSnippet fills the template placeholders Pulp 2 leaves in snippets.
// Unknown placeholders are left untouched.
func renderSnippet(snippet string, values map[string]string) string {
	return placeholder.ReplaceAllStringFunc(snippet, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if value, ok := values[name]; ok {
			return value
		}

		return match
	})
}

type primaryPackage struct {
	XMLName     xml.Name `xml:"package"`
	Summary     string   `xml:"summary"`
	Description string   `xml:"description"`
	URL         string   `xml:"url"`
	Time        struct {
		File  int64 `xml:"file,attr"`
		Build int64 `xml:"build,attr"`
	} `xml:"time"`
	Size struct {
		Package int64 `xml:"package,attr"`
	} `xml:"size"`
	Location struct {
		Href string `xml:"href,attr"`
	} `xml:"location"`
	Format struct {
		License   string `xml:"license"`
		Vendor    string `xml:"vendor"`
		Group     string `xml:"group"`
		BuildHost string `xml:"buildhost"`
		SourceRPM string `xml:"sourcerpm"`
	} `xml:"format"`
}

func snippetString(repodata map[string]any, name string) string {
	value, ok := repodata[name]
	if !ok {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// parsePrimary decodes and renders the primary snippet of a package. It returns nil when the
// package has no primary snippet.
func parsePrimary(repodata map[string]any, values map[string]string) (*primaryPackage, error) {
	snippet, err := decodeSnippet(snippetString(repodata, "primary"))
	if err != nil {
		return nil, err
	}

	if snippet == "" {
		return nil, nil //nolint:nilnil
	}

	var primary primaryPackage
	if err := xml.Unmarshal([]byte(renderSnippet(snippet, values)), &primary); err != nil {
		return nil, fmt.Errorf("failed to parse primary snippet: %w", err)
	}

	return &primary, nil
}
