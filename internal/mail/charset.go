package mail

import (
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	msgcharset "github.com/emersion/go-message/charset"
	"github.com/ravend/ravend/internal/logging"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeHeader is an RFC 2047 encoded-word decoder; on any decode failure
// it returns the raw input (spec.md §4.2).
func DecodeHeader(s string) string {
	if s == "" {
		return s
	}
	dec := &mime.WordDecoder{CharsetReader: charsetReader}
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

func charsetReader(name string, r io.Reader) (io.Reader, error) {
	if reader, err := msgcharset.Reader(name, r); err == nil {
		return reader, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset: %s", name)
	}
	return enc.NewDecoder().Reader(r), nil
}

// decodeCharset converts content from the declared charset to UTF-8,
// recovering from mislabeled encodings by validating UTF-8 and falling
// back to auto-detection and a short list of common East-Asian encodings.
func decodeCharset(content []byte, declaredCharset string) string {
	log := logging.WithComponent("mail")

	if declaredCharset == "" || strings.EqualFold(declaredCharset, "utf-8") || strings.EqualFold(declaredCharset, "us-ascii") {
		if utf8.Valid(content) {
			str := string(content)
			if !looksLikeGibberish(str) {
				return str
			}
		}

		enc, name, _ := charset.DetermineEncoding(content, "text/html")
		decoded, err := enc.NewDecoder().Bytes(content)
		if err == nil && !looksLikeGibberish(string(decoded)) {
			log.Debug().Str("detectedEncoding", name).Msg("decoded via auto-detected encoding")
			return string(decoded)
		}

		for _, encName := range []string{"gb18030", "gbk", "gb2312", "big5", "euc-tw"} {
			enc, err := htmlindex.Get(encName)
			if err != nil {
				continue
			}
			decoded, err := enc.NewDecoder().Bytes(content)
			if err == nil && utf8.Valid(decoded) && !looksLikeGibberish(string(decoded)) {
				return string(decoded)
			}
		}
		return string(content)
	}

	enc, err := htmlindex.Get(declaredCharset)
	if err != nil {
		if alias, ok := charsetAliases[strings.ToLower(declaredCharset)]; ok {
			enc, err = htmlindex.Get(alias)
		}
		if err != nil {
			return string(content)
		}
	}
	decoded, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(decoded)
}

var charsetAliases = map[string]string{
	"gb2312": "gbk",
	"x-gbk":  "gbk",
	"x-big5": "big5",
}

// looksLikeGibberish flags text with a suspicious concentration of
// replacement characters or rare CJK Extension B codepoints, both telltale
// signs of a mislabeled charset.
func looksLikeGibberish(s string) bool {
	if len(s) == 0 {
		return false
	}
	var replacementCount, cjkExtBCount, total int
	for _, r := range s {
		total++
		if r == '�' {
			replacementCount++
		}
		if r >= 0x20000 && r <= 0x2A6DF {
			cjkExtBCount++
		}
	}
	if total > 10 && float64(replacementCount)/float64(total) > 0.1 {
		return true
	}
	if total > 20 && float64(cjkExtBCount)/float64(total) > 0.05 {
		return true
	}
	return false
}

var metaCharsetRe1 = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?([^"'\s>]+)`)
var metaCharsetRe2 = regexp.MustCompile(`(?i)<meta[^>]+content=["'][^"']*charset=([^"'\s;]+)`)

// extractCharsetFromHTML looks for a charset declared in an HTML meta tag,
// used as a fallback when the Content-Type header doesn't specify one.
func extractCharsetFromHTML(html []byte) string {
	search := html
	if len(search) > 1024 {
		search = search[:1024]
	}
	if m := metaCharsetRe1.FindSubmatch(search); len(m) > 1 {
		return string(m[1])
	}
	if m := metaCharsetRe2.FindSubmatch(search); len(m) > 1 {
		return string(m[1])
	}
	return ""
}
