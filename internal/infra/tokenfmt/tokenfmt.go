package tokenfmt

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/yndnr/cryptogen-go/internal/core/domain"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// Encoding names a text rendering of a token.
type Encoding string

// Supported encodings.
const (
	Hex       Encoding = "hex"
	Base64    Encoding = "base64"
	Base64URL Encoding = "base64url"
	Base32    Encoding = "base32"
)

// Default is used when no encoding is requested.
const Default = Hex

// Encodings lists every supported encoding name.
func Encodings() []string {
	return []string{string(Hex), string(Base64), string(Base64URL), string(Base32)}
}

// Parse resolves an encoding name. The empty string selects Default.
func Parse(name string) (Encoding, error) {
	switch enc := Encoding(strings.ToLower(strings.TrimSpace(name))); enc {
	case "":
		return Default, nil
	case Hex, Base64, Base64URL, Base32:
		return enc, nil
	default:
		return "", domain.InvalidArgument("unknown token encoding %q (want one of %s)",
			name, strings.Join(Encodings(), ", "))
	}
}

// Encode renders t. Base64URL and Base32 omit padding.
func (e Encoding) Encode(t token.Token) string {
	switch e {
	case Base64:
		return base64.StdEncoding.EncodeToString(t)
	case Base64URL:
		return base64.RawURLEncoding.EncodeToString(t)
	case Base32:
		return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(t)
	default:
		return hex.EncodeToString(t)
	}
}

// EncodeAll renders every token in order.
func (e Encoding) EncodeAll(tokens []token.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = e.Encode(t)
	}
	return out
}
