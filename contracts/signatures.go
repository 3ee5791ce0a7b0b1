package contracts

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleSeller Role = "SELLER"
	RoleBuyer  Role = "BUYER"
	RoleLessor Role = "LESSOR"
	RoleLessee Role = "LESSEE"
	RoleBroker Role = "BROKER"
	// RoleAgent is the server's name for the broker on sale contracts.
	RoleAgent Role = "AGENT"
)

// SignatureRoles lists who signs a contract of type t, in display order.
func SignatureRoles(t Type) []Role {
	switch t {
	case TypeSale:
		return []Role{RoleSeller, RoleBuyer, RoleBroker}
	case TypeJeonse, TypeWolse:
		return []Role{RoleLessor, RoleLessee, RoleBroker}
	}
	return nil
}

var signatureLabels = map[Role]string{
	RoleSeller: "매도인 서명",
	RoleBuyer:  "매수인 서명",
	RoleLessor: "임대인 서명",
	RoleLessee: "임차인 서명",
	RoleBroker: "중개사 서명",
	RoleAgent:  "중개사 서명",
}

func SignatureLabel(r Role) string {
	return signatureLabels[r]
}

// SignatureData is one captured signature ready to send.
type SignatureData struct {
	Role     Role   `json:"role"`
	DataURL  string `json:"data_url"`
	SignedAt string `json:"signed_at"`
}

// minSignatureLength filters out empty canvases, which still produce a
// short data URL prefix.
const minSignatureLength = 20

// BuildSignatures keeps the captured signatures for the roles of type t,
// keyed by lower-case role name as the signing form submits them.
func BuildSignatures(t Type, captured map[string]string, now time.Time) []SignatureData {
	var out []SignatureData
	for _, role := range SignatureRoles(t) {
		dataURL := captured[strings.ToLower(string(role))]
		if len(dataURL) <= minSignatureLength {
			continue
		}
		out = append(out, SignatureData{
			Role:     role,
			DataURL:  dataURL,
			SignedAt: now.UTC().Format(time.RFC3339),
		})
	}
	return out
}

var ErrInvalidDataURL = errors.New("invalid image data URL")

// DecodeDataURL returns the bytes and media type of a base64 image data URL.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, "", ErrInvalidDataURL
	}
	mediaType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, "", ErrInvalidDataURL
	}
	return data, mediaType, nil
}

// EncodeDataURL is the inverse of DecodeDataURL.
func EncodeDataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ServerRole maps a signing-form role to the role the server stores for
// contracts of type t.
func ServerRole(t Type, r Role) Role {
	if t == TypeSale && r == RoleBroker {
		return RoleAgent
	}
	return r
}
