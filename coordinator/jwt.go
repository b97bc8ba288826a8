package coordinator

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tangramvision/datasetxfer/xferr"
)

// UserIDFromJWT extracts the "sub" claim from a JWT's unverified payload
// segment. The token's signature is not checked here — the metadata service
// is the one party that needs to trust it; this just recovers the identity
// that the rest of this process will embed in every object key (§4.E).
func UserIDFromJWT(token string) (uuid.UUID, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return uuid.Nil, xferr.New(xferr.InputInvalid,
			"jwt is malformed: expected 3 period-delimited segments, got %d", len(segments))
	}

	payload, err := decodeJWTSegment(segments[1])
	if err != nil {
		return uuid.Nil, xferr.New(xferr.InputInvalid, "jwt payload is not valid base64: %v", err)
	}
	if !utf8.Valid(payload) {
		return uuid.Nil, xferr.New(xferr.InputInvalid, "jwt payload is not valid UTF-8")
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return uuid.Nil, xferr.New(xferr.InputInvalid, "jwt payload does not contain valid JSON: %v", err)
	}

	rawSub, present := claims["sub"]
	if !present {
		return uuid.Nil, xferr.New(xferr.InputInvalid, `jwt payload is missing required field "sub"`)
	}
	sub, ok := rawSub.(string)
	if !ok {
		return uuid.Nil, xferr.New(xferr.InputInvalid, `jwt payload field "sub" is not a string`)
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, xferr.New(xferr.InputInvalid, `jwt payload field "sub" is not a valid UUID: %v`, err)
	}
	return userID, nil
}

// decodeJWTSegment tries unpadded base64url first (RFC 7519's actual
// encoding), falling back to standard padded base64 for tokens minted by
// looser encoders.
func decodeJWTSegment(segment string) ([]byte, error) {
	if decoded, err := base64.RawURLEncoding.DecodeString(segment); err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(segment)
}
