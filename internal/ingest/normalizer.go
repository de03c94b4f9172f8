package ingest

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// vendorKey is the header and query parameter carrying vendor identity. It is
// stripped from payloads so it never reaches downstream consumers as data.
const vendorKey = "vendor"

// maxDecodePasses bounds the fixed-point percent-decode loop so a
// pathological value cannot spin it.
const maxDecodePasses = 8

// ExtractVendor reads vendor identity from the vendor header first, then the
// vendor query parameter. First non-empty wins.
func ExtractVendor(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(vendorKey)); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get(vendorKey))
}

// ExtractPayload normalizes the lead payload out of the request. The second
// return is false when the request carries no lead data at all, which callers
// must reject.
//
// Three shapes are accepted: a form-encoded body, any other non-empty body
// (passed through untouched, assumed JSON), and bare query parameters when no
// body is present.
func ExtractPayload(r *http.Request, body []byte) (string, bool) {
	if len(body) > 0 {
		contentType := strings.ToLower(r.Header.Get("Content-Type"))
		if strings.Contains(contentType, "application/x-www-form-urlencoded") {
			return decodeFormBody(string(body))
		}
		return string(body), true
	}
	return decodeQueryParams(r.URL.Query())
}

// decodeFormBody parses key=value pairs, percent-decoding both sides, and
// drops the vendor key. A pair without "=" keeps a null value.
func decodeFormBody(body string) (string, bool) {
	decoded := map[string]any{}
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, "=")
		key := decodeComponent(parts[0])
		if key == "" {
			continue
		}
		var value any
		if len(parts) > 1 {
			value = decodeComponent(parts[1])
		}
		decoded[key] = value
	}
	delete(decoded, vendorKey)

	return marshalPayload(decoded)
}

func decodeQueryParams(params url.Values) (string, bool) {
	decoded := map[string]any{}
	for key, values := range params {
		if key == vendorKey {
			continue
		}
		value := ""
		if len(values) > 0 {
			value = values[0]
		}
		decoded[key] = decodeComponent(value)
	}

	return marshalPayload(decoded)
}

func marshalPayload(decoded map[string]any) (string, bool) {
	if len(decoded) == 0 {
		return "", false
	}
	data, err := json.Marshal(decoded)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// decodeComponent percent-decodes a value until it stops changing, handling
// multiply-encoded submissions. A decode failure keeps the last successful
// pass. The "+" to space replacement happens once, before decoding.
func decodeComponent(s string) string {
	current := strings.ReplaceAll(s, "+", " ")
	for i := 0; i < maxDecodePasses; i++ {
		next, err := url.PathUnescape(current)
		if err != nil || next == current {
			break
		}
		current = next
	}
	return current
}
