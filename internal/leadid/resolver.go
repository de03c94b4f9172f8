// Package leadid derives the identifier under which a vendor lead is
// persisted. Vendors that declare a leadIdProperty get their own identifier
// extracted from the submission; everything else falls back to a generated
// one. Collisions on generated ids are possible and accepted; uniqueness is
// enforced, if at all, by the store's key.
package leadid

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const suffixLen = 6

// Lookup walks a dotted path into a decoded JSON object. Every intermediate
// segment must dereference a map; any miss yields nil rather than an error.
func Lookup(m map[string]any, path string) any {
	if m == nil || path == "" {
		return nil
	}

	var current any = m
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// Resolve returns the identifier for a lead given the vendor's configured
// extraction path. The zero value of every failure mode is the generated
// fallback; Resolve never errors.
func Resolve(lead map[string]any, vendors map[string]VendorConfig, vendorName string) string {
	if lead == nil {
		return generate(nil)
	}

	property := ""
	if cfg, ok := vendors[strings.ToLower(vendorName)]; ok {
		property = cfg.LeadIDProperty
	}

	var value any
	switch {
	case property == "":
		// no extraction path configured
	case strings.Contains(property, "."):
		value = Lookup(lead, property)
	default:
		value = lead[property]
	}

	if isFalsy(value) {
		return generate(lead)
	}
	return fmt.Sprint(value)
}

// VendorConfig is one vendor's entry in the vendors configuration mapping.
type VendorConfig struct {
	LeadIDProperty string `json:"leadIdProperty,omitempty"`
}

// isFalsy mirrors the loose falsiness the extraction contract requires:
// absent values, empty strings and numeric zero all trigger the fallback.
func isFalsy(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case bool:
		return !value
	case float64:
		return value == 0
	case int:
		return value == 0
	case int64:
		return value == 0
	default:
		return false
	}
}

func generate(lead map[string]any) string {
	stamp := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), randomSuffix())
	if lead != nil {
		if reqID, ok := lead["requestId"].(string); ok && reqID != "" {
			return reqID + "_" + stamp
		}
	}
	return stamp
}

func randomSuffix() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, suffixLen)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
