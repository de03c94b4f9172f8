package leadid

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedPattern = regexp.MustCompile(`^\d+_[0-9a-z]{6}$`)

func TestLookupDottedPath(t *testing.T) {
	lead := map[string]any{
		"user": map[string]any{"id": "x9"},
	}

	assert.Equal(t, "x9", Lookup(lead, "user.id"))
}

func TestLookupMissingIntermediate(t *testing.T) {
	lead := map[string]any{
		"user": map[string]any{"id": "x9"},
	}

	assert.Nil(t, Lookup(lead, "account.id"))
	// Traversal through a scalar also dead-ends.
	assert.Nil(t, Lookup(lead, "user.id.deep"))
}

func TestResolveConfiguredProperty(t *testing.T) {
	vendors := map[string]VendorConfig{
		"lendingtree": {LeadIDProperty: "Internal_LeadID"},
	}
	lead := map[string]any{"Internal_LeadID": "abc123"}

	assert.Equal(t, "abc123", Resolve(lead, vendors, "lendingtree"))
}

func TestResolveVendorNameCaseInsensitive(t *testing.T) {
	vendors := map[string]VendorConfig{
		"lendingtree": {LeadIDProperty: "Internal_LeadID"},
	}
	lead := map[string]any{"Internal_LeadID": "abc123"}

	assert.Equal(t, "abc123", Resolve(lead, vendors, "LendingTree"))
}

func TestResolveDottedProperty(t *testing.T) {
	vendors := map[string]VendorConfig{
		"acme": {LeadIDProperty: "user.id"},
	}
	lead := map[string]any{"user": map[string]any{"id": "x9"}}

	assert.Equal(t, "x9", Resolve(lead, vendors, "acme"))
}

func TestResolveMissingPathFallsBack(t *testing.T) {
	vendors := map[string]VendorConfig{
		"acme": {LeadIDProperty: "user.missing.id"},
	}
	lead := map[string]any{"user": map[string]any{"id": "x9"}}

	got := Resolve(lead, vendors, "acme")
	assert.Regexp(t, generatedPattern, got)
}

func TestResolveFalsyValuesFallBack(t *testing.T) {
	vendors := map[string]VendorConfig{
		"acme": {LeadIDProperty: "id"},
	}

	for name, lead := range map[string]map[string]any{
		"empty string": {"id": ""},
		"zero float":   {"id": float64(0)},
		"nil value":    {"id": nil},
	} {
		got := Resolve(lead, vendors, "acme")
		assert.Regexp(t, generatedPattern, got, name)
	}
}

func TestResolveNilLeadGenerates(t *testing.T) {
	got := Resolve(nil, nil, "acme")
	assert.Regexp(t, generatedPattern, got)
}

func TestResolveGeneratedIncludesRequestID(t *testing.T) {
	lead := map[string]any{"requestId": "req-7"}

	got := Resolve(lead, nil, "acme")
	require.True(t, strings.HasPrefix(got, "req-7_"), "expected requestId prefix, got %s", got)
	assert.Regexp(t, generatedPattern, strings.TrimPrefix(got, "req-7_"))
}

func TestResolveNumericValueStringified(t *testing.T) {
	vendors := map[string]VendorConfig{
		"acme": {LeadIDProperty: "id"},
	}
	lead := map[string]any{"id": float64(42)}

	assert.Equal(t, "42", Resolve(lead, vendors, "acme"))
}
