package domain

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractNotionID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{
			name:   "bare hex at end of slug",
			url:    "https://www.notion.so/Team-Notes-a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
			wantID: "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
			wantOK: true,
		},
		{
			name:   "hyphenated UUID form",
			url:    "https://www.notion.so/a1b2c3d4-e5f6-a1b2-c3d4-e5f6a1b2c3d4",
			wantID: "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
			wantOK: true,
		},
		{
			name:   "uppercase hex is accepted and preserved",
			url:    "https://www.notion.so/A1B2C3D4E5F6A1B2C3D4E5F6A1B2C3D4",
			wantID: "A1B2C3D4E5F6A1B2C3D4E5F6A1B2C3D4",
			wantOK: true,
		},
		{
			name:   "ID inside query string",
			url:    "https://www.notion.so/workspace?p=a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4&pm=s",
			wantID: "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
			wantOK: true,
		},
		{
			name:   "no identifier",
			url:    "https://www.notion.so/just-a-slug",
			wantOK: false,
		},
		{
			name:   "empty string",
			url:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractNotionID(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestFormatNotionID(t *testing.T) {
	assert.Equal(t,
		"a1b2c3d4-e5f6-a1b2-c3d4-e5f6a1b2c3d4",
		FormatNotionID("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"))

	// Already hyphenated input round-trips.
	assert.Equal(t,
		"a1b2c3d4-e5f6-a1b2-c3d4-e5f6a1b2c3d4",
		FormatNotionID("a1b2c3d4-e5f6-a1b2-c3d4-e5f6a1b2c3d4"))

	// Wrong length passes through untouched.
	assert.Equal(t, "short", FormatNotionID("short"))
}

// The bare 32-hex form and the hyphenated UUID form of the same ID must
// extract to the same normalized value regardless of the surrounding URL.
func TestExtractNotionIDNormalizationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	hexID := gen.SliceOfN(32, gen.RuneRange('a', 'f')).Map(func(runes []rune) string {
		return string(runes)
	})

	properties.Property("bare and hyphenated forms extract identically", prop.ForAll(
		func(id string) bool {
			bare, ok1 := ExtractNotionID("https://www.notion.so/Page-" + id)
			hyphenated, ok2 := ExtractNotionID("https://www.notion.so/" + FormatNotionID(id))
			return ok1 && ok2 && bare == id && hyphenated == id
		},
		hexID,
	))

	properties.Property("formatting an extracted ID is stable", prop.ForAll(
		func(id string) bool {
			formatted := FormatNotionID(id)
			extracted, ok := ExtractNotionID(formatted)
			return ok && extracted == id && FormatNotionID(extracted) == formatted
		},
		hexID,
	))

	properties.TestingRun(t)
}

func TestBuildPropertyValue(t *testing.T) {
	tests := []struct {
		propType string
		value    interface{}
		check    func(t *testing.T, result map[string]interface{})
	}{
		{
			propType: "title",
			value:    "My title",
			check: func(t *testing.T, result map[string]interface{}) {
				runs := result["title"].([]map[string]interface{})
				require.Len(t, runs, 1)
				text := runs[0]["text"].(map[string]interface{})
				assert.Equal(t, "My title", text["content"])
			},
		},
		{
			propType: "select",
			value:    "Open",
			check: func(t *testing.T, result map[string]interface{}) {
				sel := result["select"].(map[string]interface{})
				assert.Equal(t, "Open", sel["name"])
			},
		},
		{
			propType: "multi_select",
			value:    []interface{}{"a", "b"},
			check: func(t *testing.T, result map[string]interface{}) {
				refs := result["multi_select"].([]map[string]interface{})
				require.Len(t, refs, 2)
				assert.Equal(t, "a", refs[0]["name"])
			},
		},
		{
			propType: "date",
			value:    "2026-08-30",
			check: func(t *testing.T, result map[string]interface{}) {
				date := result["date"].(map[string]interface{})
				assert.Equal(t, "2026-08-30", date["start"])
			},
		},
		{
			propType: "checkbox",
			value:    true,
			check: func(t *testing.T, result map[string]interface{}) {
				assert.Equal(t, true, result["checkbox"])
			},
		},
		{
			propType: "number",
			value:    3.5,
			check: func(t *testing.T, result map[string]interface{}) {
				assert.Equal(t, 3.5, result["number"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.propType, func(t *testing.T) {
			result, err := BuildPropertyValue(tt.propType, tt.value)
			require.NoError(t, err)
			tt.check(t, result)
		})
	}
}

func TestBuildPropertyValueUnsupportedType(t *testing.T) {
	_, err := BuildPropertyValue("formula", "1+1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported property type: formula")
}

func TestBuildBlock(t *testing.T) {
	for _, contentType := range BlockContentTypes {
		t.Run(contentType, func(t *testing.T) {
			block, err := BuildBlock(contentType, "text", nil)
			require.NoError(t, err)
			assert.Equal(t, "block", block["object"])
			assert.Equal(t, contentType, block["type"])

			body := block[contentType].(map[string]interface{})
			assert.NotEmpty(t, body["rich_text"])
		})
	}
}

func TestBuildBlockDefaults(t *testing.T) {
	block, err := BuildBlock("to_do", "task", nil)
	require.NoError(t, err)
	assert.Equal(t, false, block["to_do"].(map[string]interface{})["checked"])

	block, err = BuildBlock("to_do", "task", map[string]interface{}{"checked": true})
	require.NoError(t, err)
	assert.Equal(t, true, block["to_do"].(map[string]interface{})["checked"])

	block, err = BuildBlock("code", "x := 1", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", block["code"].(map[string]interface{})["language"])

	block, err = BuildBlock("callout", "note", nil)
	require.NoError(t, err)
	icon := block["callout"].(map[string]interface{})["icon"].(map[string]interface{})
	assert.Equal(t, "emoji", icon["type"])
}

func TestBuildBlockUnsupportedType(t *testing.T) {
	_, err := BuildBlock("divider", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type: divider")
	assert.Contains(t, err.Error(), strings.Join(BlockContentTypes, ", "))
}
