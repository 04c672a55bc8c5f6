package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// notionIDPattern matches a Notion object identifier inside a URL,
// either as 32 bare hex digits or in hyphenated 8-4-4-4-12 UUID form.
var notionIDPattern = regexp.MustCompile(`(?i)([a-f0-9]{32}|[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12})`)

// ExtractNotionID extracts a Notion object ID from a URL. The returned
// ID is normalized to the bare 32-hex-digit form. Returns false when
// the URL contains no recognizable identifier.
func ExtractNotionID(url string) (string, bool) {
	match := notionIDPattern.FindString(url)
	if match == "" {
		return "", false
	}
	return strings.ReplaceAll(match, "-", ""), true
}

// FormatNotionID renders an ID in the hyphenated 8-4-4-4-12 form the
// Notion web UI uses. Input may already be hyphenated.
func FormatNotionID(id string) string {
	clean := strings.ReplaceAll(id, "-", "")
	if len(clean) != 32 {
		return id
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		clean[0:8], clean[8:12], clean[12:16], clean[16:20], clean[20:])
}

// BuildRichText wraps plain text in Notion's rich text array form.
func BuildRichText(text string) []map[string]interface{} {
	return []map[string]interface{}{
		{
			"type": "text",
			"text": map[string]interface{}{"content": text},
		},
	}
}

// BuildPropertyValue builds a typed Notion property value from a
// property-type tag and a plain value. The tag set is closed; anything
// else is a validation error naming the offending tag.
func BuildPropertyValue(propType string, value interface{}) (map[string]interface{}, error) {
	switch propType {
	case "title":
		return map[string]interface{}{"title": BuildRichText(fmt.Sprintf("%v", value))}, nil
	case "rich_text":
		return map[string]interface{}{"rich_text": BuildRichText(fmt.Sprintf("%v", value))}, nil
	case "number":
		return map[string]interface{}{"number": value}, nil
	case "select":
		return map[string]interface{}{"select": map[string]interface{}{"name": value}}, nil
	case "multi_select":
		return map[string]interface{}{"multi_select": nameRefs(value)}, nil
	case "date":
		if s, ok := value.(string); ok {
			return map[string]interface{}{"date": map[string]interface{}{"start": s}}, nil
		}
		return map[string]interface{}{"date": value}, nil
	case "people":
		return map[string]interface{}{"people": idRefs(value)}, nil
	case "checkbox":
		return map[string]interface{}{"checkbox": value}, nil
	case "url":
		return map[string]interface{}{"url": value}, nil
	case "email":
		return map[string]interface{}{"email": value}, nil
	case "phone_number":
		return map[string]interface{}{"phone_number": value}, nil
	case "status":
		return map[string]interface{}{"status": map[string]interface{}{"name": value}}, nil
	default:
		return nil, &Error{
			Code:    InvalidParams,
			Message: fmt.Sprintf("unsupported property type: %s", propType),
		}
	}
}

// nameRefs converts a value or list of values into {"name": v} objects.
func nameRefs(value interface{}) []map[string]interface{} {
	items, ok := value.([]interface{})
	if !ok {
		return []map[string]interface{}{{"name": value}}
	}
	refs := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		refs = append(refs, map[string]interface{}{"name": item})
	}
	return refs
}

// idRefs converts a value or list of values into {"id": v} objects.
func idRefs(value interface{}) []map[string]interface{} {
	items, ok := value.([]interface{})
	if !ok {
		return []map[string]interface{}{{"id": value}}
	}
	refs := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		refs = append(refs, map[string]interface{}{"id": item})
	}
	return refs
}

// BlockContentTypes is the closed set of content-type tags the rich
// content helper accepts.
var BlockContentTypes = []string{
	"paragraph",
	"heading_1",
	"heading_2",
	"heading_3",
	"bulleted_list_item",
	"numbered_list_item",
	"to_do",
	"code",
	"quote",
	"callout",
}

// BuildBlock builds a single Notion block of the given content type
// from plain text and an options bag (checked for to_do, language for
// code, icon for callout). Unknown content types are validation errors.
func BuildBlock(contentType, text string, options map[string]interface{}) (map[string]interface{}, error) {
	richText := BuildRichText(text)

	body := map[string]interface{}{"rich_text": richText}

	switch contentType {
	case "paragraph", "heading_1", "heading_2", "heading_3",
		"bulleted_list_item", "numbered_list_item", "quote":
		// rich text only
	case "to_do":
		checked := false
		if v, ok := options["checked"].(bool); ok {
			checked = v
		}
		body["checked"] = checked
	case "code":
		language := "plain text"
		if v, ok := options["language"].(string); ok && v != "" {
			language = v
		}
		body["language"] = language
	case "callout":
		icon := map[string]interface{}{"type": "emoji", "emoji": "💡"}
		if v, ok := options["icon"].(map[string]interface{}); ok {
			icon = v
		}
		body["icon"] = icon
	default:
		return nil, &Error{
			Code:    InvalidParams,
			Message: fmt.Sprintf("unsupported content type: %s (supported: %s)", contentType, strings.Join(BlockContentTypes, ", ")),
		}
	}

	return map[string]interface{}{
		"object":    "block",
		"type":      contentType,
		contentType: body,
	}, nil
}
