package index

import (
	"strconv"
	"strings"

	"github.com/gridwatch/searchsync/internal/domain/document"
	"github.com/gridwatch/searchsync/internal/domain/entity"
)

// metaPrefix namespaces type-specific metadata inside the flat hash so it
// cannot collide with the fixed searchable fields.
const metaPrefix = "meta:"

// buildHashFields converts a document into a flat map[string]string for HSET.
func buildHashFields(doc *document.Document) map[string]string {
	m := make(map[string]string, 5+len(doc.Metadata))
	m["id"] = strconv.FormatInt(doc.EntityID, 10)
	m["tenant"] = doc.TenantID
	m["name"] = doc.Name
	m["description"] = doc.Description
	m["status"] = doc.Status
	for k, v := range doc.Metadata {
		m[metaPrefix+k] = v
	}
	return m
}

// parseHashFields converts a flat hash back into a document. The entity id
// falls back to the key suffix when the id field is absent.
func parseHashFields(t entity.Type, key string, fields map[string]string) document.Document {
	doc := document.Document{EntityType: t}
	meta := make(map[string]string)

	for k, v := range fields {
		switch k {
		case "id":
			doc.EntityID, _ = strconv.ParseInt(v, 10, 64)
		case "tenant":
			doc.TenantID = v
		case "name":
			doc.Name = v
		case "description":
			doc.Description = v
		case "status":
			doc.Status = v
		default:
			if name, ok := strings.CutPrefix(k, metaPrefix); ok {
				meta[name] = v
			}
		}
	}

	if doc.EntityID == 0 {
		if idx := strings.LastIndexByte(key, ':'); idx >= 0 {
			doc.EntityID, _ = strconv.ParseInt(key[idx+1:], 10, 64)
		}
	}
	if len(meta) > 0 {
		doc.Metadata = meta
	}
	return doc
}
