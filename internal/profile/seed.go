package profile

import (
	"fmt"
	"strings"
)

// Seed importance weights. Higher values mark facts that future retrieval
// or eviction policies should prefer to keep.
const (
	importanceDescription = 9
	importanceServices    = 8
	importanceAudience    = 7
	importanceKeyMessages = 8
)

// SeedDocument is a vector-store candidate synthesized from a profile.
type SeedDocument struct {
	Content  string
	Metadata map[string]interface{}
}

// SeedDocuments synthesizes the initial knowledge batch for a tenant from
// its profile, so that even a conversation-free tenant has retrievable
// context from minute one. Empty profile fields produce no document.
func SeedDocuments(p Profile) []SeedDocument {
	var docs []SeedDocument

	if p.Description != "" {
		docs = append(docs, SeedDocument{
			Content:  "Company Description: " + p.Description,
			Metadata: seedMetadata("company_description", importanceDescription),
		})
	}

	if len(p.Services) > 0 {
		lines := make([]string, len(p.Services))
		for i, s := range p.Services {
			lines[i] = fmt.Sprintf("%s: %s", s.Name, s.Description)
		}
		docs = append(docs, SeedDocument{
			Content:  "Products and Services:\n" + strings.Join(lines, "\n"),
			Metadata: seedMetadata("products_services", importanceServices),
		})
	}

	if p.TargetAudience != "" {
		docs = append(docs, SeedDocument{
			Content:  "Target Audience: " + p.TargetAudience,
			Metadata: seedMetadata("target_audience", importanceAudience),
		})
	}

	if len(p.KeyMessages) > 0 {
		docs = append(docs, SeedDocument{
			Content:  "Key Messages: " + strings.Join(p.KeyMessages, ". "),
			Metadata: seedMetadata("key_messages", importanceKeyMessages),
		})
	}

	return docs
}

func seedMetadata(docType string, importance int) map[string]interface{} {
	return map[string]interface{}{
		"source":     "business_info",
		"type":       docType,
		"importance": importance,
	}
}
