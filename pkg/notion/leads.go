package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// keyProperty is the rich_text column that stores a lead's identity key.
// Upserts match on this column so re-running a sync never duplicates pages.
const keyProperty = "Identity Key"

// titleProperty is the database's title column.
const titleProperty = "Name"

// FindPageByKey returns the first page whose identity key column equals key,
// or nil when no page matches.
func FindPageByKey(ctx context.Context, c Client, dbID, key string) (*notionapi.Page, error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: keyProperty,
			RichText: &notionapi.TextFilterCondition{
				Equals: key,
			},
		},
		PageSize: 1,
	}
	resp, err := c.QueryDatabase(ctx, dbID, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: find page by key")
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// LeadProperties builds the property map for a lead page. The lead name goes
// into the title column, the identity key into its dedicated column, and all
// remaining fields become rich_text properties keyed by field name.
func LeadProperties(key, name string, fields map[string]string) notionapi.Properties {
	props := notionapi.Properties{
		titleProperty: notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: name}}},
		},
		keyProperty: richText(key),
	}
	for field, value := range fields {
		if field == titleProperty || field == keyProperty {
			continue
		}
		props[field] = richText(value)
	}
	return props
}

// UpsertLead creates or updates the page for the given identity key and
// returns the page ID.
func UpsertLead(ctx context.Context, c Client, dbID, key, name string, fields map[string]string) (string, error) {
	if key == "" {
		return "", eris.New("notion: identity key is required")
	}

	existing, err := FindPageByKey(ctx, c, dbID, key)
	if err != nil {
		return "", err
	}
	props := LeadProperties(key, name, fields)

	if existing != nil {
		page, err := c.UpdatePage(ctx, string(existing.ID), &notionapi.PageUpdateRequest{
			Properties: props,
		})
		if err != nil {
			return "", eris.Wrap(err, "notion: upsert update")
		}
		return string(page.ID), nil
	}

	page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
	})
	if err != nil {
		return "", eris.Wrap(err, "notion: upsert create")
	}
	return string(page.ID), nil
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: s}}},
	}
}
