package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// leadObject is the SObject the pipeline writes to.
const leadObject = "Lead"

// ExternalKeyField is the custom field that stores a lead's identity key.
// Upserts match on this field so re-running a sync never duplicates records.
const ExternalKeyField = "External_Key__c"

type leadRecord struct {
	ID string `json:"Id"`
}

type leadQueryResult struct {
	Records []leadRecord
}

// FindLeadByKey returns the Salesforce ID of the Lead whose external key
// equals key, or "" when no record matches.
func FindLeadByKey(ctx context.Context, c Client, key string) (string, error) {
	soql := fmt.Sprintf("SELECT Id FROM %s WHERE %s = '%s' LIMIT 1",
		leadObject, ExternalKeyField, escapeSOQL(key))

	var result leadQueryResult
	if err := c.Query(ctx, soql, &result); err != nil {
		return "", eris.Wrap(err, "sf: find lead by key")
	}
	if len(result.Records) == 0 {
		return "", nil
	}
	return result.Records[0].ID, nil
}

// UpsertLead creates or updates the Lead record for the given identity key
// and returns the Salesforce record ID.
func UpsertLead(ctx context.Context, c Client, key string, fields map[string]any) (string, error) {
	if key == "" {
		return "", eris.New("sf: identity key is required")
	}

	id, err := FindLeadByKey(ctx, c, key)
	if err != nil {
		return "", err
	}

	record := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		record[k] = v
	}
	record[ExternalKeyField] = key

	if id != "" {
		if err := c.UpdateOne(ctx, leadObject, id, record); err != nil {
			return "", eris.Wrap(err, "sf: upsert update")
		}
		return id, nil
	}

	newID, err := c.InsertOne(ctx, leadObject, record)
	if err != nil {
		return "", eris.Wrap(err, "sf: upsert insert")
	}
	return newID, nil
}

// escapeSOQL escapes single quotes and backslashes for safe SOQL string literals.
func escapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
