package executor

import (
	"github.com/kestreldb/kestrel/internal/planner"
	"github.com/kestreldb/kestrel/pkg/dictionary"
	"github.com/kestreldb/kestrel/pkg/response"
	"github.com/kestreldb/kestrel/pkg/store"
)

// Assemble folds the per-step row groups back into the response tree by
// walking the plan alongside the executed result. Ordering at every level is
// the ordering the store was asked for; a one-cardinality link with no match
// yields an explicit null and a many-cardinality link with no match yields an
// empty sequence.
func Assemble(plan *planner.Plan, result *Result) []*response.Record {
	return assembleRows(plan.Root, result.RootRows(), result)
}

func assembleRows(step *planner.Step, rows []store.Row, result *Result) []*response.Record {
	records := make([]*response.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, assembleRecord(step, row, result))
	}
	return records
}

func assembleRecord(step *planner.Step, row store.Row, result *Result) *response.Record {
	record := &response.Record{ID: row.ID}

	for _, field := range step.Fields {
		value, ok := row.Props[field]
		if !ok {
			value = nil
		}
		record.Fields = append(record.Fields, response.FieldValue{Name: field, Value: value})
	}

	for _, child := range step.Children {
		name := child.Relationship.Name

		if child.CountOnly {
			count := result.countsFor(child.Index)[row.ID]
			record.Links = append(record.Links, response.LinkValue{Name: name, Count: &count})
			continue
		}

		matched := result.groupsFor(child.Index)[row.ID]

		if child.Relationship.Cardinality == dictionary.One {
			link := response.LinkValue{Name: name, One: true}
			if len(matched) > 0 {
				link.Record = assembleRecord(child, matched[0], result)
			}
			record.Links = append(record.Links, link)
			continue
		}

		record.Links = append(record.Links, response.LinkValue{
			Name:    name,
			Records: assembleRows(child, matched, result),
		})
	}

	return record
}
