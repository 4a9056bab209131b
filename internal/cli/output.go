package cli

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/oleg578/csvtable"

	"gopkg.in/yaml.v3"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
	formatYAML = "yaml"
)

func renderRows(w io.Writer, format string, fields []string, rows []csvtable.Row, d dialect) error {
	switch format {
	case formatCSV:
		if len(fields) == 0 {
			return nil
		}
		return csvtable.EncodeRows(w, completeRows(rows, fields), fields, d.separator, d.quote,
			csvtable.WithQuoting(csvtable.QuoteMinimal))
	case formatJSON:
		return writeJSON(w, rows)
	case formatYAML:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, row := range rows {
			seq.Content = append(seq.Content, rowNode(fields, row))
		}
		return writeYAML(w, seq)
	default:
		return usageErrorf("unknown format %q", format)
	}
}

func renderIndex(w io.Writer, format string, fields []string, keyed map[string]csvtable.Row) error {
	switch format {
	case formatJSON:
		return writeJSON(w, keyed)
	case formatYAML:
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		doc := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			doc.Content = append(doc.Content, scalarNode(k), rowNode(fields, keyed[k]))
		}
		return writeYAML(w, doc)
	default:
		return usageErrorf("unknown format %q", format)
	}
}

// completeRows fills fields missing from short records with empty values so
// they can be written back out.
func completeRows(rows []csvtable.Row, fields []string) []csvtable.Row {
	out := make([]csvtable.Row, len(rows))
	for i, row := range rows {
		if len(row) >= len(fields) {
			out[i] = row
			continue
		}
		filled := make(csvtable.Row, len(fields))
		for _, f := range fields {
			filled[f] = row[f]
		}
		out[i] = filled
	}
	return out
}

// rowNode renders a row as a YAML mapping in header order. Absent fields are
// left out.
func rowNode(fields []string, row csvtable.Row) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		v, ok := row[f]
		if !ok {
			continue
		}
		node.Content = append(node.Content, scalarNode(f), scalarNode(v))
	}
	return node
}

func scalarNode(v string) *yaml.Node {
	// Tagging every scalar as a string keeps "007" or "yes" from changing type.
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, node *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}
