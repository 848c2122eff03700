package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"gopkg.in/yaml.v3"
)

const defaultGroup = 1

var fence = regexp.MustCompile("```[a-zA-Z]*")

// Sentinel returns a graph holding a single placeholder node.
func Sentinel(id string) commonModels.KnowledgeGraph {
	return commonModels.KnowledgeGraph{
		Nodes: []commonModels.GraphNode{{Id: id, Group: defaultGroup}},
		Links: []commonModels.GraphLink{},
	}
}

func NoData() commonModels.KnowledgeGraph     { return Sentinel("No Data") }
func ParseError() commonModels.KnowledgeGraph { return Sentinel("Parse Error") }
func Failure() commonModels.KnowledgeGraph    { return Sentinel("Error") }

// Parse turns a model response into a graph. It strips markdown fences and
// scans balanced {...} spans in order, taking the first one that decodes
// (strict JSON, then lenient YAML for single quotes and bare keys) into an
// object with a nodes or links key. Numeric fields may arrive as numbers or
// numeric strings. ok is false when no span qualifies, in which case the
// Parse Error sentinel is returned.
func Parse(raw string) (g commonModels.KnowledgeGraph, ok bool) {
	text := fence.ReplaceAllString(raw, "")
	for _, obj := range objects(text) {
		fields, decoded := decodeObject(obj)
		if !decoded {
			continue
		}
		_, hasNodes := fields["nodes"]
		_, hasLinks := fields["links"]
		if !hasNodes && !hasLinks {
			continue
		}
		return fromFields(fields), true
	}
	return ParseError(), false
}

func decodeObject(obj string) (map[string]any, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err == nil {
		return fields, true
	}
	fields = nil
	if err := yaml.Unmarshal([]byte(obj), &fields); err == nil && fields != nil {
		return fields, true
	}
	return nil, false
}

func fromFields(fields map[string]any) commonModels.KnowledgeGraph {
	g := commonModels.KnowledgeGraph{
		Nodes: []commonModels.GraphNode{},
		Links: []commonModels.GraphLink{},
	}
	for _, item := range asList(fields["nodes"]) {
		n, ok := item.(map[string]any)
		if !ok {
			continue
		}
		node := commonModels.GraphNode{
			Id:    asString(n["id"]),
			Label: asString(n["label"]),
			Group: defaultGroup,
		}
		if group, ok := asNumber(n["group"]); ok && group != 0 {
			node.Group = int(math.Round(group))
		}
		g.Nodes = append(g.Nodes, node)
	}
	for _, item := range asList(fields["links"]) {
		l, ok := item.(map[string]any)
		if !ok {
			continue
		}
		link := commonModels.GraphLink{
			Source:   asString(l["source"]),
			Target:   asString(l["target"]),
			Relation: asString(l["relation"]),
		}
		if v, ok := asNumber(l["value"]); ok {
			link.Value = v
		} else if w, ok := asNumber(l["weight"]); ok {
			link.Value = w
		}
		g.Links = append(g.Links, link)
	}
	return g
}

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// objects returns every top-level balanced {...} span in order. Braces inside
// quoted strings are ignored.
func objects(s string) []string {
	var spans []string
	for {
		start := strings.IndexByte(s, '{')
		if start < 0 {
			return spans
		}
		end, ok := closingBrace(s, start)
		if !ok {
			return spans
		}
		spans = append(spans, s[start:end+1])
		s = s[end+1:]
	}
}

func closingBrace(s string, start int) (int, bool) {
	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"':
			quote = c
		case '\'':
			// an apostrophe in prose is not a quote
			if i > start && isWordByte(s[i-1]) {
				continue
			}
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
