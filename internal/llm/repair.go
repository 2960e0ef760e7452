package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/joseph-ayodele/custody-tracker/constants"
)

var (
	eventKeys = keySet("type", "title", "description", "timestamp", "time_precision", "duration_minutes",
		"location", "participants", "child_involved", "custody_relevance", "child_statements",
		"coparent_interaction", "patterns")
	actionKeys   = keySet("priority", "type", "description", "deadline")
	topKeys      = keySet("events", "action_items", "metadata")
	nullableStrs = []string{"timestamp", "location"}
)

// RepairExtractionJSON applies deterministic, content-preserving fixes before strict validation:
//   - strips markdown code fences and surrounding prose
//   - empty strings on nullable fields become null
//   - enum-like fields are trimmed and lowercased; event types pass through constants.Canonicalize
//   - a null timestamp forces time_precision "unknown"
//   - null arrays become empty arrays
//   - unknown keys are removed
//
// It never invents values: anything it cannot repair is left for the validator to reject.
func RepairExtractionJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(stripFences(raw), &m); err != nil {
		return nil, nil, fmt.Errorf("repair: decode: %w", err)
	}

	changed := make([]string, 0, 8)
	note := func(s string) { changed = append(changed, s) }

	for k := range maps.Clone(m) {
		if _, ok := topKeys[k]; !ok {
			delete(m, k)
			note(k + "(unknown)")
		}
	}
	for _, k := range []string{"events", "action_items"} {
		if v, ok := m[k]; ok && v == nil {
			m[k] = []any{}
			note(k + "(null->[])")
		}
	}

	if events, ok := m["events"].([]any); ok {
		for i, ev := range events {
			e, ok := ev.(map[string]any)
			if !ok {
				continue
			}
			prefix := fmt.Sprintf("events[%d].", i)
			dropUnknown(e, eventKeys, prefix, note)
			for _, k := range nullableStrs {
				emptyToNull(e, k, prefix, note)
			}
			if s, ok := e["type"].(string); ok {
				if canon, found := constants.Canonicalize(s); found && string(canon) != s {
					e["type"] = string(canon)
					note(prefix + "type(" + s + "->" + string(canon) + ")")
				}
			}
			lowerEnum(e, "time_precision")
			if e["timestamp"] == nil {
				if p, _ := e["time_precision"].(string); p != string(constants.PrecisionUnknown) {
					e["time_precision"] = string(constants.PrecisionUnknown)
					note(prefix + "time_precision(->unknown)")
				}
			}
			for _, k := range []string{"participants", "child_statements", "patterns"} {
				if v, ok := e[k]; ok && v == nil {
					e[k] = []any{}
					note(prefix + k + "(null->[])")
				}
			}
			if cr, ok := e["custody_relevance"].(map[string]any); ok {
				if wi, ok := cr["welfare_impact"].(map[string]any); ok {
					lowerEnum(wi, "category")
					lowerEnum(wi, "direction")
					lowerEnum(wi, "severity")
				}
			}
			if ci, ok := e["coparent_interaction"].(map[string]any); ok {
				lowerEnum(ci, "tone")
				emptyToNull(ci, "communication_method", prefix+"coparent_interaction.", note)
			}
			if stmts, ok := e["child_statements"].([]any); ok {
				for _, st := range stmts {
					if sm, ok := st.(map[string]any); ok {
						emptyToNull(sm, "child", prefix+"child_statements.", note)
						emptyToNull(sm, "context", prefix+"child_statements.", note)
					}
				}
			}
			if pats, ok := e["patterns"].([]any); ok {
				for _, p := range pats {
					if pm, ok := p.(map[string]any); ok {
						lowerEnum(pm, "frequency")
					}
				}
			}
		}
	}

	if items, ok := m["action_items"].([]any); ok {
		for i, it := range items {
			a, ok := it.(map[string]any)
			if !ok {
				continue
			}
			prefix := fmt.Sprintf("action_items[%d].", i)
			dropUnknown(a, actionKeys, prefix, note)
			emptyToNull(a, "deadline", prefix, note)
			lowerEnum(a, "priority")
			lowerEnum(a, "type")
		}
	}

	if md, ok := m["metadata"].(map[string]any); ok {
		if v, ok := md["ambiguities"]; ok && v == nil {
			md["ambiguities"] = []any{}
			note("metadata.ambiguities(null->[])")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("repair: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.extract.repair_applied", "changes", changed)
	}
	return out, changed, nil
}

// stripFences trims ```json fences and any prose around the outermost object.
func stripFences(raw []byte) []byte {
	s := bytes.TrimSpace(raw)
	if bytes.HasPrefix(s, []byte("```")) {
		if nl := bytes.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = bytes.TrimSuffix(bytes.TrimSpace(s), []byte("```"))
	}
	start := bytes.IndexByte(s, '{')
	end := bytes.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

func dropUnknown(m map[string]any, allowed map[string]struct{}, prefix string, note func(string)) {
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			note(prefix + k + "(unknown)")
		}
	}
}

func emptyToNull(m map[string]any, key, prefix string, note func(string)) {
	if s, ok := m[key].(string); ok && strings.TrimSpace(s) == "" {
		m[key] = nil
		note(prefix + key + "(empty->null)")
	}
}

func lowerEnum(m map[string]any, key string) {
	if s, ok := m[key].(string); ok {
		m[key] = strings.ToLower(strings.TrimSpace(s))
	}
}

func keySet(keys ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}
