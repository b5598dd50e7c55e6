// Package parser turns raw DM model output into a structured response.
//
// Two strategies run in order: a strict scan over the reserved section
// markers, then a bilingual keyword heuristic for replies that ignored the
// protocol. Parsing never fails; at worst the whole text becomes narration.
package parser

import "strings"

// Reserved section markers. Each must appear alone on its own line, exact
// case, no decoration.
const (
	MarkerNarration     = "===NARRATION==="
	MarkerChoices       = "===CHOICES==="
	MarkerDMNotes       = "===DM_NOTES==="
	MarkerMemory        = "===MEMORY==="
	MarkerStateDelta    = "===STATE_DELTA==="
	MarkerThreadUpdates = "===THREAD_UPDATES==="
)

// Response is the structured form of one DM reply.
type Response struct {
	Narration         string
	Choices           []string
	DMNotes           string
	MemorySuggestions string
	StateDeltaJSON    string
	ThreadUpdatesJSON string
}

// Parse extracts the structured sections from raw model text. Empty input
// yields an all-empty response without invoking either strategy.
func Parse(text string) Response {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Response{}
	}

	if resp, ok := parseDelimited(trimmed); ok {
		return resp
	}
	return parseHeuristic(trimmed)
}

// parseDelimited scans for the reserved markers. Lines before the first
// marker are discarded (models sometimes add a preamble). It reports ok=false
// only when no marker appears anywhere.
func parseDelimited(text string) (Response, bool) {
	sections := map[string]string{
		MarkerNarration:     "narration",
		MarkerChoices:       "choices",
		MarkerDMNotes:       "dm_notes",
		MarkerMemory:        "memory",
		MarkerStateDelta:    "state_delta",
		MarkerThreadUpdates: "thread_updates",
	}

	buffers := map[string][]string{}
	current := ""
	foundAny := false

	for _, line := range strings.Split(text, "\n") {
		if key, ok := sections[strings.TrimSpace(line)]; ok {
			current = key
			foundAny = true
			continue
		}
		if current == "" {
			continue
		}
		buffers[current] = append(buffers[current], line)
	}

	if !foundAny {
		return Response{}, false
	}

	section := func(key string) string {
		return strings.TrimSpace(strings.Join(buffers[key], "\n"))
	}

	return Response{
		Narration:         section("narration"),
		Choices:           parseChoiceLines(section("choices")),
		DMNotes:           section("dm_notes"),
		MemorySuggestions: section("memory"),
		StateDeltaJSON:    section("state_delta"),
		ThreadUpdatesJSON: section("thread_updates"),
	}, true
}

// parseChoiceLines normalizes one choice per non-blank line, tolerating both
// "- x" bullets and "1. x" / "1) x" ordinals.
func parseChoiceLines(block string) []string {
	var choices []string
	for _, line := range strings.Split(block, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		s = strings.TrimSpace(strings.TrimLeft(s, "-"))
		if stripped := stripOrdinal(s); stripped != "" {
			s = stripped
		}
		if s != "" {
			choices = append(choices, s)
		}
	}
	return choices
}

func stripOrdinal(s string) string {
	if len(s) < 2 || s[0] < '0' || s[0] > '9' {
		return s
	}
	rest := strings.TrimLeft(s, "0123456789")
	rest = strings.TrimLeft(rest, ".")
	rest = strings.TrimLeft(rest, ")")
	return strings.TrimSpace(rest)
}

// Keyword synonyms for the heuristic fallback, per section, in both languages
// the DM prompt ships in. First match per group wins.
var heuristicMarkers = []struct {
	key      string
	synonyms []string
}{
	{"narration", []string{"叙事", "narration"}},
	{"choices", []string{"choices", "可选行动", "选项"}},
	{"dm_notes", []string{"dm_notes", "dm notes", "dm备注", "备注"}},
	{"memory", []string{"memory_suggestions", "memory suggestions", "建议写入", "剧情摘要要点"}},
}

// parseHeuristic handles replies that dropped the delimiter protocol but
// still contain recognizable section headings. Text with no recognizable
// headings at all becomes pure narration.
func parseHeuristic(text string) Response {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "choices") && !strings.Contains(text, "选项") &&
		!strings.Contains(lower, "dm_notes") && !strings.Contains(text, "备注") {
		return Response{Narration: text}
	}

	type position struct {
		offset int
		key    string
	}
	var positions []position
	for _, group := range heuristicMarkers {
		for _, synonym := range group.synonyms {
			if idx := strings.Index(lower, strings.ToLower(synonym)); idx != -1 {
				positions = append(positions, position{offset: idx, key: group.key})
				break
			}
		}
	}

	chunks := map[string]string{}
	if len(positions) > 0 {
		// Insertion sort keeps ties in marker-group order, matching the
		// first-occurrence slicing of consecutive offsets.
		for i := 1; i < len(positions); i++ {
			for j := i; j > 0 && positions[j].offset < positions[j-1].offset; j-- {
				positions[j], positions[j-1] = positions[j-1], positions[j]
			}
		}
		for i, pos := range positions {
			end := len(text)
			if i+1 < len(positions) {
				end = positions[i+1].offset
			}
			chunks[pos.key] = strings.TrimSpace(text[pos.offset:end])
		}
	}

	narration := text
	if chunk, ok := chunks["narration"]; ok {
		narration = chunk
	}

	return Response{
		Narration:         strings.TrimSpace(narration),
		Choices:           parseHeuristicChoices(chunks["choices"]),
		DMNotes:           chunks["dm_notes"],
		MemorySuggestions: chunks["memory"],
	}
}

func parseHeuristicChoices(block string) []string {
	var choices []string
	for _, line := range strings.Split(block, "\n") {
		s := strings.TrimSpace(line)
		s = strings.TrimSpace(strings.TrimLeft(s, "-*"))
		if s == "" {
			continue
		}
		lowered := strings.ToLower(s)
		if strings.HasPrefix(lowered, "choices") || strings.HasPrefix(s, "选项") || strings.HasPrefix(s, "可选") {
			continue
		}
		choices = append(choices, s)
	}
	return choices
}
