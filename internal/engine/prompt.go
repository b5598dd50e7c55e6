package engine

import (
	"context"
	"fmt"
	"strings"

	"soloquest/internal/llm"
	"soloquest/internal/parser"
	"soloquest/internal/store"
)

// promptText holds the language-dependent prompt strings. The six reserved
// section markers are language-invariant and appear verbatim in both rule
// texts.
type promptText struct {
	rules            string
	worldBibleLabel  string
	plotThreadsLabel string
	storyMemoryLabel string
	sceneStateLabel  string
	emptyPlaceholder string
}

var promptTexts = map[string]promptText{
	"en": {
		rules: `You are the game master of a solo tabletop RPG session. Rules you must never break:
1. Never contradict the world bible facts given to you. They are authoritative.
2. Never decide or act for the player. End every reply at a decision point.
3. Reply in English.
4. Structure every reply with exactly these section markers, each alone on its own line, exact spelling, no decoration:
` + parser.MarkerNarration + `
(the scene narration)
` + parser.MarkerChoices + `
(2-4 suggested actions, one per line, prefixed with "- ")
` + parser.MarkerDMNotes + `
(short private notes for the game master)
` + parser.MarkerMemory + `
(one or two lines worth remembering from this turn, or leave empty)
` + parser.MarkerStateDelta + `
(a JSON object describing character sheet changes, or leave empty)
` + parser.MarkerThreadUpdates + `
(a JSON object describing plot thread changes, or leave empty)`,
		worldBibleLabel:  "## World Bible",
		plotThreadsLabel: "## Open Plot Threads",
		storyMemoryLabel: "## Story So Far",
		sceneStateLabel:  "## Current Scene & State",
		emptyPlaceholder: "(none)",
	},
	"zh": {
		rules: `你是一场单人跑团游戏的主持人（DM）。你必须遵守以下规则：
1. 不得与提供给你的世界设定冲突，设定是权威的。
2. 不得替玩家做决定或行动，每次回复都要停在玩家的选择点。
3. 用中文回复。
4. 每次回复必须严格使用以下分节标记，每个标记独占一行，拼写完全一致，不加任何修饰：
` + parser.MarkerNarration + `
（场景叙事）
` + parser.MarkerChoices + `
（2-4个可选行动，每行一个，以"- "开头）
` + parser.MarkerDMNotes + `
（给DM自己的简短备注）
` + parser.MarkerMemory + `
（本回合值得记住的一两行要点，可留空）
` + parser.MarkerStateDelta + `
（描述角色卡变化的JSON对象，可留空）
` + parser.MarkerThreadUpdates + `
（描述剧情线索变化的JSON对象，可留空）`,
		worldBibleLabel:  "## 世界设定",
		plotThreadsLabel: "## 未解决的剧情线索",
		storyMemoryLabel: "## 故事至今",
		sceneStateLabel:  "## 当前场景与状态",
		emptyPlaceholder: "（无）",
	},
}

// BuildMessages assembles the full ordered prompt for one turn: the rules
// system message, the context system message, the recent turn pairs, then the
// player's input. The order is fixed; the model resolves the last user
// message.
func (e *Engine) BuildMessages(ctx context.Context, q store.Queries, ref SessionRef, playerText, extraContext string) ([]llm.Message, []WorldPreview, error) {
	texts := promptTexts[e.language]

	session, err := q.GetSession(ctx, ref.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("building prompt: %w", err)
	}
	if session == nil {
		return nil, nil, fmt.Errorf("building prompt: session %d not found", ref.SessionID)
	}

	worldBlock, previews, err := e.FetchWorldBible(ctx, q, ref.CampaignID, tagsFromText(playerText, session.CurrentScene))
	if err != nil {
		return nil, nil, err
	}
	if worldBlock == "" {
		// No keyword hit; fall back to the most recently updated entries so
		// the model always sees some setting context.
		worldBlock, previews, err = e.FetchWorldBible(ctx, q, ref.CampaignID, nil)
		if err != nil {
			return nil, nil, err
		}
	}
	threadsBlock, err := e.FetchOpenPlotThreads(ctx, q, ref.SessionID)
	if err != nil {
		return nil, nil, err
	}
	memoryBlock, err := e.FetchStoryMemory(ctx, q, ref.SessionID)
	if err != nil {
		return nil, nil, err
	}
	stateBlock, err := e.buildStateBlock(ctx, q, session, extraContext)
	if err != nil {
		return nil, nil, err
	}

	var contextBlock strings.Builder
	writeLabeled := func(label, block string) {
		if contextBlock.Len() > 0 {
			contextBlock.WriteString("\n\n")
		}
		contextBlock.WriteString(label + "\n")
		if strings.TrimSpace(block) == "" {
			contextBlock.WriteString(texts.emptyPlaceholder)
		} else {
			contextBlock.WriteString(block)
		}
	}
	writeLabeled(texts.worldBibleLabel, worldBlock)
	writeLabeled(texts.plotThreadsLabel, threadsBlock)
	writeLabeled(texts.storyMemoryLabel, memoryBlock)
	writeLabeled(texts.sceneStateLabel, stateBlock)

	history, err := e.FetchRecentTurns(ctx, q, ref.SessionID)
	if err != nil {
		return nil, nil, err
	}

	messages := make([]llm.Message, 0, len(history)+3)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: texts.rules})
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: contextBlock.String()})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: playerText})
	return messages, previews, nil
}

// buildStateBlock merges the session sidebar and character sheet into the
// scene/state context block. Empty fields are skipped.
func (e *Engine) buildStateBlock(ctx context.Context, q store.Queries, session *store.Session, extraContext string) (string, error) {
	var parts []string
	if session.CurrentScene != "" {
		parts = append(parts, "scene: "+session.CurrentScene)
	}
	if session.Title != "" {
		parts = append(parts, "session: "+session.Title)
	}
	if session.PinnedWorldNotes != "" {
		parts = append(parts, "pinned notes:\n"+session.PinnedWorldNotes)
	}
	if session.SessionState != "" {
		parts = append(parts, "party state:\n"+session.SessionState)
	}

	sheet, err := q.GetCharacterSheet(ctx, session.ID)
	if err != nil {
		return "", fmt.Errorf("building state block: %w", err)
	}
	if sheet != nil && strings.TrimSpace(sheet.JSONText) != "" {
		parts = append(parts, "character sheet:\n"+sheet.JSONText)
	}
	if strings.TrimSpace(extraContext) != "" {
		parts = append(parts, extraContext)
	}
	return strings.Join(parts, "\n"), nil
}

// tagsFromText derives world-bible retrieval tags from the player's input and
// the current scene. Keyword matching is deliberately coarse: short words and
// punctuation are dropped, the rest are tried as substring tags.
func tagsFromText(playerText, currentScene string) []string {
	var tags []string
	seen := map[string]struct{}{}
	add := func(word string) {
		w := strings.Trim(strings.TrimSpace(word), ".,!?;:\"'()")
		if len([]rune(w)) < 2 {
			return
		}
		key := strings.ToLower(w)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		tags = append(tags, w)
	}
	for _, word := range strings.Fields(playerText) {
		add(word)
	}
	for _, word := range strings.Fields(currentScene) {
		add(word)
	}
	if len(tags) > 8 {
		tags = tags[:8]
	}
	return tags
}
