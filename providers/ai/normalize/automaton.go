package normalize

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/leofalp/unillm/internal/utils"
	"github.com/leofalp/unillm/providers/ai"
)

// Config parameterizes one automaton.
type Config struct {
	Provider ai.ProviderID
	// Model is reported when the source never names one.
	Model string
	// JSONMode turns text deltas into json_delta snapshots.
	JSONMode bool
	// Wrap folds failures into canonical errors. Defaults to ai.WrapError
	// for Provider.
	Wrap func(err any) error
}

func (c Config) wrap(err error) error {
	if c.Wrap != nil {
		return c.Wrap(err)
	}
	return ai.WrapError(c.Provider, err)
}

// toolBuffer accumulates one tool call. Fragments that arrive before the
// call is opened are held in pending and replayed right after the start.
type toolBuffer struct {
	index   int
	id      string
	name    string
	args    strings.Builder
	pending strings.Builder
	started bool
	done    bool
}

// Automaton accumulates one response and queues the canonical chunks the
// signals produce. It is not safe for concurrent use.
type Automaton struct {
	cfg Config

	started bool
	stopped bool
	id      string
	model   string

	text         strings.Builder
	thinking     strings.Builder
	thinkingOpen bool

	tools     []*toolBuffer
	toolSlots map[int]int

	citations     []ai.Citation
	citationsOpen bool

	usage        map[string]any
	finishReason ai.FinishReason
	parsed       any

	out []ai.StreamChunk
}

// New returns an automaton in the unstarted state.
func New(cfg Config) *Automaton {
	return &Automaton{cfg: cfg, toolSlots: make(map[int]int)}
}

// Start records the message identity and emits message_start the first
// time it is called. Later calls only fill in values still unknown.
func (a *Automaton) Start(id, model string) {
	if a.id == "" {
		a.id = id
	}
	if a.model == "" {
		a.model = model
	}
	if a.started {
		return
	}
	a.started = true
	if a.id == "" {
		a.id = "msg_" + uuid.NewString()
	}
	if a.model == "" {
		a.model = a.cfg.Model
	}
	a.emit(ai.StreamChunk{Type: ai.ChunkMessageStart, ID: a.id, Model: a.model})
}

// Started reports whether message_start was emitted.
func (a *Automaton) Started() bool {
	return a.started
}

func (a *Automaton) ensureStarted() {
	if !a.started {
		a.Start("", "")
	}
}

// Text appends a main-channel delta. Any open thinking block is closed first.
func (a *Automaton) Text(delta string) {
	if delta == "" || a.stopped {
		return
	}
	a.ensureStarted()
	a.ThinkingStop()
	a.text.WriteString(delta)

	if !a.cfg.JSONMode {
		a.emit(ai.StreamChunk{Type: ai.ChunkContentDelta, Delta: delta})
		return
	}

	snapshot := a.text.String()
	parsed, ok := utils.ParsePartialJSON(snapshot)
	if ok {
		a.parsed = parsed
	}
	a.emit(ai.StreamChunk{Type: ai.ChunkJSONDelta, JSON: &ai.JSONSnapshot{Snapshot: snapshot, Parsed: parsedOrNil(parsed, ok)}})
}

// ThinkingDelta appends to the reasoning channel, opening a block if needed.
func (a *Automaton) ThinkingDelta(delta string) {
	if delta == "" || a.stopped {
		return
	}
	a.ensureStarted()
	if !a.thinkingOpen {
		a.thinkingOpen = true
		a.emit(ai.StreamChunk{Type: ai.ChunkThinkingStart})
	}
	a.thinking.WriteString(delta)
	a.emit(ai.StreamChunk{Type: ai.ChunkThinkingDelta, Delta: delta})
}

// ThinkingStop closes the open thinking block, if any.
func (a *Automaton) ThinkingStop() {
	if !a.thinkingOpen {
		return
	}
	a.thinkingOpen = false
	a.emit(ai.StreamChunk{Type: ai.ChunkThinkingStop})
}

func (a *Automaton) slot(index int) *toolBuffer {
	if position, ok := a.toolSlots[index]; ok {
		return a.tools[position]
	}
	buffer := &toolBuffer{index: index}
	a.toolSlots[index] = len(a.tools)
	a.tools = append(a.tools, buffer)
	return buffer
}

// ToolStart opens the tool call at index. Repeated starts for the same index
// only fill in a missing id or name.
func (a *Automaton) ToolStart(index int, id, name string) {
	if a.stopped {
		return
	}
	buffer := a.slot(index)
	if buffer.id == "" {
		buffer.id = id
	}
	if buffer.name == "" {
		buffer.name = name
	}
	if buffer.started || buffer.done {
		return
	}
	a.openTool(buffer)
}

func (a *Automaton) openTool(buffer *toolBuffer) {
	a.ensureStarted()
	a.ThinkingStop()
	if buffer.id == "" {
		buffer.id = "call_" + strconv.Itoa(buffer.index)
	}
	buffer.started = true
	a.emit(ai.StreamChunk{Type: ai.ChunkToolCallStart, ToolCall: &ai.ToolCallDelta{
		Index: buffer.index,
		ID:    buffer.id,
		Name:  buffer.name,
	}})
	if buffer.pending.Len() > 0 {
		pending := buffer.pending.String()
		buffer.pending.Reset()
		a.emit(ai.StreamChunk{Type: ai.ChunkToolCallDelta, ToolCall: &ai.ToolCallDelta{
			Index:          buffer.index,
			ArgumentsDelta: pending,
		}})
	}
}

// ToolDelta appends an argument fragment to the call at index. Fragments are
// raw text and are never parsed here.
func (a *Automaton) ToolDelta(index int, fragment string) {
	if fragment == "" || a.stopped {
		return
	}
	buffer := a.slot(index)
	if buffer.done {
		return
	}
	buffer.args.WriteString(fragment)
	if !buffer.started {
		buffer.pending.WriteString(fragment)
		return
	}
	a.emit(ai.StreamChunk{Type: ai.ChunkToolCallDelta, ToolCall: &ai.ToolCallDelta{
		Index:          index,
		ArgumentsDelta: fragment,
	}})
}

// ToolDone closes the call at index, opening it first if no start was seen.
func (a *Automaton) ToolDone(index int) {
	if a.stopped {
		return
	}
	position, ok := a.toolSlots[index]
	if !ok {
		return
	}
	a.closeTool(a.tools[position])
}

func (a *Automaton) closeTool(buffer *toolBuffer) {
	if buffer.done {
		return
	}
	if !buffer.started {
		a.openTool(buffer)
	}
	buffer.done = true
	a.emit(ai.StreamChunk{Type: ai.ChunkToolCallDone, ToolCall: &ai.ToolCallDelta{
		Index:     buffer.index,
		ID:        buffer.id,
		Name:      buffer.name,
		Arguments: argumentsOrEmpty(buffer.args.String()),
	}})
}

// HasToolCalls reports whether any tool call was opened or buffered.
func (a *Automaton) HasToolCalls() bool {
	return len(a.tools) > 0
}

// Citation emits a citation_delta. Citations never touch the text buffer.
func (a *Automaton) Citation(citation ai.Citation) {
	if a.stopped {
		return
	}
	a.ensureStarted()
	a.citationsOpen = true
	a.citations = append(a.citations, citation)
	a.emit(ai.StreamChunk{Type: ai.ChunkCitationDelta, Citation: &citation})
}

// CitationsDone emits citation_done when citations were emitted since the
// last call.
func (a *Automaton) CitationsDone() {
	if !a.citationsOpen {
		return
	}
	a.citationsOpen = false
	a.emit(ai.StreamChunk{Type: ai.ChunkCitationDone})
}

// Usage merges provider usage fields. Later keys override earlier ones; the
// merged object is normalized once at the end of the stream.
func (a *Automaton) Usage(raw map[string]any) {
	if len(raw) == 0 {
		return
	}
	if a.usage == nil {
		a.usage = make(map[string]any, len(raw))
	}
	maps.Copy(a.usage, raw)
}

// Stop closes every open block and emits json_done (in JSON mode) and then
// message_stop with the normalized reason. Only the first call has effect.
func (a *Automaton) Stop(nativeReason string) {
	if a.stopped {
		return
	}
	a.ensureStarted()
	a.ThinkingStop()
	a.CitationsDone()
	for _, buffer := range a.sortedTools() {
		a.closeTool(buffer)
	}

	a.finishReason = ai.ResolveFinishReason(nativeReason, a.HasToolCalls())

	if a.cfg.JSONMode {
		snapshot := a.text.String()
		parsed, ok := utils.ParsePartialJSON(snapshot)
		if ok {
			a.parsed = parsed
		}
		a.emit(ai.StreamChunk{Type: ai.ChunkJSONDone, JSON: &ai.JSONSnapshot{Snapshot: snapshot, Parsed: parsedOrNil(parsed, ok)}})
	}

	a.stopped = true
	a.emit(ai.StreamChunk{Type: ai.ChunkMessageStop, FinishReason: a.finishReason})
}

// Stopped reports whether message_stop was emitted.
func (a *Automaton) Stopped() bool {
	return a.stopped
}

// Finish stops the automaton if the source never did and emits final_usage
// (when usage was seen) followed by final_result.
func (a *Automaton) Finish() *ai.GenerateResult {
	a.Stop("")

	result := a.Result()
	if result.Usage != nil {
		a.emit(ai.StreamChunk{Type: ai.ChunkFinalUsage, Usage: result.Usage})
	}
	a.emit(ai.StreamChunk{Type: ai.ChunkFinalResult, Result: result})
	return result
}

// Result builds the GenerateResult from the current buffers.
func (a *Automaton) Result() *ai.GenerateResult {
	result := &ai.GenerateResult{
		ID:            a.id,
		Model:         a.model,
		Content:       ai.ContentOrNil(a.text.String()),
		FinishReason:  a.finishReason,
		Usage:         ai.NormalizeUsage(a.usage),
		ThinkingSteps: a.thinking.String(),
		Citations:     a.citations,
	}
	if result.Model == "" {
		result.Model = a.cfg.Model
	}
	if a.cfg.JSONMode {
		result.ParsedContent = a.parsed
	}
	for _, buffer := range a.sortedTools() {
		id := buffer.id
		if id == "" {
			id = "call_" + strconv.Itoa(buffer.index)
		}
		result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
			ID:   id,
			Type: ai.ToolTypeFunction,
			Function: ai.ToolCallFunction{
				Name:      buffer.name,
				Arguments: argumentsOrEmpty(buffer.args.String()),
			},
		})
	}
	return result
}

func (a *Automaton) sortedTools() []*toolBuffer {
	sorted := slices.Clone(a.tools)
	slices.SortStableFunc(sorted, func(x, y *toolBuffer) int { return x.index - y.index })
	return sorted
}

func (a *Automaton) emit(chunk ai.StreamChunk) {
	a.out = append(a.out, chunk)
}

// drain hands the queued chunks to yield in order. It returns false as soon
// as yield does.
func (a *Automaton) drain(yield func(ai.StreamChunk, error) bool) bool {
	for len(a.out) > 0 {
		chunk := a.out[0]
		a.out = a.out[1:]
		if !yield(chunk, nil) {
			a.out = nil
			return false
		}
	}
	a.out = a.out[:0]
	return true
}

func argumentsOrEmpty(arguments string) string {
	if strings.TrimSpace(arguments) == "" {
		return "{}"
	}
	return arguments
}

func parsedOrNil(parsed any, ok bool) any {
	if !ok {
		return nil
	}
	return parsed
}
