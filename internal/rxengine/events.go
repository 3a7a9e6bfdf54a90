package rxengine

import "encoding/json"

// EventType is the `type` discriminator of one JSON line emitted by the
// regex-engine subprocess (spec.md §6.2). Types outside this set are
// noise and are skipped by Decode.
type EventType string

const (
	EventBegin   EventType = "begin"
	EventMatch   EventType = "match"
	EventContext EventType = "context"
	EventEnd     EventType = "end"
	EventSummary EventType = "summary"
)

// SubmatchEvent is one capture's text and byte-column span within its line.
type SubmatchEvent struct {
	Match struct {
		Text string `json:"text"`
	} `json:"match"`
	Start int `json:"start"`
	End   int `json:"end"`
}

type textField struct {
	Text string `json:"text"`
}

// LineEvent is the shared payload shape of `match` and `context` events.
type LineEvent struct {
	Path              textField       `json:"path"`
	LineNumber        int64           `json:"line_number"`
	AbsoluteOffset    int64           `json:"absolute_offset"`
	Lines             textField       `json:"lines"`
	Submatches        []SubmatchEvent `json:"submatches"`
}

// BeginEvent reports the path a scan is starting against.
type BeginEvent struct {
	Path textField `json:"path"`
}

// EndEvent carries per-file statistics.
type EndEvent struct {
	BytesSearched int64 `json:"bytes_searched"`
	MatchedLines  int64 `json:"matched_lines"`
	Matches       int64 `json:"matches"`
}

// SummaryEvent carries aggregate statistics across all files in the job.
type SummaryEvent struct {
	BytesSearched int64 `json:"bytes_searched"`
	MatchedLines  int64 `json:"matched_lines"`
	Matches       int64 `json:"matches"`
}

// Event is one decoded line of subprocess output. Exactly one of the
// typed fields is set, matching Type.
type Event struct {
	Type    EventType
	Begin   *BeginEvent
	Match   *LineEvent
	Context *LineEvent
	End     *EndEvent
	Summary *SummaryEvent
}

type envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode parses one subprocess output line. A nil, nil result means the
// line carried a recognized-but-ignorable or unknown event type.
func Decode(line []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, err
	}

	ev := &Event{Type: env.Type}
	switch env.Type {
	case EventBegin:
		var b BeginEvent
		if err := json.Unmarshal(env.Data, &b); err != nil {
			return nil, err
		}
		ev.Begin = &b
	case EventMatch:
		var m LineEvent
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, err
		}
		ev.Match = &m
	case EventContext:
		var c LineEvent
		if err := json.Unmarshal(env.Data, &c); err != nil {
			return nil, err
		}
		ev.Context = &c
	case EventEnd:
		var e EndEvent
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, err
		}
		ev.End = &e
	case EventSummary:
		var s SummaryEvent
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return nil, err
		}
		ev.Summary = &s
	default:
		return nil, nil
	}
	return ev, nil
}
