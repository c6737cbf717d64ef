package entities

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Flow identifies the scripted conversation the user is in
type Flow string

const (
	FlowNone        Flow = ""
	FlowMenu        Flow = "menu"
	FlowBooking     Flow = "booking"
	FlowDetails     Flow = "details"
	FlowTimeslots   Flow = "timeslots"
	FlowSuggest     Flow = "suggest"
	FlowTripPlanner Flow = "trip_planner"
)

// InputKind names the single free-text value a flow is waiting for
type InputKind string

const (
	AwaitNothing    InputKind = ""
	AwaitMuseumName InputKind = "museum_name"
	AwaitCityName   InputKind = "city_name"
	AwaitTime       InputKind = "time"
)

// TripStep tracks progress through the two-step trip planner conversation
type TripStep string

const (
	TripStepCity TripStep = "city"
	TripStepTime TripStep = "time"
)

// TempData carries values between turns of one flow
type TempData struct {
	Step        TripStep `json:"step,omitempty"`
	City        string   `json:"city,omitempty"`
	BookingLink string   `json:"booking_link,omitempty"`
	MuseumName  string   `json:"museum_name,omitempty"`
}

// ConversationState is an immutable snapshot of the assistant. Transitions
// return a new value; AwaitingInput is set exactly when the flow expects text.
type ConversationState struct {
	CurrentFlow      Flow      `json:"current_flow,omitempty"`
	AwaitingInput    InputKind `json:"awaiting_input,omitempty"`
	CurrentMessage   Message   `json:"current_message"`
	ShowInput        bool      `json:"show_input"`
	ShowButtons      bool      `json:"show_buttons"`
	InputPlaceholder string    `json:"input_placeholder,omitempty"`
	TempData         TempData  `json:"temp_data"`
}

// AwaitsInput reports whether free text should be routed to the active sub-flow
func (s ConversationState) AwaitsInput() bool {
	return s.CurrentFlow != FlowNone && s.AwaitingInput != AwaitNothing
}

// ChatOption is one menu button
type ChatOption struct {
	ID    Flow   `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// ActionType enumerates client-side affordances attached to a reply
type ActionType string

const ActionOpenURL ActionType = "open_url"

// Action is an affordance the client may render, such as a booking button
type Action struct {
	Type  ActionType `json:"type"`
	Label string     `json:"label"`
	URL   string     `json:"url"`
}

// ChatSession is a stored conversation. Revision increases by one on every write.
type ChatSession struct {
	ID        string            `json:"session_id"`
	State     ConversationState `json:"state"`
	Actions   []Action          `json:"actions,omitempty"`
	Revision  int64             `json:"revision"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ChatResolution records which stage answered a free-text utterance
type ChatResolution string

const (
	ResolutionFlow        ChatResolution = "flow"
	ResolutionMenuKeyword ChatResolution = "menu_keyword"
	ResolutionDatabase    ChatResolution = "database"
	ResolutionCanned      ChatResolution = "canned"
	ResolutionWebSearch   ChatResolution = "web_search"
	ResolutionUnavailable ChatResolution = "unavailable"
)

// ChatEvent is an analytics record for one utterance
type ChatEvent struct {
	ID         string         `json:"id" db:"id"`
	SessionID  string         `json:"session_id" db:"session_id"`
	Utterance  string         `json:"utterance" db:"utterance"`
	Resolution ChatResolution `json:"resolution" db:"resolution"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// UnresolvedQuery aggregates utterances nothing local could answer
type UnresolvedQuery struct {
	Utterance string    `json:"utterance" db:"utterance"`
	Count     int       `json:"count" db:"count"`
	LastSeen  time.Time `json:"last_seen" db:"last_seen"`
}

// BlockKind is the tag of a message block
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockDetail    BlockKind = "detail"
	BlockParagraph BlockKind = "paragraph"
	BlockListItem  BlockKind = "list_item"
)

// Block is one line of an assistant message
type Block struct {
	Kind  BlockKind `json:"kind"`
	Icon  string    `json:"icon,omitempty"`
	Index int       `json:"index,omitempty"`
	Text  string    `json:"text"`
}

func Heading(text string) Block { return Block{Kind: BlockHeading, Text: text} }
func Detail(icon, text string) Block { return Block{Kind: BlockDetail, Icon: icon, Text: text} }
func Paragraph(text string) Block { return Block{Kind: BlockParagraph, Text: text} }
func ListItem(index int, text string) Block { return Block{Kind: BlockListItem, Index: index, Text: text} }

// Message is a structured assistant reply
type Message struct {
	Blocks []Block
}

// NewMessage builds a message from blocks
func NewMessage(blocks ...Block) Message {
	return Message{Blocks: blocks}
}

// TextMessage is a message with a single paragraph
func TextMessage(text string) Message {
	return NewMessage(Paragraph(text))
}

// Text renders the message for clients that only display plain text
func (m Message) Text() string {
	lines := make([]string, 0, len(m.Blocks))
	for _, b := range m.Blocks {
		switch b.Kind {
		case BlockHeading:
			lines = append(lines, "**"+b.Text+"**")
		case BlockDetail:
			if b.Icon == "" {
				lines = append(lines, b.Text)
			} else {
				lines = append(lines, b.Icon+" "+b.Text)
			}
		case BlockListItem:
			lines = append(lines, strconv.Itoa(b.Index)+". "+b.Text)
		default:
			lines = append(lines, b.Text)
		}
	}
	return strings.Join(lines, "\n")
}

type messageJSON struct {
	Blocks []Block `json:"blocks"`
	Text   string  `json:"text"`
}

// MarshalJSON emits both the blocks and their plain-text rendering
func (m Message) MarshalJSON() ([]byte, error) {
	blocks := m.Blocks
	if blocks == nil {
		blocks = []Block{}
	}
	return json.Marshal(messageJSON{Blocks: blocks, Text: m.Text()})
}

// UnmarshalJSON restores blocks; the text field is derived and ignored
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Blocks = raw.Blocks
	if len(m.Blocks) == 0 && raw.Text != "" {
		m.Blocks = []Block{Paragraph(raw.Text)}
	}
	return nil
}
