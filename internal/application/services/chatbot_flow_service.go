package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/musemate/backend/internal/domain/entities"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const (
	greeting           = "Hi! I'm MuseMate, your personal museum assistant. How can I help you today?"
	museumPlaceholder  = "Enter museum name..."
	cityPlaceholder    = "Enter city name..."
	timePlaceholder    = "Enter preferred time..."
	tripTimePrompt     = "What time would you like to visit? (e.g., '10:00 AM', 'morning', '2:00 PM')"
	suggestLimit       = 5
	unknownOptionReply = "I'm not sure what you're looking for. Please select one of the options below:"
	selectOptionReply  = "Please select one of the options below:"
)

// MuseumLookup is the slice of the catalog the flow machine reads
type MuseumLookup interface {
	FindByName(ctx context.Context, name string) (*entities.Museum, error)
	ListByCity(ctx context.Context, city string, limit int) ([]*entities.Museum, error)
}

// FlowEventKind distinguishes the inputs a conversation can receive
type FlowEventKind string

const (
	EventSelectOption FlowEventKind = "select_option"
	EventInput        FlowEventKind = "input"
	EventReset        FlowEventKind = "reset"
)

// FlowEvent is one user action
type FlowEvent struct {
	Kind     FlowEventKind
	OptionID entities.Flow
	Text     string
}

// Flow outcomes, reported to metrics
const (
	OutcomeEntered   = "entered"
	OutcomeCompleted = "completed"
	OutcomeReprompt  = "reprompt"
	OutcomeMenu      = "menu"
)

// FlowResponse is the next state plus any client affordances
type FlowResponse struct {
	State   entities.ConversationState
	Actions []entities.Action
	Flow    entities.Flow
	Outcome string
}

var menuOptions = []entities.ChatOption{
	{ID: entities.FlowBooking, Label: "Museum Booking", Icon: "🎫"},
	{ID: entities.FlowDetails, Label: "View Museum Details", Icon: "🏛️"},
	{ID: entities.FlowTimeslots, Label: "Check Available Time Slots", Icon: "⏰"},
	{ID: entities.FlowSuggest, Label: "Suggest Museums", Icon: "💡"},
	{ID: entities.FlowTripPlanner, Label: "Plan a Trip", Icon: "🗺️"},
}

// menuKeywords is checked in order; the first flow with a matching word wins
var menuKeywords = []struct {
	flow  entities.Flow
	words []string
}{
	{entities.FlowBooking, []string{"booking", "book"}},
	{entities.FlowDetails, []string{"details", "information", "about"}},
	{entities.FlowTimeslots, []string{"time", "slot", "hours", "timing"}},
	{entities.FlowSuggest, []string{"suggest", "recommend", "find"}},
	{entities.FlowTripPlanner, []string{"trip", "plan", "itinerary"}},
}

// ChatbotFlowService is the scripted conversation. It holds no per-user state:
// every call maps a state and an event to a new state.
type ChatbotFlowService struct {
	museums MuseumLookup
	trips   *TripPlannerService
}

func NewChatbotFlowService(museums MuseumLookup, trips *TripPlannerService) *ChatbotFlowService {
	return &ChatbotFlowService{museums: museums, trips: trips}
}

// InitialState is the menu with the greeting
func (s *ChatbotFlowService) InitialState() entities.ConversationState {
	return menuState(entities.TextMessage(greeting))
}

// ResetToMenu is the same as InitialState
func (s *ChatbotFlowService) ResetToMenu() entities.ConversationState {
	return s.InitialState()
}

// MenuOptions returns the menu buttons in display order
func (s *ChatbotFlowService) MenuOptions() []entities.ChatOption {
	out := make([]entities.ChatOption, len(menuOptions))
	copy(out, menuOptions)
	return out
}

// MenuWith returns to the menu showing msg
func (s *ChatbotFlowService) MenuWith(msg entities.Message) entities.ConversationState {
	return menuState(msg)
}

func (s *ChatbotFlowService) SelectOption(optionID entities.Flow) FlowResponse {
	resp, _ := s.Transition(context.Background(), s.InitialState(), FlowEvent{Kind: EventSelectOption, OptionID: optionID})
	return resp
}

func (s *ChatbotFlowService) ProcessInput(ctx context.Context, text string, state entities.ConversationState) (FlowResponse, error) {
	return s.Transition(ctx, state, FlowEvent{Kind: EventInput, Text: text})
}

// MatchMenuKeyword maps typed text to the flow a menu button would start
func MatchMenuKeyword(text string) (entities.Flow, bool) {
	tokens := tokenize(text)
	for _, kw := range menuKeywords {
		for _, word := range kw.words {
			for _, tok := range tokens {
				if tok == word || tok == word+"s" {
					return kw.flow, true
				}
			}
		}
	}
	return entities.FlowNone, false
}

// Transition is the single entry point of the state machine. Lookup misses
// never escape as errors; only repository failures do.
func (s *ChatbotFlowService) Transition(ctx context.Context, state entities.ConversationState, event FlowEvent) (FlowResponse, error) {
	switch event.Kind {
	case EventReset:
		return FlowResponse{State: s.InitialState(), Flow: entities.FlowMenu, Outcome: OutcomeMenu}, nil
	case EventSelectOption:
		return s.enterFlow(event.OptionID), nil
	case EventInput:
		if !state.AwaitsInput() {
			return menuResponse(entities.TextMessage(selectOptionReply)), nil
		}
		return s.handleInput(ctx, strings.TrimSpace(event.Text), state)
	default:
		return FlowResponse{}, apperrors.NewValidationError(fmt.Sprintf("unknown event %q", event.Kind))
	}
}

func (s *ChatbotFlowService) enterFlow(id entities.Flow) FlowResponse {
	switch id {
	case entities.FlowBooking:
		return entered(awaiting(id, entities.AwaitMuseumName, "Great! Which museum would you like to book?", museumPlaceholder))
	case entities.FlowDetails:
		return entered(awaiting(id, entities.AwaitMuseumName, "Which museum details would you like to see?", museumPlaceholder))
	case entities.FlowTimeslots:
		return entered(awaiting(id, entities.AwaitMuseumName, "Please provide the museum name to check available time slots.", museumPlaceholder))
	case entities.FlowSuggest:
		return entered(awaiting(id, entities.AwaitCityName, "Which city would you like museum suggestions for?", cityPlaceholder))
	case entities.FlowTripPlanner:
		st := awaiting(id, entities.AwaitCityName, "Let's plan your museum trip! Which city are you visiting?", cityPlaceholder)
		st.TempData = entities.TempData{Step: entities.TripStepCity}
		return entered(st)
	default:
		return menuResponse(entities.TextMessage(unknownOptionReply))
	}
}

func (s *ChatbotFlowService) handleInput(ctx context.Context, input string, state entities.ConversationState) (FlowResponse, error) {
	switch state.CurrentFlow {
	case entities.FlowBooking:
		return s.handleBooking(ctx, input)
	case entities.FlowDetails:
		return s.handleDetails(ctx, input)
	case entities.FlowTimeslots:
		return s.handleTimeslots(ctx, input)
	case entities.FlowSuggest:
		return s.handleSuggest(ctx, input)
	case entities.FlowTripPlanner:
		return s.handleTripPlanner(ctx, input, state)
	default:
		return menuResponse(entities.TextMessage(unknownOptionReply)), nil
	}
}

// findMuseum turns a NOT_FOUND into (nil, nil)
func (s *ChatbotFlowService) findMuseum(ctx context.Context, name string) (*entities.Museum, error) {
	if name == "" {
		return nil, nil
	}
	m, err := s.museums.FindByName(ctx, name)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	return m, err
}

func notFoundMuseum(flow entities.Flow, input string) FlowResponse {
	msg := fmt.Sprintf("Sorry, I couldn't find %q. Please try again.", input)
	return FlowResponse{
		State:   awaiting(flow, entities.AwaitMuseumName, msg, museumPlaceholder),
		Flow:    flow,
		Outcome: OutcomeReprompt,
	}
}

func (s *ChatbotFlowService) handleBooking(ctx context.Context, input string) (FlowResponse, error) {
	m, err := s.findMuseum(ctx, input)
	if err != nil {
		return FlowResponse{}, err
	}
	if m == nil {
		return notFoundMuseum(entities.FlowBooking, input), nil
	}

	if m.BookingLink != "" {
		msg := entities.NewMessage(
			entities.Paragraph(fmt.Sprintf("Great! I found %s. Click the button below to book your tickets.", m.Name)),
			entities.Detail("💰", orDefault(m.EntryFee, "Contact for pricing")),
		)
		st := completedState(msg)
		st.TempData = entities.TempData{BookingLink: m.BookingLink, MuseumName: m.Name}
		return FlowResponse{
			State:   st,
			Actions: []entities.Action{{Type: entities.ActionOpenURL, Label: "Book tickets for " + m.Name, URL: m.BookingLink}},
			Flow:    entities.FlowBooking,
			Outcome: OutcomeCompleted,
		}, nil
	}

	var msg entities.Message
	switch {
	case m.Website != "":
		msg = entities.NewMessage(
			entities.Paragraph(fmt.Sprintf("%s found, but no direct booking available. Please check their website for more information.", m.Name)),
			entities.Detail("🌐", m.Website),
		)
	case m.Contact != "":
		msg = entities.NewMessage(
			entities.Paragraph(fmt.Sprintf("%s found, but no direct booking available. Please contact the museum to book.", m.Name)),
			entities.Detail("📞", m.Contact),
		)
	default:
		msg = entities.TextMessage(fmt.Sprintf("Sorry, %s doesn't offer online booking and has no contact details listed.", m.Name))
	}
	return completed(entities.FlowBooking, completedState(msg)), nil
}

func (s *ChatbotFlowService) handleDetails(ctx context.Context, input string) (FlowResponse, error) {
	m, err := s.findMuseum(ctx, input)
	if err != nil {
		return FlowResponse{}, err
	}
	if m == nil {
		return notFoundMuseum(entities.FlowDetails, input), nil
	}

	blocks := []entities.Block{
		entities.Heading(m.Name),
		entities.Detail("📍", fmt.Sprintf("%s | 🏛️ %s", m.City, orDefault(m.Type, "Museum"))),
		entities.Detail("⏰", orDefault(m.Timings, "Contact for timings")),
		entities.Detail("💰", orDefault(m.EntryFee, "Contact for pricing")),
		entities.Paragraph(orDefault(m.Description, "No description available")),
	}
	if m.Contact != "" {
		blocks = append(blocks, entities.Detail("📞", m.Contact))
	}
	return completed(entities.FlowDetails, completedState(entities.NewMessage(blocks...))), nil
}

func (s *ChatbotFlowService) handleTimeslots(ctx context.Context, input string) (FlowResponse, error) {
	m, err := s.findMuseum(ctx, input)
	if err != nil {
		return FlowResponse{}, err
	}
	if m == nil {
		return notFoundMuseum(entities.FlowTimeslots, input), nil
	}

	blocks := []entities.Block{entities.Heading(m.Name + " - Available Time Slots")}
	if len(m.DetailedTimings) > 0 {
		blocks = append(blocks, entities.Paragraph("📅 Weekly Schedule:"))
		blocks = append(blocks, WeeklySchedule(m)...)
		blocks = append(blocks, entities.Detail("💰", "Entry Fee: "+orDefault(m.EntryFee, "Contact for pricing")))
		if m.BookingLink != "" {
			blocks = append(blocks, entities.Paragraph(`🎫 You can book tickets using the "Museum Booking" option.`))
		}
	} else {
		blocks = append(blocks,
			entities.Detail("⏰", orDefault(m.Timings, "Contact museum for current timings")),
			entities.Detail("💰", "Entry Fee: "+orDefault(m.EntryFee, "Contact for pricing")),
		)
	}
	return completed(entities.FlowTimeslots, completedState(entities.NewMessage(blocks...))), nil
}

// WeeklySchedule renders one line per weekday, Monday first
func WeeklySchedule(m *entities.Museum) []entities.Block {
	blocks := make([]entities.Block, 0, len(entities.Week))
	for _, d := range entities.Week {
		status, hours := m.DayStatus(d)
		var line string
		switch status {
		case entities.DayOpen:
			line = fmt.Sprintf("%s: ✅ Open (%s)", d, hours)
		case entities.DayClosed:
			line = fmt.Sprintf("%s: ❌ Closed", d)
		default:
			line = fmt.Sprintf("%s: ➖ Hours not listed", d)
		}
		blocks = append(blocks, entities.Detail("", line))
	}
	return blocks
}

func (s *ChatbotFlowService) handleSuggest(ctx context.Context, input string) (FlowResponse, error) {
	var museums []*entities.Museum
	if input != "" {
		var err error
		if museums, err = s.museums.ListByCity(ctx, input, suggestLimit); err != nil {
			return FlowResponse{}, err
		}
	}
	if len(museums) == 0 {
		msg := fmt.Sprintf("Sorry, I couldn't find any museums in %q. Please try again.", input)
		return FlowResponse{
			State:   awaiting(entities.FlowSuggest, entities.AwaitCityName, msg, cityPlaceholder),
			Flow:    entities.FlowSuggest,
			Outcome: OutcomeReprompt,
		}, nil
	}

	blocks := []entities.Block{entities.Heading("Museums in " + input)}
	for i, m := range museums {
		blocks = append(blocks,
			entities.ListItem(i+1, m.Name),
			entities.Detail("📍", orDefault(m.Address, m.City)),
			entities.Detail("💰", orDefault(m.EntryFee, "Contact for pricing")),
		)
	}
	return completed(entities.FlowSuggest, menuState(entities.NewMessage(blocks...))), nil
}

func (s *ChatbotFlowService) handleTripPlanner(ctx context.Context, input string, state entities.ConversationState) (FlowResponse, error) {
	switch state.TempData.Step {
	case entities.TripStepCity:
		return s.tripCity(ctx, input)
	case entities.TripStepTime:
		return s.tripTime(ctx, input, state.TempData.City)
	default:
		return menuResponse(entities.TextMessage("Something went wrong. Let's start over.")), nil
	}
}

func (s *ChatbotFlowService) tripCity(ctx context.Context, city string) (FlowResponse, error) {
	var museums []*entities.Museum
	if city != "" {
		var err error
		if museums, err = s.museums.ListByCity(ctx, city, 1); err != nil {
			return FlowResponse{}, err
		}
	}
	if len(museums) == 0 {
		st := awaiting(entities.FlowTripPlanner, entities.AwaitCityName,
			fmt.Sprintf("Sorry, I couldn't find any museums in %q. Please try again.", city), cityPlaceholder)
		st.TempData = entities.TempData{Step: entities.TripStepCity}
		return FlowResponse{State: st, Flow: entities.FlowTripPlanner, Outcome: OutcomeReprompt}, nil
	}

	st := awaiting(entities.FlowTripPlanner, entities.AwaitTime, tripTimePrompt, timePlaceholder)
	st.TempData = entities.TempData{Step: entities.TripStepTime, City: city}
	return FlowResponse{State: st, Flow: entities.FlowTripPlanner, Outcome: OutcomeEntered}, nil
}

func (s *ChatbotFlowService) tripTime(ctx context.Context, input, city string) (FlowResponse, error) {
	window, ok := entities.ParseVisitTime(input)
	if !ok {
		st := awaiting(entities.FlowTripPlanner, entities.AwaitTime,
			fmt.Sprintf("Sorry, I didn't understand %q. %s", input, tripTimePrompt), timePlaceholder)
		st.TempData = entities.TempData{Step: entities.TripStepTime, City: city}
		return FlowResponse{State: st, Flow: entities.FlowTripPlanner, Outcome: OutcomeReprompt}, nil
	}

	museums, err := s.museums.ListByCity(ctx, city, 0)
	if err != nil {
		return FlowResponse{}, err
	}
	if len(museums) == 0 {
		return menuResponse(entities.TextMessage(fmt.Sprintf("Sorry, I couldn't find any museums in %q. Please try again.", city))), nil
	}

	available := make([]*entities.Museum, 0, len(museums))
	for _, m := range museums {
		if m.AcceptsVisit(window) {
			available = append(available, m)
		}
	}

	if len(available) == 0 {
		blocks := []entities.Block{
			entities.Paragraph(fmt.Sprintf("No museums found in %s that are open at %s. Here are all museums in %s:", city, input, city)),
		}
		for _, m := range museums {
			blocks = append(blocks, entities.Detail("🏛️", m.Name))
		}
		return completed(entities.FlowTripPlanner, menuState(entities.NewMessage(blocks...))), nil
	}

	_, stops := s.trips.Rank(ctx, city, available)
	blocks := []entities.Block{
		entities.Heading(fmt.Sprintf("Your Trip Plan for %s 🗓️", city)),
		entities.Paragraph(fmt.Sprintf("Available museums for %s:", input)),
	}
	for i, stop := range stops {
		m := stop.Museum
		blocks = append(blocks,
			entities.ListItem(i+1, m.Name),
			entities.Detail("📍", orDefault(m.Address, m.City)),
			entities.Detail("⏰", orDefault(m.Timings, "Contact for timings")),
			entities.Detail("💰", orDefault(m.EntryFee, "Contact for pricing")),
		)
		if stop.DistanceKm != nil {
			blocks = append(blocks, entities.Detail("🚗", stop.Distance+" from the city center"))
		}
	}
	return completed(entities.FlowTripPlanner, menuState(entities.NewMessage(blocks...))), nil
}

func menuState(msg entities.Message) entities.ConversationState {
	return entities.ConversationState{
		CurrentFlow:    entities.FlowMenu,
		AwaitingInput:  entities.AwaitNothing,
		CurrentMessage: msg,
		ShowInput:      false,
		ShowButtons:    true,
	}
}

// completedState ends a flow and offers the menu buttons again
func completedState(msg entities.Message) entities.ConversationState {
	return entities.ConversationState{
		CurrentFlow:    entities.FlowNone,
		AwaitingInput:  entities.AwaitNothing,
		CurrentMessage: msg,
		ShowButtons:    true,
	}
}

func awaiting(flow entities.Flow, input entities.InputKind, prompt, placeholder string) entities.ConversationState {
	return entities.ConversationState{
		CurrentFlow:      flow,
		AwaitingInput:    input,
		CurrentMessage:   entities.TextMessage(prompt),
		InputPlaceholder: placeholder,
		ShowInput:        true,
		ShowButtons:      false,
	}
}

func entered(st entities.ConversationState) FlowResponse {
	return FlowResponse{State: st, Flow: st.CurrentFlow, Outcome: OutcomeEntered}
}

func completed(flow entities.Flow, st entities.ConversationState) FlowResponse {
	return FlowResponse{State: st, Flow: flow, Outcome: OutcomeCompleted}
}

func menuResponse(msg entities.Message) FlowResponse {
	return FlowResponse{State: menuState(msg), Flow: entities.FlowMenu, Outcome: OutcomeMenu}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// tokenize lower-cases text and splits it on anything that is not a letter or digit
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
