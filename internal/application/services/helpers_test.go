package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/musemate/backend/internal/adapters/memory"
	"github.com/musemate/backend/internal/adapters/providers/geolocation"
	"github.com/musemate/backend/internal/application/services"
	"github.com/musemate/backend/internal/domain/entities"
)

func museumFixtures() []*entities.Museum {
	return []*entities.Museum{
		{
			ID:          "kelkar",
			Name:        "Raja Dinkar Kelkar Museum",
			City:        "Pune",
			Type:        "History",
			Address:     "1377-78, Shukrawar Peth, Pune",
			Description: "Collection of everyday Indian objects gathered by Dinkar Kelkar.",
			EntryFee:    "₹50",
			Timings:     "10:00 AM - 5:30 PM",
			Contact:     "+91 20 2448 2101",
			DetailedTimings: entities.WeeklyTimings{
				"monday":    "10:00 AM - 5:30 PM",
				"tuesday":   "Closed",
				"wednesday": "10:00 AM - 5:30 PM",
				"thursday":  "10:00 AM - 5:30 PM",
				"friday":    "10:00 AM - 5:30 PM",
				"saturday":  "10:00 AM - 5:30 PM",
				"sunday":    "10:00 AM - 5:30 PM",
			},
			Latitude:  "18.5104",
			Longitude: "73.8567",
			Reviews:   []entities.Review{{User: "Asha", Rating: 4, Comment: "Lovely lamps"}, {User: "Ravi", Rating: 2, Comment: "Crowded"}},
		},
		{
			ID:          "agakhan",
			Name:        "Aga Khan Palace",
			City:        "Pune",
			Type:        "Heritage",
			Address:     "Samrat Ashok Road, Pune",
			Description: "Gandhi memorial and palace.",
			EntryFee:    "₹25",
			Timings:     "9:00 AM - 5:30 PM",
			BookingLink: "https://tickets.example/aga-khan",
			Latitude:    "18.5523",
			Longitude:   "73.9015",
		},
		{
			ID:          "csmvs",
			Name:        "Chhatrapati Shivaji Maharaj Vastu Sangrahalaya",
			City:        "Mumbai",
			Type:        "Art",
			Description: "Art and history museum in south Mumbai.",
			EntryFee:    "₹100",
			Timings:     "10:15 AM - 6:00 PM",
			Website:     "https://csmvs.in",
			Latitude:    "18.9269",
			Longitude:   "72.8326",
		},
		{
			ID:       "science",
			Name:     "Nehru Science Centre",
			City:     "Mumbai",
			Type:     "Science",
			Timings:  "6:00 PM - 9:00 PM",
			EntryFee: "₹70",
		},
	}
}

func newFlowService() (*services.ChatbotFlowService, *memory.MuseumRepository) {
	repo := memory.NewMuseumRepository(museumFixtures())
	trips := services.NewTripPlannerService(repo, geolocation.NewDirectoryProvider(nil))
	return services.NewChatbotFlowService(repo, trips), repo
}

// MockVideoSearcher is a mock implementation of providers.VideoSearcher
type MockVideoSearcher struct {
	mock.Mock
}

func (m *MockVideoSearcher) SearchVideos(ctx context.Context, query string) (*entities.VideoSearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VideoSearchResult), args.Error(1)
}

// MockWebSearchProvider is a mock implementation of providers.WebSearchProvider
type MockWebSearchProvider struct {
	mock.Mock
}

func (m *MockWebSearchProvider) Search(ctx context.Context, query string) (*entities.WebSearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WebSearchResult), args.Error(1)
}
