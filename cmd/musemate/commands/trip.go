package commands

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/musemate/backend/internal/domain/entities"
)

// TripCmd suggests the nearest museums open on a date
var TripCmd = &cobra.Command{
	Use:     "trip <city>",
	Aliases: []string{"t"},
	Short:   "Plan a museum day trip",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dateFlag, _ := cmd.Flags().GetString("date")
		hours, _ := cmd.Flags().GetFloat64("hours")
		timeOfDay, _ := cmd.Flags().GetString("time-of-day")

		req, err := tripRequest(args[0], dateFlag, hours, timeOfDay, time.Now())
		if err != nil {
			return err
		}
		a, err := newApp(configFromViper())
		if err != nil {
			return err
		}
		return planTrip(cmd.Context(), a, req, cmd.OutOrStdout())
	},
}

func init() {
	TripCmd.Flags().String("date", "", "visit date as YYYY-MM-DD (default today)")
	TripCmd.Flags().Float64("hours", 0, "hours available; two hours per museum")
	TripCmd.Flags().String("time-of-day", "", "morning, afternoon or evening")
}

func tripRequest(city, date string, hours float64, timeOfDay string, now time.Time) (entities.TripRequest, error) {
	req := entities.TripRequest{City: strings.TrimSpace(city), Date: now}
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return req, fmt.Errorf("date must be in YYYY-MM-DD format")
		}
		req.Date = d
	}
	if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return req, fmt.Errorf("hours must be a positive number")
	}
	if hours > 0 {
		req.Hours = &hours
	}
	switch tod := strings.ToLower(strings.TrimSpace(timeOfDay)); tod {
	case "", "morning", "afternoon", "evening":
		req.TimeOfDay = tod
	default:
		return req, fmt.Errorf("time-of-day must be morning, afternoon or evening")
	}
	return req, nil
}

func planTrip(ctx context.Context, a *app, req entities.TripRequest, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	plan, err := a.trips.Plan(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Trip to %s on %s (%s)\n", plan.City, plan.Date, plan.Weekday)
	if len(plan.Stops) == 0 {
		fmt.Fprintln(out, "No museums are open that day.")
		return nil
	}
	fmt.Fprintf(out, "%d of %d open museums fit your time:\n", len(plan.Stops), plan.Eligible)
	for i, stop := range plan.Stops {
		fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, stop.Museum.Name, stop.Distance)
		if stop.Museum.Timings != "" {
			fmt.Fprintf(out, "     ⏰ %s\n", stop.Museum.Timings)
		}
	}
	return nil
}
