package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/musemate/backend/internal/application/services"
)

// VideosCmd looks up a video tour, falling back to broader searches
var VideosCmd = &cobra.Command{
	Use:     "videos <query>",
	Aliases: []string{"v"},
	Short:   "Find a video tour of a museum",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(configFromViper())
		if err != nil {
			return err
		}
		return lookupVideos(cmd.Context(), a, strings.Join(args, " "), cmd.OutOrStdout())
	},
}

func lookupVideos(ctx context.Context, a *app, query string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := a.videos.Lookup(ctx, query)
	if err != nil {
		return err
	}

	switch result.Status {
	case services.VideoFound, services.VideoRelated:
		if result.Message != "" {
			fmt.Fprintln(out, result.Message)
		}
		for i, v := range result.Videos {
			link := v.WatchURL
			if link == "" {
				link = v.EmbedURL
			}
			fmt.Fprintf(out, "%d. %s [%s]\n   %s\n", i+1, v.Title, v.Platform, link)
		}
	default:
		fmt.Fprintln(out, result.Message)
	}
	return nil
}
