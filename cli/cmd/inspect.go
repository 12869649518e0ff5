package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/newswire-io/restitch/archive"
	"github.com/newswire-io/restitch/cli/render"
)

// InspectCommand returns the inspect command. Read-only: lists archived
// stories for one source and day.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "List archived stories for a source and day",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "archive-path",
				Usage:    "Archive base directory (fs backend)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "source",
				Usage:    "Feed partition to list",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "day",
				Usage: "Partition day (YYYY-MM-DD, default today UTC)",
			},
		}, RenderFlags()...),
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}

	day := c.String("day")
	if day == "" {
		day = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		return cli.Exit("invalid --day, expected YYYY-MM-DD", exitInvalidInput)
	}

	arch, err := archive.NewFS(c.String("archive-path"))
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}
	defer func() { _ = arch.Close() }()

	entries, err := arch.ListDay(c.Context, c.String("source"), day)
	if err != nil {
		return cli.Exit(err.Error(), exitStreamError)
	}

	return r.Render(entries)
}
