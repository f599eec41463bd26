// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, json, csv, markdown)",
		Value:   "text",
	}
}

func limitFlag(value int) cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of rows (0 for all)",
		Value:   value,
	}
}

func queueFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "playlist",
			Usage: "Queue a catalog playlist by ID",
		},
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Queue the results of a catalog search",
		},
		&cli.IntFlag{
			Name:  "start",
			Usage: "Queue index to start from",
		},
		&cli.BoolFlag{
			Name:  "shuffle",
			Usage: "Shuffle the queue before playing",
		},
	}
}

// setupCommand writes a config file, prepares the database and stores the API token
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file, initialize the database and store the API token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "token",
				Usage: "Hosted API token to save in the system keyring",
			},
		},
		Action: r.Setup,
	}
}

// playCommand runs the now-playing TUI
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play tracks in the terminal UI",
		ArgsUsage: "[video-id...]",
		Flags: append(queueFlags(),
			&cli.BoolFlag{
				Name:  "serve",
				Usage: "Also expose the control server while playing",
			},
		),
		Action: r.Play,
	}
}

// serveCommand runs the headless control server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Run a headless player controlled over HTTP",
		ArgsUsage: "[video-id...]",
		Flags: append(queueFlags(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to [server] host:port)",
			},
		),
		Action: r.Serve,
	}
}

// searchCommand queries the catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog for songs",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			limitFlag(10),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// historyCommand lists recently played tracks
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recently played tracks",
		Flags: []cli.Flag{
			limitFlag(20),
			formatFlag(),
			&cli.StringFlag{
				Name:  "filter",
				Usage: "Fuzzy filter on title and artist",
			},
		},
		Action: r.History,
	}
}

// statsCommand lists the most played tracks
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show most played tracks",
		Flags:  []cli.Flag{limitFlag(10), formatFlag()},
		Action: r.Stats,
	}
}

// achievementsCommand shows the local ledger
func achievementsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "achievements",
		Usage:  "Show level, XP and unlocked achievements",
		Flags:  []cli.Flag{formatFlag()},
		Action: r.Achievements,
	}
}
