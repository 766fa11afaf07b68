// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

// setupCommand writes the config file and stores the login cookie.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and log in from a copied cURL request",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "curl",
				Usage: "cURL command copied from a logged-in music.163.com request",
			},
			&cli.StringFlag{
				Name:  "curl-file",
				Usage: "File containing the copied cURL command",
			},
			&cli.BoolFlag{
				Name:  "no-verify",
				Usage: "Save the cookie without checking it against the API",
			},
		},
		Action: r.Setup,
	}
}

// favoritesCommand lists or exports the liked songs.
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "List liked songs, or a playlist's tracks with --playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "User ID (defaults to the config or the logged-in account)",
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Playlist ID to list instead of the liked songs",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, md, txt",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Favorites,
	}
}

// playlistsCommand lists the user's playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List the user's playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "User ID (defaults to the config or the logged-in account)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}

// lyricsCommand prints a track's timed lyrics.
func lyricsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lyrics",
		Usage: "Print the timed lyrics of a track",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Lyrics,
	}
}

// playCommand launches the player TUI.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Launch the interactive player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Playlist ID to play instead of the liked songs",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Playback mode: single, single-repeat, list-repeat, shuffle",
			},
			&cli.BoolFlag{
				Name:  "control",
				Usage: "Start the remote-control HTTP server",
			},
		},
		Action: r.Play,
	}
}

// apiCommand handles direct (proxy) API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the NeteaseCloudMusicApi proxy",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the proxy, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query parameter as key=value (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
