package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/cull/internal/config"
	"github.com/hpungsan/cull/internal/decision"
	"github.com/hpungsan/cull/internal/errors"
	"github.com/hpungsan/cull/internal/mcp"
	"github.com/hpungsan/cull/internal/migrate"
	"github.com/hpungsan/cull/internal/triage"
	"github.com/hpungsan/cull/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config, store decision.Store, svc *triage.Service, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "cull",
		Usage:   "Triage imported catalog items: keep or delete",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(cfg, store, svc),
			mcpCmd(store, svc),
			itemsCmd(svc),
			progressCmd(svc),
			decideCmd(store),
			clearCmd(store),
			exportCmd(svc),
			migrateCmd(cfg, baseDir),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config, store decision.Store, svc *triage.Service) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP triage API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Bind address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind := cfg.Bind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := cfg.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv := web.NewServer(svc, store, bind, port)
			return web.Run(srv)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(store decision.Store, svc *triage.Service) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio (for assistant-driven triage)",
		Action: func(c *cli.Context) error {
			return mcp.Run(svc, store, Version)
		},
	}
}

// itemsCmd creates the items command.
func itemsCmd(svc *triage.Service) *cli.Command {
	return &cli.Command{
		Name:  "items",
		Usage: "List every catalog item with its current decision",
		Action: func(c *cli.Context) error {
			items, err := svc.Items(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(items)
		},
	}
}

// progressCmd creates the progress command.
func progressCmd(svc *triage.Service) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Show triage progress counters",
		Action: func(c *cli.Context) error {
			progress, err := svc.Progress(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(progress)
		},
	}
}

// decideCmd creates the decide command.
func decideCmd(store decision.Store) *cli.Command {
	return &cli.Command{
		Name:      "decide",
		Usage:     "Record a keep or delete decision for a handle",
		ArgsUsage: "<handle> <keep|delete>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("usage: cull decide <handle> <keep|delete>"))
			}
			handle := c.Args().Get(0)
			d, err := decision.Parse(c.Args().Get(1))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			if err := store.Save(c.Context, handle, d); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"success":  true,
				"handle":   handle,
				"decision": d,
			})
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(store decision.Store) *cli.Command {
	return &cli.Command{
		Name:      "clear",
		Usage:     "Clear the recorded decision for a handle",
		ArgsUsage: "<handle>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("usage: cull clear <handle>"))
			}
			handle := c.Args().Get(0)

			if err := store.Delete(c.Context, handle); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"success": true,
				"handle":  handle,
			})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(svc *triage.Service) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the items marked delete as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write CSV to file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			csv, err := svc.ExportDeletions(c.Context)
			if err != nil {
				return outputError(err)
			}

			if path := c.String("output"); path != "" {
				if err := os.WriteFile(path, csv, 0600); err != nil {
					return outputError(errors.NewInternal(err))
				}
				return outputJSON(map[string]any{"path": path})
			}

			_, err = os.Stdout.Write(csv)
			return err
		},
	}
}

// migrateCmd creates the migrate command.
func migrateCmd(cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Replay the flat-file decision store into a database backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Flat decisions file (default from config)"},
			&cli.StringFlag{Name: "to", Value: config.BackendSQLite, Usage: "Target backend: sqlite|bolt"},
		},
		Action: func(c *cli.Context) error {
			from := cfg.DecisionsFile
			if c.IsSet("from") {
				from = c.String("from")
			}

			to := c.String("to")
			if to == config.BackendFile || !config.ValidBackend(to) {
				return outputError(errors.NewInvalidRequest("target backend must be sqlite or bolt"))
			}

			// The migration target is opened independently of the
			// configured store, so migrating while Backend=file works.
			targetCfg := *cfg
			targetCfg.Backend = to
			dst, err := decision.Open(&targetCfg, baseDir)
			if err != nil {
				return outputError(errors.NewStore(err))
			}
			defer dst.Close()

			report, err := migrate.Run(c.Context, from, dst)
			if err != nil {
				// Precondition failure: nothing was attempted.
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			if report.Failed > 0 {
				log.Warn().Int("failed", report.Failed).Msg("some entries failed to migrate")
			}
			return outputJSON(report)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if tErr, ok := err.(*errors.TriageError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
