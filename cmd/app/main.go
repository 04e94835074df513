package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/zettpub/internal"
	"github.com/starford/zettpub/internal/apperr"
	pkgconfig "github.com/starford/zettpub/pkg/config"
)

const defaultConfigFile = "zettpub.yaml"

// commonFlags returns fresh flag instances so every command can own them.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to an optional YAML config file",
			Value:   defaultConfigFile,
			Sources: cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Directory holding the notes",
			Sources: cli.EnvVars("ZETTLE_PATH"),
		},
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Root of the site git repository",
			Sources: cli.EnvVars("REPO_PATH"),
		},
		&cli.StringFlag{
			Name:    "subpath",
			Usage:   "Pages directory inside the repository",
			Value:   internal.DefaultSubpath,
			Sources: cli.EnvVars("PAGES_SUBPATH"),
		},
		&cli.StringFlag{
			Name:    "tag",
			Usage:   "Publish tag preceding (identifier)",
			Sources: cli.EnvVars("OPEN_TAG"),
		},
		&cli.BoolFlag{
			Name:    "exclude",
			Usage:   "Mark published pages as excluded from site listings",
			Sources: cli.EnvVars("PAGES_EXCLUDE"),
		},
		&cli.StringFlag{
			Name:    "remote",
			Usage:   "Remote to push to (git default when empty)",
			Sources: cli.EnvVars("PUBLISH_REMOTE"),
		},
		&cli.StringFlag{
			Name:    "branch",
			Usage:   "Branch to push (git default when empty)",
			Sources: cli.EnvVars("PUBLISH_BRANCH"),
		},
		&cli.BoolFlag{
			Name:    "no-push",
			Usage:   "Commit without pushing",
			Sources: cli.EnvVars("NO_PUSH"),
		},
		&cli.StringFlag{
			Name:    "history",
			Usage:   "Publish history database (empty disables it)",
			Sources: cli.EnvVars("HISTORY_PATH"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	read := pkgconfig.ReadIfExists[internal.Config]
	if cmd.IsSet("config") {
		read = pkgconfig.Read[internal.Config]
	}
	if err := read(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrConfig, err)
	}

	if cmd.IsSet("source") {
		cfg.Source.Path = cmd.String("source")
	}
	if cmd.IsSet("repo") {
		cfg.Repo.Path = cmd.String("repo")
	}
	if cmd.IsSet("subpath") {
		cfg.Pages.Subpath = cmd.String("subpath")
	}
	if cmd.IsSet("tag") {
		cfg.Pages.Tag = cmd.String("tag")
	}
	if cmd.IsSet("exclude") {
		cfg.Pages.Exclude = cmd.Bool("exclude")
	}
	if cmd.IsSet("remote") {
		cfg.Repo.Remote = cmd.String("remote")
	}
	if cmd.IsSet("branch") {
		cfg.Repo.Branch = cmd.String("branch")
	}
	if cmd.IsSet("no-push") {
		cfg.Repo.Push = !cmd.Bool("no-push")
	}
	if cmd.IsSet("history") {
		cfg.History.Path = cmd.String("history")
	}
	if cmd.IsSet("log-level") {
		if err := cfg.App.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
			return nil, fmt.Errorf("%w: log level: %w", apperr.ErrConfig, err)
		}
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}
	return cfg, nil
}

func publish(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	run, err := internal.Publish(ctx, internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	if run.NothingToDo {
		fmt.Fprintln(os.Stdout, "nothing to publish")
		return nil
	}
	fmt.Fprintln(os.Stdout, run.Message)
	return nil
}

func watch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Watch(ctx, internal.WithConfig(cfg))
}

func history(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := internal.History(ctx, int(cmd.Int("limit")), internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFINISHED\tCOMMIT\tPUSHED\tMESSAGE")
	for _, r := range runs {
		commit := r.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		msg := r.Message
		if r.NothingToDo {
			msg = "(nothing to publish)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.FinishedAt.Local().Format(time.DateTime), commit, pushedMark(r.Pushed), msg)
	}
	return w.Flush()
}

func pushedMark(pushed bool) string {
	if pushed {
		return "pushed"
	}
	return "local"
}

func pages(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	list, err := internal.Pages(ctx, internal.WithConfig(cfg))
	if err != nil {
		return err
	}
	return printPages(os.Stdout, list)
}

func printPages(out io.Writer, list []internal.PageInfo) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tTITLE\tLAYOUT\tEXCLUDED")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", p.File, p.Title, p.Layout, p.Exclude)
	}
	return w.Flush()
}

func main() {
	cmd := &cli.Command{
		Name:   "zettpub",
		Usage:  "Publish tagged zettelkasten notes into a static site repository",
		Action: publish,
		Flags:  commonFlags(),
		Commands: []*cli.Command{
			{
				Name:   "publish",
				Usage:  "Rebuild the pages, commit and push once",
				Action: publish,
				Flags:  commonFlags(),
			},
			{
				Name:   "watch",
				Usage:  "Republish whenever a note changes",
				Action: watch,
				Flags: append(commonFlags(), &cli.IntFlag{
					Name:    "port",
					Usage:   "Serve the status API on this port (0 disables it)",
					Sources: cli.EnvVars("HTTP_PORT"),
				}),
			},
			{
				Name:   "history",
				Usage:  "Show recorded publish runs",
				Action: history,
				Flags: append(commonFlags(), &cli.IntFlag{
					Name:  "limit",
					Usage: "Number of runs to show",
					Value: 20,
				}),
			},
			{
				Name:   "pages",
				Usage:  "List the pages currently published",
				Action: pages,
				Flags:  commonFlags(),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(apperr.ExitCode(err))
	}
}
