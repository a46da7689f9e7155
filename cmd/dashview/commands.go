package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GregMSThompson/analytics-dashboard/internal/authoring"
	"github.com/GregMSThompson/analytics-dashboard/internal/jobs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
	"github.com/GregMSThompson/analytics-dashboard/internal/view"
)

// filterFlags collects repeated -filter name=value pairs.
type filterFlags []string

func (f *filterFlags) String() string { return strings.Join(*f, ",") }

func (f *filterFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("filter %q must be name=value", v)
	}
	*f = append(*f, v)
	return nil
}

func (f filterFlags) pairs() [][2]string {
	out := make([][2]string, 0, len(f))
	for _, kv := range f {
		name, value, _ := strings.Cut(kv, "=")
		out = append(out, [2]string{strings.TrimSpace(name), strings.TrimSpace(value)})
	}
	return out
}

func defineCommands() {
	defineRender()
	defineSave()
	defineDelete()
	defineImport()
	defineJob()
}

func defineRender() {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	dashboardID := fs.String("dashboard", "", "dashboard ID")
	var filters filterFlags
	fs.Var(&filters, "filter", "filter selection name=value (repeatable, empty value selects All)")

	register(&Command{
		Name:        "render",
		Description: "Render every widget of a dashboard as JSON",
		FlagSet:     fs,
		Run: func(ctx context.Context, env *Env) error {
			if *dashboardID == "" {
				return errors.New("-dashboard is required")
			}
			d, err := view.Open(ctx, env.Client, *dashboardID, view.Options{Log: env.Log})
			if err != nil {
				return err
			}
			defer d.Close()

			for _, p := range filters.pairs() {
				d.SetFilter(p[0], p[1])
			}
			d.Wait()
			return printJSON(os.Stdout, map[string]any{
				"dashboard": d.ID(),
				"filters":   d.Filters(),
				"widgets":   d.Render(),
			})
		},
	})
}

func defineSave() {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	dashboardID := fs.String("dashboard", "", "dashboard ID")
	widgetID := fs.String("widget", "", "existing widget ID to edit (omit to create)")
	title := fs.String("title", "", "widget title")
	kind := fs.String("type", "", "chart type")
	path := fs.String("path", "", "data path")
	source := fs.String("source", "", "data source kind (defaults to local)")
	xField := fs.String("x", "", "x field")
	yField := fs.String("y", "", "y field")
	series := fs.String("series", "", "comma separated series fields")

	register(&Command{
		Name:        "save",
		Description: "Create or edit a widget through the authoring workflow",
		FlagSet:     fs,
		Run: func(ctx context.Context, env *Env) error {
			if *dashboardID == "" {
				return errors.New("-dashboard is required")
			}
			d, err := view.Open(ctx, env.Client, *dashboardID, view.Options{Log: env.Log})
			if err != nil {
				return err
			}
			defer d.Close()

			ctl := d.Authoring()
			if *widgetID != "" {
				w, ok := d.Config().Widget(*widgetID)
				if !ok {
					return fmt.Errorf("widget %s not found on dashboard %s", *widgetID, *dashboardID)
				}
				ctl.OpenEdit(*w)
			} else {
				ctl.OpenCreate()
			}

			set := setFlags(fs)
			if err := ctl.Edit(func(dr *authoring.Draft) {
				if set["title"] {
					dr.Title = *title
				}
				if set["type"] {
					dr.Type = models.ChartKind(*kind)
				}
				if set["path"] {
					dr.Config.Path = *path
				}
				if set["source"] {
					dr.Config.Source = *source
				}
				if set["x"] {
					dr.Config.XField = *xField
				}
				if set["y"] {
					dr.Config.YField = *yField
				}
				if set["series"] {
					dr.SeriesText = *series
				}
			}); err != nil {
				return err
			}

			w, err := ctl.Save(ctx)
			if w != nil {
				if perr := printJSON(os.Stdout, w); perr != nil {
					return perr
				}
			}
			return err
		},
	})
}

func defineDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	dashboardID := fs.String("dashboard", "", "dashboard ID")
	widgetID := fs.String("widget", "", "widget ID")

	register(&Command{
		Name:        "delete",
		Description: "Delete a widget",
		FlagSet:     fs,
		Run: func(ctx context.Context, env *Env) error {
			if *dashboardID == "" || *widgetID == "" {
				return errors.New("-dashboard and -widget are required")
			}
			d, err := view.Open(ctx, env.Client, *dashboardID, view.Options{Log: env.Log})
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.Authoring().Delete(ctx, *widgetID); err != nil {
				return err
			}
			env.Log.Info("widget deleted", "dashboard_id", *dashboardID, "widget_id", *widgetID)
			return nil
		},
	})
}

func defineImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dashboardID := fs.String("dashboard", "", "dashboard ID (defaults to the file's id)")
	file := fs.String("file", "", "dashboard configuration file (.json, .yaml or .yml)")

	register(&Command{
		Name:        "import",
		Description: "Upload a dashboard configuration file",
		FlagSet:     fs,
		Run: func(ctx context.Context, env *Env) error {
			if *file == "" {
				return errors.New("-file is required")
			}
			d, err := readDashboardFile(*file)
			if err != nil {
				return err
			}
			if *dashboardID != "" {
				d.ID = *dashboardID
			}
			if d.ID == "" {
				return errors.New("dashboard ID missing from file and flags")
			}
			out, err := env.Client.ImportDashboard(ctx, &d)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	})
}

func defineJob() {
	fs := flag.NewFlagSet("job", flag.ExitOnError)
	jobID := fs.String("id", "", "job ID")

	register(&Command{
		Name:        "job",
		Description: "Poll an analysis job until it finishes and print its results",
		FlagSet:     fs,
		Run: func(ctx context.Context, env *Env) error {
			if *jobID == "" {
				return errors.New("-id is required")
			}
			p := jobs.NewPoller(env.Client, env.Cfg.JobPollInterval, env.Log)
			p.OnStatus = func(st jobs.Status) {
				fmt.Fprintf(os.Stderr, "%s: %s stage=%s progress=%g %s\n", st.JobID, st.Status, st.Stage, st.Progress, st.Message)
			}
			out, err := p.Run(ctx, *jobID)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	})
}

// setFlags reports which flags were given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
