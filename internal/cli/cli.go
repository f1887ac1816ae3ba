// internal/cli/cli.go

// Package cli implements the locbook command line: the discovery views of
// the public dashboard rendered as text from a running API.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jessevdk/go-flags"

	"locbook/internal/client"
	"locbook/internal/discovery"
	"locbook/internal/logging"
	"locbook/internal/siteconfig"
)

// Options are shared by every command
type Options struct {
	API      string        `long:"api" env:"LOCBOOK_API" default:"http://localhost:8000" description:"Base URL of the LocBook API"`
	Limit    int           `long:"limit" default:"1000" description:"Maximum number of places to fetch"`
	Defaults string        `long:"defaults" env:"SITE_DEFAULTS_PATH" description:"YAML file with default site configuration"`
	Timeout  time.Duration `long:"timeout" default:"15s" description:"HTTP timeout"`
	Verbose  bool          `short:"v" long:"verbose" description:"Log fetch details"`
}

// App wires the parsed options to a session
type App struct {
	Options Options
	Out     io.Writer

	// HTTPClient overrides the client built from Options.Timeout
	HTTPClient *http.Client
}

// NewParser builds the command parser for app
func NewParser(app *App) *flags.Parser {
	parser := flags.NewParser(&app.Options, flags.Default)
	parser.ShortDescription = "LocBook"
	parser.LongDescription = "Browse the LocBook catalogue from the terminal."

	parser.AddCommand("home", "Show the home sections",
		"Group places into the configured home categories.", &HomeCommand{app: app})
	parser.AddCommand("search", "Search and filter places",
		"Filter places by text, vibes and categories. A vibe or category given twice cancels out.", &SearchCommand{app: app})
	parser.AddCommand("place", "Show one place",
		"Fetch and print the full record of a place.", &PlaceCommand{app: app})

	return parser
}

// Run parses args and executes the selected command
func Run(app *App, args []string) error {
	_, err := NewParser(app).ParseArgs(args)
	return err
}

func (a *App) session(ctx context.Context) (*client.Session, error) {
	level := "warn"
	if a.Options.Verbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: "console"})

	defaults, err := siteconfig.Load(a.Options.Defaults)
	if err != nil {
		return nil, err
	}

	httpClient := a.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: a.Options.Timeout}
	}

	s := client.NewSession(client.New(a.Options.API, httpClient), defaults, a.Options.Limit)
	if err := s.Load(ctx); err != nil && !s.Loaded() {
		return nil, fmt.Errorf("failed to load places: %w", err)
	}
	return s, nil
}

// HomeCommand prints the grouped home view
type HomeCommand struct {
	app *App
}

// Execute implements flags.Commander
func (c *HomeCommand) Execute([]string) error {
	s, err := c.app.session(context.Background())
	if err != nil {
		return err
	}

	view := s.View(discovery.FilterState{})
	RenderSections(c.app.Out, view.Sections)
	return nil
}

// SearchCommand prints the filtered view and the selectable facets
type SearchCommand struct {
	Query      string   `short:"q" long:"query" description:"Search text"`
	Vibes      []string `long:"vibe" description:"Toggle a vibe filter (repeatable)"`
	Categories []string `long:"category" description:"Toggle a category filter (repeatable)"`

	app *App
}

// State applies the flags to an empty filter state in the order given
func (c *SearchCommand) State() discovery.FilterState {
	state := discovery.FilterState{}.WithSearch(c.Query)
	for _, v := range c.Vibes {
		state = state.ToggleVibe(v)
	}
	for _, cat := range c.Categories {
		state = state.ToggleCategory(cat)
	}
	return state
}

// Execute implements flags.Commander
func (c *SearchCommand) Execute([]string) error {
	s, err := c.app.session(context.Background())
	if err != nil {
		return err
	}

	RenderView(c.app.Out, s.View(c.State()))
	return nil
}

// PlaceCommand prints one hydrated place
type PlaceCommand struct {
	Args struct {
		ID string `positional-arg-name:"id" required:"yes"`
	} `positional-args:"yes"`

	app *App
}

// Execute implements flags.Commander
func (c *PlaceCommand) Execute([]string) error {
	ctx := context.Background()
	s, err := c.app.session(ctx)
	if err != nil {
		return err
	}

	p, ok := s.Find(c.Args.ID)
	if !ok {
		p.ID = c.Args.ID
	}
	full, err := s.Hydrate(ctx, p)
	if err != nil {
		return err
	}

	RenderPlace(c.app.Out, full)
	return nil
}
