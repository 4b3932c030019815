// ABOUTME: Entry point for the tiddle CLI and MCP server
// ABOUTME: Loads config, wires the app and routes to a command based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/tiddle/cli"
	"github.com/harperreed/tiddle/config"
)

const version = "0.1.0"

type command func(ctx context.Context, app *cli.App, args []string) error

var commands = map[string]command{
	"login":           cli.LoginCommand,
	"logout":          cli.LogoutCommand,
	"whoami":          cli.WhoamiCommand,
	"brands":          cli.BrandsCommand,
	"agency":          cli.AgencyCommand,
	"contacts":        cli.ContactsCommand,
	"contact":         cli.ContactCommand,
	"deals":           cli.DealsCommand,
	"deal":            cli.DealCommand,
	"create-deal":     cli.CreateDealCommand,
	"update-deal":     cli.UpdateDealCommand,
	"add-creator":     cli.AddCreatorCommand,
	"update-instance": cli.UpdateInstanceCommand,
	"users":           cli.UsersCommand,
	"dashboard":       cli.DashboardCommand,
	"viz":             cli.VizCommand,
	"refresh":         cli.RefreshCommand,
	"tui":             cli.TUICommand,
	"mcp": func(ctx context.Context, app *cli.App, _ []string) error {
		return cli.MCPCommand(ctx, app, version)
	},
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/tiddle/config.yaml)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (default: warn)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("tiddle version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	name, commandArgs := args[0], args[1:]

	if name == "config" {
		if err := cli.ConfigCommand(os.Stdout, cfg, *configPath, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	run, ok := commands[name]
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	logger, err := cli.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, app, commandArgs)
	stop()
	_ = app.Close()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`tiddle v%s - Influencer campaign client

USAGE:
  tiddle [global flags] <command> [flags] [args]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/tiddle/config.yaml)
  --log-level <level>    debug, info, warn or error (default: warn)

SESSION:
  tiddle login --email <email> [--password <pw>]   Sign in (prompts for the password)
  tiddle logout                                    Sign out and clear the local session
  tiddle whoami                                    Show the signed-in user

BRANDS:
  tiddle brands            List brands
    --query <text>           Search by brand name
    --class <class>          direct, agency, music or all (default: all)
    --hidden                 Include hidden brands

  tiddle agency [--query <text>] <id>   Agency overview with managed brands and contacts

CONTACTS:
  tiddle contacts          List brand contacts
    --query <text>           Search name, email, brand or agency brand
    --status <status>        active, inactive, archived or all
    --brand <id>             Only contacts attached to a brand

  tiddle contact <id>      Show one contact

CAMPAIGNS:
  tiddle deals             List your campaigns
    --status <status>        Filter by status (default: in-progress)
    --query <text>           Search by title

  tiddle deal [--status <status>] <id>   Show a campaign with creators and totals

  tiddle create-deal       Create a campaign
    --title <title>          Campaign title (required)
    --brand <id>             Brand ID (required)
    --contacts <ids>         Comma-separated brand contact IDs (required)
    --agency <id>            Agency brand ID
    --via-agency             Booked through an agency (requires --agency)
    --deliverables <text>    Deliverables
    --status <status>        Initial status (default: roster)

  tiddle update-deal [flags] <id>   Update a campaign
    --title, --status, --deliverables, --brand, --contact
    Note: flags must come before the campaign ID

  tiddle add-creator       Book a creator on a campaign
    --deal <id>              Campaign ID (required)
    --username <name>        Creator username (required)
    --platform <platform>    Platform (required)
    --rate <amount>          Paid to the creator
    --price <amount>         Billed to the brand

  tiddle update-instance --deal <id> [flags] <instance-id>   Update a booked creator
    --status, --platform, --rate, --price, --notes, --username

  tiddle users [--query <text>]   List users

VIEWS:
  tiddle dashboard                            Campaign counts by status
  tiddle viz agency [--output <file>] <id>    Agency network as GraphViz DOT
  tiddle tui                                  Interactive browser
  tiddle refresh [--deal <id>]                Refetch cached data

OTHER:
  tiddle mcp                      Start MCP server (for Claude Desktop integration)
  tiddle config path|show|init    Inspect or create the config file

EXAMPLES:
  tiddle login --email me@example.com
  tiddle deals --status all --query launch
  tiddle viz agency 1699999999999x123 --output agency.dot

`, version)
}
