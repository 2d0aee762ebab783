// hikelog: a personal hiking log served over MCP.
//
// Hikes and trail observations live in one SQLite file. Any MCP client
// can record, search and report on them through the hikelog tools.
//
// Usage:
//
//	hikelog serve                  # Start MCP server (stdio transport)
//	hikelog migrate                # Upgrade the database and print its schema
//	hikelog export -format yaml    # Dump every hike to stdout
//	hikelog import backup.json     # Load an export document
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/hikelog/internal/config"
	"github.com/HendryAvila/hikelog/internal/hikestore"
	"github.com/HendryAvila/hikelog/internal/hiketools"
	hikeserver "github.com/HendryAvila/hikelog/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/powerman/structlog"
)

var log = structlog.New()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "migrate":
		err = runMigrate(args)
	case "export":
		err = runExport(args)
	case "import":
		err = runImport(args)
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("hikelog v%s\n", hikeserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig parses the -config flag shared by every command, loads the
// configuration and applies its log level.
func loadConfig(fs *flag.FlagSet, args []string) (config.Config, error) {
	path := fs.String("config", "", "config file (default "+config.DefaultPath()+")")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(*path)
	if err != nil {
		return config.Config{}, err
	}
	structlog.DefaultLogger.SetLogLevel(structlog.ParseLevel(cfg.LogLevel))
	log.Debug("config loaded", "config", cfg)
	return cfg, nil
}

// openStore opens the hike store for a one-shot command.
func openStore(cfg config.Config) (*hikestore.Store, func(), error) {
	store, err := hikestore.New(cfg.Store())
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.PrintErr("close", "err", err)
		}
	}, nil
}

func runServe(args []string) error {
	cfg, err := loadConfig(flag.NewFlagSet("serve", flag.ExitOnError), args)
	if err != nil {
		return err
	}

	s, cleanup, err := hikeserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	log.Info("serving", "version", hikeserver.Version)
	// ServeStdio handles SIGINT and SIGTERM itself.
	return server.ServeStdio(s)
}

func runMigrate(args []string) error {
	cfg, err := loadConfig(flag.NewFlagSet("migrate", flag.ExitOnError), args)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	st, err := store.SchemaStatus()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "json", "document format: json or yaml")
	output := fs.String("o", "", "write to this file instead of stdout")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := store.Export()
	if err != nil {
		return err
	}
	doc, err := hiketools.EncodeExport(data, *format)
	if err != nil {
		return err
	}
	if *output == "" {
		_, err = os.Stdout.Write(append(doc, '\n'))
		return err
	}
	if err := os.WriteFile(*output, doc, 0600); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d hikes to %s\n", len(data.Hikes), *output)
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: hikelog import [-config file] <document>")
	}
	doc, err := hiketools.ReadLimited(fs.Arg(0), cfg.ImportMaxBytes)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := store.Import(doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Imported %d hikes and %d observations\n", res.HikesImported, res.ObservationsImported)
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `hikelog v%s - personal hiking log MCP server

Usage:
  hikelog serve                          Start the MCP server (stdio transport)
  hikelog migrate                        Upgrade the database and print its schema
  hikelog export [-format json|yaml] [-o file]
                                         Export every hike with its observations
  hikelog import <file>                  Import a JSON or YAML export document
  hikelog version                        Print the version

Every command accepts -config <file> (default %s).
Environment overrides: %s_DATA_DIR, %s_DB_FILE, %s_LOG_LEVEL, %s_IMPORT_MAX_BYTES.

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "hikelog": {
        "command": "hikelog",
        "args": ["serve"]
      }
    }
  }
`, hikeserver.Version, config.DefaultPath(),
		config.EnvPrefix, config.EnvPrefix, config.EnvPrefix, config.EnvPrefix)
}

func init() {
	structlog.DefaultLogger.
		SetLogLevel(structlog.INF).
		SetPrefixKeys(
			structlog.KeyApp, structlog.KeyPID, structlog.KeyLevel, structlog.KeyUnit, structlog.KeyTime,
		).
		SetDefaultKeyvals(
			structlog.KeyApp, filepath.Base(os.Args[0]),
			structlog.KeySource, structlog.Auto,
		).
		SetSuffixKeys(structlog.KeyStack, structlog.KeySource).
		SetKeysFormat(map[string]string{
			structlog.KeyTime:   " %[2]s",
			structlog.KeySource: " %6[2]s",
			structlog.KeyUnit:   " %6[2]s",
			"config":            " %+[2]v",
		}).SetTimeFormat("15:04:05")
}
