package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/joss/domem/internal/config"
	"github.com/joss/domem/internal/db"
	"github.com/joss/domem/internal/db/mysql"
	"github.com/joss/domem/internal/db/sqlite"
	"github.com/joss/domem/internal/factory"
	"github.com/joss/domem/internal/memory"
	"github.com/joss/domem/internal/render"
	"github.com/joss/domem/internal/runtime"
)

var (
	store    *memory.Store
	storeCfg config.Database
)

// requireStore opens the configured backend once per process and exits on
// failure.
func requireStore() *memory.Store {
	if store != nil {
		return store
	}

	ctx := runtime.ShutdownContext()
	opts := []factory.Option{factory.WithMigrations(!noMigrate)}

	var (
		a   db.Adapter
		err error
	)
	if askPassword {
		storeCfg = config.Load(configPath)
		if storeCfg.Password, err = promptPassword(); err != nil {
			exitOnError(err)
		}
		a, err = factory.Open(ctx, storeCfg, opts...)
	} else {
		a, storeCfg, err = factory.OpenDefault(ctx, configPath, opts...)
	}
	if err != nil {
		exitOnError(err)
	}

	s := memory.New(a, memory.WithUserName(storeCfg.UserName))
	runtime.Global().RegisterSimple("store", s.Close)
	store = s
	return store
}

func closeStore() {
	if store != nil {
		_ = store.Close()
		store = nil
	}
}

// exitOnError prints err to stderr, releases the store and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	closeStore()
	os.Exit(1)
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--ask-password needs an interactive terminal")
	}
	fmt.Fprint(os.Stderr, "Database password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// emit prints v as JSON under --json, text otherwise.
func emit(v any, text string) {
	if asJSON {
		if err := render.Stdout().JSON(v); err != nil {
			exitOnError(err)
		}
		return
	}
	fmt.Println(strings.TrimRight(text, "\n"))
}

func renderer() *render.Renderer {
	return render.New(true)
}

// readArg returns arg, or stdin when arg is "-" so hooks can pipe long text.
func readArg(arg string) string {
	if arg != "-" {
		return arg
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitOnError(fmt.Errorf("read stdin: %w", err))
	}
	return strings.TrimRight(string(data), "\n")
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		exitOnError(fmt.Errorf("invalid id %q", s))
	}
	return id
}

func projectOrCwd(project string) string {
	if project != "" {
		return memory.ProjectPath(project)
	}
	return memory.CurrentProjectPath()
}

// latestVersion is the newest migration shipped for a backend.
func latestVersion(backend string) int {
	if backend == db.BackendNetworked {
		return mysql.Migrations.Latest()
	}
	return sqlite.Migrations.Latest()
}

// location describes where the configured database lives.
func location(cfg config.Database) string {
	if config.NormalizeType(cfg.Type) == db.BackendNetworked {
		return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	}
	if cfg.Path == "" {
		return config.DefaultPath()
	}
	return cfg.Path
}
