// Command hashcache inspects and extends hash record files.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/spf13/afero"

	"github.com/gophersatwork/hashcache"
)

// errNotCached makes get exit non-zero without printing anything.
var errNotCached = errors.New("not cached")

// Globals are the flags shared by every subcommand.
type Globals struct {
	Cache    string   `help:"Persistence file to read first and append to." default:"hashes.csv"`
	Base     string   `help:"Base directory relative paths are keyed against." default:"."`
	From     []string `help:"Extra record files to merge after the persistence file." placeholder:"FILE"`
	LogLevel string   `help:"Log level (debug, info, warn, error)." default:"warn"`
}

// environment carries what the commands need besides flags.
type environment struct {
	fs     afero.Fs
	stdout io.Writer
	logger *slog.Logger
}

type cli struct {
	Globals

	Load   loadCmd   `cmd:"" help:"Merge record files and report what was loaded."`
	Get    getCmd    `cmd:"" help:"Print the cached hash of a file identity."`
	Append appendCmd `cmd:"" help:"Append a record to the persistence file."`
}

func main() {
	env := &environment{fs: afero.NewOsFs(), stdout: os.Stdout}
	if err := run(os.Args[1:], env, os.Stderr); err != nil {
		if !errors.Is(err, errNotCached) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, env *environment, stderr io.Writer) error {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("hashcache"),
		kong.Description("Inspect and extend file hash record files."),
		kong.Writers(env.stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	env.logger = slog.New(tint.NewHandler(stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	return ctx.Run(&c.Globals, env)
}

// open builds the cache and merges the persistence file and any --from files.
// A missing persistence file is not an error.
func (g *Globals) open(env *environment) (*hashcache.Cache, error) {
	cache := hashcache.New(g.Cache, g.Base,
		hashcache.WithFs(env.fs),
		hashcache.WithLogger(env.logger),
	)

	if _, err := cache.Load(g.Cache); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	for _, file := range g.From {
		if _, err := cache.Load(file); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

// Identity is the positional description of one file.
type Identity struct {
	Algo string `help:"Hash algorithm (MD5, SHA1, SHA224, SHA256, SHA384, SHA512, XXH64, BLAKE3)." short:"a" required:""`
	Path string `arg:"" help:"File path, absolute or relative to the base directory."`
	Size uint64 `arg:"" help:"File size in bytes."`
	Time uint64 `arg:"" help:"Modification time in seconds since the epoch."`
}

type loadCmd struct {
	Files []string `arg:"" help:"Record files to merge, in order."`
}

func (l *loadCmd) Run(g *Globals, env *environment) error {
	cache, err := g.open(env)
	if err != nil {
		return err
	}
	for _, file := range l.Files {
		stats, err := cache.LoadWithStats(file)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.stdout, "%s: %d loaded, %d malformed, %d invalid\n",
			file, stats.Loaded, stats.Malformed, stats.Invalid)
	}
	fmt.Fprintf(env.stdout, "%d entries\n", cache.Len())
	return nil
}

type getCmd struct {
	Identity `embed:""`
}

func (c *getCmd) Run(g *Globals, env *environment) error {
	algo, err := hashcache.ParseAlgorithm(c.Algo)
	if err != nil {
		return err
	}
	cache, err := g.open(env)
	if err != nil {
		return err
	}
	hash, ok := cache.Get(c.Path, c.Size, c.Time, algo)
	if !ok {
		env.logger.Info("cache miss", "key", hashcache.MakeKey(c.Path, c.Size, c.Time, algo).String())
		return errNotCached
	}
	fmt.Fprintln(env.stdout, hash)
	return nil
}

type appendCmd struct {
	Identity `embed:""`

	Hash string `help:"Hex digest to record." required:""`
}

func (c *appendCmd) Run(g *Globals, env *environment) error {
	algo, err := hashcache.ParseAlgorithm(c.Algo)
	if err != nil {
		return err
	}
	record := hashcache.Record{
		Path: c.Path,
		Size: c.Size,
		Time: c.Time,
		Algo: algo,
		Hash: c.Hash,
	}
	if err := record.Validate(hashcache.ValidateHash); err != nil {
		return err
	}

	cache := hashcache.New(g.Cache, g.Base,
		hashcache.WithFs(env.fs),
		hashcache.WithLogger(env.logger),
	)
	if err := cache.Append(record); err != nil {
		return err
	}
	env.logger.Info("appended record", "file", g.Cache, "key", record.Key().String())
	return nil
}
