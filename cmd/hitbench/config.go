package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// errInvalidConfig wraps every configuration problem.
var errInvalidConfig = errors.New("invalid configuration")

const defaultFractions = "0.005,0.01,0.05,0.1,0.25"

type config struct {
	TracePath  string
	Delimiter  rune
	Column     int
	Header     bool
	MaxRecords int
	Fractions  []float64
	Policies   []string
	Workers    int
	Verbose    bool

	// Synthetic trace, used instead of TracePath when set.
	Synthetic string
	ZipfKeys  int
	ZipfTheta float64
	Seed      uint64
}

// parseConfig reads flags from args. Each flag defaults to an environment variable looked up with getenv.
func parseConfig(args []string, getenv func(string) string, output io.Writer) (config, error) {
	env := envDefaults{getenv: getenv}
	fs := flag.NewFlagSet("hitbench", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		cfg       config
		delimiter string
		fractions string
		policies  string
	)
	fs.StringVar(&cfg.TracePath, "trace", env.lookupString("HITBENCH_TRACE", ""), "trace file (.gz, .zst, .s2, .lz4 are decompressed)")
	fs.StringVar(&delimiter, "delimiter", env.lookupString("HITBENCH_DELIMITER", " "), `field delimiter, one character ("\t" for tab)`)
	fs.IntVar(&cfg.Column, "column", env.lookupInt("HITBENCH_COLUMN", 1), "0-based field holding the key")
	fs.BoolVar(&cfg.Header, "header", env.lookupBool("HITBENCH_HEADER", false), "skip the first record")
	fs.IntVar(&cfg.MaxRecords, "max-records", env.lookupInt("HITBENCH_MAX_RECORDS", 5_000_000), "trace length cap (0 = no cap)")
	fs.StringVar(&fractions, "fractions", env.lookupString("HITBENCH_FRACTIONS", defaultFractions), "comma-separated cache sizes as fractions of trace length")
	fs.StringVar(&policies, "policies", env.lookupString("HITBENCH_POLICIES", ""), "comma-separated policies to compare (default: all but freecache)")
	fs.IntVar(&cfg.Workers, "workers", env.lookupInt("HITBENCH_WORKERS", 0), "policies replayed at once (0 = all)")
	fs.BoolVar(&cfg.Verbose, "v", env.lookupBool("HITBENCH_VERBOSE", false), "debug logging")
	fs.StringVar(&cfg.Synthetic, "synthetic", env.lookupString("HITBENCH_SYNTHETIC", ""), `generate a trace instead of reading one ("zipf")`)
	fs.IntVar(&cfg.ZipfKeys, "zipf-keys", 1_000_000, "key space of the synthetic trace")
	fs.Float64Var(&cfg.ZipfTheta, "zipf-theta", 0.99, "skew of the synthetic trace, in (0, 1)")
	fs.Uint64Var(&cfg.Seed, "seed", 42, "synthetic trace seed")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if env.err != nil {
		return config{}, env.err
	}

	var err error
	if cfg.Delimiter, err = parseDelimiter(delimiter); err != nil {
		return config{}, err
	}
	if cfg.Fractions, err = parseFractions(fractions); err != nil {
		return config{}, err
	}
	cfg.Policies = splitList(policies)
	return cfg, cfg.Validate()
}

// Validate reports the first problem with c.
func (c config) Validate() error {
	switch c.Synthetic {
	case "":
		if c.TracePath == "" {
			return fmt.Errorf("%w: -trace or -synthetic is required", errInvalidConfig)
		}
	case "zipf":
		if c.ZipfKeys <= 0 {
			return fmt.Errorf("%w: zipf-keys must be positive", errInvalidConfig)
		}
		if !(c.ZipfTheta > 0 && c.ZipfTheta < 1) {
			return fmt.Errorf("%w: zipf-theta must be in (0, 1)", errInvalidConfig)
		}
		if c.MaxRecords <= 0 {
			return fmt.Errorf("%w: max-records sets the synthetic trace length and must be positive", errInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown synthetic trace %q", errInvalidConfig, c.Synthetic)
	}
	if c.Column < 0 {
		return fmt.Errorf("%w: column cannot be negative", errInvalidConfig)
	}
	if c.MaxRecords < 0 {
		return fmt.Errorf("%w: max-records cannot be negative", errInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative", errInvalidConfig)
	}
	if len(c.Fractions) == 0 {
		return fmt.Errorf("%w: no capacity fractions", errInvalidConfig)
	}
	for _, f := range c.Fractions {
		if !(f > 0 && f <= 1) {
			return fmt.Errorf("%w: fraction %v outside (0, 1]", errInvalidConfig, f)
		}
	}
	return nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	case "space":
		return ' ', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: delimiter %q must be a single character", errInvalidConfig, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func parseFractions(s string) ([]float64, error) {
	parts := splitList(s)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: fraction %q: %w", errInvalidConfig, p, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envDefaults reads flag defaults from the environment, remembering the first malformed value.
type envDefaults struct {
	getenv func(string) string
	err    error
}

func (e *envDefaults) lookupString(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envDefaults) lookupInt(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *envDefaults) lookupBool(key string, def bool) bool {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *envDefaults) fail(key, v string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%w: %s=%q: %w", errInvalidConfig, key, v, err)
	}
}
