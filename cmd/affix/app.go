package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hengadev/affix"
	"github.com/hengadev/affix/internal/logging"
	"github.com/hengadev/affix/internal/tagcheck"
)

// scalarTypes lists the types accepted by the --type flag.
var scalarTypes = map[string]reflect.Type{
	"int":     reflect.TypeFor[int](),
	"int8":    reflect.TypeFor[int8](),
	"int16":   reflect.TypeFor[int16](),
	"int32":   reflect.TypeFor[int32](),
	"int64":   reflect.TypeFor[int64](),
	"uint":    reflect.TypeFor[uint](),
	"uint8":   reflect.TypeFor[uint8](),
	"uint16":  reflect.TypeFor[uint16](),
	"uint32":  reflect.TypeFor[uint32](),
	"uint64":  reflect.TypeFor[uint64](),
	"float32": reflect.TypeFor[float32](),
	"float64": reflect.TypeFor[float64](),
	"bool":    reflect.TypeFor[bool](),
	"string":  reflect.TypeFor[string](),
}

// session holds what the global flags resolve to. It is filled by the
// app's Before hook and shared by every command.
type session struct {
	config affix.Config
	logger *slog.Logger
	in     io.Reader
}

func newApp(in io.Reader, out, errOut io.Writer) *cli.App {
	s := &session{logger: logging.Discard(), in: in}

	codecFlags := []cli.Flag{
		&cli.StringFlag{Name: "prefix", Aliases: []string{"p"}, Usage: "attach `TEXT` before the value"},
		&cli.StringFlag{Name: "suffix", Aliases: []string{"s"}, Usage: "attach `TEXT` after the value"},
		&cli.StringFlag{Name: "codec", Aliases: []string{"c"}, Usage: "use the configured codec `NAME`"},
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "native type of the values", Value: "string"},
	}

	documentFlags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "field",
			Aliases:  []string{"f"},
			Usage:    "document field as `NAME:TYPE:TAG`, e.g. code:uint8:prefix=A or temperature:float32:celsius",
			Required: true,
		},
	}

	return &cli.App{
		Name:      "affix",
		Usage:     "attach and strip fixed affixes on scalar values",
		Version:   affix.Version,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "load codecs from the YAML `FILE` instead of " + affix.EnvConfig,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "document format of marshal and unmarshal: json, yaml, msgpack or gob",
			},
		},
		Before: func(c *cli.Context) error {
			return s.load(c, errOut)
		},
		Commands: []*cli.Command{
			{
				Name:      "encode",
				Usage:     "print each value with the affix attached",
				ArgsUsage: "VALUE...",
				Flags:     codecFlags,
				Action:    s.encode,
			},
			{
				Name:      "decode",
				Usage:     "strip the affix and print each payload parsed as --type",
				ArgsUsage: "VALUE...",
				Flags:     codecFlags,
				Action:    s.decode,
			},
			{
				Name:   "marshal",
				Usage:  "read a document of plain values and write it with the fields affixed",
				Flags:  documentFlags,
				Action: s.marshal,
			},
			{
				Name:   "unmarshal",
				Usage:  "read a document of affixed fields and write it with plain values",
				Flags:  documentFlags,
				Action: s.unmarshal,
			},
			{
				Name:      "validate",
				Usage:     "check the affix struct tags of Go source directories",
				ArgsUsage: "[DIR...]",
				Action:    s.validate,
			},
			{
				Name:   "watch",
				Usage:  "report the codecs of the configuration file each time it changes",
				Action: s.watch,
			},
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, affix.VersionInfo())
					return nil
				},
			},
		},
	}
}

func (s *session) load(c *cli.Context, errOut io.Writer) error {
	var (
		cfg affix.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = affix.LoadConfig(path)
	} else {
		cfg, err = affix.LoadConfigFromEnvironment()
	}
	if err != nil {
		return err
	}

	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	s.config = cfg
	s.logger = logging.New(logging.Config{Level: level, Output: errOut, Component: "cli"})
	s.logger.Debug("configuration loaded", "format", cfg.Format, "codecs", len(cfg.Codecs))
	return nil
}

// codec resolves the codec selected by exactly one of --prefix, --suffix and
// --codec.
func (s *session) codec(c *cli.Context) (affix.Codec, error) {
	var set []string
	for _, name := range []string{"prefix", "suffix", "codec"} {
		if c.IsSet(name) {
			set = append(set, name)
		}
	}
	if len(set) != 1 {
		return affix.Codec{}, fmt.Errorf("exactly one of --prefix, --suffix or --codec is required")
	}

	switch set[0] {
	case "prefix":
		return affix.NewPrefix(c.String("prefix"))
	case "suffix":
		return affix.NewSuffix(c.String("suffix"))
	}

	reg, err := s.config.Registry()
	if err != nil {
		return affix.Codec{}, err
	}
	codec, ok := reg.Lookup(c.String("codec"))
	if !ok {
		return affix.Codec{}, affix.NewUnknownCodecError(c.String("codec"))
	}
	return codec, nil
}

func scalarType(c *cli.Context) (reflect.Type, error) {
	name := c.String("type")
	t, ok := scalarTypes[name]
	if !ok {
		return nil, fmt.Errorf("%w: --type %s", affix.ErrUnsupportedType, name)
	}
	return t, nil
}

func (s *session) encode(c *cli.Context) error {
	codec, err := s.codec(c)
	if err != nil {
		return err
	}
	t, err := scalarType(c)
	if err != nil {
		return err
	}

	for _, arg := range c.Args().Slice() {
		v := reflect.New(t).Elem()
		if err := affix.ParseValue(arg, v); err != nil {
			return fmt.Errorf("value %q is not a valid %s: %w", arg, t, err)
		}
		encoded, err := codec.EncodeValue(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, encoded)
	}
	return nil
}

func (s *session) decode(c *cli.Context) error {
	codec, err := s.codec(c)
	if err != nil {
		return err
	}
	t, err := scalarType(c)
	if err != nil {
		return err
	}

	for _, arg := range c.Args().Slice() {
		v := reflect.New(t).Elem()
		if err := codec.DecodeValue(arg, v); err != nil {
			s.logger.Debug("decode failed", "value", arg, "codec", codec.String())
			return err
		}
		text, err := affix.FormatValue(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, text)
	}
	return nil
}

func (s *session) validate(c *cli.Context) error {
	dirs := c.Args().Slice()
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	// Without configured codecs, named tags can only be checked for syntax.
	var reg *affix.Registry
	if len(s.config.Codecs) > 0 {
		var err error
		if reg, err = s.config.Registry(); err != nil {
			return err
		}
	}
	validator := tagcheck.NewValidator(reg)

	problems := 0
	for _, dir := range dirs {
		s.logger.Info("validating affix tags", "dir", dir)
		diags, err := validator.ValidateDir(dir)
		if err != nil {
			return err
		}
		for _, d := range diags {
			fmt.Fprintln(c.App.Writer, d.String())
		}
		problems += len(diags)
	}

	if problems > 0 {
		return fmt.Errorf("tag validation failed with %d problem(s)", problems)
	}
	fmt.Fprintln(c.App.Writer, "all affix tags are valid")
	return nil
}

func (s *session) watch(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		path = os.Getenv(affix.EnvConfig)
	}
	if path == "" {
		return fmt.Errorf("watch requires --config or %s", affix.EnvConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("watching configuration", "path", path)
	return affix.WatchConfig(ctx, path, func(cfg affix.Config, err error) {
		if err != nil {
			s.logger.Warn("configuration rejected", "path", path, "error", err)
			return
		}
		reg, err := cfg.Registry()
		if err != nil {
			s.logger.Warn("configuration rejected", "path", path, "error", err)
			return
		}
		s.config = cfg
		fmt.Fprintf(c.App.Writer, "reloaded %d codec(s): %s\n", reg.Len(), strings.Join(reg.Names(), ", "))
	})
}
