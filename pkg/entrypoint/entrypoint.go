package entrypoint

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/wrouesnel/mailpreview/pkg/envutil"
	"github.com/wrouesnel/mailpreview/pkg/mailtemplate"
	"github.com/wrouesnel/mailpreview/pkg/preview"
	"github.com/wrouesnel/mailpreview/pkg/recipient"
	"github.com/wrouesnel/mailpreview/version"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type PreviewOptions struct {
	Template         string   `arg:"" name:"template-file" help:"Email template to preview"`
	Placeholders     []string `arg:"" name:"placeholder" optional:"" help:"Placeholders the template may use. Any placeholder is allowed if none are given. Put -- before placeholders starting with -."`
	Format           string   `help:"Output format (${enum})" enum:"text,mime" default:"text"`
	From             string   `help:"From address of mime previews" default:"preview@localhost"`
	Recipients       string   `help:"YAML file configuring recipient groups and permitted domains" type:"existingfile"`
	AllowNoRecipient bool     `help:"Accept templates which name no recipients" default:"false"`
}

type Options struct {
	Logging struct {
		Level  string `help:"logging level" default:"warn"`
		Format string `help:"logging format (${enum})" enum:"console,json" default:"console"`
	} `embed:"" prefix:"logging."`

	Version bool `help:"Print the version and exit"`

	Preview PreviewOptions `embed:""`
}

type LaunchArgs struct {
	StdIn  io.Reader
	StdOut io.Writer
	StdErr io.Writer
	Env    map[string]string
	Args   []string
}

// Previewer is the operation the command drives.
type Previewer interface {
	Preview(name string) error
}

// Builder constructs the Previewer from its collaborators.
type Builder func(factory preview.TemplateFactory, checker recipient.Checker, w io.Writer,
	placeholders []string, options PreviewOptions) Previewer

// DefaultBuilder builds a preview.Previewer.
func DefaultBuilder(factory preview.TemplateFactory, checker recipient.Checker, w io.Writer,
	placeholders []string, options PreviewOptions) Previewer {
	return preview.New(factory, checker, w, placeholders,
		preview.WithFormat(preview.Format(options.Format)),
		preview.WithSender(options.From))
}

// Entrypoint implements the actual functionality of the program so it can be called inline from testing.
// env is normally passed the environment variable array.
func Entrypoint(args LaunchArgs) int {
	return Dispatch(args, DefaultBuilder)
}

// Dispatch parses the command line, wires the template loader, recipient checker
// and previewer together and previews the template once.
//
//nolint:funlen
func Dispatch(args LaunchArgs, build Builder) int {
	var err error
	options := Options{}

	deferredLogs := []string{}

	exitCode := -1
	parser := lo.Must(kong.New(&options,
		kong.Name(version.Name),
		kong.Description(version.Description),
		kong.Writers(args.StdOut, args.StdErr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.Resolvers(envutil.Resolver(args.Env, version.EnvPrefix))))
	_, err = parser.Parse(args.Args)
	if exitCode >= 0 {
		// --help was handled by kong
		return exitCode
	}
	if options.Version {
		lo.Must(fmt.Fprintf(args.StdOut, "%s", version.Version))
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintf(args.StdErr, "Argument error: %s\n", err.Error())
		_, _ = fmt.Fprintf(args.StdErr, "Usage: %s [flags] TEMPLATE_FILE [--] [PLACEHOLDER ...]\n", version.Name)
		return 1
	}

	// Initialize logging as soon as possible
	logConfig := zap.NewProductionConfig()
	if err := logConfig.Level.UnmarshalText([]byte(options.Logging.Level)); err != nil {
		deferredLogs = append(deferredLogs, err.Error())
	}
	logConfig.Encoding = options.Logging.Format

	logger, err := buildLogger(logConfig, args.StdErr)
	if err != nil {
		// Error unhandled since this is a very early failure
		for _, line := range deferredLogs {
			_, _ = io.WriteString(args.StdErr, line)
		}
		_, _ = io.WriteString(args.StdErr, "Failure while building logger")
		return 1
	}
	for _, line := range deferredLogs {
		logger.Warn("Logging configuration", zap.String("error", line))
	}

	// Install as the global logger
	zap.ReplaceGlobals(logger)

	logger.Info("Launched with command line", zap.Strings("cmdline", args.Args))
	logger.Info("Version Info", zap.String("version", version.Version),
		zap.String("name", version.Name),
		zap.String("description", version.Description),
		zap.String("env_prefix", version.EnvPrefix))

	logger.Info("Starting command")
	err = Run(options.Preview, args.StdOut, build)

	logger.Debug("Finished command")
	if err != nil {
		logger.Error("Command exited with error", zap.Error(err))
		return 1
	}
	logger.Info("Command exited successfully")
	return 0
}

// Run previews options.Template, permitting only options.Placeholders.
func Run(options PreviewOptions, w io.Writer, build Builder) error {
	logger := zap.L().With(zap.String("template", options.Template))

	checkerOpts := []recipient.Option{}
	if options.Recipients != "" {
		logger.Debug("Loading recipient config", zap.String("recipients", options.Recipients))
		cfg, err := recipient.LoadConfig(options.Recipients)
		if err != nil {
			return err
		}
		checkerOpts = append(checkerOpts, cfg.Options()...)
	}
	if options.AllowNoRecipient {
		checkerOpts = append(checkerOpts, recipient.WithAllowNoRecipient())
	}

	placeholders := lo.Uniq(options.Placeholders)
	if len(placeholders) == 0 {
		logger.Debug("No placeholders given, all placeholders are valid")
	} else {
		logger.Debug("Restricting placeholders", zap.Strings("placeholders", placeholders))
	}

	loader := preview.TemplateFactory(mailtemplate.Load)
	checker := recipient.NewChecker(checkerOpts...)
	previewer := build(loader, checker, w, placeholders, options)

	if err := previewer.Preview(options.Template); err != nil {
		return errors.Wrapf(err, "previewing %s", options.Template)
	}
	return nil
}

func buildLogger(logConfig zap.Config, w io.Writer) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	switch logConfig.Encoding {
	case "console":
		encoder = zapcore.NewConsoleEncoder(logConfig.EncoderConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(logConfig.EncoderConfig)
	default:
		return nil, errors.Errorf("unknown logging format: %s", logConfig.Encoding)
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), logConfig.Level)
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(w))), nil
}
