package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/example/markshot/internal/config"
	"github.com/example/markshot/internal/notify"
	"github.com/example/markshot/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs             *flag.FlagSet
	program        string
	notifier       *notify.Notifier
	config         *config.Config
	configPath     string
	captureAlerts  bool
	saveAlerts     bool
	copyAlerts     bool
	archiveAlerts  bool
	themeName      string
	activeTheme    *theme.Theme
	loadConfigFunc func(path string) (*config.Config, error)
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	r := &root{
		fs:             flag.NewFlagSet("markshot", flag.ExitOnError),
		program:        "markshot",
		notifier:       notify.New(notify.LoadPreferences()),
		loadConfigFunc: loadConfig,
	}
	r.fs.StringVar(&r.configPath, "config", configPathOverride, "read configuration from this file")
	r.fs.BoolVar(&r.captureAlerts, "notify-capture", false, "show a desktop notification after capturing a screenshot")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", false, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", false, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.archiveAlerts, "notify-archive", false, "show a desktop notification after archiving a session")
	r.fs.StringVar(&r.themeName, "theme", "", "viewer theme: "+strings.Join(theme.Names(), ", ")+", or a file path")
	r.fs.Usage = usageFunc(r)
	return r
}

func loadConfig(path string) (*config.Config, error) {
	return config.NewLoader(version, path).Load()
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	cfg, err := r.loadConfigFunc(r.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	r.config = cfg
	r.applyNotify()
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var cmd runnable
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r)
	case "capture":
		cmd, err = parseCaptureCmd(subArgs, r)
	case "apply":
		cmd, err = parseApplyCmd(subArgs, r)
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r)
	case "archive":
		cmd, err = parseArchiveCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// applyNotify enables notifications from the config, letting flags given on
// the command line override it.
func (r *root) applyNotify() {
	set := map[string]bool{}
	r.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	pick := func(name string, flagVal, cfgVal bool) bool {
		if set[name] {
			return flagVal
		}
		return cfgVal
	}
	n := r.settings().Notify
	r.notifier.Enable(notify.EventCapture, pick("notify-capture", r.captureAlerts, n.Capture))
	r.notifier.Enable(notify.EventSave, pick("notify-save", r.saveAlerts, n.Save))
	r.notifier.Enable(notify.EventCopy, pick("notify-copy", r.copyAlerts, n.Copy))
	r.notifier.Enable(notify.EventArchive, pick("notify-archive", r.archiveAlerts, n.Archive))
}

// resolveTheme picks the viewer theme. Precedence: flag, MARKSHOT_THEME,
// config, built-in default.
func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("MARKSHOT_THEME")
	}
	cfg := r.settings()
	if name == "" {
		name = cfg.Theme
	}
	loader := theme.NewLoader()
	loader.Inline = cfg.Themes
	t, err := loader.Load(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load theme %q: %v. using default.\n", name, err)
		return theme.Default()
	}
	return t
}

// settings returns the loaded configuration, or the defaults when none was
// loaded.
func (r *root) settings() *config.Config {
	if r == nil || r.config == nil {
		return config.New()
	}
	return r.config
}

func (r *root) viewerTheme() *theme.Theme {
	if r == nil || r.activeTheme == nil {
		return theme.Default()
	}
	return r.activeTheme
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (r *root) notifyCapture(detail string, img image.Image) {
	if r == nil {
		return
	}
	r.notifier.Capture(detail, img)
}

func (r *root) notifySave(path string) {
	if r == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil {
		return
	}
	r.notifier.Copy(detail)
}
