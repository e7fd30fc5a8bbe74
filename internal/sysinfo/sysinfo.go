// Package sysinfo collects the installation snapshot attached to bug reports.
package sysinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"sdkfeedback/internal/config"
	"sdkfeedback/internal/store"
)

// Version is stamped at build time with -ldflags "-X ...sysinfo.Version=...".
var Version = ""

// Info is the installation snapshot.
type Info struct {
	ProductName string            `json:"product_name"`
	Version     string            `json:"version"`
	OS          string            `json:"os"`
	Arch        string            `json:"arch"`
	GoVersion   string            `json:"go_version"`
	Executable  string            `json:"executable"`
	InstallRoot string            `json:"install_root"`
	Path        []string          `json:"path"`
	ConfigDir   string            `json:"config_dir"`
	ConfigFile  string            `json:"config_file"`
	Properties  []config.Property `json:"properties"`
	LogsDir     string            `json:"logs_dir"`
	LastLogFile string            `json:"last_log_file"`
}

// Collect gathers the snapshot for cfg. props are the resolved settings.
func Collect(cfg config.Config, props []config.Property) Info {
	exe, err := os.Executable()
	if err != nil {
		exe = ""
	}
	root := ""
	if exe != "" {
		root = filepath.Dir(filepath.Dir(exe))
	}
	return Info{
		ProductName: cfg.ProductName,
		Version:     buildVersion(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		GoVersion:   runtime.Version(),
		Executable:  exe,
		InstallRoot: root,
		Path:        filepath.SplitList(os.Getenv("PATH")),
		ConfigDir:   cfg.ConfigDir,
		ConfigFile:  cfg.ConfigFile,
		Properties:  props,
		LogsDir:     cfg.LogsDir,
		LastLogFile: store.LastLogFile(cfg.LogsDir),
	}
}

func buildVersion() string {
	if Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// Anonymizer replaces user-specific directories with placeholders.
type Anonymizer struct {
	replacer *strings.Replacer
}

// NewAnonymizer replaces configDir with ${SDKFEEDBACK_CONFIG} and home with
// ${HOME}. Either may be empty.
func NewAnonymizer(home, configDir string) *Anonymizer {
	type pair struct{ from, to string }
	var pairs []pair
	if configDir != "" {
		pairs = append(pairs, pair{filepath.Clean(configDir), "${" + config.ConfigDirEnv + "}"})
	}
	if home != "" {
		pairs = append(pairs, pair{filepath.Clean(home), "${HOME}"})
	}
	// strings.Replacer prefers earlier pairs at the same position, so the
	// longer (more specific) directory has to come first.
	sort.SliceStable(pairs, func(i, j int) bool { return len(pairs[i].from) > len(pairs[j].from) })

	var args []string
	for _, p := range pairs {
		args = append(args, p.from, p.to)
	}
	return &Anonymizer{replacer: strings.NewReplacer(args...)}
}

// DefaultAnonymizer uses the current user's home and the configuration
// directory.
func DefaultAnonymizer() *Anonymizer {
	home, _ := os.UserHomeDir()
	return NewAnonymizer(home, config.Dir())
}

// Process anonymizes s.
func (a *Anonymizer) Process(s string) string {
	if a == nil || s == "" {
		return s
	}
	return a.replacer.Replace(s)
}

// Anonymize returns a copy of i with every path passed through a.
func (i Info) Anonymize(a *Anonymizer) Info {
	out := i
	out.Executable = a.Process(i.Executable)
	out.InstallRoot = a.Process(i.InstallRoot)
	out.ConfigDir = a.Process(i.ConfigDir)
	out.ConfigFile = a.Process(i.ConfigFile)
	out.LogsDir = a.Process(i.LogsDir)
	out.LastLogFile = a.Process(i.LastLogFile)
	out.Path = make([]string, len(i.Path))
	for n, p := range i.Path {
		out.Path[n] = a.Process(p)
	}
	out.Properties = make([]config.Property, len(i.Properties))
	for n, p := range i.Properties {
		out.Properties[n] = config.Property{Key: p.Key, Value: a.Process(p.Value)}
	}
	return out
}

// String renders the snapshot. The first lines, up to "Platform:", form the
// header kept in every report.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n\n", i.ProductName, i.Version)
	fmt.Fprintf(&b, "Platform: [%s, %s]\n", platformName(i.OS), i.Arch)
	fmt.Fprintf(&b, "Go Version: [%s]\n", i.GoVersion)
	fmt.Fprintf(&b, "Executable: [%s]\n\n", i.Executable)

	fmt.Fprintf(&b, "Installation Root: [%s]\n", i.InstallRoot)
	fmt.Fprintf(&b, "System PATH: [%s]\n\n", strings.Join(i.Path, string(os.PathListSeparator)))

	fmt.Fprintf(&b, "Config Directory: [%s]\n", i.ConfigDir)
	fmt.Fprintf(&b, "Config File: [%s]\n\n", i.ConfigFile)

	b.WriteString("Properties:\n")
	for _, p := range i.Properties {
		fmt.Fprintf(&b, "  %s: [%s]\n", p.Key, p.Value)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Logs Directory: [%s]\n", i.LogsDir)
	fmt.Fprintf(&b, "Last Log File: [%s]\n", i.LastLogFile)
	return b.String()
}

func platformName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Mac OS X"
	case "windows":
		return "Windows"
	default:
		return goos
	}
}
