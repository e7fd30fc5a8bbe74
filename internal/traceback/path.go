package traceback

import "strings"

// framePath is a frame's file path split into components, independent of the
// separator family it was written with.
type framePath struct {
	volume string // "C:" on Windows-style paths
	rooted bool
	parts  []string
}

func splitPath(p string) framePath {
	s := strings.ReplaceAll(p, `\`, "/")

	var fp framePath
	if len(s) >= 2 && s[1] == ':' && isASCIILetter(s[0]) {
		fp.volume, s = s[:2], s[2:]
	}
	fp.rooted = strings.HasPrefix(s, "/")
	for _, part := range strings.Split(s, "/") {
		if part == "" || part == "." {
			continue
		}
		fp.parts = append(fp.parts, part)
	}
	return fp
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// commonDirs returns how many leading directory components all paths share.
// A basename is never counted, so every path keeps at least its file name.
func commonDirs(paths []framePath) int {
	if len(paths) == 0 {
		return 0
	}
	first := paths[0]
	n := len(first.parts) - 1
	for _, p := range paths[1:] {
		if p.volume != first.volume || p.rooted != first.rooted {
			return 0
		}
		n = min(n, len(p.parts)-1)
		for i := 0; i < n; i++ {
			if p.parts[i] != first.parts[i] {
				n = i
				break
			}
		}
	}
	return max(n, 0)
}

type componentKind int

const (
	kindOther componentKind = iota
	kindLib
	kindToolPackage
	kindThirdParty
)

func classify(part, toolPackage string) componentKind {
	switch part {
	case "lib":
		return kindLib
	case "third_party":
		return kindThirdParty
	case toolPackage:
		return kindToolPackage
	default:
		// api_lib and similar names are ordinary components.
		return kindOther
	}
}

// stripLayout drops each lib/<tool package> and lib/third_party directory
// pair. The basename is never dropped.
func stripLayout(parts []string, toolPackage string) []string {
	out := make([]string, 0, len(parts))
	last := len(parts) - 1
	for i := 0; i < len(parts); i++ {
		if i+1 < last && classify(parts[i], toolPackage) == kindLib {
			switch classify(parts[i+1], toolPackage) {
			case kindToolPackage, kindThirdParty:
				i++
				continue
			}
		}
		out = append(out, parts[i])
	}
	return out
}

// shortenPaths strips the directory prefix shared by all frames and the
// toolkit's package layout, and joins the result with opts.Separator.
func shortenPaths(raw []string, opts Options) []string {
	split := make([]framePath, len(raw))
	for i, p := range raw {
		split[i] = splitPath(p)
	}
	common := commonDirs(split)
	sep := string(opts.Separator)

	out := make([]string, len(raw))
	for i, fp := range split {
		parts := stripLayout(fp.parts[common:], opts.ToolPackage)
		joined := strings.Join(parts, sep)
		if common == 0 {
			prefix := fp.volume
			if fp.rooted {
				prefix += sep
			}
			joined = prefix + joined
		}
		out[i] = joined
	}
	return out
}
