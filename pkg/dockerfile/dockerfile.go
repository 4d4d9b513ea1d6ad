package dockerfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/log"
)

// Sentinel marks a Dockerfile as engine-generated. Only files carrying
// it on their first line are ever overwritten; anything hand-written is
// honored untouched.
const Sentinel = "# VersionGate:auto-generated"

// Kind is the detected project flavor
type Kind string

const (
	KindNodeNPM  Kind = "node-npm"
	KindNodeBun  Kind = "node-bun"
	KindNodeYarn Kind = "node-yarn"
	KindNodePnpm Kind = "node-pnpm"
	KindPython   Kind = "python"
	KindGo       Kind = "go"
)

// Synthesizer writes Dockerfiles for projects that ship without one
type Synthesizer struct {
	logger zerolog.Logger
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{logger: log.WithComponent("dockerfile")}
}

// Ensure returns the directory whose Dockerfile the build should use.
// A hand-written Dockerfile in the build context wins outright. Failing
// that, detection walks the context, the repo root, then each immediate
// subdirectory (hidden dirs and node_modules skipped); the first root
// with a recognizable project gets a generated Dockerfile, rewritten on
// every deploy so template fixes reach existing projects.
func (s *Synthesizer) Ensure(contextDir, repoRoot string, appPort int) (string, bool, error) {
	if hasHandwritten(contextDir) {
		return contextDir, false, nil
	}

	for _, dir := range candidates(contextDir, repoRoot) {
		if hasHandwritten(dir) {
			return dir, false, nil
		}
		p, ok := detect(dir)
		if !ok {
			continue
		}

		content := render(p, appPort)
		path := filepath.Join(dir, "Dockerfile")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", false, fmt.Errorf("failed to write Dockerfile: %w", err)
		}
		s.logger.Info().Str("dir", dir).Str("kind", string(p.kind)).Msg("Generated Dockerfile")
		return dir, true, nil
	}

	return "", false, fmt.Errorf("unable to detect project type (no package.json, requirements.txt, or go.mod found)")
}

// candidates lists detection roots in priority order, deduplicated
func candidates(contextDir, repoRoot string) []string {
	dirs := []string{contextDir}
	if contextDir != repoRoot {
		dirs = append(dirs, repoRoot)
	}

	entries, err := os.ReadDir(repoRoot)
	if err != nil {
		return dirs
	}
	var subs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || name == "node_modules" {
			continue
		}
		sub := filepath.Join(repoRoot, name)
		if sub == contextDir {
			continue
		}
		subs = append(subs, sub)
	}
	sort.Strings(subs)
	return append(dirs, subs...)
}

// hasHandwritten reports whether dir holds a Dockerfile the engine must
// not touch
func hasHandwritten(dir string) bool {
	path := filepath.Join(dir, "Dockerfile")
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return false // empty file, safe to regenerate
	}
	return strings.TrimSpace(scanner.Text()) != Sentinel
}

type plan struct {
	kind     Kind
	hasBuild bool   // package.json declares a build script
	entry    string // python entry file
}

func detect(dir string) (plan, bool) {
	if pkg, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		return detectNode(dir, pkg), true
	}
	if exists(filepath.Join(dir, "requirements.txt")) {
		entry := "app.py"
		if !exists(filepath.Join(dir, entry)) && exists(filepath.Join(dir, "main.py")) {
			entry = "main.py"
		}
		return plan{kind: KindPython, entry: entry}, true
	}
	if exists(filepath.Join(dir, "go.mod")) {
		return plan{kind: KindGo}, true
	}
	return plan{}, false
}

func detectNode(dir string, pkgJSON []byte) plan {
	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	// A malformed package.json still identifies a Node project; the
	// build will surface the real problem.
	_ = json.Unmarshal(pkgJSON, &pkg)

	p := plan{kind: KindNodeNPM, hasBuild: pkg.Scripts["build"] != ""}

	if strings.Contains(pkg.Scripts["start"], "bun") || strings.Contains(pkg.Scripts["build"], "bun") {
		p.kind = KindNodeBun
		return p
	}
	switch {
	case exists(filepath.Join(dir, "bun.lockb")) || exists(filepath.Join(dir, "bun.lock")):
		p.kind = KindNodeBun
	case exists(filepath.Join(dir, "yarn.lock")):
		p.kind = KindNodeYarn
	case exists(filepath.Join(dir, "pnpm-lock.yaml")):
		p.kind = KindNodePnpm
	}
	return p
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
