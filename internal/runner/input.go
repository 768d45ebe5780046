package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ResolveInputs determines the analysis inputs from the available sources.
// Priority: positional args > listFile > stdinReader. A single "-" arg
// reads the list from stdin. List sources hold one path per line; blank
// lines and lines starting with # are ignored.
// stdinReader may be nil if stdin is a TTY (no pipe).
func ResolveInputs(args []string, listFile string, stdinReader io.Reader) ([]string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return args, nil
	}

	if listFile != "" && len(args) == 0 {
		f, err := os.Open(listFile)
		if err != nil {
			return nil, fmt.Errorf("reading input list: %w", err)
		}
		defer f.Close()
		paths, err := readPathList(f)
		if err != nil {
			return nil, fmt.Errorf("reading input list: %w", err)
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("input list is empty: %s", listFile)
		}
		return paths, nil
	}

	if stdinReader != nil {
		paths, err := readPathList(stdinReader)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if len(paths) > 0 {
			return paths, nil
		}
	}

	return nil, fmt.Errorf("no input provided: pass analysis files or directories, use --inputs-from, or pipe paths to stdin")
}

func readPathList(r io.Reader) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	return paths, scanner.Err()
}
