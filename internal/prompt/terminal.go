package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Terminal asks on a line-oriented console. Typing q at any question cancels
// the import.
type Terminal struct {
	out    io.Writer
	in     *bufio.Reader
	editor string

	// runEditor opens path in the configured editor; swapped in tests.
	runEditor func(ctx context.Context, editor, path string) error
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	return &Terminal{
		out:       out,
		in:        bufio.NewReader(in),
		editor:    editor,
		runEditor: execEditor,
	}
}

func (t *Terminal) ResolveMapping(ctx context.Context, req MappingRequest) (Mapping, error) {
	fmt.Fprintf(t.out, "\n%s: cannot tell which keys hold the article fields.\n", req.FileName)
	for i, key := range req.Keys {
		fmt.Fprintf(t.out, "  %2d) %s\n", i+1, key)
	}
	fmt.Fprintln(t.out, "Enter a number or key name, blank keeps the suggestion, - clears, q cancels.")

	required := make(map[string]bool, len(req.Required))
	for _, f := range req.Required {
		required[f] = true
	}

	out := cloneMapping(req.Suggested)
	for _, field := range req.Fields {
		for {
			if err := ctx.Err(); err != nil {
				return nil, Cancelled(err.Error())
			}
			label := field
			if required[field] {
				label += "*"
			}
			fmt.Fprintf(t.out, "%s [%s]: ", label, out[field])

			line, err := t.readLine()
			if err != nil {
				return nil, Cancelled("input closed")
			}
			switch {
			case line == "q":
				return nil, Cancelled("mapping dismissed")
			case line == "-":
				delete(out, field)
			case line != "":
				key, ok := pickKey(req.Keys, line)
				if !ok {
					fmt.Fprintf(t.out, "  no key %q\n", line)
					continue
				}
				out[field] = key
			}
			if required[field] && out[field] == "" {
				fmt.Fprintf(t.out, "  %s is required\n", field)
				continue
			}
			break
		}
	}
	return out, nil
}

func (t *Terminal) ReviewText(ctx context.Context, req ReviewRequest) (string, error) {
	text := req.Text
	for {
		if err := ctx.Err(); err != nil {
			return "", Cancelled(err.Error())
		}
		fmt.Fprintf(t.out, "\n%s (%d pages) extracted text:\n\n%s\n\n", req.FileName, req.PageCount, text)
		fmt.Fprint(t.out, "[a]ccept, [e]dit, [q]uit: ")

		line, err := t.readLine()
		if err != nil {
			return "", Cancelled("input closed")
		}
		switch strings.ToLower(line) {
		case "a", "accept", "":
			return text, nil
		case "e", "edit":
			edited, err := t.edit(ctx, text)
			if err != nil {
				fmt.Fprintf(t.out, "  editor failed: %v\n", err)
				continue
			}
			text = edited
		case "q", "quit", "c", "cancel":
			return "", Cancelled("review dismissed")
		}
	}
}

func (t *Terminal) edit(ctx context.Context, text string) (string, error) {
	f, err := os.CreateTemp("", "inkpress-review-*.txt")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := t.runEditor(ctx, t.editor, path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func pickKey(keys []string, input string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(keys) {
			return keys[n-1], true
		}
		return "", false
	}
	for _, k := range keys {
		if strings.EqualFold(k, input) {
			return k, true
		}
	}
	return "", false
}

func execEditor(ctx context.Context, editor, path string) error {
	parts := strings.Fields(editor)
	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
