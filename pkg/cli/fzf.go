package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// SelectWithFzf shows items in fzf and returns the part of the chosen line
// before the first ':' so callers can pass "name: description" lines.
func SelectWithFzf(prompt string, items []string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("nothing to select")
	}
	cmd := exec.Command("fzf", "--height", "40%", "--border", "--prompt="+prompt)
	cmd.Stdin = strings.NewReader(strings.Join(items, "\n") + "\n")
	cmd.Stderr = os.Stderr

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running fzf: %w", err)
	}
	return firstField(out.String())
}

func firstField(selection string) (string, error) {
	selection = strings.TrimSpace(selection)
	name, _, _ := strings.Cut(selection, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("nothing selected")
	}
	return name, nil
}

// previewCommand picks the fzf --preview command for the detected terminal.
// fzf's preview option takes a single command line, so fallbacks are chained
// with ||.
func previewCommand() string {
	const chafa = "chafa --fill=block --symbols=block -s 80x40 {} 2>/dev/null"
	switch {
	case isKitty():
		// clear earlier kitty images before drawing the next one
		return "printf \"\\x1b_Ga=d\\x1b\\\\\"; kitty +kitten icat --silent {} 2>/dev/null || " + chafa
	case isInlineImageCapable():
		return "imgcat {} 2>/dev/null || " + chafa
	case isSixelCapable():
		return "img2sixel {} 2>/dev/null || " + chafa
	default:
		return chafa
	}
}

// SelectFileWithFzf launches fzf over the images found under startDir and
// returns the chosen path. It needs find and fzf on PATH.
func SelectFileWithFzf(startDir string) (string, error) {
	cmdStr := fmt.Sprintf(
		"find %s -type f \\( -iname '*.jpg' -o -iname '*.jpeg' -o -iname '*.png' -o -iname '*.gif' -o -iname '*.bmp' -o -iname '*.tif' -o -iname '*.tiff' \\) ! -name '*-crayon.png' | fzf --height 100%% --border --prompt='Pages> ' --ansi --preview=%q --preview-window='right:60%%'",
		strconv.Quote(startDir),
		previewCommand(),
	)
	cmd := exec.Command("bash", "-lc", cmdStr)

	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	// the previewer may leave kitty images behind
	clearKittyImages()
	if err != nil {
		return "", fmt.Errorf("error running fzf for files: %w", err)
	}

	selection := strings.TrimSpace(out.String())
	if selection == "" {
		return "", fmt.Errorf("no file selected")
	}
	return selection, nil
}

// clearKittyImages emits the kitty graphics "delete" control sequence.
// Terminals that don't understand it will ignore it.
func clearKittyImages() {
	if isKitty() {
		fmt.Fprint(os.Stdout, "\x1b_Ga=d\x1b\\")
	}
}
