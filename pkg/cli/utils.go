package cli

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// stdin is shared by every prompt so buffered input is never lost between
// the REPL loop and nested prompts.
var stdin = bufio.NewReader(os.Stdin)

// PromptLine displays a prompt and reads a full line of input from the user.
// The returned string is trimmed of surrounding whitespace (including the newline).
func PromptLine(prompt string) (string, error) {
	return promptFrom(stdin, os.Stdout, prompt)
}

func promptFrom(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// LoadImage decodes an image file, applying its EXIF orientation so the
// canvas shows the picture upright.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// writeFile writes b to path through a temporary file in the same directory
// so a crash never leaves a half-written page behind.
func writeFile(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// sidecarBase returns the path prefix used for pages saved next to the
// source image: photo.jpg -> photo-crayon.
func sidecarBase(source string) string {
	ext := filepath.Ext(source)
	return strings.TrimSuffix(source, ext) + "-crayon"
}

// GetImageInfoImage returns a short info string for an image.Image
func GetImageInfoImage(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}
	b := img.Bounds()
	return fmt.Sprintf("Width: %d, Height: %d", b.Dx(), b.Dy()), nil
}
