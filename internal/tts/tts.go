// Package tts voices out assistant responses.
package tts

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Espeak synthesizes through an espeak-ng process.
type Espeak struct {
	Binary string
	Voice  string
}

func NewEspeak(binary, voice string) *Espeak {
	if binary == "" {
		binary = "espeak-ng"
	}
	return &Espeak{Binary: binary, Voice: voice}
}

func (e *Espeak) args(text string) []string {
	var args []string
	if e.Voice != "" {
		args = append(args, "-v", e.Voice)
	}
	// "--" keeps text starting with '-' from being read as a flag.
	return append(args, "--", text)
}

func (e *Espeak) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	out, err := exec.CommandContext(ctx, e.Binary, e.args(text)...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", e.Binary, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Available reports whether the espeak binary can be found.
func (e *Espeak) Available() bool {
	_, err := exec.LookPath(e.Binary)
	return err == nil
}

// Writer prints responses instead of speaking them.
type Writer struct {
	W io.Writer
}

func (w Writer) Speak(_ context.Context, text string) error {
	if text == "" {
		return nil
	}
	_, err := fmt.Fprintln(w.W, text)
	return err
}
