package legacy

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"go.trai.ch/zerr"
)

// DefaultDhallBinary is the converter used to decode dhall files.
const DefaultDhallBinary = "dhall-to-json"

// Decoder converts a configuration file into JSON.
type Decoder interface {
	Decode(ctx context.Context, path string) ([]byte, error)
}

// DhallDecoder runs dhall-to-json as a subprocess.
type DhallDecoder struct {
	Binary string
}

// Decode runs `dhall-to-json --file path` and returns its standard output.
func (d DhallDecoder) Decode(ctx context.Context, path string) ([]byte, error) {
	bin := d.Binary
	if bin == "" {
		bin = DefaultDhallBinary
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--file", path) //nolint:gosec // Binary is configured, path is a package file
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		err = zerr.With(zerr.Wrap(err, "dhall-to-json failed"), "path", path)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = zerr.With(err, "stderr", msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
