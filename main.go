package main

import (
	"fmt"
	"os"

	"rolf/config"
	"rolf/logging"
	"rolf/preview"
	"rolf/viewer"
)

const version = "0.1.0"

const usage = `usage: rolf [--watch] [--protocol kitty|sixel|iterm2] <image>

Shows <image> in the right half of the terminal. Press q or Esc to abort
the preview, any other key to wait for it; the next key exits.
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	path, err := parseArgs(cfg, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n%s", err, usage)
		os.Exit(2)
	}
	if path == "" {
		return
	}

	logging.SetLevel(cfg.LogLevel)
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = logging.DefaultPath()
	}
	if f, err := logging.OpenFile(logPath); err == nil {
		defer f.Close()
	}

	if err := viewer.Run(cfg, path); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs applies command line flags to cfg and returns the image path.
// An empty path with a nil error means there is nothing left to do.
func parseArgs(cfg *config.Config, args []string) (string, error) {
	path := ""
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--version", "-v":
			fmt.Println("rolf " + version)
			return "", nil
		case "--help", "-h":
			fmt.Print(usage)
			return "", nil
		case "--watch", "-w":
			cfg.Watch = true
		case "--protocol", "-p":
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s needs a value", arg)
			}
			i++
			if _, ok := preview.ParseProtocol(args[i]); !ok && args[i] != "auto" {
				return "", fmt.Errorf("unknown protocol %q", args[i])
			}
			cfg.Protocol = args[i]
		default:
			if len(arg) > 1 && arg[0] == '-' {
				return "", fmt.Errorf("unknown flag %s", arg)
			}
			if path != "" {
				return "", fmt.Errorf("only one image can be previewed")
			}
			path = arg
		}
	}
	if path == "" {
		return "", fmt.Errorf("no image given")
	}
	return path, nil
}
