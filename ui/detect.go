package ui

import (
	"os"
	"strings"

	"rolf/preview"
)

// DetectProtocol checks environment variables and the user's configured
// protocol preference to determine the image rendering protocol.
func DetectProtocol(configProtocol string) preview.Protocol {
	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	// User config setting takes priority (unless "auto")
	override := strings.ToLower(strings.TrimSpace(configProtocol))
	if override == "" || override == "auto" {
		override = os.Getenv("ROLF_IMAGE_PROTOCOL")
	}
	if p, ok := preview.ParseProtocol(override); ok {
		return p
	}

	// Kitty
	if term == "xterm-kitty" || os.Getenv("KITTY_INSTALLATION_DIR") != "" || os.Getenv("KITTY_PID") != "" || os.Getenv("KITTY_WINDOW_ID") != "" {
		return preview.ProtoKitty
	}

	// Ghostty (supports Kitty protocol)
	if termProgram == "ghostty" || os.Getenv("GHOSTTY_RESOURCES_DIR") != "" {
		return preview.ProtoKitty
	}

	// WezTerm supports the Kitty protocol including file transport
	if termProgram == "WezTerm" || os.Getenv("WEZTERM_EXECUTABLE") != "" || os.Getenv("WEZTERM_PANE") != "" {
		return preview.ProtoKitty
	}

	if termProgram == "iTerm.app" {
		return preview.ProtoITerm2
	}
	if termProgram == "mintty" || os.Getenv("MINTTY_SHORTCUT") != "" {
		return preview.ProtoITerm2
	}

	// Foot, Konsole and Windows Terminal speak Sixel
	if termProgram == "foot" || strings.HasPrefix(term, "foot") {
		return preview.ProtoSixel
	}
	if termProgram == "konsole" {
		return preview.ProtoSixel
	}
	if os.Getenv("WT_SESSION") != "" {
		return preview.ProtoSixel
	}
	if strings.Contains(strings.ToLower(term), "sixel") {
		return preview.ProtoSixel
	}

	// Unknown terminals get the Kitty protocol; the preview is written
	// regardless and terminals without support ignore APC sequences.
	return preview.ProtoKitty
}
