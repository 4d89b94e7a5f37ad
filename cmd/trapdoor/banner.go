package main

import (
	"fmt"
	"io"

	"github.com/trapdoor-ai/trapdoor/internal/access"
	trapdoorversion "github.com/trapdoor-ai/trapdoor/internal/version"
)

const fullAccessWarning = `
!!  FULL ACCESS MODE - READ CAREFULLY  !!

You are granting an AI complete control over your machine:

  FILESYSTEM
  - Read any file your user can access
  - Write/modify any file your user can write
  - Delete any file or directory

  COMMAND EXECUTION
  - Shell commands (bash, sh, zsh)
  - System utilities (rm, mv, chmod, kill)
  - Package managers (pip, npm, brew, apt)
  - Sudo commands (if your user has sudo access)
  - Scripts that could modify system config

YOUR TOKEN IS YOUR ONLY PROTECTION.
Anyone with your token has full access to your machine.

`

// printBanner shows the startup summary: access level, per-capability
// marks, token, and connect URLs.
func printBanner(out io.Writer, level access.Level, token string, port int, publicURL string) {
	grants := level.Grants()

	fmt.Fprintf(out, "\nTRAPDOOR %s\n", trapdoorversion.String())
	fmt.Fprintf(out, "Access level: %s\n", level)
	fmt.Fprintf(out, "  %s\n\n", level.Description())
	if grants.Exec {
		fmt.Fprintf(out, "  WARNING: AI can execute ANY command on your machine!\n\n")
	}

	fmt.Fprintln(out, "Permissions:")
	fmt.Fprintf(out, "  %s Read files\n", mark(grants.Read))
	fmt.Fprintf(out, "  %s Write files\n", mark(grants.Write))
	fmt.Fprintf(out, "  %s Delete files\n", mark(grants.Delete))
	fmt.Fprintf(out, "  %s Execute commands\n", mark(grants.Exec))

	urlToUse := publicURL
	if urlToUse == "" {
		urlToUse = "YOUR_URL_HERE"
	}

	fmt.Fprintln(out, "\nPaste this into your AI chat to connect:")
	fmt.Fprintf(out, "\n  Connect to my machine at %s with token %s\n", urlToUse, token)

	if publicURL == "" {
		fmt.Fprintf(out, "\nReplace YOUR_URL_HERE with your public URL, e.g. after running:\n")
		fmt.Fprintf(out, "  ngrok http %d\n", port)
		fmt.Fprintf(out, "  OR: cloudflared tunnel --url http://localhost:%d\n", port)
	}

	fmt.Fprintf(out, "\nToken: %s\n", token)
	fmt.Fprintf(out, "Local: http://localhost:%d\n", port)
	if publicURL != "" {
		fmt.Fprintf(out, "Public: %s\n", publicURL)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop.")
}

func mark(enabled bool) string {
	if enabled {
		return "[x]"
	}
	return "[ ]"
}
