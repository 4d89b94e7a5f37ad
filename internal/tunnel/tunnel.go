// Package tunnel spawns and supervises a public-ingress subprocess (ngrok
// or cloudflared) so the gateway can be reached from outside the local
// network. The tunnel is plain glue: trapdoor's own authentication is the
// protection boundary regardless of how the port is exposed.
package tunnel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os/exec"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/trapdoor-ai/trapdoor/internal/procutil"
)

// Kind selects the tunnel provider.
type Kind string

const (
	KindNone        Kind = ""
	KindNgrok       Kind = "ngrok"
	KindCloudflared Kind = "cloudflared"
)

// ParseKind converts the --tunnel flag value into a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "", "none":
		return KindNone, nil
	case "ngrok":
		return KindNgrok, nil
	case "cloudflared", "cloudflare":
		return KindCloudflared, nil
	}
	return KindNone, fmt.Errorf("unknown tunnel %q (expected ngrok, cloudflared, or none)", name)
}

const (
	ngrokAPIURL      = "http://127.0.0.1:4040/api/tunnels"
	discoveryTimeout = 15 * time.Second
	pollInterval     = 500 * time.Millisecond
)

var cloudflareURLRe = regexp.MustCompile(`https://[a-z0-9-]+\.trycloudflare\.com`)

// Tunnel is a running tunnel subprocess. PublicURL is set once discovery
// succeeds; it may stay empty if the provider never reported one.
type Tunnel struct {
	Kind      Kind
	PublicURL string

	cmd      *exec.Cmd
	stopOnce sync.Once
}

// Start launches the tunnel binary for the given local port and waits up
// to a few seconds for the public URL to be discoverable.
func Start(ctx context.Context, kind Kind, port int) (*Tunnel, error) {
	switch kind {
	case KindNgrok:
		return startNgrok(ctx, port)
	case KindCloudflared:
		return startCloudflared(ctx, port)
	case KindNone:
		return nil, errors.New("tunnel: no provider selected")
	}
	return nil, fmt.Errorf("tunnel: unsupported kind %q", kind)
}

func startNgrok(ctx context.Context, port int) (*Tunnel, error) {
	cmd := exec.Command("ngrok", "http", strconv.Itoa(port), "--log=stdout")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	procutil.SetProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("ngrok not found. Install it: https://ngrok.com/download")
		}
		return nil, fmt.Errorf("tunnel: start ngrok: %w", err)
	}

	t := &Tunnel{Kind: KindNgrok, cmd: cmd}
	url, err := discoverNgrokURL(ctx)
	if err != nil {
		// The tunnel may still be usable; the operator can check the
		// ngrok inspector at localhost:4040.
		return t, nil
	}
	t.PublicURL = url
	return t, nil
}

// discoverNgrokURL polls the local ngrok API until an https tunnel shows up.
func discoverNgrokURL(ctx context.Context) (string, error) {
	deadline := time.Now().Add(discoveryTimeout)
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}

		resp, err := client.Get(ngrokAPIURL)
		if err != nil {
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			continue
		}
		if url := parseNgrokTunnels(body); url != "" {
			return url, nil
		}
	}
	return "", errors.New("tunnel: ngrok URL not discovered")
}

// parseNgrokTunnels extracts the public URL from an ngrok /api/tunnels
// response, preferring the https endpoint.
func parseNgrokTunnels(body []byte) string {
	var payload struct {
		Tunnels []struct {
			Proto     string `json:"proto"`
			PublicURL string `json:"public_url"`
		} `json:"tunnels"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, t := range payload.Tunnels {
		if t.Proto == "https" {
			return t.PublicURL
		}
	}
	if len(payload.Tunnels) > 0 {
		return payload.Tunnels[0].PublicURL
	}
	return ""
}

func startCloudflared(ctx context.Context, port int) (*Tunnel, error) {
	cmd := exec.Command("cloudflared", "tunnel", "--url", fmt.Sprintf("http://localhost:%d", port))
	cmd.Stdout = io.Discard
	// cloudflared prints the assigned URL to stderr.
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("tunnel: pipe cloudflared stderr: %w", err)
	}
	procutil.SetProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("cloudflared not found. Install it: https://developers.cloudflare.com/cloudflare-one/connections/connect-apps/install-and-setup/installation")
		}
		return nil, fmt.Errorf("tunnel: start cloudflared: %w", err)
	}

	t := &Tunnel{Kind: KindCloudflared, cmd: cmd}

	urlCh := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if url := extractCloudflareURL(scanner.Text()); url != "" {
				select {
				case urlCh <- url:
				default:
				}
			}
		}
	}()

	select {
	case url := <-urlCh:
		t.PublicURL = url
	case <-time.After(discoveryTimeout):
	case <-ctx.Done():
	}
	return t, nil
}

// extractCloudflareURL pulls a trycloudflare.com URL out of one log line.
func extractCloudflareURL(line string) string {
	return cloudflareURLRe.FindString(line)
}

// Stop terminates the tunnel process group. Safe to call more than once
// and on a nil tunnel.
func (t *Tunnel) Stop() {
	if t == nil || t.cmd == nil || t.cmd.Process == nil {
		return
	}
	t.stopOnce.Do(func() {
		_ = procutil.GracefulTerminate(t.cmd.Process)
		done := make(chan struct{})
		go func() {
			_, _ = t.cmd.Process.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			_ = procutil.KillGroup(t.cmd.Process.Pid)
			<-done
		}
	})
}
