// Package cli handles cmd line input for inspecting a built index in real-time
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/communeindex/internal/utils"
	"github.com/bastiangx/communeindex/pkg/lookup"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const maxQueryLength = 60

var (
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	shardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Resolver is what the inspector queries.
type Resolver interface {
	Resolve(query string, limit int) (*lookup.Answer, error)
	ShardsUnder(prefix string) []string
}

// InputHandler reads queries line by line and prints the ranked localities
// the index would serve for them.
type InputHandler struct {
	resolver     Resolver
	in           io.Reader
	out          io.Writer
	limit        int
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(resolver Resolver, in io.Reader, out io.Writer, limit int) *InputHandler {
	return &InputHandler{
		resolver: resolver,
		in:       in,
		out:      out,
		limit:    limit,
	}
}

// Start begins the interface loop. It returns nil on EOF or :quit.
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, "CommuneIndex inspector")
	fmt.Fprintln(h.out, "type a commune name or postal code, :shards <prefix> to list shards, :quit to exit")
	reader := bufio.NewReader(h.in)

	for {
		fmt.Fprint(h.out, "> ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		line = strings.TrimSpace(line)
		if line != "" && !h.handleInput(line) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// handleInput runs one command or query. It returns false when the loop should stop.
func (h *InputHandler) handleInput(line string) bool {
	h.requestCount++

	switch {
	case line == ":quit" || line == ":q":
		return false
	case strings.HasPrefix(line, ":shards"):
		prefix := strings.TrimSpace(strings.TrimPrefix(line, ":shards"))
		keys := h.resolver.ShardsUnder(prefix)
		fmt.Fprintf(h.out, "%d shards under '%s'\n", len(keys), prefix)
		for _, k := range keys {
			fmt.Fprintf(h.out, "  %s\n", k)
		}
		return true
	}

	if !utils.IsValidQuery(line, maxQueryLength) {
		fmt.Fprintf(h.out, "invalid query: '%s'\n", line)
		return true
	}

	start := time.Now()
	ans, err := h.resolver.Resolve(line, h.limit)
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for query '%s'", elapsed, line)

	if err != nil {
		fmt.Fprintf(h.out, "no results for '%s': %v\n", line, err)
		return true
	}
	if len(ans.Results) == 0 {
		fmt.Fprintf(h.out, "no results for '%s' in shard %s\n", line, ans.Shard)
		return true
	}

	fmt.Fprintf(h.out, "Found %d localities for '%s' %s\n", len(ans.Results), line,
		shardStyle.Render(fmt.Sprintf("(shard %s, %s scanned)", ans.Shard, utils.FormatWithCommas(ans.Scanned))))
	for i, r := range ans.Results {
		fmt.Fprintf(h.out, "%2d. %-40s %s %s\n", i+1, nameStyle.Render(r.Name), r.PostalCode, shardStyle.Render(r.Department))
	}
	return true
}
