// Package testcase persists generated packet batches as testcase
// directories: one binary file per message, a results manifest naming the
// expected parse outcome of each, and a human-readable hexdump listing.
// Parser backends consume these directories to build conformance tests.
package testcase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lmco/parselab/logger"
	"github.com/lmco/parselab/packet"
	"github.com/lmco/parselab/spec"
)

const (
	// TestcaseDirName is the top-level directory holding all testcases.
	TestcaseDirName = "testcases"
	// ResultsFileName is the manifest of expected parse results.
	ResultsFileName = "results.txt"
	// MessageExt is the extension of per-message binary files.
	MessageExt = ".bin"
	// DumpExt is the extension of the human-readable listing.
	DumpExt = ".xxd"
)

// Message is one generated message of a testcase.
type Message struct {
	Packet *packet.Packet
	// Basename is the message's file name without extension, e.g.
	// "0003_Heartbeat".
	Basename string
}

// Result renders the message's manifest line.
func (m *Message) Result() string {
	p := m.Packet
	switch {
	case p.Degraded:
		return m.Basename + " - valid - degraded"
	case p.Valid:
		return m.Basename + " - valid"
	default:
		return fmt.Sprintf("%s - invalid - %s - %s", m.Basename, p.FaultField, p.FaultClass)
	}
}

// Testcase is one named batch of generated messages.
type Testcase struct {
	Name     string
	RunID    uuid.UUID
	Messages []*Message
}

// Generator produces testcase directories under a protocol directory.
type Generator struct {
	protocolDir string
	packets     *packet.PacketGenerator
	protocol    *spec.Protocol
	logger      logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the generator's logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator creates a testcase generator writing under protocolDir.
func NewGenerator(protocolDir string, p *spec.Protocol, packets *packet.PacketGenerator, opts ...Option) *Generator {
	g := &Generator{
		protocolDir: protocolDir,
		packets:     packets,
		protocol:    p,
		logger:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds one testcase of count messages with random message types
// and persists it. When onePer is set, count is ignored and exactly one
// message per defined message type is generated instead. It returns the
// testcase directory path.
func (g *Generator) Generate(name string, valid bool, count int, onePer bool) (string, error) {
	tc, err := g.Build(name, valid, count, onePer)
	if err != nil {
		return "", err
	}
	return g.Persist(tc)
}

// Build generates the in-memory message batch without touching the
// filesystem.
func (g *Generator) Build(name string, valid bool, count int, onePer bool) (*Testcase, error) {
	if name == "" {
		return nil, fmt.Errorf("a testcase must have a name")
	}
	types := g.protocol.MessageTypes
	if len(types) == 0 {
		return nil, fmt.Errorf("testcase %q: the protocol defines no message types", name)
	}

	g.logger.Info("generating testcase",
		"name", name, "valid", valid, "messages", count, "onePer", onePer)

	var plan []*spec.MessageType
	if onePer {
		plan = types
	} else {
		plan = make([]*spec.MessageType, 0, count)
		for i := 0; i < count; i++ {
			plan = append(plan, types[g.packets.Intn(len(types))])
		}
	}

	tc := &Testcase{Name: name, RunID: uuid.New()}
	for i, mt := range plan {
		p, err := g.packets.GenerateFromType(mt, valid)
		if err != nil {
			return nil, fmt.Errorf("testcase %q: %w", name, err)
		}
		tc.Messages = append(tc.Messages, &Message{
			Packet:   p,
			Basename: fmt.Sprintf("%04d_%s", i, mt.Name),
		})
	}

	return tc, nil
}

// Persist writes the testcase directory: the per-message binaries, the
// results manifest, and the hexdump listing. A testcase directory that
// already exists is an error; existing testcases are never overwritten.
func (g *Generator) Persist(tc *Testcase) (string, error) {
	topDir := filepath.Join(g.protocolDir, TestcaseDirName)
	if err := os.MkdirAll(topDir, 0o755); err != nil {
		return "", fmt.Errorf("testcase %q: %w", tc.Name, err)
	}

	dir := filepath.Join(topDir, tc.Name)
	if _, err := os.Stat(dir); err == nil {
		return "", fmt.Errorf("testcase directory %q already exists", dir)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("testcase %q: %w", tc.Name, err)
	}

	for _, m := range tc.Messages {
		path := filepath.Join(dir, m.Basename+MessageExt)
		if err := os.WriteFile(path, m.Packet.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("testcase %q: %w", tc.Name, err)
		}
	}

	results := filepath.Join(dir, ResultsFileName)
	if err := os.WriteFile(results, []byte(tc.Manifest()), 0o644); err != nil {
		return "", fmt.Errorf("testcase %q: %w", tc.Name, err)
	}

	dump := filepath.Join(dir, tc.Name+DumpExt)
	if err := os.WriteFile(dump, []byte(tc.Dump()), 0o644); err != nil {
		return "", fmt.Errorf("testcase %q: %w", tc.Name, err)
	}

	g.logger.Info("testcase written", "dir", dir, "messages", len(tc.Messages))

	return dir, nil
}

// Manifest renders the results file: one line per message with its expected
// parse outcome.
func (tc *Testcase) Manifest() string {
	var sb strings.Builder
	for _, m := range tc.Messages {
		sb.WriteString(m.Result())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Dump renders the human-readable listing: a run header followed by each
// message's validity tag, index, type name and hexdump.
func (tc *Testcase) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "testcase %s run %s\n\n", tc.Name, tc.RunID)
	for i, m := range tc.Messages {
		tag := "[INVALID]"
		if m.Packet.Valid {
			tag = "[VALID]"
		}
		fmt.Fprintf(&sb, "%s %d %s\n", tag, i, m.Packet.MessageType.Name)
		sb.WriteString(m.Packet.Hexdump())
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
