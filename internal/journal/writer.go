package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

var matchIDCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Manifest describes the journal bundle layout so tooling can locate
// artefacts.
type Manifest struct {
	Version      int    `json:"version"`
	MatchID      string `json:"match_id"`
	CreatedAt    string `json:"created_at"`
	MessagesPath string `json:"messages_path"`
	DigestPath   string `json:"digest_path"`
}

// Stats summarises journal health for monitoring endpoints.
type Stats struct {
	Records  int64
	Bytes    int64
	Dir      string
	LastSeen time.Time
}

// Writer streams every broadcast message of one match to disk: the full
// payloads into a snappy-framed stream, a compact per-message digest into a
// zstd stream, plus a JSON manifest. The journal is a diagnostic record
// only; nothing is ever replayed to clients from it.
type Writer struct {
	mu            sync.Mutex
	dir           string
	now           func() time.Time
	messageFile   *os.File
	messageStream *snappy.Writer
	digestFile    *os.File
	digestStream  *zstd.Encoder
	records       int64
	bytes         int64
	lastSeen      time.Time
	closed        bool
}

type record struct {
	Sequence int64           `json:"seq"`
	Type     string          `json:"type"`
	At       string          `json:"at"`
	Payload  json.RawMessage `json:"payload"`
}

type digestLine struct {
	Sequence int64  `json:"seq"`
	Type     string `json:"type"`
	At       string `json:"at"`
	Size     int    `json:"size"`
}

// NewWriter prepares the journal directory for a match and opens the
// compressed sinks.
func NewWriter(root, matchID string, clock func() time.Time) (*Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("journal root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}
	cleaned := matchIDCleaner.ReplaceAllString(matchID, "_")
	if cleaned == "" {
		cleaned = "match"
	}
	started := clock()
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", cleaned, started.UTC().Format("20060102T150405Z")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	messageFile, err := os.Create(filepath.Join(dir, "messages.log.sz"))
	if err != nil {
		return nil, fmt.Errorf("create message stream: %w", err)
	}
	digestFile, err := os.Create(filepath.Join(dir, "digest.jsonl.zst"))
	if err != nil {
		messageFile.Close()
		return nil, fmt.Errorf("create digest stream: %w", err)
	}
	digestStream, err := zstd.NewWriter(digestFile)
	if err != nil {
		messageFile.Close()
		digestFile.Close()
		return nil, fmt.Errorf("open zstd stream: %w", err)
	}

	manifest := Manifest{
		Version:      1,
		MatchID:      matchID,
		CreatedAt:    started.UTC().Format(time.RFC3339),
		MessagesPath: "messages.log.sz",
		DigestPath:   "digest.jsonl.zst",
	}
	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(dir, "manifest.json"), manifestBytes, 0o644)
	}
	if err != nil {
		digestStream.Close()
		messageFile.Close()
		digestFile.Close()
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return &Writer{
		dir:           dir,
		now:           clock,
		messageFile:   messageFile,
		messageStream: snappy.NewBufferedWriter(messageFile),
		digestFile:    digestFile,
		digestStream:  digestStream,
	}, nil
}

// Record appends one broadcast message to the journal. Failures are
// returned for logging but must never influence delivery.
func (w *Writer) Record(messageType string, payload []byte) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("journal closed")
	}
	w.records++
	now := w.now()
	w.lastSeen = now
	at := now.UTC().Format(time.RFC3339Nano)

	line, err := json.Marshal(record{Sequence: w.records, Type: messageType, At: at, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode journal record: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.messageStream.Write(line); err != nil {
		return fmt.Errorf("write journal record: %w", err)
	}
	w.bytes += int64(len(line))

	digest, err := json.Marshal(digestLine{Sequence: w.records, Type: messageType, At: at, Size: len(payload)})
	if err != nil {
		return fmt.Errorf("encode journal digest: %w", err)
	}
	if _, err := w.digestStream.Write(append(digest, '\n')); err != nil {
		return fmt.Errorf("write journal digest: %w", err)
	}
	return nil
}

// Stats returns a point-in-time summary.
func (w *Writer) Stats() Stats {
	if w == nil {
		return Stats{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{Records: w.records, Bytes: w.bytes, Dir: w.dir, LastSeen: w.lastSeen}
}

// Dir returns the journal bundle directory.
func (w *Writer) Dir() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// Close flushes and closes both sinks. Safe to call more than once.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	var firstErr error
	if err := w.messageStream.Close(); err != nil {
		firstErr = err
	}
	if err := w.messageFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.digestStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.digestFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
