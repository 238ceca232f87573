package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// TokensKey is the config key holding the allowed tokens.
const TokensKey = "allowed-tokens"

// TokenFile writes the allowed tokens back into the yaml config file. Writes
// happen on a background goroutine; when several saves queue up only the
// latest set is written.
type TokenFile struct {
	path string

	mu     sync.Mutex
	latest []string
	dirty  bool

	wake  chan struct{}
	flush chan chan struct{}
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewTokenFile starts a writer for the config file at path.
func NewTokenFile(path string) *TokenFile {
	f := &TokenFile{
		path:  path,
		wake:  make(chan struct{}, 1),
		flush: make(chan chan struct{}),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go f.run()
	return f
}

// SaveTokens queues tokens to be written.
func (f *TokenFile) SaveTokens(tokens []string) {
	f.mu.Lock()
	f.latest = append([]string(nil), tokens...)
	f.dirty = true
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every queued save has been written.
func (f *TokenFile) Flush() {
	reply := make(chan struct{})
	select {
	case f.flush <- reply:
		<-reply
	case <-f.done:
	}
}

// Close writes anything pending and stops the writer.
func (f *TokenFile) Close() {
	f.once.Do(func() { close(f.quit) })
	<-f.done
}

func (f *TokenFile) run() {
	defer close(f.done)
	for {
		select {
		case <-f.wake:
			f.writePending()
		case reply := <-f.flush:
			f.writePending()
			close(reply)
		case <-f.quit:
			f.writePending()
			return
		}
	}
}

func (f *TokenFile) writePending() {
	f.mu.Lock()
	if !f.dirty {
		f.mu.Unlock()
		return
	}
	tokens := f.latest
	f.dirty = false
	f.mu.Unlock()

	defer sentry.Recover()
	if err := WriteTokens(f.path, tokens); err != nil {
		log.Err(err).Str("file", f.path).Msg("Failed to save allowed tokens")
		return
	}
	log.Info().Str("file", f.path).Int("tokens", len(tokens)).Msg("Saved allowed tokens")
}

// WriteTokens replaces the allowed-tokens list in the yaml file at path,
// keeping every other key and comment. The file is created if missing.
func WriteTokens(path string, tokens []string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: top level is not a mapping", path)
	}

	list := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, t := range tokens {
		list.Content = append(list.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t})
	}

	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == TokensKey {
			list.LineComment = root.Content[i+1].LineComment
			root.Content[i+1] = list
			replaced = true
			break
		}
	}
	if !replaced {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: TokensKey},
			list,
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	// must be closed before the rename on windows
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}
