package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

// Load reads the JSON configuration at path, strips its comments, and
// decodes it into a Config. The file may contain `//` line comments and
// `/* */` block comments anywhere outside string literals.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &wiresim.IOError{Op: "read config file", Err: err}
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(StripComments(raw))); err != nil {
		return nil, &wiresim.ConfigError{Field: path, Err: fmt.Errorf("parse: %w", err)}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &wiresim.ConfigError{Field: path, Err: fmt.Errorf("decode: %w", err)}
	}
	return &cfg, nil
}

// StripComments removes `//` line comments and `/* */` block comments from
// raw, leaving string literals untouched. Newlines inside stripped comments
// are kept, so byte offsets shift but line numbers in parse errors stay
// meaningful.
func StripComments(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	const (
		code = iota
		inString
		lineComment
		blockComment
	)
	state := code
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch state {
		case code:
			switch {
			case c == '"':
				state = inString
				out = append(out, c)
			case c == '/' && i+1 < len(raw) && raw[i+1] == '/':
				state = lineComment
				i++
			case c == '/' && i+1 < len(raw) && raw[i+1] == '*':
				state = blockComment
				i++
			default:
				out = append(out, c)
			}
		case inString:
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				state = code
			}
		case lineComment:
			if c == '\n' {
				state = code
				out = append(out, c)
			}
		case blockComment:
			if c == '\n' {
				out = append(out, c)
			} else if c == '*' && i+1 < len(raw) && raw[i+1] == '/' {
				state = code
				i++
			}
		}
	}
	return out
}

// OutputPath renders the configured output template into the concrete CSV
// filename for this run, following the convention
// output_{propagation}.{simulator}[.{maj}.{min}]_{lambda}_{seed}.csv:
// the {propagation}, {simulator}, {persistence}, {lambda}, and {seed}
// tokens are substituted, and the `.{persistence}` segment is dropped
// entirely when the MAC variant has no persistence parameter. A template
// without tokens passes through unchanged.
func (c *Config) OutputPath() string {
	s := c.Simulation
	out := s.Output
	if s.Simulator == "simple" && s.Persistence != nil {
		major, minor := roundPersistence(*s.Persistence)
		out = strings.ReplaceAll(out, "{persistence}", fmt.Sprintf("%d.%d", major, minor))
	} else {
		out = strings.ReplaceAll(out, ".{persistence}", "")
	}
	out = strings.ReplaceAll(out, "{propagation}", s.Propagation)
	out = strings.ReplaceAll(out, "{simulator}", s.Simulator)
	out = strings.ReplaceAll(out, "{lambda}", strconv.FormatFloat(c.Lambda(), 'f', -1, 64))
	out = strings.ReplaceAll(out, "{seed}", strconv.FormatInt(s.Seed, 10))
	return out
}
