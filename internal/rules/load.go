package rules

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
	"gopkg.in/yaml.v3"
)

// #region file-format

// ruleFile is the YAML document structure:
//
//	vocabulary: [proc_dump_seen]   # optional extra state types
//	rules:
//	  - name: Lateral Movement A_to_B
//	    tactic: Lateral Movement
//	    confidence: 0.6
//	    max_time_gap: 1h
//	    pre: [credential_dumped:A, network_access:A_to_B]
//	    post: [user_access:B]
type ruleFile struct {
	Vocabulary []string   `yaml:"vocabulary"`
	Rules      []ruleYAML `yaml:"rules"`
}

type ruleYAML struct {
	Name       string   `yaml:"name"`
	Tactic     string   `yaml:"tactic"`
	Confidence float64  `yaml:"confidence"`
	MaxTimeGap string   `yaml:"max_time_gap"`
	Pre        []string `yaml:"pre"`
	Post       []string `yaml:"post"`
}

// #endregion file-format

// #region load

// LoadFile reads a YAML rule file and returns a validated Set. Any problem
// is a configuration error surfaced before a run starts.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return Load(data)
}

// Load parses and validates a YAML rule document.
func Load(data []byte) (*Set, error) {
	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("parse rules: no rules defined")
	}

	rs := make([]Rule, 0, len(doc.Rules))
	for i, ry := range doc.Rules {
		r := Rule{
			Name:           ry.Name,
			Tactic:         ry.Tactic,
			BaseConfidence: ry.Confidence,
		}
		if ry.MaxTimeGap != "" {
			gap, err := time.ParseDuration(ry.MaxTimeGap)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%q): max_time_gap: %w", i, ry.Name, err)
			}
			r.MaxTimeGap = gap
		}
		for _, s := range ry.Pre {
			k, err := parseKey(s)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%q): pre: %w", i, ry.Name, err)
			}
			r.Preconditions = append(r.Preconditions, k)
		}
		for _, s := range ry.Post {
			k, err := parseKey(s)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%q): post: %w", i, ry.Name, err)
			}
			r.Postconditions = append(r.Postconditions, k)
		}
		rs = append(rs, r)
	}

	return NewSet(rs, doc.Vocabulary...)
}

// parseKey splits a "type:scope" string at the first colon. The type side
// never contains a colon; everything after it is the scope verbatim, so
// scopes like "A_to_B" or ones containing further separators stay intact.
func parseKey(s string) (state.Key, error) {
	i := strings.Index(s, ":")
	if i <= 0 || i == len(s)-1 {
		return state.Key{}, fmt.Errorf("malformed state key %q, want type:scope", s)
	}
	return state.Key{Type: s[:i], Scope: s[i+1:]}, nil
}

// #endregion load
