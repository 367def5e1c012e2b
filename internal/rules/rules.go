package rules

import (
	"fmt"
	"time"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/state"
)

// #region vocabulary
// baseVocabulary lists the state types the signal extractor and the built-in
// detectors know how to produce. Rule files may extend it but a precondition
// naming a type outside the combined vocabulary is a load failure.
var baseVocabulary = []string{
	"user_access",
	"admin_access",
	"credential_dumped",
	"network_access",
	"lateral_movement",
	"vuln_privesc",
	"vuln_lateral",
}

// #endregion vocabulary

// #region new-set
// NewSet validates the rules and returns an immutable Set. All validation
// failures are configuration errors: they surface before any run starts and
// the run never begins.
func NewSet(rs []Rule, extraVocabulary ...string) (*Set, error) {
	vocab := make(map[string]bool, len(baseVocabulary)+len(extraVocabulary))
	for _, t := range baseVocabulary {
		vocab[t] = true
	}
	for _, t := range extraVocabulary {
		if t == "" {
			return nil, fmt.Errorf("rules: empty vocabulary entry")
		}
		vocab[t] = true
	}
	// Postcondition types are part of the vocabulary by definition.
	for _, r := range rs {
		for _, k := range r.Postconditions {
			if k.Type != "" {
				vocab[k.Type] = true
			}
		}
	}

	byName := make(map[string]Rule, len(rs))
	for i, r := range rs {
		if err := validate(r, vocab); err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, r.Name, err)
		}
		if _, dup := byName[r.Name]; dup {
			return nil, fmt.Errorf("rule %d: duplicate name %q", i, r.Name)
		}
		byName[r.Name] = r
	}

	return &Set{rules: append([]Rule(nil), rs...), byName: byName, vocab: vocab}, nil
}

func validate(r Rule, vocab map[string]bool) error {
	if r.Name == "" {
		return fmt.Errorf("missing name")
	}
	if len(r.Preconditions) == 0 {
		return fmt.Errorf("no preconditions")
	}
	if len(r.Postconditions) == 0 {
		return fmt.Errorf("no postconditions")
	}
	if r.BaseConfidence <= 0 || r.BaseConfidence > 1 {
		return fmt.Errorf("base confidence %v outside (0, 1]", r.BaseConfidence)
	}
	if r.MaxTimeGap <= 0 {
		return fmt.Errorf("non-positive max time gap %v", r.MaxTimeGap)
	}
	for _, k := range r.Preconditions {
		if k.Type == "" || k.Scope == "" {
			return fmt.Errorf("precondition %q has empty type or scope", k)
		}
		if !vocab[k.Type] {
			return fmt.Errorf("precondition type %q not in state vocabulary", k.Type)
		}
	}
	for _, k := range r.Postconditions {
		if k.Type == "" || k.Scope == "" {
			return fmt.Errorf("postcondition %q has empty type or scope", k)
		}
	}
	return nil
}

// #endregion new-set

// #region default-set
// Default returns the built-in two-host intrusion rule set.
func Default() *Set {
	set, err := NewSet([]Rule{
		{
			Name:           "Privilege Escalation on A",
			Tactic:         "Privilege Escalation",
			Preconditions:  []state.Key{{Type: "user_access", Scope: "A"}},
			Postconditions: []state.Key{{Type: "admin_access", Scope: "A"}},
			BaseConfidence: 0.7,
			MaxTimeGap:     time.Hour,
		},
		{
			Name:           "Credential Dumping on A",
			Tactic:         "Credential Access",
			Preconditions:  []state.Key{{Type: "admin_access", Scope: "A"}},
			Postconditions: []state.Key{{Type: "credential_dumped", Scope: "A"}},
			BaseConfidence: 0.8,
			MaxTimeGap:     30 * time.Minute,
		},
		{
			Name:           "Lateral Movement A_to_B",
			Tactic:         "Lateral Movement",
			Preconditions:  []state.Key{{Type: "credential_dumped", Scope: "A"}, {Type: "network_access", Scope: "A_to_B"}},
			Postconditions: []state.Key{{Type: "user_access", Scope: "B"}},
			BaseConfidence: 0.6,
			MaxTimeGap:     time.Hour,
		},
		{
			Name:           "Privilege Escalation on B",
			Tactic:         "Privilege Escalation",
			Preconditions:  []state.Key{{Type: "user_access", Scope: "B"}},
			Postconditions: []state.Key{{Type: "admin_access", Scope: "B"}},
			BaseConfidence: 0.7,
			MaxTimeGap:     time.Hour,
		},
	})
	if err != nil {
		// The built-in set is validated by tests; reaching here is a bug.
		panic(err)
	}
	return set
}

// #endregion default-set
