package team

import (
	"gopkg.in/yaml.v3"
)

// DefaultRole is assigned to members declared without a role.
const DefaultRole = "member"

// Member is one roster entry: an employee ID and the role it plays.
type Member struct {
	EmployeeID string `yaml:"employee_id" json:"employee_id"`
	Role       string `yaml:"role" json:"role"`
}

// Members decodes the roster from any of the accepted shapes:
//
//	- employee_id: EMP_0001   # canonical
//	  role: lead
//	- agent: EMP_0002         # legacy key
//	- EMP_0003                # bare ID
//
// Entries matching none of these are dropped. Decoding is the only place
// normalization happens; everything downstream sees canonical members.
type Members []Member

// rawMember captures both map shapes. Pointers distinguish an absent key
// from an empty value.
type rawMember struct {
	EmployeeID *string `yaml:"employee_id"`
	Agent      *string `yaml:"agent"`
	Role       string  `yaml:"role"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Members) UnmarshalYAML(node *yaml.Node) error {
	*m = nil
	if node.Kind != yaml.SequenceNode {
		return nil
	}

	out := make(Members, 0, len(node.Content))
	for _, item := range node.Content {
		member, ok := decodeMember(item)
		if ok {
			out = append(out, member)
		}
	}
	*m = out
	return nil
}

func decodeMember(node *yaml.Node) (Member, bool) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return Member{}, false
		}
		return Member{EmployeeID: node.Value, Role: DefaultRole}, true
	case yaml.MappingNode:
		var raw rawMember
		if err := node.Decode(&raw); err != nil {
			return Member{}, false
		}
		return raw.normalize()
	default:
		return Member{}, false
	}
}

func (r rawMember) normalize() (Member, bool) {
	role := r.Role
	if role == "" {
		role = DefaultRole
	}
	switch {
	case r.EmployeeID != nil:
		return Member{EmployeeID: *r.EmployeeID, Role: role}, true
	case r.Agent != nil:
		return Member{EmployeeID: *r.Agent, Role: role}, true
	default:
		return Member{}, false
	}
}

// IDs returns the employee IDs in declared order.
func (m Members) IDs() []string {
	ids := make([]string, len(m))
	for i, member := range m {
		ids[i] = member.EmployeeID
	}
	return ids
}

// stringList accepts either a YAML sequence of strings or a single scalar.
type stringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			*s = nil
			return nil
		}
		*s = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*s = items
		return nil
	default:
		*s = nil
		return nil
	}
}

// frontMatter mirrors the declarative block of a team file.
type frontMatter struct {
	Name             string     `yaml:"name"`
	Description      string     `yaml:"description"`
	LeadAgent        string     `yaml:"lead_agent"`
	Members          Members    `yaml:"members"`
	WorkingDirectory string     `yaml:"working_directory"`
	Skills           stringList `yaml:"skills"`
	Enabled          *bool      `yaml:"enabled"`
}

// Config is one team definition as loaded from <teams_dir>/<stem>.md.
type Config struct {
	Name        string
	Description string
	LeadAgent   string
	Members     Members
	// WorkingDirectory has environment placeholders already expanded.
	// Empty means each agent keeps its own default.
	WorkingDirectory string
	Skills           []string
	Enabled          bool
	// Body is the markdown after the front matter, trimmed.
	Body string
	// File is the source path; Stem is its base name without ".md".
	File string
	Stem string

	declared map[string]bool
}

// Declares reports whether key appeared in the front matter.
func (c *Config) Declares(key string) bool {
	return c.declared[key]
}

// IsLead reports whether employeeID is the team's lead.
func (c *Config) IsLead(employeeID string) bool {
	return c.LeadAgent != "" && employeeID == c.LeadAgent
}

// HasMember reports whether employeeID appears in the roster.
func (c *Config) HasMember(employeeID string) bool {
	for _, m := range c.Members {
		if m.EmployeeID == employeeID {
			return true
		}
	}
	return false
}
