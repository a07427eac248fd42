// Package briefing composes the message a team's lead agent receives when
// the team is assigned a task.
//
// Sections appear in a fixed order and the task is always last, so the lead
// reads the team context before the request.
package briefing

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/teamctl/internal/skill"
	"github.com/Iron-Ham/teamctl/internal/team"
)

// NameFunc resolves an employee ID to a display name, returning the ID
// itself when it cannot be resolved.
type NameFunc func(employeeID string) string

// SkillLoader loads skills by name, reporting the ones it could not find.
type SkillLoader interface {
	LoadAll(names []string) (loaded []*skill.Skill, missing []string)
}

// Briefing is a composed lead-agent message.
type Briefing struct {
	Text string
	// LoadedSkills lists the skills embedded in Text, in declared order.
	LoadedSkills []string
	// MissingSkills lists declared skills that could not be read.
	MissingSkills []string
}

// Composer builds briefings.
type Composer struct {
	names  NameFunc
	skills SkillLoader
}

// NewComposer returns a Composer. skills may be nil when no skill search
// path is available; every declared skill is then reported missing.
func NewComposer(names NameFunc, skills SkillLoader) *Composer {
	if names == nil {
		names = func(id string) string { return id }
	}
	return &Composer{names: names, skills: skills}
}

// DefaultWorkingDirectory is shown when the team does not override the
// agents' working directories.
const DefaultWorkingDirectory = "Use agent default"

// Compose builds the briefing for cfg and task. The task is embedded
// verbatim.
func (c *Composer) Compose(cfg *team.Config, task string) Briefing {
	var b Briefing
	var sb strings.Builder

	lead := cfg.LeadAgent
	wd := cfg.WorkingDirectory
	if wd == "" {
		wd = DefaultWorkingDirectory
	}

	sb.WriteString("# Team Task Assignment\n\n")
	fmt.Fprintf(&sb, "You are the **Lead Agent** for the **%s** team.\n\n", cfg.Name)
	sb.WriteString("## Team Configuration\n")
	fmt.Fprintf(&sb, "- **Lead Agent**: %s (%s)\n", lead, c.names(lead))
	fmt.Fprintf(&sb, "- **Team Working Directory**: %s\n", wd)
	sb.WriteString("- **Team Members**:\n")
	for _, m := range cfg.Members {
		id := m.EmployeeID
		if id == "" {
			id = "unknown"
		}
		mark := ""
		if id == lead {
			mark = " (lead)"
		}
		fmt.Fprintf(&sb, "  - %s (%s) - %s%s\n", id, c.names(id), m.Role, mark)
	}

	if cfg.Body != "" {
		sb.WriteString("\n## Team Workflow & Documentation\n\n")
		sb.WriteString(cfg.Body)
		sb.WriteString("\n")
	}

	if sections := c.skillSections(cfg.Skills, &b); len(sections) > 0 {
		sb.WriteString("\n## Team Skills (Loaded for this task)\n\n")
		sb.WriteString(strings.Join(sections, "\n\n---\n\n"))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(protocol)
	sb.WriteString("\n## Task\n")
	sb.WriteString(task)
	sb.WriteString("\n\n---\nPlease coordinate this task with your team and report back when complete.\n")

	b.Text = sb.String()
	return b
}

func (c *Composer) skillSections(names []string, b *Briefing) []string {
	if len(names) == 0 {
		return nil
	}
	if c.skills == nil {
		b.MissingSkills = append([]string(nil), names...)
		return nil
	}

	loaded, missing := c.skills.LoadAll(names)
	b.MissingSkills = missing

	var sections []string
	for _, sk := range loaded {
		content := strings.TrimSpace(sk.Content)
		if content == "" {
			continue
		}
		b.LoadedSkills = append(b.LoadedSkills, sk.Name)
		sections = append(sections, fmt.Sprintf("### %s\n\n%s", sk.Name, content))
	}
	return sections
}

// protocol is the standing guidance every lead receives. It starts and ends
// on a blank line.
const protocol = `
## Your Responsibilities
1. Analyze the task requirements
2. Follow the team workflow when coordinating with members
3. Ensure quality and completeness
4. Report back with final results

## Session Recovery (If you were restarted / new session)
- Before doing any new work, inspect the repo state:
  - ` + "`git status -sb`" + `
  - ` + "`git branch --show-current`" + `
  - ` + "`git log -10 --oneline --decorate`" + `
- If there is already a WIP branch/commits for this task, continue on that branch (do NOT create a new branch).
- If an open PR already exists for your current branch, continue pushing commits to that PR (do NOT create a new PR).
  - Example:
    - ` + "`BRANCH=\"$(git branch --show-current)\"`" + `
    - ` + "`gh pr list --state open --head \"$BRANCH\" --json number,url,title,headRefName --limit 20`" + `
- If ` + "`gh`" + ` is unavailable/not authenticated, still avoid creating a duplicate PR: report the current branch + last commits and ask for human help to locate the existing PR.

## PR Hygiene (One PR per Issue)
- If this task references a GitHub Issue (e.g., ` + "`Issue #123`" + `), you MUST avoid creating multiple concurrent PRs for the same issue.
- Before creating a new PR, search for an existing open PR that already references that issue.
  - Example (run inside the repo):
    - ` + "`ISSUE_NUMBER=123`" + `
    - ` + "`gh pr list --state open --search \"#$ISSUE_NUMBER\" --json number,url,title,headRefName --limit 20`" + `
    - If a matching PR exists: ` + "`gh pr checkout <PR_NUMBER>`" + ` and push commits to that branch instead of opening a new PR.
- If you accidentally created a duplicate PR for the same issue, close the newest duplicate and continue on the original PR (unless the original is explicitly abandoned).
`
