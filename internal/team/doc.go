// Package team loads team definitions.
//
// A team lives in <teams_dir>/<stem>.md: a YAML front-matter block followed
// by free markdown documenting the team's workflow.
//
//	---
//	name: backend
//	description: Backend Team
//	lead_agent: EMP_0001
//	members:
//	  - employee_id: EMP_0001
//	    role: lead
//	  - EMP_0002
//	working_directory: ${REPO_ROOT}/services
//	skills: [code-review]
//	---
//
//	# Backend Team
//	...
//
// [Store] lists and resolves teams, [Validate] reports advisory problems and
// [WriteTemplate] scaffolds a new team file.
package team
