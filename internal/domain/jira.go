package domain

import (
	"encoding/json"
	"fmt"
)

// FlexibleID is a type that can unmarshal both string and numeric IDs
// from JSON. Jira mixes the two across its API surfaces.
type FlexibleID string

// UnmarshalJSON implements custom unmarshaling to handle both string and numeric IDs.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleID(n.String())
		return nil
	}

	return fmt.Errorf("id must be a string or number")
}

// String returns the string representation of the ID.
func (f FlexibleID) String() string {
	return string(f)
}

// ADFDocument is the Atlassian Document Format wrapper Jira Cloud
// requires for rich text fields. The structure is fixed: document →
// paragraph → text run.
type ADFDocument struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []ADFNode `json:"content"`
}

// ADFNode is a node inside an ADF document.
type ADFNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Content []ADFNode `json:"content,omitempty"`
}

// NewADFDocument wraps plain text in the two-level ADF structure.
func NewADFDocument(text string) *ADFDocument {
	return &ADFDocument{
		Type:    "doc",
		Version: 1,
		Content: []ADFNode{
			{
				Type: "paragraph",
				Content: []ADFNode{
					{Type: "text", Text: text},
				},
			},
		},
	}
}

// ProjectRef is a reference to a project (used in create operations).
type ProjectRef struct {
	Key string `json:"key"`
}

// NameRef is a reference by display name (issue types, priorities, components).
type NameRef struct {
	Name string `json:"name"`
}

// AssigneeRef is a reference to a user by email address (Jira Cloud).
type AssigneeRef struct {
	EmailAddress string `json:"emailAddress"`
}

// CreatedIssue is the subset of the issue create response the composite
// create handler needs; the full body still flows through verbatim.
type CreatedIssue struct {
	ID   FlexibleID `json:"id"`
	Key  string     `json:"key"`
	Self string     `json:"self"`
}

// Status represents a Jira issue status (e.g., Open, In Progress, Done).
type Status struct {
	ID   FlexibleID `json:"id"`
	Name string     `json:"name"`
}

// Transition is one workflow transition reported by the server.
type Transition struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	To   *Status `json:"to,omitempty"`
}

// TransitionList is the response of the issue transitions endpoint.
type TransitionList struct {
	Transitions []Transition `json:"transitions"`
}

// Sprint is the subset of the Agile sprint entity the composite
// handlers need (active-sprint lookup, close-sprint reporting).
type Sprint struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// SprintList is a paged sprint listing from the Agile API.
type SprintList struct {
	Values []Sprint `json:"values"`
}

// SprintIssue is the subset of an issue in a sprint issue listing that
// the close-sprint partition logic reads.
type SprintIssue struct {
	ID     FlexibleID        `json:"id"`
	Key    string            `json:"key"`
	Fields SprintIssueFields `json:"fields"`
}

// SprintIssueFields carries the status of an issue in a sprint listing.
type SprintIssueFields struct {
	Status Status `json:"status"`
}

// SprintIssueList is the response of the sprint issue endpoint.
type SprintIssueList struct {
	Issues []SprintIssue `json:"issues"`
}
