package models

import (
	"fmt"
	"strings"
)

// ImpactSeparator joins the two independent impact statements.
const ImpactSeparator = "||"

type Section string

const (
	SectionProblem  Section = "problem"
	SectionSolution Section = "solution"
	SectionImpact   Section = "impact"
)

var Sections = []Section{SectionProblem, SectionSolution, SectionImpact}

func ParseSection(s string) (Section, error) {
	switch Section(strings.ToLower(strings.TrimSpace(s))) {
	case SectionProblem:
		return SectionProblem, nil
	case SectionSolution:
		return SectionSolution, nil
	case SectionImpact:
		return SectionImpact, nil
	}
	return "", fmt.Errorf("unknown section %q", s)
}

type GeneratedContent struct {
	ProblemStatement    string   `json:"problemStatement"`
	DatabricksSolution  string   `json:"databricksSolution"`
	Impact              string   `json:"impact"`
	ProblemConfidence   float64  `json:"problemConfidence"`
	SolutionConfidence  float64  `json:"solutionConfidence"`
	ImpactConfidence    float64  `json:"impactConfidence"`
	ProblemSuggestions  []string `json:"problemSuggestions"`
	SolutionSuggestions []string `json:"solutionSuggestions"`
	ImpactSuggestions   []string `json:"impactSuggestions"`
}

func (g GeneratedContent) Text(s Section) string {
	switch s {
	case SectionProblem:
		return g.ProblemStatement
	case SectionSolution:
		return g.DatabricksSolution
	case SectionImpact:
		return g.Impact
	}
	return ""
}

func (g *GeneratedContent) SetText(s Section, text string) {
	switch s {
	case SectionProblem:
		g.ProblemStatement = text
	case SectionSolution:
		g.DatabricksSolution = text
	case SectionImpact:
		g.Impact = text
	}
}

func (g GeneratedContent) Confidence(s Section) float64 {
	switch s {
	case SectionProblem:
		return g.ProblemConfidence
	case SectionSolution:
		return g.SolutionConfidence
	case SectionImpact:
		return g.ImpactConfidence
	}
	return 0
}

func (g *GeneratedContent) SetConfidence(s Section, v float64) {
	switch s {
	case SectionProblem:
		g.ProblemConfidence = v
	case SectionSolution:
		g.SolutionConfidence = v
	case SectionImpact:
		g.ImpactConfidence = v
	}
}

func (g GeneratedContent) Suggestions(s Section) []string {
	switch s {
	case SectionProblem:
		return g.ProblemSuggestions
	case SectionSolution:
		return g.SolutionSuggestions
	case SectionImpact:
		return g.ImpactSuggestions
	}
	return nil
}

// AllSuggestions concatenates the three suggestion lists, dropping blanks.
func (g GeneratedContent) AllSuggestions() []string {
	var out []string
	for _, s := range Sections {
		for _, v := range g.Suggestions(s) {
			if strings.TrimSpace(v) != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// SplitImpact splits impact text on "||", trimming and dropping empty
// segments. Text without the separator is a single statement.
func SplitImpact(impact string) []string {
	var out []string
	for _, part := range strings.Split(impact, ImpactSeparator) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type EditResult struct {
	ImprovedContent  string   `json:"improvedContent"`
	ResearchFindings string   `json:"researchFindings"`
	PlaceholdersUsed []string `json:"placeholdersUsed"`
}

// Citations splits the "A | B | C" research string into entries.
func (e EditResult) Citations() []string {
	var out []string
	for _, part := range strings.Split(e.ResearchFindings, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
