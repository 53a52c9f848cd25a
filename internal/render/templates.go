package render

import "fmt"

// Named template types.
const (
	TemplateIndividual     = "individual"
	TemplateComparison     = "comparison"
	TemplateInterviewGuide = "interview-guide"
)

const individualTemplate = `# Candidate Match Report

**Job:** {{jobId}}
**Candidate:** {{resumeId}}
**Generated:** {{generatedAt}}

## Overall Assessment

**Match score:** {{overallScore}}%
**Recommendation:** {{decision}}
**Confidence:** {{confidence}}

{{summary}}

## Score Breakdown

- Skills match: {{breakdown.skillsMatch}}%
- Experience match: {{breakdown.experienceMatch}}%
- Education match: {{breakdown.educationMatch}}%
- Overall fit: {{breakdown.overallFit}}%

## Skills Analysis

{{#each matchingSkills}}- **{{skill}}** ({{matchType}}, {{matchScore}}%): {{explanation}}
{{/each}}

{{#if strengths}}## Strengths

{{#each strengths}}- {{this}}
{{/each}}
{{/if}}
{{#if concerns}}## Concerns

{{#each concerns}}- {{this}}
{{/each}}
{{/if}}
## Detailed Analysis

{{narrative}}
`

const comparisonTemplate = `# Candidate Comparison

**Job:** {{jobId}}
**Candidates compared:** {{candidateCount}}
**Generated:** {{generatedAt}}

## Ranking

{{#each candidates}}- **{{resumeId}}**: {{overallScore}}% ({{decision}})
{{/each}}

## Comparative Analysis

{{narrative}}
`

const interviewGuideTemplate = `# Interview Guide

**Job:** {{jobId}}
**Candidate:** {{resumeId}}
**Generated:** {{generatedAt}}

## Focus Areas

{{#each concerns}}- Probe: {{this}}
{{/each}}

## Suggested Questions

{{#each suggestions}}- {{this}}
{{/each}}

## Background

{{narrative}}
`

var namedTemplates = map[string]*Template{
	TemplateIndividual:     MustParseTemplate(individualTemplate),
	TemplateComparison:     MustParseTemplate(comparisonTemplate),
	TemplateInterviewGuide: MustParseTemplate(interviewGuideTemplate),
}

// Lookup returns the parsed template registered under name.
func Lookup(name string) (*Template, error) {
	t, ok := namedTemplates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template type %q", name)
	}
	return t, nil
}
