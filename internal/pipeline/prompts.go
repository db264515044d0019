package pipeline

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/storycraft-agent/internal/llm"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
)

// Step pairs a prompt template with its sampling parameters.
type Step struct {
	Name    string
	Options llm.Options
}

var (
	StepValidateCustomer = Step{Name: "validate_customer", Options: llm.Options{Temperature: llm.Temperature(0.1), MaxTokens: 800}}
	StepAnalyzeUseCases  = Step{Name: "analyze_use_cases", Options: llm.Options{Temperature: llm.Temperature(0.2), MaxTokens: 1200}}
	StepFilterContent    = Step{Name: "filter_content", Options: llm.Options{Temperature: llm.Temperature(0.1), MaxTokens: 600}}
	StepGenerateContent  = Step{Name: "generate_content", Options: llm.Options{Temperature: llm.Temperature(0.3), MaxTokens: 1500}}
	StepAIEdit           = Step{Name: "ai_edit", Options: llm.Options{Temperature: llm.Temperature(0.4), MaxTokens: 600}}
	StepGenerateStory    = Step{Name: "generate_story", Options: llm.Options{Temperature: llm.Temperature(0.4), MaxTokens: 600}}
)

// NoContentFound is what the filter step returns when nothing in the notes
// relates to the use case.
const NoContentFound = "No specific content found for this use case."

func CustomerPrompt(customerDetails string) string {
	return fmt.Sprintf(`You are a business research assistant. Search for the company described below and confirm who they are.

Respond with a JSON object of this shape:

{
  "companyName": "Commonly used company name",
  "region": "Primary country or region where the company operates",
  "industry": "Primary industry or sector, using a mainstream industry name",
  "confidence": "high, medium or low: how sure you are that this information is accurate",
  "additionalInfo": "Relevant context about the company in 30 words or less",
  "suggestions": "If the company name looks ambiguous, the most likely correct name. Empty if clear"
}

Customer details provided: %s

If you cannot find reliable information, set confidence to "low" and use "suggestions" to say which extra details would identify the company.
When confidence is low, set companyName, region, industry and additionalInfo to "NA".
Prefer the most current information available.`, strings.TrimSpace(customerDetails))
}

func UseCasePrompt(customerContent, industry string) string {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		industry = "their"
	}
	return fmt.Sprintf(`You are a Databricks solutions expert. Below are free-form notes a salesperson took about a customer. Identify which Databricks use cases the notes describe.

Respond with a JSON object of this shape:

{
  "identifiedUseCases": [
    {
      "category": "Platform Use Case" or "Business Use Case",
      "name": "Use case name in 5 words or less",
      "description": "What the use case means for a company in the %[1]s industry, 15 words or less",
      "confidence": "high, medium or low"
    }
  ],
  "summary": "Summary of the notes in under 20 words"
}

Platform use cases are limited to:
- Data Warehousing: modern data warehouse, lakehouse architecture, SQL analytics
- AI Factory: delivering AI use cases in quick succession
- <Workload> Migration, or Migration from <Incumbent Technology>

Business use cases are the main business scenarios relevant to the %[1]s industry.

Notes to analyze: %[2]s

Rules:
- Only list use cases that are mentioned or strongly implied by the notes, and tie each one to the stated need.
- When a use case has both a business and a platform angle, name it as the business use case.
- If the notes discuss no use case at all, propose at least 3 business use cases and 2 platform use cases.`, industry, strings.TrimSpace(customerContent))
}

func FilterPrompt(useCaseName, customerNotes string) string {
	return fmt.Sprintf(`You are a content analysis expert. From the customer notes below, extract only the passages that relate directly to the given use case.

Keep the original wording and context of every passage you return. If nothing in the notes relates to the use case, reply exactly: "%s"

Use Case: %s
Customer Notes: %s

Reply with the filtered content only.`, NoContentFound, strings.TrimSpace(useCaseName), strings.TrimSpace(customerNotes))
}

func GeneratePrompt(useCaseName string, category models.Category, filteredContent string) string {
	return fmt.Sprintf(`You are a Databricks solutions expert writing customer success stories. From the customer content below, write the three story sections and score how well the content supports each one.

What each section covers:

Platform use cases:
- Problem: technical challenges, infrastructure limits, scalability issues
- Solution: Databricks platform capabilities, architecture, modernization approach
- Impact: measurable technical results (performance, cost, team productivity), with numbers

Business use cases:
- Problem: business challenges, operational inefficiency, market pressure
- Solution: data-driven capabilities, AI/ML applications, better decisions
- Impact: measurable business results (revenue, savings, efficiency, competitive edge), with numbers

Rules:
1. Write in the past tense ("faced", "implemented", "achieved").
2. Confidence scores run from 0.0 to 1.0 and reflect how well the content supports the section.
3. For any section scored below 0.7, list the specific information that is missing.
4. An impact section without numbers always scores below 0.5.

Respond with a JSON object of this shape:

{
  "problemStatement": "35-40 word past-tense description of the challenge",
  "databricksSolution": "35-40 word past-tense description of how Databricks solved it",
  "impact": "First impact statement, 20 words%[1]sSecond impact statement, 20 words",
  "problemConfidence": 0.0,
  "solutionConfidence": 0.0,
  "impactConfidence": 0.0,
  "problemSuggestions": ["missing information"],
  "solutionSuggestions": ["missing information"],
  "impactSuggestions": ["missing information"]
}

Use Case: %[2]s
Category: %[3]s
Customer Content: %[4]s`, models.ImpactSeparator, strings.TrimSpace(useCaseName), category, strings.TrimSpace(filteredContent))
}

var editInstructions = map[models.Section]string{
	models.SectionProblem: `Rewrite the problem as a compelling 35-40 word past-tense statement of the challenge the customer faced.

Respond with a JSON object of this shape:
{
  "improvedContent": "The improved 35-40 word problem statement",
  "researchFindings": "Sources separated by |, for example: A | B | C",
  "placeholdersUsed": ["Each placeholder used and what it stands for"]
}`,
	models.SectionSolution: `Rewrite the solution as a compelling 35-40 word past-tense statement of how Databricks solved the problem.

Respond with a JSON object of this shape:
{
  "improvedContent": "The improved 35-40 word solution statement",
  "researchFindings": "Sources separated by |, for example: A | B | C",
  "placeholdersUsed": ["Each placeholder used and what it stands for"]
}`,
	models.SectionImpact: `Rewrite the impact as two separate past-tense statements of at most 20 words each, joined by || . Each statement describes one measurable outcome and one KPI.

Respond with a JSON object of this shape:
{
  "improvedContent": "First statement||Second statement",
  "researchFindings": "Sources separated by |, for example: A | B | C",
  "placeholdersUsed": ["Each placeholder used and what it stands for"]
}

Internal benchmarks you may cite:
1. Data team (DE, DA, DS) productivity gain of 35%. Source: Databricks internal benchmarks and TEI report.
2. Time to market improvement of 30%. Source: Databricks internal benchmarks.
3. Faster time to insight, 30%. Source: Databricks internal benchmarks.

When specific data is not available use placeholders such as "XX% faster processing", "$XX,XXX cost reduction", "XX hours saved per week", "$XX million revenue increase" or "XX% improvement in efficiency".`,
}

func EditPrompt(section models.Section, currentContent string, feedback []string, useCaseName string, category models.Category) string {
	return fmt.Sprintf(`You are a Databricks solutions expert improving a section of a customer success story. You get the current text and feedback on what is missing.
Research online to address the feedback. Where specific data cannot be found, use XX-style placeholders.

%s

Steps:
1. Read the current content and the feedback.
2. Research information that addresses each feedback point.
3. Follow the response format above exactly.
4. Use the past tense throughout.

Section: %s
Current Content: %s
Feedback: %s
Use Case: %s
Category: %s

Make the content more specific and compelling while staying accurate.`,
		editInstructions[section], section, strings.TrimSpace(currentContent), strings.Join(feedback, "; "), strings.TrimSpace(useCaseName), category)
}

func StoryPrompt(in models.StoryInput) string {
	company := orDefault(in.CustomerInfo.CompanyName, "Customer")
	industry := orDefault(in.CustomerInfo.Industry, "Technology")
	region := orDefault(in.CustomerInfo.Region, "Global")
	return fmt.Sprintf(`You are a Databricks marketing expert writing customer success stories. From the use case below, write a short summary and a detailed story.

Customer:
- Company: %s
- Industry: %s
- Region: %s

Use case:
- Use Case: %s
- Category: %s
- Problem: %s
- Solution: %s
- Impact: %s

Requirements:
1. summary: a compelling 20-22 word summary of the story.
2. detailedStory: a 200-250 word narrative that opens with the customer and their challenge, describes the Databricks solution, and closes on the measurable impact, in a professional customer-facing tone.

Respond with a JSON object of this shape:
{
  "summary": "20-25 word summary",
  "detailedStory": "200-250 word story"
}`, company, industry, region, in.UseCaseName, in.UseCaseCategory, in.ProblemStatement, in.DatabricksSolution, in.Impact)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
