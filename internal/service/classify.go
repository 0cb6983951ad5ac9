package service

import (
	"regexp"
	"strings"

	"github.com/pmn-helpdesk/backend/internal/model"
)

// Issue categories. Pages of the app map onto these for FAQ routing.
const (
	CategoryCandidateManagement = "candidate_management"
	CategoryAuthentication      = "authentication"
	CategoryJobPosting          = "job_posting"
	CategoryClientManagement    = "client_management"
	CategoryCalendar            = "calendar"
	CategoryClaims              = "claims"
	CategoryDashboard           = "dashboard"
	CategoryGeneral             = "general"
)

type keywordRule struct {
	keyword  string
	category string
}

// categoryRules is scanned in order, first match wins. More specific keywords
// sit above generic ones so "login page" hits authentication before dashboard.
var categoryRules = []keywordRule{
	{"resume", CategoryCandidateManagement},
	{"cv", CategoryCandidateManagement},
	{"candidate", CategoryCandidateManagement},
	{"applicant", CategoryCandidateManagement},
	{"login", CategoryAuthentication},
	{"log in", CategoryAuthentication},
	{"password", CategoryAuthentication},
	{"sign in", CategoryAuthentication},
	{"signin", CategoryAuthentication},
	{"2fa", CategoryAuthentication},
	{"authentication", CategoryAuthentication},
	{"job posting", CategoryJobPosting},
	{"vacancy", CategoryJobPosting},
	{"job", CategoryJobPosting},
	{"client", CategoryClientManagement},
	{"company", CategoryClientManagement},
	{"interview", CategoryCalendar},
	{"schedule", CategoryCalendar},
	{"calendar", CategoryCalendar},
	{"appointment", CategoryCalendar},
	{"claim", CategoryClaims},
	{"timesheet", CategoryClaims},
	{"invoice", CategoryClaims},
	{"payment", CategoryClaims},
	{"dashboard", CategoryDashboard},
	{"widget", CategoryDashboard},
	{"report", CategoryDashboard},
}

// CategorizeIssue scans the message for the first matching keyword, then the
// last six context entries, and defaults to general.
func CategorizeIssue(message string, context []model.ConversationTurn) string {
	if cat, ok := matchCategory(message); ok {
		return cat
	}
	start := len(context) - 6
	if start < 0 {
		start = 0
	}
	for i := len(context) - 1; i >= start; i-- {
		if cat, ok := matchCategory(context[i].Content); ok {
			return cat
		}
	}
	return CategoryGeneral
}

func matchCategory(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.category, true
		}
	}
	return "", false
}

// Escalation detection is deliberately broad: showing a ticket offer
// unnecessarily is cheaper than failing to offer one.
var escalationPatterns = compileAll(
	`(?i)\bnot work(s|ing)?\b`,
	`(?i)\bdoesn'?t work\b`,
	`(?i)\bwon'?t (load|open|work|start|save)\b`,
	`(?i)\bcan'?t (access|open|load|log ?in|save|find|see)\b`,
	`(?i)\bunable to\b`,
	`(?i)\bbroken\b`,
	`(?i)\bcrash(es|ed|ing)?\b`,
	`(?i)\berror\b`,
	`(?i)\bfail(s|ed|ing|ure)?\b`,
	`(?i)\bstuck\b`,
	`(?i)\bfrozen?\b`,
	`(?i)\bstill (not|doesn'?t|won'?t|broken|stuck|failing)\b`,
	`(?i)\btried everything\b`,
	`(?i)\bnothing (works|helps|happens)\b`,
	`(?i)\bfrustrat(ed|ing)\b`,
	`(?i)\bannoying\b`,
	`(?i)\burgent(ly)?\b`,
	`(?i)\basap\b`,
	`(?i)\bright now\b`,
	`(?i)\bimmediately\b`,
	`(?i)\bhelp me\b`,
	`(?i)\bneed (help|support|someone)\b`,
	`(?i)\b(talk|speak) to (a |an |someone|human|person|agent)\b`,
	`(?i)\breal person\b`,
	`(?i)\b(create|open|raise|file) (a )?ticket\b`,
	`(?i)\bescalate\b`,
	`(?i)\bthis is (ridiculous|useless|terrible)\b`,
)

// Direct escalation skips the FAQ step entirely.
var directEscalationPatterns = compileAll(
	`(?i)\bcreate (a )?ticket\b`,
	`(?i)\bopen (a )?ticket\b`,
	`(?i)\braise (a )?ticket\b`,
	`(?i)\bfile (a )?(ticket|complaint)\b`,
	`(?i)\b(talk|speak) to (a human|a person|an agent|someone from support)\b`,
	`(?i)\bcontact support team\b`,
	`(?i)\bescalate\b`,
)

func ShouldEscalateToTicket(message string) bool {
	return matchesAny(message, escalationPatterns)
}

func IsDirectEscalation(message string) bool {
	return matchesAny(message, directEscalationPatterns)
}

var affirmativePattern = regexp.MustCompile(`(?i)^\s*(yes|yes please|yeah|yep|ok|okay|sure|go ahead|please do|do it|sounds good|create it)\s*[.!]*\s*$`)

// CheckTicketConfirmation is true only when the assistant offered a ticket
// within the last four turns and the current message is a short affirmative.
func CheckTicketConfirmation(context []model.ConversationTurn, message string) bool {
	if !affirmativePattern.MatchString(message) {
		return false
	}
	start := len(context) - 4
	if start < 0 {
		start = 0
	}
	for i := len(context) - 1; i >= start; i-- {
		if context[i].Role == model.RoleAssistant && context[i].TicketOffer {
			return true
		}
	}
	return false
}

var solutionKeywordPatterns = compileAll(
	`(?i)\bsolution\s*:`,
	`(?i)\bfix\s*:`,
	`(?i)\bfixed\s*:`,
	`(?i)\bresolved\s*:`,
	`(?i)\bworkaround\s*:`,
)

var knowledgeIndicatorPatterns = compileAll(
	`(?i)add (this )?to (the )?(faq|knowledge base|kb)`,
	`(?i)for the knowledge base`,
	`(?i)kb update`,
)

var supportResponsePatterns = compileAll(
	`(?i)\btry this\b`,
	`(?i)\btry (clearing|restarting|logging|refreshing)\b`,
	`(?i)\bclear (your |the )?cache\b`,
	`(?i)\brestart (your |the )?(browser|app|application)\b`,
	`(?i)\bthis (is|was) (caused|fixed|resolved)\b`,
	`(?i)\bshould (be )?(work|working|fixed|resolved)\b`,
	`(?i)\bupdate.{0,20}(version|browser)\b`,
	`(?i)\bfollow( these)? steps\b`,
)

// IsSupportSolution reports whether a message looks like a support-team fix.
// Inside a ticket thread the bar is just "long enough to mean something".
func IsSupportSolution(message string, isReplyToTicket bool) bool {
	trimmed := strings.TrimSpace(message)
	if isReplyToTicket {
		return len(trimmed) >= 5
	}
	if matchesAny(trimmed, solutionKeywordPatterns) {
		return true
	}
	if matchesAny(trimmed, knowledgeIndicatorPatterns) {
		return true
	}
	return matchesAny(trimmed, supportResponsePatterns)
}

var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|hiya|good (morning|afternoon|evening)|start|menu|help)\s*[.!?]*\s*$`)

var restartPattern = regexp.MustCompile(`(?i)^\s*(menu|start over|restart|main menu|back to menu|start)\s*[.!?]*\s*$`)

func IsGreeting(message string) bool {
	return greetingPattern.MatchString(message)
}

func IsRestartRequest(message string) bool {
	return restartPattern.MatchString(message)
}

// ticketNumberPattern matches assigned ticket numbers (PMN-20240101-0001
// style) embedded anywhere in plain text.
var ticketNumberPattern = regexp.MustCompile(`\b[A-Z]{2,3}-\d{8}-\d{4}\b`)

func ExtractTicketNumber(text string) string {
	return ticketNumberPattern.FindString(text)
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
