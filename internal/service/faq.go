package service

// MenuPages is the ordered page list shown in the selection menu. Typed
// number replies ("1", "2", ...) index into it.
var MenuPages = []string{"dashboard", "jobs", "candidates", "clients", "calendar", "claims"}

var pageCategories = map[string]string{
	"dashboard":  CategoryDashboard,
	"jobs":       CategoryJobPosting,
	"candidates": CategoryCandidateManagement,
	"clients":    CategoryClientManagement,
	"calendar":   CategoryCalendar,
	"claims":     CategoryClaims,
}

// pageFAQs are the per-page question menus; answering goes through the
// knowledge lookup with the selected question as the query.
var pageFAQs = map[string][]string{
	"dashboard": {
		"How do I customize my dashboard widgets?",
		"Why is my dashboard not showing recent data?",
		"How do I export a dashboard report?",
	},
	"jobs": {
		"How do I create a new job posting?",
		"How do I edit or close a published job?",
		"Why is my job posting not visible to candidates?",
	},
	"candidates": {
		"How do I upload a candidate resume?",
		"How do I move a candidate between pipeline stages?",
		"Why does a resume fail to parse?",
	},
	"clients": {
		"How do I add a new client company?",
		"How do I link a job to a client?",
		"How do I update client contact details?",
	},
	"calendar": {
		"How do I schedule an interview?",
		"How do I sync the calendar with Google or Outlook?",
		"How do I reschedule or cancel an interview?",
	},
	"claims": {
		"How do I submit a timesheet claim?",
		"Why was my claim rejected?",
		"How do I attach an invoice to a claim?",
	},
}

// categoryFAQText is the one-shot FAQ reply shown before a ticket is offered
// when escalation triggers without a direct-escalation phrase.
var categoryFAQText = map[string]string{
	CategoryAuthentication: `Here are the most common fixes for sign-in problems:
1. Reset your password from the "Forgot password" link on the login page.
2. Clear your browser cache and cookies, then try again.
3. If you use 2FA, check that your device clock is set to automatic.
4. Make sure your account has not been deactivated by your admin.`,
	CategoryCandidateManagement: `Common fixes for candidate and resume issues:
1. Resumes must be PDF or DOCX under 10 MB to parse correctly.
2. If parsing fails, re-save the file as PDF and upload again.
3. Duplicate candidates are merged from the candidate profile menu.`,
	CategoryJobPosting: `Common fixes for job posting issues:
1. A job must have a client, location and salary band before publishing.
2. Unpublished edits are saved as drafts under Jobs > Drafts.
3. Postings expire after 30 days unless renewed.`,
	CategoryClientManagement: `Common fixes for client record issues:
1. Client companies need a unique registration number.
2. Archived clients are hidden from pickers but never deleted.
3. Contact changes propagate to open jobs within a few minutes.`,
	CategoryCalendar: `Common fixes for calendar and interview issues:
1. Interview invites send only after all participants are added.
2. External calendar sync can lag up to 15 minutes.
3. Cancelled interviews stay visible, greyed out, for 7 days.`,
	CategoryClaims: `Common fixes for claims and timesheet issues:
1. Claims need an approved timesheet for the same period.
2. Rejected claims show the reviewer note under Claims > History.
3. Invoices must be attached as PDF.`,
	CategoryDashboard: `Common fixes for dashboard issues:
1. Widgets refresh every 10 minutes; use the refresh icon to force it.
2. Missing data usually means a filter is set on the top bar.
3. Reports export as CSV from the widget menu.`,
	CategoryGeneral: `A few general things to try first:
1. Refresh the page or sign out and back in.
2. Clear your browser cache.
3. Check the status banner on the dashboard for known incidents.`,
}

// categoryFallbacks answer a question when the knowledge lookup confidence is
// too low. Hand-authored, deliberately generic.
var categoryFallbacks = map[string]string{
	CategoryAuthentication:      "For sign-in problems, start with a password reset from the login page. If that does not help, I can open a support ticket for you.",
	CategoryCandidateManagement: "Candidate and resume management is handled from the Candidates page. Check the upload format (PDF/DOCX) first, and tell me if you want a support ticket.",
	CategoryJobPosting:          "Job postings are managed from the Jobs page. Drafts live under Jobs > Drafts. If something looks wrong there, I can open a support ticket.",
	CategoryClientManagement:    "Client records are managed from the Clients page. If a record will not save or update, I can open a support ticket.",
	CategoryCalendar:            "Interviews and scheduling live on the Calendar page. Sync issues usually clear within 15 minutes. Want me to open a support ticket?",
	CategoryClaims:              "Claims and timesheets are on the Claims page. Rejections include a reviewer note under History. I can open a support ticket if you are stuck.",
	CategoryDashboard:           "The dashboard aggregates your recent activity. Check the top-bar filters if data looks missing. I can open a support ticket if needed.",
	CategoryGeneral:             "I could not find that in the knowledge base. Could you rephrase, or would you like me to open a support ticket for the team?",
}

func FAQTextForCategory(category string) string {
	if text, ok := categoryFAQText[category]; ok {
		return text
	}
	return categoryFAQText[CategoryGeneral]
}

func CategoryForPage(page string) string {
	if cat, ok := pageCategories[page]; ok {
		return cat
	}
	return CategoryGeneral
}
