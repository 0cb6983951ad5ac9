package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/pmn-helpdesk/backend/internal/model"
)

// knowledgeRepo - DB 인터페이스 (활성 지식 항목 조회)
type knowledgeRepo interface {
	GetActiveKnowledgeEntries(ctx context.Context) ([]model.KnowledgeEntry, error)
}

// KnowledgeService serves the combined knowledge text: the static markdown
// document plus active database entries spliced in on each (re)load.
type KnowledgeService struct {
	repo     knowledgeRepo
	filePath string

	mu       sync.RWMutex
	document string
}

const communityHeader = "## Community Answers (from resolved tickets)"

func NewKnowledgeService(repo knowledgeRepo, filePath string) *KnowledgeService {
	return &KnowledgeService{repo: repo, filePath: filePath}
}

// Reload rebuilds the served document. A missing static file is logged and
// treated as an empty base rather than an error.
func (s *KnowledgeService) Reload(ctx context.Context) error {
	base := ""
	if s.filePath != "" {
		raw, err := os.ReadFile(s.filePath)
		if err != nil {
			log.Printf("[Knowledge] Failed to read knowledge file %s: %v", s.filePath, err)
		} else {
			base = string(raw)
		}
	}

	entries, err := s.repo.GetActiveKnowledgeEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load knowledge entries: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(base))
	if len(entries) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(communityHeader)
		sb.WriteString("\n")
		for _, e := range entries {
			sb.WriteString("\n### Q: ")
			sb.WriteString(strings.TrimSpace(e.Question))
			sb.WriteString("\n**A**: ")
			sb.WriteString(strings.TrimSpace(e.Answer))
			if e.TicketSource != nil && *e.TicketSource != "" {
				sb.WriteString("\n_source ticket: ")
				sb.WriteString(*e.TicketSource)
				sb.WriteString("_")
			}
			sb.WriteString("\n")
		}
	}

	s.mu.Lock()
	s.document = sb.String()
	s.mu.Unlock()
	return nil
}

func (s *KnowledgeService) Document() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document
}

// Lookup runs the section search over the served document and accepts a
// match only above the confidence threshold.
func (s *KnowledgeService) Lookup(question string, terms []string) (string, bool) {
	result := SearchKnowledgeBase(s.Document(), terms, question)
	if result.Confidence < 0.3 || result.Section == "" {
		return "", false
	}
	return result.Section, true
}

// FallbackForCategory returns the hand-authored answer for a category.
func (s *KnowledgeService) FallbackForCategory(category string) string {
	if text, ok := categoryFallbacks[category]; ok {
		return text
	}
	return categoryFallbacks[CategoryGeneral]
}

func (s *KnowledgeService) FallbackForPage(page string) string {
	return s.FallbackForCategory(CategoryForPage(page))
}

// SearchResult - 문서 섹션 검색 결과
type SearchResult struct {
	Section    string
	Confidence float64
}

var (
	keyPhrasePattern = regexp.MustCompile(`how (?:do i|to|can i) ([a-z][a-z ]{2,40})`)
	stepLinePattern  = regexp.MustCompile(`(?m)^\s*\d+\.`)
	wordPattern      = regexp.MustCompile(`[a-z0-9]+`)
)

// SearchKnowledgeBase scores each markdown section of the document against
// the question and search terms and returns the best match. This is a
// deterministic bag-of-terms ranker: no embeddings, no stemming.
//
// Score = fraction of question words (>=4 chars) present x3.0
//   - exact key-phrase matches ("how to X") x2.0 each
//   - per-term frequency bonus capped at 1.5 per term
//   - fixed bonuses for Q&A sections, step-by-step sections and
//     database-sourced sections
//
// Confidence = score / max(term count, 3), clamped to 1.0.
func SearchKnowledgeBase(document string, terms []string, question string) SearchResult {
	sections := splitSections(document)
	if len(sections) == 0 {
		return SearchResult{}
	}

	questionWords := significantWords(question)
	keyPhrases := keyPhrasePattern.FindAllStringSubmatch(strings.ToLower(question), -1)

	termCount := len(terms)
	if len(questionWords) > termCount {
		termCount = len(questionWords)
	}
	if termCount < 3 {
		termCount = 3
	}

	bestIdx := -1
	bestConfidence := 0.0
	for i, section := range sections {
		lower := strings.ToLower(section)
		score := 0.0

		if len(questionWords) > 0 {
			present := 0
			for _, w := range questionWords {
				if strings.Contains(lower, w) {
					present++
				}
			}
			score += float64(present) / float64(len(questionWords)) * 3.0
		}

		for _, m := range keyPhrases {
			if strings.Contains(lower, strings.TrimSpace(m[1])) {
				score += 2.0
			}
		}

		for _, term := range terms {
			t := strings.ToLower(strings.TrimSpace(term))
			if t == "" {
				continue
			}
			bonus := float64(strings.Count(lower, t)) * 0.5
			if bonus > 1.5 {
				bonus = 1.5
			}
			score += bonus
		}

		if strings.Contains(section, "### Q:") {
			score += 0.5
		}
		if stepLinePattern.MatchString(section) {
			score += 0.3
		}
		if strings.Contains(section, "_source ticket:") {
			score += 0.2
		}

		confidence := score / float64(termCount)
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence > bestConfidence {
			bestConfidence = confidence
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return SearchResult{}
	}

	section := sections[bestIdx]
	// A bare "### Q:" header carries its answer in the next section.
	if strings.HasPrefix(strings.TrimSpace(section), "### Q:") &&
		!strings.Contains(section, "**A**:") && bestIdx+1 < len(sections) {
		section = section + "\n" + sections[bestIdx+1]
	}

	return SearchResult{Section: strings.TrimSpace(section), Confidence: bestConfidence}
}

// splitSections cuts the document on "## " and "### Q:" headers.
func splitSections(document string) []string {
	if strings.TrimSpace(document) == "" {
		return nil
	}

	var sections []string
	var current []string
	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			sections = append(sections, text)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(document, "\n") {
		if strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "### Q:") {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return sections
}

func significantWords(text string) []string {
	var words []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) >= 4 {
			words = append(words, w)
		}
	}
	return words
}
