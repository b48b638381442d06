// Package parser превращает свободный текст задачи в название, описание и приоритет.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aidar/taskflow/internal/domain"
)

// Parsed результат разбора текста задачи
type Parsed struct {
	Name        string
	Description string
	// Priority пустой если текст не содержит признаков приоритета
	Priority domain.Priority
}

type rule struct {
	re    *regexp.Regexp
	build func(m []string) (name, description string)
	// priority переопределяет обнаруженный приоритет
	priority domain.Priority
}

var (
	highKeywords = []string{"urgent", "asap", "critical", "high priority", "important", "emergency"}
	lowKeywords  = []string{"low priority", "when possible", "sometime", "eventually"}

	splitRe = regexp.MustCompile(`[,;]`)
	forRe   = regexp.MustCompile(`(?i)^(.+?)\s+for\s+(.+)$`)
)

// Правила до разбиения по запятой
var headRules = []rule{
	{
		re: regexp.MustCompile(`(?i)(?:write|send|draft|compose)\s+(?:an?\s+)?email\s+to\s+([^,]+?)(?:\s+(?:for|about|regarding|concerning)\s+(.+))?$`),
		build: func(m []string) (string, string) {
			return "📧 Email to " + capitalize(m[1]), optional(m[2], "Regarding: ", "Email communication")
		},
	},
	{
		re: regexp.MustCompile(`(?i)(?:call|phone|ring)\s+([^,]+?)(?:\s+(?:about|regarding|for|to\s+discuss)\s+(.+))?$`),
		build: func(m []string) (string, string) {
			return "📞 Call " + capitalize(m[1]), optional(m[2], "About: ", "Phone conversation")
		},
	},
	{
		re: regexp.MustCompile(`(?i)(?:prepare|create|make|develop|build|design)\s+(.+?)\s+for\s+(.+?)(?:[,;]\s*(.+))?$`),
		build: func(m []string) (string, string) {
			desc := "For: " + capitalize(m[2])
			if strings.TrimSpace(m[3]) != "" {
				desc += ". " + capitalize(m[3])
			}
			return "🔨 " + capitalize(m[1]), desc
		},
	},
	{
		re: regexp.MustCompile(`(?i)(?:meeting|call|conference|discussion)\s+(?:with\s+)?([^,]+?)\s+(?:about|regarding|for|to\s+discuss)\s+(.+)$`),
		build: func(m []string) (string, string) {
			return "🤝 Meeting with " + capitalize(m[1]), "Topic: " + capitalize(m[2])
		},
	},
	simple(`^(?:review|check|examine|analyze)\s+(.+)$`, "🔍 Review ", "Review and analysis task"),
	simple(`^(?:fix|resolve|solve|debug|troubleshoot)\s+(.+)$`, "🔧 Fix ", "Problem resolution task"),
	simple(`^(?:learn|study|research|investigate)\s+(.+)$`, "📚 Learn ", "Learning and research task"),
	simple(`^(?:update|modify|edit|change|revise)\s+(.+)$`, "✏️ Update ", "Update and modification task"),
	simple(`^(?:submit|deliver|send|provide)\s+(.+)$`, "📤 Submit ", "Submission and delivery task"),
	{
		re: regexp.MustCompile(`(?i)^(?:schedule|plan|organize)\s+(.+?)\s+(?:for|on|at)\s+(.+)$`),
		build: func(m []string) (string, string) {
			return "📅 Schedule " + capitalize(m[1]), "For: " + capitalize(m[2])
		},
	},
}

// Правила после разбиения по запятой и ключевому слову "for"
var tailRules = []rule{
	{
		re: regexp.MustCompile(`(?i)^(?:urgent|priority|asap|important)\s*[:\-]?\s*(.+)$`),
		build: func(m []string) (string, string) {
			return "🚨 " + capitalize(m[1]), "High priority task"
		},
		priority: domain.PriorityHigh,
	},
	simple(`^(?:what|how|when|where|why|which)\s+(.+)\?*$`, "❓ ", "Research and investigation task"),
	simple(`^(?:implement|deploy|install|configure|setup|test|validate|verify)\s+(.+)$`, "⚙️ ", "Implementation and setup task"),
}

// Категории для текста, не подошедшего ни под одно правило. Порядок важен.
var categories = []struct {
	icon     string
	keywords []string
}{
	{"🤝", []string{"meeting", "call"}},
	{"📧", []string{"email", "message"}},
	{"💻", []string{"code", "program", "develop"}},
	{"🎨", []string{"design", "create", "make"}},
	{"🔍", []string{"review", "check", "analyze"}},
	{"🔧", []string{"fix", "bug", "issue"}},
	{"📚", []string{"learn", "study", "research"}},
	{"📅", []string{"plan", "organize", "schedule"}},
	{"🚨", []string{"urgent", "priority", "asap"}},
}

func simple(pattern, prefix, description string) rule {
	return rule{
		re: regexp.MustCompile(`(?i)` + pattern),
		build: func(m []string) (string, string) {
			return prefix + capitalize(m[1]), description
		},
	}
}

// Parse разбирает текст задачи. Возвращает false для пустого текста.
func Parse(input string) (Parsed, bool) {
	text := strings.TrimSpace(input)
	if text == "" {
		return Parsed{}, false
	}

	priority := DetectPriority(text)

	if p, ok := apply(headRules, text, priority); ok {
		return p, true
	}

	if parts := splitRe.Split(text, -1); len(parts) >= 2 {
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		title := parts[0]
		description := strings.Join(parts[1:], ", ")
		return Parsed{
			Name:        "📝 " + capitalizeFirst(title),
			Description: capitalizeFirst(description),
			Priority:    priority,
		}, true
	}

	if m := forRe.FindStringSubmatch(text); m != nil {
		return Parsed{
			Name:        "📋 " + capitalize(m[1]),
			Description: "For: " + capitalize(m[2]),
			Priority:    priority,
		}, true
	}

	if p, ok := apply(tailRules, text, priority); ok {
		return p, true
	}

	return Parsed{
		Name:        Categorize(text),
		Description: "General task",
		Priority:    priority,
	}, true
}

func apply(rules []rule, text string, priority domain.Priority) (Parsed, bool) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name, description := r.build(m)
		p := Parsed{Name: name, Description: description, Priority: priority}
		if r.priority != "" {
			p.Priority = r.priority
		}
		return p, true
	}
	return Parsed{}, false
}

// DetectPriority ищет в тексте ключевые слова приоритета
func DetectPriority(text string) domain.Priority {
	lower := strings.ToLower(text)
	if containsAny(lower, highKeywords) {
		return domain.PriorityHigh
	}
	if containsAny(lower, lowKeywords) {
		return domain.PriorityLow
	}
	return ""
}

// Categorize добавляет к тексту иконку категории по ключевым словам
func Categorize(text string) string {
	lower := strings.ToLower(text)
	for _, c := range categories {
		if containsAny(lower, c.keywords) {
			return c.icon + " " + capitalizeFirst(text)
		}
	}
	return "📝 " + capitalizeFirst(text)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func optional(s, prefix, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return prefix + capitalize(s)
}

func capitalize(s string) string {
	return capitalizeFirst(strings.TrimSpace(s))
}

func capitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
