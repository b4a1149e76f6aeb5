// Package intent classifies inbound chat messages into skills.
//
// Classification is a fixed, ordered rule table: the first matching rule wins.
// Several predicates overlap (a bare 4-digit token is both a plausible Taiwan
// stock code and ordinary text), so the evaluation order is load-bearing and
// must not be reordered.
package intent

import (
	"regexp"
	"strings"

	"github.com/hsinyulin/finchat/internal/models"
)

// Rule pairs a predicate with the skill it selects and an argument extractor.
type Rule struct {
	Skill models.SkillID
	Match func(msg string) bool
	Arg   func(msg string) string
}

// Config controls optional classifier behavior.
type Config struct {
	// StrictStockMatching disables the free-form stock token rules (bare
	// 4-5 digit codes and 1-5 letter tickers anywhere in a message). The
	// loose behavior is a known false-positive source, kept as the default
	// because the explicit prefixes above it depend on winning first.
	StrictStockMatching bool
}

// Classifier evaluates the ordered rule table.
type Classifier struct {
	rules []Rule
}

// Keyword sets used by the rule table. Lottery names match anywhere in the
// message; the rest are prefix matches.
var (
	lotteryKeywords = []string{
		"威力彩", "大樂透", "今彩539", "雙贏彩", "三星彩", "四星彩",
		"38樂合彩", "39樂合彩", "49樂合彩",
	}
	goldKeywords     = []string{"金價", "黃金"}
	platinumKeywords = []string{"鉑金", "白金"}
	jpyKeywords      = []string{"日幣", "日元", "日圓"}
	usdKeywords      = []string{"美金", "美元"}
)

var (
	twStockCodeRe = regexp.MustCompile(`\b[0-9]{4,5}[A-Za-z]?\b`)
	usTickerRe    = regexp.MustCompile(`\b[A-Za-z]{1,5}\b`)
)

// CompanionArg is the fixed honorific passed to the companion persona.
const CompanionArg = "老公"

// NewClassifier builds a classifier with the fixed rule order.
func NewClassifier(cfg Config) *Classifier {
	fullMessage := func(msg string) string { return msg }
	fixed := func(arg string) func(string) string {
		return func(string) string { return arg }
	}

	rules := []Rule{
		{Skill: models.SkillLottery, Match: containsAny(lotteryKeywords), Arg: fullMessage},
		{Skill: models.SkillStock, Match: hasFoldPrefix("大盤", "台股"), Arg: fixed("大盤")},
		{Skill: models.SkillStock, Match: hasFoldPrefix("美盤", "美股"), Arg: fixed("美盤")},
		{Skill: models.SkillGold, Match: hasFoldPrefix(goldKeywords...), Arg: fullMessage},
		{Skill: models.SkillPlatinum, Match: hasFoldPrefix(platinumKeywords...), Arg: fullMessage},
		{Skill: models.SkillCurrency, Match: hasPrefix(jpyKeywords...), Arg: fixed("JPY")},
		{Skill: models.SkillCurrency, Match: hasPrefix(usdKeywords...), Arg: fixed("USD")},
		{Skill: models.SkillJobSearch, Match: hasPrefix("104:"), Arg: after(4)},
		{Skill: models.SkillParttimeJob, Match: hasPrefix("pt:"), Arg: after(3)},
		{Skill: models.SkillCrypto, Match: hasPrefix("cb:", "$:"), Arg: trimmedRemainder("cb:", "$:")},
	}

	if !cfg.StrictStockMatching {
		rules = append(rules,
			Rule{Skill: models.SkillStock, Match: matchesRe(twStockCodeRe), Arg: findRe(twStockCodeRe)},
			Rule{Skill: models.SkillStock, Match: matchesRe(usTickerRe), Arg: findRe(usTickerRe)},
		)
	}

	rules = append(rules,
		Rule{Skill: models.SkillCrypto, Match: hasPrefix("比特幣"), Arg: fixed("bitcoin")},
		Rule{Skill: models.SkillCrypto, Match: hasPrefix("狗狗幣"), Arg: fixed("dogecoin")},
		Rule{Skill: models.SkillCompanion, Match: hasPrefix("老婆"), Arg: fixed(CompanionArg)},
	)

	return &Classifier{rules: rules}
}

// Classify maps a message to a skill and its extracted argument. It is
// deterministic, side-effect free, and total: unmatched messages fall back
// to SkillLLMChat with an empty argument.
func (c *Classifier) Classify(message string) (models.SkillID, string) {
	for _, rule := range c.rules {
		if rule.Match(message) {
			return rule.Skill, rule.Arg(message)
		}
	}
	return models.SkillLLMChat, ""
}

func containsAny(keywords []string) func(string) bool {
	return func(msg string) bool {
		for _, kw := range keywords {
			if strings.Contains(msg, kw) {
				return true
			}
		}
		return false
	}
}

func hasPrefix(prefixes ...string) func(string) bool {
	return func(msg string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(msg, p) {
				return true
			}
		}
		return false
	}
}

func hasFoldPrefix(prefixes ...string) func(string) bool {
	return func(msg string) bool {
		lower := strings.ToLower(msg)
		for _, p := range prefixes {
			if strings.HasPrefix(lower, strings.ToLower(p)) {
				return true
			}
		}
		return false
	}
}

// after returns the message starting at the given byte offset. The offsets in
// the rule table follow ASCII prefixes ("104:", "pt:"), so byte indexing is safe.
func after(n int) func(string) string {
	return func(msg string) string {
		if len(msg) <= n {
			return ""
		}
		return msg[n:]
	}
}

func trimmedRemainder(prefixes ...string) func(string) string {
	return func(msg string) string {
		for _, p := range prefixes {
			if strings.HasPrefix(msg, p) {
				return strings.TrimSpace(msg[len(p):])
			}
		}
		return strings.TrimSpace(msg)
	}
}

func matchesRe(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

func findRe(re *regexp.Regexp) func(string) string {
	return re.FindString
}
